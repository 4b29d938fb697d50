package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/roadassist/client/internal/geo"
	"github.com/roadassist/client/internal/model"
	"github.com/roadassist/client/internal/reconcile"
)

// positionMsg carries a fresh device position fix.
type positionMsg struct {
	position model.Position
}

// startPositionWatcher boots the gpsd provider and the movement-gated
// watcher, and arms the first fix read.
func (m *Model) startPositionWatcher() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.geoStop = cancel

	provider := geo.NewGpsdProvider(m.cfg.Geo.GpsdAddr)
	go provider.Run(ctx)

	watcher := geo.NewWatcher(provider, secs(m.cfg.Geo.SampleIntervalSec), m.logger)
	go watcher.Run(ctx)

	m.fixes = watcher.Fixes()
	return m.waitForFix()
}

// waitForFix blocks on the next movement-gated position fix. The
// stream closes on logout; the pending read ends with it.
func (m Model) waitForFix() tea.Cmd {
	fixes := m.fixes
	if fixes == nil {
		return nil
	}
	return func() tea.Msg {
		pos, ok := <-fixes
		if !ok {
			return nil
		}
		return positionMsg{position: pos}
	}
}

// handlePosition records the fix and shares it while a job is underway.
func (m Model) handlePosition(msg positionMsg) (tea.Model, tea.Cmd) {
	m.position = msg.position
	m.haveFix = true
	m.publishLiveLocation()
	return m, m.waitForFix()
}

// publishLiveLocation streams the fix to the shop working the client's
// accepted request, when there is one and the channel is up.
func (m Model) publishLiveLocation() {
	if !m.conn.Connected() {
		return
	}

	req, ok := m.acceptedRequest()
	if !ok {
		return
	}

	payload := model.LocationUpdate{
		RequestID:  req.ID,
		InstanceID: m.session.InstanceID(),
		Latitude:   m.position.Latitude,
		Longitude:  m.position.Longitude,
	}
	if err := m.conn.Send(liveLocationDest, payload); err != nil {
		m.logger.Warn("live location publish failed", "request", req.ID, "error", err)
	}
}

// acceptedRequest returns the client's in-progress request, if any.
func (m Model) acceptedRequest() (model.RepairRequest, bool) {
	for _, req := range m.requests.List(reconcile.ListMine) {
		if req.Status == model.StatusAccepted {
			return req, true
		}
	}
	return model.RepairRequest{}, false
}
