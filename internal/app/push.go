package app

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/roadassist/client/internal/model"
	"github.com/roadassist/client/internal/reconcile"
	"github.com/roadassist/client/internal/transport"
)

// Topic layout mirrors the server's broker: one channel per user for
// personal events, one per shop for incoming work, one per accepted
// request for live client positions.
const (
	topicUserPrefix     = "/topic/user/"
	topicShopPrefix     = "/topic/shop/"
	topicLocationPrefix = "/topic/location/"
	liveLocationDest    = "/app/location-update"
)

// pushRetryDelay paces initial connect attempts; drops after a
// successful dial are retried by the connection itself.
const pushRetryDelay = 5 * time.Second

// pushEventMsg carries one decoded push event into the Bubble Tea loop.
type pushEventMsg struct {
	event transport.Event
}

// connStatusMsg reports push channel connectivity changes.
type connStatusMsg struct {
	connected bool
}

// waitForEvent re-arms the bridge from background goroutines.
func (m Model) waitForEvent() tea.Cmd {
	ch := m.eventCh
	return func() tea.Msg {
		return <-ch
	}
}

// subscribeTopics registers this session's topics. Registration is
// buffered; the announce frames go out when the dial completes.
func (m *Model) subscribeTopics() {
	user := m.session.User()
	if user == nil {
		return
	}

	handler := func(ev transport.Event) {
		select {
		case m.eventCh <- pushEventMsg{event: ev}:
		default:
			m.logger.Warn("push event dropped; bridge queue full", "type", string(ev.Type))
		}
	}

	topics := []string{topicUserPrefix + user.ID}
	if user.Role == model.RoleMechanic && user.MechanicShop != nil {
		topics = append(topics, topicShopPrefix+user.MechanicShop.ID)
	}

	for _, topic := range topics {
		err := m.conn.Subscribe(topic, handler)
		if err != nil && !errors.Is(err, transport.ErrTopicSubscribed) {
			m.logger.Warn("subscribe failed", "topic", topic, "error", err)
			continue
		}
		if err == nil {
			m.topics = append(m.topics, topic)
		}
	}
}

// unsubscribeTopics drops this session's topics so a different account
// signing in later does not inherit them.
func (m *Model) unsubscribeTopics() {
	for _, topic := range m.topics {
		if err := m.conn.Unsubscribe(topic); err != nil {
			m.logger.Warn("unsubscribe failed", "topic", topic, "error", err)
		}
	}
	m.topics = nil

	for requestID := range m.locationSubs {
		if err := m.conn.Unsubscribe(topicLocationPrefix + requestID); err != nil {
			m.logger.Warn("unsubscribe failed", "request", requestID, "error", err)
		}
	}
	m.locationSubs = nil
}

// syncLocationSubs keeps the mechanic subscribed to the live position
// of every job currently underway, and nothing else.
func (m *Model) syncLocationSubs() {
	if m.session.Role() != model.RoleMechanic {
		return
	}

	want := make(map[string]bool)
	for _, req := range m.requests.List(reconcile.ListActive) {
		if req.Status == model.StatusAccepted {
			want[req.ID] = true
		}
	}

	if m.locationSubs == nil {
		m.locationSubs = make(map[string]bool)
	}

	handler := func(ev transport.Event) {
		select {
		case m.eventCh <- pushEventMsg{event: ev}:
		default:
		}
	}

	for id := range want {
		if m.locationSubs[id] {
			continue
		}
		err := m.conn.Subscribe(topicLocationPrefix+id, handler)
		if err != nil && !errors.Is(err, transport.ErrTopicSubscribed) {
			m.logger.Warn("location subscribe failed", "request", id, "error", err)
			continue
		}
		m.locationSubs[id] = true
	}
	for id := range m.locationSubs {
		if want[id] {
			continue
		}
		if err := m.conn.Unsubscribe(topicLocationPrefix + id); err != nil {
			m.logger.Warn("location unsubscribe failed", "request", id, "error", err)
		}
		delete(m.locationSubs, id)
	}
}

// connectPush dials the push channel, retrying until it lands or the
// session ends. Later drops reconnect on their own.
func (m Model) connectPush() tea.Cmd {
	conn := m.conn
	sess := m.session
	logger := m.logger
	return func() tea.Msg {
		for sess.Active() {
			err := conn.Connect()
			if err == nil {
				return nil
			}
			logger.Warn("push connect failed", "error", err)
			time.Sleep(pushRetryDelay)
		}
		return nil
	}
}

// handlePush applies one push event to the stores and the view.
func (m Model) handlePush(ev transport.Event) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.waitForEvent()}

	if ev.Location != nil {
		m.applyLiveLocation(*ev.Location)
		return m, tea.Batch(cmds...)
	}

	if ev.Notification != nil {
		m.notifications.ApplyPush(*ev.Notification)
		if m.currentView == ViewNotifications {
			var cmd tea.Cmd
			m.notifPanel, cmd = m.notifPanel.Update(m.notifPanelSnapshot())
			cmds = append(cmds, cmd)
		}
	}

	directive := m.requests.ApplyEvent(ev)
	if directive.NeedRefetch {
		cmds = append(cmds, m.poller.Refresh(feedRequests))
	}
	if directive.Changed {
		var cmd tea.Cmd
		m.requestList, cmd = m.requestList.Update(m.currentListSnapshot())
		cmds = append(cmds, cmd)
	}

	if text := eventToast(ev); text != "" {
		var cmd tea.Cmd
		m, cmd = m.showToast(text)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// applyLiveLocation moves the client marker on the detail view when
// the reported request is the one on display.
func (m *Model) applyLiveLocation(loc model.LocationUpdate) {
	shown := m.detailView.Request()
	if shown == nil || shown.ID != loc.RequestID {
		return
	}
	updated := *shown
	updated.ClientLocation = model.NewGeoPoint(loc.Latitude, loc.Longitude)
	m.detailView.SetRequest(updated)
}

// eventToast maps push events to transient status-bar text. Quiet
// events return empty.
func eventToast(ev transport.Event) string {
	switch ev.Type {
	case model.EventNewRequest:
		return "New request received"
	case model.EventSOSAlert:
		return "SOS alert nearby"
	case model.EventRequestAccepted:
		return "Your request was accepted"
	case model.EventRequestRejected:
		return "Your request was declined"
	case model.EventStatusUpdate:
		return "Request status updated"
	case model.EventGeneric:
		if ev.Notification != nil {
			return ev.Notification.Title
		}
		return ""
	default:
		return ""
	}
}
