package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/roadassist/client/internal/model"
	"github.com/roadassist/client/internal/reconcile"
	"github.com/roadassist/client/internal/ui/notifpanel"
	"github.com/roadassist/client/internal/ui/requestlist"
)

// Feed names. The requests feed runs on the short cadence because it
// backs the lists the user is staring at; the rest can lag.
const (
	feedRequests      = "requests"
	feedDashboard     = "dashboard"
	feedNotifications = "notifications"
)

// cacheSeededMsg carries one cached request list, shown until the first
// poll resolves.
type cacheSeededMsg struct {
	list     reconcile.ListKind
	requests []model.RepairRequest
	err      error
}

// cachedNotifsMsg carries cached notifications for the same purpose.
type cachedNotifsMsg struct {
	items []model.Notification
	err   error
}

// notifUpdatedMsg signals that the notification store changed outside a
// poll cycle (mark-read round-trips).
type notifUpdatedMsg struct{}

// registerFeeds wires the poll cadence for the signed-in role.
func (m *Model) registerFeeds() {
	poll := m.cfg.Poll

	if m.session.Role() == model.RoleMechanic {
		incoming := m.fetchList(reconcile.ListIncoming, m.client.IncomingRequests)
		active := m.fetchList(reconcile.ListActive, m.client.ActiveJobs)
		m.poller.Register(reconcile.Feed{
			Name:     feedRequests,
			Interval: secs(poll.RequestsSec),
			Fetch: func(ctx context.Context) error {
				if err := incoming(ctx); err != nil {
					return err
				}
				return active(ctx)
			},
		})
		completed := m.fetchList(reconcile.ListCompleted, m.client.CompletedJobs)
		history := m.fetchList(reconcile.ListHistory, m.client.WorkHistory)
		m.poller.Register(reconcile.Feed{
			Name:     feedDashboard,
			Interval: secs(poll.DashboardSec),
			Fetch: func(ctx context.Context) error {
				if err := completed(ctx); err != nil {
					return err
				}
				return history(ctx)
			},
		})
	} else {
		m.poller.Register(reconcile.Feed{
			Name:     feedRequests,
			Interval: secs(poll.RequestsSec),
			Fetch:    m.fetchList(reconcile.ListMine, m.client.MyRequests),
		})
	}

	m.poller.Register(reconcile.Feed{
		Name:     feedNotifications,
		Interval: secs(poll.NotificationsSec),
		Fetch:    m.fetchNotifications,
	})
}

func secs(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// fetchList builds a poll fetch for one request list: stamp the poll,
// fetch, apply the snapshot unless it lost the race, persist.
func (m *Model) fetchList(
	kind reconcile.ListKind,
	fetch func(context.Context) ([]model.RepairRequest, error),
) func(context.Context) error {
	requests := m.requests
	cache := m.cache
	logger := m.logger
	return func(ctx context.Context) error {
		stamp := requests.BeginPoll()
		items, err := fetch(ctx)
		if err != nil {
			return err
		}
		if !requests.ApplySnapshot(kind, stamp, items) {
			return nil
		}
		if err := cache.ReplaceRequests(ctx, string(kind), items); err != nil {
			logger.Warn("caching requests failed", "list", string(kind), "error", err)
		}
		return nil
	}
}

// fetchNotifications refreshes the notification store and mirrors it to
// the offline cache.
func (m *Model) fetchNotifications(ctx context.Context) error {
	if err := m.notifications.Refetch(ctx); err != nil {
		return err
	}
	items, _ := m.notifications.Snapshot()
	if err := m.cache.UpsertNotifications(ctx, items); err != nil {
		m.logger.Warn("caching notifications failed", "error", err)
	}
	return nil
}

// handleFeedResult reacts to one finished poll cycle.
func (m Model) handleFeedResult(msg reconcile.FeedResultMsg) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.poller.WaitForNextResult()}

	if msg.Error != nil {
		// Auth expiry arrives separately via the client hook.
		if !msg.Auth {
			m.logger.Warn("poll failed", "feed", msg.Feed, "error", msg.Error)
		}
		return m, tea.Batch(cmds...)
	}

	if msg.Feed == feedNotifications {
		var cmd tea.Cmd
		m.notifPanel, cmd = m.notifPanel.Update(m.notifPanelSnapshot())
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	m.syncLocationSubs()

	var cmd tea.Cmd
	m.requestList, cmd = m.requestList.Update(m.currentListSnapshot())
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// currentListSnapshot builds a reload message for the list on display.
func (m Model) currentListSnapshot() requestlist.RequestsLoadedMsg {
	kind := m.requestList.Current()
	return requestlist.RequestsLoadedMsg{
		List:     kind,
		Requests: m.requests.List(kind),
	}
}

// notifPanelSnapshot builds a reload message for the notification panel.
func (m Model) notifPanelSnapshot() notifpanel.NotificationsLoadedMsg {
	items, unread := m.notifications.Snapshot()
	return notifpanel.NotificationsLoadedMsg{
		Notifications: items,
		Unread:        unread,
	}
}

// seedFromCache shows the last known server state while the first polls
// are in flight.
func (m Model) seedFromCache() tea.Cmd {
	kind := reconcile.ListMine
	if m.session.Role() == model.RoleMechanic {
		kind = reconcile.ListIncoming
	}
	cache := m.cache

	loadRequests := func() tea.Msg {
		ctx, cancel := reqCtx()
		defer cancel()
		items, err := cache.GetRequests(ctx, string(kind))
		return cacheSeededMsg{list: kind, requests: items, err: err}
	}
	loadNotifs := func() tea.Msg {
		ctx, cancel := reqCtx()
		defer cancel()
		items, err := cache.GetNotifications(ctx)
		return cachedNotifsMsg{items: items, err: err}
	}
	return tea.Batch(loadRequests, loadNotifs)
}

// clearCache wipes the offline cache on logout.
func (m Model) clearCache() tea.Cmd {
	cache := m.cache
	logger := m.logger
	return func() tea.Msg {
		ctx, cancel := reqCtx()
		defer cancel()
		if err := cache.Clear(ctx); err != nil {
			logger.Warn("clearing cache failed", "error", err)
		}
		return nil
	}
}

// loadNotificationPanel refreshes the panel from the store and kicks a
// refetch so it catches up with the server.
func (m Model) loadNotificationPanel() tea.Cmd {
	snapshot := m.notifPanelSnapshot()
	return tea.Batch(
		func() tea.Msg { return snapshot },
		m.poller.Refresh(feedNotifications),
	)
}

// openNotification marks it read and jumps to the linked request when
// it is on the list currently shown.
func (m Model) openNotification(n model.Notification) (tea.Model, tea.Cmd) {
	mdl, cmd := m.markNotificationRead(n.ID)

	if n.RequestID != "" {
		if req, ok := mdl.findRequest(n.RequestID); ok {
			mdl.detailView.SetRequest(req)
			mdl.previousView = ViewRequests
			mdl.currentView = ViewDetail
		}
	}
	return mdl, cmd
}

// markNotificationRead flips the read flag locally and repaints the
// panel in the same tick; the server confirm runs behind it and the
// store reconciles by refetch if the server disagrees.
func (m Model) markNotificationRead(id string) (Model, tea.Cmd) {
	if !m.notifications.MarkReadLocal(id) {
		return m, nil
	}

	var cmd tea.Cmd
	m.notifPanel, cmd = m.notifPanel.Update(m.notifPanelSnapshot())
	return m, tea.Batch(cmd, m.confirmNotificationRead(id))
}

func (m Model) confirmNotificationRead(id string) tea.Cmd {
	notifications := m.notifications
	logger := m.logger
	return func() tea.Msg {
		ctx, cancel := reqCtx()
		defer cancel()
		if err := notifications.ConfirmRead(ctx, id); err != nil {
			logger.Warn("mark read failed", "notification", id, "error", err)
		}
		return notifUpdatedMsg{}
	}
}

// markAllNotificationsRead flags the whole feed as read, with the same
// flip-then-confirm split as a single mark-read.
func (m Model) markAllNotificationsRead() (Model, tea.Cmd) {
	m.notifications.MarkAllReadLocal()

	var cmd tea.Cmd
	m.notifPanel, cmd = m.notifPanel.Update(m.notifPanelSnapshot())
	return m, tea.Batch(cmd, m.confirmAllNotificationsRead())
}

func (m Model) confirmAllNotificationsRead() tea.Cmd {
	notifications := m.notifications
	logger := m.logger
	return func() tea.Msg {
		ctx, cancel := reqCtx()
		defer cancel()
		if err := notifications.ConfirmAllRead(ctx); err != nil {
			logger.Warn("mark all read failed", "error", err)
		}
		return notifUpdatedMsg{}
	}
}
