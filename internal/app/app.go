package app

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/roadassist/client/internal/api"
	"github.com/roadassist/client/internal/keys"
	"github.com/roadassist/client/internal/model"
	"github.com/roadassist/client/internal/notify"
	"github.com/roadassist/client/internal/reconcile"
	"github.com/roadassist/client/internal/session"
	"github.com/roadassist/client/internal/store"
	"github.com/roadassist/client/internal/transport"
	"github.com/roadassist/client/internal/ui"
	"github.com/roadassist/client/internal/ui/detail"
	helpview "github.com/roadassist/client/internal/ui/help"
	"github.com/roadassist/client/internal/ui/login"
	"github.com/roadassist/client/internal/ui/notifpanel"
	"github.com/roadassist/client/internal/ui/ratingform"
	"github.com/roadassist/client/internal/ui/requestform"
	"github.com/roadassist/client/internal/ui/requestlist"
	"github.com/roadassist/client/internal/ui/shoplist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewRequests
	ViewDetail
	ViewShops
	ViewBooking
	ViewRating
	ViewNotifications
	ViewHelp
)

// Model is the root Bubble Tea model that manages view routing, the
// push channel, background polling, and the offline cache.
type Model struct {
	cfg    *model.AppConfig
	logger *slog.Logger

	session       *session.Session
	client        *api.Client
	conn          *transport.Conn
	poller        *reconcile.Poller
	requests      *reconcile.Reconciler
	notifications *notify.Store
	cache         store.Store

	keys   *keys.KeyMap
	layout ui.Layout
	ready  bool

	currentView  ViewState
	previousView ViewState

	loginView   login.Model
	requestList requestlist.Model
	detailView  detail.Model
	shopList    shoplist.Model
	bookingForm requestform.Model
	ratingForm  ratingform.Model
	notifPanel  notifpanel.Model
	helpView    helpview.Model

	// eventCh bridges push frames, connection status changes, and the
	// unauthorized hook from their goroutines into the Bubble Tea loop.
	eventCh chan tea.Msg

	connected bool
	toast     string
	toastSeq  int

	position model.Position
	haveFix  bool
	fixes    <-chan model.Position
	geoStop  func()

	// available mirrors the mechanic shop's booking availability.
	available bool

	// topics subscribed for this session, dropped on logout.
	topics []string

	// locationSubs tracks per-request live-location subscriptions,
	// keyed by request id.
	locationSubs map[string]bool
}

// New creates the root application model. The session may already hold
// a resumed token; Init validates it against the server before entering
// the main view.
func New(
	cfg *model.AppConfig,
	sess *session.Session,
	client *api.Client,
	cache store.Store,
	logger *slog.Logger,
) Model {
	k := keys.DefaultKeyMap()

	eventCh := make(chan tea.Msg, 64)
	client.OnUnauthorized(func() {
		select {
		case eventCh <- sessionExpiredMsg{}:
		default:
		}
	})

	conn := transport.New(cfg.Server.WSURL, sess.Token, logger)
	conn.OnStatusChange(func(connected bool) {
		select {
		case eventCh <- connStatusMsg{connected: connected}:
		default:
		}
	})

	m := Model{
		cfg:           cfg,
		logger:        logger,
		session:       sess,
		client:        client,
		conn:          conn,
		poller:        reconcile.NewPoller(),
		requests:      reconcile.New(),
		notifications: notify.NewStore(client, logger),
		cache:         cache,
		keys:          k,
		currentView:   ViewLogin,
		loginView:     login.New(80, 24),
		requestList:   requestlist.New(model.RoleClient, k, 80, 24),
		detailView:    detail.New(80, 24),
		shopList:      shoplist.New(k, 80, 24),
		bookingForm:   requestform.New(80, 24),
		ratingForm:    ratingform.New(80, 24),
		notifPanel:    notifpanel.New(k, 80, 24),
		helpView:      helpview.New(k, 80, 24),
		eventCh:       eventCh,
	}
	return m
}

// Init validates a resumed token or shows the login form.
func (m Model) Init() tea.Cmd {
	if m.session.Token() != "" {
		return tea.Batch(m.validateSession(), m.waitForEvent())
	}
	return tea.Batch(m.loginView.Start(), m.waitForEvent())
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w := m.layout.ContentWidth()
		h := m.layout.ContentHeight()
		m.loginView.SetSize(w, h)
		m.requestList.SetSize(w, h)
		m.detailView.SetSize(w, h)
		m.shopList.SetSize(w, h)
		m.bookingForm.SetSize(w, h)
		m.ratingForm.SetSize(w, h)
		m.notifPanel.SetSize(w, h)
		m.helpView.SetSize(w, h)
		// Forward to the active view so huh forms recalculate layout.
		return m.updateActiveView(msg)

	case sessionValidatedMsg:
		if msg.err != nil {
			m.session.Clear()
			m.currentView = ViewLogin
			if api.IsAuthError(msg.err) {
				return m, tea.Batch(m.loginView.Start(), m.waitForEvent())
			}
			cmd := m.loginView.SetError("Server unreachable. Sign in to retry.")
			return m, tea.Batch(cmd, m.waitForEvent())
		}
		m.session.SetUser(msg.user)
		return m.enterMain()

	case authResultMsg:
		return m.handleAuthResult(msg)

	case login.SubmitLoginMsg:
		return m, m.doLogin(msg.Credentials)

	case login.SubmitRegisterMsg:
		return m, m.doRegister(msg.Registration)

	case login.SwitchedModeMsg:
		return m, nil

	case sessionExpiredMsg:
		return m.logout("Session expired. Sign in again.")

	case connStatusMsg:
		wasConnected := m.connected
		m.connected = msg.connected
		if msg.connected && !wasConnected && m.session.Active() {
			// Refetch everything after a gap; pushes may have been missed.
			return m, tea.Batch(m.poller.RefreshAll(), m.waitForEvent())
		}
		return m, m.waitForEvent()

	case pushEventMsg:
		return m.handlePush(msg.event)

	case reconcile.FeedResultMsg:
		return m.handleFeedResult(msg)

	case cacheSeededMsg:
		// Cached rows only matter before the first poll resolves; never
		// clobber fresher server data.
		if msg.err == nil && msg.list == m.requestList.Current() &&
			len(m.requests.List(msg.list)) == 0 {
			var cmd tea.Cmd
			m.requestList, cmd = m.requestList.Update(requestlist.RequestsLoadedMsg{
				List:     msg.list,
				Requests: msg.requests,
			})
			return m, cmd
		}
		return m, nil

	case cachedNotifsMsg:
		if msg.err == nil && len(msg.items) > 0 {
			var cmd tea.Cmd
			m.notifPanel, cmd = m.notifPanel.Update(notifpanel.NotificationsLoadedMsg{
				Notifications: msg.items,
				Unread:        countUnread(msg.items),
			})
			return m, cmd
		}
		return m, nil

	case notifUpdatedMsg:
		var cmd tea.Cmd
		m.notifPanel, cmd = m.notifPanel.Update(m.notifPanelSnapshot())
		return m, cmd

	case requestlist.SelectedRequestMsg:
		if req, ok := m.findRequest(msg.RequestID); ok {
			m.detailView.SetRequest(req)
			m.previousView = m.currentView
			m.currentView = ViewDetail
		}
		return m, nil

	case requestlist.AcceptRequestMsg:
		return m, m.acceptRequest(msg.RequestID)

	case requestlist.RejectRequestMsg:
		return m, m.rejectRequest(msg.RequestID)

	case requestlist.CompleteRequestMsg:
		return m, m.completeRequest(msg.RequestID)

	case requestlist.RateRequestMsg:
		m.previousView = m.currentView
		m.currentView = ViewRating
		return m, m.ratingForm.Start(msg.Request)

	case ratingform.SubmitRatingMsg:
		m.currentView = ViewRequests
		return m, m.submitRating(msg.Input)

	case ratingform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case shopsFoundMsg:
		if msg.err != nil {
			return m.showToast(errorToast("Shop search failed", msg.err))
		}
		m.previousView = ViewRequests
		m.currentView = ViewShops
		return m.updateActiveView(shoplist.ShopsLoadedMsg{Shops: msg.shops})

	case shoplist.ShopSelectedMsg:
		return m, m.openBooking(msg.Shop)

	case bookingShopMsg:
		m.previousView = m.currentView
		m.currentView = ViewBooking
		return m, m.bookingForm.StartBooking(msg.shop, m.position)

	case availabilityMsg:
		if msg.err != nil {
			return m.showToast(errorToast("Availability update failed", msg.err))
		}
		m.available = msg.available
		if msg.available {
			return m.showToast("Shop is open for bookings")
		}
		return m.showToast("Shop is closed for bookings")

	case requestform.SubmitRequestMsg:
		m.currentView = ViewRequests
		return m, m.createRequest(msg.Input)

	case requestform.SubmitSOSMsg:
		m.currentView = ViewRequests
		return m, m.sendSOS(msg.Input)

	case requestform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case notifpanel.OpenedNotificationMsg:
		return m.openNotification(msg.Notification)

	case notifpanel.MarkAllReadMsg:
		return m.markAllNotificationsRead()

	case actionDoneMsg:
		return m.handleActionDone(msg)

	case positionMsg:
		return m.handlePosition(msg)

	case toastClearMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil

	case tea.KeyMsg:
		if handled, mdl, cmd := m.handleGlobalKeys(msg); handled {
			return mdl, cmd
		}
		mdl, cmd := m.updateActiveView(msg)
		// Tab cycling and filter changes need the new list's items.
		if next, ok := mdl.(Model); ok && next.currentView == ViewRequests {
			var reload tea.Cmd
			next.requestList, reload = next.requestList.Update(next.currentListSnapshot())
			return next, tea.Batch(cmd, reload)
		}
		return mdl, cmd
	}

	return m.updateActiveView(msg)
}

// handleGlobalKeys processes keys that work across views. Returns false
// when the key should fall through to the active view.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	// Forms own the keyboard; only ctrl+c is global there.
	formActive := m.currentView == ViewLogin ||
		m.currentView == ViewBooking ||
		m.currentView == ViewRating

	if msg.String() == "ctrl+c" {
		m.shutdown()
		return true, m, tea.Quit
	}
	if formActive {
		return false, m, nil
	}

	switch msg.String() {
	case "q":
		if m.currentView == ViewRequests {
			m.shutdown()
			return true, m, tea.Quit
		}

	case "esc":
		if m.currentView != ViewRequests {
			m.currentView = ViewRequests
			return true, m, nil
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, m, nil

	case "r":
		if m.currentView == ViewRequests {
			return true, m, m.poller.RefreshAll()
		}

	case "n":
		if m.currentView == ViewRequests {
			m.previousView = m.currentView
			m.currentView = ViewNotifications
			return true, m, m.loadNotificationPanel()
		}
		if m.currentView == ViewNotifications {
			m.currentView = m.previousView
			return true, m, nil
		}

	case "f":
		if m.currentView == ViewRequests && m.session.Role() == model.RoleClient {
			return true, m, m.findNearbyShops()
		}

	case "b":
		if m.currentView == ViewRequests && m.session.Role() == model.RoleClient {
			return true, m, m.findNearbyShops()
		}

	case "S":
		if m.currentView == ViewRequests && m.session.Role() == model.RoleClient {
			if !m.haveFix {
				mdl, cmd := m.showToast("No position fix yet; cannot send SOS")
				return true, mdl, cmd
			}
			m.previousView = m.currentView
			m.currentView = ViewBooking
			return true, m, m.bookingForm.StartSOS(m.position)
		}

	case "A":
		if m.currentView == ViewRequests && m.session.Role() == model.RoleMechanic {
			return true, m, m.setAvailability(!m.available)
		}

	case "L":
		if m.currentView == ViewRequests {
			mdl, cmd := m.logout("")
			return true, mdl, cmd
		}
	}

	return false, m, nil
}

// enterMain switches from authentication to the main request view and
// starts the background machinery for the signed-in role.
func (m Model) enterMain() (tea.Model, tea.Cmd) {
	role := m.session.Role()
	m.requestList = requestlist.New(role, m.keys, m.layout.ContentWidth(), m.layout.ContentHeight())
	m.currentView = ViewRequests

	if user := m.session.User(); user != nil && user.MechanicShop != nil {
		m.available = user.MechanicShop.IsAvailable
	}

	// A stopped poller cannot restart, and the previous account's lists
	// and notifications must not leak into this session.
	m.poller = reconcile.NewPoller()
	m.requests = reconcile.New()
	m.notifications = notify.NewStore(m.client, m.logger)

	m.registerFeeds()
	m.subscribeTopics()

	cmds := []tea.Cmd{
		m.seedFromCache(),
		m.connectPush(),
		m.poller.Start(),
		m.waitForEvent(),
	}
	if role == model.RoleClient && m.cfg.Geo.Enabled {
		cmds = append(cmds, m.startPositionWatcher())
	}

	m.logger.Info("session started",
		"role", string(role),
		"instance", m.session.InstanceID(),
	)
	return m, tea.Batch(cmds...)
}

// logout tears the session down and returns to the login view. The
// reason, when non-empty, is shown above the login form.
func (m Model) logout(reason string) (tea.Model, tea.Cmd) {
	m.unsubscribeTopics()
	m.shutdown()
	m.session.Clear()
	m.currentView = ViewLogin
	m.connected = false
	m.toast = ""

	cmds := []tea.Cmd{m.clearCache(), m.waitForEvent()}
	if reason != "" {
		cmds = append(cmds, m.loginView.SetError(reason))
	} else {
		cmds = append(cmds, m.loginView.Start())
	}
	return m, tea.Batch(cmds...)
}

// shutdown stops the background machinery without touching the session.
func (m *Model) shutdown() {
	m.poller.Stop()
	m.conn.Disconnect()
	if m.geoStop != nil {
		m.geoStop()
		m.geoStop = nil
	}
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewRequests:
		m.requestList, cmd = m.requestList.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewShops:
		m.shopList, cmd = m.shopList.Update(msg)
	case ViewBooking:
		m.bookingForm, cmd = m.bookingForm.Update(msg)
	case ViewRating:
		m.ratingForm, cmd = m.ratingForm.Update(msg)
	case ViewNotifications:
		m.notifPanel, cmd = m.notifPanel.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.currentView == ViewLogin {
		return m.loginView.View()
	}

	status := ui.HeaderStatus{
		Connected: m.connected,
		Unread:    m.notifications.Unread(),
	}
	header := m.layout.RenderHeader(m.headerTitle(), status)
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.toast)

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// headerTitle names the app and the signed-in user.
func (m Model) headerTitle() string {
	user := m.session.User()
	if user == nil {
		return "RoadAssist"
	}
	if user.Role == model.RoleMechanic && user.MechanicShop != nil {
		return fmt.Sprintf("RoadAssist | %s", user.MechanicShop.ShopName)
	}
	return fmt.Sprintf("RoadAssist | %s", user.Name)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewRequests:
		return m.requestList.View()
	case ViewDetail:
		return m.detailView.View()
	case ViewShops:
		return m.shopList.View()
	case ViewBooking:
		return m.bookingForm.View()
	case ViewRating:
		return m.ratingForm.View()
	case ViewNotifications:
		return m.notifPanel.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewDetail:
		return "esc back"
	case ViewShops:
		return "enter book | esc back"
	case ViewBooking, ViewRating:
		return "enter submit | esc cancel"
	case ViewNotifications:
		return "enter open | M mark all read | esc back"
	default:
		if m.session.Role() == model.RoleMechanic {
			return "q quit | ? help | tab lists | a accept | x reject | c complete | A availability | n notifications"
		}
		return "q quit | ? help | f find shops | S sos | t rate | n notifications"
	}
}

// countUnread tallies unread notifications in a cached feed.
func countUnread(items []model.Notification) int {
	n := 0
	for _, item := range items {
		if !item.IsRead {
			n++
		}
	}
	return n
}

// findRequest looks a request up in the list the user is viewing.
func (m Model) findRequest(id string) (model.RepairRequest, bool) {
	for _, req := range m.requests.List(m.requestList.Current()) {
		if req.ID == id {
			return req, true
		}
	}
	return model.RepairRequest{}, false
}
