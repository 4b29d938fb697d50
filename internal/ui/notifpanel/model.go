package notifpanel

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/roadassist/client/internal/keys"
	"github.com/roadassist/client/internal/model"
	"github.com/roadassist/client/internal/theme"
)

// NotificationsLoadedMsg carries the current notification feed.
type NotificationsLoadedMsg struct {
	Notifications []model.Notification
	Unread        int
}

// OpenedNotificationMsg is sent when the user opens a notification; the
// app marks it read and jumps to the linked request, if any.
type OpenedNotificationMsg struct {
	Notification model.Notification
}

// MarkAllReadMsg asks the app to flag the whole feed as read.
type MarkAllReadMsg struct{}

// NotificationItem wraps a model.Notification for a bubbles/list.
type NotificationItem struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i NotificationItem) FilterValue() string { return i.Notification.Title }

// Title returns the notification title.
func (i NotificationItem) Title() string { return i.Notification.Title }

// Description returns the notification body.
func (i NotificationItem) Description() string { return i.Notification.Message }

// notifDelegate renders one notification row.
type notifDelegate struct{}

func (d notifDelegate) Height() int  { return 1 }
func (d notifDelegate) Spacing() int { return 0 }
func (d notifDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d notifDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ni, ok := item.(NotificationItem)
	if !ok {
		return
	}

	n := ni.Notification
	isSelected := index == m.Index()

	marker := "●"
	if n.IsRead {
		marker = " "
	}

	typeBadge := theme.EventLabelStyle(string(n.Type)).Render(string(n.Type))

	title := n.Title
	if title == "" {
		title = n.Message
	}

	line := fmt.Sprintf("%s %s %s", marker, typeBadge, title)
	if n.IsRead {
		line = lipgloss.NewStyle().Foreground(theme.ColorGray).Render(line)
	}

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// Model is the notification panel.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	unread int
	width  int
	height int
}

// New creates the notification panel.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, notifDelegate{}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{list: l, keys: k, width: width, height: height}
}

// Update handles messages for the notification panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case NotificationsLoadedMsg:
		m.unread = msg.Unread
		items := make([]list.Item, len(msg.Notifications))
		for i, n := range msg.Notifications {
			items[i] = NotificationItem{Notification: n}
		}
		m.list.Title = titleWithUnread(msg.Unread)
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Select):
			item, ok := m.list.SelectedItem().(NotificationItem)
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg {
				return OpenedNotificationMsg{Notification: item.Notification}
			}

		case key.Matches(msg, m.keys.MarkAllRead):
			return m, func() tea.Msg { return MarkAllReadMsg{} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// titleWithUnread renders the panel title with the unread count.
func titleWithUnread(unread int) string {
	if unread == 0 {
		return "Notifications"
	}
	return fmt.Sprintf("Notifications (%d unread)", unread)
}

// View renders the notification panel.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height - 2).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Nothing here yet.")
	}
	return m.list.View()
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
