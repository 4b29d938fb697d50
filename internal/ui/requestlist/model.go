package requestlist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/roadassist/client/internal/keys"
	"github.com/roadassist/client/internal/model"
	"github.com/roadassist/client/internal/reconcile"
	"github.com/roadassist/client/internal/theme"
)

// RequestsLoadedMsg carries the latest copy of one request list.
type RequestsLoadedMsg struct {
	List     reconcile.ListKind
	Requests []model.RepairRequest
}

// SelectedRequestMsg is sent when a user opens a request's detail view.
type SelectedRequestMsg struct {
	RequestID string
}

// AcceptRequestMsg asks the app to claim the selected request.
type AcceptRequestMsg struct {
	RequestID string
}

// RejectRequestMsg asks the app to decline the selected request.
type RejectRequestMsg struct {
	RequestID string
}

// CompleteRequestMsg asks the app to mark the selected job finished.
type CompleteRequestMsg struct {
	RequestID string
}

// RateRequestMsg asks the app to open the rating form for a completed
// request.
type RateRequestMsg struct {
	Request model.RepairRequest
}

// tab is one selectable request list.
type tab struct {
	label string
	kind  reconcile.ListKind
}

// mechanicTabs and clientTabs define the lists each role cycles through.
var (
	mechanicTabs = []tab{
		{label: "Incoming", kind: reconcile.ListIncoming},
		{label: "Active", kind: reconcile.ListActive},
		{label: "Completed", kind: reconcile.ListCompleted},
		{label: "History", kind: reconcile.ListHistory},
	}
	clientTabs = []tab{
		{label: "My Requests", kind: reconcile.ListMine},
	}
)

// Model is the request list view, shared by both roles; the role
// decides which tabs exist and which actions the keymap honors.
type Model struct {
	list     list.Model
	keys     *keys.KeyMap
	role     model.Role
	tabs     []tab
	tabIndex int

	// statusFilter narrows the client's list; empty shows all.
	statusFilter model.Status

	width  int
	height int
}

// New creates a request list for the given role.
func New(role model.Role, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-3)
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	tabs := clientTabs
	if role == model.RoleMechanic {
		tabs = mechanicTabs
	}

	m := Model{
		list:   l,
		keys:   k,
		role:   role,
		tabs:   tabs,
		width:  width,
		height: height,
	}
	m.list.Title = m.tabs[0].label
	return m
}

// Current returns the list kind the view is showing.
func (m Model) Current() reconcile.ListKind {
	return m.tabs[m.tabIndex].kind
}

// Update handles messages for the request list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RequestsLoadedMsg:
		if msg.List != m.Current() {
			return m, nil
		}
		items := make([]list.Item, 0, len(msg.Requests))
		for _, req := range msg.Requests {
			if m.statusFilter != "" && req.Status != m.statusFilter {
				continue
			}
			items = append(items, RequestItem{Request: req})
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// statusCycle is the order the client's status filter steps through.
var statusCycle = []model.Status{
	"", model.StatusPending, model.StatusAccepted,
	model.StatusCompleted, model.StatusRejected,
}

// handleKeys processes key input.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(RequestItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedRequestMsg{RequestID: item.Request.ID}
		}

	case key.Matches(msg, m.keys.NextTab):
		if len(m.tabs) > 1 {
			m.tabIndex = (m.tabIndex + 1) % len(m.tabs)
			m.list.Title = m.tabs[m.tabIndex].label
			return m, nil
		}
		// Single-tab roles cycle the status filter instead.
		m.statusFilter = nextStatusFilter(m.statusFilter)
		return m, nil

	case key.Matches(msg, m.keys.PrevTab):
		if len(m.tabs) > 1 {
			m.tabIndex = (m.tabIndex - 1 + len(m.tabs)) % len(m.tabs)
			m.list.Title = m.tabs[m.tabIndex].label
		}
		return m, nil

	case key.Matches(msg, m.keys.Accept):
		if m.role != model.RoleMechanic || m.Current() != reconcile.ListIncoming {
			break
		}
		item, ok := m.list.SelectedItem().(RequestItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return AcceptRequestMsg{RequestID: item.Request.ID}
		}

	case key.Matches(msg, m.keys.Reject):
		if m.role != model.RoleMechanic || m.Current() != reconcile.ListIncoming {
			break
		}
		item, ok := m.list.SelectedItem().(RequestItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return RejectRequestMsg{RequestID: item.Request.ID}
		}

	case key.Matches(msg, m.keys.Complete):
		if m.role != model.RoleMechanic || m.Current() != reconcile.ListActive {
			break
		}
		item, ok := m.list.SelectedItem().(RequestItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return CompleteRequestMsg{RequestID: item.Request.ID}
		}

	case key.Matches(msg, m.keys.RateRequest):
		if m.role != model.RoleClient {
			break
		}
		item, ok := m.list.SelectedItem().(RequestItem)
		if !ok {
			return m, nil
		}
		// Only completed, unrated jobs can be rated.
		if item.Request.Status != model.StatusCompleted || item.Request.Rating > 0 {
			return m, nil
		}
		return m, func() tea.Msg {
			return RateRequestMsg{Request: item.Request}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// nextStatusFilter steps to the next entry of statusCycle.
func nextStatusFilter(current model.Status) model.Status {
	for i, s := range statusCycle {
		if s == current {
			return statusCycle[(i+1)%len(statusCycle)]
		}
	}
	return ""
}

// View renders the request list view.
func (m Model) View() string {
	header := m.renderTabs()

	if len(m.list.Items()) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, m.renderEmptyState())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, m.list.View())
}

// renderTabs draws the tab bar, or the active status filter for
// single-tab roles.
func (m Model) renderTabs() string {
	if len(m.tabs) == 1 {
		label := "all statuses"
		if m.statusFilter != "" {
			label = strings.ToLower(string(m.statusFilter))
		}
		return theme.HelpStyle.Render(
			fmt.Sprintf(" filter: %s (tab to cycle)", label),
		)
	}

	parts := make([]string, len(m.tabs))
	for i, t := range m.tabs {
		if i == m.tabIndex {
			parts[i] = theme.SelectedItemStyle.Render(t.label)
		} else {
			parts[i] = theme.ListItemStyle.Render(t.label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// renderEmptyState shows guidance text when the list is empty.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height - 3).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.role == model.RoleMechanic {
		return style.Render("No requests here yet.\nNew work appears as it comes in.")
	}
	if m.statusFilter != "" {
		return style.Render("No requests with this status.\nPress tab to change the filter.")
	}
	return style.Render(
		"No requests yet.\n\n" +
			"Press f to find nearby shops, or b to book a request.",
	)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-3)
}
