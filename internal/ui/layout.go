package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/roadassist/client/internal/theme"
)

// Layout manages the terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// HeaderStatus summarizes connectivity and unread state for the header.
type HeaderStatus struct {
	Connected bool
	Unread    int
}

// Render formats the status as the right-hand header segment.
func (h HeaderStatus) Render() string {
	link := "offline"
	if h.Connected {
		link = "live"
	}
	if h.Unread > 0 {
		return fmt.Sprintf("● %d unread | %s", h.Unread, link)
	}
	return link
}

// RenderHeader renders the top header bar with a title and the
// connectivity segment.
func (l Layout) RenderHeader(title string, status HeaderStatus) string {
	titleRendered := theme.HeaderStyle.Render(title)

	statusRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(status.Render())

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(statusRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		statusRendered,
	)
}

// RenderStatusBar renders the bottom status bar with keyboard hints and
// an optional transient toast on the right.
func (l Layout) RenderStatusBar(hints string, toast string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	var toastRendered string
	if toast != "" {
		toastRendered = theme.ToastStyle.Render(toast)
	}

	gap := l.Width - lipgloss.Width(rendered) - lipgloss.Width(toastRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler, toastRendered)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}
