package requestlist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/roadassist/client/internal/model"
	"github.com/roadassist/client/internal/theme"
)

// RequestItem wraps a model.RepairRequest so it can be used in a
// bubbles/list.
type RequestItem struct {
	Request model.RepairRequest
}

// FilterValue returns the string used for fuzzy filtering.
func (i RequestItem) FilterValue() string { return i.Request.ProblemDescription }

// Title returns the summary line for the list.
func (i RequestItem) Title() string { return i.Request.ProblemDescription }

// Description returns a short detail line for the list.
func (i RequestItem) Description() string {
	parts := []string{
		string(i.Request.VehicleType),
		string(i.Request.Status),
		relativeTime(i.Request.CreatedAt.Time),
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering request rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single request row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ri, ok := item.(RequestItem)
	if !ok {
		return
	}

	req := ri.Request
	isSelected := index == m.Index()

	var badges []string
	if req.Emergency() {
		badges = append(badges, theme.SOSStyle.Render("SOS"))
	}
	badges = append(badges,
		theme.StatusStyle(string(req.Status)).Render(string(req.Status)),
		vehicleLabel(req.VehicleType),
	)

	title := req.ProblemDescription
	if title == "" {
		title = "(no description)"
	}

	who := ""
	switch {
	case req.ShopName != "":
		who = lipgloss.NewStyle().
			Foreground(theme.ColorBlue).
			Render(" @" + req.ShopName)
	case req.ClientName != "":
		who = lipgloss.NewStyle().
			Foreground(theme.ColorBlue).
			Render(" " + req.ClientName)
	}

	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(req.CreatedAt.Time))

	line := fmt.Sprintf(
		"%s %s%s  %s",
		strings.Join(badges, " "), title, who, timeStr,
	)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// vehicleLabel renders a short vehicle-type badge.
func vehicleLabel(v model.VehicleType) string {
	style := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGray)
	switch v {
	case model.VehicleTwoWheeler:
		return style.Render("2W")
	case model.VehicleFourWheeler:
		return style.Render("4W")
	default:
		return style.Render("??")
	}
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1w ago"
		}
		return fmt.Sprintf("%dw ago", weeks)
	}
}
