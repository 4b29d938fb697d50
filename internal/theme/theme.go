package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ToastStyle renders transient pop-up messages.
var ToastStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorOrange).
	Padding(0, 1)

// SOSStyle marks emergency requests wherever they appear.
var SOSStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorRed).
	Padding(0, 1)

// StatusStyle returns a color-coded style for the given request status.
func StatusStyle(status string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch status {
	case "PENDING":
		return base.Foreground(ColorYellow)
	case "ACCEPTED":
		return base.Foreground(ColorBlue)
	case "COMPLETED":
		return base.Foreground(ColorGreen)
	case "REJECTED":
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}

// EventLabelStyle returns a color-coded style for a notification type label.
func EventLabelStyle(eventType string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch eventType {
	case "SOS_ALERT":
		return base.Foreground(ColorRed)
	case "NEW_REQUEST":
		return base.Foreground(ColorOrange)
	case "REQUEST_ACCEPTED", "STATUS_UPDATE":
		return base.Foreground(ColorGreen)
	case "REQUEST_REJECTED", "REQUEST_TAKEN":
		return base.Foreground(ColorGray)
	default:
		return base.Foreground(ColorBlue)
	}
}

// RatingStyle returns a color-coded style for a star rating.
func RatingStyle(rating float64) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch {
	case rating >= 4.0:
		return base.Foreground(ColorGreen)
	case rating >= 3.0:
		return base.Foreground(ColorYellow)
	case rating > 0:
		return base.Foreground(ColorOrange)
	default:
		return base.Foreground(ColorGray)
	}
}
