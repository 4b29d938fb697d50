package detail

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/roadassist/client/internal/model"
	"github.com/roadassist/client/internal/theme"
)

// Model is the single-request detail view.
type Model struct {
	request *model.RepairRequest
	width   int
	height  int
}

// New creates the detail view.
func New(width, height int) Model {
	return Model{width: width, height: height}
}

// SetRequest sets the request to display.
func (m *Model) SetRequest(req model.RepairRequest) {
	m.request = &req
}

// Request returns the request on display, or nil.
func (m Model) Request() *model.RepairRequest {
	return m.request
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the detail view.
func (m Model) View() string {
	if m.request == nil {
		return ""
	}
	req := m.request

	label := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(14)
	value := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	row := func(name, val string) string {
		if val == "" {
			return ""
		}
		return label.Render(name) + value.Render(val)
	}

	header := theme.StatusStyle(string(req.Status)).Render(string(req.Status))
	if req.Emergency() {
		header = theme.SOSStyle.Render("SOS") + " " + header
	}

	rows := []string{
		header,
		"",
		row("Problem", req.ProblemDescription),
		row("Vehicle", string(req.VehicleType)),
		row("Created", formatTime(req.CreatedAt)),
		row("Accepted", formatTime(req.AcceptedAt)),
		row("Completed", formatTime(req.CompletedAt)),
	}

	if req.AISuggestion != "" {
		rows = append(rows, "",
			label.Render("Suggestion"),
			theme.HelpStyle.Render(req.AISuggestion),
		)
	}

	if req.ShopName != "" {
		rows = append(rows, "",
			row("Shop", req.ShopName),
			row("Shop phone", req.ShopPhone),
			row("Shop address", req.ShopAddress),
		)
	}
	if req.ClientName != "" {
		rows = append(rows, "",
			row("Client", req.ClientName),
			row("Phone", req.ClientPhone),
			row("Address", req.ClientAddress),
		)
	}
	if req.ClientLocation.Valid() {
		rows = append(rows, row("Location", fmt.Sprintf(
			"%.5f, %.5f", req.ClientLocation.Lat(), req.ClientLocation.Lng(),
		)))
	}

	if req.Rating > 0 {
		rows = append(rows, "",
			row("Rating", strings.Repeat("★", req.Rating)),
			row("Review", req.Review),
		)
	}

	var kept []string
	for _, r := range rows {
		if r != "" || len(kept) > 0 && kept[len(kept)-1] != "" {
			kept = append(kept, r)
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left, kept...)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// formatTime renders a timestamp, or empty when unset.
func formatTime(t model.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("Jan 02 15:04")
}
