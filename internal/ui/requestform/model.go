package requestform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/roadassist/client/internal/api"
	"github.com/roadassist/client/internal/model"
	"github.com/roadassist/client/internal/theme"
)

// SubmitRequestMsg carries a completed booking for the named shop.
type SubmitRequestMsg struct {
	Input api.CreateRequestInput
}

// SubmitSOSMsg carries a completed emergency broadcast.
type SubmitSOSMsg struct {
	Input api.SOSInput
}

// CancelMsg is dispatched when the user backs out of the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	vehicleType string
	problem     string
	address     string
	confirmSOS  bool
}

// Model is the booking form, reused for SOS broadcasts. A booking needs
// a target shop; an SOS goes to every shop in range. Both need a
// current position fix before the form will open.
type Model struct {
	form *huh.Form
	fb   *formBindings

	sosMode  bool
	shop     *model.MechanicShop
	position model.Position

	width  int
	height int
}

// New creates the booking form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{vehicleType: string(model.VehicleFourWheeler)},
		width:  width,
		height: height,
	}
}

// StartBooking initializes the form for booking with a specific shop.
func (m *Model) StartBooking(shop model.MechanicShop, position model.Position) tea.Cmd {
	m.sosMode = false
	m.shop = &shop
	m.position = position
	m.fb.problem = ""
	m.fb.address = ""
	m.fb.confirmSOS = false
	m.form = m.buildForm()
	return m.form.Init()
}

// StartSOS initializes the form for an emergency broadcast.
func (m *Model) StartSOS(position model.Position) tea.Cmd {
	m.sosMode = true
	m.shop = nil
	m.position = position
	m.fb.problem = ""
	m.fb.confirmSOS = false
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the booking form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the booking form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	var title string
	if m.sosMode {
		title = theme.SOSStyle.Render("EMERGENCY SOS") + " broadcast to all shops nearby"
	} else {
		title = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorWhite).
			Render("Book " + m.shop.ShopName)
	}

	position := theme.HelpStyle.Render(fmt.Sprintf(
		"your position: %.4f, %.4f",
		m.position.Latitude, m.position.Longitude,
	))

	content := lipgloss.JoinVertical(lipgloss.Left, title, position, "", m.form.View())

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewSelect[string]().
			Title("Vehicle").
			Options(
				huh.NewOption("Two-wheeler", string(model.VehicleTwoWheeler)),
				huh.NewOption("Four-wheeler", string(model.VehicleFourWheeler)),
			).
			Value(&m.fb.vehicleType),
		huh.NewText().
			Title("What happened?").
			Placeholder("Describe the problem...").
			Value(&m.fb.problem).
			Validate(validateRequired("Description")),
	}

	if m.sosMode {
		fields = append(fields,
			huh.NewConfirm().
				Title("Broadcast an emergency request to every shop in range?").
				Affirmative("Send SOS").
				Negative("Cancel").
				Value(&m.fb.confirmSOS),
		)
	} else {
		fields = append(fields,
			huh.NewInput().
				Title("Address").
				Placeholder("Street or landmark (optional)").
				Value(&m.fb.address),
		)
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth())
}

func (m Model) handleSubmit() tea.Cmd {
	if m.sosMode {
		if !m.fb.confirmSOS {
			return func() tea.Msg { return CancelMsg{} }
		}
		input := api.SOSInput{
			VehicleType:        model.VehicleType(m.fb.vehicleType),
			ProblemDescription: strings.TrimSpace(m.fb.problem),
			Latitude:           m.position.Latitude,
			Longitude:          m.position.Longitude,
		}
		return func() tea.Msg { return SubmitSOSMsg{Input: input} }
	}

	input := api.CreateRequestInput{
		MechanicShopID:     m.shop.ID,
		VehicleType:        model.VehicleType(m.fb.vehicleType),
		ProblemDescription: strings.TrimSpace(m.fb.problem),
		Latitude:           m.position.Latitude,
		Longitude:          m.position.Longitude,
		ClientAddress:      strings.TrimSpace(m.fb.address),
	}
	return func() tea.Msg { return SubmitRequestMsg{Input: input} }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
