package login

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

// SubmitLoginMsg carries completed login credentials.
type SubmitLoginMsg struct {
	Credentials api.LoginRequest
}

// SubmitRegisterMsg carries a completed registration.
type SubmitRegisterMsg struct {
	Registration api.RegisterRequest
}

// SwitchedModeMsg notes that the user toggled between login and
// registration.
type SwitchedModeMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	email    string
	password string

	name  string
	phone string
	role  string

	shopName  string
	address   string
	shopTypes []string
	openTime  string
	closeTime string
	latitude  string
	longitude string
	services  string
}

// Model is the authentication view: a login form, switchable to a
// registration form.
type Model struct {
	form       *huh.Form
	fb         *formBindings
	registerMd bool
	errText    string
	width      int
	height     int
}

// New creates the authentication view.
func New(width, height int) Model {
	m := Model{
		fb:     &formBindings{role: string(model.RoleClient)},
		width:  width,
		height: height,
	}
	return m
}

// Start initializes the login form.
func (m *Model) Start() tea.Cmd {
	m.registerMd = false
	m.form = m.buildLoginForm()
	return m.form.Init()
}

// StartRegister initializes the registration form.
func (m *Model) StartRegister() tea.Cmd {
	m.registerMd = true
	m.form = m.buildRegisterForm()
	return m.form.Init()
}

// SetError displays a server-side failure (e.g. bad credentials) above
// the form.
func (m *Model) SetError(text string) tea.Cmd {
	m.errText = text
	// Rebuild so the aborted/completed form accepts input again.
	if m.registerMd {
		return m.StartRegister()
	}
	return m.Start()
}

// Update handles messages for the authentication view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "ctrl+r" {
		m.errText = ""
		var cmd tea.Cmd
		if m.registerMd {
			cmd = m.Start()
		} else {
			cmd = m.StartRegister()
		}
		return m, tea.Batch(cmd, func() tea.Msg { return SwitchedModeMsg{} })
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		// There is nothing behind this view to fall back to; rearm.
		if m.registerMd {
			return m, m.StartRegister()
		}
		return m, m.Start()
	}

	return m, cmd
}

// View renders the authentication view.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "Sign in"
	hint := "ctrl+r to create an account"
	if m.registerMd {
		titleText = "Create account"
		hint = "ctrl+r to sign in instead"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{titleStyle.Render(titleText)}
	if m.errText != "" {
		parts = append(parts, lipgloss.NewStyle().
			Foreground(theme.ColorRed).
			Render(m.errText))
	}
	parts = append(parts, m.form.View(), theme.HelpStyle.Render(hint))

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildLoginForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&m.fb.email).
				Validate(validateRequired("Email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validateRequired("Password")),
		),
	).WithWidth(m.formWidth())
}

func (m *Model) buildRegisterForm() *huh.Form {
	account := huh.NewGroup(
		huh.NewInput().
			Title("Name").
			Value(&m.fb.name).
			Validate(validateRequired("Name")),
		huh.NewInput().
			Title("Email").
			Placeholder("you@example.com").
			Value(&m.fb.email).
			Validate(validateRequired("Email")),
		huh.NewInput().
			Title("Phone").
			Value(&m.fb.phone).
			Validate(validateRequired("Phone")),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.password).
			Validate(validateRequired("Password")),
		huh.NewSelect[string]().
			Title("Account type").
			Options(
				huh.NewOption("Vehicle owner", string(model.RoleClient)),
				huh.NewOption("Mechanic", string(model.RoleMechanic)),
			).
			Value(&m.fb.role),
	)

	shop := huh.NewGroup(
		huh.NewInput().
			Title("Shop name").
			Value(&m.fb.shopName).
			Validate(validateRequired("Shop name")),
		huh.NewInput().
			Title("Address").
			Value(&m.fb.address),
		huh.NewMultiSelect[string]().
			Title("Services").
			Options(
				huh.NewOption("Car repair", "CAR_REPAIR"),
				huh.NewOption("Bike repair", "BIKE_REPAIR"),
				huh.NewOption("Puncture", "PUNCTURE"),
				huh.NewOption("Towing", "TOWING"),
			).
			Value(&m.fb.shopTypes),
		huh.NewInput().
			Title("Opens at").
			Placeholder("09:00").
			Value(&m.fb.openTime),
		huh.NewInput().
			Title("Closes at").
			Placeholder("18:00").
			Value(&m.fb.closeTime),
		huh.NewInput().
			Title("Latitude").
			Placeholder("13.0827").
			Value(&m.fb.latitude).
			Validate(validateOptionalFloat),
		huh.NewInput().
			Title("Longitude").
			Placeholder("80.2707").
			Value(&m.fb.longitude).
			Validate(validateOptionalFloat),
		huh.NewText().
			Title("Services offered").
			Placeholder("Free-text summary shown to clients...").
			Value(&m.fb.services),
	).WithHideFunc(func() bool {
		return m.fb.role != string(model.RoleMechanic)
	})

	return huh.NewForm(account, shop).WithWidth(m.formWidth())
}

func (m Model) handleSubmit() tea.Cmd {
	if !m.registerMd {
		creds := api.LoginRequest{
			Email:    strings.TrimSpace(m.fb.email),
			Password: m.fb.password,
		}
		return func() tea.Msg { return SubmitLoginMsg{Credentials: creds} }
	}

	reg := api.RegisterRequest{
		Name:     strings.TrimSpace(m.fb.name),
		Email:    strings.TrimSpace(m.fb.email),
		Phone:    strings.TrimSpace(m.fb.phone),
		Password: m.fb.password,
		Role:     model.Role(m.fb.role),
	}
	if reg.Role == model.RoleMechanic {
		reg.ShopName = strings.TrimSpace(m.fb.shopName)
		reg.Address = strings.TrimSpace(m.fb.address)
		reg.ShopTypes = m.fb.shopTypes
		reg.OpenTime = m.fb.openTime
		reg.CloseTime = m.fb.closeTime
		reg.Latitude = parseFloat(m.fb.latitude)
		reg.Longitude = parseFloat(m.fb.longitude)
		reg.ServicesOffered = strings.TrimSpace(m.fb.services)
	}
	return func() tea.Msg { return SubmitRegisterMsg{Registration: reg} }
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

func validateOptionalFloat(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var f float64
	if _, err := fmt.Sscanf(s, "%g", &f); err != nil {
		return fmt.Errorf("must be a number")
	}
	return nil
}

func parseFloat(s string) float64 {
	var f float64
	fmt.Sscanf(strings.TrimSpace(s), "%g", &f)
	return f
}
