package ratingform

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/roadassist/client/internal/api"
	"github.com/roadassist/client/internal/model"
	"github.com/roadassist/client/internal/theme"
)

// SubmitRatingMsg carries a completed rating.
type SubmitRatingMsg struct {
	Input api.RatingInput
}

// CancelMsg is dispatched when the user backs out of the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	rating int
	review string
}

// Model is the post-completion rating form.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	request model.RepairRequest
	width   int
	height  int
}

// New creates the rating form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{rating: 5},
		width:  width,
		height: height,
	}
}

// Start initializes the form for rating the given completed request.
func (m *Model) Start(req model.RepairRequest) tea.Cmd {
	m.request = req
	m.fb.rating = 5
	m.fb.review = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the rating form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		input := api.RatingInput{
			RequestID: m.request.ID,
			Rating:    m.fb.rating,
			Review:    m.fb.review,
		}
		return m, func() tea.Msg { return SubmitRatingMsg{Input: input} }
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the rating form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Rate " + m.request.ShopName)
	content := lipgloss.JoinVertical(lipgloss.Left, title, m.form.View())

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
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Rating").
				Options(
					huh.NewOption("★★★★★", 5),
					huh.NewOption("★★★★", 4),
					huh.NewOption("★★★", 3),
					huh.NewOption("★★", 2),
					huh.NewOption("★", 1),
				).
				Value(&m.fb.rating),
			huh.NewText().
				Title("Review").
				Placeholder("Optional...").
				Value(&m.fb.review),
		),
	).WithWidth(m.formWidth())
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
