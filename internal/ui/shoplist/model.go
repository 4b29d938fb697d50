package shoplist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/roadassist/client/internal/keys"
	"github.com/roadassist/client/internal/model"
	"github.com/roadassist/client/internal/theme"
)

// ShopsLoadedMsg carries the nearby-shop search result, already
// distance-annotated and sorted nearest first.
type ShopsLoadedMsg struct {
	Shops []model.MechanicShop
}

// ShopSelectedMsg is sent when the user picks a shop to book with.
type ShopSelectedMsg struct {
	Shop model.MechanicShop
}

// ShopItem wraps a model.MechanicShop for a bubbles/list.
type ShopItem struct {
	Shop model.MechanicShop
}

// FilterValue returns the string used for fuzzy filtering.
func (i ShopItem) FilterValue() string { return i.Shop.ShopName }

// Title returns the shop name for the list.
func (i ShopItem) Title() string { return i.Shop.ShopName }

// Description returns a short detail line for the list.
func (i ShopItem) Description() string {
	return fmt.Sprintf("%.1f km | %.1f★", i.Shop.DistanceKm, i.Shop.Rating)
}

// shopDelegate renders one shop row.
type shopDelegate struct{}

func (d shopDelegate) Height() int  { return 1 }
func (d shopDelegate) Spacing() int { return 0 }
func (d shopDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d shopDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	si, ok := item.(ShopItem)
	if !ok {
		return
	}

	shop := si.Shop
	isSelected := index == m.Index()

	availability := lipgloss.NewStyle().Foreground(theme.ColorGreen).Render("open")
	if !shop.IsAvailable {
		availability = lipgloss.NewStyle().Foreground(theme.ColorRed).Render("closed")
	}

	rating := theme.RatingStyle(shop.Rating).Render(
		fmt.Sprintf("%.1f★(%d)", shop.Rating, shop.TotalRatings),
	)

	distance := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(fmt.Sprintf("%.1f km", shop.DistanceKm))

	types := ""
	if len(shop.ShopTypes) > 0 {
		types = theme.HelpStyle.Render(" " + strings.Join(shop.ShopTypes, ","))
	}

	line := fmt.Sprintf(
		"%s  %s %s %s%s",
		shop.ShopName, distance, rating, availability, types,
	)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// Model is the nearby-shop picker.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates the shop picker.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, shopDelegate{}, width, height-2)
	l.Title = "Nearby Shops"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{list: l, keys: k, width: width, height: height}
}

// Update handles messages for the shop picker.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ShopsLoadedMsg:
		items := make([]list.Item, len(msg.Shops))
		for i, shop := range msg.Shops {
			items[i] = ShopItem{Shop: shop}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Select) {
			item, ok := m.list.SelectedItem().(ShopItem)
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg {
				return ShopSelectedMsg{Shop: item.Shop}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the shop picker.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height - 2).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No shops within range.\nWaiting for a position fix, or widen the radius in config.")
	}
	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
