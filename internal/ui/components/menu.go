package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/forensiq/internal/ui/theme"
)

// MenuItem is one entry of a Menu. An item with Separator set draws a rule
// and is never selectable.
type MenuItem struct {
	Label       string
	Description string
	Action      func() tea.Cmd
	Disabled    bool
	Separator   bool
}

func (it MenuItem) selectable() bool { return !it.Disabled && !it.Separator }

// Menu is a vertical list of actions. Selectable items are numbered from 1
// and the digit keys activate them directly.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// Separator returns a non-selectable divider item.
func Separator() MenuItem { return MenuItem{Separator: true} }

// NewMenu selects the first selectable item.
func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items, Selected: -1}
	m.Selected = m.step(-1, 1)
	return m
}

// step walks from i in direction dir and returns the next selectable
// index, or i when there is none.
func (m Menu) step(i, dir int) int {
	for j := i + dir; j >= 0 && j < len(m.Items); j += dir {
		if m.Items[j].selectable() {
			return j
		}
	}
	return i
}

// shortcut maps the digit n to an item index. Separators take no number;
// disabled items keep theirs so the numbering stays stable.
func (m Menu) shortcut(n int) (int, bool) {
	for i, it := range m.Items {
		if it.Separator {
			continue
		}
		n--
		if n == 0 {
			return i, it.selectable()
		}
	}
	return 0, false
}

func (m Menu) activate(i int) tea.Cmd {
	if i < 0 || i >= len(m.Items) {
		return nil
	}
	if it := m.Items[i]; it.selectable() && it.Action != nil {
		return it.Action()
	}
	return nil
}

// Update moves the selection or activates an item.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key := kmsg.String(); key {
	case "up", "k":
		m.Selected = m.step(m.Selected, -1)
	case "down", "j":
		m.Selected = m.step(m.Selected, 1)
	case "home", "g":
		m.Selected = m.step(-1, 1)
	case "end", "G":
		m.Selected = m.step(len(m.Items), -1)
	case "enter":
		return m, m.activate(m.Selected)
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			if i, ok := m.shortcut(int(key[0] - '0')); ok {
				m.Selected = i
				return m, m.activate(i)
			}
		}
	}
	return m, nil
}

// View renders the items with the selected item's description below.
func (m Menu) View() string {
	var b strings.Builder
	rule := lipgloss.NewStyle().Foreground(theme.Border)
	n := 0
	for i, item := range m.Items {
		if item.Separator {
			b.WriteString(rule.Render("    " + strings.Repeat("─", 24)))
			b.WriteString("\n")
			continue
		}
		n++
		num := "  "
		if n <= 9 {
			num = fmt.Sprintf("%d ", n)
		}
		switch {
		case item.Disabled:
			b.WriteString(theme.Pending.Render("    " + num + item.Label))
		case i == m.Selected:
			b.WriteString(theme.Selected.Render("  ▸ " + num + item.Label))
		default:
			b.WriteString(theme.Unselected.Render("    " + num + item.Label))
		}
		b.WriteString("\n")
	}
	if m.Selected >= 0 && m.Selected < len(m.Items) {
		if d := m.Items[m.Selected].Description; d != "" {
			b.WriteString("\n")
			b.WriteString(theme.Hint.Italic(true).Render("  " + d))
			b.WriteString("\n")
		}
	}
	return b.String()
}
