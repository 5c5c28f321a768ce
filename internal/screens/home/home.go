// Package home is the console's start screen: pick a module to run or
// browse past sessions.
package home

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/forensiq/internal/router"
	"github.com/abhisek/forensiq/internal/screen"
	"github.com/abhisek/forensiq/internal/ui/components"
	"github.com/abhisek/forensiq/internal/ui/layout"
	"github.com/abhisek/forensiq/internal/ui/theme"
)

// Module is one runnable scenario.
type Module struct {
	Name        string
	Title       string
	Description string
}

// Deps are the screens home can open. History may be nil when no store is
// configured.
type Deps struct {
	Modules []Module
	Launch  func(name string) (screen.Screen, error)
	History func() screen.Screen
}

// Screen is the start screen.
type Screen struct {
	menu   components.Menu
	errMsg string
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
)

// New creates the home screen.
func New(deps Deps) *Screen {
	s := &Screen{}
	var items []components.MenuItem
	for _, m := range deps.Modules {
		items = append(items, components.MenuItem{
			Label:       m.Title,
			Description: m.Description,
			Action:      func() tea.Cmd { return s.launch(deps.Launch, m.Name) },
		})
	}
	if len(items) > 0 {
		items = append(items, components.Separator())
	}
	items = append(items, components.MenuItem{
		Label:       "History",
		Description: "Stored sessions and debriefs",
		Disabled:    deps.History == nil,
		Action: func() tea.Cmd {
			return func() tea.Msg { return router.PushScreenMsg{Screen: deps.History()} }
		},
	})
	items = append(items, components.MenuItem{
		Label:  "Quit",
		Action: func() tea.Cmd { return tea.Quit },
	})
	s.menu = components.NewMenu(items)
	return s
}

func (s *Screen) launch(fn func(string) (screen.Screen, error), name string) tea.Cmd {
	if fn == nil {
		return nil
	}
	scr, err := fn(name)
	if err != nil {
		s.errMsg = err.Error()
		return nil
	}
	s.errMsg = ""
	return func() tea.Msg { return router.PushScreenMsg{Screen: scr} }
}

func (s *Screen) Init() tea.Cmd {
	return nil
}

func (s *Screen) Title() string {
	return "Training Modules"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Select"},
		{Key: "1-9", Description: "Jump"},
		{Key: "Enter", Description: "Open"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *Screen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Title.Render("Crime Scene Investigation Training")))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.menu.View()))
	if s.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg)))
	}
	return b.String()
}
