// Package screen defines the contract between console screens and the
// router that stacks them.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/forensiq/internal/ui/layout"
)

// Screen defines the interface for all console screens.
type Screen interface {
	// Init returns an initial command when the screen is first shown.
	Init() tea.Cmd

	// Update handles messages and returns the updated screen and a command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content, excluding header and footer.
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is implemented by screens with their own footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider is implemented by screens that show live status, such as
// the session clock, on the right of the header.
type StatusProvider interface {
	Status() string
}

// Closer is implemented by screens that hold resources, such as a running
// session, and must release them when they leave the stack.
type Closer interface {
	Close()
}
