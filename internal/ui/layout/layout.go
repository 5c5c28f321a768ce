// Package layout draws the console frame around the active screen.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/forensiq/internal/ui/theme"
)

// The console refuses to draw below this size; the live screen needs two
// readable columns.
const (
	MinWidth  = 80
	MinHeight = 24
)

const brand = "FORENSIQ"

// KeyHint is one key binding shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// IsTooSmall reports whether the terminal is below the minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage asks the operator to enlarge the terminal.
func RenderMinSizeMessage(width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		theme.Body.Render(fmt.Sprintf(
			"Terminal too small.\n\nResize to at least %d x %d\n\nCurrent: %d x %d",
			MinWidth, MinHeight, width, height,
		)))
}

// Breadcrumb joins screen titles, dimming all but the last.
func Breadcrumb(trail []string) string {
	parts := make([]string, 0, len(trail))
	for i, t := range trail {
		if t == "" {
			continue
		}
		if i == len(trail)-1 {
			parts = append(parts, theme.Body.Bold(true).Render(t))
		} else {
			parts = append(parts, theme.Pending.Render(t))
		}
	}
	return strings.Join(parts, theme.Pending.Render(" › "))
}

// RenderHeader draws the brand, the breadcrumb of open screens and a status
// such as the session clock.
func RenderHeader(trail []string, status string, width int) string {
	left := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(brand) +
		"  " + Breadcrumb(trail)
	right := lipgloss.NewStyle().Foreground(theme.Secondary).Render(status)

	inner := max(0, width-4)
	gap := max(1, inner-lipgloss.Width(left)-lipgloss.Width(right))

	return bar(width).Render(left + strings.Repeat(" ", gap) + right)
}

// RenderFooter draws key hints, keys highlighted.
func RenderFooter(hints []KeyHint, width int) string {
	key := lipgloss.NewStyle().Foreground(theme.BgDark).Background(theme.Primary).Padding(0, 1)
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, key.Render(h.Key)+" "+theme.Pending.Render(h.Description))
	}
	return bar(width).Render(strings.Join(parts, "  "))
}

func bar(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border)
}

// ContentHeight is what is left for a screen between header and footer.
func ContentHeight(header, footer string, height int) int {
	return max(0, height-lipgloss.Height(header)-lipgloss.Height(footer))
}

// RenderFrame stacks header, content padded to fill the terminal, and
// footer.
func RenderFrame(header, content, footer string, width, height int) string {
	body := lipgloss.NewStyle().
		Width(width).
		Height(ContentHeight(header, footer, height)).
		Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// Columns places left and right side by side, splitting width at ratio
// (0..1) of the left column.
func Columns(width int, ratio float64, left, right string) string {
	lw := int(float64(width) * max(0, min(1, ratio)))
	return lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(lw).Render(left),
		lipgloss.NewStyle().Width(width-lw).Render(right))
}
