package live

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/forensiq/internal/module"
	"github.com/abhisek/forensiq/internal/task"
	"github.com/abhisek/forensiq/internal/ui/components"
	"github.com/abhisek/forensiq/internal/ui/layout"
	"github.com/abhisek/forensiq/internal/ui/theme"
)

const recentMistakes = 5

func (s *Screen) View(width, height int) string {
	if s.confirmEnd {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			theme.Title.Render("End the exercise now?")+"\n\n"+
				theme.Hint.Render("Unattempted tasks will be penalized."))
	}

	left := s.renderChecklist(width/2 - 2)
	right := s.renderLedger(width - width/2 - 2)
	body := layout.Columns(width, 0.5, left, right)

	if s.lastAction != "" {
		body += "\n\n" + theme.Hint.Render("  "+s.lastAction)
	}
	return body
}

func (s *Screen) renderChecklist(width int) string {
	var b strings.Builder
	i := 0
	for _, entry := range s.sess.Checklist() {
		headerStyle := theme.Pending
		switch entry.Status {
		case module.StatusNext:
			headerStyle = theme.Selected
		case module.StatusComplete:
			headerStyle = theme.Done
		}
		b.WriteString(headerStyle.Render("  " + entry.Header))
		b.WriteString("\n")

		seq := s.sess.Sequencer(entry.Task)
		for _, line := range entry.Units {
			b.WriteString(unitStyle(line.State).Render("    " + line.Status))
			b.WriteString("\n")

			u := seq.Unit(line.Name)
			for _, c := range u.Conditions() {
				mark := "[ ]"
				if c.Satisfied() {
					mark = "[x]"
				}
				text := fmt.Sprintf("      %s %s", mark, c.Name)
				if i == s.cursor {
					b.WriteString(theme.Selected.Render(truncate(text, width)))
				} else {
					b.WriteString(theme.Body.Render(truncate(text, width)))
				}
				b.WriteString("\n")
				i++
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (s *Screen) renderLedger(width int) string {
	var b strings.Builder
	ledger := s.sess.Ledger()

	b.WriteString(theme.Subtitle.Render("Score"))
	b.WriteString("\n\n")
	for _, seq := range s.sess.Sequencers() {
		a, ok := ledger.Assessment(seq.LedgerID())
		score := theme.Hint.Render("--")
		if ok {
			pct := 100 * float64(a.CurrentScore) / float64(max(a.MaxScore, 1))
			score = theme.ScoreStyle(pct).Render(fmt.Sprintf("%d/%d", a.CurrentScore, a.MaxScore))
		}
		done := 0
		for _, u := range seq.Units() {
			if u.Finished() {
				done++
			}
		}
		bar := components.NewProgressBar(string(seq.LedgerID()), done, seq.UnitCount(), width-10)
		b.WriteString("  " + bar.View() + "  " + score)
		b.WriteString("\n")
	}

	var recent []string
	for _, seq := range s.sess.Sequencers() {
		a, ok := ledger.Assessment(seq.LedgerID())
		if !ok {
			continue
		}
		for _, rec := range a.Records {
			recent = append(recent, fmt.Sprintf("-%d %s", rec.Deduction, rec.Description))
		}
	}
	if len(recent) > 0 {
		b.WriteString("\n")
		b.WriteString(theme.Subtitle.Render("Deductions"))
		b.WriteString("\n\n")
		if len(recent) > recentMistakes {
			recent = recent[len(recent)-recentMistakes:]
		}
		for _, line := range recent {
			b.WriteString(theme.Deduction.Render("  " + truncate(line, width-2)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func unitStyle(st task.State) lipgloss.Style {
	switch st {
	case task.Active:
		return theme.Unselected
	case task.Completed:
		return theme.Done
	case task.Skipped:
		return theme.Deduction
	}
	return theme.Pending
}

func truncate(s string, width int) string {
	if width <= 3 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if len(r) > width-3 {
		r = r[:width-3]
	}
	return string(r) + "..."
}
