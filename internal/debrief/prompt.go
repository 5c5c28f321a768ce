package debrief

import (
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/forensiq/internal/session"
)

const systemPrompt = `You are a senior crime scene investigation instructor reviewing a trainee's virtual reality exercise. Be direct and specific. Refer to forensic procedure, not to the simulator.`

func buildUserMessage(sum *session.Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Module: %s\n", sum.Module)
	fmt.Fprintf(&b, "Result: %d/%d (%.2f%%), %s\n", sum.Score, sum.MaxScore, sum.Percentage, passFail(sum.Passed))
	fmt.Fprintf(&b, "Ended: %s after %s\n", sum.Reason, sum.Elapsed.Truncate(time.Second))

	b.WriteString("\nTasks:\n")
	for _, t := range sum.Tasks {
		fmt.Fprintf(&b, "- %s (%s): %d/%d, %d of %d steps done", t.Name, t.ID, t.Score, t.MaxScore, t.UnitsDone, t.UnitsTotal)
		switch {
		case t.Skipped:
			b.WriteString(", skipped")
		case !t.Attempted:
			b.WriteString(", not attempted")
		}
		b.WriteString("\n")
		for _, m := range t.Mistakes {
			fmt.Fprintf(&b, "    * %s (-%d)", m.Description, m.Deduction)
			if m.Tip != "" {
				fmt.Fprintf(&b, " tip: %s", m.Tip)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(`
Instructions:
1. Summarize the performance in 2-4 sentences. Mention the overall result.
2. List what the trainee did correctly. Only name tasks with few or no deductions.
3. For each task with deductions, give one concrete corrective instruction that addresses the recorded mistakes. Skip tasks without mistakes.
4. Set readiness to "repeat" when the exercise failed, "practice" when it passed with notable deductions, otherwise "ready".
5. Plain text only. No markdown.`)

	return b.String()
}

func passFail(passed bool) string {
	if passed {
		return "Passed"
	}
	return "Failed"
}
