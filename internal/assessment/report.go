package assessment

import (
	"fmt"
	"strings"
)

type aggregate struct {
	description string
	count       int
	total       int
}

// MistakesReport lists each unique mistake description of id once, in
// first-occurrence order:
//
//	(<count>x) <description> (Total Deduction: <sum>)
func (l *Ledger) MistakesReport(id TaskID) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.tasks[id]
	if !ok {
		return NoDataText
	}
	if len(a.Records) == 0 {
		return NoMistakesText
	}

	var order []*aggregate
	byDesc := make(map[string]*aggregate)
	for _, r := range a.Records {
		agg, ok := byDesc[r.Description]
		if !ok {
			agg = &aggregate{description: r.Description}
			byDesc[r.Description] = agg
			order = append(order, agg)
		}
		agg.count++
		agg.total += r.Deduction
	}

	var b strings.Builder
	for _, agg := range order {
		fmt.Fprintf(&b, "(%dx) %s (Total Deduction: %d)\n", agg.count, agg.description, agg.total)
	}
	return b.String()
}

// TipsReport lists each unique non-empty tip of id as "- <tip>".
func (l *Ledger) TipsReport(id TaskID) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.tasks[id]
	if !ok {
		return NoTipsText
	}

	seen := make(map[string]bool)
	var b strings.Builder
	for _, r := range a.Records {
		if r.Tip == "" || seen[r.Tip] {
			continue
		}
		seen[r.Tip] = true
		fmt.Fprintf(&b, "- %s\n", r.Tip)
	}
	if b.Len() == 0 {
		return NoTipsText
	}
	return b.String()
}

// Grade returns "<current>/<max>" for id, or "N/A" when id is unknown.
func (l *Ledger) Grade(id TaskID) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.tasks[id]
	if !ok {
		return NoGradeText
	}
	return fmt.Sprintf("%d/%d", a.CurrentScore, a.MaxScore)
}

// Totals sums current and max scores over the expected tasks. A task
// that was never referenced counts as 0 out of DefaultMaxScore.
func (l *Ledger) Totals() (current, maxTotal int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, id := range l.expected {
		if a, ok := l.tasks[id]; ok {
			current += a.CurrentScore
			maxTotal += a.MaxScore
			continue
		}
		maxTotal += DefaultMaxScore
	}
	return current, maxTotal
}

// OverallScore formats Totals as "Overall Score: <current>/<max>".
func (l *Ledger) OverallScore() string {
	current, maxTotal := l.Totals()
	return fmt.Sprintf("Overall Score: %d/%d", current, maxTotal)
}

// Percentage is the mean of current/max across the expected tasks, times
// 100. Untouched tasks contribute 0 and the denominator is always the
// number of expected tasks. An empty expected set yields 0.
func (l *Ledger) Percentage() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.expected) == 0 {
		return 0
	}
	var sum float64
	for _, id := range l.expected {
		if a, ok := l.tasks[id]; ok && a.MaxScore > 0 {
			sum += float64(a.CurrentScore) / float64(a.MaxScore)
		}
	}
	return sum / float64(len(l.expected)) * 100
}

// OverallPercentage formats Percentage with two decimals, e.g. "50.00%".
func (l *Ledger) OverallPercentage() string {
	return fmt.Sprintf("%.2f%%", l.Percentage())
}

// Passed reports whether the overall percentage is strictly above 50.
func (l *Ledger) Passed() bool {
	return l.Percentage() > 50
}

// OverallRemark returns "Passed" or "Failed".
func (l *Ledger) OverallRemark() string {
	if l.Passed() {
		return "Passed"
	}
	return "Failed"
}

// TaskReport renders the full report block for a single task.
func (l *Ledger) TaskReport(id TaskID) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== %s Report ===\n", id)
	b.WriteString("Mistakes:\n" + l.MistakesReport(id) + "\n")
	b.WriteString("Tips:\n" + l.TipsReport(id) + "\n")
	b.WriteString("Grade: " + l.Grade(id) + "\n")
	return b.String()
}

// Report renders the overall summary followed by every expected task's
// block.
func (l *Ledger) Report() string {
	var b strings.Builder
	b.WriteString(l.OverallScore() + "\n")
	b.WriteString("Percentage: " + l.OverallPercentage() + "\n")
	b.WriteString("Remark: " + l.OverallRemark() + "\n")
	for _, id := range l.expected {
		b.WriteString("\n")
		b.WriteString(l.TaskReport(id))
	}
	return b.String()
}
