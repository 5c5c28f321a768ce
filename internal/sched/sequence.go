package sched

import (
	"time"
)

// Step is one stage of a Sequence. Do runs when the step starts. The
// sequence then waits for Wait (or the duration WaitFor returns, when
// set) to elapse and, if Until is set, for Until to return true at the
// end of a tick.
type Step struct {
	Name    string
	Do      func()
	Wait    time.Duration
	WaitFor func() time.Duration
	Until   func() bool
}

func (st Step) wait() time.Duration {
	if st.WaitFor != nil {
		return st.WaitFor()
	}
	return st.Wait
}

// Sequence runs steps one after another on a Scheduler. It replaces
// suspended-function style waiting with explicit state.
type Sequence struct {
	s      *Scheduler
	steps  []Step
	idx    int
	token  *Token
	eval   *Token
	done   bool
	onDone func()
	poll   bool
}

// Run starts steps immediately. onDone, if not nil, runs after the last
// step unless the sequence was cancelled.
func (s *Scheduler) Run(onDone func(), steps ...Step) *Sequence {
	seq := &Sequence{s: s, steps: steps, token: &Token{}, onDone: onDone}
	seq.eval = s.OnEndOfTick(seq.checkUntil)
	seq.start()
	return seq
}

// Cancel stops the sequence before its next step.
func (q *Sequence) Cancel() {
	q.token.Cancel()
	q.eval.Cancel()
}

// Done reports whether every step ran.
func (q *Sequence) Done() bool { return q.done }

// Current returns the name of the running step, or "" when finished.
func (q *Sequence) Current() string {
	if q.done || q.idx >= len(q.steps) {
		return ""
	}
	return q.steps[q.idx].Name
}

func (q *Sequence) start() {
	for !q.token.Cancelled() {
		if q.idx >= len(q.steps) {
			q.finish()
			return
		}
		step := q.steps[q.idx]
		if step.Do != nil {
			step.Do()
		}
		if q.token.Cancelled() {
			return
		}
		if w := step.wait(); w > 0 {
			q.s.After(w, q.afterWait)
			return
		}
		if step.Until != nil && !step.Until() {
			q.poll = true
			return
		}
		q.idx++
	}
}

func (q *Sequence) afterWait() {
	if q.token.Cancelled() {
		return
	}
	step := q.steps[q.idx]
	if step.Until != nil && !step.Until() {
		q.poll = true
		return
	}
	q.idx++
	q.start()
}

func (q *Sequence) checkUntil() {
	if !q.poll || q.done || q.token.Cancelled() {
		return
	}
	if !q.steps[q.idx].Until() {
		return
	}
	q.poll = false
	q.idx++
	q.s.Post(q.start)
}

func (q *Sequence) finish() {
	if q.done {
		return
	}
	q.done = true
	q.eval.Cancel()
	if q.onDone != nil {
		q.onDone()
	}
}
