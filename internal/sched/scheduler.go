// Package sched is the cooperative, tick-driven event loop the engine runs
// on. Every state change happens inside Tick, on the caller's goroutine.
package sched

import (
	"slices"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/forensiq/internal/logging"
)

// maxSettlePasses bounds how often end-of-tick evaluators may re-trigger
// event draining within one tick.
const maxSettlePasses = 8

// Token cancels a pending timer or sequence.
type Token struct {
	mu        sync.Mutex
	cancelled bool
}

// Cancel stops the work guarded by t. It is safe to call more than once.
func (t *Token) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelled = true
}

// Cancelled reports whether Cancel was called.
func (t *Token) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

type timer struct {
	due   time.Duration
	seq   uint64
	fn    func()
	token *Token
}

// Scheduler queues events and timers and runs them on Tick.
//
// Within one tick, queued events run first, then due timers (each
// followed by any events it posted), then end-of-tick evaluators. This
// ordering guarantees condition checks see every trigger of the frame.
type Scheduler struct {
	mu         sync.Mutex
	now        time.Duration
	seq        uint64
	queue      []func()
	timers     []*timer
	evaluators []evaluator
	logger     *zap.Logger
}

type evaluator struct {
	fn    func()
	token *Token
}

// New creates a scheduler at time zero.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{logger: logging.OrNop(logger).Named("sched")}
}

// Now returns the simulated time elapsed since the scheduler started.
func (s *Scheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Post enqueues fn to run on the next drain.
func (s *Scheduler) Post(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, fn)
}

// After runs fn once d has elapsed. The returned token cancels it.
func (s *Scheduler) After(d time.Duration, fn func()) *Token {
	tok := &Token{}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.timers = append(s.timers, &timer{due: s.now + d, seq: s.seq, fn: fn, token: tok})
	return tok
}

// OnEndOfTick registers fn to run after all events and timers of every
// tick until the returned token is cancelled.
func (s *Scheduler) OnEndOfTick(fn func()) *Token {
	tok := &Token{}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evaluators = append(s.evaluators, evaluator{fn: fn, token: tok})
	return tok
}

// Pending returns the number of queued events and live timers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.queue)
	for _, t := range s.timers {
		if !t.token.Cancelled() {
			n++
		}
	}
	return n
}

// Tick advances time by dt and runs everything that became due.
func (s *Scheduler) Tick(dt time.Duration) {
	if dt < 0 {
		s.logger.Warn("negative tick ignored", zap.Duration("dt", dt))
		dt = 0
	}
	s.mu.Lock()
	s.now += dt
	s.mu.Unlock()

	s.drain()
	for {
		t := s.popDue()
		if t == nil {
			break
		}
		if t.token.Cancelled() {
			continue
		}
		t.fn()
		s.drain()
	}

	for range maxSettlePasses {
		s.evaluate()
		if !s.drain() {
			return
		}
	}
	s.logger.Warn("tick did not settle", zap.Int("passes", maxSettlePasses))
}

// Flush drains queued events and runs evaluators without advancing time.
func (s *Scheduler) Flush() {
	s.Tick(0)
}

// drain runs queued events, including those posted while draining. It
// reports whether anything ran.
func (s *Scheduler) drain() bool {
	ran := false
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return ran
		}
		fn := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		fn()
		ran = true
	}
}

func (s *Scheduler) popDue() *timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.timers) == 0 {
		return nil
	}
	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].due != s.timers[j].due {
			return s.timers[i].due < s.timers[j].due
		}
		return s.timers[i].seq < s.timers[j].seq
	})
	t := s.timers[0]
	if t.due > s.now {
		return nil
	}
	s.timers = s.timers[1:]
	return t
}

// evaluate runs live evaluators and drops cancelled ones.
func (s *Scheduler) evaluate() {
	s.mu.Lock()
	s.evaluators = slices.DeleteFunc(s.evaluators, func(e evaluator) bool { return e.token.Cancelled() })
	evals := slices.Clone(s.evaluators)
	s.mu.Unlock()

	for _, e := range evals {
		if !e.token.Cancelled() {
			e.fn()
		}
	}
}
