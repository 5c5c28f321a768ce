package replay

import (
	"context"
	"fmt"
	"maps"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/forensiq/internal/logging"
	"github.com/abhisek/forensiq/internal/mechanics"
	"github.com/abhisek/forensiq/internal/oracle"
	"github.com/abhisek/forensiq/internal/session"
)

// Result is the outcome of a replay.
type Result struct {
	Summary *session.Summary
	// Captures holds the outcome of every capture step in order.
	Captures []mechanics.Outcome
	// Failures lists unmet expectations.
	Failures []string
}

type runner struct {
	s      *session.Session
	script *Script
	poses  map[string]mechanics.Pose
	res    *Result
	logger *zap.Logger
}

// Run plays script against s, starting it if needed, and ends the session
// once the steps are exhausted. A session that ends early (time expiry or
// an end step) stops the replay. Unmet expectations return the result
// together with an error wrapping ErrExpectation.
func Run(ctx context.Context, s *session.Session, script *Script, logger *zap.Logger) (*Result, error) {
	r := &runner{
		s:      s,
		script: script,
		poses:  make(map[string]mechanics.Pose),
		res:    &Result{},
		logger: logging.OrNop(logger).Named("replay"),
	}
	if script.Tick <= 0 {
		script.Tick = DefaultTick
	}
	if s.Phase() == session.PhaseReady {
		s.Start()
	}

	for i, st := range script.Steps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("replay interrupted at step %d: %w", i+1, err)
		}
		if s.Phase() == session.PhaseEnded {
			r.logger.Info("session ended before the script finished",
				zap.Int("step", i+1), zap.Int("steps", len(script.Steps)))
			break
		}
		r.apply(i+1, st)
		r.advance(st.Wait)
	}

	if s.Phase() != session.PhaseEnded {
		s.End(finishReason(s))
	}
	r.res.Summary = s.Summary()
	r.check()

	if len(r.res.Failures) > 0 {
		return r.res, fmt.Errorf("%w: %s", ErrExpectation, strings.Join(r.res.Failures, "; "))
	}
	return r.res, nil
}

func finishReason(s *session.Session) string {
	if s.Controller().Finished() {
		return session.ReasonCompleted
	}
	return session.ReasonAborted
}

func (r *runner) apply(n int, st Step) {
	switch {
	case st.Satisfy != nil:
		r.s.OnSubConditionSatisfied(st.Satisfy.Task, st.Satisfy.Unit, st.Satisfy.Condition)

	case st.Capture != nil:
		out := r.s.OnCaptureAttempt(camera(st.Capture), targets(st.Capture.Targets))
		r.res.Captures = append(r.res.Captures, out)
		r.logger.Debug("capture", zap.Int("step", n), zap.Bool("passed", out.Passed), zap.String("mistake", out.Mistake))
		if want := st.Capture.Expect; want != nil {
			if out.Passed != want.Passed {
				r.fail("step %d: capture passed=%t, want %t", n, out.Passed, want.Passed)
			}
			if want.Mistake != "" && out.Mistake != want.Mistake {
				r.fail("step %d: capture mistake %q, want %q", n, out.Mistake, want.Mistake)
			}
		}

	case st.Fire != nil:
		r.s.OnInteraction(mechanics.Interaction{Kind: mechanics.KindFire, Position: st.Fire.Vec3()})

	case st.Press != "":
		r.s.OnInteraction(mechanics.Interaction{Kind: mechanics.KindPress, Name: st.Press})

	case st.Skip != "":
		r.s.OnSkipRequested(st.Skip)

	case st.Pose != nil:
		for id, p := range st.Pose {
			r.poses[id] = mechanics.Pose{Position: p.Position.Vec3(), Forward: p.Forward.Vec3()}
		}

	case st.Drop != nil:
		for _, id := range st.Drop {
			delete(r.poses, id)
		}

	case st.End:
		r.s.End(finishReason(r.s))
	}
}

// advance runs ceil(wait/tick) frames, at least one, with the current
// poses.
func (r *runner) advance(wait time.Duration) {
	tick := r.script.Tick
	frames := max(1, int(math.Ceil(float64(wait)/float64(tick))))
	for range frames {
		if r.s.Phase() == session.PhaseEnded {
			return
		}
		r.s.Tick(tick, maps.Clone(r.poses))
	}
}

func (r *runner) fail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.logger.Warn("expectation failed", zap.String("detail", msg))
	r.res.Failures = append(r.res.Failures, msg)
}

func (r *runner) check() {
	want := r.script.Expect
	sum := r.res.Summary
	if want == nil || sum == nil {
		return
	}
	if want.Score != nil && sum.Score != *want.Score {
		r.fail("score %d, want %d", sum.Score, *want.Score)
	}
	if want.Percentage != nil && math.Abs(sum.Percentage-*want.Percentage) > 0.005 {
		r.fail("percentage %.2f, want %.2f", sum.Percentage, *want.Percentage)
	}
	if want.Passed != nil && sum.Passed != *want.Passed {
		r.fail("passed %t, want %t", sum.Passed, *want.Passed)
	}
	if want.Reason != "" && sum.Reason != want.Reason {
		r.fail("reason %q, want %q", sum.Reason, want.Reason)
	}
	for id, score := range want.Tasks {
		found := false
		for _, tr := range sum.Tasks {
			if string(tr.ID) != id {
				continue
			}
			found = true
			if tr.Score != score {
				r.fail("task %s score %d, want %d", id, tr.Score, score)
			}
		}
		if !found {
			r.fail("task %s not in summary", id)
		}
	}
}

func camera(c *CaptureAction) oracle.Camera {
	return oracle.Camera{
		Position:   c.Position.Vec3(),
		Forward:    c.Forward.Vec3(),
		FOVDegrees: c.FOV,
	}
}

func targets(defs []TargetDef) []mechanics.Target {
	out := make([]mechanics.Target, 0, len(defs))
	for _, d := range defs {
		out = append(out, mechanics.Target{ID: d.ID, Kind: d.Kind, Bounds: d.Box.Bounds()})
	}
	return out
}
