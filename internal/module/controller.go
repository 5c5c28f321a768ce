// Package module aggregates the sequencers of one training module into a
// single progress value and a module-finished event.
package module

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/forensiq/internal/logging"
)

// Child is a task manager owned by a Controller.
type Child interface {
	Name() string
	Completed() bool
	UnitCount() int
}

// skipReporter is implemented by children that can tell whether any of
// their units were skipped.
type skipReporter interface {
	AnySkipped() bool
}

// Status is the checklist header state of a child.
type Status int

const (
	StatusNext Status = iota
	StatusIncomplete
	StatusComplete
)

func (s Status) String() string {
	switch s {
	case StatusNext:
		return "NEXT TASK"
	case StatusIncomplete:
		return "INCOMPLETE"
	case StatusComplete:
		return "COMPLETE"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Controller tracks which child is current and how many units of the
// module have been completed.
type Controller struct {
	name      string
	children  []Child
	total     int
	completed int
	current   int
	finished  bool

	onFinished []func()
	onProgress []func(percent float64)
	logger     *zap.Logger
}

// NewController creates a controller over children, in order.
func NewController(name string, children []Child, logger *zap.Logger) *Controller {
	c := &Controller{
		name:     name,
		children: children,
		logger:   logging.OrNop(logger).Named("module").With(zap.String("module", name)),
	}
	for _, ch := range children {
		c.total += ch.UnitCount()
	}
	return c
}

// Name returns the module name.
func (c *Controller) Name() string { return c.name }

// Children returns the owned children in order.
func (c *Controller) Children() []Child { return c.children }

// OnFinished registers fn to run once when the last child finishes.
func (c *Controller) OnFinished(fn func()) {
	c.onFinished = append(c.onFinished, fn)
}

// OnProgress registers fn to run after every progress change.
func (c *Controller) OnProgress(fn func(percent float64)) {
	c.onProgress = append(c.onProgress, fn)
}

// IsCurrent reports whether child is the active child and has not
// completed yet.
func (c *Controller) IsCurrent(child Child) bool {
	if c.current >= len(c.children) {
		return false
	}
	return c.children[c.current] == child && !child.Completed()
}

// Current returns the active child, or nil once the module finished.
func (c *Controller) Current() Child {
	if c.current >= len(c.children) {
		return nil
	}
	return c.children[c.current]
}

// CurrentIndex returns the index of the active child.
func (c *Controller) CurrentIndex() int { return c.current }

// CompleteTask records one completed unit and advances past finished
// children.
func (c *Controller) CompleteTask() {
	if c.completed < c.total {
		c.completed++
	} else {
		c.logger.Debug("completion ignored, all units already counted",
			zap.Int("total", c.total))
	}
	c.logger.Info("unit completed",
		zap.Int("completed", c.completed),
		zap.Int("total", c.total))
	c.afterChange()
}

// SkipTask advances past finished children without counting progress.
func (c *Controller) SkipTask() {
	c.logger.Info("unit skipped", zap.Int("completed", c.completed))
	c.afterChange()
}

func (c *Controller) afterChange() {
	c.advance()
	p := c.Progress()
	for _, fn := range c.onProgress {
		fn(p)
	}
	if c.current >= len(c.children) && !c.finished {
		c.finished = true
		c.logger.Info("module finished")
		for _, fn := range c.onFinished {
			fn()
		}
	}
}

// advance moves the current index past every completed child, in order.
func (c *Controller) advance() {
	for c.current < len(c.children) && c.children[c.current].Completed() {
		c.logger.Debug("child finished", zap.String("child", c.children[c.current].Name()))
		c.current++
	}
}

// Progress returns min(100, completed/total*100). A module without units
// reports 0.
func (c *Controller) Progress() float64 {
	if c.total == 0 {
		return 0
	}
	return min(100, float64(c.completed)/float64(c.total)*100)
}

// ProgressText formats Progress with one decimal, e.g. "42.9%".
func (c *Controller) ProgressText() string {
	return fmt.Sprintf("%.1f%%", c.Progress())
}

// Counts returns completed and total unit counts.
func (c *Controller) Counts() (completed, total int) {
	return c.completed, c.total
}

// Finished reports whether every child is done.
func (c *Controller) Finished() bool { return c.finished }

// Status returns the checklist header state of child.
func (c *Controller) Status(child Child) Status {
	switch {
	case c.IsCurrent(child):
		return StatusIncomplete
	case child.Completed():
		if sr, ok := child.(skipReporter); ok && sr.AnySkipped() {
			return StatusIncomplete
		}
		return StatusComplete
	default:
		return StatusNext
	}
}

// Header renders the checklist header of child, e.g.
// "(COMPLETE) Capturing the Scene".
func (c *Controller) Header(child Child) string {
	return fmt.Sprintf("(%s) %s", c.Status(child), child.Name())
}
