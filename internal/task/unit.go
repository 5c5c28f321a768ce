// Package task models completable units of work and the sequencers that
// order them within a module.
package task

import (
	"fmt"
)

// State is the lifecycle state of a Unit.
type State int

const (
	Inactive State = iota
	Active
	Completed
	Skipped
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Active:
		return "active"
	case Completed:
		return "completed"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Condition is one required sub-condition of a Unit: a trigger volume,
// a placement, a button press.
type Condition struct {
	Name      string
	satisfied bool
}

// Satisfied reports whether the condition holds.
func (c *Condition) Satisfied() bool { return c.satisfied }

// Unit is a single completable piece of work. A Unit completes when all
// its conditions are satisfied, and a completed or skipped Unit never
// changes state again.
type Unit struct {
	Name string

	// Objects are world objects disabled when the unit is skipped.
	Objects []string

	conditions []*Condition
	state      State
	skipHooks  []func()
}

// NewUnit creates an inactive unit with the named conditions.
func NewUnit(name string, conditions ...string) *Unit {
	u := &Unit{Name: name}
	for _, c := range conditions {
		u.conditions = append(u.conditions, &Condition{Name: c})
	}
	return u
}

// State returns the unit's lifecycle state.
func (u *Unit) State() State { return u.state }

// Finished reports whether the unit is completed or skipped.
func (u *Unit) Finished() bool {
	return u.state == Completed || u.state == Skipped
}

// Conditions returns the unit's conditions in declaration order.
func (u *Unit) Conditions() []*Condition {
	return u.conditions
}

// Condition returns the named condition, or nil.
func (u *Unit) Condition(name string) *Condition {
	for _, c := range u.conditions {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// satisfy marks the named condition. It reports whether the condition
// changed.
func (u *Unit) satisfy(name string) (bool, error) {
	if u.Finished() {
		return false, nil
	}
	c := u.Condition(name)
	if c == nil {
		return false, fmt.Errorf("unit %q has no condition %q", u.Name, name)
	}
	if c.satisfied {
		return false, nil
	}
	c.satisfied = true
	return true, nil
}

// reset clears the named conditions, or all when none are given.
func (u *Unit) reset(names ...string) {
	if u.Finished() {
		return
	}
	for _, c := range u.conditions {
		if len(names) == 0 {
			c.satisfied = false
			continue
		}
		for _, n := range names {
			if c.Name == n {
				c.satisfied = false
			}
		}
	}
}

// Progress returns how many conditions are satisfied.
func (u *Unit) Progress() (done, total int) {
	for _, c := range u.conditions {
		if c.satisfied {
			done++
		}
	}
	return done, len(u.conditions)
}

// AllSatisfied reports whether every condition holds. A unit without
// conditions is never satisfied implicitly.
func (u *Unit) AllSatisfied() bool {
	done, total := u.Progress()
	return total > 0 && done == total
}

// AnySatisfied reports whether at least one condition holds.
func (u *Unit) AnySatisfied() bool {
	done, _ := u.Progress()
	return done > 0
}

// OnSkip registers fn to run when the unit is skipped. Mechanics use it
// to abandon in-progress validation.
func (u *Unit) OnSkip(fn func()) {
	u.skipHooks = append(u.skipHooks, fn)
}

// Status renders the checklist line for the unit, e.g. "Kitchen (2/3)".
func (u *Unit) Status() string {
	if u.state == Skipped {
		return u.Name + " (Skipped)"
	}
	done, total := u.Progress()
	return fmt.Sprintf("%s (%d/%d)", u.Name, done, total)
}
