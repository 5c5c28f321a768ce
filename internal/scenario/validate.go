package scenario

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/abhisek/forensiq/internal/director"
	"github.com/abhisek/forensiq/internal/mechanics"
)

// requiredConditions lists the conditions a mechanic satisfies on its
// unit. Kinds that derive their conditions from other fields are absent.
var requiredConditions = map[string][]string{
	KindVictim:     {mechanics.CondPhotographed},
	KindGun:        {mechanics.CondFired},
	KindComparison: {mechanics.CondMatched},
	KindFlashlight: {mechanics.CondRevealed},
	KindPowder:     {mechanics.CondPowdered, mechanics.CondBrushed},
	KindTape:       {mechanics.CondApplied, mechanics.CondLifted, mechanics.CondTransferred},
}

var taskDoneEvent = regexp.MustCompile(`^task([0-9]+)\.done$`)

// validateDefinition performs the structural checks the schema cannot
// express. Returns a combined error describing all problems found.
func validateDefinition(def *Definition) error {
	var errs []string

	names := make(map[string]bool, len(def.Tasks))
	ids := make(map[string]bool, len(def.Tasks))
	for _, t := range def.Tasks {
		if names[t.Name] {
			errs = append(errs, fmt.Sprintf("duplicate task name: %q", t.Name))
		}
		names[t.Name] = true
		if ids[t.ledgerID()] {
			errs = append(errs, fmt.Sprintf("duplicate ledger ID: %q", t.ledgerID()))
		}
		ids[t.ledgerID()] = true

		errs = append(errs, validateTask(t)...)
	}

	if def.DefaultBeats && len(def.Beats) > 0 {
		errs = append(errs, "default_beats and beats are mutually exclusive")
	}
	errs = append(errs, validateBeats(def.Beats, len(def.Tasks))...)

	if len(errs) > 0 {
		return fmt.Errorf("scenario %q validation failed:\n  %s", def.Name, strings.Join(errs, "\n  "))
	}
	return nil
}

func validateTask(t TaskDef) []string {
	var errs []string
	units := make(map[string]UnitDef, len(t.Units))
	for _, u := range t.Units {
		if _, dup := units[u.Name]; dup {
			errs = append(errs, fmt.Sprintf("task %q: duplicate unit %q", t.Name, u.Name))
		}
		units[u.Name] = u
	}

	m := t.Mechanic
	if m == nil {
		return errs
	}
	prefix := fmt.Sprintf("task %q %s mechanic", t.Name, m.Kind)

	needCondition := func(unit, cond string) {
		u, ok := units[unit]
		if !ok {
			errs = append(errs, fmt.Sprintf("%s references nonexistent unit %q", prefix, unit))
			return
		}
		if !slices.Contains(u.Conditions, cond) {
			errs = append(errs, fmt.Sprintf("%s: unit %q lacks condition %q", prefix, unit, cond))
		}
	}

	switch m.Kind {
	case KindScene:
		for _, st := range m.Stations {
			needCondition(st.Unit, st.Name)
		}
	case KindEvidence:
		if !t.Unordered {
			errs = append(errs, fmt.Sprintf("%s requires an unordered task", prefix))
		}
		for _, it := range m.Items {
			u, ok := units[it.Unit]
			if !ok {
				errs = append(errs, fmt.Sprintf("%s references nonexistent unit %q", prefix, it.Unit))
				continue
			}
			want := mechanics.EvidenceItem{Unit: it.Unit, Target: it.Target, Markers: it.Markers}.Conditions()
			if !slices.Equal(u.Conditions, want) {
				errs = append(errs, fmt.Sprintf("%s: unit %q conditions must be %v", prefix, it.Unit, want))
			}
		}
	case KindSamples:
		for _, p := range m.Placements {
			needCondition(m.Unit, p.Condition)
		}
	default:
		for _, cond := range requiredConditions[m.Kind] {
			needCondition(m.Unit, cond)
		}
	}
	return errs
}

// validateBeats checks that the chain is linear: names are unique, every
// next exists, no beat is reached twice and awaited task events exist.
func validateBeats(beats []director.BeatSpec, tasks int) []string {
	if len(beats) == 0 {
		return nil
	}
	var errs []string
	byName := make(map[director.Beat]director.BeatSpec, len(beats))
	for _, b := range beats {
		if _, dup := byName[b.Beat]; dup {
			errs = append(errs, fmt.Sprintf("duplicate beat: %q", b.Beat))
		}
		byName[b.Beat] = b

		if b.Await != "" {
			m := taskDoneEvent.FindStringSubmatch(b.Await)
			if m == nil {
				errs = append(errs, fmt.Sprintf("beat %q awaits unknown event %q", b.Beat, b.Await))
			} else if n, _ := strconv.Atoi(m[1]); n < 1 || n > tasks {
				errs = append(errs, fmt.Sprintf("beat %q awaits %q but the module has %d tasks", b.Beat, b.Await, tasks))
			}
		}
	}
	for _, b := range beats {
		if b.Next != "" {
			if _, ok := byName[b.Next]; !ok {
				errs = append(errs, fmt.Sprintf("beat %q references nonexistent next beat %q", b.Beat, b.Next))
			}
		}
	}

	visited := make(map[director.Beat]bool, len(beats))
	for cur := beats[0].Beat; cur != ""; cur = byName[cur].Next {
		if visited[cur] {
			errs = append(errs, fmt.Sprintf("beat chain revisits %q", cur))
			break
		}
		visited[cur] = true
		if _, ok := byName[cur]; !ok {
			break
		}
	}
	return errs
}
