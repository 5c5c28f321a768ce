package session

import (
	"time"

	"github.com/abhisek/forensiq/internal/director"
	"github.com/abhisek/forensiq/internal/mechanics"
	"github.com/abhisek/forensiq/internal/task"
)

// DefaultSessionDuration is the standard session length.
const DefaultSessionDuration = 20 * time.Minute

// ReportScene is the scene shown with the final report.
const ReportScene = "evaluation"

// Plan is the assembled task graph of one training module.
type Plan struct {
	// Module is shown in headers and stored with results.
	Module string

	// Sequencers are the module's tasks in checklist order.
	Sequencers []*task.Sequencer

	// Mechanics drive the sequencers from trainee input.
	Mechanics []mechanics.Mechanic

	// Beats is the narrative chain. Empty disables the director.
	Beats []director.BeatSpec
}

// Config tunes a session.
type Config struct {
	Duration time.Duration
	Timing   director.Timing
	// Now returns wall-clock time for result timestamps.
	Now func() time.Time
}

// DefaultConfig returns the standard session configuration.
func DefaultConfig() Config {
	return Config{
		Duration: DefaultSessionDuration,
		Timing:   director.DefaultTiming(),
		Now:      time.Now,
	}
}
