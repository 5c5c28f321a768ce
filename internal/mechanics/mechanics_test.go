package mechanics

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/forensiq/internal/assessment"
	"github.com/abhisek/forensiq/internal/engine"
	"github.com/abhisek/forensiq/internal/logging"
	"github.com/abhisek/forensiq/internal/module"
	"github.com/abhisek/forensiq/internal/oracle"
	"github.com/abhisek/forensiq/internal/task"
)

type fixture struct {
	seq    *task.Sequencer
	ledger *assessment.Ledger
	host   *engine.Recorder
	deps   Deps
}

func newFixture(t *testing.T, cfg task.Config, units ...*task.Unit) *fixture {
	t.Helper()
	tl := logging.NewTestLogger()
	host := engine.NewRecorder()
	ledger := assessment.NewLedger(assessment.DefaultConfig(), tl.Logger)
	seq := task.NewSequencer(cfg, units, task.Deps{Ledger: ledger, Feedback: host, Stage: host, Logger: tl.Logger})
	ctrl := module.NewController("Module", []module.Child{seq}, tl.Logger)
	seq.SetParent(ctrl)
	seq.Start()
	return &fixture{
		seq:    seq,
		ledger: ledger,
		host:   host,
		deps:   Deps{Ledger: ledger, Feedback: host, Stage: host, Caster: host, Logger: tl.Logger},
	}
}

func (f *fixture) score(t *testing.T) int {
	t.Helper()
	a, ok := f.ledger.Assessment(f.seq.LedgerID())
	require.True(t, ok)
	return a.CurrentScore
}

func (f *fixture) mistakes(t *testing.T) []assessment.MistakeRecord {
	t.Helper()
	a, _ := f.ledger.Assessment(f.seq.LedgerID())
	return a.Records
}

func camera(pos mgl64.Vec3, fov float64) oracle.Camera {
	return oracle.Camera{
		Position:   pos,
		Forward:    mgl64.Vec3{0, 0, -1},
		Up:         mgl64.Vec3{0, 1, 0},
		FOVDegrees: fov,
		Aspect:     1,
		Near:       0.1,
		Far:        100,
	}
}

func frame(dt time.Duration, poses map[string]Pose) Frame {
	return Frame{DT: dt, Poses: poses}
}

func at(x, y, z float64) Pose { return Pose{Position: mgl64.Vec3{x, y, z}} }
