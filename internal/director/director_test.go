package director

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/abhisek/forensiq/internal/engine"
	"github.com/abhisek/forensiq/internal/logging"
	"github.com/abhisek/forensiq/internal/sched"
)

type fixture struct {
	rec    *engine.Recorder
	sched  *sched.Scheduler
	dir    *Director
	beats  []Beat
	logger *logging.TestLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		rec:    engine.NewRecorder(),
		logger: logging.NewTestLogger(),
	}
	f.rec.Lines = map[string]time.Duration{
		"intro":      3 * time.Second,
		"task1":      2 * time.Second,
		"task1.post": time.Second,
		"task2":      2 * time.Second,
		"task2.post": time.Second,
		"task3":      2 * time.Second,
		"task3.post": time.Second,
		"ending":     4 * time.Second,
	}
	f.sched = sched.New(f.logger.Logger)
	f.dir = New(DefaultBeats(), f.rec, f.sched, DefaultTiming(), f.logger.Logger)
	f.dir.OnBeat(func(b Beat) { f.beats = append(f.beats, b) })
	return f
}

// advance ticks the scheduler in 100ms frames.
func (f *fixture) advance(d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += 100 * time.Millisecond {
		f.sched.Tick(100 * time.Millisecond)
	}
}

func TestIntroductionTimeline(t *testing.T) {
	f := newFixture(t)
	f.dir.Start()

	assert.Equal(t, Introduction, f.dir.Current())
	assert.False(t, f.rec.MovementEnabled())
	assert.Equal(t, []string{"teleport intro"}, f.rec.CallsWithPrefix("teleport"))
	assert.Empty(t, f.rec.CallsWithPrefix("show"))

	f.sched.Tick(100 * time.Millisecond)
	assert.Equal(t, []string{"show npc.intro"}, f.rec.CallsWithPrefix("show"))
	assert.Empty(t, f.rec.CallsWithPrefix("line"), "lead-in delays the line")

	f.sched.Tick(time.Second)
	assert.Equal(t, []string{"line intro"}, f.rec.CallsWithPrefix("line"))

	// Line length plus the post-line delay.
	f.sched.Tick(3 * time.Second)
	assert.Equal(t, Introduction, f.dir.Current())
	f.sched.Tick(2 * time.Second)
	assert.Equal(t, Task1, f.dir.Current())
}

func TestAutoChainKeepsMovementDisabled(t *testing.T) {
	f := newFixture(t)
	f.dir.Start()
	f.advance(7 * time.Second)

	require.Equal(t, Task1, f.dir.Current())
	for _, c := range f.rec.CallsWithPrefix("movement") {
		assert.Equal(t, "movement false", c)
	}
	assert.Equal(t, 1, f.rec.VisibleSpeakers())
	assert.Contains(t, f.rec.Calls(), "hide npc.intro")
}

func TestTaskBeatPausesAndRestoresMovement(t *testing.T) {
	f := newFixture(t)
	f.dir.Start()
	f.advance(12 * time.Second)

	assert.Equal(t, Task1, f.dir.Current())
	assert.True(t, f.dir.Paused())
	assert.Equal(t, EventTask1Done, f.dir.Awaiting())
	assert.True(t, f.rec.MovementEnabled())

	assert.False(t, f.dir.Resume("door.opened"), "event not awaited")
	assert.True(t, f.dir.Paused())

	require.True(t, f.dir.Resume(EventTask1Done))
	assert.Equal(t, PostTask1, f.dir.Current())
	assert.False(t, f.rec.MovementEnabled())
}

func TestEarlyEventIsRemembered(t *testing.T) {
	f := newFixture(t)
	f.dir.Start()
	f.advance(7 * time.Second)
	require.Equal(t, Task1, f.dir.Current())
	require.False(t, f.dir.Paused())

	assert.True(t, f.dir.Resume(EventTask1Done))
	assert.Equal(t, Task1, f.dir.Current())

	f.advance(5 * time.Second)
	assert.NotEqual(t, Task1, f.dir.Current())
	assert.False(t, f.dir.Paused())
}

func TestEventForLaterBeatIsHeld(t *testing.T) {
	f := newFixture(t)
	f.dir.Start()

	// Both tasks finish while the introduction is still playing.
	require.True(t, f.dir.Resume(EventTask1Done))
	require.True(t, f.dir.Resume(EventTask2Done))
	assert.Equal(t, Introduction, f.dir.Current())

	f.advance(30 * time.Second)
	assert.Equal(t, Task3, f.dir.Current())
	assert.True(t, f.dir.Paused())
	assert.Equal(t, EventTask3Done, f.dir.Awaiting())
	assert.Equal(t, []Beat{Introduction, Task1, PostTask1, Task2, PostTask2, Task3}, f.beats)
	var enabled int
	for _, c := range f.rec.CallsWithPrefix("movement") {
		if c == "movement true" {
			enabled++
		}
	}
	assert.Equal(t, 1, enabled, "movement only returns when task3 pauses")

	require.True(t, f.dir.Resume(EventTask3Done))
	f.advance(20 * time.Second)
	assert.True(t, f.dir.Done())
}

func TestEventForFinishedBeatIsRejected(t *testing.T) {
	f := newFixture(t)
	f.dir.Start()
	f.advance(12 * time.Second)
	require.True(t, f.dir.Resume(EventTask1Done))
	require.Equal(t, PostTask1, f.dir.Current())

	assert.False(t, f.dir.Resume(EventTask1Done), "task1 beat already left")
}

func TestPostBeatHidesSpeaker(t *testing.T) {
	f := newFixture(t)
	f.dir.Start()
	f.advance(12 * time.Second)
	require.True(t, f.dir.Resume(EventTask1Done))

	// teleport settle, line, post-line delay
	f.advance(100*time.Millisecond + time.Second + 2*time.Second)
	assert.Equal(t, Task2, f.dir.Current())
	assert.Contains(t, f.rec.Calls(), "hide npc.task1")
}

func TestMissingLineFallsBack(t *testing.T) {
	f := newFixture(t)
	delete(f.rec.Lines, "intro")
	f.dir.Start()

	f.advance(100*time.Millisecond + time.Second)
	require.Equal(t, []string{"line intro"}, f.rec.CallsWithPrefix("line"))
	f.logger.AssertLogged(t, zapcore.WarnLevel, "line unavailable, using fallback")

	f.advance(6 * time.Second)
	assert.Equal(t, Introduction, f.dir.Current())
	f.advance(time.Second)
	assert.Equal(t, Task1, f.dir.Current())
}

func TestFullChainToEnding(t *testing.T) {
	f := newFixture(t)
	f.dir.Start()

	for _, ev := range []string{EventTask1Done, EventTask2Done, EventTask3Done} {
		f.advance(15 * time.Second)
		require.True(t, f.dir.Paused(), "waiting for %s", ev)
		require.True(t, f.dir.Resume(ev))
	}
	f.advance(30 * time.Second)

	assert.True(t, f.dir.Done())
	assert.Equal(t, Ending, f.dir.Current())
	assert.True(t, f.rec.MovementEnabled())
	assert.Equal(t, []Beat{
		Introduction, Task1, PostTask1, Task2, PostTask2, Task3, PostTask3, Ending,
	}, f.beats)
	assert.Contains(t, f.rec.Calls(), "active ending.panel true")
	assert.Contains(t, f.rec.Calls(), "active ray.left true")
}

func TestStartTwice(t *testing.T) {
	f := newFixture(t)
	f.dir.Start()
	f.dir.Start()

	assert.Len(t, f.rec.CallsWithPrefix("teleport"), 1)
	f.logger.AssertLogged(t, zapcore.WarnLevel, "director already started")
}

func TestCancelStopsBeat(t *testing.T) {
	f := newFixture(t)
	f.dir.Start()
	f.dir.Cancel()
	f.advance(20 * time.Second)

	assert.Equal(t, Introduction, f.dir.Current())
	assert.Empty(t, f.rec.CallsWithPrefix("line"))
}
