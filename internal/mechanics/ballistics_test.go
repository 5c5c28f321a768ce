package mechanics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/forensiq/internal/oracle"
	"github.com/abhisek/forensiq/internal/task"
)

func TestGunRecovery(t *testing.T) {
	f := newFixture(t, task.Config{Name: "Test Fire", LedgerID: "Task1"}, task.NewUnit("Recovery Box", CondFired))
	m := NewGunRecovery(f.seq, "Recovery Box", oracle.BoundsAround(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}), f.deps)

	assert.False(t, m.Interact(Interaction{Kind: KindPress, Name: ButtonMatch}))

	assert.True(t, m.Interact(Interaction{Kind: KindFire, Position: mgl64.Vec3{3, 0, 0}}))
	assert.Equal(t, 90, f.score(t))
	assert.Equal(t, 0, f.seq.Evaluate())

	assert.True(t, m.Interact(Interaction{Kind: KindFire, Position: mgl64.Vec3{0.2, 0, 0}}))
	assert.Equal(t, 1, f.seq.Evaluate())
	assert.Equal(t, 90, f.score(t))

	assert.False(t, m.Interact(Interaction{Kind: KindFire}), "finished task ignores shots")
}

func TestSamplePlacement(t *testing.T) {
	f := newFixture(t, task.Config{Name: "Bullet Samples", LedgerID: "Task2"},
		task.NewUnit("Samples", "fired-sample", "recovered-sample"))
	m := NewSamplePlacement(f.seq, "Samples", []Placement{
		{Condition: "fired-sample", Object: "bullet.fired", Box: oracle.BoundsAround(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0.2, 0.2, 0.2})},
		{Condition: "recovered-sample", Object: "bullet.recovered", Box: oracle.BoundsAround(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0.2, 0.2, 0.2})},
	}, f.deps)

	m.Tick(frame(tick, map[string]Pose{"bullet.fired": at(0, 0, 0), "bullet.recovered": at(3, 0, 0)}))
	assert.Equal(t, 0, f.seq.Evaluate())

	m.Tick(frame(tick, map[string]Pose{"bullet.fired": at(5, 0, 0), "bullet.recovered": at(1, 0, 0)}))
	assert.Equal(t, 1, f.seq.Evaluate(), "placed samples stay placed")
}

func TestBulletComparison(t *testing.T) {
	f := newFixture(t, task.Config{Name: "Bullet Comparison", LedgerID: "Task3"}, task.NewUnit("Comparison", CondMatched))
	m := NewBulletComparison(f.seq, "Comparison", nil, f.deps)

	for _, b := range []string{"image-1", "both-images", "zoom-in", "zoom-in", "reset"} {
		require.True(t, m.Interact(Interaction{Kind: KindPress, Name: b}))
	}
	assert.ElementsMatch(t, []string{"image-2", "zoom-out"}, m.Missing())
	assert.False(t, m.Interact(Interaction{Kind: KindPress, Name: "self-destruct"}))

	m.Interact(Interaction{Kind: KindPress, Name: ButtonNotMatch})
	m.Interact(Interaction{Kind: KindPress, Name: ButtonNotMatch})
	assert.Equal(t, 70, f.score(t), "wrong answer is penalized once")

	m.Interact(Interaction{Kind: KindPress, Name: ButtonMatch})
	assert.Equal(t, 1, f.seq.Evaluate())

	recs := f.mistakes(t)
	require.Len(t, recs, 2)
	assert.Equal(t, ToolsMistake, recs[1].Description)
	assert.Equal(t, 6, recs[1].Deduction)
	assert.Equal(t, 64, f.score(t))
}
