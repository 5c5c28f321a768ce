package oracle

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func testCamera() Camera {
	return Camera{
		Position:   mgl64.Vec3{0, 0, 0},
		Forward:    mgl64.Vec3{0, 0, -1},
		Up:         mgl64.Vec3{0, 1, 0},
		FOVDegrees: 60,
		Aspect:     1,
		Near:       0.1,
		Far:        100,
	}
}

func TestInFrustumCamera(t *testing.T) {
	f := NewFrustum(testCamera())

	tests := []struct {
		name   string
		bounds Bounds
		want   bool
	}{
		{"centered ahead", BoundsAround(mgl64.Vec3{0, 0, -10}, mgl64.Vec3{2, 2, 2}), true},
		{"behind camera", BoundsAround(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{2, 2, 2}), false},
		{"straddles right edge", BoundsAround(mgl64.Vec3{5.5, 0, -10}, mgl64.Vec3{1, 1, 1}), false},
		{"far off to the side", BoundsAround(mgl64.Vec3{20, 0, -10}, mgl64.Vec3{1, 1, 1}), false},
		{"beyond far plane", BoundsAround(mgl64.Vec3{0, 0, -200}, mgl64.Vec3{1, 1, 1}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InFrustum(f, tt.bounds); got != tt.want {
				t.Errorf("InFrustum = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInFrustumSevenOfEightCornersFails(t *testing.T) {
	open := func(n mgl64.Vec3) Plane { return Plane{Normal: n, D: 100} }
	diag := mgl64.Vec3{-1, -1, -1}.Normalize()
	f := Frustum{
		open(mgl64.Vec3{1, 0, 0}),
		open(mgl64.Vec3{0, 1, 0}),
		open(mgl64.Vec3{0, 0, 1}),
		open(mgl64.Vec3{-1, 0, 0}),
		open(mgl64.Vec3{0, -1, 0}),
		// x+y+z <= 2.5 excludes only the (1,1,1) corner of the unit cube.
		{Normal: diag, D: 2.5 / math.Sqrt(3)},
	}
	box := Bounds{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}}

	inside := 0
	for _, c := range box.Corners() {
		if f.ContainsPoint(c) {
			inside++
		}
	}
	assert.Equal(t, 7, inside)
	assert.False(t, InFrustum(f, box))
}

type stubCaster struct {
	hit Hit
	ok  bool
}

func (s stubCaster) Raycast(_, _ mgl64.Vec3, _ float64) (Hit, bool) { return s.hit, s.ok }

func TestClearLineOfSight(t *testing.T) {
	target := BoundsAround(mgl64.Vec3{0, 0, -10}, mgl64.Vec3{1, 1, 1})
	origin := mgl64.Vec3{0, 0, 0}

	tests := []struct {
		name   string
		caster RayCaster
		want   bool
	}{
		{"nothing hit", stubCaster{}, true},
		{"wall in between", stubCaster{Hit{Object: "wall-1", Tag: "Wall", Distance: 3}, true}, false},
		{"floor in between", stubCaster{Hit{Object: "floor", Tag: "Floor", Distance: 5}, true}, false},
		{"target itself", stubCaster{Hit{Object: "victim", Tag: "Wall", Distance: 9.5}, true}, true},
		{"non-occluding prop", stubCaster{Hit{Object: "chair", Tag: "Prop", Distance: 4}, true}, true},
		{"wall behind target", stubCaster{Hit{Object: "wall-2", Tag: "Wall", Distance: 50}, true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClearLineOfSight(tt.caster, origin, "victim", target, nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDistanceAndBoxChecks(t *testing.T) {
	a := mgl64.Vec3{0, 0, 0}
	assert.True(t, WithinDistance(a, mgl64.Vec3{0.3, 0, 0}, 0.3))
	assert.False(t, WithinDistance(a, mgl64.Vec3{0.31, 0, 0}, 0.3))

	box := BoundsAround(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{2, 2, 2})
	assert.True(t, InsideBox(box, mgl64.Vec3{1.5, 0.5, 2}))
	assert.False(t, InsideBox(box, mgl64.Vec3{2.1, 1, 1}))

	cyl := Cylinder{Base: mgl64.Vec3{0, 0, 0}, Radius: 1, Height: 2}
	assert.True(t, cyl.Contains(mgl64.Vec3{0.5, 1, 0.5}))
	assert.False(t, cyl.Contains(mgl64.Vec3{0.9, 1, 0.9}))
	assert.False(t, cyl.Contains(mgl64.Vec3{0, 3, 0}))
}

func TestSpeed(t *testing.T) {
	last := mgl64.Vec3{0, 0, 0}
	cur := mgl64.Vec3{0, 0.1, 0}

	assert.InDelta(t, 1.0, Speed(cur, last, 100*time.Millisecond), 1e-9)
	assert.True(t, SpeedBelow(cur, last, time.Second, 0.2))
	assert.False(t, SpeedBelow(cur, last, 100*time.Millisecond, 0.2))
	assert.Equal(t, 0.0, Speed(cur, last, 0))
}

func TestTiers(t *testing.T) {
	tap := Tiers{Warn: 0.02, Excessive: 0.03}
	assert.Equal(t, TierFine, tap.Classify(0.01))
	assert.Equal(t, TierFine, tap.Classify(0.02))
	assert.Equal(t, TierWarn, tap.Classify(0.025))
	assert.Equal(t, TierExcessive, tap.Classify(0.03))
	assert.Equal(t, "excessive", TierExcessive.String())
}

func TestAngleWithin(t *testing.T) {
	fwd := mgl64.Vec3{0, 0, 1}
	assert.True(t, AngleWithin(fwd, mgl64.Vec3{0, 0, 1}, 10))
	assert.True(t, AngleWithin(fwd, mgl64.Vec3{math.Tan(mgl64.DegToRad(9)), 0, 1}, 10))
	assert.False(t, AngleWithin(fwd, mgl64.Vec3{math.Tan(mgl64.DegToRad(11)), 0, 1}, 10))
	assert.False(t, AngleWithin(fwd, mgl64.Vec3{}, 10))
}

func TestHoldTimerResetsOnFailure(t *testing.T) {
	h := HoldTimer{Required: 2 * time.Second}
	frame := 500 * time.Millisecond

	for range 3 {
		assert.False(t, h.Update(true, frame))
	}
	assert.False(t, h.Update(false, frame))
	assert.Equal(t, time.Duration(0), h.Held())

	for range 3 {
		assert.False(t, h.Update(true, frame))
	}
	assert.True(t, h.Update(true, frame))
	// Latched once satisfied.
	assert.True(t, h.Update(false, frame))

	h.Reset()
	assert.False(t, h.Satisfied())
}

func TestCrossingDetector(t *testing.T) {
	var c CrossingDetector
	seq := []bool{false, true, true, true, false, true, true}
	var fired int
	for _, v := range seq {
		if c.Observe(v) {
			fired++
		}
	}
	assert.Equal(t, 2, fired)
}
