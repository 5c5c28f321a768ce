// Package oracle holds the pure pass/fail checks task units use to judge a
// trainee's action: frustum containment, line of sight, distance, speed
// and aim angle.
package oracle

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// BoundsAround returns the box centred on center with the given full size.
func BoundsAround(center, size mgl64.Vec3) Bounds {
	half := size.Mul(0.5)
	return Bounds{Min: center.Sub(half), Max: center.Add(half)}
}

// Center returns the midpoint of b.
func (b Bounds) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Corners returns the 8 corners of b.
func (b Bounds) Corners() [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	for i := range out {
		x, y, z := b.Min.X(), b.Min.Y(), b.Min.Z()
		if i&1 != 0 {
			x = b.Max.X()
		}
		if i&2 != 0 {
			y = b.Max.Y()
		}
		if i&4 != 0 {
			z = b.Max.Z()
		}
		out[i] = mgl64.Vec3{x, y, z}
	}
	return out
}

// SamplePoints returns the center of b followed by its 8 corners.
func (b Bounds) SamplePoints() [9]mgl64.Vec3 {
	var out [9]mgl64.Vec3
	out[0] = b.Center()
	corners := b.Corners()
	copy(out[1:], corners[:])
	return out
}

// Contains reports whether p lies inside b, borders included.
func (b Bounds) Contains(p mgl64.Vec3) bool {
	for i := range 3 {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Cylinder is an upright trigger volume.
type Cylinder struct {
	Base   mgl64.Vec3
	Radius float64
	Height float64
}

// Contains reports whether p is inside c.
func (c Cylinder) Contains(p mgl64.Vec3) bool {
	if p.Y() < c.Base.Y() || p.Y() > c.Base.Y()+c.Height {
		return false
	}
	dx, dz := p.X()-c.Base.X(), p.Z()-c.Base.Z()
	return dx*dx+dz*dz <= c.Radius*c.Radius
}

// WithinDistance reports whether a and b are at most threshold apart.
func WithinDistance(a, b mgl64.Vec3, threshold float64) bool {
	return a.Sub(b).Len() <= threshold
}

// InsideBox reports whether point lies within box.
func InsideBox(box Bounds, point mgl64.Vec3) bool {
	return box.Contains(point)
}

// AngleBetween returns the angle between d1 and d2 in degrees. A zero
// vector yields 180 so that aim checks fail.
func AngleBetween(d1, d2 mgl64.Vec3) float64 {
	l1, l2 := d1.Len(), d2.Len()
	if l1 == 0 || l2 == 0 {
		return 180
	}
	cos := d1.Dot(d2) / (l1 * l2)
	cos = math.Max(-1, math.Min(1, cos))
	return mgl64.RadToDeg(math.Acos(cos))
}

// AngleWithin reports whether d1 and d2 are at most thresholdDeg apart.
func AngleWithin(d1, d2 mgl64.Vec3, thresholdDeg float64) bool {
	return AngleBetween(d1, d2) <= thresholdDeg
}
