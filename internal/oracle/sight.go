package oracle

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Hit is the nearest collider a ray struck.
type Hit struct {
	Object   string
	Tag      string
	Distance float64
}

// RayCaster answers physics ray queries. It is implemented by the host
// engine.
type RayCaster interface {
	// Raycast returns the nearest hit along dir within maxDistance.
	Raycast(origin, dir mgl64.Vec3, maxDistance float64) (Hit, bool)
}

// Occluder reports whether a collider tag blocks sight.
type Occluder func(tag string) bool

// WallsAndFloors treats "Wall" and "Floor" colliders as occluding.
func WallsAndFloors(tag string) bool {
	return tag == "Wall" || tag == "Floor"
}

// ClearLineOfSight casts a ray from origin to the center and each corner of
// target. Sight is blocked when any ray first hits an occluding collider
// other than the target itself.
func ClearLineOfSight(caster RayCaster, origin mgl64.Vec3, target string, b Bounds, occludes Occluder) bool {
	if occludes == nil {
		occludes = WallsAndFloors
	}
	for _, p := range b.SamplePoints() {
		delta := p.Sub(origin)
		dist := delta.Len()
		if dist == 0 {
			continue
		}
		hit, ok := caster.Raycast(origin, delta.Mul(1/dist), dist)
		if !ok || hit.Distance > dist {
			continue
		}
		if hit.Object != target && occludes(hit.Tag) {
			return false
		}
	}
	return true
}
