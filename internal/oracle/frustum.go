package oracle

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Camera describes a perspective camera pose.
type Camera struct {
	Position   mgl64.Vec3
	Forward    mgl64.Vec3
	Up         mgl64.Vec3
	FOVDegrees float64 // vertical field of view
	Aspect     float64
	Near       float64
	Far        float64
}

// ViewProjection returns the combined projection * view matrix.
func (c Camera) ViewProjection() mgl64.Mat4 {
	up := c.Up
	if up.Len() == 0 {
		up = mgl64.Vec3{0, 1, 0}
	}
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 16.0 / 9.0
	}
	near, far := c.Near, c.Far
	if near <= 0 {
		near = 0.01
	}
	if far <= near {
		far = 1000
	}
	proj := mgl64.Perspective(mgl64.DegToRad(c.FOVDegrees), aspect, near, far)
	view := mgl64.LookAtV(c.Position, c.Position.Add(c.Forward), up)
	return proj.Mul4(view)
}

// Plane is a·p + d >= 0 for points on the inner side.
type Plane struct {
	Normal mgl64.Vec3
	D      float64
}

// Distance returns the signed distance from p to the plane.
func (pl Plane) Distance(p mgl64.Vec3) float64 {
	return pl.Normal.Dot(p) + pl.D
}

// Frustum is the six clipping planes of a camera.
type Frustum [6]Plane

// NewFrustum extracts the clipping planes of cam from its view-projection
// matrix.
func NewFrustum(cam Camera) Frustum {
	m := cam.ViewProjection()
	r0, r1, r2, r3 := m.Row(0), m.Row(1), m.Row(2), m.Row(3)

	raw := [6]mgl64.Vec4{
		r3.Add(r0), // left
		r3.Sub(r0), // right
		r3.Add(r1), // bottom
		r3.Sub(r1), // top
		r3.Add(r2), // near
		r3.Sub(r2), // far
	}

	var f Frustum
	for i, v := range raw {
		n := v.Vec3()
		l := n.Len()
		if l == 0 {
			continue
		}
		f[i] = Plane{Normal: n.Mul(1 / l), D: v.W() / l}
	}
	return f
}

const planeEpsilon = 1e-9

// ContainsPoint reports whether p is inside every plane of f.
func (f Frustum) ContainsPoint(p mgl64.Vec3) bool {
	for _, pl := range f {
		if pl.Distance(p) < -planeEpsilon {
			return false
		}
	}
	return true
}

// InFrustum reports whether all 8 corners of b are inside f. A box that
// is only partly visible fails.
func InFrustum(f Frustum, b Bounds) bool {
	for _, c := range b.Corners() {
		if !f.ContainsPoint(c) {
			return false
		}
	}
	return true
}
