package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/retro_model_browser/utils"
)

// Camera orbits around target, angles are in degrees
type Camera struct {
	Target   mgl32.Vec3
	Distance float32
	Pitch    float32 // x rotation
	Yaw      float32 // y rotation

	FovY float32
	Near float32
	Far  float32
}

func NewOrbitCamera(target mgl32.Vec3, dist, pitch, yaw float32) *Camera {
	return &Camera{
		Target:   target,
		Distance: dist,
		Pitch:    pitch,
		Yaw:      yaw,
		FovY:     60,
		Near:     10,
		Far:      100000,
	}
}

func (c *Camera) Position() mgl32.Vec3 {
	pitch := float64(mgl32.DegToRad(c.Pitch))
	yaw := float64(mgl32.DegToRad(c.Yaw))
	return mgl32.Vec3{
		c.Distance * float32(math.Cos(pitch)*math.Sin(yaw)),
		c.Distance * float32(math.Sin(pitch)),
		c.Distance * float32(math.Cos(pitch)*math.Cos(yaw)),
	}.Add(c.Target)
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Target, mgl32.Vec3{0, 1, 0})
}

func (c *Camera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// FrameBox moves target to box center and backs off until box fits into view
func (c *Camera) FrameBox(box utils.AABB) {
	if box.IsEmpty() {
		return
	}
	radius := box.Radius()
	if radius < 1 {
		radius = 1
	}
	c.Target = box.Center()
	half := float64(mgl32.DegToRad(c.FovY)) / 2
	c.Distance = radius / float32(math.Sin(half)) * 1.1
	c.Near = utils.Clamp(radius/100, 0.1, 100)
	c.Far = c.Distance + radius*4
	if c.Far < 1000 {
		c.Far = 1000
	}
}
