package stage

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/retro_model_browser/utils"
)

// Actor is placement of ACTR-like chunks
type Actor struct {
	Kind     string
	Layer    int
	Name     string
	Params   uint32
	Position mgl32.Vec3
	// binary angles, x and z often carry extra params
	Rotation [3]int16
	SetId    uint16
	Scale    mgl32.Vec3
}

func readActor(e *utils.BufStack, kind string, layer int) *Actor {
	a := &Actor{
		Kind:     kind,
		Layer:    layer,
		Name:     e.Seek(0).ReadStringBuffer(8),
		Params:   e.U32(0x08),
		Position: mgl32.Vec3{e.F32(0x0C), e.F32(0x10), e.F32(0x14)},
		Rotation: [3]int16{e.S16(0x18), e.S16(0x1A), e.S16(0x1C)},
		SetId:    e.U16(0x1E),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
	if e.Size() >= SCALED_ACTOR_SIZE {
		for i := range a.Scale {
			a.Scale[i] = float32(e.U8(0x20+i)) / 10
		}
	}
	return a
}

// Matrix places actor, only yaw is applied
func (a *Actor) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(a.Position[0], a.Position[1], a.Position[2]).Mul4(
		mgl32.HomogRotate3DY(utils.J3DAngle(a.Rotation[1]))).Mul4(
		mgl32.Scale3D(a.Scale[0], a.Scale[1], a.Scale[2]))
}
