package j3d

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/utils"
)

const JOINT_SIZE = 0x40

type Joint struct {
	Name            string
	MatrixType      uint16
	ScaleCompensate bool
	Scale           mgl32.Vec3
	Rotation        mgl32.Vec3
	Translation     mgl32.Vec3
	Radius          float32
	BBox            utils.AABB
}

func (j *Joint) LocalMatrix() mgl32.Mat4 {
	return utils.SRTMatrix(j.Scale, j.Rotation, j.Translation)
}

type Jnt1 struct {
	Joints []Joint
}

func parseJnt1(bs *utils.BufStack) (*Jnt1, error) {
	count := int(bs.U16(0x08))
	dataOff := int(bs.U32(0x0C))
	remapOff := int(bs.U32(0x10))
	names := ReadNameTable(bs, int(bs.U32(0x14)))

	jnt := &Jnt1{Joints: make([]Joint, count)}
	for i := range jnt.Joints {
		remapped := i
		if remapOff != 0 {
			remapped = int(bs.U16(remapOff + i*2))
		}
		o := dataOff + remapped*JOINT_SIZE
		jnt.Joints[i] = Joint{
			Name:            nameOr(names, i, ""),
			MatrixType:      bs.U16(o),
			ScaleCompensate: bs.U8(o+2) == 1,
			Scale:           mgl32.Vec3{bs.F32(o + 0x04), bs.F32(o + 0x08), bs.F32(o + 0x0C)},
			Rotation: mgl32.Vec3{
				utils.J3DAngle(bs.S16(o + 0x10)),
				utils.J3DAngle(bs.S16(o + 0x12)),
				utils.J3DAngle(bs.S16(o + 0x14)),
			},
			Translation: mgl32.Vec3{bs.F32(o + 0x18), bs.F32(o + 0x1C), bs.F32(o + 0x20)},
			Radius:      bs.F32(o + 0x24),
			BBox: utils.AABB{
				Min: mgl32.Vec3{bs.F32(o + 0x28), bs.F32(o + 0x2C), bs.F32(o + 0x30)},
				Max: mgl32.Vec3{bs.F32(o + 0x34), bs.F32(o + 0x38), bs.F32(o + 0x3C)},
			},
		}
	}
	if err := bs.Err(); err != nil {
		return nil, errors.Wrapf(err, "Joints")
	}
	return jnt, nil
}
