package j3d

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/utils"
)

type Envelope struct {
	Joints  []int
	Weights []float32
}

type Evp1 struct {
	Envelopes []Envelope
	// per joint inverse bind, identity when missing
	InverseBinds []mgl32.Mat4
}

func parseEvp1(bs *utils.BufStack) (*Evp1, error) {
	count := int(bs.U16(0x08))
	countsOff := int(bs.U32(0x0C))
	indicesOff := int(bs.U32(0x10))
	weightsOff := int(bs.U32(0x14))
	matricesOff := int(bs.U32(0x18))

	e := &Evp1{Envelopes: make([]Envelope, count)}
	maxJoint := -1
	pos := 0
	for i := range e.Envelopes {
		n := int(bs.U8(countsOff + i))
		env := Envelope{Joints: make([]int, n), Weights: make([]float32, n)}
		for j := 0; j < n; j++ {
			env.Joints[j] = int(bs.U16(indicesOff + (pos+j)*2))
			env.Weights[j] = bs.F32(weightsOff + (pos+j)*4)
			if env.Joints[j] > maxJoint {
				maxJoint = env.Joints[j]
			}
		}
		pos += n
		e.Envelopes[i] = env
	}
	if err := bs.Err(); err != nil {
		return nil, errors.Wrapf(err, "Envelopes")
	}

	if matricesOff != 0 {
		e.InverseBinds = make([]mgl32.Mat4, maxJoint+1)
		for i := range e.InverseBinds {
			rows := make([]float32, 12)
			for j := range rows {
				rows[j] = bs.F32(matricesOff + i*0x30 + j*4)
			}
			e.InverseBinds[i] = utils.Mat34FromRows(rows)
		}
	}
	if err := bs.Err(); err != nil {
		return nil, errors.Wrapf(err, "Inverse bind matrices")
	}
	return e, nil
}

func (e *Evp1) InverseBind(joint int) mgl32.Mat4 {
	if e == nil || joint >= len(e.InverseBinds) {
		return mgl32.Ident4()
	}
	return e.InverseBinds[joint]
}
