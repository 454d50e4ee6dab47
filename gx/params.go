package gx

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/retro_model_browser/utils"
)

// Offsets in float32 units inside ub_Params, std140 layout
// with every member vec4 aligned
const (
	UB_PROJECTION  = 0
	UB_VIEW        = 16
	UB_COLOR_MAT   = 32
	UB_COLOR_AMB   = 40
	UB_KONST       = 48
	UB_COLOR       = 64
	UB_TEXMTX      = 80
	UB_POSTTEXMTX  = UB_TEXMTX + 10*16
	UB_INDTEXMTX   = UB_POSTTEXMTX + 20*16
	UB_MISC        = UB_INDTEXMTX + 6*4
	UB_LIGHTS      = UB_MISC + 4
	UB_LIGHT_SIZE  = 5 * 4
	UB_PARAMS_SIZE = UB_LIGHTS + 8*UB_LIGHT_SIZE
)

// MaterialParams holds per draw values of dynamic GX state
type MaterialParams struct {
	ColorMatReg [2]utils.ColorFloat
	ColorAmbReg [2]utils.ColorFloat
	KonstColor  [4]utils.ColorFloat
	// prev, reg0, reg1, reg2
	TevColor   [4]utils.ColorFloat
	TexMtx     [10]mgl32.Mat4
	PostTexMtx [20]mgl32.Mat4
	IndTexMtx  [3]IndTexMatrix
	LodBias    float32
	Lights     [8]Light
}

func NewMaterialParams() *MaterialParams {
	p := &MaterialParams{}
	for i := range p.TexMtx {
		p.TexMtx[i] = mgl32.Ident4()
	}
	for i := range p.PostTexMtx {
		p.PostTexMtx[i] = mgl32.Ident4()
	}
	for i := range p.ColorMatReg {
		p.ColorMatReg[i] = utils.ColorFloat{1, 1, 1, 1}
	}
	return p
}

func putMat(dst []float32, off int, m mgl32.Mat4) {
	copy(dst[off:off+16], m[:])
}

func putVec3(dst []float32, off int, v mgl32.Vec3, w float32) {
	dst[off], dst[off+1], dst[off+2], dst[off+3] = v[0], v[1], v[2], w
}

// Fill writes everything after view matrix, dst must be UB_PARAMS_SIZE long
func (p *MaterialParams) Fill(dst []float32) {
	for i, c := range p.ColorMatReg {
		copy(dst[UB_COLOR_MAT+i*4:], c[:])
	}
	for i, c := range p.ColorAmbReg {
		copy(dst[UB_COLOR_AMB+i*4:], c[:])
	}
	for i, c := range p.KonstColor {
		copy(dst[UB_KONST+i*4:], c[:])
	}
	for i, c := range p.TevColor {
		copy(dst[UB_COLOR+i*4:], c[:])
	}
	for i, m := range p.TexMtx {
		putMat(dst, UB_TEXMTX+i*16, m)
	}
	for i, m := range p.PostTexMtx {
		putMat(dst, UB_POSTTEXMTX+i*16, m)
	}
	for i, m := range p.IndTexMtx {
		scale := float32(math.Ldexp(1, int(m.ScaleExponent)))
		row := dst[UB_INDTEXMTX+i*8:]
		for j := 0; j < 3; j++ {
			row[j] = m.Matrix[j] * scale
			row[4+j] = m.Matrix[3+j] * scale
		}
		row[3], row[7] = 0, 0
	}
	dst[UB_MISC] = p.LodBias
	for i := range p.Lights {
		l := &p.Lights[i]
		off := UB_LIGHTS + i*UB_LIGHT_SIZE
		copy(dst[off:off+4], l.Color[:])
		putVec3(dst, off+4, l.Position, 1)
		putVec3(dst, off+8, l.Direction, 0)
		putVec3(dst, off+12, l.DistAtten, 0)
		putVec3(dst, off+16, l.CosAtten, 0)
	}
}

// FillCamera writes standard header
func FillCamera(dst []float32, projection, view mgl32.Mat4) {
	putMat(dst, UB_PROJECTION, projection)
	putMat(dst, UB_VIEW, view)
}
