package j3d

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/retro_model_browser/utils"
)

const (
	TEXMTX_MAYA = 0x80

	TEXMAP_NONE               = 0x00
	TEXMAP_ENVMAP_BASIC       = 0x01
	TEXMAP_PROJMAP_BASIC      = 0x02
	TEXMAP_VIEW_PROJMAP_BASIC = 0x03
	TEXMAP_ENVMAP_OLD_EFFECT  = 0x05
	TEXMAP_ENVMAP_OLD         = 0x06
	TEXMAP_ENVMAP             = 0x07
	TEXMAP_PROJMAP            = 0x08
	TEXMAP_VIEW_PROJMAP       = 0x09
	TEXMAP_ENVMAP_OLD_EFFECT2 = 0x0A
	TEXMAP_ENVMAP_EFFECT      = 0x0B
)

// TexSRT overrides static SRT of texture matrix (BTK animation)
type TexSRT struct {
	Scale       mgl32.Vec2
	Rotation    float32
	Translation mgl32.Vec2
}

func (tm *TexMatrix) MappingMode() uint8 { return tm.Info & 0x3F }
func (tm *TexMatrix) IsMaya() bool       { return tm.Info&TEXMTX_MAYA != 0 }

func (tm *TexMatrix) StaticSRT() TexSRT {
	return TexSRT{Scale: tm.Scale, Rotation: tm.Rotation, Translation: tm.Translation}
}

func (tm *TexMatrix) srtMatrix(srt TexSRT) mgl32.Mat4 {
	if tm.IsMaya() {
		return utils.TexSRTMaya(srt.Scale, srt.Rotation, srt.Translation)
	}
	return utils.TexSRTBasic(srt.Scale, srt.Rotation, srt.Translation, mgl32.Vec2{tm.Center[0], tm.Center[1]})
}

// maps view space normal to [0..1] texture space
var envMapMatrix = mgl32.Mat4{
	0.5, 0, 0, 0,
	0, -0.5, 0, 0,
	0, 0, 0, 0,
	0.5, 0.5, 1, 1,
}

// maps clip space to (s*q, t*q, q)
var projMapMatrix = mgl32.Mat4{
	0.5, 0, 0, 0,
	0, 0.5, 0, 0,
	0, 0, 0, 0,
	0.5, 0.5, 1, 0,
}

func viewRotation(view mgl32.Mat4) mgl32.Mat4 {
	r := view
	r[12], r[13], r[14] = 0, 0, 0
	return r
}

// Compute builds final texture matrix. Texgen sources are world space,
// so environment and projection modes fold camera in.
func (tm *TexMatrix) Compute(srt TexSRT, view, projection mgl32.Mat4) mgl32.Mat4 {
	m := tm.srtMatrix(srt)
	switch tm.MappingMode() {
	case TEXMAP_NONE:
		return m
	case TEXMAP_ENVMAP_BASIC, TEXMAP_ENVMAP_OLD:
		return m.Mul4(envMapMatrix).Mul4(viewRotation(view))
	case TEXMAP_ENVMAP, TEXMAP_ENVMAP_OLD_EFFECT, TEXMAP_ENVMAP_OLD_EFFECT2, TEXMAP_ENVMAP_EFFECT:
		return m.Mul4(tm.Effect).Mul4(envMapMatrix).Mul4(viewRotation(view))
	case TEXMAP_PROJMAP_BASIC, TEXMAP_VIEW_PROJMAP_BASIC:
		return m.Mul4(projMapMatrix).Mul4(projection).Mul4(view)
	case TEXMAP_PROJMAP, TEXMAP_VIEW_PROJMAP:
		return m.Mul4(tm.Effect).Mul4(projMapMatrix).Mul4(projection).Mul4(view)
	}
	return m.Mul4(tm.Effect)
}
