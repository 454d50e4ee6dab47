package gx

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/retro_model_browser/utils"
)

type Light struct {
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	Color     utils.ColorFloat
	CosAtten  mgl32.Vec3
	DistAtten mgl32.Vec3
}

// NewDirectionalLight makes light far away along -dir,
// with attenuation disabled
func NewDirectionalLight(dir mgl32.Vec3, color utils.ColorFloat) Light {
	return Light{
		Position:  dir.Normalize().Mul(-1e6),
		Direction: dir.Normalize(),
		Color:     color,
		CosAtten:  mgl32.Vec3{1, 0, 0},
		DistAtten: mgl32.Vec3{1, 0, 0},
	}
}

func attenuation(a mgl32.Vec3, v float32) float32 {
	return a[0] + a[1]*v + a[2]*v*v
}

func diffuse(fn int, nDotL float32) float32 {
	switch fn {
	case GX_DF_SIGN:
		return nDotL
	case GX_DF_CLAMP:
		if nDotL < 0 {
			return 0
		}
		return nDotL
	}
	return 1
}

func (l *Light) contribution(ctrl *ColorChannelControl, pos, nrm mgl32.Vec3) float32 {
	switch ctrl.AttenuationFunction {
	case GX_AF_SPEC:
		ldir := l.Position.Normalize()
		nDotL := nrm.Dot(ldir)
		att := float32(0)
		if nDotL >= 0 {
			h := nrm.Dot(l.Direction)
			if h < 0 {
				h = 0
			}
			dist := attenuation(l.DistAtten, h)
			if dist != 0 {
				att = attenuation(l.CosAtten, h) / dist
			}
		}
		return diffuse(ctrl.DiffuseFunction, nDotL) * att
	case GX_AF_SPOT:
		delta := l.Position.Sub(pos)
		d := delta.Len()
		if d == 0 {
			return 0
		}
		ldir := delta.Mul(1 / d)
		cosAngle := ldir.Dot(l.Direction.Mul(-1))
		if cosAngle < 0 {
			cosAngle = 0
		}
		cos := attenuation(l.CosAtten, cosAngle)
		if cos < 0 {
			cos = 0
		}
		dist := attenuation(l.DistAtten, d)
		att := float32(0)
		if dist != 0 {
			att = cos / dist
		}
		return diffuse(ctrl.DiffuseFunction, nrm.Dot(ldir)) * att
	default:
		ldir := l.Position.Sub(pos).Normalize()
		return diffuse(ctrl.DiffuseFunction, nrm.Dot(ldir))
	}
}

func evalControl(ctrl *ColorChannelControl, matReg, ambReg, vtx utils.ColorFloat, lights []Light, pos, nrm mgl32.Vec3) utils.ColorFloat {
	mat := matReg
	if ctrl.MatColorSource == GX_SRC_VTX {
		mat = vtx
	}
	if !ctrl.LightingEnabled {
		return mat
	}
	acc := ambReg
	if ctrl.AmbColorSource == GX_SRC_VTX {
		acc = vtx
	}
	for i := 0; i < 8 && i < len(lights); i++ {
		if ctrl.LitMask&(1<<uint(i)) == 0 {
			continue
		}
		k := lights[i].contribution(ctrl, pos, nrm)
		for c := 0; c < 4; c++ {
			acc[c] += lights[i].Color[c] * k
		}
	}
	for c := 0; c < 4; c++ {
		acc[c] = utils.Clamp(acc[c], 0, 1)
	}
	return mat.Mul(acc)
}

// EvalColorChannel computes rasterized color of channel for one vertex,
// color from ColorChannel and alpha from AlphaChannel
func EvalColorChannel(ch *LightChannel, matReg, ambReg, vtx utils.ColorFloat, lights []Light, pos, nrm mgl32.Vec3) utils.ColorFloat {
	c := evalControl(&ch.ColorChannel, matReg, ambReg, vtx, lights, pos, nrm)
	a := evalControl(&ch.AlphaChannel, matReg, ambReg, vtx, lights, pos, nrm)
	return utils.ColorFloat{c[0], c[1], c[2], a[3]}
}
