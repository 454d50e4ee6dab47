package utils

import "image/color"

type ColorFloat [4]float32

func (c ColorFloat) RGBA() (r, g, b, a uint32) {
	const mf = float32(256*256 - 1)
	a = uint32(Clamp(c[3], 0, 1) * mf)
	r = uint32(Clamp(c[0], 0, 1) * Clamp(c[3], 0, 1) * mf)
	g = uint32(Clamp(c[1], 0, 1) * Clamp(c[3], 0, 1) * mf)
	b = uint32(Clamp(c[2], 0, 1) * Clamp(c[3], 0, 1) * mf)
	return
}

func NewColorFloatFromRGBA8(r, g, b, a uint8) ColorFloat {
	return ColorFloat{float32(r) / 255, float32(g) / 255, float32(b) / 255, float32(a) / 255}
}

// Signed 10-bit TEV register values scaled to float
func NewColorFloatFromS16(c [4]int16) ColorFloat {
	return ColorFloat{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255, float32(c[3]) / 255}
}

func (c ColorFloat) Lerp(o ColorFloat, t float32) ColorFloat {
	var r ColorFloat
	for i := range c {
		r[i] = c[i] + (o[i]-c[i])*t
	}
	return r
}

func (c ColorFloat) Mul(o ColorFloat) ColorFloat {
	return ColorFloat{c[0] * o[0], c[1] * o[1], c[2] * o[2], c[3] * o[3]}
}

func (c ColorFloat) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: uint8(Clamp(c[0], 0, 1)*255 + 0.5),
		G: uint8(Clamp(c[1], 0, 1)*255 + 0.5),
		B: uint8(Clamp(c[2], 0, 1)*255 + 0.5),
		A: uint8(Clamp(c[3], 0, 1)*255 + 0.5),
	}
}
