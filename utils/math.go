package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// J3DAngle converts s16 binary angle (0x8000 == pi) to radians
func J3DAngle(v int16) float32 {
	return float32(v) * (math.Pi / 0x8000)
}

// RotationZYX builds rotation applied in X, Y, Z order
func RotationZYX(rot mgl32.Vec3) mgl32.Mat4 {
	return mgl32.HomogRotate3DZ(rot[2]).Mul4(
		mgl32.HomogRotate3DY(rot[1])).Mul4(
		mgl32.HomogRotate3DX(rot[0]))
}

// SRTMatrix composes T * Rz * Ry * Rx * S
func SRTMatrix(scale, rot, trans mgl32.Vec3) mgl32.Mat4 {
	m := RotationZYX(rot)
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			m[col*4+row] *= scale[col]
		}
	}
	m[12], m[13], m[14] = trans[0], trans[1], trans[2]
	return m
}

// Mat34FromRows reads 3x4 row-major matrix (GX layout) into mgl32 column-major
func Mat34FromRows(r []float32) mgl32.Mat4 {
	return mgl32.Mat4{
		r[0], r[4], r[8], 0,
		r[1], r[5], r[9], 0,
		r[2], r[6], r[10], 0,
		r[3], r[7], r[11], 1,
	}
}

func Mat4ToRows34(m mgl32.Mat4) [12]float32 {
	return [12]float32{
		m[0], m[4], m[8], m[12],
		m[1], m[5], m[9], m[13],
		m[2], m[6], m[10], m[14],
	}
}

// TexSRTBasic rotates and scales texcoords around center
func TexSRTBasic(scale mgl32.Vec2, rot float32, trans mgl32.Vec2, center mgl32.Vec2) mgl32.Mat4 {
	c, s := float32(math.Cos(float64(rot))), float32(math.Sin(float64(rot)))
	m := mgl32.Ident4()
	m[0] = scale[0] * c
	m[1] = scale[0] * s
	m[4] = -scale[1] * s
	m[5] = scale[1] * c
	m[12] = trans[0] + center[0] - (m[0]*center[0] + m[4]*center[1])
	m[13] = trans[1] + center[1] - (m[1]*center[0] + m[5]*center[1])
	return m
}

// TexSRTMaya uses maya texture placement: origin at top-left, pivot at 0.5
func TexSRTMaya(scale mgl32.Vec2, rot float32, trans mgl32.Vec2) mgl32.Mat4 {
	m := TexSRTBasic(scale, -rot, mgl32.Vec2{0, 0}, mgl32.Vec2{0.5, 0.5})
	m[12] += -trans[0] * scale[0]
	m[13] += trans[1] * scale[1]
	return m
}

func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

func TransformDir(m mgl32.Mat4, d mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(d.Vec4(0)).Vec3()
}

func FloatArray32to64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func Clamp(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func EmptyAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

func (b *AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0]
}

func (b *AABB) Extend(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

func (b *AABB) Union(o AABB) {
	if o.IsEmpty() {
		return
	}
	b.Extend(o.Min)
	b.Extend(o.Max)
}

func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b AABB) Radius() float32 {
	return b.Max.Sub(b.Min).Len() * 0.5
}

// Transform returns bounds of 8 transformed corners
func (b AABB) Transform(m mgl32.Mat4) AABB {
	r := EmptyAABB()
	if b.IsEmpty() {
		return r
	}
	for i := 0; i < 8; i++ {
		p := b.Min
		if i&1 != 0 {
			p[0] = b.Max[0]
		}
		if i&2 != 0 {
			p[1] = b.Max[1]
		}
		if i&4 != 0 {
			p[2] = b.Max[2]
		}
		r.Extend(TransformPoint(m, p))
	}
	return r
}
