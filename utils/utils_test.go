package utils

import (
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufStackReads(t *testing.T) {
	bs := NewBufStack("test", []byte{0x12, 0x34, 0x56, 0x78, 0x3f, 0x80, 0x00, 0x00, 'a', 'b', 0})

	assert.Equal(t, uint16(0x1234), bs.U16(0))
	assert.Equal(t, uint32(0x12345678), bs.U32(0))
	assert.Equal(t, float32(1.0), bs.F32(4))
	assert.Equal(t, "ab", bs.ZString(8))
	assert.Equal(t, "4Vx?", bs.FourCC(1))

	bs.LittleEndian()
	assert.Equal(t, uint16(0x3412), bs.ReadU16())
	assert.Equal(t, 2, bs.Pos())
	require.NoError(t, bs.Err())
}

func TestBufStackStickyError(t *testing.T) {
	bs := NewBufStack("test", []byte{1, 2, 3})
	assert.Equal(t, uint32(0), bs.U32(0))
	err := bs.Err()
	require.Error(t, err)

	assert.Equal(t, byte(1), bs.U8(0))
	assert.Equal(t, err, bs.Err(), "first error must be kept")
}

func TestBufStackSubBuf(t *testing.T) {
	bs := NewBufStack("file", []byte{0, 0, 0, 0, 0xAA, 0xBB, 0xCC, 0xDD})
	sub := bs.SubBuf("chunk", 4).SetSize(2)
	assert.Equal(t, uint16(0xAABB), sub.U16(0))
	assert.Equal(t, 4, sub.AbsoluteOffset())
	require.NoError(t, bs.Err())

	sub.U16(2)
	assert.Error(t, bs.Err(), "child errors propagate to parent")

	bad := bs.SubBuf("bad", 100)
	assert.Equal(t, byte(0), bad.U8(0))
	assert.Error(t, bad.Err())
	assert.Contains(t, bs.StringTree(), "chunk")
}

func TestJ3DAngle(t *testing.T) {
	assert.InDelta(t, math.Pi, J3DAngle(-0x8000)*-1, 1e-6)
	assert.InDelta(t, math.Pi/2, J3DAngle(0x4000), 1e-6)
}

func TestSRTMatrix(t *testing.T) {
	m := SRTMatrix(mgl32.Vec3{2, 2, 2}, mgl32.Vec3{0, 0, math.Pi / 2}, mgl32.Vec3{1, 2, 3})
	p := TransformPoint(m, mgl32.Vec3{1, 0, 0})
	assert.InDelta(t, 1, p[0], 1e-5)
	assert.InDelta(t, 4, p[1], 1e-5)
	assert.InDelta(t, 3, p[2], 1e-5)
}

func TestMat34FromRows(t *testing.T) {
	m := Mat34FromRows([]float32{1, 0, 0, 5, 0, 1, 0, 6, 0, 0, 1, 7})
	p := TransformPoint(m, mgl32.Vec3{1, 1, 1})
	assert.Equal(t, mgl32.Vec3{6, 7, 8}, p)
	assert.Equal(t, float32(5), Mat4ToRows34(m)[3])
}

func TestTexSRTBasicCenter(t *testing.T) {
	m := TexSRTBasic(mgl32.Vec2{1, 1}, math.Pi, mgl32.Vec2{0, 0}, mgl32.Vec2{0.5, 0.5})
	p := TransformPoint(m, mgl32.Vec3{0.5, 0.5, 0})
	assert.InDelta(t, 0.5, p[0], 1e-5)
	assert.InDelta(t, 0.5, p[1], 1e-5)
}

func TestAABB(t *testing.T) {
	b := EmptyAABB()
	assert.True(t, b.IsEmpty())
	b.Extend(mgl32.Vec3{-1, -1, -1})
	b.Extend(mgl32.Vec3{1, 1, 1})
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, b.Center())
	moved := b.Transform(mgl32.Translate3D(10, 0, 0))
	assert.Equal(t, float32(9), moved.Min[0])
}

func TestColorFloat(t *testing.T) {
	c := NewColorFloatFromRGBA8(255, 0, 0, 255)
	mid := c.Lerp(ColorFloat{0, 0, 1, 1}, 0.5)
	assert.InDelta(t, 0.5, mid[0], 1e-6)
	assert.Equal(t, uint8(128), mid.NRGBA().B)
}

func TestRandomNameGeneratorStable(t *testing.T) {
	a := NewRandomNameGenerator(7)
	n1, n2 := a.RandomName(), a.RandomName()
	assert.NotEqual(t, n1, n2)

	b := NewRandomNameGenerator(7)
	assert.Equal(t, n1, b.RandomName())
}

func TestDumpFile(t *testing.T) {
	type joint struct {
		Name   string
		Parent *joint
	}
	root := &joint{Name: "root"}
	v := struct {
		Joints []*joint
		Remap  map[string]int
	}{
		Joints: []*joint{root, {Name: "arm", Parent: root}},
		Remap:  map[string]int{"m_water": 1, "m_body": 0, "m_arm": 2},
	}

	out := DumpFile("test.bdl", v)
	assert.True(t, strings.HasPrefix(out, "# test.bdl: struct {"), out)
	assert.NotContains(t, out, "(0x")
	assert.NotContains(t, out, "cap=")

	arm, body, water := strings.Index(out, `"m_arm"`), strings.Index(out, `"m_body"`), strings.Index(out, `"m_water"`)
	require.True(t, arm >= 0 && body >= 0 && water >= 0, out)
	assert.True(t, arm < body && body < water, "map keys are sorted")
	assert.Equal(t, out, DumpFile("test.bdl", v))
}
