package j3d

import (
	"encoding/binary"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/retro_model_browser/gx"
	"github.com/mogaika/retro_model_browser/utils"
)

type blob []byte

func (b blob) u16(off int, v uint16) { binary.BigEndian.PutUint16(b[off:], v) }
func (b blob) u32(off int, v uint32) { binary.BigEndian.PutUint32(b[off:], v) }
func (b blob) f32(off int, v float32) {
	binary.BigEndian.PutUint32(b[off:], math.Float32bits(v))
}

func TestParseContainer(t *testing.T) {
	b := make(blob, HEADER_SIZE+0x10+0x08)
	copy(b, "J3D2bmd3")
	b.u32(0x08, uint32(len(b)))
	b.u32(0x0C, 2)
	copy(b[0x20:], "INF1")
	b.u32(0x24, 0x10)
	copy(b[0x30:], "ABCD")
	b.u32(0x34, 0x08)

	c, err := ParseContainer("test.bmd", b)
	require.NoError(t, err)
	assert.Equal(t, MAGIC_J3D2, c.Magic)
	assert.Equal(t, TYPE_BMD, c.Type)
	require.Len(t, c.Chunks, 2)
	assert.Equal(t, 0x30, c.Chunks[1].Offset)
	assert.NotNil(t, c.Chunk("INF1"))
	assert.Nil(t, c.Chunk("TEX1"))

	copy(b, "XXXX")
	_, err = ParseContainer("bad", b)
	assert.Error(t, err)
}

func TestParseContainerBadChunkSize(t *testing.T) {
	b := make(blob, HEADER_SIZE+0x08)
	copy(b, "J3D2bdl4")
	b.u32(0x0C, 1)
	copy(b[0x20:], "INF1")
	b.u32(0x24, 0x04)
	_, err := ParseContainer("bad.bdl", b)
	assert.Error(t, err)
}

func TestReadNameTable(t *testing.T) {
	b := make(blob, 0x20)
	b.u16(0x00, 2)
	b.u16(0x06, 0x0C)
	b.u16(0x0A, 0x10)
	copy(b[0x0C:], "ab\x00")
	copy(b[0x10:], "cd\x00")

	names := ReadNameTable(utils.NewBufStack("names", b), 0)
	assert.Nil(t, names)

	bs := utils.NewBufStack("names", append(make([]byte, 4), b...))
	names = ReadNameTable(bs, 4)
	assert.Equal(t, []string{"ab", "cd"}, names)
	assert.Equal(t, "cd", nameOr(names, 1, "x"))
	assert.Equal(t, "x", nameOr(names, 5, "x"))
}

func hierarchyChunk(nodes [][2]uint16) blob {
	b := make(blob, 0x18+len(nodes)*4)
	b.u32(0x14, 0x18)
	for i, n := range nodes {
		b.u16(0x18+i*4, n[0])
		b.u16(0x18+i*4+2, n[1])
	}
	return b
}

func TestParseInf1(t *testing.T) {
	nodes := [][2]uint16{
		{HIERARCHY_JOINT, 0}, {HIERARCHY_OPEN, 0},
		{HIERARCHY_MATERIAL, 0}, {HIERARCHY_OPEN, 0},
		{HIERARCHY_SHAPE, 0}, {HIERARCHY_CLOSE, 0},
		{HIERARCHY_JOINT, 1}, {HIERARCHY_OPEN, 0},
		{HIERARCHY_MATERIAL, 1}, {HIERARCHY_OPEN, 0},
		{HIERARCHY_SHAPE, 1}, {HIERARCHY_CLOSE, 0},
		{HIERARCHY_CLOSE, 0}, {HIERARCHY_CLOSE, 0},
		{HIERARCHY_END, 0},
	}
	inf, err := parseInf1(utils.NewBufStack("INF1", hierarchyChunk(nodes)))
	require.NoError(t, err)
	inf.resolve(2)

	assert.Equal(t, []int{-1, 0}, inf.JointParents)
	assert.Equal(t, map[int]int{0: 0, 1: 1}, inf.ShapeMaterials)
	assert.Equal(t, map[int]int{0: 0, 1: 1}, inf.ShapeJoints)
	assert.Equal(t, []int{0, 1}, inf.ShapeOrder)
	require.Len(t, inf.Root.Children, 1)
	assert.Equal(t, uint16(HIERARCHY_JOINT), inf.Root.Children[0].Type)
}

func TestParseInf1Unbalanced(t *testing.T) {
	_, err := parseInf1(utils.NewBufStack("INF1", hierarchyChunk([][2]uint16{
		{HIERARCHY_JOINT, 0}, {HIERARCHY_OPEN, 0}, {HIERARCHY_END, 0},
	})))
	assert.Error(t, err)

	_, err = parseInf1(utils.NewBufStack("INF1", hierarchyChunk([][2]uint16{
		{HIERARCHY_CLOSE, 0}, {HIERARCHY_END, 0},
	})))
	assert.Error(t, err)

	_, err = parseInf1(utils.NewBufStack("INF1", hierarchyChunk([][2]uint16{
		{0x55, 0}, {HIERARCHY_END, 0},
	})))
	assert.Error(t, err)
}

// 4x4 I8 texture, one 8x4 block of data right after header
func testBTI(fill byte) blob {
	b := make(blob, BTI_HEADER_SIZE+32)
	b[0x00] = gx.GX_TF_I8
	b.u16(0x02, 4)
	b.u16(0x04, 4)
	b[0x06] = gx.GX_CLAMP
	b[0x07] = gx.GX_REPEAT
	b[0x14] = gx.GX_LINEAR
	b[0x15] = gx.GX_NEAR
	b[0x18] = 1
	b.u32(0x1C, BTI_HEADER_SIZE)
	for i := BTI_HEADER_SIZE; i < len(b); i++ {
		b[i] = fill
	}
	return b
}

func TestBTI(t *testing.T) {
	bti, err := NewBTIFromData("test.bti", testBTI(0x80))
	require.NoError(t, err)
	tex := bti.Texture
	assert.Equal(t, gx.GX_TF_I8, tex.Format)
	assert.Equal(t, 4, tex.Width)
	assert.Equal(t, gx.GX_CLAMP, tex.WrapS)
	assert.Equal(t, gx.GX_NEAR, tex.MagFilter)
	assert.Equal(t, 0, tex.HeaderOffset)

	img, err := tex.Image()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0x80, 0x80, 0x80, 0x80}, img.NRGBAAt(3, 3))

	_, err = NewBTIFromData("short.bti", testBTI(0)[:0x10])
	assert.Error(t, err)
}

func TestFramebufferTextureName(t *testing.T) {
	assert.True(t, (&Texture{Name: "fbtex_dummy"}).IsFramebufferCopy())
	assert.True(t, (&Texture{Name: "FBTex"}).IsFramebufferCopy())
	assert.False(t, (&Texture{Name: "body"}).IsFramebufferCopy())
}

func TestReplaceBTITexture(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:], []byte{0xFF, 0, 0, 0xFF})
	}

	out, err := ReplaceBTITexture(testBTI(0x80), img, "")
	require.NoError(t, err)
	assert.Equal(t, 0x40+TEXTURE_DATA_ALIGN*2, len(out))

	bti, err := NewBTIFromData("replaced.bti", out)
	require.NoError(t, err)
	assert.Equal(t, gx.GX_TF_RGB5A3, bti.Texture.Format)
	assert.Equal(t, 8, bti.Texture.Width)
	assert.Equal(t, 1, bti.Texture.MipCount)
	assert.Equal(t, uint32(0x40), binary.BigEndian.Uint32(out[0x1C:]))

	decoded, err := bti.Texture.Image()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0xFF, 0, 0, 0xFF}, decoded.NRGBAAt(7, 3))

	_, err = ReplaceBTITexture(testBTI(0), img, "cmpr")
	assert.Error(t, err)
}

func TestParseReplaceFormat(t *testing.T) {
	f, err := ParseReplaceFormat("", gx.GX_TF_RGBA8)
	require.NoError(t, err)
	assert.Equal(t, gx.GX_TF_RGBA8, f)
	f, err = ParseReplaceFormat("", gx.GX_TF_CMPR)
	require.NoError(t, err)
	assert.Equal(t, gx.GX_TF_RGB5A3, f)
	f, err = ParseReplaceFormat("RGBA8", gx.GX_TF_I4)
	require.NoError(t, err)
	assert.Equal(t, gx.GX_TF_RGBA8, f)
}

func TestTrackSample(t *testing.T) {
	single := Track{Keys: []Key{{Time: 3, Value: 7}}}
	assert.Equal(t, float32(7), single.Sample(-100))
	assert.Equal(t, float32(7), single.Sample(100))

	// unit tangents on straight line give linear interpolation
	line := Track{Keys: []Key{
		{Time: 0, Value: 0, TangentIn: 1, TangentOut: 1},
		{Time: 10, Value: 10, TangentIn: 1, TangentOut: 1},
	}}
	assert.InDelta(t, 5, line.Sample(5), 1e-5)
	assert.InDelta(t, 2.5, line.Sample(2.5), 1e-5)
	assert.Equal(t, float32(0), line.Sample(-1))
	assert.Equal(t, float32(10), line.Sample(11))

	assert.Equal(t, float32(0), (&Track{}).Sample(1))
}

func TestLoopFrame(t *testing.T) {
	for _, test := range []struct {
		mode  uint8
		frame float32
		want  float32
	}{
		{LOOP_ONCE, 25, 10},
		{LOOP_ONCE, -5, 0},
		{LOOP_ONCE_RESET, 25, 0},
		{LOOP_ONCE_RESET, 4, 4},
		{LOOP_REPEAT, 25, 5},
		{LOOP_REPEAT, -2, 8},
		{LOOP_MIRRORED_ONCE, 15, 5},
		{LOOP_MIRRORED_ONCE, 25, 0},
		{LOOP_MIRRORED_REPEAT, 15, 5},
		{LOOP_MIRRORED_REPEAT, 35, 5},
	} {
		assert.InDelta(t, test.want, LoopFrame(test.mode, 10, test.frame), 1e-5,
			"mode %s frame %v", LoopModeNames[test.mode], test.frame)
	}
	assert.Equal(t, float32(0), LoopFrame(LOOP_REPEAT, 0, 5))
}

func TestReadTrack(t *testing.T) {
	b := make(blob, 0x40)
	// shared tangents: two keys of (time, value, tangent)
	b.u16(0x00, 2)
	b.u16(0x02, 1)
	b.u16(0x04, TANGENT_SHARED)
	values := []float32{99, 0, 1, 0.5, 4, 9, 0.25}
	for i, v := range values {
		b.f32(0x10+i*4, v)
	}
	bs := utils.NewBufStack("anim", b)
	track := readTrack(bs, 0, f32Table(bs, 0x10, 1))
	require.NoError(t, bs.Err())
	require.Len(t, track.Keys, 2)
	assert.Equal(t, Key{Time: 0, Value: 1, TangentIn: 0.5, TangentOut: 0.5}, track.Keys[0])
	assert.Equal(t, Key{Time: 4, Value: 9, TangentIn: 0.25, TangentOut: 0.25}, track.Keys[1])

	b.u16(0x00, 1)
	b.u16(0x02, 0)
	constant := readTrack(bs, 0, f32Table(bs, 0x10, 2))
	assert.Equal(t, float32(198), constant.Sample(3))
}
