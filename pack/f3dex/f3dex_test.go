package f3dex

import (
	"encoding/binary"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/retro_model_browser/config"
	"github.com/mogaika/retro_model_browser/pack"
	"github.com/mogaika/retro_model_browser/utils"
)

type dlist []byte

func (d *dlist) cmd(w0, w1 uint32) {
	var b [8]byte
	binary.BigEndian.PutUint32(b[:], w0)
	binary.BigEndian.PutUint32(b[4:], w1)
	*d = append(*d, b[:]...)
}

func vertexBytes(vs ...[8]int16) []byte {
	out := make([]byte, 0, len(vs)*16)
	for _, v := range vs {
		var b [16]byte
		binary.BigEndian.PutUint16(b[0:], uint16(v[0]))
		binary.BigEndian.PutUint16(b[2:], uint16(v[1]))
		binary.BigEndian.PutUint16(b[4:], uint16(v[2]))
		binary.BigEndian.PutUint16(b[8:], uint16(v[3]))
		binary.BigEndian.PutUint16(b[10:], uint16(v[4]))
		b[12], b[13], b[14], b[15] = uint8(v[5]), uint8(v[6]), uint8(v[7]), 0xFF
		out = append(out, b[:]...)
	}
	return out
}

var quadVertices = vertexBytes(
	[8]int16{0, 0, 0, 0, 0, 255, 255, 255},
	[8]int16{10, 0, 0, 128, 0, 255, 0, 0},
	[8]int16{10, 10, 0, 128, 128, 0, 255, 0},
	[8]int16{0, 10, 0, 0, 128, 0, 0, 255},
)

// red, green, blue, white
var quadTexels = []byte{0xF8, 0x01, 0x07, 0xC1, 0x00, 0x3F, 0xFF, 0xFF}

func texturedCombine() CombineMode {
	return CombineMode{One: CombinePass{
		RGB:   CombineParams{A: CC_TEXEL0, B: CC_B_ZERO, C: CC_SHADE, D: CC_D_ZERO},
		Alpha: CombineParams{A: AC_TEXEL0, B: AC_ZERO, C: AC_SHADE, D: AC_ZERO},
	}}
}

func vtxCmd(count, first int, addr uint32) (uint32, uint32) {
	return G_VTX<<24 | uint32(first*2)<<16 | uint32(count)<<10 | uint32(count*16-1), addr
}

func triIndices(a, b, c int) uint32 { return uint32(a*2)<<16 | uint32(b*2)<<8 | uint32(c*2) }

func quadDisplayList() dlist {
	var dl dlist
	dl.cmd(texturedCombine().Encode())
	dl.cmd(G_TEXTURE<<24|1, 0x80008000)
	dl.cmd(G_SETTIMG<<24|G_IM_FMT_RGBA<<21|G_IM_SIZ_16b<<19|1, SEGMENT_TEXTURE<<24)
	dl.cmd(G_SETTILE<<24|G_IM_FMT_RGBA<<21|G_IM_SIZ_16b<<19, G_TX_LOADTILE<<24)
	dl.cmd(G_RDPLOADSYNC<<24, 0)
	dl.cmd(G_LOADBLOCK<<24, G_TX_LOADTILE<<24|3<<12)
	dl.cmd(G_SETTILE<<24|G_IM_FMT_RGBA<<21|G_IM_SIZ_16b<<19|1<<9, G_TX_RENDERTILE<<24)
	dl.cmd(G_SETTILESIZE<<24, 4<<12|4)
	dl.cmd(vtxCmd(4, 0, SEGMENT_VERTEX<<24))
	dl.cmd(G_TRI2<<24|triIndices(0, 1, 2), triIndices(0, 2, 3))
	dl.cmd(G_SETPRIMCOLOR<<24, 0x808080FF)
	dl.cmd(G_TRI1<<24, triIndices(0, 1, 2))
	dl.cmd(0x42<<24, 0)
	dl.cmd(G_ENDDL<<24, 0)
	return dl
}

func put16(b []byte, off int, v uint16) { binary.BigEndian.PutUint16(b[off:], v) }
func put32(b []byte, off int, v uint32) { binary.BigEndian.PutUint32(b[off:], v) }

func buildGeo(dl dlist, vertices []byte) []byte {
	const texSetup = HEADER_SIZE
	dlSetup := texSetup + 8 + TEXTURE_HEADER_SIZE + len(quadTexels)
	vtxSetup := dlSetup + 8 + len(dl)

	b := make([]byte, vtxSetup+0x18+len(vertices))
	put32(b, 0, MAGIC_GEO)
	put16(b, 0x08, texSetup)
	put16(b, 0x0A, 3)
	put32(b, 0x0C, uint32(dlSetup))
	put32(b, 0x10, uint32(vtxSetup))

	put32(b, texSetup, uint32(len(quadTexels)))
	put16(b, texSetup+4, 1)
	put32(b, texSetup+8, 0)
	put16(b, texSetup+8+4, GEO_TEXTURE_RGBA16)
	b[texSetup+8+8], b[texSetup+8+9] = 2, 2
	copy(b[texSetup+8+TEXTURE_HEADER_SIZE:], quadTexels)

	put32(b, dlSetup, uint32(len(dl)/8))
	copy(b[dlSetup+8:], dl)

	put16(b, vtxSetup+0x0C, 5)
	put16(b, vtxSetup+0x12, 7)
	put16(b, vtxSetup+0x16, uint16(len(vertices)/16))
	copy(b[vtxSetup+0x18:], vertices)
	return b
}

func TestNewGeoFromData(t *testing.T) {
	g, err := NewGeoFromData("quad", buildGeo(quadDisplayList(), quadVertices))
	require.NoError(t, err)

	assert.Equal(t, uint16(3), g.GeoType)
	assert.Equal(t, 4, g.VertexCount)
	assert.Equal(t, float32(5), g.Center[0])
	assert.Equal(t, float32(7), g.Radius)
	require.Len(t, g.Textures, 1)
	assert.Equal(t, "RGBA16", g.Textures[0].FormatName())
	assert.Equal(t, 2, g.Textures[0].Width)

	require.Len(t, g.DrawCalls, 2)
	first := g.DrawCalls[0]
	assert.Len(t, first.Vertices, 4)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, first.Indices)
	assert.Equal(t, 0, first.Textures[0])
	assert.Equal(t, -1, first.Textures[1])
	assert.Equal(t, mgl32.Vec2{1, 1}, first.Vertices[2].UV[0])
	assert.Equal(t, mgl32.Vec3{10, 10, 0}, first.Vertices[2].Position)
	assert.InDelta(t, 1.0, first.Vertices[1].Color[0], 1e-6)
	assert.InDelta(t, 0.0, first.Vertices[1].Color[1], 1e-6)

	second := g.DrawCalls[1]
	assert.Len(t, second.Vertices, 3)
	assert.InDelta(t, 128.0/255, second.PrimColor[0], 1e-6)

	assert.Equal(t, 1, g.Unknown[0x42])
	assert.Equal(t, 1, g.TextureCount())
	img := g.Texture(0).Image
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, img.NRGBAAt(1, 1))
	assert.Nil(t, g.Texture(1))

	assert.Equal(t, mgl32.Vec3{0, 0, 0}, g.BBox.Min)
	assert.Equal(t, mgl32.Vec3{10, 10, 0}, g.BBox.Max)
	assert.Contains(t, g.DumpCommands(), "G_SETCOMBINE")
}

func TestNewGeoFromDataErrors(t *testing.T) {
	_, err := NewGeoFromData("bad", []byte{0, 0, 0, 1})
	assert.Error(t, err)

	raw := buildGeo(quadDisplayList(), quadVertices)
	put32(raw, 0x10, uint32(len(raw)+4))
	_, err = NewGeoFromData("vtx", raw)
	assert.Error(t, err)
}

func TestGeoTextureHeaderDecode(t *testing.T) {
	th := TextureHeader{Offset: 0, Type: GEO_TEXTURE_CI4, Width: 2, Height: 1}
	segment := make([]byte, 0x20+1)
	put16(segment, 2, 0xF801)
	segment[0x20] = 0x01
	tex, err := th.Decode(segment)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, tex.Image.NRGBAAt(1, 0))
	assert.Equal(t, uint32(SEGMENT_TEXTURE<<24), tex.TLUT)

	_, err = (&TextureHeader{Type: 0x77, Width: 1, Height: 1}).Decode(segment)
	assert.Error(t, err)
}

func runList(t *testing.T, dl dlist, vertices []byte) *Interpreter {
	in := NewInterpreter(nil)
	in.SetSegment(SEGMENT_DISPLAY_LIST, dl)
	in.SetSegment(SEGMENT_VERTEX, vertices)
	require.NoError(t, in.Run(SEGMENT_DISPLAY_LIST<<24))
	return in
}

func TestInterpreterBranchSkipsCommands(t *testing.T) {
	var dl dlist
	dl.cmd(G_DL<<24|G_DL_NOPUSH<<16, SEGMENT_DISPLAY_LIST<<24|0x10)
	dl.cmd(0x42<<24, 0)
	dl.cmd(vtxCmd(3, 0, SEGMENT_VERTEX<<24))
	dl.cmd(G_TRI1<<24, triIndices(0, 1, 2))
	dl.cmd(G_ENDDL<<24, 0)

	in := runList(t, dl, quadVertices)
	assert.Empty(t, in.Unknown)
	require.Len(t, in.DrawCalls, 1)
	assert.Len(t, in.DrawCalls[0].Indices, 3)
}

func TestInterpreterCallReturns(t *testing.T) {
	var dl dlist
	dl.cmd(G_DL<<24|G_DL_PUSH<<16, SEGMENT_DISPLAY_LIST<<24|0x18)
	dl.cmd(G_TRI1<<24, triIndices(1, 2, 3))
	dl.cmd(G_ENDDL<<24, 0)
	dl.cmd(vtxCmd(4, 0, SEGMENT_VERTEX<<24))
	dl.cmd(G_TRI1<<24, triIndices(0, 1, 2))
	dl.cmd(G_ENDDL<<24, 0)

	in := runList(t, dl, quadVertices)
	require.Len(t, in.DrawCalls, 1)
	assert.Len(t, in.DrawCalls[0].Indices, 6)
	assert.Len(t, in.DrawCalls[0].Vertices, 4)
}

func TestInterpreterRecursionLimit(t *testing.T) {
	var dl dlist
	dl.cmd(G_DL<<24|G_DL_PUSH<<16, SEGMENT_DISPLAY_LIST<<24)

	in := NewInterpreter(nil)
	in.SetSegment(SEGMENT_DISPLAY_LIST, dl)
	assert.Error(t, in.Run(SEGMENT_DISPLAY_LIST<<24))
}

func TestInterpreterErrors(t *testing.T) {
	in := NewInterpreter(nil)
	assert.Error(t, in.Run(0x05000000), "unset segment")

	var dl dlist
	dl.cmd(vtxCmd(4, 30, SEGMENT_VERTEX<<24))
	in = NewInterpreter(nil)
	in.SetSegment(SEGMENT_DISPLAY_LIST, dl)
	in.SetSegment(SEGMENT_VERTEX, quadVertices)
	assert.Error(t, in.Run(SEGMENT_DISPLAY_LIST<<24), "vertex cache overflow")

	dl = nil
	dl.cmd(G_SPNOOP<<24, 0)
	in = NewInterpreter(nil)
	in.SetSegment(SEGMENT_DISPLAY_LIST, dl)
	assert.Error(t, in.Run(SEGMENT_DISPLAY_LIST<<24), "list without end")
}

func matrixBytes(m [16]float32) []byte {
	b := make([]byte, 64)
	for i, v := range m {
		fixed := uint32(int32(v * 65536))
		put16(b, i*2, uint16(fixed>>16))
		put16(b, 32+i*2, uint16(fixed))
	}
	return b
}

func TestReadMatrix(t *testing.T) {
	src := mgl32.Translate3D(5, -2.5, 0.25)
	m, err := ReadMatrix(matrixBytes(src))
	require.NoError(t, err)
	assert.Equal(t, src, m)

	_, err = ReadMatrix(make([]byte, 10))
	assert.Error(t, err)
}

func TestInterpreterMatrixStack(t *testing.T) {
	const matrixSegment = 0x03
	var dl dlist
	dl.cmd(G_MTX<<24|(G_MTX_LOAD|G_MTX_PUSH)<<16|0x40-1, matrixSegment<<24)
	dl.cmd(vtxCmd(3, 0, SEGMENT_VERTEX<<24))
	dl.cmd(G_TRI1<<24, triIndices(0, 1, 2))
	dl.cmd(G_POPMTX<<24, 0x40)
	dl.cmd(vtxCmd(3, 0, SEGMENT_VERTEX<<24))
	dl.cmd(G_TRI1<<24, triIndices(0, 1, 2))
	dl.cmd(G_ENDDL<<24, 0)

	in := NewInterpreter(nil)
	in.SetSegment(SEGMENT_DISPLAY_LIST, dl)
	in.SetSegment(SEGMENT_VERTEX, quadVertices)
	in.SetSegment(matrixSegment, matrixBytes(mgl32.Translate3D(100, 0, 0)))
	require.NoError(t, in.Run(SEGMENT_DISPLAY_LIST<<24))

	require.Len(t, in.DrawCalls, 1)
	v := in.DrawCalls[0].Vertices
	require.Len(t, v, 6)
	assert.Equal(t, mgl32.Vec3{110, 0, 0}, v[1].Position)
	assert.Equal(t, mgl32.Vec3{10, 0, 0}, v[4].Position)
}

func TestInterpreterMoveWordSegment(t *testing.T) {
	var dl dlist
	dl.cmd(G_MOVEWORD<<24|uint32(5*4)<<8|G_MW_SEGMENT, SEGMENT_VERTEX<<24)
	dl.cmd(vtxCmd(3, 0, 0x05000000))
	dl.cmd(G_TRI1<<24, triIndices(0, 1, 2))
	dl.cmd(G_ENDDL<<24, 0)

	in := runList(t, dl, quadVertices)
	require.Len(t, in.DrawCalls, 1)
	assert.Equal(t, mgl32.Vec3{10, 10, 0}, in.DrawCalls[0].Vertices[2].Position)
}

func TestInterpreterLighting(t *testing.T) {
	const lightSegment = 0x03
	lights := make([]byte, 0x20)
	// red light pointing along z, then dark gray ambient
	lights[0], lights[10] = 0xFF, 0x7F
	lights[0x10], lights[0x11], lights[0x12] = 0x40, 0x40, 0x40

	var dl dlist
	dl.cmd(G_MOVEWORD<<24|G_MW_NUMLIGHT, 0x80000000+2*32)
	dl.cmd(G_MOVEMEM<<24|G_MV_L0<<16|0x10, lightSegment<<24)
	dl.cmd(G_MOVEMEM<<24|(G_MV_L0+2)<<16|0x10, lightSegment<<24|0x10)
	dl.cmd(G_SETGEOMETRYMODE<<24, G_LIGHTING)
	dl.cmd(vtxCmd(3, 0, SEGMENT_VERTEX<<24))
	dl.cmd(G_TRI1<<24, triIndices(0, 1, 2))
	dl.cmd(G_ENDDL<<24, 0)

	in := NewInterpreter(nil)
	in.SetSegment(SEGMENT_DISPLAY_LIST, dl)
	in.SetSegment(SEGMENT_VERTEX, vertexBytes(
		[8]int16{0, 0, 0, 0, 0, 0, 0, 127},
		[8]int16{10, 0, 0, 0, 0, 127, 0, 0},
		[8]int16{10, 10, 0, 0, 0, 0, 0, -127},
	))
	in.SetSegment(lightSegment, lights)
	require.NoError(t, in.Run(SEGMENT_DISPLAY_LIST<<24))

	require.Len(t, in.DrawCalls, 1)
	v := in.DrawCalls[0].Vertices
	require.Len(t, v, 3)
	amb := float32(0x40) / 255
	for i, want := range []utils.ColorFloat{
		{1, amb, amb, 1},
		{amb, amb, amb, 1},
		{amb, amb, amb, 1},
	} {
		assert.InDeltaSlice(t, want[:], v[i].Color[:], 1e-5, "vertex %d", i)
	}
	assert.InDelta(t, 1, v[0].Normal.Z(), 1e-5)
}

func TestInterpreterLightingWithoutLights(t *testing.T) {
	var dl dlist
	dl.cmd(G_SETGEOMETRYMODE<<24, G_LIGHTING)
	dl.cmd(vtxCmd(3, 0, SEGMENT_VERTEX<<24))
	dl.cmd(G_TRI1<<24, triIndices(0, 1, 2))
	dl.cmd(G_ENDDL<<24, 0)

	in := runList(t, dl, quadVertices)
	require.Len(t, in.DrawCalls, 1)
	assert.Equal(t, utils.ColorFloat{1, 1, 1, 1}, in.DrawCalls[0].Vertices[1].Color)
}

func TestInterpreterLightCountRange(t *testing.T) {
	var dl dlist
	dl.cmd(G_MOVEWORD<<24|G_MW_NUMLIGHT, 0x80000000+10*32)
	dl.cmd(G_ENDDL<<24, 0)

	in := NewInterpreter(nil)
	in.SetSegment(SEGMENT_DISPLAY_LIST, dl)
	assert.Error(t, in.Run(SEGMENT_DISPLAY_LIST<<24))
}

func TestSetOtherMode(t *testing.T) {
	mode := uint32(0xFFFFFFFF)
	mode = setOtherMode(mode, uint32(G_MDSFT_CYCLETYPE)<<8|2, G_CYC_2CYCLE<<G_MDSFT_CYCLETYPE)
	ds := DrawState{OtherModeH: mode}
	assert.True(t, ds.TwoCycle())
	assert.Equal(t, uint32(0xFFCFFFFF|G_CYC_2CYCLE<<G_MDSFT_CYCLETYPE), mode)
}

func TestDrawStateModes(t *testing.T) {
	opaque := DrawState{GeometryMode: G_ZBUFFER, OtherModeL: Z_CMP | Z_UPD}
	assert.True(t, opaque.ZCompare())
	assert.True(t, opaque.ZUpdate())
	assert.False(t, opaque.IsTranslucent())

	// G_BL_CLR_IN, G_BL_A_IN, G_BL_CLR_MEM, G_BL_1MA in first cycle
	blended := opaque
	blended.OtherModeL |= FORCE_BL | G_BL_CLR_MEM<<22
	assert.True(t, blended.Blend())
	assert.True(t, blended.IsTranslucent())

	noDepth := DrawState{OtherModeL: Z_CMP | Z_UPD}
	assert.False(t, noDepth.ZUpdate())
	assert.True(t, noDepth.IsTranslucent())

	cutout := DrawState{OtherModeL: CVG_X_ALPHA | ALPHA_CVG_SEL}
	assert.True(t, cutout.CvgAlpha())
	assert.True(t, cutout.ProgramState().CvgAlpha)
}

func TestTileNormalize(t *testing.T) {
	tile := Tile{ULS: 4, ULT: 0, LRS: 4 * 16, LRT: 4 * 31, ShiftS: 1}
	assert.Equal(t, 16, tile.Width())
	assert.Equal(t, 32, tile.Height())
	uv := tile.normalize(mgl32.Vec2{34, 16})
	assert.InDelta(t, 1.0, uv[0], 1e-6)
	assert.InDelta(t, 0.5, uv[1], 1e-6)
}

func TestDecodeTexture(t *testing.T) {
	img, err := DecodeTexture([]byte{0xF0, 0x0F}, G_IM_FMT_IA, G_IM_SIZ_8b, 2, 1, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{255, 255, 255, 0}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, img.NRGBAAt(1, 0))

	img, err = DecodeTexture([]byte{0xF1}, G_IM_FMT_I, G_IM_SIZ_4b, 2, 1, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{0x11, 0x11, 0x11, 0x11}, img.NRGBAAt(1, 0))

	img, err = DecodeTexture([]byte{0x80, 0x40}, G_IM_FMT_IA, G_IM_SIZ_16b, 1, 1, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0x80, 0x80, 0x80, 0x40}, img.NRGBAAt(0, 0))

	img, err = DecodeTexture([]byte{0x10, 0x20, 0x30, 0x40}, G_IM_FMT_RGBA, G_IM_SIZ_32b, 1, 1, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0x10, 0x20, 0x30, 0x40}, img.NRGBAAt(0, 0))

	tlut := []byte{0x00, 0x00, 0xFF, 0x80}
	img, err = DecodeTexture([]byte{0x01}, G_IM_FMT_CI, G_IM_SIZ_8b, 1, 1, tlut, G_TT_IA16)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0xFF, 0xFF, 0xFF, 0x80}, img.NRGBAAt(0, 0))

	_, err = DecodeTexture([]byte{0x05}, G_IM_FMT_CI, G_IM_SIZ_8b, 1, 1, tlut, G_TT_RGBA16)
	assert.Error(t, err, "palette index out of range")
	_, err = DecodeTexture([]byte{0x01}, G_IM_FMT_CI, G_IM_SIZ_8b, 1, 1, nil, G_TT_RGBA16)
	assert.Error(t, err, "no palette")
	_, err = DecodeTexture([]byte{0x01}, G_IM_FMT_RGBA, G_IM_SIZ_16b, 2, 2, nil, 0)
	assert.Error(t, err, "short data")
	_, err = DecodeTexture(make([]byte, 8), G_IM_FMT_YUV, G_IM_SIZ_16b, 2, 1, nil, 0)
	assert.Error(t, err, "yuv")
}

func TestTextureCacheDecodesOnce(t *testing.T) {
	tc := NewTextureCache()
	calls := 0
	decode := func() ([]byte, error) { return quadTexels, nil }
	key := TextureKey{Address: 0x02000000, Format: G_IM_FMT_RGBA, Size: G_IM_SIZ_16b, Width: 2, Height: 2}
	for i := 0; i < 3; i++ {
		idx, err := tc.Get(key, func() (*image.NRGBA, error) {
			calls++
			data, _ := decode()
			return DecodeTexture(data, key.Format, key.Size, key.Width, key.Height, nil, 0)
		})
		require.NoError(t, err)
		assert.Equal(t, 0, idx)
	}
	assert.Equal(t, 1, calls)

	bad := key
	bad.Width = 64
	for i := 0; i < 2; i++ {
		idx, err := tc.Get(bad, func() (*image.NRGBA, error) {
			calls++
			return DecodeTexture(quadTexels, bad.Format, bad.Size, bad.Width, bad.Height, nil, 0)
		})
		assert.Equal(t, -1, idx)
		if i == 0 {
			assert.Error(t, err)
		}
	}
	assert.Equal(t, 2, calls)
}

func TestCombineEncodeRoundTrip(t *testing.T) {
	cm := texturedCombine()
	cm.Two = CombinePass{
		RGB:   CombineParams{A: CC_COMBINED, B: CC_ENVIRONMENT, C: CC_C_PRIM_LOD_FRAC, D: CC_ENVIRONMENT},
		Alpha: CombineParams{A: AC_COMBINED, B: AC_ZERO, C: AC_PRIMITIVE, D: AC_ZERO},
	}
	w0, w1 := cm.Encode()
	assert.Equal(t, byte(G_SETCOMBINE), byte(w0>>24))
	assert.Equal(t, cm, DecodeCombine(w0, w1))

	assert.True(t, cm.UsesTexel(0, false))
	assert.False(t, cm.UsesTexel(1, true))
}

func TestGenerateProgram(t *testing.T) {
	ps := &ProgramState{Combine: texturedCombine()}
	vs, fs := GenerateProgram(ps)
	assert.Contains(t, vs, "a_Position")
	assert.Contains(t, fs, "(t_Tex0.rgb - vec3(0.0)) * v_Color.rgb + vec3(0.0)")
	assert.NotContains(t, fs, "discard")

	cut := *ps
	cut.CvgAlpha = true
	_, cfs := GenerateProgram(&cut)
	assert.Contains(t, cfs, "discard")
	assert.NotEqual(t, ProgramKey(ps), ProgramKey(&cut))

	thr := *ps
	thr.AlphaCompare = G_AC_THRESHOLD
	_, tfs := GenerateProgram(&thr)
	assert.Contains(t, tfs, "u_Misc0.x")
}

func TestGeoMarshalAndExport(t *testing.T) {
	g, err := NewGeoFromData("quad", buildGeo(quadDisplayList(), quadVertices))
	require.NoError(t, err)

	v, err := g.Marshal(nil)
	require.NoError(t, err)
	a := v.(*Ajax)
	require.Len(t, a.DrawCalls, 2)
	require.Len(t, a.Textures, 1)
	assert.NotEmpty(t, a.Textures[0].Image)
	assert.Equal(t, 1, a.Unknown["0x42"])
	assert.Equal(t, "2x2", a.DrawCalls[0].TileSizes[0])

	doc, err := g.ExportGLTFDefault()
	require.NoError(t, err)
	assert.Len(t, doc.Meshes, 2)
	assert.Len(t, doc.Images, 1)
	assert.Len(t, doc.Materials, 2)
	assert.NotEqual(t, doc.Meshes[0].Name, doc.Meshes[1].Name)
}

type namedSource string

func (s namedSource) Name() string                    { return string(s) }
func (s namedSource) Path() string                    { return string(s) }
func (s namedSource) Size() int64                     { return 0 }
func (s namedSource) Save(in *io.SectionReader) error { return nil }

func TestGeoMagicDispatch(t *testing.T) {
	data := buildGeo(quadDisplayList(), quadVertices)
	defer config.SetGame(config.GetGame())

	config.SetGame(config.GameAuto)
	inst, err := pack.CallHandler(namedSource("bk_model.bin"), data)
	require.NoError(t, err)
	assert.IsType(t, &Geo{}, inst)

	// registered extension wins over weak magic
	pack.SetHandler(".f3dextest", func(src utils.ResourceSource, data []byte) (interface{}, error) {
		return "by extension", nil
	})
	inst, err = pack.CallHandler(namedSource("a.f3dextest"), data)
	require.NoError(t, err)
	assert.Equal(t, "by extension", inst)

	config.SetGame(config.GameWindWaker)
	_, err = pack.CallHandler(namedSource("bk_model.bin"), data)
	assert.Error(t, err)
}
