package gx

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/retro_model_browser/utils"
)

func posIndex8() []VertexAttributeFormat {
	return []VertexAttributeFormat{
		{Attrib: GX_VA_PNMTXIDX, IndexType: GX_DIRECT},
		{Attrib: GX_VA_POS, IndexType: GX_INDEX8, CompCount: GX_POS_XYZ, CompType: GX_F32},
	}
}

func TestDecodeDisplayListPrimitives(t *testing.T) {
	for _, test := range []struct {
		name    string
		dl      []byte
		indices []uint32
	}{
		{"triangles", []byte{GX_TRIANGLES, 0, 3, 0, 10, 3, 11, 6, 12}, []uint32{0, 1, 2}},
		{"quad", []byte{GX_QUADS, 0, 4, 0, 0, 0, 1, 0, 2, 0, 3}, []uint32{0, 1, 2, 0, 2, 3}},
		{"strip", []byte{GX_TRIANGLESTRIP, 0, 4, 0, 0, 0, 1, 0, 2, 0, 3}, []uint32{0, 1, 2, 2, 1, 3}},
		{"fan", []byte{GX_TRIANGLEFAN, 0, 4, 0, 0, 0, 1, 0, 2, 0, 3}, []uint32{0, 1, 2, 0, 2, 3}},
		{"lines skipped", []byte{GX_LINES, 0, 2, 0, 0, 0, 1}, nil},
		{"nop padding", []byte{GX_TRIANGLES, 0, 3, 0, 0, 0, 1, 0, 2, GX_NOP, GX_NOP}, []uint32{0, 1, 2}},
	} {
		t.Run(test.name, func(t *testing.T) {
			d, err := DecodeDisplayList(test.dl, posIndex8())
			require.NoError(t, err)
			assert.Equal(t, test.indices, d.Indices)
		})
	}
}

func TestDecodeDisplayListIndices(t *testing.T) {
	d, err := DecodeDisplayList([]byte{GX_TRIANGLES, 0, 3, 0, 10, 3, 11, 6, 12}, posIndex8())
	require.NoError(t, err)
	require.Len(t, d.Vertices, 3)
	assert.Equal(t, int32(3), d.Vertices[1].Index[GX_VA_PNMTXIDX])
	assert.Equal(t, int32(12), d.Vertices[2].Index[GX_VA_POS])
	assert.Equal(t, int32(-1), d.Vertices[0].Index[GX_VA_NRM])
}

func TestDecodeDisplayListErrors(t *testing.T) {
	_, err := DecodeDisplayList([]byte{0x13}, posIndex8())
	assert.Error(t, err)
	_, err = DecodeDisplayList([]byte{GX_TRIANGLES, 0, 3, 0, 1}, posIndex8())
	assert.Error(t, err)
	_, err = DecodeDisplayList([]byte{GX_TRIANGLES}, posIndex8())
	assert.Error(t, err)
}

func TestReadComponentsNormalShift(t *testing.T) {
	vaf := VertexAttributeFormat{Attrib: GX_VA_NRM, CompType: GX_S8, CompCount: GX_NRM_XYZ, Shift: 2}
	assert.Equal(t, []float32{1, -1, 0.5}, vaf.ReadComponents([]byte{0x40, 0xC0, 0x20}))

	pos := VertexAttributeFormat{Attrib: GX_VA_POS, CompType: GX_S16, CompCount: GX_POS_XYZ, Shift: 4}
	assert.Equal(t, []float32{1, -2, 0}, pos.ReadComponents([]byte{0x00, 0x10, 0xFF, 0xE0, 0, 0}))
}

func TestTextureSize(t *testing.T) {
	assert.Equal(t, 32, TextureSize(GX_TF_I4, 8, 8))
	assert.Equal(t, 64, TextureSize(GX_TF_RGBA8, 4, 4))
	assert.Equal(t, 4*32, TextureSize(GX_TF_CMPR, 16, 16))
	assert.Equal(t, 2*32, TextureSize(GX_TF_I8, 9, 4))
	assert.Equal(t, 0, TextureSize(0x7, 8, 8))
}

func TestDecodeTextureFormats(t *testing.T) {
	t.Run("I8", func(t *testing.T) {
		data := make([]byte, 32)
		data[0], data[9] = 0x80, 0xFF
		img, err := DecodeTexture(data, GX_TF_I8, 8, 4, nil)
		require.NoError(t, err)
		assert.Equal(t, color.NRGBA{0x80, 0x80, 0x80, 0x80}, img.NRGBAAt(0, 0))
		assert.Equal(t, color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}, img.NRGBAAt(1, 1))
	})
	t.Run("I4", func(t *testing.T) {
		data := make([]byte, 32)
		data[0] = 0xF3
		img, err := DecodeTexture(data, GX_TF_I4, 8, 8, nil)
		require.NoError(t, err)
		assert.Equal(t, uint8(0xFF), img.NRGBAAt(0, 0).R)
		assert.Equal(t, uint8(0x33), img.NRGBAAt(1, 0).R)
	})
	t.Run("IA8", func(t *testing.T) {
		data := make([]byte, 32)
		data[0], data[1] = 0x40, 0xC0
		img, err := DecodeTexture(data, GX_TF_IA8, 4, 4, nil)
		require.NoError(t, err)
		assert.Equal(t, color.NRGBA{0xC0, 0xC0, 0xC0, 0x40}, img.NRGBAAt(0, 0))
	})
	t.Run("RGB565", func(t *testing.T) {
		data := make([]byte, 32)
		data[0], data[1] = 0xF8, 0x00
		img, err := DecodeTexture(data, GX_TF_RGB565, 4, 4, nil)
		require.NoError(t, err)
		assert.Equal(t, color.NRGBA{0xFF, 0, 0, 0xFF}, img.NRGBAAt(0, 0))
	})
	t.Run("RGB5A3", func(t *testing.T) {
		data := make([]byte, 32)
		data[0], data[1] = 0x80, 0x1F
		data[2], data[3] = 0x7F, 0x00
		img, err := DecodeTexture(data, GX_TF_RGB5A3, 4, 4, nil)
		require.NoError(t, err)
		assert.Equal(t, color.NRGBA{0, 0, 0xFF, 0xFF}, img.NRGBAAt(0, 0))
		assert.Equal(t, color.NRGBA{0xFF, 0, 0, 0xFF}, img.NRGBAAt(1, 0))
	})
	t.Run("RGBA8", func(t *testing.T) {
		data := make([]byte, 64)
		data[0], data[1], data[32], data[33] = 0x11, 0x22, 0x33, 0x44
		img, err := DecodeTexture(data, GX_TF_RGBA8, 4, 4, nil)
		require.NoError(t, err)
		assert.Equal(t, color.NRGBA{0x22, 0x33, 0x44, 0x11}, img.NRGBAAt(0, 0))
	})
	t.Run("C8", func(t *testing.T) {
		data := make([]byte, 32)
		data[1] = 1
		pal := &Palette{Format: GX_TL_RGB565, Data: []byte{0, 0, 0x07, 0xE0}}
		img, err := DecodeTexture(data, GX_TF_C8, 8, 4, pal)
		require.NoError(t, err)
		assert.Equal(t, color.NRGBA{0, 0, 0, 0xFF}, img.NRGBAAt(0, 0))
		assert.Equal(t, color.NRGBA{0, 0xFF, 0, 0xFF}, img.NRGBAAt(1, 0))
	})
	t.Run("CMPR", func(t *testing.T) {
		data := make([]byte, 32)
		// first sub block: c0 white, c1 black, first row index 1 then 0
		data[0], data[1] = 0xFF, 0xFF
		data[4] = 0x40
		img, err := DecodeTexture(data, GX_TF_CMPR, 8, 8, nil)
		require.NoError(t, err)
		assert.Equal(t, color.NRGBA{0, 0, 0, 0xFF}, img.NRGBAAt(0, 0))
		assert.Equal(t, color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}, img.NRGBAAt(1, 0))
		// second sub block all zero means c0 == c1, index 3 not used
		assert.Equal(t, color.NRGBA{0, 0, 0, 0xFF}, img.NRGBAAt(4, 0))
	})
}

func TestDecodeTextureErrors(t *testing.T) {
	_, err := DecodeTexture(make([]byte, 16), GX_TF_I8, 8, 4, nil)
	assert.Error(t, err)
	_, err = DecodeTexture(make([]byte, 32), GX_TF_C8, 8, 4, nil)
	assert.Error(t, err)
	_, err = DecodeTexture(nil, 0x7, 8, 4, nil)
	assert.Error(t, err)
}

func TestDecodeMipChainStopsOnTruncatedLevel(t *testing.T) {
	data := make([]byte, TextureSize(GX_TF_RGBA8, 8, 8)+TextureSize(GX_TF_RGBA8, 4, 4))
	levels, err := DecodeMipChain(data, GX_TF_RGBA8, 8, 8, 4, nil)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.Equal(t, 4, levels[1].Bounds().Dx())
}

func TestEncodeTextureRoundtrip(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 6, 5))
	img.SetNRGBA(0, 0, color.NRGBA{0x10, 0x20, 0x30, 0x40})
	img.SetNRGBA(5, 4, color.NRGBA{0xFF, 0x80, 0x00, 0xFF})

	data, err := EncodeTexture(img, GX_TF_RGBA8)
	require.NoError(t, err)
	assert.Len(t, data, TextureSize(GX_TF_RGBA8, 6, 5))
	back, err := DecodeTexture(data, GX_TF_RGBA8, 6, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, img.Pix, back.Pix)

	data, err = EncodeTexture(img, GX_TF_RGB5A3)
	require.NoError(t, err)
	back, err = DecodeTexture(data, GX_TF_RGB5A3, 6, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0xFF, 0x84, 0x00, 0xFF}, back.NRGBAAt(5, 4))

	_, err = EncodeTexture(img, GX_TF_CMPR)
	assert.Error(t, err)
}

func testMaterial() *Material {
	m := NewMaterial("test")
	m.LightChannels = []LightChannel{{
		ColorChannel: ColorChannelControl{LightingEnabled: true, MatColorSource: GX_SRC_VTX, LitMask: 0x3,
			DiffuseFunction: GX_DF_CLAMP, AttenuationFunction: GX_AF_SPOT},
		AlphaChannel: ColorChannelControl{MatColorSource: GX_SRC_REG},
	}}
	m.TexGens = []TexGen{{Type: GX_TG_MTX2x4, Source: GX_TG_TEX0, Matrix: GX_TEXMTX0 + 3, PostMatrix: GX_PTIDENTITY}}
	m.TevStages = []TevStage{{
		TexCoordId: 0, TexMap: 0, Channel: GX_COLOR0A0,
		Color: CombinerInput{A: GX_CC_ZERO, B: GX_CC_TEXC, C: GX_CC_RASC, D: GX_CC_ZERO, Op: GX_TEV_ADD, Clamp: true},
		Alpha: CombinerInput{A: GX_CA_ZERO, B: GX_CA_TEXA, C: GX_CA_KONST, D: GX_CA_ZERO, Op: GX_TEV_ADD, Clamp: true},
		KonstColorSel: GX_TEV_KCSEL_K1, KonstAlphaSel: GX_TEV_KASEL_K0_R + 12,
		IndTexStage: -1,
	}}
	m.AlphaTest = AlphaTest{Op: GX_AOP_OR, CompareA: GX_GREATER, ReferenceA: 0.5, CompareB: GX_NEVER}
	return m
}

func TestGenerateProgram(t *testing.T) {
	vs, fs := GenerateProgram(testMaterial())

	assert.True(t, strings.HasPrefix(vs, "#version 300 es"))
	assert.Contains(t, vs, "u_TexMtx[1] * vec4(a_Tex0, 1.0, 1.0)")
	assert.Contains(t, vs, "u_Lights[0]")
	assert.Contains(t, vs, "u_Lights[1]")
	assert.NotContains(t, vs, "u_Lights[2]")
	assert.Contains(t, vs, "max(dot(t_Normal, t_LightDir), 0.0)")

	assert.Contains(t, fs, "texture(u_Texture[0], t_TexCoord, u_Misc0.x).rgba")
	assert.Contains(t, fs, "u_KonstColor[1].rgb")
	assert.Contains(t, fs, "u_KonstColor[0].a")
	assert.Contains(t, fs, "(t_PixelOut.a > 0.5) || false")
	assert.Contains(t, fs, "discard")
	assert.Contains(t, fs, "uniform sampler2D u_FramebufferTexture;")
}

func TestGenerateProgramIndirect(t *testing.T) {
	m := testMaterial()
	m.FramebufferTexMap = 1
	m.IndTexStages = []IndTexStage{{TexCoordId: 0, TexMap: 2}}
	m.TevStages[0].TexMap = 1
	m.TevStages[0].IndTexStage = 0
	m.TevStages[0].IndTexMatrix = GX_ITM_0
	m.TevStages[0].IndTexBiasSel = GX_ITB_ST
	m.SwapTables[0] = SwapTable{2, 1, 0, 3}

	assert.True(t, m.UsesFramebufferTexture())
	_, fs := GenerateProgram(m)
	assert.Contains(t, fs, "texture(u_FramebufferTexture, t_TexCoord, u_Misc0.x).bgra")
	assert.Contains(t, fs, "dot(u_IndTexMtx[0].xyz, t_Ind0)")
	assert.Contains(t, fs, "vec3(-128.0, -128.0, 0.0)")
	assert.Contains(t, fs, "255.0 * texture(u_Texture[2]")
	assert.NotEqual(t, ProgramKey(testMaterial()), ProgramKey(m))
	assert.Equal(t, ProgramKey(testMaterial()), ProgramKey(testMaterial()))
}

func TestEvalColorChannel(t *testing.T) {
	ch := &LightChannel{
		ColorChannel: ColorChannelControl{LightingEnabled: true, MatColorSource: GX_SRC_REG,
			AmbColorSource: GX_SRC_REG, LitMask: 1, DiffuseFunction: GX_DF_CLAMP, AttenuationFunction: GX_AF_NONE},
		AlphaChannel: ColorChannelControl{MatColorSource: GX_SRC_VTX},
	}
	lights := []Light{{Position: mgl32.Vec3{0, 10, 0}, Color: utils.ColorFloat{1, 1, 1, 1}}}
	mat := utils.ColorFloat{1, 0.5, 1, 1}
	amb := utils.ColorFloat{0.25, 0.25, 0.25, 1}
	vtx := utils.ColorFloat{0, 0, 0, 0.75}

	up := EvalColorChannel(ch, mat, amb, vtx, lights, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	assert.InDelta(t, 1.0, up[0], 1e-5)
	assert.InDelta(t, 0.5, up[1], 1e-5)
	assert.InDelta(t, 0.75, up[3], 1e-5)

	down := EvalColorChannel(ch, mat, amb, vtx, lights, mgl32.Vec3{}, mgl32.Vec3{0, -1, 0})
	assert.InDelta(t, 0.25, down[0], 1e-5)
	assert.InDelta(t, 0.125, down[1], 1e-5)
}

func TestMaterialParamsFill(t *testing.T) {
	p := NewMaterialParams()
	p.KonstColor[2] = utils.ColorFloat{0.1, 0.2, 0.3, 0.4}
	p.IndTexMtx[1] = IndTexMatrix{Matrix: [6]float32{1, 0, 0, 0, 1, 0}, ScaleExponent: -1}
	dst := make([]float32, UB_PARAMS_SIZE)
	p.Fill(dst)
	assert.Equal(t, []float32{0.1, 0.2, 0.3, 0.4}, dst[UB_KONST+8:UB_KONST+12])
	assert.Equal(t, float32(1), dst[UB_TEXMTX])
	assert.Equal(t, float32(0.5), dst[UB_INDTEXMTX+8])
	assert.Equal(t, float32(0.5), dst[UB_INDTEXMTX+12+1])
	assert.Equal(t, float32(1), dst[UB_COLOR_MAT])
}
