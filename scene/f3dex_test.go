package scene

import (
	"image/color"
	"net/url"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/retro_model_browser/pack/f3dex"
	"github.com/mogaika/retro_model_browser/render"
	"github.com/mogaika/retro_model_browser/render/soft"
	"github.com/mogaika/retro_model_browser/utils"
)

func testGeo(state f3dex.DrawState) *f3dex.Geo {
	dc := &f3dex.DrawCall{DrawState: state, Indices: []uint32{0, 1, 2, 0, 2, 3}}
	for _, p := range [][2]float32{{-50, -50}, {50, -50}, {50, 50}, {-50, 50}} {
		dc.Vertices = append(dc.Vertices, f3dex.Vertex{
			Position: mgl32.Vec3{p[0], p[1], 0},
			Color:    utils.ColorFloat{1, 0, 0, 1},
		})
	}
	g := &f3dex.Geo{Name: "quad", Cache: f3dex.NewTextureCache(), DrawCalls: []*f3dex.DrawCall{dc}, BBox: utils.EmptyAABB()}
	for _, v := range dc.Vertices {
		g.BBox.Extend(v.Position)
	}
	return g
}

var opaqueState = f3dex.DrawState{
	GeometryMode: f3dex.G_ZBUFFER,
	OtherModeL:   f3dex.Z_CMP | f3dex.Z_UPD,
	Textures:     [2]int{-1, -1},
}

func TestMegaStateFromDrawState(t *testing.T) {
	ds := opaqueState
	ds.GeometryMode |= f3dex.G_CULL_BACK
	ms := MegaStateFromDrawState(&ds)
	assert.False(t, ms.FrontFaceCW)
	assert.Equal(t, render.CULL_BACK, ms.Cull)
	assert.Equal(t, render.COMPARE_LEQUAL, ms.DepthCompare)
	assert.True(t, ms.DepthWrite)
	assert.Equal(t, render.BLEND_NONE, ms.Blend.Mode)
	assert.Equal(t, render.PASS_OPAQUE, DrawStateFilterKey(&ds))

	noDepth := f3dex.DrawState{}
	ms = MegaStateFromDrawState(&noDepth)
	assert.Equal(t, render.COMPARE_ALWAYS, ms.DepthCompare)
	assert.False(t, ms.DepthWrite)
	assert.Equal(t, render.CULL_NONE, ms.Cull)
	assert.Equal(t, render.PASS_TRANSPARENT, DrawStateFilterKey(&noDepth))

	blended := opaqueState
	blended.OtherModeL |= f3dex.FORCE_BL | f3dex.G_BL_CLR_MEM<<22
	ms = MegaStateFromDrawState(&blended)
	assert.Equal(t, render.BLEND_ADD, ms.Blend.Mode)
	assert.Equal(t, render.FACTOR_SRC_ALPHA, ms.Blend.SrcFactor)
}

func TestSamplerFromTile(t *testing.T) {
	tile := &f3dex.Tile{CMS: f3dex.G_TX_CLAMP | f3dex.G_TX_MIRROR, CMT: f3dex.G_TX_MIRROR}
	desc := samplerFromTile(tile, f3dex.G_TF_POINT)
	assert.Equal(t, render.WRAP_CLAMP, desc.WrapS)
	assert.Equal(t, render.WRAP_MIRROR, desc.WrapT)
	assert.Equal(t, render.FILTER_POINT, desc.MinFilter)

	desc = samplerFromTile(&f3dex.Tile{}, f3dex.G_TF_BILERP)
	assert.Equal(t, render.WRAP_REPEAT, desc.WrapS)
	assert.Equal(t, render.FILTER_BILINEAR, desc.MagFilter)
	assert.Equal(t, render.MIPFILTER_NO_MIP, desc.MipFilter)
}

func TestPackN64Vertices(t *testing.T) {
	data := packN64Vertices([]f3dex.Vertex{{
		Position: mgl32.Vec3{1, 2, 3},
		Color:    utils.ColorFloat{0.5, 0.25, 0, 1},
		UV:       [2]mgl32.Vec2{{0.1, 0.2}, {0.3, 0.4}},
	}})
	require.Len(t, data, N64_VTX_STRIDE)
	assert.Equal(t, float32(3), data[N64_VTX_POSITION+2])
	assert.Equal(t, float32(0.25), data[N64_VTX_COLOR+1])
	assert.Equal(t, float32(0.2), data[N64_VTX_TEX0+1])
	assert.Equal(t, float32(0.3), data[N64_VTX_TEX1])
}

func TestGeoInstanceRenderSoft(t *testing.T) {
	dev := soft.NewDevice()
	v := NewViewer(dev)
	gi := NewGeoView(dev, testGeo(opaqueState))
	v.Add(gi)

	in := ParseRenderInput(url.Values{"pitch": {"0"}, "yaw": {"0"}}, v.BBox(), 32, 32)
	v.RenderFrame(in)
	img := dev.Snapshot()
	require.NotNil(t, img)
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, img.NRGBAAt(16, 16))
	assert.Equal(t, color.NRGBA{38, 38, 51, 255}, img.NRGBAAt(0, 0))

	gi.Visible = false
	v.RenderFrame(in)
	assert.Equal(t, color.NRGBA{38, 38, 51, 255}, dev.Snapshot().NRGBAAt(16, 16))
	v.Destroy()
}

func TestGeoInstanceRecorder(t *testing.T) {
	rec := render.NewRecorder()
	v := NewViewer(rec)
	gd := NewGeoData(rec, testGeo(opaqueState))
	require.Len(t, gd.DrawCalls, 1)
	assert.Equal(t, render.LAYER_OPAQUE, gd.DrawCalls[0].Layer)

	sky := NewGeoInstance(gd)
	sky.Skybox = true
	v.Add(NewGeoInstance(gd))
	v.Add(sky)

	in := ParseRenderInput(url.Values{}, v.BBox(), 16, 16)
	v.RenderFrame(in)
	frame := rec.TakeFrame()
	draws := 0
	for _, p := range frame.Passes {
		draws += len(p.Draws)
	}
	assert.Equal(t, 2, draws)

	v.Destroy()
	gd.Destroy(rec)
}
