package scene

import (
	"encoding/binary"
	"math"
	"net/url"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/retro_model_browser/gx"
	"github.com/mogaika/retro_model_browser/pack/j3d"
	"github.com/mogaika/retro_model_browser/render"
	"github.com/mogaika/retro_model_browser/utils"
)

func testMaterial(name string, index int) *j3d.Material {
	mat := &j3d.Material{Name: name, Index: index, Mode: j3d.MATERIAL_MODE_OPAQUE, GX: gx.NewMaterial(name)}
	for i := range mat.Textures {
		mat.Textures[i] = -1
	}
	for i := range mat.KonstColors {
		mat.KonstColors[i] = utils.ColorFloat{1, 1, 1, 1}
	}
	return mat
}

// testRoutingModel has one triangle shape per material:
// opaque, translucent and sampling framebuffer copy
func testRoutingModel() *j3d.Model {
	pos := gx.VertexAttributeFormat{Attrib: gx.GX_VA_POS, CompCount: gx.GX_POS_XYZ, CompType: gx.GX_F32}
	posData := make([]byte, 0, 36)
	for _, v := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0} {
		posData = binary.BigEndian.AppendUint32(posData, math.Float32bits(v))
	}

	opaque := testMaterial("m_opaque", 0)
	translucent := testMaterial("m_glass", 1)
	translucent.Mode = j3d.MATERIAL_MODE_TRANSLUCENT
	refraction := testMaterial("m_heat", 2)
	refraction.Textures[0] = 0
	refraction.GX.FramebufferTexMap = 0
	refraction.GX.TevStages = []gx.TevStage{{
		TexCoordId:  -1,
		TexMap:      0,
		Channel:     gx.GX_COLOR0A0,
		Color:       gx.CombinerInput{D: gx.GX_CC_TEXC},
		IndTexStage: -1,
	}}

	shapeAttr := pos
	shapeAttr.IndexType = gx.GX_INDEX8
	m := &j3d.Model{
		Name: "routing.bmd",
		Type: j3d.TYPE_BMD,
		Inf1: &j3d.Inf1{
			Root:           &j3d.SceneNode{Index: -1},
			JointParents:   []int{-1},
			ShapeMaterials: map[int]int{0: 0, 1: 1, 2: 2},
			ShapeJoints:    map[int]int{0: 0, 1: 0, 2: 0},
			ShapeOrder:     []int{0, 1, 2},
		},
		Vtx1: &j3d.Vtx1{
			Formats: map[int]gx.VertexAttributeFormat{gx.GX_VA_POS: pos},
			Arrays:  map[int]*j3d.VertexArray{gx.GX_VA_POS: {Format: pos, Data: posData}},
		},
		Drw1: &j3d.Drw1{Matrices: []j3d.DrawMatrix{{Index: 0}}},
		Jnt1: &j3d.Jnt1{Joints: []j3d.Joint{{Name: "root", Scale: mgl32.Vec3{1, 1, 1}}}},
		Mat3: &j3d.Mat3{Materials: []*j3d.Material{opaque, translucent, refraction}},
		Tex1: &j3d.Tex1{Textures: []*j3d.Texture{{
			Name: "fbtex_dummy", Format: gx.GX_TF_I8, Width: 4, Height: 4, MipCount: 1,
		}}},
	}
	m.Shp1 = &j3d.Shp1{}
	for i := 0; i < 3; i++ {
		m.Shp1.Shapes = append(m.Shp1.Shapes, j3d.Shape{
			Attributes: []gx.VertexAttributeFormat{shapeAttr},
			Packets: []j3d.Packet{{
				MatrixTable: []uint16{0},
				DisplayList: []byte{gx.GX_TRIANGLES, 0, 3, 0, 1, 2},
			}},
			BBox: utils.AABB{Max: mgl32.Vec3{1, 1, 0}},
		})
	}
	return m
}

func TestModelInstancePassRouting(t *testing.T) {
	model := testRoutingModel()
	assert.Equal(t, render.PASS_INDIRECT, MaterialFilterKey(model.Mat3.Materials[2]))

	rec := render.NewRecorder()
	mi, err := NewModelView(rec, model)
	require.NoError(t, err)
	require.Len(t, mi.Data.Shapes, 3)

	lists := render.NewPassLists()
	m := render.NewRenderInstManager(lists)
	in := ParseRenderInput(url.Values{}, testBox(10), 16, 16)

	mi.PrepareToRender(rec, m, in)
	assert.Equal(t, 1, lists.List(render.PASS_OPAQUE).Len())
	assert.Equal(t, 1, lists.List(render.PASS_TRANSPARENT).Len())
	assert.Equal(t, 1, lists.List(render.PASS_INDIRECT).Len())
	assert.Equal(t, 0, lists.List(render.PASS_SKYBOX).Len())
	assert.Equal(t, 0, m.TemplateDepth())

	// skybox overrides material pass of every shape
	m.ResetRenderInsts()
	mi.Skybox = true
	mi.PrepareToRender(rec, m, in)
	assert.Equal(t, 3, lists.List(render.PASS_SKYBOX).Len())
	assert.Equal(t, 3, lists.Len())

	m.ResetRenderInsts()
	mi.Visible = false
	mi.PrepareToRender(rec, m, in)
	assert.Equal(t, 0, lists.Len())

	mi.Destroy(rec)
}
