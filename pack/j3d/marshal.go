package j3d

import (
	"bytes"
	"image/png"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/mogaika/retro_model_browser/gx"
	"github.com/mogaika/retro_model_browser/utils"
)

type AjaxTexture struct {
	Texture    *Texture
	FormatName string
	Image      []byte
}

type AjaxMaterial struct {
	*Material
	Translucent      bool
	UsesFramebuffer  bool
	VertexShader     string
	FragmentShader   string
	ProgramKey       uint32
	TextureNames     [8]string
	TevStagesCount   int
	IndirectStages   int
	AlphaTestEnabled bool
}

type AjaxShape struct {
	Index      int
	Name       string
	Material   int
	Joint      int
	MatrixType string
	Packets    int
	Attributes []string
	BBox       utils.AABB
}

type AjaxJoint struct {
	Joint
	Parent int
	World  mgl32.Mat4
}

type Ajax struct {
	Name       string
	Type       string
	Statistics Statistics
	BBox       utils.AABB
	Hierarchy  *SceneNode
	Joints     []AjaxJoint
	Shapes     []AjaxShape
	Materials  []AjaxMaterial
	Textures   []AjaxTexture
}

func EncodePNG(t *Texture) ([]byte, error) {
	img, err := t.Image()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrapf(err, "Texture %q png", t.Name)
	}
	return buf.Bytes(), nil
}

// marshalTextures decodes every texture in parallel
func marshalTextures(textures []*Texture) ([]AjaxTexture, error) {
	result := make([]AjaxTexture, len(textures))
	var g errgroup.Group
	for i, t := range textures {
		i, t := i, t
		result[i] = AjaxTexture{Texture: t, FormatName: gx.TextureFormatNames[t.Format]}
		g.Go(func() error {
			data, err := EncodePNG(t)
			if err != nil {
				return err
			}
			result[i].Image = data
			return nil
		})
	}
	return result, g.Wait()
}

func (m *Model) marshalMaterial(mat *Material) AjaxMaterial {
	am := AjaxMaterial{
		Material:        mat,
		Translucent:     mat.IsTranslucent(),
		UsesFramebuffer: mat.GX.UsesFramebufferTexture(),
		ProgramKey:      gx.ProgramKey(mat.GX),
		TevStagesCount:  len(mat.GX.TevStages),
		IndirectStages:  len(mat.GX.IndTexStages),
	}
	am.VertexShader, am.FragmentShader = gx.GenerateProgram(mat.GX)
	at := &mat.GX.AlphaTest
	am.AlphaTestEnabled = !(at.CompareA == gx.GX_ALWAYS && at.CompareB == gx.GX_ALWAYS)
	for i, ti := range mat.Textures {
		if t := m.Texture(ti); t != nil {
			am.TextureNames[i] = t.Name
		}
	}
	return am
}

func (m *Model) Marshal(src utils.ResourceSource) (interface{}, error) {
	a := &Ajax{
		Name:       m.Name,
		Type:       m.Type,
		Statistics: m.Statistics(),
		BBox:       m.BBox(),
		Hierarchy:  m.Inf1.Root,
	}

	world := m.BindPose()
	for i, j := range m.Jnt1.Joints {
		parent := -1
		if i < len(m.Inf1.JointParents) {
			parent = m.Inf1.JointParents[i]
		}
		a.Joints = append(a.Joints, AjaxJoint{Joint: j, Parent: parent, World: world[i]})
	}

	for i := range m.Shp1.Shapes {
		s := &m.Shp1.Shapes[i]
		as := AjaxShape{
			Index:      i,
			Name:       s.Name,
			Material:   -1,
			Joint:      -1,
			MatrixType: ShapeMatrixTypeNames[s.MatrixType],
			Packets:    len(s.Packets),
			BBox:       s.BBox,
		}
		if mi, ok := m.Inf1.ShapeMaterials[i]; ok {
			as.Material = mi
		}
		if ji, ok := m.Inf1.ShapeJoints[i]; ok {
			as.Joint = ji
		}
		for _, attr := range s.Attributes {
			as.Attributes = append(as.Attributes, gx.VertexAttributeNames[attr.Attrib])
		}
		a.Shapes = append(a.Shapes, as)
	}

	for _, mat := range m.Mat3.Materials {
		a.Materials = append(a.Materials, m.marshalMaterial(mat))
	}

	textures, err := marshalTextures(m.Tex1.Textures)
	if err != nil {
		return nil, errors.Wrapf(err, "Model %q", m.Name)
	}
	a.Textures = textures
	return a, nil
}
