package j3d

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"

	"github.com/mogaika/retro_model_browser/utils/fbxbuilder"
)

type FbxMaterialExported struct {
	MaterialId int64
}

type FbxShapeExported struct {
	GeometryId int64
	ModelId    int64
	Model      *fbx.Node
}

type FbxExporter struct {
	Shapes []*FbxShapeExported
}

func (m *Model) exportFbxMaterial(f *fbxbuilder.FBXBuilder, mat *Material) *FbxMaterialExported {
	fme := &FbxMaterialExported{MaterialId: f.GenerateId()}
	color := mat.MatColors[0]

	material := bfbx73.Material(fme.MaterialId, mat.Name+"\x00\x01Material", "").AddNodes(
		bfbx73.Version(102),
		bfbx73.ShadingModel("lambert"),
		bfbx73.MultiLayer(0),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("AmbientColor", "Color", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("DiffuseColor", "Color", "", "A", float64(color[0]), float64(color[1]), float64(color[2])),
			bfbx73.P("Emissive", "Vector3D", "Vector", "", float64(0), float64(0), float64(0)),
			bfbx73.P("Diffuse", "Vector3D", "Vector", "", float64(color[0]), float64(color[1]), float64(color[2])),
			bfbx73.P("Opacity", "double", "Number", "", float64(color[3])),
		),
	)
	f.AddObjects(material)

	for _, ti := range mat.Textures {
		t := m.Texture(ti)
		if t == nil || t.IsFramebufferCopy() {
			continue
		}
		key := fmt.Sprintf("%s/tex%d", m.Name, ti)
		textureId := f.GetCachedOr(key, func() interface{} {
			png, err := EncodePNG(t)
			if err != nil {
				return int64(-1)
			}
			return f.AddTexture(t.Name, png)
		}).(int64)
		if textureId >= 0 {
			f.AddConnections(bfbx73.C("OP", textureId, fme.MaterialId, "DiffuseColor"))
		}
		break
	}
	return fme
}

func (m *Model) exportFbxShape(f *fbxbuilder.FBXBuilder, iShape int, g *ShapeGeometry, draw []mgl32.Mat4) *FbxShapeExported {
	vertices := make([]float64, 0)
	indexes := make([]int32, 0)
	uvindexes := make([]int32, 0)
	normals := make([]float64, 0)
	rgba := make([]float64, 0)
	uv := make([]float64, 0)

	for _, batch := range g.Batches {
		base := int32(len(vertices) / 3)
		for _, v := range batch.Transform(draw) {
			vertices = append(vertices, float64(v.Position[0]), float64(v.Position[1]), float64(v.Position[2]))
			normals = append(normals, float64(v.Normal[0]), float64(v.Normal[1]), float64(v.Normal[2]))
			c := v.Color[0]
			rgba = append(rgba, float64(c[0]), float64(c[1]), float64(c[2]), float64(c[3]))
			uv = append(uv, float64(v.Tex[0][0]), float64(1-v.Tex[0][1]))
		}
		for i := 0; i+2 < len(batch.Indices); i += 3 {
			a, b, c := base+int32(batch.Indices[i]), base+int32(batch.Indices[i+1]), base+int32(batch.Indices[i+2])
			// negative index closes polygon
			indexes = append(indexes, a, b, -c-1)
			uvindexes = append(uvindexes, a, b, c)
		}
	}

	fse := &FbxShapeExported{GeometryId: f.GenerateId(), ModelId: f.GenerateId()}
	name := fmt.Sprintf("%s_shape%d", m.Name, iShape)

	geometryLayer := bfbx73.Layer(0).AddNodes(bfbx73.Version(100))
	geometry := bfbx73.Geometry(fse.GeometryId, "\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Properties70().AddNodes(
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
		),
		bfbx73.GeometryVersion(124),
		bfbx73.Vertices(vertices),
		bfbx73.PolygonVertexIndex(indexes),
		geometryLayer,
	)

	addLayer := func(element *fbx.Node, typ string) {
		geometry.AddNode(element)
		geometryLayer.AddNode(bfbx73.LayerElement().AddNodes(
			bfbx73.Type(typ),
			bfbx73.TypedIndex(0),
		))
	}

	if g.HasNormal {
		addLayer(bfbx73.LayerElementNormal(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(""),
			bfbx73.MappingInformationType("ByVertice"),
			bfbx73.ReferenceInformationType("Direct"),
			bfbx73.Normals(normals),
		), "LayerElementNormal")
	}
	if g.HasColor[0] {
		addLayer(bfbx73.LayerElementColor(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(""),
			bfbx73.MappingInformationType("ByVertice"),
			bfbx73.ReferenceInformationType("Direct"),
			bfbx73.Colors(rgba),
		), "LayerElementColor")
	}
	if g.TexCount > 0 {
		addLayer(bfbx73.LayerElementUV(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(""),
			bfbx73.MappingInformationType("ByPolygonVertex"),
			bfbx73.ReferenceInformationType("IndexToDirect"),
			bfbx73.UV(uv),
			bfbx73.UVIndex(uvindexes),
		), "LayerElementUV")
	}
	addLayer(bfbx73.LayerElementMaterial(0).AddNodes(
		bfbx73.Version(101),
		bfbx73.Name(""),
		bfbx73.MappingInformationType("AllSame"),
		bfbx73.ReferenceInformationType("IndexToDirect"),
		bfbx73.Materials([]int32{0}),
	), "LayerElementMaterial")

	fse.Model = bfbx73.Model(fse.ModelId, name+"\x00\x01Model", "Mesh").AddNodes(
		bfbx73.Version(232),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("InheritType", "enum", "", "", int32(1)),
			bfbx73.P("DefaultAttributeIndex", "int", "Integer", "", int32(0)),
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
		),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)

	f.AddObjects(fse.Model, geometry)
	f.AddConnections(bfbx73.C("OO", fse.GeometryId, fse.ModelId))
	return fse
}

// ExportFbx adds shapes in bind pose world space with their materials
func (m *Model) ExportFbx(f *fbxbuilder.FBXBuilder) (*FbxExporter, error) {
	fe := &FbxExporter{}
	draw := m.DrawMatrices(m.BindPose())
	materials := make(map[int]*FbxMaterialExported)

	for iShape := range m.Shp1.Shapes {
		g, err := m.ShapeGeometry(iShape)
		if err != nil {
			return nil, err
		}
		fse := m.exportFbxShape(f, iShape, g, draw)
		if mat := m.ShapeMaterial(iShape); mat != nil {
			fme, ok := materials[mat.Index]
			if !ok {
				fme = m.exportFbxMaterial(f, mat)
				materials[mat.Index] = fme
			}
			f.AddConnections(bfbx73.C("OO", fme.MaterialId, fse.ModelId))
		}
		fe.Shapes = append(fe.Shapes, fse)
	}
	return fe, nil
}

func (m *Model) ExportFbxDefault() (*fbxbuilder.FBXBuilder, error) {
	f := fbxbuilder.NewFBXBuilder(m.Name)
	fe, err := m.ExportFbx(f)
	if err != nil {
		return nil, err
	}
	for _, shape := range fe.Shapes {
		f.AddConnections(bfbx73.C("OO", shape.ModelId, 0))
	}
	return f, nil
}
