package j3d

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/retro_model_browser/gx"
	"github.com/mogaika/retro_model_browser/utils/gltfutils"
)

type GLTFTextureExported struct {
	TextureIndex uint32
	ImageIndex   uint32
	SamplerIndex uint32
}

type GLTFModelExported struct {
	Meshes    []uint32
	Materials map[int]uint32
}

func gltfWrap(wrap int) gltf.WrappingMode {
	switch wrap {
	case gx.GX_CLAMP:
		return gltf.WrapClampToEdge
	case gx.GX_MIRROR:
		return gltf.WrapMirroredRepeat
	}
	return gltf.WrapRepeat
}

func (t *Texture) ExportGLTF(key string, gltfCacher *gltfutils.GLTFCacher) (*GLTFTextureExported, error) {
	gte := &GLTFTextureExported{}
	doc := gltfCacher.Doc

	sampler := &gltf.Sampler{
		Name:      t.Name + "_sampler",
		MinFilter: gltf.MinLinear,
		MagFilter: gltf.MagLinear,
		WrapS:     gltfWrap(t.WrapS),
		WrapT:     gltfWrap(t.WrapT),
	}
	if t.MinFilter == gx.GX_NEAR {
		sampler.MinFilter = gltf.MinNearest
	}
	if t.MagFilter == gx.GX_NEAR {
		sampler.MagFilter = gltf.MagNearest
	}
	gte.SamplerIndex = uint32(len(doc.Samplers))
	doc.Samplers = append(doc.Samplers, sampler)

	pngBytes, err := EncodePNG(t)
	if err != nil {
		return nil, err
	}
	gte.ImageIndex, err = modeler.WriteImage(doc, t.Name+"_image", "image/png", bytes.NewReader(pngBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to write gltf image")
	}

	gte.TextureIndex = uint32(len(doc.Textures))
	doc.Textures = append(doc.Textures, &gltf.Texture{
		Name:    t.Name,
		Sampler: gltf.Index(gte.SamplerIndex),
		Source:  gltf.Index(gte.ImageIndex),
	})

	gltfCacher.AddCache(key, gte)
	return gte, nil
}

func (m *Model) exportGLTFMaterial(mat *Material, gltfCacher *gltfutils.GLTFCacher) (uint32, error) {
	color := new([4]float32)
	*color = [4]float32(mat.MatColors[0])

	gm := &gltf.Material{
		Name:        mat.Name,
		DoubleSided: mat.GX.CullMode == gx.GX_CULL_NONE,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: color,
			MetallicFactor:  gltf.Float(0),
		},
	}
	if mat.IsTranslucent() {
		gm.AlphaMode = gltf.AlphaBlend
	} else if at := mat.GX.AlphaTest; at.CompareA != gx.GX_ALWAYS {
		gm.AlphaMode = gltf.AlphaMask
		gm.AlphaCutoff = gltf.Float(at.ReferenceA)
	}

	for _, ti := range mat.Textures {
		t := m.Texture(ti)
		if t == nil || t.IsFramebufferCopy() {
			continue
		}
		key := fmt.Sprintf("%s/tex%d", m.Name, ti)
		var gte *GLTFTextureExported
		if cached := gltfCacher.GetCached(key); cached != nil {
			gte = cached.(*GLTFTextureExported)
		} else {
			var err error
			if gte, err = t.ExportGLTF(key, gltfCacher); err != nil {
				return 0, errors.Wrapf(err, "Material %q", mat.Name)
			}
		}
		gm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: gte.TextureIndex}
		break
	}

	idx := uint32(len(gltfCacher.Doc.Materials))
	gltfCacher.Doc.Materials = append(gltfCacher.Doc.Materials, gm)
	return idx, nil
}

// ExportGLTF writes every shape in bind pose world space, one mesh per shape
func (m *Model) ExportGLTF(gltfCacher *gltfutils.GLTFCacher) (*GLTFModelExported, error) {
	doc := gltfCacher.Doc
	gme := &GLTFModelExported{Materials: make(map[int]uint32)}
	draw := m.DrawMatrices(m.BindPose())

	for iShape := range m.Shp1.Shapes {
		g, err := m.ShapeGeometry(iShape)
		if err != nil {
			return nil, err
		}

		var matIdx *uint32
		if mat := m.ShapeMaterial(iShape); mat != nil {
			idx, ok := gme.Materials[mat.Index]
			if !ok {
				if idx, err = m.exportGLTFMaterial(mat, gltfCacher); err != nil {
					return nil, err
				}
				gme.Materials[mat.Index] = idx
			}
			matIdx = gltf.Index(idx)
		}

		mesh := &gltf.Mesh{Name: fmt.Sprintf("%s_shape%d", m.Name, iShape)}
		for _, batch := range g.Batches {
			if len(batch.Indices) == 0 {
				continue
			}
			vertices := batch.Transform(draw)

			positions := make([][3]float32, len(vertices))
			normals := make([][3]float32, len(vertices))
			colors := make([][4]uint8, len(vertices))
			uvs := make([][][2]float32, g.TexCount)
			for i := range uvs {
				uvs[i] = make([][2]float32, len(vertices))
			}
			for iv, v := range vertices {
				positions[iv] = v.Position
				normals[iv] = v.Normal
				c := v.Color[0].NRGBA()
				colors[iv] = [4]uint8{c.R, c.G, c.B, c.A}
				for it := range uvs {
					uvs[it][iv] = v.Tex[it]
				}
			}

			attributes := map[string]uint32{
				"POSITION": modeler.WritePosition(doc, positions),
			}
			if g.HasNormal {
				attributes["NORMAL"] = modeler.WriteNormal(doc, normals)
			}
			if g.HasColor[0] {
				attributes["COLOR_0"] = modeler.WriteColor(doc, colors)
			}
			for it := range uvs {
				attributes[fmt.Sprintf("TEXCOORD_%d", it)] = modeler.WriteTextureCoord(doc, uvs[it])
			}

			mesh.Primitives = append(mesh.Primitives, &gltf.Primitive{
				Indices:    gltf.Index(modeler.WriteIndices(doc, batch.Indices)),
				Attributes: attributes,
				Material:   matIdx,
			})
		}
		if len(mesh.Primitives) == 0 {
			continue
		}
		doc.Meshes = append(doc.Meshes, mesh)
		gme.Meshes = append(gme.Meshes, uint32(len(doc.Meshes)-1))
	}
	return gme, nil
}

func (m *Model) ExportGLTFDefault() (*gltf.Document, error) {
	gltfCacher := gltfutils.NewCacher()

	gme, err := m.ExportGLTF(gltfCacher)
	if err != nil {
		return nil, err
	}

	children := make([]uint32, 0, len(gme.Meshes))
	for _, mi := range gme.Meshes {
		children = append(children, gltfCacher.AddNode(&gltf.Node{
			Name: gltfCacher.Doc.Meshes[mi].Name,
			Mesh: gltf.Index(mi),
		}))
	}
	gltfCacher.AddRootNode(&gltf.Node{Name: m.Name, Children: children})
	return gltfCacher.Doc, nil
}
