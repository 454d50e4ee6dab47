package f3dex

import (
	"bytes"
	"fmt"
	"hash/fnv"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/retro_model_browser/utils"
	"github.com/mogaika/retro_model_browser/utils/gltfutils"
)

func gltfWrap(cm int) gltf.WrappingMode {
	switch {
	case cm&G_TX_CLAMP != 0:
		return gltf.WrapClampToEdge
	case cm&G_TX_MIRROR != 0:
		return gltf.WrapMirroredRepeat
	}
	return gltf.WrapRepeat
}

func (g *Geo) exportGLTFTexture(index int, tile *Tile, filter int, gltfCacher *gltfutils.GLTFCacher) (uint32, error) {
	key := fmt.Sprintf("%s/tex%d/%d/%d/%d", g.Name, index, tile.CMS, tile.CMT, filter)
	if cached := gltfCacher.GetCached(key); cached != nil {
		return cached.(uint32), nil
	}
	doc := gltfCacher.Doc
	t := g.Texture(index)

	sampler := &gltf.Sampler{
		MinFilter: gltf.MinLinear,
		MagFilter: gltf.MagLinear,
		WrapS:     gltfWrap(tile.CMS),
		WrapT:     gltfWrap(tile.CMT),
	}
	if filter == G_TF_POINT {
		sampler.MinFilter = gltf.MinNearest
		sampler.MagFilter = gltf.MagNearest
	}
	doc.Samplers = append(doc.Samplers, sampler)

	imgKey := g.Name + "/img/" + t.Name()
	var imageIndex uint32
	if cached := gltfCacher.GetCached(imgKey); cached != nil {
		imageIndex = cached.(uint32)
	} else {
		data, err := t.EncodePNG()
		if err != nil {
			return 0, err
		}
		if imageIndex, err = modeler.WriteImage(doc, t.Name(), "image/png", bytes.NewReader(data)); err != nil {
			return 0, errors.Wrapf(err, "Failed to write gltf image")
		}
		gltfCacher.AddCache(imgKey, imageIndex)
	}

	doc.Textures = append(doc.Textures, &gltf.Texture{
		Name:    t.Name(),
		Sampler: gltf.Index(uint32(len(doc.Samplers) - 1)),
		Source:  gltf.Index(imageIndex),
	})
	ti := uint32(len(doc.Textures) - 1)
	gltfCacher.AddCache(key, ti)
	return ti, nil
}

func (g *Geo) exportGLTFMaterial(name string, dc *DrawCall, gltfCacher *gltfutils.GLTFCacher) (uint32, error) {
	gm := &gltf.Material{
		Name:        name,
		DoubleSided: dc.GeometryMode&G_CULL_BOTH == 0,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			MetallicFactor: gltf.Float(0),
		},
	}
	switch {
	case dc.IsTranslucent():
		gm.AlphaMode = gltf.AlphaBlend
	case dc.CvgAlpha() || dc.AlphaCompare() == G_AC_THRESHOLD:
		gm.AlphaMode = gltf.AlphaMask
		gm.AlphaCutoff = gltf.Float(0.5)
	}
	if dc.Textures[0] >= 0 {
		ti, err := g.exportGLTFTexture(dc.Textures[0], &dc.Tiles[0], dc.TextFilter(), gltfCacher)
		if err != nil {
			return 0, errors.Wrapf(err, "Material %q", name)
		}
		gm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: ti}
	}
	gltfCacher.Doc.Materials = append(gltfCacher.Doc.Materials, gm)
	return uint32(len(gltfCacher.Doc.Materials) - 1), nil
}

// ExportGLTF writes one mesh per draw call, display list matrices are already applied
func (g *Geo) ExportGLTF(gltfCacher *gltfutils.GLTFCacher) ([]uint32, error) {
	doc := gltfCacher.Doc
	h := fnv.New64a()
	h.Write([]byte(g.Name))
	names := utils.NewRandomNameGenerator(int64(h.Sum64()))

	var meshes []uint32
	for _, dc := range g.DrawCalls {
		if len(dc.Indices) == 0 {
			continue
		}
		name := names.RandomName()
		matIdx, err := g.exportGLTFMaterial(name, dc, gltfCacher)
		if err != nil {
			return nil, err
		}

		positions := make([][3]float32, len(dc.Vertices))
		normals := make([][3]float32, len(dc.Vertices))
		colors := make([][4]uint8, len(dc.Vertices))
		uvs := make([][2]float32, len(dc.Vertices))
		for i, v := range dc.Vertices {
			positions[i] = v.Position
			normals[i] = v.Normal
			c := v.Color.NRGBA()
			colors[i] = [4]uint8{c.R, c.G, c.B, c.A}
			uvs[i] = v.UV[0]
		}

		attributes := map[string]uint32{
			"POSITION": modeler.WritePosition(doc, positions),
			"COLOR_0":  modeler.WriteColor(doc, colors),
		}
		if dc.GeometryMode&G_LIGHTING != 0 {
			attributes["NORMAL"] = modeler.WriteNormal(doc, normals)
		}
		if dc.Textures[0] >= 0 {
			attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(doc, uvs)
		}

		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name: name,
			Primitives: []*gltf.Primitive{{
				Indices:    gltf.Index(modeler.WriteIndices(doc, dc.Indices)),
				Attributes: attributes,
				Material:   gltf.Index(matIdx),
			}},
		})
		meshes = append(meshes, uint32(len(doc.Meshes)-1))
	}
	return meshes, nil
}

func (g *Geo) ExportGLTFDefault() (*gltf.Document, error) {
	gltfCacher := gltfutils.NewCacher()

	meshes, err := g.ExportGLTF(gltfCacher)
	if err != nil {
		return nil, err
	}
	children := make([]uint32, 0, len(meshes))
	for _, mi := range meshes {
		children = append(children, gltfCacher.AddNode(&gltf.Node{
			Name: gltfCacher.Doc.Meshes[mi].Name,
			Mesh: gltf.Index(mi),
		}))
	}
	gltfCacher.AddRootNode(&gltf.Node{Name: g.Name, Children: children})
	return gltfCacher.Doc, nil
}
