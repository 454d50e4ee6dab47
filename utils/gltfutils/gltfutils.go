package gltfutils

import (
	"io"

	"github.com/qmuntal/gltf"
)

// GLTFCacher keeps one exported object per source key,
// so shared textures and materials end in document once
type GLTFCacher struct {
	Doc   *gltf.Document
	cache map[string]interface{}
}

func NewCacher() *GLTFCacher {
	return &GLTFCacher{
		Doc:   gltf.NewDocument(),
		cache: make(map[string]interface{}),
	}
}

func (gc *GLTFCacher) AddCache(key string, v interface{}) {
	gc.cache[key] = v
}

func (gc *GLTFCacher) GetCached(key string) interface{} {
	return gc.cache[key]
}

func (gc *GLTFCacher) GetCachedOr(key string, create func() interface{}) interface{} {
	if v, ok := gc.cache[key]; ok {
		return v
	}
	v := create()
	gc.cache[key] = v
	return v
}

// AddRootNode appends node and references it from default scene
func (gc *GLTFCacher) AddRootNode(node *gltf.Node) uint32 {
	idx := gc.AddNode(node)
	gc.Doc.Scenes[0].Nodes = append(gc.Doc.Scenes[0].Nodes, idx)
	return idx
}

func (gc *GLTFCacher) AddNode(node *gltf.Node) uint32 {
	gc.Doc.Nodes = append(gc.Doc.Nodes, node)
	return uint32(len(gc.Doc.Nodes) - 1)
}

func ExportBinary(w io.Writer, doc *gltf.Document) error {
	if len(doc.Scenes) == 0 {
		doc.Scenes = append(doc.Scenes, &gltf.Scene{Name: "Root Scene"})
	}
	if len(doc.Scenes[0].Nodes) == 0 {
		// nothing explicitly placed, show every root node
		child := make(map[uint32]bool)
		for _, n := range doc.Nodes {
			for _, c := range n.Children {
				child[c] = true
			}
		}
		for iNode := range doc.Nodes {
			if !child[uint32(iNode)] {
				doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(iNode))
			}
		}
	}

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}
