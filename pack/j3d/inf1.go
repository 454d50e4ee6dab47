package j3d

import (
	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/utils"
)

const (
	HIERARCHY_END      = 0x00
	HIERARCHY_OPEN     = 0x01
	HIERARCHY_CLOSE    = 0x02
	HIERARCHY_JOINT    = 0x10
	HIERARCHY_MATERIAL = 0x11
	HIERARCHY_SHAPE    = 0x12
)

var HierarchyTypeNames = map[uint16]string{
	HIERARCHY_JOINT:    "joint",
	HIERARCHY_MATERIAL: "material",
	HIERARCHY_SHAPE:    "shape",
}

type SceneNode struct {
	Type     uint16
	Index    int
	Children []*SceneNode `json:",omitempty"`
}

type Inf1 struct {
	LoadFlags   uint16
	PacketCount uint32
	VertexCount uint32
	Root        *SceneNode

	// derived from hierarchy
	JointParents   []int
	ShapeMaterials map[int]int
	ShapeJoints    map[int]int
	ShapeOrder     []int
}

func parseInf1(bs *utils.BufStack) (*Inf1, error) {
	inf := &Inf1{
		LoadFlags:      bs.U16(0x08),
		PacketCount:    bs.U32(0x0C),
		VertexCount:    bs.U32(0x10),
		Root:           &SceneNode{Index: -1},
		ShapeMaterials: make(map[int]int),
		ShapeJoints:    make(map[int]int),
	}

	stack := []*SceneNode{inf.Root}
	last := inf.Root
	off := int(bs.U32(0x14))
	for {
		typ := bs.U16(off)
		value := bs.U16(off + 2)
		off += 4
		if err := bs.Err(); err != nil {
			return nil, errors.Wrapf(err, "Hierarchy")
		}

		switch typ {
		case HIERARCHY_END:
			if len(stack) != 1 {
				return nil, errors.Errorf("Hierarchy ends with %d unclosed nodes", len(stack)-1)
			}
			return inf, nil
		case HIERARCHY_OPEN:
			stack = append(stack, last)
		case HIERARCHY_CLOSE:
			if len(stack) <= 1 {
				return nil, errors.Errorf("Hierarchy close without open at 0x%x", off-4)
			}
			stack = stack[:len(stack)-1]
		case HIERARCHY_JOINT, HIERARCHY_MATERIAL, HIERARCHY_SHAPE:
			node := &SceneNode{Type: typ, Index: int(value)}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)
			last = node
		default:
			return nil, errors.Errorf("Unknown hierarchy node type 0x%x at 0x%x", typ, off-4)
		}
	}
}

// resolve derives joint parents and material/joint of every shape
func (inf *Inf1) resolve(jointCount int) {
	inf.JointParents = make([]int, jointCount)
	for i := range inf.JointParents {
		inf.JointParents[i] = -1
	}
	var walk func(n *SceneNode, joint, material int)
	walk = func(n *SceneNode, joint, material int) {
		switch n.Type {
		case HIERARCHY_JOINT:
			if n.Index < jointCount {
				inf.JointParents[n.Index] = joint
			}
			joint = n.Index
		case HIERARCHY_MATERIAL:
			material = n.Index
		case HIERARCHY_SHAPE:
			inf.ShapeMaterials[n.Index] = material
			inf.ShapeJoints[n.Index] = joint
			inf.ShapeOrder = append(inf.ShapeOrder, n.Index)
		}
		for _, c := range n.Children {
			walk(c, joint, material)
		}
	}
	for _, c := range inf.Root.Children {
		walk(c, -1, -1)
	}
}
