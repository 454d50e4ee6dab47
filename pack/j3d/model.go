package j3d

import (
	"log"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/gx"
	"github.com/mogaika/retro_model_browser/utils"
)

type Model struct {
	Name string
	Type string
	Raw  []byte `json:"-"`

	Inf1 *Inf1
	Vtx1 *Vtx1
	Evp1 *Evp1
	Drw1 *Drw1
	Jnt1 *Jnt1
	Shp1 *Shp1
	Mat3 *Mat3
	Tex1 *Tex1
}

func NewModelFromData(name string, b []byte) (*Model, error) {
	c, err := ParseContainer(name, b)
	if err != nil {
		return nil, err
	}
	if c.Magic != MAGIC_J3D2 || (c.Type != TYPE_BMD && c.Type != TYPE_BDL) {
		return nil, errors.Errorf("%q is not a model (%s%s)", name, c.Magic, c.Type)
	}

	m := &Model{Name: name, Type: c.Type, Raw: b}
	for _, ch := range c.Chunks {
		var err error
		switch ch.FourCC {
		case "INF1":
			m.Inf1, err = parseInf1(ch.Buf)
		case "VTX1":
			m.Vtx1, err = parseVtx1(ch.Buf, ch.Size)
		case "EVP1":
			m.Evp1, err = parseEvp1(ch.Buf)
		case "DRW1":
			m.Drw1, err = parseDrw1(ch.Buf)
		case "JNT1":
			m.Jnt1, err = parseJnt1(ch.Buf)
		case "SHP1":
			if m.Vtx1 == nil {
				return nil, errors.New("SHP1 before VTX1")
			}
			m.Shp1, err = parseShp1(ch.Buf, m.Vtx1)
		case "MAT3":
			m.Mat3, err = parseMat3(ch.Buf)
		case "TEX1":
			m.Tex1, err = parseTex1(ch.Buf)
		case "MDL3":
			// prebaked display lists for game runtime, everything is in MAT3
		default:
			log.Printf("[j3d] %q: unknown chunk %q at 0x%x", name, ch.FourCC, ch.Offset)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "%s", ch.FourCC)
		}
	}

	for _, need := range []struct {
		name string
		ok   bool
	}{
		{"INF1", m.Inf1 != nil}, {"VTX1", m.Vtx1 != nil}, {"JNT1", m.Jnt1 != nil},
		{"SHP1", m.Shp1 != nil}, {"MAT3", m.Mat3 != nil}, {"DRW1", m.Drw1 != nil},
	} {
		if !need.ok {
			return nil, errors.Errorf("Missing %s section", need.name)
		}
	}
	if m.Tex1 == nil {
		m.Tex1 = &Tex1{}
	}

	m.Inf1.resolve(len(m.Jnt1.Joints))
	m.bindFramebufferTextures()
	return m, nil
}

func (m *Model) bindFramebufferTextures() {
	for _, mat := range m.Mat3.Materials {
		for i, ti := range mat.Textures {
			if ti >= 0 && ti < len(m.Tex1.Textures) && m.Tex1.Textures[ti].IsFramebufferCopy() {
				mat.GX.FramebufferTexMap = i
			}
		}
	}
}

func (m *Model) ShapeMaterial(shape int) *Material {
	mi, ok := m.Inf1.ShapeMaterials[shape]
	if !ok || mi < 0 || mi >= len(m.Mat3.Materials) {
		return nil
	}
	return m.Mat3.Materials[mi]
}

func (m *Model) Texture(index int) *Texture {
	if index < 0 || index >= len(m.Tex1.Textures) {
		return nil
	}
	return m.Tex1.Textures[index]
}

// LocalMatrices returns bind pose local joint matrices
func (m *Model) LocalMatrices() []mgl32.Mat4 {
	local := make([]mgl32.Mat4, len(m.Jnt1.Joints))
	for i := range m.Jnt1.Joints {
		local[i] = m.Jnt1.Joints[i].LocalMatrix()
	}
	return local
}

// JointWorldMatrices concatenates local matrices along hierarchy
func (m *Model) JointWorldMatrices(local []mgl32.Mat4) []mgl32.Mat4 {
	world := make([]mgl32.Mat4, len(local))
	done := make([]bool, len(local))
	var calc func(i int, depth int) mgl32.Mat4
	calc = func(i int, depth int) mgl32.Mat4 {
		if done[i] {
			return world[i]
		}
		world[i] = local[i]
		if p := m.Inf1.JointParents[i]; p >= 0 && p < len(local) && p != i && depth < len(local) {
			world[i] = calc(p, depth+1).Mul4(local[i])
		}
		done[i] = true
		return world[i]
	}
	for i := range local {
		calc(i, 0)
	}
	return world
}

func (m *Model) BindPose() []mgl32.Mat4 {
	return m.JointWorldMatrices(m.LocalMatrices())
}

// DrawMatrices resolves DRW1 entries: joints directly,
// envelopes as weighted sum of joint * inverse bind
func (m *Model) DrawMatrices(jointWorld []mgl32.Mat4) []mgl32.Mat4 {
	result := make([]mgl32.Mat4, len(m.Drw1.Matrices))
	for i, dm := range m.Drw1.Matrices {
		if !dm.Weighted {
			if dm.Index < len(jointWorld) {
				result[i] = jointWorld[dm.Index]
			} else {
				result[i] = mgl32.Ident4()
			}
			continue
		}
		if m.Evp1 == nil || dm.Index >= len(m.Evp1.Envelopes) {
			result[i] = mgl32.Ident4()
			continue
		}
		var sum mgl32.Mat4
		env := &m.Evp1.Envelopes[dm.Index]
		for j, joint := range env.Joints {
			if joint >= len(jointWorld) {
				continue
			}
			jm := jointWorld[joint].Mul4(m.Evp1.InverseBind(joint))
			sum = sum.Add(jm.Mul(env.Weights[j]))
		}
		result[i] = sum
	}
	return result
}

// BBox of bind pose shapes in model space
func (m *Model) BBox() utils.AABB {
	box := utils.EmptyAABB()
	world := m.BindPose()
	for i := range m.Jnt1.Joints {
		j := &m.Jnt1.Joints[i]
		if j.BBox.Min != j.BBox.Max {
			box.Union(j.BBox.Transform(world[i]))
		}
	}
	if box.IsEmpty() {
		for i := range m.Shp1.Shapes {
			box.Union(m.Shp1.Shapes[i].BBox)
		}
	}
	if box.IsEmpty() {
		box = utils.AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	}
	return box
}

// Vertex is decoded shape vertex in its draw matrix space
type Vertex struct {
	Position   mgl32.Vec3
	Normal     mgl32.Vec3
	Color      [2]utils.ColorFloat
	Tex        [8]mgl32.Vec2
	DrawMatrix int
}

type Batch struct {
	Vertices []Vertex
	Indices  []uint32
}

type ShapeGeometry struct {
	Shape     int
	Material  int
	Batches   []Batch
	HasNormal bool
	HasColor  [2]bool
	TexCount  int
}

func (m *Model) readAttribute(a *gx.VertexAttributeFormat, dl []byte, idx int32) ([]float32, utils.ColorFloat, error) {
	isColor := a.Attrib == gx.GX_VA_CLR0 || a.Attrib == gx.GX_VA_CLR1
	if a.IndexType == gx.GX_DIRECT {
		end := int(idx) + a.DirectSize()
		if end > len(dl) {
			return nil, utils.ColorFloat{}, errors.Errorf("Direct %s out of display list", gx.VertexAttributeNames[a.Attrib])
		}
		if isColor {
			return nil, utils.ColorFloat(gx.ReadColor(dl[idx:end], a.CompType)), nil
		}
		return a.ReadComponents(dl[idx:end]), utils.ColorFloat{}, nil
	}
	arr, ok := m.Vtx1.Arrays[a.Attrib]
	if !ok {
		return nil, utils.ColorFloat{}, errors.Errorf("Missing vertex array %s", gx.VertexAttributeNames[a.Attrib])
	}
	if isColor {
		c, err := arr.Color(int(idx))
		return nil, c, err
	}
	comps, err := arr.Components(int(idx))
	return comps, utils.ColorFloat{}, err
}

// ShapeGeometry decodes display lists of shape into triangle batches
func (m *Model) ShapeGeometry(shapeIdx int) (*ShapeGeometry, error) {
	if shapeIdx < 0 || shapeIdx >= len(m.Shp1.Shapes) {
		return nil, errors.Errorf("Shape %d out of range", shapeIdx)
	}
	shape := &m.Shp1.Shapes[shapeIdx]
	g := &ShapeGeometry{Shape: shapeIdx, Material: -1}
	if mi, ok := m.Inf1.ShapeMaterials[shapeIdx]; ok {
		g.Material = mi
	}
	for _, a := range shape.Attributes {
		switch {
		case a.Attrib == gx.GX_VA_NRM || a.Attrib == gx.GX_VA_NBT:
			g.HasNormal = true
		case a.Attrib == gx.GX_VA_CLR0:
			g.HasColor[0] = true
		case a.Attrib == gx.GX_VA_CLR1:
			g.HasColor[1] = true
		case a.Attrib >= gx.GX_VA_TEX0 && a.Attrib <= gx.GX_VA_TEX7:
			if n := a.Attrib - gx.GX_VA_TEX0 + 1; n > g.TexCount {
				g.TexCount = n
			}
		}
	}

	var slots [10]int
	for pi := range shape.Packets {
		packet := &shape.Packets[pi]
		for i, v := range packet.MatrixTable {
			if i < len(slots) && v != NONE16 {
				slots[i] = int(v)
			}
		}

		dl, err := gx.DecodeDisplayList(packet.DisplayList, shape.Attributes)
		if err != nil {
			return nil, errors.Wrapf(err, "Shape %d packet %d", shapeIdx, pi)
		}

		batch := Batch{Vertices: make([]Vertex, len(dl.Vertices)), Indices: dl.Indices}
		for vi := range dl.Vertices {
			dv := &dl.Vertices[vi]
			v := &batch.Vertices[vi]
			v.Color = [2]utils.ColorFloat{{1, 1, 1, 1}, {1, 1, 1, 1}}

			slot := 0
			if pn := dv.Index[gx.GX_VA_PNMTXIDX]; pn >= 0 {
				slot = int(pn) / 3
			}
			if slot < len(slots) {
				v.DrawMatrix = slots[slot]
			}

			for ai := range shape.Attributes {
				a := &shape.Attributes[ai]
				if a.Attrib <= gx.GX_VA_TEX7MTXIDX {
					continue
				}
				comps, clr, err := m.readAttribute(a, packet.DisplayList, dv.Index[a.Attrib])
				if err != nil {
					return nil, errors.Wrapf(err, "Shape %d packet %d vertex %d", shapeIdx, pi, vi)
				}
				switch {
				case a.Attrib == gx.GX_VA_POS:
					v.Position = vec3(comps)
				case a.Attrib == gx.GX_VA_NRM || a.Attrib == gx.GX_VA_NBT:
					v.Normal = vec3(comps)
				case a.Attrib == gx.GX_VA_CLR0:
					v.Color[0] = clr
				case a.Attrib == gx.GX_VA_CLR1:
					v.Color[1] = clr
				case a.Attrib >= gx.GX_VA_TEX0 && a.Attrib <= gx.GX_VA_TEX7:
					v.Tex[a.Attrib-gx.GX_VA_TEX0] = vec2(comps)
				}
			}
		}
		g.Batches = append(g.Batches, batch)
	}
	return g, nil
}

// Transform returns vertices moved by their draw matrices
func (b *Batch) Transform(draw []mgl32.Mat4) []Vertex {
	out := make([]Vertex, len(b.Vertices))
	for i, v := range b.Vertices {
		out[i] = v
		if v.DrawMatrix < len(draw) {
			mtx := draw[v.DrawMatrix]
			out[i].Position = utils.TransformPoint(mtx, v.Position)
			n := utils.TransformDir(mtx, v.Normal)
			if n.Len() > 0 {
				n = n.Normalize()
			}
			out[i].Normal = n
		}
	}
	return out
}

type Statistics struct {
	Joints    int
	Materials int
	Shapes    int
	Packets   int
	Textures  int
	Vertices  uint32
}

func (m *Model) Statistics() Statistics {
	st := Statistics{
		Joints:    len(m.Jnt1.Joints),
		Materials: len(m.Mat3.Materials),
		Shapes:    len(m.Shp1.Shapes),
		Textures:  len(m.Tex1.Textures),
		Vertices:  m.Inf1.VertexCount,
	}
	for i := range m.Shp1.Shapes {
		st.Packets += len(m.Shp1.Shapes[i].Packets)
	}
	return st
}
