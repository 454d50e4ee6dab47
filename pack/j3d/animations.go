package j3d

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/utils"
)

const (
	BCK_JOINT_ENTRY_SIZE  = 54
	BTK_ENTRY_SIZE        = 54
	BRK_ENTRY_SIZE        = 28
	BPK_ENTRY_SIZE        = 24
	TRACK_DESCRIPTOR_SIZE = 6
)

func angleScale(exp uint8) float32 {
	return float32(math.Ldexp(1, int(exp))) * math.Pi / 0x8000
}

type JointTrack struct {
	Scale       [3]Track
	Rotation    [3]Track
	Translation [3]Track
}

func (jt *JointTrack) Matrix(frame float32) mgl32.Mat4 {
	var s, r, t mgl32.Vec3
	for a := 0; a < 3; a++ {
		s[a] = jt.Scale[a].Sample(frame)
		r[a] = jt.Rotation[a].Sample(frame)
		t[a] = jt.Translation[a].Sample(frame)
	}
	return utils.SRTMatrix(s, r, t)
}

// BCK is joint animation (ANK1)
type BCK struct {
	AnimationInfo
	Name   string
	Joints []JointTrack
}

func parseBCK(name string, bs *utils.BufStack) (*BCK, error) {
	b := &BCK{
		Name:          name,
		AnimationInfo: AnimationInfo{LoopMode: bs.U8(0x08), Duration: bs.U16(0x0A)},
	}
	rotScale := angleScale(bs.U8(0x09))
	jointCount := int(bs.U16(0x0C))
	jointsOff := int(bs.U32(0x14))
	scales := f32Table(bs, int(bs.U32(0x18)), 1)
	rotOff := int(bs.U32(0x1C))
	trans := f32Table(bs, int(bs.U32(0x20)), 1)

	b.Joints = make([]JointTrack, jointCount)
	for i := range b.Joints {
		for a := 0; a < 3; a++ {
			o := jointsOff + i*BCK_JOINT_ENTRY_SIZE + a*3*TRACK_DESCRIPTOR_SIZE
			b.Joints[i].Scale[a] = readTrack(bs, o, scales)
			b.Joints[i].Rotation[a] = readTrackS16(bs, o+TRACK_DESCRIPTOR_SIZE, rotOff, rotScale)
			b.Joints[i].Translation[a] = readTrack(bs, o+2*TRACK_DESCRIPTOR_SIZE, trans)
		}
	}
	return b, checkAnimation(bs, "ANK1")
}

// LocalMatrices samples joint locals at frame, joints not covered
// by animation keep model bind pose
func (b *BCK) LocalMatrices(m *Model, frame float32) []mgl32.Mat4 {
	local := m.LocalMatrices()
	f := b.Frame(frame)
	for i := range local {
		if i < len(b.Joints) {
			local[i] = b.Joints[i].Matrix(f)
		}
	}
	return local
}

type TexMtxAnim struct {
	MaterialName string
	TexMtxIndex  int
	Center       mgl32.Vec3
	Scale        [3]Track
	Rotation     [3]Track
	Translation  [3]Track
}

func (a *TexMtxAnim) SRT(frame float32) TexSRT {
	return TexSRT{
		Scale:       mgl32.Vec2{a.Scale[0].Sample(frame), a.Scale[1].Sample(frame)},
		Rotation:    a.Rotation[2].Sample(frame),
		Translation: mgl32.Vec2{a.Translation[0].Sample(frame), a.Translation[1].Sample(frame)},
	}
}

// BTK is texture matrix animation (TTK1)
type BTK struct {
	AnimationInfo
	Name      string
	Materials []TexMtxAnim
}

func parseBTK(name string, bs *utils.BufStack) (*BTK, error) {
	b := &BTK{
		Name:          name,
		AnimationInfo: AnimationInfo{LoopMode: bs.U8(0x08), Duration: bs.U16(0x0A)},
	}
	rotScale := angleScale(bs.U8(0x09))
	count := int(bs.U16(0x0C)) / 3
	animOff := int(bs.U32(0x14))
	names := ReadNameTable(bs, int(bs.U32(0x1C)))
	texMtxOff := int(bs.U32(0x20))
	centerOff := int(bs.U32(0x24))
	scales := f32Table(bs, int(bs.U32(0x28)), 1)
	rotOff := int(bs.U32(0x2C))
	trans := f32Table(bs, int(bs.U32(0x30)), 1)

	b.Materials = make([]TexMtxAnim, count)
	for i := range b.Materials {
		a := &b.Materials[i]
		a.MaterialName = nameOr(names, i, "")
		a.TexMtxIndex = int(bs.U8(texMtxOff + i))
		a.Center = mgl32.Vec3{bs.F32(centerOff + i*12), bs.F32(centerOff + i*12 + 4), bs.F32(centerOff + i*12 + 8)}
		for axis := 0; axis < 3; axis++ {
			o := animOff + i*BTK_ENTRY_SIZE + axis*3*TRACK_DESCRIPTOR_SIZE
			a.Scale[axis] = readTrack(bs, o, scales)
			a.Rotation[axis] = readTrackS16(bs, o+TRACK_DESCRIPTOR_SIZE, rotOff, rotScale)
			a.Translation[axis] = readTrack(bs, o+2*TRACK_DESCRIPTOR_SIZE, trans)
		}
	}
	return b, checkAnimation(bs, "TTK1")
}

// Find returns animation of material texture matrix
func (b *BTK) Find(material string, texMtx int) *TexMtxAnim {
	for i := range b.Materials {
		if b.Materials[i].MaterialName == material && b.Materials[i].TexMtxIndex == texMtx {
			return &b.Materials[i]
		}
	}
	return nil
}

type ColorAnim struct {
	MaterialName string
	ColorId      int
	Tracks       [4]Track
}

func (c *ColorAnim) Color(frame float32) utils.ColorFloat {
	return utils.ColorFloat{
		c.Tracks[0].Sample(frame), c.Tracks[1].Sample(frame),
		c.Tracks[2].Sample(frame), c.Tracks[3].Sample(frame),
	}
}

func readColorAnims(bs *utils.BufStack, count, tableOff, entrySize int, names []string, channelOffs [4]int) []ColorAnim {
	anims := make([]ColorAnim, count)
	for i := range anims {
		o := tableOff + i*entrySize
		a := &anims[i]
		a.MaterialName = nameOr(names, i, "")
		for c := 0; c < 4; c++ {
			a.Tracks[c] = readTrackS16(bs, o+c*TRACK_DESCRIPTOR_SIZE, channelOffs[c], 1.0/255)
		}
		if entrySize > 4*TRACK_DESCRIPTOR_SIZE {
			a.ColorId = int(bs.U8(o + 4*TRACK_DESCRIPTOR_SIZE))
		}
	}
	return anims
}

func findColorAnim(anims []ColorAnim, material string, id int) *ColorAnim {
	for i := range anims {
		if anims[i].MaterialName == material && anims[i].ColorId == id {
			return &anims[i]
		}
	}
	return nil
}

// BRK is TEV register and konst color animation (TRK1)
type BRK struct {
	AnimationInfo
	Name      string
	Registers []ColorAnim
	Konst     []ColorAnim
}

func parseBRK(name string, bs *utils.BufStack) (*BRK, error) {
	b := &BRK{
		Name:          name,
		AnimationInfo: AnimationInfo{LoopMode: bs.U8(0x08), Duration: bs.U16(0x0A)},
	}
	regCount := int(bs.U16(0x0C))
	konstCount := int(bs.U16(0x0E))
	var regOffs, konstOffs [4]int
	for c := 0; c < 4; c++ {
		regOffs[c] = int(bs.U32(0x38 + c*4))
		konstOffs[c] = int(bs.U32(0x48 + c*4))
	}
	b.Registers = readColorAnims(bs, regCount, int(bs.U32(0x20)), BRK_ENTRY_SIZE,
		ReadNameTable(bs, int(bs.U32(0x30))), regOffs)
	b.Konst = readColorAnims(bs, konstCount, int(bs.U32(0x24)), BRK_ENTRY_SIZE,
		ReadNameTable(bs, int(bs.U32(0x34))), konstOffs)
	return b, checkAnimation(bs, "TRK1")
}

func (b *BRK) FindRegister(material string, id int) *ColorAnim {
	return findColorAnim(b.Registers, material, id)
}

func (b *BRK) FindKonst(material string, id int) *ColorAnim {
	return findColorAnim(b.Konst, material, id)
}

// BPK is material color animation (PAK1)
type BPK struct {
	AnimationInfo
	Name      string
	Materials []ColorAnim
}

func parseBPK(name string, bs *utils.BufStack) (*BPK, error) {
	b := &BPK{
		Name:          name,
		AnimationInfo: AnimationInfo{LoopMode: bs.U8(0x08), Duration: bs.U16(0x0A)},
	}
	var offs [4]int
	for c := 0; c < 4; c++ {
		offs[c] = int(bs.U32(0x24 + c*4))
	}
	b.Materials = readColorAnims(bs, int(bs.U16(0x0C)), int(bs.U32(0x18)), BPK_ENTRY_SIZE,
		ReadNameTable(bs, int(bs.U32(0x20))), offs)
	return b, checkAnimation(bs, "PAK1")
}

func (b *BPK) Find(material string) *ColorAnim {
	return findColorAnim(b.Materials, material, 0)
}

// NewAnimationFromData parses bck, btk, brk or bpk file
func NewAnimationFromData(name string, b []byte) (interface{}, error) {
	c, err := ParseContainer(name, b)
	if err != nil {
		return nil, err
	}
	chunkFor := map[string]string{TYPE_BCK: "ANK1", TYPE_BTK: "TTK1", TYPE_BRK: "TRK1", TYPE_BPK: "PAK1"}
	fourcc, ok := chunkFor[c.Type]
	if !ok {
		return nil, errors.Errorf("%q is not an animation (%s%s)", name, c.Magic, c.Type)
	}
	ch := c.Chunk(fourcc)
	if ch == nil {
		return nil, errors.Errorf("%q has no %s chunk", name, fourcc)
	}
	switch c.Type {
	case TYPE_BCK:
		return parseBCK(name, ch.Buf)
	case TYPE_BTK:
		return parseBTK(name, ch.Buf)
	case TYPE_BRK:
		return parseBRK(name, ch.Buf)
	default:
		return parseBPK(name, ch.Buf)
	}
}
