package stage

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/utils"
)

const CHUNK_HEADER_SIZE = 0x0C

// entry sizes of typed chunks
const (
	ACTOR_SIZE        = 0x20
	SCALED_ACTOR_SIZE = 0x24
	MULT_SIZE         = 0x0C
	LIGHT_SIZE        = 0x1C
	PALE_SIZE         = 0x2C
	COLO_SIZE         = 0x0C
	ENVR_SIZE         = 0x08
	VIRT_SIZE         = 0x24
)

// NO_LAYER marks entries of base chunks, present in every layer
const NO_LAYER = -1

// layered chunks use fourcc prefix plus hex digit, ACT0..ACTb
var layerPrefixes = map[string]string{
	"ACT": "ACTR",
	"SCO": "SCOB",
	"TRE": "TRES",
}

// ChunkKind maps fourcc to base chunk tag and layer
func ChunkKind(tag string) (string, int) {
	if len(tag) != 4 {
		return tag, NO_LAYER
	}
	base, ok := layerPrefixes[tag[:3]]
	if !ok {
		return tag, NO_LAYER
	}
	switch c := tag[3]; {
	case c >= '0' && c <= '9':
		return base, int(c - '0')
	case c >= 'a' && c <= 'b':
		return base, int(c-'a') + 10
	}
	return tag, NO_LAYER
}

type Chunk struct {
	Tag    string
	Count  int
	Offset int
	// base tag and layer for layered chunks
	Kind  string
	Layer int
	// bytes up to next chunk, set for unknown chunks only
	Data []byte `json:"-"`
}

type RoomPlacement struct {
	Translation mgl32.Vec2 // x, z
	RotationY   int16
	Room        int
	WaveHeight  uint8
}

func (rp *RoomPlacement) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(rp.Translation[0], 0, rp.Translation[1]).Mul4(
		mgl32.HomogRotate3DY(utils.J3DAngle(rp.RotationY)))
}

type Light struct {
	Layer       int
	Position    mgl32.Vec3
	Radius      float32
	Color       utils.ColorFloat
	Fluctuation uint8
}

type RoomTable struct {
	Reverb  uint8
	Visible []int
}

// File is parsed dzs (stage) or dzr (room) scene description
type File struct {
	Name   string
	Chunks []Chunk

	Actors     []*Actor
	Rooms      []RoomPlacement
	Lights     []Light
	Palettes   []Palette
	Colors     []Colo
	Envs       []EnvR
	Skies      []Virt
	RoomTables []RoomTable
	Unknown    []*Chunk
}

var chunkSizes = map[string]int{
	"ACTR": ACTOR_SIZE,
	"TGOB": ACTOR_SIZE,
	"TRES": ACTOR_SIZE,
	"PLYR": ACTOR_SIZE,
	"SCOB": SCALED_ACTOR_SIZE,
	"TGSC": SCALED_ACTOR_SIZE,
	"DOOR": SCALED_ACTOR_SIZE,
	"TGDR": SCALED_ACTOR_SIZE,
	"MULT": MULT_SIZE,
	"LGHT": LIGHT_SIZE,
	"LGTV": LIGHT_SIZE,
	"Pale": PALE_SIZE,
	"Colo": COLO_SIZE,
	"EnvR": ENVR_SIZE,
	"Virt": VIRT_SIZE,
}

func NewFromData(name string, data []byte) (*File, error) {
	bs := utils.NewBufStack("stage", data).SetName(name)
	count := int(bs.U32(0))
	if err := bs.Err(); err != nil {
		return nil, err
	}
	if count < 0 || 4+count*CHUNK_HEADER_SIZE > len(data) {
		return nil, errors.Errorf("Chunk count %d out of file", count)
	}

	f := &File{Name: name}
	for i := 0; i < count; i++ {
		h := 4 + i*CHUNK_HEADER_SIZE
		c := Chunk{
			Tag:    bs.FourCC(h),
			Count:  int(bs.U32(h + 4)),
			Offset: int(bs.U32(h + 8)),
		}
		c.Kind, c.Layer = ChunkKind(c.Tag)
		f.Chunks = append(f.Chunks, c)
	}
	if err := bs.Err(); err != nil {
		return nil, errors.Wrapf(err, "Chunk headers")
	}

	for i := range f.Chunks {
		c := &f.Chunks[i]
		if err := f.parseChunk(bs, c); err != nil {
			return nil, errors.Wrapf(err, "Chunk %q", c.Tag)
		}
	}
	return f, nil
}

// chunkEnd finds start of following chunk, payload of unknown chunks has no size
func (f *File) chunkEnd(c *Chunk, fileSize int) int {
	offsets := make([]int, 0, len(f.Chunks))
	for _, o := range f.Chunks {
		offsets = append(offsets, o.Offset)
	}
	sort.Ints(offsets)
	for _, o := range offsets {
		if o > c.Offset {
			return o
		}
	}
	return fileSize
}

func (f *File) parseChunk(bs *utils.BufStack, c *Chunk) error {
	size, known := chunkSizes[c.Kind]
	if c.Kind == "RTBL" {
		size, known = 4, true
	}
	if !known {
		end := f.chunkEnd(c, bs.Size())
		if c.Offset > bs.Size() || end < c.Offset {
			return errors.Errorf("Offset 0x%x out of file", c.Offset)
		}
		c.Data = bs.Raw()[c.Offset:end]
		f.Unknown = append(f.Unknown, c)
		return nil
	}
	if c.Count < 0 || c.Offset+c.Count*size > bs.Size() {
		return errors.Errorf("%d entries at 0x%x out of file", c.Count, c.Offset)
	}

	for i := 0; i < c.Count; i++ {
		e := bs.SubBuf(c.Kind, c.Offset+i*size).SetSize(size)
		switch c.Kind {
		case "ACTR", "TGOB", "TRES", "PLYR", "SCOB", "TGSC", "DOOR", "TGDR":
			f.Actors = append(f.Actors, readActor(e, c.Kind, c.Layer))
		case "MULT":
			f.Rooms = append(f.Rooms, RoomPlacement{
				Translation: mgl32.Vec2{e.F32(0), e.F32(4)},
				RotationY:   e.S16(8),
				Room:        int(e.U8(0x0A)),
				WaveHeight:  e.U8(0x0B),
			})
		case "LGHT", "LGTV":
			f.Lights = append(f.Lights, Light{
				Layer:       c.Layer,
				Position:    mgl32.Vec3{e.F32(0), e.F32(4), e.F32(8)},
				Radius:      e.F32(0x0C),
				Color:       utils.NewColorFloatFromRGBA8(e.U8(0x10), e.U8(0x11), e.U8(0x12), 0xFF),
				Fluctuation: e.U8(0x13),
			})
		case "Pale":
			f.Palettes = append(f.Palettes, readPalette(e))
		case "Colo":
			var colo Colo
			for p := range colo.Palettes {
				colo.Palettes[p] = int(e.U8(p))
			}
			f.Colors = append(f.Colors, colo)
		case "EnvR":
			var env EnvR
			for w := range env.Colors {
				env.Colors[w] = int(e.U8(w))
			}
			f.Envs = append(f.Envs, env)
		case "Virt":
			f.Skies = append(f.Skies, readVirt(e))
		case "RTBL":
			rt, err := readRoomTable(bs, int(e.U32(0)))
			if err != nil {
				return errors.Wrapf(err, "Room table %d", i)
			}
			f.RoomTables = append(f.RoomTables, rt)
		}
		if err := e.Err(); err != nil {
			return errors.Wrapf(err, "Entry %d", i)
		}
	}
	return nil
}

func readRoomTable(bs *utils.BufStack, off int) (RoomTable, error) {
	h := bs.SubBuf("room table", off)
	count := int(h.U8(0))
	rt := RoomTable{Reverb: h.U8(1)}
	list := bs.SubBuf("room list", int(h.U32(4)))
	for i := 0; i < count; i++ {
		rt.Visible = append(rt.Visible, int(list.U8(i)&0x3F))
	}
	if err := h.Err(); err != nil {
		return rt, err
	}
	return rt, list.Err()
}

// LayerActors returns base actors plus actors of layer
func (f *File) LayerActors(layer int) []*Actor {
	var result []*Actor
	for _, a := range f.Actors {
		if a.Layer == NO_LAYER || a.Layer == layer {
			result = append(result, a)
		}
	}
	return result
}

// Chunk finds first chunk with tag
func (f *File) Chunk(tag string) *Chunk {
	for i := range f.Chunks {
		if f.Chunks[i].Tag == tag {
			return &f.Chunks[i]
		}
	}
	return nil
}
