package f3dex

import (
	"encoding/binary"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/utils"
)

const MAGIC_GEO = 0x0000000B

// segments bound by geometry container
const (
	SEGMENT_VERTEX       = 0x01
	SEGMENT_TEXTURE      = 0x02
	SEGMENT_DISPLAY_LIST = 0x09
)

const (
	HEADER_SIZE         = 0x38
	TEXTURE_HEADER_SIZE = 0x10
	VERTEX_SIZE         = 0x10
)

// texture types of geometry texture table
const (
	GEO_TEXTURE_CI4    = 0x01
	GEO_TEXTURE_CI8    = 0x02
	GEO_TEXTURE_RGBA16 = 0x04
	GEO_TEXTURE_RGBA32 = 0x08
	GEO_TEXTURE_IA8    = 0x10
)

var GeoTextureFormats = map[uint16][2]int{
	GEO_TEXTURE_CI4:    {G_IM_FMT_CI, G_IM_SIZ_4b},
	GEO_TEXTURE_CI8:    {G_IM_FMT_CI, G_IM_SIZ_8b},
	GEO_TEXTURE_RGBA16: {G_IM_FMT_RGBA, G_IM_SIZ_16b},
	GEO_TEXTURE_RGBA32: {G_IM_FMT_RGBA, G_IM_SIZ_32b},
	GEO_TEXTURE_IA8:    {G_IM_FMT_IA, G_IM_SIZ_8b},
}

type TextureHeader struct {
	// relative to texture segment
	Offset uint32
	Type   uint16
	Width  int
	Height int
}

func (th *TextureHeader) FormatName() string {
	if f, ok := GeoTextureFormats[th.Type]; ok {
		return FormatName(f[0], f[1])
	}
	return "unknown"
}

// Decode reads texture described by table entry, palettes of CI formats precede texels
func (th *TextureHeader) Decode(segment []byte) (*Texture, error) {
	f, ok := GeoTextureFormats[th.Type]
	if !ok {
		return nil, errors.Errorf("Unknown texture type 0x%x", th.Type)
	}
	if int(th.Offset) > len(segment) {
		return nil, errors.Errorf("Texture offset 0x%x out of segment", th.Offset)
	}
	data := segment[th.Offset:]
	var tlut []byte
	tlutOffset := uint32(0)
	if f[0] == G_IM_FMT_CI {
		size := 0x20
		if f[1] == G_IM_SIZ_8b {
			size = 0x200
		}
		if len(data) < size {
			return nil, errors.Errorf("Palette out of segment")
		}
		tlut, data = data[:size], data[size:]
		tlutOffset = SEGMENT_TEXTURE<<24 | th.Offset
	}
	img, err := DecodeTexture(data, f[0], f[1], th.Width, th.Height, tlut, G_TT_RGBA16)
	if err != nil {
		return nil, err
	}
	return &Texture{
		TextureKey: TextureKey{
			Address: SEGMENT_TEXTURE<<24 | th.Offset, Format: f[0], Size: f[1],
			Width: th.Width, Height: th.Height, TLUT: tlutOffset, TLUTType: G_TT_RGBA16,
		},
		Image: img,
	}, nil
}

// Geo is geometry container: texture table, display list and vertex pool,
// bound to segments 0x02, 0x09 and 0x01
type Geo struct {
	Name    string
	Raw     []byte `json:"-"`
	GeoType uint16

	TextureSetupOffset     uint32
	DisplayListSetupOffset uint32
	VertexSetupOffset      uint32

	Textures     []TextureHeader
	TextureData  []byte `json:"-"`
	DisplayList  []byte `json:"-"`
	CommandCount int
	VertexData   []byte `json:"-"`
	VertexCount  int
	Center       mgl32.Vec3
	Radius       float32

	Cache     *TextureCache
	DrawCalls []*DrawCall
	BBox      utils.AABB
	// opcodes skipped by interpreter
	Unknown map[byte]int
}

func readSetup(raw []byte, what string, off, headerSize, count, elementSize int) ([]byte, error) {
	start := off + headerSize
	end := start + count*elementSize
	if off <= 0 || start > len(raw) || end > len(raw) || count < 0 {
		return nil, errors.Errorf("%s setup at 0x%x (%d x 0x%x) out of file", what, off, count, elementSize)
	}
	return raw[start:end], nil
}

func NewGeoFromData(name string, raw []byte) (*Geo, error) {
	bs := utils.NewBufStack("geo", raw).SetName(name)
	if magic := bs.U32(0); magic != MAGIC_GEO {
		if err := bs.Err(); err != nil {
			return nil, err
		}
		return nil, errors.Errorf("Invalid geo magic 0x%08x", magic)
	}
	g := &Geo{
		Name:                   name,
		Raw:                    raw,
		TextureSetupOffset:     uint32(bs.U16(0x08)),
		GeoType:                bs.U16(0x0A),
		DisplayListSetupOffset: bs.U32(0x0C),
		VertexSetupOffset:      bs.U32(0x10),
	}
	if err := bs.Err(); err != nil {
		return nil, errors.Wrapf(err, "Header")
	}

	if off := int(g.TextureSetupOffset); off != 0 {
		ts := bs.SubBuf("texture setup", off)
		dataSize := int(ts.U32(0))
		count := int(ts.U16(4))
		for i := 0; i < count; i++ {
			h := 8 + i*TEXTURE_HEADER_SIZE
			g.Textures = append(g.Textures, TextureHeader{
				Offset: ts.U32(h),
				Type:   ts.U16(h + 4),
				Width:  int(ts.U8(h + 8)),
				Height: int(ts.U8(h + 9)),
			})
		}
		if err := ts.Err(); err != nil {
			return nil, errors.Wrapf(err, "Texture setup")
		}
		var err error
		if g.TextureData, err = readSetup(raw, "Texture", off, 8+count*TEXTURE_HEADER_SIZE, dataSize, 1); err != nil {
			return nil, err
		}
	}

	dl := bs.SubBuf("display list setup", int(g.DisplayListSetupOffset))
	g.CommandCount = int(dl.U32(0))
	if err := dl.Err(); err != nil {
		return nil, errors.Wrapf(err, "Display list setup")
	}
	var err error
	if g.DisplayList, err = readSetup(raw, "Display list", int(g.DisplayListSetupOffset), 8, g.CommandCount, 8); err != nil {
		return nil, err
	}

	vs := bs.SubBuf("vertex setup", int(g.VertexSetupOffset))
	g.Center = mgl32.Vec3{float32(vs.S16(0x0C)), float32(vs.S16(0x0E)), float32(vs.S16(0x10))}
	g.Radius = float32(vs.S16(0x12))
	g.VertexCount = int(vs.U16(0x16))
	if err := vs.Err(); err != nil {
		return nil, errors.Wrapf(err, "Vertex setup")
	}
	if g.VertexData, err = readSetup(raw, "Vertex", int(g.VertexSetupOffset), 0x18, g.VertexCount, VERTEX_SIZE); err != nil {
		return nil, err
	}

	if err := g.Interpret(); err != nil {
		return nil, errors.Wrapf(err, "Geo %q", name)
	}
	return g, nil
}

// Bind sets segments of container on interpreter
func (g *Geo) Bind(in *Interpreter) {
	in.SetSegment(SEGMENT_VERTEX, g.VertexData)
	in.SetSegment(SEGMENT_TEXTURE, g.TextureData)
	in.SetSegment(SEGMENT_DISPLAY_LIST, g.DisplayList)
}

// Interpret runs display list from segment start, collecting draw calls and textures
func (g *Geo) Interpret() error {
	in := NewInterpreter(nil)
	g.Bind(in)
	err := in.Run(SEGMENT_DISPLAY_LIST << 24)
	g.Cache = in.Cache
	g.DrawCalls = in.DrawCalls
	g.Unknown = in.Unknown
	g.BBox = in.BBox()
	return err
}

// TextureCount is amount of textures decoded by display list
func (g *Geo) TextureCount() int {
	return len(g.Cache.Textures)
}

func (g *Geo) Texture(index int) *Texture {
	if index < 0 || index >= len(g.Cache.Textures) {
		return nil
	}
	return g.Cache.Textures[index]
}

// Commands splits display list into words for dumps
func (g *Geo) Commands() [][2]uint32 {
	cmds := make([][2]uint32, len(g.DisplayList)/8)
	for i := range cmds {
		cmds[i][0] = binary.BigEndian.Uint32(g.DisplayList[i*8:])
		cmds[i][1] = binary.BigEndian.Uint32(g.DisplayList[i*8+4:])
	}
	return cmds
}
