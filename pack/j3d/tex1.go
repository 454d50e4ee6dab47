package j3d

import (
	"image"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/gx"
	"github.com/mogaika/retro_model_browser/utils"
)

const BTI_HEADER_SIZE = 0x20

// Texture is BTI header with data views. Offsets are relative to header.
type Texture struct {
	Name          string
	Format        int
	AlphaEnabled  uint8
	Width         int
	Height        int
	WrapS         int
	WrapT         int
	PaletteFormat int
	PaletteCount  int
	MipmapEnabled bool
	MinFilter     int
	MagFilter     int
	MinLOD        float32
	MaxLOD        float32
	MipCount      int
	LODBias       float32

	// absolute position of header inside owner file
	HeaderOffset int    `json:"-"`
	Data         []byte `json:"-"`
	Palette      []byte `json:"-"`
}

func parseBTI(bs *utils.BufStack, off int, name string) (*Texture, error) {
	t := &Texture{
		Name:          name,
		Format:        int(bs.U8(off)),
		AlphaEnabled:  bs.U8(off + 0x01),
		Width:         int(bs.U16(off + 0x02)),
		Height:        int(bs.U16(off + 0x04)),
		WrapS:         int(bs.U8(off + 0x06)),
		WrapT:         int(bs.U8(off + 0x07)),
		PaletteFormat: int(bs.U8(off + 0x09)),
		PaletteCount:  int(bs.U16(off + 0x0A)),
		MipmapEnabled: bs.U8(off+0x10) != 0,
		MinFilter:     int(bs.U8(off + 0x14)),
		MagFilter:     int(bs.U8(off + 0x15)),
		MinLOD:        float32(bs.S8(off+0x16)) / 8,
		MaxLOD:        float32(bs.S8(off+0x17)) / 8,
		MipCount:      int(bs.U8(off + 0x18)),
		LODBias:       float32(bs.S16(off+0x1A)) / 100,
		HeaderOffset:  bs.AbsoluteOffset() + off,
	}
	if err := bs.Err(); err != nil {
		return nil, errors.Wrapf(err, "Texture %q header", name)
	}
	if t.Width == 0 || t.Height == 0 {
		return nil, errors.Errorf("Texture %q has zero size", name)
	}
	if t.MipCount == 0 {
		t.MipCount = 1
	}

	paletteOff := int(bs.U32(off + 0x0C))
	dataOff := int(bs.U32(off + 0x1C))
	if gx.IsPaletted(t.Format) && t.PaletteCount > 0 {
		t.Palette = bs.SubBuf("palette", off+paletteOff).SetSize(t.PaletteCount * 2).Raw()
	}

	// mip chain length is not stored, take what is available
	size := 0
	for i := 0; i < t.MipCount; i++ {
		size += gx.TextureSize(t.Format, maxInt(t.Width>>uint(i), 1), maxInt(t.Height>>uint(i), 1))
	}
	data := bs.SubBuf("data", off+dataOff)
	if size > data.Size() {
		size = data.Size()
	}
	t.Data = data.SetSize(size).Raw()

	if err := bs.Err(); err != nil {
		return nil, errors.Wrapf(err, "Texture %q", name)
	}
	return t, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (t *Texture) palette() *gx.Palette {
	if t.Palette == nil {
		return nil
	}
	return &gx.Palette{Format: t.PaletteFormat, Data: t.Palette}
}

// Image decodes first mip level
func (t *Texture) Image() (*image.NRGBA, error) {
	img, err := gx.DecodeTexture(t.Data, t.Format, t.Width, t.Height, t.palette())
	return img, errors.Wrapf(err, "Texture %q", t.Name)
}

func (t *Texture) Mips() ([]*image.NRGBA, error) {
	mips, err := gx.DecodeMipChain(t.Data, t.Format, t.Width, t.Height, t.MipCount, t.palette())
	return mips, errors.Wrapf(err, "Texture %q", t.Name)
}

// IsFramebufferCopy reports placeholder textures replaced by EFB copy at runtime
func (t *Texture) IsFramebufferCopy() bool {
	return strings.HasPrefix(strings.ToLower(t.Name), "fbtex")
}

type Tex1 struct {
	Textures []*Texture
}

func parseTex1(bs *utils.BufStack) (*Tex1, error) {
	count := int(bs.U16(0x08))
	headersOff := int(bs.U32(0x0C))
	names := ReadNameTable(bs, int(bs.U32(0x10)))

	tex := &Tex1{Textures: make([]*Texture, count)}
	for i := range tex.Textures {
		t, err := parseBTI(bs, headersOff+i*BTI_HEADER_SIZE, nameOr(names, i, ""))
		if err != nil {
			return nil, errors.Wrapf(err, "TEX1: texture %d", i)
		}
		tex.Textures[i] = t
	}
	return tex, nil
}
