package f3dex

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/pkg/errors"
)

func expand5(v uint16) uint8 { return uint8(v<<3 | v>>2) }
func expand4(v uint8) uint8  { return v<<4 | v }
func expand3(v uint8) uint8  { return v<<5 | v<<2 | v>>1 }

func colorRGBA16(v uint16) color.NRGBA {
	return color.NRGBA{
		R: expand5((v >> 11) & 0x1F),
		G: expand5((v >> 6) & 0x1F),
		B: expand5((v >> 1) & 0x1F),
		A: uint8(v&1) * 0xFF,
	}
}

func colorIA16(v uint16) color.NRGBA {
	i := uint8(v >> 8)
	return color.NRGBA{i, i, i, uint8(v)}
}

// TextureSize returns amount of bytes occupied by texels
func TextureSize(siz, width, height int) int {
	return (width*height*SizeBits[siz] + 7) / 8
}

func paletteColor(tlut []byte, tlutType int, index int) (color.NRGBA, error) {
	if index*2+2 > len(tlut) {
		return color.NRGBA{}, errors.Errorf("Palette index %d out of range (%d entries)", index, len(tlut)/2)
	}
	v := binary.BigEndian.Uint16(tlut[index*2:])
	if tlutType == G_TT_IA16 {
		return colorIA16(v), nil
	}
	return colorRGBA16(v), nil
}

// DecodeTexture converts texels in DRAM layout into image.
// tlut is palette memory for CI formats.
func DecodeTexture(data []byte, format, siz, width, height int, tlut []byte, tlutType int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 || width > 1024 || height > 1024 {
		return nil, errors.Errorf("Invalid texture size %dx%d", width, height)
	}
	if need := TextureSize(siz, width, height); len(data) < need {
		return nil, errors.Errorf("Texture %s %dx%d needs 0x%x bytes, got 0x%x",
			FormatName(format, siz), width, height, need, len(data))
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	count := width * height
	set := func(i int, c color.NRGBA) {
		img.SetNRGBA(i%width, i/width, c)
	}
	nibble := func(i int) uint8 {
		b := data[i/2]
		if i%2 == 0 {
			return b >> 4
		}
		return b & 0xF
	}

	switch FormatName(format, siz) {
	case "RGBA16":
		for i := 0; i < count; i++ {
			set(i, colorRGBA16(binary.BigEndian.Uint16(data[i*2:])))
		}
	case "RGBA32":
		for i := 0; i < count; i++ {
			set(i, color.NRGBA{data[i*4], data[i*4+1], data[i*4+2], data[i*4+3]})
		}
	case "IA4":
		for i := 0; i < count; i++ {
			v := nibble(i)
			l := expand3(v >> 1)
			set(i, color.NRGBA{l, l, l, (v & 1) * 0xFF})
		}
	case "IA8":
		for i := 0; i < count; i++ {
			l, a := expand4(data[i]>>4), expand4(data[i]&0xF)
			set(i, color.NRGBA{l, l, l, a})
		}
	case "IA16":
		for i := 0; i < count; i++ {
			set(i, colorIA16(binary.BigEndian.Uint16(data[i*2:])))
		}
	case "I4":
		for i := 0; i < count; i++ {
			l := expand4(nibble(i))
			set(i, color.NRGBA{l, l, l, l})
		}
	case "I8":
		for i := 0; i < count; i++ {
			l := data[i]
			set(i, color.NRGBA{l, l, l, l})
		}
	case "CI4", "CI8":
		if tlut == nil {
			return nil, errors.Errorf("No palette loaded for %s texture", FormatName(format, siz))
		}
		for i := 0; i < count; i++ {
			var index int
			if siz == G_IM_SIZ_4b {
				index = int(nibble(i))
			} else {
				index = int(data[i])
			}
			c, err := paletteColor(tlut, tlutType, index)
			if err != nil {
				return nil, err
			}
			set(i, c)
		}
	default:
		return nil, errors.Errorf("Unsupported texture format %s", FormatName(format, siz))
	}
	return img, nil
}

// TextureKey identifies decoded texture, same DRAM texels
// with different palette give different textures
type TextureKey struct {
	Address  uint32
	Format   int
	Size     int
	Width    int
	Height   int
	TLUT     uint32
	TLUTType int
}

func (k TextureKey) Name() string {
	return fmt.Sprintf("%s_%08x_%dx%d", FormatName(k.Format, k.Size), k.Address, k.Width, k.Height)
}

type Texture struct {
	TextureKey
	Image *image.NRGBA `json:"-"`
}

func (t *Texture) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, t.Image); err != nil {
		return nil, errors.Wrapf(err, "Texture %q png", t.Name())
	}
	return buf.Bytes(), nil
}

// TextureCache decodes every distinct texture once
type TextureCache struct {
	mu       sync.Mutex
	Textures []*Texture
	index    map[TextureKey]int
}

func NewTextureCache() *TextureCache {
	return &TextureCache{index: make(map[TextureKey]int)}
}

// Get returns index of texture, decode is called only on first request of key.
// Failed decodes are cached too, as -1.
func (tc *TextureCache) Get(key TextureKey, decode func() (*image.NRGBA, error)) (int, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if i, ok := tc.index[key]; ok {
		return i, nil
	}
	img, err := decode()
	if err != nil {
		tc.index[key] = -1
		return -1, errors.Wrapf(err, "Texture %s", key.Name())
	}
	tc.Textures = append(tc.Textures, &Texture{TextureKey: key, Image: img})
	i := len(tc.Textures) - 1
	tc.index[key] = i
	return i, nil
}
