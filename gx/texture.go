package gx

import (
	"encoding/binary"
	"image"
	"image/color"

	"github.com/pkg/errors"
)

type blockInfo struct {
	w, h  int
	bytes int
}

var formatBlocks = map[int]blockInfo{
	GX_TF_I4:     {8, 8, 32},
	GX_TF_I8:     {8, 4, 32},
	GX_TF_IA4:    {8, 4, 32},
	GX_TF_IA8:    {4, 4, 32},
	GX_TF_RGB565: {4, 4, 32},
	GX_TF_RGB5A3: {4, 4, 32},
	GX_TF_RGBA8:  {4, 4, 64},
	GX_TF_C4:     {8, 8, 32},
	GX_TF_C8:     {8, 4, 32},
	GX_TF_C14X2:  {4, 4, 32},
	GX_TF_CMPR:   {8, 8, 32},
}

func IsPaletted(format int) bool {
	return format == GX_TF_C4 || format == GX_TF_C8 || format == GX_TF_C14X2
}

// TextureSize returns byte size of one mip level
func TextureSize(format, w, h int) int {
	bi, ok := formatBlocks[format]
	if !ok {
		return 0
	}
	bw := (w + bi.w - 1) / bi.w
	bh := (h + bi.h - 1) / bi.h
	return bw * bh * bi.bytes
}

func expand3(v uint16) uint8 { return uint8(v<<5 | v<<2 | v>>1) }
func expand4(v uint16) uint8 { return uint8(v<<4 | v) }
func expand5(v uint16) uint8 { return uint8(v<<3 | v>>2) }
func expand6(v uint16) uint8 { return uint8(v<<2 | v>>4) }

func decodeRGB565(v uint16) color.NRGBA {
	return color.NRGBA{expand5(v >> 11), expand6((v >> 5) & 0x3F), expand5(v & 0x1F), 0xFF}
}

func decodeRGB5A3(v uint16) color.NRGBA {
	if v&0x8000 != 0 {
		return color.NRGBA{expand5((v >> 10) & 0x1F), expand5((v >> 5) & 0x1F), expand5(v & 0x1F), 0xFF}
	}
	return color.NRGBA{expand4((v >> 8) & 0xF), expand4((v >> 4) & 0xF), expand4(v & 0xF), expand3((v >> 12) & 0x7)}
}

func decodeIA8(v uint16) color.NRGBA {
	i := uint8(v)
	return color.NRGBA{i, i, i, uint8(v >> 8)}
}

type Palette struct {
	Format int
	Data   []byte
}

func (p *Palette) Color(index int) color.NRGBA {
	if p == nil || (index+1)*2 > len(p.Data) {
		return color.NRGBA{}
	}
	v := binary.BigEndian.Uint16(p.Data[index*2:])
	switch p.Format {
	case GX_TL_IA8:
		return decodeIA8(v)
	case GX_TL_RGB565:
		return decodeRGB565(v)
	default:
		return decodeRGB5A3(v)
	}
}

// DecodeTexture decodes single level of GX tiled texture
func DecodeTexture(data []byte, format, w, h int, pal *Palette) (*image.NRGBA, error) {
	bi, ok := formatBlocks[format]
	if !ok {
		return nil, errors.Errorf("Unknown texture format 0x%x", format)
	}
	if w <= 0 || h <= 0 {
		return nil, errors.Errorf("Invalid texture size %dx%d", w, h)
	}
	size := TextureSize(format, w, h)
	if len(data) < size {
		return nil, errors.Errorf("Texture %s %dx%d needs 0x%x bytes, have 0x%x",
			TextureFormatNames[format], w, h, size, len(data))
	}
	if IsPaletted(format) && pal == nil {
		return nil, errors.Errorf("Paletted texture %s without palette", TextureFormatNames[format])
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	set := func(x, y int, c color.NRGBA) {
		if x < w && y < h {
			img.SetNRGBA(x, y, c)
		}
	}

	blocksX := (w + bi.w - 1) / bi.w
	blocksY := (h + bi.h - 1) / bi.h
	off := 0
	for by := 0; by < blocksY; by++ {
		for bx := 0; bx < blocksX; bx++ {
			block := data[off : off+bi.bytes]
			off += bi.bytes
			x0, y0 := bx*bi.w, by*bi.h

			switch format {
			case GX_TF_CMPR:
				for sub := 0; sub < 4; sub++ {
					decodeDXT1Block(block[sub*8:], x0+(sub&1)*4, y0+(sub>>1)*4, set)
				}
			case GX_TF_RGBA8:
				for i := 0; i < 16; i++ {
					a, r := block[i*2], block[i*2+1]
					g, b := block[32+i*2], block[32+i*2+1]
					set(x0+i%4, y0+i/4, color.NRGBA{r, g, b, a})
				}
			default:
				for i := 0; i < bi.w*bi.h; i++ {
					x, y := x0+i%bi.w, y0+i/bi.w
					set(x, y, decodeTexel(format, block, i, pal))
				}
			}
		}
	}
	return img, nil
}

func decodeTexel(format int, block []byte, i int, pal *Palette) color.NRGBA {
	switch format {
	case GX_TF_I4, GX_TF_C4:
		v := block[i/2]
		if i%2 == 0 {
			v >>= 4
		}
		v &= 0xF
		if format == GX_TF_C4 {
			return pal.Color(int(v))
		}
		c := expand4(uint16(v))
		return color.NRGBA{c, c, c, c}
	case GX_TF_I8:
		c := block[i]
		return color.NRGBA{c, c, c, c}
	case GX_TF_C8:
		return pal.Color(int(block[i]))
	case GX_TF_IA4:
		v := uint16(block[i])
		c := expand4(v & 0xF)
		return color.NRGBA{c, c, c, expand4(v >> 4)}
	case GX_TF_IA8:
		return decodeIA8(binary.BigEndian.Uint16(block[i*2:]))
	case GX_TF_RGB565:
		return decodeRGB565(binary.BigEndian.Uint16(block[i*2:]))
	case GX_TF_RGB5A3:
		return decodeRGB5A3(binary.BigEndian.Uint16(block[i*2:]))
	case GX_TF_C14X2:
		return pal.Color(int(binary.BigEndian.Uint16(block[i*2:]) & 0x3FFF))
	}
	return color.NRGBA{}
}

func decodeDXT1Block(b []byte, x0, y0 int, set func(x, y int, c color.NRGBA)) {
	c0v := binary.BigEndian.Uint16(b[0:])
	c1v := binary.BigEndian.Uint16(b[2:])
	var colors [4]color.NRGBA
	colors[0] = decodeRGB565(c0v)
	colors[1] = decodeRGB565(c1v)
	mix := func(a, b uint8, wa, wb, div int) uint8 {
		return uint8((int(a)*wa + int(b)*wb) / div)
	}
	if c0v > c1v {
		colors[2] = color.NRGBA{
			mix(colors[0].R, colors[1].R, 2, 1, 3),
			mix(colors[0].G, colors[1].G, 2, 1, 3),
			mix(colors[0].B, colors[1].B, 2, 1, 3), 0xFF}
		colors[3] = color.NRGBA{
			mix(colors[0].R, colors[1].R, 1, 2, 3),
			mix(colors[0].G, colors[1].G, 1, 2, 3),
			mix(colors[0].B, colors[1].B, 1, 2, 3), 0xFF}
	} else {
		colors[2] = color.NRGBA{
			mix(colors[0].R, colors[1].R, 1, 1, 2),
			mix(colors[0].G, colors[1].G, 1, 1, 2),
			mix(colors[0].B, colors[1].B, 1, 1, 2), 0xFF}
		colors[3] = color.NRGBA{}
	}
	for y := 0; y < 4; y++ {
		row := b[4+y]
		for x := 0; x < 4; x++ {
			set(x0+x, y0+y, colors[(row>>uint(6-x*2))&3])
		}
	}
}

// DecodeMipChain decodes mipCount levels stored one after another
func DecodeMipChain(data []byte, format, w, h, mipCount int, pal *Palette) ([]*image.NRGBA, error) {
	if mipCount < 1 {
		mipCount = 1
	}
	levels := make([]*image.NRGBA, 0, mipCount)
	off := 0
	for i := 0; i < mipCount; i++ {
		lw, lh := w>>uint(i), h>>uint(i)
		if lw < 1 {
			lw = 1
		}
		if lh < 1 {
			lh = 1
		}
		size := TextureSize(format, lw, lh)
		if off+size > len(data) {
			if i == 0 {
				return nil, errors.Errorf("Texture data truncated")
			}
			// some models declare more levels than stored
			break
		}
		img, err := DecodeTexture(data[off:off+size], format, lw, lh, pal)
		if err != nil {
			return nil, errors.Wrapf(err, "Mip level %d", i)
		}
		levels = append(levels, img)
		off += size
	}
	return levels, nil
}

func encodeRGB5A3(c color.NRGBA) uint16 {
	if c.A >= 0xE0 {
		return 0x8000 | uint16(c.R>>3)<<10 | uint16(c.G>>3)<<5 | uint16(c.B>>3)
	}
	return uint16(c.A>>5)<<12 | uint16(c.R>>4)<<8 | uint16(c.G>>4)<<4 | uint16(c.B>>4)
}

// EncodeTexture produces tiled data for RGBA8 or RGB5A3
func EncodeTexture(img image.Image, format int) ([]byte, error) {
	if format != GX_TF_RGBA8 && format != GX_TF_RGB5A3 {
		return nil, errors.Errorf("Encoding to %s is not supported", TextureFormatNames[format])
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	bi := formatBlocks[format]
	out := make([]byte, TextureSize(format, w, h))

	at := func(x, y int) color.NRGBA {
		if x >= w || y >= h {
			return color.NRGBA{}
		}
		return color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
	}

	off := 0
	for by := 0; by < (h+bi.h-1)/bi.h; by++ {
		for bx := 0; bx < (w+bi.w-1)/bi.w; bx++ {
			x0, y0 := bx*bi.w, by*bi.h
			for i := 0; i < 16; i++ {
				c := at(x0+i%4, y0+i/4)
				if format == GX_TF_RGBA8 {
					out[off+i*2] = c.A
					out[off+i*2+1] = c.R
					out[off+32+i*2] = c.G
					out[off+32+i*2+1] = c.B
				} else {
					binary.BigEndian.PutUint16(out[off+i*2:], encodeRGB5A3(c))
				}
			}
			off += bi.bytes
		}
	}
	return out, nil
}
