package j3d

import (
	"encoding/binary"
	"image"
	"io"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"

	"github.com/mogaika/retro_model_browser/gx"
	"github.com/mogaika/retro_model_browser/utils"
)

const TEXTURE_DATA_ALIGN = 0x20

// ParseReplaceFormat maps user format name to encoder format.
// Empty name keeps RGBA8 for RGBA8 sources and RGB5A3 for the rest.
func ParseReplaceFormat(name string, current int) (int, error) {
	switch strings.ToLower(name) {
	case "":
		if current == gx.GX_TF_RGBA8 {
			return gx.GX_TF_RGBA8, nil
		}
		return gx.GX_TF_RGB5A3, nil
	case "rgba8":
		return gx.GX_TF_RGBA8, nil
	case "rgb5a3":
		return gx.GX_TF_RGB5A3, nil
	}
	return 0, errors.Errorf("Unsupported texture format %q", name)
}

func DecodeImage(r io.Reader) (image.Image, error) {
	img, kind, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot decode uploaded image")
	}
	b := img.Bounds()
	if b.Dx() > 1024 || b.Dy() > 1024 {
		return nil, errors.Errorf("Image %s %dx%d is too large", kind, b.Dx(), b.Dy())
	}
	return img, nil
}

func hasAlpha(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}

// ReplaceTextureData appends encoded image to end of file and
// points BTI header at headerOffset to it. Old texel data is left in place.
func ReplaceTextureData(raw []byte, headerOffset int, img image.Image, format int) ([]byte, error) {
	if headerOffset < 0 || headerOffset+BTI_HEADER_SIZE > len(raw) {
		return nil, errors.Errorf("Texture header 0x%x out of file", headerOffset)
	}
	data, err := gx.EncodeTexture(img, format)
	if err != nil {
		return nil, err
	}

	out := make([]byte, utils.AlignUp(len(raw), TEXTURE_DATA_ALIGN), utils.AlignUp(len(raw), TEXTURE_DATA_ALIGN)+len(data))
	copy(out, raw)
	dataOffset := len(out)
	out = append(out, data...)

	b := img.Bounds()
	h := out[headerOffset : headerOffset+BTI_HEADER_SIZE]
	h[0x00] = byte(format)
	h[0x01] = 0
	if hasAlpha(img) {
		h[0x01] = 1
	}
	binary.BigEndian.PutUint16(h[0x02:], uint16(b.Dx()))
	binary.BigEndian.PutUint16(h[0x04:], uint16(b.Dy()))
	h[0x08] = 0
	h[0x09] = 0
	binary.BigEndian.PutUint16(h[0x0A:], 0)
	binary.BigEndian.PutUint32(h[0x0C:], 0)
	h[0x10] = 0
	h[0x14] = gx.GX_LINEAR
	h[0x15] = gx.GX_LINEAR
	h[0x16] = 0
	h[0x17] = 0
	h[0x18] = 1
	binary.BigEndian.PutUint16(h[0x1A:], 0)
	binary.BigEndian.PutUint32(h[0x1C:], uint32(dataOffset-headerOffset))
	return out, nil
}

// ReplaceModelTexture rewrites TEX1 texture slot of J3D file
func ReplaceModelTexture(raw []byte, index int, img image.Image, formatName string) ([]byte, error) {
	m, err := NewModelFromData("", raw)
	if err != nil {
		return nil, err
	}
	t := m.Texture(index)
	if t == nil {
		return nil, errors.Errorf("Texture %d out of range", index)
	}
	format, err := ParseReplaceFormat(formatName, t.Format)
	if err != nil {
		return nil, err
	}
	out, err := ReplaceTextureData(raw, t.HeaderOffset, img, format)
	if err != nil {
		return nil, err
	}

	c, err := ParseContainer("", raw)
	if err != nil {
		return nil, err
	}
	if tex1 := c.Chunk("TEX1"); tex1 != nil && c.Chunks[len(c.Chunks)-1] == tex1 {
		binary.BigEndian.PutUint32(out[tex1.Offset+4:], uint32(len(out)-tex1.Offset))
	}
	binary.BigEndian.PutUint32(out[0x08:], uint32(len(out)))
	return out, nil
}

func ReplaceBTITexture(raw []byte, img image.Image, formatName string) ([]byte, error) {
	bti, err := NewBTIFromData("", raw)
	if err != nil {
		return nil, err
	}
	format, err := ParseReplaceFormat(formatName, bti.Texture.Format)
	if err != nil {
		return nil, err
	}
	return ReplaceTextureData(raw, 0, img, format)
}
