package yaz0

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/pack"
	"github.com/mogaika/retro_model_browser/utils"
)

const Magic = "Yaz0"
const HeaderSize = 0x10

func IsCompressed(b []byte) bool {
	return pack.HasMagic(b, Magic)
}

func DecompressedSize(b []byte) (int, error) {
	if len(b) < HeaderSize || !IsCompressed(b) {
		return 0, errors.New("not a Yaz0 stream")
	}
	return int(binary.BigEndian.Uint32(b[4:])), nil
}

// Decompress expands Yaz0 group-header LZ stream
func Decompress(b []byte) ([]byte, error) {
	size, err := DecompressedSize(b)
	if err != nil {
		return nil, err
	}

	dst := make([]byte, size)
	src := b[HeaderSize:]
	srcPos, dstPos := 0, 0

	for dstPos < size {
		if srcPos >= len(src) {
			return nil, errors.Errorf("unexpected end of stream at dst 0x%x", dstPos)
		}
		header := src[srcPos]
		srcPos++

		for bit := 7; bit >= 0 && dstPos < size; bit-- {
			if header&(1<<uint(bit)) != 0 {
				if srcPos >= len(src) {
					return nil, errors.Errorf("unexpected end of literal at dst 0x%x", dstPos)
				}
				dst[dstPos] = src[srcPos]
				dstPos++
				srcPos++
				continue
			}

			if srcPos+2 > len(src) {
				return nil, errors.Errorf("unexpected end of backref at dst 0x%x", dstPos)
			}
			b0, b1 := int(src[srcPos]), int(src[srcPos+1])
			srcPos += 2

			dist := ((b0&0xF)<<8 | b1) + 1
			count := b0 >> 4
			if count == 0 {
				if srcPos >= len(src) {
					return nil, errors.Errorf("unexpected end of long backref at dst 0x%x", dstPos)
				}
				count = int(src[srcPos]) + 0x12
				srcPos++
			} else {
				count += 2
			}

			from := dstPos - dist
			if from < 0 {
				return nil, errors.Errorf("backref distance 0x%x before start at dst 0x%x", dist, dstPos)
			}
			for i := 0; i < count && dstPos < size; i++ {
				dst[dstPos] = dst[from+i]
				dstPos++
			}
		}
	}
	return dst, nil
}

func init() {
	pack.SetMagicHandler(Magic, func(src utils.ResourceSource, data []byte) (interface{}, error) {
		raw, err := Decompress(data)
		if err != nil {
			return nil, errors.Wrapf(err, "Yaz0 %q", src.Name())
		}
		if IsCompressed(raw) {
			return nil, errors.Errorf("Yaz0 %q contains nested Yaz0", src.Name())
		}
		return pack.CallHandler(&pack.MemorySource{Parent: src, Data: raw}, raw)
	})
}
