package gx

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

type VertexAttributeFormat struct {
	Attrib    int
	IndexType int
	CompCount int
	CompType  int
	Shift     uint8
}

func componentSize(compType int) int {
	switch compType {
	case GX_U8, GX_S8:
		return 1
	case GX_U16, GX_S16:
		return 2
	default:
		return 4
	}
}

func ComponentCount(attrib, compCount int) int {
	switch {
	case attrib == GX_VA_POS:
		if compCount == GX_POS_XY {
			return 2
		}
		return 3
	case attrib == GX_VA_NRM || attrib == GX_VA_NBT:
		if compCount == GX_NRM_XYZ {
			return 3
		}
		return 9
	case attrib >= GX_VA_TEX0 && attrib <= GX_VA_TEX7:
		if compCount == GX_TEX_S {
			return 1
		}
		return 2
	case attrib == GX_VA_CLR0 || attrib == GX_VA_CLR1:
		return 4
	}
	return 1
}

func colorSize(compType int) int {
	switch compType {
	case GX_RGB565, GX_RGBA4:
		return 2
	case GX_RGB8, GX_RGBA6:
		return 3
	default:
		return 4
	}
}

// DirectSize is byte size of attribute stored inline in display list
func (vaf *VertexAttributeFormat) DirectSize() int {
	switch {
	case vaf.Attrib <= GX_VA_TEX7MTXIDX:
		return 1
	case vaf.Attrib == GX_VA_CLR0 || vaf.Attrib == GX_VA_CLR1:
		return colorSize(vaf.CompType)
	default:
		return ComponentCount(vaf.Attrib, vaf.CompCount) * componentSize(vaf.CompType)
	}
}

func (vaf *VertexAttributeFormat) Stride() int {
	return vaf.DirectSize()
}

// ReadComponents decodes fixed point or float components.
// Normals use hardware fixed fraction instead of shift.
func (vaf *VertexAttributeFormat) ReadComponents(b []byte) []float32 {
	count := ComponentCount(vaf.Attrib, vaf.CompCount)
	shift := vaf.Shift
	if vaf.Attrib == GX_VA_NRM || vaf.Attrib == GX_VA_NBT {
		switch vaf.CompType {
		case GX_S8:
			shift = 6
		case GX_S16:
			shift = 14
		}
	}
	scale := float32(1) / float32(uint32(1)<<shift)
	out := make([]float32, count)
	size := componentSize(vaf.CompType)
	for i := 0; i < count && (i+1)*size <= len(b); i++ {
		o := i * size
		switch vaf.CompType {
		case GX_U8:
			out[i] = float32(b[o]) * scale
		case GX_S8:
			out[i] = float32(int8(b[o])) * scale
		case GX_U16:
			out[i] = float32(binary.BigEndian.Uint16(b[o:])) * scale
		case GX_S16:
			out[i] = float32(int16(binary.BigEndian.Uint16(b[o:]))) * scale
		default:
			out[i] = math.Float32frombits(binary.BigEndian.Uint32(b[o:]))
		}
	}
	return out
}

// ReadColor decodes vertex color to normalized RGBA
func ReadColor(b []byte, compType int) [4]float32 {
	if len(b) < colorSize(compType) {
		return [4]float32{1, 1, 1, 1}
	}
	switch compType {
	case GX_RGB565:
		v := binary.BigEndian.Uint16(b)
		return [4]float32{float32(v>>11) / 31, float32((v>>5)&0x3F) / 63, float32(v&0x1F) / 31, 1}
	case GX_RGB8:
		return [4]float32{float32(b[0]) / 255, float32(b[1]) / 255, float32(b[2]) / 255, 1}
	case GX_RGBX8:
		return [4]float32{float32(b[0]) / 255, float32(b[1]) / 255, float32(b[2]) / 255, 1}
	case GX_RGBA4:
		v := binary.BigEndian.Uint16(b)
		return [4]float32{float32(v>>12) / 15, float32((v>>8)&0xF) / 15, float32((v>>4)&0xF) / 15, float32(v&0xF) / 15}
	case GX_RGBA6:
		v := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
		return [4]float32{float32(v>>18) / 63, float32((v>>12)&0x3F) / 63, float32((v>>6)&0x3F) / 63, float32(v&0x3F) / 63}
	default:
		return [4]float32{float32(b[0]) / 255, float32(b[1]) / 255, float32(b[2]) / 255, float32(b[3]) / 255}
	}
}

// DLVertex holds per attribute array index.
// For direct matrix indices value itself, for other direct attributes
// byte offset of inline data inside display list. -1 when absent.
type DLVertex struct {
	Index [GX_VA_MAX]int32
}

type DecodedDisplayList struct {
	Vertices []DLVertex
	// triangle list, indexes into Vertices
	Indices []uint32
}

func triangulate(prim byte, first, count int, out []uint32) []uint32 {
	base := uint32(first)
	switch prim {
	case GX_TRIANGLES:
		for i := 0; i+2 < count; i += 3 {
			out = append(out, base+uint32(i), base+uint32(i+1), base+uint32(i+2))
		}
	case GX_TRIANGLESTRIP:
		for i := 2; i < count; i++ {
			if i%2 == 0 {
				out = append(out, base+uint32(i-2), base+uint32(i-1), base+uint32(i))
			} else {
				out = append(out, base+uint32(i-1), base+uint32(i-2), base+uint32(i))
			}
		}
	case GX_TRIANGLEFAN:
		for i := 2; i < count; i++ {
			out = append(out, base, base+uint32(i-1), base+uint32(i))
		}
	case GX_QUADS:
		for i := 0; i+3 < count; i += 4 {
			q := base + uint32(i)
			out = append(out, q, q+1, q+2, q, q+2, q+3)
		}
	}
	return out
}

// DecodeDisplayList walks primitives and produces triangle list.
// Lines and points are consumed but not emitted. NOP is padding.
func DecodeDisplayList(dl []byte, attrs []VertexAttributeFormat) (*DecodedDisplayList, error) {
	result := &DecodedDisplayList{}

	vertexSize := 0
	for i := range attrs {
		if attrs[i].Attrib < 0 || attrs[i].Attrib >= GX_VA_MAX {
			return nil, errors.Errorf("Invalid vertex attribute %d", attrs[i].Attrib)
		}
		switch attrs[i].IndexType {
		case GX_DIRECT:
			vertexSize += attrs[i].DirectSize()
		case GX_INDEX8:
			vertexSize++
		case GX_INDEX16:
			vertexSize += 2
		}
	}

	pos := 0
	for pos < len(dl) {
		cmd := dl[pos]
		pos++
		if cmd == GX_NOP {
			continue
		}
		prim := cmd & 0xF8
		switch prim {
		case GX_QUADS, GX_TRIANGLES, GX_TRIANGLESTRIP, GX_TRIANGLEFAN,
			GX_LINES, GX_LINESTRIP, GX_POINTS:
		default:
			return nil, errors.Errorf("Unknown display list command 0x%.2x at 0x%x", cmd, pos-1)
		}
		if pos+2 > len(dl) {
			return nil, errors.Errorf("Truncated primitive header at 0x%x", pos-1)
		}
		count := int(binary.BigEndian.Uint16(dl[pos:]))
		pos += 2
		if pos+count*vertexSize > len(dl) {
			return nil, errors.Errorf("Primitive 0x%.2x with %d vertices overflows display list", cmd, count)
		}

		first := len(result.Vertices)
		for iv := 0; iv < count; iv++ {
			var v DLVertex
			for i := range v.Index {
				v.Index[i] = -1
			}
			for i := range attrs {
				a := &attrs[i]
				switch a.IndexType {
				case GX_DIRECT:
					if a.Attrib <= GX_VA_TEX7MTXIDX {
						v.Index[a.Attrib] = int32(dl[pos])
					} else {
						v.Index[a.Attrib] = int32(pos)
					}
					pos += a.DirectSize()
				case GX_INDEX8:
					v.Index[a.Attrib] = int32(dl[pos])
					pos++
				case GX_INDEX16:
					v.Index[a.Attrib] = int32(binary.BigEndian.Uint16(dl[pos:]))
					pos += 2
				}
			}
			result.Vertices = append(result.Vertices, v)
		}
		result.Indices = triangulate(prim, first, count, result.Indices)
	}
	return result, nil
}
