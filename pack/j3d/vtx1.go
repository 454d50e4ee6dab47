package j3d

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/gx"
	"github.com/mogaika/retro_model_browser/utils"
)

// order of array offsets after format offset
var vtx1ArrayAttribs = []int{
	gx.GX_VA_POS, gx.GX_VA_NRM, gx.GX_VA_NBT, gx.GX_VA_CLR0, gx.GX_VA_CLR1,
	gx.GX_VA_TEX0, gx.GX_VA_TEX1, gx.GX_VA_TEX2, gx.GX_VA_TEX3,
	gx.GX_VA_TEX4, gx.GX_VA_TEX5, gx.GX_VA_TEX6, gx.GX_VA_TEX7,
}

type VertexArray struct {
	Format gx.VertexAttributeFormat
	Data   []byte
}

func (va *VertexArray) stride() int {
	return va.Format.DirectSize()
}

func (va *VertexArray) Count() int {
	if s := va.stride(); s != 0 {
		return len(va.Data) / s
	}
	return 0
}

func (va *VertexArray) element(index int) []byte {
	s := va.stride()
	if index < 0 || (index+1)*s > len(va.Data) {
		return nil
	}
	return va.Data[index*s : (index+1)*s]
}

func (va *VertexArray) Components(index int) ([]float32, error) {
	b := va.element(index)
	if b == nil {
		return nil, errors.Errorf("%s index %d out of array (%d)",
			gx.VertexAttributeNames[va.Format.Attrib], index, va.Count())
	}
	return va.Format.ReadComponents(b), nil
}

func (va *VertexArray) Color(index int) (utils.ColorFloat, error) {
	b := va.element(index)
	if b == nil {
		return utils.ColorFloat{}, errors.Errorf("%s index %d out of array (%d)",
			gx.VertexAttributeNames[va.Format.Attrib], index, va.Count())
	}
	return utils.ColorFloat(gx.ReadColor(b, va.Format.CompType)), nil
}

type Vtx1 struct {
	Formats map[int]gx.VertexAttributeFormat
	Arrays  map[int]*VertexArray
}

func parseVtx1(bs *utils.BufStack, chunkSize int) (*Vtx1, error) {
	v := &Vtx1{
		Formats: make(map[int]gx.VertexAttributeFormat),
		Arrays:  make(map[int]*VertexArray),
	}

	for off := int(bs.U32(0x08)); ; off += 0x10 {
		attrib := int(bs.U32(off))
		if attrib == gx.GX_VA_NULL || bs.Err() != nil {
			break
		}
		v.Formats[attrib] = gx.VertexAttributeFormat{
			Attrib:    attrib,
			CompCount: int(bs.U32(off + 4)),
			CompType:  int(bs.U32(off + 8)),
			Shift:     bs.U8(off + 0xC),
		}
	}
	if err := bs.Err(); err != nil {
		return nil, errors.Wrapf(err, "Formats")
	}

	offsets := make([]int, len(vtx1ArrayAttribs))
	sorted := []int{chunkSize}
	for i := range offsets {
		offsets[i] = int(bs.U32(0x0C + i*4))
		if offsets[i] != 0 {
			sorted = append(sorted, offsets[i])
		}
	}
	sort.Ints(sorted)

	for i, attrib := range vtx1ArrayAttribs {
		start := offsets[i]
		if start == 0 {
			continue
		}
		format, ok := v.Formats[attrib]
		if !ok {
			continue
		}
		end := chunkSize
		for _, o := range sorted {
			if o > start {
				end = o
				break
			}
		}
		data := bs.SubBuf(gx.VertexAttributeNames[attrib], start).SetSize(end - start).Raw()
		v.Arrays[attrib] = &VertexArray{Format: format, Data: data}
	}
	if err := bs.Err(); err != nil {
		return nil, errors.Wrapf(err, "Arrays")
	}
	return v, nil
}

func vec3(c []float32) mgl32.Vec3 {
	var v mgl32.Vec3
	copy(v[:], c)
	return v
}

func vec2(c []float32) mgl32.Vec2 {
	var v mgl32.Vec2
	copy(v[:], c)
	return v
}
