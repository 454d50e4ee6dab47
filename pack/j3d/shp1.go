package j3d

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/gx"
	"github.com/mogaika/retro_model_browser/utils"
)

const (
	SHAPE_SIZE = 0x28

	SHAPE_MATRIX_NORMAL      = 0
	SHAPE_MATRIX_BILLBOARD   = 1
	SHAPE_MATRIX_BILLBOARD_Y = 2
	SHAPE_MATRIX_MULTI       = 3
)

var ShapeMatrixTypeNames = map[uint8]string{
	SHAPE_MATRIX_NORMAL:      "normal",
	SHAPE_MATRIX_BILLBOARD:   "billboard",
	SHAPE_MATRIX_BILLBOARD_Y: "billboardY",
	SHAPE_MATRIX_MULTI:       "multi",
}

// Packet is display list with its matrix slot table.
// MatrixTable entries are DRW1 indices, 0xFFFF keeps previous value.
type Packet struct {
	MatrixTable []uint16
	DisplayList []byte `json:"-"`
}

type Shape struct {
	Name       string
	MatrixType uint8
	Attributes []gx.VertexAttributeFormat
	Packets    []Packet
	Radius     float32
	BBox       utils.AABB
}

func (s *Shape) HasAttribute(attrib int) bool {
	for _, a := range s.Attributes {
		if a.Attrib == attrib {
			return true
		}
	}
	return false
}

type Shp1 struct {
	Shapes []Shape
}

func parseShp1(bs *utils.BufStack, vtx *Vtx1) (*Shp1, error) {
	count := int(bs.U16(0x08))
	shapesOff := int(bs.U32(0x0C))
	remapOff := int(bs.U32(0x10))
	names := ReadNameTable(bs, int(bs.U32(0x14)))
	attribsOff := int(bs.U32(0x18))
	matrixTableOff := int(bs.U32(0x1C))
	dlOff := int(bs.U32(0x20))
	matrixDataOff := int(bs.U32(0x24))
	packetsOff := int(bs.U32(0x28))

	shp := &Shp1{Shapes: make([]Shape, count)}
	for i := range shp.Shapes {
		remapped := i
		if remapOff != 0 {
			remapped = int(bs.U16(remapOff + i*2))
		}
		o := shapesOff + remapped*SHAPE_SIZE
		s := Shape{
			Name:       nameOr(names, i, ""),
			MatrixType: bs.U8(o),
			Radius:     bs.F32(o + 0x0C),
			BBox: utils.AABB{
				Min: mgl32.Vec3{bs.F32(o + 0x10), bs.F32(o + 0x14), bs.F32(o + 0x18)},
				Max: mgl32.Vec3{bs.F32(o + 0x1C), bs.F32(o + 0x20), bs.F32(o + 0x24)},
			},
		}
		packetCount := int(bs.U16(o + 0x02))
		attribOff := int(bs.U16(o + 0x04))
		firstMatrix := int(bs.U16(o + 0x06))
		firstPacket := int(bs.U16(o + 0x08))

		for ao := attribsOff + attribOff; ; ao += 8 {
			attrib := int(bs.U32(ao))
			if attrib == gx.GX_VA_NULL || bs.Err() != nil {
				break
			}
			format := vtx.Formats[attrib]
			format.Attrib = attrib
			format.IndexType = int(bs.U32(ao + 4))
			s.Attributes = append(s.Attributes, format)
		}

		s.Packets = make([]Packet, packetCount)
		for p := range s.Packets {
			mo := matrixDataOff + (firstMatrix+p)*8
			mtxCount := int(bs.U16(mo + 2))
			mtxFirst := int(bs.U32(mo + 4))
			table := make([]uint16, mtxCount)
			for m := range table {
				table[m] = bs.U16(matrixTableOff + (mtxFirst+m)*2)
			}

			po := packetsOff + (firstPacket+p)*8
			size := int(bs.U32(po))
			start := dlOff + int(bs.U32(po+4))
			s.Packets[p] = Packet{
				MatrixTable: table,
				DisplayList: bs.SubBuf("dl", start).SetSize(size).Raw(),
			}
		}
		if err := bs.Err(); err != nil {
			return nil, errors.Wrapf(err, "Shape %d", i)
		}
		shp.Shapes[i] = s
	}
	return shp, nil
}
