package j3d

import (
	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/utils"
)

const (
	MAGIC_J3D1 = "J3D1"
	MAGIC_J3D2 = "J3D2"

	TYPE_BMD = "bmd3"
	TYPE_BDL = "bdl4"
	TYPE_BCK = "bck1"
	TYPE_BTK = "btk1"
	TYPE_BRK = "brk1"
	TYPE_BPK = "bpk1"

	HEADER_SIZE = 0x20
)

type Chunk struct {
	FourCC string
	Offset int
	Size   int
	Buf    *utils.BufStack
}

// Container is parsed J3D header with chunk list
type Container struct {
	Magic  string
	Type   string
	Chunks []*Chunk
	Buf    *utils.BufStack
}

func ParseContainer(name string, b []byte) (*Container, error) {
	bs := utils.NewBufStack("j3d", b).SetName(name)
	c := &Container{
		Magic: bs.FourCC(0),
		Type:  bs.FourCC(4),
		Buf:   bs,
	}
	if err := bs.Err(); err != nil {
		return nil, errors.Wrapf(err, "Header")
	}
	if c.Magic != MAGIC_J3D1 && c.Magic != MAGIC_J3D2 {
		return nil, errors.Errorf("Invalid magic %q", c.Magic)
	}

	chunkCount := int(bs.U32(0x0C))
	off := HEADER_SIZE
	for i := 0; i < chunkCount && off+8 <= len(b); i++ {
		chunk := &Chunk{
			FourCC: bs.FourCC(off),
			Offset: off,
			Size:   int(bs.U32(off + 4)),
		}
		if chunk.Size < 8 {
			return nil, errors.Errorf("Chunk %q at 0x%x has invalid size 0x%x", chunk.FourCC, off, chunk.Size)
		}
		// not limited by size: texture data may follow chunk end after replacement
		chunk.Buf = bs.SubBuf(chunk.FourCC, off).SetName(chunk.FourCC)
		c.Chunks = append(c.Chunks, chunk)
		off += chunk.Size
	}
	if err := bs.Err(); err != nil {
		return nil, errors.Wrapf(err, "Chunks")
	}
	return c, nil
}

func (c *Container) Chunk(fourcc string) *Chunk {
	for _, ch := range c.Chunks {
		if ch.FourCC == fourcc {
			return ch
		}
	}
	return nil
}

// ReadNameTable reads table of u16 count, then (hash, offset) pairs
func ReadNameTable(bs *utils.BufStack, off int) []string {
	if off == 0 {
		return nil
	}
	count := int(bs.U16(off))
	names := make([]string, count)
	for i := range names {
		names[i] = bs.ZString(off + int(bs.U16(off+4+i*4+2)))
	}
	return names
}

func nameOr(names []string, i int, fallback string) string {
	if i < len(names) {
		return names[i]
	}
	return fallback
}

// absent index in MAT3 tables
const NONE16 = 0xFFFF
const NONE8 = 0xFF
