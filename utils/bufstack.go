package utils

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// BufStack is a bounded cursor over a byte slice. Out of range reads
// return zero values and latch the first error, which is reported by Err.
type BufStack struct {
	parent         *BufStack
	childs         []*BufStack
	buf            []byte
	order          binary.ByteOrder
	relativeOffset int
	absoluteOffset int
	size           int
	pos            int
	kind           string
	name           string
	err            error
}

func NewBufStack(kind string, b []byte) *BufStack {
	return &BufStack{
		buf:   b,
		size:  len(b),
		kind:  kind,
		order: binary.BigEndian,
	}
}

func (bs *BufStack) addChild(childBs *BufStack) {
	index := sort.Search(len(bs.childs), func(i int) bool {
		return bs.childs[i].relativeOffset > childBs.relativeOffset
	})
	bs.childs = append(bs.childs, nil)
	copy(bs.childs[index+1:], bs.childs[index:])
	bs.childs[index] = childBs
}

func (bs *BufStack) fail(format string, args ...interface{}) {
	if bs.err == nil {
		bs.err = errors.Errorf("%s: %s", bs.String(), fmt.Sprintf(format, args...))
	}
}

// SubBuf creates child cursor starting at offset relative to bs.
// Child inherits byte order.
func (bs *BufStack) SubBuf(kind string, offset int) *BufStack {
	childBs := &BufStack{
		parent:         bs,
		relativeOffset: offset,
		absoluteOffset: bs.absoluteOffset + offset,
		kind:           kind,
		order:          bs.order,
	}
	if offset < 0 || offset > len(bs.buf) {
		childBs.buf = nil
		childBs.fail("sub buffer offset 0x%x out of parent range 0x%x", offset, len(bs.buf))
		bs.fail("sub buffer %q at 0x%x out of range", kind, offset)
	} else {
		childBs.buf = bs.buf[offset:]
		childBs.size = len(childBs.buf)
	}
	bs.addChild(childBs)
	return childBs
}

func (bs *BufStack) SubBufFollowing(kind string) *BufStack {
	if bs.parent == nil {
		return bs.SubBuf(kind, bs.size)
	}
	return bs.parent.SubBuf(kind, bs.relativeOffset+bs.size)
}

func (bs *BufStack) SetName(name string) *BufStack {
	bs.name = name
	return bs
}

func (bs *BufStack) SetSize(size int) *BufStack {
	if size < 0 || size > len(bs.buf) {
		bs.fail("size 0x%x exceeds available 0x%x", size, len(bs.buf))
		size = len(bs.buf)
	}
	bs.size = size
	return bs
}

func (bs *BufStack) LittleEndian() *BufStack {
	bs.order = binary.LittleEndian
	return bs
}

func (bs *BufStack) BigEndian() *BufStack {
	bs.order = binary.BigEndian
	return bs
}

func (bs *BufStack) Order() binary.ByteOrder {
	return bs.order
}

// Err returns first error of this buffer or any of its childs
func (bs *BufStack) Err() error {
	if bs.err != nil {
		return bs.err
	}
	for _, c := range bs.childs {
		if err := c.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (bs *BufStack) Name() string           { return bs.name }
func (bs *BufStack) Size() int              { return bs.size }
func (bs *BufStack) Kind() string           { return bs.kind }
func (bs *BufStack) Parent() *BufStack      { return bs.parent }
func (bs *BufStack) RelativeOffset() int    { return bs.relativeOffset }
func (bs *BufStack) AbsoluteOffset() int    { return bs.absoluteOffset }
func (bs *BufStack) Pos() int               { return bs.pos }
func (bs *BufStack) Remaining() int         { return bs.size - bs.pos }
func (bs *BufStack) Seek(pos int) *BufStack { bs.pos = pos; return bs }

func (bs *BufStack) String() string {
	return fmt.Sprintf("buf<%v>(%v)[o:0x%x,s:0x%x,ao:0x%x,ae:0x%x]",
		bs.kind, bs.name, bs.relativeOffset, bs.size, bs.absoluteOffset, bs.absoluteOffset+bs.size)
}

func (bs *BufStack) StringChain() string {
	s := bs.String()
	if bs.parent != nil {
		s += fmt.Sprintf("::%s", bs.parent.StringChain())
	}
	return s
}

func (bs *BufStack) stringTree(pad int) string {
	sPad := ""
	for i := 0; i < pad; i++ {
		sPad += ".  "
	}
	s := sPad + bs.String() + "\n"
	pos := 0
	for i, child := range bs.childs {
		if child.relativeOffset > pos {
			s += fmt.Sprintf("%s.  gap [o:0x%x,s:0x%x]\n", sPad, pos, child.relativeOffset-pos)
		}
		s += child.stringTree(pad + 1)
		end := child.relativeOffset + child.size
		if i+1 < len(bs.childs) && end > bs.childs[i+1].relativeOffset {
			s += fmt.Sprintf("%s. [OVERLAP]\n", sPad)
		}
		if end > pos {
			pos = end
		}
	}
	return s
}

// StringTree lists every sub buffer created, used by dump action
func (bs *BufStack) StringTree() string {
	return bs.stringTree(0)
}

func (bs *BufStack) Raw() []byte {
	return bs.buf[:bs.size]
}

func (bs *BufStack) slice(off, amount int) []byte {
	if amount < 0 || off < 0 || off+amount > bs.size {
		bs.fail("read 0x%x bytes at 0x%x out of range", amount, off)
		return nil
	}
	return bs.buf[off : off+amount]
}

// Read returns nil when out of range
func (bs *BufStack) Read(amount int) []byte {
	b := bs.slice(bs.pos, amount)
	if b != nil {
		bs.pos += amount
	}
	return b
}

func (bs *BufStack) Skip(amount int) {
	bs.pos += amount
	if bs.pos > bs.size {
		bs.fail("skipped over buf to 0x%x", bs.pos)
		bs.pos = bs.size
	}
}

func (bs *BufStack) U8(off int) byte {
	if b := bs.slice(off, 1); b != nil {
		return b[0]
	}
	return 0
}

func (bs *BufStack) U16(off int) uint16 {
	if b := bs.slice(off, 2); b != nil {
		return bs.order.Uint16(b)
	}
	return 0
}

func (bs *BufStack) U32(off int) uint32 {
	if b := bs.slice(off, 4); b != nil {
		return bs.order.Uint32(b)
	}
	return 0
}

func (bs *BufStack) S8(off int) int8   { return int8(bs.U8(off)) }
func (bs *BufStack) S16(off int) int16 { return int16(bs.U16(off)) }
func (bs *BufStack) S32(off int) int32 { return int32(bs.U32(off)) }
func (bs *BufStack) F32(off int) float32 {
	return math.Float32frombits(bs.U32(off))
}

func (bs *BufStack) ReadU8() byte {
	v := bs.U8(bs.pos)
	bs.pos++
	return v
}

func (bs *BufStack) ReadU16() uint16 {
	v := bs.U16(bs.pos)
	bs.pos += 2
	return v
}

func (bs *BufStack) ReadU32() uint32 {
	v := bs.U32(bs.pos)
	bs.pos += 4
	return v
}

func (bs *BufStack) ReadS16() int16  { return int16(bs.ReadU16()) }
func (bs *BufStack) ReadS32() int32  { return int32(bs.ReadU32()) }
func (bs *BufStack) ReadF32() float32 { return math.Float32frombits(bs.ReadU32()) }

func (bs *BufStack) ReadStringBuffer(size int) string {
	return BytesToString(bs.Read(size))
}

// ZString reads zero-terminated string at offset without moving cursor
func (bs *BufStack) ZString(off int) string {
	if off < 0 || off >= bs.size {
		bs.fail("string at 0x%x out of range", off)
		return ""
	}
	raw := bs.buf[off:bs.size]
	return BytesToString(raw[:BytesStringLength(raw)])
}

func (bs *BufStack) FourCC(off int) string {
	if b := bs.slice(off, 4); b != nil {
		return string(b)
	}
	return ""
}
