package rarc

import (
	"encoding/binary"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/retro_model_browser/pack"
	"github.com/mogaika/retro_model_browser/utils"
	"github.com/mogaika/retro_model_browser/vfs"
)

type testEntry struct {
	name  string
	flags uint8
	data  []byte
	node  uint32
}

type testNode struct {
	fourcc  string
	name    string
	entries []testEntry
}

// buildArchive lays out header, info, nodes, entries, strings, data
func buildArchive(nodes []testNode) []byte {
	strs := []byte{}
	addString := func(s string) uint32 {
		off := uint32(len(strs))
		strs = append(strs, []byte(s)...)
		strs = append(strs, 0)
		return off
	}
	addString(".")
	addString("..")

	var nodeBuf, entryBuf, dataBuf []byte
	entryIndex := uint32(0)
	for _, n := range nodes {
		nb := make([]byte, NODE_SIZE)
		copy(nb, n.fourcc)
		binary.BigEndian.PutUint32(nb[4:], addString(n.name))
		binary.BigEndian.PutUint16(nb[8:], utils.RarcNameHash(n.name))
		binary.BigEndian.PutUint16(nb[10:], uint16(len(n.entries)))
		binary.BigEndian.PutUint32(nb[12:], entryIndex)
		nodeBuf = append(nodeBuf, nb...)

		for i, e := range n.entries {
			eb := make([]byte, FILE_ENTRY_SIZE)
			id := uint16(i)
			if e.flags&FLAG_DIRECTORY != 0 {
				id = 0xFFFF
			}
			binary.BigEndian.PutUint16(eb[0:], id)
			binary.BigEndian.PutUint16(eb[2:], utils.RarcNameHash(e.name))
			eb[4] = e.flags
			binary.BigEndian.PutUint16(eb[6:], uint16(addString(e.name)))
			if e.flags&FLAG_DIRECTORY != 0 {
				binary.BigEndian.PutUint32(eb[8:], e.node)
				binary.BigEndian.PutUint32(eb[12:], NODE_SIZE)
			} else {
				binary.BigEndian.PutUint32(eb[8:], uint32(len(dataBuf)))
				binary.BigEndian.PutUint32(eb[12:], uint32(len(e.data)))
				dataBuf = append(dataBuf, e.data...)
				for len(dataBuf)%0x20 != 0 {
					dataBuf = append(dataBuf, 0)
				}
			}
			entryBuf = append(entryBuf, eb...)
		}
		entryIndex += uint32(len(n.entries))
	}

	info := make([]byte, 0x20)
	nodeOff := uint32(0x20)
	entryOff := nodeOff + uint32(len(nodeBuf))
	strOff := entryOff + uint32(len(entryBuf))
	binary.BigEndian.PutUint32(info[0x00:], uint32(len(nodes)))
	binary.BigEndian.PutUint32(info[0x04:], nodeOff)
	binary.BigEndian.PutUint32(info[0x08:], entryIndex)
	binary.BigEndian.PutUint32(info[0x0C:], entryOff)
	binary.BigEndian.PutUint32(info[0x10:], uint32(len(strs)))
	binary.BigEndian.PutUint32(info[0x14:], strOff)

	body := append(append(append(info, nodeBuf...), entryBuf...), strs...)
	for len(body)%0x20 != 0 {
		body = append(body, 0)
	}

	header := make([]byte, HEADER_SIZE)
	copy(header, Magic)
	binary.BigEndian.PutUint32(header[0x08:], HEADER_SIZE)
	binary.BigEndian.PutUint32(header[0x0C:], uint32(len(body)))
	binary.BigEndian.PutUint32(header[0x10:], uint32(len(dataBuf)))

	out := append(append(header, body...), dataBuf...)
	binary.BigEndian.PutUint32(out[0x04:], uint32(len(out)))
	return out
}

func yaz0Literal(data []byte) []byte {
	out := make([]byte, 0x10)
	copy(out, "Yaz0")
	binary.BigEndian.PutUint32(out[4:], uint32(len(data)))
	for i := 0; i < len(data); i += 8 {
		out = append(out, 0xFF)
		end := i + 8
		if end > len(data) {
			end = len(data)
		}
		out = append(out, data[i:end]...)
	}
	return out
}

func testArchive() []byte {
	return buildArchive([]testNode{
		{"ROOT", "stage", []testEntry{
			{name: "Model.bmd", flags: FLAG_FILE, data: []byte("J3D2bmd3")},
			{name: "packed.txt", flags: FLAG_FILE | FLAG_COMPRESSED | FLAG_YAZ0, data: yaz0Literal([]byte("hello yaz0"))},
			{name: "bdl", flags: FLAG_DIRECTORY, node: 1},
			{name: ".", flags: FLAG_DIRECTORY, node: 0},
			{name: "..", flags: FLAG_DIRECTORY, node: 0xFFFFFFFF},
		}},
		{"BDL ", "bdl", []testEntry{
			{name: "vr_sky.bdl", flags: FLAG_FILE, data: []byte("J3D2bdl4")},
			{name: ".", flags: FLAG_DIRECTORY, node: 1},
			{name: "..", flags: FLAG_DIRECTORY, node: 0},
		}},
	})
}

func TestParseArchive(t *testing.T) {
	a, err := NewFromData("Stage.arc", testArchive())
	require.NoError(t, err)

	require.Len(t, a.Nodes, 2)
	assert.Equal(t, "ROOT", a.Nodes[0].Type)
	assert.Equal(t, "BDL", a.Nodes[1].Type)
	assert.Equal(t, utils.RarcNameHash("bdl"), a.Nodes[1].Hash)

	list, err := a.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"Model.bmd", "packed.txt", "bdl"}, list)

	assert.Equal(t, []FileInfo{
		{Path: "Model.bmd", Size: 8},
		{Path: "bdl/vr_sky.bdl", Size: 8},
		{Path: "packed.txt", Size: uint32(len(yaz0Literal([]byte("hello yaz0"))))},
	}, a.Files())
}

func TestNodeTypePadding(t *testing.T) {
	// some packers pad node type with zeroes instead of spaces
	a, err := NewFromData("x.arc", buildArchive([]testNode{
		{"SCN", "x", []testEntry{
			{name: ".", flags: FLAG_DIRECTORY, node: 0},
			{name: "..", flags: FLAG_DIRECTORY, node: 0xFFFFFFFF},
		}},
	}))
	require.NoError(t, err)
	require.Len(t, a.Nodes, 1)
	assert.Equal(t, "SCN", a.Nodes[0].Type)
}

func TestFindCaseInsensitive(t *testing.T) {
	a, err := NewFromData("Stage.arc", testArchive())
	require.NoError(t, err)

	e, err := a.Find("BDL/VR_SKY.BDL")
	require.NoError(t, err)
	data, err := vfs.ReadFile(e.(vfs.File))
	require.NoError(t, err)
	assert.Equal(t, "J3D2bdl4", string(data))

	e, err = a.Find("packed.txt")
	require.NoError(t, err)
	data, err = vfs.ReadFile(e.(vfs.File))
	require.NoError(t, err)
	assert.Equal(t, "hello yaz0", string(data))

	_, err = a.Find("bdl/missing.bdl")
	assert.Error(t, err)
}

func TestInvalidArchive(t *testing.T) {
	_, err := NewFromData("x", []byte("RARC"))
	assert.Error(t, err)
	_, err = NewFromData("x", []byte("CRAR0000"))
	assert.Error(t, err)
}

func TestOpenThroughPack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "Stage.arc"), yaz0Literal(testArchive()), 0666))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0777))

	p := pack.NewPack(vfs.NewDirectoryDriver(dir))
	inst, src, err := p.Open("Stage.arc")
	require.NoError(t, err)
	assert.IsType(t, &Archive{}, inst)
	assert.Equal(t, "Stage.arc", src.Path())

	list, err := p.List("Stage.arc/bdl")
	require.NoError(t, err)
	assert.Equal(t, []string{"vr_sky.bdl"}, list)

	raw, _, err := p.ReadRaw("Stage.arc/bdl/vr_sky.bdl")
	require.NoError(t, err)
	assert.Equal(t, "J3D2bdl4", string(raw))
}
