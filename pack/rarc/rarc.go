package rarc

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/pack"
	"github.com/mogaika/retro_model_browser/pack/yaz0"
	"github.com/mogaika/retro_model_browser/utils"
	"github.com/mogaika/retro_model_browser/vfs"
)

const Magic = "RARC"

const (
	HEADER_SIZE     = 0x20
	NODE_SIZE       = 0x10
	FILE_ENTRY_SIZE = 0x14
)

const (
	FLAG_FILE       = 0x01
	FLAG_DIRECTORY  = 0x02
	FLAG_COMPRESSED = 0x04
	FLAG_YAZ0       = 0x80
)

type Node struct {
	Type       string
	Name       string
	Hash       uint16
	EntryCount uint16
	FirstEntry uint32
}

type FileEntry struct {
	Id         uint16
	Hash       uint16
	Flags      uint8
	Name       string
	DataOffset uint32
	DataSize   uint32
}

func (fe *FileEntry) IsDirectory() bool {
	return fe.Flags&FLAG_DIRECTORY != 0
}

type Archive struct {
	name    string
	Nodes   []Node
	Entries []FileEntry
	data    []byte
	dataOff int
}

func NewFromData(name string, b []byte) (*Archive, error) {
	bs := utils.NewBufStack("rarc", b).SetName(name)
	if bs.FourCC(0) != Magic {
		return nil, errors.Errorf("Invalid magic %q", bs.FourCC(0))
	}

	a := &Archive{name: name}
	headerSize := int(bs.U32(0x08))
	if headerSize == 0 {
		headerSize = HEADER_SIZE
	}
	info := bs.SubBuf("info", headerSize)
	a.dataOff = headerSize + int(bs.U32(0x0C))
	dataSize := int(bs.U32(0x10))

	nodeCount := int(info.U32(0x00))
	nodeOffset := int(info.U32(0x04))
	entryCount := int(info.U32(0x08))
	entryOffset := int(info.U32(0x0C))
	stringsOffset := int(info.U32(0x14))
	if err := bs.Err(); err != nil {
		return nil, errors.Wrapf(err, "Header")
	}

	strs := info.SubBuf("strings", stringsOffset)
	// some tools write wrong string table size
	if stringsSize := int(info.U32(0x10)); stringsSize <= strs.Size() {
		strs.SetSize(stringsSize)
	}

	nodes := info.SubBuf("nodes", nodeOffset).SetSize(nodeCount * NODE_SIZE)
	a.Nodes = make([]Node, nodeCount)
	for i := range a.Nodes {
		o := i * NODE_SIZE
		a.Nodes[i] = Node{
			Type:       strings.TrimRight(nodes.FourCC(o), " \x00"),
			Name:       strs.ZString(int(nodes.U32(o + 0x04))),
			Hash:       nodes.U16(o + 0x08),
			EntryCount: nodes.U16(o + 0x0A),
			FirstEntry: nodes.U32(o + 0x0C),
		}
	}

	entries := info.SubBuf("entries", entryOffset).SetSize(entryCount * FILE_ENTRY_SIZE)
	a.Entries = make([]FileEntry, entryCount)
	for i := range a.Entries {
		o := i * FILE_ENTRY_SIZE
		a.Entries[i] = FileEntry{
			Id:         entries.U16(o),
			Hash:       entries.U16(o + 0x02),
			Flags:      entries.U8(o + 0x04),
			Name:       strs.ZString(int(entries.U16(o + 0x06))),
			DataOffset: entries.U32(o + 0x08),
			DataSize:   entries.U32(o + 0x0C),
		}
	}

	if err := bs.Err(); err != nil {
		return nil, errors.Wrapf(err, "Tables")
	}

	if a.dataOff > len(b) {
		return nil, errors.Errorf("Data offset 0x%x out of file", a.dataOff)
	}
	end := a.dataOff + dataSize
	if end > len(b) || dataSize == 0 {
		end = len(b)
	}
	a.data = b[a.dataOff:end]

	for _, n := range a.Nodes {
		if int(n.FirstEntry)+int(n.EntryCount) > len(a.Entries) {
			return nil, errors.Errorf("Node %q entries out of range", n.Name)
		}
	}
	if len(a.Nodes) == 0 {
		return nil, errors.New("Archive without root node")
	}
	return a, nil
}

func (a *Archive) entryData(fe *FileEntry) ([]byte, error) {
	start, end := int(fe.DataOffset), int(fe.DataOffset)+int(fe.DataSize)
	if end > len(a.data) {
		return nil, errors.Errorf("File %q data [0x%x:0x%x] out of archive data 0x%x", fe.Name, start, end, len(a.data))
	}
	raw := a.data[start:end]
	if fe.Flags&FLAG_COMPRESSED != 0 || yaz0.IsCompressed(raw) {
		if yaz0.IsCompressed(raw) {
			d, err := yaz0.Decompress(raw)
			return d, errors.Wrapf(err, "File %q", fe.Name)
		}
		return nil, errors.Errorf("File %q uses unsupported compression", fe.Name)
	}
	return raw, nil
}

func (a *Archive) Root() *Directory {
	return &Directory{archive: a, node: 0}
}

// vfs.Directory of archive root
func (a *Archive) Init(parent vfs.Directory) {}
func (a *Archive) Name() string             { return a.name }
func (a *Archive) IsDirectory() bool        { return true }
func (a *Archive) List() ([]string, error)  { return a.Root().List() }
func (a *Archive) Add(e vfs.Element) error  { return vfs.ErrReadOnly }
func (a *Archive) Remove(name string) error { return vfs.ErrReadOnly }
func (a *Archive) GetElement(name string) (vfs.Element, error) {
	return a.Root().GetElement(name)
}

// Find resolves slash separated path, case-insensitive
func (a *Archive) Find(path string) (vfs.Element, error) {
	return vfs.WalkPath(a.Root(), path)
}

// FileInfo is flat listing element
type FileInfo struct {
	Path string
	Size uint32
}

func (a *Archive) Files() []FileInfo {
	var result []FileInfo
	var walk func(node int, prefix string)
	walk = func(node int, prefix string) {
		n := &a.Nodes[node]
		for i := 0; i < int(n.EntryCount); i++ {
			fe := &a.Entries[int(n.FirstEntry)+i]
			if fe.Name == "." || fe.Name == ".." {
				continue
			}
			if fe.IsDirectory() {
				if int(fe.DataOffset) < len(a.Nodes) && int(fe.DataOffset) != node {
					walk(int(fe.DataOffset), prefix+fe.Name+"/")
				}
			} else {
				result = append(result, FileInfo{Path: prefix + fe.Name, Size: fe.DataSize})
			}
		}
	}
	walk(0, "")
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result
}

type Directory struct {
	archive *Archive
	node    int
}

func (d *Directory) Init(parent vfs.Directory) {}
func (d *Directory) Name() string             { return d.archive.Nodes[d.node].Name }
func (d *Directory) IsDirectory() bool        { return true }
func (d *Directory) Add(e vfs.Element) error  { return vfs.ErrReadOnly }
func (d *Directory) Remove(name string) error { return vfs.ErrReadOnly }

func (d *Directory) entries() []FileEntry {
	n := &d.archive.Nodes[d.node]
	return d.archive.Entries[n.FirstEntry : n.FirstEntry+uint32(n.EntryCount)]
}

func (d *Directory) List() ([]string, error) {
	var names []string
	for _, fe := range d.entries() {
		if fe.Name != "." && fe.Name != ".." {
			names = append(names, fe.Name)
		}
	}
	return names, nil
}

func (d *Directory) GetElement(name string) (vfs.Element, error) {
	for i, fe := range d.entries() {
		if fe.Name == "." || fe.Name == ".." || !strings.EqualFold(fe.Name, name) {
			continue
		}
		if fe.IsDirectory() {
			if int(fe.DataOffset) >= len(d.archive.Nodes) {
				return nil, errors.Errorf("Directory %q node index out of range", fe.Name)
			}
			return &Directory{archive: d.archive, node: int(fe.DataOffset)}, nil
		}
		data, err := d.archive.entryData(&d.entries()[i])
		if err != nil {
			return nil, err
		}
		return vfs.NewMemoryFile(fe.Name, data), nil
	}
	return nil, errors.Errorf("%q not found in %q", name, d.Name())
}

type Ajax struct {
	Name  string
	Nodes []Node
	Files []FileInfo
}

func (a *Archive) Marshal(src utils.ResourceSource) (interface{}, error) {
	return &Ajax{Name: a.name, Nodes: a.Nodes, Files: a.Files()}, nil
}

func init() {
	pack.SetMagicHandler(Magic, func(src utils.ResourceSource, data []byte) (interface{}, error) {
		return NewFromData(src.Name(), data)
	})
	pack.SetHandler(".arc", func(src utils.ResourceSource, data []byte) (interface{}, error) {
		return NewFromData(src.Name(), data)
	})
}
