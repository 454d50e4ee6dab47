package vfs

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// MemoryFile is read-only file backed by byte slice.
// Used for archive members and decompressed payloads.
type MemoryFile struct {
	name   string
	data   []byte
	opened bool
}

func NewMemoryFile(name string, data []byte) *MemoryFile {
	return &MemoryFile{name: name, data: data}
}

func (mf *MemoryFile) Init(parent Directory) {}
func (mf *MemoryFile) Name() string          { return mf.name }
func (mf *MemoryFile) IsDirectory() bool     { return false }
func (mf *MemoryFile) Size() int64           { return int64(len(mf.data)) }
func (mf *MemoryFile) Data() []byte          { return mf.data }

func (mf *MemoryFile) Open(readonly bool) error {
	if !readonly {
		return ErrReadOnly
	}
	mf.opened = true
	return nil
}

func (mf *MemoryFile) Close() error {
	mf.opened = false
	return nil
}

func (mf *MemoryFile) Reader() (*io.SectionReader, error) {
	return io.NewSectionReader(bytes.NewReader(mf.data), 0, int64(len(mf.data))), nil
}

func (mf *MemoryFile) ReadAt(b []byte, off int64) (int, error) {
	return bytes.NewReader(mf.data).ReadAt(b, off)
}

func (mf *MemoryFile) Copy(src io.Reader) error {
	return errors.Wrapf(ErrReadOnly, "Cannot replace %q", mf.name)
}

func (mf *MemoryFile) WriteAt(b []byte, off int64) (int, error) {
	return 0, ErrReadOnly
}
