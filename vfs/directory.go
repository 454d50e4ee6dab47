package vfs

import (
	"io"
	"io/ioutil"
	"os"
	path_ "path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DirectoryDriver exposes os directory as vfs.Directory
type DirectoryDriver struct {
	path string
}

func NewDirectoryDriver(path string) *DirectoryDriver {
	return &DirectoryDriver{path: path}
}

func (dd *DirectoryDriver) Init(parent Directory) {}

func (dd *DirectoryDriver) Name() string {
	return filepath.Base(dd.path)
}

func (dd *DirectoryDriver) IsDirectory() bool {
	return true
}

func (dd *DirectoryDriver) Path() string {
	return dd.path
}

func (dd *DirectoryDriver) List() ([]string, error) {
	fileinfos, err := ioutil.ReadDir(dd.path)
	if err != nil {
		return nil, errors.Wrapf(err, "Error getting directory %q info", dd.path)
	}
	result := make([]string, 0, len(fileinfos))
	for _, f := range fileinfos {
		if strings.HasPrefix(f.Name(), ".") {
			continue
		}
		result = append(result, f.Name())
	}
	sort.Strings(result)
	return result, nil
}

func (dd *DirectoryDriver) childPath(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", errors.Errorf("Invalid element name %q", name)
	}
	return filepath.Join(dd.path, name), nil
}

func (dd *DirectoryDriver) GetElement(name string) (Element, error) {
	newPath, err := dd.childPath(name)
	if err != nil {
		return nil, err
	}
	s, err := os.Stat(newPath)
	if err != nil {
		return nil, errors.Wrapf(err, "Stat error")
	}
	var e Element
	if s.IsDir() {
		e = NewDirectoryDriver(newPath)
	} else {
		e = NewDirectoryDriverFile(newPath)
	}
	e.Init(dd)
	return e, nil
}

func (dd *DirectoryDriver) Add(e Element) error {
	path, err := dd.childPath(e.Name())
	if err != nil {
		return err
	}
	if e.IsDirectory() {
		return os.Mkdir(path, os.ModePerm)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return errors.Wrapf(err, "file %q creation failure", path)
	}
	return f.Close()
}

func (dd *DirectoryDriver) Remove(name string) error {
	path, err := dd.childPath(name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

type DirectoryDriverFile struct {
	path string
	f    *os.File
}

func NewDirectoryDriverFile(path string) *DirectoryDriverFile {
	return &DirectoryDriverFile{
		path: path,
	}
}

func (ddf *DirectoryDriverFile) Init(parent Directory) {
	if dd, ok := parent.(*DirectoryDriver); ok {
		ddf.path = filepath.Join(dd.path, path_.Base(filepath.ToSlash(ddf.path)))
	}
}

func (ddf *DirectoryDriverFile) Name() string {
	return filepath.Base(ddf.path)
}

func (ddf *DirectoryDriverFile) Path() string {
	return ddf.path
}

func (ddf *DirectoryDriverFile) IsDirectory() bool {
	return false
}

func (ddf *DirectoryDriverFile) Size() int64 {
	if stat, err := os.Stat(ddf.path); err != nil {
		return 0
	} else {
		return stat.Size()
	}
}

func (ddf *DirectoryDriverFile) Open(readonly bool) error {
	if ddf.f != nil {
		return errors.Errorf("File %q already opened", ddf.path)
	}
	flags := os.O_RDWR
	if readonly {
		flags = os.O_RDONLY
	}
	f, err := os.OpenFile(ddf.path, flags, 0)
	if err != nil {
		return errors.Wrapf(err, "os.Open(%q)", ddf.path)
	}
	ddf.f = f
	return nil
}

func (ddf *DirectoryDriverFile) Close() error {
	if ddf.f != nil {
		err := ddf.f.Close()
		ddf.f = nil
		if err != nil {
			return errors.Wrapf(err, "os.File.Close()")
		}
	}
	return nil
}

func (ddf *DirectoryDriverFile) Reader() (*io.SectionReader, error) {
	if ddf.f == nil {
		return nil, errors.New("First you need to open file")
	}
	return io.NewSectionReader(ddf.f, 0, ddf.Size()), nil
}

func (ddf *DirectoryDriverFile) ReadAt(b []byte, off int64) (n int, err error) {
	if ddf.f == nil {
		return 0, errors.New("First you need to open file")
	}
	return ddf.f.ReadAt(b, off)
}

// Copy replaces file content through temp file in same directory
func (ddf *DirectoryDriverFile) Copy(src io.Reader) error {
	ddf.Close()

	tmp, err := ioutil.TempFile(filepath.Dir(ddf.path), "."+filepath.Base(ddf.path)+".*")
	if err != nil {
		return errors.Wrapf(err, "Cannot create temp file for %q", ddf.path)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "io.Copy(...)")
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), ddf.path)
}

func (ddf *DirectoryDriverFile) WriteAt(b []byte, off int64) (n int, err error) {
	if ddf.f == nil {
		return 0, errors.New("First you need to open file")
	}
	return ddf.f.WriteAt(b, off)
}

func (ddf *DirectoryDriverFile) Sync() error {
	if ddf.f == nil {
		return errors.New("First you need to open file")
	}
	return ddf.f.Sync()
}
