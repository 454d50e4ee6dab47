package vfs

import (
	"io"
	"io/ioutil"
	"strings"

	"github.com/pkg/errors"
)

func OpenFileAndGetReader(f File, readonly bool) (*io.SectionReader, error) {
	if err := f.Open(readonly); err != nil {
		return nil, errors.Wrapf(err, "Cannot open file %q", f.Name())
	}
	r, err := f.Reader()
	if err != nil {
		defer f.Close()
		return nil, errors.Wrapf(err, "Cannot get file %q reader", f.Name())
	}
	return r, nil
}

func OpenFileAndCopy(f File, src io.Reader) error {
	if err := f.Open(false); err != nil {
		return errors.Wrapf(err, "Cannot open file %q", f.Name())
	}
	defer f.Close()
	if err := f.Copy(src); err != nil {
		return errors.Wrapf(err, "Cannot copy data to file %q", f.Name())
	}
	return nil
}

// ReadFile returns whole file content
func ReadFile(f File) ([]byte, error) {
	if mf, ok := f.(*MemoryFile); ok {
		return mf.Data(), nil
	}
	r, err := OpenFileAndGetReader(f, true)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ioutil.ReadAll(r)
}

func DirectoryGetFile(d Directory, name string) (File, error) {
	f, err := d.GetElement(name)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot open file %q", name)
	}
	if f.IsDirectory() {
		return nil, errors.Errorf("File %q is directory, not a file!", name)
	}
	return f.(File), nil
}

func SplitPath(p string) []string {
	parts := strings.Split(strings.ReplaceAll(p, "\\", "/"), "/")
	result := parts[:0]
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}

// WalkPath resolves nested path through directories only
func WalkPath(d Directory, p string) (Element, error) {
	var e Element = d
	for _, segment := range SplitPath(p) {
		dir, ok := e.(Directory)
		if !ok {
			return nil, errors.Errorf("%q is not a directory", e.Name())
		}
		next, err := dir.GetElement(segment)
		if err != nil {
			return nil, errors.Wrapf(err, "Cannot resolve %q", segment)
		}
		e = next
	}
	return e, nil
}
