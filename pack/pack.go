package pack

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/utils"
	"github.com/mogaika/retro_model_browser/vfs"
)

type FileLoader func(src utils.ResourceSource, data []byte) (interface{}, error)

var gHandlers = make(map[string]FileLoader)
var gMagicHandlers = make(map[string]FileLoader)

func SetHandler(format string, ldr FileLoader) {
	gHandlers[strings.ToUpper(format)] = ldr
}

// SetMagicHandler registers loader for payloads starting with magic.
// Magic match wins over extension.
func SetMagicHandler(magic string, ldr FileLoader) {
	gMagicHandlers[magic] = ldr
}

// AliasHandler makes ext decoded by loader registered for target
func AliasHandler(ext, target string) error {
	h, ok := gHandlers[strings.ToUpper(target)]
	if !ok {
		return errors.Errorf("No handler for %q to alias %q", target, ext)
	}
	SetHandler(ext, h)
	return nil
}

func findMagicHandler(data []byte) (FileLoader, bool) {
	if len(data) < 4 {
		return nil, false
	}
	h, ok := gMagicHandlers[string(data[:4])]
	return h, ok
}

func CallHandler(s utils.ResourceSource, data []byte) (interface{}, error) {
	if h, found := findMagicHandler(data); found {
		return h(s, data)
	}
	return CallExtensionHandler(s, data)
}

func HasExtensionHandler(name string) bool {
	_, ok := gHandlers[strings.ToUpper(path.Ext(name))]
	return ok
}

// CallExtensionHandler skips magic lookup, used by loaders rejecting weak magic match
func CallExtensionHandler(s utils.ResourceSource, data []byte) (interface{}, error) {
	ext := strings.ToUpper(path.Ext(s.Name()))
	if h, found := gHandlers[ext]; found {
		return h(s, data)
	}
	return nil, errors.Errorf("Cannot find handler for %q extension", ext)
}

// Marshaler is implemented by instances shown in browser
type Marshaler interface {
	Marshal(src utils.ResourceSource) (interface{}, error)
}

// HttpActioner is implemented by instances with additional actions (exports etc)
type HttpActioner interface {
	HttpAction(src utils.ResourceSource, w http.ResponseWriter, r *http.Request, action string) error
}

type PackResSrc struct {
	pf   vfs.File
	path string
	pack *Pack
}

func (s *PackResSrc) Name() string { return s.pf.Name() }
func (s *PackResSrc) Path() string { return s.path }
func (s *PackResSrc) Size() int64  { return s.pf.Size() }

func (s *PackResSrc) Save(in *io.SectionReader) error {
	if err := vfs.OpenFileAndCopy(s.pf, in); err != nil {
		return errors.Wrapf(err, "Cannot save %q", s.path)
	}
	if s.pack != nil {
		s.pack.Cache.Invalidate(s.path)
	}
	return nil
}

// MemorySource is used for payloads produced by other handlers,
// decompressed Yaz0 content for example
type MemorySource struct {
	Parent utils.ResourceSource
	Data   []byte
}

func (s *MemorySource) Name() string { return s.Parent.Name() }
func (s *MemorySource) Path() string { return s.Parent.Path() }
func (s *MemorySource) Size() int64  { return int64(len(s.Data)) }
func (s *MemorySource) Save(in *io.SectionReader) error {
	return errors.Wrapf(vfs.ErrReadOnly, "Cannot save %q", s.Parent.Path())
}

// Pack resolves paths from data root through directories and archives
type Pack struct {
	Root  vfs.Directory
	Cache *InstanceCache
}

func NewPack(root vfs.Directory) *Pack {
	return &Pack{
		Root:  root,
		Cache: NewInstanceCache(),
	}
}

// Open returns decoded instance for file, vfs.Directory for directories.
// Segments following an archive file are resolved inside the archive.
func (p *Pack) Open(p_ string) (interface{}, utils.ResourceSource, error) {
	segments := vfs.SplitPath(p_)
	key := strings.Join(segments, "/")

	if e, ok := p.Cache.Get(key); ok {
		return e.Instance, e.Source, nil
	}

	var current vfs.Element = p.Root
	for i, segment := range segments {
		dir, isDir := current.(vfs.Directory)
		if !isDir {
			inst, _, err := p.Open(strings.Join(segments[:i], "/"))
			if err != nil {
				return nil, nil, err
			}
			if dir, isDir = inst.(vfs.Directory); !isDir {
				return nil, nil, errors.Errorf("%q is not an archive", strings.Join(segments[:i], "/"))
			}
		}

		next, err := dir.GetElement(segment)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "Cannot resolve %q", strings.Join(segments[:i+1], "/"))
		}
		current = next
	}

	if d, ok := current.(vfs.Directory); ok {
		return d, nil, nil
	}

	f := current.(vfs.File)
	data, err := vfs.ReadFile(f)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Cannot read %q", key)
	}

	src := &PackResSrc{pf: f, path: key, pack: p}
	inst, err := CallHandler(src, data)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Handler error for %q", key)
	}

	log.Printf("[pack] Loaded %q as %T", key, inst)
	p.Cache.Put(key, &CacheEntry{Instance: inst, Source: src})
	return inst, src, nil
}

// ReadRaw returns file bytes without calling handlers
func (p *Pack) ReadRaw(p_ string) ([]byte, string, error) {
	segments := vfs.SplitPath(p_)
	if len(segments) == 0 {
		return nil, "", errors.New("Empty path")
	}
	parent, _, err := p.Open(strings.Join(segments[:len(segments)-1], "/"))
	if err != nil {
		return nil, "", err
	}
	dir, ok := parent.(vfs.Directory)
	if !ok {
		return nil, "", errors.Errorf("%q is not a directory", p_)
	}
	f, err := vfs.DirectoryGetFile(dir, segments[len(segments)-1])
	if err != nil {
		return nil, "", err
	}
	data, err := vfs.ReadFile(f)
	return data, f.Name(), err
}

// List returns names of directory or archive elements
func (p *Pack) List(p_ string) ([]string, error) {
	inst, _, err := p.Open(p_)
	if err != nil {
		return nil, err
	}
	dir, ok := inst.(vfs.Directory)
	if !ok {
		return nil, errors.Errorf("%q is not a directory", p_)
	}
	return dir.List()
}

func HasMagic(data []byte, magic string) bool {
	return bytes.HasPrefix(data, []byte(magic))
}

// Save replaces file content and invalidates cached instances of it.
// Files inside archives are read-only.
func (p *Pack) Save(p_ string, data []byte) error {
	segments := vfs.SplitPath(p_)
	if len(segments) == 0 {
		return errors.New("Empty path")
	}
	parent, _, err := p.Open(strings.Join(segments[:len(segments)-1], "/"))
	if err != nil {
		return err
	}
	dir, ok := parent.(vfs.Directory)
	if !ok {
		return errors.Errorf("%q is not a directory", p_)
	}
	f, err := vfs.DirectoryGetFile(dir, segments[len(segments)-1])
	if err != nil {
		return err
	}
	src := &PackResSrc{pf: f, path: strings.Join(segments, "/"), pack: p}
	return src.Save(io.NewSectionReader(bytes.NewReader(data), 0, int64(len(data))))
}
