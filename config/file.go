package config

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Thumbnail struct {
	Size        int `yaml:"size"`
	Supersample int `yaml:"supersample"`
}

type File struct {
	Listen    string    `yaml:"listen"`
	DataDir   string    `yaml:"data_dir"`
	WebDir    string    `yaml:"web_dir"`
	Game      string    `yaml:"game"`
	Encoding  string    `yaml:"encoding"`
	Viewport  Viewport  `yaml:"viewport"`
	Thumbnail Thumbnail `yaml:"thumbnail"`
	TimeOfDay float32   `yaml:"time_of_day"`
	Passes    []string  `yaml:"passes"`
	// extension aliases, ".bmt": ".bmd" decodes bmt files as models
	Handlers map[string]string `yaml:"handlers"`
	// actor name to model path, actors without entry are not drawn
	Actors map[string]string `yaml:"actors"`
}

func DefaultFile() *File {
	return &File{
		Listen:   ":8000",
		WebDir:   "web",
		Game:     "auto",
		Encoding: ShiftJIS,
		Viewport: Viewport{Width: 1280, Height: 720},
		Thumbnail: Thumbnail{
			Size:        256,
			Supersample: 2,
		},
		TimeOfDay: 12,
		Passes:    []string{"skybox", "opaque", "indirect", "transparent"},
	}
}

func ParseFile(data []byte) (*File, error) {
	f := DefaultFile()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, errors.Wrapf(err, "Failed to unmarshal config")
	}
	def := DefaultFile()
	if f.Viewport.Width <= 0 || f.Viewport.Height <= 0 {
		f.Viewport = def.Viewport
	}
	if f.Thumbnail.Size <= 0 {
		f.Thumbnail.Size = def.Thumbnail.Size
	}
	if f.Thumbnail.Supersample <= 0 {
		f.Thumbnail.Supersample = 1
	}
	if len(f.Passes) == 0 {
		f.Passes = def.Passes
	}
	return f, nil
}

func LoadFile(path string) (*File, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot read config %q", path)
	}
	return ParseFile(data)
}

// Applies game and encoding settings globally
func (f *File) Apply() error {
	g, err := ParseGame(f.Game)
	if err != nil {
		return err
	}
	SetGame(g)
	if f.Encoding != "" {
		if err := SetEncoding(f.Encoding); err != nil {
			return err
		}
	}
	return nil
}

var current = DefaultFile()

func Current() *File {
	return current
}

func SetCurrent(f *File) {
	current = f
}
