package utils

import "io"

type ResourceSource interface {
	// base name, extension selects handler
	Name() string
	// slash separated path from data root, archives included
	Path() string
	Size() int64
	Save(in *io.SectionReader) error
}
