package scene

import (
	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/pack/f3dex"
	"github.com/mogaika/retro_model_browser/pack/j3d"
	"github.com/mogaika/retro_model_browser/render"
	"github.com/mogaika/retro_model_browser/vfs"
)

type InstanceOptions struct {
	// bck, btk, brk or bpk instances bound to models
	Animations []interface{}
	// stage actor layer and environment
	Layer     int
	TimeOfDay float32
	Actors    ActorFactory
}

// NewRenderable creates drawable for decoded instance at path.
// Archives are loaded as stages, room archives are resolved through o.
func NewRenderable(device render.Device, o Opener, p string, inst interface{}, opts *InstanceOptions) (Renderable, error) {
	if opts == nil {
		opts = &InstanceOptions{}
	}
	switch v := inst.(type) {
	case *j3d.Model:
		mi, err := NewModelView(device, v)
		if err != nil {
			return nil, err
		}
		for _, a := range opts.Animations {
			if !mi.BindAnimation(a) {
				mi.Destroy(device)
				return nil, errors.Errorf("%T is not an animation", a)
			}
		}
		return mi, nil
	case *f3dex.Geo:
		return NewGeoView(device, v), nil
	case vfs.Directory:
		return LoadStage(device, o, p, opts.Actors, opts.Layer, opts.TimeOfDay)
	}
	return nil, errors.Errorf("%T cannot be rendered", inst)
}
