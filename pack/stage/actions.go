package stage

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/config"
	"github.com/mogaika/retro_model_browser/pack"
	"github.com/mogaika/retro_model_browser/utils"
	"github.com/mogaika/retro_model_browser/webutils"
)

type AjaxLayer struct {
	Layer  int
	Actors int
}

type Ajax struct {
	*File
	Layers []AjaxLayer
}

func (f *File) Marshal(src utils.ResourceSource) (interface{}, error) {
	counts := make(map[int]int)
	for _, a := range f.Actors {
		counts[a.Layer]++
	}
	a := &Ajax{File: f}
	for l := NO_LAYER; l < 12; l++ {
		if n := counts[l]; n != 0 {
			a.Layers = append(a.Layers, AjaxLayer{Layer: l, Actors: n})
		}
	}
	return a, nil
}

func (f *File) HttpAction(src utils.ResourceSource, w http.ResponseWriter, r *http.Request, action string) error {
	switch action {
	case "environment":
		env, hour := 0, config.Current().TimeOfDay
		if s := r.FormValue("env"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return errors.Wrapf(err, "Invalid env %q", s)
			}
			env = v
		}
		if s := r.FormValue("time"); s != "" {
			v, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return errors.Wrapf(err, "Invalid time %q", s)
			}
			hour = float32(v)
		}
		lighting, err := f.Environment(env, hour)
		if err != nil {
			return err
		}
		webutils.WriteJson(w, lighting)
		return nil
	case "dump":
		webutils.WriteFile(w, strings.NewReader(utils.DumpFile(src.Name(), f)), src.Name()+".txt")
		return nil
	}
	return errors.Errorf("Unknown action %q", action)
}

func init() {
	load := func(src utils.ResourceSource, data []byte) (interface{}, error) {
		return NewFromData(src.Name(), data)
	}
	pack.SetHandler(".dzs", load)
	pack.SetHandler(".dzr", load)
}
