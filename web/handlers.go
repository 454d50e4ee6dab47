package web

import (
	"bytes"
	"log"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/config"
	"github.com/mogaika/retro_model_browser/pack"
	"github.com/mogaika/retro_model_browser/pack/yaz0"
	"github.com/mogaika/retro_model_browser/render"
	"github.com/mogaika/retro_model_browser/render/soft"
	"github.com/mogaika/retro_model_browser/scene"
	"github.com/mogaika/retro_model_browser/status"
	"github.com/mogaika/retro_model_browser/vfs"
	"github.com/mogaika/retro_model_browser/webutils"
)

func formInt(r *http.Request, key string, def int) (int, error) {
	v := r.FormValue(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	return i, errors.Wrapf(err, "Invalid %s %q", key, v)
}

func formFloat(r *http.Request, key string, def float32) (float32, error) {
	v := r.FormValue(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 32)
	return float32(f), errors.Wrapf(err, "Invalid %s %q", key, v)
}

func (s *Server) HandlerAjaxPack(w http.ResponseWriter, r *http.Request) {
	p := mux.Vars(r)["path"]
	inst, src, err := s.Pack.Open(p)
	if err != nil {
		log.Printf("[web] Error getting %q from pack: %v", p, err)
		webutils.WriteError(w, err)
		return
	}

	switch v := inst.(type) {
	case pack.Marshaler:
		data, err := v.Marshal(src)
		if err != nil {
			webutils.WriteError(w, errors.Wrapf(err, "Marshal %q", p))
			return
		}
		webutils.WriteJson(w, data)
	case vfs.Directory:
		list, err := v.List()
		if err != nil {
			webutils.WriteError(w, err)
			return
		}
		sort.Strings(list)
		webutils.WriteJson(w, list)
	default:
		webutils.WriteJson(w, inst)
	}
}

func (s *Server) HandlerActionPackFile(w http.ResponseWriter, r *http.Request) {
	p := mux.Vars(r)["path"]
	action := mux.Vars(r)["action"]

	var err error
	switch action {
	case "frame":
		err = s.actionFrame(w, r, p)
	case "thumbnail":
		err = s.actionThumbnail(w, r, p)
	case "close":
		webutils.WriteJson(w, map[string]bool{"closed": s.Sessions.Close(p, r.FormValue("session"))})
	default:
		err = s.actionInstance(w, r, p, action)
	}
	if err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Action %q on %q", action, p))
	}
}

func (s *Server) actionInstance(w http.ResponseWriter, r *http.Request, p, action string) error {
	inst, src, err := s.Pack.Open(p)
	if err != nil {
		return err
	}
	actioner, ok := inst.(pack.HttpActioner)
	if !ok {
		return errors.Errorf("%T has no actions", inst)
	}
	return actioner.HttpAction(src, w, r, action)
}

// renderOptions reads query keys: layer, tod (hour of day), anim (paths, repeated)
func (s *Server) renderOptions(r *http.Request) (*scene.InstanceOptions, error) {
	layer, err := formInt(r, "layer", 0)
	if err != nil {
		return nil, err
	}
	tod, err := formFloat(r, "tod", config.Current().TimeOfDay)
	if err != nil {
		return nil, err
	}
	opts := &scene.InstanceOptions{
		Layer:     layer,
		TimeOfDay: tod,
		Actors:    scene.NewTableActorFactory(s.Pack, s.Actors),
	}
	for _, ap := range r.Form["anim"] {
		anim, _, err := s.Pack.Open(ap)
		if err != nil {
			return nil, errors.Wrapf(err, "Animation %q", ap)
		}
		opts.Animations = append(opts.Animations, anim)
	}
	return opts, nil
}

func (s *Server) renderableCreator(r *http.Request, p string) func(device render.Device) (scene.Renderable, error) {
	return func(device render.Device) (scene.Renderable, error) {
		inst, _, err := s.Pack.Open(p)
		if err != nil {
			return nil, err
		}
		opts, err := s.renderOptions(r)
		if err != nil {
			return nil, err
		}
		return scene.NewRenderable(device, s.Pack, p, inst, opts)
	}
}

// renderInput applies stage time of day and fog clear color to parsed input
func renderInput(r *http.Request, v *scene.Viewer, width, height int) *scene.ViewerRenderInput {
	in := scene.ParseRenderInput(r.URL.Query(), v.BBox(), width, height)
	for _, rr := range v.Renderables {
		st, ok := rr.(*scene.Stage)
		if !ok {
			continue
		}
		if tod, err := formFloat(r, "tod", st.TimeOfDay); err == nil && tod != st.TimeOfDay {
			if err := st.SetTimeOfDay(tod); err != nil {
				log.Printf("[web] Stage %q time of day: %v", st.Path, err)
			}
		}
		in.ClearColor = st.ClearColor(in.ClearColor)
	}
	return in
}

func (s *Server) actionFrame(w http.ResponseWriter, r *http.Request, p string) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	sess, created, err := s.Sessions.Get(p, r.FormValue("session"), s.renderableCreator(r, p))
	if err != nil {
		return err
	}
	if created {
		status.Info("Opened %q", p)
	}

	vp := config.Current().Viewport
	frame := sess.Frame(func(v *scene.Viewer) *scene.ViewerRenderInput {
		return renderInput(r, v, vp.Width, vp.Height)
	})
	webutils.WriteJson(w, frame)
	return nil
}

func (s *Server) actionThumbnail(w http.ResponseWriter, r *http.Request, p string) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	cfg := config.Current().Thumbnail
	size, err := formInt(r, "size", cfg.Size)
	if err != nil {
		return err
	}
	create := s.renderableCreator(r, p)

	data, err := soft.RenderThumbnail(soft.ThumbnailOptions{Size: size, Supersample: cfg.Supersample},
		func(dev *soft.Device, width, height int) error {
			rr, err := create(dev)
			if err != nil {
				return err
			}
			v := scene.NewViewer(dev)
			defer v.Destroy()
			v.Add(rr)

			in := renderInput(r, v, width, height)
			in.Width, in.Height = width, height
			v.RenderFrame(in)
			return nil
		})
	if err != nil {
		return err
	}
	webutils.WriteWebP(w, data)
	return nil
}

// HandlerDumpPackFile serves file bytes, Yaz0 payloads decompressed unless raw is set
func (s *Server) HandlerDumpPackFile(w http.ResponseWriter, r *http.Request) {
	p := mux.Vars(r)["path"]
	data, name, err := s.Pack.ReadRaw(p)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	if yaz0.IsCompressed(data) && r.FormValue("raw") == "" {
		if data, err = yaz0.Decompress(data); err != nil {
			webutils.WriteError(w, err)
			return
		}
	}
	webutils.WriteFile(w, bytes.NewReader(data), name)
}

// HandlerUploadPackFile replaces texture when img form file is sent,
// otherwise replaces whole file with data form file
func (s *Server) HandlerUploadPackFile(w http.ResponseWriter, r *http.Request) {
	p := mux.Vars(r)["path"]
	if err := r.ParseMultipartForm(webutils.MAX_UPLOAD_SIZE); err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Upload %q", p))
		return
	}
	defer s.Sessions.Invalidate(p)

	if _, ok := r.MultipartForm.File["img"]; ok {
		if err := s.actionInstance(w, r, p, "replacetexture"); err != nil {
			webutils.WriteError(w, errors.Wrapf(err, "Upload %q", p))
			return
		}
		status.Info("Replaced texture of %q", p)
		return
	}

	data, err := webutils.ReadFormFile(r, "data")
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	if err := s.Pack.Save(p, data); err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Upload %q", p))
		return
	}
	status.Info("Saved %q (%d bytes)", p, len(data))
	webutils.WriteJson(w, map[string]string{"result": "ok"})
}
