package j3d

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/gx"
	"github.com/mogaika/retro_model_browser/pack"
	"github.com/mogaika/retro_model_browser/utils"
	"github.com/mogaika/retro_model_browser/utils/gltfutils"
	"github.com/mogaika/retro_model_browser/webutils"
)

func formIndex(r *http.Request, key string) (int, error) {
	v := r.FormValue(key)
	if v == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(v)
	return i, errors.Wrapf(err, "Invalid %s %q", key, v)
}

func writeTexturePNG(w http.ResponseWriter, t *Texture) error {
	png, err := EncodePNG(t)
	if err != nil {
		return err
	}
	webutils.WritePNG(w, png, t.Name+".png")
	return nil
}

func save(src utils.ResourceSource, data []byte) error {
	if err := src.Save(io.NewSectionReader(bytes.NewReader(data), 0, int64(len(data)))); err != nil {
		return err
	}
	log.Printf("[j3d] Saved %q (%d bytes)", src.Path(), len(data))
	return nil
}

func (m *Model) replaceTexture(src utils.ResourceSource, r *http.Request) error {
	index, err := formIndex(r, "index")
	if err != nil {
		return err
	}
	img, err := webutils.ReadFormImage(r, "img", DecodeImage)
	if err != nil {
		return err
	}
	data, err := ReplaceModelTexture(m.Raw, index, img, r.FormValue("format"))
	if err != nil {
		return err
	}
	return save(src, data)
}

func (m *Model) HttpAction(src utils.ResourceSource, w http.ResponseWriter, r *http.Request, action string) error {
	switch action {
	case "gltf":
		doc, err := m.ExportGLTFDefault()
		if err != nil {
			return errors.Wrapf(err, "Export gltf")
		}
		webutils.WriteFileHeaders(w, src.Name()+".glb")
		return gltfutils.ExportBinary(w, doc)
	case "fbx":
		f, err := m.ExportFbxDefault()
		if err != nil {
			return errors.Wrapf(err, "Export fbx")
		}
		webutils.WriteFileHeaders(w, src.Name()+".zip")
		return f.WriteZip(w, src.Name()+".fbx")
	case "obj":
		webutils.WriteFileHeaders(w, src.Name()+".obj.zip")
		return m.ExportObjZip(w)
	case "texture":
		index, err := formIndex(r, "index")
		if err != nil {
			return err
		}
		t := m.Texture(index)
		if t == nil {
			return errors.Errorf("Texture %d out of range", index)
		}
		return writeTexturePNG(w, t)
	case "shader":
		index, err := formIndex(r, "material")
		if err != nil {
			return err
		}
		if index < 0 || index >= len(m.Mat3.Materials) {
			return errors.Errorf("Material %d out of range", index)
		}
		vs, fs := gx.GenerateProgram(m.Mat3.Materials[index].GX)
		webutils.WriteJson(w, map[string]string{"vertex": vs, "fragment": fs})
		return nil
	case "dump":
		webutils.WriteFile(w, strings.NewReader(utils.DumpFile(src.Name(), m)), src.Name()+".txt")
		return nil
	case "replacetexture":
		if err := m.replaceTexture(src, r); err != nil {
			return err
		}
		webutils.WriteJson(w, map[string]string{"result": "ok"})
		return nil
	}
	return errors.Errorf("Unknown action %q", action)
}

func (bti *BTI) HttpAction(src utils.ResourceSource, w http.ResponseWriter, r *http.Request, action string) error {
	switch action {
	case "texture":
		return writeTexturePNG(w, bti.Texture)
	case "dump":
		webutils.WriteFile(w, strings.NewReader(utils.DumpFile(src.Name(), bti.Texture)), src.Name()+".txt")
		return nil
	case "replacetexture":
		img, err := webutils.ReadFormImage(r, "img", DecodeImage)
		if err != nil {
			return err
		}
		data, err := ReplaceBTITexture(bti.Raw, img, r.FormValue("format"))
		if err != nil {
			return err
		}
		if err := save(src, data); err != nil {
			return err
		}
		webutils.WriteJson(w, map[string]string{"result": "ok"})
		return nil
	}
	return errors.Errorf("Unknown action %q", action)
}

type AjaxAnimation struct {
	Kind     string
	Name     string
	LoopMode string
	Duration uint16
	Data     interface{}
}

func marshalAnimation(kind string, info AnimationInfo, name string, data interface{}) *AjaxAnimation {
	return &AjaxAnimation{
		Kind:     kind,
		Name:     name,
		LoopMode: LoopModeNames[info.LoopMode],
		Duration: info.Duration,
		Data:     data,
	}
}

func (b *BCK) Marshal(src utils.ResourceSource) (interface{}, error) {
	return marshalAnimation("joint", b.AnimationInfo, b.Name, b), nil
}

func (b *BTK) Marshal(src utils.ResourceSource) (interface{}, error) {
	return marshalAnimation("texmtx", b.AnimationInfo, b.Name, b), nil
}

func (b *BRK) Marshal(src utils.ResourceSource) (interface{}, error) {
	return marshalAnimation("tevreg", b.AnimationInfo, b.Name, b), nil
}

func (b *BPK) Marshal(src utils.ResourceSource) (interface{}, error) {
	return marshalAnimation("matcolor", b.AnimationInfo, b.Name, b), nil
}

func init() {
	loadModel := func(src utils.ResourceSource, data []byte) (interface{}, error) {
		return NewModelFromData(src.Name(), data)
	}
	loadAnimation := func(src utils.ResourceSource, data []byte) (interface{}, error) {
		return NewAnimationFromData(src.Name(), data)
	}
	loadBTI := func(src utils.ResourceSource, data []byte) (interface{}, error) {
		return NewBTIFromData(src.Name(), data)
	}

	pack.SetMagicHandler(MAGIC_J3D2, loadModel)
	pack.SetMagicHandler(MAGIC_J3D1, loadAnimation)
	pack.SetHandler(".bmd", loadModel)
	pack.SetHandler(".bdl", loadModel)
	for _, ext := range []string{".bck", ".btk", ".brk", ".bpk"} {
		pack.SetHandler(ext, loadAnimation)
	}
	pack.SetHandler(".bti", loadBTI)
}
