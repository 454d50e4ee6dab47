package f3dex

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/config"
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

// DumpCommands lists display list with decoded command names
func (g *Geo) DumpCommands() string {
	var b strings.Builder
	for i, c := range g.Commands() {
		cmd := byte(c[0] >> 24)
		name, ok := CommandNames[cmd]
		if !ok {
			name = "UNKNOWN"
		}
		fmt.Fprintf(&b, "%06x: %08x %08x %s", i*8, c[0], c[1], name)
		if cmd == G_SETCOMBINE {
			cm := DecodeCombine(c[0], c[1])
			fmt.Fprintf(&b, " rgb %v alpha %v", cm.One.RGB, cm.One.Alpha)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (g *Geo) HttpAction(src utils.ResourceSource, w http.ResponseWriter, r *http.Request, action string) error {
	switch action {
	case "gltf":
		doc, err := g.ExportGLTFDefault()
		if err != nil {
			return errors.Wrapf(err, "Export gltf")
		}
		webutils.WriteFileHeaders(w, src.Name()+".glb")
		return gltfutils.ExportBinary(w, doc)
	case "texture":
		index, err := formIndex(r, "index")
		if err != nil {
			return err
		}
		t := g.Texture(index)
		if t == nil {
			return errors.Errorf("Texture %d out of range", index)
		}
		png, err := t.EncodePNG()
		if err != nil {
			return err
		}
		webutils.WritePNG(w, png, t.Name()+".png")
		return nil
	case "shader":
		index, err := formIndex(r, "drawcall")
		if err != nil {
			return err
		}
		if index < 0 || index >= len(g.DrawCalls) {
			return errors.Errorf("Draw call %d out of range", index)
		}
		vs, fs := GenerateProgram(g.DrawCalls[index].ProgramState())
		webutils.WriteJson(w, map[string]string{"vertex": vs, "fragment": fs})
		return nil
	case "dump":
		dump := g.DumpCommands() + "\n" + utils.DumpFile(src.Name(), g)
		webutils.WriteFile(w, strings.NewReader(dump), src.Name()+".txt")
		return nil
	}
	return errors.Errorf("Unknown action %q", action)
}

func init() {
	loadGeo := func(src utils.ResourceSource, data []byte) (interface{}, error) {
		return NewGeoFromData(src.Name(), data)
	}
	// magic is plain big endian 11 (dzs with 11 chunks starts the same),
	// known extensions and GameCube games keep extension dispatch
	pack.SetMagicHandler("\x00\x00\x00\x0b", func(src utils.ResourceSource, data []byte) (interface{}, error) {
		g := config.GetGame()
		if pack.HasExtensionHandler(src.Name()) || (g != config.GameAuto && !g.IsN64()) {
			return pack.CallExtensionHandler(src, data)
		}
		return loadGeo(src, data)
	})
	pack.SetHandler(".geo", loadGeo)
}
