package scene

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/retro_model_browser/config"
	"github.com/mogaika/retro_model_browser/gx"
	"github.com/mogaika/retro_model_browser/render"
	"github.com/mogaika/retro_model_browser/utils"
)

// frames are counted at 30 per second, as game animations are authored
const FRAMES_PER_SECOND = 30

type ViewerRenderInput struct {
	Camera     *Camera
	Width      int
	Height     int
	Time       float32
	ClearColor [4]float32
	// passes to draw, all when empty
	Passes map[render.FilterKey]bool
}

func (in *ViewerRenderInput) Aspect() float32 {
	if in.Height == 0 {
		return 1
	}
	return float32(in.Width) / float32(in.Height)
}

func (in *ViewerRenderInput) Projection() mgl32.Mat4 {
	return in.Camera.ProjectionMatrix(in.Aspect())
}

func (in *ViewerRenderInput) View() mgl32.Mat4 {
	return in.Camera.ViewMatrix()
}

// FillCamera writes projection and view into uniform block header
func (in *ViewerRenderInput) FillCamera(dst []float32) {
	gx.FillCamera(dst, in.Projection(), in.View())
}

// ViewDepth is distance along view direction, used for sort keys
func (in *ViewerRenderInput) ViewDepth(p mgl32.Vec3) float32 {
	return -utils.TransformPoint(in.View(), p)[2]
}

func parseFloat(q url.Values, key string, def float32) float32 {
	if s := q.Get(key); s != "" {
		if v, err := strconv.ParseFloat(s, 32); err == nil {
			return float32(v)
		}
	}
	return def
}

func parseInt(q url.Values, key string, def int) int {
	if s := q.Get(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

// ParseRenderInput builds input from query, camera frames box unless overridden.
// Keys: w, h, time, pitch, yaw, zoom, passes (comma separated filter keys).
func ParseRenderInput(q url.Values, box utils.AABB, width, height int) *ViewerRenderInput {
	cam := NewOrbitCamera(mgl32.Vec3{}, 1000, 20, 30)
	cam.FrameBox(box)
	cam.Pitch = parseFloat(q, "pitch", cam.Pitch)
	cam.Yaw = parseFloat(q, "yaw", cam.Yaw)
	cam.Distance *= parseFloat(q, "zoom", 1)

	in := &ViewerRenderInput{
		Camera:     cam,
		Width:      parseInt(q, "w", width),
		Height:     parseInt(q, "h", height),
		Time:       parseFloat(q, "time", 0),
		ClearColor: [4]float32{0.15, 0.15, 0.2, 1},
	}

	passes := config.Current().Passes
	if s := q.Get("passes"); s != "" {
		passes = strings.Split(s, ",")
	}
	in.Passes = ParsePasses(passes)
	return in
}

func ParsePasses(names []string) map[render.FilterKey]bool {
	passes := make(map[render.FilterKey]bool)
	for _, name := range names {
		if k, ok := render.ParseFilterKey(strings.TrimSpace(name)); ok {
			passes[k] = true
		}
	}
	return passes
}

// Renderable is model, geometry or stage owning device resources
type Renderable interface {
	PrepareToRender(device render.Device, m *render.RenderInstManager, input *ViewerRenderInput)
	BBox() utils.AABB
	Destroy(device render.Device)
}

// Viewer owns device resources of loaded scene and draws frames
type Viewer struct {
	Device      render.Device
	Renderables []Renderable

	executor *render.GraphExecutor
	manager  *render.RenderInstManager
}

func NewViewer(device render.Device) *Viewer {
	return &Viewer{
		Device:   device,
		executor: render.NewGraphExecutor(device),
		manager:  render.NewRenderInstManager(render.NewPassLists()),
	}
}

func (v *Viewer) Add(r Renderable) {
	v.Renderables = append(v.Renderables, r)
}

func (v *Viewer) BBox() utils.AABB {
	box := utils.EmptyAABB()
	for _, r := range v.Renderables {
		box.Union(r.BBox())
	}
	return box
}

// RenderFrame builds standard render graph and executes it on device
func (v *Viewer) RenderFrame(input *ViewerRenderInput) *render.CompiledGraph {
	v.manager.ResetRenderInsts()
	for _, r := range v.Renderables {
		r.PrepareToRender(v.Device, v.manager, input)
	}

	builder := render.NewGraphBuilder()
	render.StandardPipeline(builder, v.manager.Lists(), render.PipelineInput{
		Width:      input.Width,
		Height:     input.Height,
		ClearColor: input.ClearColor,
		Passes:     input.Passes,
	})
	return v.executor.Execute(builder)
}

func (v *Viewer) Destroy() {
	for _, r := range v.Renderables {
		r.Destroy(v.Device)
	}
	v.Renderables = nil
	v.executor.Destroy()
}
