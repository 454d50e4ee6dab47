package scene

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/retro_model_browser/gx"
	"github.com/mogaika/retro_model_browser/pack/f3dex"
	"github.com/mogaika/retro_model_browser/render"
	"github.com/mogaika/retro_model_browser/utils"
)

// n64 vertex layout, offsets in floats
const (
	N64_VTX_POSITION = 0
	N64_VTX_NORMAL   = 3
	N64_VTX_COLOR    = 6
	N64_VTX_TEX0     = 10
	N64_VTX_TEX1     = 12
	N64_VTX_STRIDE   = 14
)

func n64InputLayout() render.InputLayoutDescriptor {
	return render.InputLayoutDescriptor{
		Attributes: []render.VertexAttribute{
			{Name: gx.AttrPosition, Components: 3, Offset: N64_VTX_POSITION},
			{Name: gx.AttrNormal, Components: 3, Offset: N64_VTX_NORMAL},
			{Name: gx.AttrColor0, Components: 4, Offset: N64_VTX_COLOR},
			{Name: gx.AttrTexName(0), Components: 2, Offset: N64_VTX_TEX0},
			{Name: gx.AttrTexName(1), Components: 2, Offset: N64_VTX_TEX1},
		},
		Strides: []int{N64_VTX_STRIDE},
	}
}

func packN64Vertices(verts []f3dex.Vertex) []float32 {
	dst := make([]float32, 0, len(verts)*N64_VTX_STRIDE)
	for i := range verts {
		v := &verts[i]
		dst = append(dst, v.Position[:]...)
		dst = append(dst, v.Normal[:]...)
		dst = append(dst, v.Color[:]...)
		dst = append(dst, v.UV[0][:]...)
		dst = append(dst, v.UV[1][:]...)
	}
	return dst
}

func translateTileWrap(cm int) render.WrapMode {
	switch {
	case cm&f3dex.G_TX_CLAMP != 0:
		return render.WRAP_CLAMP
	case cm&f3dex.G_TX_MIRROR != 0:
		return render.WRAP_MIRROR
	}
	return render.WRAP_REPEAT
}

func samplerFromTile(t *f3dex.Tile, textFilter int) render.SamplerDescriptor {
	filter := render.FILTER_BILINEAR
	if textFilter == f3dex.G_TF_POINT {
		filter = render.FILTER_POINT
	}
	return render.SamplerDescriptor{
		WrapS:     translateTileWrap(t.CMS),
		WrapT:     translateTileWrap(t.CMT),
		MinFilter: filter,
		MagFilter: filter,
		MipFilter: render.MIPFILTER_NO_MIP,
	}
}

// MegaStateFromDrawState converts RDP render mode, N64 front faces are counter clockwise
func MegaStateFromDrawState(ds *f3dex.DrawState) render.MegaState {
	ms := render.DefaultMegaState()
	ms.FrontFaceCW = false
	switch ds.GeometryMode & f3dex.G_CULL_BOTH {
	case f3dex.G_CULL_FRONT:
		ms.Cull = render.CULL_FRONT
	case f3dex.G_CULL_BACK:
		ms.Cull = render.CULL_BACK
	case f3dex.G_CULL_BOTH:
		ms.Cull = render.CULL_BOTH
	}
	if !ds.ZCompare() {
		ms.DepthCompare = render.COMPARE_ALWAYS
	}
	ms.DepthWrite = ds.ZUpdate()
	if ds.Blend() {
		ms.Blend = render.BlendState{
			Mode:      render.BLEND_ADD,
			SrcFactor: render.FACTOR_SRC_ALPHA,
			DstFactor: render.FACTOR_ONE_MINUS_SRC_ALPHA,
		}
	}
	return ms
}

func DrawStateFilterKey(ds *f3dex.DrawState) render.FilterKey {
	if ds.IsTranslucent() {
		return render.PASS_TRANSPARENT
	}
	return render.PASS_OPAQUE
}

type drawCallData struct {
	DrawCall   *f3dex.DrawCall
	Program    render.Program
	ProgramKey uint32
	MegaState  render.MegaState
	FilterKey  render.FilterKey
	Layer      render.Layer
	Samplers   [2]render.Sampler

	center       mgl32.Vec3
	vertexBuffer render.Buffer
	indexBuffer  render.Buffer
	indexCount   int
}

// GeoData keeps device resources of interpreted display list.
// Vertices are already in model space so buffers are static.
type GeoData struct {
	Geo       *f3dex.Geo
	DrawCalls []*drawCallData
	Textures  []render.Texture

	layout   render.InputLayout
	white    render.Texture
	samplers map[render.SamplerDescriptor]render.Sampler
	programs map[uint32]render.Program
}

func (gd *GeoData) sampler(device render.Device, desc render.SamplerDescriptor) render.Sampler {
	if s, ok := gd.samplers[desc]; ok {
		return s
	}
	s := device.CreateSampler(desc)
	gd.samplers[desc] = s
	return s
}

func (gd *GeoData) program(device render.Device, ps *f3dex.ProgramState) (render.Program, uint32) {
	key := f3dex.ProgramKey(ps)
	if p, ok := gd.programs[key]; ok {
		return p, key
	}
	vs, fs := f3dex.GenerateProgram(ps)
	p := device.CreateProgram(render.ProgramDescriptor{Name: gd.Geo.Name, Key: key, Vertex: vs, Fragment: fs})
	gd.programs[key] = p
	return p, key
}

func NewGeoData(device render.Device, g *f3dex.Geo) *GeoData {
	gd := &GeoData{
		Geo:      g,
		samplers: make(map[render.SamplerDescriptor]render.Sampler),
		programs: make(map[uint32]render.Program),
	}
	gd.layout = device.CreateInputLayout(n64InputLayout())
	gd.white = whiteTexture(device)

	for _, t := range g.Cache.Textures {
		tex := device.CreateTexture(render.TextureDescriptor{Width: t.Width, Height: t.Height, MipCount: 1})
		device.UploadTexture(tex, []*image.NRGBA{t.Image})
		gd.Textures = append(gd.Textures, tex)
	}

	for _, dc := range g.DrawCalls {
		if len(dc.Indices) == 0 {
			continue
		}
		d := &drawCallData{
			DrawCall:  dc,
			MegaState: MegaStateFromDrawState(&dc.DrawState),
			FilterKey: DrawStateFilterKey(&dc.DrawState),
			Layer:     render.LAYER_OPAQUE,
		}
		if d.FilterKey == render.PASS_TRANSPARENT {
			d.Layer = render.LAYER_TRANSLUCENT
		}
		d.Program, d.ProgramKey = gd.program(device, dc.ProgramState())
		for i := range d.Samplers {
			d.Samplers[i] = gd.sampler(device, samplerFromTile(&dc.Tiles[i], dc.TextFilter()))
		}

		box := utils.EmptyAABB()
		for _, v := range dc.Vertices {
			box.Extend(v.Position)
		}
		d.center = box.Center()
		d.vertexBuffer = device.CreateBuffer(render.BUFFER_VERTEX, render.Float32Bytes(packN64Vertices(dc.Vertices)))
		d.indexBuffer = device.CreateBuffer(render.BUFFER_INDEX, render.Uint32Bytes(dc.Indices))
		d.indexCount = len(dc.Indices)
		gd.DrawCalls = append(gd.DrawCalls, d)
	}
	return gd
}

func (gd *GeoData) Destroy(device render.Device) {
	for _, t := range gd.Textures {
		device.Destroy(t)
	}
	for _, s := range gd.samplers {
		device.Destroy(s)
	}
	for _, p := range gd.programs {
		device.Destroy(p)
	}
	for _, d := range gd.DrawCalls {
		device.Destroy(d.vertexBuffer)
		device.Destroy(d.indexBuffer)
	}
	device.Destroy(gd.layout)
	device.Destroy(gd.white)
}

func (gd *GeoData) bindings(d *drawCallData) []render.TextureMapping {
	bindings := make([]render.TextureMapping, 2)
	for i := range bindings {
		bindings[i].Texture, bindings[i].Sampler = gd.white, d.Samplers[i]
		if ti := d.DrawCall.Textures[i]; ti >= 0 && ti < len(gd.Textures) {
			bindings[i].Texture = gd.Textures[ti]
		}
	}
	return bindings
}

// GeoInstance is placed copy of display list geometry
type GeoInstance struct {
	Data        *GeoData
	ModelMatrix mgl32.Mat4
	Visible     bool
	Skybox      bool

	ownsData bool
}

func NewGeoInstance(data *GeoData) *GeoInstance {
	return &GeoInstance{Data: data, ModelMatrix: mgl32.Ident4(), Visible: true}
}

// NewGeoView creates data and instance destroyed together
func NewGeoView(device render.Device, g *f3dex.Geo) *GeoInstance {
	gi := NewGeoInstance(NewGeoData(device, g))
	gi.ownsData = true
	return gi
}

func (gi *GeoInstance) BBox() utils.AABB {
	return gi.Data.Geo.BBox.Transform(gi.ModelMatrix)
}

func (gi *GeoInstance) Destroy(device render.Device) {
	if gi.ownsData {
		gi.Data.Destroy(device)
	}
}

func (gi *GeoInstance) PrepareToRender(device render.Device, m *render.RenderInstManager, in *ViewerRenderInput) {
	if !gi.Visible {
		return
	}
	gd := gi.Data
	mm := gi.ModelMatrix
	if gi.Skybox {
		pos := in.Camera.Position()
		mm[12], mm[13], mm[14] = pos[0], pos[1], pos[2]
	}
	projection, modelView := in.Projection(), in.View().Mul4(mm)

	tmpl := m.PushTemplate()
	tmpl.InputLayout = gd.layout
	defer m.PopTemplate()

	for _, d := range gd.DrawCalls {
		dc := d.DrawCall
		ri := m.NewRenderInst()
		ri.Program = d.Program
		ri.MegaState = d.MegaState
		ri.FilterKey = d.FilterKey
		layer := d.Layer
		if gi.Skybox {
			ri.FilterKey = render.PASS_SKYBOX
			layer = render.LAYER_SKYBOX
		}
		depth := in.ViewDepth(utils.TransformPoint(mm, d.center))
		ri.SortKey = render.SetSortKeyDepth(render.MakeSortKey(layer, d.ProgramKey), depth)
		ri.SetSamplerBindings(gd.bindings(d))

		u := ri.AllocateUniformBuffer(f3dex.UB_PARAMS_SIZE)
		f3dex.FillParams(u, projection, modelView, &f3dex.CombineParamsUniform{
			Primitive:   [4]float32(dc.PrimColor),
			Environment: [4]float32(dc.EnvColor),
			AlphaRef:    dc.BlendColor[3],
			PrimLodFrac: dc.PrimLodFrac,
		})

		ri.VertexBuffers = []render.Buffer{d.vertexBuffer}
		ri.IndexBuffer = d.indexBuffer
		ri.SetDrawRange(0, d.indexCount)
		m.SubmitRenderInst(ri)
	}
}
