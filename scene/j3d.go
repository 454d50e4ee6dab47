package scene

import (
	"bytes"
	"image"
	"image/color"
	"log"
	"math"
	"runtime"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"

	"github.com/mogaika/retro_model_browser/gx"
	"github.com/mogaika/retro_model_browser/pack/j3d"
	"github.com/mogaika/retro_model_browser/render"
	"github.com/mogaika/retro_model_browser/utils"
)

// interleaved vertex layout, offsets in floats
const (
	VTX_POSITION = 0
	VTX_NORMAL   = 3
	VTX_COLOR0   = 6
	VTX_COLOR1   = 10
	VTX_TEX0     = 14
	VTX_STRIDE   = VTX_TEX0 + 8*2
)

func gxInputLayout() render.InputLayoutDescriptor {
	desc := render.InputLayoutDescriptor{
		Attributes: []render.VertexAttribute{
			{Name: gx.AttrPosition, Components: 3, Offset: VTX_POSITION},
			{Name: gx.AttrNormal, Components: 3, Offset: VTX_NORMAL},
			{Name: gx.AttrColor0, Components: 4, Offset: VTX_COLOR0},
			{Name: gx.AttrColor1, Components: 4, Offset: VTX_COLOR1},
		},
		Strides: []int{VTX_STRIDE},
	}
	for i := 0; i < 8; i++ {
		desc.Attributes = append(desc.Attributes, render.VertexAttribute{
			Name: gx.AttrTexName(i), Components: 2, Offset: VTX_TEX0 + i*2,
		})
	}
	return desc
}

func packVertices(dst []float32, verts []j3d.Vertex) []float32 {
	dst = dst[:0]
	for i := range verts {
		v := &verts[i]
		dst = append(dst, v.Position[:]...)
		dst = append(dst, v.Normal[:]...)
		dst = append(dst, v.Color[0][:]...)
		dst = append(dst, v.Color[1][:]...)
		for t := range v.Tex {
			dst = append(dst, v.Tex[t][0], v.Tex[t][1])
		}
	}
	return dst
}

type materialData struct {
	Material   *j3d.Material
	Program    render.Program
	ProgramKey uint32
	MegaState  render.MegaState
	FilterKey  render.FilterKey
	Layer      render.Layer
}

// MaterialFilterKey selects pass of material
func MaterialFilterKey(mat *j3d.Material) render.FilterKey {
	switch {
	case mat.GX.UsesFramebufferTexture():
		return render.PASS_INDIRECT
	case mat.IsTranslucent():
		return render.PASS_TRANSPARENT
	}
	return render.PASS_OPAQUE
}

type batchData struct {
	vertices    []j3d.Vertex
	indexBuffer render.Buffer
	indexCount  int
}

type shapeData struct {
	Index    int
	Shape    *j3d.Shape
	Material int
	Joint    int
	batches  []batchData
}

// ModelData keeps device resources shared by instances of one model
type ModelData struct {
	Model     *j3d.Model
	Shapes    []*shapeData
	Materials []*materialData
	// nil for framebuffer copies and broken textures
	Textures []render.Texture
	Samplers []render.Sampler

	layout      render.InputLayout
	white       render.Texture
	fbSampler   render.Sampler
	programs    map[uint32]render.Program
	cpuLighting bool
	device      render.Device
}

func samplerFromTexture(t *j3d.Texture) render.SamplerDescriptor {
	minFilter, mipFilter := translateFilter(t.MinFilter)
	magFilter, _ := translateFilter(t.MagFilter)
	if t.MipCount <= 1 {
		mipFilter = render.MIPFILTER_NO_MIP
	}
	return render.SamplerDescriptor{
		WrapS:     translateWrap(t.WrapS),
		WrapT:     translateWrap(t.WrapT),
		MinFilter: minFilter,
		MagFilter: magFilter,
		MipFilter: mipFilter,
		MinLOD:    t.MinLOD,
		MaxLOD:    t.MaxLOD,
		LODBias:   t.LODBias,
	}
}

func whiteTexture(device render.Device) render.Texture {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{255, 255, 255, 255})
	t := device.CreateTexture(render.TextureDescriptor{Width: 1, Height: 1, MipCount: 1})
	device.UploadTexture(t, []*image.NRGBA{img})
	return t
}

func (md *ModelData) uploadTextures(device render.Device) {
	textures := md.Model.Tex1.Textures
	levels := make([][]*image.NRGBA, len(textures))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, t := range textures {
		if t.IsFramebufferCopy() {
			continue
		}
		i, t := i, t
		g.Go(func() error {
			mips, err := t.Mips()
			if err != nil {
				log.Printf("[scene] %q texture %d %q: %v", md.Model.Name, i, t.Name, err)
				return nil
			}
			levels[i] = mips
			return nil
		})
	}
	g.Wait()

	md.Textures = make([]render.Texture, len(textures))
	md.Samplers = make([]render.Sampler, len(textures))
	for i, t := range textures {
		md.Samplers[i] = device.CreateSampler(samplerFromTexture(t))
		if levels[i] == nil {
			continue
		}
		tex := device.CreateTexture(render.TextureDescriptor{Width: t.Width, Height: t.Height, MipCount: len(levels[i])})
		device.UploadTexture(tex, levels[i])
		md.Textures[i] = tex
	}
}

func (md *ModelData) program(mat *gx.Material) (render.Program, uint32) {
	key := gx.ProgramKey(mat)
	if p, ok := md.programs[key]; ok {
		return p, key
	}
	vs, fs := gx.GenerateProgram(mat)
	p := md.device.CreateProgram(render.ProgramDescriptor{Name: mat.Name, Key: key, Vertex: vs, Fragment: fs})
	md.programs[key] = p
	return p, key
}

func NewModelData(device render.Device, m *j3d.Model) (*ModelData, error) {
	md := &ModelData{
		Model:       m,
		programs:    make(map[uint32]render.Program),
		cpuLighting: device.Features().CPULighting,
		device:      device,
	}
	md.layout = device.CreateInputLayout(gxInputLayout())
	md.white = whiteTexture(device)
	md.fbSampler = device.CreateSampler(render.SamplerDescriptor{MinFilter: render.FILTER_BILINEAR, MagFilter: render.FILTER_BILINEAR})
	md.uploadTextures(device)

	md.Materials = make([]*materialData, len(m.Mat3.Materials))
	for i, mat := range m.Mat3.Materials {
		d := &materialData{
			Material:  mat,
			MegaState: MegaStateFromGX(mat.GX),
			FilterKey: MaterialFilterKey(mat),
			Layer:     render.LAYER_OPAQUE,
		}
		if d.FilterKey == render.PASS_TRANSPARENT {
			d.Layer = render.LAYER_TRANSLUCENT
		}
		d.Program, d.ProgramKey = md.program(mat.GX)
		md.Materials[i] = d
	}

	for i := range m.Shp1.Shapes {
		geom, err := m.ShapeGeometry(i)
		if err != nil {
			log.Printf("[scene] %q: %v", m.Name, err)
			continue
		}
		sd := &shapeData{Index: i, Shape: &m.Shp1.Shapes[i], Material: geom.Material, Joint: -1}
		if j, ok := m.Inf1.ShapeJoints[i]; ok {
			sd.Joint = j
		}
		for _, b := range geom.Batches {
			if len(b.Indices) == 0 {
				continue
			}
			sd.batches = append(sd.batches, batchData{
				vertices:    b.Vertices,
				indexBuffer: device.CreateBuffer(render.BUFFER_INDEX, render.Uint32Bytes(b.Indices)),
				indexCount:  len(b.Indices),
			})
		}
		md.Shapes = append(md.Shapes, sd)
	}
	return md, nil
}

func (md *ModelData) Destroy(device render.Device) {
	for _, t := range md.Textures {
		if t != nil {
			device.Destroy(t)
		}
	}
	for _, s := range md.Samplers {
		device.Destroy(s)
	}
	for _, p := range md.programs {
		device.Destroy(p)
	}
	for _, s := range md.Shapes {
		for _, b := range s.batches {
			device.Destroy(b.indexBuffer)
		}
	}
	device.Destroy(md.layout)
	device.Destroy(md.white)
	device.Destroy(md.fbSampler)
}

// bindings maps eight texmap slots, missing textures sample white
func (md *ModelData) bindings(mat *j3d.Material) []render.TextureMapping {
	bindings := make([]render.TextureMapping, len(mat.Textures))
	for slot, ti := range mat.Textures {
		b := &bindings[slot]
		b.Texture, b.Sampler = md.white, md.fbSampler
		if ti < 0 || ti >= len(md.Textures) {
			continue
		}
		if md.Model.Tex1.Textures[ti].IsFramebufferCopy() {
			b.LateBinding = render.LATE_BINDING_OPAQUE_SCENE
			continue
		}
		if md.Textures[ti] != nil {
			b.Texture, b.Sampler = md.Textures[ti], md.Samplers[ti]
		}
	}
	return bindings
}

type batchBuffer struct {
	buffer render.Buffer
	data   []byte
}

// ModelInstance is placed, animated copy of model
type ModelInstance struct {
	Data        *ModelData
	ModelMatrix mgl32.Mat4
	Visible     bool
	// drawn in skybox pass around camera
	Skybox bool

	Animation      *j3d.BCK
	TexAnimation   *j3d.BTK
	RegAnimation   *j3d.BRK
	ColorAnimation *j3d.BPK

	Lights []gx.Light
	// environment overrides of ambient and light channel material color
	AmbientOverride  *utils.ColorFloat
	MatColorOverride *utils.ColorFloat

	ownsData bool
	buffers  map[*batchData]*batchBuffer
	scratch  []float32
}

func NewModelInstance(data *ModelData) *ModelInstance {
	return &ModelInstance{
		Data:        data,
		ModelMatrix: mgl32.Ident4(),
		Visible:     true,
		Lights: []gx.Light{
			gx.NewDirectionalLight(mgl32.Vec3{-0.3, -1, -0.5}, utils.ColorFloat{1, 1, 1, 1}),
		},
		buffers: make(map[*batchData]*batchBuffer),
	}
}

// NewModelView creates data and instance destroyed together
func NewModelView(device render.Device, m *j3d.Model) (*ModelInstance, error) {
	data, err := NewModelData(device, m)
	if err != nil {
		return nil, err
	}
	mi := NewModelInstance(data)
	mi.ownsData = true
	return mi, nil
}

// BindAnimation attaches bck, btk, brk or bpk instance
func (mi *ModelInstance) BindAnimation(anim interface{}) bool {
	switch a := anim.(type) {
	case *j3d.BCK:
		mi.Animation = a
	case *j3d.BTK:
		mi.TexAnimation = a
	case *j3d.BRK:
		mi.RegAnimation = a
	case *j3d.BPK:
		mi.ColorAnimation = a
	default:
		return false
	}
	return true
}

func (mi *ModelInstance) BBox() utils.AABB {
	return mi.Data.Model.BBox().Transform(mi.ModelMatrix)
}

func (mi *ModelInstance) Destroy(device render.Device) {
	for _, b := range mi.buffers {
		device.Destroy(b.buffer)
	}
	mi.buffers = make(map[*batchData]*batchBuffer)
	if mi.ownsData {
		mi.Data.Destroy(device)
	}
}

func (mi *ModelInstance) modelMatrix(in *ViewerRenderInput) mgl32.Mat4 {
	m := mi.ModelMatrix
	if mi.Skybox {
		pos := in.Camera.Position()
		m[12], m[13], m[14] = pos[0], pos[1], pos[2]
	}
	return m
}

// JointMatrices returns world matrices of joints at frame
func (mi *ModelInstance) JointMatrices(in *ViewerRenderInput) []mgl32.Mat4 {
	model := mi.Data.Model
	var local []mgl32.Mat4
	if mi.Animation != nil {
		local = mi.Animation.LocalMatrices(model, in.Time)
	} else {
		local = model.LocalMatrices()
	}
	world := model.JointWorldMatrices(local)
	mm := mi.modelMatrix(in)
	for i := range world {
		world[i] = mm.Mul4(world[i])
	}
	return world
}

func matrixScale(m mgl32.Mat4) mgl32.Vec3 {
	return mgl32.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}
}

// billboardMatrix keeps position and scale of m and turns it to camera
func billboardMatrix(m mgl32.Mat4, in *ViewerRenderInput, yOnly bool) mgl32.Mat4 {
	scale := matrixScale(m)
	pos := m.Col(3).Vec3()
	var rot mgl32.Mat4
	if yOnly {
		d := in.Camera.Position().Sub(pos)
		rot = mgl32.HomogRotate3DY(float32(math.Atan2(float64(d[0]), float64(d[2]))))
	} else {
		rot = in.View().Mat3().Transpose().Mat4()
	}
	return mgl32.Translate3D(pos[0], pos[1], pos[2]).Mul4(rot).Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

func (mi *ModelInstance) shapeDrawMatrices(sd *shapeData, draw []mgl32.Mat4, in *ViewerRenderInput) []mgl32.Mat4 {
	switch sd.Shape.MatrixType {
	case j3d.SHAPE_MATRIX_BILLBOARD, j3d.SHAPE_MATRIX_BILLBOARD_Y:
		yOnly := sd.Shape.MatrixType == j3d.SHAPE_MATRIX_BILLBOARD_Y
		out := make([]mgl32.Mat4, len(draw))
		for i := range draw {
			out[i] = billboardMatrix(draw[i], in, yOnly)
		}
		return out
	}
	return draw
}

// tev color table of MAT3 is reg0, reg1, reg2, prev
func tevColorSlot(i int) int {
	return (i + 1) % 4
}

func (mi *ModelInstance) materialParams(mat *j3d.Material, in *ViewerRenderInput) *gx.MaterialParams {
	p := gx.NewMaterialParams()
	p.ColorMatReg = mat.MatColors
	p.ColorAmbReg = mat.AmbColors
	p.KonstColor = mat.KonstColors
	for i, c := range mat.TevColors {
		p.TevColor[tevColorSlot(i)] = c
	}
	if mi.MatColorOverride != nil {
		p.ColorMatReg[0] = *mi.MatColorOverride
	}
	if mi.AmbientOverride != nil {
		p.ColorAmbReg[0] = *mi.AmbientOverride
	}

	if a := mi.ColorAnimation; a != nil {
		if ca := a.Find(mat.Name); ca != nil {
			p.ColorMatReg[0] = ca.Color(a.Frame(in.Time))
		}
	}
	if a := mi.RegAnimation; a != nil {
		f := a.Frame(in.Time)
		for i := 0; i < 4; i++ {
			if ca := a.FindRegister(mat.Name, i); ca != nil {
				p.TevColor[tevColorSlot(i)] = ca.Color(f)
			}
			if ca := a.FindKonst(mat.Name, i); ca != nil {
				p.KonstColor[i] = ca.Color(f)
			}
		}
	}

	view, proj := in.View(), in.Projection()
	for i, tm := range mat.TexMatrices {
		if tm == nil {
			continue
		}
		srt := tm.StaticSRT()
		if a := mi.TexAnimation; a != nil {
			if ta := a.Find(mat.Name, i); ta != nil {
				srt = ta.SRT(a.Frame(in.Time))
			}
		}
		p.TexMtx[i] = tm.Compute(srt, view, proj)
	}
	for i, tm := range mat.PostTexMatrices {
		if tm != nil {
			p.PostTexMtx[i] = tm.Compute(tm.StaticSRT(), view, proj)
		}
	}
	p.IndTexMtx = mat.GX.IndTexMatrices
	copy(p.Lights[:], mi.Lights)
	return p
}

func (mi *ModelInstance) bakeLighting(verts []j3d.Vertex, mat *j3d.Material, p *gx.MaterialParams) {
	if len(mat.GX.LightChannels) == 0 {
		return
	}
	ch := &mat.GX.LightChannels[0]
	for i := range verts {
		v := &verts[i]
		v.Color[0] = gx.EvalColorChannel(ch, p.ColorMatReg[0], p.ColorAmbReg[0], v.Color[0], mi.Lights, v.Position, v.Normal)
	}
}

func (mi *ModelInstance) vertexBuffer(device render.Device, b *batchData, verts []j3d.Vertex) render.Buffer {
	mi.scratch = packVertices(mi.scratch, verts)
	data := render.Float32Bytes(mi.scratch)

	bb, ok := mi.buffers[b]
	if !ok {
		bb = &batchBuffer{buffer: device.CreateBuffer(render.BUFFER_VERTEX, data), data: data}
		mi.buffers[b] = bb
	} else if !bytes.Equal(bb.data, data) {
		device.UploadBuffer(bb.buffer, 0, data)
		bb.data = data
	}
	return bb.buffer
}

// PrepareToRender skins shapes on cpu and submits render inst per packet
func (mi *ModelInstance) PrepareToRender(device render.Device, m *render.RenderInstManager, in *ViewerRenderInput) {
	if !mi.Visible {
		return
	}
	md := mi.Data
	draw := md.Model.DrawMatrices(mi.JointMatrices(in))
	mm := mi.modelMatrix(in)

	tmpl := m.PushTemplate()
	tmpl.InputLayout = md.layout
	defer m.PopTemplate()

	for _, sd := range md.Shapes {
		if sd.Material < 0 || sd.Material >= len(md.Materials) {
			continue
		}
		mat := md.Materials[sd.Material]
		params := mi.materialParams(mat.Material, in)

		st := m.PushTemplate()
		st.Program = mat.Program
		st.MegaState = mat.MegaState
		st.FilterKey = mat.FilterKey
		layer := mat.Layer
		if mi.Skybox {
			st.FilterKey = render.PASS_SKYBOX
			layer = render.LAYER_SKYBOX
		}
		depth := in.ViewDepth(utils.TransformPoint(mm, sd.Shape.BBox.Center()))
		st.SortKey = render.SetSortKeyDepth(render.MakeSortKey(layer, mat.ProgramKey), depth)
		st.SetSamplerBindings(md.bindings(mat.Material))
		u := st.AllocateUniformBuffer(gx.UB_PARAMS_SIZE)
		in.FillCamera(u)
		params.Fill(u)

		shapeDraw := mi.shapeDrawMatrices(sd, draw, in)
		for bi := range sd.batches {
			b := &sd.batches[bi]
			verts := (&j3d.Batch{Vertices: b.vertices}).Transform(shapeDraw)
			if md.cpuLighting {
				mi.bakeLighting(verts, mat.Material, params)
			}

			ri := m.NewRenderInst()
			ri.VertexBuffers = []render.Buffer{mi.vertexBuffer(device, b, verts)}
			ri.IndexBuffer = b.indexBuffer
			ri.SetDrawRange(0, b.indexCount)
			m.SubmitRenderInst(ri)
		}
		m.PopTemplate()
	}
}
