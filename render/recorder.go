package render

import (
	"bytes"
	"image"
	"image/png"
	"log"
	"sync"
)

// Resource creation commands, serialized in creation order.
// Data of buffers and textures is sent once, later frames refer by id.
type RecordedResource struct {
	Id          int
	Kind        string
	Usage       BufferUsage            `json:",omitempty"`
	Data        []byte                 `json:",omitempty"`
	Texture     *TextureDescriptor     `json:",omitempty"`
	Sampler     *SamplerDescriptor     `json:",omitempty"`
	Program     *ProgramDescriptor     `json:",omitempty"`
	InputLayout *InputLayoutDescriptor `json:",omitempty"`
	Target      *RenderTargetDescriptor `json:",omitempty"`
}

type RecordedUpload struct {
	Id     int
	Offset int      `json:",omitempty"`
	Data   []byte   `json:",omitempty"`
	Levels [][]byte `json:",omitempty"`
}

type RecordedDraw struct {
	MegaState     MegaState
	Program       int
	InputLayout   int
	VertexBuffers []int
	IndexBuffer   int
	// texture and sampler id pairs
	Samplers   [][2]int
	Uniforms   []float32
	IndexCount int
	IndexStart int
}

type RecordedPass struct {
	Name       string
	Color      int
	Depth      int
	ResolveTo  int
	ClearColor *[4]float32 `json:",omitempty"`
	ClearDepth *float32    `json:",omitempty"`
	Draws      []RecordedDraw
}

type Frame struct {
	Resources []RecordedResource
	Uploads   []RecordedUpload
	Destroyed []int
	Passes    []RecordedPass
	Present   int
}

type recResource struct {
	ResourceBase
	kind string
}

type recBuffer struct {
	recResource
	usage BufferUsage
	size  int
}

func (b *recBuffer) Usage() BufferUsage { return b.usage }
func (b *recBuffer) ByteSize() int      { return b.size }

type recTexture struct {
	recResource
	desc TextureDescriptor
}

func (t *recTexture) Descriptor() TextureDescriptor { return t.desc }

type recSampler struct {
	recResource
	desc SamplerDescriptor
}

func (s *recSampler) Descriptor() SamplerDescriptor { return s.desc }

type recProgram struct {
	recResource
	key uint32
}

func (p *recProgram) Key() uint32 { return p.key }

type recInputLayout struct {
	recResource
	desc InputLayoutDescriptor
}

func (l *recInputLayout) Descriptor() InputLayoutDescriptor { return l.desc }

type recTarget struct {
	recResource
	desc RenderTargetDescriptor
}

func (t *recTarget) Descriptor() RenderTargetDescriptor { return t.desc }

func resourceId(r Resource) int {
	if r == nil {
		return 0
	}
	return r.ResourceID()
}

type recPass struct {
	rec   RecordedPass
	state RecordedDraw
}

func (p *recPass) SetMegaState(ms *MegaState) { p.state.MegaState = *ms }
func (p *recPass) SetProgram(pr Program)      { p.state.Program = resourceId(pr) }

func (p *recPass) SetInputs(layout InputLayout, vertexBuffers []Buffer, indexBuffer Buffer) {
	p.state.InputLayout = resourceId(layout)
	p.state.VertexBuffers = make([]int, len(vertexBuffers))
	for i, b := range vertexBuffers {
		p.state.VertexBuffers[i] = resourceId(b)
	}
	p.state.IndexBuffer = resourceId(indexBuffer)
}

func (p *recPass) SetBindings(samplers []SamplerBinding, uniforms []float32) {
	p.state.Samplers = make([][2]int, len(samplers))
	for i, s := range samplers {
		p.state.Samplers[i] = [2]int{resourceId(s.Texture), resourceId(s.Sampler)}
	}
	p.state.Uniforms = append([]float32(nil), uniforms...)
}

func (p *recPass) DrawIndexed(indexCount, firstIndex int) {
	d := p.state
	d.IndexCount = indexCount
	d.IndexStart = firstIndex
	p.rec.Draws = append(p.rec.Draws, d)
}

// Recorder is device replayed by browser client
type Recorder struct {
	lock  sync.Mutex
	frame Frame
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Features() Features { return Features{} }

func (r *Recorder) addResource(rr RecordedResource) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.frame.Resources = append(r.frame.Resources, rr)
}

func (r *Recorder) addUpload(u RecordedUpload) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.frame.Uploads = append(r.frame.Uploads, u)
}

func (r *Recorder) CreateBuffer(usage BufferUsage, data []byte) Buffer {
	b := &recBuffer{recResource: recResource{NewResourceBase(), "buffer"}, usage: usage, size: len(data)}
	r.addResource(RecordedResource{Id: b.ResourceID(), Kind: b.kind, Usage: usage, Data: data})
	return b
}

func (r *Recorder) UploadBuffer(b Buffer, offset int, data []byte) {
	r.addUpload(RecordedUpload{Id: b.ResourceID(), Offset: offset, Data: data})
}

func (r *Recorder) CreateTexture(desc TextureDescriptor) Texture {
	t := &recTexture{recResource: recResource{NewResourceBase(), "texture"}, desc: desc}
	r.addResource(RecordedResource{Id: t.ResourceID(), Kind: t.kind, Texture: &desc})
	return t
}

// UploadTexture sends mip levels as png
func (r *Recorder) UploadTexture(t Texture, levels []*image.NRGBA) {
	u := RecordedUpload{Id: t.ResourceID(), Levels: make([][]byte, len(levels))}
	for i, img := range levels {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			log.Printf("[render] Texture %d level %d png: %v", t.ResourceID(), i, err)
			continue
		}
		u.Levels[i] = buf.Bytes()
	}
	r.addUpload(u)
}

func (r *Recorder) CreateSampler(desc SamplerDescriptor) Sampler {
	s := &recSampler{recResource: recResource{NewResourceBase(), "sampler"}, desc: desc}
	r.addResource(RecordedResource{Id: s.ResourceID(), Kind: s.kind, Sampler: &desc})
	return s
}

func (r *Recorder) CreateProgram(desc ProgramDescriptor) Program {
	p := &recProgram{recResource: recResource{NewResourceBase(), "program"}, key: desc.Key}
	r.addResource(RecordedResource{Id: p.ResourceID(), Kind: p.kind, Program: &desc})
	return p
}

func (r *Recorder) CreateInputLayout(desc InputLayoutDescriptor) InputLayout {
	l := &recInputLayout{recResource: recResource{NewResourceBase(), "inputlayout"}, desc: desc}
	r.addResource(RecordedResource{Id: l.ResourceID(), Kind: l.kind, InputLayout: &desc})
	return l
}

func (r *Recorder) CreateRenderTarget(desc RenderTargetDescriptor) RenderTarget {
	t := &recTarget{recResource: recResource{NewResourceBase(), "target"}, desc: desc}
	r.addResource(RecordedResource{Id: t.ResourceID(), Kind: t.kind, Target: &desc})
	return t
}

func (r *Recorder) CreateRenderPass(desc RenderPassDescriptor) RenderPass {
	return &recPass{rec: RecordedPass{
		Name:       desc.Name,
		Color:      resourceId(desc.Color),
		Depth:      resourceId(desc.Depth),
		ResolveTo:  resourceId(desc.ResolveTo),
		ClearColor: desc.ClearColor,
		ClearDepth: desc.ClearDepth,
	}}
}

func (r *Recorder) SubmitPass(p RenderPass) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.frame.Passes = append(r.frame.Passes, p.(*recPass).rec)
}

func (r *Recorder) Present(rt RenderTarget) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.frame.Present = resourceId(rt)
}

func (r *Recorder) Destroy(res Resource) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.frame.Destroyed = append(r.frame.Destroyed, res.ResourceID())
}

// TakeFrame returns commands recorded since previous call
func (r *Recorder) TakeFrame() *Frame {
	r.lock.Lock()
	defer r.lock.Unlock()
	f := r.frame
	r.frame = Frame{}
	return &f
}
