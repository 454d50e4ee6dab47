package render

import (
	"log"
	"sort"
)

type FilterKey int

const (
	PASS_SKYBOX FilterKey = iota
	PASS_OPAQUE
	PASS_INDIRECT
	PASS_TRANSPARENT
)

var FilterKeyNames = map[FilterKey]string{
	PASS_SKYBOX:      "skybox",
	PASS_OPAQUE:      "opaque",
	PASS_INDIRECT:    "indirect",
	PASS_TRANSPARENT: "transparent",
}

func ParseFilterKey(name string) (FilterKey, bool) {
	for k, n := range FilterKeyNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// late binding name of opaque scene color, used by EFB copy materials
const LATE_BINDING_OPAQUE_SCENE = "opaque-scene-texture"

// TextureMapping is sampler slot of render inst.
// LateBinding is resolved by graph when pass executes.
type TextureMapping struct {
	Texture     Texture
	Sampler     Sampler
	LateBinding string
}

type RenderInst struct {
	SortKey   uint32
	FilterKey FilterKey
	MegaState MegaState

	Program       Program
	InputLayout   InputLayout
	VertexBuffers []Buffer
	IndexBuffer   Buffer
	Bindings      []TextureMapping
	Uniforms      []float32

	IndexStart int
	IndexCount int
}

// SetFrom copies template, slices are cloned so template stays intact
func (ri *RenderInst) SetFrom(o *RenderInst) {
	*ri = *o
	ri.VertexBuffers = append([]Buffer(nil), o.VertexBuffers...)
	ri.Bindings = append([]TextureMapping(nil), o.Bindings...)
	ri.Uniforms = append([]float32(nil), o.Uniforms...)
}

func (ri *RenderInst) SetSamplerBindings(mappings []TextureMapping) {
	ri.Bindings = append(ri.Bindings[:0], mappings...)
}

// AllocateUniformBuffer returns zeroed uniform storage of size floats
func (ri *RenderInst) AllocateUniformBuffer(size int) []float32 {
	if cap(ri.Uniforms) >= size {
		ri.Uniforms = ri.Uniforms[:size]
		for i := range ri.Uniforms {
			ri.Uniforms[i] = 0
		}
	} else {
		ri.Uniforms = make([]float32, size)
	}
	return ri.Uniforms
}

func (ri *RenderInst) SetDrawRange(start, count int) {
	ri.IndexStart = start
	ri.IndexCount = count
}

// LateBindings maps late binding names to textures available in current pass
type LateBindings map[string]Texture

func (ri *RenderInst) Draw(pass RenderPass, late LateBindings) {
	samplers := make([]SamplerBinding, len(ri.Bindings))
	for i, b := range ri.Bindings {
		samplers[i] = SamplerBinding{Texture: b.Texture, Sampler: b.Sampler}
		if b.LateBinding != "" {
			if t, ok := late[b.LateBinding]; ok {
				samplers[i].Texture = t
			}
		}
	}
	pass.SetMegaState(&ri.MegaState)
	pass.SetProgram(ri.Program)
	pass.SetInputs(ri.InputLayout, ri.VertexBuffers, ri.IndexBuffer)
	pass.SetBindings(samplers, ri.Uniforms)
	pass.DrawIndexed(ri.IndexCount, ri.IndexStart)
}

type DrawOrder int

const (
	DRAW_ORDER_FORWARD DrawOrder = iota
	DRAW_ORDER_BACKWARD
)

type InstList interface {
	Submit(ri *RenderInst)
	Len() int
	Drain(pass RenderPass, late LateBindings)
	Reset()
}

// RenderInstList draws by ascending sort key, or descending for backward order
type RenderInstList struct {
	Order DrawOrder
	insts []*RenderInst
}

func NewRenderInstList(order DrawOrder) *RenderInstList {
	return &RenderInstList{Order: order}
}

func (l *RenderInstList) Submit(ri *RenderInst) { l.insts = append(l.insts, ri) }
func (l *RenderInstList) Len() int              { return len(l.insts) }
func (l *RenderInstList) Reset()                { l.insts = l.insts[:0] }

func (l *RenderInstList) Sorted() []*RenderInst {
	sort.SliceStable(l.insts, func(i, j int) bool {
		if l.Order == DRAW_ORDER_BACKWARD {
			return l.insts[i].SortKey > l.insts[j].SortKey
		}
		return l.insts[i].SortKey < l.insts[j].SortKey
	})
	return l.insts
}

func (l *RenderInstList) Drain(pass RenderPass, late LateBindings) {
	for _, ri := range l.Sorted() {
		ri.Draw(pass, late)
	}
	l.Reset()
}

// SimpleRenderInstList draws in submission order
type SimpleRenderInstList struct {
	insts []*RenderInst
}

func (l *SimpleRenderInstList) Submit(ri *RenderInst) { l.insts = append(l.insts, ri) }
func (l *SimpleRenderInstList) Len() int              { return len(l.insts) }
func (l *SimpleRenderInstList) Reset()                { l.insts = l.insts[:0] }

func (l *SimpleRenderInstList) Drain(pass RenderPass, late LateBindings) {
	for _, ri := range l.insts {
		ri.Draw(pass, late)
	}
	l.Reset()
}

// PassLists has one list per filter key
type PassLists struct {
	lists map[FilterKey]InstList
}

func NewPassLists() *PassLists {
	return &PassLists{lists: map[FilterKey]InstList{
		PASS_SKYBOX:      &SimpleRenderInstList{},
		PASS_OPAQUE:      NewRenderInstList(DRAW_ORDER_FORWARD),
		PASS_INDIRECT:    NewRenderInstList(DRAW_ORDER_FORWARD),
		PASS_TRANSPARENT: NewRenderInstList(DRAW_ORDER_FORWARD),
	}}
}

func (pl *PassLists) List(key FilterKey) InstList {
	return pl.lists[key]
}

// Submit routes render inst to list of its filter key
func (pl *PassLists) Submit(ri *RenderInst) {
	l, ok := pl.lists[ri.FilterKey]
	if !ok {
		log.Printf("[render] Unknown filter key %d, drawing as opaque", ri.FilterKey)
		ri.FilterKey = PASS_OPAQUE
		l = pl.lists[PASS_OPAQUE]
	}
	l.Submit(ri)
}

func (pl *PassLists) Len() int {
	n := 0
	for _, l := range pl.lists {
		n += l.Len()
	}
	return n
}

func (pl *PassLists) Reset() {
	for _, l := range pl.lists {
		l.Reset()
	}
}

// RenderInstManager builds render insts from stack of templates
type RenderInstManager struct {
	templates []*RenderInst
	lists     *PassLists
	pool      []*RenderInst
	used      int
}

func NewRenderInstManager(lists *PassLists) *RenderInstManager {
	base := &RenderInst{MegaState: DefaultMegaState(), FilterKey: PASS_OPAQUE}
	return &RenderInstManager{templates: []*RenderInst{base}, lists: lists}
}

func (m *RenderInstManager) Lists() *PassLists { return m.lists }

func (m *RenderInstManager) CurrentTemplate() *RenderInst {
	return m.templates[len(m.templates)-1]
}

// PushTemplate pushes copy of current template and returns it for modification
func (m *RenderInstManager) PushTemplate() *RenderInst {
	t := &RenderInst{}
	t.SetFrom(m.CurrentTemplate())
	m.templates = append(m.templates, t)
	return t
}

func (m *RenderInstManager) PopTemplate() {
	if len(m.templates) == 1 {
		log.Printf("[render] PopTemplate on base template")
		return
	}
	m.templates = m.templates[:len(m.templates)-1]
}

func (m *RenderInstManager) TemplateDepth() int { return len(m.templates) - 1 }

// NewRenderInst returns render inst initialized from current template.
// Instances are reused after ResetRenderInsts.
func (m *RenderInstManager) NewRenderInst() *RenderInst {
	if m.used == len(m.pool) {
		m.pool = append(m.pool, &RenderInst{})
	}
	ri := m.pool[m.used]
	m.used++
	ri.SetFrom(m.CurrentTemplate())
	return ri
}

func (m *RenderInstManager) SubmitRenderInst(ri *RenderInst) {
	m.lists.Submit(ri)
}

// ResetRenderInsts recycles every render inst of previous frame
func (m *RenderInstManager) ResetRenderInsts() {
	m.used = 0
	m.lists.Reset()
}
