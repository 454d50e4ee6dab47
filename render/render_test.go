package render

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortKeyLayers(t *testing.T) {
	sky := MakeSortKey(LAYER_SKYBOX, 0xFFFFFFFF)
	opaque := MakeSortKey(LAYER_OPAQUE, 0x1234)
	translucent := MakeSortKey(LAYER_TRANSLUCENT, 0x1234)

	assert.Less(t, sky, opaque)
	assert.Less(t, opaque, translucent)
	assert.Equal(t, LAYER_OPAQUE, SortKeyLayer(SetSortKeyDepth(opaque, 500)))
	assert.Equal(t, uint32(0), translucent&0xFFFFFF)
}

func TestSortKeyDepth(t *testing.T) {
	tr := MakeSortKey(LAYER_TRANSLUCENT, 0)
	near, far := SetSortKeyDepth(tr, 10), SetSortKeyDepth(tr, 5000)
	assert.Greater(t, near, far, "translucent draws far first")

	op := MakeSortKey(LAYER_OPAQUE, 7)
	near, far = SetSortKeyDepth(op, 10), SetSortKeyDepth(op, 50000)
	assert.Less(t, near, far, "opaque draws near first")
	assert.Equal(t, op&0xFFFFFF00, near&0xFFFFFF00)

	assert.Equal(t, SetSortKeyDepth(tr, MAX_SORT_DEPTH), SetSortKeyDepth(tr, MAX_SORT_DEPTH*4))
}

func TestRenderInstListOrder(t *testing.T) {
	a, b, c := &RenderInst{SortKey: 3}, &RenderInst{SortKey: 1}, &RenderInst{SortKey: 3}

	l := NewRenderInstList(DRAW_ORDER_FORWARD)
	l.Submit(a)
	l.Submit(b)
	l.Submit(c)
	sorted := l.Sorted()
	assert.Same(t, b, sorted[0])
	assert.Same(t, a, sorted[1])
	assert.Same(t, c, sorted[2])

	l = NewRenderInstList(DRAW_ORDER_BACKWARD)
	l.Submit(b)
	l.Submit(a)
	assert.Same(t, a, l.Sorted()[0])
}

func TestPassListsRouting(t *testing.T) {
	pl := NewPassLists()
	pl.Submit(&RenderInst{FilterKey: PASS_SKYBOX})
	pl.Submit(&RenderInst{FilterKey: PASS_TRANSPARENT})
	pl.Submit(&RenderInst{FilterKey: PASS_TRANSPARENT})
	unknown := &RenderInst{FilterKey: FilterKey(42)}
	pl.Submit(unknown)

	assert.Equal(t, 1, pl.List(PASS_SKYBOX).Len())
	assert.Equal(t, 1, pl.List(PASS_OPAQUE).Len())
	assert.Equal(t, 0, pl.List(PASS_INDIRECT).Len())
	assert.Equal(t, 2, pl.List(PASS_TRANSPARENT).Len())
	assert.Equal(t, PASS_OPAQUE, unknown.FilterKey)
	assert.Equal(t, 4, pl.Len())

	pl.Reset()
	assert.Equal(t, 0, pl.Len())
}

func TestParseFilterKey(t *testing.T) {
	k, ok := ParseFilterKey("indirect")
	assert.True(t, ok)
	assert.Equal(t, PASS_INDIRECT, k)
	_, ok = ParseFilterKey("shadow")
	assert.False(t, ok)
}

func TestTemplateStack(t *testing.T) {
	m := NewRenderInstManager(NewPassLists())
	assert.Equal(t, 0, m.TemplateDepth())

	tmpl := m.PushTemplate()
	tmpl.FilterKey = PASS_TRANSPARENT
	tmpl.MegaState.DepthWrite = false
	tmpl.AllocateUniformBuffer(4)[0] = 5

	ri := m.NewRenderInst()
	assert.Equal(t, PASS_TRANSPARENT, ri.FilterKey)
	assert.False(t, ri.MegaState.DepthWrite)
	require.Len(t, ri.Uniforms, 4)
	ri.Uniforms[0] = 9
	assert.Equal(t, float32(5), tmpl.Uniforms[0])

	m.PopTemplate()
	m.PopTemplate()
	assert.Equal(t, 0, m.TemplateDepth())

	ri2 := m.NewRenderInst()
	assert.Equal(t, PASS_OPAQUE, ri2.FilterKey)
	assert.True(t, ri2.MegaState.DepthWrite)
	assert.Empty(t, ri2.Uniforms)

	m.SubmitRenderInst(ri)
	m.SubmitRenderInst(ri2)
	assert.Equal(t, 2, m.Lists().Len())
	m.ResetRenderInsts()
	assert.Equal(t, 0, m.Lists().Len())
	assert.Same(t, ri, m.NewRenderInst())
}

func TestAllocateUniformBufferZeroes(t *testing.T) {
	ri := &RenderInst{}
	u := ri.AllocateUniformBuffer(8)
	u[3] = 1
	u = ri.AllocateUniformBuffer(4)
	assert.Equal(t, []float32{0, 0, 0, 0}, u)
}

func TestGraphCompileLifetimes(t *testing.T) {
	b := NewGraphBuilder()
	desc := RenderTargetDescription{Width: 64, Height: 32, Format: FORMAT_RGBA8}
	first := b.CreateRenderTargetID(desc)
	second := b.CreateRenderTargetID(desc)
	kept := b.CreateRenderTargetID(desc)

	b.PushPass(func(p *GraphPass) {
		p.AttachRenderTargetID(SLOT_COLOR, first)
	})
	b.PushPass(func(p *GraphPass) {
		p.AttachRenderTargetID(SLOT_COLOR, second)
	})
	b.PushPass(func(p *GraphPass) {
		p.AttachRenderTargetID(SLOT_COLOR, kept)
	})
	b.Present(kept)

	c := b.Compile()
	assert.Equal(t, Lifetime{0, 0}, c.TargetLifetimes[first])
	assert.Equal(t, Lifetime{2, 3}, c.TargetLifetimes[kept])
	assert.Len(t, c.Slots, 1)
	assert.Equal(t, c.TargetSlots[first], c.TargetSlots[second])
}

func TestGraphCompileNoAliasing(t *testing.T) {
	b := NewGraphBuilder()
	desc := RenderTargetDescription{Width: 16, Height: 16, Format: FORMAT_RGBA8}
	a := b.CreateRenderTargetID(desc)
	other := b.CreateRenderTargetID(desc)
	b.PushPass(func(p *GraphPass) { p.AttachRenderTargetID(SLOT_COLOR, a) })
	b.PushPass(func(p *GraphPass) { p.AttachRenderTargetID(SLOT_COLOR, other) })
	b.PushPass(func(p *GraphPass) { p.AttachRenderTargetID(SLOT_COLOR, a) })
	b.Present(other)

	c := b.Compile()
	assert.Len(t, c.Slots, 2)
	assert.NotEqual(t, c.TargetSlots[a], c.TargetSlots[other])
}

func TestResolveToTexture(t *testing.T) {
	b := NewGraphBuilder()
	color := b.CreateRenderTargetID(RenderTargetDescription{Name: "color", Width: 8, Height: 8})
	unused := b.CreateRenderTargetID(RenderTargetDescription{Name: "unused", Width: 8, Height: 8})

	_, err := b.ResolveToTexture(color)
	assert.Error(t, err)

	b.PushPass(func(p *GraphPass) { p.AttachRenderTargetID(SLOT_COLOR, color) })
	id, err := b.ResolveToTexture(color)
	require.NoError(t, err)
	again, err := b.ResolveToTexture(color)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	_, err = b.ResolveToTexture(unused)
	assert.Error(t, err)
}

func TestStandardPipelineTargets(t *testing.T) {
	rec := NewRecorder()
	exec := NewGraphExecutor(rec)
	lists := NewPassLists()
	lists.Submit(&RenderInst{FilterKey: PASS_OPAQUE, IndexCount: 3})

	b := NewGraphBuilder()
	StandardPipeline(b, lists, PipelineInput{Width: 32, Height: 24})
	c := exec.Execute(b)

	assert.Equal(t, 3, b.PassCount())
	// skybox depth is dead before main depth starts
	assert.Len(t, c.Slots, 2)

	f := rec.TakeFrame()
	require.Len(t, f.Passes, 3)
	assert.Equal(t, []string{"Skybox", "Main", "Transparent"},
		[]string{f.Passes[0].Name, f.Passes[1].Name, f.Passes[2].Name})
	assert.NotNil(t, f.Passes[0].ClearColor)
	assert.Nil(t, f.Passes[1].ClearColor)
	assert.NotNil(t, f.Passes[1].ClearDepth)
	assert.Equal(t, f.Passes[0].Depth, f.Passes[1].Depth)
	assert.Len(t, f.Passes[1].Draws, 1)
	assert.Equal(t, f.Passes[0].Color, f.Present)
	assert.Len(t, f.Resources, 2)
	assert.Equal(t, 0, lists.Len())

	// targets are reused by next frame
	b = NewGraphBuilder()
	StandardPipeline(b, lists, PipelineInput{Width: 32, Height: 24})
	exec.Execute(b)
	assert.Empty(t, rec.TakeFrame().Resources)
}

func TestStandardPipelineIndirect(t *testing.T) {
	rec := NewRecorder()
	exec := NewGraphExecutor(rec)
	lists := NewPassLists()
	lists.Submit(&RenderInst{
		FilterKey:  PASS_INDIRECT,
		IndexCount: 6,
		Bindings:   []TextureMapping{{LateBinding: LATE_BINDING_OPAQUE_SCENE}},
	})

	b := NewGraphBuilder()
	StandardPipeline(b, lists, PipelineInput{Width: 16, Height: 16})
	exec.Execute(b)

	f := rec.TakeFrame()
	require.Len(t, f.Passes, 4)
	main, indirect := f.Passes[1], f.Passes[2]
	assert.Equal(t, "Indirect", indirect.Name)
	assert.NotZero(t, main.ResolveTo)
	require.Len(t, indirect.Draws, 1)
	assert.Equal(t, main.ResolveTo, indirect.Draws[0].Samplers[0][0])
	assert.Equal(t, 6, indirect.Draws[0].IndexCount)
}

func TestStandardPipelinePassFilter(t *testing.T) {
	rec := NewRecorder()
	lists := NewPassLists()
	lists.Submit(&RenderInst{FilterKey: PASS_OPAQUE})
	lists.Submit(&RenderInst{FilterKey: PASS_TRANSPARENT})

	b := NewGraphBuilder()
	StandardPipeline(b, lists, PipelineInput{
		Width: 4, Height: 4,
		Passes: map[FilterKey]bool{PASS_TRANSPARENT: true},
	})
	NewGraphExecutor(rec).Execute(b)

	f := rec.TakeFrame()
	assert.Empty(t, f.Passes[1].Draws)
	assert.Len(t, f.Passes[2].Draws, 1)
	assert.Equal(t, 0, lists.Len())
}

func TestRecorderFrameJson(t *testing.T) {
	rec := NewRecorder()
	assert.False(t, rec.Features().CPULighting)

	vb := rec.CreateBuffer(BUFFER_VERTEX, Float32Bytes([]float32{1, 2, 3}))
	ib := rec.CreateBuffer(BUFFER_INDEX, Uint32Bytes([]uint32{0, 1, 2}))
	prog := rec.CreateProgram(ProgramDescriptor{Name: "p", Key: 11, Vertex: "v", Fragment: "f"})
	layout := rec.CreateInputLayout(InputLayoutDescriptor{
		Attributes: []VertexAttribute{{Name: "a_Position", Components: 3}},
		Strides:    []int{3},
	})
	assert.Equal(t, uint32(11), prog.Key())
	assert.Equal(t, 12, vb.ByteSize())

	pass := rec.CreateRenderPass(RenderPassDescriptor{Name: "only"})
	ri := &RenderInst{
		MegaState:     DefaultMegaState(),
		Program:       prog,
		InputLayout:   layout,
		VertexBuffers: []Buffer{vb},
		IndexBuffer:   ib,
		Uniforms:      []float32{1},
	}
	ri.SetDrawRange(0, 3)
	ri.Draw(pass, nil)
	rec.SubmitPass(pass)
	rec.Destroy(vb)

	f := rec.TakeFrame()
	require.Len(t, f.Passes, 1)
	d := f.Passes[0].Draws[0]
	assert.Equal(t, prog.ResourceID(), d.Program)
	assert.Equal(t, []int{vb.ResourceID()}, d.VertexBuffers)
	assert.Equal(t, []int{vb.ResourceID()}, f.Destroyed)

	data, err := json.Marshal(f)
	require.NoError(t, err)
	var back Frame
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Len(t, back.Resources, 4)
	assert.Equal(t, "a_Position", back.Resources[3].InputLayout.Attributes[0].Name)

	assert.Empty(t, rec.TakeFrame().Passes)
}

func TestBufferBytes(t *testing.T) {
	b := Float32Bytes([]float32{1.5, -2})
	assert.Equal(t, float32(-2), BytesFloat32(b, 1))
	u := Uint32Bytes([]uint32{7, 0x01020304})
	assert.Equal(t, byte(0x04), u[4])
	assert.Equal(t, uint32(0x01020304), BytesUint32(u, 1))
}
