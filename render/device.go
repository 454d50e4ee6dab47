package render

import (
	"encoding/binary"
	"image"
	"math"
	"sync/atomic"
)

type BufferUsage int

const (
	BUFFER_VERTEX BufferUsage = iota
	BUFFER_INDEX
)

type WrapMode int

const (
	WRAP_CLAMP WrapMode = iota
	WRAP_REPEAT
	WRAP_MIRROR
)

type FilterMode int

const (
	FILTER_POINT FilterMode = iota
	FILTER_BILINEAR
)

type MipFilterMode int

const (
	MIPFILTER_NO_MIP MipFilterMode = iota
	MIPFILTER_NEAREST
	MIPFILTER_LINEAR
)

type CompareMode int

const (
	COMPARE_NEVER CompareMode = iota
	COMPARE_LESS
	COMPARE_EQUAL
	COMPARE_LEQUAL
	COMPARE_GREATER
	COMPARE_NEQUAL
	COMPARE_GEQUAL
	COMPARE_ALWAYS
)

type CullMode int

const (
	CULL_NONE CullMode = iota
	CULL_FRONT
	CULL_BACK
	CULL_BOTH
)

type BlendMode int

const (
	BLEND_NONE BlendMode = iota
	BLEND_ADD
	BLEND_SUBTRACT
	BLEND_REVERSE_SUBTRACT
)

type BlendFactor int

const (
	FACTOR_ZERO BlendFactor = iota
	FACTOR_ONE
	FACTOR_SRC_COLOR
	FACTOR_ONE_MINUS_SRC_COLOR
	FACTOR_DST_COLOR
	FACTOR_ONE_MINUS_DST_COLOR
	FACTOR_SRC_ALPHA
	FACTOR_ONE_MINUS_SRC_ALPHA
	FACTOR_DST_ALPHA
	FACTOR_ONE_MINUS_DST_ALPHA
)

type TargetFormat int

const (
	FORMAT_RGBA8 TargetFormat = iota
	FORMAT_D24
)

type BlendState struct {
	Mode      BlendMode
	SrcFactor BlendFactor
	DstFactor BlendFactor
}

// MegaState is whole fixed function output state of one draw
type MegaState struct {
	Blend        BlendState
	DepthCompare CompareMode
	DepthWrite   bool
	Cull         CullMode
	// front faces are clockwise, as GX rasterizer expects
	FrontFaceCW bool
	ColorWrite  bool
	AlphaWrite  bool
}

func DefaultMegaState() MegaState {
	return MegaState{
		Blend:        BlendState{Mode: BLEND_NONE, SrcFactor: FACTOR_ONE, DstFactor: FACTOR_ZERO},
		DepthCompare: COMPARE_LEQUAL,
		DepthWrite:   true,
		Cull:         CULL_NONE,
		FrontFaceCW:  true,
		ColorWrite:   true,
		AlphaWrite:   true,
	}
}

type TextureDescriptor struct {
	Width    int
	Height   int
	MipCount int
}

type SamplerDescriptor struct {
	WrapS     WrapMode
	WrapT     WrapMode
	MinFilter FilterMode
	MagFilter FilterMode
	MipFilter MipFilterMode
	MinLOD    float32
	MaxLOD    float32
	LODBias   float32
}

type ProgramDescriptor struct {
	Name     string
	Key      uint32
	Vertex   string
	Fragment string
}

// VertexAttribute is float attribute inside interleaved vertex buffer
type VertexAttribute struct {
	Name        string
	Components  int
	BufferIndex int
	// offset in floats
	Offset int
}

type InputLayoutDescriptor struct {
	Attributes []VertexAttribute
	// strides in floats
	Strides []int
}

func (d *InputLayoutDescriptor) Find(name string) *VertexAttribute {
	for i := range d.Attributes {
		if d.Attributes[i].Name == name {
			return &d.Attributes[i]
		}
	}
	return nil
}

type RenderTargetDescriptor struct {
	Width  int
	Height int
	Format TargetFormat
}

type RenderPassDescriptor struct {
	Name  string
	Color RenderTarget
	Depth RenderTarget
	// copy of color attachment is stored here at pass end
	ResolveTo  Texture
	ClearColor *[4]float32
	ClearDepth *float32
}

type Resource interface {
	ResourceID() int
}

type Buffer interface {
	Resource
	Usage() BufferUsage
	ByteSize() int
}

type Texture interface {
	Resource
	Descriptor() TextureDescriptor
}

type Sampler interface {
	Resource
	Descriptor() SamplerDescriptor
}

type Program interface {
	Resource
	Key() uint32
}

type InputLayout interface {
	Resource
	Descriptor() InputLayoutDescriptor
}

type RenderTarget interface {
	Resource
	Descriptor() RenderTargetDescriptor
}

type SamplerBinding struct {
	Texture Texture
	Sampler Sampler
}

type RenderPass interface {
	SetMegaState(ms *MegaState)
	SetProgram(p Program)
	SetInputs(layout InputLayout, vertexBuffers []Buffer, indexBuffer Buffer)
	SetBindings(samplers []SamplerBinding, uniforms []float32)
	DrawIndexed(indexCount, firstIndex int)
}

type Features struct {
	// device ignores generated programs, vertex lighting has to be baked into colors
	CPULighting bool
}

type Device interface {
	Features() Features
	CreateBuffer(usage BufferUsage, data []byte) Buffer
	UploadBuffer(b Buffer, offset int, data []byte)
	CreateTexture(desc TextureDescriptor) Texture
	UploadTexture(t Texture, levels []*image.NRGBA)
	CreateSampler(desc SamplerDescriptor) Sampler
	CreateProgram(desc ProgramDescriptor) Program
	CreateInputLayout(desc InputLayoutDescriptor) InputLayout
	CreateRenderTarget(desc RenderTargetDescriptor) RenderTarget
	CreateRenderPass(desc RenderPassDescriptor) RenderPass
	SubmitPass(p RenderPass)
	Present(rt RenderTarget)
	Destroy(r Resource)
}

// ResourceBase gives unique ids to device objects
type ResourceBase struct {
	id int
}

var lastResourceId int64

func NewResourceBase() ResourceBase {
	return ResourceBase{id: int(atomic.AddInt64(&lastResourceId, 1))}
}

func (r ResourceBase) ResourceID() int { return r.id }

// buffers are little endian, as WebGL expects them

func Float32Bytes(f []float32) []byte {
	b := make([]byte, len(f)*4)
	for i, v := range f {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func Uint32Bytes(u []uint32) []byte {
	b := make([]byte, len(u)*4)
	for i, v := range u {
		binary.LittleEndian.PutUint32(b[i*4:], v)
	}
	return b
}

func BytesFloat32(b []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
}

func BytesUint32(b []byte, i int) uint32 {
	return binary.LittleEndian.Uint32(b[i*4:])
}
