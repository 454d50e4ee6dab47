package soft

import (
	"image"
	"image/draw"
	"log"

	"github.com/mogaika/retro_model_browser/render"
)

type buffer struct {
	render.ResourceBase
	usage render.BufferUsage
	data  []byte
}

func (b *buffer) Usage() render.BufferUsage { return b.usage }
func (b *buffer) ByteSize() int             { return len(b.data) }

type texture struct {
	render.ResourceBase
	desc render.TextureDescriptor
	img  *image.NRGBA
}

func (t *texture) Descriptor() render.TextureDescriptor { return t.desc }

type sampler struct {
	render.ResourceBase
	desc render.SamplerDescriptor
}

func (s *sampler) Descriptor() render.SamplerDescriptor { return s.desc }

type program struct {
	render.ResourceBase
	key uint32
}

func (p *program) Key() uint32 { return p.key }

type inputLayout struct {
	render.ResourceBase
	desc render.InputLayoutDescriptor
}

func (l *inputLayout) Descriptor() render.InputLayoutDescriptor { return l.desc }

type target struct {
	render.ResourceBase
	desc  render.RenderTargetDescriptor
	color *image.NRGBA
	depth []float32
}

func (t *target) Descriptor() render.RenderTargetDescriptor { return t.desc }

// Device rasterizes on cpu.
// Generated programs are ignored: pixel is vertex color modulated by first texture.
type Device struct {
	presented *target
}

func NewDevice() *Device {
	return &Device{}
}

func (d *Device) Features() render.Features {
	return render.Features{CPULighting: true}
}

func (d *Device) CreateBuffer(usage render.BufferUsage, data []byte) render.Buffer {
	return &buffer{ResourceBase: render.NewResourceBase(), usage: usage, data: append([]byte(nil), data...)}
}

func (d *Device) UploadBuffer(b render.Buffer, offset int, data []byte) {
	buf := b.(*buffer)
	if end := offset + len(data); end > len(buf.data) {
		buf.data = append(buf.data, make([]byte, end-len(buf.data))...)
	}
	copy(buf.data[offset:], data)
}

func (d *Device) CreateTexture(desc render.TextureDescriptor) render.Texture {
	return &texture{
		ResourceBase: render.NewResourceBase(),
		desc:         desc,
		img:          image.NewNRGBA(image.Rect(0, 0, desc.Width, desc.Height)),
	}
}

// UploadTexture keeps only base level, sampler never selects lod
func (d *Device) UploadTexture(t render.Texture, levels []*image.NRGBA) {
	if len(levels) == 0 {
		return
	}
	tex := t.(*texture)
	tex.img = levels[0]
}

func (d *Device) CreateSampler(desc render.SamplerDescriptor) render.Sampler {
	return &sampler{ResourceBase: render.NewResourceBase(), desc: desc}
}

func (d *Device) CreateProgram(desc render.ProgramDescriptor) render.Program {
	return &program{ResourceBase: render.NewResourceBase(), key: desc.Key}
}

func (d *Device) CreateInputLayout(desc render.InputLayoutDescriptor) render.InputLayout {
	return &inputLayout{ResourceBase: render.NewResourceBase(), desc: desc}
}

func (d *Device) CreateRenderTarget(desc render.RenderTargetDescriptor) render.RenderTarget {
	t := &target{ResourceBase: render.NewResourceBase(), desc: desc}
	if desc.Format == render.FORMAT_D24 {
		t.depth = make([]float32, desc.Width*desc.Height)
		for i := range t.depth {
			t.depth[i] = 1
		}
	} else {
		t.color = image.NewNRGBA(image.Rect(0, 0, desc.Width, desc.Height))
	}
	return t
}

func (d *Device) CreateRenderPass(desc render.RenderPassDescriptor) render.RenderPass {
	p := &pass{desc: desc}
	if desc.Color != nil {
		p.color = desc.Color.(*target)
		if desc.ClearColor != nil {
			clearColor(p.color.color, *desc.ClearColor)
		}
	}
	if desc.Depth != nil {
		p.depth = desc.Depth.(*target)
		if desc.ClearDepth != nil {
			for i := range p.depth.depth {
				p.depth.depth[i] = *desc.ClearDepth
			}
		}
	}
	return p
}

func clearColor(img *image.NRGBA, c [4]float32) {
	px := [4]uint8{unorm(c[0]), unorm(c[1]), unorm(c[2]), unorm(c[3])}
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:i+4], px[:])
	}
}

func (d *Device) SubmitPass(rp render.RenderPass) {
	p := rp.(*pass)
	if p.desc.ResolveTo != nil && p.color != nil {
		tex := p.desc.ResolveTo.(*texture)
		tex.img = image.NewNRGBA(p.color.color.Rect)
		draw.Draw(tex.img, tex.img.Rect, p.color.color, image.Point{}, draw.Src)
	}
	if p.skipped > 0 {
		log.Printf("[render] Soft pass %q skipped %d draws", p.desc.Name, p.skipped)
	}
}

func (d *Device) Present(rt render.RenderTarget) {
	d.presented = rt.(*target)
}

func (d *Device) Destroy(r render.Resource) {}

// Snapshot returns copy of presented color target
func (d *Device) Snapshot() *image.NRGBA {
	if d.presented == nil || d.presented.color == nil {
		return nil
	}
	src := d.presented.color
	img := image.NewNRGBA(src.Rect)
	copy(img.Pix, src.Pix)
	return img
}
