package soft

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/retro_model_browser/gx"
	"github.com/mogaika/retro_model_browser/render"
	"github.com/mogaika/retro_model_browser/utils"
)

type vertex struct {
	clip  mgl32.Vec4
	color [4]float32
	uv    [2]float32
}

func lerpVertex(a, b *vertex, t float32) vertex {
	var v vertex
	v.clip = a.clip.Add(b.clip.Sub(a.clip).Mul(t))
	for i := range v.color {
		v.color[i] = a.color[i] + (b.color[i]-a.color[i])*t
	}
	for i := range v.uv {
		v.uv[i] = a.uv[i] + (b.uv[i]-a.uv[i])*t
	}
	return v
}

// clipNear cuts polygon by z >= -w plane
func clipNear(in []vertex) []vertex {
	dist := func(v *vertex) float32 { return v.clip[2] + v.clip[3] }
	out := make([]vertex, 0, len(in)+1)
	for i := range in {
		a, b := &in[i], &in[(i+1)%len(in)]
		da, db := dist(a), dist(b)
		if da >= 0 {
			out = append(out, *a)
		}
		if (da >= 0) != (db >= 0) {
			out = append(out, lerpVertex(a, b, da/(da-db)))
		}
	}
	return out
}

type screenVertex struct {
	x, y, z float32
	invW    float32
	// attributes divided by w
	color [4]float32
	uv    [2]float32
}

type pass struct {
	desc    render.RenderPassDescriptor
	color   *target
	depth   *target
	skipped int

	megaState render.MegaState
	layout    *inputLayout
	vbs       []render.Buffer
	ib        render.Buffer
	samplers  []render.SamplerBinding
	uniforms  []float32
}

func (p *pass) SetMegaState(ms *render.MegaState) { p.megaState = *ms }
func (p *pass) SetProgram(pr render.Program)        {}

func (p *pass) SetInputs(layout render.InputLayout, vertexBuffers []render.Buffer, indexBuffer render.Buffer) {
	p.layout, _ = layout.(*inputLayout)
	p.vbs = vertexBuffers
	p.ib = indexBuffer
}

func (p *pass) SetBindings(samplers []render.SamplerBinding, uniforms []float32) {
	p.samplers = samplers
	p.uniforms = uniforms
}

type attribReader struct {
	attr   *render.VertexAttribute
	data   []byte
	stride int
}

func (p *pass) attrib(name string) *attribReader {
	a := p.layout.desc.Find(name)
	if a == nil || a.BufferIndex >= len(p.vbs) || a.BufferIndex >= len(p.layout.desc.Strides) {
		return nil
	}
	buf, ok := p.vbs[a.BufferIndex].(*buffer)
	if !ok {
		return nil
	}
	return &attribReader{attr: a, data: buf.data, stride: p.layout.desc.Strides[a.BufferIndex]}
}

func (r *attribReader) read(index int, dst []float32) bool {
	if r == nil {
		return false
	}
	base := index*r.stride + r.attr.Offset
	n := r.attr.Components
	if n > len(dst) {
		n = len(dst)
	}
	if (base+n)*4 > len(r.data) {
		return false
	}
	for i := 0; i < n; i++ {
		dst[i] = render.BytesFloat32(r.data, base+i)
	}
	return true
}

func (p *pass) DrawIndexed(indexCount, firstIndex int) {
	ib, _ := p.ib.(*buffer)
	if p.layout == nil || ib == nil || p.color == nil || len(p.uniforms) < gx.UB_VIEW+16 {
		p.skipped++
		return
	}
	pos := p.attrib(gx.AttrPosition)
	if pos == nil {
		p.skipped++
		return
	}
	clr := p.attrib(gx.AttrColor0)
	tex := p.attrib(gx.AttrTexName(0))

	var proj, view mgl32.Mat4
	copy(proj[:], p.uniforms[gx.UB_PROJECTION:])
	copy(view[:], p.uniforms[gx.UB_VIEW:])
	mvp := proj.Mul4(view)

	var texImg *image.NRGBA
	var texSampler render.SamplerDescriptor
	if len(p.samplers) != 0 {
		if t, ok := p.samplers[0].Texture.(*texture); ok {
			texImg = t.img
		}
		if s, ok := p.samplers[0].Sampler.(*sampler); ok {
			texSampler = s.desc
		}
	}

	fetch := func(index uint32) (vertex, bool) {
		var v vertex
		var xyz [3]float32
		if !pos.read(int(index), xyz[:]) {
			return v, false
		}
		v.clip = mvp.Mul4x1(mgl32.Vec4{xyz[0], xyz[1], xyz[2], 1})
		v.color = [4]float32{1, 1, 1, 1}
		clr.read(int(index), v.color[:])
		tex.read(int(index), v.uv[:])
		return v, true
	}

	indices := len(ib.data) / 4
	for i := firstIndex; i+2 < firstIndex+indexCount && i+2 < indices; i += 3 {
		var tri [3]vertex
		ok := true
		for j := range tri {
			tri[j], ok = fetch(render.BytesUint32(ib.data, i+j))
			if !ok {
				break
			}
		}
		if !ok {
			p.skipped++
			return
		}
		poly := clipNear(tri[:])
		for j := 1; j+1 < len(poly); j++ {
			p.rasterize(&poly[0], &poly[j], &poly[j+1], texImg, &texSampler)
		}
	}
}

func (p *pass) toScreen(v *vertex) screenVertex {
	w := p.color.desc.Width
	h := p.color.desc.Height
	invW := 1 / v.clip[3]
	sv := screenVertex{
		x:    (v.clip[0]*invW*0.5 + 0.5) * float32(w),
		y:    (0.5 - v.clip[1]*invW*0.5) * float32(h),
		z:    v.clip[2]*invW*0.5 + 0.5,
		invW: invW,
	}
	for i := range v.color {
		sv.color[i] = v.color[i] * invW
	}
	for i := range v.uv {
		sv.uv[i] = v.uv[i] * invW
	}
	return sv
}

func edge(a, b *screenVertex, x, y float32) float32 {
	return (b.x-a.x)*(y-a.y) - (b.y-a.y)*(x-a.x)
}

func (p *pass) culled(area float32) bool {
	// screen y points down, positive area is clockwise
	front := (area > 0) == p.megaState.FrontFaceCW
	switch p.megaState.Cull {
	case render.CULL_BACK:
		return !front
	case render.CULL_FRONT:
		return front
	case render.CULL_BOTH:
		return true
	}
	return false
}

func (p *pass) rasterize(a, b, c *vertex, texImg *image.NRGBA, smp *render.SamplerDescriptor) {
	v0, v1, v2 := p.toScreen(a), p.toScreen(b), p.toScreen(c)
	area := edge(&v0, &v1, v2.x, v2.y)
	if area == 0 || p.culled(area) {
		return
	}

	w, h := p.color.desc.Width, p.color.desc.Height
	minX := int(math.Floor(float64(min3(v0.x, v1.x, v2.x))))
	maxX := int(math.Ceil(float64(max3(v0.x, v1.x, v2.x))))
	minY := int(math.Floor(float64(min3(v0.y, v1.y, v2.y))))
	maxY := int(math.Ceil(float64(max3(v0.y, v1.y, v2.y))))
	minX, maxX = clampInt(minX, 0, w), clampInt(maxX, 0, w)
	minY, maxY = clampInt(minY, 0, h), clampInt(maxY, 0, h)

	var depth []float32
	if p.depth != nil && p.depth.desc.Width == w && p.depth.desc.Height == h {
		depth = p.depth.depth
	}
	img := p.color.color

	for y := minY; y < maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x < maxX; x++ {
			px := float32(x) + 0.5
			b0 := edge(&v1, &v2, px, py) / area
			b1 := edge(&v2, &v0, px, py) / area
			b2 := edge(&v0, &v1, px, py) / area
			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}

			z := b0*v0.z + b1*v1.z + b2*v2.z
			if z < 0 || z > 1 {
				continue
			}
			di := y*w + x
			if depth != nil && !compare(p.megaState.DepthCompare, z, depth[di]) {
				continue
			}

			invW := b0*v0.invW + b1*v1.invW + b2*v2.invW
			var src [4]float32
			for i := range src {
				src[i] = (b0*v0.color[i] + b1*v1.color[i] + b2*v2.color[i]) / invW
			}
			if texImg != nil {
				u := (b0*v0.uv[0] + b1*v1.uv[0] + b2*v2.uv[0]) / invW
				v := (b0*v0.uv[1] + b1*v1.uv[1] + b2*v2.uv[1]) / invW
				t := sample(texImg, smp, u, v)
				for i := range src {
					src[i] *= t[i]
				}
				// stands in for alpha test of opaque cutout materials
				if p.megaState.Blend.Mode == render.BLEND_NONE && t[3] < 0.5 {
					continue
				}
			}

			if depth != nil && p.megaState.DepthWrite {
				depth[di] = z
			}
			p.writePixel(img, x, y, src)
		}
	}
}

func (p *pass) writePixel(img *image.NRGBA, x, y int, src [4]float32) {
	off := img.PixOffset(x, y)
	pix := img.Pix[off : off+4]
	var dst [4]float32
	for i := range dst {
		dst[i] = float32(pix[i]) / 255
	}
	out := blend(&p.megaState.Blend, src, dst)
	if p.megaState.ColorWrite {
		pix[0], pix[1], pix[2] = unorm(out[0]), unorm(out[1]), unorm(out[2])
	}
	if p.megaState.AlphaWrite {
		pix[3] = unorm(out[3])
	}
}

func compare(mode render.CompareMode, z, stored float32) bool {
	switch mode {
	case render.COMPARE_NEVER:
		return false
	case render.COMPARE_LESS:
		return z < stored
	case render.COMPARE_EQUAL:
		return z == stored
	case render.COMPARE_LEQUAL:
		return z <= stored
	case render.COMPARE_GREATER:
		return z > stored
	case render.COMPARE_NEQUAL:
		return z != stored
	case render.COMPARE_GEQUAL:
		return z >= stored
	}
	return true
}

func factor(f render.BlendFactor, src, dst [4]float32) [4]float32 {
	switch f {
	case render.FACTOR_ZERO:
		return [4]float32{}
	case render.FACTOR_SRC_COLOR:
		return src
	case render.FACTOR_ONE_MINUS_SRC_COLOR:
		return [4]float32{1 - src[0], 1 - src[1], 1 - src[2], 1 - src[3]}
	case render.FACTOR_DST_COLOR:
		return dst
	case render.FACTOR_ONE_MINUS_DST_COLOR:
		return [4]float32{1 - dst[0], 1 - dst[1], 1 - dst[2], 1 - dst[3]}
	case render.FACTOR_SRC_ALPHA:
		return [4]float32{src[3], src[3], src[3], src[3]}
	case render.FACTOR_ONE_MINUS_SRC_ALPHA:
		a := 1 - src[3]
		return [4]float32{a, a, a, a}
	case render.FACTOR_DST_ALPHA:
		return [4]float32{dst[3], dst[3], dst[3], dst[3]}
	case render.FACTOR_ONE_MINUS_DST_ALPHA:
		a := 1 - dst[3]
		return [4]float32{a, a, a, a}
	}
	return [4]float32{1, 1, 1, 1}
}

func blend(bs *render.BlendState, src, dst [4]float32) [4]float32 {
	if bs.Mode == render.BLEND_NONE {
		return src
	}
	sf := factor(bs.SrcFactor, src, dst)
	df := factor(bs.DstFactor, src, dst)
	var out [4]float32
	for i := range out {
		s, d := src[i]*sf[i], dst[i]*df[i]
		switch bs.Mode {
		case render.BLEND_SUBTRACT:
			out[i] = s - d
		case render.BLEND_REVERSE_SUBTRACT:
			out[i] = d - s
		default:
			out[i] = s + d
		}
	}
	return out
}

func wrap(i, n int, mode render.WrapMode) int {
	switch mode {
	case render.WRAP_REPEAT:
		return ((i % n) + n) % n
	case render.WRAP_MIRROR:
		m := ((i % (2 * n)) + 2*n) % (2 * n)
		if m >= n {
			m = 2*n - 1 - m
		}
		return m
	}
	return clampInt(i, 0, n-1)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func texel(img *image.NRGBA, x, y int) [4]float32 {
	off := img.PixOffset(img.Rect.Min.X+x, img.Rect.Min.Y+y)
	return [4]float32{
		float32(img.Pix[off]) / 255,
		float32(img.Pix[off+1]) / 255,
		float32(img.Pix[off+2]) / 255,
		float32(img.Pix[off+3]) / 255,
	}
}

func sample(img *image.NRGBA, s *render.SamplerDescriptor, u, v float32) [4]float32 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return [4]float32{1, 1, 1, 1}
	}
	fx, fy := u*float32(w), v*float32(h)
	if s.MagFilter != render.FILTER_BILINEAR {
		x := int(math.Floor(float64(fx)))
		y := int(math.Floor(float64(fy)))
		return texel(img, wrap(x, w, s.WrapS), wrap(y, h, s.WrapT))
	}

	fx -= 0.5
	fy -= 0.5
	x0, y0 := int(math.Floor(float64(fx))), int(math.Floor(float64(fy)))
	dx, dy := fx-float32(x0), fy-float32(y0)
	xa, xb := wrap(x0, w, s.WrapS), wrap(x0+1, w, s.WrapS)
	ya, yb := wrap(y0, h, s.WrapT), wrap(y0+1, h, s.WrapT)
	c00, c10 := texel(img, xa, ya), texel(img, xb, ya)
	c01, c11 := texel(img, xa, yb), texel(img, xb, yb)
	var out [4]float32
	for i := range out {
		top := c00[i] + (c10[i]-c00[i])*dx
		bottom := c01[i] + (c11[i]-c01[i])*dx
		out[i] = top + (bottom-top)*dy
	}
	return out
}

func unorm(v float32) uint8 {
	return uint8(utils.Clamp(v, 0, 1)*255 + 0.5)
}

func min3(a, b, c float32) float32 { return float32(math.Min(math.Min(float64(a), float64(b)), float64(c))) }
func max3(a, b, c float32) float32 { return float32(math.Max(math.Max(float64(a), float64(b)), float64(c))) }
