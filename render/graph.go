package render

import (
	"log"

	"github.com/pkg/errors"
)

type RenderTargetID int
type ResolveTextureID int

type AttachmentSlot int

const (
	SLOT_COLOR AttachmentSlot = iota
	SLOT_DEPTH
)

// RenderTargetDescription is virtual target of graph.
// Clear values apply on first pass using target.
type RenderTargetDescription struct {
	Name       string
	Width      int
	Height     int
	Format     TargetFormat
	ClearColor *[4]float32
	ClearDepth *float32
}

func (d *RenderTargetDescription) physical() RenderTargetDescriptor {
	return RenderTargetDescriptor{Width: d.Width, Height: d.Height, Format: d.Format}
}

type GraphPass struct {
	Name        string
	attachments [2]RenderTargetID
	resolveTo   ResolveTextureID
	inputs      []ResolveTextureID
	exec        func(pass RenderPass, scope *GraphScope)
}

func (p *GraphPass) SetDebugName(name string) { p.Name = name }

func (p *GraphPass) AttachRenderTargetID(slot AttachmentSlot, id RenderTargetID) {
	p.attachments[slot] = id
}

// AttachResolveTexture declares pass samples resolved texture
func (p *GraphPass) AttachResolveTexture(id ResolveTextureID) {
	p.inputs = append(p.inputs, id)
}

func (p *GraphPass) Exec(fn func(pass RenderPass, scope *GraphScope)) {
	p.exec = fn
}

type GraphBuilder struct {
	targets  []RenderTargetDescription
	passes   []*GraphPass
	resolves []resolveInfo
	present  RenderTargetID
}

type resolveInfo struct {
	source RenderTargetID
	pass   int
}

func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{present: -1}
}

func (b *GraphBuilder) CreateRenderTargetID(desc RenderTargetDescription) RenderTargetID {
	b.targets = append(b.targets, desc)
	return RenderTargetID(len(b.targets) - 1)
}

func (b *GraphBuilder) TargetDescription(id RenderTargetID) *RenderTargetDescription {
	return &b.targets[id]
}

func (b *GraphBuilder) PushPass(setup func(pass *GraphPass)) {
	p := &GraphPass{
		Name:        "pass",
		attachments: [2]RenderTargetID{-1, -1},
		resolveTo:   -1,
	}
	setup(p)
	b.passes = append(b.passes, p)
}

// ResolveToTexture copies color of target into texture at end of last pass rendering to it
func (b *GraphBuilder) ResolveToTexture(id RenderTargetID) (ResolveTextureID, error) {
	for i := len(b.passes) - 1; i >= 0; i-- {
		p := b.passes[i]
		if p.attachments[SLOT_COLOR] != id {
			continue
		}
		if p.resolveTo >= 0 {
			return p.resolveTo, nil
		}
		b.resolves = append(b.resolves, resolveInfo{source: id, pass: i})
		p.resolveTo = ResolveTextureID(len(b.resolves) - 1)
		return p.resolveTo, nil
	}
	return -1, errors.Errorf("Target %q was never rendered", b.targets[id].Name)
}

func (b *GraphBuilder) Present(id RenderTargetID) { b.present = id }

func (b *GraphBuilder) PassCount() int { return len(b.passes) }

type Lifetime struct {
	First int
	Last  int
}

// CompiledGraph maps virtual targets to physical slots.
// Targets share slot only when lifetimes do not overlap.
type CompiledGraph struct {
	TargetLifetimes  []Lifetime
	TargetSlots      []int
	Slots            []RenderTargetDescriptor
	ResolveLifetimes []Lifetime
	ResolveSlots     []int
	TextureSlots     []TextureDescriptor
}

func (b *GraphBuilder) Compile() *CompiledGraph {
	c := &CompiledGraph{
		TargetLifetimes:  make([]Lifetime, len(b.targets)),
		TargetSlots:      make([]int, len(b.targets)),
		ResolveLifetimes: make([]Lifetime, len(b.resolves)),
		ResolveSlots:     make([]int, len(b.resolves)),
	}
	for i := range c.TargetLifetimes {
		c.TargetLifetimes[i] = Lifetime{First: -1, Last: -1}
		c.TargetSlots[i] = -1
	}

	use := func(lt *Lifetime, pass int) {
		if lt.First < 0 {
			lt.First = pass
		}
		lt.Last = pass
	}
	for i, p := range b.passes {
		for _, id := range p.attachments {
			if id >= 0 {
				use(&c.TargetLifetimes[id], i)
			}
		}
	}
	if b.present >= 0 {
		use(&c.TargetLifetimes[b.present], len(b.passes))
	}

	for i, r := range b.resolves {
		c.ResolveLifetimes[i] = Lifetime{First: r.pass, Last: r.pass}
		c.ResolveSlots[i] = -1
	}
	for i, p := range b.passes {
		for _, id := range p.inputs {
			if int(id) < len(b.resolves) && i > c.ResolveLifetimes[id].Last {
				c.ResolveLifetimes[id].Last = i
			}
		}
	}

	var freeTargets, freeTextures []int
	take := func(free []int, match func(slot int) bool) ([]int, int) {
		for i, slot := range free {
			if match(slot) {
				return append(free[:i:i], free[i+1:]...), slot
			}
		}
		return free, -1
	}

	for pass := 0; pass <= len(b.passes); pass++ {
		for id, lt := range c.TargetLifetimes {
			if lt.First != pass {
				continue
			}
			desc := b.targets[id].physical()
			var slot int
			freeTargets, slot = take(freeTargets, func(s int) bool { return c.Slots[s] == desc })
			if slot < 0 {
				c.Slots = append(c.Slots, desc)
				slot = len(c.Slots) - 1
			}
			c.TargetSlots[id] = slot
		}
		for id, lt := range c.ResolveLifetimes {
			if lt.First != pass {
				continue
			}
			src := b.targets[b.resolves[id].source]
			desc := TextureDescriptor{Width: src.Width, Height: src.Height, MipCount: 1}
			var slot int
			freeTextures, slot = take(freeTextures, func(s int) bool { return c.TextureSlots[s] == desc })
			if slot < 0 {
				c.TextureSlots = append(c.TextureSlots, desc)
				slot = len(c.TextureSlots) - 1
			}
			c.ResolveSlots[id] = slot
		}

		for id, lt := range c.TargetLifetimes {
			if lt.Last == pass && c.TargetSlots[id] >= 0 {
				freeTargets = append(freeTargets, c.TargetSlots[id])
			}
		}
		for id, lt := range c.ResolveLifetimes {
			if lt.Last == pass && c.ResolveSlots[id] >= 0 {
				freeTextures = append(freeTextures, c.ResolveSlots[id])
			}
		}
	}
	return c
}

type GraphScope struct {
	resolved map[ResolveTextureID]Texture
}

func (s *GraphScope) ResolveTexture(id ResolveTextureID) Texture {
	return s.resolved[id]
}

// GraphExecutor keeps physical targets between frames
type GraphExecutor struct {
	device   Device
	targets  map[RenderTargetDescriptor][]RenderTarget
	textures map[TextureDescriptor][]Texture
}

func NewGraphExecutor(device Device) *GraphExecutor {
	return &GraphExecutor{
		device:   device,
		targets:  make(map[RenderTargetDescriptor][]RenderTarget),
		textures: make(map[TextureDescriptor][]Texture),
	}
}

func (e *GraphExecutor) Execute(b *GraphBuilder) *CompiledGraph {
	c := b.Compile()

	usedTargets := make(map[RenderTargetDescriptor]int)
	slotTargets := make([]RenderTarget, len(c.Slots))
	for i, desc := range c.Slots {
		n := usedTargets[desc]
		if n == len(e.targets[desc]) {
			e.targets[desc] = append(e.targets[desc], e.device.CreateRenderTarget(desc))
		}
		slotTargets[i] = e.targets[desc][n]
		usedTargets[desc]++
	}

	usedTextures := make(map[TextureDescriptor]int)
	slotTextures := make([]Texture, len(c.TextureSlots))
	for i, desc := range c.TextureSlots {
		n := usedTextures[desc]
		if n == len(e.textures[desc]) {
			e.textures[desc] = append(e.textures[desc], e.device.CreateTexture(desc))
		}
		slotTextures[i] = e.textures[desc][n]
		usedTextures[desc]++
	}

	target := func(id RenderTargetID) RenderTarget {
		if id < 0 || c.TargetSlots[id] < 0 {
			return nil
		}
		return slotTargets[c.TargetSlots[id]]
	}

	scope := &GraphScope{resolved: make(map[ResolveTextureID]Texture)}
	for i, p := range b.passes {
		desc := RenderPassDescriptor{
			Name:  p.Name,
			Color: target(p.attachments[SLOT_COLOR]),
			Depth: target(p.attachments[SLOT_DEPTH]),
		}
		if id := p.attachments[SLOT_COLOR]; id >= 0 && c.TargetLifetimes[id].First == i {
			desc.ClearColor = b.targets[id].ClearColor
		}
		if id := p.attachments[SLOT_DEPTH]; id >= 0 && c.TargetLifetimes[id].First == i {
			desc.ClearDepth = b.targets[id].ClearDepth
		}
		if p.resolveTo >= 0 {
			desc.ResolveTo = slotTextures[c.ResolveSlots[p.resolveTo]]
		}

		rp := e.device.CreateRenderPass(desc)
		if p.exec != nil {
			p.exec(rp, scope)
		}
		e.device.SubmitPass(rp)

		if p.resolveTo >= 0 {
			scope.resolved[p.resolveTo] = desc.ResolveTo
		}
	}

	if rt := target(b.present); rt != nil {
		e.device.Present(rt)
	} else {
		log.Printf("[render] Graph has no presented target")
	}
	return c
}

func (e *GraphExecutor) Destroy() {
	for _, list := range e.targets {
		for _, rt := range list {
			e.device.Destroy(rt)
		}
	}
	for _, list := range e.textures {
		for _, t := range list {
			e.device.Destroy(t)
		}
	}
	e.targets = make(map[RenderTargetDescriptor][]RenderTarget)
	e.textures = make(map[TextureDescriptor][]Texture)
}
