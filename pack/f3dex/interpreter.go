package f3dex

import (
	"encoding/binary"
	"image"
	"log"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/utils"
)

const (
	MAX_DL_DEPTH    = 18
	MAX_DL_COMMANDS = 1 << 20
)

// Vertex is vertex of draw call, texture coordinates are normalized per tile
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Color    utils.ColorFloat
	UV       [2]mgl32.Vec2
}

// cacheVertex is entry of RSP vertex cache, coordinates in texels
type cacheVertex struct {
	id       int
	position mgl32.Vec3
	normal   mgl32.Vec3
	color    utils.ColorFloat
	st       mgl32.Vec2
}

type Tile struct {
	Format  int
	Size    int
	Line    int
	TMem    int
	Palette int
	CMS     int
	CMT     int
	MaskS   int
	MaskT   int
	ShiftS  int
	ShiftT  int
	// 10.2 fixed point
	ULS, ULT, LRS, LRT int
}

func (t *Tile) Width() int  { return (t.LRS-t.ULS)>>2 + 1 }
func (t *Tile) Height() int { return (t.LRT-t.ULT)>>2 + 1 }

func shiftScale(shift int) float32 {
	switch {
	case shift == 0:
		return 1
	case shift <= 10:
		return 1 / float32(int(1)<<uint(shift))
	}
	return float32(int(1) << uint(16-shift))
}

// normalize maps texel coordinates of vertex into 0..1 range of tile
func (t *Tile) normalize(st mgl32.Vec2) mgl32.Vec2 {
	s := st[0]*shiftScale(t.ShiftS) - float32(t.ULS)/4
	u := st[1]*shiftScale(t.ShiftT) - float32(t.ULT)/4
	return mgl32.Vec2{s / float32(t.Width()), u / float32(t.Height())}
}

type tmemLoad struct {
	Address uint32
	// source row length in texels for LOADTILE, 0 for contiguous data
	Stride int
	Size   int
	Count  int
}

// light is directional light or ambient color when it follows the last directional one
type light struct {
	color mgl32.Vec3
	dir   mgl32.Vec3
}

type textureImage struct {
	Format  int
	Size    int
	Width   int
	Address uint32
}

// DrawState is everything shared by triangles of one draw call.
// Values are comparable, equal states are merged.
type DrawState struct {
	GeometryMode uint32
	OtherModeH   uint32
	OtherModeL   uint32
	Combine      CombineMode
	// TextureCache index per tile, -1 when unused
	Textures    [2]int
	Tiles       [2]Tile
	PrimColor   utils.ColorFloat
	EnvColor    utils.ColorFloat
	FogColor    utils.ColorFloat
	BlendColor  utils.ColorFloat
	PrimLodFrac float32
}

func (ds *DrawState) CycleType() int { return int(ds.OtherModeH>>G_MDSFT_CYCLETYPE) & 3 }
func (ds *DrawState) TwoCycle() bool { return ds.CycleType() == G_CYC_2CYCLE }
func (ds *DrawState) TextFilter() int {
	return int(ds.OtherModeH>>G_MDSFT_TEXTFILT) & 3
}
func (ds *DrawState) TextLUT() int      { return int(ds.OtherModeH>>G_MDSFT_TEXTLUT) & 3 }
func (ds *DrawState) AlphaCompare() int { return int(ds.OtherModeL>>G_MDSFT_ALPHACOMPARE) & 3 }
func (ds *DrawState) RenderMode() uint32 {
	return ds.OtherModeL >> G_MDSFT_RENDERMODE << G_MDSFT_RENDERMODE
}
func (ds *DrawState) ZCompare() bool { return ds.RenderMode()&Z_CMP != 0 && ds.GeometryMode&G_ZBUFFER != 0 }
func (ds *DrawState) ZUpdate() bool  { return ds.RenderMode()&Z_UPD != 0 && ds.GeometryMode&G_ZBUFFER != 0 }
func (ds *DrawState) Decal() bool    { return ds.RenderMode()&ZMODE_MASK == ZMODE_DEC }

// blender returns p, a, m, b inputs of cycle that writes memory
func (ds *DrawState) blender() (p, a, m, b int) {
	l := ds.OtherModeL
	if ds.TwoCycle() {
		return int(l>>28) & 3, int(l>>24) & 3, int(l>>20) & 3, int(l>>16) & 3
	}
	return int(l>>30) & 3, int(l>>26) & 3, int(l>>22) & 3, int(l>>18) & 3
}

// Blend reports blending with framebuffer
func (ds *DrawState) Blend() bool {
	if ds.RenderMode()&FORCE_BL == 0 {
		return false
	}
	_, a, m, _ := ds.blender()
	return m == G_BL_CLR_MEM && a != G_BL_0
}

// CvgAlpha reports alpha driven coverage used as cutout
func (ds *DrawState) CvgAlpha() bool {
	rm := ds.RenderMode()
	return rm&CVG_X_ALPHA != 0 && rm&ALPHA_CVG_SEL != 0
}

func (ds *DrawState) IsTranslucent() bool {
	return ds.Blend() || !ds.ZUpdate() || ds.RenderMode()&ZMODE_MASK == ZMODE_XLU
}

func (ds *DrawState) ProgramState() *ProgramState {
	return &ProgramState{
		Combine:      ds.Combine,
		TwoCycle:     ds.TwoCycle(),
		AlphaCompare: ds.AlphaCompare(),
		CvgAlpha:     ds.CvgAlpha(),
	}
}

type DrawCall struct {
	DrawState
	Vertices []Vertex
	Indices  []uint32

	vertexIds map[int]uint32
}

// Interpreter executes F3DEX display lists and collects triangles into draw calls
type Interpreter struct {
	segments [SEGMENT_COUNT][]byte

	vertexCache [VERTEX_CACHE]cacheVertex
	nextId      int

	modelView  []mgl32.Mat4
	projection mgl32.Mat4

	geometryMode uint32
	otherModeH   uint32
	otherModeL   uint32
	combine      CombineMode

	textureOn    bool
	textureTile  int
	textureLevel int
	scaleS       float32
	scaleT       float32

	lights       [MAX_LIGHTS + 1]light
	numLights    int
	lightsLoaded bool

	tiles [8]Tile
	timg  textureImage
	tmem  map[int]tmemLoad

	primColor   utils.ColorFloat
	envColor    utils.ColorFloat
	fogColor    utils.ColorFloat
	blendColor  utils.ColorFloat
	primLodFrac float32

	stateDirty bool
	state      DrawState

	Cache     *TextureCache
	DrawCalls []*DrawCall
	Commands  int
	Unknown   map[byte]int
}

func NewInterpreter(cache *TextureCache) *Interpreter {
	if cache == nil {
		cache = NewTextureCache()
	}
	return &Interpreter{
		modelView:  []mgl32.Mat4{mgl32.Ident4()},
		projection: mgl32.Ident4(),
		tmem:       make(map[int]tmemLoad),
		scaleS:     1,
		scaleT:     1,
		numLights:  1,
		stateDirty: true,
		Cache:      cache,
		Unknown:    make(map[byte]int),
	}
}

func (in *Interpreter) SetSegment(segment int, data []byte) {
	in.segments[segment&0xF] = data
}

// resolve returns memory at segmented address
func (in *Interpreter) resolve(addr uint32) ([]byte, error) {
	seg := int(addr>>24) & 0xF
	off := int(addr & 0xFFFFFF)
	data := in.segments[seg]
	if data == nil {
		return nil, errors.Errorf("Segment %d of address 0x%08x is not set", seg, addr)
	}
	if off > len(data) {
		return nil, errors.Errorf("Address 0x%08x out of segment (0x%x bytes)", addr, len(data))
	}
	return data[off:], nil
}

// Run executes display list at segmented address
func (in *Interpreter) Run(addr uint32) error {
	return in.run(addr, 0)
}

func (in *Interpreter) run(addr uint32, depth int) error {
	if depth > MAX_DL_DEPTH {
		return errors.Errorf("Display list 0x%08x nested too deep", addr)
	}
	for {
		data, err := in.resolve(addr)
		if err != nil {
			return err
		}
		if len(data) < 8 {
			return errors.Errorf("Display list 0x%08x runs out of segment", addr)
		}
		if in.Commands++; in.Commands > MAX_DL_COMMANDS {
			return errors.Errorf("Display list does not end")
		}
		w0 := binary.BigEndian.Uint32(data)
		w1 := binary.BigEndian.Uint32(data[4:])
		cmd := byte(w0 >> 24)
		addr += 8

		switch cmd {
		case G_ENDDL:
			return nil
		case G_DL:
			if (w0>>16)&0xFF == G_DL_NOPUSH {
				addr = w1
				continue
			}
			if err := in.run(w1, depth+1); err != nil {
				return errors.Wrapf(err, "Called from 0x%08x", addr-8)
			}
		default:
			if err := in.exec(cmd, w0, w1); err != nil {
				return errors.Wrapf(err, "%s at 0x%08x", CommandNames[cmd], addr-8)
			}
		}
	}
}

func (in *Interpreter) exec(cmd byte, w0, w1 uint32) error {
	switch cmd {
	case G_VTX:
		return in.loadVertices(w1, int(w0>>10)&0x3F, int((w0>>16)&0xFF)/2)
	case G_TRI1:
		return in.triangle(int((w1>>16)&0xFF)/2, int((w1>>8)&0xFF)/2, int(w1&0xFF)/2)
	case G_TRI2:
		if err := in.triangle(int((w0>>16)&0xFF)/2, int((w0>>8)&0xFF)/2, int(w0&0xFF)/2); err != nil {
			return err
		}
		return in.triangle(int((w1>>16)&0xFF)/2, int((w1>>8)&0xFF)/2, int(w1&0xFF)/2)
	case G_QUAD:
		i0, i1, i2, i3 := int(w1>>24)/2, int((w1>>16)&0xFF)/2, int((w1>>8)&0xFF)/2, int(w1&0xFF)/2
		if err := in.triangle(i0, i1, i2); err != nil {
			return err
		}
		return in.triangle(i0, i2, i3)
	case G_MTX:
		return in.matrix(w1, int(w0>>16)&0xFF)
	case G_POPMTX:
		if len(in.modelView) > 1 {
			in.modelView = in.modelView[:len(in.modelView)-1]
		}
	case G_MOVEWORD:
		switch w0 & 0xFF {
		case G_MW_SEGMENT:
			seg := int((w0>>8)&0xFFFF) / 4
			data, err := in.resolve(w1)
			if err != nil {
				return err
			}
			in.SetSegment(seg, data)
		case G_MW_NUMLIGHT:
			n := int((w1&0x7FFFFFFF)/32) - 1
			if n < 0 || n > MAX_LIGHTS {
				return errors.Errorf("Invalid light count %d", n)
			}
			in.numLights = n
		}
	case G_MOVEMEM:
		return in.moveMem(int(w0>>16)&0xFF, w1)
	case G_SETGEOMETRYMODE:
		in.geometryMode |= w1
		in.stateDirty = true
	case G_CLEARGEOMETRYMODE:
		in.geometryMode &^= w1
		in.stateDirty = true
	case G_SETOTHERMODE_H:
		in.otherModeH = setOtherMode(in.otherModeH, w0, w1)
		in.stateDirty = true
	case G_SETOTHERMODE_L:
		in.otherModeL = setOtherMode(in.otherModeL, w0, w1)
		in.stateDirty = true
	case G_RDPSETOTHERMODE:
		in.otherModeH = w0 & 0xFFFFFF
		in.otherModeL = w1
		in.stateDirty = true
	case G_TEXTURE:
		in.textureOn = w0&0xFF != 0
		in.textureTile = int(w0>>8) & 7
		in.textureLevel = int(w0>>11) & 7
		in.scaleS = float32(w1>>16) / 65536
		in.scaleT = float32(w1&0xFFFF) / 65536
		in.stateDirty = true
	case G_SETCOMBINE:
		in.combine = DecodeCombine(w0, w1)
		in.stateDirty = true
	case G_SETTIMG:
		in.timg = textureImage{
			Format:  int(w0>>21) & 7,
			Size:    int(w0>>19) & 3,
			Width:   int(w0&0xFFF) + 1,
			Address: w1,
		}
	case G_SETTILE:
		t := &in.tiles[(w1>>24)&7]
		t.Format = int(w0>>21) & 7
		t.Size = int(w0>>19) & 3
		t.Line = int(w0>>9) & 0x1FF
		t.TMem = int(w0 & 0x1FF)
		t.Palette = int(w1>>20) & 0xF
		t.CMT = int(w1>>18) & 3
		t.MaskT = int(w1>>14) & 0xF
		t.ShiftT = int(w1>>10) & 0xF
		t.CMS = int(w1>>8) & 3
		t.MaskS = int(w1>>4) & 0xF
		t.ShiftS = int(w1 & 0xF)
		in.stateDirty = true
	case G_SETTILESIZE:
		in.setTileSize(w0, w1)
	case G_LOADTILE:
		t := in.setTileSize(w0, w1)
		off := ((t.ULT>>2)*in.timg.Width + t.ULS>>2) * SizeBits[in.timg.Size] / 8
		in.tmem[t.TMem] = tmemLoad{Address: in.timg.Address + uint32(off), Stride: in.timg.Width, Size: in.timg.Size}
		in.stateDirty = true
	case G_LOADBLOCK:
		t := &in.tiles[(w1>>24)&7]
		in.tmem[t.TMem] = tmemLoad{Address: in.timg.Address, Size: in.timg.Size, Count: int(w1>>12)&0xFFF + 1}
		in.stateDirty = true
	case G_LOADTLUT:
		t := &in.tiles[(w1>>24)&7]
		in.tmem[t.TMem] = tmemLoad{Address: in.timg.Address, Count: int(w1>>14)&0x3FF + 1}
		in.stateDirty = true
	case G_SETPRIMCOLOR:
		in.primLodFrac = float32(w0&0xFF) / 255
		in.primColor = rgba8(w1)
		in.stateDirty = true
	case G_SETENVCOLOR:
		in.envColor = rgba8(w1)
		in.stateDirty = true
	case G_SETFOGCOLOR:
		in.fogColor = rgba8(w1)
		in.stateDirty = true
	case G_SETBLENDCOLOR:
		in.blendColor = rgba8(w1)
		in.stateDirty = true
	case G_SPNOOP, G_NOOP, G_CULLDL, G_RDPHALF_1, G_RDPHALF_2, G_RDPHALF_CONT,
		G_RDPLOADSYNC, G_RDPPIPESYNC, G_RDPTILESYNC, G_RDPFULLSYNC,
		G_SETKEYGB, G_SETKEYR, G_SETCONVERT, G_SETSCISSOR, G_SETPRIMDEPTH,
		G_SETFILLCOLOR, G_FILLRECT, G_TEXRECT, G_TEXRECTFLIP, G_SETZIMG, G_SETCIMG:
	default:
		if in.Unknown[cmd] == 0 {
			log.Printf("[f3dex] Unknown command 0x%02x (0x%08x 0x%08x), skipped", cmd, w0, w1)
		}
		in.Unknown[cmd]++
	}
	return nil
}

func rgba8(w uint32) utils.ColorFloat {
	return utils.NewColorFloatFromRGBA8(uint8(w>>24), uint8(w>>16), uint8(w>>8), uint8(w))
}

func setOtherMode(mode, w0, w1 uint32) uint32 {
	shift := (w0 >> 8) & 0xFF
	length := w0 & 0xFF
	mask := uint32((uint64(1)<<length)-1) << shift
	return mode&^mask | w1&mask
}

func (in *Interpreter) setTileSize(w0, w1 uint32) *Tile {
	t := &in.tiles[(w1>>24)&7]
	t.ULS = int(w0>>12) & 0xFFF
	t.ULT = int(w0 & 0xFFF)
	t.LRS = int(w1>>12) & 0xFFF
	t.LRT = int(w1 & 0xFFF)
	in.stateDirty = true
	return t
}

// ReadMatrix decodes s15.16 matrix, integer halves come first
func ReadMatrix(data []byte) (mgl32.Mat4, error) {
	var m mgl32.Mat4
	if len(data) < 64 {
		return m, errors.Errorf("Matrix needs 64 bytes, got %d", len(data))
	}
	for i := range m {
		hi := int32(int16(binary.BigEndian.Uint16(data[i*2:])))
		lo := int32(binary.BigEndian.Uint16(data[32+i*2:]))
		m[i] = float32(hi<<16|lo) / 65536
	}
	return m, nil
}

func (in *Interpreter) matrix(addr uint32, params int) error {
	data, err := in.resolve(addr)
	if err != nil {
		return err
	}
	m, err := ReadMatrix(data)
	if err != nil {
		return err
	}

	if params&G_MTX_PROJECTION != 0 {
		if params&G_MTX_LOAD != 0 {
			in.projection = m
		} else {
			in.projection = in.projection.Mul4(m)
		}
		return nil
	}

	top := in.modelView[len(in.modelView)-1]
	if params&G_MTX_PUSH != 0 {
		if len(in.modelView) >= MATRIX_STACK {
			return errors.Errorf("Matrix stack overflow")
		}
		in.modelView = append(in.modelView, top)
	}
	if params&G_MTX_LOAD == 0 {
		m = top.Mul4(m)
	}
	in.modelView[len(in.modelView)-1] = m
	return nil
}

func (in *Interpreter) moveMem(index int, addr uint32) error {
	// viewport and lookat only matter for screen space and texgen
	if index < G_MV_L0 || index > G_MV_L7 {
		return nil
	}
	data, err := in.resolve(addr)
	if err != nil {
		return err
	}
	// ambient light has no direction
	if len(data) < 8 {
		return errors.Errorf("Light needs 8 bytes, got %d", len(data))
	}
	l := &in.lights[(index-G_MV_L0)/2]
	l.color = mgl32.Vec3{float32(data[0]) / 255, float32(data[1]) / 255, float32(data[2]) / 255}
	l.dir = mgl32.Vec3{}
	if len(data) >= 11 {
		l.dir = mgl32.Vec3{float32(int8(data[8])), float32(int8(data[9])), float32(int8(data[10]))}
		if l.dir.Len() > 0 {
			l.dir = l.dir.Normalize()
		}
	}
	in.lightsLoaded = true
	return nil
}

// shade evaluates lights for normal, light directions are in modelview output space
func (in *Interpreter) shade(n mgl32.Vec3) mgl32.Vec3 {
	c := in.lights[in.numLights].color
	for i := 0; i < in.numLights; i++ {
		l := &in.lights[i]
		if d := n.Dot(l.dir); d > 0 {
			c = c.Add(l.color.Mul(d))
		}
	}
	for i := range c {
		c[i] = utils.Clamp(c[i], 0, 1)
	}
	return c
}

func (in *Interpreter) loadVertices(addr uint32, count, first int) error {
	if first+count > VERTEX_CACHE {
		return errors.Errorf("Loading %d vertices at %d overflows cache", count, first)
	}
	data, err := in.resolve(addr)
	if err != nil {
		return err
	}
	if len(data) < count*16 {
		return errors.Errorf("Not enough data for %d vertices", count)
	}
	mv := in.modelView[len(in.modelView)-1]
	lighting := in.geometryMode&G_LIGHTING != 0

	for i := 0; i < count; i++ {
		v := data[i*16:]
		s16 := func(off int) float32 { return float32(int16(binary.BigEndian.Uint16(v[off:]))) }
		cv := &in.vertexCache[first+i]
		in.nextId++
		cv.id = in.nextId
		cv.position = utils.TransformPoint(mv, mgl32.Vec3{s16(0), s16(2), s16(4)})
		cv.st = mgl32.Vec2{s16(8) / 32 * in.scaleS, s16(10) / 32 * in.scaleT}
		if lighting {
			n := mgl32.Vec3{float32(int8(v[12])), float32(int8(v[13])), float32(int8(v[14]))}
			if n.Len() > 0 {
				n = utils.TransformDir(mv, n).Normalize()
			}
			cv.normal = n
			cv.color = utils.ColorFloat{1, 1, 1, float32(v[15]) / 255}
			// without light data shading is left to the viewer
			if in.lightsLoaded {
				c := in.shade(n)
				cv.color[0], cv.color[1], cv.color[2] = c[0], c[1], c[2]
			}
		} else {
			cv.normal = mgl32.Vec3{}
			cv.color = utils.NewColorFloatFromRGBA8(v[12], v[13], v[14], v[15])
		}
	}
	return nil
}

// gatherRows packs rows of LOADTILE source into contiguous texels
func gatherRows(data []byte, rowBytes, strideBytes, rows int) ([]byte, error) {
	if strideBytes == rowBytes {
		return data, nil
	}
	out := make([]byte, 0, rowBytes*rows)
	for y := 0; y < rows; y++ {
		off := y * strideBytes
		if off+rowBytes > len(data) {
			return nil, errors.Errorf("Tile row %d out of texture image", y)
		}
		out = append(out, data[off:off+rowBytes]...)
	}
	return out, nil
}

func (in *Interpreter) tileTexture(tileIndex int) int {
	t := &in.tiles[tileIndex]
	load, ok := in.tmem[t.TMem]
	if !ok {
		return -1
	}

	key := TextureKey{Address: load.Address, Format: t.Format, Size: t.Size, Width: t.Width(), Height: t.Height()}
	var tlutLoad tmemLoad
	if t.Format == G_IM_FMT_CI {
		tlutMem := TMEM_TLUT
		if t.Size == G_IM_SIZ_4b {
			tlutMem += t.Palette * 16
		}
		if tlutLoad, ok = in.tmem[tlutMem]; ok {
			key.TLUT = tlutLoad.Address
			key.TLUTType = int(in.otherModeH>>G_MDSFT_TEXTLUT) & 3
		}
	}

	index, err := in.Cache.Get(key, func() (*image.NRGBA, error) {
		data, err := in.resolve(key.Address)
		if err != nil {
			return nil, err
		}
		if load.Stride != 0 {
			bits := SizeBits[t.Size]
			data, err = gatherRows(data, key.Width*bits/8, load.Stride*SizeBits[load.Size]/8, key.Height)
			if err != nil {
				return nil, err
			}
		}
		var tlut []byte
		if key.TLUT != 0 {
			if tlut, err = in.resolve(key.TLUT); err != nil {
				return nil, err
			}
			if n := tlutLoad.Count * 2; n > 0 && n < len(tlut) {
				tlut = tlut[:n]
			}
		}
		return DecodeTexture(data, key.Format, key.Size, key.Width, key.Height, tlut, key.TLUTType)
	})
	if err != nil {
		log.Printf("[f3dex] %v", err)
	}
	return index
}

func (in *Interpreter) updateState() {
	if !in.stateDirty {
		return
	}
	in.stateDirty = false
	ds := DrawState{
		GeometryMode: in.geometryMode,
		OtherModeH:   in.otherModeH,
		OtherModeL:   in.otherModeL,
		Combine:      in.combine,
		Textures:     [2]int{-1, -1},
		PrimColor:    in.primColor,
		EnvColor:     in.envColor,
		FogColor:     in.fogColor,
		BlendColor:   in.blendColor,
		PrimLodFrac:  in.primLodFrac,
	}
	if in.textureOn {
		twoCycle := ds.TwoCycle()
		for i := 0; i < 2; i++ {
			if !in.combine.UsesTexel(i, twoCycle) {
				continue
			}
			tile := (in.textureTile + i) & 7
			ds.Tiles[i] = in.tiles[tile]
			ds.Textures[i] = in.tileTexture(tile)
		}
	}
	in.state = ds
}

func (in *Interpreter) triangle(i0, i1, i2 int) error {
	for _, i := range []int{i0, i1, i2} {
		if i >= VERTEX_CACHE {
			return errors.Errorf("Vertex index %d out of cache", i)
		}
	}
	in.updateState()

	var dc *DrawCall
	if n := len(in.DrawCalls); n > 0 && in.DrawCalls[n-1].DrawState == in.state {
		dc = in.DrawCalls[n-1]
	} else {
		dc = &DrawCall{DrawState: in.state, vertexIds: make(map[int]uint32)}
		in.DrawCalls = append(in.DrawCalls, dc)
	}

	for _, i := range []int{i0, i1, i2} {
		cv := &in.vertexCache[i]
		idx, ok := dc.vertexIds[cv.id]
		if !ok {
			v := Vertex{Position: cv.position, Normal: cv.normal, Color: cv.color}
			for t := range v.UV {
				if dc.Textures[t] >= 0 {
					v.UV[t] = dc.Tiles[t].normalize(cv.st)
				}
			}
			idx = uint32(len(dc.Vertices))
			dc.Vertices = append(dc.Vertices, v)
			dc.vertexIds[cv.id] = idx
		}
		dc.Indices = append(dc.Indices, idx)
	}
	return nil
}

// BBox of every emitted vertex
func (in *Interpreter) BBox() utils.AABB {
	box := utils.EmptyAABB()
	for _, dc := range in.DrawCalls {
		for _, v := range dc.Vertices {
			box.Extend(v.Position)
		}
	}
	return box
}
