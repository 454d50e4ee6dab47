package gx

type ColorChannelControl struct {
	LightingEnabled     bool
	MatColorSource      int
	AmbColorSource      int
	LitMask             uint8
	DiffuseFunction     int
	AttenuationFunction int
}

type LightChannel struct {
	ColorChannel ColorChannelControl
	AlphaChannel ColorChannelControl
}

type TexGen struct {
	Type       int
	Source     int
	Matrix     int
	Normalize  bool
	PostMatrix int
}

type SwapTable [4]uint8

var DefaultSwapTable = SwapTable{0, 1, 2, 3}

type CombinerInput struct {
	A, B, C, D int
	Op         int
	Bias       int
	Scale      int
	Clamp      bool
	RegId      int
}

type IndTexStage struct {
	TexCoordId int
	TexMap     int
	ScaleS     int
	ScaleT     int
}

// IndTexMatrix is 2x3 row-major with 2^ScaleExponent applied at use
type IndTexMatrix struct {
	Matrix        [6]float32
	ScaleExponent int8
}

type TevStage struct {
	TexCoordId int
	TexMap     int
	Channel    int

	Color CombinerInput
	Alpha CombinerInput

	KonstColorSel int
	KonstAlphaSel int

	RasSwapTable int
	TexSwapTable int

	IndTexStage      int
	IndTexFormat     int
	IndTexBiasSel    int
	IndTexAlphaSel   int
	IndTexMatrix     int
	IndTexWrapS      int
	IndTexWrapT      int
	IndTexAddPrev    bool
	IndTexUseOrigLOD bool
}

type AlphaTest struct {
	Op         int
	CompareA   int
	ReferenceA float32
	CompareB   int
	ReferenceB float32
}

type BlendMode struct {
	Type      int
	SrcFactor int
	DstFactor int
	LogicOp   int
}

type ZMode struct {
	CompareEnable bool
	Func          int
	UpdateEnable  bool
}

// Material is GX fixed function state needed to build program and pipeline
type Material struct {
	Name     string
	CullMode int

	LightChannels  []LightChannel
	TexGens        []TexGen
	TevStages      []TevStage
	IndTexStages   []IndTexStage
	IndTexMatrices [3]IndTexMatrix
	SwapTables     [4]SwapTable

	AlphaTest AlphaTest
	Blend     BlendMode
	ZMode     ZMode

	// texmap slot bound to framebuffer copy, -1 when unused
	FramebufferTexMap int
}

func NewMaterial(name string) *Material {
	return &Material{
		Name:              name,
		CullMode:          GX_CULL_BACK,
		SwapTables:        [4]SwapTable{DefaultSwapTable, DefaultSwapTable, DefaultSwapTable, DefaultSwapTable},
		AlphaTest:         AlphaTest{Op: GX_AOP_AND, CompareA: GX_ALWAYS, CompareB: GX_ALWAYS},
		Blend:             BlendMode{Type: GX_BM_NONE, SrcFactor: GX_BL_ONE, DstFactor: GX_BL_ZERO},
		ZMode:             ZMode{CompareEnable: true, Func: GX_LEQUAL, UpdateEnable: true},
		FramebufferTexMap: -1,
	}
}

// UsesFramebufferTexture reports whether any stage samples EFB copy
func (m *Material) UsesFramebufferTexture() bool {
	if m.FramebufferTexMap < 0 {
		return false
	}
	for i := range m.TevStages {
		if m.TevStages[i].TexMap == m.FramebufferTexMap {
			return true
		}
	}
	for i := range m.IndTexStages {
		if m.IndTexStages[i].TexMap == m.FramebufferTexMap {
			return true
		}
	}
	return false
}

func (m *Material) IsTranslucent() bool {
	return m.Blend.Type == GX_BM_BLEND || m.Blend.Type == GX_BM_SUBTRACT
}

// UsedTexMaps lists texmap slots sampled by tev or indirect stages
func (m *Material) UsedTexMaps() []int {
	used := make(map[int]bool)
	var result []int
	add := func(i int) {
		if i >= 0 && i < 8 && !used[i] {
			used[i] = true
			result = append(result, i)
		}
	}
	for i := range m.TevStages {
		add(m.TevStages[i].TexMap)
	}
	for i := range m.IndTexStages {
		add(m.IndTexStages[i].TexMap)
	}
	return result
}
