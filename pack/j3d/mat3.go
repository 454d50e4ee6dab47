package j3d

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/gx"
	"github.com/mogaika/retro_model_browser/utils"
)

const (
	MATERIAL_ENTRY_SIZE     = 0x14C
	INDIRECT_ENTRY_SIZE     = 0x138
	TEX_MATRIX_ENTRY_SIZE   = 0x64
	TEV_STAGE_ENTRY_SIZE    = 0x14
	COLOR_CHAN_ENTRY_SIZE   = 0x08
	ALPHA_TEST_ENTRY_SIZE   = 0x08
	TEV_COLOR_ENTRY_SIZE    = 0x08
	INDTEX_MTX_ENTRY_SIZE   = 0x1C
	INDTEV_STAGE_ENTRY_SIZE = 0x0C
)

const (
	MATERIAL_MODE_OPAQUE      = 1
	MATERIAL_MODE_EDGE        = 2
	MATERIAL_MODE_TRANSLUCENT = 4
)

// offsets of MAT3 tables inside chunk
const (
	mat3Entries       = 0x0C
	mat3Remap         = 0x10
	mat3Names         = 0x14
	mat3Indirect      = 0x18
	mat3CullMode      = 0x1C
	mat3MatColor      = 0x20
	mat3ColorChanInfo = 0x28
	mat3AmbColor      = 0x2C
	mat3TexGenInfo    = 0x38
	mat3PostTexGen    = 0x3C
	mat3TexMtx        = 0x40
	mat3PostTexMtx    = 0x44
	mat3TexRemap      = 0x48
	mat3TevOrder      = 0x4C
	mat3TevColor      = 0x50
	mat3KonstColor    = 0x54
	mat3TevStage      = 0x5C
	mat3SwapMode      = 0x60
	mat3SwapTable     = 0x64
	mat3AlphaTest     = 0x6C
	mat3Blend         = 0x70
	mat3ZMode         = 0x74
)

var j3dAttenuationFunctions = []int{gx.GX_AF_NONE, gx.GX_AF_SPEC, gx.GX_AF_NONE, gx.GX_AF_SPOT}

type TexMatrix struct {
	Projection  uint8
	Info        uint8
	Center      mgl32.Vec3
	Scale       mgl32.Vec2
	Rotation    float32
	Translation mgl32.Vec2
	Effect      mgl32.Mat4
}

type Material struct {
	Name  string
	Index int
	Mode  uint8

	GX *gx.Material

	// TEX1 texture index per texmap, -1 when unused
	Textures        [8]int
	TexMatrices     [10]*TexMatrix
	PostTexMatrices [20]*TexMatrix

	MatColors   [2]utils.ColorFloat
	AmbColors   [2]utils.ColorFloat
	TevColors   [4]utils.ColorFloat
	KonstColors [4]utils.ColorFloat
}

func (m *Material) IsTranslucent() bool {
	return m.Mode&MATERIAL_MODE_TRANSLUCENT != 0 || m.GX.IsTranslucent()
}

type Mat3 struct {
	Materials []*Material
}

type mat3Reader struct {
	bs *utils.BufStack
}

func (r *mat3Reader) table(tbl int) int {
	return int(r.bs.U32(tbl))
}

func (r *mat3Reader) color8(tbl int, idx uint16) utils.ColorFloat {
	o := r.table(tbl) + int(idx)*4
	return utils.NewColorFloatFromRGBA8(r.bs.U8(o), r.bs.U8(o+1), r.bs.U8(o+2), r.bs.U8(o+3))
}

func (r *mat3Reader) colorS16(tbl int, idx uint16) utils.ColorFloat {
	o := r.table(tbl) + int(idx)*TEV_COLOR_ENTRY_SIZE
	return utils.NewColorFloatFromS16([4]int16{r.bs.S16(o), r.bs.S16(o + 2), r.bs.S16(o + 4), r.bs.S16(o + 6)})
}

func (r *mat3Reader) colorChannel(idx uint16) gx.ColorChannelControl {
	o := r.table(mat3ColorChanInfo) + int(idx)*COLOR_CHAN_ENTRY_SIZE
	atten := int(r.bs.U8(o + 4))
	attenFn := gx.GX_AF_NONE
	if atten < len(j3dAttenuationFunctions) {
		attenFn = j3dAttenuationFunctions[atten]
	}
	return gx.ColorChannelControl{
		LightingEnabled:     r.bs.U8(o) != 0,
		MatColorSource:      int(r.bs.U8(o + 1)),
		LitMask:             r.bs.U8(o + 2),
		DiffuseFunction:     int(r.bs.U8(o + 3)),
		AttenuationFunction: attenFn,
		AmbColorSource:      int(r.bs.U8(o + 5)),
	}
}

func (r *mat3Reader) texMatrix(tbl int, idx uint16) *TexMatrix {
	o := r.table(tbl) + int(idx)*TEX_MATRIX_ENTRY_SIZE
	tm := &TexMatrix{
		Projection:  r.bs.U8(o),
		Info:        r.bs.U8(o + 1),
		Center:      mgl32.Vec3{r.bs.F32(o + 0x04), r.bs.F32(o + 0x08), r.bs.F32(o + 0x0C)},
		Scale:       mgl32.Vec2{r.bs.F32(o + 0x10), r.bs.F32(o + 0x14)},
		Rotation:    utils.J3DAngle(r.bs.S16(o + 0x18)),
		Translation: mgl32.Vec2{r.bs.F32(o + 0x1C), r.bs.F32(o + 0x20)},
	}
	rows := make([]float32, 16)
	for i := range rows {
		rows[i] = r.bs.F32(o + 0x24 + i*4)
	}
	tm.Effect = mgl32.Mat4{
		rows[0], rows[4], rows[8], rows[12],
		rows[1], rows[5], rows[9], rows[13],
		rows[2], rows[6], rows[10], rows[14],
		rows[3], rows[7], rows[11], rows[15],
	}
	if tm.Effect == (mgl32.Mat4{}) {
		tm.Effect = mgl32.Ident4()
	}
	return tm
}

func (r *mat3Reader) texGen(tbl int, idx uint16) gx.TexGen {
	o := r.table(tbl) + int(idx)*4
	return gx.TexGen{
		Type:       int(r.bs.U8(o)),
		Source:     int(r.bs.U8(o + 1)),
		Matrix:     int(r.bs.U8(o + 2)),
		PostMatrix: gx.GX_PTIDENTITY,
	}
}

func (r *mat3Reader) combiner(o int) gx.CombinerInput {
	return gx.CombinerInput{
		A:     int(r.bs.U8(o)),
		B:     int(r.bs.U8(o + 1)),
		C:     int(r.bs.U8(o + 2)),
		D:     int(r.bs.U8(o + 3)),
		Op:    int(r.bs.U8(o + 4)),
		Bias:  int(r.bs.U8(o + 5)),
		Scale: int(r.bs.U8(o + 6)),
		Clamp: r.bs.U8(o+7) != 0,
		RegId: int(r.bs.U8(o + 8)),
	}
}

func (r *mat3Reader) indirect(m *gx.Material, index int) {
	if r.table(mat3Indirect) == 0 {
		return
	}
	o := r.table(mat3Indirect) + index*INDIRECT_ENTRY_SIZE
	if r.bs.U8(o) == 0 {
		return
	}
	stageCount := int(r.bs.U8(o + 1))
	if stageCount > 4 {
		stageCount = 4
	}
	m.IndTexStages = make([]gx.IndTexStage, stageCount)
	for i := range m.IndTexStages {
		m.IndTexStages[i] = gx.IndTexStage{
			TexCoordId: int(r.bs.U8(o + 0x04 + i*4)),
			TexMap:     int(r.bs.U8(o + 0x05 + i*4)),
			ScaleS:     int(r.bs.U8(o + 0x68 + i*4)),
			ScaleT:     int(r.bs.U8(o + 0x69 + i*4)),
		}
	}
	for i := range m.IndTexMatrices {
		mo := o + 0x14 + i*INDTEX_MTX_ENTRY_SIZE
		for j := 0; j < 6; j++ {
			m.IndTexMatrices[i].Matrix[j] = r.bs.F32(mo + j*4)
		}
		m.IndTexMatrices[i].ScaleExponent = r.bs.S8(mo + 0x18)
	}
	for i := range m.TevStages {
		so := o + 0x78 + i*INDTEV_STAGE_ENTRY_SIZE
		s := &m.TevStages[i]
		s.IndTexStage = int(r.bs.U8(so))
		s.IndTexFormat = int(r.bs.U8(so + 1))
		s.IndTexBiasSel = int(r.bs.U8(so + 2))
		s.IndTexMatrix = int(r.bs.U8(so + 3))
		s.IndTexWrapS = int(r.bs.U8(so + 4))
		s.IndTexWrapT = int(r.bs.U8(so + 5))
		s.IndTexAddPrev = r.bs.U8(so+6) != 0
		s.IndTexUseOrigLOD = r.bs.U8(so+7) != 0
		s.IndTexAlphaSel = int(r.bs.U8(so + 8))
		if s.IndTexStage >= stageCount || (s.IndTexMatrix == gx.GX_ITM_OFF && !s.IndTexAddPrev &&
			s.IndTexWrapS == gx.GX_ITW_OFF && s.IndTexWrapT == gx.GX_ITW_OFF) {
			s.IndTexStage = -1
		}
	}
}

func (r *mat3Reader) material(index int, name string) (*Material, error) {
	bs := r.bs
	remapped := index
	if r.table(mat3Remap) != 0 {
		remapped = int(bs.U16(r.table(mat3Remap) + index*2))
	}
	o := r.table(mat3Entries) + remapped*MATERIAL_ENTRY_SIZE
	u16 := func(off int) uint16 { return bs.U16(o + off) }

	mat := &Material{
		Name:  name,
		Index: index,
		Mode:  bs.U8(o),
		GX:    gx.NewMaterial(name),
	}
	m := mat.GX

	if ci := bs.U8(o + 0x01); ci != NONE8 {
		m.CullMode = int(bs.U32(r.table(mat3CullMode) + int(ci)*4))
	}

	colorChanCount := 2
	if ci := bs.U8(o + 0x02); ci != NONE8 && r.table(0x24) != 0 {
		colorChanCount = int(bs.U8(r.table(0x24) + int(ci)))
	}
	for i := 0; i < 2; i++ {
		mat.MatColors[i] = utils.ColorFloat{1, 1, 1, 1}
		if ci := u16(0x08 + i*2); ci != NONE16 {
			mat.MatColors[i] = r.color8(mat3MatColor, ci)
		}
		if ci := u16(0x14 + i*2); ci != NONE16 {
			mat.AmbColors[i] = r.color8(mat3AmbColor, ci)
		}
	}
	for i := 0; i < colorChanCount && i < 2; i++ {
		ci, ai := u16(0x0C+i*4), u16(0x0E+i*4)
		if ci == NONE16 || ai == NONE16 {
			break
		}
		m.LightChannels = append(m.LightChannels, gx.LightChannel{
			ColorChannel: r.colorChannel(ci),
			AlphaChannel: r.colorChannel(ai),
		})
	}

	for i := 0; i < 8; i++ {
		ti := u16(0x28 + i*2)
		if ti == NONE16 {
			break
		}
		tg := r.texGen(mat3TexGenInfo, ti)
		if pi := u16(0x38 + i*2); pi != NONE16 && r.table(mat3PostTexGen) != 0 {
			tg.PostMatrix = r.texGen(mat3PostTexGen, pi).Matrix
		}
		m.TexGens = append(m.TexGens, tg)
	}
	for i := range mat.TexMatrices {
		if ti := u16(0x48 + i*2); ti != NONE16 {
			mat.TexMatrices[i] = r.texMatrix(mat3TexMtx, ti)
		}
	}
	for i := range mat.PostTexMatrices {
		if ti := u16(0x5C + i*2); ti != NONE16 && r.table(mat3PostTexMtx) != 0 {
			mat.PostTexMatrices[i] = r.texMatrix(mat3PostTexMtx, ti)
		}
	}

	for i := range mat.Textures {
		mat.Textures[i] = -1
		if ti := u16(0x84 + i*2); ti != NONE16 {
			mat.Textures[i] = int(bs.U16(r.table(mat3TexRemap) + int(ti)*2))
		}
	}

	for i := range mat.KonstColors {
		mat.KonstColors[i] = utils.ColorFloat{1, 1, 1, 1}
		if ki := u16(0x94 + i*2); ki != NONE16 {
			mat.KonstColors[i] = r.color8(mat3KonstColor, ki)
		}
		if ci := u16(0xDC + i*2); ci != NONE16 {
			mat.TevColors[i] = r.colorS16(mat3TevColor, ci)
		}
	}

	for i := 0; i < 16; i++ {
		si := u16(0xE4 + i*2)
		oi := u16(0xBC + i*2)
		if si == NONE16 || oi == NONE16 {
			break
		}
		oo := r.table(mat3TevOrder) + int(oi)*4
		so := r.table(mat3TevStage) + int(si)*TEV_STAGE_ENTRY_SIZE
		stage := gx.TevStage{
			TexCoordId:    int(bs.U8(oo)),
			TexMap:        int(bs.U8(oo + 1)),
			Channel:       int(bs.U8(oo + 2)),
			Color:         r.combiner(so + 0x01),
			Alpha:         r.combiner(so + 0x0A),
			KonstColorSel: int(bs.U8(o + 0x9C + i)),
			KonstAlphaSel: int(bs.U8(o + 0xAC + i)),
			IndTexStage:   -1,
		}
		if stage.TexMap == gx.GX_TEXMAP_NULL {
			stage.TexMap = -1
		}
		if stage.TexCoordId == gx.GX_TEXCOORD_NULL {
			stage.TexCoordId = -1
		}
		if wi := u16(0x104 + i*2); wi != NONE16 {
			wo := r.table(mat3SwapMode) + int(wi)*4
			stage.RasSwapTable = int(bs.U8(wo))
			stage.TexSwapTable = int(bs.U8(wo + 1))
		}
		m.TevStages = append(m.TevStages, stage)
	}
	for i := range m.SwapTables {
		if ti := u16(0x124 + i*2); ti != NONE16 {
			to := r.table(mat3SwapTable) + int(ti)*4
			m.SwapTables[i] = gx.SwapTable{bs.U8(to), bs.U8(to + 1), bs.U8(to + 2), bs.U8(to + 3)}
		}
	}

	if ai := u16(0x146); ai != NONE16 {
		ao := r.table(mat3AlphaTest) + int(ai)*ALPHA_TEST_ENTRY_SIZE
		m.AlphaTest = gx.AlphaTest{
			CompareA:   int(bs.U8(ao)),
			ReferenceA: float32(bs.U8(ao+1)) / 255,
			Op:         int(bs.U8(ao + 2)),
			CompareB:   int(bs.U8(ao + 3)),
			ReferenceB: float32(bs.U8(ao+4)) / 255,
		}
	}
	if bi := u16(0x148); bi != NONE16 {
		bo := r.table(mat3Blend) + int(bi)*4
		m.Blend = gx.BlendMode{
			Type:      int(bs.U8(bo)),
			SrcFactor: int(bs.U8(bo + 1)),
			DstFactor: int(bs.U8(bo + 2)),
			LogicOp:   int(bs.U8(bo + 3)),
		}
	}
	if zi := bs.U8(o + 0x06); zi != NONE8 {
		zo := r.table(mat3ZMode) + int(zi)*4
		m.ZMode = gx.ZMode{
			CompareEnable: bs.U8(zo) != 0,
			Func:          int(bs.U8(zo + 1)),
			UpdateEnable:  bs.U8(zo+2) != 0,
		}
	}

	r.indirect(m, index)

	if err := bs.Err(); err != nil {
		return nil, errors.Wrapf(err, "MAT3: material %d %q", index, name)
	}
	return mat, nil
}

func parseMat3(bs *utils.BufStack) (*Mat3, error) {
	r := &mat3Reader{bs: bs}
	count := int(bs.U16(0x08))
	names := ReadNameTable(bs, r.table(mat3Names))

	m3 := &Mat3{Materials: make([]*Material, count)}
	for i := range m3.Materials {
		mat, err := r.material(i, nameOr(names, i, ""))
		if err != nil {
			return nil, err
		}
		m3.Materials[i] = mat
	}
	return m3, nil
}
