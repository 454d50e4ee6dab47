package gx

// Primitive opcodes of display lists, low 3 bits hold vertex format index
const (
	GX_NOP           = 0x00
	GX_QUADS         = 0x80
	GX_TRIANGLES     = 0x90
	GX_TRIANGLESTRIP = 0x98
	GX_TRIANGLEFAN   = 0xA0
	GX_LINES         = 0xA8
	GX_LINESTRIP     = 0xB0
	GX_POINTS        = 0xB8
)

// Vertex attributes
const (
	GX_VA_PNMTXIDX   = 0
	GX_VA_TEX0MTXIDX = 1
	GX_VA_TEX1MTXIDX = 2
	GX_VA_TEX2MTXIDX = 3
	GX_VA_TEX3MTXIDX = 4
	GX_VA_TEX4MTXIDX = 5
	GX_VA_TEX5MTXIDX = 6
	GX_VA_TEX6MTXIDX = 7
	GX_VA_TEX7MTXIDX = 8
	GX_VA_POS        = 9
	GX_VA_NRM        = 10
	GX_VA_CLR0       = 11
	GX_VA_CLR1       = 12
	GX_VA_TEX0       = 13
	GX_VA_TEX1       = 14
	GX_VA_TEX2       = 15
	GX_VA_TEX3       = 16
	GX_VA_TEX4       = 17
	GX_VA_TEX5       = 18
	GX_VA_TEX6       = 19
	GX_VA_TEX7       = 20
	GX_VA_NBT        = 25
	GX_VA_MAX        = 26
	GX_VA_NULL       = 0xFF
)

var VertexAttributeNames = map[int]string{
	GX_VA_PNMTXIDX: "PNMTXIDX",
	GX_VA_POS:      "POS",
	GX_VA_NRM:      "NRM",
	GX_VA_CLR0:     "CLR0",
	GX_VA_CLR1:     "CLR1",
	GX_VA_TEX0:     "TEX0",
	GX_VA_TEX1:     "TEX1",
	GX_VA_TEX2:     "TEX2",
	GX_VA_TEX3:     "TEX3",
	GX_VA_TEX4:     "TEX4",
	GX_VA_TEX5:     "TEX5",
	GX_VA_TEX6:     "TEX6",
	GX_VA_TEX7:     "TEX7",
	GX_VA_NBT:      "NBT",
}

// Attribute index types
const (
	GX_NONE    = 0
	GX_DIRECT  = 1
	GX_INDEX8  = 2
	GX_INDEX16 = 3
)

// Component counts
const (
	GX_POS_XY   = 0
	GX_POS_XYZ  = 1
	GX_NRM_XYZ  = 0
	GX_NRM_NBT  = 1
	GX_NRM_NBT3 = 2
	GX_CLR_RGB  = 0
	GX_CLR_RGBA = 1
	GX_TEX_S    = 0
	GX_TEX_ST   = 1
)

// Component types
const (
	GX_U8  = 0
	GX_S8  = 1
	GX_U16 = 2
	GX_S16 = 3
	GX_F32 = 4

	GX_RGB565 = 0
	GX_RGB8   = 1
	GX_RGBX8  = 2
	GX_RGBA4  = 3
	GX_RGBA6  = 4
	GX_RGBA8  = 5
)

// Texture formats
const (
	GX_TF_I4     = 0x0
	GX_TF_I8     = 0x1
	GX_TF_IA4    = 0x2
	GX_TF_IA8    = 0x3
	GX_TF_RGB565 = 0x4
	GX_TF_RGB5A3 = 0x5
	GX_TF_RGBA8  = 0x6
	GX_TF_C4     = 0x8
	GX_TF_C8     = 0x9
	GX_TF_C14X2  = 0xA
	GX_TF_CMPR   = 0xE
)

var TextureFormatNames = map[int]string{
	GX_TF_I4:     "I4",
	GX_TF_I8:     "I8",
	GX_TF_IA4:    "IA4",
	GX_TF_IA8:    "IA8",
	GX_TF_RGB565: "RGB565",
	GX_TF_RGB5A3: "RGB5A3",
	GX_TF_RGBA8:  "RGBA8",
	GX_TF_C4:     "C4",
	GX_TF_C8:     "C8",
	GX_TF_C14X2:  "C14X2",
	GX_TF_CMPR:   "CMPR",
}

// Palette formats
const (
	GX_TL_IA8    = 0
	GX_TL_RGB565 = 1
	GX_TL_RGB5A3 = 2
)

// Wrap modes
const (
	GX_CLAMP  = 0
	GX_REPEAT = 1
	GX_MIRROR = 2
)

// Texture filters
const (
	GX_NEAR          = 0
	GX_LINEAR        = 1
	GX_NEAR_MIP_NEAR = 2
	GX_LIN_MIP_NEAR  = 3
	GX_NEAR_MIP_LIN  = 4
	GX_LIN_MIP_LIN   = 5
)

// TEV color inputs
const (
	GX_CC_CPREV = 0
	GX_CC_APREV = 1
	GX_CC_C0    = 2
	GX_CC_A0    = 3
	GX_CC_C1    = 4
	GX_CC_A1    = 5
	GX_CC_C2    = 6
	GX_CC_A2    = 7
	GX_CC_TEXC  = 8
	GX_CC_TEXA  = 9
	GX_CC_RASC  = 10
	GX_CC_RASA  = 11
	GX_CC_ONE   = 12
	GX_CC_HALF  = 13
	GX_CC_KONST = 14
	GX_CC_ZERO  = 15
)

// TEV alpha inputs
const (
	GX_CA_APREV = 0
	GX_CA_A0    = 1
	GX_CA_A1    = 2
	GX_CA_A2    = 3
	GX_CA_TEXA  = 4
	GX_CA_RASA  = 5
	GX_CA_KONST = 6
	GX_CA_ZERO  = 7
)

// TEV ops, compare ops start at 8
const (
	GX_TEV_ADD           = 0
	GX_TEV_SUB           = 1
	GX_TEV_COMP_R8_GT    = 8
	GX_TEV_COMP_R8_EQ    = 9
	GX_TEV_COMP_GR16_GT  = 10
	GX_TEV_COMP_GR16_EQ  = 11
	GX_TEV_COMP_BGR24_GT = 12
	GX_TEV_COMP_BGR24_EQ = 13
	GX_TEV_COMP_RGB8_GT  = 14
	GX_TEV_COMP_RGB8_EQ  = 15
	GX_TEV_COMP_A8_GT    = GX_TEV_COMP_RGB8_GT
	GX_TEV_COMP_A8_EQ    = GX_TEV_COMP_RGB8_EQ
)

const (
	GX_TB_ZERO    = 0
	GX_TB_ADDHALF = 1
	GX_TB_SUBHALF = 2
)

const (
	GX_CS_SCALE_1  = 0
	GX_CS_SCALE_2  = 1
	GX_CS_SCALE_4  = 2
	GX_CS_DIVIDE_2 = 3
)

// TEV registers
const (
	GX_TEVPREV = 0
	GX_TEVREG0 = 1
	GX_TEVREG1 = 2
	GX_TEVREG2 = 3
)

// Konst color selectors: 0..7 fractions, 0x0C.. konst registers
const (
	GX_TEV_KCSEL_1     = 0x00
	GX_TEV_KCSEL_7_8   = 0x01
	GX_TEV_KCSEL_3_4   = 0x02
	GX_TEV_KCSEL_5_8   = 0x03
	GX_TEV_KCSEL_1_2   = 0x04
	GX_TEV_KCSEL_3_8   = 0x05
	GX_TEV_KCSEL_1_4   = 0x06
	GX_TEV_KCSEL_1_8   = 0x07
	GX_TEV_KCSEL_K0    = 0x0C
	GX_TEV_KCSEL_K1    = 0x0D
	GX_TEV_KCSEL_K2    = 0x0E
	GX_TEV_KCSEL_K3    = 0x0F
	GX_TEV_KCSEL_K0_R  = 0x10
	GX_TEV_KCSEL_K3_A  = 0x1F
	GX_TEV_KASEL_K0_R  = 0x10
	GX_TEV_KASEL_K3_A  = 0x1F
	GX_TEV_KASEL_1     = 0x00
	GX_TEV_KASEL_1_8   = 0x07
	GX_TEV_KCSEL_FIRST = GX_TEV_KCSEL_K0_R
)

// Rasterized color channel ids used in TEV orders
const (
	GX_COLOR0A0      = 4
	GX_COLOR1A1      = 5
	GX_ALPHA_BUMP    = 6
	GX_ALPHA_BUMPN   = 7
	GX_COLOR_ZERO    = 8
	GX_COLOR_NULL    = 0xFF
	GX_TEXMAP_NULL   = 0xFF
	GX_TEXCOORD_NULL = 0xFF
)

// Indirect texturing
const (
	GX_ITF_8 = 0
	GX_ITF_5 = 1
	GX_ITF_4 = 2
	GX_ITF_3 = 3

	GX_ITB_NONE = 0
	GX_ITB_S    = 1
	GX_ITB_T    = 2
	GX_ITB_ST   = 3
	GX_ITB_U    = 4
	GX_ITB_SU   = 5
	GX_ITB_TU   = 6
	GX_ITB_STU  = 7

	GX_ITM_OFF = 0
	GX_ITM_0   = 1
	GX_ITM_1   = 2
	GX_ITM_2   = 3
	GX_ITM_S0  = 5
	GX_ITM_S1  = 6
	GX_ITM_S2  = 7
	GX_ITM_T0  = 9
	GX_ITM_T1  = 10
	GX_ITM_T2  = 11

	GX_ITW_OFF = 0
	GX_ITW_256 = 1
	GX_ITW_128 = 2
	GX_ITW_64  = 3
	GX_ITW_32  = 4
	GX_ITW_16  = 5
	GX_ITW_0   = 6
)

// Texgen types and sources
const (
	GX_TG_MTX3x4 = 0
	GX_TG_MTX2x4 = 1
	GX_TG_BUMP0  = 2
	GX_TG_BUMP7  = 9
	GX_TG_SRTG   = 10

	GX_TG_POS       = 0
	GX_TG_NRM       = 1
	GX_TG_BINRM     = 2
	GX_TG_TANGENT   = 3
	GX_TG_TEX0      = 4
	GX_TG_TEX7      = 11
	GX_TG_TEXCOORD0 = 12
	GX_TG_TEXCOORD6 = 18
	GX_TG_COLOR0    = 19
	GX_TG_COLOR1    = 20

	GX_TEXMTX0  = 30
	GX_TEXMTX9  = 57
	GX_IDENTITY = 60

	GX_PTTEXMTX0  = 64
	GX_PTIDENTITY = 125
)

// Color channel sources, diffuse and attenuation functions
const (
	GX_SRC_REG = 0
	GX_SRC_VTX = 1

	GX_DF_NONE  = 0
	GX_DF_SIGN  = 1
	GX_DF_CLAMP = 2

	GX_AF_SPEC = 0
	GX_AF_SPOT = 1
	GX_AF_NONE = 2
)

// Compare functions
const (
	GX_NEVER   = 0
	GX_LESS    = 1
	GX_EQUAL   = 2
	GX_LEQUAL  = 3
	GX_GREATER = 4
	GX_NEQUAL  = 5
	GX_GEQUAL  = 6
	GX_ALWAYS  = 7
)

// Alpha ops
const (
	GX_AOP_AND  = 0
	GX_AOP_OR   = 1
	GX_AOP_XOR  = 2
	GX_AOP_XNOR = 3
)

// Blend modes and factors
const (
	GX_BM_NONE     = 0
	GX_BM_BLEND    = 1
	GX_BM_LOGIC    = 2
	GX_BM_SUBTRACT = 3

	GX_BL_ZERO        = 0
	GX_BL_ONE         = 1
	GX_BL_SRCCLR      = 2
	GX_BL_INVSRCCLR   = 3
	GX_BL_SRCALPHA    = 4
	GX_BL_INVSRCALPHA = 5
	GX_BL_DSTALPHA    = 6
	GX_BL_INVDSTALPHA = 7
	GX_BL_DSTCLR      = GX_BL_SRCCLR
	GX_BL_INVDSTCLR   = GX_BL_INVSRCCLR
)

// Cull modes
const (
	GX_CULL_NONE  = 0
	GX_CULL_FRONT = 1
	GX_CULL_BACK  = 2
	GX_CULL_ALL   = 3
)
