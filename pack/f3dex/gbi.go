package f3dex

import "strconv"

// RSP commands of F3DEX microcode
const (
	G_SPNOOP            = 0x00
	G_MTX               = 0x01
	G_MOVEMEM           = 0x03
	G_VTX               = 0x04
	G_DL                = 0x06
	G_TRI2              = 0xB1
	G_RDPHALF_CONT      = 0xB2
	G_RDPHALF_2         = 0xB3
	G_RDPHALF_1         = 0xB4
	G_QUAD              = 0xB5
	G_CLEARGEOMETRYMODE = 0xB6
	G_SETGEOMETRYMODE   = 0xB7
	G_ENDDL             = 0xB8
	G_SETOTHERMODE_L    = 0xB9
	G_SETOTHERMODE_H    = 0xBA
	G_TEXTURE           = 0xBB
	G_MOVEWORD          = 0xBC
	G_POPMTX            = 0xBD
	G_CULLDL            = 0xBE
	G_TRI1              = 0xBF
	G_NOOP              = 0xC0
)

// RDP commands
const (
	G_TEXRECT         = 0xE4
	G_TEXRECTFLIP     = 0xE5
	G_RDPLOADSYNC     = 0xE6
	G_RDPPIPESYNC     = 0xE7
	G_RDPTILESYNC     = 0xE8
	G_RDPFULLSYNC     = 0xE9
	G_SETKEYGB        = 0xEA
	G_SETKEYR         = 0xEB
	G_SETCONVERT      = 0xEC
	G_SETSCISSOR      = 0xED
	G_SETPRIMDEPTH    = 0xEE
	G_RDPSETOTHERMODE = 0xEF
	G_LOADTLUT        = 0xF0
	G_SETTILESIZE     = 0xF2
	G_LOADBLOCK       = 0xF3
	G_LOADTILE        = 0xF4
	G_SETTILE         = 0xF5
	G_FILLRECT        = 0xF6
	G_SETFILLCOLOR    = 0xF7
	G_SETFOGCOLOR     = 0xF8
	G_SETBLENDCOLOR   = 0xF9
	G_SETPRIMCOLOR    = 0xFA
	G_SETENVCOLOR     = 0xFB
	G_SETCOMBINE      = 0xFC
	G_SETTIMG         = 0xFD
	G_SETZIMG         = 0xFE
	G_SETCIMG         = 0xFF
)

var CommandNames = map[byte]string{
	G_SPNOOP:            "G_SPNOOP",
	G_MTX:               "G_MTX",
	G_MOVEMEM:           "G_MOVEMEM",
	G_VTX:               "G_VTX",
	G_DL:                "G_DL",
	G_TRI2:              "G_TRI2",
	G_RDPHALF_CONT:      "G_RDPHALF_CONT",
	G_RDPHALF_2:         "G_RDPHALF_2",
	G_RDPHALF_1:         "G_RDPHALF_1",
	G_QUAD:              "G_QUAD",
	G_CLEARGEOMETRYMODE: "G_CLEARGEOMETRYMODE",
	G_SETGEOMETRYMODE:   "G_SETGEOMETRYMODE",
	G_ENDDL:             "G_ENDDL",
	G_SETOTHERMODE_L:    "G_SETOTHERMODE_L",
	G_SETOTHERMODE_H:    "G_SETOTHERMODE_H",
	G_TEXTURE:           "G_TEXTURE",
	G_MOVEWORD:          "G_MOVEWORD",
	G_POPMTX:            "G_POPMTX",
	G_CULLDL:            "G_CULLDL",
	G_TRI1:              "G_TRI1",
	G_NOOP:              "G_NOOP",
	G_TEXRECT:           "G_TEXRECT",
	G_TEXRECTFLIP:       "G_TEXRECTFLIP",
	G_RDPLOADSYNC:       "G_RDPLOADSYNC",
	G_RDPPIPESYNC:       "G_RDPPIPESYNC",
	G_RDPTILESYNC:       "G_RDPTILESYNC",
	G_RDPFULLSYNC:       "G_RDPFULLSYNC",
	G_SETKEYGB:          "G_SETKEYGB",
	G_SETKEYR:           "G_SETKEYR",
	G_SETCONVERT:        "G_SETCONVERT",
	G_SETSCISSOR:        "G_SETSCISSOR",
	G_SETPRIMDEPTH:      "G_SETPRIMDEPTH",
	G_RDPSETOTHERMODE:   "G_RDPSETOTHERMODE",
	G_LOADTLUT:          "G_LOADTLUT",
	G_SETTILESIZE:       "G_SETTILESIZE",
	G_LOADBLOCK:         "G_LOADBLOCK",
	G_LOADTILE:          "G_LOADTILE",
	G_SETTILE:           "G_SETTILE",
	G_FILLRECT:          "G_FILLRECT",
	G_SETFILLCOLOR:      "G_SETFILLCOLOR",
	G_SETFOGCOLOR:       "G_SETFOGCOLOR",
	G_SETBLENDCOLOR:     "G_SETBLENDCOLOR",
	G_SETPRIMCOLOR:      "G_SETPRIMCOLOR",
	G_SETENVCOLOR:       "G_SETENVCOLOR",
	G_SETCOMBINE:        "G_SETCOMBINE",
	G_SETTIMG:           "G_SETTIMG",
	G_SETZIMG:           "G_SETZIMG",
	G_SETCIMG:           "G_SETCIMG",
}

// G_MTX params
const (
	G_MTX_PROJECTION = 0x01
	G_MTX_LOAD       = 0x02
	G_MTX_PUSH       = 0x04
)

// G_DL params
const (
	G_DL_PUSH   = 0x00
	G_DL_NOPUSH = 0x01
)

// G_MOVEWORD indices
const (
	G_MW_MATRIX    = 0x00
	G_MW_NUMLIGHT  = 0x02
	G_MW_CLIP      = 0x04
	G_MW_SEGMENT   = 0x06
	G_MW_FOG       = 0x08
	G_MW_LIGHTCOL  = 0x0A
	G_MW_POINTS    = 0x0C
	G_MW_PERSPNORM = 0x0E
)

// G_MOVEMEM indices, lights take two index steps each
const (
	G_MV_VIEWPORT = 0x80
	G_MV_LOOKATY  = 0x82
	G_MV_LOOKATX  = 0x84
	G_MV_L0       = 0x86
	G_MV_L7       = 0x94
)

// geometry mode
const (
	G_ZBUFFER            = 0x00000001
	G_SHADE              = 0x00000004
	G_SHADING_SMOOTH     = 0x00000200
	G_CULL_FRONT         = 0x00001000
	G_CULL_BACK          = 0x00002000
	G_CULL_BOTH          = G_CULL_FRONT | G_CULL_BACK
	G_FOG                = 0x00010000
	G_LIGHTING           = 0x00020000
	G_TEXTURE_GEN        = 0x00040000
	G_TEXTURE_GEN_LINEAR = 0x00080000
)

// othermode low word
const (
	G_MDSFT_ALPHACOMPARE = 0
	G_MDSFT_ZSRCSEL      = 2
	G_MDSFT_RENDERMODE   = 3

	G_AC_NONE      = 0
	G_AC_THRESHOLD = 1
	G_AC_DITHER    = 3

	AA_EN         = 0x0008
	Z_CMP         = 0x0010
	Z_UPD         = 0x0020
	IM_RD         = 0x0040
	CLR_ON_CVG    = 0x0080
	CVG_DST_MASK  = 0x0300
	ZMODE_MASK    = 0x0C00
	ZMODE_OPA     = 0x0000
	ZMODE_INTER   = 0x0400
	ZMODE_XLU     = 0x0800
	ZMODE_DEC     = 0x0C00
	CVG_X_ALPHA   = 0x1000
	ALPHA_CVG_SEL = 0x2000
	FORCE_BL      = 0x4000
)

// blender inputs of first cycle, bits 16..31 of othermode low
const (
	G_BL_CLR_IN  = 0
	G_BL_CLR_MEM = 1
	G_BL_CLR_BL  = 2
	G_BL_CLR_FOG = 3

	G_BL_A_IN    = 0
	G_BL_A_FOG   = 1
	G_BL_A_SHADE = 2
	G_BL_0       = 3

	G_BL_1MA   = 0
	G_BL_A_MEM = 1
	G_BL_1     = 2
)

// othermode high word
const (
	G_MDSFT_TEXTFILT  = 12
	G_MDSFT_TEXTLUT   = 14
	G_MDSFT_CYCLETYPE = 20

	G_TF_POINT   = 0
	G_TF_AVERAGE = 3
	G_TF_BILERP  = 2

	G_TT_NONE   = 0
	G_TT_RGBA16 = 2
	G_TT_IA16   = 3

	G_CYC_1CYCLE = 0
	G_CYC_2CYCLE = 1
	G_CYC_COPY   = 2
	G_CYC_FILL   = 3
)

// image formats, same order as RDP tile descriptor
const (
	G_IM_FMT_RGBA = 0
	G_IM_FMT_YUV  = 1
	G_IM_FMT_CI   = 2
	G_IM_FMT_IA   = 3
	G_IM_FMT_I    = 4
)

const (
	G_IM_SIZ_4b  = 0
	G_IM_SIZ_8b  = 1
	G_IM_SIZ_16b = 2
	G_IM_SIZ_32b = 3
)

var FormatNames = map[int]string{
	G_IM_FMT_RGBA: "RGBA",
	G_IM_FMT_YUV:  "YUV",
	G_IM_FMT_CI:   "CI",
	G_IM_FMT_IA:   "IA",
	G_IM_FMT_I:    "I",
}

var SizeBits = map[int]int{
	G_IM_SIZ_4b:  4,
	G_IM_SIZ_8b:  8,
	G_IM_SIZ_16b: 16,
	G_IM_SIZ_32b: 32,
}

// tile clamp and mirror flags
const (
	G_TX_WRAP   = 0
	G_TX_MIRROR = 1
	G_TX_CLAMP  = 2
)

const (
	G_TX_LOADTILE   = 7
	G_TX_RENDERTILE = 0
)

// TMEM is 4KB, upper half keeps palettes
const (
	TMEM_WORDS    = 0x200
	TMEM_TLUT     = 0x100
	VERTEX_CACHE  = 32
	MATRIX_STACK  = 10
	MAX_LIGHTS    = 7
	SEGMENT_COUNT = 16
)

func FormatName(fmt, siz int) string {
	return FormatNames[fmt] + strconv.Itoa(SizeBits[siz])
}
