package f3dex

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/retro_model_browser/gx"
)

type CombineSource uint8

// color inputs shared by a, b, c and d
const (
	CC_COMBINED CombineSource = iota
	CC_TEXEL0
	CC_TEXEL1
	CC_PRIMITIVE
	CC_SHADE
	CC_ENVIRONMENT
)

// slot specific color inputs
const (
	CC_A_ONE   CombineSource = 6
	CC_A_NOISE CombineSource = 7
	CC_A_ZERO  CombineSource = 8

	CC_B_CENTER CombineSource = 6
	CC_B_K4     CombineSource = 7
	CC_B_ZERO   CombineSource = 8

	CC_C_SCALE          CombineSource = 6
	CC_C_COMBINED_ALPHA CombineSource = 7
	CC_C_TEXEL0_ALPHA   CombineSource = 8
	CC_C_TEXEL1_ALPHA   CombineSource = 9
	CC_C_PRIM_ALPHA     CombineSource = 10
	CC_C_SHADE_ALPHA    CombineSource = 11
	CC_C_ENV_ALPHA      CombineSource = 12
	CC_C_LOD_FRACTION   CombineSource = 13
	CC_C_PRIM_LOD_FRAC  CombineSource = 14
	CC_C_K5             CombineSource = 15
	CC_C_ZERO           CombineSource = 16

	CC_D_ONE  CombineSource = 6
	CC_D_ZERO CombineSource = 7
)

// alpha inputs, c slot replaces combined with lod fraction
const (
	AC_COMBINED CombineSource = iota
	AC_TEXEL0
	AC_TEXEL1
	AC_PRIMITIVE
	AC_SHADE
	AC_ENVIRONMENT
	AC_ONE
	AC_ZERO

	AC_C_LOD_FRACTION  CombineSource = 0
	AC_C_PRIM_LOD_FRAC CombineSource = 6
)

// CombineParams is (A-B)*C+D
type CombineParams struct{ A, B, C, D CombineSource }

type CombinePass struct{ RGB, Alpha CombineParams }

// CombineMode holds both cycles, second one is used only in two cycle mode
type CombineMode struct{ One, Two CombinePass }

// DecodeCombine unpacks G_SETCOMBINE words
func DecodeCombine(w0, w1 uint32) CombineMode {
	s := func(w uint32, shift, mask uint32) CombineSource {
		return CombineSource((w >> shift) & mask)
	}
	return CombineMode{
		One: CombinePass{
			RGB:   CombineParams{A: s(w0, 20, 0xF), B: s(w1, 28, 0xF), C: s(w0, 15, 0x1F), D: s(w1, 15, 0x7)},
			Alpha: CombineParams{A: s(w0, 12, 0x7), B: s(w1, 12, 0x7), C: s(w0, 9, 0x7), D: s(w1, 9, 0x7)},
		},
		Two: CombinePass{
			RGB:   CombineParams{A: s(w0, 5, 0xF), B: s(w1, 24, 0xF), C: s(w0, 0, 0x1F), D: s(w1, 6, 0x7)},
			Alpha: CombineParams{A: s(w1, 21, 0x7), B: s(w1, 3, 0x7), C: s(w1, 18, 0x7), D: s(w1, 0, 0x7)},
		},
	}
}

// Encode packs mode back to G_SETCOMBINE words
func (cm CombineMode) Encode() (w0, w1 uint32) {
	u := func(v CombineSource, shift uint32) uint32 { return uint32(v) << shift }
	w0 = G_SETCOMBINE<<24 |
		u(cm.One.RGB.A, 20) | u(cm.One.RGB.C, 15) | u(cm.One.Alpha.A, 12) | u(cm.One.Alpha.C, 9) |
		u(cm.Two.RGB.A, 5) | u(cm.Two.RGB.C, 0)
	w1 = u(cm.One.RGB.B, 28) | u(cm.Two.RGB.B, 24) | u(cm.Two.Alpha.A, 21) | u(cm.Two.Alpha.C, 18) |
		u(cm.One.RGB.D, 15) | u(cm.One.Alpha.B, 12) | u(cm.One.Alpha.D, 9) |
		u(cm.Two.RGB.D, 6) | u(cm.Two.Alpha.B, 3) | u(cm.Two.Alpha.D, 0)
	return
}

// UsesTexel reports whether combine reads texel of tile 0 or 1
func (cm CombineMode) UsesTexel(i int, twoCycle bool) bool {
	rgb := CC_TEXEL0 + CombineSource(i)
	rgbAlpha := CC_C_TEXEL0_ALPHA + CombineSource(i)
	alpha := AC_TEXEL0 + CombineSource(i)
	passes := []CombinePass{cm.One}
	if twoCycle {
		passes = append(passes, cm.Two)
	}
	for _, p := range passes {
		c := p.RGB
		if c.A == rgb || c.B == rgb || c.C == rgb || c.D == rgb || c.C == rgbAlpha {
			return true
		}
		a := p.Alpha
		if a.A == alpha || a.B == alpha || a.C == alpha || a.D == alpha {
			return true
		}
	}
	return false
}

// uniform block of f3dex programs, header matches gx one
const (
	UB_PROJECTION  = gx.UB_PROJECTION
	UB_VIEW        = gx.UB_VIEW
	UB_PRIM        = 32
	UB_ENV         = 36
	UB_MISC        = 40 // alpha ref, prim lod frac, k4, k5
	UB_PARAMS_SIZE = 44
)

type CombineParamsUniform struct {
	Primitive   [4]float32
	Environment [4]float32
	AlphaRef    float32
	PrimLodFrac float32
	K4, K5      float32
}

func FillParams(dst []float32, projection, view mgl32.Mat4, p *CombineParamsUniform) {
	gx.FillCamera(dst, projection, view)
	copy(dst[UB_PRIM:], p.Primitive[:])
	copy(dst[UB_ENV:], p.Environment[:])
	dst[UB_MISC], dst[UB_MISC+1], dst[UB_MISC+2], dst[UB_MISC+3] = p.AlphaRef, p.PrimLodFrac, p.K4, p.K5
}

// ProgramState is everything affecting generated program
type ProgramState struct {
	Combine      CombineMode
	TwoCycle     bool
	AlphaCompare int
	// coverage times alpha, cutout at half alpha
	CvgAlpha bool
}

const glslHeader = `#version 300 es
precision highp float;

layout(std140) uniform ub_Params {
    mat4 u_Projection;
    mat4 u_View;
    vec4 u_PrimColor;
    vec4 u_EnvColor;
    vec4 u_Misc0;
};
`

func colorInput(slot int, src CombineSource) string {
	switch src {
	case CC_COMBINED:
		return "t_Combined.rgb"
	case CC_TEXEL0:
		return "t_Tex0.rgb"
	case CC_TEXEL1:
		return "t_Tex1.rgb"
	case CC_PRIMITIVE:
		return "u_PrimColor.rgb"
	case CC_SHADE:
		return "v_Color.rgb"
	case CC_ENVIRONMENT:
		return "u_EnvColor.rgb"
	}
	switch slot {
	case 0:
		switch src {
		case CC_A_ONE:
			return "vec3(1.0)"
		case CC_A_NOISE:
			return "vec3(fract(sin(dot(gl_FragCoord.xy, vec2(12.9898, 78.233))) * 43758.5453))"
		}
	case 1:
		switch src {
		case CC_B_CENTER:
			return "vec3(0.5)"
		case CC_B_K4:
			return "vec3(u_Misc0.z)"
		}
	case 2:
		switch src {
		case CC_C_SCALE:
			return "vec3(1.0)"
		case CC_C_COMBINED_ALPHA:
			return "vec3(t_Combined.a)"
		case CC_C_TEXEL0_ALPHA:
			return "vec3(t_Tex0.a)"
		case CC_C_TEXEL1_ALPHA:
			return "vec3(t_Tex1.a)"
		case CC_C_PRIM_ALPHA:
			return "vec3(u_PrimColor.a)"
		case CC_C_SHADE_ALPHA:
			return "vec3(v_Color.a)"
		case CC_C_ENV_ALPHA:
			return "vec3(u_EnvColor.a)"
		case CC_C_LOD_FRACTION:
			return "vec3(0.0)"
		case CC_C_PRIM_LOD_FRAC:
			return "vec3(u_Misc0.y)"
		case CC_C_K5:
			return "vec3(u_Misc0.w)"
		}
	case 3:
		if src == CC_D_ONE {
			return "vec3(1.0)"
		}
	}
	return "vec3(0.0)"
}

func alphaInput(slot int, src CombineSource) string {
	if slot == 2 {
		switch src {
		case AC_C_LOD_FRACTION:
			return "0.0"
		case AC_C_PRIM_LOD_FRAC:
			return "u_Misc0.y"
		}
	}
	switch src {
	case AC_COMBINED:
		return "t_Combined.a"
	case AC_TEXEL0:
		return "t_Tex0.a"
	case AC_TEXEL1:
		return "t_Tex1.a"
	case AC_PRIMITIVE:
		return "u_PrimColor.a"
	case AC_SHADE:
		return "v_Color.a"
	case AC_ENVIRONMENT:
		return "u_EnvColor.a"
	case AC_ONE:
		return "1.0"
	}
	return "0.0"
}

func combineExpr(p CombineParams, input func(int, CombineSource) string) string {
	return fmt.Sprintf("(%s - %s) * %s + %s",
		input(0, p.A), input(1, p.B), input(2, p.C), input(3, p.D))
}

func (ps *ProgramState) vertexShader() string {
	var b strings.Builder
	b.WriteString(glslHeader)
	fmt.Fprintf(&b, `
in vec3 %s;
in vec4 %s;
in vec2 %s;
in vec2 %s;
out vec4 v_Color;
out vec2 v_TexCoord0;
out vec2 v_TexCoord1;

void main() {
    gl_Position = u_Projection * u_View * vec4(%[1]s, 1.0);
    v_Color = %[2]s;
    v_TexCoord0 = %[3]s;
    v_TexCoord1 = %[4]s;
}
`, gx.AttrPosition, gx.AttrColor0, gx.AttrTexName(0), gx.AttrTexName(1))
	return b.String()
}

func (ps *ProgramState) fragmentShader() string {
	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}
	b.WriteString(glslHeader)
	line("")
	line("uniform sampler2D u_Texture[2];")
	line("in vec4 v_Color;")
	line("in vec2 v_TexCoord0;")
	line("in vec2 v_TexCoord1;")
	line("out vec4 o_Color;")
	line("")
	line("void main() {")
	line("    vec4 t_Tex0 = texture(u_Texture[0], v_TexCoord0);")
	line("    vec4 t_Tex1 = texture(u_Texture[1], v_TexCoord1);")
	line("    vec4 t_Combined = vec4(0.0);")
	passes := []CombinePass{ps.Combine.One}
	if ps.TwoCycle {
		passes = append(passes, ps.Combine.Two)
	}
	for _, p := range passes {
		line("    t_Combined = vec4(%s, %s);", combineExpr(p.RGB, colorInput), combineExpr(p.Alpha, alphaInput))
	}
	line("    t_Combined = clamp(t_Combined, 0.0, 1.0);")
	switch {
	case ps.CvgAlpha:
		line("    if (t_Combined.a < 0.5)")
		line("        discard;")
	case ps.AlphaCompare == G_AC_THRESHOLD:
		line("    if (t_Combined.a < u_Misc0.x)")
		line("        discard;")
	}
	line("    o_Color = t_Combined;")
	line("}")
	return b.String()
}

// GenerateProgram translates combiner state into GLSL ES 3.00 pair
func GenerateProgram(ps *ProgramState) (vertexGLSL, fragmentGLSL string) {
	return ps.vertexShader(), ps.fragmentShader()
}

func ProgramKey(ps *ProgramState) uint32 {
	v, f := GenerateProgram(ps)
	h := fnv.New32a()
	h.Write([]byte(v))
	h.Write([]byte(f))
	return h.Sum32()
}

// String gives human readable equation, as in display list dumps
func (p CombineParams) String() string {
	return fmt.Sprintf("(%d - %d) * %d + %d", p.A, p.B, p.C, p.D)
}
