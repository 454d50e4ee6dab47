package gx

import (
	"fmt"
	"hash/fnv"
	"strings"
)

const glslHeader = `#version 300 es
precision highp float;
precision highp int;

struct Light {
    vec4 Color;
    vec4 Pos;
    vec4 Dir;
    vec4 DistAtten;
    vec4 CosAtten;
};

layout(std140) uniform ub_Params {
    mat4 u_Projection;
    mat4 u_View;
    vec4 u_ColorMatReg[2];
    vec4 u_ColorAmbReg[2];
    vec4 u_KonstColor[4];
    vec4 u_Color[4];
    mat4 u_TexMtx[10];
    mat4 u_PostTexMtx[20];
    vec4 u_IndTexMtx[6];
    vec4 u_Misc0;
    Light u_Lights[8];
};
`

// Vertex attribute names used by generated programs
const (
	AttrPosition = "a_Position"
	AttrNormal   = "a_Normal"
	AttrColor0   = "a_Color0"
	AttrColor1   = "a_Color1"
	AttrTex      = "a_Tex"
)

func AttrTexName(i int) string { return fmt.Sprintf("%s%d", AttrTex, i) }

type shaderGen struct {
	m *Material
	b strings.Builder
}

func (g *shaderGen) line(format string, args ...interface{}) {
	fmt.Fprintf(&g.b, format, args...)
	g.b.WriteByte('\n')
}

func glslFloat(v float32) string {
	s := fmt.Sprintf("%g", v)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func (g *shaderGen) genChannelControl(ctrl *ColorChannelControl, idx int, comp string) string {
	matSrc := fmt.Sprintf("u_ColorMatReg[%d]", idx)
	if ctrl.MatColorSource == GX_SRC_VTX {
		matSrc = fmt.Sprintf("a_Color%d", idx)
	}
	if !ctrl.LightingEnabled {
		return matSrc + comp
	}
	ambSrc := fmt.Sprintf("u_ColorAmbReg[%d]", idx)
	if ctrl.AmbColorSource == GX_SRC_VTX {
		ambSrc = fmt.Sprintf("a_Color%d", idx)
	}

	var diffuse string
	switch ctrl.DiffuseFunction {
	case GX_DF_SIGN:
		diffuse = "dot(t_Normal, t_LightDir)"
	case GX_DF_CLAMP:
		diffuse = "max(dot(t_Normal, t_LightDir), 0.0)"
	default:
		diffuse = "1.0"
	}

	g.line("    t_LightAccum = %s;", ambSrc)
	for i := 0; i < 8; i++ {
		if ctrl.LitMask&(1<<uint(i)) == 0 {
			continue
		}
		l := fmt.Sprintf("u_Lights[%d]", i)
		switch ctrl.AttenuationFunction {
		case GX_AF_SPEC:
			g.line("    t_LightDir = normalize(%s.Pos.xyz);", l)
			g.line("    t_Atten = max(0.0, dot(t_Normal, %s.Dir.xyz));", l)
			g.line("    t_Atten = dot(t_Normal, t_LightDir) >= 0.0 ? ApplyAtten(%s.CosAtten.xyz, t_Atten) / ApplyAtten(%s.DistAtten.xyz, t_Atten) : 0.0;", l, l)
		case GX_AF_SPOT:
			g.line("    t_LightDelta = %s.Pos.xyz - t_Position;", l)
			g.line("    t_LightDist = length(t_LightDelta);")
			g.line("    t_LightDir = t_LightDelta / max(t_LightDist, 0.0001);")
			g.line("    t_Atten = max(0.0, dot(t_LightDir, -%s.Dir.xyz));", l)
			g.line("    t_Atten = max(0.0, ApplyAtten(%s.CosAtten.xyz, t_Atten)) / ApplyAtten(%s.DistAtten.xyz, t_LightDist);", l, l)
		default:
			g.line("    t_LightDir = normalize(%s.Pos.xyz - t_Position);", l)
			g.line("    t_Atten = 1.0;")
		}
		g.line("    t_LightAccum += %s * t_Atten * %s.Color;", diffuse, l)
	}
	return fmt.Sprintf("(%s * clamp(t_LightAccum, 0.0, 1.0))%s", matSrc, comp)
}

func (g *shaderGen) genLightChannels() {
	g.line("    vec4 t_LightAccum;")
	g.line("    vec3 t_LightDelta, t_LightDir;")
	g.line("    float t_LightDist, t_Atten;")
	for i := 0; i < 2; i++ {
		if i >= len(g.m.LightChannels) {
			g.line("    v_Color%d = vec4(1.0);", i)
			continue
		}
		ch := &g.m.LightChannels[i]
		g.line("    vec3 t_ChanColor%d;", i)
		g.line("    float t_ChanAlpha%d;", i)
		c := g.genChannelControl(&ch.ColorChannel, i, ".rgb")
		g.line("    t_ChanColor%d = %s;", i, c)
		a := g.genChannelControl(&ch.AlphaChannel, i, ".a")
		g.line("    t_ChanAlpha%d = %s;", i, a)
		g.line("    v_Color%d = vec4(t_ChanColor%d, t_ChanAlpha%d);", i, i, i)
	}
}

func texGenSource(src int) string {
	switch {
	case src == GX_TG_POS:
		return "vec4(t_Position, 1.0)"
	case src == GX_TG_NRM, src == GX_TG_BINRM, src == GX_TG_TANGENT:
		return "vec4(t_Normal, 1.0)"
	case src >= GX_TG_TEX0 && src <= GX_TG_TEX7:
		return fmt.Sprintf("vec4(a_Tex%d, 1.0, 1.0)", src-GX_TG_TEX0)
	case src >= GX_TG_TEXCOORD0 && src <= GX_TG_TEXCOORD6:
		return fmt.Sprintf("vec4(v_TexCoord%d, 1.0)", src-GX_TG_TEXCOORD0)
	case src == GX_TG_COLOR0:
		return "vec4(v_Color0.rg, 1.0, 1.0)"
	case src == GX_TG_COLOR1:
		return "vec4(v_Color1.rg, 1.0, 1.0)"
	}
	return "vec4(0.0, 0.0, 1.0, 1.0)"
}

func (g *shaderGen) genTexGen(i int, tg *TexGen) {
	src := texGenSource(tg.Source)
	mtx := ""
	if tg.Matrix >= GX_TEXMTX0 && tg.Matrix <= GX_TEXMTX9 {
		mtx = fmt.Sprintf("u_TexMtx[%d] * ", (tg.Matrix-GX_TEXMTX0)/3)
	}
	var coord string
	switch {
	case tg.Type == GX_TG_MTX3x4:
		coord = fmt.Sprintf("(%s%s).xyz", mtx, src)
	case tg.Type == GX_TG_MTX2x4:
		coord = fmt.Sprintf("vec3((%s%s).xy, 1.0)", mtx, src)
	case tg.Type >= GX_TG_BUMP0 && tg.Type <= GX_TG_BUMP7:
		coord = fmt.Sprintf("vec3(%s.xy, 1.0)", src)
	default:
		// SRTG
		coord = fmt.Sprintf("vec3(%s.xy, 1.0)", src)
	}
	g.line("    vec3 t_TexGen%d = %s;", i, coord)
	if tg.Normalize {
		g.line("    t_TexGen%d = normalize(t_TexGen%d);", i, i)
	}
	if tg.PostMatrix >= GX_PTTEXMTX0 && tg.PostMatrix < GX_PTIDENTITY {
		g.line("    t_TexGen%d = (u_PostTexMtx[%d] * vec4(t_TexGen%d, 1.0)).xyz;", i, (tg.PostMatrix-GX_PTTEXMTX0)/3, i)
	}
	g.line("    v_TexCoord%d = t_TexGen%d;", i, i)
}

func (g *shaderGen) vertexShader() string {
	g.b.Reset()
	g.b.WriteString(glslHeader)
	g.line("")
	g.line("in vec3 %s;", AttrPosition)
	g.line("in vec3 %s;", AttrNormal)
	g.line("in vec4 %s;", AttrColor0)
	g.line("in vec4 %s;", AttrColor1)
	for i := 0; i < 8; i++ {
		g.line("in vec2 %s;", AttrTexName(i))
	}
	g.line("out vec3 v_Position;")
	g.line("out vec4 v_Color0;")
	g.line("out vec4 v_Color1;")
	for i := range g.m.TexGens {
		g.line("out vec3 v_TexCoord%d;", i)
	}
	g.line("")
	g.line("float ApplyAtten(vec3 t_Coeff, float t_Value) {")
	g.line("    return dot(t_Coeff, vec3(1.0, t_Value, t_Value*t_Value));")
	g.line("}")
	g.line("")
	g.line("void main() {")
	g.line("    vec3 t_Position = a_Position;")
	g.line("    vec3 t_Normal = dot(a_Normal, a_Normal) > 0.0 ? normalize(a_Normal) : vec3(0.0, 1.0, 0.0);")
	g.line("    v_Position = t_Position;")
	g.line("    gl_Position = u_Projection * u_View * vec4(t_Position, 1.0);")
	g.genLightChannels()
	for i := range g.m.TexGens {
		g.genTexGen(i, &g.m.TexGens[i])
	}
	g.line("}")
	return g.b.String()
}

var konstFractions = []string{"1.0", "0.875", "0.75", "0.625", "0.5", "0.375", "0.25", "0.125"}

func konstColor(sel int) string {
	switch {
	case sel >= 0 && sel <= GX_TEV_KCSEL_1_8:
		return fmt.Sprintf("vec3(%s)", konstFractions[sel])
	case sel >= GX_TEV_KCSEL_K0 && sel <= GX_TEV_KCSEL_K3:
		return fmt.Sprintf("u_KonstColor[%d].rgb", sel-GX_TEV_KCSEL_K0)
	case sel >= GX_TEV_KCSEL_K0_R && sel <= GX_TEV_KCSEL_K3_A:
		idx := sel - GX_TEV_KCSEL_K0_R
		return fmt.Sprintf("vec3(u_KonstColor[%d].%c)", idx%4, "rgba"[idx/4])
	}
	return "vec3(0.0)"
}

func konstAlpha(sel int) string {
	switch {
	case sel >= 0 && sel <= GX_TEV_KASEL_1_8:
		return konstFractions[sel]
	case sel >= GX_TEV_KASEL_K0_R && sel <= GX_TEV_KASEL_K3_A:
		idx := sel - GX_TEV_KASEL_K0_R
		return fmt.Sprintf("u_KonstColor[%d].%c", idx%4, "rgba"[idx/4])
	}
	return "0.0"
}

var tevRegNames = []string{"t_ColorPrev", "t_Color0", "t_Color1", "t_Color2"}

func colorIn(in int) string {
	switch in {
	case GX_CC_CPREV, GX_CC_C0, GX_CC_C1, GX_CC_C2:
		return tevRegNames[(in-GX_CC_CPREV)/2] + ".rgb"
	case GX_CC_APREV, GX_CC_A0, GX_CC_A1, GX_CC_A2:
		return tevRegNames[(in-GX_CC_APREV)/2] + ".aaa"
	case GX_CC_TEXC:
		return "t_TexC.rgb"
	case GX_CC_TEXA:
		return "t_TexC.aaa"
	case GX_CC_RASC:
		return "t_RasC.rgb"
	case GX_CC_RASA:
		return "t_RasC.aaa"
	case GX_CC_ONE:
		return "vec3(1.0)"
	case GX_CC_HALF:
		return "vec3(0.5)"
	case GX_CC_KONST:
		return "t_KonstC.rgb"
	}
	return "vec3(0.0)"
}

func alphaIn(in int) string {
	switch in {
	case GX_CA_APREV, GX_CA_A0, GX_CA_A1, GX_CA_A2:
		return tevRegNames[in-GX_CA_APREV] + ".a"
	case GX_CA_TEXA:
		return "t_TexC.a"
	case GX_CA_RASA:
		return "t_RasC.a"
	case GX_CA_KONST:
		return "t_KonstC.a"
	}
	return "0.0"
}

func tevBias(bias int) string {
	switch bias {
	case GX_TB_ADDHALF:
		return " + 0.5"
	case GX_TB_SUBHALF:
		return " - 0.5"
	}
	return ""
}

func tevScale(scale int) string {
	switch scale {
	case GX_CS_SCALE_2:
		return " * 2.0"
	case GX_CS_SCALE_4:
		return " * 4.0"
	case GX_CS_DIVIDE_2:
		return " * 0.5"
	}
	return ""
}

func tevCompare(op int, a, b string, isAlpha bool) string {
	cmp := ">"
	if op&1 != 0 {
		cmp = "=="
	}
	if isAlpha {
		return fmt.Sprintf("(TevPack8(%s) %s TevPack8(%s))", a, cmp, b)
	}
	var pack string
	switch op {
	case GX_TEV_COMP_GR16_GT, GX_TEV_COMP_GR16_EQ:
		pack = "TevPack16(%s.rg)"
	case GX_TEV_COMP_BGR24_GT, GX_TEV_COMP_BGR24_EQ:
		pack = "TevPack24(%s.rgb)"
	default:
		pack = "TevPack8(%s.r)"
	}
	return fmt.Sprintf("("+pack+" %s "+pack+")", a, cmp, b)
}

func (g *shaderGen) combiner(ci *CombinerInput, isAlpha bool) string {
	in := colorIn
	typ, zero := "vec3", "vec3(0.0)"
	if isAlpha {
		in = alphaIn
		typ, zero = "float", "0.0"
	}
	a, b, c, d := in(ci.A), in(ci.B), in(ci.C), in(ci.D)

	var expr string
	switch {
	case ci.Op == GX_TEV_ADD || ci.Op == GX_TEV_SUB:
		sign := "+"
		if ci.Op == GX_TEV_SUB {
			sign = "-"
		}
		expr = fmt.Sprintf("(%s %s mix(%s, %s, %s)%s)%s", d, sign, a, b, c, tevBias(ci.Bias), tevScale(ci.Scale))
	case ci.Op == GX_TEV_COMP_RGB8_GT || ci.Op == GX_TEV_COMP_RGB8_EQ:
		fn := "greaterThan"
		if ci.Op == GX_TEV_COMP_RGB8_EQ {
			fn = "equal"
		}
		if isAlpha {
			cmp := ">"
			if ci.Op == GX_TEV_COMP_A8_EQ {
				cmp = "=="
			}
			expr = fmt.Sprintf("(%s + ((TevPack8(%s) %s TevPack8(%s)) ? %s : 0.0))", d, a, cmp, b, c)
		} else {
			expr = fmt.Sprintf("(%s + %s(%s(floor(%s * 255.0 + 0.5), floor(%s * 255.0 + 0.5))) * %s)", d, typ, fn, a, b, c)
		}
	default:
		expr = fmt.Sprintf("(%s + (%s ? %s : %s))", d, tevCompare(ci.Op, a, b, isAlpha), c, zero)
	}
	if ci.Clamp {
		expr = fmt.Sprintf("clamp(%s, 0.0, 1.0)", expr)
	} else {
		expr = fmt.Sprintf("clamp(%s, -4.0, 4.0)", expr)
	}
	return expr
}

func swizzle(t SwapTable) string {
	const comps = "rgba"
	return string([]byte{comps[t[0]&3], comps[t[1]&3], comps[t[2]&3], comps[t[3]&3]})
}

func (g *shaderGen) sampler(texMap int) string {
	if texMap == g.m.FramebufferTexMap {
		return "u_FramebufferTexture"
	}
	return fmt.Sprintf("u_Texture[%d]", texMap)
}

func (g *shaderGen) texCoord(id int) string {
	if id < 0 || id >= len(g.m.TexGens) {
		return "vec2(0.0)"
	}
	return fmt.Sprintf("(v_TexCoord%d.xy / (v_TexCoord%d.z == 0.0 ? 1.0 : v_TexCoord%d.z))", id, id, id)
}

func (g *shaderGen) genIndirectStages() {
	for i := range g.m.IndTexStages {
		s := &g.m.IndTexStages[i]
		if s.TexMap < 0 || s.TexMap >= 8 {
			g.line("    vec3 t_IndTexCoord%d = vec3(0.0);", i)
			continue
		}
		scale := fmt.Sprintf("vec2(%s, %s)", glslFloat(1/float32(int(1)<<uint(s.ScaleS))), glslFloat(1/float32(int(1)<<uint(s.ScaleT))))
		g.line("    vec3 t_IndTexCoord%d = 255.0 * texture(%s, %s * %s).abg;", i, g.sampler(s.TexMap), g.texCoord(s.TexCoordId), scale)
	}
}

func indTexWrap(wrap int) string {
	switch wrap {
	case GX_ITW_256:
		return "256.0"
	case GX_ITW_128:
		return "128.0"
	case GX_ITW_64:
		return "64.0"
	case GX_ITW_32:
		return "32.0"
	case GX_ITW_16:
		return "16.0"
	case GX_ITW_0:
		return "0.0"
	}
	return ""
}

func (g *shaderGen) genStageTexCoord(i int, s *TevStage) {
	base := g.texCoord(s.TexCoordId)
	hasInd := s.IndTexStage >= 0 && s.IndTexStage < len(g.m.IndTexStages)
	if !hasInd {
		if s.IndTexAddPrev {
			g.line("    t_TexCoord = t_TexCoordPrev + %s;", base)
		} else {
			g.line("    t_TexCoord = %s;", base)
		}
		g.line("    t_TexCoordPrev = t_TexCoord;")
		return
	}

	texSize := "vec2(1.0)"
	if s.TexMap >= 0 && s.TexMap < 8 {
		texSize = fmt.Sprintf("vec2(textureSize(%s, 0))", g.sampler(s.TexMap))
	}
	g.line("    vec3 t_Ind%d = t_IndTexCoord%d;", i, s.IndTexStage)
	switch s.IndTexFormat {
	case GX_ITF_5:
		g.line("    t_Ind%d = mod(t_Ind%d, 32.0);", i, i)
	case GX_ITF_4:
		g.line("    t_Ind%d = mod(t_Ind%d, 16.0);", i, i)
	case GX_ITF_3:
		g.line("    t_Ind%d = mod(t_Ind%d, 8.0);", i, i)
	}
	if s.IndTexBiasSel != GX_ITB_NONE {
		bias := "1.0"
		if s.IndTexFormat == GX_ITF_8 {
			bias = "-128.0"
		}
		mask := [3]string{"0.0", "0.0", "0.0"}
		for c := 0; c < 3; c++ {
			if s.IndTexBiasSel&(1<<uint(c)) != 0 {
				mask[c] = bias
			}
		}
		g.line("    t_Ind%d += vec3(%s, %s, %s);", i, mask[0], mask[1], mask[2])
	}

	offs := "vec2(0.0)"
	switch {
	case s.IndTexMatrix >= GX_ITM_0 && s.IndTexMatrix <= GX_ITM_2:
		m := s.IndTexMatrix - GX_ITM_0
		offs = fmt.Sprintf("vec2(dot(u_IndTexMtx[%d].xyz, t_Ind%d), dot(u_IndTexMtx[%d].xyz, t_Ind%d))", m*2, i, m*2+1, i)
	case s.IndTexMatrix >= GX_ITM_S0 && s.IndTexMatrix <= GX_ITM_S2:
		offs = fmt.Sprintf("(%s * %s * t_Ind%d.xx / 256.0)", base, texSize, i)
	case s.IndTexMatrix >= GX_ITM_T0 && s.IndTexMatrix <= GX_ITM_T2:
		offs = fmt.Sprintf("(%s * %s * t_Ind%d.yy / 256.0)", base, texSize, i)
	}

	g.line("    vec2 t_Base%d = %s * %s;", i, base, texSize)
	if w := indTexWrap(s.IndTexWrapS); w != "" {
		if w == "0.0" {
			g.line("    t_Base%d.x = 0.0;", i)
		} else {
			g.line("    t_Base%d.x = mod(t_Base%d.x, %s);", i, i, w)
		}
	}
	if w := indTexWrap(s.IndTexWrapT); w != "" {
		if w == "0.0" {
			g.line("    t_Base%d.y = 0.0;", i)
		} else {
			g.line("    t_Base%d.y = mod(t_Base%d.y, %s);", i, i, w)
		}
	}
	if s.IndTexAddPrev {
		g.line("    t_TexCoord = t_TexCoordPrev + (t_Base%d + %s) / %s;", i, offs, texSize)
	} else {
		g.line("    t_TexCoord = (t_Base%d + %s) / %s;", i, offs, texSize)
	}
	g.line("    t_TexCoordPrev = t_TexCoord;")
}

func (g *shaderGen) genTevStage(i int, s *TevStage) {
	g.line("    // stage %d", i)
	g.genStageTexCoord(i, s)

	texSwap, rasSwap := DefaultSwapTable, DefaultSwapTable
	if s.TexSwapTable >= 0 && s.TexSwapTable < 4 {
		texSwap = g.m.SwapTables[s.TexSwapTable]
	}
	if s.RasSwapTable >= 0 && s.RasSwapTable < 4 {
		rasSwap = g.m.SwapTables[s.RasSwapTable]
	}

	if s.TexMap >= 0 && s.TexMap < 8 {
		g.line("    t_TexC = texture(%s, t_TexCoord, u_Misc0.x).%s;", g.sampler(s.TexMap), swizzle(texSwap))
	} else {
		g.line("    t_TexC = vec4(1.0);")
	}
	switch s.Channel {
	case GX_COLOR0A0:
		g.line("    t_RasC = v_Color0.%s;", swizzle(rasSwap))
	case GX_COLOR1A1:
		g.line("    t_RasC = v_Color1.%s;", swizzle(rasSwap))
	default:
		g.line("    t_RasC = vec4(0.0);")
	}
	g.line("    t_KonstC = vec4(%s, %s);", konstColor(s.KonstColorSel), konstAlpha(s.KonstAlphaSel))

	cReg := tevRegNames[s.Color.RegId&3]
	aReg := tevRegNames[s.Alpha.RegId&3]
	g.line("    t_StageColor = %s;", g.combiner(&s.Color, false))
	g.line("    t_StageAlpha = %s;", g.combiner(&s.Alpha, true))
	g.line("    %s.rgb = t_StageColor;", cReg)
	g.line("    %s.a = t_StageAlpha;", aReg)
}

func alphaCompare(fn int, ref float32) string {
	r := glslFloat(ref)
	switch fn {
	case GX_NEVER:
		return "false"
	case GX_LESS:
		return "(t_PixelOut.a < " + r + ")"
	case GX_EQUAL:
		return "(t_PixelOut.a == " + r + ")"
	case GX_LEQUAL:
		return "(t_PixelOut.a <= " + r + ")"
	case GX_GREATER:
		return "(t_PixelOut.a > " + r + ")"
	case GX_NEQUAL:
		return "(t_PixelOut.a != " + r + ")"
	case GX_GEQUAL:
		return "(t_PixelOut.a >= " + r + ")"
	}
	return "true"
}

func (g *shaderGen) genAlphaTest() {
	at := &g.m.AlphaTest
	a := alphaCompare(at.CompareA, at.ReferenceA)
	b := alphaCompare(at.CompareB, at.ReferenceB)
	var cond string
	switch at.Op {
	case GX_AOP_OR:
		cond = a + " || " + b
	case GX_AOP_XOR:
		cond = a + " != " + b
	case GX_AOP_XNOR:
		cond = a + " == " + b
	default:
		cond = a + " && " + b
	}
	if cond == "true && true" {
		return
	}
	g.line("    if (!(%s))", cond)
	g.line("        discard;")
}

func (g *shaderGen) fragmentShader() string {
	g.b.Reset()
	g.b.WriteString(glslHeader)
	g.line("")
	g.line("uniform sampler2D u_Texture[8];")
	g.line("uniform sampler2D u_FramebufferTexture;")
	g.line("in vec3 v_Position;")
	g.line("in vec4 v_Color0;")
	g.line("in vec4 v_Color1;")
	for i := range g.m.TexGens {
		g.line("in vec3 v_TexCoord%d;", i)
	}
	g.line("out vec4 o_Color;")
	g.line("")
	g.line("float TevPack8(float a) { return floor(a * 255.0 + 0.5); }")
	g.line("float TevPack16(vec2 a) { return dot(floor(a * 255.0 + 0.5), vec2(1.0, 256.0)); }")
	g.line("float TevPack24(vec3 a) { return dot(floor(a * 255.0 + 0.5), vec3(1.0, 256.0, 65536.0)); }")
	g.line("")
	g.line("void main() {")
	g.line("    vec4 t_ColorPrev = u_Color[0];")
	g.line("    vec4 t_Color0 = u_Color[1];")
	g.line("    vec4 t_Color1 = u_Color[2];")
	g.line("    vec4 t_Color2 = u_Color[3];")
	g.line("    vec4 t_TexC, t_RasC, t_KonstC;")
	g.line("    vec3 t_StageColor;")
	g.line("    float t_StageAlpha;")
	g.line("    vec2 t_TexCoord = vec2(0.0);")
	g.line("    vec2 t_TexCoordPrev = vec2(0.0);")
	g.genIndirectStages()
	for i := range g.m.TevStages {
		g.genTevStage(i, &g.m.TevStages[i])
	}
	if len(g.m.TevStages) > 0 {
		last := &g.m.TevStages[len(g.m.TevStages)-1]
		g.line("    vec4 t_PixelOut = vec4(%s.rgb, %s.a);", tevRegNames[last.Color.RegId&3], tevRegNames[last.Alpha.RegId&3])
	} else {
		g.line("    vec4 t_PixelOut = v_Color0;")
	}
	g.genAlphaTest()
	g.line("    o_Color = t_PixelOut;")
	g.line("}")
	return g.b.String()
}

// GenerateProgram translates fixed function state into GLSL ES 3.00 pair
func GenerateProgram(m *Material) (vertexGLSL, fragmentGLSL string) {
	g := &shaderGen{m: m}
	vertexGLSL = g.vertexShader()
	fragmentGLSL = g.fragmentShader()
	return
}

// ProgramKey identifies materials producing identical programs
func ProgramKey(m *Material) uint32 {
	v, f := GenerateProgram(m)
	h := fnv.New32a()
	h.Write([]byte(v))
	h.Write([]byte(f))
	return h.Sum32()
}
