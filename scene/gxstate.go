package scene

import (
	"github.com/mogaika/retro_model_browser/gx"
	"github.com/mogaika/retro_model_browser/render"
)

func translateBlendSrc(f int) render.BlendFactor {
	switch f {
	case gx.GX_BL_ZERO:
		return render.FACTOR_ZERO
	case gx.GX_BL_ONE:
		return render.FACTOR_ONE
	case gx.GX_BL_DSTCLR:
		return render.FACTOR_DST_COLOR
	case gx.GX_BL_INVDSTCLR:
		return render.FACTOR_ONE_MINUS_DST_COLOR
	}
	return translateBlendAlpha(f)
}

func translateBlendDst(f int) render.BlendFactor {
	switch f {
	case gx.GX_BL_ZERO:
		return render.FACTOR_ZERO
	case gx.GX_BL_ONE:
		return render.FACTOR_ONE
	case gx.GX_BL_SRCCLR:
		return render.FACTOR_SRC_COLOR
	case gx.GX_BL_INVSRCCLR:
		return render.FACTOR_ONE_MINUS_SRC_COLOR
	}
	return translateBlendAlpha(f)
}

func translateBlendAlpha(f int) render.BlendFactor {
	switch f {
	case gx.GX_BL_SRCALPHA:
		return render.FACTOR_SRC_ALPHA
	case gx.GX_BL_INVSRCALPHA:
		return render.FACTOR_ONE_MINUS_SRC_ALPHA
	case gx.GX_BL_DSTALPHA:
		return render.FACTOR_DST_ALPHA
	case gx.GX_BL_INVDSTALPHA:
		return render.FACTOR_ONE_MINUS_DST_ALPHA
	}
	return render.FACTOR_ONE
}

// MegaStateFromGX converts pixel engine state of material.
// GX compare and cull enums share order with render ones.
func MegaStateFromGX(m *gx.Material) render.MegaState {
	ms := render.DefaultMegaState()
	ms.Cull = render.CullMode(m.CullMode)

	if m.ZMode.CompareEnable {
		ms.DepthCompare = render.CompareMode(m.ZMode.Func)
	} else {
		ms.DepthCompare = render.COMPARE_ALWAYS
	}
	ms.DepthWrite = m.ZMode.UpdateEnable

	switch m.Blend.Type {
	case gx.GX_BM_BLEND:
		ms.Blend = render.BlendState{
			Mode:      render.BLEND_ADD,
			SrcFactor: translateBlendSrc(m.Blend.SrcFactor),
			DstFactor: translateBlendDst(m.Blend.DstFactor),
		}
	case gx.GX_BM_SUBTRACT:
		ms.Blend = render.BlendState{
			Mode:      render.BLEND_REVERSE_SUBTRACT,
			SrcFactor: render.FACTOR_ONE,
			DstFactor: render.FACTOR_ONE,
		}
	}
	return ms
}

func translateWrap(w int) render.WrapMode {
	switch w {
	case gx.GX_REPEAT:
		return render.WRAP_REPEAT
	case gx.GX_MIRROR:
		return render.WRAP_MIRROR
	}
	return render.WRAP_CLAMP
}

// translateFilter splits GX min filter into filter and mip filter
func translateFilter(f int) (render.FilterMode, render.MipFilterMode) {
	switch f {
	case gx.GX_NEAR:
		return render.FILTER_POINT, render.MIPFILTER_NO_MIP
	case gx.GX_LINEAR:
		return render.FILTER_BILINEAR, render.MIPFILTER_NO_MIP
	case gx.GX_NEAR_MIP_NEAR:
		return render.FILTER_POINT, render.MIPFILTER_NEAREST
	case gx.GX_LIN_MIP_NEAR:
		return render.FILTER_BILINEAR, render.MIPFILTER_NEAREST
	case gx.GX_NEAR_MIP_LIN:
		return render.FILTER_POINT, render.MIPFILTER_LINEAR
	}
	return render.FILTER_BILINEAR, render.MIPFILTER_LINEAR
}
