package render

import "github.com/mogaika/retro_model_browser/utils"

// Sort key layout:
//   [31..24] layer
//   opaque:      [23..8] program key, [7..0] depth, near first
//   translucent: [23..0] inverted depth, far first
type Layer uint8

const (
	LAYER_SKYBOX      Layer = 0x00
	LAYER_OPAQUE      Layer = 0x20
	LAYER_TRANSLUCENT Layer = 0x80
)

// MAX_SORT_DEPTH is view distance mapped to the end of depth range
const MAX_SORT_DEPTH = 100000.0

func MakeSortKey(layer Layer, programKey uint32) uint32 {
	key := uint32(layer) << 24
	if layer&LAYER_TRANSLUCENT == 0 {
		key |= ((programKey ^ programKey>>16) & 0xFFFF) << 8
	}
	return key
}

func SortKeyLayer(key uint32) Layer {
	return Layer(key >> 24)
}

func normalizeDepth(depth float32) float32 {
	return utils.Clamp(depth/MAX_SORT_DEPTH, 0, 1)
}

// SetSortKeyDepth stores view depth in key, translucent layers sort back-to-front
func SetSortKeyDepth(key uint32, depth float32) uint32 {
	d := normalizeDepth(depth)
	if SortKeyLayer(key)&LAYER_TRANSLUCENT != 0 {
		return key&0xFF000000 | uint32((1-d)*0xFFFFFF)
	}
	return key&0xFFFFFF00 | uint32(d*0xFF)
}
