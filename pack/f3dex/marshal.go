package f3dex

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mogaika/retro_model_browser/utils"
)

type AjaxTexture struct {
	Name   string
	Format string
	Width  int
	Height int
	Image  []byte
}

type AjaxTextureHeader struct {
	TextureHeader
	Format string
}

type AjaxDrawCall struct {
	Index         int
	Vertices      int
	Triangles     int
	Textures      [2]int
	CycleType     int
	Translucent   bool
	ZCompare      bool
	ZUpdate       bool
	GeometryMode  string
	OtherModeH    string
	OtherModeL    string
	CombineColor  []string
	CombineAlpha  []string
	ProgramKey    uint32
	PrimColor     utils.ColorFloat
	EnvColor      utils.ColorFloat
	TileSizes     [2]string
	AlphaCompare  int
	CoverageAlpha bool
}

type Ajax struct {
	Name         string
	GeoType      uint16
	CommandCount int
	VertexCount  int
	Center       [3]float32
	Radius       float32
	BBox         utils.AABB
	Headers      []AjaxTextureHeader
	Textures     []AjaxTexture
	DrawCalls    []AjaxDrawCall
	Unknown      map[string]int
}

func marshalDrawCall(i int, dc *DrawCall) AjaxDrawCall {
	ps := dc.ProgramState()
	adc := AjaxDrawCall{
		Index:         i,
		Vertices:      len(dc.Vertices),
		Triangles:     len(dc.Indices) / 3,
		Textures:      dc.Textures,
		CycleType:     dc.CycleType(),
		Translucent:   dc.IsTranslucent(),
		ZCompare:      dc.ZCompare(),
		ZUpdate:       dc.ZUpdate(),
		GeometryMode:  fmt.Sprintf("0x%08x", dc.GeometryMode),
		OtherModeH:    fmt.Sprintf("0x%08x", dc.OtherModeH),
		OtherModeL:    fmt.Sprintf("0x%08x", dc.OtherModeL),
		ProgramKey:    ProgramKey(ps),
		PrimColor:     dc.PrimColor,
		EnvColor:      dc.EnvColor,
		AlphaCompare:  dc.AlphaCompare(),
		CoverageAlpha: dc.CvgAlpha(),
	}
	adc.CombineColor = append(adc.CombineColor, dc.Combine.One.RGB.String())
	adc.CombineAlpha = append(adc.CombineAlpha, dc.Combine.One.Alpha.String())
	if dc.TwoCycle() {
		adc.CombineColor = append(adc.CombineColor, dc.Combine.Two.RGB.String())
		adc.CombineAlpha = append(adc.CombineAlpha, dc.Combine.Two.Alpha.String())
	}
	for t := range dc.Tiles {
		if dc.Textures[t] >= 0 {
			adc.TileSizes[t] = fmt.Sprintf("%dx%d", dc.Tiles[t].Width(), dc.Tiles[t].Height())
		}
	}
	return adc
}

func (g *Geo) marshalTextures() ([]AjaxTexture, error) {
	result := make([]AjaxTexture, len(g.Cache.Textures))
	var eg errgroup.Group
	for i, t := range g.Cache.Textures {
		i, t := i, t
		result[i] = AjaxTexture{
			Name:   t.Name(),
			Format: FormatName(t.Format, t.Size),
			Width:  t.Width,
			Height: t.Height,
		}
		eg.Go(func() error {
			data, err := t.EncodePNG()
			if err != nil {
				return err
			}
			result[i].Image = data
			return nil
		})
	}
	return result, eg.Wait()
}

func (g *Geo) Marshal(src utils.ResourceSource) (interface{}, error) {
	a := &Ajax{
		Name:         g.Name,
		GeoType:      g.GeoType,
		CommandCount: g.CommandCount,
		VertexCount:  g.VertexCount,
		Center:       g.Center,
		Radius:       g.Radius,
		BBox:         g.BBox,
		Unknown:      make(map[string]int),
	}
	for _, th := range g.Textures {
		a.Headers = append(a.Headers, AjaxTextureHeader{TextureHeader: th, Format: th.FormatName()})
	}
	for i, dc := range g.DrawCalls {
		a.DrawCalls = append(a.DrawCalls, marshalDrawCall(i, dc))
	}
	for cmd, count := range g.Unknown {
		a.Unknown[fmt.Sprintf("0x%02x", cmd)] = count
	}

	var err error
	if a.Textures, err = g.marshalTextures(); err != nil {
		return nil, err
	}
	return a, nil
}
