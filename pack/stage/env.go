package stage

import (
	"math"

	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/utils"
)

// Palette is Pale entry, lighting of one time period
type Palette struct {
	ActorAmbient utils.ColorFloat
	BGAmbient    [4]utils.ColorFloat
	BGLight      [4]utils.ColorFloat
	Fog          utils.ColorFloat
	VirtIndex    int
	FogStart     float32
	FogEnd       float32
}

func rgb8(e *utils.BufStack, off int) utils.ColorFloat {
	return utils.NewColorFloatFromRGBA8(e.U8(off), e.U8(off+1), e.U8(off+2), 0xFF)
}

func rgba8(e *utils.BufStack, off int) utils.ColorFloat {
	return utils.NewColorFloatFromRGBA8(e.U8(off), e.U8(off+1), e.U8(off+2), e.U8(off+3))
}

func readPalette(e *utils.BufStack) Palette {
	p := Palette{
		ActorAmbient: rgb8(e, 0x00),
		Fog:          rgb8(e, 0x1B),
		VirtIndex:    int(e.U8(0x1E)),
		FogStart:     e.F32(0x20),
		FogEnd:       e.F32(0x24),
	}
	for i := 0; i < 4; i++ {
		p.BGAmbient[i] = rgb8(e, 0x03+i*3)
		p.BGLight[i] = rgb8(e, 0x0F+i*3)
	}
	return p
}

const (
	PERIOD_DAWN = iota
	PERIOD_MORNING
	PERIOD_NOON
	PERIOD_AFTERNOON
	PERIOD_DUSK
	PERIOD_NIGHT
	PERIOD_COUNT
)

// start hour of every period
var PeriodHours = [PERIOD_COUNT]float32{6, 9, 12, 15, 18, 21}

// Colo picks palette per time period
type Colo struct {
	Palettes [PERIOD_COUNT]int
}

// EnvR picks Colo per weather, weather 0 is clear sky
type EnvR struct {
	Colors [8]int
}

// Virt is sky colors of palette
type Virt struct {
	Cloud        utils.ColorFloat
	CloudCenter  utils.ColorFloat
	Sky          utils.ColorFloat
	HorizonCloud utils.ColorFloat
	Horizon      utils.ColorFloat
}

func readVirt(e *utils.BufStack) Virt {
	return Virt{
		Cloud:        rgba8(e, 0x10),
		CloudCenter:  rgba8(e, 0x14),
		Sky:          rgb8(e, 0x18),
		HorizonCloud: rgba8(e, 0x1B),
		Horizon:      rgb8(e, 0x1F),
	}
}

func (v Virt) Lerp(o Virt, t float32) Virt {
	return Virt{
		Cloud:        v.Cloud.Lerp(o.Cloud, t),
		CloudCenter:  v.CloudCenter.Lerp(o.CloudCenter, t),
		Sky:          v.Sky.Lerp(o.Sky, t),
		HorizonCloud: v.HorizonCloud.Lerp(o.HorizonCloud, t),
		Horizon:      v.Horizon.Lerp(o.Horizon, t),
	}
}

func (p Palette) Lerp(o Palette, t float32) Palette {
	r := Palette{
		ActorAmbient: p.ActorAmbient.Lerp(o.ActorAmbient, t),
		Fog:          p.Fog.Lerp(o.Fog, t),
		VirtIndex:    p.VirtIndex,
		FogStart:     p.FogStart + (o.FogStart-p.FogStart)*t,
		FogEnd:       p.FogEnd + (o.FogEnd-p.FogEnd)*t,
	}
	for i := range r.BGAmbient {
		r.BGAmbient[i] = p.BGAmbient[i].Lerp(o.BGAmbient[i], t)
		r.BGLight[i] = p.BGLight[i].Lerp(o.BGLight[i], t)
	}
	return r
}

// EnvLighting is palette blended for time of day
type EnvLighting struct {
	Palette
	Sky Virt
	// periods blended and their weight
	From, To int
	Blend    float32
}

// PeriodBlend returns periods surrounding hour and position between them
func PeriodBlend(timeOfDay float32) (from, to int, t float32) {
	h := float32(math.Mod(float64(timeOfDay), 24))
	if h < 0 {
		h += 24
	}
	from = PERIOD_NIGHT
	for i := PERIOD_COUNT - 1; i >= 0; i-- {
		if h >= PeriodHours[i] {
			from = i
			break
		}
	}
	to = (from + 1) % PERIOD_COUNT
	start, end := PeriodHours[from], PeriodHours[to]
	if end <= start {
		end += 24
	}
	if h < start {
		h += 24
	}
	return from, to, (h - start) / (end - start)
}

func (f *File) palette(i int) (Palette, error) {
	if i < 0 || i >= len(f.Palettes) {
		return Palette{}, errors.Errorf("Palette %d out of range (%d)", i, len(f.Palettes))
	}
	return f.Palettes[i], nil
}

func (f *File) sky(i int) Virt {
	if i < 0 || i >= len(f.Skies) {
		return Virt{}
	}
	return f.Skies[i]
}

// Environment blends palettes of clear weather for hour of day (0..24)
func (f *File) Environment(envIndex int, timeOfDay float32) (*EnvLighting, error) {
	if envIndex < 0 || envIndex >= len(f.Envs) {
		return nil, errors.Errorf("Environment %d out of range (%d)", envIndex, len(f.Envs))
	}
	coloIndex := f.Envs[envIndex].Colors[0]
	if coloIndex < 0 || coloIndex >= len(f.Colors) {
		return nil, errors.Errorf("Color table %d out of range (%d)", coloIndex, len(f.Colors))
	}
	colo := f.Colors[coloIndex]

	from, to, t := PeriodBlend(timeOfDay)
	a, err := f.palette(colo.Palettes[from])
	if err != nil {
		return nil, err
	}
	b, err := f.palette(colo.Palettes[to])
	if err != nil {
		return nil, err
	}
	return &EnvLighting{
		Palette: a.Lerp(b, t),
		Sky:     f.sky(a.VirtIndex).Lerp(f.sky(b.VirtIndex), t),
		From:    from,
		To:      to,
		Blend:   t,
	}, nil
}
