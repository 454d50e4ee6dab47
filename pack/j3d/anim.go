package j3d

import (
	"math"

	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/utils"
)

const (
	LOOP_ONCE            = 0
	LOOP_ONCE_RESET      = 1
	LOOP_REPEAT          = 2
	LOOP_MIRRORED_ONCE   = 3
	LOOP_MIRRORED_REPEAT = 4
)

var LoopModeNames = map[uint8]string{
	LOOP_ONCE:            "once",
	LOOP_ONCE_RESET:      "once-reset",
	LOOP_REPEAT:          "repeat",
	LOOP_MIRRORED_ONCE:   "mirrored-once",
	LOOP_MIRRORED_REPEAT: "mirrored-repeat",
}

const (
	TANGENT_SHARED = 0
	TANGENT_SPLIT  = 1
)

type Key struct {
	Time       float32
	Value      float32
	TangentIn  float32
	TangentOut float32
}

type Track struct {
	Keys []Key
}

func hermite(p0, p1, s0, s1, t float32) float32 {
	t2 := t * t
	t3 := t2 * t
	return p0*(2*t3-3*t2+1) + p1*(-2*t3+3*t2) + s0*(t3-2*t2+t) + s1*(t3-t2)
}

// Sample interpolates track at frame, clamping outside key range
func (t *Track) Sample(frame float32) float32 {
	switch len(t.Keys) {
	case 0:
		return 0
	case 1:
		return t.Keys[0].Value
	}
	if frame <= t.Keys[0].Time {
		return t.Keys[0].Value
	}
	last := &t.Keys[len(t.Keys)-1]
	if frame >= last.Time {
		return last.Value
	}
	i := 1
	for i < len(t.Keys)-1 && t.Keys[i].Time <= frame {
		i++
	}
	k0, k1 := &t.Keys[i-1], &t.Keys[i]
	length := k1.Time - k0.Time
	if length <= 0 {
		return k1.Value
	}
	return hermite(k0.Value, k1.Value, k0.TangentOut*length, k1.TangentIn*length, (frame-k0.Time)/length)
}

// LoopFrame maps absolute frame into animation time according to loop mode
func LoopFrame(mode uint8, duration, frame float32) float32 {
	if duration <= 0 {
		return 0
	}
	switch mode {
	case LOOP_ONCE:
		return utils.Clamp(frame, 0, duration)
	case LOOP_ONCE_RESET:
		if frame >= duration || frame < 0 {
			return 0
		}
		return frame
	case LOOP_REPEAT:
		f := float32(math.Mod(float64(frame), float64(duration)))
		if f < 0 {
			f += duration
		}
		return f
	case LOOP_MIRRORED_ONCE:
		f := utils.Clamp(frame, 0, 2*duration)
		if f > duration {
			f = 2*duration - f
		}
		return f
	case LOOP_MIRRORED_REPEAT:
		f := float32(math.Mod(float64(frame), float64(2*duration)))
		if f < 0 {
			f += 2 * duration
		}
		if f > duration {
			f = 2*duration - f
		}
		return f
	}
	return utils.Clamp(frame, 0, duration)
}

// AnimationInfo is common header of all J3D animations
type AnimationInfo struct {
	LoopMode uint8
	Duration uint16
}

func (ai *AnimationInfo) Frame(frame float32) float32 {
	return LoopFrame(ai.LoopMode, float32(ai.Duration), frame)
}

// valueTable reads f32 or s16 values scaled to float
type valueTable func(i int) float32

func f32Table(bs *utils.BufStack, off int, scale float32) valueTable {
	return func(i int) float32 { return bs.F32(off+i*4) * scale }
}

// readTrack reads (count, index, tangent type) triplet at off
func readTrack(bs *utils.BufStack, off int, values valueTable) Track {
	count := int(bs.U16(off))
	index := int(bs.U16(off + 2))
	tangent := bs.U16(off + 4)

	if count <= 1 {
		return Track{Keys: []Key{{Value: values(index)}}}
	}
	stride := 3
	if tangent == TANGENT_SPLIT {
		stride = 4
	}
	t := Track{Keys: make([]Key, count)}
	for i := range t.Keys {
		base := index + i*stride
		k := Key{
			Time:      values(base),
			Value:     values(base + 1),
			TangentIn: values(base + 2),
		}
		k.TangentOut = k.TangentIn
		if stride == 4 {
			k.TangentOut = values(base + 3)
		}
		t.Keys[i] = k
	}
	return t
}

func readTrackS16(bs *utils.BufStack, off, tableOff int, scale float32) Track {
	count := int(bs.U16(off))
	index := int(bs.U16(off + 2))
	tangent := bs.U16(off + 4)
	// time is stored unscaled
	raw := func(i int) float32 { return float32(bs.S16(tableOff + i*2)) }
	if count <= 1 {
		return Track{Keys: []Key{{Value: raw(index) * scale}}}
	}
	stride := 3
	if tangent == TANGENT_SPLIT {
		stride = 4
	}
	t := Track{Keys: make([]Key, count)}
	for i := range t.Keys {
		base := index + i*stride
		k := Key{
			Time:      raw(base),
			Value:     raw(base+1) * scale,
			TangentIn: raw(base+2) * scale,
		}
		k.TangentOut = k.TangentIn
		if stride == 4 {
			k.TangentOut = raw(base+3) * scale
		}
		t.Keys[i] = k
	}
	return t
}

func checkAnimation(bs *utils.BufStack, what string) error {
	return errors.Wrapf(bs.Err(), "%s", what)
}
