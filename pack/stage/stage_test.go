package stage

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chunkBuilder struct {
	tag     string
	count   int
	payload []byte
}

type blob []byte

func (b blob) u16(off int, v uint16) { binary.BigEndian.PutUint16(b[off:], v) }
func (b blob) u32(off int, v uint32) { binary.BigEndian.PutUint32(b[off:], v) }
func (b blob) f32(off int, v float32) {
	binary.BigEndian.PutUint32(b[off:], math.Float32bits(v))
}

// buildStage lays chunk payloads after headers, payload offsets inside
// RTBL entries are relative to payload start and fixed here
func buildStage(chunks []chunkBuilder) []byte {
	off := 4 + len(chunks)*CHUNK_HEADER_SIZE
	out := make(blob, off)
	out.u32(0, uint32(len(chunks)))
	for i, c := range chunks {
		h := 4 + i*CHUNK_HEADER_SIZE
		copy(out[h:], c.tag)
		out.u32(h+4, uint32(c.count))
		out.u32(h+8, uint32(len(out)))
		payload := append(blob(nil), c.payload...)
		if c.tag == "RTBL" {
			base := uint32(len(out))
			for e := 0; e < c.count; e++ {
				payload.u32(e*4, binary.BigEndian.Uint32(payload[e*4:])+base)
				entry := int(binary.BigEndian.Uint32(payload[e*4:]) - base)
				payload.u32(entry+4, binary.BigEndian.Uint32(payload[entry+4:])+base)
			}
		}
		out = append(out, payload...)
	}
	return out
}

func actorEntry(name string, size int, pos mgl32.Vec3, rotY int16, scale byte) []byte {
	e := make(blob, size)
	copy(e, name)
	e.u32(0x08, 0xDEADBEEF)
	e.f32(0x0C, pos[0])
	e.f32(0x10, pos[1])
	e.f32(0x14, pos[2])
	e.u16(0x1A, uint16(rotY))
	e.u16(0x1E, 0xFFFF)
	if size == SCALED_ACTOR_SIZE {
		e[0x20], e[0x21], e[0x22] = scale, scale, scale
	}
	return e
}

func paleEntry(level byte, virt byte) []byte {
	e := make(blob, PALE_SIZE)
	for i := 0; i < 0x1E; i++ {
		e[i] = level
	}
	e[0x1E] = virt
	e.f32(0x20, float32(level))
	e.f32(0x24, float32(level)*10)
	return e
}

func testStage() []byte {
	mult := make(blob, MULT_SIZE)
	mult.f32(0, 100)
	mult.f32(4, -200)
	mult.u16(8, 0x4000)
	mult[0x0A] = 3

	colo := make(blob, COLO_SIZE)
	colo[PERIOD_NOON] = 1
	colo[PERIOD_AFTERNOON] = 0

	virt := make(blob, VIRT_SIZE)
	copy(virt[0x18:], []byte{0, 0, 255})

	// table: entry offset, header at 4 (count, reverb, pad, list offset), list at 0x0C
	rtbl := make(blob, 0x10)
	rtbl.u32(0, 4)
	rtbl[4], rtbl[5] = 2, 7
	rtbl.u32(8, 0x0C)
	rtbl[0x0C], rtbl[0x0D] = 0x41, 0x02

	return buildStage([]chunkBuilder{
		{"ACTR", 1, actorEntry("Bitem", ACTOR_SIZE, mgl32.Vec3{1, 2, 3}, 0x4000, 0)},
		{"ACT1", 1, actorEntry("kamome", ACTOR_SIZE, mgl32.Vec3{}, 0, 0)},
		{"SCOB", 1, actorEntry("kytag", SCALED_ACTOR_SIZE, mgl32.Vec3{}, 0, 20)},
		{"MULT", 1, mult},
		{"Pale", 2, append(paleEntry(0, 0), paleEntry(255, 0)...)},
		{"Colo", 1, colo},
		{"EnvR", 1, make([]byte, ENVR_SIZE)},
		{"Virt", 1, virt},
		{"RTBL", 1, rtbl},
		{"FILI", 1, []byte{1, 2, 3, 4}},
	})
}

func TestChunkKind(t *testing.T) {
	for _, test := range []struct {
		tag   string
		kind  string
		layer int
	}{
		{"ACTR", "ACTR", NO_LAYER},
		{"ACT0", "ACTR", 0},
		{"ACT9", "ACTR", 9},
		{"ACTb", "ACTR", 11},
		{"SCO3", "SCOB", 3},
		{"TREa", "TRES", 10},
		{"ACTz", "ACTz", NO_LAYER},
		{"Pale", "Pale", NO_LAYER},
	} {
		kind, layer := ChunkKind(test.tag)
		if kind != test.kind || layer != test.layer {
			t.Errorf("ChunkKind(%q)=%q,%d; expected %q,%d", test.tag, kind, layer, test.kind, test.layer)
		}
	}
}

func TestNewFromData(t *testing.T) {
	f, err := NewFromData("stage.dzs", testStage())
	require.NoError(t, err)
	require.Len(t, f.Chunks, 10)

	require.Len(t, f.Actors, 3)
	a := f.Actors[0]
	assert.Equal(t, "Bitem", a.Name)
	assert.Equal(t, NO_LAYER, a.Layer)
	assert.Equal(t, uint32(0xDEADBEEF), a.Params)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, a.Position)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, a.Scale)
	assert.Equal(t, 1, f.Actors[1].Layer)
	assert.Equal(t, "SCOB", f.Actors[2].Kind)
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, f.Actors[2].Scale)

	assert.Len(t, f.LayerActors(1), 3)
	assert.Len(t, f.LayerActors(0), 2)

	require.Len(t, f.Rooms, 1)
	assert.Equal(t, 3, f.Rooms[0].Room)
	m := f.Rooms[0].Matrix()
	assert.Equal(t, float32(100), m[12])
	assert.Equal(t, float32(-200), m[14])
	p := m.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 100, p[0], 1e-4)
	assert.InDelta(t, -201, p[2], 1e-4)

	require.Len(t, f.Palettes, 2)
	assert.Equal(t, float32(2550), f.Palettes[1].FogEnd)
	require.Len(t, f.RoomTables, 1)
	assert.Equal(t, uint8(7), f.RoomTables[0].Reverb)
	assert.Equal(t, []int{1, 2}, f.RoomTables[0].Visible)

	require.Len(t, f.Unknown, 1)
	assert.Equal(t, []byte{1, 2, 3, 4}, f.Unknown[0].Data)
	assert.NotNil(t, f.Chunk("FILI"))
	assert.Nil(t, f.Chunk("STAG"))
}

func TestActorMatrix(t *testing.T) {
	a := &Actor{Position: mgl32.Vec3{10, 0, 0}, Rotation: [3]int16{0, 0x4000, 0}, Scale: mgl32.Vec3{2, 2, 2}}
	p := a.Matrix().Mul4x1(mgl32.Vec4{0, 0, 1, 1})
	assert.InDelta(t, 12, p[0], 1e-4)
	assert.InDelta(t, 0, p[2], 1e-4)
}

func TestNewFromDataErrors(t *testing.T) {
	_, err := NewFromData("short", []byte{0, 0})
	assert.Error(t, err)

	_, err = NewFromData("count", []byte{0, 0, 0, 9})
	assert.Error(t, err)

	raw := testStage()
	binary.BigEndian.PutUint32(raw[4+4:], 1000)
	_, err = NewFromData("entries", raw)
	assert.Error(t, err)
}

func TestPeriodBlend(t *testing.T) {
	from, to, blend := PeriodBlend(13.5)
	assert.Equal(t, PERIOD_NOON, from)
	assert.Equal(t, PERIOD_AFTERNOON, to)
	assert.InDelta(t, 0.5, blend, 1e-6)

	from, to, blend = PeriodBlend(3)
	assert.Equal(t, PERIOD_NIGHT, from)
	assert.Equal(t, PERIOD_DAWN, to)
	assert.InDelta(t, 6.0/9, blend, 1e-6)

	from, _, _ = PeriodBlend(-1)
	assert.Equal(t, PERIOD_NIGHT, from)
}

func TestEnvironment(t *testing.T) {
	f, err := NewFromData("stage.dzs", testStage())
	require.NoError(t, err)

	env, err := f.Environment(0, 12)
	require.NoError(t, err)
	assert.InDelta(t, 1, env.ActorAmbient[0], 1e-6)
	assert.InDelta(t, 1, env.Sky.Sky[2], 1e-6)

	// noon palette 1 towards afternoon palette 0
	env, err = f.Environment(0, 13.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, env.BGLight[2][1], 1e-3)
	assert.InDelta(t, 127.5, env.FogStart, 1e-3)

	_, err = f.Environment(5, 12)
	assert.Error(t, err)
}
