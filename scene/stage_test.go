package scene

import (
	"encoding/binary"
	"math"
	"net/url"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/retro_model_browser/pack/stage"
	"github.com/mogaika/retro_model_browser/render"
	"github.com/mogaika/retro_model_browser/utils"
)

type testOpener map[string]interface{}

func (o testOpener) Open(p string) (interface{}, utils.ResourceSource, error) {
	if inst, ok := o[p]; ok {
		return inst, nil, nil
	}
	return nil, nil, errors.Errorf("%q not found", p)
}

type testChunk struct {
	tag     string
	count   int
	payload []byte
}

func stageBlob(chunks ...testChunk) []byte {
	out := make([]byte, 4+len(chunks)*stage.CHUNK_HEADER_SIZE)
	binary.BigEndian.PutUint32(out, uint32(len(chunks)))
	for i, c := range chunks {
		h := 4 + i*stage.CHUNK_HEADER_SIZE
		copy(out[h:], c.tag)
		binary.BigEndian.PutUint32(out[h+4:], uint32(c.count))
		binary.BigEndian.PutUint32(out[h+8:], uint32(len(out)))
		out = append(out, c.payload...)
	}
	return out
}

func testActor(name string) []byte {
	e := make([]byte, stage.ACTOR_SIZE)
	copy(e, name)
	return e
}

func testPlacement(room byte, x float32) []byte {
	e := make([]byte, stage.MULT_SIZE)
	binary.BigEndian.PutUint32(e, math.Float32bits(x))
	e[0x0A] = room
	return e
}

func testPalette(level byte) []byte {
	e := make([]byte, stage.PALE_SIZE)
	for i := 0; i < 0x1E; i++ {
		e[i] = level
	}
	// fog
	e[0x1B], e[0x1C], e[0x1D] = 0, level, 0
	return e
}

func mustStageFile(t *testing.T, name string, data []byte) *stage.File {
	f, err := stage.NewFromData(name, data)
	require.NoError(t, err)
	return f
}

type testFactory struct {
	device    render.Device
	spawned   []string
	destroyed bool
}

func (f *testFactory) SpawnActor(device render.Device, a *stage.Actor) (Renderable, error) {
	if a.Name == "broken" {
		return nil, errors.New("broken actor")
	}
	if a.Name == "skipped" {
		return nil, nil
	}
	f.spawned = append(f.spawned, a.Name)
	return newQuadRenderable(device, render.PASS_OPAQUE), nil
}

func (f *testFactory) Destroy(device render.Device) { f.destroyed = true }

func testStageOpener(t *testing.T) testOpener {
	dzs := stageBlob(
		testChunk{"ACTR", 3, append(append(testActor("tree"), testActor("skipped")...), testActor("broken")...)},
		testChunk{"ACT2", 1, testActor("layer2")},
		testChunk{"MULT", 2, append(testPlacement(0, 100), testPlacement(5, 0)...)},
		testChunk{"Pale", 2, append(testPalette(0), testPalette(255)...)},
		testChunk{"Colo", 1, []byte{0, 0, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0}},
		testChunk{"EnvR", 1, make([]byte, stage.ENVR_SIZE)},
	)
	dzr := stageBlob(testChunk{"ACTR", 1, testActor("room")})
	return testOpener{
		"Stage/sea/Stage.arc/dzs/stage.dzs": mustStageFile(t, "stage.dzs", dzs),
		"Stage/sea/Room0.arc/dzr/room.dzr":  mustStageFile(t, "room.dzr", dzr),
		// wrong type is skipped like missing model
		"Stage/sea/Room0.arc/bdl/model.bdl": "not a model",
	}
}

func TestLoadStage(t *testing.T) {
	rec := render.NewRecorder()
	factory := &testFactory{}
	s, err := LoadStage(rec, testStageOpener(t), "Stage/sea/Stage.arc", factory, 0, 12)
	require.NoError(t, err)

	require.Len(t, s.Rooms, 1, "room 5 has no archive")
	assert.Equal(t, 0, s.Rooms[0].Index)
	assert.Equal(t, "Stage/sea/Room0.arc", s.Rooms[0].Path)
	assert.Equal(t, float32(100), s.Rooms[0].Matrix[12])
	assert.Equal(t, []string{"tree", "room"}, factory.spawned)
	assert.Len(t, s.Actors, 2)

	require.NotNil(t, s.Lighting)
	assert.Equal(t, stage.PERIOD_NOON, s.Lighting.From)
	assert.InDelta(t, 1, s.Lighting.ActorAmbient[0], 1e-6)
	assert.InDelta(t, 1, s.ClearColor([4]float32{})[1], 1e-6)

	v := NewViewer(rec)
	v.Add(s)
	v.RenderFrame(ParseRenderInput(url.Values{}, v.BBox(), 16, 16))
	draws := 0
	for _, p := range rec.TakeFrame().Passes {
		draws += len(p.Draws)
	}
	assert.Equal(t, 2, draws)

	v.Destroy()
	assert.True(t, factory.destroyed)
	assert.Empty(t, s.Actors)
}

func TestLoadStageLayer(t *testing.T) {
	factory := &testFactory{}
	_, err := LoadStage(render.NewRecorder(), testStageOpener(t), "Stage/sea/Stage.arc", factory, 2, 12)
	require.NoError(t, err)
	assert.Equal(t, []string{"tree", "layer2", "room"}, factory.spawned)
}

func TestLoadStageMissing(t *testing.T) {
	_, err := LoadStage(render.NewRecorder(), testOpener{}, "Stage/sea/Stage.arc", nil, 0, 12)
	assert.Error(t, err)
}

func TestStageLighting(t *testing.T) {
	s, err := LoadStage(render.NewRecorder(), testStageOpener(t), "Stage/sea/Stage.arc", nil, 0, 12)
	require.NoError(t, err)
	assert.Empty(t, s.Actors)

	room := &ModelInstance{}
	actor := &ModelInstance{}
	s.Rooms[0].Models[1] = room
	s.Actors = append(s.Actors, actor)

	// dawn palette 0 is black
	require.NoError(t, s.SetTimeOfDay(6))
	require.NotNil(t, room.AmbientOverride)
	assert.Equal(t, s.Lighting.BGAmbient[1], *room.AmbientOverride)
	assert.Equal(t, utils.ColorFloat{0, 0, 0, 1}, *room.MatColorOverride)
	assert.Equal(t, utils.ColorFloat{0, 0, 0, 1}, *actor.AmbientOverride)

	require.NoError(t, s.SetTimeOfDay(12))
	assert.Equal(t, utils.ColorFloat{1, 1, 1, 1}, *actor.AmbientOverride)

	s.EnvIndex = 3
	assert.Error(t, s.SetTimeOfDay(12))
}
