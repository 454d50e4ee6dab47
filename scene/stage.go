package scene

import (
	"fmt"
	"log"
	"path"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/pack/j3d"
	"github.com/mogaika/retro_model_browser/pack/stage"
	"github.com/mogaika/retro_model_browser/render"
	"github.com/mogaika/retro_model_browser/utils"
)

// Opener resolves slash separated paths through directories and archives
type Opener interface {
	Open(p string) (interface{}, utils.ResourceSource, error)
}

// ActorFactory spawns renderable for actor placement.
// Nil renderable without error means actor is not drawn.
type ActorFactory interface {
	SpawnActor(device render.Device, a *stage.Actor) (Renderable, error)
}

func openModel(o Opener, p string) (*j3d.Model, error) {
	inst, _, err := o.Open(p)
	if err != nil {
		return nil, err
	}
	m, ok := inst.(*j3d.Model)
	if !ok {
		return nil, errors.Errorf("%q is %T, not a model", p, inst)
	}
	return m, nil
}

func openStageFile(o Opener, p string) (*stage.File, error) {
	inst, _, err := o.Open(p)
	if err != nil {
		return nil, err
	}
	f, ok := inst.(*stage.File)
	if !ok {
		return nil, errors.Errorf("%q is %T, not a stage file", p, inst)
	}
	return f, nil
}

// TableActorFactory spawns j3d models by actor name, instances share model data
type TableActorFactory struct {
	Opener Opener
	Table  map[string]string

	models map[string]*ModelData
}

func NewTableActorFactory(o Opener, table map[string]string) *TableActorFactory {
	return &TableActorFactory{Opener: o, Table: table, models: make(map[string]*ModelData)}
}

func (f *TableActorFactory) SpawnActor(device render.Device, a *stage.Actor) (Renderable, error) {
	p, ok := f.Table[a.Name]
	if !ok {
		return nil, nil
	}
	md, ok := f.models[p]
	if !ok {
		m, err := openModel(f.Opener, p)
		if err != nil {
			return nil, errors.Wrapf(err, "Actor %q", a.Name)
		}
		if md, err = NewModelData(device, m); err != nil {
			return nil, errors.Wrapf(err, "Actor %q", a.Name)
		}
		f.models[p] = md
	}
	mi := NewModelInstance(md)
	mi.ModelMatrix = a.Matrix()
	return mi, nil
}

func (f *TableActorFactory) Destroy(device render.Device) {
	for _, md := range f.models {
		md.Destroy(device)
	}
	f.models = make(map[string]*ModelData)
}

// room archive holds up to four models lit by matching background palette slot
var roomModelNames = []string{"model", "model1", "model2", "model3"}

const (
	SKY_VR_SKY       = "vr_sky"
	SKY_VR_USO_KUMO  = "vr_uso_kumo"
	SKY_VR_KASUMI    = "vr_kasumi_mae"
	SKY_VR_BACKCLOUD = "vr_back_cloud"
)

var skyModelNames = []string{SKY_VR_SKY, SKY_VR_USO_KUMO, SKY_VR_KASUMI, SKY_VR_BACKCLOUD}

type StageRoom struct {
	Index  int
	Path   string
	File   *stage.File
	Matrix mgl32.Mat4
	// index is background palette slot
	Models [4]*ModelInstance
}

type skyModel struct {
	name string
	mi   *ModelInstance
}

// Stage is loaded stage archive with placed rooms, actors and sky
type Stage struct {
	Path  string
	File  *stage.File
	Rooms []*StageRoom
	// stage actors followed by room actors
	Actors    []Renderable
	Layer     int
	EnvIndex  int
	TimeOfDay float32
	Lighting  *stage.EnvLighting

	sky     []skyModel
	factory ActorFactory
}

func roomArchivePath(stagePath string, room int) string {
	return path.Join(path.Dir(stagePath), fmt.Sprintf("Room%d.arc", room))
}

// LoadStage opens stage archive and room archives next to it.
// Missing rooms and models are logged and skipped.
func LoadStage(device render.Device, o Opener, stagePath string, factory ActorFactory, layer int, timeOfDay float32) (*Stage, error) {
	f, err := openStageFile(o, path.Join(stagePath, "dzs", "stage.dzs"))
	if err != nil {
		return nil, errors.Wrapf(err, "Stage %q", stagePath)
	}
	s := &Stage{
		Path:      stagePath,
		File:      f,
		Layer:     layer,
		TimeOfDay: timeOfDay,
		factory:   factory,
	}

	placements := f.Rooms
	if len(placements) == 0 {
		placements = []stage.RoomPlacement{{Room: 0}}
	}
	for _, rp := range placements {
		room := s.loadRoom(device, o, rp)
		if room != nil {
			s.Rooms = append(s.Rooms, room)
		}
	}

	for _, name := range skyModelNames {
		m, err := openModel(o, path.Join(stagePath, "bdl", name+".bdl"))
		if err != nil {
			continue
		}
		mi, err := NewModelView(device, m)
		if err != nil {
			log.Printf("[stage] Sky %q: %v", name, err)
			continue
		}
		mi.Skybox = true
		s.sky = append(s.sky, skyModel{name: name, mi: mi})
	}

	s.spawnActors(device, f)
	for _, room := range s.Rooms {
		if room.File != nil {
			s.spawnActors(device, room.File)
		}
	}

	if err := s.SetTimeOfDay(timeOfDay); err != nil {
		log.Printf("[stage] %q lighting: %v", stagePath, err)
	}
	log.Printf("[stage] Loaded %q: %d rooms, %d actors, %d sky models", stagePath, len(s.Rooms), len(s.Actors), len(s.sky))
	return s, nil
}

func (s *Stage) loadRoom(device render.Device, o Opener, rp stage.RoomPlacement) *StageRoom {
	room := &StageRoom{
		Index:  rp.Room,
		Path:   roomArchivePath(s.Path, rp.Room),
		Matrix: rp.Matrix(),
	}
	if f, err := openStageFile(o, path.Join(room.Path, "dzr", "room.dzr")); err == nil {
		room.File = f
	} else {
		log.Printf("[stage] Room %d has no scene file: %v", rp.Room, err)
	}

	loaded := 0
	for i, name := range roomModelNames {
		m, err := openModel(o, path.Join(room.Path, "bdl", name+".bdl"))
		if err != nil {
			continue
		}
		mi, err := NewModelView(device, m)
		if err != nil {
			log.Printf("[stage] Room %d model %q: %v", rp.Room, name, err)
			continue
		}
		mi.ModelMatrix = room.Matrix
		room.Models[i] = mi
		loaded++
	}
	if loaded == 0 && room.File == nil {
		return nil
	}
	return room
}

func (s *Stage) spawnActors(device render.Device, f *stage.File) {
	if s.factory == nil {
		return
	}
	for _, a := range f.LayerActors(s.Layer) {
		r, err := s.factory.SpawnActor(device, a)
		if err != nil {
			log.Printf("[stage] %s: %v", f.Name, err)
			continue
		}
		if r != nil {
			s.Actors = append(s.Actors, r)
		}
	}
}

// SetTimeOfDay recomputes environment lighting and applies it to models
func (s *Stage) SetTimeOfDay(timeOfDay float32) error {
	s.TimeOfDay = timeOfDay
	if len(s.File.Envs) == 0 {
		s.Lighting = nil
		return nil
	}
	env, err := s.File.Environment(s.EnvIndex, timeOfDay)
	if err != nil {
		return err
	}
	s.Lighting = env
	s.applyLighting()
	return nil
}

func (s *Stage) applyLighting() {
	env := s.Lighting
	for _, room := range s.Rooms {
		for i, mi := range room.Models {
			if mi == nil {
				continue
			}
			amb, light := env.BGAmbient[i], env.BGLight[i]
			mi.AmbientOverride = &amb
			mi.MatColorOverride = &light
		}
	}
	for _, r := range s.Actors {
		if mi, ok := r.(*ModelInstance); ok {
			amb := env.ActorAmbient
			mi.AmbientOverride = &amb
		}
	}
	for _, sm := range s.sky {
		var c utils.ColorFloat
		switch sm.name {
		case SKY_VR_SKY:
			c = env.Sky.Sky
		case SKY_VR_USO_KUMO:
			c = env.Sky.Cloud
		case SKY_VR_KASUMI:
			c = env.Sky.Horizon
		case SKY_VR_BACKCLOUD:
			c = env.Sky.HorizonCloud
		}
		sm.mi.MatColorOverride = &c
	}
}

// ClearColor is fog color of current lighting
func (s *Stage) ClearColor(def [4]float32) [4]float32 {
	if s.Lighting == nil {
		return def
	}
	fog := s.Lighting.Fog
	return [4]float32{fog[0], fog[1], fog[2], 1}
}

func (s *Stage) PrepareToRender(device render.Device, m *render.RenderInstManager, in *ViewerRenderInput) {
	for _, sm := range s.sky {
		sm.mi.PrepareToRender(device, m, in)
	}
	for _, room := range s.Rooms {
		for _, mi := range room.Models {
			if mi != nil {
				mi.PrepareToRender(device, m, in)
			}
		}
	}
	for _, a := range s.Actors {
		a.PrepareToRender(device, m, in)
	}
}

// BBox covers rooms and actors, sky follows camera and is skipped
func (s *Stage) BBox() utils.AABB {
	box := utils.EmptyAABB()
	for _, room := range s.Rooms {
		for _, mi := range room.Models {
			if mi != nil {
				box.Union(mi.BBox())
			}
		}
	}
	for _, a := range s.Actors {
		box.Union(a.BBox())
	}
	return box
}

func (s *Stage) Destroy(device render.Device) {
	for _, sm := range s.sky {
		sm.mi.Destroy(device)
	}
	for _, room := range s.Rooms {
		for _, mi := range room.Models {
			if mi != nil {
				mi.Destroy(device)
			}
		}
	}
	for _, a := range s.Actors {
		a.Destroy(device)
	}
	if d, ok := s.factory.(interface{ Destroy(render.Device) }); ok {
		d.Destroy(device)
	}
	s.sky, s.Rooms, s.Actors = nil, nil, nil
}
