package utils

import (
	"math/rand"

	"github.com/Pallinder/go-randomdata"
)

// RandomNameGenerator gives stable unique names to unnamed meshes,
// so exporting same model twice yields same node names
type RandomNameGenerator struct {
	seed  int64
	used  map[string]struct{}
	ready bool
}

func NewRandomNameGenerator(seed int64) *RandomNameGenerator {
	return &RandomNameGenerator{seed: seed}
}

func (rng *RandomNameGenerator) RandomName() string {
	if !rng.ready {
		rng.used = make(map[string]struct{})
		randomdata.CustomRand(rand.New(rand.NewSource(rng.seed)))
		rng.ready = true
	}
	for {
		name := randomdata.SillyName()
		if _, exists := rng.used[name]; !exists {
			rng.used[name] = struct{}{}
			return name
		}
	}
}
