package config

import (
	"strings"

	"github.com/pkg/errors"
)

type Game int

const (
	GameAuto Game = iota
	GameWindWaker
	GameSunshine
	GameBanjo
)

var gameNames = map[Game]string{
	GameAuto:      "auto",
	GameWindWaker: "windwaker",
	GameSunshine:  "sunshine",
	GameBanjo:     "banjo",
}

func (g Game) String() string {
	if s, ok := gameNames[g]; ok {
		return s
	}
	return "unknown"
}

// N64 games store geometry as F3DEX display lists instead of J3D
func (g Game) IsN64() bool {
	return g == GameBanjo
}

func ParseGame(s string) (Game, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return GameAuto, nil
	}
	for g, name := range gameNames {
		if name == s {
			return g, nil
		}
	}
	return GameAuto, errors.Errorf("unknown game %q", s)
}

var currentGame Game

func GetGame() Game {
	return currentGame
}

func SetGame(g Game) {
	currentGame = g
}
