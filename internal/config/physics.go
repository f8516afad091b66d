package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/playmatatu/pooltable/internal/game"
)

// physicsFile is the on-disk layout of the physics config.
type physicsFile struct {
	Version string      `yaml:"version"`
	Physics game.Params `yaml:"physics"`
}

// LoadParams reads a YAML physics file over game.DefaultParams. Keys missing from
// the file keep their defaults; a missing file yields the defaults unchanged.
// PHYSICS_* environment variables override the file.
func LoadParams(path string) (game.Params, error) {
	file := physicsFile{Physics: game.DefaultParams()}

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return game.Params{}, fmt.Errorf("read physics config: %w", err)
		default:
			if err := yaml.Unmarshal(b, &file); err != nil {
				return game.Params{}, fmt.Errorf("parse physics config %s: %w", path, err)
			}
		}
	}

	p := applyEnvOverrides(file.Physics)
	if err := p.Validate(); err != nil {
		return game.Params{}, err
	}
	return p, nil
}

func applyEnvOverrides(p game.Params) game.Params {
	p.FrictionModel = game.FrictionModel(getEnv("PHYSICS_FRICTION_MODEL", string(p.FrictionModel)))
	p.Friction = getEnvFloat("PHYSICS_FRICTION", p.Friction)
	p.Damping = getEnvFloat("PHYSICS_DAMPING", p.Damping)
	p.BreakSpeedMin = getEnvFloat("PHYSICS_BREAK_SPEED_MIN", p.BreakSpeedMin)
	p.BreakSpeedMax = getEnvFloat("PHYSICS_BREAK_SPEED_MAX", p.BreakSpeedMax)
	return p
}

// MarshalParams renders p in the physics file layout, e.g. for -dump-config.
func MarshalParams(p game.Params) ([]byte, error) {
	return yaml.Marshal(physicsFile{Version: "1", Physics: p})
}

// RandomSource returns a reproducible source when RANDOM_SEED is set and a
// clock-seeded one otherwise.
func (c *Config) RandomSource() game.RandomSource {
	if c.RandomSeed != 0 {
		return game.NewSeededRNG(uint64(c.RandomSeed))
	}
	return game.DefaultRNG()
}
