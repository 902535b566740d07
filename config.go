package envprobe

import (
	"errors"
	"fmt"
	"os"

	"github.com/gekko3d/envprobe/envrt/rt/mode"
	"github.com/gekko3d/envprobe/envrt/rt/probe"
	"github.com/pelletier/go-toml/v2"
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Reflections ReflectionConfig `toml:"reflections"`
}

type ReflectionConfig struct {
	ReflectionType      mode.Mode `toml:"reflectionType"`
	EnvMapSize          int       `toml:"envMapSize"`
	ReflectionInterval  int       `toml:"reflectionInterval"`
	ProbeInterval       int       `toml:"probeInterval"`
	LogReflectiveMeshes bool      `toml:"logReflectiveMeshes"`
	// Seed staggers new probes; 0 seeds from the clock.
	Seed    uint64 `toml:"seed"`
	Backend string `toml:"backend"`
}

func DefaultConfig() Config {
	return Config{Reflections: ReflectionConfig{
		ReflectionType:     mode.Dynamic,
		EnvMapSize:         probe.DefaultEnvMapSize,
		ReflectionInterval: probe.DefaultGlobalInterval,
		ProbeInterval:      1,
		Backend:            "vulkan",
	}}
}

// ParseConfig decodes a TOML document over the defaults; keys not present keep
// their default value.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	r := c.Reflections
	switch {
	case r.EnvMapSize <= 0 || r.EnvMapSize&(r.EnvMapSize-1) != 0:
		return fmt.Errorf("%w: envMapSize %d is not a positive power of two", ErrInvalidConfig, r.EnvMapSize)
	case r.ReflectionInterval < 1:
		return fmt.Errorf("%w: reflectionInterval %d < 1", ErrInvalidConfig, r.ReflectionInterval)
	case r.ProbeInterval < 1:
		return fmt.Errorf("%w: probeInterval %d < 1", ErrInvalidConfig, r.ProbeInterval)
	}
	return nil
}

func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
