// Package config holds the runtime configuration of the arena.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	World      WorldConfig      `toml:"world" yaml:"world"`
	Simulation SimulationConfig `toml:"simulation" yaml:"simulation"`
	Logging    LoggingConfig    `toml:"logging" yaml:"logging"`
	Feed       FeedConfig       `toml:"feed" yaml:"feed"`
}

type WorldConfig struct {
	Width  int `toml:"width" yaml:"width"`
	Height int `toml:"height" yaml:"height"`
	Grid   int `toml:"grid" yaml:"grid"` // cells per side when rendering
}

type SimulationConfig struct {
	Duration       time.Duration `toml:"duration" yaml:"duration"`
	MoveInterval   time.Duration `toml:"move_interval" yaml:"move_interval"`
	FightInterval  time.Duration `toml:"fight_interval" yaml:"fight_interval"`
	RenderInterval time.Duration `toml:"render_interval" yaml:"render_interval"`
	Seed           int64         `toml:"seed" yaml:"seed"` // 0 = time-derived
	RandomNPCs     int           `toml:"random_npcs" yaml:"random_npcs"`
	EventsPerTick  int           `toml:"events_per_tick" yaml:"events_per_tick"`
}

type LoggingConfig struct {
	Level       string   `toml:"level" yaml:"level"`
	Development bool     `toml:"development" yaml:"development"`
	Output      []string `toml:"output" yaml:"output"`
}

type FeedConfig struct {
	Listen string `toml:"listen" yaml:"listen"` // empty disables the websocket feed
	Buffer int    `toml:"buffer" yaml:"buffer"` // per-client outbox size
}

// Default returns the stock arena run: a 100x100 world for 30 seconds.
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Width:  100,
			Height: 100,
			Grid:   20,
		},
		Simulation: SimulationConfig{
			Duration:       30 * time.Second,
			MoveInterval:   10 * time.Millisecond,
			FightInterval:  100 * time.Millisecond,
			RenderInterval: time.Second,
			RandomNPCs:     50,
			EventsPerTick:  1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stderr"},
		},
		Feed: FeedConfig{
			Buffer: 64,
		},
	}
}

// Load reads path over the defaults. TOML is assumed unless the file ends
// in .yaml or .yml. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	positive := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	positiveDur := func(name string, v time.Duration) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, v))
		}
	}

	positive("world.width", c.World.Width)
	positive("world.height", c.World.Height)
	positive("world.grid", c.World.Grid)
	if c.World.Grid > 0 && c.World.Width > 0 && c.World.Height > 0 &&
		(c.World.Width%c.World.Grid != 0 || c.World.Height%c.World.Grid != 0) {
		errs = append(errs, fmt.Errorf("world.grid %d must divide the world size %dx%d",
			c.World.Grid, c.World.Width, c.World.Height))
	}

	positiveDur("simulation.duration", c.Simulation.Duration)
	positiveDur("simulation.move_interval", c.Simulation.MoveInterval)
	positiveDur("simulation.fight_interval", c.Simulation.FightInterval)
	positiveDur("simulation.render_interval", c.Simulation.RenderInterval)
	positive("simulation.events_per_tick", c.Simulation.EventsPerTick)
	if c.Simulation.RandomNPCs < 0 {
		errs = append(errs, fmt.Errorf("simulation.random_npcs must not be negative, got %d", c.Simulation.RandomNPCs))
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	positive("feed.buffer", c.Feed.Buffer)

	return errors.Join(errs...)
}
