package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brensch/snekarcade/game"
)

// fileConfig is the optional YAML config. Every field is a default: flags
// and environment variables win over it.
//
//	ledger: snake_stats.json
//	replay_dir: replays
//	listen: 127.0.0.1:8080
//	log_file: snek.log
//	log_level: debug
//	round:
//	  player: ada
//	  difficulty: HARD
//	  mode: TIME
//	  barrier: RANDOM
//	  color_change: true
//	  grid: 24
type fileConfig struct {
	Ledger    string `yaml:"ledger"`
	ReplayDir string `yaml:"replay_dir"`
	Listen    string `yaml:"listen"`
	LogFile   string `yaml:"log_file"`
	LogLevel  string `yaml:"log_level"`
	Round     struct {
		Player      string           `yaml:"player"`
		Difficulty  game.Difficulty  `yaml:"difficulty"`
		Mode        game.GameMode    `yaml:"mode"`
		Barrier     game.BarrierMode `yaml:"barrier"`
		ColorChange bool             `yaml:"color_change"`
		Grid        int32            `yaml:"grid"`
	} `yaml:"round"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fc, fmt.Errorf("config file %s does not exist", path)
		}
		return fc, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("decode config %s: %w", path, err)
	}
	return fc, nil
}

// settings is the resolved configuration of one run.
type settings struct {
	Ledger    string
	ReplayDir string
	Listen    string
	LogFile   string
	LogLevel  string
	Grid      int
	Seed      int64
	Export    string
	Round     game.RoundConfig
}

// applyFile fills every setting that was neither passed as a flag nor set in
// the environment. pinned holds the flag names that were.
func (s *settings) applyFile(fc fileConfig, pinned map[string]bool) {
	str := func(name string, dst *string, v string) {
		if !pinned[name] && v != "" {
			*dst = v
		}
	}
	str("ledger", &s.Ledger, fc.Ledger)
	str("replay-dir", &s.ReplayDir, fc.ReplayDir)
	str("listen", &s.Listen, fc.Listen)
	str("log-file", &s.LogFile, fc.LogFile)
	str("log-level", &s.LogLevel, fc.LogLevel)
	if !pinned["grid"] && fc.Round.Grid != 0 {
		s.Grid = int(fc.Round.Grid)
	}

	s.Round.PlayerName = fc.Round.Player
	s.Round.Difficulty = fc.Round.Difficulty
	s.Round.Mode = fc.Round.Mode
	s.Round.Barrier = fc.Round.Barrier
	s.Round.ColorChange = fc.Round.ColorChange
}

// Environment variable helpers
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
