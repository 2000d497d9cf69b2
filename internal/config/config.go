// Package config loads the per-project configuration file
// (xeval.toml), discovered by walking up from the working directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the project config file looked for at each directory
// level.
const FileName = "xeval.toml"

// DefaultGlob matches eval spec files relative to the project root.
const DefaultGlob = "./evals/**/*.yaml"

// ErrNotFound means no config file exists between the start directory
// and the filesystem root.
var ErrNotFound = errors.New("no " + FileName + " found")

// Config is the parsed project configuration.
type Config struct {
	Evals  EvalsConfig  `toml:"evals"`
	OpenAI OpenAIConfig `toml:"openai"`
}

type EvalsConfig struct {
	// Glob locates spec files relative to the project root.
	Glob string `toml:"glob"`
}

type OpenAIConfig struct {
	// Project optionally scopes every API request to an organization
	// project.
	Project string `toml:"project"`
}

// Default returns the configuration used when a field is unset.
func Default() Config {
	return Config{
		Evals: EvalsConfig{Glob: DefaultGlob},
	}
}

// Find walks up from start looking for the config file. It returns the
// parsed config and the directory containing it (the project root).
func Find(start string) (Config, string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return Config{}, "", fmt.Errorf("resolve %s: %w", start, err)
	}
	for {
		path := filepath.Join(dir, FileName)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			cfg, err := Load(path)
			return cfg, dir, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Config{}, "", fmt.Errorf("%w (searched from %s)", ErrNotFound, start)
		}
		dir = parent
	}
}

// Load reads and parses a config file, applying defaults and
// XEVAL_-prefixed environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Evals.Glob == "" {
		cfg.Evals.Glob = DefaultGlob
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("XEVAL_EVALS_GLOB"); v != "" {
		cfg.Evals.Glob = v
	}
	if v := os.Getenv("XEVAL_OPENAI_PROJECT"); v != "" {
		cfg.OpenAI.Project = v
	}
}

// Write serializes cfg to path. An existing file is refused unless
// force is set.
func Write(path string, cfg Config, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists at %s, pass --force to overwrite", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
