package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/playmatatu/pachinko/internal/game"
	"gopkg.in/yaml.v3"
)

// LoadMachine reads a YAML machine profile. Keys absent from the file keep the
// reference machine's values. An empty path returns the reference machine.
func LoadMachine(path string) (game.Config, error) {
	cfg := game.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return game.Config{}, fmt.Errorf("read machine profile: %w", err)
	}
	return ParseMachine(raw)
}

// ParseMachine decodes a YAML machine profile over the defaults and validates
// the result.
func ParseMachine(raw []byte) (game.Config, error) {
	cfg := game.DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return game.Config{}, fmt.Errorf("parse machine profile: %w", err)
	}

	// a payout table without an explicit pocket count sets it
	var shape struct {
		PocketCount *int `yaml:"pocket_count"`
	}
	_ = yaml.Unmarshal(raw, &shape)
	if shape.PocketCount == nil {
		cfg.PocketCount = len(cfg.Payouts)
	}
	if err := cfg.Validate(); err != nil {
		return game.Config{}, err
	}
	return cfg, nil
}
