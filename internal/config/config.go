// Package config loads lobby stage options from YAML and server options from
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/DoyleJ11/couch-lobby/internal/grid"
	"github.com/DoyleJ11/couch-lobby/internal/input"
)

var ErrInvalidConfig = errors.New("invalid lobby config")

// Grid is one stage's selection grid.
type Grid struct {
	RowWidth       int `yaml:"row_width" json:"row_width"`
	CandidateCount int `yaml:"candidate_count" json:"candidate_count"`
}

func (g Grid) Layout() grid.Layout {
	return grid.Layout{RowWidth: g.RowWidth, ItemCount: g.CandidateCount}
}

// Stage holds every option a lobby reads once at stage start.
type Stage struct {
	Characters Grid `yaml:"characters" json:"characters"`
	Maps       Grid `yaml:"maps" json:"maps"`

	MaxSlots   int `yaml:"max_slots" json:"max_slots"`
	AnchorSlot int `yaml:"anchor_slot" json:"anchor_slot"`

	ConsensusSec     float64 `yaml:"consensus_sec" json:"consensus_sec"`
	VotingSec        float64 `yaml:"voting_sec" json:"voting_sec"`
	AllowVoteChanges bool    `yaml:"allow_vote_changes" json:"allow_vote_changes"`

	NavRepeatCooldownSec float64 `yaml:"nav_repeat_cooldown_sec" json:"nav_repeat_cooldown_sec"`
	AnalogHighThreshold  float64 `yaml:"analog_high_threshold" json:"analog_high_threshold"`
	AnalogLowThreshold   float64 `yaml:"analog_low_threshold" json:"analog_low_threshold"`

	// Seed fixes the tie-break RNG. Zero means seed from the clock.
	Seed int64 `yaml:"seed" json:"seed,omitempty"`
}

func Defaults() Stage {
	return Stage{
		Characters:           Grid{RowWidth: 3, CandidateCount: 6},
		Maps:                 Grid{RowWidth: 2, CandidateCount: 4},
		MaxSlots:             4,
		AnchorSlot:           0,
		ConsensusSec:         2,
		VotingSec:            15,
		AllowVoteChanges:     true,
		NavRepeatCooldownSec: 0.25,
		AnalogHighThreshold:  0.6,
		AnalogLowThreshold:   0.3,
	}
}

// Load reads a YAML stage file on top of Defaults. An empty path returns the
// defaults.
func Load(path string) (Stage, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	return Parse(b)
}

func Parse(b []byte) (Stage, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("lobby.yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("lobby.yaml: %w", err)
	}
	return cfg, nil
}

// Validate reports every problem at once. The returned error wraps
// ErrInvalidConfig.
func (c Stage) Validate() error {
	var err error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf(format, args...))
		}
	}

	check(c.Characters.CandidateCount > 0, "characters.candidate_count must be > 0, got %d", c.Characters.CandidateCount)
	check(c.Characters.RowWidth > 0, "characters.row_width must be > 0, got %d", c.Characters.RowWidth)
	check(c.Maps.CandidateCount > 0, "maps.candidate_count must be > 0, got %d", c.Maps.CandidateCount)
	check(c.Maps.RowWidth > 0, "maps.row_width must be > 0, got %d", c.Maps.RowWidth)
	check(c.MaxSlots > 0, "max_slots must be > 0, got %d", c.MaxSlots)
	check(c.AnchorSlot >= -1 && c.AnchorSlot < c.MaxSlots, "anchor_slot must be -1 or a valid slot, got %d", c.AnchorSlot)
	check(c.ConsensusSec >= 0, "consensus_sec must be >= 0, got %v", c.ConsensusSec)
	check(c.VotingSec >= 0, "voting_sec must be >= 0, got %v", c.VotingSec)
	check(c.NavRepeatCooldownSec >= 0, "nav_repeat_cooldown_sec must be >= 0, got %v", c.NavRepeatCooldownSec)
	check(c.AnalogHighThreshold > 0 && c.AnalogHighThreshold <= 1, "analog_high_threshold must be in (0,1], got %v", c.AnalogHighThreshold)
	check(c.AnalogLowThreshold >= 0 && c.AnalogLowThreshold < c.AnalogHighThreshold, "analog_low_threshold must be in [0,high), got %v", c.AnalogLowThreshold)

	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c Stage) Repeat() input.RepeatConfig {
	return input.RepeatConfig{
		High:     c.AnalogHighThreshold,
		Low:      c.AnalogLowThreshold,
		Cooldown: c.NavRepeatCooldownSec,
	}
}
