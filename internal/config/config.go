// Package config loads vocabdeck settings from a YAML file, VOCABDECK_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/vocabdeck/internal/srs"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "VOCABDECK_"

// DefaultLearner is the learner used when none is configured, so a
// single-user install needs no setup.
var DefaultLearner = uuid.NewSHA1(uuid.NameSpaceURL, []byte("vocabdeck:local")).String()

// Config is the root application configuration.
type Config struct {
	DB       string `koanf:"db"       validate:"required"`
	Learner  string `koanf:"learner"  validate:"required,uuid"`
	Timezone string `koanf:"timezone" validate:"required,timezone"`

	LogLevel  string `koanf:"log-level"  validate:"oneof=debug info warn error"`
	LogFormat string `koanf:"log-format" validate:"oneof=text json"`

	Ladder            []int `koanf:"ladder"             validate:"required,dive,gt=0"`
	DifficultyMin     int   `koanf:"difficulty-min"`
	DifficultyMax     int   `koanf:"difficulty-max"`
	DifficultyStep    int   `koanf:"difficulty-step"    validate:"gt=0"`
	DifficultyInitial int   `koanf:"difficulty-initial"`
	MasteryThreshold  int   `koanf:"mastery-threshold"  validate:"gte=1"`

	ReposDir       string        `koanf:"repos-dir"       validate:"required"`
	SyncInterval   time.Duration `koanf:"sync-interval"   validate:"gt=0"`
	RemindInterval time.Duration `koanf:"remind-interval" validate:"gt=0"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Log returns the logging part of the configuration.
func (c *Config) Log() LogConfig {
	return LogConfig{Level: c.LogLevel, Format: c.LogFormat}
}

// SRSParams returns the scheduler parameters.
func (c *Config) SRSParams() srs.Params {
	return srs.Params{
		Ladder:            append([]int(nil), c.Ladder...),
		MinDifficulty:     c.DifficultyMin,
		MaxDifficulty:     c.DifficultyMax,
		DifficultyStep:    c.DifficultyStep,
		InitialDifficulty: c.DifficultyInitial,
	}
}

// LearnerID returns the configured learner. Validate guarantees it parses.
func (c *Config) LearnerID() uuid.UUID {
	return uuid.MustParse(c.Learner)
}

// Location returns the configured time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
