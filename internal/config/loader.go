package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/vocabdeck/internal/srs"
)

// RegisterFlags adds every configuration key to fs with its default value.
func RegisterFlags(fs *pflag.FlagSet) {
	d := srs.DefaultParams()

	fs.String("config", "", "path to a YAML config file")
	fs.String("db", "vocabdeck.db", "path to the SQLite database file")
	fs.String("learner", DefaultLearner, "learner UUID the commands act for")
	fs.String("timezone", "UTC", "IANA time zone used for study-day boundaries")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("log-format", "text", "log format: text or json")
	fs.IntSlice("ladder", d.Ladder, "review interval ladder in days")
	fs.Int("difficulty-min", d.MinDifficulty, "lowest card difficulty")
	fs.Int("difficulty-max", d.MaxDifficulty, "highest card difficulty")
	fs.Int("difficulty-step", d.DifficultyStep, "difficulty change per easy or hard rating")
	fs.Int("difficulty-initial", d.InitialDifficulty, "difficulty of new cards")
	fs.Int("mastery-threshold", 2, "highest difficulty counted as mastered")
	fs.String("repos-dir", "repos", "directory for git deck checkouts")
	fs.Duration("sync-interval", time.Hour, "daemon deck sync interval")
	fs.Duration("remind-interval", 30*time.Minute, "daemon due reminder interval")
}

// Load builds the configuration from, in increasing precedence, the YAML
// file named by the --config flag, the environment and the flags set on fs.
// Flag defaults fill keys no other layer sets.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, fmt.Errorf("config: load flags: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps VOCABDECK_LOG_LEVEL to log-level.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", "-")
}

// listKeys are the keys whose environment value is a comma-separated list.
var listKeys = map[string]bool{"ladder": true}

func envValue(name, value string) (string, any) {
	key := envKey(name)
	if !listKeys[key] {
		return key, value
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return key, parts
}

// Validate checks struct tags and the scheduler's cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s failed %s validation (got %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config: %w", err)
	}

	if err := c.SRSParams().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.MasteryThreshold > c.DifficultyMax {
		return fmt.Errorf("config: mastery-threshold must be <= difficulty-max (got %d > %d)", c.MasteryThreshold, c.DifficultyMax)
	}
	return nil
}
