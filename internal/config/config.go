// Package config collects the settings of the search memory: table
// budgets, learning switches, where the learn file lives and how much
// is logged.
package config

import (
	"flag"
	"math"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Version identifies the build. It names the learn file, so builds with
// incompatible table layouts must not share it.
var Version = "1.0.0"

// Environment variables read by FromEnv.
const (
	EnvHash      = "CHESSMEMO_HASH"
	EnvLearnSize = "CHESSMEMO_LEARN_SIZE"
	EnvLearning  = "CHESSMEMO_LEARNING"
	EnvRules     = "CHESSMEMO_RULES"
	EnvDataDir   = "CHESSMEMO_DATA_DIR"
	EnvLogLevel  = "CHESSMEMO_LOG_LEVEL"
)

// Config holds every tunable.
type Config struct {
	HashBytes     int    // transposition table budget, both sides together
	MinHashBytes  int    // smaller budgets are refused
	LearnBytes    int    // learn table budget, both sides together
	MinLearnBytes int    // smaller budgets are refused
	Learning      bool   // consult and update the learn table
	Rules         string // "crazyhouse" or "bughouse"
	Version       string // build version, names the learn file
	DataDir       string // directory for the learn file and journal; empty = platform default
	LogLevel      string // zerolog level name
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HashBytes:     32 << 20,
		MinHashBytes:  64 << 10,
		LearnBytes:    1 << 20,
		MinLearnBytes: 64 << 10,
		Learning:      true,
		Rules:         "crazyhouse",
		Version:       Version,
		LogLevel:      "info",
	}
}

// FromEnv returns the defaults overridden by any CHESSMEMO_* variables.
func FromEnv() (Config, error) {
	cfg := Default()
	return cfg, cfg.applyEnv(os.Getenv)
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvHash); v != "" {
		n, err := parseSize(v)
		if err != nil {
			return errors.Wrap(err, EnvHash)
		}
		c.HashBytes = n
	}
	if v := getenv(EnvLearnSize); v != "" {
		n, err := parseSize(v)
		if err != nil {
			return errors.Wrap(err, EnvLearnSize)
		}
		c.LearnBytes = n
	}
	if v := getenv(EnvLearning); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, EnvLearning)
		}
		c.Learning = b
	}
	if v := getenv(EnvRules); v != "" {
		c.Rules = v
	}
	if v := getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	return nil
}

// RegisterFlags binds the configuration to command-line flags. Call it
// after FromEnv so flags take precedence over the environment.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.Var(sizeValue{&c.HashBytes}, "hash", "transposition table size (e.g. 64MB)")
	fs.Var(sizeValue{&c.LearnBytes}, "learn-size", "learn table size (e.g. 1MB)")
	fs.BoolVar(&c.Learning, "learn", c.Learning, "use and update the learn table")
	fs.StringVar(&c.Rules, "rules", c.Rules, "variant: crazyhouse or bughouse")
	fs.StringVar(&c.DataDir, "data-dir", c.DataDir, "directory for the learn file and journal")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
}

// Validate checks the values that cannot be caught by the tables
// themselves.
func (c Config) Validate() error {
	if c.Version == "" {
		return errors.New("version must not be empty")
	}
	if c.HashBytes < 0 || c.LearnBytes < 0 {
		return errors.New("table sizes must not be negative")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log level")
	}
	return nil
}

// Level returns the configured log level, defaulting to info.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// maxSize matches the largest table the engine will allocate.
const maxSize uint64 = 1 << 40

func parseSize(s string) (int, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if n > maxSize || n > math.MaxInt {
		return 0, errors.Errorf("size %s too large", s)
	}
	return int(n), nil
}

type sizeValue struct{ p *int }

func (v sizeValue) String() string {
	if v.p == nil {
		return ""
	}
	return humanize.IBytes(uint64(*v.p))
}

func (v sizeValue) Set(s string) error {
	n, err := parseSize(s)
	if err != nil {
		return err
	}
	*v.p = n
	return nil
}
