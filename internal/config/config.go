// Package config loads docwalker settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Formats lists the supported output formats.
var Formats = []string{"text", "json", "toon", "markdown", "html"}

var (
	// ErrInvalidFormat is returned by Validate for an unknown output format.
	ErrInvalidFormat = errors.New("invalid output format")
	// ErrInvalidWorkers is returned by Validate for a non-positive worker count.
	ErrInvalidWorkers = errors.New("worker count must be positive")
	// ErrEmptyMarker is returned by Validate when no marker name is set.
	ErrEmptyMarker = errors.New("marker name is required")
)

type Config struct {
	// Marker is the decorator factory name that selects functions.
	Marker string

	// Discovery
	SkipInitPy    bool
	SkipTests     bool
	RespectIgnore bool
	MaxFileSize   int64

	// Error policy: abort the whole batch on the first unreadable or
	// malformed file instead of logging and skipping it.
	FailOnMalformed bool

	// Worker pool
	Workers int

	// Output
	Format    string
	CachePath string
}

// Load reads the configuration from DOCWALKER_* environment variables.
func Load() Config {
	return load(os.Getenv)
}

func load(getenv func(string) string) Config {
	e := env(getenv)
	cfg := Config{
		Marker: e.or("DOCWALKER_MARKER", "register_tool"),

		SkipInitPy:    e.boolOr("DOCWALKER_SKIP_INITPY", true),
		SkipTests:     e.boolOr("DOCWALKER_SKIP_TESTS", false),
		RespectIgnore: e.boolOr("DOCWALKER_RESPECT_IGNORE", true),
		MaxFileSize:   e.int64Or("DOCWALKER_MAX_FILE_SIZE", 1_000_000), // 1 MB

		FailOnMalformed: e.boolOr("DOCWALKER_FAIL_ON_MALFORMED", false),

		Workers: e.intOr("DOCWALKER_WORKERS", runtime.GOMAXPROCS(0)),

		Format:    strings.ToLower(e.or("DOCWALKER_FORMAT", "text")),
		CachePath: getenv("DOCWALKER_CACHE"),
	}

	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.MaxFileSize < 0 {
		cfg.MaxFileSize = 0
	}

	return cfg
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Marker) == "" {
		return ErrEmptyMarker
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Workers)
	}
	for _, f := range Formats {
		if c.Format == f {
			return nil
		}
	}
	return fmt.Errorf("%w %q (want one of %s)", ErrInvalidFormat, c.Format, strings.Join(Formats, ", "))
}

type env func(string) string

func (e env) or(key, fallback string) string {
	if v := e(key); v != "" {
		return v
	}
	return fallback
}

func (e env) intOr(key string, fallback int) int {
	if v := e(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func (e env) int64Or(key string, fallback int64) int64 {
	if v := e(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func (e env) boolOr(key string, fallback bool) bool {
	if v := e(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
