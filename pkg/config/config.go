package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// FileName is the optional config file read from the working directory
const FileName = "centrality.toml"

// EnvPrefix prefixes environment overrides, e.g. CENTRALITY_TOP=5
const EnvPrefix = "CENTRALITY_"

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Config holds all configuration for the application
type Config struct {
	Input      string `koanf:"input"`
	Directed   bool   `koanf:"directed"`
	Top        int    `koanf:"top"`
	Workers    int    `koanf:"workers"`
	Header     bool   `koanf:"header"`
	Delimiter  string `koanf:"delimiter"`
	Watch      bool   `koanf:"watch"`
	WebMode    bool   `koanf:"web"`
	Port       int    `koanf:"port"`
	Verbosity  string `koanf:"verbosity"`
	VerboseCnt int    `koanf:"verbose"`
	JSONLogs   bool   `koanf:"json"`
}

// Defaults returns the lowest-priority configuration layer
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"input":     "edges.csv",
		"directed":  false,
		"top":       3,
		"workers":   1,
		"header":    true,
		"delimiter": ",",
		"watch":     false,
		"web":       false,
		"port":      8080,
		"verbosity": "",
		"verbose":   0,
		"json":      false,
	}
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return LoadFile(FileName, f)
}

// LoadFile is Load with an explicit config file path. A missing file is not an error.
func LoadFile(path string, f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional)
	// We ignore errors here as the file might not exist
	if path != "" {
		_ = k.Load(file.Provider(path), toml.Parser())
	}

	// 3. Environment Variables
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values a run depends on
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Input) == "" {
		return fmt.Errorf("%w: input path is empty", ErrInvalid)
	}
	if c.Top < 1 {
		return fmt.Errorf("%w: top must be at least 1, got %d", ErrInvalid, c.Top)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalid, c.Workers)
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("%w: delimiter must be a single character, got %q", ErrInvalid, c.Delimiter)
	}
	if r := c.DelimiterRune(); r == '\r' || r == '\n' || r == '"' || r == utf8.RuneError {
		return fmt.Errorf("%w: delimiter %q is not allowed", ErrInvalid, c.Delimiter)
	}
	if c.WebMode && (c.Port < 1 || c.Port > 65535) {
		return fmt.Errorf("%w: port out of range: %d", ErrInvalid, c.Port)
	}
	return nil
}

// DelimiterRune returns the CSV field separator
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// EffectiveWorkers resolves workers=0 to the number of usable CPUs
func (c *Config) EffectiveWorkers() int {
	if c.Workers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
