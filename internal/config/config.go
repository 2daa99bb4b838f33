package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	typstlive "github.com/alnah/go-typstlive"
	"github.com/alnah/go-typstlive/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength = 4096 // binary, root and directory paths
	MaxAltLength  = 500  // alt text
	MaxAddrLength = 255  // host:port
	MaxURLLength  = 2048 // assets base
)

// Bounds for numeric settings.
const (
	MaxWorkers     = 64
	MaxPreviews    = 10000
	MaxRasterScale = 8.0
)

// Defaults applied by DefaultConfig.
const (
	DefaultBin         = "typst"
	DefaultAddr        = "127.0.0.1:8080"
	DefaultMaxPreviews = 256
	DefaultOutDir      = "out"
	DefaultRasterScale = 2.0
)

// Config holds all configuration for the CLI and the preview server.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Preview PreviewConfig `yaml:"preview"`
	Render  RenderConfig  `yaml:"render"`
	Server  ServerConfig  `yaml:"server"`
	Docs    DocsConfig    `yaml:"docs"`
}

// EngineConfig configures the typst subprocess engine.
type EngineConfig struct {
	Bin       string   `yaml:"bin"`       // binary name or path (default: "typst")
	Root      string   `yaml:"root"`      // --root for file access (empty = work dir)
	FontPaths []string `yaml:"fontPaths"` // extra --font-path entries
	Timeout   string   `yaml:"timeout"`   // per-compile limit, e.g. "30s" (empty = none)
}

// PreviewConfig holds defaults applied to every preview block.
type PreviewConfig struct {
	Layout     string `yaml:"layout"`     // "horizontal" or "vertical"
	Alt        string `yaml:"alt"`        // default alt text
	AssetsBase string `yaml:"assetsBase"` // base URL for fallback images
	ReadOnly   bool   `yaml:"readOnly"`   // disable editing everywhere
}

// Apply fills what a block leaves unset. ReadOnly overrides the block.
func (d PreviewConfig) Apply(p typstlive.PreviewConfig) typstlive.PreviewConfig {
	if p.Layout == "" {
		p.Layout = d.Layout
	}
	if p.Alt == "" {
		p.Alt = d.Alt
	}
	if p.AssetsBase == "" {
		p.AssetsBase = d.AssetsBase
	}
	if d.ReadOnly {
		p.Editable = false
	}
	return p
}

// RenderConfig configures batch rendering.
type RenderConfig struct {
	OutDir  string  `yaml:"outDir"`  // output directory (default: "out")
	PNG     bool    `yaml:"png"`     // also rasterize each preview
	Scale   float64 `yaml:"scale"`   // device scale factor for PNG
	Workers int     `yaml:"workers"` // concurrent compiles (0 = auto)
}

// ServerConfig configures the preview server.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxPreviews int    `yaml:"maxPreviews"` // live controllers kept before eviction
}

// DocsConfig locates the documentation tree.
type DocsConfig struct {
	Dir       string `yaml:"dir"`       // Markdown root
	AssetsDir string `yaml:"assetsDir"` // served under preview.assetsBase
}

// Validate checks lengths, enums and ranges. Called by LoadConfig, and
// again by the CLI after env and flag overrides.
func (c *Config) Validate() error {
	checks := []struct {
		field string
		value string
		max   int
	}{
		{"engine.bin", c.Engine.Bin, MaxPathLength},
		{"engine.root", c.Engine.Root, MaxPathLength},
		{"preview.alt", c.Preview.Alt, MaxAltLength},
		{"preview.assetsBase", c.Preview.AssetsBase, MaxURLLength},
		{"render.outDir", c.Render.OutDir, MaxPathLength},
		{"server.addr", c.Server.Addr, MaxAddrLength},
		{"docs.dir", c.Docs.Dir, MaxPathLength},
		{"docs.assetsDir", c.Docs.AssetsDir, MaxPathLength},
	}
	for _, ch := range checks {
		if err := validateFieldLength(ch.field, ch.value, ch.max); err != nil {
			return err
		}
	}
	for i, p := range c.Engine.FontPaths {
		if err := validateFieldLength(fmt.Sprintf("engine.fontPaths[%d]", i), p, MaxPathLength); err != nil {
			return err
		}
	}

	if _, err := c.Engine.CompileTimeout(); err != nil {
		return err
	}

	switch strings.ToLower(c.Preview.Layout) {
	case "", "horizontal", "vertical":
	default:
		return fmt.Errorf("%w: preview.layout %q (must be horizontal or vertical)", ErrInvalidValue, c.Preview.Layout)
	}

	if c.Render.Workers < 0 || c.Render.Workers > MaxWorkers {
		return fmt.Errorf("%w: render.workers must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Render.Workers)
	}
	if c.Render.Scale < 0 || c.Render.Scale > MaxRasterScale {
		return fmt.Errorf("%w: render.scale must be between 0 and %.0f, got %.2f", ErrInvalidValue, MaxRasterScale, c.Render.Scale)
	}
	if c.Server.MaxPreviews < 0 || c.Server.MaxPreviews > MaxPreviews {
		return fmt.Errorf("%w: server.maxPreviews must be between 0 and %d, got %d", ErrInvalidValue, MaxPreviews, c.Server.MaxPreviews)
	}

	return nil
}

// CompileTimeout parses Timeout. Empty means no timeout.
func (e EngineConfig) CompileTimeout() (time.Duration, error) {
	if e.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(e.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: engine.timeout %q: %v", ErrInvalidValue, e.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: engine.timeout must not be negative, got %s", ErrInvalidValue, d)
	}
	return d, nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Engine:  EngineConfig{Bin: DefaultBin},
		Preview: PreviewConfig{Layout: "horizontal"},
		Render:  RenderConfig{OutDir: DefaultOutDir, Scale: DefaultRasterScale},
		Server:  ServerConfig{Addr: DefaultAddr, MaxPreviews: DefaultMaxPreviews},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Values missing from the file keep their DefaultConfig value.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	f, err := os.Open(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	if err := yamlutil.DecodeStrict(f, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// SearchPaths lists the candidate files for a config name, in lookup order:
// current directory, then the user config directory, .yaml before .yml.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, "go-typstlive", name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing file from SearchPaths.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
