package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alnah/go-typstlive/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Engine
	ConfigPath string   // TYPSTLIVE_CONFIG: config file name or path
	TypstBin   string   // TYPSTLIVE_TYPST_BIN: typst binary
	Root       string   // TYPSTLIVE_ROOT: typst --root
	FontPaths  []string // TYPSTLIVE_FONT_PATHS: list separated like PATH
	Timeout    string   // TYPSTLIVE_TIMEOUT: per-compile limit

	// Render
	OutDir  string // TYPSTLIVE_OUT_DIR: render output directory
	Workers int    // TYPSTLIVE_WORKERS: concurrent compiles

	// Serve
	Addr        string // TYPSTLIVE_ADDR: listen address
	DocsDir     string // TYPSTLIVE_DOCS_DIR: Markdown root
	AssetsDir   string // TYPSTLIVE_ASSETS_DIR: fallback image directory
	AssetsBase  string // TYPSTLIVE_ASSETS_BASE: fallback image URL base
	MaxPreviews int    // TYPSTLIVE_MAX_PREVIEWS: live controllers kept
}

// knownEnvVars lists valid TYPSTLIVE_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"TYPSTLIVE_CONFIG":       true,
	"TYPSTLIVE_TYPST_BIN":    true,
	"TYPSTLIVE_ROOT":         true,
	"TYPSTLIVE_FONT_PATHS":   true,
	"TYPSTLIVE_TIMEOUT":      true,
	"TYPSTLIVE_OUT_DIR":      true,
	"TYPSTLIVE_WORKERS":      true,
	"TYPSTLIVE_ADDR":         true,
	"TYPSTLIVE_DOCS_DIR":     true,
	"TYPSTLIVE_ASSETS_DIR":   true,
	"TYPSTLIVE_ASSETS_BASE":  true,
	"TYPSTLIVE_MAX_PREVIEWS": true,
	"TYPSTLIVE_CONTAINER":    true, // read by doctor
}

// loadEnvConfig reads configuration from environment variables.
// Malformed numbers are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("TYPSTLIVE_CONFIG"),
		TypstBin:   os.Getenv("TYPSTLIVE_TYPST_BIN"),
		Root:       os.Getenv("TYPSTLIVE_ROOT"),
		Timeout:    os.Getenv("TYPSTLIVE_TIMEOUT"),
		OutDir:     os.Getenv("TYPSTLIVE_OUT_DIR"),
		Addr:       os.Getenv("TYPSTLIVE_ADDR"),
		DocsDir:    os.Getenv("TYPSTLIVE_DOCS_DIR"),
		AssetsDir:  os.Getenv("TYPSTLIVE_ASSETS_DIR"),
		AssetsBase: os.Getenv("TYPSTLIVE_ASSETS_BASE"),
	}

	if paths := os.Getenv("TYPSTLIVE_FONT_PATHS"); paths != "" {
		for _, p := range filepath.SplitList(paths) {
			if p != "" {
				cfg.FontPaths = append(cfg.FontPaths, p)
			}
		}
	}
	if workers := os.Getenv("TYPSTLIVE_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}
	if n := os.Getenv("TYPSTLIVE_MAX_PREVIEWS"); n != "" {
		if v, err := strconv.Atoi(n); err == nil && v > 0 {
			cfg.MaxPreviews = v
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized TYPSTLIVE_* variables.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "TYPSTLIVE_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig overrides config file values with set environment
// variables. Precedence: CLI flags > env vars > config file > defaults
// (flags are applied afterwards by each command).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.TypstBin != "" {
		cfg.Engine.Bin = env.TypstBin
	}
	if env.Root != "" {
		cfg.Engine.Root = env.Root
	}
	if len(env.FontPaths) > 0 {
		cfg.Engine.FontPaths = env.FontPaths
	}
	if env.Timeout != "" {
		cfg.Engine.Timeout = env.Timeout
	}

	if env.OutDir != "" {
		cfg.Render.OutDir = env.OutDir
	}
	if env.Workers > 0 {
		cfg.Render.Workers = env.Workers
	}

	if env.Addr != "" {
		cfg.Server.Addr = env.Addr
	}
	if env.MaxPreviews > 0 {
		cfg.Server.MaxPreviews = env.MaxPreviews
	}
	if env.DocsDir != "" {
		cfg.Docs.Dir = env.DocsDir
	}
	if env.AssetsDir != "" {
		cfg.Docs.AssetsDir = env.AssetsDir
	}
	if env.AssetsBase != "" {
		cfg.Preview.AssetsBase = env.AssetsBase
	}
}
