package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	typstlive "github.com/alnah/go-typstlive"
	"github.com/alnah/go-typstlive/internal/config"
	"github.com/alnah/go-typstlive/internal/hints"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput      = errors.New("no input specified")
	ErrWriteOutput  = errors.New("failed to write output")
	ErrRenderFailed = errors.New("previews failed to render")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// loadConfig resolves configuration from the --config flag or
// TYPSTLIVE_CONFIG, then applies environment overrides. Flags are merged
// by the caller, which must call Validate afterwards.
func loadConfig(f commonFlags) (*config.Config, error) {
	env := loadEnvConfig()

	name := f.config
	if name == "" {
		name = env.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
			}
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(env, cfg)
	return cfg, nil
}

// newLogger builds the CLI logger: Info by default, Debug with
// --verbose, Error with --quiet.
func newLogger(w io.Writer, f commonFlags) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case f.quiet:
		level = slog.LevelError
	case f.verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newSession builds the shared compiler session from configuration.
func newSession(cfg *config.Config, env *Environment, logger *slog.Logger, rec typstlive.Recorder) (*typstlive.Session, error) {
	timeout, err := cfg.Engine.CompileTimeout()
	if err != nil {
		return nil, err
	}
	engine := env.NewEngine(cfg.Engine, logger)
	return typstlive.NewSession(engine,
		typstlive.WithLogger(logger),
		typstlive.WithCompileTimeout(timeout),
		typstlive.WithRecorder(rec),
	), nil
}
