package main

import (
	"io"
	"log/slog"
	"os"

	typstlive "github.com/alnah/go-typstlive"
	"github.com/alnah/go-typstlive/internal/config"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdout io.Writer
	Stderr io.Writer

	// NewEngine builds the compiler engine from configuration.
	NewEngine func(cfg config.EngineConfig, logger *slog.Logger) typstlive.Engine
	// NewRasterizer builds one PNG rasterizer for the render pool.
	NewRasterizer func(scale float64) typstlive.Rasterizer
}

// DefaultEnv returns the production environment: the typst CLI engine and
// headless Chrome rasterizers.
func DefaultEnv() *Environment {
	return &Environment{
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		NewEngine:     newTypstEngine,
		NewRasterizer: newRodRasterizer,
	}
}

func newTypstEngine(cfg config.EngineConfig, logger *slog.Logger) typstlive.Engine {
	e := typstlive.NewTypstEngine(cfg.Bin)
	e.Root = cfg.Root
	e.FontPaths = cfg.FontPaths
	e.Logger = logger
	return e
}

func newRodRasterizer(scale float64) typstlive.Rasterizer {
	return typstlive.NewRodRasterizer(0, scale)
}
