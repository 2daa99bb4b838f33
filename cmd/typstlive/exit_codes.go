package main

import (
	"errors"
	"os"

	typstlive "github.com/alnah/go-typstlive"
	"github.com/alnah/go-typstlive/internal/assets"
	"github.com/alnah/go-typstlive/internal/config"
	"github.com/alnah/go-typstlive/internal/docs"
)

// Exit codes for the typstlive CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Command completed
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or page markup
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors while rasterizing
	ExitEngine  = 5 // typst missing or unusable
	ExitCompile = 6 // at least one preview failed to compile
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, ErrRenderFailed) ||
		errors.Is(err, typstlive.ErrCompileFailure) ||
		errors.Is(err, typstlive.ErrMalformedOutput) {
		return ExitCompile
	}

	if errors.Is(err, typstlive.ErrEngineNotFound) ||
		errors.Is(err, typstlive.ErrEngineInitFailed) ||
		errors.Is(err, typstlive.ErrEngineUnavailable) {
		return ExitEngine
	}

	if errors.Is(err, typstlive.ErrBrowserConnect) ||
		errors.Is(err, typstlive.ErrPageCreate) ||
		errors.Is(err, typstlive.ErrPageLoad) ||
		errors.Is(err, typstlive.ErrRasterize) {
		return ExitBrowser
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, docs.ErrPageTooLarge) {
		return ExitIO
	}

	if errors.Is(err, ErrInvalidFlags) ||
		errors.Is(err, ErrUnsupportedShell) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, docs.ErrInvalidBlock) ||
		errors.Is(err, typstlive.ErrInvalidLayout) ||
		errors.Is(err, typstlive.ErrBoilerplateTooBig) ||
		errors.Is(err, assets.ErrStyleNotFound) ||
		errors.Is(err, assets.ErrTemplateSetNotFound) ||
		errors.Is(err, assets.ErrIncompleteTemplateSet) ||
		errors.Is(err, assets.ErrInvalidBasePath) {
		return ExitUsage
	}

	return ExitGeneral
}
