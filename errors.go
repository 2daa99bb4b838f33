package typstlive

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for library operations.
var (
	// Compile taxonomy.
	ErrEngineUnavailable = errors.New("compiler engine unavailable")
	ErrEngineInitFailed  = errors.New("compiler engine failed to initialize")
	ErrCompileFailure    = errors.New("compilation failed")
	ErrMalformedOutput   = errors.New("malformed compiler output")

	ErrSessionClosed  = errors.New("compiler session closed")
	ErrEngineNotFound = errors.New("typst binary not found")
	ErrReadOnly       = errors.New("preview is not editable")

	// Preview configuration validation errors.
	ErrInvalidLayout     = errors.New("invalid layout")
	ErrBoilerplateTooBig = errors.New("hidden boilerplate exceeds maximum size")

	// Rasterizer errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrRasterize      = errors.New("rasterization failed")
)

// CompileError reports that the engine rejected a specific input.
// Raw holds whatever the engine returned, unmodified.
type CompileError struct {
	Raw error
}

func (e *CompileError) Error() string {
	if e.Raw == nil {
		return ErrCompileFailure.Error()
	}
	return fmt.Sprintf("%s: %v", ErrCompileFailure, e.Raw)
}

// Is makes errors.Is(err, ErrCompileFailure) hold.
func (e *CompileError) Is(target error) bool {
	return target == ErrCompileFailure
}

func (e *CompileError) Unwrap() error {
	return e.Raw
}

// EngineError is the failure shape of the typst CLI: its exit code and the
// diagnostics it wrote to stderr.
type EngineError struct {
	ExitCode int
	Stderr   string
}

func (e *EngineError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("typst exited with code %d", e.ExitCode)
	}
	return msg
}
