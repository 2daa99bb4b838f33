package main

import (
	"errors"
	"fmt"
	"os"
	"testing"

	typstlive "github.com/alnah/go-typstlive"
	"github.com/alnah/go-typstlive/internal/config"
	"github.com/alnah/go-typstlive/internal/docs"
)

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"generic", errors.New("boom"), ExitGeneral},
		{"render failed", fmt.Errorf("%w: 1 of 2", ErrRenderFailed), ExitCompile},
		{"compile error", &typstlive.CompileError{Raw: errors.New("x")}, ExitCompile},
		{"engine missing", fmt.Errorf("loading: %w", typstlive.ErrEngineNotFound), ExitEngine},
		{"engine init", fmt.Errorf("%w: nope", typstlive.ErrEngineInitFailed), ExitEngine},
		{"browser", fmt.Errorf("%w: no chrome", typstlive.ErrBrowserConnect), ExitBrowser},
		{"not exist", fmt.Errorf("scan: %w", os.ErrNotExist), ExitIO},
		{"no input", ErrNoInput, ExitIO},
		{"page too large", docs.ErrPageTooLarge, ExitIO},
		{"flags", fmt.Errorf("%w: unknown flag", ErrInvalidFlags), ExitUsage},
		{"config parse", fmt.Errorf("%w: bad yaml", config.ErrConfigParse), ExitUsage},
		{"invalid block", fmt.Errorf("%w: line 3", docs.ErrInvalidBlock), ExitUsage},
		{"invalid layout", typstlive.ErrInvalidLayout, ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
