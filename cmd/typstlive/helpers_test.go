package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	typstlive "github.com/alnah/go-typstlive"
	"github.com/alnah/go-typstlive/internal/config"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Fake engine, rasterizer and output capture
// ---------------------------------------------------------------------------

// fakeCompile echoes the source inside a <desc> element and rejects
// anything containing "#(".
func fakeCompile(_ context.Context, src string) ([]byte, error) {
	if strings.Contains(src, "#(") {
		return nil, errors.New("unclosed delimiter")
	}
	return []byte(`<svg width="10pt" height="10pt" viewBox="0 0 10 10"><desc>` + src + `</desc></svg>`), nil
}

type fakeRasterizer struct{}

func (fakeRasterizer) Rasterize(context.Context, string) ([]byte, error) {
	return []byte("\x89PNG fake"), nil
}

func (fakeRasterizer) Close() error { return nil }

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testEnv(stdout, stderr *syncBuffer) *Environment {
	return &Environment{
		Stdout: stdout,
		Stderr: stderr,
		NewEngine: func(config.EngineConfig, *slog.Logger) typstlive.Engine {
			return typstlive.EngineFunc(func(context.Context) (typstlive.CompileFunc, error) {
				return fakeCompile, nil
			})
		},
		NewRasterizer: func(float64) typstlive.Rasterizer { return fakeRasterizer{} },
	}
}

const samplePage = "# Guide\n\n" +
	"```typst\n#rect()\n```\n\n" +
	"Some prose.\n\n" +
	"```typst image=broken.png readonly\n#(\n```\n"

const goodPage = "# Shapes\n\n```typst layout=vertical\n#circle()\n```\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
