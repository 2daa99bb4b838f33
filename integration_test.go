//go:build integration

package typstlive

// Notes:
// - Needs the typst binary on PATH; tests skip when it is missing.
// - The PNG test launches headless Chrome through rod (downloaded on first
//   run when ROD_BROWSER_BIN is unset).

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"
)

const integrationTimeout = 60 * time.Second

func requireTypst(t *testing.T) *Session {
	t.Helper()
	if _, err := exec.LookPath("typst"); err != nil {
		t.Skip("typst not installed")
	}
	s := NewSession(NewTypstEngine("typst"))
	t.Cleanup(func() { _ = s.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), integrationTimeout)
	defer cancel()
	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return s
}

func TestIntegration_TypstCompile(t *testing.T) {
	s := requireTypst(t)

	ctx, cancel := context.WithTimeout(context.Background(), integrationTimeout)
	defer cancel()

	svg, err := s.Compile(ctx, "#set page(width: 10pt, height: 10pt, margin: 0pt)\n#box(width: 5pt, height: 5pt, fill: red)")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	stripped := StripDimensions(svg)
	root := stripped[:strings.Index(stripped, ">")]
	if strings.Contains(root, " width=") || strings.Contains(root, " height=") {
		t.Errorf("root tag still sized: %q", root)
	}
	if !strings.Contains(root, "viewBox") {
		t.Errorf("root tag lost viewBox: %q", root)
	}
}

func TestIntegration_TypstRejects(t *testing.T) {
	s := requireTypst(t)

	ctx, cancel := context.WithTimeout(context.Background(), integrationTimeout)
	defer cancel()

	_, err := s.Compile(ctx, "#let x = ")
	if !errors.Is(err, ErrCompileFailure) {
		t.Fatalf("Compile() error = %v, want ErrCompileFailure", err)
	}
	d := Normalize(err)
	if len(d.Items) == 0 || d.Items[0].Line != 1 {
		t.Errorf("Diagnostic = %+v, want a located item on line 1", d)
	}
}

func TestIntegration_Rasterize(t *testing.T) {
	s := requireTypst(t)

	ctx, cancel := context.WithTimeout(context.Background(), integrationTimeout)
	defer cancel()

	svg, err := s.Compile(ctx, "#set page(width: 40pt, height: 20pt)\nHi")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	pool := NewRasterizerPool(1, nil)
	defer pool.Close()

	r := pool.Acquire()
	defer pool.Release(r)

	png, err := r.Rasterize(ctx, svg)
	if err != nil {
		t.Fatalf("Rasterize() error = %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Errorf("output is not a PNG: % x", png[:min(8, len(png))])
	}
}
