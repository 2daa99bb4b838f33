package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunRender(t *testing.T) {
	t.Parallel()

	docsDir := t.TempDir()
	writeFile(t, filepath.Join(docsDir, "guide.md"), samplePage)
	writeFile(t, filepath.Join(docsDir, "sub", "shapes.md"), goodPage)
	out := filepath.Join(t.TempDir(), "out")

	var stdout, stderr syncBuffer
	err := runRender(context.Background(), []string{docsDir, "-o", out, "-w", "2"}, testEnv(&stdout, &stderr))

	if !errors.Is(err, ErrRenderFailed) {
		t.Fatalf("runRender() error = %v, want ErrRenderFailed", err)
	}
	if !strings.Contains(err.Error(), "1 of 3") {
		t.Errorf("error %q should count failures", err)
	}

	svg, readErr := os.ReadFile(filepath.Join(out, "guide-1.svg"))
	if readErr != nil {
		t.Fatalf("guide-1.svg: %v", readErr)
	}
	if string(svg) != `<svg viewBox="0 0 10 10"><desc>#rect()</desc></svg>` {
		t.Errorf("guide-1.svg = %q, want dimension-stripped output", svg)
	}
	if _, err := os.Stat(filepath.Join(out, "sub", "shapes-1.svg")); err != nil {
		t.Errorf("nested page output missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "guide-2.svg")); !os.IsNotExist(err) {
		t.Error("failed preview should not produce a file")
	}

	got := stdout.String()
	for _, want := range []string{"OK   guide.md#1", "FAIL guide.md#2", "unclosed delimiter", "2 rendered, 1 failed"} {
		if !strings.Contains(got, want) {
			t.Errorf("stdout missing %q:\n%s", want, got)
		}
	}
}

func TestRunRender_PNG(t *testing.T) {
	t.Parallel()

	page := filepath.Join(t.TempDir(), "shapes.md")
	writeFile(t, page, goodPage)
	out := t.TempDir()

	var stdout, stderr syncBuffer
	if err := runRender(context.Background(), []string{page, "-o", out, "--png", "-q"}, testEnv(&stdout, &stderr)); err != nil {
		t.Fatalf("runRender() error = %v", err)
	}

	png, err := os.ReadFile(filepath.Join(out, "shapes-1.png"))
	if err != nil {
		t.Fatalf("shapes-1.png: %v", err)
	}
	if !strings.HasPrefix(string(png), "\x89PNG") {
		t.Errorf("png = %q", png)
	}
	if stdout.String() != "" {
		t.Errorf("quiet run printed %q", stdout.String())
	}
}

func TestRunRender_MetricsFile(t *testing.T) {
	t.Parallel()

	page := filepath.Join(t.TempDir(), "shapes.md")
	writeFile(t, page, goodPage)
	out := t.TempDir()
	metricsPath := filepath.Join(t.TempDir(), "typstlive.prom")

	var stdout, stderr syncBuffer
	args := []string{page, "-o", out, "--png", "--metrics-file", metricsPath, "-q"}
	if err := runRender(context.Background(), args, testEnv(&stdout, &stderr)); err != nil {
		t.Fatalf("runRender() error = %v", err)
	}

	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("metrics file: %v", err)
	}
	for _, want := range []string{
		`typstlive_rasterizations_total{outcome="success"} 1`,
		"typstlive_rasterization_duration_seconds_count 1",
		`typstlive_compiles_total{outcome="success"} 1`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics file missing %q", want)
		}
	}
}

func TestRunRender_NoPreviews(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "plain.md"), "# Nothing\n\n```go\nfmt.Println()\n```\n")

	var stdout, stderr syncBuffer
	if err := runRender(context.Background(), []string{dir, "-o", t.TempDir()}, testEnv(&stdout, &stderr)); err != nil {
		t.Fatalf("runRender() error = %v", err)
	}
	if !strings.Contains(stderr.String(), "no preview blocks found") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunRender_ReadOnlyDefaultAppliesLayout(t *testing.T) {
	t.Parallel()

	page := filepath.Join(t.TempDir(), "bad.md")
	writeFile(t, page, goodPage)

	var stdout, stderr syncBuffer
	err := runRender(context.Background(), []string{page, "-o", t.TempDir(), "--layout", "diagonal"}, testEnv(&stdout, &stderr))
	if err == nil || exitCodeFor(err) != ExitUsage {
		t.Errorf("runRender(--layout diagonal) = %v, want usage error", err)
	}
}

func TestRunRender_EngineMissing(t *testing.T) {
	t.Parallel()

	page := filepath.Join(t.TempDir(), "shapes.md")
	writeFile(t, page, goodPage)

	var stdout, stderr syncBuffer
	env := testEnv(&stdout, &stderr)
	env.NewEngine = newTypstEngine

	err := runRender(context.Background(), []string{page, "-o", t.TempDir(), "--typst", "typstlive-no-such-binary"}, env)
	if exitCodeFor(err) != ExitEngine {
		t.Errorf("runRender() = %v, want engine error", err)
	}
}

func TestIndent(t *testing.T) {
	t.Parallel()

	if got := indent("a\nb"); got != "    a\n    b" {
		t.Errorf("indent() = %q", got)
	}
}
