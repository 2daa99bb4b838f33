package main

import (
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/alnah/go-typstlive/internal/config"
)

// These tests mutate the process environment, so they do not run in parallel.

func TestLoadEnvConfig(t *testing.T) {
	t.Setenv("TYPSTLIVE_TYPST_BIN", "/opt/typst")
	t.Setenv("TYPSTLIVE_FONT_PATHS", strings.Join([]string{"fonts", "", "more"}, string(filepath.ListSeparator)))
	t.Setenv("TYPSTLIVE_WORKERS", "3")
	t.Setenv("TYPSTLIVE_MAX_PREVIEWS", "not-a-number")
	t.Setenv("TYPSTLIVE_ADDR", "0.0.0.0:9000")

	env := loadEnvConfig()
	if env.TypstBin != "/opt/typst" {
		t.Errorf("TypstBin = %q", env.TypstBin)
	}
	if !slices.Equal(env.FontPaths, []string{"fonts", "more"}) {
		t.Errorf("FontPaths = %q, want empty entries dropped", env.FontPaths)
	}
	if env.Workers != 3 {
		t.Errorf("Workers = %d, want 3", env.Workers)
	}
	if env.MaxPreviews != 0 {
		t.Errorf("MaxPreviews = %d, want malformed value ignored", env.MaxPreviews)
	}
	if env.Addr != "0.0.0.0:9000" {
		t.Errorf("Addr = %q", env.Addr)
	}
}

func TestApplyEnvConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Engine.Bin = "from-file"
	cfg.Server.Addr = "127.0.0.1:1"

	applyEnvConfig(&envConfig{
		TypstBin:    "from-env",
		OutDir:      "build",
		MaxPreviews: 7,
		AssetsBase:  "/static",
	}, cfg)

	if cfg.Engine.Bin != "from-env" {
		t.Errorf("Engine.Bin = %q, want env to win over file", cfg.Engine.Bin)
	}
	if cfg.Server.Addr != "127.0.0.1:1" {
		t.Errorf("Server.Addr = %q, want file value kept when env unset", cfg.Server.Addr)
	}
	if cfg.Render.OutDir != "build" || cfg.Server.MaxPreviews != 7 || cfg.Preview.AssetsBase != "/static" {
		t.Errorf("config = %+v", cfg)
	}
}

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Setenv("TYPSTLIVE_TYPST_BIN", "typst")
	t.Setenv("TYPSTLIVE_WORKER", "2")

	var out syncBuffer
	warnUnknownEnvVars(&out)

	got := out.String()
	if !strings.Contains(got, "TYPSTLIVE_WORKER (typo?)") {
		t.Errorf("missing warning for TYPSTLIVE_WORKER: %q", got)
	}
	if strings.Contains(got, "TYPSTLIVE_TYPST_BIN") {
		t.Errorf("known variable reported: %q", got)
	}
}

func TestMergeFlags(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Engine.Root = "from-file"
	cfg.Preview.Alt = "file alt"

	mergeEngineFlags(engineFlags{bin: "typst-dev", fontPaths: []string{"f"}}, cfg)
	mergePreviewFlags(previewFlags{layout: "vertical", readOnly: true}, cfg)

	if cfg.Engine.Bin != "typst-dev" || cfg.Engine.Root != "from-file" {
		t.Errorf("Engine = %+v", cfg.Engine)
	}
	if !slices.Equal(cfg.Engine.FontPaths, []string{"f"}) {
		t.Errorf("FontPaths = %q", cfg.Engine.FontPaths)
	}
	if cfg.Preview.Layout != "vertical" || cfg.Preview.Alt != "file alt" || !cfg.Preview.ReadOnly {
		t.Errorf("Preview = %+v", cfg.Preview)
	}
}

func TestParseServeFlags(t *testing.T) {
	t.Parallel()

	f, rest, err := parseServeFlags([]string{"docs", "-a", ":9000", "--font-path", "a", "--font-path", "b", "--no-metrics"})
	if err != nil {
		t.Fatalf("parseServeFlags() error = %v", err)
	}
	if !slices.Equal(rest, []string{"docs"}) {
		t.Errorf("rest = %q", rest)
	}
	if f.addr != ":9000" || !f.noMetrics || !slices.Equal(f.engine.fontPaths, []string{"a", "b"}) {
		t.Errorf("flags = %+v", f)
	}

	if _, _, err := parseServeFlags([]string{"--max-previews", "many"}); exitCodeFor(err) != ExitUsage {
		t.Errorf("bad int flag = %v, want usage error", err)
	}
}
