package fileutil_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-typstlive/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestValidateExtension - Extension validation
// ---------------------------------------------------------------------------

func TestValidateExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		extension string
		wantErr   error
	}{
		{"valid svg", "svg", nil},
		{"valid png", "png", nil},
		{"empty extension", "", fileutil.ErrExtensionEmpty},
		{"forward slash path traversal", "../etc/passwd", fileutil.ErrExtensionPathTraversal},
		{"backslash path traversal", "..\\windows", fileutil.ErrExtensionPathTraversal},
		{"null byte injection", "svg\x00exe", fileutil.ErrExtensionPathTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := fileutil.ValidateExtension(tt.extension)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateExtension(%q) = %v, want %v", tt.extension, err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestOutputPath - Per-preview output naming
// ---------------------------------------------------------------------------

func TestOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		page    string
		n       int
		ext     string
		want    string
		wantErr error
	}{
		{"markdown page", "docs/guide.md", 2, "svg", filepath.Join("out", "guide-2.svg"), nil},
		{"typst file", "hello.typ", 1, "png", filepath.Join("out", "hello-1.png"), nil},
		{"no extension", "README", 3, "svg", filepath.Join("out", "README-3.svg"), nil},
		{"bad extension", "guide.md", 1, "../x", "", fileutil.ErrExtensionPathTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := fileutil.OutputPath("out", tt.page, tt.n, tt.ext)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("OutputPath() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("OutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestMakeWorkDir - Scratch directories
// ---------------------------------------------------------------------------

func TestMakeWorkDir(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	dir, cleanup, err := fileutil.MakeWorkDir(parent)
	if err != nil {
		t.Fatalf("MakeWorkDir() error = %v", err)
	}

	if !strings.HasPrefix(filepath.Base(dir), fileutil.TempPrefix) {
		t.Errorf("dir %q does not start with %q", dir, fileutil.TempPrefix)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.typ"), []byte("x"), 0o600); err != nil {
		t.Fatalf("writing into work dir: %v", err)
	}

	cleanup()

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("work dir still exists after cleanup: %v", err)
	}
}

func TestMakeWorkDir_MissingParent(t *testing.T) {
	t.Parallel()

	_, _, err := fileutil.MakeWorkDir(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("MakeWorkDir() in missing parent = nil, want error")
	}
}

// ---------------------------------------------------------------------------
// TestDirWritable / TestFileExists / TestIsMarkdown
// ---------------------------------------------------------------------------

func TestDirWritable(t *testing.T) {
	t.Parallel()

	if err := fileutil.DirWritable(t.TempDir()); err != nil {
		t.Errorf("DirWritable(tempdir) = %v, want nil", err)
	}
	if err := fileutil.DirWritable(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("DirWritable(missing) = nil, want error")
	}
}

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "a.md")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	if !fileutil.FileExists(file) {
		t.Error("FileExists(file) = false")
	}
	if fileutil.FileExists(dir) {
		t.Error("FileExists(dir) = true")
	}
	if fileutil.FileExists(filepath.Join(dir, "missing")) {
		t.Error("FileExists(missing) = true")
	}
}

func TestIsMarkdown(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"a.md":       true,
		"b.MD":       true,
		"c.markdown": true,
		"d.typ":      false,
		"README":     false,
	}
	for path, want := range tests {
		if got := fileutil.IsMarkdown(path); got != want {
			t.Errorf("IsMarkdown(%q) = %v, want %v", path, got, want)
		}
	}
}
