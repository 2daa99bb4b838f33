// Package fileutil provides file and path helpers shared by the engine
// and the CLI.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
)

// TempPrefix is the prefix of every scratch directory the module creates.
const TempPrefix = "typstlive-"

// MakeWorkDir creates a private scratch directory under dir (os.TempDir
// when empty). Returns the directory and a cleanup function removing it.
func MakeWorkDir(dir string) (path string, cleanup func(), err error) {
	path, err = os.MkdirTemp(dir, TempPrefix+"*")
	if err != nil {
		return "", nil, fmt.Errorf("creating work dir: %w", err)
	}
	return path, func() { _ = os.RemoveAll(path) }, nil
}

// ValidateExtension checks that the extension is safe for use in file names.
func ValidateExtension(extension string) error {
	if extension == "" {
		return ErrExtensionEmpty
	}
	if strings.ContainsAny(extension, "/\\\x00") {
		return ErrExtensionPathTraversal
	}
	return nil
}

// OutputPath names the file for the n-th preview (1-based) of page inside
// outDir: "guide.md", 2, "svg" -> "<outDir>/guide-2.svg".
func OutputPath(outDir, page string, n int, extension string) (string, error) {
	if err := ValidateExtension(extension); err != nil {
		return "", err
	}
	base := strings.TrimSuffix(filepath.Base(page), filepath.Ext(page))
	return filepath.Join(outDir, base+"-"+strconv.Itoa(n)+"."+extension), nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirWritable reports whether a file can be created in dir.
func DirWritable(dir string) error {
	f, err := os.CreateTemp(dir, TempPrefix+"probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// IsMarkdown reports whether path has a Markdown extension.
func IsMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}
