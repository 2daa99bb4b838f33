package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
)

//go:embed styles/*
var styles embed.FS

//go:embed scripts/*
var scripts embed.FS

//go:embed templates
var templates embed.FS

// EmbeddedLoader loads assets from the embedded filesystem.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadStyle loads a CSS style from embedded assets by name.
func (e *EmbeddedLoader) LoadStyle(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	content, err := styles.ReadFile("styles/" + name + ".css")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrStyleNotFound, name)
	}

	return string(content), nil
}

// LoadScript loads a script from embedded assets by name.
func (e *EmbeddedLoader) LoadScript(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	content, err := scripts.ReadFile("scripts/" + name + ".js")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrScriptNotFound, name)
	}

	return string(content), nil
}

// LoadTemplateSet loads templates/{name}/ from embedded assets.
func (e *EmbeddedLoader) LoadTemplateSet(name string) (*TemplateSet, error) {
	if err := ValidateAssetName(name); err != nil {
		return nil, err
	}

	files := make(map[string]string, len(templateFiles))
	for _, f := range templateFiles {
		content, err := templates.ReadFile("templates/" + name + "/" + f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAssetRead, err)
		}
		files[f] = string(content)
	}
	if err := checkComplete(name, files); err != nil {
		return nil, err
	}
	return newTemplateSet(name, files), nil
}

// checkComplete reports a missing set when no file was found and an
// incomplete one when only some were.
func checkComplete(name string, files map[string]string) error {
	if len(files) == 0 {
		return fmt.Errorf("%w: %q", ErrTemplateSetNotFound, name)
	}
	for _, f := range templateFiles {
		if _, ok := files[f]; !ok {
			return fmt.Errorf("%w: %q missing %s", ErrIncompleteTemplateSet, name, f)
		}
	}
	return nil
}

// Compile-time interface check.
var _ AssetLoader = (*EmbeddedLoader)(nil)
