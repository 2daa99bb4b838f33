package assets

import (
	"errors"
	"strings"
	"testing"
)

func TestLoadStyle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		style   string
		wantErr error
	}{
		{"default style", DefaultStyleName, nil},
		{"missing style", "nonexistent-xyz", ErrStyleNotFound},
		{"traversal", "../etc", ErrInvalidAssetName},
		{"empty", "", ErrInvalidAssetName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := LoadStyle(tt.style)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("LoadStyle(%q) error = %v, want %v", tt.style, err, tt.wantErr)
			}
			if tt.wantErr == nil && !strings.Contains(got, ".typst-widget") {
				t.Error("default style lacks widget rules")
			}
		})
	}
}

func TestLoadScript(t *testing.T) {
	t.Parallel()

	got, err := LoadScript(DefaultScriptName)
	if err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}
	if !strings.Contains(got, "WebSocket") {
		t.Error("preview script does not open a websocket")
	}
	if !strings.Contains(got, "socket.send(editor.value)") {
		t.Error("preview script does not send edits over the websocket")
	}

	if _, err := LoadScript("missing"); !errors.Is(err, ErrScriptNotFound) {
		t.Errorf("LoadScript(missing) error = %v, want ErrScriptNotFound", err)
	}
}

func TestLoadTemplateSet(t *testing.T) {
	t.Parallel()

	ts, err := LoadTemplateSet(DefaultTemplateSetName)
	if err != nil {
		t.Fatalf("LoadTemplateSet() error = %v", err)
	}
	if ts.Name != DefaultTemplateSetName {
		t.Errorf("Name = %q", ts.Name)
	}
	for name, content := range map[string]string{"page": ts.Page, "index": ts.Index, "widget": ts.Widget} {
		if strings.TrimSpace(content) == "" {
			t.Errorf("%s template is empty", name)
		}
	}
	if !strings.Contains(ts.Widget, `{{define "output"}}`) {
		t.Error("widget template does not define output")
	}

	if _, err := LoadTemplateSet("missing"); !errors.Is(err, ErrTemplateSetNotFound) {
		t.Errorf("LoadTemplateSet(missing) error = %v, want ErrTemplateSetNotFound", err)
	}
}

func TestValidateAssetName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "default", false},
		{"dash", "dark-mode", false},
		{"underscore", "wide_layout", false},
		{"empty", "", true},
		{"slash", "a/b", true},
		{"backslash", `a\b`, true},
		{"dot", "a.css", true},
		{"traversal", "..", true},
		{"null byte", "a\x00b", true},
		{"space", "dark mode", true},
		{"non-ascii", "thème", true},
		{"too long", strings.Repeat("a", maxAssetNameLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateAssetName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAssetName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidAssetName) {
				t.Errorf("error %v does not wrap ErrInvalidAssetName", err)
			}
		})
	}
}
