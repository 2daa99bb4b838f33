package typstlive

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// TestValidateSVG - Engine output acceptance
// ---------------------------------------------------------------------------

func TestValidateSVG(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      []byte
		wantErr bool
	}{
		{"minimal svg", []byte(`<svg viewBox="0 0 10 10"></svg>`), false},
		{"leading whitespace", []byte("\n\t  <svg></svg>"), false},
		{"namespaced", []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`), false},
		{"empty", nil, true},
		{"only whitespace", []byte(" \n\t"), true},
		{"not utf-8", []byte{'<', 's', 'v', 'g', 0xff, 0xfe}, true},
		{"xml prolog", []byte(`<?xml version="1.0"?><svg></svg>`), true},
		{"png bytes", []byte("\x89PNG\r\n\x1a\n"), true},
		{"html", []byte("<html><svg></svg></html>"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateSVG(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateSVG() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrMalformedOutput) {
				t.Errorf("error = %v, want ErrMalformedOutput", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestStripDimensions - Root width/height removal
// ---------------------------------------------------------------------------

func TestStripDimensions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "single quotes",
			in:   `<svg width='10' height='10'>...</svg>`,
			want: `<svg>...</svg>`,
		},
		{
			name: "keeps viewBox and order",
			in:   `<svg class="typst-doc" width="595.28pt" viewBox="0 0 595.28 841.89" height="841.89pt" xmlns="http://www.w3.org/2000/svg"><path d="M0 0"/></svg>`,
			want: `<svg class="typst-doc" viewBox="0 0 595.28 841.89" xmlns="http://www.w3.org/2000/svg"><path d="M0 0"/></svg>`,
		},
		{
			name: "nested elements untouched",
			in:   `<svg width="1" height="2"><rect width="5" height="6"/></svg>`,
			want: `<svg><rect width="5" height="6"/></svg>`,
		},
		{
			name: "leading whitespace and newlines in tag",
			in:   "\n<svg\n  width=\"1\"\n  viewBox=\"0 0 1 1\"\n  height=\"1\">x</svg>",
			want: "\n<svg\n  viewBox=\"0 0 1 1\">x</svg>",
		},
		{
			name: "unquoted values",
			in:   `<svg width=10 height=20 id=a></svg>`,
			want: `<svg id=a></svg>`,
		},
		{
			name: "self closing",
			in:   `<svg width="1" height="1"/>`,
			want: `<svg/>`,
		},
		{
			name: "uppercase attribute names",
			in:   `<svg WIDTH="1" Height="1" data-width="3"></svg>`,
			want: `<svg data-width="3"></svg>`,
		},
		{
			name: "no dimensions unchanged",
			in:   `<svg viewBox="0 0 1 1"></svg>`,
			want: `<svg viewBox="0 0 1 1"></svg>`,
		},
		{
			name: "no svg tag unchanged",
			in:   `<div width="1"></div>`,
			want: `<div width="1"></div>`,
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := StripDimensions(tt.in); got != tt.want {
				t.Errorf("StripDimensions()\n got: %q\nwant: %q", got, tt.want)
			}
		})
	}
}

func TestStripDimensions_Idempotent(t *testing.T) {
	t.Parallel()

	in := `<svg width="10pt" height="20pt" viewBox="0 0 10 20"><g/></svg>`
	once := StripDimensions(in)
	if twice := StripDimensions(once); twice != once {
		t.Errorf("second pass changed output:\n once: %q\ntwice: %q", once, twice)
	}
}
