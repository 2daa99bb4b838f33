package yamlutil_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/alnah/go-typstlive/internal/yamlutil"
)

type engineSection struct {
	Bin       string   `yaml:"bin"`
	FontPaths []string `yaml:"fontPaths"`
	Workers   int      `yaml:"workers"`
}

// ---------------------------------------------------------------------------
// TestUnmarshalStrict - Unknown fields are errors
// ---------------------------------------------------------------------------

func TestUnmarshalStrict(t *testing.T) {
	t.Parallel()

	var ok engineSection
	if err := yamlutil.UnmarshalStrict([]byte("bin: typst"), &ok); err != nil {
		t.Fatalf("UnmarshalStrict() known fields error = %v", err)
	}

	var bad engineSection
	err := yamlutil.UnmarshalStrict([]byte("bin: typst\nbinary: oops"), &bad)
	if err == nil {
		t.Fatal("UnmarshalStrict() with unknown field = nil, want error")
	}
	if !strings.HasPrefix(err.Error(), "yamlutil:") {
		t.Errorf("error %q lacks yamlutil prefix", err)
	}
}

func TestUnmarshalStrict_InvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		dest any
		want error
	}{
		{"nil data", nil, &engineSection{}, yamlutil.ErrNilData},
		{"empty data", []byte{}, &engineSection{}, yamlutil.ErrNilData},
		{"nil destination", []byte("bin: x"), nil, yamlutil.ErrNilDestination},
	}
	for _, tt := range tests {
		if err := yamlutil.UnmarshalStrict(tt.data, tt.dest); !errors.Is(err, tt.want) {
			t.Errorf("%s: UnmarshalStrict() = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestUnmarshalStrict_Malformed(t *testing.T) {
	t.Parallel()

	var v engineSection
	if err := yamlutil.UnmarshalStrict([]byte("bin: [unclosed"), &v); err == nil {
		t.Error("UnmarshalStrict() malformed = nil, want error")
	}
}

// ---------------------------------------------------------------------------
// TestDecodeStrict - Reader input
// ---------------------------------------------------------------------------

func TestDecodeStrict(t *testing.T) {
	t.Parallel()

	var v engineSection
	if err := yamlutil.DecodeStrict(strings.NewReader("workers: 2\n"), &v); err != nil {
		t.Fatalf("DecodeStrict() error = %v", err)
	}
	if v.Workers != 2 {
		t.Errorf("Workers = %d, want 2", v.Workers)
	}
}

func TestDecodeStrict_TooLarge(t *testing.T) {
	t.Parallel()

	big := "bin: " + strings.Repeat("x", yamlutil.MaxInputSize+10)
	var v engineSection
	err := yamlutil.DecodeStrict(strings.NewReader(big), &v)
	if !errors.Is(err, yamlutil.ErrInputTooLarge) {
		t.Errorf("DecodeStrict() error = %v, want ErrInputTooLarge", err)
	}
}

// ---------------------------------------------------------------------------
// TestMarshal
// ---------------------------------------------------------------------------

func TestMarshal(t *testing.T) {
	t.Parallel()

	data, err := yamlutil.Marshal(engineSection{Bin: "typst", Workers: 3})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	out := string(data)
	for _, want := range []string{"bin: typst", "workers: 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("Marshal() = %q, missing %q", out, want)
		}
	}
}
