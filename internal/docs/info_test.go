package docs

import (
	"errors"
	"testing"
)

func TestParseInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		info       string
		wantValues map[string]string
		wantFlags  []string
	}{
		{"language only", "typst", map[string]string{}, nil},
		{"key values", "typst image=a.png layout=vertical", map[string]string{"image": "a.png", "layout": "vertical"}, nil},
		{"quoted value", `typst alt="A bar chart"`, map[string]string{"alt": "A bar chart"}, nil},
		{"escaped quote", `typst alt="say \"hi\""`, map[string]string{"alt": `say "hi"`}, nil},
		{"flag", "typst readonly", map[string]string{}, []string{"readonly"}},
		{"keys are lowercased", "typst IMAGE=X.png ReadOnly", map[string]string{"image": "X.png"}, []string{"readonly"}},
		{"tabs and extra spaces", "typst\t image=a.png   alt=x", map[string]string{"image": "a.png", "alt": "x"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseInfo(tt.info)
			if err != nil {
				t.Fatalf("parseInfo(%q) error = %v", tt.info, err)
			}
			if len(got.values) != len(tt.wantValues) {
				t.Errorf("values = %v, want %v", got.values, tt.wantValues)
			}
			for k, v := range tt.wantValues {
				if got.values[k] != v {
					t.Errorf("values[%q] = %q, want %q", k, got.values[k], v)
				}
			}
			if len(got.flags) != len(tt.wantFlags) {
				t.Errorf("flags = %v, want %v", got.flags, tt.wantFlags)
			}
			for _, f := range tt.wantFlags {
				if !got.flags[f] {
					t.Errorf("flag %q missing", f)
				}
			}
		})
	}
}

func TestParseInfo_UnclosedQuote(t *testing.T) {
	t.Parallel()

	if _, err := parseInfo(`typst alt="oops`); !errors.Is(err, ErrUnclosedQuote) {
		t.Errorf("parseInfo() error = %v, want ErrUnclosedQuote", err)
	}
}

func TestSplitHidden(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                          string
		code                          string
		wantPrefix, wantCode, wantSuf string
	}{
		{"no hidden lines", "#rect()\n", "", "#rect()", ""},
		{"leading", ">>> #set page(width: 10pt)\n#rect()\n", "#set page(width: 10pt)\n", "#rect()", ""},
		{"trailing", "#rect()\n>>> #pagebreak()\n", "", "#rect()", "\n#pagebreak()"},
		{"both", ">>> a\n>>> b\nx\ny\n>>> z\n", "a\nb\n", "x\ny", "\nz"},
		{"marker without space", ">>>a\nx", "a\n", "x", ""},
		{"middle lines stay visible", "x\n>>> mid\ny", "", "x\n>>> mid\ny", ""},
		{"all hidden", ">>> a\n>>> b\n", "a\nb\n", "", ""},
		{"empty", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, c, s := splitHidden(tt.code)
			if p != tt.wantPrefix || c != tt.wantCode || s != tt.wantSuf {
				t.Errorf("splitHidden(%q) = (%q, %q, %q), want (%q, %q, %q)",
					tt.code, p, c, s, tt.wantPrefix, tt.wantCode, tt.wantSuf)
			}
		})
	}
}
