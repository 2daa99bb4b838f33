package typstlive

import (
	"fmt"
	"strings"
)

// Layout constants.
const (
	LayoutHorizontal = "horizontal" // editor and output side by side
	LayoutVertical   = "vertical"   // output stacked below the editor
)

// Preview defaults.
const (
	DefaultAlt        = "Typst rendering result"
	DefaultAssetsBase = "/docs/attachments/"
)

// MaxBoilerplateSize caps each hidden prefix/suffix (64KB).
const MaxBoilerplateSize = 64 << 10

// PreviewConfig configures one preview instance.
type PreviewConfig struct {
	Code       string // visible source; trimmed for display
	Image      string // fallback asset, relative to AssetsBase or absolute
	Alt        string // display alt text (default: DefaultAlt)
	Layout     string // LayoutHorizontal (default) or LayoutVertical
	Editable   bool   // whether the user may edit the code
	Prefix     string // hidden text compiled before Code
	Suffix     string // hidden text compiled after Code
	AssetsBase string // base for relative Image paths (default: DefaultAssetsBase)
}

// Validate checks that the configuration is usable.
// Does not mutate - uses case-insensitive comparison.
func (p *PreviewConfig) Validate() error {
	if p == nil {
		return nil
	}
	switch strings.ToLower(p.Layout) {
	case "", LayoutHorizontal, LayoutVertical:
	default:
		return fmt.Errorf("%w: %q (must be horizontal or vertical)", ErrInvalidLayout, p.Layout)
	}
	if len(p.Prefix) > MaxBoilerplateSize {
		return fmt.Errorf("%w: prefix is %d bytes (max %d)", ErrBoilerplateTooBig, len(p.Prefix), MaxBoilerplateSize)
	}
	if len(p.Suffix) > MaxBoilerplateSize {
		return fmt.Errorf("%w: suffix is %d bytes (max %d)", ErrBoilerplateTooBig, len(p.Suffix), MaxBoilerplateSize)
	}
	return nil
}

// withDefaults returns a copy with empty fields defaulted and the code
// trimmed the way it is displayed.
func (p PreviewConfig) withDefaults() PreviewConfig {
	p.Code = strings.TrimSpace(p.Code)
	if p.Alt == "" {
		p.Alt = DefaultAlt
	}
	p.Layout = strings.ToLower(p.Layout)
	if p.Layout == "" {
		p.Layout = LayoutHorizontal
	}
	if p.AssetsBase == "" {
		p.AssetsBase = DefaultAssetsBase
	}
	return p
}

// Snapshot is an immutable copy of a controller's displayed state.
type Snapshot struct {
	Seq           uint64       `json:"seq"`           // sequence number of the applied result
	Snippet       string       `json:"snippet"`       // visible source text
	Image         string       `json:"image"`         // last applied SVG, dimensions stripped
	Diagnostic    *Diagnostic  `json:"diagnostic"`    // effective error after precedence
	Pending       bool         `json:"pending"`       // latest request not yet settled
	FirstCompiled bool         `json:"firstCompiled"` // a compile has completed at least once
	SessionState  SessionState `json:"-"`
	State         string       `json:"state"` // SessionState.String()
	Editable      bool         `json:"editable"`
	Fallback      string       `json:"fallback"` // resolved fallback asset URL
	Alt           string       `json:"alt"`
	Layout        string       `json:"layout"`
}
