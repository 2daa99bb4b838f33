package typstlive

import (
	"net/url"
	"strings"
)

// ViewKind is the main area shown for a preview. Exactly one applies.
type ViewKind int

const (
	ViewEmpty ViewKind = iota
	ViewLoading
	ViewImage
	ViewFallback
)

func (k ViewKind) String() string {
	switch k {
	case ViewLoading:
		return "loading"
	case ViewImage:
		return "image"
	case ViewFallback:
		return "fallback"
	}
	return "empty"
}

// MarshalText encodes the kind by name.
func (k ViewKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name; unknown names are empty.
func (k *ViewKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "loading":
		*k = ViewLoading
	case "image":
		*k = ViewImage
	case "fallback":
		*k = ViewFallback
	default:
		*k = ViewEmpty
	}
	return nil
}

// EmptyText is displayed when there is nothing else to show.
const EmptyText = "No output image"

// ErrorOverlay is the collapsible error panel. Summary is shown collapsed,
// Message once expanded.
type ErrorOverlay struct {
	Summary string `json:"summary"`
	Message string `json:"message"`
}

// View is what the output area displays for a snapshot.
type View struct {
	Kind        ViewKind      `json:"kind"`
	SVG         string        `json:"svg,omitempty"`
	FallbackURL string        `json:"fallbackUrl,omitempty"`
	Alt         string        `json:"alt,omitempty"`
	Text        string        `json:"text,omitempty"`
	Error       *ErrorOverlay `json:"error,omitempty"`
}

// Render projects a snapshot onto the output area. Precedence:
// loading, then image, then fallback (only without a live compiler),
// then empty. The error overlay is decided independently.
func Render(s Snapshot) View {
	v := View{Alt: s.Alt}
	if v.Alt == "" {
		v.Alt = DefaultAlt
	}

	awaiting := s.Pending || s.SessionState == StateLoading
	switch {
	case awaiting && !s.FirstCompiled:
		v.Kind = ViewLoading
	case s.Image != "":
		v.Kind = ViewImage
		v.SVG = s.Image
	case s.SessionState != StateReady && s.Fallback != "":
		v.Kind = ViewFallback
		v.FallbackURL = s.Fallback
	default:
		v.Kind = ViewEmpty
		v.Text = EmptyText
	}

	if s.Diagnostic != nil {
		msg := Format(*s.Diagnostic)
		v.Error = &ErrorOverlay{
			Summary: summarize(msg),
			Message: msg,
		}
	}
	return v
}

// summarize keeps the first line of a formatted diagnostic.
func summarize(msg string) string {
	first, _, _ := strings.Cut(msg, "\n")
	return strings.TrimSpace(first)
}

// ResolveAssetPath maps a fallback image reference to a URL. Absolute paths
// and URLs with a scheme are returned unchanged; anything else is joined
// onto base. An empty ref yields "".
func ResolveAssetPath(ref, base string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "/") {
		return ref
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		return ref
	}
	if base == "" {
		base = DefaultAssetsBase
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(ref, "./")
}
