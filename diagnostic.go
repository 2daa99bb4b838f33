package typstlive

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// genericFailure is shown when a failure carries no usable text.
const genericFailure = "compilation failed"

// unknownError is the last-resort display text of Format.
const unknownError = "unknown error"

// ErrorKind classifies where a Diagnostic came from.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindEngineUnavailable
	KindEngineInitFailed
	KindCompileFailure
	KindMalformedOutput
)

func (k ErrorKind) String() string {
	switch k {
	case KindEngineUnavailable:
		return "engine-unavailable"
	case KindEngineInitFailed:
		return "engine-init-failed"
	case KindCompileFailure:
		return "compile-failure"
	case KindMalformedOutput:
		return "malformed-output"
	}
	return "unknown"
}

// DiagnosticItem is one located message reported by the engine.
// Line and Column are 1-based; zero means unknown.
type DiagnosticItem struct {
	Severity string   `json:"severity"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
	Message  string   `json:"message"`
	Hints    []string `json:"hints,omitempty"`
}

// Diagnostic is a normalized failure ready for display.
type Diagnostic struct {
	Kind    ErrorKind        `json:"-"`
	Message string           `json:"message"`
	Items   []DiagnosticItem `json:"items,omitempty"`
}

// shortDiagLine matches typst's --diagnostic-format short output:
//
//	main.typ:1:6: error: unexpected token
var shortDiagLine = regexp.MustCompile(`^(.*?):(\d+):(\d+): (error|warning): (.*)$`)

// Normalize turns any failure value into a Diagnostic. It has no side
// effects and accepts nil.
func Normalize(failure any) Diagnostic {
	switch f := failure.(type) {
	case nil:
		return Diagnostic{Message: genericFailure}
	case Diagnostic:
		return f
	case *Diagnostic:
		if f == nil {
			return Diagnostic{Message: genericFailure}
		}
		return *f
	case *CompileError:
		d := Normalize(f.Raw)
		d.Kind = KindCompileFailure
		return d
	case *EngineError:
		return normalizeEngineError(f)
	case map[string]any:
		return normalizeMap(f)
	case error:
		return normalizeError(f)
	case string:
		return Diagnostic{Message: orFallback(f)}
	case fmt.Stringer:
		return Diagnostic{Message: orFallback(safeString(f))}
	default:
		text := fmt.Sprintf("%v", f)
		if strings.TrimSpace(text) == "" {
			return Diagnostic{Message: genericFailure}
		}
		return Diagnostic{Message: genericFailure + ": " + text}
	}
}

func normalizeError(err error) Diagnostic {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		d := Normalize(compileErr.Raw)
		d.Kind = KindCompileFailure
		return d
	}

	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		d := normalizeEngineError(engineErr)
		d.Kind = kindOf(err, d.Kind)
		return d
	}

	return Diagnostic{
		Kind:    kindOf(err, KindUnknown),
		Message: orFallback(err.Error()),
	}
}

func kindOf(err error, fallback ErrorKind) ErrorKind {
	switch {
	case errors.Is(err, ErrEngineInitFailed):
		return KindEngineInitFailed
	case errors.Is(err, ErrEngineUnavailable):
		return KindEngineUnavailable
	case errors.Is(err, ErrMalformedOutput):
		return KindMalformedOutput
	case errors.Is(err, ErrCompileFailure):
		return KindCompileFailure
	}
	return fallback
}

// normalizeEngineError parses typst stderr into located items. Lines that
// don't match the short format are kept as unlocated messages.
func normalizeEngineError(e *EngineError) Diagnostic {
	d := Diagnostic{Kind: KindCompileFailure}
	if e == nil {
		d.Message = genericFailure
		return d
	}

	for _, raw := range strings.Split(e.Stderr, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if hint, ok := strings.CutPrefix(line, "hint: "); ok && len(d.Items) > 0 {
			last := &d.Items[len(d.Items)-1]
			last.Hints = append(last.Hints, hint)
			continue
		}
		if m := shortDiagLine.FindStringSubmatch(line); m != nil {
			lineNo, _ := strconv.Atoi(m[2])
			col, _ := strconv.Atoi(m[3])
			d.Items = append(d.Items, DiagnosticItem{
				Severity: m[4],
				File:     m[1],
				Line:     lineNo,
				Column:   col,
				Message:  m[5],
			})
			continue
		}
		d.Items = append(d.Items, DiagnosticItem{Severity: "error", Message: line})
	}

	d.Message = firstError(d.Items)
	if d.Message == "" {
		d.Message = e.Error()
	}
	return d
}

// normalizeMap handles JSON-shaped engine errors such as
// {"message": "unexpected token", "line": 1, "column": 5}.
func normalizeMap(m map[string]any) Diagnostic {
	msg, _ := m["message"].(string)
	if msg == "" {
		if s, ok := m["error"].(string); ok {
			msg = s
		}
	}
	if strings.TrimSpace(msg) == "" {
		return Diagnostic{Kind: KindCompileFailure, Message: genericFailure + ": " + fmt.Sprintf("%v", m)}
	}

	item := DiagnosticItem{
		Severity: "error",
		Line:     intField(m, "line"),
		Column:   intField(m, "column"),
		Message:  msg,
	}
	if file, ok := m["file"].(string); ok {
		item.File = file
	}
	if hints, ok := m["hints"].([]any); ok {
		for _, h := range hints {
			if s, ok := h.(string); ok {
				item.Hints = append(item.Hints, s)
			}
		}
	}

	return Diagnostic{
		Kind:    KindCompileFailure,
		Message: msg,
		Items:   []DiagnosticItem{item},
	}
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func firstError(items []DiagnosticItem) string {
	for _, it := range items {
		if it.Severity == "error" && it.Message != "" {
			return it.Message
		}
	}
	if len(items) > 0 {
		return items[0].Message
	}
	return ""
}

func orFallback(s string) string {
	if strings.TrimSpace(s) == "" {
		return genericFailure
	}
	return s
}

// safeString calls String on values whose implementation may panic.
func safeString(s fmt.Stringer) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = ""
		}
	}()
	return s.String()
}

// Format renders a Diagnostic as the exact text shown to the user.
// It never panics and never returns an empty string.
func Format(d Diagnostic) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = unknownError
		}
	}()

	if len(d.Items) == 0 {
		if msg := strings.TrimSpace(d.Message); msg != "" {
			return msg
		}
		return unknownError
	}

	var b strings.Builder
	for i, it := range d.Items {
		if i > 0 {
			b.WriteByte('\n')
		}
		if it.Line > 0 {
			fmt.Fprintf(&b, "%d:%d: ", it.Line, it.Column)
		}
		if it.Severity != "" && it.Severity != "error" {
			b.WriteString(it.Severity)
			b.WriteString(": ")
		}
		b.WriteString(it.Message)
		for _, h := range it.Hints {
			b.WriteString("\n  hint: ")
			b.WriteString(h)
		}
	}

	if out = strings.TrimSpace(b.String()); out == "" {
		return unknownError
	}
	return out
}

// String implements fmt.Stringer using Format.
func (d Diagnostic) String() string {
	return Format(d)
}
