package docs

import (
	"fmt"
	"strings"
)

// Recognised fence languages.
var previewLanguages = map[string]bool{
	"typst": true,
	"typ":   true,
}

// blockAttrs is the parsed info string of a preview fence.
type blockAttrs struct {
	values map[string]string
	flags  map[string]bool
}

// parseInfo splits a fence info string into key=value pairs and bare
// flags. The first word is the language and is skipped. Values may be
// double-quoted to contain spaces; \" escapes a quote inside them.
func parseInfo(info string) (blockAttrs, error) {
	attrs := blockAttrs{values: map[string]string{}, flags: map[string]bool{}}

	words, err := splitWords(info)
	if err != nil {
		return attrs, err
	}
	if len(words) > 0 {
		words = words[1:]
	}

	for _, w := range words {
		key, value, ok := strings.Cut(w, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		if ok {
			attrs.values[key] = value
		} else {
			attrs.flags[key] = true
		}
	}
	return attrs, nil
}

func splitWords(s string) ([]string, error) {
	var (
		words   []string
		cur     strings.Builder
		inQuote bool
		started bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote && c == '\\' && i+1 < len(s) && s[i+1] == '"':
			cur.WriteByte('"')
			i++
		case c == '"':
			inQuote = !inQuote
			started = true
		case !inQuote && (c == ' ' || c == '\t'):
			if started {
				words = append(words, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteByte(c)
			started = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("%w: %q", ErrUnclosedQuote, s)
	}
	if started {
		words = append(words, cur.String())
	}
	return words, nil
}

// hiddenMarker prefixes boilerplate lines.
const hiddenMarker = ">>>"

// splitHidden separates leading and trailing hidden lines from the visible
// code. Hidden lines lose their marker and one following space.
func splitHidden(code string) (prefix, visible, suffix string) {
	lines := strings.Split(strings.TrimSuffix(code, "\n"), "\n")

	start := 0
	for start < len(lines) && isHidden(lines[start]) {
		start++
	}
	end := len(lines)
	for end > start && isHidden(lines[end-1]) {
		end--
	}

	if start > 0 {
		prefix = unhide(lines[:start]) + "\n"
	}
	if end < len(lines) {
		suffix = "\n" + unhide(lines[end:])
	}
	visible = strings.Join(lines[start:end], "\n")
	return prefix, visible, suffix
}

func isHidden(line string) bool {
	return strings.HasPrefix(line, hiddenMarker)
}

func unhide(lines []string) string {
	out := make([]string, len(lines))
	for i, l := range lines {
		l = strings.TrimPrefix(l, hiddenMarker)
		out[i] = strings.TrimPrefix(l, " ")
	}
	return strings.Join(out, "\n")
}
