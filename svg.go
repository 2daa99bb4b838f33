package typstlive

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// svgRootMarker is the signature every engine result must start with.
const svgRootMarker = "<svg"

// ValidateSVG checks that an engine result is usable vector markup:
// non-empty, valid UTF-8 text, and starting with the <svg root tag after
// optional leading whitespace.
func ValidateSVG(out []byte) error {
	trimmed := bytes.TrimLeft(out, " \t\r\n")
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty result", ErrMalformedOutput)
	}
	if !utf8.Valid(out) {
		return fmt.Errorf("%w: result is not text", ErrMalformedOutput)
	}
	if !bytes.HasPrefix(trimmed, []byte(svgRootMarker)) {
		return fmt.Errorf("%w: result does not start with %s", ErrMalformedOutput, svgRootMarker)
	}
	return nil
}

// StripDimensions removes the width and height attributes of the root <svg>
// element so the surrounding layout controls the rendered size. Everything
// else, including the viewBox, is left byte-for-byte unchanged. Input
// without an <svg> start tag is returned as is.
func StripDimensions(svg string) string {
	z := html.NewTokenizer(strings.NewReader(svg))
	offset := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF or a tokenizer error: no root tag to rewrite.
			return svg
		}

		// Raw must be copied before TagName, which lower-cases in place.
		raw := string(z.Raw())

		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			name, _ := z.TagName()
			if string(name) == "svg" {
				end := offset + len(raw)
				if end > len(svg) {
					return svg
				}
				return svg[:offset] + stripSizeAttrs(raw) + svg[end:]
			}
		}
		offset += len(raw)
	}
}

// stripSizeAttrs rewrites a raw start tag without width/height attributes,
// keeping the original spelling of everything else.
func stripSizeAttrs(tag string) string {
	// tag starts with "<" + element name.
	i := 1
	for i < len(tag) && !isTagSpace(tag[i]) && tag[i] != '>' && tag[i] != '/' {
		i++
	}

	var b strings.Builder
	b.Grow(len(tag))
	b.WriteString(tag[:i])

	for i < len(tag) {
		wsStart := i
		for i < len(tag) && isTagSpace(tag[i]) {
			i++
		}
		if i >= len(tag) || tag[i] == '>' || tag[i] == '/' {
			b.WriteString(tag[wsStart:])
			return b.String()
		}

		nameStart := i
		for i < len(tag) && !isTagSpace(tag[i]) && tag[i] != '=' && tag[i] != '>' && tag[i] != '/' {
			i++
		}
		name := strings.ToLower(tag[nameStart:i])

		// Optional value.
		j := i
		for j < len(tag) && isTagSpace(tag[j]) {
			j++
		}
		if j < len(tag) && tag[j] == '=' {
			j++
			for j < len(tag) && isTagSpace(tag[j]) {
				j++
			}
			if j < len(tag) && (tag[j] == '"' || tag[j] == '\'') {
				quote := tag[j]
				j++
				for j < len(tag) && tag[j] != quote {
					j++
				}
				if j < len(tag) {
					j++
				}
			} else {
				for j < len(tag) && !isTagSpace(tag[j]) && tag[j] != '>' {
					j++
				}
			}
			i = j
		}

		if name == "width" || name == "height" {
			continue
		}
		b.WriteString(tag[wsStart:i])
	}
	return b.String()
}

func isTagSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
