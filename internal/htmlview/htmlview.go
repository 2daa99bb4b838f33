// Package htmlview renders preview widgets, pages and the page index to
// HTML from the embedded (or overridden) asset templates.
package htmlview

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"strconv"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	typstlive "github.com/alnah/go-typstlive"
	"github.com/alnah/go-typstlive/internal/assets"
	"github.com/alnah/go-typstlive/internal/docs"
)

// ErrTemplate indicates a template failed to parse or execute.
var ErrTemplate = errors.New("template error")

// DefaultCodeStyle is the chroma style of static code views.
const DefaultCodeStyle = "github"

// placeholderPattern matches the element docs.PageRenderer leaves for
// each preview.
var placeholderPattern = regexp.MustCompile(`<div[^>]*\bdata-preview="(\d+)"[^>]*></div>`)

// Output is the template data of a preview's output area.
type Output struct {
	Kind        string
	SVG         template.HTML
	FallbackURL string
	Alt         string
	Text        string
	Error       *typstlive.ErrorOverlay
}

// Widget is the template data of one preview.
type Widget struct {
	ID       string
	Layout   string
	Static   bool // read-only block shown as highlighted code
	Editable bool
	Code     string
	CodeHTML template.HTML
	Output   Output
}

// IndexEntry is one row of the page index.
type IndexEntry struct {
	Name     string
	URL      string
	Previews int
}

type pageData struct {
	Title     string
	Style     template.CSS
	CodeStyle template.CSS
	Script    template.JS
	Body      template.HTML
}

type indexData struct {
	Title string
	Style template.CSS
	Pages []IndexEntry
}

// Renderer executes the HTML templates. Safe for concurrent use.
type Renderer struct {
	tmpl      *template.Template
	style     template.CSS
	codeStyle template.CSS
	script    template.JS

	lexer     chroma.Lexer
	formatter *chromahtml.Formatter
	chroma    *chroma.Style
}

// New loads the default template set, style and script from loader.
func New(loader assets.AssetLoader) (*Renderer, error) {
	set, err := loader.LoadTemplateSet(assets.DefaultTemplateSetName)
	if err != nil {
		return nil, err
	}
	style, err := loader.LoadStyle(assets.DefaultStyleName)
	if err != nil {
		return nil, err
	}
	script, err := loader.LoadScript(assets.DefaultScriptName)
	if err != nil {
		return nil, err
	}

	tmpl, err := parseSet(set)
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		tmpl:      tmpl,
		style:     template.CSS(style), // #nosec G203 -- loaded from trusted assets
		script:    template.JS(script), // #nosec G203 -- loaded from trusted assets
		lexer:     typstLexer(),
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
		chroma:    styles.Get(DefaultCodeStyle),
	}

	var css bytes.Buffer
	if err := r.formatter.WriteCSS(&css, r.chroma); err != nil {
		return nil, fmt.Errorf("%w: code style: %v", ErrTemplate, err)
	}
	r.codeStyle = template.CSS(css.String()) // #nosec G203 -- generated by chroma
	return r, nil
}

func parseSet(set *assets.TemplateSet) (*template.Template, error) {
	root := template.New("page")
	if _, err := root.Parse(set.Page); err != nil {
		return nil, fmt.Errorf("%w: page: %v", ErrTemplate, err)
	}
	if _, err := root.New("index").Parse(set.Index); err != nil {
		return nil, fmt.Errorf("%w: index: %v", ErrTemplate, err)
	}
	if _, err := root.New("widget").Parse(set.Widget); err != nil {
		return nil, fmt.Errorf("%w: widget: %v", ErrTemplate, err)
	}
	if root.Lookup("output") == nil {
		return nil, fmt.Errorf("%w: widget template must define \"output\"", ErrTemplate)
	}
	return root, nil
}

// typstLexer returns a Typst lexer when chroma has one, plain text
// otherwise.
func typstLexer() chroma.Lexer {
	l := lexers.Get("typst")
	if l == nil {
		l = lexers.Fallback
	}
	return chroma.Coalesce(l)
}

// OutputData projects a View onto template data.
func OutputData(v typstlive.View) Output {
	return Output{
		Kind:        v.Kind.String(),
		SVG:         template.HTML(v.SVG), // #nosec G203 -- validated compiler output
		FallbackURL: v.FallbackURL,
		Alt:         v.Alt,
		Text:        v.Text,
		Error:       v.Error,
	}
}

// Code renders source as a highlighted, read-only code block.
func (r *Renderer) Code(src string) (template.HTML, error) {
	it, err := r.lexer.Tokenise(nil, src)
	if err != nil {
		return "", fmt.Errorf("%w: highlighting: %v", ErrTemplate, err)
	}
	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, r.chroma, it); err != nil {
		return "", fmt.Errorf("%w: highlighting: %v", ErrTemplate, err)
	}
	return template.HTML(buf.String()), nil // #nosec G203 -- chroma escapes tokens
}

// Widget renders one preview from its snapshot. static selects the
// highlighted code view for blocks that are never editable.
func (r *Renderer) Widget(id string, snap typstlive.Snapshot, static bool) (template.HTML, error) {
	w := Widget{
		ID:       id,
		Layout:   snap.Layout,
		Static:   static,
		Editable: snap.Editable,
		Code:     snap.Snippet,
		Output:   OutputData(typstlive.Render(snap)),
	}
	if w.Layout == "" {
		w.Layout = typstlive.LayoutHorizontal
	}
	if static {
		code, err := r.Code(snap.Snippet)
		if err != nil {
			return "", err
		}
		w.CodeHTML = code
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "widget", w); err != nil {
		return "", fmt.Errorf("%w: widget: %v", ErrTemplate, err)
	}
	return template.HTML(buf.String()), nil // #nosec G203 -- produced by html/template
}

// Output renders only the output area of a snapshot, the fragment pushed
// to live widgets.
func (r *Renderer) Output(snap typstlive.Snapshot) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "output", OutputData(typstlive.Render(snap))); err != nil {
		return "", fmt.Errorf("%w: output: %v", ErrTemplate, err)
	}
	return buf.String(), nil
}

// Page writes a complete document, replacing each preview placeholder in
// page.HTML with widgets[i]. Placeholders without a widget are removed.
// withScript controls whether the live-update script is included.
func (r *Renderer) Page(w io.Writer, page *docs.RenderedPage, widgets []template.HTML, withScript bool) error {
	body := placeholderPattern.ReplaceAllStringFunc(page.HTML, func(m string) string {
		sub := placeholderPattern.FindStringSubmatch(m)
		i, err := strconv.Atoi(sub[1])
		if err != nil || i < 0 || i >= len(widgets) {
			return ""
		}
		return string(widgets[i])
	})

	data := pageData{
		Title:     page.Title,
		Style:     r.style,
		CodeStyle: r.codeStyle,
		Body:      template.HTML(body), // #nosec G203 -- sanitized page plus template output
	}
	if data.Title == "" {
		data.Title = "Typst previews"
	}
	if withScript {
		data.Script = r.script
	}

	if err := r.tmpl.ExecuteTemplate(w, "page", data); err != nil {
		return fmt.Errorf("%w: page: %v", ErrTemplate, err)
	}
	return nil
}

// Index writes the page list.
func (r *Renderer) Index(w io.Writer, title string, entries []IndexEntry) error {
	data := indexData{Title: title, Style: r.style, Pages: entries}
	if err := r.tmpl.ExecuteTemplate(w, "index", data); err != nil {
		return fmt.Errorf("%w: index: %v", ErrTemplate, err)
	}
	return nil
}
