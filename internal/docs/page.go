package docs

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// previewAttr is the AST attribute holding a fence's preview index.
const previewAttr = "typstlive-preview"

// PlaceholderClass marks the element each preview widget replaces.
const PlaceholderClass = "typst-preview"

// RenderedPage is a page converted to an HTML fragment.
type RenderedPage struct {
	Title  string  // text of the first level-1 heading, if any
	HTML   string  // sanitized body fragment with preview placeholders
	Blocks []Block // previews, Blocks[i] belongs to data-preview="i"
}

// PageRenderer converts Markdown pages to HTML. Ordinary code blocks are
// highlighted, preview fences become
// <div class="typst-preview" data-preview="N"></div>. Raw HTML in the
// page is kept but sanitized. Safe for concurrent use.
type PageRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewPageRenderer creates a PageRenderer with GFM extensions and
// class-based syntax highlighting.
func NewPageRenderer() *PageRenderer {
	return &PageRenderer{
		md:     newMarkdown(true),
		policy: newPolicy(),
	}
}

var (
	scanMarkdownOnce sync.Once
	scanMarkdown     goldmark.Markdown
)

// defaultMarkdown is the parser shared by Scan. It must agree with the
// renderer's parser on block structure so indexes line up.
func defaultMarkdown() goldmark.Markdown {
	scanMarkdownOnce.Do(func() { scanMarkdown = newMarkdown(false) })
	return scanMarkdown
}

func newMarkdown(render bool) goldmark.Markdown {
	opts := []goldmark.Option{
		goldmark.WithExtensions(
			extension.GFM,      // Tables, strikethrough, autolinks, task lists
			extension.Footnote, // [^1] footnotes
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	}
	if render {
		opts = append(opts,
			goldmark.WithParserOptions(
				parser.WithASTTransformers(util.Prioritized(previewIndexer{}, 100)),
			),
			goldmark.WithRendererOptions(
				html.WithXHTML(),
				// Pages converted from HTML docs carry raw <details> and
				// <table> markup; the sanitizer runs afterwards.
				html.WithUnsafe(),
				renderer.WithNodeRenderers(util.Prioritized(&previewRenderer{}, 100)),
			),
		)
	}
	return goldmark.New(opts...)
}

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowDataAttributes()
	p.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	return p
}

// Render converts a Markdown page. It honours ctx with the goroutine and
// select pattern because goldmark has no context support.
func (r *PageRenderer) Render(ctx context.Context, src []byte) (*RenderedPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(src) > MaxPageSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPageTooLarge, len(src), MaxPageSize)
	}

	type result struct {
		page *RenderedPage
		err  error
	}
	done := make(chan result, 1)

	go func() {
		page, err := r.render(normalize(src))
		done <- result{page: page, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.page, res.err
	}
}

func (r *PageRenderer) render(src []byte) (*RenderedPage, error) {
	doc := r.md.Parser().Parse(text.NewReader(src))

	blocks, err := collectBlocks(doc, src)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageRender, err)
	}

	return &RenderedPage{
		Title:  pageTitle(doc, src),
		HTML:   r.policy.Sanitize(buf.String()),
		Blocks: blocks,
	}, nil
}

// pageTitle returns the text of the first level-1 heading.
func pageTitle(doc ast.Node, src []byte) string {
	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 {
			return ast.WalkContinue, nil
		}
		title = inlineText(h, src)
		return ast.WalkStop, nil
	})
	return title
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := c.(*ast.Text); ok {
				b.Write(t.Segment.Value(src))
				if t.SoftLineBreak() {
					b.WriteByte(' ')
				}
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// previewIndexer tags preview fences with their index.
type previewIndexer struct{}

func (previewIndexer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	walkPreviews(doc, reader.Source(), func(i int, n *ast.FencedCodeBlock) {
		n.SetAttributeString(previewAttr, i)
	})
}

// previewRenderer renders tagged fences as placeholders and hands every
// other fence to the highlighting renderer.
type previewRenderer struct {
	code renderer.NodeRendererFunc
}

type registerFunc func(ast.NodeKind, renderer.NodeRendererFunc)

func (f registerFunc) Register(k ast.NodeKind, fn renderer.NodeRendererFunc) { f(k, fn) }

func (r *previewRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	inner := highlighting.NewHTMLRenderer(
		highlighting.WithFormatOptions(
			chromahtml.WithClasses(true),
		),
	)
	inner.RegisterFuncs(registerFunc(func(k ast.NodeKind, fn renderer.NodeRendererFunc) {
		if k == ast.KindFencedCodeBlock {
			r.code = fn
			return
		}
		reg.Register(k, fn)
	}))
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *previewRenderer) renderFencedCodeBlock(w util.BufWriter, src []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	idx, ok := n.AttributeString(previewAttr)
	if !ok {
		return r.code(w, src, n, entering)
	}
	if entering {
		fmt.Fprintf(w, "<div class=%q data-preview=\"%d\"></div>\n", PlaceholderClass, idx)
	}
	return ast.WalkSkipChildren, nil
}
