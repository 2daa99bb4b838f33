package docs

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	typstlive "github.com/alnah/go-typstlive"
	"github.com/alnah/go-typstlive/internal/fileutil"
)

// MaxPageSize caps the size of a single Markdown page (10MB).
const MaxPageSize = 10 << 20

var crlfOrCR = regexp.MustCompile(`\r\n?`)

// Block is one preview found in a page.
type Block struct {
	Index   int                     // 0-based position among the page's previews
	Line    int                     // 1-based line of the opening fence
	Preview typstlive.PreviewConfig // AssetsBase is left for the caller
}

// Page is a scanned Markdown file.
type Page struct {
	Path   string  // path on disk
	Rel    string  // slash-separated path relative to the scanned root
	Blocks []Block // previews in document order
}

// Scan returns the preview blocks of a Markdown document in order.
// Fences of other languages are ignored.
func Scan(src []byte) ([]Block, error) {
	src = normalize(src)
	doc := defaultMarkdown().Parser().Parse(text.NewReader(src))
	return collectBlocks(doc, src)
}

// normalize converts \r\n and \r to \n so line numbers and hidden
// markers behave the same on every platform.
func normalize(src []byte) []byte {
	if !bytes.ContainsRune(src, '\r') {
		return src
	}
	return crlfOrCR.ReplaceAll(src, []byte("\n"))
}

// walkPreviews calls fn for each preview fence under root, in order.
func walkPreviews(root ast.Node, src []byte, fn func(i int, n *ast.FencedCodeBlock)) {
	i := 0
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fenced, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		if previewLanguages[strings.ToLower(string(fenced.Language(src)))] {
			fn(i, fenced)
			i++
		}
		return ast.WalkSkipChildren, nil
	})
}

func collectBlocks(doc ast.Node, src []byte) ([]Block, error) {
	var (
		blocks []Block
		errs   error
	)
	walkPreviews(doc, src, func(i int, n *ast.FencedCodeBlock) {
		if errs != nil {
			return
		}
		b, err := blockFromNode(i, n, src)
		if err != nil {
			errs = err
			return
		}
		blocks = append(blocks, b)
	})
	if errs != nil {
		return nil, errs
	}
	return blocks, nil
}

func blockFromNode(i int, n *ast.FencedCodeBlock, src []byte) (Block, error) {
	// Language() matched, so Info is set.
	seg := n.Info.Segment
	line := bytes.Count(src[:seg.Start], []byte("\n")) + 1

	attrs, err := parseInfo(string(seg.Value(src)))
	if err != nil {
		return Block{}, fmt.Errorf("%w: line %d: %v", ErrInvalidBlock, line, err)
	}

	var code bytes.Buffer
	lines := n.Lines()
	for j := 0; j < lines.Len(); j++ {
		l := lines.At(j)
		code.Write(l.Value(src))
	}
	prefix, visible, suffix := splitHidden(code.String())

	cfg := typstlive.PreviewConfig{
		Code:     visible,
		Image:    attrs.values["image"],
		Alt:      attrs.values["alt"],
		Layout:   attrs.values["layout"],
		Editable: !attrs.flags["readonly"],
		Prefix:   prefix,
		Suffix:   suffix,
	}
	if err := cfg.Validate(); err != nil {
		return Block{}, fmt.Errorf("%w: line %d: %w", ErrInvalidBlock, line, err)
	}
	return Block{Index: i, Line: line, Preview: cfg}, nil
}

// ReadPage reads a Markdown file, refusing anything over MaxPageSize.
func ReadPage(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxPageSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) > MaxPageSize {
		return nil, fmt.Errorf("%w: %s (max %d bytes)", ErrPageTooLarge, path, MaxPageSize)
	}
	return data, nil
}

// ScanFile reads and scans one page.
func ScanFile(path string) (Page, error) {
	data, err := ReadPage(path)
	if err != nil {
		return Page{}, err
	}
	blocks, err := Scan(data)
	if err != nil {
		return Page{}, fmt.Errorf("%s: %w", path, err)
	}
	return Page{Path: path, Rel: filepath.ToSlash(filepath.Base(path)), Blocks: blocks}, nil
}

// ScanDir scans every Markdown file under root. A file path scans just that
// file. Pages come back in lexical order, including pages without previews.
func ScanDir(root string) ([]Page, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		p, err := ScanFile(root)
		if err != nil {
			return nil, err
		}
		return []Page{p}, nil
	}

	var pages []Page
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() || !fileutil.IsMarkdown(path) {
			return nil
		}
		p, err := ScanFile(path)
		if err != nil {
			return err
		}
		if rel, err := filepath.Rel(root, path); err == nil {
			p.Rel = filepath.ToSlash(rel)
		}
		pages = append(pages, p)
		return nil
	})
	return pages, err
}
