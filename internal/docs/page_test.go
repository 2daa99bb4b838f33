package docs

import (
	"context"
	"strings"
	"testing"
)

func TestPageRenderer_Render(t *testing.T) {
	t.Parallel()

	r := NewPageRenderer()
	page, err := r.Render(context.Background(), []byte(samplePage))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if page.Title != "Shapes" {
		t.Errorf("Title = %q, want Shapes", page.Title)
	}
	if len(page.Blocks) != 2 {
		t.Fatalf("len(Blocks) = %d, want 2", len(page.Blocks))
	}

	for _, want := range []string{
		`<div class="typst-preview" data-preview="0"></div>`,
		`<div class="typst-preview" data-preview="1"></div>`,
		`class="chroma"`,
		`<code>rect</code>`,
	} {
		if !strings.Contains(page.HTML, want) {
			t.Errorf("HTML missing %q:\n%s", want, page.HTML)
		}
	}
	if strings.Contains(page.HTML, "#rect(fill: blue)") {
		t.Error("preview source leaked into page HTML")
	}
}

func TestPageRenderer_Sanitizes(t *testing.T) {
	t.Parallel()

	src := "# T\n\n<details><summary>More</summary>ok</details>\n\n<script>alert(1)</script>\n\n<a href=\"javascript:alert(1)\" onclick=\"x()\">link</a>\n"

	page, err := NewPageRenderer().Render(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(page.HTML, "<details>") {
		t.Errorf("raw details element dropped:\n%s", page.HTML)
	}
	for _, bad := range []string{"<script", "javascript:", "onclick"} {
		if strings.Contains(page.HTML, bad) {
			t.Errorf("HTML contains %q:\n%s", bad, page.HTML)
		}
	}
}

func TestPageRenderer_MatchesScan(t *testing.T) {
	t.Parallel()

	page, err := NewPageRenderer().Render(context.Background(), []byte(samplePage))
	if err != nil {
		t.Fatal(err)
	}
	blocks, err := Scan([]byte(samplePage))
	if err != nil {
		t.Fatal(err)
	}
	for i := range blocks {
		if page.Blocks[i] != blocks[i] {
			t.Errorf("block %d differs: %+v vs %+v", i, page.Blocks[i], blocks[i])
		}
	}
}

func TestPageRenderer_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewPageRenderer().Render(ctx, []byte("# x")); err != context.Canceled {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}

func TestPageRenderer_InvalidBlock(t *testing.T) {
	t.Parallel()

	_, err := NewPageRenderer().Render(context.Background(), []byte("```typst layout=nope\nx\n```\n"))
	if err == nil {
		t.Error("Render() accepted an invalid block")
	}
}
