package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	typstlive "github.com/alnah/go-typstlive"
)

func TestRunWatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "doc.typ")
	output := filepath.Join(dir, "doc.svg")
	writeFile(t, input, "= One")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr syncBuffer
	done := make(chan error, 1)
	go func() { done <- runWatch(ctx, []string{input}, testEnv(&stdout, &stderr)) }()

	readOutput := func() string {
		data, _ := os.ReadFile(output)
		return string(data)
	}
	eventually(t, "first render", func() bool { return strings.Contains(readOutput(), "= One") })

	writeFile(t, input, "= Two")
	eventually(t, "re-render after save", func() bool { return strings.Contains(readOutput(), "= Two") })

	writeFile(t, input, "#(")
	eventually(t, "diagnostic", func() bool { return strings.Contains(stderr.String(), "unclosed delimiter") })

	cancel()
	if err := <-done; err != nil {
		t.Errorf("runWatch() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "rendered") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRunWatch_MissingFile(t *testing.T) {
	t.Parallel()

	var stdout, stderr syncBuffer
	err := runWatch(context.Background(), []string{filepath.Join(t.TempDir(), "nope.typ")}, testEnv(&stdout, &stderr))
	if exitCodeFor(err) != ExitIO {
		t.Errorf("runWatch() = %v, want I/O error", err)
	}
}

func TestWatchReporter(t *testing.T) {
	t.Parallel()

	var out, errOut syncBuffer
	path := filepath.Join(t.TempDir(), "x.svg")
	w := &watchReporter{out: &out, errOut: &errOut, output: path, pal: newPalette(&out)}

	steps := []typstlive.Snapshot{
		{Seq: 0, Pending: true},
		{Seq: 1, FirstCompiled: true, Image: "<svg/>"},
		{Seq: 1, FirstCompiled: true, Image: "<svg/>"},
		{Seq: 2, FirstCompiled: true, Pending: true, Image: "<svg/>"},
		{Seq: 2, FirstCompiled: true, Image: "<svg/>", Diagnostic: &typstlive.Diagnostic{Message: "bad"}},
	}
	for _, s := range steps {
		if err := w.report(s); err != nil {
			t.Fatalf("report() error = %v", err)
		}
	}

	if n := strings.Count(out.String(), "rendered"); n != 1 {
		t.Errorf("rendered %d times, want 1 (duplicates and pending skipped)", n)
	}
	if !strings.Contains(errOut.String(), "bad") {
		t.Errorf("diagnostic not reported: %q", errOut.String())
	}
	if data, _ := os.ReadFile(path); string(data) != "<svg/>" {
		t.Errorf("output = %q, want last good render kept", data)
	}
}
