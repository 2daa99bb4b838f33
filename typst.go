package typstlive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-typstlive/internal/fileutil"
	"github.com/alnah/go-typstlive/internal/hints"
	"github.com/alnah/go-typstlive/internal/process"
)

// Compile-time interface check.
var _ Engine = (*TypstEngine)(nil)

// Scratch file names inside each per-compile work dir.
const (
	sourceFile    = "main.typ"
	outputPattern = "page-{p}.svg"
	firstPage     = "page-1.svg"
)

// waitDelay bounds how long a killed engine may hold its output pipes.
const waitDelay = 2 * time.Second

// RunResult is the outcome of a process that ran to completion.
type RunResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// CommandRunner abstracts command execution to enable testing without real
// subprocesses. A non-zero exit is reported through ExitCode, not err; err
// is reserved for failures to run at all and for ctx cancellation.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (RunResult, error)
}

// ExecRunner implements CommandRunner using os/exec. Each process gets its
// own process group, killed as a whole when ctx is done.
type ExecRunner struct{}

func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (RunResult, error) {
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- binary is user-configured
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay
	process.Configure(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := RunResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("running %s: %w", name, err)
	}
	return res, nil
}

// TypstEngine compiles snippets with the typst CLI. Every compile gets a
// private scratch directory, so concurrent compiles never share files.
type TypstEngine struct {
	Bin       string   // binary name or path (default: "typst")
	Root      string   // --root; also hosts scratch dirs when WorkDir is empty
	FontPaths []string // extra --font-path entries
	WorkDir   string   // parent of scratch dirs (default: Root, then os.TempDir)

	Runner   CommandRunner
	LookPath func(file string) (string, error)
	Logger   *slog.Logger
}

// NewTypstEngine creates an engine using the real command runner.
func NewTypstEngine(bin string) *TypstEngine {
	return &TypstEngine{
		Bin:      bin,
		Runner:   &ExecRunner{},
		LookPath: exec.LookPath,
	}
}

// Probe locates the binary and asks it for its version.
func (e *TypstEngine) Probe(ctx context.Context) (path, version string, err error) {
	bin := e.Bin
	if bin == "" {
		bin = "typst"
	}
	lookPath := e.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	path, err = lookPath(bin)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s%s", ErrEngineNotFound, bin, hints.ForEngineNotFound())
	}

	res, err := e.runner().Run(ctx, "", path, "--version")
	if err != nil {
		return path, "", fmt.Errorf("probing %s: %w", path, err)
	}
	if res.ExitCode != 0 {
		return path, "", fmt.Errorf("probing %s: %w", path, &EngineError{ExitCode: res.ExitCode, Stderr: string(res.Stderr)})
	}
	return path, strings.TrimSpace(string(res.Stdout)), nil
}

// Load implements Engine. It fails when the binary is missing or does not
// answer --version.
func (e *TypstEngine) Load(ctx context.Context) (CompileFunc, error) {
	path, version, err := e.Probe(ctx)
	if err != nil {
		return nil, err
	}
	e.logger().Info("typst engine loaded", "bin", path, "version", version)

	return func(ctx context.Context, source string) ([]byte, error) {
		return e.compile(ctx, path, source)
	}, nil
}

func (e *TypstEngine) compile(ctx context.Context, bin, source string) ([]byte, error) {
	dir, cleanup, err := fileutil.MakeWorkDir(e.scratchParent())
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if err := os.WriteFile(filepath.Join(dir, sourceFile), []byte(source), 0o600); err != nil {
		return nil, fmt.Errorf("writing source: %w", err)
	}

	res, err := e.runner().Run(ctx, dir, bin, e.compileArgs(dir)...)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, &EngineError{ExitCode: res.ExitCode, Stderr: string(res.Stderr)}
	}
	if len(res.Stderr) > 0 {
		e.logger().Debug("typst warnings", "stderr", strings.TrimSpace(string(res.Stderr)))
	}

	out, err := os.ReadFile(filepath.Join(dir, firstPage)) // #nosec G304 -- path inside our scratch dir
	if err != nil {
		return nil, fmt.Errorf("%w: no first page: %v", ErrMalformedOutput, err)
	}
	return out, nil
}

func (e *TypstEngine) compileArgs(dir string) []string {
	root := e.Root
	if root == "" {
		root = dir
	}
	args := []string{
		"compile",
		"--format", "svg",
		"--diagnostic-format", "short",
		"--root", root,
	}
	for _, fp := range e.FontPaths {
		args = append(args, "--font-path", fp)
	}
	return append(args, sourceFile, outputPattern)
}

// scratchParent keeps scratch dirs inside Root so typst accepts main.typ.
func (e *TypstEngine) scratchParent() string {
	if e.WorkDir != "" {
		return e.WorkDir
	}
	return e.Root
}

func (e *TypstEngine) runner() CommandRunner {
	if e.Runner == nil {
		return &ExecRunner{}
	}
	return e.Runner
}

func (e *TypstEngine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}
