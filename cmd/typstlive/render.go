package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	typstlive "github.com/alnah/go-typstlive"
	"github.com/alnah/go-typstlive/internal/config"
	"github.com/alnah/go-typstlive/internal/docs"
	"github.com/alnah/go-typstlive/internal/fileutil"
	"github.com/alnah/go-typstlive/internal/hints"
	"github.com/alnah/go-typstlive/internal/metrics"
)

// renderJob is one preview block to compile.
type renderJob struct {
	page  docs.Page
	block docs.Block
}

// renderResult holds the outcome of a single preview.
type renderResult struct {
	Page       string
	N          int // 1-based block number within the page
	SVGPath    string
	PNGPath    string
	Diagnostic string // formatted compile error
	Err        error  // anything else that went wrong
	Duration   time.Duration
}

func (r renderResult) failed() bool {
	return r.Diagnostic != "" || r.Err != nil
}

// renderer compiles jobs and writes their output.
type renderer struct {
	session  *typstlive.Session
	defaults config.PreviewConfig
	outDir   string
	pool     *typstlive.RasterizerPool // nil without --png
	recorder metrics.Recorder
	logger   *slog.Logger
}

// runRender compiles every preview block of a page or docs tree.
func runRender(ctx context.Context, args []string, env *Environment) error {
	flags, rest, err := parseRenderFlags(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(flags.common)
	if err != nil {
		return err
	}
	mergeEngineFlags(flags.engine, cfg)
	mergePreviewFlags(flags.preview, cfg)
	if flags.output != "" {
		cfg.Render.OutDir = flags.output
	}
	if flags.png {
		cfg.Render.PNG = true
	}
	if flags.scale > 0 {
		cfg.Render.Scale = flags.scale
	}
	if flags.workers > 0 {
		cfg.Render.Workers = flags.workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	input := cfg.Docs.Dir
	if len(rest) > 0 {
		input = rest[0]
	}
	if input == "" {
		return fmt.Errorf("%w: pass a Markdown file or directory", ErrNoInput)
	}

	logger := newLogger(env.Stderr, flags.common)

	pages, err := docs.ScanDir(input)
	if err != nil {
		return err
	}
	var jobs []renderJob
	for _, p := range pages {
		for _, b := range p.Blocks {
			jobs = append(jobs, renderJob{page: p, block: b})
		}
	}
	if len(jobs) == 0 {
		if !flags.common.quiet {
			fmt.Fprintf(env.Stderr, "no preview blocks found in %s%s\n", input, hints.ForNoPreviews())
		}
		return nil
	}

	if err := os.MkdirAll(cfg.Render.OutDir, dirPermissions); err != nil {
		return fmt.Errorf("%w: %v%s", ErrWriteOutput, err, hints.ForOutputDirectory())
	}

	var (
		reg      *prom.Registry
		recorder metrics.Recorder = metrics.NoopRecorder{}
	)
	if flags.metrics != "" {
		reg = metrics.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
	}

	session, err := newSession(cfg, env, logger, recorder)
	if err != nil {
		return err
	}
	defer session.Close()
	if err := session.Initialize(ctx); err != nil {
		return err
	}

	workers := typstlive.ResolvePoolSize(cfg.Render.Workers)
	logger.Debug("rendering previews", "pages", len(pages), "previews", len(jobs), "workers", workers)

	r := &renderer{
		session:  session,
		defaults: cfg.Preview,
		outDir:   cfg.Render.OutDir,
		recorder: recorder,
		logger:   logger,
	}
	if cfg.Render.PNG {
		scale := cfg.Render.Scale
		r.pool = typstlive.NewRasterizerPool(workers, func() typstlive.Rasterizer {
			return env.NewRasterizer(scale)
		})
		defer r.pool.Close()
	}

	results, err := r.renderAll(ctx, jobs, workers)
	if err != nil {
		return err
	}

	if reg != nil {
		if err := metrics.WriteTextfile(reg, flags.metrics); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
	}

	failed := printRenderResults(env.Stdout, results, flags.common.quiet)
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrRenderFailed, failed, len(results))
	}
	return nil
}

// renderAll fans jobs out over at most workers goroutines. Per-preview
// failures are collected in the results; only cancellation aborts.
func (r *renderer) renderAll(ctx context.Context, jobs []renderJob, workers int) ([]renderResult, error) {
	results := make([]renderResult, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = r.renderOne(gctx, job)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *renderer) renderOne(ctx context.Context, job renderJob) (res renderResult) {
	start := time.Now()
	res = renderResult{Page: job.page.Rel, N: job.block.Index + 1}
	defer func() { res.Duration = time.Since(start) }()

	ctrl, err := typstlive.NewController(r.session, r.defaults.Apply(job.block.Preview),
		typstlive.WithPreviewLogger(r.logger))
	if err != nil {
		res.Err = fmt.Errorf("line %d: %w", job.block.Line, err)
		return res
	}
	defer ctrl.Close()

	ctrl.Initialize()
	if err := ctrl.Wait(ctx); err != nil {
		res.Err = err
		return res
	}

	snap := ctrl.Snapshot()
	if snap.Diagnostic != nil {
		res.Diagnostic = typstlive.Format(*snap.Diagnostic)
		return res
	}
	if snap.Image == "" {
		res.Err = errors.New("compiler produced no image")
		return res
	}

	res.SVGPath, res.Err = r.write(job.page.Rel, res.N, "svg", []byte(snap.Image))
	if res.Err != nil || r.pool == nil {
		return res
	}

	png, err := r.rasterize(ctx, snap.Image)
	if err != nil {
		res.Err = err
		return res
	}
	res.PNGPath, res.Err = r.write(job.page.Rel, res.N, "png", png)
	return res
}

func (r *renderer) rasterize(ctx context.Context, svg string) ([]byte, error) {
	start := time.Now()
	rz := r.pool.Acquire()
	defer r.pool.Release(rz)

	png, err := rz.Rasterize(ctx, svg)
	outcome := typstlive.OutcomeSuccess
	if err != nil {
		outcome = typstlive.OutcomeFailure
	}
	r.recorder.RasterSettled(outcome, time.Since(start).Seconds())
	return png, err
}

// write stores data as <outDir>/<page dir>/<page>-<n>.<ext>.
func (r *renderer) write(rel string, n int, ext string, data []byte) (string, error) {
	dir := filepath.Join(r.outDir, filepath.Dir(filepath.FromSlash(rel)))
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	path, err := fileutil.OutputPath(dir, rel, n, ext)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, filePermissions); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return path, nil
}

// printRenderResults reports each preview and returns the failure count.
// Failures are always printed; successes only when not quiet.
func printRenderResults(w io.Writer, results []renderResult, quiet bool) int {
	pal := newPalette(w)
	failed := 0
	for _, res := range results {
		label := fmt.Sprintf("%s#%d", res.Page, res.N)
		switch {
		case res.Diagnostic != "":
			failed++
			fmt.Fprintf(w, "%s %s\n", pal.fail.Sprint("FAIL"), label)
			fmt.Fprintln(w, indent(res.Diagnostic))
		case res.Err != nil:
			failed++
			fmt.Fprintf(w, "%s %s: %v\n", pal.fail.Sprint("ERR "), label, res.Err)
		case !quiet:
			out := res.SVGPath
			if res.PNGPath != "" {
				out += ", " + res.PNGPath
			}
			fmt.Fprintf(w, "%s %s -> %s %s\n", pal.ok.Sprint("OK  "), label, out,
				pal.dim.Sprintf("(%s)", res.Duration.Round(time.Millisecond)))
		}
	}
	if !quiet || failed > 0 {
		fmt.Fprintf(w, "%d rendered, %d failed\n", len(results)-failed, failed)
	}
	return failed
}

func indent(s string) string {
	return "    " + strings.ReplaceAll(s, "\n", "\n    ")
}
