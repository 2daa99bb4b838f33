package main

import (
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-typstlive/internal/config"
)

// ErrInvalidFlags wraps flag parsing failures.
var ErrInvalidFlags = errors.New("invalid flags")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// engineFlags holds typst engine overrides.
type engineFlags struct {
	bin       string
	root      string
	fontPaths []string
	timeout   string
}

// previewFlags holds defaults applied to every preview block.
type previewFlags struct {
	layout     string
	alt        string
	assetsBase string
	readOnly   bool
}

// renderFlags holds all flags for the render command.
type renderFlags struct {
	common  commonFlags
	engine  engineFlags
	preview previewFlags
	output  string
	png     bool
	scale   float64
	workers int
	metrics string
}

// watchFlags holds all flags for the watch command.
type watchFlags struct {
	common commonFlags
	engine engineFlags
	output string
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common      commonFlags
	engine      engineFlags
	preview     previewFlags
	addr        string
	assetsDir   string
	assetPath   string
	title       string
	maxPreviews int
	noMetrics   bool
}

// scanFlags holds all flags for the scan command.
type scanFlags struct {
	common commonFlags
	format string
}

// doctorFlags holds all flags for the doctor command.
type doctorFlags struct {
	json bool
	bin  string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
}

// addEngineFlags adds typst engine flags to a FlagSet.
func addEngineFlags(fs *flag.FlagSet, f *engineFlags) {
	fs.StringVar(&f.bin, "typst", "", "typst binary name or path")
	fs.StringVar(&f.root, "root", "", "typst project root for file access")
	fs.StringSliceVar(&f.fontPaths, "font-path", nil, "extra font directory (repeatable)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-compile timeout (e.g., 10s)")
}

// addPreviewFlags adds preview default flags to a FlagSet.
func addPreviewFlags(fs *flag.FlagSet, f *previewFlags) {
	fs.StringVar(&f.layout, "layout", "", "default layout: horizontal, vertical")
	fs.StringVar(&f.alt, "alt", "", "default alt text of rendered images")
	fs.StringVar(&f.assetsBase, "assets-base", "", "base URL of fallback images")
	fs.BoolVar(&f.readOnly, "read-only", false, "disable editing of every preview")
}

// parseWith parses args into fs, wrapping failures in ErrInvalidFlags.
func parseWith(fs *flag.FlagSet, args []string, usage func()) ([]string, error) {
	fs.Usage = usage
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidFlags, err)
	}
	return fs.Args(), nil
}

// newRenderFlagSet registers the render flags into f.
// Completion builds its flag list from the same sets.
func newRenderFlagSet(f *renderFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.BoolVar(&f.png, "png", false, "also rasterize previews to PNG")
	fs.Float64Var(&f.scale, "scale", 0, "PNG device scale factor")
	fs.IntVarP(&f.workers, "workers", "w", 0, "concurrent compiles (0 = auto)")
	fs.StringVar(&f.metrics, "metrics-file", "", "write Prometheus metrics to this file when done")
	addCommonFlags(fs, &f.common)
	addEngineFlags(fs, &f.engine)
	addPreviewFlags(fs, &f.preview)
	return fs
}

func newWatchFlagSet(f *watchFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.StringVarP(&f.output, "output", "o", "", "SVG output file (default: <input>.svg)")
	addCommonFlags(fs, &f.common)
	addEngineFlags(fs, &f.engine)
	return fs
}

func newServeFlagSet(f *serveFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.StringVarP(&f.addr, "addr", "a", "", "listen address")
	fs.StringVar(&f.assetsDir, "assets-dir", "", "directory served under --assets-base")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom template/style directory")
	fs.StringVar(&f.title, "title", "", "index page title")
	fs.IntVar(&f.maxPreviews, "max-previews", 0, "live previews kept before eviction")
	fs.BoolVar(&f.noMetrics, "no-metrics", false, "disable the /metrics endpoint")
	addCommonFlags(fs, &f.common)
	addEngineFlags(fs, &f.engine)
	addPreviewFlags(fs, &f.preview)
	return fs
}

func newScanFlagSet(f *scanFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	fs.StringVarP(&f.format, "format", "f", "table", "output format: table, yaml")
	addCommonFlags(fs, &f.common)
	return fs
}

// newDoctorFlagSet registers the doctor flags into f.
func newDoctorFlagSet(f *doctorFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.BoolVar(&f.json, "json", false, "output JSON")
	fs.StringVar(&f.bin, "typst", "", "typst binary name or path")
	return fs
}

// parseRenderFlags parses render command flags and returns positional args.
func parseRenderFlags(args []string) (*renderFlags, []string, error) {
	f := &renderFlags{}
	rest, err := parseWith(newRenderFlagSet(f), args, func() { printRenderUsage(os.Stderr) })
	return f, rest, err
}

// parseWatchFlags parses watch command flags and returns positional args.
func parseWatchFlags(args []string) (*watchFlags, []string, error) {
	f := &watchFlags{}
	rest, err := parseWith(newWatchFlagSet(f), args, func() { printWatchUsage(os.Stderr) })
	return f, rest, err
}

// parseServeFlags parses serve command flags and returns positional args.
func parseServeFlags(args []string) (*serveFlags, []string, error) {
	f := &serveFlags{}
	rest, err := parseWith(newServeFlagSet(f), args, func() { printServeUsage(os.Stderr) })
	return f, rest, err
}

// parseScanFlags parses scan command flags and returns positional args.
func parseScanFlags(args []string) (*scanFlags, []string, error) {
	f := &scanFlags{}
	rest, err := parseWith(newScanFlagSet(f), args, func() { printScanUsage(os.Stderr) })
	return f, rest, err
}

// mergeEngineFlags applies set engine flags onto cfg (CLI wins).
func mergeEngineFlags(f engineFlags, cfg *config.Config) {
	if f.bin != "" {
		cfg.Engine.Bin = f.bin
	}
	if f.root != "" {
		cfg.Engine.Root = f.root
	}
	if len(f.fontPaths) > 0 {
		cfg.Engine.FontPaths = f.fontPaths
	}
	if f.timeout != "" {
		cfg.Engine.Timeout = f.timeout
	}
}

// mergePreviewFlags applies set preview flags onto cfg (CLI wins).
func mergePreviewFlags(f previewFlags, cfg *config.Config) {
	if f.layout != "" {
		cfg.Preview.Layout = f.layout
	}
	if f.alt != "" {
		cfg.Preview.Alt = f.alt
	}
	if f.assetsBase != "" {
		cfg.Preview.AssetsBase = f.assetsBase
	}
	if f.readOnly {
		cfg.Preview.ReadOnly = true
	}
}
