package main

import (
	"context"
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/alnah/go-typstlive/internal/assets"
	"github.com/alnah/go-typstlive/internal/htmlview"
	"github.com/alnah/go-typstlive/internal/metrics"
	"github.com/alnah/go-typstlive/internal/server"
)

// runServe serves a docs directory with live preview widgets until the
// context is cancelled.
func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, rest, err := parseServeFlags(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(flags.common)
	if err != nil {
		return err
	}
	mergeEngineFlags(flags.engine, cfg)
	mergePreviewFlags(flags.preview, cfg)
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if flags.maxPreviews > 0 {
		cfg.Server.MaxPreviews = flags.maxPreviews
	}
	if flags.assetsDir != "" {
		cfg.Docs.AssetsDir = flags.assetsDir
	}
	if len(rest) > 0 {
		cfg.Docs.Dir = rest[0]
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Docs.Dir == "" {
		return fmt.Errorf("%w: pass a docs directory", ErrNoInput)
	}

	logger := newLogger(env.Stderr, flags.common)

	var (
		registry *prom.Registry
		recorder metrics.Recorder = metrics.NoopRecorder{}
	)
	if !flags.noMetrics {
		registry = metrics.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	session, err := newSession(cfg, env, logger, recorder)
	if err != nil {
		return err
	}
	defer session.Close()
	// Load eagerly so the first page does not pay for it.
	session.Start()

	resolver, err := assets.NewAssetResolver(flags.assetPath)
	if err != nil {
		return err
	}
	if resolver.HasCustomLoader() {
		logger.Debug("using custom templates", "path", flags.assetPath)
	}
	view, err := htmlview.New(resolver)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Addr:           cfg.Server.Addr,
		DocsDir:        cfg.Docs.Dir,
		AttachmentsDir: cfg.Docs.AssetsDir,
		AssetsBase:     cfg.Preview.AssetsBase,
		Defaults:       cfg.Preview,
		Title:          flags.title,
		MaxPreviews:    cfg.Server.MaxPreviews,
		Session:        session,
		View:           view,
		Recorder:       recorder,
		Registry:       registry,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "serving %s on http://%s\n", cfg.Docs.Dir, srv.Addr())
	}
	return srv.ListenAndServe(ctx)
}
