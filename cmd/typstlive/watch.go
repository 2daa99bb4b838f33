package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	typstlive "github.com/alnah/go-typstlive"
)

// runWatch recompiles a .typ file on every save and writes the SVG next
// to it. Saves are edits on a single controller, so a slow compile is
// superseded by the next save instead of queueing behind it.
func runWatch(ctx context.Context, args []string, env *Environment) error {
	flags, rest, err := parseWatchFlags(args)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return fmt.Errorf("%w: pass a .typ file to watch", ErrNoInput)
	}

	cfg, err := loadConfig(flags.common)
	if err != nil {
		return err
	}
	mergeEngineFlags(flags.engine, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	input, err := filepath.Abs(rest[0])
	if err != nil {
		return err
	}
	src, err := os.ReadFile(input) // #nosec G304 -- user-provided input
	if err != nil {
		return err
	}
	output := flags.output
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".svg"
	}

	logger := newLogger(env.Stderr, flags.common)
	session, err := newSession(cfg, env, logger, nil)
	if err != nil {
		return err
	}
	defer session.Close()
	if err := session.Initialize(ctx); err != nil {
		return err
	}

	ctrl, err := typstlive.NewController(session,
		typstlive.PreviewConfig{Code: string(src), Editable: true},
		typstlive.WithPreviewLogger(logger))
	if err != nil {
		return err
	}
	defer ctrl.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer watcher.Close()
	// Watch the directory: editors often replace the file on save.
	if err := watcher.Add(filepath.Dir(input)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(input), err)
	}

	snaps, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()
	ctrl.Mount(ctx)

	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "watching %s (Ctrl-C to stop)\n", rest[0])
	}

	w := &watchReporter{out: env.Stdout, errOut: env.Stderr, output: output, pal: newPalette(env.Stdout)}
	return watchLoop(ctx, watcher, input, ctrl, snaps, w, logger)
}

func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, input string, ctrl *typstlive.Controller,
	snaps <-chan typstlive.Snapshot, w *watchReporter, logger *slog.Logger,
) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != input || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			data, err := os.ReadFile(input) // #nosec G304 -- user-provided input
			if err != nil {
				logger.Warn("reading watched file", "file", input, "error", err)
				continue
			}
			seq, err := ctrl.OnEdit(string(data))
			if err != nil {
				logger.Warn("edit rejected", "error", err)
				continue
			}
			logger.Debug("compile requested", "seq", seq)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case snap, ok := <-snaps:
			if !ok {
				return nil
			}
			if err := w.report(snap); err != nil {
				return err
			}
		}
	}
}

// watchReporter prints each newly applied snapshot once.
type watchReporter struct {
	out    io.Writer
	errOut io.Writer
	output string
	pal    palette
	shown  uint64
}

func (w *watchReporter) report(snap typstlive.Snapshot) error {
	if snap.Pending || !snap.FirstCompiled || snap.Seq == w.shown {
		return nil
	}
	w.shown = snap.Seq

	if snap.Diagnostic != nil {
		fmt.Fprintf(w.errOut, "%s\n%s\n", w.pal.fail.Sprint("error"), indent(typstlive.Format(*snap.Diagnostic)))
		return nil
	}
	if err := os.WriteFile(w.output, []byte(snap.Image), filePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	fmt.Fprintf(w.out, "%s rendered %d bytes -> %s\n", w.pal.ok.Sprint("ok"), len(snap.Image), w.output)
	return nil
}
