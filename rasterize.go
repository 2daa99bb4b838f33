package typstlive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-typstlive/internal/fileutil"
	"github.com/alnah/go-typstlive/internal/hints"
	"github.com/alnah/go-typstlive/internal/process"
)

// Rasterizer converts engine SVG output to PNG.
type Rasterizer interface {
	Rasterize(ctx context.Context, svg string) ([]byte, error)
	Close() error
}

// Compile-time interface check.
var _ Rasterizer = (*RodRasterizer)(nil)

// Rasterizer defaults.
const (
	DefaultRasterTimeout = 30 * time.Second
	DefaultRasterScale   = 2.0
)

// Viewport the SVG is laid out in before the element screenshot.
const (
	viewportWidth  = 1280
	viewportHeight = 800
)

// rasterPage wraps a compiled SVG in a blank page so the screenshot holds
// only the drawing.
const rasterPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><style>html,body{margin:0;padding:0;background:#fff}svg{display:block}</style></head>
<body>%s</body></html>`

// RodRasterizer renders SVG in headless Chrome via go-rod and screenshots
// the <svg> element. The browser is launched lazily on first use; rod
// downloads Chromium if none is found.
type RodRasterizer struct {
	timeout time.Duration
	scale   float64

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewRodRasterizer creates a rasterizer. A zero timeout or scale selects
// the default.
func NewRodRasterizer(timeout time.Duration, scale float64) *RodRasterizer {
	if timeout <= 0 {
		timeout = DefaultRasterTimeout
	}
	if scale <= 0 {
		scale = DefaultRasterScale
	}
	return &RodRasterizer{timeout: timeout, scale: scale}
}

// ensureBrowser lazily connects to the browser. Caller holds r.mu.
func (r *RodRasterizer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("ROD_NO_SANDBOX") == "1" || hints.InCI() || hints.IsInContainer() {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v%s", ErrBrowserConnect, err, hints.ForBrowserConnect())
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("%w: %v%s", ErrBrowserConnect, err, hints.ForBrowserConnect())
	}

	r.browser = browser
	r.launcher = l
	return nil
}

// Rasterize lays svg out in a page and returns a PNG screenshot of it.
// The input is validated like any engine result first.
func (r *RodRasterizer) Rasterize(ctx context.Context, svg string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateSVG([]byte(svg)); err != nil {
		return nil, err
	}

	r.mu.Lock()
	err := r.ensureBrowser()
	browser := r.browser
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	dir, cleanup, err := fileutil.MakeWorkDir("")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	pagePath := filepath.Join(dir, "raster.html")
	if err := os.WriteFile(pagePath, fmt.Appendf(nil, rasterPage, svg), 0o600); err != nil {
		return nil, fmt.Errorf("%w: writing page: %v", ErrRasterize, err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "file://" + pagePath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	page = page.Context(ctx).Timeout(timeout)

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: r.scale,
	}); err != nil {
		return nil, fmt.Errorf("%w: setting viewport: %v", ErrRasterize, err)
	}

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	el, err := page.Element("svg")
	if err != nil {
		return nil, fmt.Errorf("%w: locating svg: %v", ErrRasterize, err)
	}

	png, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}
	return png, nil
}

// Close releases browser resources, killing the Chrome process tree.
func (r *RodRasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser = nil

	if r.launcher != nil {
		if pid := r.launcher.PID(); pid > 0 {
			process.KillProcessGroup(pid)
		}
		r.launcher.Kill()
		r.launcher = nil
	}
	return err
}
