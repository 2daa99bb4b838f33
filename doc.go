// Package typstlive orchestrates live, editable Typst previews: it owns the
// editable source of each preview, compiles it through an external engine,
// sequences overlapping compiles and turns the outcome into something a page
// can display.
//
// # Quick Start
//
// Share one Session between every preview on a page, and create one
// Controller per preview:
//
//	session := typstlive.NewSession(typstlive.NewTypstEngine("typst"))
//	defer session.Close()
//
//	ctrl, err := typstlive.NewController(session, typstlive.PreviewConfig{
//	    Code:     "#set text(fill: blue)\nHello",
//	    Editable: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctrl.Close()
//
//	ctrl.Mount(ctx)
//	updates, cancel := ctrl.Subscribe()
//	defer cancel()
//	for snap := range updates {
//	    view := typstlive.Render(snap)
//	    // display view.SVG, view.FallbackURL or view.Text, plus view.Error
//	}
//
// # Sequencing
//
// Every OnEdit issues a new compile with a strictly increasing sequence
// number and returns at once. Compiles overlap freely; when one settles its
// result is applied only if no later request was issued in the meantime.
// There is no debounce.
//
// # Session Lifecycle
//
// A Session moves uninitialized -> loading -> ready or init-failed. The
// engine is loaded at most once, however many previews mount concurrently.
// A failed load is terminal for that Session; build a new one to retry.
//
// # Errors
//
// Session.Compile returns errors matching ErrEngineUnavailable,
// ErrCompileFailure or ErrMalformedOutput with errors.Is. Normalize maps any
// failure value, including typst's short diagnostics, into a Diagnostic and
// Format renders it for display.
//
// # Batch Export
//
// RasterizerPool hands out headless-Chrome rasterizers for PNG export:
//
//	pool := typstlive.NewRasterizerPool(typstlive.ResolvePoolSize(0), nil)
//	defer pool.Close()
//
//	r := pool.Acquire()
//	defer pool.Release(r)
//	png, err := r.Rasterize(ctx, svg)
package typstlive
