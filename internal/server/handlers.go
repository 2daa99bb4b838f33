package server

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	typstlive "github.com/alnah/go-typstlive"
	"github.com/alnah/go-typstlive/internal/docs"
	"github.com/alnah/go-typstlive/internal/fileutil"
	"github.com/alnah/go-typstlive/internal/htmlview"
)

// MaxSourceSize caps an edit request body (1MB).
const MaxSourceSize = 1 << 20

// Response is the JSON envelope of API routes.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PreviewState is the data of GET /previews/{id}.
type PreviewState struct {
	ID       string             `json:"id"`
	Snapshot typstlive.Snapshot `json:"snapshot"`
	View     typstlive.View     `json:"view"`
}

// EditResult is the data of PUT /previews/{id}/source.
type EditResult struct {
	Seq uint64 `json:"seq"`
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, Response{Success: false, Error: message})
}

func writeSuccess(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, Response{Success: true, Data: data})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"session":  s.opts.Session.State().String(),
		"previews": s.previews.len(),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	pages, err := docs.ScanDir(s.opts.DocsDir)
	if err != nil {
		s.logger.Error("scanning docs", "error", err)
		http.Error(w, "cannot scan docs directory", http.StatusInternalServerError)
		return
	}

	entries := make([]htmlview.IndexEntry, 0, len(pages))
	for _, p := range pages {
		entries = append(entries, htmlview.IndexEntry{
			Name:     p.Rel,
			URL:      "/pages/" + p.Rel,
			Previews: len(p.Blocks),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.opts.View.Index(w, s.opts.Title, entries); err != nil {
		s.logger.Error("rendering index", "error", err)
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	file, ok := s.resolvePage(chi.URLParam(r, "*"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	src, err := docs.ReadPage(file)
	if err != nil {
		if errors.Is(err, docs.ErrPageTooLarge) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		http.NotFound(w, r)
		return
	}

	page, err := s.opts.Pages.Render(r.Context(), src)
	if err != nil {
		if errors.Is(err, docs.ErrInvalidBlock) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		s.logger.Error("rendering page", "page", file, "error", err)
		http.Error(w, "cannot render page", http.StatusInternalServerError)
		return
	}

	ids, ctrls, err := s.mountBlocks(page.Blocks)
	if err != nil {
		s.logger.Error("mounting previews", "page", file, "error", err)
		http.Error(w, "cannot create previews", http.StatusInternalServerError)
		return
	}
	s.awaitFirstPaint(r.Context(), ctrls)

	widgets := make([]template.HTML, len(ctrls))
	for i, c := range ctrls {
		widget, err := s.opts.View.Widget(ids[i], c.Snapshot(), !page.Blocks[i].Preview.Editable)
		if err != nil {
			s.logger.Error("rendering widget", "page", file, "index", i, "error", err)
			http.Error(w, "cannot render preview", http.StatusInternalServerError)
			return
		}
		widgets[i] = widget
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.opts.View.Page(w, page, widgets, true); err != nil {
		s.logger.Error("writing page", "page", file, "error", err)
	}
}

// resolvePage maps a URL path to a Markdown file inside DocsDir.
func (s *Server) resolvePage(rel string) (string, bool) {
	clean := path.Clean("/" + rel)
	if clean == "/" || !fileutil.IsMarkdown(clean) {
		return "", false
	}
	root, err := filepath.Abs(s.opts.DocsDir)
	if err != nil {
		return "", false
	}
	file := filepath.Join(root, filepath.FromSlash(clean))
	if r, err := filepath.Rel(root, file); err != nil || strings.HasPrefix(r, "..") {
		return "", false
	}
	return file, fileutil.FileExists(file)
}

// mountBlocks creates and mounts one controller per block.
func (s *Server) mountBlocks(blocks []docs.Block) ([]string, []*typstlive.Controller, error) {
	ids := make([]string, 0, len(blocks))
	ctrls := make([]*typstlive.Controller, 0, len(blocks))
	for _, b := range blocks {
		cfg := s.opts.Defaults.Apply(b.Preview)

		ctrl, err := typstlive.NewController(s.opts.Session, cfg,
			typstlive.WithPreviewLogger(s.logger),
			typstlive.WithPreviewRecorder(s.opts.Recorder),
		)
		if err != nil {
			for _, c := range ctrls {
				_ = c.Close()
			}
			return nil, nil, err
		}
		ctrl.Mount(s.life)
		ctrls = append(ctrls, ctrl)
		ids = append(ids, s.previews.add(ctrl, !cfg.Editable))
	}
	return ids, ctrls, nil
}

// awaitFirstPaint gives the first compiles a bounded chance to finish so
// the initial HTML already carries images.
func (s *Server) awaitFirstPaint(ctx context.Context, ctrls []*typstlive.Controller) {
	if len(ctrls) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.FirstPaint)
	defer cancel()

	select {
	case <-ctx.Done():
		return
	case <-s.opts.Session.Ready():
	}
	for _, c := range ctrls {
		c.Initialize()
	}
	for _, c := range ctrls {
		if c.Wait(ctx) != nil {
			return
		}
	}
}

func (s *Server) handleGetPreview(w http.ResponseWriter, r *http.Request) {
	p, ok := s.previews.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "preview not found")
		return
	}
	snap := p.ctrl.Snapshot()
	writeSuccess(w, http.StatusOK, PreviewState{
		ID:       p.id,
		Snapshot: snap,
		View:     typstlive.Render(snap),
	})
}

func (s *Server) handleEditPreview(w http.ResponseWriter, r *http.Request) {
	p, ok := s.previews.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "preview not found")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxSourceSize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "source too large")
		return
	}

	seq, err := p.ctrl.OnEdit(string(body))
	if errors.Is(err, typstlive.ErrReadOnly) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeSuccess(w, http.StatusAccepted, EditResult{Seq: seq})
}
