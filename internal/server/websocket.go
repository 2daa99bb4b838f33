package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	typstlive "github.com/alnah/go-typstlive"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Update is the message pushed to a widget whenever its snapshot changes.
type Update struct {
	Seq      uint64 `json:"seq"`
	State    string `json:"state"`
	Pending  bool   `json:"pending"`
	Editable bool   `json:"editable"`
	HTML     string `json:"html"` // replacement for the widget's output area
}

// handlePreviewSocket streams snapshots of one preview. Text messages from
// the client are treated as edits. When the last connection of a preview
// closes, the preview is dropped.
func (s *Server) handlePreviewSocket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.previews.get(id); !ok {
		http.NotFound(w, r)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		s.logger.Debug("websocket upgrade failed", "preview", id, "error", err)
		return
	}
	defer conn.Close()

	p, ok := s.previews.attach(id)
	if !ok {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "preview expired"),
			time.Now().Add(writeWait))
		return
	}
	defer s.previews.detach(id)

	snaps, unsubscribe := p.ctrl.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go s.readEdits(conn, p.ctrl, id, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case snap, ok := <-snaps:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "preview closed"),
					time.Now().Add(writeWait))
				return
			}
			if err := s.writeUpdate(conn, snap); err != nil {
				s.logger.Debug("websocket write", "preview", id, "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeUpdate(conn *websocket.Conn, snap typstlive.Snapshot) error {
	html, err := s.opts.View.Output(snap)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(Update{
		Seq:      snap.Seq,
		State:    snap.State,
		Pending:  snap.Pending,
		Editable: snap.Editable,
		HTML:     html,
	})
}

// readEdits applies text messages as edits until the connection fails.
// It closes done on return.
func (s *Server) readEdits(conn *websocket.Conn, ctrl *typstlive.Controller, id string, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(MaxSourceSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read", "preview", id, "error", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		if _, err := ctrl.OnEdit(string(msg)); err != nil {
			s.logger.Debug("websocket edit rejected", "preview", id, "error", err)
		}
	}
}
