package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/jaminalder/tictactoe-timetravel/internal/app"
	"github.com/jaminalder/tictactoe-timetravel/internal/domain"
)

type handlers struct {
	svc       *app.Service
	tpl       *templates
	log       zerolog.Logger
	heartbeat time.Duration
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	var last string
	if id := lastGame(r); id != "" {
		if _, ok := h.svc.Get(id); ok {
			last = id
		}
	}
	h.writePage(w, r, h.tpl.index, last)
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	gs, err := h.svc.CreateGame()
	if err != nil {
		http.Error(w, "failed to create", http.StatusInternalServerError)
		return
	}
	rememberGame(w, gs.ID)
	http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	gs, ok := h.svc.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	rememberGame(w, id)
	h.writePage(w, r, h.tpl.game, app.Snapshot(*gs))
}

func (h *handlers) writePage(w http.ResponseWriter, r *http.Request, t *template.Template, data any) {
	b, err := renderTemplate(t, "base", data)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("render page")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// formInt reads an integer form value; ok is false when absent or malformed.
func formInt(r *http.Request, key string) (int, bool) {
	v, err := strconv.Atoi(r.Form.Get(key))
	return v, err == nil
}

// cellFromForm accepts either "cell" (0..8) or "r" and "c" (0..2).
func cellFromForm(r *http.Request) int {
	_ = r.ParseForm()
	if c, ok := formInt(r, "cell"); ok {
		return c
	}
	ri, rok := formInt(r, "r")
	ci, cok := formInt(r, "c")
	if !rok || !cok {
		return -1
	}
	idx, err := domain.CellAt(ri, ci)
	if err != nil {
		return -1
	}
	return idx
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cell := cellFromForm(r)
	gs, err := h.svc.Play(r.Context(), id, cell)
	h.writeFragment(w, r, gs, err)
}

func (h *handlers) jump(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_ = r.ParseForm()
	move, ok := formInt(r, "move")
	if !ok {
		move = -1
	}
	gs, err := h.svc.JumpTo(r.Context(), id, move)
	h.writeFragment(w, r, gs, err)
}

func (h *handlers) order(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	gs, err := h.svc.ToggleOrder(r.Context(), id)
	h.writeFragment(w, r, gs, err)
}

// writeFragment renders the game fragment. Domain rejections are not shown
// to the user: the unchanged game is rendered as if nothing happened.
func (h *handlers) writeFragment(w http.ResponseWriter, r *http.Request, gs *app.GameState, err error) {
	if gs == nil {
		if errors.Is(err, app.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		hlog.FromRequest(r).Warn().Err(err).Msg("request aborted")
		http.Error(w, "request aborted", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		hlog.FromRequest(r).Debug().Err(err).Str("game", gs.ID).Msg("ignored")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.renderFragment(app.Snapshot(*gs)))
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(app.Snapshot(*gs))
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

// writeSSE writes one event, prefixing every payload line with "data: ".
func writeSSE(w io.Writer, event string, payload []byte) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "event: %s\n", event)
	for _, line := range bytes.Split(bytes.TrimRight(payload, "\n"), []byte("\n")) {
		fmt.Fprintf(&buf, "data: %s\n", line)
	}
	buf.WriteString("\n")
	_, err := w.Write(buf.Bytes())
	return err
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.svc.Get(id); !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// Non-EventSource requests only get the headers.
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer unsub()
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case b, ok := <-ch:
			if !ok {
				return
			}
			if err := writeSSE(w, "game", b); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// ws streams the JSON view of the game: once on connect, then after every
// accepted change. Client messages are ignored.
func (h *handlers) ws(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.svc.Get(id); !ok {
		http.NotFound(w, r)
		return
	}
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		hlog.FromRequest(r).Debug().Err(err).Msg("websocket accept")
		return
	}
	defer c.Close(websocket.StatusInternalError, "")

	ctx := c.CloseRead(r.Context())
	ch, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		c.Close(websocket.StatusPolicyViolation, "game not found")
		return
	}
	defer unsub()

	send := func() bool {
		gs, ok := h.svc.Get(id)
		if !ok {
			return false
		}
		wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return wsjson.Write(wctx, c, app.Snapshot(*gs)) == nil
	}
	if !send() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			c.Close(websocket.StatusNormalClosure, "")
			return
		case _, ok := <-ch:
			if !ok {
				c.Close(websocket.StatusGoingAway, "game closed")
				return
			}
			if !send() {
				return
			}
		}
	}
}
