package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jakebf/clipdeck/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Only local processes can reach the socket.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type handlerFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Server exposes a service.Backend over HTTP.
type Server struct {
	backend  service.Backend
	hub      *Hub
	handlers map[string]handlerFunc
}

// NewServer wraps backend and pushes events from hub to subscribers. A nil
// hub gets a fresh one. The hub must be running before clients subscribe;
// Serve takes care of that.
func NewServer(backend service.Backend, hub *Hub) *Server {
	if hub == nil {
		hub = NewHub()
	}
	s := &Server{backend: backend, hub: hub}
	s.handlers = s.routes()
	return s
}

// Hub returns the server's event hub, for use as the daemon's notifier.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /invoke/{command}", s.handleInvoke)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

// Serve runs the hub and serves ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.hub.Run()
	defer s.hub.Stop()

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("command")
	h, ok := s.handlers[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, Response{Error: &ErrorBody{Code: CodeNotFound, Message: "unknown command " + name}})
		return
	}
	args, err := io.ReadAll(io.LimitReader(r.Body, 16<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Error: &ErrorBody{Code: CodeInvalid, Message: err.Error()}})
		return
	}
	result, err := h(r.Context(), args)
	if err != nil {
		body := encodeError(err)
		if body.Code == CodeInternal {
			slog.Error("invoke failed", "command", name, "err", err)
		} else {
			slog.Debug("invoke rejected", "command", name, "code", body.Code, "err", err)
		}
		writeJSON(w, http.StatusOK, Response{Error: body})
		return
	}
	writeJSON(w, http.StatusOK, Response{Result: result})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "error", err)
		return
	}
	s.hub.attach(conn)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response", "err", err)
	}
}

// decode unmarshals args into T. Empty args decode to the zero value.
func decode[T any](args json.RawMessage) (T, error) {
	var v T
	if len(args) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(args, &v); err != nil {
		return v, fmt.Errorf("%w: bad arguments: %v", service.ErrInvalidSettings, err)
	}
	return v, nil
}

func noResult(err error) (any, error) { return nil, err }

func (s *Server) routes() map[string]handlerFunc {
	b := s.backend
	return map[string]handlerFunc{
		CmdGetSettings: func(ctx context.Context, _ json.RawMessage) (any, error) {
			return b.GetSettings(ctx)
		},
		CmdSaveSettings: func(ctx context.Context, args json.RawMessage) (any, error) {
			a, err := decode[settingsArgs](args)
			if err != nil {
				return nil, err
			}
			return noResult(b.SaveSettings(ctx, a.Settings))
		},
		CmdRegisterShortcut: func(ctx context.Context, args json.RawMessage) (any, error) {
			a, err := decode[hotkeyArgs](args)
			if err != nil {
				return nil, err
			}
			return noResult(b.RegisterGlobalShortcut(ctx, a.Hotkey))
		},
		CmdHistorySize: func(ctx context.Context, _ json.RawMessage) (any, error) {
			return b.GetClipboardHistorySize(ctx)
		},
		CmdClearHistory: func(ctx context.Context, _ json.RawMessage) (any, error) {
			return noResult(b.ClearClipboardHistory(ctx))
		},
		CmdClearAllClips: func(ctx context.Context, _ json.RawMessage) (any, error) {
			return noResult(b.ClearAllClips(ctx))
		},
		CmdRemoveDuplicates: func(ctx context.Context, _ json.RawMessage) (any, error) {
			return b.RemoveDuplicateClips(ctx)
		},
		CmdGetIgnoredApps: func(ctx context.Context, _ json.RawMessage) (any, error) {
			apps, err := b.GetIgnoredApps(ctx)
			if apps == nil {
				apps = []string{}
			}
			return apps, err
		},
		CmdAddIgnoredApp: func(ctx context.Context, args json.RawMessage) (any, error) {
			a, err := decode[nameArgs](args)
			if err != nil {
				return nil, err
			}
			return noResult(b.AddIgnoredApp(ctx, a.Name))
		},
		CmdRemoveIgnoredApp: func(ctx context.Context, args json.RawMessage) (any, error) {
			a, err := decode[nameArgs](args)
			if err != nil {
				return nil, err
			}
			return noResult(b.RemoveIgnoredApp(ctx, a.Name))
		},
		CmdPickFile: func(ctx context.Context, _ json.RawMessage) (any, error) {
			return b.PickFile(ctx)
		},
		CmdGetClips: func(ctx context.Context, args json.RawMessage) (any, error) {
			a, err := decode[queryArgs](args)
			if err != nil {
				return nil, err
			}
			clips, err := b.GetClips(ctx, a.Query)
			if clips == nil {
				clips = []service.Clip{}
			}
			return clips, err
		},
		CmdAddClip: func(ctx context.Context, args json.RawMessage) (any, error) {
			a, err := decode[addClipArgs](args)
			if err != nil {
				return nil, err
			}
			return b.AddClip(ctx, a.Text, a.Source)
		},
		CmdPasteClip: func(ctx context.Context, args json.RawMessage) (any, error) {
			a, err := decode[idArgs](args)
			if err != nil {
				return nil, err
			}
			return noResult(b.PasteClip(ctx, a.ID))
		},
		CmdPinClip: func(ctx context.Context, args json.RawMessage) (any, error) {
			a, err := decode[pinArgs](args)
			if err != nil {
				return nil, err
			}
			return noResult(b.PinClip(ctx, a.ID, a.Pinned))
		},
		CmdDeleteClip: func(ctx context.Context, args json.RawMessage) (any, error) {
			a, err := decode[idArgs](args)
			if err != nil {
				return nil, err
			}
			return noResult(b.DeleteClip(ctx, a.ID))
		},
	}
}
