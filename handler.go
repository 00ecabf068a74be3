package watch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/dpotapov/go-watch/htree"
)

// maxExamineSize limits request bodies of /examine.
const maxExamineSize = 10 << 20

// wsUpgrader is a Gorilla WebSocket instance, used to respond HTTP requests with WebSocket.
var wsUpgrader = websocket.Upgrader{}

// Handler serves the HTTP interface of a Monitor:
//
//	GET  /          statuses of all entries as JSON
//	POST /check     checks the entry given by the uri query parameter now
//	POST /examine   examines the request body, see below
//	GET  /events    streams check events as JSON over a WebSocket
//
// /examine parses the body according to its Content-Type and answers the
// PageInfo as JSON. The query parameters ignorePath, ignoreClass and ignoreID
// (space separated) and ignoreExpr set the ignore rules; dump=1 adds the dump
// of the filtered tree.
type Handler struct {
	// Monitor provides statuses and events. Without a Monitor only /examine
	// is served.
	Monitor *Monitor

	// OnError is a callback that is called when an error occurs while serving a request.
	OnError func(*http.Request, error)

	// Logger configures logging for internal events.
	Logger *slog.Logger

	// init is used to initialize the handler only once.
	init sync.Once

	// logger is a private logger instance that is used to log internal events.
	logger *slog.Logger
}

// ServeHTTP implements the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.init.Do(func() {
		h.logger = discardLogger(h.Logger)
	})

	if err := h.handleRequest(w, r); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		h.logger.Error("Serve HTTP request", "url", r.URL.Redacted(), "error", err)
		if h.OnError != nil {
			h.OnError(r, err)
		}
	}
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) error {
	type route struct {
		method string
		serve  func(http.ResponseWriter, *http.Request) error
	}
	var rt route
	switch r.URL.Path {
	case "/":
		rt = route{http.MethodGet, h.serveStatuses}
	case "/check":
		rt = route{http.MethodPost, h.serveCheck}
	case "/examine":
		rt = route{http.MethodPost, h.serveExamine}
	case "/events":
		rt = route{http.MethodGet, h.serveEvents}
	}
	if rt.serve == nil || (h.Monitor == nil && r.URL.Path != "/examine") {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return nil
	}
	if r.Method != rt.method {
		w.Header().Set("Allow", rt.method)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return nil
	}
	return rt.serve(w, r)
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}

func (h *Handler) serveStatuses(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, h.Monitor.Statuses())
}

func (h *Handler) serveCheck(w http.ResponseWriter, r *http.Request) error {
	uri := r.URL.Query().Get("uri")
	ev, err := h.Monitor.Check(r.Context(), uri)
	if errors.Is(err, ErrUnknownEntry) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil
	}
	if err != nil {
		h.logger.Warn("Check failed", "url", uri, "error", err)
	}
	return writeJSON(w, ev)
}

func (h *Handler) serveExamine(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	rules := IgnoreRules{
		Paths:   strings.Fields(q.Get("ignorePath")),
		Classes: strings.Fields(q.Get("ignoreClass")),
		IDs:     strings.Fields(q.Get("ignoreID")),
		Expr:    q.Get("ignoreExpr"),
	}
	if _, err := rules.compile(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxExamineSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
			return nil
		}
		return fmt.Errorf("read body: %w", err)
	}

	contentType := r.Header.Get("Content-Type")
	content, _, err := Decode(body, contentType)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}
	info, err := Examine(contentType, content, rules)
	if errors.Is(err, ErrNotMarkup) {
		http.Error(w, http.StatusText(http.StatusUnsupportedMediaType), http.StatusUnsupportedMediaType)
		return nil
	}
	if err != nil {
		return err
	}

	if q.Get("dump") == "1" {
		var b strings.Builder
		if err := htree.Dump(&b, info.Tree); err != nil {
			return fmt.Errorf("dump tree: %w", err)
		}
		info.Dump = b.String()
	}
	return writeJSON(w, info)
}

func (h *Handler) serveEvents(w http.ResponseWriter, r *http.Request) error {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "websocket upgrade required", http.StatusBadRequest)
		return nil
	}
	ws, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.logger.Warn("Upgrade websocket", "error", err)
		return nil
	}
	defer ws.Close()

	sub := h.Monitor.Subscribe()
	defer h.Monitor.Unsubscribe(sub)

	// The client sends nothing; reading detects the closed connection.
	done := make(chan error, 1)
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					err = nil
				} else {
					err = fmt.Errorf("read websocket message: %w", err)
				}
				done <- err
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return nil
			}
			if err := ws.WriteJSON(ev); err != nil {
				h.logger.Debug("Write websocket event", "error", err)
				return nil
			}
		case err := <-done:
			if err != nil {
				h.logger.Debug("Websocket closed", "error", err)
			}
			return nil
		case <-r.Context().Done():
			return nil
		}
	}
}
