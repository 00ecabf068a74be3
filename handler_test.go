package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	site := newTestSite()
	site.set("/page", "<title>x</title>")
	m, _ := newTestMonitor(t, site, EntryConfig{URI: "/page"})

	tests := []struct {
		url         string
		contentType string
		body        string
		wantStatus  int
		wantBody    string
	}{
		{"GET /", "", "", 200, ""},
		{"POST /", "", "", 405, "Method Not Allowed\n"},
		{"GET /nope", "", "", 404, "Not Found\n"},
		{"GET /examine", "", "", 405, "Method Not Allowed\n"},
		{"GET /check", "", "", 405, "Method Not Allowed\n"},
		{"POST /check?uri=http://unknown.example/", "", "", 404, ""},
		{"GET /events", "", "", 400, "websocket upgrade required\n"},
		{"POST /examine", "text/html", "<title>Hi</title>", 200, ""},
		{"POST /examine", "text/plain", "hello", 415, "Unsupported Media Type\n"},
		{"POST /examine?ignoreExpr=" + url.QueryEscape("name =="), "text/html", "<p>x</p>", 400, ""},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("%d_%s", i, tt.url), func(t *testing.T) {
			urlParts := strings.SplitN(tt.url, " ", 2)
			method, target := urlParts[0], urlParts[1]
			req := httptest.NewRequest(method, target, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			var err error
			h := &Handler{
				Monitor: m,
				OnError: func(r *http.Request, handlerErr error) { err = handlerErr },
			}

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			require.NoError(t, err)
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.wantBody != "" {
				require.Equal(t, tt.wantBody, rr.Body.String())
			}
		})
	}
}

func TestHandler_Statuses(t *testing.T) {
	site := newTestSite()
	site.set("/page", "<title>x</title>")
	m, base := newTestMonitor(t, site, EntryConfig{URI: "/page"})
	_, err := m.Check(context.Background(), base+"/page")
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	(&Handler{Monitor: m}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var statuses []Status
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &statuses))
	require.Len(t, statuses, 1)
	require.Equal(t, base+"/page", statuses[0].URI)
	require.Equal(t, http.StatusOK, statuses[0].StatusCode)
	require.Equal(t, "x", statuses[0].Info.Title)
}

func TestHandler_Check(t *testing.T) {
	site := newTestSite()
	site.set("/page", "<title>x</title>")
	m, base := newTestMonitor(t, site, EntryConfig{URI: "/page"})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/check?uri="+url.QueryEscape(base+"/page"), nil)
	(&Handler{Monitor: m}).ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var ev Event
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ev))
	require.Equal(t, base+"/page", ev.URI)
	require.Equal(t, "x", ev.Info.Title)
}

func TestHandler_Examine(t *testing.T) {
	h := &Handler{}
	body := `<html><head><title>Hi</title></head><body><p id="ad">ad</p><p>text</p></body></html>`

	examine := func(query string) *PageInfo {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/examine"+query, strings.NewReader(body))
		req.Header.Set("Content-Type", "text/html; charset=utf-8")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var info PageInfo
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
		return &info
	}

	plain := examine("")
	require.Equal(t, "Hi", plain.Title)
	require.Empty(t, plain.Dump)

	filtered := examine("?ignoreID=ad&dump=1")
	require.Equal(t, []string{"IgnoreID", "ad"}, filtered.ChecksumFilter)
	require.NotEqual(t, plain.Checksum, filtered.Checksum)
	require.Contains(t, filtered.Dump, "<title>Hi</title>")
	require.NotContains(t, filtered.Dump, ">ad<")

	// Without a Monitor only /examine is served.
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_Events(t *testing.T) {
	site := newTestSite()
	site.set("/page", "<title>x</title>")
	m, base := newTestMonitor(t, site, EntryConfig{URI: "/page"})

	srv := httptest.NewServer(&Handler{Monitor: m})
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/events", nil)
	require.NoError(t, err)
	defer ws.Close()

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.subscribers) == 1
	}, 5*time.Second, 10*time.Millisecond)

	_, err = m.Check(context.Background(), base+"/page")
	require.NoError(t, err)

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev Event
	require.NoError(t, ws.ReadJSON(&ev))
	require.Equal(t, base+"/page", ev.URI)
	require.Equal(t, "x", ev.Info.Title)

	require.NoError(t, ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.subscribers) == 0
	}, 5*time.Second, 10*time.Millisecond)
}
