package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxBodySize limits the size of fetched pages.
const DefaultMaxBodySize = 10 << 20

// Status is the state of a monitored page after its last check.
type Status struct {
	URI     string `json:"uri"`
	LinkURI string `json:"linkURI,omitempty"`

	// Checked is the end of the last check.
	Checked time.Time `json:"checked"`

	// StatusCode is the HTTP status of the last response, 0 if the request
	// failed.
	StatusCode int    `json:"statusCode,omitempty"`
	Error      string `json:"error,omitempty"`

	// LastSuccess is the end of the last check answered with 200 or 304.
	LastSuccess time.Time `json:"lastSuccess"`

	// LastChange is the end of the first successful check that saw the
	// current content.
	LastChange time.Time `json:"lastChange"`

	// FirstError and LastError span the errors since LastSuccess.
	FirstError time.Time `json:"firstError"`
	LastError  time.Time `json:"lastError"`

	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"lastModified,omitempty"`
	ContentType  string `json:"contentType,omitempty"`
	Charset      string `json:"charset,omitempty"`

	// RawChecksum is the checksum of the undecoded content.
	RawChecksum uint64 `json:"rawChecksum"`

	// Info is the examination of the content, nil for content that is not
	// markup.
	Info *PageInfo `json:"info,omitempty"`

	// UpdateHint is set when an update-information page announced a change
	// of the page. The page is checked on the next poll.
	UpdateHint bool `json:"updateHint,omitempty"`
}

// Event reports a check.
type Event struct {
	URI     string    `json:"uri"`
	Info    *PageInfo `json:"info,omitempty"`
	Changed bool      `json:"changed"`
	Error   string    `json:"error,omitempty"`
}

// Monitor periodically fetches the configured pages and records when their
// content changes.
type Monitor struct {
	// Client fetches pages. It defaults to a client with the configured
	// timeout.
	Client *http.Client

	// Logger is the logger to use. If nil, the logger will be a no-op.
	Logger *slog.Logger

	// Now returns the current time. It defaults to time.Now.
	Now func() time.Time

	// MaxBodySize limits fetched pages; longer pages are truncated.
	MaxBodySize int64

	cfg     Config
	entries map[string]EntryConfig

	mu          sync.Mutex
	status      map[string]*Status
	subscribers map[chan Event]struct{}
}

// NewMonitor returns a Monitor of the entries of cfg.
func NewMonitor(cfg Config) *Monitor {
	m := &Monitor{
		Client:      &http.Client{Timeout: time.Duration(cfg.Timeout)},
		MaxBodySize: DefaultMaxBodySize,
		cfg:         cfg,
		entries:     make(map[string]EntryConfig, len(cfg.Entries)),
		status:      make(map[string]*Status, len(cfg.Entries)),
		subscribers: make(map[chan Event]struct{}),
	}
	for _, e := range cfg.Entries {
		m.entries[e.URI] = e
		m.status[e.URI] = &Status{URI: e.URI, LinkURI: e.LinkURI}
	}
	return m
}

func (m *Monitor) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Monitor) logger() *slog.Logger {
	return discardLogger(m.Logger)
}

// Statuses returns a copy of the status of every entry in configuration
// order.
func (m *Monitor) Statuses() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := make([]Status, 0, len(m.cfg.Entries))
	for _, e := range m.cfg.Entries {
		r = append(r, *m.status[e.URI])
	}
	return r
}

// Status returns a copy of the status of the entry uri.
func (m *Monitor) Status(uri string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.status[uri]
	if !ok {
		return Status{}, fmt.Errorf("%w: %s", ErrUnknownEntry, uri)
	}
	return *st, nil
}

// Subscribe returns a channel receiving an Event for every check. Events are
// dropped while the channel is full.
func (m *Monitor) Subscribe() chan Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := make(chan Event, 16)
	m.subscribers[sub] = struct{}{}
	return sub
}

// Unsubscribe stops delivery to sub and closes it.
func (m *Monitor) Unsubscribe(sub chan Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscribers[sub]; !ok {
		return
	}
	delete(m.subscribers, sub)
	close(sub)
}

// notify must be called with m.mu held.
func (m *Monitor) notify(ev Event) {
	for sub := range m.subscribers {
		select {
		case sub <- ev:
		default:
		}
	}
}

// Run checks every entry that is due each interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	interval := time.Duration(m.cfg.Interval)
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		m.checkDue(ctx)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil
		}
	}
}

// checkDue checks the entries whose next timing has come.
func (m *Monitor) checkDue(ctx context.Context) {
	now := m.now()
	var due []string
	m.mu.Lock()
	for _, e := range m.cfg.Entries {
		if !nextTiming(m.status[e.URI], e, now).After(now) {
			due = append(due, e.URI)
		}
	}
	m.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	if m.cfg.Workers > 0 {
		g.SetLimit(m.cfg.Workers)
	}
	for _, uri := range due {
		g.Go(func() error {
			if _, err := m.Check(ctx, uri); err != nil && ctx.Err() == nil {
				m.logger().Warn("Check failed", "url", uri, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// nextTiming returns when the entry should be checked next. Errors are
// retried with a doubling delay starting at the minimum interval. Otherwise
// the delay is the time the current content has been unchanged, bounded by
// the minimum and maximum intervals.
func nextTiming(st *Status, e EntryConfig, now time.Time) time.Time {
	lo := time.Duration(e.MinimumInterval)
	hi := time.Duration(e.MaximumInterval)
	if lo == 0 {
		lo = DefaultMinimumInterval
	}
	if hi == 0 {
		hi = DefaultMaximumInterval
	}
	if hi < lo {
		lo = hi
	}

	switch {
	case st.UpdateHint:
		return now
	case !st.FirstError.IsZero():
		if st.FirstError.Equal(st.LastError) {
			return st.FirstError.Add(lo)
		}
		return st.LastError.Add(st.LastError.Sub(st.FirstError))
	case !st.LastChange.IsZero():
		s1, s2 := st.LastChange, st.LastSuccess
		if s2.Before(s1) {
			s1 = s2
		}
		next := s2.Add(s2.Sub(s1))
		if next.Before(s2.Add(lo)) {
			return s2.Add(lo)
		}
		if next.After(s2.Add(hi)) {
			return s2.Add(hi)
		}
		return next
	default:
		return now
	}
}

// Check fetches and examines the entry uri now. The returned Event is also
// delivered to subscribers. A failed fetch is recorded in the status and
// returned as an error along with the event.
func (m *Monitor) Check(ctx context.Context, uri string) (Event, error) {
	entry, ok := m.entries[uri]
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrUnknownEntry, uri)
	}
	prev, _ := m.Status(uri)

	res, err := m.fetch(ctx, entry, prev)
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.status[uri]
	st.Checked = now
	st.UpdateHint = false
	ev := Event{URI: uri}

	if err != nil {
		st.StatusCode = res.statusCode
		st.Error = err.Error()
		if st.FirstError.IsZero() {
			st.FirstError = now
		}
		st.LastError = now
		ev.Error = st.Error
		m.notify(ev)
		return ev, err
	}

	st.StatusCode = res.statusCode
	st.Error = ""
	st.FirstError, st.LastError = time.Time{}, time.Time{}
	st.LastSuccess = now
	if res.statusCode == http.StatusNotModified {
		ev.Info = st.Info
		m.notify(ev)
		return ev, nil
	}

	changed := prev.LastSuccess.IsZero() || !contentUnchanged(&prev, res)
	if changed {
		st.LastChange = now
	}
	ev.Changed = changed && !prev.LastSuccess.IsZero()
	st.ETag = res.etag
	st.LastModified = res.lastModified
	st.ContentType = res.contentType
	st.Charset = res.charset
	st.RawChecksum = res.rawChecksum
	st.Info = res.info
	if res.info != nil && res.info.LinkURI != "" && entry.LinkURI == "" {
		st.LinkURI = res.info.LinkURI
	}

	if entry.UpdateInfo && ev.Changed && prev.Info != nil && res.info != nil {
		m.hintUpdates(entry, prev.Info, res.info)
	}

	ev.Info = res.info
	m.notify(ev)
	m.logger().Debug("Checked", "url", uri, "status", res.statusCode, "changed", ev.Changed)
	return ev, nil
}

// contentUnchanged reports whether a fetch saw the same content as the
// previous one: the raw content is identical, or the filtered content is
// identical under the same ignore rules.
func contentUnchanged(prev *Status, res *fetchResult) bool {
	if prev.RawChecksum == res.rawChecksum {
		return true
	}
	if prev.Info == nil || res.info == nil {
		return false
	}
	return prev.Info.Checksum == res.info.Checksum &&
		slices.Equal(prev.Info.ChecksumFilter, res.info.ChecksumFilter)
}

// hintUpdates marks the entries whose links on the update-information page
// changed. It must be called with m.mu held.
func (m *Monitor) hintUpdates(entry EntryConfig, prev, cur *PageInfo) {
	known := func(uri string) bool {
		_, ok := m.entries[uri]
		return ok && uri != entry.URI
	}
	before := ExtractUpdateInfo(prev.Tree, entry.URI, entry.UpdateElement, known)
	after := ExtractUpdateInfo(cur.Tree, entry.URI, entry.UpdateElement, known)
	for _, uri := range CompareUpdateInfo(before, after) {
		m.status[uri].UpdateHint = true
		m.logger().Info("Update announced", "url", uri, "by", entry.URI)
	}
}

type fetchResult struct {
	statusCode   int
	etag         string
	lastModified string
	contentType  string
	charset      string
	rawChecksum  uint64
	info         *PageInfo
}

func (m *Monitor) fetch(ctx context.Context, entry EntryConfig, prev Status) (*fetchResult, error) {
	res := &fetchResult{}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, entry.URI, nil)
	if err != nil {
		return res, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", m.userAgent())
	// A server may refuse conditional requests with 412; the next request
	// is sent without them.
	if !prev.LastSuccess.IsZero() && prev.StatusCode != http.StatusPreconditionFailed {
		if prev.ETag != "" {
			req.Header.Set("If-None-Match", prev.ETag)
		}
		if prev.LastModified != "" {
			req.Header.Set("If-Modified-Since", prev.LastModified)
		}
	}

	resp, err := m.Client.Do(req)
	if err != nil {
		return res, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	res.statusCode = resp.StatusCode
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotModified:
		return res, nil
	default:
		return res, fmt.Errorf("fetch: unexpected status %s", resp.Status)
	}

	limit := m.MaxBodySize
	if limit <= 0 {
		limit = DefaultMaxBodySize
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return res, fmt.Errorf("read body: %w", err)
	}

	res.etag = resp.Header.Get("ETag")
	res.lastModified = resp.Header.Get("Last-Modified")
	res.contentType = resp.Header.Get("Content-Type")
	res.rawChecksum = checksum(body)

	content, cs, err := Decode(body, res.contentType)
	if err != nil {
		return res, err
	}
	res.charset = cs

	info, err := Examine(res.contentType, content, entry.Rules())
	switch {
	case errors.Is(err, ErrNotMarkup):
	case err != nil:
		return res, err
	default:
		res.info = info
	}
	return res, nil
}

func (m *Monitor) userAgent() string {
	if m.cfg.UserAgent != "" {
		return m.cfg.UserAgent
	}
	return DefaultUserAgent
}
