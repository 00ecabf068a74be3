// Package watch examines fetched web pages with the htree parser and monitors
// them for changes.
package watch

import (
	"errors"
	"io"
	"log/slog"
)

var (
	// ErrNotMarkup is returned by Examine for content that is neither HTML nor
	// XML.
	ErrNotMarkup = errors.New("content is not markup")

	// ErrUnknownEntry is returned by Monitor.Check for a URI that is not
	// monitored.
	ErrUnknownEntry = errors.New("unknown entry")
)

// discardLogger returns l, or a logger that drops everything if l is nil.
func discardLogger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	// TODO: replace with slog.DiscardHandler once the module requires Go 1.24.
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
