package watch

import (
	"fmt"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dpotapov/go-watch/htree"
)

// PageInfo is what Examine extracts from a page.
type PageInfo struct {
	Title        string     `json:"title,omitempty"`
	Author       string     `json:"author,omitempty"`
	LastModified *time.Time `json:"lastModified,omitempty"`

	// LinkURI is the site link of an RSS or RDF feed.
	LinkURI string `json:"linkURI,omitempty"`

	// ChecksumFilter describes the ignore rules applied before computing
	// Checksum.
	ChecksumFilter []string `json:"checksumFilter,omitempty"`

	// Checksum is the fingerprint of the page with ignored parts removed.
	Checksum uint64 `json:"checksum"`

	// Dump is the structural dump of the page, when requested.
	Dump string `json:"dump,omitempty"`

	// Tree is the page with ignored parts removed.
	Tree *htree.Doc `json:"-"`
}

var markupTypeRE = regexp.MustCompile(`\A(?:text/html|text/xml|application/(?:[A-Za-z0-9.-]+\+)?xml)\z`)

// IsMarkup reports whether content of the given media type is parsed by
// Examine. Content starting with an XML declaration is markup regardless of
// its type.
func IsMarkup(contentType, content string) bool {
	if strings.HasPrefix(content, "<?xml") {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return markupTypeRE.MatchString(mt)
}

// Examine parses an HTML or XML page and extracts its title, author, last
// modification time and feed link, and computes the checksum of its content
// without the parts selected by rules. It returns ErrNotMarkup for other
// content.
func Examine(contentType, content string, rules IgnoreRules) (*PageInfo, error) {
	if !IsMarkup(contentType, content) {
		return nil, ErrNotMarkup
	}
	f, err := rules.compile()
	if err != nil {
		return nil, err
	}

	// Content recognized by its XML declaration alone is parsed as XML.
	parseType := contentType
	if mt, _, err := mime.ParseMediaType(contentType); err != nil || !markupTypeRE.MatchString(mt) {
		parseType = "application/xml"
	}
	doc := htree.ParseWithOptions(content, htree.ParseOptions{ContentType: parseType})

	info := &PageInfo{}
	info.Title, _ = doc.Title()
	info.Author, _ = doc.Author()

	doc.TraverseElement("meta", func(e *htree.Elem) bool {
		equiv, err := e.FetchAttr("http-equiv")
		if err != nil || !strings.EqualFold(equiv, "last-modified") {
			return true
		}
		value, err := e.FetchAttr("content")
		if err != nil {
			return true
		}
		if t, ok := parseTime(value); ok {
			info.LastModified = &t
			return false
		}
		return true
	})

	if root := doc.Root(); root != nil && (root.Name() == "rss" || root.Name() == "rdf:rdf") {
		if link := doc.FindElement("link"); link != nil {
			uri := strings.TrimSpace(link.Text())
			if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
				info.LinkURI = uri
			}
		}
	}

	filtered, err := f.apply(doc)
	if err != nil {
		return nil, fmt.Errorf("apply ignore rules: %w", err)
	}
	info.Tree = filtered
	info.ChecksumFilter = rules.Describe()
	info.Checksum = Fingerprint(filtered)
	return info, nil
}

// parseTime parses an HTTP date, falling back to RFC 3339 and RFC 1123 with
// a numeric zone.
func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := http.ParseTime(s); err == nil {
		return t, true
	}
	for _, layout := range []string{time.RFC3339, time.RFC1123Z} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
