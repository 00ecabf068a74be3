// Package htree parses HTML and XML tag soup into an immutable tree.
//
// Parsing never fails. The source is split into tokens by a linear scanner,
// start and end tags are matched into a preliminary tree, and the tree is
// then repaired according to the HTML 4 content model: omitted end tags are
// inferred, void elements are emptied and misplaced elements are moved up to
// where they are allowed. The raw text of every node is kept, so the
// RawString of a parsed document equals its source.
package htree

import (
	"mime"
	"strings"
)

// ParseOptions configures ParseWithOptions.
type ParseOptions struct {
	// ContentType is the declared media type of the source, e.g. from an HTTP
	// Content-Type header. An XML media type makes the source parsed as XML
	// without content model repair.
	ContentType string
}

// Parse parses src as HTML. It never fails: malformed markup is recovered
// into a best-effort tree whose RawString equals src.
func Parse(src string) *Doc {
	return ParseWithOptions(src, ParseOptions{})
}

// ParseWithOptions parses src. Elements nest at most 512 deep; a start tag
// beyond that depth becomes a childless element followed by its content.
//
// An XML declaration in src makes script and style ordinary elements, but the
// tree is still repaired. When the options declare an XML content type the
// tree is built by tag matching only: omitted end tags are not inferred and
// void element names have no special meaning.
func ParseWithOptions(src string, opts ParseOptions) *Doc {
	declared := IsXMLContentType(opts.ContentType)
	s := newScanner(src, declared)
	s.scan()

	nodes := pair(s.tokens)
	if declared {
		return &Doc{children: nodes, xml: true}
	}

	return &Doc{children: repairTree(nodes), xml: s.xml}
}

// repairTree rebuilds the top-level nodes of a preliminary tree according to
// the content model.
func repairTree(nodes []Node) []Node {
	r := &repairer{explicit: make(map[*Elem]bool)}
	for _, n := range nodes {
		// An unclosed top-level html element contains the rest of the document.
		if e, ok := n.(*Elem); ok && !e.empty && e.etag == nil && e.Name() == "html" {
			r.explicit[e] = true
		}
	}
	return r.repairList(nodes)
}

// IsXMLContentType reports whether the media type ct denotes XML:
// text/xml, application/xml or application/*+xml. Parameters are ignored.
func IsXMLContentType(ct string) bool {
	if ct == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
	}
	switch {
	case mt == "text/xml", mt == "application/xml":
		return true
	case strings.HasPrefix(mt, "application/") && strings.HasSuffix(mt, "+xml"):
		return true
	}
	return false
}
