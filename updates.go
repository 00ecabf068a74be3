package watch

import (
	"net/url"
	"sort"
	"strings"

	"github.com/dpotapov/go-watch/htree"
)

// DefaultUpdateElement groups links in ExtractUpdateInfo when no element name
// is given.
const DefaultUpdateElement = "a"

// ExtractUpdateInfo collects the links of an update-information page, such as
// an antenna or a "what's new" list. Every <a href> is resolved against
// baseURI, or against the last <base href> seen before it, and kept if known
// reports true for the result. Each kept link maps to the nearest enclosing
// updateElement elements, so that a change of their text hints that the
// linked page changed.
func ExtractUpdateInfo(tree *htree.Doc, baseURI, updateElement string, known func(string) bool) map[string][]*htree.Elem {
	if updateElement == "" {
		updateElement = DefaultUpdateElement
	}
	base, err := url.Parse(baseURI)
	if err != nil {
		base = &url.URL{}
	}
	x := &updateExtractor{
		base:    base,
		element: updateElement,
		known:   known,
		result:  make(map[string][]*htree.Elem),
	}
	for _, n := range tree.Children() {
		if e, ok := n.(*htree.Elem); ok {
			x.extract(e)
		}
	}
	return x.result
}

type updateExtractor struct {
	base    *url.URL
	element string
	known   func(string) bool
	result  map[string][]*htree.Elem
}

// extract returns the links under e that are not yet grouped.
func (x *updateExtractor) extract(e *htree.Elem) []string {
	var hrefs []string
	switch localName(e.Name()) {
	case "base":
		if href, ok := e.Attr("href"); ok {
			if u, err := x.base.Parse(strings.TrimSpace(href)); err == nil {
				x.base = u
			}
		}
	case "a":
		if href, ok := e.Attr("href"); ok {
			if u, err := x.base.Parse(strings.TrimSpace(href)); err == nil && x.known(u.String()) {
				hrefs = append(hrefs, u.String())
			}
		}
	default:
		for _, n := range e.Children() {
			if c, ok := n.(*htree.Elem); ok {
				hrefs = append(hrefs, x.extract(c)...)
			}
		}
	}

	hrefs = uniq(hrefs)
	if e.Name() != x.element {
		return hrefs
	}
	for _, uri := range hrefs {
		x.result[uri] = append(x.result[uri], e)
	}
	return nil
}

// localName strips an XHTML namespace prefix.
func localName(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func uniq(s []string) []string {
	seen := make(map[string]bool, len(s))
	r := s[:0]
	for _, v := range s {
		if !seen[v] {
			seen[v] = true
			r = append(r, v)
		}
	}
	return r
}

// CompareUpdateInfo returns the sorted links present in both prev and cur
// whose grouped text differs.
func CompareUpdateInfo(prev, cur map[string][]*htree.Elem) []string {
	var changed []string
	for uri, elems := range cur {
		before, ok := prev[uri]
		if !ok {
			continue
		}
		if groupText(before) != groupText(elems) {
			changed = append(changed, uri)
		}
	}
	sort.Strings(changed)
	return changed
}

func groupText(elems []*htree.Elem) string {
	var b strings.Builder
	for _, e := range elems {
		b.WriteString(e.Text())
	}
	return b.String()
}
