package htree

// filterNodes keeps the nodes for which pred returns true, filtering kept
// elements recursively.
func filterNodes(nodes []Node, pred func(Node) bool) []Node {
	kept := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if !pred(n) {
			continue
		}
		if e, ok := n.(*Elem); ok {
			n = e.Filter(pred)
		}
		kept = append(kept, n)
	}
	return kept
}

func filterNodesWithPath(nodes []Node, prefix string, pred func(Node, string) bool) []Node {
	kept := make([]Node, 0, len(nodes))
	eachWithPath(nodes, prefix, func(n Node, path string) bool {
		if !pred(n, path) {
			return true
		}
		if e, ok := n.(*Elem); ok {
			n = e.FilterWithPath(path, pred)
		}
		kept = append(kept, n)
		return true
	})
	return kept
}

func elementsOnly(pred func(*Elem) bool) func(Node) bool {
	return func(n Node) bool {
		e, ok := n.(*Elem)
		return !ok || pred(e)
	}
}

func elementsOnlyWithPath(pred func(*Elem, string) bool) func(Node, string) bool {
	return func(n Node, path string) bool {
		e, ok := n.(*Elem)
		return !ok || pred(e, path)
	}
}

// Filter returns a new document with the nodes for which pred returns true.
// Descendants of dropped elements are not visited.
func (d *Doc) Filter(pred func(Node) bool) *Doc {
	return &Doc{children: filterNodes(d.children, pred), xml: d.xml}
}

// FilterElement is like Filter, but keeps all non-element nodes.
func (d *Doc) FilterElement(pred func(*Elem) bool) *Doc {
	return d.Filter(elementsOnly(pred))
}

// FilterWithPath is like Filter, but also passes the path of each node.
func (d *Doc) FilterWithPath(pred func(Node, string) bool) *Doc {
	return &Doc{children: filterNodesWithPath(d.children, "", pred), xml: d.xml}
}

// FilterElementWithPath is like FilterWithPath, but keeps all non-element
// nodes.
func (d *Doc) FilterElementWithPath(pred func(*Elem, string) bool) *Doc {
	return d.FilterWithPath(elementsOnlyWithPath(pred))
}

// Filter returns a copy of e without the descendants for which pred returns
// false. pred is not called for e itself.
func (e *Elem) Filter(pred func(Node) bool) *Elem {
	if e.empty {
		return e
	}
	return &Elem{stag: e.stag, children: filterNodes(e.children, pred), etag: e.etag}
}

// FilterElement is like Filter, but keeps all non-element nodes.
func (e *Elem) FilterElement(pred func(*Elem) bool) *Elem {
	return e.Filter(elementsOnly(pred))
}

// FilterWithPath is like Filter, but also passes the path of each node, taking
// path as the path of e.
func (e *Elem) FilterWithPath(path string, pred func(Node, string) bool) *Elem {
	if e.empty {
		return e
	}
	return &Elem{stag: e.stag, children: filterNodesWithPath(e.children, path, pred), etag: e.etag}
}

// FilterElementWithPath is like FilterWithPath, but keeps all non-element
// nodes.
func (e *Elem) FilterElementWithPath(path string, pred func(*Elem, string) bool) *Elem {
	return e.FilterWithPath(path, elementsOnlyWithPath(pred))
}

// FoldFunc rewrites an element given its already folded children. children is
// nil for empty elements. Returning nil drops the element.
type FoldFunc func(e *Elem, children []Node) Node

// FoldElement rewrites the document bottom-up with fn and returns the result.
func (d *Doc) FoldElement(fn FoldFunc) *Doc {
	return &Doc{children: foldNodes(d.children, fn), xml: d.xml}
}

// FoldElement rewrites e bottom-up with fn and returns the result, which is
// nil if fn dropped e.
func (e *Elem) FoldElement(fn FoldFunc) Node {
	if e.empty {
		return fn(e, nil)
	}
	return fn(e, foldNodes(e.children, fn))
}

func foldNodes(nodes []Node, fn FoldFunc) []Node {
	folded := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if e, ok := n.(*Elem); ok {
			n = e.FoldElement(fn)
		}
		if n != nil {
			folded = append(folded, n)
		}
	}
	return folded
}
