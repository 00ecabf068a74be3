package htree

import "strconv"

// walk calls fn for n and its descendants in document order. It stops and
// returns false as soon as fn returns false.
func walk(n Node, fn func(Node) bool) bool {
	if !fn(n) {
		return false
	}
	if p, ok := n.(parent); ok {
		for _, c := range p.kids() {
			if !walk(c, fn) {
				return false
			}
		}
	}
	return true
}

func walkElements(n Node, name string, fn func(*Elem) bool) bool {
	return walk(n, func(n Node) bool {
		e, ok := n.(*Elem)
		if !ok || (name != "" && e.Name() != name) {
			return true
		}
		return fn(e)
	})
}

// eachWithPath calls fn for each node of nodes with its path below prefix. A
// path step is the node test of the node followed by its 1-based position
// among the siblings with the same node test; the position is omitted when the
// node test is unique among the siblings.
func eachWithPath(nodes []Node, prefix string, fn func(Node, string) bool) bool {
	count := make(map[string]int)
	for _, n := range nodes {
		count[n.NodeTest()]++
	}
	pos := make(map[string]int)
	for _, n := range nodes {
		test := n.NodeTest()
		pos[test]++
		step := test
		if count[test] > 1 {
			step += "[" + strconv.Itoa(pos[test]) + "]"
		}
		if !fn(n, prefix+"/"+step) {
			return false
		}
	}
	return true
}

func walkWithPath(n Node, path string, fn func(Node, string) bool) bool {
	if !fn(n, path) {
		return false
	}
	p, ok := n.(parent)
	if !ok {
		return true
	}
	if _, ok := n.(*Doc); ok {
		path = ""
	}
	return eachWithPath(p.kids(), path, func(c Node, cp string) bool {
		return walkWithPath(c, cp, fn)
	})
}

// Traverse calls fn for the document and every node below it in document
// order, until fn returns false. It reports whether the walk completed.
func (d *Doc) Traverse(fn func(Node) bool) bool { return walk(d, fn) }

// Traverse calls fn for the element and every node below it in document
// order, until fn returns false. It reports whether the walk completed.
func (e *Elem) Traverse(fn func(Node) bool) bool { return walk(e, fn) }

// TraverseElement is like Traverse, but only visits elements named name, or
// all elements if name is empty.
func (d *Doc) TraverseElement(name string, fn func(*Elem) bool) bool {
	return walkElements(d, name, fn)
}

// TraverseElement is like Traverse, but only visits elements named name, or
// all elements if name is empty.
func (e *Elem) TraverseElement(name string, fn func(*Elem) bool) bool {
	return walkElements(e, name, fn)
}

// EachWithPath calls fn for each top-level node with its path below prefix.
func (d *Doc) EachWithPath(prefix string, fn func(Node, string) bool) bool {
	return eachWithPath(d.children, prefix, fn)
}

// EachWithPath calls fn for each child with its path below prefix.
func (e *Elem) EachWithPath(prefix string, fn func(Node, string) bool) bool {
	return eachWithPath(e.children, prefix, fn)
}

// TraverseWithPath is like Traverse, but also passes the path of each node.
// The path of the document is "/", top-level nodes are at "/html",
// "/text()[2]" and so on.
func (d *Doc) TraverseWithPath(fn func(Node, string) bool) bool {
	return walkWithPath(d, rootTag, fn)
}

// TraverseWithPath is like Traverse, but also passes the path of each node,
// taking path as the path of e.
func (e *Elem) TraverseWithPath(path string, fn func(Node, string) bool) bool {
	return walkWithPath(e, path, fn)
}

// FindElement returns the first element named name in document order, or the
// first element if name is empty. It returns nil if there is none.
func (d *Doc) FindElement(name string) *Elem { return findElement(d, name) }

// FindElement is like Doc.FindElement, searching e and its descendants.
func (e *Elem) FindElement(name string) *Elem { return findElement(e, name) }

func findElement(n Node, name string) *Elem {
	var found *Elem
	walkElements(n, name, func(e *Elem) bool {
		found = e
		return false
	})
	return found
}
