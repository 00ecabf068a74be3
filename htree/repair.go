package htree

// repairContext is the content model in effect for the children of an
// element whose end tag was omitted.
type repairContext struct {
	// siblings are the tags allowed next to the element; unknown elements
	// allow them as children.
	siblings TagSet

	// included and excluded accumulate the inclusions and exclusions of the
	// enclosing implicitly closed elements.
	included []TagSet
	excluded []TagSet
}

func (c repairContext) allows(possible TagSet, name string) bool {
	for _, s := range c.excluded {
		if s.Has(name) {
			return false
		}
	}
	if possible.Has(name) {
		return true
	}
	for _, s := range c.included {
		if s.Has(name) {
			return true
		}
	}
	return false
}

// rootContext is the context of top-level elements and of the children of
// elements with an authored end tag.
var rootContext = repairContext{siblings: contentModel[rootTag].Children}

// nodeQueue is a queue of nodes that allows pushing leftovers back to its
// front. Items are stored in reverse order.
type nodeQueue []Node

func newNodeQueue(nodes []Node) nodeQueue {
	q := make(nodeQueue, 0, len(nodes))
	q.pushFront(nodes)
	return q
}

func (q nodeQueue) empty() bool { return len(q) == 0 }

func (q *nodeQueue) pop() Node {
	i := len(*q) - 1
	n := (*q)[i]
	*q = (*q)[:i]
	return n
}

// pushFront puts nodes, in order, at the front of the queue.
func (q *nodeQueue) pushFront(nodes []Node) {
	for i := len(nodes) - 1; i >= 0; i-- {
		*q = append(*q, nodes[i])
	}
}

// drain returns the queued nodes in order and empties the queue.
func (q *nodeQueue) drain() []Node {
	if len(*q) == 0 {
		return nil
	}
	nodes := make([]Node, len(*q))
	for i, n := range *q {
		nodes[len(nodes)-1-i] = n
	}
	*q = (*q)[:0]
	return nodes
}

// repairer rebuilds the preliminary tree according to the content model.
type repairer struct {
	// explicit holds elements treated as if they had an end tag.
	explicit map[*Elem]bool
}

// repairList repairs a list of sibling nodes whose enclosing element had an
// authored end tag, or the top-level list. Leftovers of a child are offered to
// the following siblings.
func (r *repairer) repairList(nodes []Node) []Node {
	result := make([]Node, 0, len(nodes))
	q := newNodeQueue(nodes)
	for !q.empty() {
		n := q.pop()
		e, ok := n.(*Elem)
		if !ok || e.empty {
			result = append(result, n)
			continue
		}
		fixed, rest := r.repairElem(e, rootContext)
		result = append(result, fixed)
		q.pushFront(rest)
	}
	return result
}

// repairElem repairs e in the context ctx of its parent. It returns the
// repaired element and the nodes that the element cannot contain. Those
// follow the element in the source and belong to one of its ancestors.
func (r *repairer) repairElem(e *Elem, ctx repairContext) (*Elem, []Node) {
	if e.empty {
		return e, nil
	}
	model, known := contentModel[e.Name()]

	if known && model.Kind == KindVoid {
		// A void element keeps nothing; its end tag, if any, is bogus.
		rest := append([]Node(nil), e.children...)
		if e.etag != nil {
			rest = append(rest, &BogusETag{leaf{raw: e.etag.Raw(), span: e.etag.Span()}})
		}
		return &Elem{stag: e.stag, empty: true}, rest
	}

	if e.etag != nil || r.explicit[e] {
		return &Elem{stag: e.stag, children: r.repairList(e.children), etag: e.etag}, nil
	}

	// The end tag was omitted: the element ends before the first child that
	// it cannot contain.
	possible := ctx.siblings
	child := ctx
	if known {
		possible = model.Children
		if model.Inclusions.Len() > 0 {
			child.included = append(ctx.included[:len(ctx.included):len(ctx.included)], model.Inclusions)
		}
		if model.Exclusions.Len() > 0 {
			child.excluded = append(ctx.excluded[:len(ctx.excluded):len(ctx.excluded)], model.Exclusions)
		}
	}
	child.siblings = possible

	fixed := make([]Node, 0, len(e.children))
	q := newNodeQueue(e.children)
	for !q.empty() {
		n := q.pop()
		ce, ok := n.(*Elem)
		if !ok {
			fixed = append(fixed, n)
			continue
		}
		if !child.allows(possible, ce.Name()) {
			q.pushFront([]Node{n})
			break
		}
		fe, rest := r.repairElem(ce, child)
		fixed = append(fixed, fe)
		q.pushFront(rest)
	}
	return &Elem{stag: e.stag, children: fixed}, q.drain()
}
