package htree

import (
	"strings"
)

// Node is a node of a parsed tree. The concrete types are *Doc, *Elem, *Text,
// *Comment, *ProcIns, *DocType and *BogusETag. Nodes are immutable.
type Node interface {
	// RawString returns the source text the node was built from.
	RawString() string

	// RCData returns the text content of the node with its character
	// references normalized (see FixCharRef).
	RCData() string

	// Text returns the text content of the node with its character references
	// decoded.
	Text() string

	// HTMLText returns RCData with '<' and '>' escaped.
	HTMLText() string

	// NodeTest returns the XPath-like node test of the node: the tag name for
	// elements, "text()", "comment()" and so on for the others.
	NodeTest() string

	// writeRaw and writeRCData append RawString and RCData to b.
	writeRaw(b *strings.Builder)
	writeRCData(b *strings.Builder)

	node()
}

// parent is implemented by *Doc and *Elem.
type parent interface {
	Node
	kids() []Node
}

type leaf struct {
	raw  string
	span Span
}

func (l *leaf) RawString() string { return l.raw }

// Span returns the location of the node in the source.
func (l *leaf) Span() Span { return l.span }

func (l *leaf) RCData() string   { return "" }
func (l *leaf) Text() string     { return "" }
func (l *leaf) HTMLText() string { return "" }
func (l *leaf) node()            {}

func (l *leaf) writeRaw(b *strings.Builder)  { b.WriteString(l.raw) }
func (*leaf) writeRCData(b *strings.Builder) {}

// Comment is a <!--...--> comment.
type Comment struct{ leaf }

func (*Comment) NodeTest() string { return "comment()" }

// ProcIns is a <?...?> processing instruction.
type ProcIns struct{ leaf }

func (*ProcIns) NodeTest() string { return "processing-instruction()" }

// Target returns the target name of the processing instruction, e.g. "xml".
func (p *ProcIns) Target() string {
	s := strings.TrimPrefix(p.raw, "<?")
	return s[:scanName(s)]
}

// BogusETag is an end tag that did not match any open element.
type BogusETag struct{ leaf }

func (*BogusETag) NodeTest() string { return "bogus-etag()" }

// Name returns the lowercase tag name of the end tag.
func (b *BogusETag) Name() string { return NewTag(b.raw).Name() }

// NewComment creates a comment node from its source text.
func NewComment(raw string) *Comment { return &Comment{leaf{raw: raw}} }

// NewProcIns creates a processing instruction node from its source text.
func NewProcIns(raw string) *ProcIns { return &ProcIns{leaf{raw: raw}} }

// NewBogusETag creates a bogus end tag node from its source text.
func NewBogusETag(raw string) *BogusETag { return &BogusETag{leaf{raw: raw}} }

// Text is a run of character data.
type Text struct {
	leaf
	rcdata string
}

// NewText creates a text node from parsed character data. Its rcdata is raw
// with the character references repaired.
func NewText(raw string) *Text {
	return &Text{leaf: leaf{raw: raw}, rcdata: FixCharRef(raw)}
}

// NewRawText creates a text node from the content of a raw-text element such
// as <script>. Nothing in raw is a reference.
func NewRawText(raw string) *Text {
	return &Text{leaf: leaf{raw: raw}, rcdata: EncodeRCData(raw)}
}

// NewCDATA creates a text node from a <![CDATA[...]]> section.
func NewCDATA(raw string) *Text {
	s := strings.TrimPrefix(raw, "<![CDATA[")
	s = strings.TrimSuffix(s, "]]>")
	return &Text{leaf: leaf{raw: raw}, rcdata: EncodeRCData(s)}
}

func (t *Text) RCData() string   { return t.rcdata }

func (t *Text) writeRCData(b *strings.Builder) { b.WriteString(t.rcdata) }

func (t *Text) Text() string     { return DecodeRCData(t.rcdata) }
func (t *Text) HTMLText() string { return escapeAngles(t.rcdata) }
func (*Text) NodeTest() string   { return "text()" }

// IsWhitespace reports whether the text consists of white space only.
func (t *Text) IsWhitespace() bool {
	return strings.TrimLeft(t.raw, " \t\r\n\f\v") == ""
}

// Elem is an element. An element created from an empty tag (<br/>) or a void
// element has no children and is empty.
type Elem struct {
	stag     *Tag
	etag     *Tag
	children []Node
	empty    bool
}

// NewElem creates an element with the given start tag, children and end tag.
// etag may be nil when the end tag was omitted.
func NewElem(stag *Tag, children []Node, etag *Tag) *Elem {
	return &Elem{
		stag:     stag,
		etag:     etag,
		children: append([]Node(nil), children...),
	}
}

// NewEmptyElem creates an element that cannot have children.
func NewEmptyElem(stag *Tag) *Elem {
	return &Elem{stag: stag, empty: true}
}

func (e *Elem) node()        {}
func (e *Elem) kids() []Node { return e.children }

// Tag returns the start tag of the element.
func (e *Elem) Tag() *Tag { return e.stag }

// ETag returns the end tag of the element as written in the source, or nil.
func (e *Elem) ETag() *Tag { return e.etag }

// Name returns the lowercase tag name.
func (e *Elem) Name() string { return e.stag.Name() }

// NodeTest returns the tag name.
func (e *Elem) NodeTest() string { return e.stag.Name() }

// IsEmpty reports whether the element is an empty element, i.e. it was
// written as an empty tag or it is a void element.
func (e *Elem) IsEmpty() bool { return e.empty }

// Attr returns the decoded value of the attribute name of the start tag.
func (e *Elem) Attr(name string) (string, bool) { return e.stag.Attr(name) }

// FetchAttr is like Attr, but reports a missing attribute as an error
// wrapping ErrAttrNotFound.
func (e *Elem) FetchAttr(name string) (string, error) { return e.stag.FetchAttr(name) }

// Children returns a copy of the child nodes.
func (e *Elem) Children() []Node { return append([]Node(nil), e.children...) }

func (e *Elem) RawString() string {
	var b strings.Builder
	e.writeRaw(&b)
	return b.String()
}

func (e *Elem) writeRaw(b *strings.Builder) {
	b.WriteString(e.stag.Raw())
	for _, n := range e.children {
		n.writeRaw(b)
	}
	if e.etag != nil {
		b.WriteString(e.etag.Raw())
	}
}

func (e *Elem) RCData() string {
	var b strings.Builder
	e.writeRCData(&b)
	return b.String()
}

func (e *Elem) writeRCData(b *strings.Builder) {
	for _, n := range e.children {
		n.writeRCData(b)
	}
}

func (e *Elem) Text() string     { return DecodeRCData(e.RCData()) }
func (e *Elem) HTMLText() string { return escapeAngles(e.RCData()) }

// Doc is the root of a parsed tree.
type Doc struct {
	children []Node
	xml      bool
}

// NewDoc creates a document with the given top-level nodes.
func NewDoc(children []Node) *Doc {
	return &Doc{children: append([]Node(nil), children...)}
}

func (d *Doc) node()        {}
func (d *Doc) kids() []Node { return d.children }

// IsXML reports whether the document was parsed as XML.
func (d *Doc) IsXML() bool { return d.xml }

// Children returns a copy of the top-level nodes.
func (d *Doc) Children() []Node { return append([]Node(nil), d.children...) }

// NodeTest returns "/".
func (*Doc) NodeTest() string { return rootTag }

func (d *Doc) RawString() string {
	var b strings.Builder
	d.writeRaw(&b)
	return b.String()
}

func (d *Doc) writeRaw(b *strings.Builder) {
	for _, n := range d.children {
		n.writeRaw(b)
	}
}

func (d *Doc) RCData() string {
	var b strings.Builder
	d.writeRCData(&b)
	return b.String()
}

func (d *Doc) writeRCData(b *strings.Builder) {
	for _, n := range d.children {
		n.writeRCData(b)
	}
}

func (d *Doc) Text() string     { return DecodeRCData(d.RCData()) }
func (d *Doc) HTMLText() string { return escapeAngles(d.RCData()) }
