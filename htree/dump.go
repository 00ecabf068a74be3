package htree

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Dump writes an indented structural view of n to w, one node per line.
// Element and attribute names are lowercase and text is decoded; white space
// only text is omitted. The output is meant for diagnostics and diffs, not
// for reparsing.
func Dump(w io.Writer, n Node) error {
	doc := etree.NewDocument()
	dumpNode(&doc.Element, n)
	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("dump tree: %w", err)
	}
	return nil
}

func dumpNode(dst *etree.Element, n Node) {
	switch n := n.(type) {
	case *Doc:
		for _, c := range n.children {
			dumpNode(dst, c)
		}
	case *Elem:
		el := dst.CreateElement(n.Name())
		for _, a := range n.stag.Attrs() {
			if a.HasName {
				el.CreateAttr(a.Name, a.Text())
			} else {
				el.CreateAttr(strings.ToLower(a.RCData), "")
			}
		}
		for _, c := range n.children {
			dumpNode(el, c)
		}
	case *Text:
		if !n.IsWhitespace() {
			dst.CreateText(n.Text())
		}
	case *Comment:
		dst.CreateComment(commentData(n.raw))
	case *ProcIns:
		target := n.Target()
		inst := strings.TrimSuffix(strings.TrimPrefix(n.raw, "<?"+target), ">")
		inst = strings.TrimSuffix(inst, "?")
		dst.CreateProcInst(target, strings.TrimSpace(inst))
	case *DocType:
		dst.CreateDirective(strings.TrimSuffix(strings.TrimPrefix(n.raw, "<!"), ">"))
	case *BogusETag:
		dst.CreateComment(" bogus end tag " + n.raw + " ")
	}
}

func commentData(raw string) string {
	return strings.TrimSuffix(strings.TrimPrefix(raw, "<!--"), "-->")
}

// ToHTML converts n to a golang.org/x/net/html tree. Bogus end tags are
// dropped and processing instructions become raw nodes.
func ToHTML(n Node) *html.Node {
	switch n := n.(type) {
	case *Doc:
		dst := &html.Node{Type: html.DocumentNode}
		appendHTML(dst, n.children)
		return dst
	case *Elem:
		dst := &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Lookup([]byte(n.Name())),
			Data:     n.Name(),
		}
		for _, a := range n.stag.Attrs() {
			if a.HasName {
				dst.Attr = append(dst.Attr, html.Attribute{Key: a.Name, Val: a.Text()})
			} else {
				dst.Attr = append(dst.Attr, html.Attribute{Key: strings.ToLower(a.RCData)})
			}
		}
		appendHTML(dst, n.children)
		return dst
	case *Text:
		return &html.Node{Type: html.TextNode, Data: n.Text()}
	case *Comment:
		return &html.Node{Type: html.CommentNode, Data: commentData(n.raw)}
	case *ProcIns:
		return &html.Node{Type: html.RawNode, Data: n.raw}
	case *DocType:
		dst := &html.Node{Type: html.DoctypeNode, Data: n.Name()}
		if id := n.PublicID(); id != "" {
			dst.Attr = append(dst.Attr, html.Attribute{Key: "public", Val: id})
		}
		if id := n.SystemID(); id != "" {
			dst.Attr = append(dst.Attr, html.Attribute{Key: "system", Val: id})
		}
		return dst
	}
	return nil
}

func appendHTML(dst *html.Node, nodes []Node) {
	for _, c := range nodes {
		if h := ToHTML(c); h != nil {
			dst.AppendChild(h)
		}
	}
}

// Render writes n to w as normalized HTML. Unlike RawString, the output is not
// the source text: attributes are quoted and text is escaped.
func Render(w io.Writer, n Node) error {
	h := ToHTML(n)
	if h == nil {
		return nil
	}
	if err := html.Render(w, h); err != nil {
		return fmt.Errorf("render tree: %w", err)
	}
	return nil
}
