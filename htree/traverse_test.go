package htree

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const pathDoc = `<html><body><p>a</p><p>b</p>x</body></html>`

func TestTraverseWithPath(t *testing.T) {
	var got []string
	Parse(pathDoc).TraverseWithPath(func(n Node, path string) bool {
		got = append(got, path)
		return true
	})
	want := []string{
		"/",
		"/html",
		"/html/body",
		"/html/body/p[1]",
		"/html/body/p[1]/text()",
		"/html/body/p[2]",
		"/html/body/p[2]/text()",
		"/html/body/text()",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestEachWithPath(t *testing.T) {
	body := Parse(pathDoc).FindElement("body")
	require.NotNil(t, body)
	var got []string
	body.EachWithPath("/x", func(n Node, path string) bool {
		got = append(got, path)
		return true
	})
	require.Equal(t, []string{"/x/p[1]", "/x/p[2]", "/x/text()"}, got)
}

func TestTraverseStops(t *testing.T) {
	doc := Parse(pathDoc)
	var visited int
	completed := doc.Traverse(func(n Node) bool {
		visited++
		return visited < 3
	})
	require.False(t, completed)
	require.Equal(t, 3, visited)

	var all int
	require.True(t, doc.Traverse(func(Node) bool { all++; return true }))
	require.Equal(t, 8, all)
}

func TestTraverseElement(t *testing.T) {
	doc := Parse(pathDoc)
	var texts []string
	doc.TraverseElement("p", func(e *Elem) bool {
		texts = append(texts, e.Text())
		return true
	})
	require.Equal(t, []string{"a", "b"}, texts)

	var names []string
	doc.TraverseElement("", func(e *Elem) bool {
		names = append(names, e.Name())
		return true
	})
	require.Equal(t, []string{"html", "body", "p", "p"}, names)
}

func TestFindElement(t *testing.T) {
	doc := Parse(pathDoc)
	require.Equal(t, "html", doc.FindElement("").Name())
	require.Equal(t, "a", doc.FindElement("p").Text())
	require.Nil(t, doc.FindElement("table"))
	require.Equal(t, "b", doc.FindElement("body").Children()[1].(*Elem).Text())
}

func TestFilter(t *testing.T) {
	doc := Parse(pathDoc)

	noSecond := doc.FilterElementWithPath(func(e *Elem, path string) bool {
		return path != "/html/body/p[2]"
	})
	require.Equal(t, `<html><body><p>a</p>x</body></html>`, noSecond.RawString())

	noText := doc.Filter(func(n Node) bool {
		_, isText := n.(*Text)
		return !isText
	})
	require.Equal(t, `<html><body><p></p><p></p></body></html>`, noText.RawString())

	noP := doc.FilterElement(func(e *Elem) bool { return e.Name() != "p" })
	require.Equal(t, `<html><body>x</body></html>`, noP.RawString())

	// The filtered document is a copy.
	require.Equal(t, pathDoc, doc.RawString())
}

func TestFilterWithPathVisitsKeptElementsOnly(t *testing.T) {
	var paths []string
	Parse(pathDoc).FilterWithPath(func(n Node, path string) bool {
		paths = append(paths, path)
		return !strings.HasPrefix(path, "/html/body/p")
	})
	require.Equal(t, []string{"/html", "/html/body", "/html/body/p[1]", "/html/body/p[2]", "/html/body/text()"}, paths)
}

func TestFoldElement(t *testing.T) {
	doc := Parse(`<p>x<b>y</b>z<br>w</p>`)

	unwrapped := doc.FoldElement(func(e *Elem, children []Node) Node {
		if e.Name() == "b" {
			return NewText(e.Text())
		}
		if e.IsEmpty() {
			return e
		}
		return NewElem(e.Tag(), children, e.ETag())
	})
	require.Equal(t, `<p>xyz<br>w</p>`, unwrapped.RawString())
	require.Equal(t, "xyzw", unwrapped.Text())

	dropped := doc.FoldElement(func(e *Elem, children []Node) Node {
		if e.Name() == "b" || e.Name() == "br" {
			return nil
		}
		return NewElem(e.Tag(), children, e.ETag())
	})
	require.Equal(t, `<p>xzw</p>`, dropped.RawString())

	replaced := doc.FoldElement(func(e *Elem, children []Node) Node {
		switch e.Name() {
		case "b":
			return NewComment("<!--" + e.Text() + "-->")
		case "br":
			return NewEmptyElem(NewTag("<br/>"))
		}
		return NewElem(e.Tag(), children, e.ETag())
	})
	require.Equal(t, `<p>x<!--y-->z<br/>w</p>`, replaced.RawString())
	require.Equal(t, "xzw", replaced.Text())
	require.True(t, replaced.FindElement("br").IsEmpty())

	emptyChildren := []Node{}
	doc.FoldElement(func(e *Elem, children []Node) Node {
		if e.Name() == "br" {
			emptyChildren = children
		}
		return e
	})
	require.Nil(t, emptyChildren)
}

func TestTitleAndAuthor(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		title     string
		hasTitle  bool
		author    string
		hasAuthor bool
	}{
		{
			name:      "meta author",
			src:       `<title> Hello &amp; bye </title><meta name=Author content=" Ann ">`,
			title:     "Hello & bye",
			hasTitle:  true,
			author:    "Ann",
			hasAuthor: true,
		},
		{
			name:      "link rev made",
			src:       `<head><link rev=made title="Bob"></head>`,
			author:    "Bob",
			hasAuthor: true,
		},
		{
			name:      "empty meta falls back to link",
			src:       `<meta name="author" content="  "><link rev="MADE" title="Carol">`,
			author:    "Carol",
			hasAuthor: true,
		},
		{
			name:     "no author",
			src:      `<html><head><title></title><meta name=keywords content=x></head></html>`,
			title:    "",
			hasTitle: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Parse(tt.src)
			title, ok := doc.Title()
			require.Equal(t, tt.hasTitle, ok)
			require.Equal(t, tt.title, title)
			author, ok := doc.Author()
			require.Equal(t, tt.hasAuthor, ok)
			require.Equal(t, tt.author, author)
		})
	}
}

func TestNodeText(t *testing.T) {
	doc := Parse(`<p>a &lt; b &amp c<script>x && y</script><![CDATA[<&>]]></p>`)
	require.Equal(t, "a &lt; b &amp; cx &amp;&amp; y&lt;&amp;&gt;", doc.HTMLText())
	require.Equal(t, "a < b & cx && y<&>", doc.Text())

	p := doc.Root()
	require.Equal(t, "a &lt; b &amp; cx &amp;&amp; y<&amp;>", p.RCData())
}

func TestNodeTests(t *testing.T) {
	doc := Parse(`<!DOCTYPE html><?pi x?><!--c--><p>t</p></z>`)
	var tests []string
	for _, n := range doc.Children() {
		tests = append(tests, n.NodeTest())
	}
	require.Equal(t, []string{"doctype()", "processing-instruction()", "comment()", "p", "bogus-etag()"}, tests)
	require.Equal(t, "/", doc.NodeTest())
	require.Equal(t, "z", doc.Children()[4].(*BogusETag).Name())
	require.Equal(t, "pi", doc.Children()[1].(*ProcIns).Target())
}

func TestNodeConstructors(t *testing.T) {
	tests := []struct {
		name     string
		node     Node
		raw      string
		text     string
		nodeTest string
	}{
		{"comment", NewComment("<!--c-->"), "<!--c-->", "", "comment()"},
		{"processing instruction", NewProcIns(`<?xml version="1.0"?>`), `<?xml version="1.0"?>`, "", "processing-instruction()"},
		{"bogus end tag", NewBogusETag("</Z>"), "</Z>", "", "bogus-etag()"},
		{"text", NewText("a &amp b"), "a &amp b", "a & b", "text()"},
		{"raw text", NewRawText("a &amp; b"), "a &amp; b", "a &amp; b", "text()"},
		{"cdata", NewCDATA("<![CDATA[<&>]]>"), "<![CDATA[<&>]]>", "<&>", "text()"},
		{"empty element", NewEmptyElem(NewTag("<br/>")), "<br/>", "", "br"},
		{"element", NewElem(NewTag("<b>"), []Node{NewText("x")}, NewTag("</b>")), "<b>x</b>", "x", "b"},
		{"document", NewDoc([]Node{NewComment("<!--c-->"), NewRawText("x")}), "<!--c-->x", "x", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.raw, tt.node.RawString())
			require.Equal(t, tt.text, tt.node.Text())
			require.Equal(t, tt.nodeTest, tt.node.NodeTest())
		})
	}

	require.Equal(t, "z", NewBogusETag("</Z>").Name())
	require.Equal(t, "xml", NewProcIns(`<?xml version="1.0"?>`).Target())
	require.Equal(t, `a &amp;amp; b`, NewRawText("a &amp; b").RCData())
}

func TestDocType(t *testing.T) {
	dt := NewDocType(`<!DOCTYPE HTML PUBLIC "-//W3C//DTD HTML 4.01//EN" "http://www.w3.org/TR/html4/strict.dtd">`)
	require.Equal(t, "html", dt.Name())
	require.Equal(t, "-//W3C//DTD HTML 4.01//EN", dt.PublicID())
	require.Equal(t, "http://www.w3.org/TR/html4/strict.dtd", dt.SystemID())

	dt = NewDocType(`<!doctype html>`)
	require.Equal(t, "html", dt.Name())
	require.Empty(t, dt.PublicID())

	dt = NewDocType(`<!DOCTYPE svg SYSTEM 'svg.dtd'>`)
	require.Equal(t, "svg", dt.Name())
	require.Equal(t, "svg.dtd", dt.SystemID())
}

func TestNodeSpans(t *testing.T) {
	doc := Parse("<p>\n<!--c--></p>")
	p := doc.Root()
	require.Equal(t, Span{Offset: 0, Line: 1, Column: 1, Length: 3}, p.Tag().Span())
	c := p.Children()[1].(*Comment)
	require.Equal(t, Span{Offset: 4, Line: 2, Column: 1, Length: 8}, c.Span())
	require.Equal(t, 16, p.ETag().Span().End())
}
