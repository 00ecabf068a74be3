package htree

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// malformed is a corpus of tag soup used by the round trip and repair tests.
var malformed = []string{
	"",
	"plain text",
	"<p>a<p>b",
	"<ul><li>a<li>b</ul>",
	"<br>x",
	"</z>",
	"a < b > c",
	"<",
	">",
	"<<>>",
	"<a href=\"x>y</a>",
	"<a href='x' title=\"y\"z>q</a>",
	"<a href=/foo/bar?x=1&y=2>link</a>",
	"<!-- unterminated",
	"<!DOCTYPE html><html><head><title>T</title><body><p>x",
	"<script>if (a<b) { x = '</p>'; }</script><p>after",
	"<style>p { color: red }",
	"<table><tr><td>1<td>2</table>",
	"<div><p>a<div>b</div></div>",
	"<?xml version=\"1.0\"?><script><a/></script>",
	"<![CDATA[a<b&c]]>tail",
	"<b><i>x</b></i>",
	"<br></br><img src=x>caption</img>",
	"&amp &nonsense &#65 &#x41; &",
	"<p\n class=\"multi\nline\">text</p\n>",
	"<a b c=d e='f' g=\"h\"/>",
	"<html><body>été ☃</body></html>",
}

func joinRaw(tokens []Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.Raw)
	}
	return b.String()
}

func TestScanRoundTrip(t *testing.T) {
	for _, src := range malformed {
		require.Equal(t, src, joinRaw(Scan(src, false)), "html mode")
		require.Equal(t, src, joinRaw(Scan(src, true)), "xml mode")
	}
}

type kindRaw struct {
	Kind TokenKind
	Raw  string
}

func kinds(tokens []Token) []kindRaw {
	var r []kindRaw
	for _, tok := range tokens {
		r = append(r, kindRaw{tok.Kind, tok.Raw})
	}
	return r
}

func TestScanKinds(t *testing.T) {
	tests := []struct {
		name string
		src  string
		xml  bool
		want []kindRaw
	}{
		{
			name: "document",
			src:  `<!DOCTYPE html><html><!--c--><p class=x>a &amp b</p><br/></html>`,
			want: []kindRaw{
				{DocTypeToken, `<!DOCTYPE html>`},
				{StartTagToken, `<html>`},
				{CommentToken, `<!--c-->`},
				{StartTagToken, `<p class=x>`},
				{TextToken, `a &amp b`},
				{EndTagToken, `</p>`},
				{EmptyTagToken, `<br/>`},
				{EndTagToken, `</html>`},
			},
		},
		{
			name: "lowercase doctype",
			src:  `<!doctype html>`,
			want: []kindRaw{{DocTypeToken, `<!doctype html>`}},
		},
		{
			name: "stray angle brackets are text",
			src:  `a < b > c`,
			want: []kindRaw{{TextToken, `a < b > c`}},
		},
		{
			name: "unterminated comment is text",
			src:  `x<!-- y`,
			want: []kindRaw{{TextToken, `x<!-- y`}},
		},
		{
			name: "cdata section",
			src:  `<![CDATA[a<b]]>c`,
			want: []kindRaw{{CDATAToken, `<![CDATA[a<b]]>`}, {TextToken, `c`}},
		},
		{
			name: "script content is raw",
			src:  `<script>if (a<b) x="</p>";</script>`,
			want: []kindRaw{
				{StartTagToken, `<script>`},
				{RawTextToken, `if (a<b) x="</p>";`},
				{EndTagToken, `</script>`},
			},
		},
		{
			name: "raw text end tag is case insensitive",
			src:  `<STYLE>a{}</Style >`,
			want: []kindRaw{
				{StartTagToken, `<STYLE>`},
				{RawTextToken, `a{}`},
				{EndTagToken, `</Style >`},
			},
		},
		{
			name: "unclosed raw text runs to the end",
			src:  `<style>p{}`,
			want: []kindRaw{{StartTagToken, `<style>`}, {RawTextToken, `p{}`}},
		},
		{
			name: "empty raw text",
			src:  `<script></script>`,
			want: []kindRaw{{StartTagToken, `<script>`}, {EndTagToken, `</script>`}},
		},
		{
			name: "xml declaration disables raw text",
			src:  `<?xml version="1.0"?><script><a/></script>`,
			want: []kindRaw{
				{ProcInsToken, `<?xml version="1.0"?>`},
				{StartTagToken, `<script>`},
				{EmptyTagToken, `<a/>`},
				{EndTagToken, `</script>`},
			},
		},
		{
			name: "xml mode",
			src:  `<script><a/></script>`,
			xml:  true,
			want: []kindRaw{
				{StartTagToken, `<script>`},
				{EmptyTagToken, `<a/>`},
				{EndTagToken, `</script>`},
			},
		},
		{
			name: "other processing instructions keep html mode",
			src:  `<?php echo 1 ?><script><a/></script>`,
			want: []kindRaw{
				{ProcInsToken, `<?php echo 1 ?>`},
				{StartTagToken, `<script>`},
				{RawTextToken, `<a/>`},
				{EndTagToken, `</script>`},
			},
		},
		{
			name: "lenient start tag",
			src:  `<a href=/x/y?a=1&b=2>t</a>`,
			want: []kindRaw{
				{StartTagToken, `<a href=/x/y?a=1&b=2>`},
				{TextToken, `t`},
				{EndTagToken, `</a>`},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := kinds(Scan(tt.src, tt.xml))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Scan(%q) mismatch (-want +got):\n%s", tt.src, diff)
			}
		})
	}
}

func TestScanSpans(t *testing.T) {
	tokens := Scan("<p>\nab</p>", false)
	want := []Span{
		{Offset: 0, Line: 1, Column: 1, Length: 3},
		{Offset: 3, Line: 1, Column: 4, Length: 3},
		{Offset: 6, Line: 2, Column: 3, Length: 4},
	}
	var got []Span
	for _, tok := range tokens {
		got = append(got, tok.Span)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("spans mismatch (-want +got):\n%s", diff)
	}
}

func TestScanSpanColumnsCountRunes(t *testing.T) {
	tokens := Scan("éé<b>", false)
	require.Len(t, tokens, 2)
	require.Equal(t, Span{Offset: 4, Line: 1, Column: 3, Length: 3}, tokens[1].Span)
}

func TestTokenKindString(t *testing.T) {
	require.Equal(t, "EmptyTag", EmptyTagToken.String())
	require.Equal(t, "TokenKind(42)", TokenKind(42).String())
}
