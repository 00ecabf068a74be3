package watch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dpotapov/go-watch/htree"
)

func TestPathPattern(t *testing.T) {
	tests := []struct {
		pattern string
		match   []string
		noMatch []string
	}{
		{
			pattern: "/html/body/p",
			match:   []string{"/html/body/p", "/html/body/p[1]", "/html/body/p[12]"},
			noMatch: []string{"/html/body/p/text()", "/html/body/pre", "/x/html/body/p"},
		},
		{
			pattern: "/html/body/p[1]",
			match:   []string{"/html/body/p", "/html/body/p[1]"},
			noMatch: []string{"/html/body/p[2]", "/html/body/p[11]"},
		},
		{
			pattern: "/html/body/p[2]",
			match:   []string{"/html/body/p[2]"},
			noMatch: []string{"/html/body/p", "/html/body/p[1]"},
		},
		{
			pattern: "//div",
			match:   []string{"/div", "/html/body/div[3]", "/html/body/table/tr/td/div"},
			noMatch: []string{"/html/body/div/p", "/html/body/divx"},
		},
		{
			pattern: "/html//text()",
			match:   []string{"/html/text()", "/html/body/p/text()[2]"},
			noMatch: []string{"/text()", "/html/body/p"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			re, err := pathPattern([]string{tt.pattern})
			require.NoError(t, err)
			for _, p := range tt.match {
				require.True(t, re.MatchString(p), "%s should match %s", tt.pattern, p)
			}
			for _, p := range tt.noMatch {
				require.False(t, re.MatchString(p), "%s should not match %s", tt.pattern, p)
			}
		})
	}

	re, err := pathPattern([]string{"/a", "/b"})
	require.NoError(t, err)
	require.True(t, re.MatchString("/a"))
	require.True(t, re.MatchString("/b"))
	require.False(t, re.MatchString("/a/b"))
}

func TestIgnoreRules_Ignore(t *testing.T) {
	doc := htree.Parse(`<html><body>` +
		`<p>a</p>` +
		`<p class="ad wide">b</p>` +
		`<div id="c">c</div>` +
		`<script>s()</script>` +
		`<p>d</p>` +
		`</body></html>`)

	tests := []struct {
		name  string
		rules IgnoreRules
		want  string
	}{
		{"scripts only", IgnoreRules{}, "abcd"},
		{"class token", IgnoreRules{Classes: []string{"ad"}}, "acd"},
		{"whole class value", IgnoreRules{Classes: []string{"ad wide"}}, "abcd"},
		{"id", IgnoreRules{IDs: []string{"c"}}, "abd"},
		{"indexed path", IgnoreRules{Paths: []string{"/html/body/p[1]"}}, "bcd"},
		{"unindexed path", IgnoreRules{Paths: []string{"/html/body/p"}}, "c"},
		{"gap", IgnoreRules{Paths: []string{"//div"}}, "abd"},
		{"text nodes", IgnoreRules{Paths: []string{"//p[2]/text()"}}, "acd"},
		{"expression", IgnoreRules{Expr: `name == "p" && text == "d"`}, "abc"},
		{"expression attr", IgnoreRules{Expr: `"class" in attr && attr["class"] contains "wide"`}, "acd"},
		{"expression path", IgnoreRules{Expr: `path == "/html/body/div"`}, "abd"},
		{"combined", IgnoreRules{Classes: []string{"ad"}, IDs: []string{"c"}, Paths: []string{"/html/body/p[3]"}}, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.rules.Ignore(doc)
			require.NoError(t, err)
			require.Equal(t, tt.want, got.Text())
		})
	}

	require.Equal(t, "abcds()", doc.Text(), "the document is not modified")
}

func TestIgnoreRules_Errors(t *testing.T) {
	doc := htree.Parse("<p>x</p>")

	_, err := IgnoreRules{Expr: "name =="}.Ignore(doc)
	require.ErrorContains(t, err, "compile ignore expression")

	_, err = IgnoreRules{Expr: `name + 1`}.Ignore(doc)
	require.Error(t, err, "non-boolean expression")
}

func TestIgnoreRules_Describe(t *testing.T) {
	require.True(t, IgnoreRules{}.IsZero())
	require.Empty(t, IgnoreRules{}.Describe())

	r := IgnoreRules{
		Paths:   []string{"/a", "/b"},
		Classes: []string{"c"},
		IDs:     []string{"i"},
		Expr:    "false",
	}
	require.False(t, r.IsZero())
	require.Equal(t, []string{
		"IgnorePath", "/a", "/b",
		"IgnoreClass", "c",
		"IgnoreID", "i",
		"IgnoreExpr", "false",
	}, r.Describe())
}
