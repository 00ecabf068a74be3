package watch

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/dpotapov/go-watch/htree"
)

// TextChange is a pair of text nodes at the same position of two trees whose
// text differs other than in white space. One side is empty when the other
// tree has fewer text nodes.
type TextChange struct {
	OldPath string `json:"oldPath,omitempty"`
	Old     string `json:"old,omitempty"`
	NewPath string `json:"newPath,omitempty"`
	New     string `json:"new,omitempty"`
}

type pathText struct {
	path, text string
}

func textNodes(n htree.Node) []pathText {
	var r []pathText
	collect := func(n htree.Node, path string) bool {
		if t, ok := n.(*htree.Text); ok {
			r = append(r, pathText{path: path, text: t.Text()})
		}
		return true
	}
	switch n := n.(type) {
	case *htree.Doc:
		n.TraverseWithPath(collect)
	case *htree.Elem:
		n.TraverseWithPath("/"+n.NodeTest(), collect)
	default:
		collect(n, "/"+n.NodeTest())
	}
	return r
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// DiffText compares the text nodes of a and b in document order and returns
// up to limit differing pairs. Text nodes common to the ends of both trees are
// skipped. A limit of 0 or less means no limit.
func DiffText(a, b htree.Node, limit int) []TextChange {
	ta, tb := textNodes(a), textNodes(b)
	for len(ta) > 0 && len(tb) > 0 && stripSpace(ta[len(ta)-1].text) == stripSpace(tb[len(tb)-1].text) {
		ta, tb = ta[:len(ta)-1], tb[:len(tb)-1]
	}

	var changes []TextChange
	for i := 0; i < max(len(ta), len(tb)); i++ {
		var c TextChange
		var sa, sb string
		if i < len(ta) {
			c.OldPath, c.Old = ta[i].path, ta[i].text
			sa = stripSpace(c.Old)
		}
		if i < len(tb) {
			c.NewPath, c.New = tb[i].path, tb[i].text
			sb = stripSpace(c.New)
		}
		if sa == sb {
			continue
		}
		changes = append(changes, c)
		if limit > 0 && len(changes) == limit {
			break
		}
	}
	return changes
}

// DiffDump returns a unified diff of the structural dumps of a and b.
func DiffDump(a, b htree.Node) (string, error) {
	var da, db strings.Builder
	if err := htree.Dump(&da, a); err != nil {
		return "", err
	}
	if err := htree.Dump(&db, b); err != nil {
		return "", err
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(da.String()),
		B:        difflib.SplitLines(db.String()),
		FromFile: "old",
		ToFile:   "new",
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("diff dumps: %w", err)
	}
	return diff, nil
}
