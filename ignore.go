package watch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/dpotapov/go-watch/htree"
)

// IgnoreRules select the parts of a page that do not count as content, such
// as counters, advertisements or timestamps.
type IgnoreRules struct {
	// Paths are patterns of node paths (see htree.Doc.TraverseWithPath). A
	// step "p" also matches "p[N]", a step "p[1]" also matches "p", and "//"
	// matches any number of intermediate steps. Patterns match whole paths.
	Paths []string

	// Classes and IDs list class names and ids of ignored elements.
	Classes []string
	IDs     []string

	// Expr is an expression evaluated for each element; the element is
	// ignored if it yields true. The environment has name (string), path
	// (string), attr (map[string]string) and text (string).
	Expr string
}

// IsZero reports whether r ignores nothing but scripts and styles.
func (r IgnoreRules) IsZero() bool {
	return len(r.Paths) == 0 && len(r.Classes) == 0 && len(r.IDs) == 0 && r.Expr == ""
}

// Describe lists the rules in a form suitable for comparing two
// examinations: a checksum is only comparable to one computed with the same
// description.
func (r IgnoreRules) Describe() []string {
	var d []string
	if len(r.Paths) > 0 {
		d = append(append(d, "IgnorePath"), r.Paths...)
	}
	if len(r.Classes) > 0 {
		d = append(append(d, "IgnoreClass"), r.Classes...)
	}
	if len(r.IDs) > 0 {
		d = append(append(d, "IgnoreID"), r.IDs...)
	}
	if r.Expr != "" {
		d = append(d, "IgnoreExpr", r.Expr)
	}
	return d
}

// ignoreEnv is the environment of ignore expressions.
type ignoreEnv struct {
	Name string            `expr:"name"`
	Path string            `expr:"path"`
	Attr map[string]string `expr:"attr"`
	Text string            `expr:"text"`
}

// ignoreFilter is a compiled IgnoreRules.
type ignoreFilter struct {
	paths   *regexp.Regexp
	classes map[string]bool
	ids     map[string]bool
	expr    *vm.Program
}

func (r IgnoreRules) compile() (*ignoreFilter, error) {
	f := &ignoreFilter{
		classes: make(map[string]bool),
		ids:     make(map[string]bool),
	}
	if len(r.Paths) > 0 {
		re, err := pathPattern(r.Paths)
		if err != nil {
			return nil, fmt.Errorf("compile ignore paths: %w", err)
		}
		f.paths = re
	}
	for _, c := range r.Classes {
		f.classes[c] = true
	}
	for _, id := range r.IDs {
		f.ids[id] = true
	}
	if r.Expr != "" {
		p, err := expr.Compile(r.Expr, expr.Env(ignoreEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile ignore expression: %w", err)
		}
		f.expr = p
	}
	return f, nil
}

var (
	pathStepRE  = regexp.MustCompile(`[^/]+`)
	stepIndexRE = regexp.MustCompile(`\[(\d+)\]$`)
	pathGapRE   = regexp.MustCompile(`/{2,}`)
)

// pathGap replaces "//" in ignore path patterns.
const pathGap = `/(?:[^/]+/)*`

// pathPattern compiles ignore path patterns into one regular expression.
func pathPattern(paths []string) (*regexp.Regexp, error) {
	alts := make([]string, 0, len(paths))
	for _, p := range paths {
		p = pathStepRE.ReplaceAllStringFunc(p, func(step string) string {
			m := stepIndexRE.FindStringSubmatchIndex(step)
			switch {
			case m == nil:
				return regexp.QuoteMeta(step) + `(?:\[\d+\])?`
			case step[m[2]:m[3]] == "1":
				return regexp.QuoteMeta(step[:m[0]]) + `(?:\[1\])?`
			default:
				return regexp.QuoteMeta(step)
			}
		})
		alts = append(alts, pathGapRE.ReplaceAllLiteralString(p, pathGap))
	}
	return regexp.Compile(`\A(?:` + strings.Join(alts, "|") + `)\z`)
}

// apply returns the tree without scripts, styles and ignored nodes.
func (f *ignoreFilter) apply(doc *htree.Doc) (*htree.Doc, error) {
	var err error
	filtered := doc.FilterWithPath(func(n htree.Node, path string) bool {
		if err != nil {
			return false
		}
		if f.paths != nil && f.paths.MatchString(path) {
			return false
		}
		e, ok := n.(*htree.Elem)
		if !ok {
			return true
		}
		var ignore bool
		ignore, err = f.ignoreElem(e, path)
		return !ignore
	})
	if err != nil {
		return nil, err
	}
	return filtered, nil
}

func (f *ignoreFilter) ignoreElem(e *htree.Elem, path string) (bool, error) {
	switch e.Name() {
	case "script", "style":
		return true, nil
	}
	if class, ok := e.Attr("class"); ok {
		for _, c := range strings.Fields(class) {
			if f.classes[c] {
				return true, nil
			}
		}
	}
	if id, ok := e.Attr("id"); ok && f.ids[id] {
		return true, nil
	}
	if f.expr == nil {
		return false, nil
	}
	env := ignoreEnv{
		Name: e.Name(),
		Path: path,
		Attr: make(map[string]string),
		Text: e.Text(),
	}
	for _, a := range e.Tag().Attrs() {
		if a.HasName {
			if _, dup := env.Attr[a.Name]; !dup {
				env.Attr[a.Name] = a.Text()
			}
		} else {
			env.Attr[strings.ToLower(a.RCData)] = ""
		}
	}
	v, err := expr.Run(f.expr, env)
	if err != nil {
		return false, fmt.Errorf("evaluate ignore expression at %s: %w", path, err)
	}
	b, _ := v.(bool)
	return b, nil
}

// Ignore returns a copy of doc without scripts, styles and the nodes selected
// by r.
func (r IgnoreRules) Ignore(doc *htree.Doc) (*htree.Doc, error) {
	f, err := r.compile()
	if err != nil {
		return nil, err
	}
	return f.apply(doc)
}
