package htree

import "strings"

// Root returns the first top-level element, or nil.
func (d *Doc) Root() *Elem {
	for _, n := range d.children {
		if e, ok := n.(*Elem); ok {
			return e
		}
	}
	return nil
}

// Title returns the trimmed text of the first title element.
func (d *Doc) Title() (string, bool) {
	e := d.FindElement("title")
	if e == nil {
		return "", false
	}
	return strings.TrimSpace(e.Text()), true
}

// Author returns the author named by the first <meta name="author"
// content="..."> element with non-empty content, or else by the first <link
// rev="made" title="..."> element with a non-empty title.
func (d *Doc) Author() (string, bool) {
	if a, ok := d.authorBy("meta", "name", "author", "content"); ok {
		return a, true
	}
	return d.authorBy("link", "rev", "made", "title")
}

func (d *Doc) authorBy(elem, key, want, valueAttr string) (author string, found bool) {
	d.TraverseElement(elem, func(e *Elem) bool {
		k, err := e.FetchAttr(key)
		if err != nil || !strings.EqualFold(k, want) {
			return true
		}
		v, err := e.FetchAttr(valueAttr)
		if err != nil {
			return true
		}
		if v = strings.TrimSpace(v); v != "" {
			author, found = v, true
			return false
		}
		return true
	})
	return author, found
}
