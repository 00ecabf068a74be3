package htree

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrAttrNotFound is returned by FetchAttr when a tag has no attribute with the
// requested name.
var ErrAttrNotFound = errors.New("attribute not found")

// Attribute is a single attribute of a start tag.
type Attribute struct {
	// Name is the lowercase attribute name. It is empty when HasName is false.
	Name string

	// HasName is false for bare tokens such as "checked" in <input checked>.
	// Such a token is reported as the value with no name.
	HasName bool

	// RCData is the attribute value with its character references repaired
	// (see FixCharRef). For nameless attributes it is the token as written.
	RCData string
}

// Text returns the attribute value with character references decoded.
func (a Attribute) Text() string {
	if !a.HasName {
		return a.RCData
	}
	return DecodeRCData(a.RCData)
}

// Tag is the text of a start, empty or end tag. Its name is computed when the
// tag is created; its attributes on first use.
type Tag struct {
	raw  string
	name string
	span Span

	once  sync.Once
	attrs []Attribute
}

// NewTag creates a Tag from its source text, e.g. `<a href="x">` or `</a>`.
// The name is the lowercased first match of the name grammar in raw.
func NewTag(raw string) *Tag {
	return newTag(raw, Span{})
}

func newTag(raw string, span Span) *Tag {
	t := &Tag{raw: raw, span: span}
	for i := 0; i < len(raw); i++ {
		if n := scanName(raw[i:]); n > 0 {
			t.name = strings.ToLower(raw[i : i+n])
			break
		}
	}
	return t
}

// Raw returns the tag exactly as written in the source.
func (t *Tag) Raw() string { return t.raw }

// Name returns the lowercase tag name.
func (t *Tag) Name() string { return t.name }

// Span returns the location of the tag in the source. It is zero for tags
// created with NewTag.
func (t *Tag) Span() Span { return t.span }

// String implements fmt.Stringer.
func (t *Tag) String() string { return t.raw }

// Attrs returns a copy of the attributes of the tag in source order. End tags
// have no attributes.
func (t *Tag) Attrs() []Attribute {
	t.once.Do(t.extractAttrs)
	return append([]Attribute(nil), t.attrs...)
}

// extractAttrs decomposes the tag with the strict grammar, falling back to the
// lenient one when the strict grammar does not match the whole tag text.
func (t *Tag) extractAttrs() {
	if strings.HasPrefix(t.raw, "</") {
		return
	}
	for _, g := range []grammar{strictGrammar, lenientGrammar} {
		if m, ok := matchTag(t.raw, g); ok && m.end == len(t.raw) {
			t.attrs = m.attrs
			return
		}
	}
	// Tags built by the scanner always match one of the grammars.
	if t.span.Length > 0 {
		panic(fmt.Sprintf("htree: unrecognized start tag format %q [bug]", t.raw))
	}
}

// AttrRCData returns the reference-normalized value of the first attribute
// named name.
func (t *Tag) AttrRCData(name string) (string, bool) {
	t.once.Do(t.extractAttrs)
	for _, a := range t.attrs {
		if a.HasName && a.Name == name {
			return a.RCData, true
		}
	}
	return "", false
}

// Attr returns the decoded value of the first attribute named name. The second
// result is false if there is no such attribute.
func (t *Tag) Attr(name string) (string, bool) {
	v, ok := t.AttrRCData(name)
	if !ok {
		return "", false
	}
	return DecodeRCData(v), true
}

// FetchAttr is like Attr, but reports a missing attribute as an error wrapping
// ErrAttrNotFound.
func (t *Tag) FetchAttr(name string) (string, error) {
	v, ok := t.Attr(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrAttrNotFound, name)
	}
	return v, nil
}
