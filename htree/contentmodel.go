package htree

import "sort"

// ContentKind describes how the content of an element is treated.
type ContentKind int

const (
	// KindNormal elements contain child elements and text.
	KindNormal ContentKind = iota
	// KindVoid elements never have content.
	KindVoid
	// KindRawText elements contain text that is scanned verbatim.
	KindRawText
)

// TagSet is an immutable set of lowercase tag names.
type TagSet struct {
	m map[string]struct{}
}

func newTagSet(names ...[]string) TagSet {
	m := make(map[string]struct{})
	for _, ns := range names {
		for _, n := range ns {
			m[n] = struct{}{}
		}
	}
	return TagSet{m: m}
}

// Has reports whether name is in the set.
func (s TagSet) Has(name string) bool {
	_, ok := s.m[name]
	return ok
}

// Len returns the number of names in the set.
func (s TagSet) Len() int { return len(s.m) }

// Names returns the names of the set in sorted order.
func (s TagSet) Names() []string {
	names := make([]string, 0, len(s.m))
	for n := range s.m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ContentModelEntry is the content model of one element type.
type ContentModelEntry struct {
	// Children are the elements allowed as direct children, including the
	// children of omissible elements (html, head, body, tbody) that may appear
	// without their own tags.
	Children TagSet

	// Inclusions are allowed anywhere inside the element.
	Inclusions TagSet

	// Exclusions are forbidden anywhere inside the element.
	Exclusions TagSet

	Kind ContentKind
}

// rootTag is the pseudo tag name of the document itself.
const rootTag = "/"

// ContentModel returns the content model of the element name (lowercase). The
// second result is false for elements not in the table; those inherit the
// allowed children of their parent.
func ContentModel(name string) (ContentModelEntry, bool) {
	e, ok := contentModel[name]
	return e, ok
}

func isRawText(name string) bool {
	e, ok := contentModel[name]
	return ok && e.Kind == KindRawText
}

var contentModel = buildContentModel()

// contentDecl declares the content of an element: allowed children,
// exclusions and inclusions.
type contentDecl struct {
	children   []string
	exclusions []string
	inclusions []string
}

func buildContentModel() map[string]ContentModelEntry {
	cat := func(lists ...[]string) []string {
		var r []string
		for _, l := range lists {
			r = append(r, l...)
		}
		return r
	}
	words := func(ws ...string) []string { return ws }

	var (
		headMisc     = words("script", "style", "meta", "link", "object")
		heading      = words("h1", "h2", "h3", "h4", "h5", "h6")
		list         = words("ul", "ol", "dir", "menu")
		preformatted = words("pre")
		fontstyle    = words("tt", "i", "b", "u", "s", "strike", "big", "small")
		phrase       = words("em", "strong", "dfn", "code", "samp", "kbd", "var", "cite", "abbr",
			"acronym", "mark", "time")
		special = words("a", "img", "applet", "object", "font", "basefont", "br", "script", "map",
			"q", "sub", "sup", "span", "bdo", "iframe", "embed", "wbr")
		formctrl = words("input", "select", "textarea", "label", "button")
		inline   = cat(fontstyle, phrase, special, formctrl)
		sections = words("article", "aside", "footer", "header", "nav", "section", "main",
			"figure", "details")
		block = cat(heading, list, preformatted,
			words("p", "dl", "div", "center", "noscript", "noframes", "blockquote", "form",
				"isindex", "hr", "table", "fieldset", "address"),
			sections)
		flow = cat(block, inline)
	)

	decls := map[string]contentDecl{
		"tt":         {children: inline},
		"i":          {children: inline},
		"b":          {children: inline},
		"u":          {children: inline},
		"s":          {children: inline},
		"strike":     {children: inline},
		"big":        {children: inline},
		"small":      {children: inline},
		"em":         {children: inline},
		"strong":     {children: inline},
		"dfn":        {children: inline},
		"code":       {children: inline},
		"samp":       {children: inline},
		"kbd":        {children: inline},
		"var":        {children: inline},
		"cite":       {children: inline},
		"abbr":       {children: inline},
		"acronym":    {children: inline},
		"mark":       {children: inline},
		"time":       {children: inline},
		"sub":        {children: inline},
		"sup":        {children: inline},
		"span":       {children: inline},
		"bdo":        {children: inline},
		"font":       {children: inline},
		"body":       {children: cat(flow, words("script")), inclusions: words("ins", "del")},
		"address":    {children: cat(inline, words("p"))},
		"div":        {children: flow},
		"center":     {children: flow},
		"article":    {children: flow},
		"aside":      {children: flow},
		"footer":     {children: flow},
		"header":     {children: flow},
		"nav":        {children: flow},
		"section":    {children: flow},
		"main":       {children: flow},
		"figure":     {children: cat(flow, words("figcaption"))},
		"figcaption": {children: flow},
		"details":    {children: cat(flow, words("summary"))},
		"summary":    {children: inline},
		"a":          {children: inline, exclusions: words("a")},
		"map":        {children: cat(block, words("area"))},
		"object":     {children: cat(flow, words("param"))},
		"applet":     {children: cat(flow, words("param"))},
		"p":          {children: inline},
		"h1":         {children: inline},
		"h2":         {children: inline},
		"h3":         {children: inline},
		"h4":         {children: inline},
		"h5":         {children: inline},
		"h6":         {children: inline},
		"pre": {children: inline, exclusions: words("img", "object", "applet", "big", "small",
			"sub", "sup", "font", "basefont")},
		"q":          {children: inline},
		"blockquote": {children: flow},
		"ins":        {children: flow},
		"del":        {children: flow},
		"dl":         {children: words("dt", "dd")},
		"dt":         {children: inline},
		"dd":         {children: flow},
		"ol":         {children: words("li")},
		"ul":         {children: words("li")},
		"dir":        {children: words("li"), exclusions: block},
		"menu":       {children: words("li"), exclusions: block},
		"li":         {children: flow},
		"form":       {children: flow, exclusions: words("form")},
		"label":      {children: inline, exclusions: words("label")},
		"select":     {children: words("optgroup", "option")},
		"optgroup":   {children: words("option")},
		"option":     {},
		"textarea":   {},
		"fieldset":   {children: cat(flow, words("legend"))},
		"legend":     {children: inline},
		"button": {children: flow,
			exclusions: cat(formctrl, words("a", "form", "isindex", "fieldset", "iframe"))},
		"table":    {children: words("caption", "col", "colgroup", "thead", "tfoot", "tbody")},
		"caption":  {children: inline},
		"thead":    {children: words("tr")},
		"tfoot":    {children: words("tr")},
		"tbody":    {children: words("tr")},
		"colgroup": {children: words("col")},
		"tr":       {children: words("th", "td")},
		"th":       {children: flow},
		"td":       {children: flow},
		"frameset": {children: words("frameset", "frame", "noframes")},
		"iframe":   {children: flow},
		"noframes": {children: cat(flow, words("body"))},
		"head":     {children: cat(words("title", "isindex", "base"), headMisc)},
		"title":    {},
		"noscript": {children: flow},
		"html":     {children: words("head", "body", "frameset")},
		rootTag:    {children: words("html")},
	}

	voids := words("basefont", "br", "area", "link", "img", "param", "hr", "input", "col",
		"frame", "isindex", "base", "meta", "wbr", "embed", "source", "track")
	rawTexts := words("script", "style")

	// Elements whose start and end tags may both be omitted. Their children
	// are allowed wherever they are.
	omissible := newTagSet(words("html", "head", "body", "tbody"))

	closure := func(name string) []string {
		seen := map[string]bool{}
		var result []string
		queue := []string{name}
		for len(queue) > 0 {
			d := decls[queue[0]]
			queue = queue[1:]
			for _, c := range d.children {
				if seen[c] {
					continue
				}
				seen[c] = true
				result = append(result, c)
				if omissible.Has(c) {
					queue = append(queue, c)
				}
			}
		}
		return result
	}

	model := make(map[string]ContentModelEntry, len(decls)+len(voids)+len(rawTexts))
	for name, d := range decls {
		model[name] = ContentModelEntry{
			Children:   newTagSet(closure(name)),
			Inclusions: newTagSet(d.inclusions),
			Exclusions: newTagSet(d.exclusions),
			Kind:       KindNormal,
		}
	}
	for _, name := range voids {
		model[name] = ContentModelEntry{
			Children:   newTagSet(),
			Inclusions: newTagSet(),
			Exclusions: newTagSet(),
			Kind:       KindVoid,
		}
	}
	for _, name := range rawTexts {
		model[name] = ContentModelEntry{
			Children:   newTagSet(),
			Inclusions: newTagSet(),
			Exclusions: newTagSet(),
			Kind:       KindRawText,
		}
	}
	return model
}
