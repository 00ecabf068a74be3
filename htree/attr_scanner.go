package htree

import "strings"

// grammar selects the attribute grammar used to match a tag.
type grammar int

const (
	// strictGrammar accepts quoted values and unquoted values made of
	// [-A-Za-z._:] only.
	strictGrammar grammar = iota
	// lenientGrammar accepts any unquoted value up to white space, '<' or '>'.
	lenientGrammar
)

// tagMatch is the result of matching a start or empty tag.
type tagMatch struct {
	name  string      // tag name as written
	attrs []Attribute // attributes in source order
	end   int         // length of the tag text, including the closing '>'
	empty bool        // the tag was closed with "/>"
}

// matchTag matches a start or empty tag at the beginning of s using the given
// grammar. It returns false if s does not start with a complete tag.
func matchTag(s string, g grammar) (tagMatch, bool) {
	var m tagMatch
	if len(s) < 2 || s[0] != '<' {
		return m, false
	}
	n := scanName(s[1:])
	if n == 0 {
		return m, false
	}
	m.name = s[1 : 1+n]
	pos := 1 + n

	for {
		// Skip whitespace
		ws := pos
		pos = skipSpace(s, pos)
		if pos >= len(s) {
			return m, false
		}
		if s[pos] == '>' {
			m.end = pos + 1
			return m, true
		}
		if s[pos] == '/' && pos+1 < len(s) && s[pos+1] == '>' {
			m.end = pos + 2
			m.empty = true
			return m, true
		}
		if pos == ws {
			// Attributes must be separated by whitespace
			return m, false
		}

		// Find attribute name end
		n := scanName(s[pos:])
		if n == 0 {
			return m, false
		}
		nameStart := pos
		pos += n

		// Check for '='
		eq := skipSpace(s, pos)
		if eq >= len(s) || s[eq] != '=' {
			// Attribute without value
			m.attrs = append(m.attrs, Attribute{RCData: s[nameStart:pos]})
			continue
		}
		name := strings.ToLower(s[nameStart:pos])
		pos = skipSpace(s, eq+1) // skip '=' and any whitespace after it

		var val string
		var ok bool
		switch g {
		case strictGrammar:
			val, pos, ok = strictValue(s, pos)
		default:
			val, pos, ok = lenientValue(s, pos)
		}
		if !ok {
			return m, false
		}
		m.attrs = append(m.attrs, Attribute{Name: name, HasName: true, RCData: FixCharRef(val)})
	}
}

// strictValue scans "...", '...' or [-A-Za-z._:]* at s[pos:].
func strictValue(s string, pos int) (string, int, bool) {
	if pos < len(s) && (s[pos] == '"' || s[pos] == '\'') {
		quote := s[pos]
		i := strings.IndexByte(s[pos+1:], quote)
		if i < 0 {
			return "", pos, false
		}
		return s[pos+1 : pos+1+i], pos + i + 2, true
	}
	start := pos
	for pos < len(s) && isStrictValueChar(s[pos]) {
		pos++
	}
	return s[start:pos], pos, true
}

// lenientValue scans an attribute value of the lenient grammar at s[pos:]. A
// quoted value is only taken when its closing quote comes before any '<' or
// '>' and is followed by a tag delimiter; otherwise the value runs unquoted up
// to the next whitespace, '<' or '>'. When such an unquoted value ends the tag
// and starts with an unmatched quote, the quote is dropped.
func lenientValue(s string, pos int) (string, int, bool) {
	if pos < len(s) && (s[pos] == '"' || s[pos] == '\'') {
		quote := s[pos]
		i := pos + 1
		for i < len(s) && s[i] != quote && s[i] != '<' && s[i] != '>' {
			i++
		}
		if i < len(s) && s[i] == quote && isValueDelimiter(s, i+1) {
			return s[pos+1 : i], i + 1, true
		}
	}
	start := pos
	for pos < len(s) && !isSpace(s[pos]) && s[pos] != '<' && s[pos] != '>' {
		pos++
	}
	val := s[start:pos]
	if pos < len(s) && s[pos] == '>' && val != "" && (val[0] == '"' || val[0] == '\'') &&
		strings.IndexByte(val[1:], val[0]) < 0 {
		val = val[1:]
	}
	return val, pos, true
}

// isValueDelimiter reports whether an attribute value may end right before
// s[i].
func isValueDelimiter(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	switch s[i] {
	case '>':
		return true
	case '/':
		return i+1 < len(s) && s[i+1] == '>'
	default:
		return isSpace(s[i])
	}
}

// matchEndTag matches "</Name\s*>" at the beginning of s and returns the tag
// length.
func matchEndTag(s string) (int, bool) {
	if len(s) < 3 || s[0] != '<' || s[1] != '/' {
		return 0, false
	}
	n := scanName(s[2:])
	if n == 0 {
		return 0, false
	}
	pos := skipSpace(s, 2+n)
	if pos >= len(s) || s[pos] != '>' {
		return 0, false
	}
	return pos + 1, true
}

// scanName returns the length of the name ([A-Za-z_:][-A-Za-z0-9._:]*) at the
// beginning of s, or 0.
func scanName(s string) int {
	if len(s) == 0 || !isNameStart(s[0]) {
		return 0
	}
	i := 1
	for i < len(s) && isNameChar(s[i]) {
		i++
	}
	return i
}

func skipSpace(s string, pos int) int {
	for pos < len(s) && isSpace(s[pos]) {
		pos++
	}
	return pos
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v'
}

func isNameStart(b byte) bool {
	return isAlpha(b) || b == '_' || b == ':'
}

func isNameChar(b byte) bool {
	return isNameStart(b) || isDigit(b) || b == '-' || b == '.'
}

func isStrictValueChar(b byte) bool {
	return isAlpha(b) || b == '-' || b == '.' || b == '_' || b == ':'
}
