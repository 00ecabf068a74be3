package htree

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"go4.org/bytereplacer"
)

var (
	ampEscaper  = bytereplacer.New("&", "&amp;")
	htmlEscaper = bytereplacer.New("<", "&lt;", ">", "&gt;")
)

// refKind classifies a character reference candidate found after an '&'.
type refKind int

const (
	refNone    refKind = iota // a lone '&'
	refDecimal                // &#123
	refHex                    // &#x7b
	refNamed                  // &name
)

// scanRef looks at s, which must start with '&', and returns the kind of
// reference it starts, the end of the reference body (excluding any ';') and
// whether a ';' terminator follows the body.
func scanRef(s string) (kind refKind, end int, terminated bool) {
	i := 1
	switch {
	case i+1 < len(s) && s[i] == '#' && isDigit(s[i+1]):
		kind = refDecimal
		i += 2
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	case i+2 < len(s) && s[i] == '#' && s[i+1] == 'x' && isHexDigit(s[i+2]):
		kind = refHex
		i += 3
		for i < len(s) && isHexDigit(s[i]) {
			i++
		}
	case i < len(s) && isAlpha(s[i]):
		kind = refNamed
		i++
		for i < len(s) && (isAlpha(s[i]) || isDigit(s[i])) {
			i++
		}
	default:
		return refNone, 1, false
	}
	return kind, i, i < len(s) && s[i] == ';'
}

// FixCharRef repairs the character references of s so that the result is a
// well-formed entity stream:
//
//   - references terminated by ';' are kept as they are;
//   - numeric references lacking ';' get one appended;
//   - a named reference lacking ';' is terminated if the name is a known
//     character name, otherwise its '&' is escaped;
//   - any other '&' is escaped as "&amp;".
//
// FixCharRef is idempotent.
func FixCharRef(s string) string {
	if strings.IndexByte(s, '&') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for {
		i := strings.IndexByte(s, '&')
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		s = s[i:]

		kind, end, terminated := scanRef(s)
		switch {
		case terminated:
			b.WriteString(s[:end+1])
			s = s[end+1:]
			continue
		case kind == refNone:
			b.WriteString("&amp;")
		case kind == refDecimal || kind == refHex:
			b.WriteString(s[:end])
			b.WriteByte(';')
		case IsNamedCharacter(s[1:end]):
			b.WriteString(s[:end])
			b.WriteByte(';')
		default:
			b.WriteString("&amp;")
			b.WriteString(s[1:end])
		}
		s = s[end:]
	}
}

// DecodeRCData replaces the ';'-terminated character references of s with the
// characters they denote. References to unknown names or invalid code points
// are replaced with '?'. Anything else is copied unchanged.
func DecodeRCData(s string) string {
	if strings.IndexByte(s, '&') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for {
		i := strings.IndexByte(s, '&')
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		s = s[i:]

		kind, end, terminated := scanRef(s)
		if kind == refNone || !terminated {
			b.WriteByte('&')
			s = s[1:]
			continue
		}
		r := rune(-1)
		switch kind {
		case refDecimal:
			if n, err := strconv.ParseUint(s[2:end], 10, 32); err == nil {
				r = rune(n)
			}
		case refHex:
			if n, err := strconv.ParseUint(s[3:end], 16, 32); err == nil {
				r = rune(n)
			}
		case refNamed:
			if c, ok := namedCharacters[s[1:end]]; ok {
				r = c
			}
		}
		if utf8.ValidRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('?')
		}
		s = s[end+1:]
	}
}

// EncodeRCData escapes every '&' of s.
func EncodeRCData(s string) string {
	if strings.IndexByte(s, '&') < 0 {
		return s
	}
	return string(ampEscaper.Replace([]byte(s)))
}

// escapeAngles replaces '<' and '>' with their character references.
func escapeAngles(s string) string {
	if strings.IndexAny(s, "<>") < 0 {
		return s
	}
	return string(htmlEscaper.Replace([]byte(s)))
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func isAlpha(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
