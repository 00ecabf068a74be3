package htree

import (
	"fmt"
	"regexp"
	"strings"
)

// TokenKind is the type of a Token.
type TokenKind uint32

const (
	// TextToken is a run of literal text, including stray '<' and '>'.
	TextToken TokenKind = iota

	// RawTextToken is the verbatim content of a raw-text element such as
	// <script> or <style>.
	RawTextToken

	// A DocTypeToken looks like <!DOCTYPE html>.
	DocTypeToken

	// A ProcInsToken looks like <?xml version="1.0"?>.
	ProcInsToken

	// A CommentToken looks like <!--x-->.
	CommentToken

	// A CDATAToken looks like <![CDATA[x]]>.
	CDATAToken

	// A StartTagToken looks like <a>.
	StartTagToken

	// An EndTagToken looks like </a>.
	EndTagToken

	// An EmptyTagToken looks like <br/>.
	EmptyTagToken
)

var tokenKindNames = [...]string{
	TextToken:     "Text",
	RawTextToken:  "RawText",
	DocTypeToken:  "DocType",
	ProcInsToken:  "ProcIns",
	CommentToken:  "Comment",
	CDATAToken:    "CDATA",
	StartTagToken: "StartTag",
	EndTagToken:   "EndTag",
	EmptyTagToken: "EmptyTag",
}

// String returns a string representation of the TokenKind.
func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", uint32(k))
}

// Token is a lexical unit of the source. Raw is the exact source text the
// token covers.
type Token struct {
	Kind TokenKind
	Raw  string
	Span Span
}

// xmlDeclRE matches an XML declaration processing instruction.
var xmlDeclRE = regexp.MustCompile(`\A<\?xml` +
	`\s+version\s*=\s*(?:'[a-zA-Z0-9_.:-]+'|"[a-zA-Z0-9_.:-]+")` +
	`(?:\s+encoding\s*=\s*(?:"[A-Za-z][A-Za-z0-9._-]*"|'[A-Za-z][A-Za-z0-9._-]*'))?` +
	`(?:\s+standalone\s*=\s*(?:'(?:yes|no)'|"(?:yes|no)"))?` +
	`\s*\?>\z`)

// isXMLDecl reports whether the processing instruction s is an XML declaration.
func isXMLDecl(s string) bool {
	return strings.HasPrefix(s, "<?xml") && xmlDeclRE.MatchString(s)
}

// A scanner splits the source into tokens in a single forward pass.
type scanner struct {
	src    string
	pos    int
	text   int // start of the pending text run, or -1
	xml    bool
	lines  *lineTracker
	tokens []Token
}

// Scan splits src into tokens. Concatenating the Raw fields of the result
// reproduces src exactly. If xml is true, or once an XML declaration has been
// seen, start tags of raw-text elements no longer switch the scanner into
// raw-text mode.
func Scan(src string, xml bool) []Token {
	s := newScanner(src, xml)
	s.scan()
	return s.tokens
}

func newScanner(src string, xml bool) *scanner {
	return &scanner{
		src:   src,
		text:  -1,
		xml:   xml,
		lines: newLineTracker(src),
	}
}

func (s *scanner) scan() {
	for s.pos < len(s.src) {
		i := strings.IndexByte(s.src[s.pos:], '<')
		if i < 0 {
			s.markText(len(s.src))
			break
		}
		s.markText(s.pos + i)
		s.markup()
	}
	s.flushText(len(s.src))
}

// markText records s.src[s.pos:end] as literal text and advances to end.
func (s *scanner) markText(end int) {
	if end > s.pos && s.text < 0 {
		s.text = s.pos
	}
	s.pos = end
}

// flushText emits the pending text run ending at end, if any.
func (s *scanner) flushText(end int) {
	if s.text < 0 {
		return
	}
	s.emit(TextToken, s.text, end)
	s.text = -1
}

func (s *scanner) emit(kind TokenKind, start, end int) {
	s.tokens = append(s.tokens, Token{
		Kind: kind,
		Raw:  s.src[start:end],
		Span: s.lines.span(start, end),
	})
}

// token emits the pending text and then a token of the given kind and length
// at s.pos.
func (s *scanner) token(kind TokenKind, n int) {
	s.flushText(s.pos)
	s.emit(kind, s.pos, s.pos+n)
	s.pos += n
}

// markup recognizes the markup token starting at s.pos, which is a '<'. The
// order of the checks is the recognition precedence of token kinds. A '<' that
// starts no token is literal text.
func (s *scanner) markup() {
	rest := s.src[s.pos:]
	switch {
	case hasPrefixFold(rest, "<!DOCTYPE"):
		if n := strings.IndexByte(rest, '>'); n >= 0 {
			s.token(DocTypeToken, n+1)
			return
		}
	case strings.HasPrefix(rest, "<?"):
		if n := strings.IndexByte(rest, '>'); n >= 0 {
			s.token(ProcInsToken, n+1)
			if !s.xml && isXMLDecl(rest[:n+1]) {
				s.xml = true
			}
			return
		}
	case strings.HasPrefix(rest, "<!--"):
		if n := strings.Index(rest[4:], "-->"); n >= 0 {
			s.token(CommentToken, n+7)
			return
		}
	case strings.HasPrefix(rest, "<![CDATA["):
		if n := strings.Index(rest[9:], "]]>"); n >= 0 {
			s.token(CDATAToken, n+12)
			return
		}
	case strings.HasPrefix(rest, "</"):
		if n, ok := matchEndTag(rest); ok {
			s.token(EndTagToken, n)
			return
		}
	default:
		if m, ok := matchStartTag(rest); ok {
			if m.empty {
				s.token(EmptyTagToken, m.end)
				return
			}
			s.token(StartTagToken, m.end)
			if name := strings.ToLower(m.name); !s.xml && isRawText(name) {
				s.rawText(name)
			}
			return
		}
	}
	s.markText(s.pos + 1)
}

// matchStartTag matches a start or empty tag with the strict grammar first and
// the lenient one second.
func matchStartTag(s string) (tagMatch, bool) {
	if m, ok := matchTag(s, strictGrammar); ok {
		return m, true
	}
	return matchTag(s, lenientGrammar)
}

// rawText consumes the content of the raw-text element name verbatim, up to
// and including its end tag.
func (s *scanner) rawText(name string) {
	start := s.pos
	for p := start; ; {
		i := strings.Index(s.src[p:], "</")
		if i < 0 {
			break
		}
		p += i
		if n, ok := matchEndTag(s.src[p:]); ok && scanName(s.src[p+2:]) == len(name) &&
			strings.EqualFold(s.src[p+2:p+2+len(name)], name) {
			if p > start {
				s.emit(RawTextToken, start, p)
			}
			s.pos = p
			s.token(EndTagToken, n)
			return
		}
		p += 2
	}
	if len(s.src) > start {
		s.emit(RawTextToken, start, len(s.src))
	}
	s.pos = len(s.src)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
