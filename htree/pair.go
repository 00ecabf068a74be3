package htree

import "fmt"

// maxDepth is the maximum number of nested open elements. A start tag opened
// at this depth becomes a childless element without an end tag, so the nodes
// that follow it are its siblings.
const maxDepth = 512

// frame is an open start tag and the nodes collected after it.
type frame struct {
	stag     *Tag
	children []Node
}

// frameStack is a stack of open frames. The bottom frame is the document and
// has no start tag.
type frameStack []*frame

func (s *frameStack) push(f *frame) { *s = append(*s, f) }

// pop pops the stack. It will panic if the stack is empty.
func (s *frameStack) pop() *frame {
	i := len(*s)
	f := (*s)[i-1]
	*s = (*s)[:i-1]
	return f
}

func (s *frameStack) top() *frame { return (*s)[len(*s)-1] }

// lookup returns the index of the innermost frame opened by a start tag named
// name, or -1.
func (s *frameStack) lookup(name string) int {
	for i := len(*s) - 1; i > 0; i-- {
		if (*s)[i].stag.Name() == name {
			return i
		}
	}
	return -1
}

// reduce closes every frame above i without an end tag, then closes frame i
// with etag and appends the result to the frame below it.
func (s *frameStack) reduce(i int, etag *Tag) {
	for len(*s)-1 > i {
		f := s.pop()
		s.top().children = append(s.top().children, &Elem{stag: f.stag, children: f.children})
	}
	f := s.pop()
	s.top().children = append(s.top().children, &Elem{stag: f.stag, children: f.children, etag: etag})
}

// pair builds the preliminary tree from tokens by matching start and end tags
// by name, regardless of the content model. End tags that match no open start
// tag become BogusETag nodes. Elements nest at most maxDepth deep.
func pair(tokens []Token) []Node {
	stack := frameStack{&frame{}}
	for _, tok := range tokens {
		l := leaf{raw: tok.Raw, span: tok.Span}
		top := stack.top()
		switch tok.Kind {
		case TextToken:
			top.children = append(top.children, &Text{leaf: l, rcdata: FixCharRef(tok.Raw)})
		case RawTextToken:
			top.children = append(top.children, &Text{leaf: l, rcdata: EncodeRCData(tok.Raw)})
		case CDATAToken:
			t := NewCDATA(tok.Raw)
			t.span = tok.Span
			top.children = append(top.children, t)
		case DocTypeToken:
			top.children = append(top.children, &DocType{leaf: l})
		case ProcInsToken:
			top.children = append(top.children, &ProcIns{l})
		case CommentToken:
			top.children = append(top.children, &Comment{l})
		case EmptyTagToken:
			top.children = append(top.children, &Elem{stag: newTag(tok.Raw, tok.Span), empty: true})
		case StartTagToken:
			if len(stack) >= maxDepth {
				top.children = append(top.children, &Elem{stag: newTag(tok.Raw, tok.Span)})
				break
			}
			stack.push(&frame{stag: newTag(tok.Raw, tok.Span)})
		case EndTagToken:
			etag := newTag(tok.Raw, tok.Span)
			if i := stack.lookup(etag.Name()); i > 0 {
				stack.reduce(i, etag)
			} else {
				top.children = append(top.children, &BogusETag{l})
			}
		default:
			panic(fmt.Sprintf("htree: unknown token kind %v [bug]", tok.Kind))
		}
	}
	for len(stack) > 1 {
		f := stack.pop()
		stack.top().children = append(stack.top().children, &Elem{stag: f.stag, children: f.children})
	}
	return stack[0].children
}
