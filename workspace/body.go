package workspace

import (
	"strconv"
	"strings"

	"github.com/loglang/logocore/heap"
	"github.com/loglang/logocore/lexer"
)

// EncodeLine captures one already-lexed instruction line into the heap as a
// cons list of atoms, the same verbatim-token shape §4.5's list literal uses
// (encodeToken below spells tokens the way eval's tokenText does: operators
// collapse to their single-character spelling, Quoted/Colon keep their
// sigil prefix).
// This is how a `to`/`end` definition's body lines survive past the parse
// that read them, ready for DecodeLine to hand back to the evaluator one
// call to RunInstrList at a time.
func EncodeLine(h *heap.Heap, toks []lexer.Token) heap.Node {
	head, tail := heap.Nil, heap.Nil
	for _, tok := range toks {
		if tok.Kind == lexer.Eof {
			break
		}
		elem := h.Atom(encodeToken(tok))
		cell, ok := h.Cons(elem, heap.Nil, nil)
		if !ok {
			break // out of space; caller surfaced OUT_OF_SPACE on the defining cons already
		}
		if head.IsNil() {
			head, tail = cell, cell
		} else {
			h.SetCdr(tail, cell)
			tail = cell
		}
	}
	return head
}

func encodeToken(tok lexer.Token) string {
	switch tok.Kind {
	case lexer.Plus:
		return "+"
	case lexer.Minus, lexer.UnaryMinus:
		return "-"
	case lexer.Star:
		return "*"
	case lexer.Slash:
		return "/"
	case lexer.Equals:
		return "="
	case lexer.Less:
		return "<"
	case lexer.Greater:
		return ">"
	case lexer.LParen:
		return "("
	case lexer.RParen:
		return ")"
	case lexer.Quoted:
		return "\"" + tok.Text
	case lexer.Colon:
		return ":" + tok.Text
	default:
		return tok.Text
	}
}

// DecodeLine reverses EncodeLine, re-deriving unary-vs-binary minus with the
// same preceding-token rule the lexer itself applies (§4.2), since that
// distinction does not survive the single-character "-" encoding.
func DecodeLine(h *heap.Heap, line heap.Node) []lexer.Token {
	var toks []lexer.Token
	prev := lexer.Eof
	havePrev := false
	for cur := line; !cur.IsNil(); cur = h.Cdr(cur) {
		elem := h.Car(cur)
		if elem.IsNewline() {
			continue
		}
		text := h.WordPtr(elem)
		tok := decodeToken(text, prev, havePrev)
		toks = append(toks, tok)
		prev, havePrev = tok.Kind, true
	}
	return toks
}

func decodeToken(s string, prev lexer.Kind, havePrev bool) lexer.Token {
	switch {
	case strings.HasPrefix(s, "\""):
		return lexer.Token{Kind: lexer.Quoted, Text: s[1:]}
	case strings.HasPrefix(s, ":"):
		return lexer.Token{Kind: lexer.Colon, Text: s[1:]}
	case s == "+":
		return lexer.Token{Kind: lexer.Plus, Text: s}
	case s == "-":
		if unaryContext(prev, havePrev) {
			return lexer.Token{Kind: lexer.UnaryMinus, Text: s}
		}
		return lexer.Token{Kind: lexer.Minus, Text: s}
	case s == "*":
		return lexer.Token{Kind: lexer.Star, Text: s}
	case s == "/":
		return lexer.Token{Kind: lexer.Slash, Text: s}
	case s == "=":
		return lexer.Token{Kind: lexer.Equals, Text: s}
	case s == "<":
		return lexer.Token{Kind: lexer.Less, Text: s}
	case s == ">":
		return lexer.Token{Kind: lexer.Greater, Text: s}
	case s == "(":
		return lexer.Token{Kind: lexer.LParen, Text: s}
	case s == ")":
		return lexer.Token{Kind: lexer.RParen, Text: s}
	case s == "[":
		return lexer.Token{Kind: lexer.LBracket, Text: s}
	case s == "]":
		return lexer.Token{Kind: lexer.RBracket, Text: s}
	default:
		if _, err := strconv.ParseFloat(s, 32); err == nil {
			return lexer.Token{Kind: lexer.Number, Text: s}
		}
		return lexer.Token{Kind: lexer.Word, Text: s}
	}
}

// unaryContext mirrors lexer.Lexer.unaryContext: a '-' is unary at the start
// of a line or right after another operator/open-bracket.
func unaryContext(prev lexer.Kind, havePrev bool) bool {
	if !havePrev {
		return true
	}
	switch prev {
	case lexer.Plus, lexer.Minus, lexer.UnaryMinus, lexer.Star, lexer.Slash,
		lexer.Equals, lexer.Less, lexer.Greater, lexer.LParen, lexer.LBracket:
		return true
	default:
		return false
	}
}

// EncodeBody packs a procedure's already-lexed body lines into the cons list
// Procedure.Body (§3 Procedure): each line becomes one list-ref tagged
// element, so the body walks exactly like a list-of-lists list literal
// (`text` hands it back in that shape).
func EncodeBody(h *heap.Heap, lines [][]lexer.Token) heap.Node {
	head, tail := heap.Nil, heap.Nil
	for _, line := range lines {
		lineHead := EncodeLine(h, line)
		var elem heap.Node
		if lineHead.IsNil() {
			// A blank body line encodes as untagged Nil here, not a
			// list-ref-tagged Nil; primDefine's elem.IsListRef() check on
			// reload then rejects it, breaking round-trip for a procedure
			// with a blank line in its body.
			elem = heap.Nil
		} else {
			elem = lineHead.AsListRef()
		}
		cell, ok := h.Cons(elem, heap.Nil, nil)
		if !ok {
			break
		}
		if head.IsNil() {
			head, tail = cell, cell
		} else {
			h.SetCdr(tail, cell)
			tail = cell
		}
	}
	return head
}

// DecodeBody reverses EncodeBody, yielding one token slice per source line.
func DecodeBody(h *heap.Heap, body heap.Node) [][]lexer.Token {
	var lines [][]lexer.Token
	for cur := body; !cur.IsNil(); cur = h.Cdr(cur) {
		elem := h.Car(cur)
		lineHead := elem
		if elem.IsListRef() {
			lineHead = elem.StripListRef()
		}
		lines = append(lines, DecodeLine(h, lineHead))
	}
	return lines
}
