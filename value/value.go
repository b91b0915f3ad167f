// Package value implements the Value and Result taxonomies of §3/§4.8: an
// untyped Logo value (none, number, word, list) and the structured outcomes
// an instruction or procedure body can produce.
package value

import (
	"strconv"
	"strings"

	"github.com/loglang/logocore/errs"
	"github.com/loglang/logocore/heap"
)

// Kind tags a Value's payload.
type Kind uint8

const (
	KindNone Kind = iota
	KindNumber
	KindWord
	KindList
)

// Value is a tagged union: None | Number(f32) | Word(atom) | List(head).
// Numbers are single-precision, per §3, to match the microcontroller
// target's float width.
type Value struct {
	Kind   Kind
	Number float32
	Node   heap.Node // atom for KindWord, head cons (or Nil) for KindList
}

func None() Value                    { return Value{Kind: KindNone} }
func Number(f float32) Value         { return Value{Kind: KindNumber, Number: f} }
func Word(atom heap.Node) Value      { return Value{Kind: KindWord, Node: atom} }
func List(head heap.Node) Value      { return Value{Kind: KindList, Node: head} }

func (v Value) IsNone() bool   { return v.Kind == KindNone }
func (v Value) IsNumber() bool { return v.Kind == KindNumber }
func (v Value) IsWord() bool   { return v.Kind == KindWord }
func (v Value) IsList() bool   { return v.Kind == KindList }

// Print renders v the way `print`/`po` would, using h to resolve atoms and
// walk lists. Sublists (list-ref tagged cells) are bracketed; everything
// else prints as bare tokens separated by single spaces.
func (v Value) Print(h *heap.Heap) string {
	switch v.Kind {
	case KindNone:
		return ""
	case KindNumber:
		return FormatNumber(v.Number)
	case KindWord:
		return h.WordPtr(v.Node)
	case KindList:
		return printList(h, v.Node)
	default:
		return ""
	}
}

func printList(h *heap.Heap, n heap.Node) string {
	var b strings.Builder
	first := true
	for cur := n; !cur.IsNil(); cur = h.Cdr(cur) {
		if h.NewlineMarker() == h.Car(cur) {
			// newline markers are skipped during iteration/printing of the
			// flattened token stream (§3 Node: NEWLINE-MARKER).
			continue
		}
		if !first {
			b.WriteByte(' ')
		}
		first = false
		elem := h.Car(cur)
		if elem.IsListRef() {
			b.WriteByte('[')
			b.WriteString(printList(h, elem.StripListRef()))
			b.WriteByte(']')
		} else if elem.IsAtom() {
			b.WriteString(h.WordPtr(elem))
		} else {
			b.WriteString(printList(h, elem))
		}
	}
	return b.String()
}

// FormatNumber renders a float32 using Logo's "minimal decimal" convention:
// integral values print without a trailing ".0", others use the shortest
// round-tripping representation.
func FormatNumber(f float32) string {
	if f == float32(int64(f)) && !isNegZero(f) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

func isNegZero(f float32) bool { return f == 0 && strconv.FormatFloat(float64(f), 'g', -1, 32)[0] == '-' }

// ToNumber parses v's printed form as a number, exactly as §3 "Conversion
// Value -> number" specifies: the entire string must consume.
func ToNumber(h *heap.Heap, v Value) (float32, errs.Error) {
	switch v.Kind {
	case KindNumber:
		return v.Number, errs.Error{}
	case KindWord:
		s := h.WordPtr(v.Node)
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
		if err != nil {
			return 0, errs.Error{Code: errs.DoesntLikeInput, Arg: s}
		}
		return float32(f), errs.Error{}
	default:
		return 0, errs.Error{Code: errs.DoesntLikeInput, Arg: v.Print(h)}
	}
}

// Truthy interprets a Value as a Logo boolean: the words "true"/"false"
// (case-insensitive) are the only valid booleans; anything else is
// errs.NotBool.
func Truthy(h *heap.Heap, v Value) (bool, errs.Error) {
	if !v.IsWord() {
		return false, errs.Error{Code: errs.NotBool, Arg: v.Print(h)}
	}
	switch strings.ToLower(h.WordPtr(v.Node)) {
	case "true":
		return true, errs.Error{}
	case "false":
		return false, errs.Error{}
	default:
		return false, errs.Error{Code: errs.NotBool, Arg: v.Print(h)}
	}
}

func Bool(h *heap.Heap, b bool) Value {
	if b {
		return Word(h.Atom("true"))
	}
	return Word(h.Atom("false"))
}
