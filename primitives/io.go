package primitives

import (
	"strings"

	"github.com/loglang/logocore/eval"
	"github.com/loglang/logocore/heap"
	"github.com/loglang/logocore/ioface"
	"github.com/loglang/logocore/lexer"
	"github.com/loglang/logocore/value"
)

func printArgs(ev *eval.Evaluator, args []value.Value, sep string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Print(ev.Heap)
	}
	return strings.Join(parts, sep)
}

func primPrint(ev *eval.Evaluator, args []value.Value) value.Result {
	ev.IO.Print(printArgs(ev, args, " ") + "\n")
	return value.None()
}

func primType(ev *eval.Evaluator, args []value.Value) value.Result {
	ev.IO.Print(printArgs(ev, args, " "))
	return value.None()
}

// primShow prints one argument, bracketing a bare list the way `print`
// leaves unbracketed (§4 glossary "show" vs "print").
func primShow(ev *eval.Evaluator, args []value.Value) value.Result {
	v := args[0]
	if v.IsList() {
		ev.IO.Print("[" + v.Print(ev.Heap) + "]\n")
		return value.None()
	}
	ev.IO.Print(v.Print(ev.Heap) + "\n")
	return value.None()
}

func readLine(r ioface.Stream) (string, bool) {
	var b strings.Builder
	for {
		c := r.ReadChar()
		// EOF and Interrupted both fall into this branch, so a blocking
		// read stopped by the cooperative BRK flag is indistinguishable
		// from a clean EOF here; readword/readlist never surface
		// value.Interrupted() to the caller on that path.
		if c == ioface.EOF || c == ioface.Interrupted {
			if b.Len() == 0 {
				return "", false
			}
			return b.String(), true
		}
		if c == '\n' {
			return b.String(), true
		}
		b.WriteRune(rune(c))
	}
}

func primReadword(ev *eval.Evaluator, args []value.Value) value.Result {
	line, ok := readLine(ev.IO.Reader())
	if !ok {
		return value.Ok(value.Word(ev.Heap.Atom("")))
	}
	return value.Ok(value.Word(ev.Heap.Atom(line)))
}

func primReadlist(ev *eval.Evaluator, args []value.Value) value.Result {
	line, ok := readLine(ev.IO.Reader())
	if !ok {
		return value.Ok(value.List(heap.Nil))
	}
	toks := lexTopLevel(line)
	pos := 0
	head, _ := parseReadlistItems(ev, toks, &pos, false)
	return value.Ok(value.List(head))
}

// lexTopLevel tokenizes a raw readlist line using only the bracket/word
// structure lexer.Lexer already exposes; operator/quote/colon sigils are not
// special here, readlist's words are plain data (§4 glossary "readlist").
func lexTopLevel(line string) []lexer.Token {
	lx := lexer.New(line)
	var toks []lexer.Token
	for {
		tok := lx.Next()
		if tok.Kind == lexer.Eof {
			break
		}
		toks = append(toks, tok)
	}
	return toks
}

func parseReadlistItems(ev *eval.Evaluator, toks []lexer.Token, pos *int, nested bool) (heap.Node, bool) {
	head, tail := heap.Nil, heap.Nil
	for *pos < len(toks) {
		tok := toks[*pos]
		if tok.Kind == lexer.RBracket {
			if nested {
				*pos++
			}
			return head, true
		}
		var elem heap.Node
		if tok.Kind == lexer.LBracket {
			*pos++
			sub, ok := parseReadlistItems(ev, toks, pos, true)
			if !ok {
				return head, false
			}
			elem = sub.AsListRef()
		} else {
			elem = ev.Heap.Atom(readlistToken(tok))
			*pos++
		}
		cell, ok := ev.Heap.Cons(elem, heap.Nil, nil)
		if !ok {
			return head, false
		}
		if head.IsNil() {
			head, tail = cell, cell
		} else {
			ev.Heap.SetCdr(tail, cell)
			tail = cell
		}
	}
	return head, true
}

func readlistToken(tok lexer.Token) string {
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

func installIO(tbl *eval.Table) {
	tbl.Register("print", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primPrint})
	tbl.Alias("pr", "print")
	tbl.Register("type", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primType})
	tbl.Register("show", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primShow})
	tbl.Register("readword", &eval.PrimEntry{MinArity: 0, MaxArity: 0, Fn: primReadword})
	tbl.Register("readlist", &eval.PrimEntry{MinArity: 0, MaxArity: 0, Fn: primReadlist})
}
