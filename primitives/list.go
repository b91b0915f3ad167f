package primitives

import (
	"strings"

	"github.com/loglang/logocore/errs"
	"github.com/loglang/logocore/eval"
	"github.com/loglang/logocore/heap"
	"github.com/loglang/logocore/value"
)

// asWordText requires v to already be a word and returns its text, or a
// DoesntLikeInput error naming proc otherwise.
func asWordText(ev *eval.Evaluator, proc string, v value.Value) (string, value.Result) {
	if !v.IsWord() {
		return "", value.ErrCode(errs.DoesntLikeInput, proc, v.Print(ev.Heap))
	}
	return ev.Heap.WordPtr(v.Node), value.Result{}
}

func listHeadOf(v value.Value) (heap.Node, bool) {
	if !v.IsList() {
		return heap.Nil, false
	}
	return v.Node, true
}

func buildList(ev *eval.Evaluator, elems []heap.Node) (heap.Node, bool) {
	head, tail := heap.Nil, heap.Nil
	for _, el := range elems {
		cell, ok := ev.Heap.Cons(el, heap.Nil, nil)
		if !ok {
			return heap.Nil, false
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

func primFirst(ev *eval.Evaluator, args []value.Value) value.Result {
	v := args[0]
	switch {
	case v.IsWord():
		s := ev.Heap.WordPtr(v.Node)
		if s == "" {
			return value.ErrCode(errs.DoesntLikeInput, "first", s)
		}
		return value.Ok(value.Word(ev.Heap.Atom(string([]rune(s)[0]))))
	case v.IsList():
		if v.Node.IsNil() {
			return value.ErrCode(errs.DoesntLikeInput, "first", "[]")
		}
		elem := ev.Heap.Car(v.Node)
		return value.Ok(elemToValue(elem))
	default:
		return value.ErrCode(errs.DoesntLikeInput, "first", v.Print(ev.Heap))
	}
}

func primLast(ev *eval.Evaluator, args []value.Value) value.Result {
	v := args[0]
	switch {
	case v.IsWord():
		s := ev.Heap.WordPtr(v.Node)
		if s == "" {
			return value.ErrCode(errs.DoesntLikeInput, "last", s)
		}
		r := []rune(s)
		return value.Ok(value.Word(ev.Heap.Atom(string(r[len(r)-1]))))
	case v.IsList():
		if v.Node.IsNil() {
			return value.ErrCode(errs.DoesntLikeInput, "last", "[]")
		}
		cur := v.Node
		for !ev.Heap.Cdr(cur).IsNil() {
			cur = ev.Heap.Cdr(cur)
		}
		return value.Ok(elemToValue(ev.Heap.Car(cur)))
	default:
		return value.ErrCode(errs.DoesntLikeInput, "last", v.Print(ev.Heap))
	}
}

func elemToValue(elem heap.Node) value.Value {
	if elem.IsListRef() {
		return value.List(elem.StripListRef())
	}
	return value.Word(elem)
}

func primButfirst(ev *eval.Evaluator, args []value.Value) value.Result {
	v := args[0]
	switch {
	case v.IsWord():
		s := ev.Heap.WordPtr(v.Node)
		r := []rune(s)
		if len(r) == 0 {
			return value.ErrCode(errs.DoesntLikeInput, "butfirst", s)
		}
		return value.Ok(value.Word(ev.Heap.Atom(string(r[1:]))))
	case v.IsList():
		if v.Node.IsNil() {
			return value.ErrCode(errs.DoesntLikeInput, "butfirst", "[]")
		}
		return value.Ok(value.List(ev.Heap.Cdr(v.Node)))
	default:
		return value.ErrCode(errs.DoesntLikeInput, "butfirst", v.Print(ev.Heap))
	}
}

func primButlast(ev *eval.Evaluator, args []value.Value) value.Result {
	v := args[0]
	switch {
	case v.IsWord():
		s := ev.Heap.WordPtr(v.Node)
		r := []rune(s)
		if len(r) == 0 {
			return value.ErrCode(errs.DoesntLikeInput, "butlast", s)
		}
		return value.Ok(value.Word(ev.Heap.Atom(string(r[:len(r)-1]))))
	case v.IsList():
		if v.Node.IsNil() {
			return value.ErrCode(errs.DoesntLikeInput, "butlast", "[]")
		}
		var elems []heap.Node
		for cur := v.Node; !ev.Heap.Cdr(cur).IsNil(); cur = ev.Heap.Cdr(cur) {
			elems = append(elems, ev.Heap.Car(cur))
		}
		head, ok := buildList(ev, elems)
		if !ok {
			return value.ErrCode(errs.OutOfSpace, "butlast", "")
		}
		return value.Ok(value.List(head))
	default:
		return value.ErrCode(errs.DoesntLikeInput, "butlast", v.Print(ev.Heap))
	}
}

func primFput(ev *eval.Evaluator, args []value.Value) value.Result {
	item, lst := args[0], args[1]
	if !lst.IsList() {
		return value.ErrCode(errs.DoesntLikeInput, "fput", lst.Print(ev.Heap))
	}
	elem := valueToElem(ev, item)
	cell, ok := ev.Heap.Cons(elem, lst.Node, nil)
	if !ok {
		return value.ErrCode(errs.OutOfSpace, "fput", "")
	}
	return value.Ok(value.List(cell))
}

func valueToElem(ev *eval.Evaluator, v value.Value) heap.Node {
	if v.IsList() {
		return v.Node.AsListRef()
	}
	if v.IsNumber() {
		return ev.Heap.Atom(value.FormatNumber(v.Number))
	}
	return v.Node
}

func primLput(ev *eval.Evaluator, args []value.Value) value.Result {
	item, lst := args[0], args[1]
	if !lst.IsList() {
		return value.ErrCode(errs.DoesntLikeInput, "lput", lst.Print(ev.Heap))
	}
	var elems []heap.Node
	for cur := lst.Node; !cur.IsNil(); cur = ev.Heap.Cdr(cur) {
		elems = append(elems, ev.Heap.Car(cur))
	}
	elems = append(elems, valueToElem(ev, item))
	head, ok := buildList(ev, elems)
	if !ok {
		return value.ErrCode(errs.OutOfSpace, "lput", "")
	}
	return value.Ok(value.List(head))
}

func primList(ev *eval.Evaluator, args []value.Value) value.Result {
	elems := make([]heap.Node, len(args))
	for i, a := range args {
		elems[i] = valueToElem(ev, a)
	}
	head, ok := buildList(ev, elems)
	if !ok {
		return value.ErrCode(errs.OutOfSpace, "list", "")
	}
	return value.Ok(value.List(head))
}

func primWord(ev *eval.Evaluator, args []value.Value) value.Result {
	var b strings.Builder
	for _, a := range args {
		s, r := asWordText(ev, "word", a)
		if r.Status != value.StatusNone {
			return r
		}
		b.WriteString(s)
	}
	return value.Ok(value.Word(ev.Heap.Atom(b.String())))
}

func primSentence(ev *eval.Evaluator, args []value.Value) value.Result {
	var elems []heap.Node
	for _, a := range args {
		if a.IsList() {
			for cur := a.Node; !cur.IsNil(); cur = ev.Heap.Cdr(cur) {
				elems = append(elems, ev.Heap.Car(cur))
			}
		} else {
			elems = append(elems, valueToElem(ev, a))
		}
	}
	head, ok := buildList(ev, elems)
	if !ok {
		return value.ErrCode(errs.OutOfSpace, "sentence", "")
	}
	return value.Ok(value.List(head))
}

func primCount(ev *eval.Evaluator, args []value.Value) value.Result {
	v := args[0]
	switch {
	case v.IsWord():
		return value.Ok(value.Number(float32(len([]rune(ev.Heap.WordPtr(v.Node))))))
	case v.IsList():
		n := 0
		for cur := v.Node; !cur.IsNil(); cur = ev.Heap.Cdr(cur) {
			n++
		}
		return value.Ok(value.Number(float32(n)))
	default:
		return value.ErrCode(errs.DoesntLikeInput, "count", v.Print(ev.Heap))
	}
}

func primEmptyp(ev *eval.Evaluator, args []value.Value) value.Result {
	v := args[0]
	switch {
	case v.IsWord():
		return value.Ok(value.Bool(ev.Heap, ev.Heap.WordPtr(v.Node) == ""))
	case v.IsList():
		return value.Ok(value.Bool(ev.Heap, v.Node.IsNil()))
	default:
		return value.ErrCode(errs.DoesntLikeInput, "emptyp", v.Print(ev.Heap))
	}
}

func primWordp(ev *eval.Evaluator, args []value.Value) value.Result {
	return value.Ok(value.Bool(ev.Heap, args[0].IsWord()))
}

func primListp(ev *eval.Evaluator, args []value.Value) value.Result {
	return value.Ok(value.Bool(ev.Heap, args[0].IsList()))
}

func primNumberp(ev *eval.Evaluator, args []value.Value) value.Result {
	return value.Ok(value.Bool(ev.Heap, args[0].IsNumber()))
}

func installList(tbl *eval.Table) {
	tbl.Register("first", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primFirst})
	tbl.Register("last", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primLast})
	tbl.Register("butfirst", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primButfirst})
	tbl.Alias("bf", "butfirst")
	tbl.Register("butlast", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primButlast})
	tbl.Alias("bl", "butlast")
	tbl.Register("fput", &eval.PrimEntry{MinArity: 2, MaxArity: 2, Fn: primFput})
	tbl.Register("lput", &eval.PrimEntry{MinArity: 2, MaxArity: 2, Fn: primLput})
	tbl.Register("list", &eval.PrimEntry{MinArity: 2, MaxArity: -1, Fn: primList})
	tbl.Register("word", &eval.PrimEntry{MinArity: 2, MaxArity: -1, Fn: primWord})
	tbl.Register("sentence", &eval.PrimEntry{MinArity: 2, MaxArity: -1, Fn: primSentence})
	tbl.Alias("se", "sentence")
	tbl.Register("count", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primCount})
	tbl.Register("emptyp", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primEmptyp})
	tbl.Alias("empty?", "emptyp")
	tbl.Register("wordp", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primWordp})
	tbl.Alias("word?", "wordp")
	tbl.Register("listp", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primListp})
	tbl.Alias("list?", "listp")
	tbl.Register("numberp", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primNumberp})
	tbl.Alias("number?", "numberp")
}
