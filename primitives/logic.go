package primitives

import (
	"github.com/loglang/logocore/eval"
	"github.com/loglang/logocore/value"
)

func cmp(ev *eval.Evaluator, args []value.Value, ok func(a, b float32) bool) value.Result {
	a, r := num1(ev, args[0])
	if r.Status != value.StatusNone {
		return r
	}
	b, r := num1(ev, args[1])
	if r.Status != value.StatusNone {
		return r
	}
	return value.Ok(value.Bool(ev.Heap, ok(a, b)))
}

func primEqualp(ev *eval.Evaluator, args []value.Value) value.Result {
	if args[0].IsNumber() && args[1].IsNumber() {
		return value.Ok(value.Bool(ev.Heap, args[0].Number == args[1].Number))
	}
	return value.Ok(value.Bool(ev.Heap, args[0].Print(ev.Heap) == args[1].Print(ev.Heap)))
}

func primLessp(ev *eval.Evaluator, args []value.Value) value.Result {
	return cmp(ev, args, func(a, b float32) bool { return a < b })
}

func primGreaterp(ev *eval.Evaluator, args []value.Value) value.Result {
	return cmp(ev, args, func(a, b float32) bool { return a > b })
}

func boolArg(ev *eval.Evaluator, v value.Value) (bool, value.Result) {
	b, e := value.Truthy(ev.Heap, v)
	if e.Code != 0 {
		return false, value.Err(e)
	}
	return b, value.Result{}
}

func primAnd(ev *eval.Evaluator, args []value.Value) value.Result {
	for _, a := range args {
		b, r := boolArg(ev, a)
		if r.Status != value.StatusNone {
			return r
		}
		if !b {
			return value.Ok(value.Bool(ev.Heap, false))
		}
	}
	return value.Ok(value.Bool(ev.Heap, true))
}

func primOr(ev *eval.Evaluator, args []value.Value) value.Result {
	for _, a := range args {
		b, r := boolArg(ev, a)
		if r.Status != value.StatusNone {
			return r
		}
		if b {
			return value.Ok(value.Bool(ev.Heap, true))
		}
	}
	return value.Ok(value.Bool(ev.Heap, false))
}

func primNot(ev *eval.Evaluator, args []value.Value) value.Result {
	b, r := boolArg(ev, args[0])
	if r.Status != value.StatusNone {
		return r
	}
	return value.Ok(value.Bool(ev.Heap, !b))
}

func installLogic(tbl *eval.Table) {
	tbl.Register("equalp", &eval.PrimEntry{MinArity: 2, MaxArity: 2, Fn: primEqualp})
	tbl.Alias("equal?", "equalp")
	tbl.Register("lessp", &eval.PrimEntry{MinArity: 2, MaxArity: 2, Fn: primLessp})
	tbl.Alias("less?", "lessp")
	tbl.Register("greaterp", &eval.PrimEntry{MinArity: 2, MaxArity: 2, Fn: primGreaterp})
	tbl.Alias("greater?", "greaterp")
	tbl.Register("and", &eval.PrimEntry{MinArity: 2, MaxArity: -1, Fn: primAnd})
	tbl.Register("or", &eval.PrimEntry{MinArity: 2, MaxArity: -1, Fn: primOr})
	tbl.Register("not", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primNot})
}
