// Package primitives registers the built-in primitive set (§4.9 design
// note) into an eval.Table: arithmetic, logic, list/word operations,
// control flow, variables, workspace management, property lists, and I/O.
// None of it imports proc or eval's concrete engine; everything it needs
// (heap, scope, workspace, I/O) arrives through the *eval.Evaluator each
// PrimFunc is handed, keeping the dependency direction primitives -> eval
// the same one-way shape eval -> proc already establishes.
package primitives

import (
	"github.com/loglang/logocore/errs"
	"github.com/loglang/logocore/eval"
	"github.com/loglang/logocore/value"
)

func num1(ev *eval.Evaluator, v value.Value) (float32, value.Result) {
	f, e := value.ToNumber(ev.Heap, v)
	if e.Code != 0 {
		return 0, value.Err(e)
	}
	return f, value.Result{}
}

func arithSum(ev *eval.Evaluator, args []value.Value) value.Result {
	a, r := num1(ev, args[0])
	if r.Status != value.StatusNone {
		return r
	}
	b, r := num1(ev, args[1])
	if r.Status != value.StatusNone {
		return r
	}
	return value.Ok(value.Number(a + b))
}

func arithDifference(ev *eval.Evaluator, args []value.Value) value.Result {
	a, r := num1(ev, args[0])
	if r.Status != value.StatusNone {
		return r
	}
	b, r := num1(ev, args[1])
	if r.Status != value.StatusNone {
		return r
	}
	return value.Ok(value.Number(a - b))
}

func arithMinus(ev *eval.Evaluator, args []value.Value) value.Result {
	a, r := num1(ev, args[0])
	if r.Status != value.StatusNone {
		return r
	}
	return value.Ok(value.Number(-a))
}

func arithProduct(ev *eval.Evaluator, args []value.Value) value.Result {
	a, r := num1(ev, args[0])
	if r.Status != value.StatusNone {
		return r
	}
	b, r := num1(ev, args[1])
	if r.Status != value.StatusNone {
		return r
	}
	return value.Ok(value.Number(a * b))
}

func arithQuotient(ev *eval.Evaluator, args []value.Value) value.Result {
	a, r := num1(ev, args[0])
	if r.Status != value.StatusNone {
		return r
	}
	b, r := num1(ev, args[1])
	if r.Status != value.StatusNone {
		return r
	}
	if b == 0 {
		return value.ErrCode(errs.DivideByZero, "quotient", "")
	}
	return value.Ok(value.Number(a / b))
}

func arithRemainder(ev *eval.Evaluator, args []value.Value) value.Result {
	a, r := num1(ev, args[0])
	if r.Status != value.StatusNone {
		return r
	}
	b, r := num1(ev, args[1])
	if r.Status != value.StatusNone {
		return r
	}
	if b == 0 {
		return value.ErrCode(errs.DivideByZero, "remainder", "")
	}
	ai, bi := int64(a), int64(b)
	return value.Ok(value.Number(float32(ai % bi)))
}

func installArith(tbl *eval.Table) {
	tbl.Register("sum", &eval.PrimEntry{MinArity: 2, MaxArity: -1, Fn: variadicFold(arithSum)})
	tbl.Register("difference", &eval.PrimEntry{MinArity: 2, MaxArity: 2, Fn: arithDifference})
	tbl.Register("minus", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: arithMinus})
	tbl.Register("product", &eval.PrimEntry{MinArity: 2, MaxArity: -1, Fn: variadicFold(arithProduct)})
	tbl.Register("quotient", &eval.PrimEntry{MinArity: 2, MaxArity: 2, Fn: arithQuotient})
	tbl.Register("remainder", &eval.PrimEntry{MinArity: 2, MaxArity: 2, Fn: arithRemainder})
}

// variadicFold lets sum/product accept more than two operands when called
// inside parentheses, folding pairwise left-to-right (§4.5 Arity binding).
func variadicFold(pairwise eval.PrimFunc) eval.PrimFunc {
	return func(ev *eval.Evaluator, args []value.Value) value.Result {
		acc := args[0]
		for _, next := range args[1:] {
			r := pairwise(ev, []value.Value{acc, next})
			if r.Status != value.StatusOk {
				return r
			}
			acc = r.Value
		}
		return value.Ok(acc)
	}
}
