package primitives

import (
	"github.com/loglang/logocore/errs"
	"github.com/loglang/logocore/eval"
	"github.com/loglang/logocore/value"
)

func primMake(ev *eval.Evaluator, args []value.Value) value.Result {
	name, r := asWordText(ev, "make", args[0])
	if r.Status != value.StatusNone {
		return r
	}
	ev.Scope.Make(name, args[1])
	return value.None()
}

func primLocal(ev *eval.Evaluator, args []value.Value) value.Result {
	name, r := asWordText(ev, "local", args[0])
	if r.Status != value.StatusNone {
		return r
	}
	if !ev.Scope.InProcedure() {
		return value.ErrCode(errs.AtToplevel, "local", "local")
	}
	if !ev.Scope.Local(name) {
		return value.ErrCode(errs.OutOfSpace, "local", name)
	}
	return value.None()
}

func primThing(ev *eval.Evaluator, args []value.Value) value.Result {
	name, r := asWordText(ev, "thing", args[0])
	if r.Status != value.StatusNone {
		return r
	}
	v, ok := ev.Scope.Get(name)
	if !ok {
		return value.ErrCode(errs.NoValue, name, name)
	}
	return value.Ok(v)
}

// primName is `make` with its arguments swapped: `name value "varname`.
func primName(ev *eval.Evaluator, args []value.Value) value.Result {
	name, r := asWordText(ev, "name", args[1])
	if r.Status != value.StatusNone {
		return r
	}
	ev.Scope.Make(name, args[0])
	return value.None()
}

func installVars(tbl *eval.Table) {
	tbl.Register("make", &eval.PrimEntry{MinArity: 2, MaxArity: 2, Fn: primMake})
	tbl.Register("local", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primLocal})
	tbl.Register("thing", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primThing})
	tbl.Register("name", &eval.PrimEntry{MinArity: 2, MaxArity: 2, Fn: primName})
}
