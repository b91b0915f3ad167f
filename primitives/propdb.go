package primitives

import (
	"strconv"
	"strings"

	"github.com/loglang/logocore/errs"
	"github.com/loglang/logocore/eval"
	"github.com/loglang/logocore/heap"
	"github.com/loglang/logocore/value"
)

func primPprop(ev *eval.Evaluator, args []value.Value) value.Result {
	entity, r := asWordText(ev, "pprop", args[0])
	if r.Status != value.StatusNone {
		return r
	}
	prop, r := asWordText(ev, "pprop", args[1])
	if r.Status != value.StatusNone {
		return r
	}
	ev.WS.PProp(ev.Heap, entity, prop, args[2])
	return value.None()
}

func primGprop(ev *eval.Evaluator, args []value.Value) value.Result {
	entity, r := asWordText(ev, "gprop", args[0])
	if r.Status != value.StatusNone {
		return r
	}
	prop, r := asWordText(ev, "gprop", args[1])
	if r.Status != value.StatusNone {
		return r
	}
	v, ok := ev.WS.GProp(entity, prop)
	if !ok {
		return value.Ok(value.Word(ev.Heap.Atom("")))
	}
	return value.Ok(v)
}

func primRemprop(ev *eval.Evaluator, args []value.Value) value.Result {
	entity, r := asWordText(ev, "remprop", args[0])
	if r.Status != value.StatusNone {
		return r
	}
	prop, r := asWordText(ev, "remprop", args[1])
	if r.Status != value.StatusNone {
		return r
	}
	ev.WS.RemProp(entity, prop)
	return value.None()
}

// primPlist re-parses each stored value back into a number when it prints
// as one, since Plist keeps the underlying store in printed-atom form (see
// workspace.Plist's doc comment on the gprop/plist asymmetry).
func primPlist(ev *eval.Evaluator, args []value.Value) value.Result {
	entity, r := asWordText(ev, "plist", args[0])
	if r.Status != value.StatusNone {
		return r
	}
	flat := ev.WS.Plist(ev.Heap, entity)
	elems := make([]heap.Node, len(flat))
	for i, s := range flat {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 32); err == nil {
			elems[i] = ev.Heap.Atom(value.FormatNumber(float32(n)))
		} else {
			elems[i] = ev.Heap.Atom(s)
		}
	}
	head, ok := buildList(ev, elems)
	if !ok {
		return value.ErrCode(errs.OutOfSpace, "plist", "")
	}
	return value.Ok(value.List(head))
}

func installPropdb(tbl *eval.Table) {
	tbl.Register("pprop", &eval.PrimEntry{MinArity: 3, MaxArity: 3, Fn: primPprop})
	tbl.Register("gprop", &eval.PrimEntry{MinArity: 2, MaxArity: 2, Fn: primGprop})
	tbl.Register("remprop", &eval.PrimEntry{MinArity: 2, MaxArity: 2, Fn: primRemprop})
	tbl.Register("plist", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primPlist})
}
