package primitives

import (
	"strings"

	"github.com/loglang/logocore/errs"
	"github.com/loglang/logocore/eval"
	"github.com/loglang/logocore/heap"
	"github.com/loglang/logocore/value"
	"github.com/loglang/logocore/workspace"
)

// runBlock tokenizes a bracketed list argument and runs it as a nested
// instruction sequence. Nested blocks never participate in the enclosing
// body's tail-call detection (allowTCO is always false here) since a block
// run from `if`/`repeat`/`catch` is not itself the procedure's last line.
func runBlock(ev *eval.Evaluator, block value.Value) value.Result {
	toks := workspace.DecodeLine(ev.Heap, block.Node)
	return ev.RunList(toks, false)
}

func primIf(ev *eval.Evaluator, args []value.Value) value.Result {
	cond, r := boolArg(ev, args[0])
	if r.Status != value.StatusNone {
		return r
	}
	if !args[1].IsList() {
		return value.ErrCode(errs.DoesntLikeInput, "if", args[1].Print(ev.Heap))
	}
	if !cond {
		return value.None()
	}
	return runBlock(ev, args[1])
}

func primIfelse(ev *eval.Evaluator, args []value.Value) value.Result {
	cond, r := boolArg(ev, args[0])
	if r.Status != value.StatusNone {
		return r
	}
	if !args[1].IsList() || !args[2].IsList() {
		return value.ErrCode(errs.DoesntLikeInput, "ifelse", "")
	}
	if cond {
		return runBlock(ev, args[1])
	}
	return runBlock(ev, args[2])
}

func primRepeat(ev *eval.Evaluator, args []value.Value) value.Result {
	n, r := num1(ev, args[0])
	if r.Status != value.StatusNone {
		return r
	}
	if !args[1].IsList() {
		return value.ErrCode(errs.DoesntLikeInput, "repeat", args[1].Print(ev.Heap))
	}
	count := int(n)
	for i := 1; i <= count; i++ {
		ev.Scope.RepcountPush(i)
		res := runBlock(ev, args[1])
		ev.Scope.RepcountPop()
		if res.IsTerminal() || res.Status == value.StatusCall {
			return res
		}
	}
	return value.None()
}

func primRepcount(ev *eval.Evaluator, args []value.Value) value.Result {
	return value.Ok(value.Number(float32(ev.Scope.RepcountValue())))
}

func primStop(ev *eval.Evaluator, args []value.Value) value.Result {
	if !ev.Scope.InProcedure() {
		return value.ErrCode(errs.AtToplevel, "stop", "stop")
	}
	return value.Stop()
}

func primOutput(ev *eval.Evaluator, args []value.Value) value.Result {
	if !ev.Scope.InProcedure() {
		return value.ErrCode(errs.AtToplevel, "output", "output")
	}
	return value.Output(args[0])
}

func primWait(ev *eval.Evaluator, args []value.Value) value.Result {
	ms, r := num1(ev, args[0])
	if r.Status != value.StatusNone {
		return r
	}
	if ev.HW == nil {
		return value.None()
	}
	ev.HW.SleepMS(int(ms))
	return value.None()
}

// primRandom reports a pseudo-random number in [0, 1) from the platform's
// Hardware collaborator (§6.1 Hardware "random()"); a build with no
// Hardware attached reports the device as unavailable rather than
// fabricating entropy.
func primRandom(ev *eval.Evaluator, args []value.Value) value.Result {
	if ev.HW == nil {
		return value.ErrCode(errs.DeviceUnavailable, "random", "random")
	}
	return value.Ok(value.Number(ev.HW.Random()))
}

func primRun(ev *eval.Evaluator, args []value.Value) value.Result {
	if !args[0].IsList() {
		return value.ErrCode(errs.DoesntLikeInput, "run", args[0].Print(ev.Heap))
	}
	res := runBlock(ev, args[0])
	switch res.Status {
	case value.StatusOutput:
		return value.Ok(res.Value)
	default:
		return res
	}
}

func primCatch(ev *eval.Evaluator, args []value.Value) value.Result {
	tag, r := asWordText(ev, "catch", args[0])
	if r.Status != value.StatusNone {
		return r
	}
	if !args[1].IsList() {
		return value.ErrCode(errs.DoesntLikeInput, "catch", args[1].Print(ev.Heap))
	}
	res := runBlock(ev, args[1])
	switch res.Status {
	case value.StatusThrow:
		if !matchesTag(tag, res.Throw.Tag) {
			return res
		}
		if res.Throw.HasVal {
			return value.Ok(res.Throw.Value)
		}
		return value.None()
	case value.StatusError:
		if matchesTag(tag, "error") {
			ev.CaughtError = res.Err
			return value.None()
		}
		return res
	default:
		return res
	}
}

func matchesTag(want, got string) bool {
	return strings.EqualFold(want, got)
}

func primThrow(ev *eval.Evaluator, args []value.Value) value.Result {
	tag, r := asWordText(ev, "throw", args[0])
	if r.Status != value.StatusNone {
		return r
	}
	if len(args) == 2 {
		return value.ThrowValue(tag, args[1])
	}
	return value.Throw(tag)
}

// primError yields `[code message proc caller]` for the error last
// intercepted by `catch "error` (§4.8).
func primError(ev *eval.Evaluator, args []value.Value) value.Result {
	plist := ev.CaughtError.AsPlist()
	elems := make([]heap.Node, len(plist))
	for i, s := range plist {
		elems[i] = ev.Heap.Atom(s)
	}
	head, ok := buildList(ev, elems)
	if !ok {
		return value.ErrCode(errs.OutOfSpace, "error", "")
	}
	return value.Ok(value.List(head))
}

// primLabel is a no-op at the point it runs: `label "name` only matters as a
// scan target for `goto "name`, which the procedure engine locates by
// re-walking the body's source lines (§4.6 step 4 Goto branch). The name
// must be a quoted word so execution doesn't try to look it up as a command.
func primLabel(ev *eval.Evaluator, args []value.Value) value.Result { return value.None() }

func primGoto(ev *eval.Evaluator, args []value.Value) value.Result {
	label, r := asWordText(ev, "goto", args[0])
	if r.Status != value.StatusNone {
		return r
	}
	return value.Goto(label)
}

// primPause and primContinue set and clear the shared Pause flag (§4.6
// "Pause"/§5). Neither the procedure engine nor the host REPL reads that
// flag, so `pause` does not suspend execution or open a nested prompt, and
// `continue`/`co` only clears the flag.
func primPause(ev *eval.Evaluator, args []value.Value) value.Result {
	ev.IO.Flags.Pause.Set()
	return value.None()
}

func primContinue(ev *eval.Evaluator, args []value.Value) value.Result {
	ev.IO.Flags.Pause.Clear()
	return value.None()
}

func installControl(tbl *eval.Table) {
	tbl.Register("if", &eval.PrimEntry{MinArity: 2, MaxArity: 2, Fn: primIf})
	tbl.Register("ifelse", &eval.PrimEntry{MinArity: 3, MaxArity: 3, Fn: primIfelse})
	tbl.Register("repeat", &eval.PrimEntry{MinArity: 2, MaxArity: 2, Fn: primRepeat})
	tbl.Register("repcount", &eval.PrimEntry{MinArity: 0, MaxArity: 0, Fn: primRepcount})
	tbl.Register("stop", &eval.PrimEntry{MinArity: 0, MaxArity: 0, Fn: primStop})
	tbl.Register("output", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primOutput})
	tbl.Alias("op", "output")
	tbl.Register("wait", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primWait})
	tbl.Register("random", &eval.PrimEntry{MinArity: 0, MaxArity: 0, Fn: primRandom})
	tbl.Register("run", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primRun})
	tbl.Register("catch", &eval.PrimEntry{MinArity: 2, MaxArity: 2, Fn: primCatch})
	tbl.Register("throw", &eval.PrimEntry{MinArity: 1, MaxArity: 2, Fn: primThrow})
	tbl.Register("error", &eval.PrimEntry{MinArity: 0, MaxArity: 0, Fn: primError})
	tbl.Register("label", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primLabel})
	tbl.Register("goto", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primGoto})
	tbl.Register("pause", &eval.PrimEntry{MinArity: 0, MaxArity: 0, Fn: primPause})
	tbl.Register("continue", &eval.PrimEntry{MinArity: 0, MaxArity: 0, Fn: primContinue})
	tbl.Alias("co", "continue")
}
