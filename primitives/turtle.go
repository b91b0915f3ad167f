package primitives

import (
	"github.com/loglang/logocore/errs"
	"github.com/loglang/logocore/eval"
	"github.com/loglang/logocore/value"
)

// Turtle-graphics commands are gated on ev.IO.Console's capability table
// (§6.1: "Absence of a capability is signalled by a null table and
// surfaces to the user as Error{UNSUPPORTED_ON_DEVICE}"). No console this
// core builds populates Turtle, so these always report the device-missing
// error honestly rather than silently discarding the movement — the same
// pattern hal/desktop's BatteryLevel uses for a sensor that genuinely
// is not there.
func requireTurtle(ev *eval.Evaluator, name string) value.Result {
	if ev.IO == nil || ev.IO.Console == nil || !ev.IO.Console.HasTurtle() {
		return value.ErrCode(errs.UnsupportedOnDevice, name, name)
	}
	return value.None()
}

func primForward(ev *eval.Evaluator, args []value.Value) value.Result {
	if r := requireTurtle(ev, "forward"); r.Status == value.StatusError {
		return r
	}
	if _, r := num1(ev, args[0]); r.Status != value.StatusNone {
		return r
	}
	return value.None()
}

func primRight(ev *eval.Evaluator, args []value.Value) value.Result {
	if r := requireTurtle(ev, "right"); r.Status == value.StatusError {
		return r
	}
	if _, r := num1(ev, args[0]); r.Status != value.StatusNone {
		return r
	}
	return value.None()
}

func installTurtle(tbl *eval.Table) {
	tbl.Register("forward", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primForward})
	tbl.Alias("fd", "forward")
	tbl.Register("right", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primRight})
	tbl.Alias("rt", "right")
}
