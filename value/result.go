package value

import (
	"github.com/loglang/logocore/errs"
)

// Status enumerates the structured outcomes of §3 Result.
type Status uint8

const (
	StatusNone Status = iota
	StatusOk
	StatusStop
	StatusOutput
	StatusError
	StatusThrow
	StatusCall
	StatusGoto
	StatusEof
	StatusInterrupted
)

// CallPayload is the CPS "suspend me, evaluate this callee, then resume"
// instruction (§3 Result, §4.6 step 4 Call branch).
type CallPayload struct {
	Proc string
	Args []Value
}

// Result is the tagged sum of every outcome an instruction, expression, or
// procedure body can produce. Only one payload field is meaningful per
// Status; the rest are zero.
type Result struct {
	Status Status
	Value  Value      // StatusOk / StatusOutput
	Err    errs.Error // StatusError
	Throw  ThrowTag   // StatusThrow
	Call   CallPayload
	Goto   string // StatusGoto: target label name

	// HostTrace is an optional Go-level call-stack snapshot that proc.Engine
	// attaches to the result of a tail call to a different procedure,
	// whether or not `trace`/`step` is on. It is a diagnostic aid only:
	// never formatted into anything a Logo program can read, never part of
	// equality/printing.
	HostTrace string
}

// ThrowTag carries `throw`'s tag and optional value (§3 Result Throw).
type ThrowTag struct {
	Tag     string
	Value   Value
	HasVal  bool
}

func None() Result        { return Result{Status: StatusNone} }
func Ok(v Value) Result   { return Result{Status: StatusOk, Value: v} }
func Stop() Result        { return Result{Status: StatusStop} }
func Output(v Value) Result { return Result{Status: StatusOutput, Value: v} }
func Eof() Result         { return Result{Status: StatusEof} }
func Interrupted() Result { return Result{Status: StatusInterrupted} }

func Err(e errs.Error) Result { return Result{Status: StatusError, Err: e} }

func ErrCode(code errs.Code, proc, arg string) Result {
	return Result{Status: StatusError, Err: errs.Error{Code: code, Proc: proc, Arg: arg}}
}

func Throw(tag string) Result {
	return Result{Status: StatusThrow, Throw: ThrowTag{Tag: tag}}
}

func ThrowValue(tag string, v Value) Result {
	return Result{Status: StatusThrow, Throw: ThrowTag{Tag: tag, Value: v, HasVal: true}}
}

func Call(proc string, args []Value) Result {
	return Result{Status: StatusCall, Call: CallPayload{Proc: proc, Args: args}}
}

func Goto(label string) Result {
	return Result{Status: StatusGoto, Goto: label}
}

// IsTerminal reports whether r ends a body's execution outright (as opposed
// to StatusNone/StatusOk, which let evaluation continue to the next line,
// and StatusCall, which is consumed internally by the procedure engine).
func (r Result) IsTerminal() bool {
	switch r.Status {
	case StatusStop, StatusOutput, StatusError, StatusThrow, StatusEof, StatusInterrupted:
		return true
	default:
		return false
	}
}

// WithCaller fills Err.Caller when r is an error, leaving every other
// status untouched (§7 propagation policy: first ancestor only).
func (r Result) WithCaller(name string) Result {
	if r.Status == StatusError {
		r.Err = r.Err.WithCaller(name)
	}
	return r
}
