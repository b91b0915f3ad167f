// Package proc implements the CPS + TCO procedure engine of §4.6: a frame
// stack over a shared word arena, dynamic-scope resolution across that
// stack, and the trampoline that lets self-recursive tail calls run in O(1)
// frame space while every other call shape rides Go's own growable stack.
package proc

import (
	"fmt"
	"strings"

	"github.com/go-stack/stack"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/loglang/logocore/errs"
	"github.com/loglang/logocore/eval"
	"github.com/loglang/logocore/frame"
	"github.com/loglang/logocore/heap"
	"github.com/loglang/logocore/ioface"
	"github.com/loglang/logocore/lexer"
	"github.com/loglang/logocore/value"
	"github.com/loglang/logocore/vm"
	"github.com/loglang/logocore/workspace"
)

// vmCacheSize bounds the compiled-bytecode LRU (§4.7): enough to hold every
// distinct body line of a reasonably sized program without growing
// unbounded on a constrained device.
const vmCacheSize = 512

// Binding is one frame slot: a parameter or `local`-declared name together
// with its current value. This is the frame.Arena's "word" type (§4.4's
// doc comment on why a literal uint32 isn't wide enough here).
type Binding struct {
	Name  string
	Value value.Value
}

// callFrame is the bookkeeping the engine keeps per live call, separate from
// the arena storage the bindings themselves live in.
type callFrame struct {
	procName string
	off      frame.Offset
	n        int
}

// Engine owns the frame stack, the word arena backing it, and the evaluator
// it drives. It implements eval.Scope so the evaluator never sees frame
// internals directly (§4.3/§4.6), and eval.Flags so cooperative cancellation
// is wired the same way.
type Engine struct {
	Heap  *heap.Heap
	WS    *workspace.Workspace
	IO    *ioface.IO
	Table *eval.Table
	Arena *frame.Arena[Binding]
	Ev    *eval.Evaluator

	frames   []callFrame
	repStack []int

	// vmCache memoizes Compile's verdict (eligible or not) per distinct body
	// line, keyed by a structural encoding of its tokens, so a loop body or
	// a TCO-reused line is compiled at most once (§4.7, DOMAIN STACK:
	// hashicorp/golang-lru/v2). A cached nil Bytecode means "ineligible,
	// don't retry" — the common case for lines calling user procedures.
	vmCache *lru.Cache[string, *vm.Bytecode]
}

// NewEngine wires an Evaluator to a fresh frame stack over arenaCapacity
// words (0 = unbounded, the desktop profile).
func NewEngine(h *heap.Heap, ws *workspace.Workspace, io *ioface.IO, table *eval.Table, arenaCapacity int) *Engine {
	cache, _ := lru.New[string, *vm.Bytecode](vmCacheSize)
	e := &Engine{
		Heap:    h,
		WS:      ws,
		IO:      io,
		Table:   table,
		Arena:   frame.New[Binding](arenaCapacity),
		vmCache: cache,
	}
	e.Ev = eval.New(h, ws, table, io)
	e.Ev.Scope = e
	e.Ev.Flags = e
	e.Ev.UserCall = e.Call
	return e
}

// --- eval.Flags --------------------------------------------------------

// Poll reports the user-interrupt flag only (§5). The pause and freeze
// flags are not polled here, and the host REPL does not read them either,
// so setting them does not suspend a running procedure.
func (e *Engine) Poll() (value.Result, bool) {
	if e.IO != nil && e.IO.Flags.Interrupt.IsSet() {
		return value.Interrupted(), true
	}
	return value.Result{}, false
}

// --- eval.Scope ----------------------------------------------------------

// Get searches the frame stack innermost-to-outermost, then globals (§4.3).
func (e *Engine) Get(name string) (value.Value, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		f := e.frames[i]
		bindings := e.Arena.Slice(f.off, f.n)
		for j := range bindings {
			if strings.EqualFold(bindings[j].Name, name) {
				return bindings[j].Value, true
			}
		}
	}
	return e.WS.GetGlobal(name)
}

// Make rebinds name wherever it is already bound (a frame, searched
// innermost-out, or the globals), else creates a global (§4.3).
func (e *Engine) Make(name string, v value.Value) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		f := e.frames[i]
		bindings := e.Arena.Slice(f.off, f.n)
		for j := range bindings {
			if strings.EqualFold(bindings[j].Name, name) {
				bindings[j].Value = v
				return
			}
		}
	}
	e.WS.Make(name, v)
}

// Local allocates a new binding for name in the current (innermost) frame.
// It is a no-op returning false at top level, where there is no frame, or
// when the arena is at fixed capacity (§4.4 Extend).
func (e *Engine) Local(name string) bool {
	if len(e.frames) == 0 {
		return false
	}
	top := &e.frames[len(e.frames)-1]
	if !e.Arena.Extend(top.off, top.n, 1) {
		return false
	}
	top.n++
	bindings := e.Arena.Slice(top.off, top.n)
	bindings[top.n-1] = Binding{Name: name, Value: value.None()}
	return true
}

func (e *Engine) InProcedure() bool { return len(e.frames) > 0 }

func (e *Engine) CurrentProcName() string {
	if len(e.frames) == 0 {
		return ""
	}
	return e.frames[len(e.frames)-1].procName
}

// RepcountPush/Pop/Value back the dynamically scoped `repcount` primitive
// (§4.9). Each `repeat` invocation pushes its own counter, independent of
// the call frame stack (repeat works at top level too, where there is no
// frame), so a loop nested inside another loop sees its own count and the
// outer loop's count is restored on Pop.
func (e *Engine) RepcountPush(n int) { e.repStack = append(e.repStack, n) }

func (e *Engine) RepcountPop() {
	if len(e.repStack) > 0 {
		e.repStack = e.repStack[:len(e.repStack)-1]
	}
}

func (e *Engine) RepcountValue() int {
	if len(e.repStack) == 0 {
		return -1
	}
	return e.repStack[len(e.repStack)-1]
}

// --- Frame push/pop/reuse --------------------------------------------------

func (e *Engine) pushFrame(name string, params []string, args []value.Value) bool {
	off, ok := e.Arena.AllocWords(len(params))
	if !ok {
		return false
	}
	bindings := e.Arena.Slice(off, len(params))
	for i, p := range params {
		bindings[i] = Binding{Name: p, Value: args[i]}
	}
	e.frames = append(e.frames, callFrame{procName: name, off: off, n: len(params)})
	return true
}

func (e *Engine) popFrame() {
	top := e.frames[len(e.frames)-1]
	e.Arena.FreeTo(top.off)
	e.frames = e.frames[:len(e.frames)-1]
}

// reuseFrame overwrites the current top frame's bindings with fresh
// parameter values, discarding any `local`s accumulated by the previous
// iteration, without growing the frame stack (§4.6 step 5, the TCO path).
func (e *Engine) reuseFrame(params []string, args []value.Value) bool {
	top := &e.frames[len(e.frames)-1]
	e.Arena.FreeTo(top.off)
	off, ok := e.Arena.AllocWords(len(params))
	if !ok {
		return false
	}
	bindings := e.Arena.Slice(off, len(params))
	for i, p := range params {
		bindings[i] = Binding{Name: p, Value: args[i]}
	}
	top.off = off
	top.n = len(params)
	return true
}

// GCRoots implements heap.Roots: every live frame's bindings, plus the
// workspace's own roots (procedure bodies, globals, property lists), is the
// full root set the mark phase needs (§4.1 step 2). The evaluator holds no
// heap references of its own between instructions, so frames and workspace
// together are sufficient.
func (e *Engine) GCRoots() []heap.Node {
	roots := e.WS.GCRoots()
	if e.Arena.Len() == 0 {
		return roots
	}
	// The arena is a stack: every word below the current top belongs to
	// some live frame, whether or not that frame is the innermost one.
	for _, b := range e.Arena.Slice(0, e.Arena.Len()) {
		if b.Value.IsList() || b.Value.IsWord() {
			roots = append(roots, b.Value.Node)
		}
	}
	return roots
}

// --- Call ------------------------------------------------------------------

// Call is the §4.6 entry point. Non-tail nested calls reach it by recursing
// through Go's own call stack (via eval.UserCallFunc); the only call shape
// that avoids a new Go stack frame is a procedure tail-calling itself, which
// loops in place reusing the current call frame.
func (e *Engine) Call(name string, args []value.Value) value.Result {
	proc, ok := e.WS.FindProc(name)
	if !ok {
		return value.ErrCode(errs.DontKnowHow, name, name)
	}
	if len(args) < len(proc.Params) {
		return value.ErrCode(errs.NotEnoughInputs, name, name)
	}
	if len(args) > len(proc.Params) {
		return value.ErrCode(errs.TooManyInputs, name, name)
	}

	if !e.pushFrame(name, proc.Params, args) {
		return value.ErrCode(errs.OutOfSpace, name, name)
	}

	lines := workspace.DecodeBody(e.Heap, proc.Body)

	if proc.Traced {
		e.emitTrace(proc.Name, args) // once per call, not per TCO resume (§4.6 step 3)
	}

	for {
		result := e.runBody(proc, lines)

		if result.Status == value.StatusCall {
			if strings.EqualFold(result.Call.Proc, name) && len(result.Call.Args) == len(proc.Params) {
				// Self-recursive tail call: reuse the frame, stay at the
				// same proc depth, loop back to step 1 (§4.6 step 5a).
				if !e.reuseFrame(proc.Params, result.Call.Args) {
					e.popFrame()
					return value.ErrCode(errs.OutOfSpace, name, name)
				}
				continue
			}
			// Different callee: the caller's frame must stay visible to it
			// for dynamic scope, so this is executed like any other nested
			// call (§4.6 step 5b) rather than reused.
			hostTrace := fmt.Sprintf("%v", stack.Trace().TrimRuntime())
			result = e.Call(result.Call.Proc, result.Call.Args)
			result.HostTrace = hostTrace
		}
		e.popFrame()
		return result
	}
}

// runBody executes proc's body lines in order (each via runLine, which
// picks the bytecode fast path or the plain evaluator per line), handling
// goto by re-scanning from the start for a matching `label` line (§4.6
// step 4). stepped procedures print each line and wait for a keystroke on
// the console before running it.
func (e *Engine) runBody(proc *workspace.Procedure, lines [][]lexer.Token) value.Result {
	lineIdx := 0
	for {
		if lineIdx >= len(lines) {
			return value.None()
		}
		toks := lines[lineIdx]
		if proc.Stepped {
			e.emitStep(proc.Name, toks)
		}
		isLastLine := lineIdx == len(lines)-1
		res := e.runLine(toks, isLastLine)
		switch res.Status {
		case value.StatusNone, value.StatusOk:
			lineIdx++
			continue
		case value.StatusGoto:
			idx := findLabel(lines, res.Goto)
			if idx < 0 {
				return value.ErrCode(errs.CantFindLabel, proc.Name, res.Goto)
			}
			lineIdx = idx + 1
			continue
		default:
			return res
		}
	}
}

// runLine executes one body line, compiling it to bytecode when eligible
// (§4.7) or falling back to the plain evaluator otherwise. Eligible lines
// can never be a tail call (the gate excludes any user-procedure name), so
// isLastLine only matters on the fallback path.
func (e *Engine) runLine(toks []lexer.Token, isLastLine bool) value.Result {
	if bc, ok := e.compileCached(toks); ok {
		return vm.Run(e.Ev, bc)
	}
	return e.Ev.RunInstrList(toks, isLastLine)
}

func (e *Engine) compileCached(toks []lexer.Token) (*vm.Bytecode, bool) {
	key := vmLineKey(toks)
	if bc, ok := e.vmCache.Get(key); ok {
		return bc, bc != nil
	}
	bc, ok := vm.Compile(e.Heap, e.Table, toks)
	if ok {
		e.vmCache.Add(key, bc)
	} else {
		e.vmCache.Add(key, nil)
	}
	return bc, ok
}

// vmLineKey builds the structural hash Compile's cache is keyed on: token
// kind and text, unambiguously separated so no two distinct lines collide.
func vmLineKey(toks []lexer.Token) string {
	var b strings.Builder
	for _, t := range toks {
		b.WriteByte(byte(t.Kind))
		b.WriteByte(0)
		b.WriteString(t.Text)
		b.WriteByte(0)
	}
	return b.String()
}

// findLabel scans for a line reading exactly `label <target>` (§4.6 step 4
// Goto branch; the `label`/`goto` primitives live in the primitives
// package, which only needs to produce/consume this line shape).
func findLabel(lines [][]lexer.Token, target string) int {
	for i, toks := range lines {
		if len(toks) >= 2 && toks[0].Kind == lexer.Word && strings.EqualFold(toks[0].Text, "label") &&
			strings.EqualFold(toks[1].Text, target) {
			return i
		}
	}
	return -1
}

func (e *Engine) emitTrace(name string, args []value.Value) {
	if e.IO == nil {
		return
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Print(e.Heap)
	}
	e.IO.Print(name + " " + strings.Join(parts, " ") + "\n")
}

// emitStep prints the about-to-run line and blocks for one keystroke on the
// console reader, the `step` primitive's debug aid (§4.6 step 4).
func (e *Engine) emitStep(name string, toks []lexer.Token) {
	if e.IO == nil {
		return
	}
	var parts []string
	for _, t := range toks {
		if t.Kind == lexer.Eof {
			continue
		}
		parts = append(parts, t.Text)
	}
	e.IO.Print(name + ": " + strings.Join(parts, " ") + " ")
	if r := e.IO.Reader(); r != nil {
		r.ReadChar()
	}
}
