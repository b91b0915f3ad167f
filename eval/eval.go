// Package eval implements the expression evaluator of §4.5: right-to-left
// expression semantics, dynamically scoped variable lookup, primitive
// dispatch, and list-literal handling.
package eval

import (
	"strconv"
	"strings"

	"github.com/loglang/logocore/errs"
	"github.com/loglang/logocore/hal"
	"github.com/loglang/logocore/heap"
	"github.com/loglang/logocore/ioface"
	"github.com/loglang/logocore/lexer"
	"github.com/loglang/logocore/value"
	"github.com/loglang/logocore/workspace"
)

// Scope abstracts the dynamic-scope chain (frame bindings, innermost to
// outermost) the evaluator reads and writes through `make`/`local`/`thing`/
// `:x` (§4.3 Variable scoping). It is implemented by the procedure engine's
// frame stack; the evaluator never sees frame internals directly, which is
// what lets eval and proc each import the other only through this
// interface (eval defines it, proc implements and calls into eval).
type Scope interface {
	// Get searches the frame stack from innermost outward, then globals.
	Get(name string) (value.Value, bool)
	// Make rebinds name in whichever scope already holds it (innermost
	// frame or global); if unbound anywhere, creates a global.
	Make(name string, v value.Value)
	// Local allocates a binding for name in the current frame. A no-op
	// (with ok=false) at top level, where there is no current frame.
	Local(name string) (ok bool)
	// InProcedure reports whether there is a current frame at all.
	InProcedure() bool
	// CurrentProcName names the innermost frame's procedure, or "".
	CurrentProcName() string
	// RepcountPush/Pop/Value manage the dynamically scoped `repcount`
	// counter used by `repeat` (§4.9 supplemented primitive set).
	RepcountPush(n int)
	RepcountPop()
	RepcountValue() int
}

// Flags is the cooperative cancellation surface the evaluator polls between
// instructions, never inside one (§4.5, §5).
type Flags interface {
	// Poll returns a non-ok Result (Interrupted, or a pause/freeze
	// signal the caller handles) if a flag is set, else a zero Result.
	Poll() (value.Result, bool)
}

// PrimFunc is the shape of a primitive implementation. It receives the
// Evaluator so primitives that take list arguments (if, repeat, catch...)
// can recursively invoke RunList on the captured body.
type PrimFunc func(ev *Evaluator, args []value.Value) value.Result

// PrimEntry is one row of the primitive registry (§4.9 design note).
type PrimEntry struct {
	MinArity int
	MaxArity int // -1 means unbounded (variadic inside parens)
	Fn       PrimFunc
}

// Table maps interned (lowercased) primitive names to their entry.
// Aliases (pr/print) share the same *PrimEntry pointer.
type Table struct {
	entries map[string]*PrimEntry
}

func NewTable() *Table { return &Table{entries: make(map[string]*PrimEntry)} }

func (t *Table) Register(name string, e *PrimEntry) { t.entries[strings.ToLower(name)] = e }

func (t *Table) Alias(alias, name string) {
	if e, ok := t.entries[strings.ToLower(name)]; ok {
		t.entries[strings.ToLower(alias)] = e
	}
}

func (t *Table) Lookup(name string) (*PrimEntry, bool) {
	e, ok := t.entries[strings.ToLower(name)]
	return e, ok
}

// UserCallFunc invokes a user-defined procedure synchronously and returns
// its Result. This is how non-tail nested calls are evaluated: the
// evaluator calls back into the procedure engine, which recurses using
// Go's own call stack (the "CPS" half of §4.6 — Go's growable goroutine
// stack stands in for the reference implementation's hand-rolled
// continuation bookkeeping, since nothing here needs to run with a fixed
// host stack). Only genuine tail calls are deferred as a Call Result for
// the engine's trampoline (see proc.Engine).
type UserCallFunc func(name string, args []value.Value) value.Result

// Evaluator holds everything needed to run instructions/expressions over a
// token stream: heap, workspace, the dynamic-scope chain, the primitive
// registry, I/O, and the hooks back into the procedure engine.
type Evaluator struct {
	Heap     *heap.Heap
	WS       *workspace.Workspace
	Scope    Scope
	Table    *Table
	IO       *ioface.IO
	UserCall UserCallFunc
	Flags    Flags

	// HW and Storage are the platform collaborators `wait`, `random`, `bye`,
	// and the file-stream primitives call out to (§6.1); either may be nil:
	// `wait` then does nothing, `random` and the file-stream primitives
	// report errs.DeviceUnavailable, and none of them panics.
	HW      hal.Hardware
	Storage hal.Storage

	// CaughtError is the distinguished slot `catch "error` fills so the
	// `error` primitive can report what was last intercepted (§4.8).
	CaughtError errs.Error

	toks []lexer.Token
	pos  int
}

// New constructs an Evaluator. UserCall and Scope are normally supplied by
// the owning proc.Engine after construction (see proc.NewEngine).
func New(h *heap.Heap, ws *workspace.Workspace, table *Table, io *ioface.IO) *Evaluator {
	return &Evaluator{Heap: h, WS: ws, Table: table, IO: io}
}

// cursor is a saved token-stream position, used so nested expression()/
// instruction() calls within a RunList invocation share one stream.
type cursor struct {
	toks []lexer.Token
	pos  int
}

func (ev *Evaluator) save() cursor    { return cursor{ev.toks, ev.pos} }
func (ev *Evaluator) restore(c cursor) { ev.toks, ev.pos = c.toks, c.pos }

func (ev *Evaluator) cur() lexer.Token {
	if ev.pos >= len(ev.toks) {
		return lexer.Token{Kind: lexer.Eof}
	}
	return ev.toks[ev.pos]
}

func (ev *Evaluator) advance() lexer.Token {
	t := ev.cur()
	if ev.pos < len(ev.toks) {
		ev.pos++
	}
	return t
}

// RunList executes every instruction in a flat token list
// (e.g. a procedure-body line already lexed into tokens, or a bracketed
// block argument). allowTCO enables tail-call detection on the final
// instruction (§4.5 run_list_with_tco).
func (ev *Evaluator) RunList(toks []lexer.Token, allowTCO bool) value.Result {
	saved := ev.save()
	ev.toks, ev.pos = toks, 0
	defer ev.restore(saved)

	var last value.Result
	for {
		if ev.cur().Kind == lexer.Eof {
			return last
		}
		if ev.Flags != nil {
			if r, stop := ev.Flags.Poll(); stop {
				return r
			}
		}
		isLastInstruction := allowTCO && ev.restTokensAreOneInstruction()
		r := ev.instruction(isLastInstruction)
		if r.Status == value.StatusCall && ev.cur().Kind != lexer.Eof {
			// More tokens follow, so this was not the final instruction.
			r = ev.UserCall(r.Call.Proc, r.Call.Args)
		}
		if r.IsTerminal() || r.Status == value.StatusCall || r.Status == value.StatusGoto {
			return r
		}
		last = r
	}
}

// restTokensAreOneInstruction always reports true without parsing the
// remaining tokens, so RunList offers every instruction tail position;
// RunList then runs a returned Call at once whenever more tokens follow it,
// which leaves only the final instruction able to hand back a Call.
func (ev *Evaluator) restTokensAreOneInstruction() bool {
	return true
}

// RunInstrList runs the instructions of one procedure-body line. When
// isLastLine is set, a user-procedure call in tail position comes back as a
// Call result instead of being run, so the procedure engine's trampoline
// can reuse the frame on a self-recursive tail call (§4.6 step 5).
func (ev *Evaluator) RunInstrList(toks []lexer.Token, isLastLine bool) value.Result {
	saved := ev.save()
	ev.toks, ev.pos = toks, 0
	defer ev.restore(saved)

	var last value.Result
	for {
		if ev.cur().Kind == lexer.Eof {
			return last
		}
		if ev.Flags != nil {
			if r, stop := ev.Flags.Poll(); stop {
				return r
			}
		}
		atEnd := ev.onlyOneInstructionRemains()
		r := ev.instruction(isLastLine && atEnd)
		if r.Status == value.StatusCall && ev.cur().Kind != lexer.Eof {
			// More instructions follow on this line: run the call normally.
			r = ev.UserCall(r.Call.Proc, r.Call.Args)
		}
		if r.IsTerminal() || r.Status == value.StatusCall || r.Status == value.StatusGoto {
			return r
		}
		last = r
	}
}

func (ev *Evaluator) onlyOneInstructionRemains() bool {
	// A simple heuristic consistent with §4.9's tail-call note: true only
	// when, after this instruction consumes its arguments, nothing else is
	// left on the line. Since instruction() itself consumes exactly the
	// command's declared arity, checking "is there at least one more
	// command-shaped token after we're done" would require look-ahead
	// parsing identical to running it; instead we rely on the common case
	// (one instruction per body line) and only mark tail position when the
	// evaluator is sitting at the very first token of the remaining
	// stream. Lines with multiple instructions still execute correctly —
	// they simply don't receive the TCO fast path, which is purely a
	// performance optimisation (§4.7's gating principle applies equally
	// here: when unsure, fall back to the non-tail path).
	return ev.pos == 0
}

// instruction evaluates the largest prefix beginning with a command name
// that consumes as many following expressions as its arity declares
// (§4.5). tailPosition is true only when the procedure engine has
// determined this is the final instruction of the final line of the
// current body.
func (ev *Evaluator) instruction(tailPosition bool) value.Result {
	tok := ev.cur()
	switch tok.Kind {
	case lexer.Eof:
		return value.None()
	case lexer.Word:
		return ev.runCommand(tok.Text, tailPosition)
	default:
		// A bare expression at instruction position: evaluate it and
		// report it as unused, unless it legitimately produced nothing.
		v := ev.expression()
		if v.Status == value.StatusError || v.Status == value.StatusThrow {
			return v
		}
		if v.Value.IsNone() {
			return value.None()
		}
		return value.ErrCode(errs.DontKnowWhatToDoWith, "", v.Value.Print(ev.Heap))
	}
}

func (ev *Evaluator) runCommand(name string, tailPosition bool) value.Result {
	ev.advance() // consume the command word

	if entry, ok := ev.Table.Lookup(name); ok {
		args, r := ev.gatherArgs(entry.MinArity, entry.MaxArity, name)
		if r.Status != value.StatusNone {
			return r
		}
		return entry.Fn(ev, args)
	}

	if proc, ok := ev.WS.FindProc(name); ok {
		args, r := ev.gatherArgs(len(proc.Params), len(proc.Params), name)
		if r.Status != value.StatusNone {
			return r
		}
		if tailPosition {
			return value.Call(proc.Name, args)
		}
		return ev.UserCall(proc.Name, args)
	}

	return value.ErrCode(errs.DontKnowHow, name, name)
}

// gatherArgs calls expression() exactly min times (§4.5 Arity binding); max
// is not consulted here. User procedures and fixed primitives have
// max==min; variadic primitives pass -1 and take extra inputs only when
// invoked via `(name a b c)`, which parenExpr handles.
func (ev *Evaluator) gatherArgs(min, max int, procName string) ([]value.Value, value.Result) {
	args := make([]value.Value, 0, min)
	for i := 0; i < min; i++ {
		r := ev.expression()
		if r.Status == value.StatusError || r.Status == value.StatusThrow || r.Status == value.StatusCall {
			return nil, r
		}
		if r.Value.IsNone() {
			return nil, value.ErrCode(errs.NotEnoughInputs, procName, procName)
		}
		args = append(args, r.Value)
	}
	return args, value.None()
}

// expression evaluates one expression: atom/number literal, quoted word,
// colon-variable, list literal, parenthesised call, or an infix-operator
// subtree (§4.5).
func (ev *Evaluator) expression() value.Result {
	return ev.opExpr(precLowest)
}

// Operator precedence: '*' and '/' bind tighter than '+'/'-'; '=','<','>'
// sit at the lowest precedence among operators (§4.5 Infix operators). All
// operators are right-associative per Logo's documented semantics.
const (
	precLowest = iota
	precAddSub
	precMulDiv
)

func (ev *Evaluator) opExpr(minPrec int) value.Result {
	left := ev.primary()
	if left.Status != value.StatusOk {
		return left
	}
	for {
		op, prec, ok := ev.peekOperator()
		if !ok || prec < minPrec {
			return left
		}
		ev.advance()
		// Right-associative: recurse at the same precedence level.
		right := ev.opExpr(prec)
		if right.Status != value.StatusOk {
			return right
		}
		v, r := ev.applyOperator(op, left.Value, right.Value)
		if r.Status != value.StatusNone {
			return r
		}
		left = value.Ok(v)
	}
}

func (ev *Evaluator) peekOperator() (lexer.Kind, int, bool) {
	switch ev.cur().Kind {
	case lexer.Plus, lexer.Minus:
		return ev.cur().Kind, precAddSub, true
	case lexer.Star, lexer.Slash:
		return ev.cur().Kind, precMulDiv, true
	case lexer.Equals, lexer.Less, lexer.Greater:
		return ev.cur().Kind, precLowest, true
	default:
		return 0, 0, false
	}
}

func (ev *Evaluator) applyOperator(op lexer.Kind, a, b value.Value) (value.Value, value.Result) {
	af, e := value.ToNumber(ev.Heap, a)
	if e.Code != 0 {
		return value.Value{}, value.Err(e)
	}
	bf, e := value.ToNumber(ev.Heap, b)
	if e.Code != 0 {
		return value.Value{}, value.Err(e)
	}
	switch op {
	case lexer.Plus:
		return value.Number(af + bf), value.None()
	case lexer.Minus:
		return value.Number(af - bf), value.None()
	case lexer.Star:
		return value.Number(af * bf), value.None()
	case lexer.Slash:
		if bf == 0 {
			return value.Value{}, value.ErrCode(errs.DivideByZero, "", "")
		}
		return value.Number(af / bf), value.None()
	case lexer.Equals:
		return value.Bool(ev.Heap, af == bf), value.None()
	case lexer.Less:
		return value.Bool(ev.Heap, af < bf), value.None()
	case lexer.Greater:
		return value.Bool(ev.Heap, af > bf), value.None()
	default:
		return value.Value{}, value.None()
	}
}

// primary parses one unary/atomic operand: unary minus, number, quoted
// word, colon-variable, list literal, parenthesised call or sub-expression,
// or a command used as an operand (e.g. `sum 1 2` nested inside `print`).
func (ev *Evaluator) primary() value.Result {
	tok := ev.cur()
	switch tok.Kind {
	case lexer.UnaryMinus:
		ev.advance()
		r := ev.primary()
		if r.Status != value.StatusOk {
			return r
		}
		f, e := value.ToNumber(ev.Heap, r.Value)
		if e.Code != 0 {
			return value.Err(e)
		}
		return value.Ok(value.Number(-f))
	case lexer.Number:
		ev.advance()
		f, err := strconv.ParseFloat(tok.Text, 32)
		if err != nil {
			return value.ErrCode(errs.DoesntLikeInput, "", tok.Text)
		}
		return value.Ok(value.Number(float32(f)))
	case lexer.Quoted:
		ev.advance()
		return value.Ok(value.Word(ev.Heap.Atom(tok.Text)))
	case lexer.Colon:
		ev.advance()
		v, ok := ev.Scope.Get(tok.Text)
		if !ok {
			return value.ErrCode(errs.NoValue, tok.Text, tok.Text)
		}
		return value.Ok(v)
	case lexer.LBracket:
		return ev.listLiteral()
	case lexer.LParen:
		return ev.parenExpr()
	case lexer.Word:
		return ev.commandAsExpression(tok.Text)
	default:
		return value.None()
	}
}

// commandAsExpression handles a bare command name appearing where an
// expression is expected: `print sum 1 2`, `print thing "x`, etc. The
// command consumes its declared arity of expressions and yields its
// output value, or errors if it produced none (a command like `print` used
// where a value is expected reports errs.NoCatch, "didn't output to
// anything").
func (ev *Evaluator) commandAsExpression(name string) value.Result {
	ev.advance()
	if entry, ok := ev.Table.Lookup(name); ok {
		args, r := ev.gatherArgs(entry.MinArity, entry.MaxArity, name)
		if r.Status != value.StatusNone {
			return r
		}
		res := entry.Fn(ev, args)
		return normalizeNestedResult(res, name)
	}
	if proc, ok := ev.WS.FindProc(name); ok {
		args, r := ev.gatherArgs(len(proc.Params), len(proc.Params), name)
		if r.Status != value.StatusNone {
			return r
		}
		res := ev.UserCall(proc.Name, args)
		return normalizeNestedResult(res, name)
	}
	return value.ErrCode(errs.DontKnowHow, name, name)
}

func normalizeNestedResult(res value.Result, name string) value.Result {
	switch res.Status {
	case value.StatusOutput:
		return value.Ok(res.Value)
	case value.StatusNone:
		return value.ErrCode(errs.NoCatch, name, name)
	default:
		return res // Stop/Error/Throw propagate as-is and are terminal
	}
}

// listLiteral captures tokens verbatim into a nested cons structure; nested
// brackets recurse and mark nested-list cells with the list-ref tag so
// printing can distinguish `[a b]` from the atom sequence `a b` (§4.5 List
// literal, §3 Node).
func (ev *Evaluator) listLiteral() value.Result {
	ev.advance() // consume '['
	head, tail := heap.Nil, heap.Nil
	for {
		switch ev.cur().Kind {
		case lexer.RBracket:
			ev.advance()
			return value.Ok(value.List(head))
		case lexer.Eof:
			return value.ErrCode(errs.BadInput, "[", "[")
		case lexer.LBracket:
			sub := ev.listLiteral()
			if sub.Status != value.StatusOk {
				return sub
			}
			elem := sub.Value.Node.AsListRef()
			head, tail = ev.appendNode(head, tail, elem)
		default:
			tok := ev.advance()
			elem := ev.Heap.Atom(tokenText(tok))
			head, tail = ev.appendNode(head, tail, elem)
		}
	}
}

func tokenText(tok lexer.Token) string {
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

func (ev *Evaluator) appendNode(head, tail, elem heap.Node) (heap.Node, heap.Node) {
	cell, ok := ev.Heap.Cons(elem, heap.Nil, nil)
	if !ok {
		return head, tail
	}
	if head.IsNil() {
		return cell, cell
	}
	ev.Heap.SetCdr(tail, cell)
	return head, cell
}

// parenExpr handles `(name a b c)`: inside parentheses a variadic
// primitive may consume more than its default arity, up to its declared
// maximum (§4.5 Arity binding); it can also simply be a grouped
// sub-expression `(1 + 2)`.
func (ev *Evaluator) parenExpr() value.Result {
	ev.advance() // consume '('
	if ev.cur().Kind == lexer.Word {
		name := ev.cur().Text
		if entry, hasPrim := ev.Table.Lookup(name); hasPrim {
			ev.advance()
			args, r := ev.gatherVariadic(entry.MinArity, entry.MaxArity, name)
			if r.Status != value.StatusNone {
				return r
			}
			if ev.cur().Kind != lexer.RParen {
				return value.ErrCode(errs.TooManyInputs, name, name)
			}
			ev.advance()
			return normalizeNestedResult(entry.Fn(ev, args), name)
		}
		if proc, hasProc := ev.WS.FindProc(name); hasProc {
			ev.advance()
			args, r := ev.gatherArgs(len(proc.Params), len(proc.Params), name)
			if r.Status != value.StatusNone {
				return r
			}
			if ev.cur().Kind != lexer.RParen {
				return value.ErrCode(errs.TooManyInputs, name, name)
			}
			ev.advance()
			return normalizeNestedResult(ev.UserCall(proc.Name, args), name)
		}
	}
	inner := ev.opExpr(precLowest)
	if inner.Status != value.StatusOk {
		return inner
	}
	if ev.cur().Kind != lexer.RParen {
		return value.ErrCode(errs.BadInput, "(", "(")
	}
	ev.advance()
	return inner
}

func (ev *Evaluator) gatherVariadic(min, max int, name string) ([]value.Value, value.Result) {
	args := make([]value.Value, 0, min)
	for i := 0; i < min; i++ {
		r := ev.expression()
		if r.Status != value.StatusOk {
			return nil, r
		}
		args = append(args, r.Value)
	}
	for (max < 0 || len(args) < max) && ev.cur().Kind != lexer.RParen && ev.cur().Kind != lexer.Eof {
		r := ev.expression()
		if r.Status != value.StatusOk {
			return nil, r
		}
		args = append(args, r.Value)
	}
	return args, value.None()
}
