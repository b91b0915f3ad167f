package vm

import (
	"strconv"
	"strings"

	"github.com/loglang/logocore/errs"
	"github.com/loglang/logocore/eval"
	"github.com/loglang/logocore/heap"
	"github.com/loglang/logocore/lexer"
	"github.com/loglang/logocore/value"
)

// Operator precedence, mirrored from eval's opExpr so the VM's expression
// grammar stays in lockstep with the evaluator it is a fast path for.
const (
	precLowest = iota
	precAddSub
	precMulDiv
)

// Compile attempts to turn one already-lexed procedure-body line into
// Bytecode. ok is false whenever the line takes any shape the compiler
// does not model (a user-procedure call, `label`/`goto`, a list literal, a
// parenthesised call, or a variadic primitive use) — the caller must fall
// back to eval.RunInstrList in that case.
func Compile(h *heap.Heap, table *eval.Table, toks []lexer.Token) (*Bytecode, bool) {
	if !eligible(table, toks) {
		return nil, false
	}
	c := &compiler{h: h, table: table, toks: toks}
	if !c.compileStatement() || c.pos != len(c.toks) {
		return nil, false
	}
	return &Bytecode{Code: c.code, Consts: c.consts, Prims: c.prims, Names: c.names}, true
}

// eligible implements §4.7's gate: scanning the line must reveal no
// user-procedure call and no label/goto. List literals and parenthesised
// (variadic) calls are additionally excluded here, a conservative
// restriction this compiler adds on top of §4.7's minimum (see DESIGN.md).
func eligible(table *eval.Table, toks []lexer.Token) bool {
	if len(toks) == 0 || toks[0].Kind != lexer.Word {
		return false
	}
	for _, t := range toks {
		switch t.Kind {
		case lexer.LBracket, lexer.RBracket, lexer.LParen, lexer.RParen:
			return false
		case lexer.Word:
			low := strings.ToLower(t.Text)
			if low == "label" || low == "goto" {
				return false
			}
			if _, ok := table.Lookup(t.Text); !ok {
				return false
			}
		}
	}
	return true
}

type compiler struct {
	h     *heap.Heap
	table *eval.Table
	toks  []lexer.Token
	pos   int

	code   []Instruction
	consts []value.Value
	prims  []*eval.PrimEntry
	names  []string
}

func (c *compiler) cur() lexer.Token {
	if c.pos >= len(c.toks) {
		return lexer.Token{Kind: lexer.Eof}
	}
	return c.toks[c.pos]
}

func (c *compiler) advance() lexer.Token {
	t := c.cur()
	if c.pos < len(c.toks) {
		c.pos++
	}
	return t
}

func (c *compiler) emit(op Op, a, b uint16) { c.code = append(c.code, Instruction{Op: op, A: a, B: b}) }

func (c *compiler) addConst(v value.Value) uint16 {
	c.consts = append(c.consts, v)
	return uint16(len(c.consts) - 1)
}

func (c *compiler) addPrim(e *eval.PrimEntry, name string) uint16 {
	c.prims = append(c.prims, e)
	c.names = append(c.names, name)
	return uint16(len(c.prims) - 1)
}

// compileStatement compiles the line's single top-level instruction: a
// fixed-arity primitive name followed by exactly its declared number of
// expression arguments, with nothing left over (§4.5 one instruction per
// line); a body line holding more than one instruction is rejected.
func (c *compiler) compileStatement() bool {
	tok := c.cur()
	if tok.Kind != lexer.Word {
		return false
	}
	entry, ok := c.table.Lookup(tok.Text)
	if !ok || entry.MinArity != entry.MaxArity {
		return false
	}
	c.advance()
	for i := 0; i < entry.MinArity; i++ {
		if !c.compileExpr() {
			return false
		}
	}
	idx := c.addPrim(entry, tok.Text)
	c.emit(OpCallPrimStmt, idx, uint16(entry.MinArity))
	return true
}

func (c *compiler) compileExpr() bool { return c.compileOpExpr(precLowest) }

func (c *compiler) compileOpExpr(minPrec int) bool {
	if !c.compilePrimary() {
		return false
	}
	for {
		op, prec, ok := c.peekOperator()
		if !ok || prec < minPrec {
			return true
		}
		c.advance()
		if !c.compileOpExpr(prec) {
			return false
		}
		c.emit(opForToken(op), 0, 0)
	}
}

func (c *compiler) peekOperator() (lexer.Kind, int, bool) {
	switch c.cur().Kind {
	case lexer.Plus, lexer.Minus:
		return c.cur().Kind, precAddSub, true
	case lexer.Star, lexer.Slash:
		return c.cur().Kind, precMulDiv, true
	case lexer.Equals, lexer.Less, lexer.Greater:
		return c.cur().Kind, precLowest, true
	default:
		return 0, 0, false
	}
}

func opForToken(k lexer.Kind) Op {
	switch k {
	case lexer.Plus:
		return OpAdd
	case lexer.Minus:
		return OpSub
	case lexer.Star:
		return OpMul
	case lexer.Slash:
		return OpDiv
	case lexer.Equals:
		return OpEq
	case lexer.Less:
		return OpLt
	case lexer.Greater:
		return OpGt
	default:
		return OpAdd
	}
}

// compilePrimary compiles one operand: unary minus, number, quoted word,
// colon-variable, or a fixed-arity primitive used as a nested expression
// (e.g. `sum` inside `make "x sum 1 2`).
func (c *compiler) compilePrimary() bool {
	tok := c.cur()
	switch tok.Kind {
	case lexer.UnaryMinus:
		c.advance()
		if !c.compilePrimary() {
			return false
		}
		c.emit(OpNeg, 0, 0)
		return true
	case lexer.Number:
		c.advance()
		f, err := strconv.ParseFloat(tok.Text, 32)
		if err != nil {
			return false
		}
		idx := c.addConst(value.Number(float32(f)))
		c.emit(OpConst, idx, 0)
		return true
	case lexer.Quoted:
		c.advance()
		idx := c.addConst(value.Word(c.h.Atom(tok.Text)))
		c.emit(OpConst, idx, 0)
		return true
	case lexer.Colon:
		c.advance()
		idx := c.addConst(value.Word(c.h.Atom(tok.Text)))
		c.emit(OpLoadVar, idx, 0)
		return true
	case lexer.Word:
		entry, ok := c.table.Lookup(tok.Text)
		if !ok || entry.MinArity != entry.MaxArity {
			return false
		}
		name := tok.Text
		c.advance()
		for i := 0; i < entry.MinArity; i++ {
			if !c.compileExpr() {
				return false
			}
		}
		idx := c.addPrim(entry, name)
		c.emit(OpCallPrim, idx, uint16(entry.MinArity))
		return true
	default:
		return false
	}
}

// Run executes compiled Bytecode against a live Evaluator (for Scope/Heap
// access and primitive dispatch) and returns the final instruction's
// Result, exactly as eval.RunInstrList would have for the same line
// (§4.7: "omitting the VM must not change observable behaviour").
func Run(ev *eval.Evaluator, bc *Bytecode) value.Result {
	var stack []value.Value
	for _, instr := range bc.Code {
		switch instr.Op {
		case OpConst:
			stack = append(stack, bc.Consts[instr.A])
		case OpLoadVar:
			name := ev.Heap.WordPtr(bc.Consts[instr.A].Node)
			v, ok := ev.Scope.Get(name)
			if !ok {
				return value.ErrCode(errs.NoValue, name, name)
			}
			stack = append(stack, v)
		case OpNeg:
			v := pop(&stack)
			f, e := value.ToNumber(ev.Heap, v)
			if e.Code != errs.None {
				return value.Err(e)
			}
			stack = append(stack, value.Number(-f))
		case OpAdd, OpSub, OpMul, OpDiv, OpEq, OpLt, OpGt:
			b := pop(&stack)
			a := pop(&stack)
			af, e := value.ToNumber(ev.Heap, a)
			if e.Code != errs.None {
				return value.Err(e)
			}
			bf, e := value.ToNumber(ev.Heap, b)
			if e.Code != errs.None {
				return value.Err(e)
			}
			switch instr.Op {
			case OpAdd:
				stack = append(stack, value.Number(af+bf))
			case OpSub:
				stack = append(stack, value.Number(af-bf))
			case OpMul:
				stack = append(stack, value.Number(af*bf))
			case OpDiv:
				if bf == 0 {
					return value.ErrCode(errs.DivideByZero, "", "")
				}
				stack = append(stack, value.Number(af/bf))
			case OpEq:
				stack = append(stack, value.Bool(ev.Heap, af == bf))
			case OpLt:
				stack = append(stack, value.Bool(ev.Heap, af < bf))
			case OpGt:
				stack = append(stack, value.Bool(ev.Heap, af > bf))
			}
		case OpCallPrim:
			args := popN(&stack, int(instr.B))
			res := bc.Prims[instr.A].Fn(ev, args)
			switch res.Status {
			case value.StatusOutput, value.StatusOk:
				stack = append(stack, res.Value)
			case value.StatusNone:
				return value.ErrCode(errs.NoCatch, bc.Names[instr.A], bc.Names[instr.A])
			default:
				return res
			}
		case OpCallPrimStmt:
			args := popN(&stack, int(instr.B))
			return bc.Prims[instr.A].Fn(ev, args)
		}
	}
	return value.None()
}

func pop(stack *[]value.Value) value.Value {
	s := *stack
	v := s[len(s)-1]
	*stack = s[:len(s)-1]
	return v
}

// popN pops n values off the stack, returning them in the order they were
// pushed (left-to-right argument order).
func popN(stack *[]value.Value, n int) []value.Value {
	s := *stack
	args := make([]value.Value, n)
	copy(args, s[len(s)-n:])
	*stack = s[:len(s)-n]
	return args
}
