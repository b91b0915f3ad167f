// Package vm implements the optional bytecode fast path of §4.7: a
// conservative compiler for a single procedure-body line, and a small
// stack-machine executor. A line is eligible only when it contains no
// user-procedure call, no `label`/`goto`, no list literal, and no
// parenthesised (variadic) call — anything else falls back to the plain
// evaluator, which always remains correct; the VM is a pure optimisation,
// never a second source of truth for behaviour.
package vm

import (
	"github.com/loglang/logocore/eval"
	"github.com/loglang/logocore/value"
)

// Op identifies one bytecode instruction (§3 "Bytecode object (C8)").
type Op uint8

const (
	OpConst      Op = iota // push Consts[A]
	OpLoadVar              // push Scope.Get(name held in Consts[A])
	OpNeg                  // pop v, push -v
	OpAdd                  // pop b, a; push a+b
	OpSub                  // pop b, a; push a-b
	OpMul                  // pop b, a; push a*b
	OpDiv                  // pop b, a; push a/b
	OpEq                   // pop b, a; push a=b
	OpLt                   // pop b, a; push a<b
	OpGt                   // pop b, a; push a>b
	OpCallPrim             // pop B args, call Prims[A], push its output
	OpCallPrimStmt         // pop B args, call Prims[A], return its Result
)

// Instruction is one bytecode op plus its two operand indices (§3: `{op:
// u8, a: u16, b: u16}`).
type Instruction struct {
	Op Op
	A  uint16
	B  uint16
}

// Bytecode is one compiled procedure-body line: its instruction stream, the
// constant pool of literal Values referenced by OpConst/OpLoadVar, and the
// primitive entries referenced by OpCallPrim/OpCallPrimStmt (Names holds the
// matching primitive name for error messages, since eval.PrimEntry itself
// carries no name).
type Bytecode struct {
	Code   []Instruction
	Consts []value.Value
	Prims  []*eval.PrimEntry
	Names  []string
}
