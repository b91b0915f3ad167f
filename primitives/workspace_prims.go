package primitives

import (
	"github.com/loglang/logocore/errs"
	"github.com/loglang/logocore/eval"
	"github.com/loglang/logocore/heap"
	"github.com/loglang/logocore/lexer"
	"github.com/loglang/logocore/value"
	"github.com/loglang/logocore/workspace"
)

// DefineFromLines installs name as a procedure whose body is the given
// already-lexed source lines. The `to`/`end` multi-line form is recognized
// by the REPL/loader driver before any of it reaches an eval.Table lookup
// (a definition spans several input lines, which is outside what a single
// PrimFunc call ever sees); this is the entry point that driver calls once
// it has collected a full `to ... end` block, and it is also what the
// `define` primitive below delegates to once its list-of-lists argument has
// been unpacked into the same shape.
func DefineFromLines(ev *eval.Evaluator, name string, params []string, lines [][]lexer.Token) errs.Error {
	body := workspace.EncodeBody(ev.Heap, lines)
	return ev.WS.DefineProc(&workspace.Procedure{Name: name, Params: params, Body: body})
}

// primDefine implements `define "name [[line1...] [line2...]]`: each
// top-level list element is one body line, itself a list of words.
func primDefine(ev *eval.Evaluator, args []value.Value) value.Result {
	name, r := asWordText(ev, "define", args[0])
	if r.Status != value.StatusNone {
		return r
	}
	if !args[1].IsList() {
		return value.ErrCode(errs.DoesntLikeInput, "define", args[1].Print(ev.Heap))
	}
	var lines [][]lexer.Token
	for cur := args[1].Node; !cur.IsNil(); cur = ev.Heap.Cdr(cur) {
		elem := ev.Heap.Car(cur)
		if !elem.IsListRef() {
			return value.ErrCode(errs.DoesntLikeInput, "define", "line")
		}
		lines = append(lines, workspace.DecodeLine(ev.Heap, elem.StripListRef()))
	}
	if e := DefineFromLines(ev, name, nil, lines); e.Code != errs.None {
		return value.Err(e)
	}
	return value.None()
}

// primText implements `text "name`, the inverse of define: a list of lines,
// each a list of words, reconstructed from the stored body.
func primText(ev *eval.Evaluator, args []value.Value) value.Result {
	name, r := asWordText(ev, "text", args[0])
	if r.Status != value.StatusNone {
		return r
	}
	proc, ok := ev.WS.FindProc(name)
	if !ok {
		return value.ErrCode(errs.DontKnowHow, "text", name)
	}
	var elems []heap.Node
	for cur := proc.Body; !cur.IsNil(); cur = ev.Heap.Cdr(cur) {
		elems = append(elems, ev.Heap.Car(cur))
	}
	head, ok := buildList(ev, elems)
	if !ok {
		return value.ErrCode(errs.OutOfSpace, "text", "")
	}
	return value.Ok(value.List(head))
}

func primErase(ev *eval.Evaluator, args []value.Value) value.Result {
	name, r := asWordText(ev, "erase", args[0])
	if r.Status != value.StatusNone {
		return r
	}
	ev.WS.EraseProc(name)
	return value.None()
}

func primBury(ev *eval.Evaluator, args []value.Value) value.Result {
	name, r := asWordText(ev, "bury", args[0])
	if r.Status != value.StatusNone {
		return r
	}
	ev.WS.BuryProc(name, true)
	return value.None()
}

func primUnbury(ev *eval.Evaluator, args []value.Value) value.Result {
	name, r := asWordText(ev, "unbury", args[0])
	if r.Status != value.StatusNone {
		return r
	}
	ev.WS.BuryProc(name, false)
	return value.None()
}

func primTrace(ev *eval.Evaluator, args []value.Value) value.Result {
	name, r := asWordText(ev, "trace", args[0])
	if r.Status != value.StatusNone {
		return r
	}
	ev.WS.SetTraced(name, true)
	return value.None()
}

func primUntrace(ev *eval.Evaluator, args []value.Value) value.Result {
	name, r := asWordText(ev, "untrace", args[0])
	if r.Status != value.StatusNone {
		return r
	}
	ev.WS.SetTraced(name, false)
	return value.None()
}

func primStep(ev *eval.Evaluator, args []value.Value) value.Result {
	name, r := asWordText(ev, "step", args[0])
	if r.Status != value.StatusNone {
		return r
	}
	ev.WS.SetStepped(name, true)
	return value.None()
}

// primPo prints one procedure's definition in `to ... end` source form.
func primPo(ev *eval.Evaluator, args []value.Value) value.Result {
	name, r := asWordText(ev, "po", args[0])
	if r.Status != value.StatusNone {
		return r
	}
	proc, ok := ev.WS.FindProc(name)
	if !ok {
		return value.ErrCode(errs.DontKnowHow, "po", name)
	}
	printProc(ev, proc)
	return value.None()
}

// primPot prints only a procedure's title line (name and parameters),
// without its body -- the "table of contents" form of po.
func primPot(ev *eval.Evaluator, args []value.Value) value.Result {
	name, r := asWordText(ev, "pot", args[0])
	if r.Status != value.StatusNone {
		return r
	}
	proc, ok := ev.WS.FindProc(name)
	if !ok {
		return value.ErrCode(errs.DontKnowHow, "pot", name)
	}
	header := "to " + proc.Name
	for _, p := range proc.Params {
		header += " :" + p
	}
	ev.IO.Print(header + "\n")
	return value.None()
}

func primPoall(ev *eval.Evaluator, args []value.Value) value.Result {
	ev.WS.IterateProcs(true, func(p *workspace.Procedure) { printProc(ev, p) })
	return value.None()
}

func printProc(ev *eval.Evaluator, proc *workspace.Procedure) {
	header := "to " + proc.Name
	for _, p := range proc.Params {
		header += " :" + p
	}
	ev.IO.Print(header + "\n")
	for cur := proc.Body; !cur.IsNil(); cur = ev.Heap.Cdr(cur) {
		elem := ev.Heap.Car(cur)
		lineHead := elem
		if elem.IsListRef() {
			lineHead = elem.StripListRef()
		}
		toks := workspace.DecodeLine(ev.Heap, lineHead)
		ev.IO.Print(renderLine(toks) + "\n")
	}
	ev.IO.Print("end\n")
}

func renderLine(toks []lexer.Token) string {
	out := ""
	for i, t := range toks {
		if i > 0 {
			out += " "
		}
		out += readlistToken(t)
	}
	return out
}

// primDump prints the full internal state of the workspace (procedures,
// globals, property lists) for debugging, not part of any Logo dialect's
// standard vocabulary.
func primDump(ev *eval.Evaluator, args []value.Value) value.Result {
	ev.IO.Print(ev.WS.Dump())
	return value.None()
}

func installWorkspacePrims(tbl *eval.Table) {
	tbl.Register("define", &eval.PrimEntry{MinArity: 2, MaxArity: 2, Fn: primDefine})
	tbl.Register("text", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primText})
	tbl.Register("erase", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primErase})
	tbl.Alias("er", "erase")
	tbl.Register("bury", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primBury})
	tbl.Register("unbury", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primUnbury})
	tbl.Register("trace", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primTrace})
	tbl.Register("untrace", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primUntrace})
	tbl.Register("step", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primStep})
	tbl.Register("po", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primPo})
	tbl.Register("pot", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primPot})
	tbl.Register("poall", &eval.PrimEntry{MinArity: 0, MaxArity: 0, Fn: primPoall})
	tbl.Register("dump", &eval.PrimEntry{MinArity: 0, MaxArity: 0, Fn: primDump})
}
