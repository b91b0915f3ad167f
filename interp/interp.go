// Package interp wires the heap, workspace, I/O facade, primitive table,
// and procedure engine into one top-level driver: the `to`/`end`
// multi-line definition capture, saved-workspace load/save, and (in
// repl.go) the interactive prompt.
package interp

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/loglang/logocore/config"
	"github.com/loglang/logocore/errs"
	"github.com/loglang/logocore/eval"
	"github.com/loglang/logocore/heap"
	"github.com/loglang/logocore/hal"
	"github.com/loglang/logocore/ioface"
	"github.com/loglang/logocore/lexer"
	"github.com/loglang/logocore/primitives"
	"github.com/loglang/logocore/proc"
	"github.com/loglang/logocore/value"
	"github.com/loglang/logocore/workspace"
)

// Options configures a fresh Interpreter. A nil Logger defaults to
// slog.Default(); a zero Config defaults to the unbounded desktop profile.
type Options struct {
	Config  config.Config
	Reader  ioface.Stream
	Writer  ioface.Stream
	Console *ioface.Console // capability gate for turtle/text-cursor/screen-mode commands; nil means none of them are backed
	Logger  *slog.Logger
	HW      hal.Hardware
	Storage hal.Storage
}

// defBuffer accumulates a `to name :p1 :p2 ... / body lines / end` block
// across successive RunLine calls, since a definition spans several input
// lines and no single PrimFunc ever sees more than one.
type defBuffer struct {
	name   string
	params []string
	lines  [][]lexer.Token
}

// Interpreter owns the whole evaluation stack for one running program.
type Interpreter struct {
	Heap   *heap.Heap
	WS     *workspace.Workspace
	IO     *ioface.IO
	Table  *eval.Table
	Engine *proc.Engine
	HW     hal.Hardware
	Log    *slog.Logger

	defining *defBuffer
}

// New builds an Interpreter from Options, installing the full primitive set
// and wiring the procedure engine's Scope/Flags back into the evaluator
// (proc.NewEngine does the actual wiring; this just supplies the pieces).
func New(opts Options) *Interpreter {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	ws := workspace.New()
	if opts.Config.Capped {
		ws = workspace.NewCapped()
	}
	h := heap.New(opts.Config.NodeCapacity)
	h.SetLogger(log)
	io := ioface.New(opts.Reader, opts.Writer, opts.Config.StreamCapacity)
	io.Console = opts.Console
	io.SetLogger(log)
	table := eval.NewTable()
	primitives.Install(table)
	engine := proc.NewEngine(h, ws, io, table, opts.Config.ArenaWords)
	engine.Ev.HW = opts.HW
	engine.Ev.Storage = opts.Storage

	return &Interpreter{
		Heap:   h,
		WS:     ws,
		IO:     io,
		Table:  table,
		Engine: engine,
		HW:     opts.HW,
		Log:    log,
	}
}

// InDefinition reports whether a `to` block is currently being captured,
// the signal a REPL uses to switch its prompt (§6.2 "..." continuation).
func (in *Interpreter) InDefinition() bool { return in.defining != nil }

// RunLine feeds one line of source to the interpreter: either it extends or
// closes an in-progress `to`/`end` capture, opens a new one, or — the
// common case — runs as a single top-level instruction line.
func (in *Interpreter) RunLine(line string) value.Result {
	if strings.TrimSpace(line) == "" {
		return value.None()
	}
	toks := lexLine(line)
	if len(toks) == 0 {
		return value.None()
	}

	if in.defining != nil {
		if isWord(toks[0], "end") {
			def := in.defining
			in.defining = nil
			err := primitives.DefineFromLines(in.Engine.Ev, def.name, def.params, def.lines)
			if err.Code != errs.None {
				return value.Err(err)
			}
			return value.None()
		}
		in.defining.lines = append(in.defining.lines, toks)
		return value.None()
	}

	if isWord(toks[0], "to") {
		if len(toks) < 2 {
			return value.ErrCode(errs.NotEnoughInputs, "to", "to")
		}
		name := toks[1].Text
		var params []string
		for _, t := range toks[2:] {
			if t.Kind == lexer.Colon {
				params = append(params, t.Text)
			}
		}
		in.defining = &defBuffer{name: name, params: params}
		return value.None()
	}

	// Top level has no frame to reuse, so no call is deferred as a tail call.
	return in.Engine.Ev.RunList(toks, false)
}

// RunSource runs every non-blank line of src through RunLine in order,
// stopping at the first terminal, non-Stop/Output result (an uncaught
// Error/Throw/Eof/Interrupted) so a batch `logo run file` halts the way a
// program that errors at the REPL does. Stop/Output reaching here (no
// enclosing procedure to consume them) are folded back to None, matching
// top-level `stop`/`output` having nowhere to return to.
func (in *Interpreter) RunSource(src string) value.Result {
	var last value.Result
	for _, line := range strings.Split(src, "\n") {
		r := in.RunLine(line)
		switch r.Status {
		case value.StatusStop, value.StatusOutput:
			last = value.None()
		case value.StatusError, value.StatusThrow, value.StatusEof, value.StatusInterrupted:
			return r
		default:
			last = r
		}
	}
	return last
}

// SaveFile writes the current workspace to w in the §6.3 text format.
func (in *Interpreter) SaveFile(w io.Writer) error {
	return workspace.Save(w, in.Heap, in.WS)
}

// LoadFile reads lines previously produced by SaveFile (or hand-written
// source) and replays each one through RunLine, exactly as if it had been
// typed at the prompt. The first line that produces an uncaught error halts
// the load and is returned. Per §6.3, once the replay finishes cleanly, a
// `startup` global the loaded file set is run as if by `run`.
func (in *Interpreter) LoadFile(r io.Reader) error {
	lines, err := workspace.Load(r)
	if err != nil {
		return err
	}
	for _, line := range lines {
		res := in.RunLine(line)
		if res.Status == value.StatusError {
			return fmt.Errorf("%s", res.Err.Format())
		}
	}
	return in.runStartup()
}

// runStartup runs the `startup` global (if the file just loaded set one) the
// same way the `run` primitive runs a list: decode its tokens and evaluate
// them as top-level instructions.
func (in *Interpreter) runStartup() error {
	v, ok := in.Engine.Ev.WS.GetGlobal("startup")
	if !ok || !v.IsList() {
		return nil
	}
	toks := workspace.DecodeLine(in.Heap, v.Node)
	res := in.Engine.Ev.RunList(toks, false)
	if res.Status == value.StatusError {
		return fmt.Errorf("%s", res.Err.Format())
	}
	return nil
}

func lexLine(line string) []lexer.Token {
	lx := lexer.New(line)
	var toks []lexer.Token
	for {
		tok := lx.Next()
		if tok.Kind == lexer.Eof {
			break
		}
		toks = append(toks, tok)
	}
	return toks
}

func isWord(tok lexer.Token, word string) bool {
	return tok.Kind == lexer.Word && strings.EqualFold(tok.Text, word)
}
