package workspace

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/loglang/logocore/heap"
	"github.com/loglang/logocore/value"
)

// Save writes every unburied procedure, global, and property in the plain
// text format §6.3 documents: `to name :p1 :p2 …` / body lines / `end`,
// blank line, then `make "name value` lines, then `pprop "name "prop value`
// lines. List values print bracketed; numbers print minimal decimal (both
// via value.Value.Print, already used by po/show); strings print as quoted
// atoms here since this output must re-lex as instructions on Load.
func Save(w io.Writer, h *heap.Heap, ws *Workspace) error {
	bw := bufio.NewWriter(w)

	ws.IterateProcs(true, func(p *Procedure) {
		header := "to " + p.Name
		for _, param := range p.Params {
			header += " :" + param
		}
		fmt.Fprintln(bw, header)
		for cur := p.Body; !cur.IsNil(); cur = h.Cdr(cur) {
			elem := h.Car(cur)
			lineHead := elem
			if elem.IsListRef() {
				lineHead = elem.StripListRef()
			}
			fmt.Fprintln(bw, renderBodyLine(h, lineHead))
		}
		fmt.Fprintln(bw, "end")
		fmt.Fprintln(bw)
	})

	ws.IterateGlobals(true, func(v *Variable) {
		fmt.Fprintf(bw, "make \"%s %s\n", v.Name, quoteIfWord(h, v.Value))
	})

	ws.mu.RLock()
	for entity, list := range ws.plists {
		name := ws.plKey[entity]
		for _, e := range list {
			fmt.Fprintf(bw, "pprop \"%s \"%s %s\n", name, e.Name, quoteIfWord(h, e.Value))
		}
	}
	ws.mu.RUnlock()

	return bw.Flush()
}

func renderBodyLine(h *heap.Heap, line heap.Node) string {
	var parts []string
	for cur := line; !cur.IsNil(); cur = h.Cdr(cur) {
		elem := h.Car(cur)
		if elem.IsNewline() {
			continue
		}
		parts = append(parts, h.WordPtr(elem))
	}
	return strings.Join(parts, " ")
}

// Load splits a saved-workspace file into the instruction lines that
// produced it, blank lines dropped. It does not re-execute anything itself:
// workspace has no evaluator to drive, so the caller (interp.Interpreter,
// which owns one) feeds each line back through RunLine in order, exactly as
// if it had been typed at the prompt. This keeps workspace's dependency
// direction one-way (workspace never imports eval/proc).
func Load(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	var lines []string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, sc.Err()
}

// quoteIfWord reserializes a value the way source text expects it: a word
// with a leading quote, a list inside brackets, a number as bare minimal
// decimal (the surrounding `make`/`pprop` line quotes only the names).
func quoteIfWord(h *heap.Heap, v value.Value) string {
	switch {
	case v.IsWord():
		return "\"" + v.Print(h)
	case v.IsList():
		return "[" + v.Print(h) + "]"
	default:
		return v.Print(h)
	}
}
