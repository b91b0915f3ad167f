package workspace

import (
	"strings"
	"testing"

	"github.com/loglang/logocore/errs"
	"github.com/loglang/logocore/heap"
	"github.com/loglang/logocore/value"
)

func TestDumpContainsProcsGlobalsAndProps(t *testing.T) {
	h := heap.New(0)
	w := New()

	if e := w.DefineProc(&Procedure{Name: "square", Params: []string{"n"}}); e.Code != errs.None {
		t.Fatalf("unexpected error defining procedure: %v", e)
	}
	w.Make("greeting", value.Word(h.Atom("hi")))
	w.PProp(h, "turtle", "color", value.Word(h.Atom("red")))

	out := w.Dump()
	for _, want := range []string{"square", "greeting", "turtle"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected dump to mention %q, got:\n%s", want, out)
		}
	}
}
