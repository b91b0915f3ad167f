package interp

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/peterh/liner"

	"github.com/loglang/logocore/value"
)

// REPL drives the interactive prompt (§6.2): peterh/liner supplies line
// editing and history, fatih/color + go-colorable colorize error reports
// (and no-op on a non-tty redirect). Modeled on the teacher's
// REPL — a scanner/prompt goroutine feeding a lines channel, a second
// goroutine trapping Ctrl-C and setting the cooperative interrupt flag
// instead of killing the process outright.
func (in *Interpreter) REPL(historyFile string) error {
	out := colorable.NewColorableStdout()
	errOut := colorable.NewColorableStderr()

	term := liner.NewLiner()
	defer term.Close()
	term.SetCtrlCAborts(true)

	if f, err := os.Open(historyFile); err == nil {
		_, _ = term.ReadHistory(f)
		f.Close()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)

	lines := make(chan string)
	end := make(chan struct{})

	go func() {
		defer close(end)
		for {
			p := "? "
			if in.InDefinition() {
				p = "> "
			}
			text, err := term.Prompt(p)
			if err != nil {
				if err == liner.ErrPromptAborted {
					continue
				}
				return
			}
			term.AppendHistory(text)
			lines <- text
		}
	}()

	go func() {
		for {
			select {
			case <-sig:
				in.IO.Flags.Interrupt.Set()
			case <-end:
				return
			}
		}
	}()

	for {
		select {
		case <-end:
			return in.saveHistory(historyFile, term)
		case text := <-lines:
			if !in.InDefinition() && strings.EqualFold(strings.TrimSpace(text), "bye") {
				if in.HW != nil {
					in.HW.PowerOff()
				}
				return in.saveHistory(historyFile, term)
			}
			in.IO.Flags.Interrupt.Clear()
			in.report(out, errOut, in.RunLine(text))
		}
	}
}

func (in *Interpreter) saveHistory(path string, term *liner.State) error {
	f, err := os.Create(path)
	if err != nil {
		return nil // history is a convenience, not worth failing the REPL over
	}
	defer f.Close()
	_, err = term.WriteHistory(f)
	return err
}

// report prints a line result's visible consequence, if any: an error in
// red, an uncaught throw, or an interrupt notice. Ok/None/Stop/Output at
// top level have nothing further to show (§4.8: Stop/Output reaching the
// REPL simply mean "the top-level line is done").
func (in *Interpreter) report(out, errOut io.Writer, r value.Result) {
	switch r.Status {
	case value.StatusNone, value.StatusOk, value.StatusStop, value.StatusOutput:
	case value.StatusError:
		color.New(color.FgRed).Fprintln(errOut, r.Err.Format())
		in.Log.Error("repl error", "code", r.Err.Code, "proc", r.Err.Proc, "arg", r.Err.Arg)
	case value.StatusThrow:
		tag := r.Throw.Tag
		fmt.Fprintf(errOut, "%s not caught\n", tag)
		in.Log.Error("repl uncaught throw", "tag", tag)
	case value.StatusInterrupted:
		fmt.Fprintln(errOut, "Stopping...")
	case value.StatusEof:
		fmt.Fprintln(out, "")
	}
}
