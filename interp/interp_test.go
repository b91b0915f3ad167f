package interp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/loglang/logocore/config"
	"github.com/loglang/logocore/ioface"
	"github.com/loglang/logocore/value"
)

// memStream is a minimal ioface.Stream over an in-memory buffer, enough to
// drive print output through an Interpreter without touching a real file.
type memStream struct{ buf bytes.Buffer }

func (m *memStream) ReadChar() int32        { return ioface.EOF }
func (m *memStream) ReadChars([]byte) int   { return ioface.EOF }
func (m *memStream) ReadLine([]byte) int    { return ioface.EOF }
func (m *memStream) CanRead() bool          { return false }
func (m *memStream) Write(s string)         { m.buf.WriteString(s) }
func (m *memStream) Flush()                 {}
func (m *memStream) GetReadPos() int64      { return 0 }
func (m *memStream) SetReadPos(int64)       {}
func (m *memStream) GetWritePos() int64     { return int64(m.buf.Len()) }
func (m *memStream) SetWritePos(int64)      {}
func (m *memStream) Length() int64          { return int64(m.buf.Len()) }
func (m *memStream) Close() error           { return nil }

func newTestInterp(cfg config.Config) (*Interpreter, *memStream) {
	out := &memStream{}
	in := New(Options{Config: cfg, Reader: &memStream{}, Writer: out})
	return in, out
}

// fakeHW is a deterministic hal.Hardware for tests: SleepMS just records the
// requested duration instead of actually sleeping, and Random returns a
// fixed value instead of drawing from an RNG.
type fakeHW struct {
	slept   []int
	random  float32
}

func (h *fakeHW) SleepMS(ms int)                       { h.slept = append(h.slept, ms) }
func (h *fakeHW) Random() float32                      { return h.random }
func (h *fakeHW) BatteryLevel() (percent int, ok bool) { return 0, false }
func (h *fakeHW) ClockGet() int64                      { return 0 }
func (h *fakeHW) ClockSet(int64)                       {}
func (h *fakeHW) PowerOff()                            {}

func TestDefineAndRunSimpleProcedure(t *testing.T) {
	in, out := newTestInterp(config.Default())

	for _, line := range []string{"to greet", "print \"hello", "end"} {
		if r := in.RunLine(line); r.Status == value.StatusError {
			t.Fatalf("unexpected error defining greet: %s", r.Err.Format())
		}
	}
	if r := in.RunLine("greet"); r.Status == value.StatusError {
		t.Fatalf("unexpected error running greet: %s", r.Err.Format())
	}
	if got := out.buf.String(); !strings.Contains(got, "hello") {
		t.Fatalf("expected output to contain %q, got %q", "hello", got)
	}
}

// TestSelfRecursiveTailCallReusesFrame defines a procedure that counts down
// to zero entirely through self-recursive tail calls, under an arena so
// small that anything but true O(1) frame reuse would exhaust it.
func TestSelfRecursiveTailCallReusesFrame(t *testing.T) {
	cfg := config.Default()
	cfg.ArenaWords = 4 // room for at most four single-binding frames
	in, _ := newTestInterp(cfg)

	for _, line := range []string{
		"to countdown :n",
		"if equalp :n 0 [stop]",
		"countdown difference :n 1",
		"end",
	} {
		if r := in.RunLine(line); r.Status == value.StatusError {
			t.Fatalf("unexpected error defining countdown: %s", r.Err.Format())
		}
	}

	r := in.RunLine("countdown 100000")
	if r.Status == value.StatusError {
		t.Fatalf("expected deep self-recursive tail call to succeed under a tiny arena, got error: %s", r.Err.Format())
	}
}

func TestCatchThrow(t *testing.T) {
	in, out := newTestInterp(config.Default())
	for _, line := range []string{
		"to risky",
		"throw \"oops",
		"print \"unreachable",
		"end",
	} {
		if r := in.RunLine(line); r.Status == value.StatusError {
			t.Fatalf("unexpected error defining risky: %s", r.Err.Format())
		}
	}
	r := in.RunLine("catch \"oops [risky]")
	if r.Status == value.StatusError {
		t.Fatalf("unexpected error from catch: %s", r.Err.Format())
	}
	if strings.Contains(out.buf.String(), "unreachable") {
		t.Fatalf("expected the line after throw to never run")
	}
}

// TestTurtleCommandsReportUnsupportedOnDevice exercises the capability
// gate (ioface.Console.HasTurtle) on a build with no turtle display: a
// desktop Interpreter leaves Options.Console nil, so `forward` must fail
// honestly instead of silently doing nothing.
func TestTurtleCommandsReportUnsupportedOnDevice(t *testing.T) {
	in, _ := newTestInterp(config.Default())
	r := in.RunLine("forward 50")
	if r.Status != value.StatusError {
		t.Fatalf("expected forward to report an error with no turtle console, got status %v", r.Status)
	}
}

// TestWaitCallsHardwareSleep exercises §6.1's `wait` primitive against a
// fake Hardware, confirming the duration actually reaches SleepMS instead of
// being silently dropped as the host-layer no-op it used to be.
func TestWaitCallsHardwareSleep(t *testing.T) {
	hw := &fakeHW{}
	in := New(Options{Config: config.Default(), Reader: &memStream{}, Writer: &memStream{}, HW: hw})
	if r := in.RunLine("wait 30"); r.Status == value.StatusError {
		t.Fatalf("unexpected error from wait: %s", r.Err.Format())
	}
	if len(hw.slept) != 1 || hw.slept[0] != 30 {
		t.Fatalf("expected SleepMS(30) to be recorded once, got %v", hw.slept)
	}
}

// TestWaitWithNoHardwareIsANoOp confirms a build with no Hardware attached
// leaves `wait` harmless rather than panicking on a nil HW.
func TestWaitWithNoHardwareIsANoOp(t *testing.T) {
	in, _ := newTestInterp(config.Default())
	if r := in.RunLine("wait 10"); r.Status == value.StatusError {
		t.Fatalf("unexpected error from wait with no Hardware: %s", r.Err.Format())
	}
}

func TestRandomReportsHardwareValueOrDeviceUnavailable(t *testing.T) {
	hw := &fakeHW{random: 0.5}
	in := New(Options{Config: config.Default(), Reader: &memStream{}, Writer: &memStream{}, HW: hw})
	out := &memStream{}
	in.IO.SetWriter(out)
	if r := in.RunLine("print random"); r.Status == value.StatusError {
		t.Fatalf("unexpected error from random: %s", r.Err.Format())
	}
	if !strings.Contains(out.buf.String(), "0.5") {
		t.Fatalf("expected random to report the Hardware's fixed value, got %q", out.buf.String())
	}

	in2, _ := newTestInterp(config.Default())
	if r := in2.RunLine("print random"); r.Status != value.StatusError {
		t.Fatalf("expected random with no Hardware to report an error, got status %v", r.Status)
	}
}

// TestLoadFileRunsStartupVariable confirms LoadFile runs a `startup` global
// the loaded file set, the way the `run` primitive runs any other list.
func TestLoadFileRunsStartupVariable(t *testing.T) {
	in, _ := newTestInterp(config.Default())
	for _, line := range []string{
		"to greet",
		"print \"hello",
		"end",
		"make \"startup [greet]",
	} {
		if r := in.RunLine(line); r.Status == value.StatusError {
			t.Fatalf("unexpected error: %s", r.Err.Format())
		}
	}

	var saved bytes.Buffer
	if err := in.SaveFile(&saved); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	in2, out2 := newTestInterp(config.Default())
	if err := in2.LoadFile(bytes.NewReader(saved.Bytes())); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got := out2.buf.String(); !strings.Contains(got, "hello") {
		t.Fatalf("expected loading a file that sets startup to run it, got output %q", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	in, _ := newTestInterp(config.Default())
	for _, line := range []string{
		"to square :n",
		"output product :n :n",
		"end",
		"make \"greeting \"hi",
	} {
		if r := in.RunLine(line); r.Status == value.StatusError {
			t.Fatalf("unexpected error: %s", r.Err.Format())
		}
	}

	var saved bytes.Buffer
	if err := in.SaveFile(&saved); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	in2, out2 := newTestInterp(config.Default())
	if err := in2.LoadFile(bytes.NewReader(saved.Bytes())); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if r := in2.RunLine("print square 6"); r.Status == value.StatusError {
		t.Fatalf("unexpected error calling loaded procedure: %s", r.Err.Format())
	}
	if got := out2.buf.String(); !strings.Contains(got, "36") {
		t.Fatalf("expected reloaded square to compute 36, got %q", got)
	}
}
