package primitives

import (
	"bytes"
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/loglang/logocore/eval"
	"github.com/loglang/logocore/heap"
	"github.com/loglang/logocore/ioface"
	"github.com/loglang/logocore/value"
	"github.com/loglang/logocore/workspace"
)

// fakeFile is a minimal in-memory fs.File, enough to drive openread/
// openwrite/close without touching the real filesystem.
type fakeFile struct {
	bytes.Reader
	closed bool
}

func (f *fakeFile) Stat() (fs.FileInfo, error) { return fakeFileInfo{size: int64(f.Reader.Len())}, nil }
func (f *fakeFile) Close() error                { f.closed = true; return nil }

type fakeFileInfo struct{ size int64 }

func (fakeFileInfo) Name() string       { return "fake" }
func (fi fakeFileInfo) Size() int64     { return fi.size }
func (fakeFileInfo) Mode() fs.FileMode  { return 0 }
func (fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (fakeFileInfo) IsDir() bool        { return false }
func (fakeFileInfo) Sys() any           { return nil }

// fakeStorage is a minimal in-memory hal.Storage backing openread/openwrite
// in tests without touching the real filesystem.
type fakeStorage struct {
	files map[string]string
	opens []string
}

func newFakeStorage() *fakeStorage { return &fakeStorage{files: map[string]string{}} }

func (s *fakeStorage) Open(name string, flags int) (fs.File, error) {
	s.opens = append(s.opens, name)
	if flags&os.O_WRONLY != 0 {
		return &fakeFile{Reader: *bytes.NewReader(nil)}, nil
	}
	content, ok := s.files[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return &fakeFile{Reader: *bytes.NewReader([]byte(content))}, nil
}

func (s *fakeStorage) Exists(name string) bool { _, ok := s.files[name]; return ok }
func (s *fakeStorage) IsDir(string) bool       { return false }
func (s *fakeStorage) Delete(name string) error { delete(s.files, name); return nil }
func (s *fakeStorage) Mkdir(string) error       { return nil }
func (s *fakeStorage) Rename(oldName, newName string) error {
	s.files[newName] = s.files[oldName]
	delete(s.files, oldName)
	return nil
}
func (s *fakeStorage) Size(name string) (int64, error) { return int64(len(s.files[name])), nil }
func (s *fakeStorage) ListDir(string, string, func(string, bool)) error { return nil }

func newTestEvaluatorWithStorage(t *testing.T, st *fakeStorage) *eval.Evaluator {
	t.Helper()
	h := heap.New(0)
	ws := workspace.New()
	tbl := eval.NewTable()
	Install(tbl)
	io := ioface.New(nil, nil, 2)
	ev := eval.New(h, ws, tbl, io)
	ev.Storage = st
	return ev
}

func TestOpenreadAndCloseRoundTrip(t *testing.T) {
	st := newFakeStorage()
	st.files["data.txt"] = "hello\n"
	ev := newTestEvaluatorWithStorage(t, st)

	r := primOpenread(ev, []value.Value{value.Word(ev.Heap.Atom("data.txt"))})
	if r.Status != value.StatusNone {
		t.Fatalf("unexpected status from openread: %v", r.Status)
	}
	if len(st.opens) != 1 || st.opens[0] != "data.txt" {
		t.Fatalf("expected Storage.Open to be called with \"data.txt\", got %v", st.opens)
	}

	r = primClose(ev, []value.Value{value.Word(ev.Heap.Atom("data.txt"))})
	if r.Status != value.StatusNone {
		t.Fatalf("unexpected status from close: %v", r.Status)
	}
}

func TestOpenreadMissingFileReportsError(t *testing.T) {
	st := newFakeStorage()
	ev := newTestEvaluatorWithStorage(t, st)

	r := primOpenread(ev, []value.Value{value.Word(ev.Heap.Atom("missing.txt"))})
	if r.Status != value.StatusError {
		t.Fatalf("expected opening a missing file to error, got status %v", r.Status)
	}
}

func TestOpenWithNoStorageReportsDeviceUnavailable(t *testing.T) {
	h := heap.New(0)
	ws := workspace.New()
	tbl := eval.NewTable()
	Install(tbl)
	ev := eval.New(h, ws, tbl, ioface.New(nil, nil, 2))

	r := primOpenread(ev, []value.Value{value.Word(h.Atom("data.txt"))})
	if r.Status != value.StatusError {
		t.Fatalf("expected openread with no Storage to error, got status %v", r.Status)
	}
}

func TestCloseallClosesEveryOpenStream(t *testing.T) {
	st := newFakeStorage()
	st.files["a.txt"] = "a"
	st.files["b.txt"] = "b"
	ev := newTestEvaluatorWithStorage(t, st)

	for _, name := range []string{"a.txt", "b.txt"} {
		if r := primOpenread(ev, []value.Value{value.Word(ev.Heap.Atom(name))}); r.Status != value.StatusNone {
			t.Fatalf("unexpected status opening %s: %v", name, r.Status)
		}
	}
	if r := primCloseall(ev, nil); r.Status != value.StatusNone {
		t.Fatalf("unexpected status from closeall: %v", r.Status)
	}
	// Reopening after closeall should succeed, proving the table was freed.
	if r := primOpenread(ev, []value.Value{value.Word(ev.Heap.Atom("a.txt"))}); r.Status != value.StatusNone {
		t.Fatalf("expected reopening after closeall to succeed, got status %v", r.Status)
	}
}
