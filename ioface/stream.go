// Package ioface implements the I/O facade of §4 C9 / §6.1: swappable
// reader/writer streams, cooperative interrupt/pause/freeze flags, and a
// capacity-bounded open-stream table.
package ioface

import (
	"bufio"
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Interrupted is the sentinel a Stream read returns when the cooperative
// BRK flag was observed mid-read (§3 Result Interrupted, §6.1 Stream).
const Interrupted = -2

// EOF is the sentinel a Stream read returns at end of stream.
const EOF = -1

// Stream is the HAL contract every readable/writable endpoint implements
// (§6.1): console, open files, network sockets.
type Stream interface {
	ReadChar() int32
	ReadChars(buf []byte) int
	ReadLine(buf []byte) int
	CanRead() bool
	Write(s string)
	Flush()
	GetReadPos() int64
	SetReadPos(int64)
	GetWritePos() int64
	SetWritePos(int64)
	Length() int64
	Close() error
}

// fileStream adapts an *os.File to Stream, used both for real files and
// (via os.Stdin/os.Stdout) the default console.
type fileStream struct {
	f       *os.File
	br      *bufio.Reader
	closeMu sync.Mutex
}

func NewFileStream(f *os.File) Stream {
	return &fileStream{f: f, br: bufio.NewReader(f)}
}

func (s *fileStream) ReadChar() int32 {
	b, err := s.br.ReadByte()
	if err != nil {
		return EOF
	}
	return int32(b)
}

func (s *fileStream) ReadChars(buf []byte) int {
	n, err := io.ReadFull(s.br, buf)
	if n == 0 && err != nil {
		return EOF
	}
	return n
}

func (s *fileStream) ReadLine(buf []byte) int {
	line, err := s.br.ReadString('\n')
	if len(line) == 0 && err != nil {
		return EOF
	}
	n := copy(buf, line)
	return n
}

func (s *fileStream) CanRead() bool {
	_, err := s.br.Peek(1)
	return err == nil
}

func (s *fileStream) Write(str string)  { _, _ = s.f.WriteString(str) }
func (s *fileStream) Flush()            { _ = s.f.Sync() }
func (s *fileStream) GetReadPos() int64 { pos, _ := s.f.Seek(0, io.SeekCurrent); return pos }
func (s *fileStream) SetReadPos(p int64) {
	_, _ = s.f.Seek(p, io.SeekStart)
	s.br = bufio.NewReader(s.f)
}
func (s *fileStream) GetWritePos() int64  { pos, _ := s.f.Seek(0, io.SeekCurrent); return pos }
func (s *fileStream) SetWritePos(p int64) { _, _ = s.f.Seek(p, io.SeekStart) }
func (s *fileStream) Length() int64 {
	fi, err := s.f.Stat()
	if err != nil {
		return 0
	}
	return fi.Size()
}
func (s *fileStream) Close() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	return s.f.Close()
}

// fsFileStream adapts an fs.File (as returned by hal.Storage.Open) to
// Stream. fs.File only guarantees Read/Stat/Close; write and seek support
// depend on what the concrete file happens to implement, which is exactly
// the kind of capability a constrained Storage backend may be missing
// (§6.1 Storage) — missing ones are quiet no-ops/zero-reads rather than
// panics, mirroring fileStream's behavior on a real *os.File.
type fsFileStream struct {
	f       fs.File
	br      *bufio.Reader
	closeMu sync.Mutex
}

func NewFSFileStream(f fs.File) Stream {
	return &fsFileStream{f: f, br: bufio.NewReader(f)}
}

func (s *fsFileStream) ReadChar() int32 {
	b, err := s.br.ReadByte()
	if err != nil {
		return EOF
	}
	return int32(b)
}

func (s *fsFileStream) ReadChars(buf []byte) int {
	n, err := io.ReadFull(s.br, buf)
	if n == 0 && err != nil {
		return EOF
	}
	return n
}

func (s *fsFileStream) ReadLine(buf []byte) int {
	line, err := s.br.ReadString('\n')
	if len(line) == 0 && err != nil {
		return EOF
	}
	return copy(buf, line)
}

func (s *fsFileStream) CanRead() bool {
	_, err := s.br.Peek(1)
	return err == nil
}

func (s *fsFileStream) Write(str string) {
	if w, ok := s.f.(io.Writer); ok {
		_, _ = w.Write([]byte(str))
	}
}

func (s *fsFileStream) Flush() {
	if sy, ok := s.f.(interface{ Sync() error }); ok {
		_ = sy.Sync()
	}
}

func (s *fsFileStream) GetReadPos() int64 {
	sk, ok := s.f.(io.Seeker)
	if !ok {
		return 0
	}
	pos, _ := sk.Seek(0, io.SeekCurrent)
	return pos
}

func (s *fsFileStream) SetReadPos(p int64) {
	sk, ok := s.f.(io.Seeker)
	if !ok {
		return
	}
	_, _ = sk.Seek(p, io.SeekStart)
	s.br = bufio.NewReader(s.f)
}

func (s *fsFileStream) GetWritePos() int64 {
	sk, ok := s.f.(io.Seeker)
	if !ok {
		return 0
	}
	pos, _ := sk.Seek(0, io.SeekCurrent)
	return pos
}

func (s *fsFileStream) SetWritePos(p int64) {
	if sk, ok := s.f.(io.Seeker); ok {
		_, _ = sk.Seek(p, io.SeekStart)
	}
}

func (s *fsFileStream) Length() int64 {
	fi, err := s.f.Stat()
	if err != nil {
		return 0
	}
	return fi.Size()
}

func (s *fsFileStream) Close() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	return s.f.Close()
}

// Flag is a one-bit cooperative cancellation signal the host IRQ/input
// layer sets and the evaluator polls between instructions (§5).
type Flag struct{ v int32 }

func (f *Flag) Set()       { atomic.StoreInt32(&f.v, 1) }
func (f *Flag) Clear()     { atomic.StoreInt32(&f.v, 0) }
func (f *Flag) IsSet() bool { return atomic.LoadInt32(&f.v) != 0 }

// Flags bundles the three one-bit signals §5 names: user-interrupt (BRK),
// pause request, and freeze (display-only) request.
type Flags struct {
	Interrupt Flag
	Pause     Flag
	Freeze    Flag
}

// OpenStream is an entry in the open-stream table (§5 Shared resources).
type OpenStream struct {
	Handle string // opaque uuid, never a raw table index
	Name   string
	Stream Stream
}

// IO is the facade primitives use for reader/writer/dribble access and
// file-backed stream management. It owns a fixed-capacity open-stream
// table (default 6-8, §5), enforced with a weighted semaphore so `Open`
// blocks or fails instead of silently growing past the configured limit —
// this is the one place this port reaches for `golang.org/x/sync`, in the
// same spirit the teacher (github.com/breadchris/yaegi) uses it to bound
// concurrent/cancellable operations rather than letting them run
// unbounded.
type IO struct {
	mu      sync.Mutex
	reader  Stream
	writer  Stream
	dribble Stream

	sem     *semaphore.Weighted
	streams map[string]*OpenStream
	cap     int

	Flags   Flags
	Console *Console // platform capability gate for turtle/text-cursor/screen-mode commands; nil on a build with no such device

	log *slog.Logger // nil means no stream open/close diagnostics are emitted
}

// SetLogger attaches a logger for stream open/close diagnostics; a nil
// logger (the zero value) disables them.
func (fac *IO) SetLogger(log *slog.Logger) { fac.mu.Lock(); fac.log = log; fac.mu.Unlock() }

// DefaultCapacity matches §5's "default 6-8" open-stream table sizing.
const DefaultCapacity = 8

func New(reader, writer Stream, capacity int) *IO {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &IO{
		reader:  reader,
		writer:  writer,
		sem:     semaphore.NewWeighted(int64(capacity)),
		streams: make(map[string]*OpenStream),
		cap:     capacity,
	}
}

func (fac *IO) Reader() Stream { return fac.reader }
func (fac *IO) Writer() Stream { return fac.writer }

func (fac *IO) SetReader(s Stream) { fac.mu.Lock(); fac.reader = s; fac.mu.Unlock() }
func (fac *IO) SetWriter(s Stream) { fac.mu.Lock(); fac.writer = s; fac.mu.Unlock() }

// Dribble mirrors console writes to a file (§6.1 Console / glossary
// "Dribble").
func (fac *IO) Dribble() Stream { return fac.dribble }

func (fac *IO) SetDribble(s Stream) {
	fac.mu.Lock()
	defer fac.mu.Unlock()
	if fac.dribble != nil {
		_ = fac.dribble.Close()
	}
	fac.dribble = s
}

// Print writes to the console writer and, if set, the dribble stream.
func (fac *IO) Print(s string) {
	fac.mu.Lock()
	defer fac.mu.Unlock()
	if fac.writer != nil {
		fac.writer.Write(s)
	}
	if fac.dribble != nil {
		fac.dribble.Write(s)
	}
}

// Open registers a new stream under an opaque uuid handle, failing with
// false if the table is at capacity (errs.NoFileBuffers at the primitive
// layer). ctx allows a bounded wait (e.g. in a batch `load` that opens
// several files back to back); pass context.Background() for an immediate
// try.
func (fac *IO) Open(ctx context.Context, name string, s Stream) (string, bool) {
	if ctx.Done() == nil {
		if !fac.sem.TryAcquire(1) {
			return "", false
		}
	} else if err := fac.sem.Acquire(ctx, 1); err != nil {
		return "", false
	}
	handle := uuid.NewString()
	fac.mu.Lock()
	fac.streams[handle] = &OpenStream{Handle: handle, Name: name, Stream: s}
	log := fac.log
	fac.mu.Unlock()
	if log != nil {
		log.Debug("stream opened", "handle", handle, "name", name)
	}
	return handle, true
}

func (fac *IO) Lookup(handle string) (*OpenStream, bool) {
	fac.mu.Lock()
	defer fac.mu.Unlock()
	s, ok := fac.streams[handle]
	return s, ok
}

// Close releases handle's table slot and closes its underlying Stream.
func (fac *IO) Close(handle string) error {
	fac.mu.Lock()
	s, ok := fac.streams[handle]
	if ok {
		delete(fac.streams, handle)
	}
	log := fac.log
	fac.mu.Unlock()
	if !ok {
		return nil
	}
	fac.sem.Release(1)
	err := s.Stream.Close()
	if log != nil {
		log.Debug("stream closed", "handle", handle, "name", s.Name, "error", err)
	}
	return err
}

// CloseName closes the open stream registered under name, since the
// file-stream primitives (openread/openwrite/close) address streams by the
// filename they were opened with rather than by opaque handle. Reports
// whether a matching stream was found.
func (fac *IO) CloseName(name string) bool {
	fac.mu.Lock()
	var handle string
	for h, s := range fac.streams {
		if s.Name == name {
			handle = h
			break
		}
	}
	fac.mu.Unlock()
	if handle == "" {
		return false
	}
	_ = fac.Close(handle)
	return true
}

// CloseAll closes every open stream (`closeall` / interpreter reset, §5).
func (fac *IO) CloseAll() {
	fac.mu.Lock()
	handles := make([]string, 0, len(fac.streams))
	for h := range fac.streams {
		handles = append(handles, h)
	}
	fac.mu.Unlock()
	for _, h := range handles {
		_ = fac.Close(h)
	}
}

// Capacity returns the configured open-stream table size.
func (fac *IO) Capacity() int { return fac.cap }
