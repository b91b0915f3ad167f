// Package desktop is the reference Hardware HAL for desktop hosts (§6.1),
// grounded on github.com/shirou/gopsutil/v3's host package the way
// ProbeChain-go-probe pulls it in for process/host introspection.
package desktop

import (
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/loglang/logocore/ioface"
)

// Hardware implements hal.Hardware on top of the OS the process runs on.
// There is no cross-platform battery sensor in gopsutil, so BatteryLevel
// reports unavailable rather than guessing; ClockSet and PowerOff do
// nothing, and the remaining methods use the host OS.
type Hardware struct {
	rng *rand.Rand
}

func New() *Hardware {
	return &Hardware{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (h *Hardware) SleepMS(ms int) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

func (h *Hardware) Random() float32 { return h.rng.Float32() }

// BatteryLevel always reports unavailable: gopsutil/v3's host package has
// no cross-platform battery sensor to back this with (§6.1 "battery level"
// is a HAL capability a device may lack entirely, surfaced the same way a
// missing Console capability is).
func (h *Hardware) BatteryLevel() (percent int, ok bool) { return 0, false }

// ClockGet returns the current wall-clock time as Unix seconds.
func (h *Hardware) ClockGet() int64 { return time.Now().Unix() }

// Uptime reports seconds since boot, the monotonic reading a constrained
// device without a battery-backed RTC can fall back on when it has no
// better clock source.
func (h *Hardware) Uptime() (uint64, error) { return host.Uptime() }

func (h *Hardware) ClockSet(unixSeconds int64) {
	// Desktop hosts do not let an unprivileged process set the system
	// clock; ClockSet is a no-op here, left to platforms with real RTC
	// hardware.
}

func (h *Hardware) PowerOff() {}

// Storage implements hal.Storage directly against the host filesystem,
// the reference implementation a desktop build backs file-stream
// primitives with (§6.1 Storage).
type Storage struct{}

func NewStorage() Storage { return Storage{} }

func (Storage) Open(name string, flags int) (fs.File, error) {
	return os.OpenFile(name, flags, 0o644)
}

func (Storage) Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

func (Storage) IsDir(name string) bool {
	info, err := os.Stat(name)
	return err == nil && info.IsDir()
}

func (Storage) Delete(name string) error { return os.Remove(name) }

func (Storage) Mkdir(name string) error { return os.Mkdir(name, 0o755) }

func (Storage) Rename(oldName, newName string) error { return os.Rename(oldName, newName) }

func (Storage) Size(name string) (int64, error) {
	info, err := os.Stat(name)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (Storage) ListDir(dir, ext string, fn func(name string, isDir bool)) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if ext != "" && !e.IsDir() && filepath.Ext(e.Name()) != ext {
			continue
		}
		fn(e.Name(), e.IsDir())
	}
	return nil
}

// NewConsole builds the desktop console capability table: no turtle
// display, text-cursor control, or screen-mode switch backs a plain
// terminal, so every capability is left nil and gated commands report
// Error{UNSUPPORTED_ON_DEVICE} honestly rather than pretending to draw.
func NewConsole(in, out ioface.Stream) *ioface.Console {
	return &ioface.Console{In: in, Out: out}
}
