package workspace

import "github.com/davecgh/go-spew/spew"

// Dump renders every procedure, global, and property list for debugging
// (behind the `dump` developer aid and tests), using go-spew instead of a
// hand-rolled printer so nested slices/maps show their full structure.
func (w *Workspace) Dump() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return spew.Sdump(w.procs, w.globals, w.plists)
}
