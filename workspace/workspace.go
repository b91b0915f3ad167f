// Package workspace implements the procedure table, global variable table,
// and property-list store of §3/§4.3.
package workspace

import (
	"strings"
	"sync"

	"github.com/loglang/logocore/errs"
	"github.com/loglang/logocore/heap"
	"github.com/loglang/logocore/value"
)

// Procedure is a user-defined `to ... end` body (§3 Procedure).
type Procedure struct {
	Name    string
	Params  []string  // at most 16, per §3
	Body    heap.Node // list of lines; each element is itself a list
	Buried  bool
	Stepped bool
	Traced  bool
}

// Variable is a global binding (§3 Variable). Locals live in frame bindings,
// not here.
type Variable struct {
	Name   string
	Value  value.Value
	Buried bool
}

// propEntry is one name/value pair of an entity's property list, order
// preserved for `plist` enumeration (§4.3).
type propEntry struct {
	Name  string
	Value value.Value
}

// MaxProcedures mirrors the reference implementation's fixed capacity
// (§4.3); this port grows a Go map instead of a fixed array, so it is
// enforced only when Capped is true (the microcontroller profile).
const MaxProcedures = 128

// Workspace holds everything a running interpreter's global state needs
// beyond the node heap itself: procedures, globals, and property lists, all
// looked up case-insensitively by name (§4.3).
type Workspace struct {
	mu sync.RWMutex

	procs   map[string]*Procedure // keyed lowercase
	procKey map[string]string     // lowercase -> first-seen casing

	globals map[string]*Variable
	varKey  map[string]string

	plists map[string][]propEntry // keyed lowercase entity name
	plKey  map[string]string

	capped bool
}

func New() *Workspace {
	return &Workspace{
		procs:   make(map[string]*Procedure),
		procKey: make(map[string]string),
		globals: make(map[string]*Variable),
		varKey:  make(map[string]string),
		plists:  make(map[string][]propEntry),
		plKey:   make(map[string]string),
	}
}

// NewCapped builds a Workspace that enforces MaxProcedures, matching the
// microcontroller profile's fixed procedure table (§4.3).
func NewCapped() *Workspace {
	w := New()
	w.capped = true
	return w
}

func lower(s string) string { return strings.ToLower(s) }

// --- Procedures ---------------------------------------------------------

// DefineProc installs or redefines a procedure in place (§3 Lifecycles).
func (w *Workspace) DefineProc(p *Procedure) errs.Error {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := lower(p.Name)
	if _, exists := w.procs[key]; !exists && w.capped && len(w.procs) >= MaxProcedures {
		return errs.Error{Code: errs.OutOfSpace, Proc: p.Name}
	}
	w.procs[key] = p
	w.procKey[key] = p.Name
	return errs.Error{}
}

// FindProc looks up a procedure case-insensitively.
func (w *Workspace) FindProc(name string) (*Procedure, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, ok := w.procs[lower(name)]
	return p, ok
}

func (w *Workspace) ExistsProc(name string) bool {
	_, ok := w.FindProc(name)
	return ok
}

// EraseProc removes a procedure unless buried protects it from blanket
// erasure elsewhere; EraseProc itself always erases by explicit name.
func (w *Workspace) EraseProc(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := lower(name)
	delete(w.procs, key)
	delete(w.procKey, key)
}

// EraseAll removes every unburied procedure and global (`erall`, §4.3).
func (w *Workspace) EraseAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for k, p := range w.procs {
		if !p.Buried {
			delete(w.procs, k)
			delete(w.procKey, k)
		}
	}
	for k, v := range w.globals {
		if !v.Buried {
			delete(w.globals, k)
			delete(w.varKey, k)
		}
	}
}

func (w *Workspace) BuryProc(name string, buried bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.procs[lower(name)]; ok {
		p.Buried = buried
	}
}

func (w *Workspace) SetTraced(name string, traced bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.procs[lower(name)]; ok {
		p.Traced = traced
	}
}

func (w *Workspace) SetStepped(name string, stepped bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.procs[lower(name)]; ok {
		p.Stepped = stepped
	}
}

// IterateProcs calls fn for every procedure; unburied-only when
// unburiedOnly is set (used by poall/pops/erall-style enumeration, §4.3).
func (w *Workspace) IterateProcs(unburiedOnly bool, fn func(*Procedure)) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, p := range w.procs {
		if unburiedOnly && p.Buried {
			continue
		}
		fn(p)
	}
}

// --- Variables (globals; dynamic scoping across frames lives in proc) --

// Make rebinds name if it is already a known global, or creates one if not
// (§4.3 Variable scoping: "make on an existing bound name rebinds in that
// scope; on an unbound name it creates a global"). Callers that found a
// matching local binding first should mutate the frame directly instead of
// calling this.
func (w *Workspace) Make(name string, v value.Value) {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := lower(name)
	if existing, ok := w.globals[key]; ok {
		existing.Value = v
		return
	}
	w.globals[key] = &Variable{Name: name, Value: v}
	w.varKey[key] = name
}

// GetGlobal looks up a global by name, case-insensitively.
func (w *Workspace) GetGlobal(name string) (value.Value, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	v, ok := w.globals[lower(name)]
	if !ok {
		return value.None(), false
	}
	return v.Value, true
}

func (w *Workspace) GlobalExists(name string) bool {
	_, ok := w.GetGlobal(name)
	return ok
}

func (w *Workspace) BuryVariable(name string, buried bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if v, ok := w.globals[lower(name)]; ok {
		v.Buried = buried
	}
}

func (w *Workspace) EraseGlobal(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := lower(name)
	delete(w.globals, key)
	delete(w.varKey, key)
}

func (w *Workspace) IterateGlobals(unburiedOnly bool, fn func(*Variable)) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, v := range w.globals {
		if unburiedOnly && v.Buried {
			continue
		}
		fn(v)
	}
}

// --- Property lists ------------------------------------------------------

// PProp stores v under entity/prop. Per §4.3, a numeric value is coerced to
// its printed atom before storage, so every property-list entry is either a
// word or a list — never a raw Number — matching Plist's doc comment below.
func (w *Workspace) PProp(h *heap.Heap, entity, prop string, v value.Value) {
	if v.IsNumber() {
		v = value.Word(h.Atom(v.Print(h)))
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	key := lower(entity)
	w.plKey[key] = entity
	list := w.plists[key]
	pk := lower(prop)
	for i := range list {
		if lower(list[i].Name) == pk {
			list[i].Value = v
			return
		}
	}
	w.plists[key] = append(list, propEntry{Name: prop, Value: v})
}

func (w *Workspace) GProp(entity, prop string) (value.Value, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	pk := lower(prop)
	for _, e := range w.plists[lower(entity)] {
		if lower(e.Name) == pk {
			return e.Value, true
		}
	}
	return value.None(), false
}

func (w *Workspace) RemProp(entity, prop string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := lower(entity)
	list := w.plists[key]
	pk := lower(prop)
	for i := range list {
		if lower(list[i].Name) == pk {
			w.plists[key] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Plist returns the entity's property list as alternating name/value
// entries, in first-set order. Numeric values are stored internally as
// atoms but the caller (the `plist` primitive) re-parses them back into
// numbers; `gprop` returns the stored atom form unchanged (§9 asymmetry).
func (w *Workspace) Plist(h *heap.Heap, entity string) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	list := w.plists[lower(entity)]
	out := make([]string, 0, len(list)*2)
	for _, e := range list {
		out = append(out, e.Name)
		out = append(out, e.Value.Print(h))
	}
	return out
}

// GCRoots contributes procedure bodies and property-list/global values to
// the node heap's mark phase (§4.1 step 2). Frame bindings and the
// evaluator's in-flight stacks are contributed separately by their owners.
func (w *Workspace) GCRoots() []heap.Node {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var roots []heap.Node
	for _, p := range w.procs {
		roots = append(roots, p.Body)
	}
	for _, v := range w.globals {
		if v.Value.IsList() || v.Value.IsWord() {
			roots = append(roots, v.Value.Node)
		}
	}
	for _, list := range w.plists {
		for _, e := range list {
			if e.Value.IsList() || e.Value.IsWord() {
				roots = append(roots, e.Value.Node)
			}
		}
	}
	return roots
}
