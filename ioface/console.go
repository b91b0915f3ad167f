package ioface

// Capability tables are optional per-device feature sets a Console may or
// may not provide (§6.1: "Absence of a capability is signalled by a null
// table and surfaces to the user as Error{UNSUPPORTED_ON_DEVICE}"). The
// core only needs to know whether one is present; concrete turtle-graphics/
// text-cursor/screen-mode implementations are platform collaborators and
// out of scope (§1).
type Capability interface{ capabilityMarker() }

// Console pairs an input/output Stream with optional capability tables.
type Console struct {
	In, Out Stream

	Turtle     Capability // turtle graphics, nil if unsupported
	TextCursor Capability // text cursor control, nil if unsupported
	ScreenMode Capability // screen mode control, nil if unsupported
}

func (c *Console) HasTurtle() bool     { return c.Turtle != nil }
func (c *Console) HasTextCursor() bool { return c.TextCursor != nil }
func (c *Console) HasScreenMode() bool { return c.ScreenMode != nil }
