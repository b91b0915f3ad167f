package primitives

import (
	"context"
	"os"

	"github.com/loglang/logocore/errs"
	"github.com/loglang/logocore/eval"
	"github.com/loglang/logocore/ioface"
	"github.com/loglang/logocore/value"
)

// openNamed opens name through the evaluator's Storage collaborator and
// registers the result in the I/O facade's open-stream table (§5, §6.1
// Storage). A nil Storage (no HAL attached) reports the device as
// unavailable rather than reaching for the local filesystem directly.
func openNamed(ev *eval.Evaluator, primName string, args []value.Value, flags int) value.Result {
	if ev.Storage == nil {
		return value.ErrCode(errs.DeviceUnavailable, primName, primName)
	}
	name, r := asWordText(ev, primName, args[0])
	if r.Status != value.StatusNone {
		return r
	}
	f, err := ev.Storage.Open(name, flags)
	if err != nil {
		return value.ErrCode(errs.FileNotFound, primName, name)
	}
	// context.Background() makes Open an immediate try: it succeeds when the
	// table has room and fails at once when the table is at capacity (§5
	// "Open blocks/fails instead of silently growing"), which is what a
	// synchronous primitive call needs.
	if _, ok := ev.IO.Open(context.Background(), name, ioface.NewFSFileStream(f)); !ok {
		_ = f.Close()
		return value.ErrCode(errs.NoFileBuffers, primName, name)
	}
	return value.None()
}

func primOpenread(ev *eval.Evaluator, args []value.Value) value.Result {
	return openNamed(ev, "openread", args, os.O_RDONLY)
}

func primOpenwrite(ev *eval.Evaluator, args []value.Value) value.Result {
	return openNamed(ev, "openwrite", args, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
}

// primClose closes the stream opened under the given name. Closing a name
// that was never opened is harmless, matching closeall's best-effort reset
// semantics.
func primClose(ev *eval.Evaluator, args []value.Value) value.Result {
	name, r := asWordText(ev, "close", args[0])
	if r.Status != value.StatusNone {
		return r
	}
	ev.IO.CloseName(name)
	return value.None()
}

func primCloseall(ev *eval.Evaluator, args []value.Value) value.Result {
	ev.IO.CloseAll()
	return value.None()
}

func installFiles(tbl *eval.Table) {
	tbl.Register("openread", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primOpenread})
	tbl.Register("openwrite", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primOpenwrite})
	tbl.Register("close", &eval.PrimEntry{MinArity: 1, MaxArity: 1, Fn: primClose})
	tbl.Register("closeall", &eval.PrimEntry{MinArity: 0, MaxArity: 0, Fn: primCloseall})
}
