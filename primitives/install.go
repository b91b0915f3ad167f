package primitives

import "github.com/loglang/logocore/eval"

// Install populates tbl with the full built-in primitive set. Callers
// (proc.Engine's owner) invoke this once against a fresh eval.Table before
// any procedure call or top-level line is run.
func Install(tbl *eval.Table) {
	installArith(tbl)
	installLogic(tbl)
	installList(tbl)
	installControl(tbl)
	installVars(tbl)
	installWorkspacePrims(tbl)
	installPropdb(tbl)
	installIO(tbl)
	installTurtle(tbl)
	installFiles(tbl)
}
