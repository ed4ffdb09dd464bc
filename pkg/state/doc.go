// Package state implements the reactive state interceptor: the access
// layer between application state and the rest of the core.
//
// A Store holds the state root (nested maps and slices) plus computed
// getters registered per pattern. Access goes through a Proxy, of
// which there are exactly two concrete kinds chosen at construction:
// ReadonlyProxy, whose Set always fails with write-rejection, and
// WritableProxy, which commits values and forwards the written Ref to
// the update scheduler through a ChangeSink. A proxy's behavior is
// never swapped at runtime.
//
// Reads performed while a computed getter is running record dynamic
// dependency edges (computation pattern → read pattern) into the
// store's DepGraph, supplementing the static prefix tree which cannot
// express runtime-discovered relationships.
//
// Wildcard-containing paths resolve their array positions from the
// Ref's ListIndex or from the active LoopContext stack; reading one
// with neither is a fatal contract violation (loop-context-missing).
package state
