// Package update schedules committed state changes into render
// passes. The Updater is the runtime hub: it implements the change
// sink writable views commit through, the engine the renderer walks
// against, the per-list element identity records, and the FIFO
// completion queue transactions wait on.
//
// Scheduling is cooperative and single-threaded: mutations open a
// transaction, committed refs coalesce into a pending batch, and the
// batch drains either synchronously through Flush or on the
// background loop started by Start. A transaction opened while
// another is mutating or while a pass is draining is rejected, not
// queued.
package update
