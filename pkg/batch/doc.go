// Package batch provides a periodically flushed, unbounded work queue.
//
// Producers call Add from any goroutine; Add never blocks on I/O. A
// background worker hands everything queued so far to a FlushFunc once per
// interval. Empty intervals are skipped. A failed flush is logged and its
// items are dropped. Close stops the worker and flushes what is left.
//
// The in-flight count covers items that were added but whose flush has not
// returned yet, which is what the drain protocol waits on.
package batch
