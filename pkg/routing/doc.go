// Package routing selects the backend that serves a forwarded request.
//
// Targets are parsed once from configuration into an immutable list. A
// RoundRobin selector hands them out in order, wrapping around at the end,
// and is safe for concurrent use. The cursor is local to the selector; two
// proxy instances rotate independently.
package routing
