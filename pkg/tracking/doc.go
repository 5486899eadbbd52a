// Package tracking records per-caller, per-method call statistics.
//
// The proxy reports one Outcome per forwarded request. The Aggregator queues
// outcomes and, once per flush interval, collapses them into one Change per
// (ip, method) pair that a Repository applies in a single call. Statistics
// are therefore eventually consistent and anything still queued when the
// process crashes is lost.
//
// Repository implementations live in the storage subpackage.
package tracking
