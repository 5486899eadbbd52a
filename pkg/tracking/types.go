package tracking

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no statistics exist for the requested key.
var ErrNotFound = errors.New("call statistics not found")

// Outcome is the result of one forwarded call.
type Outcome struct {
	IP      string
	Method  string
	Success bool
}

// Change is a delta to apply to the statistics of one (ip, method) pair.
type Change struct {
	IP              string
	Method          string
	SuccessfulCalls int64
	FailedCalls     int64
}

// IsZero reports whether the change has nothing to apply.
func (c Change) IsZero() bool {
	return c.SuccessfulCalls == 0 && c.FailedCalls == 0
}

// TrackedCall is the cumulative statistics of one (ip, method) pair.
type TrackedCall struct {
	IP              string `json:"ip"`
	Method          string `json:"method"`
	SuccessfulCalls int64  `json:"successfulCalls"`
	FailedCalls     int64  `json:"failedCalls"`
}

// MethodCalls is the per-method part of CallsOfUser.
type MethodCalls struct {
	SuccessfulCalls int64 `json:"successfulCalls"`
	FailedCalls     int64 `json:"failedCalls"`
}

// CallsOfUser is every method called by one IP.
type CallsOfUser struct {
	IP      string                 `json:"ip"`
	Methods map[string]MethodCalls `json:"methods"`
}

// Repository persists call statistics. Implementations must be safe for
// concurrent use.
type Repository interface {
	// Increment applies the changes. An empty slice is a no-op.
	Increment(ctx context.Context, changes []Change) error

	// FindByIPAndMethod returns ErrNotFound when the pair has no statistics.
	FindByIPAndMethod(ctx context.Context, ip, method string) (*TrackedCall, error)

	// FindByIP returns ErrNotFound when the IP has no statistics.
	FindByIP(ctx context.Context, ip string) (*CallsOfUser, error)

	// DeleteByIP removes all statistics of ip and reports whether any existed.
	DeleteByIP(ctx context.Context, ip string) (bool, error)

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error

	Close() error
}
