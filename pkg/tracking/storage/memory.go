package storage

import (
	"context"
	"sync"

	"github.com/rpcgate/rpcgate/pkg/tracking"
)

// MemoryRepository keeps statistics in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	calls map[string]map[string]tracking.MethodCalls
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{calls: make(map[string]map[string]tracking.MethodCalls)}
}

// Increment implements tracking.Repository.
func (m *MemoryRepository) Increment(_ context.Context, changes []tracking.Change) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range changes {
		if c.IsZero() {
			continue
		}
		methods, ok := m.calls[c.IP]
		if !ok {
			methods = make(map[string]tracking.MethodCalls)
			m.calls[c.IP] = methods
		}
		mc := methods[c.Method]
		mc.SuccessfulCalls += c.SuccessfulCalls
		mc.FailedCalls += c.FailedCalls
		methods[c.Method] = mc
	}
	return nil
}

// FindByIPAndMethod implements tracking.Repository.
func (m *MemoryRepository) FindByIPAndMethod(_ context.Context, ip, method string) (*tracking.TrackedCall, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mc, ok := m.calls[ip][method]
	if !ok {
		return nil, tracking.ErrNotFound
	}
	return &tracking.TrackedCall{
		IP:              ip,
		Method:          method,
		SuccessfulCalls: mc.SuccessfulCalls,
		FailedCalls:     mc.FailedCalls,
	}, nil
}

// FindByIP implements tracking.Repository.
func (m *MemoryRepository) FindByIP(_ context.Context, ip string) (*tracking.CallsOfUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	methods, ok := m.calls[ip]
	if !ok || len(methods) == 0 {
		return nil, tracking.ErrNotFound
	}

	out := &tracking.CallsOfUser{IP: ip, Methods: make(map[string]tracking.MethodCalls, len(methods))}
	for method, mc := range methods {
		out.Methods[method] = mc
	}
	return out, nil
}

// DeleteByIP implements tracking.Repository.
func (m *MemoryRepository) DeleteByIP(_ context.Context, ip string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.calls[ip]
	delete(m.calls, ip)
	return ok, nil
}

// Ping implements tracking.Repository.
func (m *MemoryRepository) Ping(context.Context) error {
	return nil
}

// Close implements tracking.Repository.
func (m *MemoryRepository) Close() error {
	return nil
}
