package storage

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrInjected is returned by a Memory whose fault counters are armed.
var ErrInjected = errors.New("injected storage failure")

// Memory is an in-process KV for tests. Fault counters make the next N
// operations fail, and Latency delays every operation (respecting context
// cancellation), so retry and timeout paths can be exercised
// deterministically.
type Memory struct {
	mu       sync.Mutex
	data     map[string][]byte
	gets     int
	sets     int
	FailGets int
	FailSets int
	Latency  time.Duration
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Seed stores a value without counting as an operation.
func (m *Memory) Seed(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
}

// Gets reports how many Get calls have been made.
func (m *Memory) Gets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gets
}

// Sets reports how many Set calls have been made.
func (m *Memory) Sets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := m.wait(ctx); err != nil {
		return nil, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.FailGets > 0 {
		m.FailGets--
		return nil, false, ErrInjected
	}
	value, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	if err := m.wait(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.FailSets > 0 {
		m.FailSets--
		return ErrInjected
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) wait(ctx context.Context) error {
	m.mu.Lock()
	latency := m.Latency
	m.mu.Unlock()

	if latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
