package service_test

import (
	"context"
	"errors"
	"sync"
)

var errBoom = errors.New("boom")

// memoryKV is an in-memory domain.KVStore that counts writes.
type memoryKV struct {
	mu     sync.Mutex
	values map[string]string
	sets   int
	getErr error
	setErr error
	onSet  func()
}

func newMemoryKV() *memoryKV {
	return &memoryKV{values: map[string]string{}}
}

func (m *memoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.sets++
	hook := m.onSet
	if m.setErr != nil {
		err := m.setErr
		m.mu.Unlock()
		return err
	}
	m.values[key] = value
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (m *memoryKV) setCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

func (m *memoryKV) raw(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

// fakeClipboard records the last text written.
type fakeClipboard struct {
	mu   sync.Mutex
	text string
	err  error
}

func (c *fakeClipboard) SetText(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

func (c *fakeClipboard) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}
