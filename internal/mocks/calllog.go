package mocks

import "sync"

// CallLog records calls across mocks in the order they happen.
type CallLog struct {
	mu    sync.Mutex
	calls []string
}

// Add appends a call. A nil CallLog discards it.
func (l *CallLog) Add(call string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

// Calls returns a copy of the recorded calls.
func (l *CallLog) Calls() []string {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.calls))
	copy(out, l.calls)
	return out
}
