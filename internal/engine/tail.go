package engine

import (
	"strings"
	"sync"
)

// tailBuffer is an io.Writer that retains only the last limit bytes written.
// It captures the end of the subprocess stderr stream, where a crashing
// engine prints its diagnostic, without letting a chatty process grow the
// buffer without bound.
type tailBuffer struct {
	mu    sync.Mutex
	data  []byte
	limit int
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{
		mu:    sync.Mutex{},
		data:  nil,
		limit: limit,
	}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data = append(t.data, p...)
	if len(t.data) > t.limit {
		t.data = t.data[len(t.data)-t.limit:]
	}

	return len(p), nil
}

// String returns the retained tail with surrounding whitespace trimmed.
func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return strings.TrimSpace(string(t.data))
}
