package serialterm

import (
	"strings"
	"sync"
)

// Buffer is an append-only text log that is only emptied by Clear.
type Buffer struct {
	mu sync.RWMutex
	sb strings.Builder
}

func (b *Buffer) Append(s string) {
	if s == "" {
		return
	}
	b.mu.Lock()
	b.sb.WriteString(s)
	b.mu.Unlock()
}

func (b *Buffer) String() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sb.String()
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sb.Len()
}

// Lines splits the contents on newlines. A trailing newline does not produce
// an empty final line.
func (b *Buffer) Lines() []string {
	s := strings.TrimSuffix(b.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func (b *Buffer) Clear() {
	b.mu.Lock()
	b.sb.Reset()
	b.mu.Unlock()
}
