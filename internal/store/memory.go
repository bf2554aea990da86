package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryBackend keeps tables in process memory. Used by tests and local runs
// without external services.
type MemoryBackend struct {
	mu     sync.RWMutex
	tables map[string][][]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{tables: make(map[string][][]string)}
}

func (b *MemoryBackend) ReadRows(_ context.Context, sheet string) ([][]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rows := b.tables[sheet]
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

func (b *MemoryBackend) AppendRow(_ context.Context, sheet string, row []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tables[sheet] = append(b.tables[sheet], append([]string(nil), row...))
	return nil
}

func (b *MemoryBackend) UpdateRow(_ context.Context, sheet string, index int, row []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows := b.tables[sheet]
	if index < 0 || index+1 >= len(rows) {
		return fmt.Errorf("row %d out of range in %s", index, sheet)
	}
	rows[index+1] = append([]string(nil), row...)
	return nil
}

func (b *MemoryBackend) WriteHeader(_ context.Context, sheet string, header []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows := b.tables[sheet]
	if len(rows) == 0 {
		b.tables[sheet] = [][]string{append([]string(nil), header...)}
		return nil
	}
	rows[0] = append([]string(nil), header...)
	return nil
}
