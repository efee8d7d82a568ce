package store

import (
	"sync"
)

// KV is the persistent key-value collaborator. Implementations must apply a
// Batch atomically: either every write in it becomes visible or none does.
type KV interface {
	Get(key []byte) ([]byte, bool, error)
	NewBatch() Batch
}

// Batch collects writes until Write is called.
type Batch interface {
	Put(key, value []byte)
	Delete(key []byte)
	Write() error
}

// MemoryKV is an in-memory KV safe for concurrent use.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(key []byte) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Len returns the number of stored keys.
func (m *MemoryKV) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *MemoryKV) NewBatch() Batch {
	return &memoryBatch{kv: m}
}

type batchOp struct {
	key    string
	value  []byte
	delete bool
}

type memoryBatch struct {
	kv  *MemoryKV
	ops []batchOp
}

func (b *memoryBatch) Put(key, value []byte) {
	v := make([]byte, len(value))
	copy(v, value)
	b.ops = append(b.ops, batchOp{key: string(key), value: v})
}

func (b *memoryBatch) Delete(key []byte) {
	b.ops = append(b.ops, batchOp{key: string(key), delete: true})
}

func (b *memoryBatch) Write() error {
	b.kv.mu.Lock()
	defer b.kv.mu.Unlock()
	for _, op := range b.ops {
		if op.delete {
			delete(b.kv.data, op.key)
			continue
		}
		b.kv.data[op.key] = op.value
	}
	b.ops = nil
	return nil
}
