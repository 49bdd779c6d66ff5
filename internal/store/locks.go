package store

import "sync"

// PartitionLocks hands out one mutex per partition name. The engines take
// the partition lock around every read-modify-write cycle so two sessions
// cannot both compute a balance or final stock from the same stale snapshot
// and silently overwrite each other. The backend itself has no row versions,
// so this lock is the only concurrency control in the process.
type PartitionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewPartitionLocks() *PartitionLocks {
	return &PartitionLocks{locks: make(map[string]*sync.Mutex)}
}

// Get returns the mutex for the named partition, creating it on first use.
func (p *PartitionLocks) Get(partition string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[partition]
	if !ok {
		l = &sync.Mutex{}
		p.locks[partition] = l
	}
	return l
}
