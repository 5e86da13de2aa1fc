package services

import "sync"

// ProductLocks serializes stock mutations per product name. Two concurrent
// issuances for the same product would otherwise both read the same counters
// and the second write would lose the first (classic read-modify-write race);
// the guarded UPDATE in the repository is the cross-process backstop, this is
// the in-process fast path.
type ProductLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewProductLocks() *ProductLocks {
	return &ProductLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for a product, creating it on first use.
// Lock entries are never removed; the product catalogue is small and stable.
func (p *ProductLocks) Lock(productName string) func() {
	p.mu.Lock()
	l, ok := p.locks[productName]
	if !ok {
		l = &sync.Mutex{}
		p.locks[productName] = l
	}
	p.mu.Unlock()

	l.Lock()
	return l.Unlock
}
