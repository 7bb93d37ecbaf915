package badger

import (
	"sync"

	"github.com/poiesic/docent/core"
)

// namespaceLocks serializes writers of one namespace while leaving other
// namespaces free. Entries are dropped once no writer holds them.
type namespaceLocks struct {
	mu    sync.Mutex
	locks map[core.Namespace]*namespaceLock
}

type namespaceLock struct {
	sync.Mutex
	refs int
}

// lock blocks until ns is free and returns the matching unlock.
func (l *namespaceLocks) lock(ns core.Namespace) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[core.Namespace]*namespaceLock)
	}
	nl, ok := l.locks[ns]
	if !ok {
		nl = &namespaceLock{}
		l.locks[ns] = nl
	}
	nl.refs++
	l.mu.Unlock()

	nl.Lock()
	return func() {
		nl.Unlock()
		l.mu.Lock()
		nl.refs--
		if nl.refs == 0 {
			delete(l.locks, ns)
		}
		l.mu.Unlock()
	}
}
