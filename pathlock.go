package vaultshot

import (
	"context"
	"sync"
)

// PathLocker serializes work on the same vault path. Different paths do not
// block each other. The zero value is ready to use.
type PathLocker struct {
	mu      sync.Mutex
	entries map[string]*pathEntry
}

// pathEntry is the in-flight signal for one path. sem holds a token while
// the path is locked; refs counts holders and waiters so the entry can be
// dropped once nobody needs it.
type pathEntry struct {
	sem  chan struct{}
	refs int
}

// NewPathLocker creates an empty PathLocker.
func NewPathLocker() *PathLocker {
	return &PathLocker{entries: make(map[string]*pathEntry)}
}

// Lock blocks until path is free or ctx is done. On success it returns the
// function that releases the path; it must be called exactly once.
func (l *PathLocker) Lock(ctx context.Context, path string) (unlock func(), err error) {
	l.mu.Lock()
	if l.entries == nil {
		l.entries = make(map[string]*pathEntry)
	}
	e := l.entries[path]
	if e == nil {
		e = &pathEntry{sem: make(chan struct{}, 1)}
		l.entries[path] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(path, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.release(path, e)
		})
	}, nil
}

// Len returns the number of paths currently locked or waited on.
func (l *PathLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *PathLocker) release(path string, e *pathEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, path)
	}
}
