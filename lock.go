package webpubsub

import (
	"github.com/sio-contrib/webpubsub-adapter/adapter"
	"github.com/sio-contrib/webpubsub-adapter/internal/sync"
)

// lockRegistry hands out one mutual exclusion lock per socket ID, so that
// room mutations and the final teardown of a single socket never
// interleave their service calls. Locks for different sockets are fully
// independent.
//
// Waiters for the same socket are woken in acquisition order. Entries are
// created lazily and reclaimed with evict once a socket is gone.
type lockRegistry struct {
	mu    sync.Mutex
	locks map[adapter.SocketID]*socketLock
}

type socketLock struct {
	held    bool
	waiters []chan struct{}
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{
		locks: make(map[adapter.SocketID]*socketLock),
	}
}

// acquire blocks until the socket's lock is held by the caller and returns
// the release function. Release must be called on every exit path.
func (r *lockRegistry) acquire(sid adapter.SocketID) (release func()) {
	r.mu.Lock()
	l, ok := r.locks[sid]
	if !ok {
		l = &socketLock{}
		r.locks[sid] = l
	}

	if !l.held {
		l.held = true
		r.mu.Unlock()
	} else {
		wait := make(chan struct{})
		l.waiters = append(l.waiters, wait)
		r.mu.Unlock()
		<-wait
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			r.release(sid, l)
		})
	}
}

func (r *lockRegistry) release(sid adapter.SocketID, l *socketLock) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(l.waiters) > 0 {
		// Hand the lock over to the oldest waiter. held stays true.
		wait := l.waiters[0]
		l.waiters = l.waiters[1:]
		close(wait)
		return
	}
	l.held = false
}

// evict drops the socket's entry if it is idle. Called after a socket has
// fully disconnected, so the registry does not grow with every socket ever
// seen. An entry that is held, or has waiters, stays until its queue drains.
func (r *lockRegistry) evict(sid adapter.SocketID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[sid]
	if ok && !l.held && len(l.waiters) == 0 {
		delete(r.locks, sid)
	}
}

func (r *lockRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
