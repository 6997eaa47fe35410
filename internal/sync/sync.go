//go:build !sio_deadlock

// Package sync re-exports the synchronization primitives this module uses,
// so they can be swapped for deadlock-detecting variants with the
// sio_deadlock build tag.
package sync

import "sync"

type (
	Mutex     = sync.Mutex
	Once      = sync.Once
	WaitGroup = sync.WaitGroup
)
