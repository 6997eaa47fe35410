//go:build sio_deadlock

package sync

import (
	"github.com/sasha-s/go-deadlock"
)

type (
	Mutex     = deadlock.Mutex
	Once      = deadlock.Once
	WaitGroup = deadlock.WaitGroup
)
