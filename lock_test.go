package webpubsub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sio-contrib/webpubsub-adapter/internal/sync"
	"github.com/sio-contrib/webpubsub-adapter/internal/utils"
)

func TestLockRegistryMutualExclusion(t *testing.T) {
	registry := newLockRegistry()

	var (
		mu     sync.Mutex
		active int
		max    int
	)
	enter := func() {
		mu.Lock()
		active++
		if active > max {
			max = active
		}
		mu.Unlock()
	}
	leave := func() {
		mu.Lock()
		active--
		mu.Unlock()
	}

	waiter := utils.NewTimeoutWaiter(10)
	for i := 0; i < 10; i++ {
		go func() {
			defer waiter.Done()
			release := registry.acquire("s1")
			defer release()
			enter()
			time.Sleep(time.Millisecond)
			leave()
		}()
	}
	require.False(t, waiter.WaitTimeout(utils.DefaultTestWaitTimeout))
	assert.Equal(t, 1, max)
}

func TestLockRegistryFIFOHandoff(t *testing.T) {
	registry := newLockRegistry()

	release := registry.acquire("s1")

	const waiters = 5
	var (
		mu    sync.Mutex
		order []int
	)
	waiter := utils.NewTimeoutWaiter(waiters)
	for i := 0; i < waiters; i++ {
		i := i
		go func() {
			defer waiter.Done()
			r := registry.acquire("s1")
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			r()
		}()
		// Make sure waiter i is queued before waiter i+1 starts.
		require.Eventually(t, func() bool {
			registry.mu.Lock()
			defer registry.mu.Unlock()
			return len(registry.locks["s1"].waiters) == i+1
		}, utils.DefaultTestWaitTimeout, time.Millisecond)
	}

	release()
	require.False(t, waiter.WaitTimeout(utils.DefaultTestWaitTimeout))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestLockRegistryIndependentSockets(t *testing.T) {
	registry := newLockRegistry()

	release1 := registry.acquire("s1")
	defer release1()

	// A held lock for s1 must not delay s2.
	acquired := make(chan struct{})
	go func() {
		release2 := registry.acquire("s2")
		defer release2()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(utils.DefaultTestWaitTimeout):
		t.Fatal("acquiring an independent socket's lock blocked")
	}
}

func TestLockRegistryReleaseIsIdempotent(t *testing.T) {
	registry := newLockRegistry()

	release := registry.acquire("s1")
	release()
	release()

	// The lock must still work.
	release = registry.acquire("s1")
	release()
}

func TestLockRegistryEvict(t *testing.T) {
	registry := newLockRegistry()

	release := registry.acquire("s1")

	// Held entries survive eviction attempts.
	registry.evict("s1")
	assert.Equal(t, 1, registry.len())

	release()
	registry.evict("s1")
	assert.Equal(t, 0, registry.len())

	// Evicting an unknown socket is a no-op.
	registry.evict("s2")
	assert.Equal(t, 0, registry.len())
}
