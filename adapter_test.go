package webpubsub

import (
	"errors"
	"fmt"
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sio-contrib/webpubsub-adapter/adapter"
	"github.com/sio-contrib/webpubsub-adapter/internal/utils"
	"github.com/sio-contrib/webpubsub-adapter/parser"
	jsonparser "github.com/sio-contrib/webpubsub-adapter/parser/json"
	"github.com/sio-contrib/webpubsub-adapter/parser/json/serializer/stdjson"
)

func TestAddAllCallsServicePerRoom(t *testing.T) {
	service := newTestServiceClient()
	a := newTestAdapter(service)

	err := a.AddAll("s1", []adapter.Room{"r1", "r2"})
	require.NoError(t, err)

	calls := service.Calls()
	require.Equal(t, 2, len(calls))
	assert.Equal(t, "add", calls[0].Op)
	assert.Equal(t, roomGroupName(testNamespace, "r1"), calls[0].Group)
	assert.Equal(t, "conn-s1", calls[0].ConnectionID)
	assert.Equal(t, roomGroupName(testNamespace, "r2"), calls[1].Group)
}

func TestJoinThenLeave(t *testing.T) {
	service := newTestServiceClient()
	a := newTestAdapter(service)

	require.NoError(t, a.AddAll("s1", []adapter.Room{"a", "b"}))
	require.NoError(t, a.Delete("s1", "a"))

	calls := service.Calls()
	require.Equal(t, 3, len(calls))
	assert.Equal(t, "remove", calls[2].Op)
	assert.Equal(t, roomGroupName(testNamespace, "a"), calls[2].Group)
	assert.Equal(t, "conn-s1", calls[2].ConnectionID)

	rooms, ok := a.SocketRooms("s1")
	require.True(t, ok)
	assert.Equal(t, 1, rooms.Cardinality())
	assert.True(t, rooms.Contains("b"))
}

func TestSameSocketMutationsDoNotInterleave(t *testing.T) {
	service := newTestServiceClient()
	a := newTestAdapter(service)

	service.onAdd = func(group, connectionID string) error {
		// Give the other goroutine every chance to interleave.
		time.Sleep(5 * time.Millisecond)
		return nil
	}

	waiter := utils.NewTimeoutWaiter(2)
	go func() {
		defer waiter.Done()
		a.AddAll("s1", []adapter.Room{"a1", "a2"})
	}()
	go func() {
		defer waiter.Done()
		a.AddAll("s1", []adapter.Room{"b1", "b2"})
	}()
	require.False(t, waiter.WaitTimeout(utils.DefaultTestWaitTimeout))

	calls := service.Calls()
	require.Equal(t, 4, len(calls))
	var groups []string
	for _, call := range calls {
		groups = append(groups, call.Group)
	}

	batchA := []string{roomGroupName(testNamespace, "a1"), roomGroupName(testNamespace, "a2")}
	batchB := []string{roomGroupName(testNamespace, "b1"), roomGroupName(testNamespace, "b2")}
	wantAB := append(append([]string{}, batchA...), batchB...)
	wantBA := append(append([]string{}, batchB...), batchA...)
	assert.Contains(t, [][]string{wantAB, wantBA}, groups)
}

func TestDifferentSocketsProceedConcurrently(t *testing.T) {
	service := newTestServiceClient()
	a := newTestAdapter(service)

	arrived := make(chan struct{}, 2)
	proceed := make(chan struct{})
	service.onAdd = func(group, connectionID string) error {
		arrived <- struct{}{}
		<-proceed
		return nil
	}

	waiter := utils.NewTimeoutWaiter(2)
	go func() {
		defer waiter.Done()
		a.AddAll("s1", []adapter.Room{"r"})
	}()
	go func() {
		defer waiter.Done()
		a.AddAll("s2", []adapter.Room{"r"})
	}()

	// Both calls must be in flight at the same time. If operations on
	// different sockets blocked each other, the second would never arrive.
	for i := 0; i < 2; i++ {
		select {
		case <-arrived:
		case <-time.After(utils.DefaultTestWaitTimeout):
			t.Fatal("socket operations blocked each other")
		}
	}
	close(proceed)
	require.False(t, waiter.WaitTimeout(utils.DefaultTestWaitTimeout))
}

func TestAddAllRemoteFailureIsBestEffort(t *testing.T) {
	service := newTestServiceClient()
	a := newTestAdapter(service)

	service.onAdd = func(group, connectionID string) error {
		return errors.New("boom")
	}

	err := a.AddAll("s1", []adapter.Room{"r1", "r2"})
	require.NoError(t, err)

	// A failed room does not abort the batch.
	assert.Equal(t, 2, len(service.Calls()))

	// Local bookkeeping still reflects the attempted rooms.
	rooms, ok := a.SocketRooms("s1")
	require.True(t, ok)
	assert.True(t, rooms.Contains("r1"))
	assert.True(t, rooms.Contains("r2"))
}

func TestDeleteRemoteFailureIsBestEffort(t *testing.T) {
	service := newTestServiceClient()
	a := newTestAdapter(service)

	require.NoError(t, a.AddAll("s1", []adapter.Room{"r1", "r2"}))
	service.onRemove = func(group, connectionID string) error {
		return errors.New("boom")
	}

	require.NoError(t, a.Delete("s1", "r1"))

	rooms, ok := a.SocketRooms("s1")
	require.True(t, ok)
	assert.False(t, rooms.Contains("r1"))
	assert.True(t, rooms.Contains("r2"))
}

func TestDeleteAllBroadcastsToPrivateRoom(t *testing.T) {
	service := newTestServiceClient()
	a := newTestAdapter(service)

	// The framework puts every socket into its private room on connect.
	require.NoError(t, a.AddAll("s1", []adapter.Room{"s1", "r1"}))

	require.NoError(t, a.DeleteAll("s1"))

	var sends []serviceCall
	for _, call := range service.Calls() {
		if call.Op == "send" {
			sends = append(sends, call)
		}
	}
	require.Equal(t, 1, len(sends))
	assert.Equal(t, fmt.Sprintf("'%s' in groups", roomGroupName(testNamespace, "s1")), sends[0].Filter)
	assert.Equal(t, "41"+testNamespace+",", sends[0].Payload)

	_, ok := a.SocketRooms("s1")
	assert.False(t, ok)
}

func TestDeleteAllEvictsLockEntry(t *testing.T) {
	service := newTestServiceClient()
	a := newTestAdapter(service)

	require.NoError(t, a.AddAll("s1", []adapter.Room{"s1"}))
	assert.Equal(t, 1, a.locks.len())

	require.NoError(t, a.DeleteAll("s1"))
	assert.Equal(t, 0, a.locks.len())
}

func TestBroadcastSendsSingleFilteredCall(t *testing.T) {
	service := newTestServiceClient()
	a := newTestAdapter(service)

	opts := adapter.NewBroadcastOptions()
	opts.Rooms.Add("r1")
	header := parser.PacketHeader{Type: parser.PacketTypeEvent}

	err := a.Broadcast(&header, []any{"greet", "hello"}, opts)
	require.NoError(t, err)

	calls := service.Calls()
	require.Equal(t, 1, len(calls))
	assert.Equal(t, "send", calls[0].Op)
	assert.Equal(t, "text/plain", calls[0].ContentType)
	assert.Equal(t, fmt.Sprintf("'%s' in groups", roomGroupName(testNamespace, "r1")), calls[0].Filter)
	assert.Equal(t, `42`+testNamespace+`,["greet","hello"]`, calls[0].Payload)
}

func TestBroadcastStampsNamespace(t *testing.T) {
	service := newTestServiceClient()
	a := newTestAdapter(service)

	header := parser.PacketHeader{Type: parser.PacketTypeEvent, Namespace: "/other"}
	require.NoError(t, a.Broadcast(&header, []any{"e"}, nil))

	assert.Equal(t, testNamespace, header.Namespace)
	calls := service.Calls()
	require.Equal(t, 1, len(calls))
	assert.Equal(t, namespaceClause(testNamespace), calls[0].Filter)
}

func TestBroadcastFailurePropagates(t *testing.T) {
	service := newTestServiceClient()
	a := newTestAdapter(service)

	sendErr := errors.New("service unavailable")
	service.onSend = func(payload []byte, opts SendToAllOptions) error {
		return sendErr
	}

	header := parser.PacketHeader{Type: parser.PacketTypeEvent}
	err := a.Broadcast(&header, []any{"e"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sendErr))
}

func TestDisconnectSocketsCarriesCloseFlag(t *testing.T) {
	for _, close := range []bool{true, false} {
		service := newTestServiceClient()
		a := newTestAdapter(service)

		opts := adapter.NewBroadcastOptions()
		opts.Rooms.Add("r1")
		require.NoError(t, a.DisconnectSockets(opts, close))

		calls := service.Calls()
		require.Equal(t, 1, len(calls))
		assert.Equal(t, fmt.Sprintf(`41%s,{"close":%t}`, testNamespace, close), calls[0].Payload)
	}
}

func TestUnsupportedOperations(t *testing.T) {
	service := newTestServiceClient()
	a := newTestAdapter(service)

	opts := adapter.NewBroadcastOptions()
	header := parser.PacketHeader{Type: parser.PacketTypeEvent}

	assert.ErrorIs(t, a.AddSockets(opts, "r1"), ErrNotImplemented)
	assert.ErrorIs(t, a.DelSockets(opts, "r1"), ErrNotImplemented)
	assert.ErrorIs(t, a.BroadcastWithAck(&header, []any{"e"}, opts, nil, nil), ErrNotImplemented)
	assert.ErrorIs(t, a.ServerSideEmit(&header, []any{"e"}), ErrNotSupported)

	_, err := a.Sockets(mapset.NewSet[adapter.Room]("r1"))
	assert.ErrorIs(t, err, ErrNotSupported)

	_, err = a.FetchSockets(opts)
	assert.ErrorIs(t, err, ErrNonLocalNotSupported)

	// None of these may reach the service.
	assert.Equal(t, 0, len(service.Calls()))
}

func TestFetchSocketsLocal(t *testing.T) {
	service := newTestServiceClient()
	store := adapter.NewTestSocketStore()
	creator := NewAdapterCreator(service, testResolver{}, nil)
	a := creator(testNamespace, store, jsonparser.NewCreator(0, stdjson.New())).(*wpsAdapter)

	store.Set(adapter.NewTestSocket("s1"))
	store.Set(adapter.NewTestSocket("s2"))
	require.NoError(t, a.AddAll("s1", []adapter.Room{"r1"}))
	require.NoError(t, a.AddAll("s2", []adapter.Room{"r2"}))

	opts := adapter.NewBroadcastOptions()
	opts.Rooms.Add("r1")
	opts.Flags.Local = true

	sockets, err := a.FetchSockets(opts)
	require.NoError(t, err)
	require.Equal(t, 1, len(sockets))
	assert.Equal(t, adapter.SocketID("s1"), sockets[0].ID())
}

func TestUnresolvableSocketStillRecordedLocally(t *testing.T) {
	service := newTestServiceClient()
	a := newTestAdapter(service)

	// The test resolver cannot resolve the empty socket ID.
	require.NoError(t, a.AddAll("", []adapter.Room{"r1"}))

	assert.Equal(t, 0, len(service.Calls()))
	rooms, ok := a.SocketRooms("")
	require.True(t, ok)
	assert.True(t, rooms.Contains("r1"))
}

func TestServerCountAndClose(t *testing.T) {
	a := newTestAdapter(newTestServiceClient())
	assert.Equal(t, 1, a.ServerCount())
	a.Close()
}
