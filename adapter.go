// Package webpubsub provides an Azure Web PubSub backed adapter for
// Socket.IO servers. Room membership and broadcast fan-out are delegated
// to the service: each (namespace, room) pair becomes a flat connection
// group, and a broadcast becomes a single send-to-all call scoped by an
// OData filter over group membership.
//
// The in-memory adapter is kept underneath for purely local queries
// (SocketRooms, local FetchSockets). Its view is this instance's view
// only; cross-instance queries are not supported.
package webpubsub

import (
	"context"
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sio-contrib/webpubsub-adapter/adapter"
	"github.com/sio-contrib/webpubsub-adapter/parser"
)

type AdapterConfig struct {
	// Deadline applied to each service call made by the adapter.
	// Zero means the adapter imposes none; the client's own timeout
	// still applies.
	RequestTimeout time.Duration

	Debug DebugFunc
}

// NewAdapterCreator returns a Creator the host framework can use in place
// of the in-memory one. The service client and resolver are captured in
// the closure: the host constructs the adapter per namespace without
// knowing about them.
func NewAdapterCreator(service ServiceClient, resolver ConnectionResolver, config *AdapterConfig) adapter.Creator {
	if config == nil {
		config = new(AdapterConfig)
	}
	debug := config.Debug
	if debug == nil {
		debug = NoopDebugFunc
	}
	localCreator := adapter.NewInMemoryAdapterCreator()

	return func(namespace string, sockets adapter.SocketStore, parserCreator parser.Creator) adapter.Adapter {
		return &wpsAdapter{
			namespace:      namespace,
			local:          localCreator(namespace, sockets, parserCreator),
			service:        service,
			resolver:       resolver,
			parser:         parserCreator(),
			locks:          newLockRegistry(),
			requestTimeout: config.RequestTimeout,
			debug:          debug,
		}
	}
}

type wpsAdapter struct {
	namespace string
	local     adapter.Adapter
	service   ServiceClient
	resolver  ConnectionResolver
	parser    parser.Parser
	locks     *lockRegistry

	requestTimeout time.Duration
	debug          DebugFunc
}

func (a *wpsAdapter) ServerCount() int { return 1 }

func (a *wpsAdapter) Close() {
	a.debug("close", a.namespace)
	a.local.Close()
}

// AddAll adds the socket to the given rooms' groups, one service call per
// room. A failed call is logged and the remaining rooms are still
// attempted. Local bookkeeping records every attempted room afterwards,
// whether or not its service call succeeded: the caller never sees a
// membership error, at the price of a divergence window between local and
// remote state until a later successful mutation.
func (a *wpsAdapter) AddAll(sid adapter.SocketID, rooms []adapter.Room) error {
	a.debug("addAll", sid, rooms)
	release := a.locks.acquire(sid)
	defer release()

	connectionID, ok := a.resolver.RemoteID(sid)
	if !ok {
		a.debug("addAll: no remote connection id", sid)
	} else {
		for _, room := range rooms {
			group := roomGroupName(a.namespace, string(room))
			ctx, cancel := a.callContext()
			err := a.service.AddConnectionToGroup(ctx, group, connectionID)
			cancel()
			if err != nil {
				a.debug("addAll: add connection to group failed", sid, room, err)
				continue
			}
			a.debug("addAll: added connection to group", group, connectionID)
		}
	}

	return a.local.AddAll(sid, rooms)
}

// Delete removes the socket from the room's group. Best effort, like
// AddAll: a failed service call is logged and the local state is updated
// regardless.
func (a *wpsAdapter) Delete(sid adapter.SocketID, room adapter.Room) error {
	a.debug("delete", sid, room)
	release := a.locks.acquire(sid)
	defer release()

	connectionID, ok := a.resolver.RemoteID(sid)
	if !ok {
		a.debug("delete: no remote connection id", sid)
	} else {
		group := roomGroupName(a.namespace, string(room))
		ctx, cancel := a.callContext()
		err := a.service.RemoveConnectionFromGroup(ctx, group, connectionID)
		cancel()
		if err != nil {
			a.debug("delete: remove connection from group failed", sid, room, err)
		} else {
			a.debug("delete: removed connection from group", group, connectionID)
		}
	}

	return a.local.Delete(sid, room)
}

// DeleteAll tears the socket down: a DISCONNECT packet is broadcast to the
// socket's private room (every socket implicitly belongs to the room named
// after its own ID), then all local memberships are dropped and the
// socket's lock entry is reclaimed.
func (a *wpsAdapter) DeleteAll(sid adapter.SocketID) error {
	a.debug("deleteAll", sid)
	release := a.locks.acquire(sid)

	header := parser.PacketHeader{Type: parser.PacketTypeDisconnect}
	opts := adapter.NewBroadcastOptions()
	opts.Rooms.Add(adapter.Room(sid))
	if err := a.broadcast(&header, nil, opts); err != nil {
		a.debug("deleteAll: disconnect broadcast failed", sid, err)
	}

	err := a.local.DeleteAll(sid)
	release()
	a.locks.evict(sid)
	return err
}

// Broadcast sends the packet to every connection matching the options'
// rooms and exceptions with a single service call. There is no local
// fan-out: once every instance uses this adapter, local and remote
// subscribers are indistinguishable and the service is the sole fan-out
// mechanism.
//
// Unlike membership mutations, a failed broadcast is returned to the
// caller.
func (a *wpsAdapter) Broadcast(header *parser.PacketHeader, v []any, opts *adapter.BroadcastOptions) error {
	if v == nil {
		return a.broadcast(header, nil, opts)
	}
	return a.broadcast(header, &v, opts)
}

func (a *wpsAdapter) broadcast(header *parser.PacketHeader, v any, opts *adapter.BroadcastOptions) error {
	if opts == nil {
		opts = adapter.NewBroadcastOptions()
	}
	header.Namespace = a.namespace

	buffers, err := a.parser.Encode(header, v)
	if err != nil {
		return fmt.Errorf("webpubsub: broadcast: encode: %w", err)
	}
	payload := encodeEIOPayload(buffers)
	filter := buildFilter(a.namespace, opts.Rooms, opts.Except)
	a.debug("broadcast", filter, string(payload))

	ctx, cancel := a.callContext()
	defer cancel()
	err = a.service.SendToAll(ctx, payload, SendToAllOptions{
		Filter:      filter,
		ContentType: "text/plain",
	})
	if err != nil {
		return fmt.Errorf("webpubsub: broadcast: %w", err)
	}
	return nil
}

func (a *wpsAdapter) BroadcastWithAck(
	header *parser.PacketHeader,
	v []any,
	opts *adapter.BroadcastOptions,
	clientCount func(count int),
	ack func(v []any),
) error {
	return ErrNotImplemented
}

func (a *wpsAdapter) Sockets(rooms mapset.Set[adapter.Room]) (mapset.Set[adapter.SocketID], error) {
	return nil, ErrNotSupported
}

// SocketRooms returns the rooms this instance believes the socket is in.
// It never queries the service, so it is only authoritative for sockets
// local to this instance. Comparable adapters for other backing stores
// make the same trade-off.
func (a *wpsAdapter) SocketRooms(sid adapter.SocketID) (mapset.Set[adapter.Room], bool) {
	return a.local.SocketRooms(sid)
}

func (a *wpsAdapter) FetchSockets(opts *adapter.BroadcastOptions) ([]adapter.Socket, error) {
	if opts != nil && opts.Flags.Local {
		return a.local.FetchSockets(opts)
	}
	return nil, ErrNonLocalNotSupported
}

func (a *wpsAdapter) AddSockets(opts *adapter.BroadcastOptions, rooms ...adapter.Room) error {
	return ErrNotImplemented
}

func (a *wpsAdapter) DelSockets(opts *adapter.BroadcastOptions, rooms ...adapter.Room) error {
	return ErrNotImplemented
}

// DisconnectSockets broadcasts a DISCONNECT control packet, scoped like a
// normal broadcast, whose data carries whether the receiving connections
// should close their transport. Bookkeeping is not touched here: the
// receiving connections drive the normal disconnect flow, which ends in
// DeleteAll.
func (a *wpsAdapter) DisconnectSockets(opts *adapter.BroadcastOptions, close bool) error {
	a.debug("disconnectSockets", close)
	header := parser.PacketHeader{Type: parser.PacketTypeDisconnect}
	return a.broadcast(&header, &disconnectData{Close: close}, opts)
}

func (a *wpsAdapter) ServerSideEmit(header *parser.PacketHeader, v []any) error {
	return ErrNotSupported
}

type disconnectData struct {
	Close bool `json:"close"`
}

func (a *wpsAdapter) callContext() (context.Context, context.CancelFunc) {
	if a.requestTimeout <= 0 {
		return context.Background(), func() {}
	}
	return context.WithTimeout(context.Background(), a.requestTimeout)
}
