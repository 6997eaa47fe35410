package adapter

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sio-contrib/webpubsub-adapter/parser"
)

type (
	// Creator constructs the adapter of a single namespace. The host
	// framework calls it once per namespace, passing the namespace name,
	// its socket store and its parser creator.
	//
	// Adapters that need extra collaborators (a service client, a
	// connection resolver) are expected to capture them in a closure
	// returning a Creator, so that the host can construct the adapter
	// itself without knowing about them.
	Creator func(namespace string, sockets SocketStore, parserCreator parser.Creator) Adapter

	// A public ID, sent by the server at the beginning of
	// the Socket.IO session and which can be used for private messaging.
	SocketID string

	Room string
)

type Adapter interface {
	ServerCount() int
	Close()

	// Adds the socket to the given rooms.
	AddAll(sid SocketID, rooms []Room) error
	// Removes the socket from the given room.
	Delete(sid SocketID, room Room) error
	// Removes the socket from all rooms it has joined.
	DeleteAll(sid SocketID) error

	Broadcast(header *parser.PacketHeader, v []any, opts *BroadcastOptions) error

	// Broadcasts a packet and expects acknowledgements.
	// clientCount is called with the number of clients the packet was sent to.
	// Acknowledgements are delivered through the socket layer, via ack.
	BroadcastWithAck(header *parser.PacketHeader, v []any, opts *BroadcastOptions, clientCount func(count int), ack func(v []any)) error

	// The return value 'sids' is a thread safe mapset.Set.
	Sockets(rooms mapset.Set[Room]) (sids mapset.Set[SocketID], err error)
	// The return value 'rooms' is a thread safe mapset.Set.
	SocketRooms(sid SocketID) (rooms mapset.Set[Room], ok bool)

	FetchSockets(opts *BroadcastOptions) (sockets []Socket, err error)

	AddSockets(opts *BroadcastOptions, rooms ...Room) error
	DelSockets(opts *BroadcastOptions, rooms ...Room) error
	DisconnectSockets(opts *BroadcastOptions, close bool) error

	ServerSideEmit(header *parser.PacketHeader, v []any) error
}
