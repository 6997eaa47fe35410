package adapter

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sio-contrib/webpubsub-adapter/internal/sync"
	"github.com/sio-contrib/webpubsub-adapter/parser"
)

// This is the equivalent of the default in-memory adapter of Socket.IO.
// Have a look at: https://github.com/socketio/socket.io-adapter
type inMemoryAdapter struct {
	mu    sync.Mutex
	rooms map[Room]mapset.Set[SocketID]
	sids  map[SocketID]mapset.Set[Room]

	sockets SocketStore

	parser parser.Parser
}

func NewInMemoryAdapterCreator() Creator {
	return func(namespace string, sockets SocketStore, parserCreator parser.Creator) Adapter {
		return &inMemoryAdapter{
			rooms:   make(map[Room]mapset.Set[SocketID]),
			sids:    make(map[SocketID]mapset.Set[Room]),
			sockets: sockets,
			parser:  parserCreator(),
		}
	}
}

func (a *inMemoryAdapter) ServerCount() int { return 1 }

func (a *inMemoryAdapter) Close() {}

func (a *inMemoryAdapter) AddAll(sid SocketID, rooms []Room) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.sids[sid]
	if !ok {
		s = mapset.NewThreadUnsafeSet[Room]()
		a.sids[sid] = s
	}

	for _, room := range rooms {
		s.Add(room)

		r, ok := a.rooms[room]
		if !ok {
			r = mapset.NewThreadUnsafeSet[SocketID]()
			a.rooms[room] = r
		}
		r.Add(sid)
	}
	return nil
}

func (a *inMemoryAdapter) Delete(sid SocketID, room Room) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.sids[sid]
	if ok {
		s.Remove(room)
	}

	a.delete(sid, room)
	return nil
}

func (a *inMemoryAdapter) delete(sid SocketID, room Room) {
	r, ok := a.rooms[room]
	if ok {
		r.Remove(sid)
		if r.Cardinality() == 0 {
			delete(a.rooms, room)
		}
	}
}

func (a *inMemoryAdapter) DeleteAll(sid SocketID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.sids[sid]
	if !ok {
		return nil
	}

	s.Each(func(room Room) bool {
		a.delete(sid, room)
		return false
	})

	delete(a.sids, sid)
	return nil
}

func (a *inMemoryAdapter) Broadcast(header *parser.PacketHeader, v []any, opts *BroadcastOptions) error {
	buffers, err := a.parser.Encode(header, &v)
	if err != nil {
		return fmt.Errorf("adapter: broadcast: %w", err)
	}

	a.apply(opts, func(socket Socket) {
		a.sockets.SendBuffers(socket.ID(), buffers)
	})
	return nil
}

func (a *inMemoryAdapter) BroadcastWithAck(
	header *parser.PacketHeader,
	v []any,
	opts *BroadcastOptions,
	clientCount func(count int),
	ack func(v []any),
) error {
	buffers, err := a.parser.Encode(header, &v)
	if err != nil {
		return fmt.Errorf("adapter: broadcast with ack: %w", err)
	}

	count := 0
	a.apply(opts, func(socket Socket) {
		if a.sockets.SendBuffers(socket.ID(), buffers) {
			count++
		}
	})
	if clientCount != nil {
		clientCount(count)
	}
	return nil
}

// The return value 'sids' must be a thread safe mapset.Set.
func (a *inMemoryAdapter) Sockets(rooms mapset.Set[Room]) (sids mapset.Set[SocketID], err error) {
	sids = mapset.NewSet[SocketID]()
	opts := NewBroadcastOptions()
	opts.Rooms = rooms

	a.apply(opts, func(socket Socket) {
		sids.Add(socket.ID())
	})
	return sids, nil
}

// The return value 'rooms' must be a thread safe mapset.Set.
func (a *inMemoryAdapter) SocketRooms(sid SocketID) (rooms mapset.Set[Room], ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.sids[sid]
	if !ok {
		return nil, false
	}

	rooms = mapset.NewSet[Room]()
	s.Each(func(room Room) bool {
		rooms.Add(room)
		return false
	})
	return
}

func (a *inMemoryAdapter) FetchSockets(opts *BroadcastOptions) (sockets []Socket, err error) {
	a.apply(opts, func(socket Socket) {
		sockets = append(sockets, socket)
	})
	return sockets, nil
}

func (a *inMemoryAdapter) AddSockets(opts *BroadcastOptions, rooms ...Room) error {
	a.apply(opts, func(socket Socket) {
		socket.Join(rooms...)
	})
	return nil
}

func (a *inMemoryAdapter) DelSockets(opts *BroadcastOptions, rooms ...Room) error {
	a.apply(opts, func(socket Socket) {
		for _, room := range rooms {
			socket.Leave(room)
		}
	})
	return nil
}

func (a *inMemoryAdapter) DisconnectSockets(opts *BroadcastOptions, close bool) error {
	a.apply(opts, func(socket Socket) {
		socket.Disconnect(close)
	})
	return nil
}

func (a *inMemoryAdapter) apply(opts *BroadcastOptions, callback func(socket Socket)) {
	a.mu.Lock()

	exceptSids := a.computeExceptSids(opts.Except)

	// If a room was specified in opts.Rooms,
	// we only use sockets in those rooms.
	// Otherwise (within else), any socket will be used.
	if opts.Rooms.Cardinality() > 0 {
		ids := mapset.NewThreadUnsafeSet[SocketID]()
		opts.Rooms.Each(func(room Room) bool {
			r, ok := a.rooms[room]
			if !ok {
				return false
			}

			r.Each(func(sid SocketID) bool {
				if ids.Contains(sid) || exceptSids.Contains(sid) {
					return false
				}
				socket, ok := a.sockets.Get(sid)
				if ok {
					a.mu.Unlock()
					callback(socket)
					a.mu.Lock()
					ids.Add(sid)
				}
				return false
			})
			return false
		})
	} else {
		for sid := range a.sids {
			if exceptSids.Contains(sid) {
				continue
			}
			socket, ok := a.sockets.Get(sid)
			if ok {
				a.mu.Unlock()
				callback(socket)
				a.mu.Lock()
			}
		}
	}
	a.mu.Unlock()
}

// Beware that the return value 'exceptSids' is thread unsafe.
func (a *inMemoryAdapter) computeExceptSids(exceptRooms mapset.Set[Room]) (exceptSids mapset.Set[SocketID]) {
	exceptSids = mapset.NewThreadUnsafeSet[SocketID]()

	if exceptRooms.Cardinality() > 0 {
		exceptRooms.Each(func(room Room) bool {
			r, ok := a.rooms[room]
			if ok {
				r.Each(func(sid SocketID) bool {
					exceptSids.Add(sid)
					return false
				})
			}
			return false
		})
	}
	return
}

func (a *inMemoryAdapter) ServerSideEmit(header *parser.PacketHeader, v []any) error { return nil }
