package webpubsub

import (
	"context"

	"github.com/sio-contrib/webpubsub-adapter/adapter"
)

type SendToAllOptions struct {
	// OData filter selecting the receiving connections. Empty means all.
	Filter      string
	ContentType string
}

// ServiceClient is the part of the Web PubSub data plane the adapter
// consumes. Client implements it over REST; tests substitute a fake.
//
// Every method is a remote call: it may fail with a transient network
// error or with a service rejection (malformed filter, unknown group).
type ServiceClient interface {
	AddConnectionToGroup(ctx context.Context, group, connectionID string) error
	RemoveConnectionFromGroup(ctx context.Context, group, connectionID string) error
	SendToAll(ctx context.Context, payload []byte, opts SendToAllOptions) error
}

// ConnectionResolver maps a Socket.IO session ID to the Web PubSub
// connection ID of the underlying Engine.IO connection. The two identifier
// spaces are distinct, but 1:1 for the lifetime of a connection.
//
// It is supplied by the transport integration and must resolve any socket
// that is currently connected.
type ConnectionResolver interface {
	RemoteID(sid adapter.SocketID) (connectionID string, ok bool)
}
