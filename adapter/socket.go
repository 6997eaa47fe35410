package adapter

type Socket interface {
	ID() SocketID

	// Join room(s)
	Join(room ...Room)
	// Leave a room
	Leave(room Room)

	// Emit a message.
	// If you want to emit a binary data, use jsonparser.Binary instead of []byte.
	Emit(eventName string, v ...any)

	// Disconnect from namespace.
	//
	// If `close` is true, the underlying connection will be terminated.
	//
	// If `close` is false, only the current namespace will be disconnected
	// (a DISCONNECT packet will be sent), and the underlying connection
	// will be kept open.
	Disconnect(close bool)
}
