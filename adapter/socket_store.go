package adapter

type SocketStore interface {
	Get(sid SocketID) (so Socket, ok bool)

	GetAll() []Socket

	// Send Engine.IO packets to a specific socket.
	SendBuffers(sid SocketID, buffers [][]byte) (ok bool)

	Set(so Socket)

	Remove(sid SocketID)
}
