package adapter

import mapset "github.com/deckarep/golang-set/v2"

type BroadcastOptions struct {
	Rooms  mapset.Set[Room]
	Except mapset.Set[Room]
	Flags  BroadcastFlags
}

type BroadcastFlags struct {
	// This flag is unused at the moment, but for compatibility with the socket.io API, it stays here.
	Compress bool

	Local bool
}

func NewBroadcastOptions() *BroadcastOptions {
	return &BroadcastOptions{
		Rooms:  mapset.NewSet[Room](),
		Except: mapset.NewSet[Room](),
	}
}
