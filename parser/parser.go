package parser

const ProtocolVersion = 5

type Creator func() Parser

// Parser encodes Socket.IO packets into their wire form.
//
// An adapter only ever emits packets, so decoding is deliberately
// left to the host framework.
type Parser interface {
	// Encode a packet. The first buffer is the text-encoded packet.
	// Subsequent buffers, if any, are binary attachments.
	Encode(header *PacketHeader, v any) (buffers [][]byte, err error)
}
