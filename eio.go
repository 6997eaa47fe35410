package webpubsub

import (
	"bytes"
	"encoding/base64"
)

// Engine.IO v4 framing. A broadcast is delivered as one service call, so
// the encoded Socket.IO packet and its binary attachments are packed into
// a single Engine.IO payload.
const (
	eioMessageType     = '4'
	eioBinaryMarker    = 'b'
	eioRecordSeparator = 0x1e
)

// encodeEIOPayload wraps the buffers produced by the parser into a single
// Engine.IO payload: the text-encoded packet becomes a message packet,
// each binary attachment a base64 packet, all joined by the record
// separator.
func encodeEIOPayload(buffers [][]byte) []byte {
	if len(buffers) == 0 {
		return nil
	}

	var buf bytes.Buffer
	buf.Grow(1 + len(buffers[0]))
	buf.WriteByte(eioMessageType)
	buf.Write(buffers[0])

	for _, attachment := range buffers[1:] {
		buf.WriteByte(eioRecordSeparator)
		buf.WriteByte(eioBinaryMarker)
		b64 := base64.StdEncoding.EncodeToString(attachment)
		buf.WriteString(b64)
	}
	return buf.Bytes()
}
