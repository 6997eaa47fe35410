// Package serializer abstracts the JSON backend used by the packet
// encoder. The adapter's hot path is Encode, but both directions are
// exposed so the host framework can share one backend.
package serializer

import "io"

type (
	JSONSerializer interface {
		JSONMarshalUnmarshaler
		JSONEncodeDecoder
	}

	JSONMarshalUnmarshaler interface {
		Marshal(v any) ([]byte, error)
		Unmarshal(data []byte, v any) error
	}

	JSONEncodeDecoder interface {
		NewEncoder(w io.Writer) JSONEncoder
		NewDecoder(r io.Reader) JSONDecoder
	}

	JSONEncoder interface {
		Encode(v any) error
	}

	JSONDecoder interface {
		Decode(v any) error
	}
)
