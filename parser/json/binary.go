package jsonparser

import (
	"errors"
	"fmt"
	"reflect"
)

var errBinaryNotDeconstructable = fmt.Errorf("parser/json: binary value must be a top level element of the event data")

type socketIOBinary interface {
	SocketIOBinary() bool
}

// Binary marks a []byte so it is sent as a Socket.IO binary attachment
// rather than a JSON array of numbers.
type Binary []byte

func (b Binary) SocketIOBinary() bool {
	return true
}

func (b Binary) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	return b, nil
}

func (b *Binary) UnmarshalJSON(data []byte) error {
	if b == nil {
		return errors.New("jsonparser: Binary: UnmarshalJSON on nil pointer")
	}
	*b = append((*b)[0:0], data...)
	return nil
}

type placeholder struct {
	Placeholder bool `json:"_placeholder"`
	Num         int  `json:"num"`
}

func hasBinary(rv reflect.Value) bool {
	rv = unwrap(rv)
	if rv.Kind() != reflect.Slice {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if isBinaryValue(unwrap(rv.Index(i))) {
			return true
		}
	}
	return false
}

// deconstructPacket replaces every binary element of the event data with a
// JSON placeholder and collects the raw bytes as attachments, in order.
// Binary values nested inside maps or structs are not traversed.
func deconstructPacket(rv reflect.Value) (v any, attachments [][]byte, err error) {
	rv = unwrap(rv)
	if rv.Kind() != reflect.Slice {
		return nil, nil, errBinaryNotDeconstructable
	}

	deconstructed := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		el := unwrap(rv.Index(i))
		if isBinaryValue(el) {
			attachments = append(attachments, valueBytes(el))
			deconstructed[i] = placeholder{Placeholder: true, Num: len(attachments) - 1}
		} else {
			deconstructed[i] = rv.Index(i).Interface()
		}
	}
	return &deconstructed, attachments, nil
}

func unwrap(rv reflect.Value) reflect.Value {
	for rv.Kind() == reflect.Interface || rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return rv
		}
		rv = rv.Elem()
	}
	return rv
}

func isBinaryValue(rv reflect.Value) bool {
	if !rv.IsValid() {
		return false
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return true
	}
	if rv.CanInterface() {
		if b, ok := rv.Interface().(socketIOBinary); ok {
			return b.SocketIOBinary()
		}
	}
	return false
}

func valueBytes(rv reflect.Value) []byte {
	b := make([]byte, rv.Len())
	reflect.Copy(reflect.ValueOf(b), rv)
	return b
}
