package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encoding selects how outbound messages are serialised for a session.
// Inbound frames are always JSON.
type Encoding string

const (
	EncodingJSON    Encoding = "json"
	EncodingMsgpack Encoding = "msgpack"
)

func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "", string(EncodingJSON):
		return EncodingJSON, nil
	case string(EncodingMsgpack):
		return EncodingMsgpack, nil
	default:
		return "", fmt.Errorf("unknown encoding %q", s)
	}
}

// Binary reports whether frames must be sent as websocket binary messages.
func (e Encoding) Binary() bool { return e == EncodingMsgpack }

func (e Encoding) Marshal(v any) ([]byte, error) {
	if e != EncodingMsgpack {
		return json.Marshal(v)
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a frame produced by Marshal. Used by clients and tests.
func (e Encoding) Unmarshal(b []byte, v any) error {
	if e != EncodingMsgpack {
		return json.Unmarshal(b, v)
	}
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}
