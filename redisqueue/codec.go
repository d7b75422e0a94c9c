package redisqueue

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec converts records to and from queue payloads.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte) (any, error)

	// Name returns the codec identifier used in job files.
	Name() string
}

// Codec names.
const (
	CodecNameJSON    = "json"
	CodecNameMsgpack = "msgpack"
)

// CodecByName returns the codec registered under name. An empty name
// selects JSON.
func CodecByName(name string) (Codec, error) {
	switch name {
	case CodecNameJSON, "":
		return JSONCodec{}, nil
	case CodecNameMsgpack:
		return MsgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("crunch/redisqueue: unknown codec %q", name)
	}
}

// JSONCodec encodes records as JSON. Decoded objects are map[string]any and
// numbers are float64.
type JSONCodec struct{}

func (JSONCodec) Encode(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Decode(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (JSONCodec) Name() string { return CodecNameJSON }

// MsgpackCodec encodes records as MessagePack.
type MsgpackCodec struct{}

func (MsgpackCodec) Encode(v any) ([]byte, error) { return msgpack.Marshal(v) }

func (MsgpackCodec) Decode(data []byte) (any, error) {
	var v any
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (MsgpackCodec) Name() string { return CodecNameMsgpack }
