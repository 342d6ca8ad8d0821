package grpcsvc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// codecName: content-subtype сообщений CartService (application/grpc+json).
const codecName = "json"

// jsonCodec кодирует сообщения CartService как JSON.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return codecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
