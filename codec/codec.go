// Package codec turns session attributes and persistent-login payloads
// into strings and back.
package codec

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// ErrTrailingData is returned by Strict when a document is followed by more input
var ErrTrailingData = errors.New("codec: trailing data after JSON document")

type (
	Encoder interface {
		Encode(v any) (string, error)
	}

	Decoder interface {
		Decode(string, any) error
	}

	Codec interface {
		Encoder
		Decoder
	}

	jsonCodec struct {
		strict bool
	}
)

var (
	// JSON is the codec used for session attributes
	JSON Codec = newCodec(false)

	// Strict rejects fields the target does not declare and anything after
	// the first document, persistent-login payloads are read with it
	Strict Codec = newCodec(true)
)

var _ Codec = (*jsonCodec)(nil)

func newCodec(strict bool) Codec {
	return &jsonCodec{strict: strict}
}

func (c *jsonCodec) Encode(v any) (string, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

func (c *jsonCodec) Decode(data string, v any) error {
	if !c.strict {
		return json.Unmarshal([]byte(data), v)
	}

	dec := json.NewDecoder(strings.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}

	if _, err := dec.Token(); err != io.EOF {
		return ErrTrailingData
	}

	return nil
}
