package discovery

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformed is returned when a datagram is not a valid discovery message.
var ErrMalformed = errors.New("malformed discovery message")

// Kind identifies the discovery message.
type Kind string

// Set of discovery messages.
const (
	Hello    Kind = "HELLO"
	HelloRcv Kind = "HELLO_RCV"
)

// message is the wire form of a discovery message. Args is always null.
type message struct {
	Kind Kind            `json:"kind"`
	Args json.RawMessage `json:"args"`
}

// nullArgs is the only accepted value for args.
var nullArgs = json.RawMessage("null")

// Encode returns the datagram for the specified kind.
func Encode(kind Kind) ([]byte, error) {
	switch kind {
	case Hello, HelloRcv:
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrMalformed, kind)
	}

	return json.Marshal(message{Kind: kind, Args: nullArgs})
}

// Decode parses a datagram. Unknown fields, unknown kinds, a missing or
// non null args and trailing data are all rejected.
func Decode(data []byte) (Kind, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var msg message
	if err := dec.Decode(&msg); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: trailing data", ErrMalformed)
	}

	if !bytes.Equal(msg.Args, nullArgs) {
		return "", fmt.Errorf("%w: args must be null", ErrMalformed)
	}

	switch msg.Kind {
	case Hello, HelloRcv:
		return msg.Kind, nil
	}

	return "", fmt.Errorf("%w: unknown kind %q", ErrMalformed, msg.Kind)
}
