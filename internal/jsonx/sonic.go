// Package jsonx wraps Sonic for JSON serialization on the query hot path.
// API-compatible with the encoding/json subset the server and cache use.
package jsonx

import (
	"io"

	"github.com/bytedance/sonic"
)

// Marshal returns the JSON encoding of v.
func Marshal(v interface{}) ([]byte, error) {
	return sonic.Marshal(v)
}

// Unmarshal parses JSON-encoded data into the value pointed to by v.
func Unmarshal(data []byte, v interface{}) error {
	return sonic.Unmarshal(data, v)
}

// MarshalToString is like Marshal but returns a string, skipping the
// []byte-to-string allocation.
func MarshalToString(v interface{}) (string, error) {
	return sonic.MarshalString(v)
}

// UnmarshalFromString parses a JSON string into v.
func UnmarshalFromString(data string, v interface{}) error {
	return sonic.UnmarshalString(data, v)
}

// DecodeFrom reads everything from r and parses it into v. Request bodies
// are small enough that streaming buys nothing over a single read.
func DecodeFrom(r io.Reader, v interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return sonic.Unmarshal(data, v)
}

// EncodeTo writes the JSON encoding of v to w followed by a newline.
func EncodeTo(w io.Writer, v interface{}) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Valid reports whether data is valid JSON.
func Valid(data []byte) bool {
	return sonic.Valid(data)
}
