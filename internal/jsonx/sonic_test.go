package jsonx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routePayload struct {
	Query      string  `json:"query"`
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

func TestMarshalUnmarshal(t *testing.T) {
	in := routePayload{Query: "where is the milk", Intent: "location", Confidence: 0.5}

	data, err := Marshal(in)
	require.NoError(t, err)

	var out routePayload
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestStringVariants(t *testing.T) {
	s, err := MarshalToString(map[string]int{"hits": 3})
	require.NoError(t, err)
	assert.Contains(t, s, `"hits":3`)

	var out map[string]int
	require.NoError(t, UnmarshalFromString(s, &out))
	assert.Equal(t, 3, out["hits"])
}

func TestEncodeToAppendsNewline(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeTo(&buf, map[string]string{"status": "ok"}))
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestDecodeFrom(t *testing.T) {
	var out routePayload
	require.NoError(t, DecodeFrom(strings.NewReader(`{"query":"hi"}`), &out))
	assert.Equal(t, "hi", out.Query)

	assert.Error(t, DecodeFrom(strings.NewReader("{broken"), &out))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid([]byte(`{"a":1}`)))
	assert.False(t, Valid([]byte(`{"a":`)))
}
