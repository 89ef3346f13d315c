package sniff

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oiutils/threearc/pkg/xor"
)

func TestDecodeJSON(t *testing.T) {
	plain := []byte(`{"a":1,"b":[2,3]}`)
	enc, err := xor.Apply(plain, []byte("k"))
	require.NoError(t, err)

	p, err := DecodeJSON(bytes.NewReader(enc), int64(len(enc)), []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, string(plain), p.Text)
}

func TestDecodeJSONMissingKey(t *testing.T) {
	_, err := DecodeJSON(bytes.NewReader([]byte("x")), 1, nil)
	assert.ErrorIs(t, err, ErrCipherKeyMissing)
	assert.NotErrorIs(t, err, ErrRecognitionMismatch)
}

func TestDecodeJSONMismatch(t *testing.T) {
	key := []byte("k")

	// Decodes to a lone 0xFF byte.
	_, err := DecodeJSON(bytes.NewReader([]byte{'k' ^ 0xFF}), 1, key)
	assert.ErrorIs(t, err, ErrRecognitionMismatch)

	_, err = DecodeJSON(bytes.NewReader([]byte("abc")), 10, key)
	assert.ErrorIs(t, err, ErrRecognitionMismatch)

	_, err = DecodeJSON(bytes.NewReader(nil), 0, key)
	assert.ErrorIs(t, err, ErrRecognitionMismatch)
}

func TestDecodeJSONDeclaredLengthBeyondData(t *testing.T) {
	key := []byte("k")
	enc, err := xor.Apply([]byte(`{"a"}`), key)
	require.NoError(t, err)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err = DecodeJSON(bytes.NewReader(enc), 0xFFFFFFF0, key)
	runtime.ReadMemStats(&after)

	assert.ErrorIs(t, err, ErrRecognitionMismatch)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20), "buffer must follow the readable bytes")
}

func TestDecodeJSONInvalidUTF8IsUnknown(t *testing.T) {
	// Bytes that do not decode to UTF-8 are not JSON, even on a keyed entry 0.
	key := []byte("k")
	enc, err := xor.Apply([]byte{0xC3, 0x28, 0xFF}, key)
	require.NoError(t, err)

	_, err = DecodeJSON(bytes.NewReader(enc), int64(len(enc)), key)
	assert.ErrorIs(t, err, ErrRecognitionMismatch)
}
