package sniff

import (
	"io"
	"unicode/utf8"

	"github.com/oiutils/threearc/pkg/types"
	"github.com/oiutils/threearc/pkg/xor"
)

// DecodeJSON reads exactly length bytes from r, removes the XOR obfuscation
// and returns the text if it is valid UTF-8. The text is not parsed as JSON.
//
// An empty key is a precondition failure (ErrCipherKeyMissing), not a
// mismatch. Empty entries never decode.
func DecodeJSON(r io.Reader, length int64, key []byte) (*types.JSONPayload, error) {
	if len(key) == 0 {
		return nil, ErrCipherKeyMissing
	}
	if length <= 0 {
		return nil, mismatch("empty entry cannot hold json data")
	}

	// The declared length is untrusted; only what can be read is buffered.
	buf, err := io.ReadAll(io.LimitReader(r, length))
	if err != nil {
		return nil, mismatch("could not read json data: %v", err)
	}
	if int64(len(buf)) < length {
		return nil, mismatch("json data has %d of %d bytes", len(buf), length)
	}
	if err := xor.ApplyTo(buf, buf, key); err != nil {
		return nil, err
	}
	if !utf8.Valid(buf) {
		return nil, mismatch("decoded json data is not valid utf-8")
	}

	return &types.JSONPayload{Text: string(buf)}, nil
}
