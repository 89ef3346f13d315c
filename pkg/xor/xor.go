// Package xor implements the repeating-key XOR transform used to obfuscate
// JSON entries.
//
// The transform is self-inverse and length-preserving:
//
//	out[i] = in[i] ^ key[i % len(key)]
//
// It has no IV, padding or authentication and is not a cipher in any
// cryptographic sense.
package xor

import (
	"errors"
	"io"
)

// ErrEmptyKey is returned when a transform is requested with an empty key.
var ErrEmptyKey = errors.New("xor: empty key")

// Apply returns data XORed with the repeating key.
func Apply(data, key []byte) ([]byte, error) {
	out := make([]byte, len(data))
	if err := ApplyTo(out, data, key); err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyTo writes src XORed with key into dst. dst must be at least len(src)
// bytes; dst and src may be the same slice.
func ApplyTo(dst, src, key []byte) error {
	return applyAt(dst, src, key, 0)
}

func applyAt(dst, src, key []byte, phase int) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	if len(dst) < len(src) {
		return io.ErrShortBuffer
	}
	xorAt(dst, src, key, phase)
	return nil
}

// xorAt starts at key[phase]. key must be non-empty and dst at least as long
// as src.
func xorAt(dst, src, key []byte, phase int) {
	for i, b := range src {
		dst[i] = b ^ key[(phase+i)%len(key)]
	}
}

// Reader decodes an underlying reader on the fly. The key phase carries
// across Read calls, so reading in chunks gives the same bytes as Apply.
type Reader struct {
	r     io.Reader
	key   []byte
	phase int
}

// NewReader wraps r. It returns ErrEmptyKey if key is empty.
func NewReader(r io.Reader, key []byte) (*Reader, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	return &Reader{r: r, key: key}, nil
}

// Read implements io.Reader.
func (x *Reader) Read(p []byte) (int, error) {
	n, err := x.r.Read(p)
	if n > 0 {
		xorAt(p[:n], p[:n], x.key, x.phase)
		x.phase = (x.phase + n) % len(x.key)
	}
	return n, err
}
