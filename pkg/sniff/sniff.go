// Package sniff classifies container entries by probing their leading bytes
// against a chain of format recognizers.
//
// Each recognizer is a plain parse function over an io.Reader positioned at
// the start of an entry. It either returns a typed header or an error
// wrapping ErrRecognitionMismatch. The Chain gives every recognizer its own
// section reader over the entry, so a failed probe leaves nothing to undo.
package sniff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrRecognitionMismatch is wrapped by every recognizer failure caused by
	// the data itself: bad signatures, invalid field values, short input.
	ErrRecognitionMismatch = errors.New("recognition mismatch")

	// ErrCipherKeyMissing is returned when JSON decoding is attempted
	// without a key.
	ErrCipherKeyMissing = errors.New("decryption key is required to decode json entries")
)

func mismatch(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRecognitionMismatch, fmt.Sprintf(format, args...))
}

// byteReader reads big-endian fields and turns short reads into mismatches.
type byteReader struct {
	r   io.Reader
	buf [4]byte
}

func (b *byteReader) read(n int, what string) ([]byte, error) {
	if _, err := io.ReadFull(b.r, b.buf[:n]); err != nil {
		return nil, mismatch("failed to read %s: %v", what, err)
	}
	return b.buf[:n], nil
}

func (b *byteReader) u8(what string) (uint8, error) {
	p, err := b.read(1, what)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func (b *byteReader) u16(what string) (uint16, error) {
	p, err := b.read(2, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(p), nil
}

func (b *byteReader) u32(what string) (uint32, error) {
	p, err := b.read(4, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(p), nil
}

func (b *byteReader) skip(n int64, what string) error {
	if n <= 0 {
		return nil
	}
	skipped, err := io.CopyN(io.Discard, b.r, n)
	if err != nil {
		return mismatch("failed to skip %s: %d of %d bytes: %v", what, skipped, n, err)
	}
	return nil
}

func matchSignature(r io.Reader, sig []byte, what string) error {
	buf := make([]byte, len(sig))
	if _, err := io.ReadFull(r, buf); err != nil {
		return mismatch("could not read %s signature: %v", what, err)
	}
	for i := range sig {
		if buf[i] != sig[i] {
			return mismatch("invalid %s signature", what)
		}
	}
	return nil
}
