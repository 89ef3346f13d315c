// Package container reads the length-prefixed container format.
//
// Layout (all integers little-endian):
//
//	u32 count
//	u32 length[count]
//	entry bytes, back to back, in table order
//
// There is no offset table; an entry's offset is the header size plus the
// lengths of every entry before it.
package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrTruncatedHeader means the count or length table could not be read
	// in full. Every entry boundary depends on the table, so the whole file
	// is abandoned.
	ErrTruncatedHeader = errors.New("truncated container header")

	// ErrTruncatedEntry means an entry's declared length could not be read
	// during a committed read.
	ErrTruncatedEntry = errors.New("truncated container entry")
)

const wordSize = 4

// Header is the decoded entry table of a container.
type Header struct {
	Lengths []uint32
}

// Entry frames one blob inside a container.
type Entry struct {
	Index  int
	Length uint32
	Offset int64
}

// End returns the offset one past the last byte of the entry.
func (e Entry) End() int64 {
	return e.Offset + int64(e.Length)
}

// ReadHeader reads the entry count and length table from r. size is the
// total input length if known, or -1; when known, a table that cannot fit is
// rejected before it is allocated.
func ReadHeader(r io.Reader, size int64) (*Header, error) {
	var word [wordSize]byte

	if _, err := io.ReadFull(r, word[:]); err != nil {
		return nil, fmt.Errorf("%w: reading entry count: %v", ErrTruncatedHeader, err)
	}
	count := binary.LittleEndian.Uint32(word[:])
	if count == 0 {
		return &Header{}, nil
	}

	if size >= 0 && int64(count)*wordSize > size-wordSize {
		return nil, fmt.Errorf("%w: %d entries do not fit in %d bytes", ErrTruncatedHeader, count, size)
	}

	lengths := make([]uint32, count)
	for i := range lengths {
		if _, err := io.ReadFull(r, word[:]); err != nil {
			return nil, fmt.Errorf("%w: reading length of entry %d: %v", ErrTruncatedHeader, i, err)
		}
		lengths[i] = binary.LittleEndian.Uint32(word[:])
	}

	return &Header{Lengths: lengths}, nil
}

// Size returns the encoded size of the header in bytes.
func (h *Header) Size() int64 {
	return wordSize + wordSize*int64(len(h.Lengths))
}

// Count returns the number of entries.
func (h *Header) Count() int {
	return len(h.Lengths)
}

// Entries returns the entries in table order with their cumulative offsets.
func (h *Header) Entries() []Entry {
	entries := make([]Entry, len(h.Lengths))
	off := h.Size()
	for i, n := range h.Lengths {
		entries[i] = Entry{Index: i, Length: n, Offset: off}
		off += int64(n)
	}
	return entries
}

// DataSize returns the sum of all entry lengths.
func (h *Header) DataSize() int64 {
	var total int64
	for _, n := range h.Lengths {
		total += int64(n)
	}
	return total
}

// Encode writes a container holding entries to w. It is the inverse of
// ReadHeader plus the entry data, and is used to build fixtures and repack
// extracted entries.
func Encode(w io.Writer, entries [][]byte) error {
	var word [wordSize]byte

	binary.LittleEndian.PutUint32(word[:], uint32(len(entries)))
	if _, err := w.Write(word[:]); err != nil {
		return fmt.Errorf("writing entry count: %w", err)
	}
	for i, e := range entries {
		if uint64(len(e)) > uint64(^uint32(0)) {
			return fmt.Errorf("entry %d is too large: %d bytes", i, len(e))
		}
		binary.LittleEndian.PutUint32(word[:], uint32(len(e)))
		if _, err := w.Write(word[:]); err != nil {
			return fmt.Errorf("writing length of entry %d: %w", i, err)
		}
	}
	for i, e := range entries {
		if _, err := w.Write(e); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	return nil
}
