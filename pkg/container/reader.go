package container

import (
	"fmt"
	"io"
)

// Reader walks the entries of a container over a random-access source.
//
// The cursor only moves forward: Next returns the entry at the cursor, and
// the caller commits to it with either Skip or Copy. Recognizers probe an
// entry through Section, which never moves the cursor.
type Reader struct {
	src     io.ReaderAt
	size    int64
	header  *Header
	entries []Entry
	pos     int
	cursor  int64
}

// Open reads the header of the container stored in src.
func Open(src io.ReaderAt, size int64) (*Reader, error) {
	h, err := ReadHeader(io.NewSectionReader(src, 0, size), size)
	if err != nil {
		return nil, err
	}
	return &Reader{
		src:     src,
		size:    size,
		header:  h,
		entries: h.Entries(),
		cursor:  h.Size(),
	}, nil
}

// Header returns the decoded entry table.
func (r *Reader) Header() *Header {
	return r.header
}

// Size returns the total input size.
func (r *Reader) Size() int64 {
	return r.size
}

// Source returns the underlying random-access source.
func (r *Reader) Source() io.ReaderAt {
	return r.src
}

// Cursor returns the committed position: the offset of the next entry.
func (r *Reader) Cursor() int64 {
	return r.cursor
}

// Next returns the entry at the cursor, or false once every entry has been
// committed.
func (r *Reader) Next() (Entry, bool) {
	if r.pos >= len(r.entries) {
		return Entry{}, false
	}
	return r.entries[r.pos], true
}

// Section returns a reader bounded to e. Reads through it do not affect the
// cursor, so it can be used any number of times to peek at the entry.
func (r *Reader) Section(e Entry) *io.SectionReader {
	return io.NewSectionReader(r.src, e.Offset, int64(e.Length))
}

// Skip commits the current entry without reading it.
func (r *Reader) Skip() {
	r.advance()
}

// Copy commits the current entry by copying all of its bytes to w. A short
// read yields ErrTruncatedEntry.
func (r *Reader) Copy(w io.Writer) (int64, error) {
	e, ok := r.Next()
	if !ok {
		return 0, io.EOF
	}
	n, err := io.Copy(w, r.Section(e))
	if err != nil {
		return n, fmt.Errorf("copying entry %d: %w", e.Index, err)
	}
	if n < int64(e.Length) {
		return n, fmt.Errorf("%w: entry %d has %d of %d bytes", ErrTruncatedEntry, e.Index, n, e.Length)
	}
	r.advance()
	return n, nil
}

// ReadAll commits the current entry by reading it into memory.
func (r *Reader) ReadAll() ([]byte, error) {
	e, ok := r.Next()
	if !ok {
		return nil, io.EOF
	}
	if e.End() > r.size {
		return nil, fmt.Errorf("%w: entry %d has %d of %d bytes", ErrTruncatedEntry, e.Index, max(r.size-e.Offset, 0), e.Length)
	}
	buf := make([]byte, e.Length)
	n, err := io.ReadFull(r.Section(e), buf)
	if err != nil {
		return nil, fmt.Errorf("%w: entry %d has %d of %d bytes", ErrTruncatedEntry, e.Index, n, e.Length)
	}
	r.advance()
	return buf, nil
}

func (r *Reader) advance() {
	if r.pos >= len(r.entries) {
		return
	}
	r.cursor = r.entries[r.pos].End()
	r.pos++
}
