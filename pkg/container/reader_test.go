package container

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderSkipAndCopy(t *testing.T) {
	data := encode(t, []byte("first"), []byte("second"), []byte("third"))

	r, err := Open(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, int64(16), r.Cursor())

	e, ok := r.Next()
	require.True(t, ok)
	assert.Equal(t, 0, e.Index)
	r.Skip()
	assert.Equal(t, int64(21), r.Cursor())

	// After a skip the next entry starts exactly where the skipped one ended.
	e, ok = r.Next()
	require.True(t, ok)
	assert.Equal(t, 1, e.Index)
	peek := make([]byte, 3)
	_, err = io.ReadFull(r.Section(e), peek)
	require.NoError(t, err)
	assert.Equal(t, "sec", string(peek))

	var out bytes.Buffer
	n, err := r.Copy(&out)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
	assert.Equal(t, "second", out.String())

	buf, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "third", string(buf))

	_, ok = r.Next()
	assert.False(t, ok)
	assert.Equal(t, int64(len(data)), r.Cursor())

	_, err = r.Copy(io.Discard)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderSectionDoesNotMoveCursor(t *testing.T) {
	data := encode(t, []byte("abcdef"))
	src := bytes.NewReader(data)

	r, err := Open(src, int64(len(data)))
	require.NoError(t, err)

	e, _ := r.Next()
	for i := 0; i < 3; i++ {
		got, err := io.ReadAll(r.Section(e))
		require.NoError(t, err)
		assert.Equal(t, "abcdef", string(got))
	}

	assert.Equal(t, int64(8), r.Cursor())
	pos, err := src.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos, "ReadAt must not move the source position")
}

func TestReaderTruncatedEntry(t *testing.T) {
	data := encode(t, []byte("abcdef"))
	data = data[:len(data)-2]

	r, err := Open(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var out bytes.Buffer
	n, err := r.Copy(&out)
	assert.ErrorIs(t, err, ErrTruncatedEntry)
	assert.Equal(t, int64(4), n)

	_, err = r.ReadAll()
	assert.ErrorIs(t, err, ErrTruncatedEntry)
}

func TestReaderReadAllDeclaredLengthBeyondInput(t *testing.T) {
	data := []byte{1, 0, 0, 0, 0xF0, 0xFF, 0xFF, 0xFF, 'a', 'b', 'c', 'd', 'e'}

	r, err := Open(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	_, err = r.ReadAll()
	assert.ErrorIs(t, err, ErrTruncatedEntry)
	assert.Contains(t, err.Error(), "has 5 of 4294967280 bytes")
}

func TestOpenTruncatedHeader(t *testing.T) {
	data := []byte{3, 0, 0, 0, 1, 0, 0, 0}
	_, err := Open(bytes.NewReader(data), int64(len(data)))
	assert.ErrorIs(t, err, ErrTruncatedHeader)
}
