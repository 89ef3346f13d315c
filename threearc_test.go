package threearc

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oiutils/threearc/pkg/container"
	"github.com/oiutils/threearc/pkg/enum"
	"github.com/oiutils/threearc/pkg/extract"
	"github.com/oiutils/threearc/pkg/store"
	"github.com/oiutils/threearc/pkg/xor"
)

func pngBytes(width, height uint32) []byte {
	var b bytes.Buffer
	b.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'})
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], width)
	binary.BigEndian.PutUint32(ihdr[4:], height)
	ihdr[8] = 8
	_ = binary.Write(&b, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	b.Write(chunk)
	_ = binary.Write(&b, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return b.Bytes()
}

func writeContainer(t *testing.T, path string, entries ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, container.Encode(&buf, entries))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return buf.Bytes()
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	path := filepath.Join(dir, "ui.3")
	mp3 := []byte("ID3\x04\x00\x00\x00\x00\x00\x00")
	writeContainer(t, path, []byte("junk"), pngBytes(1, 1), pngBytes(16, 16), mp3)

	run, err := New(WithOutputDir(out, false)).ExtractFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 4, run.Entries)
	assert.Equal(t, 2, run.Exported)
	assert.Equal(t, 2, run.Skipped)

	data, err := os.ReadFile(filepath.Join(out, "ui_2.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes(16, 16), data)

	data, err = os.ReadFile(filepath.Join(out, "ui_3.mp3"))
	require.NoError(t, err)
	assert.Equal(t, mp3, data)
}

func TestExtractFileWithKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.2")
	enc, err := xor.Apply([]byte(`{"a":1}`), []byte("k"))
	require.NoError(t, err)
	writeContainer(t, path, enc)

	_, err = New(WithKey([]byte("k")), WithPrettify(false)).ExtractFile(context.Background(), path)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "manifest_0.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
}

func TestExtractFileNotAContainer(t *testing.T) {
	_, err := New().ExtractFile(context.Background(), "notes.txt")
	assert.Error(t, err)

	_, err = New().ExtractFile(context.Background(), filepath.Join(t.TempDir(), "missing.3"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtractWithStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ui.3")
	writeContainer(t, path, []byte("junk"), pngBytes(8, 8))

	s := store.NewMemory()
	var seen int
	x := New(WithStore(s), WithOutputDir(filepath.Join(dir, "out"), false), WithRecordFunc(func(Record) error {
		seen++
		return nil
	}))

	_, err := x.ExtractFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, seen)

	runs, err := s.GetContainers()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, path, runs[0].Path)
	assert.Equal(t, path, runs[0].Provenance)

	records, err := s.GetRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, KindPNG, records[1].Kind)
	assert.Equal(t, filepath.Join(dir, "out", "ui_1.png"), records[1].Output)
}

func TestRun(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	writeContainer(t, filepath.Join(root, "a", "one.3"), []byte("hdr"), pngBytes(8, 8))
	writeContainer(t, filepath.Join(root, "b", "two.6"), []byte("hdr"), pngBytes(4, 4), pngBytes(9, 9))
	require.NoError(t, os.WriteFile(filepath.Join(root, "broken.3"), []byte{5, 0}, 0644))

	var mu sync.Mutex
	var failed []string
	x := New(WithOutputDir(out, true))
	en := enum.NewFilesystemEnumerator(enum.Config{Root: root, Jobs: 2})

	sum, err := x.Run(context.Background(), en, func(run *ContainerRun, err error) {
		if err != nil {
			mu.Lock()
			failed = append(failed, filepath.Base(run.Path))
			mu.Unlock()
		}
	})
	require.NoError(t, err)

	assert.Equal(t, Summary{Containers: 3, Failed: 1, Entries: 5, Exported: 2, Skipped: 3}, sum)
	assert.Equal(t, []string{"broken.3"}, failed)

	assert.FileExists(t, filepath.Join(out, "a", "one_1.png"))
	assert.FileExists(t, filepath.Join(out, "b", "two_2.png"))
	assert.NoFileExists(t, filepath.Join(out, "b", "two_1.png"))
}

func TestRunCancelled(t *testing.T) {
	root := t.TempDir()
	writeContainer(t, filepath.Join(root, "a.3"), pngBytes(8, 8))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Run(ctx, enum.NewFilesystemEnumerator(enum.Config{Root: root}), nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClassify(t *testing.T) {
	data := writeContainer(t, filepath.Join(t.TempDir(), "x.3"), []byte("junk"), pngBytes(1, 1), pngBytes(32, 16))

	records, err := New().Classify("x.3", 3, bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.True(t, records[0].Skipped)
	assert.Equal(t, KindUnknown, records[0].Kind)
	assert.True(t, records[1].Skipped)
	assert.False(t, records[2].Skipped)
	assert.Equal(t, "x_2.png", records[2].Output)
	assert.Equal(t, uint32(32), records[2].Width)
	require.NotNil(t, records[2].PNG)

	records, err = New(WithPolicy(Policy{ExportUnknownData: true, ExportSinglePixelImage: true})).
		Classify("x.3", 3, bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, r := range records {
		assert.False(t, r.Skipped)
	}
	assert.Equal(t, "x_0.dat", records[0].Output)
}

func TestClassifyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.6")
	writeContainer(t, path, pngBytes(2, 2))

	records, err := New().ClassifyFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, KindPNG, records[0].Kind)

	_, err = New().ClassifyFile(filepath.Join(t.TempDir(), "x.txt"))
	assert.Error(t, err)
}

func TestClassifyTruncated(t *testing.T) {
	_, err := New().Classify("x.3", 3, bytes.NewReader([]byte{1, 0, 0, 0}), 4)
	assert.ErrorIs(t, err, container.ErrTruncatedHeader)
}

func TestWithConfig(t *testing.T) {
	data := writeContainer(t, filepath.Join(t.TempDir(), "x.3"), []byte("junk"), pngBytes(4, 4))

	cfg := extract.DefaultConfig()
	cfg.Policy.ExportUnknownData = true
	records, err := New(WithConfig(cfg)).Classify("x.3", 3, bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.False(t, records[0].Skipped)
	assert.True(t, records[1].Skipped, "4x4 stays excluded")
}
