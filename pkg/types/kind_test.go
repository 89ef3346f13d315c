package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindExtension(t *testing.T) {
	tests := []struct {
		kind Kind
		ext  string
		name string
	}{
		{KindUnknown, ".dat", "DAT"},
		{KindPNG, ".png", "PNG"},
		{KindJPEG, ".jpg", "JPG"},
		{KindMP3, ".mp3", "MP3"},
		{KindJSON, ".json", "JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ext, tt.kind.Extension())
			assert.Equal(t, tt.name, tt.kind.String())
		})
	}
}

func TestKindOutOfRange(t *testing.T) {
	k := Kind(42)
	assert.Equal(t, ".dat", k.Extension())
	assert.Equal(t, "Kind(42)", k.String())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("jpg")
	require.NoError(t, err)
	assert.Equal(t, KindJPEG, k)

	_, err = ParseKind("gif")
	assert.Error(t, err)
}

func TestKindJSON(t *testing.T) {
	data, err := json.Marshal(KindMP3)
	require.NoError(t, err)
	assert.Equal(t, `"MP3"`, string(data))

	var k Kind
	require.NoError(t, json.Unmarshal([]byte(`"PNG"`), &k))
	assert.Equal(t, KindPNG, k)

	assert.Error(t, json.Unmarshal([]byte(`"BMP"`), &k))
}

func TestHeaderKinds(t *testing.T) {
	var headers = []Header{
		&PNGHeader{Width: 2, Height: 3},
		&JFIFHeader{Width: 4, Height: 5},
		&MP3Marker{},
		&JSONPayload{Text: "{}"},
	}
	want := []Kind{KindPNG, KindJPEG, KindMP3, KindJSON}

	for i, h := range headers {
		assert.Equal(t, want[i], h.Kind())
	}

	w, h := headers[0].(Dimensioned).Dimensions()
	assert.Equal(t, uint32(2), w)
	assert.Equal(t, uint32(3), h)

	w, h = headers[1].(Dimensioned).Dimensions()
	assert.Equal(t, uint32(4), w)
	assert.Equal(t, uint32(5), h)

	_, ok := headers[2].(Dimensioned)
	assert.False(t, ok)
}

func TestRecordEnd(t *testing.T) {
	r := Record{Offset: 12, Length: 8}
	assert.Equal(t, int64(19), r.End())
}
