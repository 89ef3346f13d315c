package sniff

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJFIF(t *testing.T) {
	for _, marker := range []byte{MarkerSOF0, MarkerSOF1, MarkerSOF2} {
		data := jpegBytes(app0(0, 0), segment{marker: 0xDB, data: make([]byte, 65)}, sof(marker, 320, 200))

		res, err := ParseJFIF(bytes.NewReader(data), JFIFOptions{})
		require.NoError(t, err, "marker 0x%02X", marker)
		require.NotNil(t, res.Header)
		assert.True(t, res.SawSOI)
		assert.Equal(t, marker, res.Header.Marker)
		assert.Equal(t, uint8(8), res.Header.BitDepth)
		assert.Equal(t, uint16(320), res.Header.Width)
		assert.Equal(t, uint16(200), res.Header.Height)
	}
}

func TestParseJFIFSkipsThumbnail(t *testing.T) {
	data := jpegBytes(app0(2, 3), sof(MarkerSOF0, 4, 4))

	res, err := ParseJFIF(bytes.NewReader(data), JFIFOptions{})
	require.NoError(t, err)
	assert.Equal(t, uint16(4), res.Header.Width)
}

func TestParseJFIFStopsAfterFrame(t *testing.T) {
	data := jpegBytes(app0(0, 0), sof(MarkerSOF0, 8, 8))
	data = append(data, 0xFF, MarkerSOS, 0xAB)
	r := bytes.NewReader(data)

	_, err := ParseJFIF(r, JFIFOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())
}

func TestParseJFIFRequiresAPP0(t *testing.T) {
	exif := segment{marker: 0xE1, data: []byte("Exif\x00\x00rest")}
	data := jpegBytes(exif, sof(MarkerSOF0, 100, 50))

	res, err := ParseJFIF(bytes.NewReader(data), JFIFOptions{})
	assert.ErrorIs(t, err, ErrRecognitionMismatch)
	assert.True(t, res.SawSOI)
	assert.Nil(t, res.Header)

	res, err = ParseJFIF(bytes.NewReader(data), JFIFOptions{AllowNonAPP0: true})
	require.NoError(t, err)
	assert.Equal(t, uint16(100), res.Header.Width)
	assert.Equal(t, uint16(50), res.Header.Height)
}

func TestParseJFIFMismatch(t *testing.T) {
	zeroDensity := app0(0, 0)
	zeroDensity.data[8], zeroDensity.data[9] = 0, 0

	badIdent := app0(0, 0)
	copy(badIdent.data, "JFXX")

	sos := segment{marker: MarkerSOS, data: []byte{1, 2, 3}}
	eoi := segment{marker: MarkerEOI, data: nil}

	tests := []struct {
		name   string
		data   []byte
		sawSOI bool
	}{
		{"empty", nil, false},
		{"not a jpeg", []byte("GIF89a"), false},
		{"marker without prefix", []byte{0xFF, MarkerSOI, 0x00, MarkerAPP0}, true},
		{"zero density", jpegBytes(zeroDensity, sof(MarkerSOF0, 1, 1)), true},
		{"bad identifier", jpegBytes(badIdent, sof(MarkerSOF0, 1, 1)), true},
		{"start of scan before frame", jpegBytes(app0(0, 0), sos), true},
		{"end of image before frame", jpegBytes(app0(0, 0), eoi), true},
		{"zero width", jpegBytes(app0(0, 0), sof(MarkerSOF0, 0, 10)), true},
		{"zero height", jpegBytes(app0(0, 0), sof(MarkerSOF2, 10, 0)), true},
		{"truncated frame", jpegBytes(app0(0, 0), sof(MarkerSOF0, 10, 10))[:26], true},
		{"soi only", []byte{0xFF, MarkerSOI}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ParseJFIF(bytes.NewReader(tt.data), JFIFOptions{})
			assert.ErrorIs(t, err, ErrRecognitionMismatch)
			assert.Equal(t, tt.sawSOI, res.SawSOI)
			assert.Nil(t, res.Header)
		})
	}
}

func TestParseJFIFShortSegmentLength(t *testing.T) {
	data := []byte{0xFF, MarkerSOI, 0xFF, 0xE1, 0x00, 0x01}

	_, err := ParseJFIF(bytes.NewReader(data), JFIFOptions{AllowNonAPP0: true})
	assert.ErrorIs(t, err, ErrRecognitionMismatch)
}
