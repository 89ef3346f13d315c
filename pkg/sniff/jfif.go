package sniff

import (
	"bytes"
	"io"

	"github.com/oiutils/threearc/pkg/types"
)

// JPEG marker codes (the byte following 0xFF).
const (
	MarkerSOF0 byte = 0xC0
	MarkerSOF1 byte = 0xC1
	MarkerSOF2 byte = 0xC2
	MarkerSOI  byte = 0xD8
	MarkerEOI  byte = 0xD9
	MarkerSOS  byte = 0xDA
	MarkerAPP0 byte = 0xE0

	markerPrefix byte = 0xFF
)

var jfifIdentifier = []byte("JFIF\x00")

// JFIFOptions tunes ParseJFIF.
type JFIFOptions struct {
	// AllowNonAPP0 accepts any segment after start-of-image instead of
	// requiring the JFIF APP0 segment there (e.g. EXIF APP1 files).
	AllowNonAPP0 bool
}

// JFIFResult is the outcome of a JFIF probe.
type JFIFResult struct {
	// Header is set when a start-of-frame segment was parsed.
	Header *types.JFIFHeader
	// SawSOI reports whether the data began with a start-of-image marker,
	// even if the rest of the probe failed.
	SawSOI bool
}

// ParseJFIF scans JPEG segments up to the first SOF0, SOF1 or SOF2 segment
// and returns its frame header. Reaching start-of-scan or end-of-image first
// is a mismatch. The returned result is valid even when err is non-nil, so
// callers can tell "is a JPEG, header not found" from "not a JPEG".
func ParseJFIF(r io.Reader, opts JFIFOptions) (JFIFResult, error) {
	var res JFIFResult
	br := &byteReader{r: r}

	marker, err := readMarker(br)
	if err != nil {
		return res, err
	}
	if marker != MarkerSOI {
		return res, mismatch("first marker 0x%02X is not start of image", marker)
	}
	res.SawSOI = true

	for i := 1; ; i++ {
		marker, err := readMarker(br)
		if err != nil {
			return res, err
		}

		if i == 1 {
			if marker == MarkerAPP0 {
				if err := parseAPP0(br); err != nil {
					return res, err
				}
				continue
			}
			if !opts.AllowNonAPP0 {
				return res, mismatch("application marker 0x%02X is not supported", marker)
			}
		}

		switch marker {
		case MarkerSOS:
			return res, mismatch("unexpected start of scan")
		case MarkerEOI:
			return res, mismatch("unexpected end of image")
		case MarkerSOF0, MarkerSOF1, MarkerSOF2:
			h, err := parseSOF(br, marker)
			if err != nil {
				return res, err
			}
			res.Header = h
			return res, nil
		default:
			if err := skipSegment(br, marker); err != nil {
				return res, err
			}
		}
	}
}

func readMarker(br *byteReader) (byte, error) {
	p, err := br.read(2, "marker")
	if err != nil {
		return 0, err
	}
	if p[0] != markerPrefix {
		return 0, mismatch("first byte of marker is 0x%02X, not 0xFF", p[0])
	}
	return p[1], nil
}

// segmentLength reads a segment length field and returns the number of data
// bytes that follow it. The field counts its own two bytes.
func segmentLength(br *byteReader, marker byte) (int64, error) {
	n, err := br.u16("segment length")
	if err != nil {
		return 0, err
	}
	if n < 2 {
		return 0, mismatch("segment 0x%02X declares length %d", marker, n)
	}
	return int64(n) - 2, nil
}

func skipSegment(br *byteReader, marker byte) error {
	n, err := segmentLength(br, marker)
	if err != nil {
		return err
	}
	return br.skip(n, "segment data")
}

// parseAPP0 validates the JFIF APP0 segment and skips its thumbnail.
func parseAPP0(br *byteReader) error {
	n, err := segmentLength(br, MarkerAPP0)
	if err != nil {
		return err
	}

	ident := make([]byte, len(jfifIdentifier))
	if _, err := io.ReadFull(br.r, ident); err != nil {
		return mismatch("failed to read identifier: %v", err)
	}
	if !bytes.Equal(ident, jfifIdentifier) {
		return mismatch("invalid identifier %q", ident)
	}
	if _, err := br.u16("version"); err != nil {
		return err
	}
	if _, err := br.u8("pixel density units"); err != nil {
		return err
	}
	hDensity, err := br.u16("horizontal pixel density")
	if err != nil {
		return err
	}
	if hDensity == 0 {
		return mismatch("horizontal pixel density is zero")
	}
	vDensity, err := br.u16("vertical pixel density")
	if err != nil {
		return err
	}
	if vDensity == 0 {
		return mismatch("vertical pixel density is zero")
	}
	hThumb, err := br.u8("horizontal thumbnail pixel count")
	if err != nil {
		return err
	}
	vThumb, err := br.u8("vertical thumbnail pixel count")
	if err != nil {
		return err
	}

	thumbnail := 3 * int64(hThumb) * int64(vThumb)
	if err := br.skip(thumbnail, "thumbnail pixels"); err != nil {
		return err
	}

	// identifier(5) version(2) units(1) densities(4) thumbnail counts(2)
	rest := n - 14 - thumbnail
	if rest < 0 {
		return mismatch("APP0 segment length %d is shorter than its fields", n+2)
	}
	return br.skip(rest, "APP0 data")
}

func parseSOF(br *byteReader, marker byte) (*types.JFIFHeader, error) {
	n, err := segmentLength(br, marker)
	if err != nil {
		return nil, err
	}

	h := &types.JFIFHeader{Marker: marker}
	if h.BitDepth, err = br.u8("bit depth"); err != nil {
		return nil, err
	}
	if h.Height, err = br.u16("height"); err != nil {
		return nil, err
	}
	if h.Height == 0 {
		return nil, mismatch("height is zero")
	}
	if h.Width, err = br.u16("width"); err != nil {
		return nil, err
	}
	if h.Width == 0 {
		return nil, mismatch("width is zero")
	}

	// bit depth(1) height(2) width(2)
	rest := n - 5
	if rest < 0 {
		return nil, mismatch("SOF segment length %d is shorter than its fields", n+2)
	}
	if err := br.skip(rest, "remaining frame data"); err != nil {
		return nil, err
	}
	return h, nil
}
