package sniff

import (
	"io"

	"github.com/oiutils/threearc/pkg/types"
)

// PNGSignature is the eight-byte PNG file signature.
var PNGSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

const (
	pngChunkIHDR    = "IHDR"
	pngIHDRDataSize = 13
)

// ParsePNG reads the PNG signature and the first chunk, which must be IHDR.
// The chunk checksum is read but not verified.
func ParsePNG(r io.Reader) (*types.PNGHeader, error) {
	if err := matchSignature(r, PNGSignature, "png file"); err != nil {
		return nil, err
	}

	br := &byteReader{r: r}

	dataLength, err := br.u32("chunk data length")
	if err != nil {
		return nil, err
	}
	chunkType, err := br.read(4, "chunk type")
	if err != nil {
		return nil, err
	}
	if string(chunkType) != pngChunkIHDR {
		return nil, mismatch("first png chunk is %q, not %s", chunkType, pngChunkIHDR)
	}
	if dataLength != pngIHDRDataSize {
		return nil, mismatch("IHDR data length is %d, expected %d", dataLength, pngIHDRDataSize)
	}

	h := &types.PNGHeader{}
	if h.Width, err = br.u32("width"); err != nil {
		return nil, err
	}
	if h.Height, err = br.u32("height"); err != nil {
		return nil, err
	}
	if h.BitDepth, err = br.u8("bit depth"); err != nil {
		return nil, err
	}
	if h.ColorType, err = br.u8("color type"); err != nil {
		return nil, err
	}
	if h.CompressionMethod, err = br.u8("compression method"); err != nil {
		return nil, err
	}
	if h.FilterMethod, err = br.u8("filter method"); err != nil {
		return nil, err
	}
	if h.InterlaceMethod, err = br.u8("interlace method"); err != nil {
		return nil, err
	}

	if _, err := br.u32("checksum"); err != nil {
		return nil, err
	}

	return h, nil
}
