package sniff

import (
	"bytes"
	"encoding/binary"
)

// pngBytes returns a PNG signature followed by an IHDR chunk.
func pngBytes(width, height uint32) []byte {
	var b bytes.Buffer
	b.Write(PNGSignature)
	binary.Write(&b, binary.BigEndian, uint32(13))
	b.WriteString("IHDR")
	binary.Write(&b, binary.BigEndian, width)
	binary.Write(&b, binary.BigEndian, height)
	b.Write([]byte{8, 6, 0, 0, 0})
	binary.Write(&b, binary.BigEndian, uint32(0xDEADBEEF))
	return b.Bytes()
}

type segment struct {
	marker byte
	data   []byte
}

// jpegBytes encodes SOI followed by the given segments, each with a length
// field.
func jpegBytes(segments ...segment) []byte {
	var b bytes.Buffer
	b.Write([]byte{0xFF, MarkerSOI})
	for _, s := range segments {
		b.Write([]byte{0xFF, s.marker})
		binary.Write(&b, binary.BigEndian, uint16(len(s.data)+2))
		b.Write(s.data)
	}
	return b.Bytes()
}

func app0(hThumb, vThumb uint8) segment {
	var b bytes.Buffer
	b.WriteString("JFIF\x00")
	b.Write([]byte{1, 2})  // version
	b.WriteByte(1)         // density unit
	b.Write([]byte{0, 72}) // horizontal density
	b.Write([]byte{0, 72}) // vertical density
	b.Write([]byte{hThumb, vThumb})
	b.Write(make([]byte, 3*int(hThumb)*int(vThumb)))
	return segment{marker: MarkerAPP0, data: b.Bytes()}
}

func sof(marker byte, width, height uint16) segment {
	var b bytes.Buffer
	b.WriteByte(8)
	binary.Write(&b, binary.BigEndian, height)
	binary.Write(&b, binary.BigEndian, width)
	b.Write([]byte{3, 1, 0x22, 0, 2, 0x11, 1, 3, 0x11, 1}) // components
	return segment{marker: marker, data: b.Bytes()}
}

func mp3Bytes() []byte {
	return append([]byte("ID3"), 0x03, 0x00, 0x00, 0, 0, 0, 0x0A, 'a', 'u', 'd', 'i', 'o')
}
