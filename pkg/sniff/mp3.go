package sniff

import (
	"io"

	"github.com/oiutils/threearc/pkg/types"
)

// MP3Signature is the ID3v2 tag signature ("ID3").
var MP3Signature = []byte{0x49, 0x44, 0x33}

// ParseMP3 matches the ID3 signature. Nothing past the signature is parsed.
func ParseMP3(r io.Reader) (*types.MP3Marker, error) {
	if err := matchSignature(r, MP3Signature, "mp3 file"); err != nil {
		return nil, err
	}
	return &types.MP3Marker{}, nil
}
