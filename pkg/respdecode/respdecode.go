// Package respdecode decodes captured HTTP server responses whose body is a
// base64 string holding an XOR-obfuscated JSON document.
//
// The decoded body starts with a 16-byte preamble: eight hex digits of the
// CRC-32 (IEEE) of the document, followed by eight bytes that are ignored.
package respdecode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"strings"
	"unicode"

	"github.com/oiutils/threearc/pkg/extract"
	"github.com/oiutils/threearc/pkg/jsonfmt"
	"github.com/oiutils/threearc/pkg/xor"
)

var (
	ErrKeyMissing       = errors.New("password is required to decode responses")
	ErrEmptyInput       = errors.New("response is empty")
	ErrInvalidBase64    = errors.New("response body is not valid base64")
	ErrShortPayload     = errors.New("decoded body is shorter than its preamble")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

const (
	bodyStart = `"body":"`
	bodyEnd   = `","headers":{"`

	preambleSize = 16
	checksumSize = 8
)

// Options controls decoding.
type Options struct {
	Key []byte
	// Prettify re-indents the document. A document that cannot be
	// re-indented is an error.
	Prettify bool
	// VerifyCRC checks the document against the checksum in the preamble.
	VerifyCRC bool
}

// ParseBody returns the text between the body and headers fields of a
// response dump. When either marker is missing the whole text is assumed to
// be the body already.
func ParseBody(response string) string {
	start := strings.Index(response, bodyStart)
	end := strings.LastIndex(response, bodyEnd)
	if start == -1 || end == -1 {
		return response
	}
	start += len(bodyStart)
	if start >= end {
		return response
	}
	return response[start:end]
}

// Decode extracts the JSON document from a response dump.
func Decode(response string, opts Options) (string, error) {
	if len(opts.Key) == 0 {
		return "", ErrKeyMissing
	}
	if response == "" {
		return "", ErrEmptyInput
	}

	body := strings.ReplaceAll(ParseBody(response), `\/`, "/")
	raw, err := decodeBase64(body)
	if err != nil {
		return "", err
	}

	decoded, err := xor.Apply(raw, opts.Key)
	if err != nil {
		return "", err
	}
	if len(decoded) < preambleSize {
		return "", fmt.Errorf("%w: %d bytes", ErrShortPayload, len(decoded))
	}

	doc := decoded[preambleSize:]
	if opts.VerifyCRC {
		if err := verifyChecksum(decoded[:checksumSize], doc); err != nil {
			return "", err
		}
	}

	text := string(doc)
	if opts.Prettify {
		if text, err = jsonfmt.Reindent(text); err != nil {
			return "", fmt.Errorf("formatting document: %w", err)
		}
	}
	return text, nil
}

// decodeBase64 validates and decodes standard, padded base64. Whitespace
// anywhere in s is ignored.
func decodeBase64(s string) ([]byte, error) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	if compact == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidBase64)
	}
	if len(compact)%4 != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of 4", ErrInvalidBase64, len(compact))
	}

	data, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}
	return data, nil
}

func verifyChecksum(header, doc []byte) error {
	want := string(header)
	got := fmt.Sprintf("%08X", crc32.ChecksumIEEE(doc))
	if !strings.EqualFold(want, got) {
		return fmt.Errorf("%w: %s != %s", ErrChecksumMismatch, want, got)
	}
	return nil
}

// OutputName returns the file name of the decoded document for the
// response at path.
func OutputName(path string) string {
	return extract.Stem(path) + ".json"
}

// DecodeTo decodes the response held by in and writes the document to
// sink. It returns the destination path.
func DecodeTo(sink extract.Sink, in extract.Input, opts Options) (path string, err error) {
	data, err := io.ReadAll(io.NewSectionReader(in.Source, 0, in.Size))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", in.Name, err)
	}

	doc, err := Decode(string(data), opts)
	if err != nil {
		return "", fmt.Errorf("%s: %w", in.Name, err)
	}

	w, path, err := sink.Create(in, OutputName(in.Name))
	if err != nil {
		return path, err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	if _, err := io.WriteString(w, doc); err != nil {
		return path, fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
