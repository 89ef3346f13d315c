package sniff

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/oiutils/threearc/pkg/container"
	"github.com/oiutils/threearc/pkg/types"
)

// Result is the classification of one entry.
type Result struct {
	Kind types.Kind
	// Header is nil for unrecognized entries and for JPEGs where only the
	// start-of-image marker was found.
	Header types.Header
	// Format is the recognizer that matched. Only meaningful when Kind is
	// not KindUnknown.
	Format Format
}

// Recognized reports whether any recognizer matched.
func (r Result) Recognized() bool {
	return r.Kind != types.KindUnknown
}

// Dimensions returns the image size when the header carries one.
func (r Result) Dimensions() (width, height uint32, ok bool) {
	d, ok := r.Header.(types.Dimensioned)
	if !ok {
		return 0, 0, false
	}
	width, height = d.Dimensions()
	return width, height, true
}

// JSON returns the decoded payload for JSON entries.
func (r Result) JSON() (*types.JSONPayload, bool) {
	p, ok := r.Header.(*types.JSONPayload)
	return p, ok
}

// Chain tries recognizers in order until one matches.
type Chain struct {
	Order []Format
	// Key enables the JSON recognizer. Without it JSON is never attempted.
	Key  []byte
	JFIF JFIFOptions
	// JSONFirst probes entry 0 for JSON before running Order.
	JSONFirst bool
	Logger    logrus.FieldLogger
}

// NewChain returns the chain for a container type using the built-in order.
func NewChain(containerType int, key []byte) *Chain {
	return &Chain{
		Order:     OrderFor(containerType),
		Key:       key,
		JSONFirst: JSONFirstEntry(containerType),
	}
}

// Classify probes entry e of src. Every attempt reads through a fresh
// section reader, so classification never moves any shared position and
// calling it twice yields the same result.
func (c *Chain) Classify(src io.ReaderAt, e container.Entry) Result {
	if c.JSONFirst && e.Index == 0 {
		if res, ok := c.try(FormatJSON, src, e); ok {
			return res
		}
	}

	for _, f := range c.Order {
		if f == FormatJSON && c.JSONFirst && e.Index == 0 {
			continue
		}
		if res, ok := c.try(f, src, e); ok {
			return res
		}
	}

	return Result{Kind: types.KindUnknown}
}

func (c *Chain) try(f Format, src io.ReaderAt, e container.Entry) (Result, bool) {
	r := io.NewSectionReader(src, e.Offset, int64(e.Length))

	var (
		h   types.Header
		err error
	)
	switch f {
	case FormatPNG:
		var png *types.PNGHeader
		if png, err = ParsePNG(r); err == nil {
			h = png
		}
	case FormatJFIF:
		var res JFIFResult
		res, err = ParseJFIF(r, c.JFIF)
		if err == nil {
			h = res.Header
		} else if res.SawSOI {
			c.trace(f, e, err)
			return Result{Kind: types.KindJPEG, Format: f}, true
		}
	case FormatMP3:
		var mp3 *types.MP3Marker
		if mp3, err = ParseMP3(r); err == nil {
			h = mp3
		}
	case FormatJSON:
		if len(c.Key) == 0 {
			return Result{}, false
		}
		var payload *types.JSONPayload
		if payload, err = DecodeJSON(r, int64(e.Length), c.Key); err == nil {
			h = payload
		}
	default:
		return Result{}, false
	}

	if err != nil {
		c.trace(f, e, err)
		return Result{}, false
	}
	return Result{Kind: h.Kind(), Header: h, Format: f}, true
}

func (c *Chain) trace(f Format, e container.Entry, err error) {
	if c.Logger == nil {
		return
	}
	level := logrus.TraceLevel
	if !errors.Is(err, ErrRecognitionMismatch) {
		level = logrus.DebugLevel
	}
	c.Logger.WithFields(logrus.Fields{
		"entry":  e.Index,
		"format": f.String(),
	}).Log(level, err)
}
