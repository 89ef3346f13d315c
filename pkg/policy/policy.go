// Package policy decides which classified entries are written out.
package policy

import (
	"fmt"

	"github.com/oiutils/threearc/pkg/sniff"
	"github.com/oiutils/threearc/pkg/types"
)

// Skip reasons recorded on skipped entries.
const (
	ReasonUnknownFirstEntry = "unrecognized first entry"
	ReasonPlaceholderImage  = "placeholder image"
)

// Policy holds the export switches.
type Policy struct {
	// ExportUnknownData exports an unrecognized entry 0. Unrecognized entries
	// at any other index are always exported as raw data.
	ExportUnknownData bool
	// ExportSinglePixelImage exports images whose size is in ExcludedSizes.
	ExportSinglePixelImage bool
	ExcludedSizes          []Size
}

// Default returns the policy used when nothing is configured.
func Default() Policy {
	return Policy{
		ExcludedSizes: append([]Size(nil), DefaultExcludedSizes...),
	}
}

// Decision is the outcome for one entry.
type Decision struct {
	Skip   bool
	Reason string
	// Extension is the output file extension, including the dot.
	Extension string
}

// Decide applies the policy to the entry at index classified as res.
func (p Policy) Decide(index int, res sniff.Result) Decision {
	if index == 0 && !res.Recognized() && !p.ExportUnknownData {
		return Decision{Skip: true, Reason: ReasonUnknownFirstEntry}
	}

	if !p.ExportSinglePixelImage && (res.Kind == types.KindPNG || res.Kind == types.KindJPEG) {
		if w, h, ok := res.Dimensions(); ok && p.Excluded(w, h) {
			return Decision{Skip: true, Reason: fmt.Sprintf("%s %dx%d", ReasonPlaceholderImage, w, h)}
		}
	}

	return Decision{Extension: res.Kind.Extension()}
}

// Excluded reports whether width x height is one of the excluded sizes.
// Both dimensions must match the same pair.
func (p Policy) Excluded(width, height uint32) bool {
	for _, s := range p.ExcludedSizes {
		if s.Width == width && s.Height == height {
			return true
		}
	}
	return false
}
