package policy

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is an image size in pixels.
type Size struct {
	Width  uint32
	Height uint32
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// DefaultExcludedSizes are the placeholder images most containers carry.
var DefaultExcludedSizes = []Size{{1, 1}, {4, 4}}

// ParseSize parses "WxH".
func ParseSize(s string) (Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Size{}, fmt.Errorf("invalid image size %q: expected WIDTHxHEIGHT", s)
	}
	width, err := strconv.ParseUint(strings.TrimSpace(w), 10, 32)
	if err != nil {
		return Size{}, fmt.Errorf("invalid image width in %q: %w", s, err)
	}
	height, err := strconv.ParseUint(strings.TrimSpace(h), 10, 32)
	if err != nil {
		return Size{}, fmt.Errorf("invalid image height in %q: %w", s, err)
	}
	return Size{Width: uint32(width), Height: uint32(height)}, nil
}

// ParseSizes parses a "|"-separated list such as "1x1|4x4". Empty items are
// ignored.
func ParseSizes(s string) ([]Size, error) {
	var sizes []Size
	for _, item := range strings.Split(s, "|") {
		if strings.TrimSpace(item) == "" {
			continue
		}
		size, err := ParseSize(item)
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, size)
	}
	return sizes, nil
}

// FormatSizes is the inverse of ParseSizes.
func FormatSizes(sizes []Size) string {
	parts := make([]string, len(sizes))
	for i, s := range sizes {
		parts[i] = s.String()
	}
	return strings.Join(parts, "|")
}
