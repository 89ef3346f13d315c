package sniff

import (
	"fmt"
	"strings"
)

// Format identifies one recognizer in a sniffing order.
type Format int

const (
	FormatPNG Format = iota
	FormatJFIF
	FormatMP3
	FormatJSON
)

var formatNames = map[Format]string{
	FormatPNG:  "png",
	FormatJFIF: "jfif",
	FormatMP3:  "mp3",
	FormatJSON: "json",
}

// String returns the lowercase format name.
func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat parses a format name. "jpg" and "jpeg" are accepted for jfif.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return FormatPNG, nil
	case "jfif", "jpg", "jpeg":
		return FormatJFIF, nil
	case "mp3", "id3":
		return FormatMP3, nil
	case "json":
		return FormatJSON, nil
	}
	return 0, fmt.Errorf("unknown format: %q", s)
}

// ParseOrder parses a list of format names into a sniffing order. Each
// format may appear at most once.
func ParseOrder(names []string) ([]Format, error) {
	seen := make(map[Format]bool, len(names))
	order := make([]Format, 0, len(names))
	for _, name := range names {
		f, err := ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if seen[f] {
			return nil, fmt.Errorf("format %s listed twice", f)
		}
		seen[f] = true
		order = append(order, f)
	}
	return order, nil
}

// Container types with a non-default layout.
const (
	// TypeAudio containers are mostly ID3-tagged audio with no leading
	// JSON manifest.
	TypeAudio = 1
	// TypePhoto containers are mostly JPEG.
	TypePhoto = 6
	// TypeNoManifest containers have no leading JSON manifest.
	TypeNoManifest = 8
)

var defaultOrder = []Format{FormatPNG, FormatJFIF, FormatMP3, FormatJSON}

// Orders maps a container type to its sniffing order. Types without an
// entry use the built-in order for that type.
type Orders map[int][]Format

// For returns the sniffing order for containerType.
func (o Orders) For(containerType int) []Format {
	if order, ok := o[containerType]; ok && len(order) > 0 {
		return order
	}
	return OrderFor(containerType)
}

// OrderFor returns the built-in sniffing order for containerType.
func OrderFor(containerType int) []Format {
	switch containerType {
	case TypeAudio:
		return []Format{FormatMP3, FormatPNG, FormatJFIF, FormatJSON}
	case TypePhoto:
		return []Format{FormatJFIF, FormatPNG, FormatMP3, FormatJSON}
	default:
		return append([]Format(nil), defaultOrder...)
	}
}

// JSONFirstEntry reports whether entry 0 of a container of this type should
// be probed for JSON before the regular chain runs. Most types carry a single
// JSON manifest as their first entry.
func JSONFirstEntry(containerType int) bool {
	return containerType != TypeAudio && containerType != TypeNoManifest
}
