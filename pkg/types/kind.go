package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the classification outcome of a container entry.
type Kind int

const (
	// KindUnknown marks an entry no recognizer accepted; it is raw data.
	KindUnknown Kind = iota
	KindPNG
	KindJPEG
	KindMP3
	KindJSON
)

var kindNames = map[Kind]string{
	KindUnknown: "DAT",
	KindPNG:     "PNG",
	KindJPEG:    "JPG",
	KindMP3:     "MP3",
	KindJSON:    "JSON",
}

var kindExtensions = map[Kind]string{
	KindUnknown: ".dat",
	KindPNG:     ".png",
	KindJPEG:    ".jpg",
	KindMP3:     ".mp3",
	KindJSON:    ".json",
}

// String returns the short tag used in progress output ("PNG", "DAT", ...).
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Extension returns the file extension, including the dot, for exported entries.
func (k Kind) Extension() string {
	if ext, ok := kindExtensions[k]; ok {
		return ext
	}
	return kindExtensions[KindUnknown]
}

// ParseKind parses the short tag produced by String (case-insensitive).
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown kind: %q", s)
}

// MarshalJSON implements json.Marshaler.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
