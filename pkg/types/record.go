package types

// Record describes how one container entry was classified and handled.
// Records are produced for exported and skipped entries alike.
type Record struct {
	Container     string `json:"container"`
	ContainerType int    `json:"container_type"`
	Index         int    `json:"index"`
	Total         int    `json:"total"`
	Kind          Kind   `json:"kind"`

	// HasDimensions is false for entries without a parsed image header,
	// including JPEGs where only the start-of-image marker was seen.
	HasDimensions bool        `json:"has_dimensions"`
	Width         uint32      `json:"width,omitempty"`
	Height        uint32      `json:"height,omitempty"`
	PNG           *PNGHeader  `json:"png,omitempty"`
	JFIF          *JFIFHeader `json:"jfif,omitempty"`

	Offset     int64  `json:"offset"`
	Length     uint32 `json:"length"`
	Skipped    bool   `json:"skipped"`
	SkipReason string `json:"skip_reason,omitempty"`
	Output     string `json:"output,omitempty"`
}

// End returns the offset of the last byte of the entry, or Offset-1 for
// empty entries.
func (r *Record) End() int64 {
	return r.Offset + int64(r.Length) - 1
}

// ContainerStatus is the outcome of processing one container file.
type ContainerStatus string

const (
	ContainerOK     ContainerStatus = "ok"
	ContainerEmpty  ContainerStatus = "empty"
	ContainerFailed ContainerStatus = "failed"
)

// ContainerRun summarises one processed container file.
type ContainerRun struct {
	Path       string          `json:"path"`
	Provenance string          `json:"provenance"`
	Type       int             `json:"type"`
	Size       int64           `json:"size"`
	Entries    int             `json:"entries"`
	Exported   int             `json:"exported"`
	Skipped    int             `json:"skipped"`
	Status     ContainerStatus `json:"status"`
	Error      string          `json:"error,omitempty"`
}
