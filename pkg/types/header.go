package types

// Header is a recognized entry header. The concrete types are PNGHeader,
// JFIFHeader, MP3Marker and JSONPayload.
type Header interface {
	Kind() Kind
	isHeader()
}

// Dimensioned is implemented by headers that carry image dimensions.
type Dimensioned interface {
	Dimensions() (width, height uint32)
}

// PNGHeader holds the fields of a PNG IHDR chunk.
type PNGHeader struct {
	Width             uint32
	Height            uint32
	BitDepth          uint8
	ColorType         uint8
	CompressionMethod uint8
	FilterMethod      uint8
	InterlaceMethod   uint8
}

// Kind returns KindPNG.
func (h *PNGHeader) Kind() Kind { return KindPNG }

// Dimensions returns the image width and height.
func (h *PNGHeader) Dimensions() (uint32, uint32) { return h.Width, h.Height }

func (h *PNGHeader) isHeader() {}

// JFIFHeader holds the fields of a JPEG start-of-frame segment.
type JFIFHeader struct {
	// Marker is the SOF marker the header was read from (0xC0, 0xC1 or 0xC2).
	Marker   byte
	BitDepth uint8
	Width    uint16
	Height   uint16
}

// Kind returns KindJPEG.
func (h *JFIFHeader) Kind() Kind { return KindJPEG }

// Dimensions returns the frame width and height.
func (h *JFIFHeader) Dimensions() (uint32, uint32) { return uint32(h.Width), uint32(h.Height) }

func (h *JFIFHeader) isHeader() {}

// MP3Marker records that an ID3 tag signature was present. No fields are kept.
type MP3Marker struct{}

// Kind returns KindMP3.
func (h *MP3Marker) Kind() Kind { return KindMP3 }

func (h *MP3Marker) isHeader() {}

// JSONPayload is the decoded text of an obfuscated JSON entry.
type JSONPayload struct {
	Text string
}

// Kind returns KindJSON.
func (h *JSONPayload) Kind() Kind { return KindJSON }

func (h *JSONPayload) isHeader() {}
