package types

import "fmt"

// Provenance tracks where a container was discovered.
type Provenance interface {
	Kind() string
	// Path returns displayable path (if applicable)
	Path() string
}

// FileProvenance for containers read directly from the filesystem.
type FileProvenance struct {
	FilePath string
}

// Kind returns "file".
func (f FileProvenance) Kind() string {
	return "file"
}

// Path returns the file path.
func (f FileProvenance) Path() string {
	return f.FilePath
}

// ArchiveProvenance tracks containers read out of a 7z archive.
type ArchiveProvenance struct {
	ArchivePath string // path to the .7z file
	MemberPath  string // path within the archive (e.g., "data/ui.3")
}

// Kind returns "archive".
func (a ArchiveProvenance) Kind() string {
	return "archive"
}

// Path returns the archive path with member path.
func (a ArchiveProvenance) Path() string {
	return fmt.Sprintf("%s:%s", a.ArchivePath, a.MemberPath)
}
