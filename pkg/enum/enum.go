// Package enum discovers container files below an input path.
package enum

import (
	"context"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/oiutils/threearc/pkg/types"
)

// Container is one discovered container, open for reading. Source is only
// valid for the duration of the callback.
type Container struct {
	// Name is the container's path. For archive members it is the member
	// path placed below the archive path without its extension.
	Name string
	// Root is the enumeration root Name was found under.
	Root       string
	Type       int
	Provenance types.Provenance
	Source     io.ReaderAt
	Size       int64
}

// Callback receives each discovered container.
type Callback func(ctx context.Context, c Container) error

// Enumerator discovers containers from a source.
type Enumerator interface {
	// Enumerate yields containers from the source.
	Enumerate(ctx context.Context, callback Callback) error
}

// Config for enumeration.
type Config struct {
	// Root is the starting path for enumeration. It may be a directory or a
	// single container file.
	Root string

	// FilePatterns select container files by name. A pattern containing a
	// slash is matched against the path relative to Root instead.
	FilePatterns []string

	// DirectoryPatterns select which directories are descended into, by name.
	DirectoryPatterns []string

	// IncludeHidden includes hidden files/directories (starting with .).
	IncludeHidden bool

	// FollowSymlinks follows symbolic links to files.
	FollowSymlinks bool

	// IgnoreFile is a gitignore-style file. Relative paths are resolved
	// against Root. A missing file is not an error.
	IgnoreFile string

	// Untyped accepts files without a numeric extension. Their Type is 0.
	Untyped bool

	// Archives opens .7z files and yields their members that match
	// FilePatterns.
	Archives bool

	// MaxMemberSize caps the size of an archive member read into memory
	// (0 = no limit).
	MaxMemberSize int64

	// Jobs is the number of containers processed concurrently (< 1 = 1).
	Jobs int

	// OnError is called for a container that could not be opened. Returning
	// nil continues the enumeration. When unset the error aborts it.
	OnError func(path string, err error) error
}

// ContainerType returns the container type encoded in the extension of
// path, which must be a dot followed by a non-negative decimal number.
func ContainerType(path string) (int, bool) {
	ext := filepath.Ext(path)
	if len(ext) < 2 {
		return 0, false
	}
	digits := ext[1:]
	if strings.TrimLeft(digits, "0123456789") != "" {
		return 0, false
	}
	t, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return t, true
}
