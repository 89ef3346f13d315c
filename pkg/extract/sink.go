package extract

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Sink creates the destination for one exported entry.
type Sink interface {
	// Create opens a writer for the file name belonging to container in. It
	// returns the writer and a display path for the destination.
	Create(in Input, name string) (io.WriteCloser, string, error)
	// Remove deletes a destination returned by Create.
	Remove(path string) error
}

// DirSink writes exported entries below a directory.
type DirSink struct {
	// OutputPath is the output root. When empty, entries are written next
	// to their container.
	OutputPath string
	// PreserveStructure keeps the container's directory relative to the
	// enumeration root below OutputPath.
	PreserveStructure bool
}

// Path returns the destination path of name for container in.
func (s DirSink) Path(in Input, name string) string {
	if s.OutputPath == "" {
		return filepath.Join(filepath.Dir(in.Name), name)
	}
	if !s.PreserveStructure {
		return filepath.Join(s.OutputPath, name)
	}
	return filepath.Join(s.OutputPath, relativeDir(in.Root, in.Name), name)
}

// Create makes any missing directories and truncates an existing file.
func (s DirSink) Create(in Input, name string) (io.WriteCloser, string, error) {
	path := s.Path(in, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, path, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, path, fmt.Errorf("creating output file: %w", err)
	}
	return f, path, nil
}

// Remove deletes the file at path.
func (s DirSink) Remove(path string) error {
	return os.Remove(path)
}

// relativeDir returns the directory of name below root. Names outside root
// keep their directory with any leading separator and volume removed.
func relativeDir(root, name string) string {
	dir := filepath.Dir(name)
	if root != "" {
		if rel, err := filepath.Rel(root, dir); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return rel
		}
	}
	dir = strings.TrimPrefix(dir, filepath.VolumeName(dir))
	return strings.TrimLeft(dir, `/\`)
}

// OutputName returns the file name of entry index of the container at path:
// the container's base name without extension, an underscore, the index and
// ext.
func OutputName(path string, index int, ext string) string {
	return fmt.Sprintf("%s_%d%s", Stem(path), index, ext)
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
