package enum

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"

	"github.com/oiutils/threearc/pkg/types"
)

// ErrUnsafeMember is reported for archive members whose name escapes the
// archive's directory.
var ErrUnsafeMember = errors.New("unsafe archive member name")

// processArchive yields the members of a 7z archive that look like
// containers. Members are decompressed into memory one at a time.
func (e *FilesystemEnumerator) processArchive(ctx context.Context, f fileEntry, callback Callback) error {
	r, err := sevenzip.OpenReader(f.path)
	if err != nil {
		return e.fail(f.path, fmt.Errorf("opening archive: %w", err))
	}
	defer r.Close()

	base := strings.TrimSuffix(f.path, filepath.Ext(f.path))

	for _, file := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		if file.FileInfo().IsDir() {
			continue
		}
		name, err := memberName(file.Name)
		if err != nil {
			if err := e.fail(types.ArchiveProvenance{ArchivePath: f.path, MemberPath: file.Name}.Path(), err); err != nil {
				return err
			}
			continue
		}
		if !e.config.IncludeHidden && hasHiddenElement(name) {
			continue
		}
		if !matchAny(e.config.FilePatterns, path.Base(name), name) {
			continue
		}
		t, ok := ContainerType(name)
		if !ok && !e.config.Untyped {
			continue
		}

		prov := types.ArchiveProvenance{ArchivePath: f.path, MemberPath: name}
		data, err := e.readMember(file)
		if err != nil {
			if err := e.fail(prov.Path(), err); err != nil {
				return err
			}
			continue
		}

		err = callback(ctx, Container{
			Name:       filepath.Join(base, filepath.FromSlash(name)),
			Root:       f.root,
			Type:       t,
			Provenance: prov,
			Source:     bytes.NewReader(data),
			Size:       int64(len(data)),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *FilesystemEnumerator) readMember(file *sevenzip.File) ([]byte, error) {
	if limit := e.config.MaxMemberSize; limit > 0 && file.FileInfo().Size() > limit {
		return nil, fmt.Errorf("archive member is %d bytes, limit is %d", file.FileInfo().Size(), limit)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("opening archive member: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading archive member: %w", err)
	}
	return data, nil
}

// memberName cleans a member name to a slash-separated relative path. Names
// that would resolve outside the archive's directory are rejected.
func memberName(raw string) (string, error) {
	name := path.Clean(strings.ReplaceAll(raw, `\`, "/"))
	if path.IsAbs(name) || filepath.VolumeName(name) != "" || (len(name) > 1 && name[1] == ':') ||
		name == ".." || strings.HasPrefix(name, "../") {
		return "", fmt.Errorf("%w: %q", ErrUnsafeMember, raw)
	}
	return name, nil
}

func hasHiddenElement(name string) bool {
	for _, part := range strings.Split(name, "/") {
		if isHidden(part) {
			return true
		}
	}
	return false
}
