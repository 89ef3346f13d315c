package enum

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/oiutils/threearc/pkg/types"
)

// archiveExt marks files opened as 7z archives.
const archiveExt = ".7z"

// FilesystemEnumerator enumerates containers from a filesystem path.
type FilesystemEnumerator struct {
	config Config
}

// NewFilesystemEnumerator creates a new filesystem enumerator.
func NewFilesystemEnumerator(config Config) *FilesystemEnumerator {
	return &FilesystemEnumerator{config: config}
}

// fileEntry holds metadata collected during the walk phase.
type fileEntry struct {
	path    string
	root    string
	archive bool
}

// Enumerate walks the filesystem and yields containers.
// Phase 1: Walk directory tree and collect eligible file paths (fast, sequential).
// Phase 2: Open files and invoke callback, Jobs at a time.
func (e *FilesystemEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	files, err := e.collect(ctx)
	if err != nil {
		return err
	}

	jobs := e.config.Jobs
	if jobs < 1 {
		jobs = 1
	}

	origCtx := ctx
	g, ctx := errgroup.WithContext(ctx)
	pathsCh := make(chan fileEntry, jobs*2)

	g.Go(func() error {
		defer close(pathsCh)
		for _, f := range files {
			select {
			case pathsCh <- f:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < jobs; i++ {
		g.Go(func() error {
			for f := range pathsCh {
				if err := e.processFile(ctx, f, callback); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// If the caller's context was cancelled but all goroutines finished
	// before noticing, propagate the cancellation.
	return origCtx.Err()
}

// collect returns the eligible files in walk order.
func (e *FilesystemEnumerator) collect(ctx context.Context) ([]fileEntry, error) {
	root := e.config.Root
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("input path: %w", err)
	}

	// A single file is processed whatever the patterns say, as long as its
	// extension names a container type or an archive.
	if !info.IsDir() {
		dir := filepath.Dir(root)
		if e.config.Archives && isArchive(root) {
			return []fileEntry{{path: root, root: dir, archive: true}}, nil
		}
		if _, ok := ContainerType(root); !ok && !e.config.Untyped {
			return nil, nil
		}
		return []fileEntry{{path: root, root: dir}}, nil
	}

	ignore, err := e.loadIgnore()
	if err != nil {
		return nil, err
	}

	var files []fileEntry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if !e.config.IncludeHidden && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			if !matchAny(e.config.DirectoryPatterns, d.Name(), rel) {
				return filepath.SkipDir
			}
			if ignore != nil && ignore.MatchesPath(rel+string(filepath.Separator)) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			if !e.config.FollowSymlinks {
				return nil
			}
			if target, err := os.Stat(path); err != nil || !target.Mode().IsRegular() {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}

		if !e.config.IncludeHidden && isHidden(d.Name()) {
			return nil
		}

		if ignore != nil && ignore.MatchesPath(rel) {
			return nil
		}

		if e.config.Archives && isArchive(path) {
			files = append(files, fileEntry{path: path, root: root, archive: true})
			return nil
		}

		if !matchAny(e.config.FilePatterns, d.Name(), rel) {
			return nil
		}
		if _, ok := ContainerType(path); !ok && !e.config.Untyped {
			return nil
		}

		files = append(files, fileEntry{path: path, root: root})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (e *FilesystemEnumerator) loadIgnore() (*gitignore.GitIgnore, error) {
	if e.config.IgnoreFile == "" {
		return nil, nil
	}
	path := e.config.IgnoreFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.config.Root, path)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	ignore, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading ignore file: %w", err)
	}
	return ignore, nil
}

// processFile opens a single file and invokes the callback.
func (e *FilesystemEnumerator) processFile(ctx context.Context, f fileEntry, callback Callback) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if f.archive {
		return e.processArchive(ctx, f, callback)
	}

	file, err := os.Open(f.path)
	if err != nil {
		return e.fail(f.path, fmt.Errorf("opening container: %w", err))
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return e.fail(f.path, fmt.Errorf("reading container size: %w", err))
	}

	t, _ := ContainerType(f.path)
	return callback(ctx, Container{
		Name:       f.path,
		Root:       f.root,
		Type:       t,
		Provenance: types.FileProvenance{FilePath: f.path},
		Source:     file,
		Size:       info.Size(),
	})
}

func (e *FilesystemEnumerator) fail(path string, err error) error {
	if e.config.OnError == nil {
		return err
	}
	return e.config.OnError(path, err)
}

// matchAny reports whether name (or rel, for patterns with a slash) matches
// one of patterns. No patterns matches everything.
func matchAny(patterns []string, name, rel string) bool {
	if len(patterns) == 0 {
		return true
	}
	rel = filepath.ToSlash(rel)
	for _, p := range patterns {
		target := name
		if strings.Contains(p, "/") {
			target = rel
		}
		if ok, _ := doublestar.Match(p, target); ok {
			return true
		}
	}
	return false
}

func isArchive(path string) bool {
	return strings.EqualFold(filepath.Ext(path), archiveExt)
}

// isHidden checks if a filename is hidden (starts with .).
// The special entries "." and ".." are NOT considered hidden.
func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}
