package scanner

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/GoPlasmatic/Reframe-IDE/backend/models"
	"golang.org/x/sync/errgroup"
)

// DefaultFolderName is used when a flat selection carries no folder hierarchy
const DefaultFolderName = "package"

// Filter decides which directory entries are collected
type Filter struct {
	Extensions  []string
	ExcludeDirs []string
}

// DefaultFilter collects JSON files and skips dependency folders
func DefaultFilter() Filter {
	return Filter{
		Extensions:  []string{".json"},
		ExcludeDirs: []string{"node_modules"},
	}
}

// Skip reports whether an entry and everything below it is ignored.
// Hidden entries are always skipped.
func (f Filter) Skip(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, dir := range f.ExcludeDirs {
		if name == dir {
			return true
		}
	}
	return false
}

// Accept reports whether a file with this name is read
func (f Filter) Accept(name string) bool {
	for _, ext := range f.Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Collector turns a package folder into file entries
type Collector struct {
	filter      Filter
	concurrency int
}

// New creates a new collector
func New(filter Filter, concurrency int) *Collector {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Collector{filter: filter, concurrency: concurrency}
}

// Result represents the files of a package folder
type Result struct {
	Files      []models.FileEntry
	FolderName string
	Skipped    []error
}

// SelectedFile is one file of a flat selection. RelativePath includes the selected
// root folder as its first segment, e.g. "my-package/transform/a.json".
type SelectedFile struct {
	Name         string
	RelativePath string
	Open         func() (io.ReadCloser, error)
}

// CollectPath walks a directory on disk
func (c *Collector) CollectPath(ctx context.Context, root string) (*Result, error) {
	absPath, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", root, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("path not found %s: %w", absPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", absPath)
	}

	return c.CollectDir(ctx, os.DirFS(absPath), filepath.Base(absPath))
}

// CollectDir walks fsys depth-first, collecting accepted files in walk order.
// Unreadable files and subdirectories are skipped with a warning.
func (c *Collector) CollectDir(ctx context.Context, fsys fs.FS, folderName string) (*Result, error) {
	result := &Result{FolderName: folderName}

	var paths []string
	walkFn := func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if p == "." {
				return err
			}
			log.Printf("Warning: Failed to read %s: %v", p, err)
			result.Skipped = append(result.Skipped, fmt.Errorf("%s: %w", p, err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if p == "." {
			return nil
		}

		if c.filter.Skip(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !c.filter.Accept(d.Name()) {
			return nil
		}

		paths = append(paths, p)
		return nil
	}

	if err := fs.WalkDir(fsys, ".", walkFn); err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", folderName, err)
	}

	files, skipped, err := c.readAll(ctx, paths, func(p string) (io.ReadCloser, error) {
		return fsys.Open(p)
	})
	if err != nil {
		return nil, err
	}
	result.Files = files
	result.Skipped = append(result.Skipped, skipped...)
	return result, nil
}

// CollectSelection normalizes a flat file selection. The first path segment names the
// selected folder and is stripped so paths are package-relative.
func (c *Collector) CollectSelection(ctx context.Context, selection []SelectedFile) (*Result, error) {
	result := &Result{FolderName: DefaultFolderName}

	var paths []string
	openers := make(map[string]func() (io.ReadCloser, error))
	for _, f := range selection {
		relativePath := filepath.ToSlash(f.RelativePath)
		if relativePath == "" {
			relativePath = f.Name
		}

		parts := strings.Split(relativePath, "/")
		if result.FolderName == DefaultFolderName && len(parts) > 1 && parts[0] != "" {
			result.FolderName = parts[0]
		}

		p := strings.Join(parts[1:], "/")
		if p == "" {
			p = f.Name
		}

		if !c.filter.Accept(f.Name) {
			continue
		}
		if _, dup := openers[p]; !dup {
			paths = append(paths, p)
		}
		openers[p] = f.Open
	}

	files, skipped, err := c.readAll(ctx, paths, func(p string) (io.ReadCloser, error) {
		open := openers[p]
		if open == nil {
			return nil, fmt.Errorf("file is not readable")
		}
		return open()
	})
	if err != nil {
		return nil, err
	}
	result.Files = files
	result.Skipped = skipped
	return result, nil
}

// readAll reads files concurrently, keeping input order. Per-file failures are
// returned as skipped; only cancellation aborts.
func (c *Collector) readAll(ctx context.Context, paths []string, open func(string) (io.ReadCloser, error)) ([]models.FileEntry, []error, error) {
	contents := make([]*string, len(paths))
	failures := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := readFile(open, p)
			if err != nil {
				log.Printf("Warning: Failed to read file %s: %v", p, err)
				failures[i] = fmt.Errorf("%s: %w", p, err)
				return nil
			}
			contents[i] = &content
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	files := make([]models.FileEntry, 0, len(paths))
	var skipped []error
	for i, p := range paths {
		if failures[i] != nil {
			skipped = append(skipped, failures[i])
			continue
		}
		files = append(files, models.FileEntry{Path: path.Clean(p), Content: *contents[i]})
	}
	return files, skipped, nil
}

func readFile(open func(string) (io.ReadCloser, error), p string) (string, error) {
	rc, err := open(p)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
