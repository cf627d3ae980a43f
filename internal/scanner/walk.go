package scanner

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	auditerrors "docaudit/internal/errors"
	"docaudit/internal/slogutil"
)

// DefaultExcludes are directory names that never hold documentation worth
// auditing: build artifacts and dependency caches.
var DefaultExcludes = []string{"target", "node_modules", "vendor", "dist", "build", "__pycache__"}

// Options configures a walk.
type Options struct {
	// Exclude lists extra directory names to skip, in addition to hidden
	// directories and DefaultExcludes.
	Exclude []string
	// MaxFileBytes limits content reads; 0 means unlimited.
	MaxFileBytes int64
	Logger       *slog.Logger
}

// Walk traverses root once and returns its FileSet. Only an inaccessible root
// is an error; unreadable entries below it are logged and skipped.
func Walk(root string, opts Options) (*FileSet, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, auditerrors.New(auditerrors.RootInaccessible, "cannot resolve project root "+root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, auditerrors.New(auditerrors.RootInaccessible, "cannot access project root "+root, err)
	}
	if !info.IsDir() {
		return nil, auditerrors.Newf(auditerrors.RootInaccessible, "project root %s is not a directory", root)
	}

	excluded := make(map[string]struct{}, len(DefaultExcludes)+len(opts.Exclude))
	for _, name := range DefaultExcludes {
		excluded[name] = struct{}{}
	}
	for _, name := range opts.Exclude {
		excluded[name] = struct{}{}
	}

	set := &FileSet{
		root:     abs,
		index:    map[string]int64{},
		dirs:     map[string]struct{}{},
		contents: map[string][]byte{},
		maxBytes: opts.MaxFileBytes,
	}

	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == abs {
				return walkErr
			}
			logger.Warn("Skipping unreadable path", "path", p, "error", walkErr.Error())
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if p == abs {
			return nil
		}

		rel, err := filepath.Rel(abs, p)
		if err != nil {
			return nil
		}
		rel = Clean(rel)
		name := d.Name()

		if d.IsDir() {
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if _, skip := excluded[name]; skip {
				return filepath.SkipDir
			}
			set.dirs[rel] = struct{}{}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		var size int64
		if fi, err := d.Info(); err == nil {
			size = fi.Size()
		}
		set.addFile(rel, size)
		return nil
	})
	if err != nil {
		return nil, auditerrors.New(auditerrors.RootInaccessible, "cannot walk project root "+root, err)
	}

	set.finish()
	logger.Debug("Walked project", "root", abs, "files", len(set.files), "dirs", len(set.dirs))
	return set, nil
}
