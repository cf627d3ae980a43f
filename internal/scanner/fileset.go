// Package scanner produces the single file listing every other component reads.
// The project tree is walked once; afterwards all lookups, globbing and content
// reads go through the FileSet.
package scanner

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/crypto/blake2b"
)

// ErrTooLarge is returned by Read for files above the configured size limit.
var ErrTooLarge = errors.New("file exceeds size limit")

// FileSet is a read-only listing of project-relative, slash-separated paths
// plus a cached content accessor.
type FileSet struct {
	root     string
	files    []string
	index    map[string]int64 // path -> size
	dirs     map[string]struct{}
	contents map[string][]byte
	memory   bool
	maxBytes int64
}

// NewMemory builds a FileSet from in-memory contents. Directories are derived
// from the file paths. Used by tests and by callers that already hold the tree.
func NewMemory(files map[string]string) *FileSet {
	set := &FileSet{
		index:    make(map[string]int64, len(files)),
		dirs:     map[string]struct{}{},
		contents: make(map[string][]byte, len(files)),
		memory:   true,
	}
	for p, content := range files {
		p = Clean(p)
		set.addFile(p, int64(len(content)))
		set.contents[p] = []byte(content)
	}
	set.finish()
	return set
}

// Clean normalises a project-relative path: forward slashes, no leading "./",
// no trailing slash.
func Clean(p string) string {
	p = filepath.ToSlash(p)
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "./")
	if p == "." {
		return ""
	}
	return strings.TrimSuffix(p, "/")
}

func (s *FileSet) addFile(p string, size int64) {
	s.index[p] = size
	for dir := path.Dir(p); dir != "." && dir != "/" && dir != ""; dir = path.Dir(dir) {
		s.dirs[dir] = struct{}{}
	}
}

func (s *FileSet) finish() {
	s.files = make([]string, 0, len(s.index))
	for p := range s.index {
		s.files = append(s.files, p)
	}
	sort.Strings(s.files)
}

// Root returns the absolute project root, or "" for in-memory sets.
func (s *FileSet) Root() string {
	return s.root
}

// Files returns the sorted listing. Callers must not modify it.
func (s *FileSet) Files() []string {
	return s.files
}

// Len returns the number of files in the listing.
func (s *FileSet) Len() int {
	return len(s.files)
}

// HasFile reports whether p is a regular file. Paths outside the listing (for
// example inside a skipped hidden directory) are answered with a single stat.
func (s *FileSet) HasFile(p string) bool {
	p = Clean(p)
	if _, ok := s.index[p]; ok {
		return true
	}
	if s.memory || s.root == "" || p == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(p)))
	return err == nil && info.Mode().IsRegular()
}

// HasDir reports whether p is a directory.
func (s *FileSet) HasDir(p string) bool {
	p = Clean(p)
	if p == "" {
		return true
	}
	if _, ok := s.dirs[p]; ok {
		return true
	}
	if s.memory || s.root == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(p)))
	return err == nil && info.IsDir()
}

// Read returns the content of p, caching disk reads.
func (s *FileSet) Read(p string) ([]byte, error) {
	p = Clean(p)
	if data, ok := s.contents[p]; ok {
		return data, nil
	}
	if s.memory {
		return nil, &fs.PathError{Op: "read", Path: p, Err: fs.ErrNotExist}
	}

	full := filepath.Join(s.root, filepath.FromSlash(p))
	if s.maxBytes > 0 {
		if info, err := os.Stat(full); err == nil && info.Size() > s.maxBytes {
			return nil, fmt.Errorf("%s: %w (%d > %d bytes)", p, ErrTooLarge, info.Size(), s.maxBytes)
		}
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, err
	}
	s.contents[p] = data
	return data, nil
}

// ReadString is Read returning a string.
func (s *FileSet) ReadString(p string) (string, error) {
	data, err := s.Read(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Glob returns the listed files matching a doublestar pattern, in listing order.
// An invalid pattern matches nothing.
func (s *FileSet) Glob(pattern string) []string {
	pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
	var out []string
	for _, p := range s.files {
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			out = append(out, p)
		}
	}
	return out
}

// Under returns the listed files inside dir (recursively), in listing order.
func (s *FileSet) Under(dir string) []string {
	dir = Clean(dir)
	if dir == "" {
		return s.files
	}
	prefix := dir + "/"
	start := sort.SearchStrings(s.files, prefix)
	var out []string
	for _, p := range s.files[start:] {
		if !strings.HasPrefix(p, prefix) {
			break
		}
		out = append(out, p)
	}
	return out
}

// Fingerprint is a blake2b-256 digest over the listing (paths and sizes). Two
// scans of an unchanged tree yield the same fingerprint.
func (s *FileSet) Fingerprint() string {
	h, _ := blake2b.New256(nil)
	for _, p := range s.files {
		fmt.Fprintf(h, "%s\x00%d\n", p, s.index[p])
	}
	return hex.EncodeToString(h.Sum(nil))
}
