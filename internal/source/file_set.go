package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fortio.org/safecast"
)

// FileSet manages the collection of unit files seen by one verification run.
type FileSet struct {
	files   []File
	index   map[string]FileID // path -> id
	baseDir string
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0),
		index: make(map[string]FileID),
	}
}

// NewFileSetWithBase creates a FileSet with a base directory for relative paths.
func NewFileSetWithBase(baseDir string) *FileSet {
	fs := NewFileSet()
	fs.baseDir = baseDir
	return fs
}

// BaseDir returns the base directory used for relative path formatting.
func (fileSet *FileSet) BaseDir() string {
	if fileSet.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return fileSet.baseDir
}

// Add registers a unit file from its raw bytes and returns a new FileID.
// It always creates a new FileID even if a file with the same path already
// exists; the index keeps the latest version.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	normalized := normalizePath(path)

	lenFiles, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("file set overflow: %w", err))
	}
	id := FileID(lenFiles)
	fileSet.files = append(fileSet.files, File{
		ID:    id,
		Path:  normalized,
		Hash:  sha256.Sum256(content),
		Flags: flags,
	})
	fileSet.index[normalized] = id
	return id
}

// Get returns the file for id. Panics on an unknown id: file IDs are only
// produced by Add, so an out-of-range id is a programming error.
func (fileSet *FileSet) Get(id FileID) *File {
	if int(id) >= len(fileSet.files) {
		panic(fmt.Errorf("unknown file id %d", id))
	}
	return &fileSet.files[id]
}

// Lookup returns the latest FileID registered under path.
func (fileSet *FileSet) Lookup(path string) (FileID, bool) {
	id, ok := fileSet.index[normalizePath(path)]
	return id, ok
}

// Len reports the number of registered files.
func (fileSet *FileSet) Len() int {
	return len(fileSet.files)
}

// FormatPath renders the file path according to mode: "absolute",
// "relative" (to base), "basename", or anything else for the stored path.
func (f *File) FormatPath(mode, base string) string {
	switch mode {
	case "absolute":
		if abs, err := filepath.Abs(f.Path); err == nil {
			return abs
		}
		return f.Path
	case "relative":
		if base != "" {
			if rel, err := filepath.Rel(base, f.Path); err == nil && !strings.HasPrefix(rel, "..") {
				return rel
			}
		}
		return f.Path
	case "basename":
		return filepath.Base(f.Path)
	default:
		return f.Path
	}
}

func normalizePath(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}
