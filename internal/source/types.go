package source

type (
	// FileID uniquely identifies a unit file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a unit file.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota
	// FileSyntheticSpans indicates statement spans were synthesized from
	// statement indices because the frontend supplied no source positions.
	FileSyntheticSpans
)

// File captures metadata for a single unit file.
// Content is not retained: the verifier consumes an already-decoded IR and
// only needs the path for display and the hash for cache keying.
type File struct {
	ID    FileID
	Path  string
	Hash  [32]byte
	Flags FileFlags
}
