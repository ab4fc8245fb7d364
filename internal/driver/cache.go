package driver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"warden/internal/diag"
	"warden/internal/source"
)

// Current schema version - increment when cachePayload format changes.
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores per-unit verdicts keyed by the unit file's content hash.
// A hit replays the stored diagnostics without re-running the verifier.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// cachedNote mirrors diag.Note with file-independent span offsets.
type cachedNote struct {
	Start uint32 `msgpack:"start"`
	End   uint32 `msgpack:"end"`
	Msg   string `msgpack:"msg"`
}

type cachedDiag struct {
	Severity uint8        `msgpack:"sev"`
	Code     uint16       `msgpack:"code"`
	Message  string       `msgpack:"msg"`
	Start    uint32       `msgpack:"start"`
	End      uint32       `msgpack:"end"`
	Notes    []cachedNote `msgpack:"notes,omitempty"`
}

// cachePayload is the on-disk record for one unit verdict. Spans are stored
// as offsets only; the FileID is rebound when the payload is replayed in a
// later run.
type cachePayload struct {
	Schema uint16       `msgpack:"schema"`
	Diags  []cachedDiag `msgpack:"diags"`
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key [32]byte) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "units", hexKey[:2], hexKey+".bin")
}

// Lookup returns the stored verdict for a unit content hash, if any.
// Unreadable or schema-mismatched entries count as misses.
func (c *DiskCache) Lookup(key [32]byte) (*cachePayload, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(key)) // #nosec G304 -- path derived from hash
	if err != nil {
		return nil, false
	}
	var payload cachePayload
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return nil, false
	}
	if payload.Schema != diskCacheSchemaVersion {
		return nil, false
	}
	return &payload, true
}

// Store persists the verdict for a unit content hash.
func (c *DiskCache) Store(key [32]byte, payload *cachePayload) error {
	if c == nil || payload == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	data, err := msgpack.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode cache payload: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache payload: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Join(fmt.Errorf("commit cache payload: %w", err), os.Remove(tmp))
	}
	return nil
}

func payloadFromBag(bag *diag.Bag) *cachePayload {
	payload := &cachePayload{Schema: diskCacheSchemaVersion}
	for _, d := range bag.Items() {
		cd := cachedDiag{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			Start:    d.Primary.Start,
			End:      d.Primary.End,
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, cachedNote{Start: n.Span.Start, End: n.Span.End, Msg: n.Msg})
		}
		payload.Diags = append(payload.Diags, cd)
	}
	return payload
}

func (p *cachePayload) toBag(file source.FileID, maxDiagnostics int) *diag.Bag {
	bag := diag.NewBag(max(maxDiagnostics, len(p.Diags)))
	for _, cd := range p.Diags {
		d := diag.Diagnostic{
			Severity: diag.Severity(cd.Severity),
			Code:     diag.Code(cd.Code),
			Message:  cd.Message,
			Primary:  source.Span{File: file, Start: cd.Start, End: cd.End},
		}
		for _, n := range cd.Notes {
			d.Notes = append(d.Notes, diag.Note{
				Span: source.Span{File: file, Start: n.Start, End: n.End},
				Msg:  n.Msg,
			})
		}
		bag.Add(d)
	}
	return bag
}
