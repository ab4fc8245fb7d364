// Package driver orchestrates verification of unit files: decoding, scope
// building, checking and deterministic aggregation of diagnostics.
package driver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"warden/internal/check"
	"warden/internal/diag"
	"warden/internal/ir"
	"warden/internal/pipeline"
	"warden/internal/scopetree"
	"warden/internal/source"
)

// Options configures a verification run.
type Options struct {
	// MaxDiagnostics bounds the number of diagnostics kept per unit.
	MaxDiagnostics int
	// Jobs is the max number of parallel workers (0 = GOMAXPROCS).
	Jobs int
	// RecordEvents enables the checker's debug event stream.
	RecordEvents bool
	// Progress receives per-unit events; nil means no reporting.
	Progress pipeline.ProgressSink
	// Cache, when non-nil, short-circuits units whose content hash has a
	// stored verdict.
	Cache *DiskCache
}

func (o Options) maxDiagnostics() int {
	if o.MaxDiagnostics <= 0 {
		return 100
	}
	return o.MaxDiagnostics
}

// UnitResult is the outcome for a single unit file.
type UnitResult struct {
	Path   string
	FileID source.FileID
	Unit   *ir.Unit
	Bag    *diag.Bag
	Events []check.Event
	// FromCache marks a verdict replayed from the disk cache.
	FromCache bool
}

// VerifyUnit runs the verifier over an already-decoded unit. Diagnostics
// come back sorted and deduplicated; Events is non-nil only when requested.
func VerifyUnit(unit *ir.Unit, maxDiagnostics int, recordEvents bool) (*diag.Bag, []check.Event) {
	bag := diag.NewBag(maxDiagnostics)
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: bag})

	tree, ok := scopetree.Build(unit, reporter)
	if !ok {
		// Fatal structural diagnostic; the bag holds exactly that one.
		return bag, nil
	}

	res := check.Verify(tree, reporter, check.Options{RecordEvents: recordEvents})
	bag.Sort()
	return bag, res.Events
}

// ListUnitFiles returns a sorted list of all unit files under dir.
func ListUnitFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && ir.DetectFormat(path) != ir.FormatUnknown {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Deterministic merge order regardless of walk order.
	sort.Strings(files)
	return files, nil
}

// VerifyPath verifies a single unit file or every unit file under a
// directory. Results come back in file-name order; per-file IO failures are
// reported inside the result's Bag so one broken file does not abort the run.
func VerifyPath(ctx context.Context, path string, opts Options) (*source.FileSet, []UnitResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}

	var files []string
	baseDir := path
	if info.IsDir() {
		files, err = ListUnitFiles(path)
		if err != nil {
			return nil, nil, err
		}
	} else {
		files = []string{path}
		baseDir = filepath.Dir(path)
	}

	fileSet := source.NewFileSetWithBase(baseDir)
	if len(files) == 0 {
		return fileSet, nil, nil
	}

	// Register files up front so FileIDs follow file-name order and the
	// merged output stays deterministic.
	contents := make([][]byte, len(files))
	loadErrs := make([]error, len(files))
	fileIDs := make([]source.FileID, len(files))
	for i, p := range files {
		data, readErr := os.ReadFile(p) // #nosec G304 -- path comes from the caller
		if readErr != nil {
			loadErrs[i] = readErr
			fileIDs[i] = fileSet.Add(p, nil, 0)
			continue
		}
		contents[i] = data
		fileIDs[i] = fileSet.Add(p, data, 0)
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	progress := opts.Progress
	if progress == nil {
		progress = pipeline.NopSink{}
	}
	for _, p := range files {
		progress.OnEvent(pipeline.Event{File: p, Stage: pipeline.StageLoad, Status: pipeline.StatusQueued})
	}

	// Worker i owns results[i]; no locking needed.
	results := make([]UnitResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, p := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			started := time.Now()
			progress.OnEvent(pipeline.Event{File: p, Stage: pipeline.StageLoad, Status: pipeline.StatusWorking})
			results[i] = verifyOne(p, fileIDs[i], contents[i], loadErrs[i], fileSet, opts, progress)
			status := pipeline.StatusDone
			if results[i].Bag.HasErrors() {
				status = pipeline.StatusError
			}
			progress.OnEvent(pipeline.Event{File: p, Stage: pipeline.StageVerify, Status: status, Elapsed: time.Since(started)})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fileSet, results, err
	}
	return fileSet, results, nil
}

func verifyOne(path string, fileID source.FileID, content []byte, loadErr error, fileSet *source.FileSet, opts Options, progress pipeline.ProgressSink) UnitResult {
	bag := diag.NewBag(opts.maxDiagnostics())
	res := UnitResult{Path: path, FileID: fileID, Bag: bag}

	if loadErr != nil {
		bag.Add(diag.Diagnostic{
			Severity: diag.SevError,
			Code:     diag.UnknownCode,
			Message:  "failed to load unit file: " + loadErr.Error(),
			Primary:  source.Span{File: fileID},
		})
		return res
	}

	if opts.Cache != nil {
		if payload, ok := opts.Cache.Lookup(fileSet.Get(fileID).Hash); ok {
			res.Bag = payload.toBag(fileID, opts.maxDiagnostics())
			res.FromCache = true
			return res
		}
	}

	unit, err := ir.DecodeUnit(content, ir.DetectFormat(path), fileID)
	if err != nil {
		bag.Add(diag.Diagnostic{
			Severity: diag.SevError,
			Code:     diag.UnknownCode,
			Message:  "failed to decode unit: " + err.Error(),
			Primary:  source.Span{File: fileID},
		})
		return res
	}
	if unit.Name == "" {
		unit.Name = unitNameFromPath(path)
	}
	res.Unit = unit

	progress.OnEvent(pipeline.Event{File: path, Stage: pipeline.StageVerify, Status: pipeline.StatusWorking})
	res.Bag, res.Events = VerifyUnit(unit, opts.maxDiagnostics(), opts.RecordEvents)

	if opts.Cache != nil {
		// Cache write failures are non-fatal: the verdict was computed.
		_ = opts.Cache.Store(fileSet.Get(fileID).Hash, payloadFromBag(res.Bag))
	}
	return res
}

func unitNameFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".wir.json")
	base = strings.TrimSuffix(base, ".wir")
	return base
}

// MergeBags combines per-unit bags in result order into one sorted bag.
func MergeBags(results []UnitResult) *diag.Bag {
	total := 0
	for _, r := range results {
		total += r.Bag.Len()
	}
	merged := diag.NewBag(max(total, 1))
	for _, r := range results {
		merged.Merge(r.Bag)
	}
	merged.Sort()
	return merged
}
