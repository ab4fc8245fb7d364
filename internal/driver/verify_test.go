package driver

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"warden/internal/diag"
	"warden/internal/ir"
	"warden/internal/pipeline"
	"warden/internal/source"
)

func spanAt(file source.FileID, start, end uint32) source.Span {
	return source.Span{File: file, Start: start, End: end}
}

const unitWithMove = `{
	"unit": "moving",
	"stmts": [
		{"op": "declare", "name": "x"},
		{"op": "move_use", "name": "x"},
		{"op": "copy_use", "name": "x"}
	]
}`

const unitClean = `{
	"unit": "clean",
	"stmts": [
		{"op": "declare", "name": "x"},
		{"op": "block_start"},
		{"op": "borrow_create", "name": "r", "target": "x", "kind": "shared"},
		{"op": "borrow_use", "name": "r"},
		{"op": "block_end"},
		{"op": "move_use", "name": "x"}
	]
}`

const unitMalformed = `{
	"unit": "broken",
	"stmts": [
		{"op": "declare", "name": "x"},
		{"op": "block_end"}
	]
}`

func writeUnit(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func decodeTestUnit(t *testing.T, content string) *ir.Unit {
	t.Helper()
	unit, err := ir.DecodeUnit([]byte(content), ir.FormatJSON, 1)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return unit
}

func TestVerifyUnitIsDeterministic(t *testing.T) {
	first, _ := VerifyUnit(decodeTestUnit(t, unitWithMove), 100, false)
	second, _ := VerifyUnit(decodeTestUnit(t, unitWithMove), 100, false)
	if !reflect.DeepEqual(first.Items(), second.Items()) {
		t.Fatalf("repeated runs must agree:\n%+v\nvs\n%+v", first.Items(), second.Items())
	}
	if first.Len() != 1 || first.Items()[0].Code != diag.OwnUseAfterMove {
		t.Fatalf("want one use-after-move, got %+v", first.Items())
	}
}

func TestVerifyUnitMalformedScope(t *testing.T) {
	bag, events := VerifyUnit(decodeTestUnit(t, unitMalformed), 100, true)
	if bag.Len() != 1 || bag.Items()[0].Code != diag.StructMalformedScope {
		t.Fatalf("a malformed unit yields exactly the structural diagnostic, got %+v", bag.Items())
	}
	if events != nil {
		t.Fatal("no events when the checking pass never ran")
	}
}

func TestListUnitFiles(t *testing.T) {
	dir := t.TempDir()
	writeUnit(t, dir, "b.wir.json", unitClean)
	writeUnit(t, dir, "a.wir.json", unitWithMove)
	writeUnit(t, dir, "notes.txt", "not a unit")
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeUnit(t, sub, "c.wir.json", unitClean)

	files, err := ListUnitFiles(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("want 3 unit files, got %v", files)
	}
	for i := 1; i < len(files); i++ {
		if files[i-1] >= files[i] {
			t.Fatalf("files must be sorted: %v", files)
		}
	}
}

func TestVerifyPathDirectory(t *testing.T) {
	dir := t.TempDir()
	writeUnit(t, dir, "a.wir.json", unitWithMove)
	writeUnit(t, dir, "b.wir.json", unitClean)

	fileSet, results, err := VerifyPath(context.Background(), dir, Options{Jobs: 4})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("want 2 results, got %d", len(results))
	}
	if filepath.Base(results[0].Path) != "a.wir.json" {
		t.Fatalf("results must follow file-name order: %v then %v", results[0].Path, results[1].Path)
	}
	if results[0].Bag.Len() != 1 || results[1].Bag.Len() != 0 {
		t.Fatalf("unexpected verdicts: %d and %d diagnostics",
			results[0].Bag.Len(), results[1].Bag.Len())
	}
	if fileSet.Len() != 2 {
		t.Fatalf("both files must be registered, got %d", fileSet.Len())
	}

	merged := MergeBags(results)
	if merged.Len() != 1 || merged.Items()[0].Code != diag.OwnUseAfterMove {
		t.Fatalf("bad merged bag: %+v", merged.Items())
	}
}

func TestVerifyPathSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeUnit(t, dir, "solo.wir.json", unitClean)

	_, results, err := VerifyPath(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(results) != 1 || results[0].Bag.Len() != 0 {
		t.Fatalf("unexpected results: %+v", results)
	}
	if results[0].Unit == nil || results[0].Unit.Name != "clean" {
		t.Fatalf("decoded unit missing: %+v", results[0].Unit)
	}
}

func TestVerifyPathUndecodableFile(t *testing.T) {
	dir := t.TempDir()
	writeUnit(t, dir, "bad.wir.json", "{{{not json")
	writeUnit(t, dir, "good.wir.json", unitClean)

	_, results, err := VerifyPath(context.Background(), dir, Options{})
	if err != nil {
		t.Fatalf("a broken file must not abort the run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("want 2 results, got %d", len(results))
	}
	bad := results[0]
	if bad.Bag.Len() != 1 || bad.Bag.Items()[0].Code != diag.UnknownCode {
		t.Fatalf("decode failure must land in the bag: %+v", bad.Bag.Items())
	}
	if results[1].Bag.Len() != 0 {
		t.Fatalf("the good file must still verify cleanly: %+v", results[1].Bag.Items())
	}
}

func TestVerifyPathMissing(t *testing.T) {
	if _, _, err := VerifyPath(context.Background(), filepath.Join(t.TempDir(), "nope"), Options{}); err == nil {
		t.Fatal("a missing path is a run-level error")
	}
}

func TestVerifyPathProgressEvents(t *testing.T) {
	dir := t.TempDir()
	writeUnit(t, dir, "a.wir.json", unitClean)

	ch := make(chan pipeline.Event, 64)
	_, _, err := VerifyPath(context.Background(), dir, Options{
		Progress: pipeline.ChannelSink{Ch: ch},
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	close(ch)

	var queued, done bool
	for ev := range ch {
		if ev.Status == pipeline.StatusQueued {
			queued = true
		}
		if ev.Stage == pipeline.StageVerify && ev.Status == pipeline.StatusDone {
			done = true
		}
	}
	if !queued || !done {
		t.Fatalf("expected queued and done events, got queued=%v done=%v", queued, done)
	}
}

func TestVerifyPathRecordsEvents(t *testing.T) {
	dir := t.TempDir()
	writeUnit(t, dir, "a.wir.json", unitClean)

	_, results, err := VerifyPath(context.Background(), dir, Options{RecordEvents: true})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(results) != 1 || len(results[0].Events) == 0 {
		t.Fatal("event recording must flow through to the results")
	}
}

func TestDiskCacheReplay(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	cache, err := OpenDiskCache("warden-test")
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}

	dir := t.TempDir()
	writeUnit(t, dir, "a.wir.json", unitWithMove)
	opts := Options{Cache: cache}

	_, cold, err := VerifyPath(context.Background(), dir, opts)
	if err != nil {
		t.Fatalf("cold run: %v", err)
	}
	if cold[0].FromCache {
		t.Fatal("first run cannot be a cache hit")
	}

	_, warm, err := VerifyPath(context.Background(), dir, opts)
	if err != nil {
		t.Fatalf("warm run: %v", err)
	}
	if !warm[0].FromCache {
		t.Fatal("second run must replay from cache")
	}
	if !reflect.DeepEqual(cold[0].Bag.Items(), warm[0].Bag.Items()) {
		t.Fatalf("replayed verdict must match:\n%+v\nvs\n%+v",
			cold[0].Bag.Items(), warm[0].Bag.Items())
	}

	// Changing the content invalidates the key.
	writeUnit(t, dir, "a.wir.json", unitClean)
	_, again, err := VerifyPath(context.Background(), dir, opts)
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if again[0].FromCache {
		t.Fatal("changed content must miss the cache")
	}
	if again[0].Bag.Len() != 0 {
		t.Fatalf("new content has no findings: %+v", again[0].Bag.Items())
	}
}

func TestCachePayloadRoundTrip(t *testing.T) {
	bag := diag.NewBag(4)
	bag.Add(diag.NewError(diag.BorrowDangling, spanAt(1, 3, 4), "r outlives x").
		WithNote(spanAt(1, 1, 2), "borrowed value declared here"))

	payload := payloadFromBag(bag)
	restored := payload.toBag(7, 100)
	if restored.Len() != 1 {
		t.Fatalf("want 1 diagnostic, got %d", restored.Len())
	}
	d := restored.Items()[0]
	if d.Code != diag.BorrowDangling || d.Primary.File != 7 || d.Primary.Start != 3 {
		t.Fatalf("bad restored diagnostic: %+v", d)
	}
	if len(d.Notes) != 1 || d.Notes[0].Span.File != 7 {
		t.Fatalf("notes must be rebound to the new file: %+v", d.Notes)
	}
}

func TestUnitNameFromPath(t *testing.T) {
	cases := map[string]string{
		"units/core.wir":      "core",
		"units/core.wir.json": "core",
		"core":                "core",
	}
	for path, want := range cases {
		if got := unitNameFromPath(path); got != want {
			t.Errorf("unitNameFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}
