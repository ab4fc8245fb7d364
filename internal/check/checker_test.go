package check

import (
	"fmt"
	"strings"
	"testing"

	"warden/internal/diag"
	"warden/internal/ir"
	"warden/internal/scopetree"
)

// runCheck builds a unit from the statements, verifies it and returns the
// sorted diagnostic bag.
func runCheck(t *testing.T, stmts ...ir.Stmt) *diag.Bag {
	t.Helper()
	bag, _ := runCheckWithEvents(t, false, stmts...)
	return bag
}

func runCheckWithEvents(t *testing.T, record bool, stmts ...ir.Stmt) (*diag.Bag, []Event) {
	t.Helper()
	unit := &ir.Unit{Name: "test", Stmts: stmts}
	bag := diag.NewBag(64)
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	tree, ok := scopetree.Build(unit, reporter)
	if !ok {
		t.Fatalf("unexpected malformed scope: %s", diagnosticsSummary(bag))
	}
	res := Verify(tree, reporter, Options{RecordEvents: record})
	bag.Sort()
	return bag, res.Events
}

func diagnosticsSummary(bag *diag.Bag) string {
	var parts []string
	for _, d := range bag.Items() {
		parts = append(parts, fmt.Sprintf("%s %q at %s", d.Code.ID(), d.Message, d.Primary))
	}
	if len(parts) == 0 {
		return "<none>"
	}
	return strings.Join(parts, "; ")
}

func codesOf(bag *diag.Bag) []diag.Code {
	codes := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		codes = append(codes, d.Code)
	}
	return codes
}

func expectCodes(t *testing.T, bag *diag.Bag, want ...diag.Code) {
	t.Helper()
	got := codesOf(bag)
	if len(got) != len(want) {
		t.Fatalf("want %d diagnostic(s) %v, got: %s", len(want), want, diagnosticsSummary(bag))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("diagnostic %d: want %s, got %s (%s)", i, want[i].ID(), got[i].ID(), diagnosticsSummary(bag))
		}
	}
}

func decl(name string) ir.Stmt {
	return ir.Stmt{Kind: ir.StmtDeclare, Name: name, Value: ir.ValueMove, HasInit: true}
}

func declCopy(name string) ir.Stmt {
	return ir.Stmt{Kind: ir.StmtDeclare, Name: name, Value: ir.ValueCopy, HasInit: true}
}

func declBare(name string) ir.Stmt {
	return ir.Stmt{Kind: ir.StmtDeclare, Name: name, Value: ir.ValueMove}
}

func assign(name string) ir.Stmt {
	return ir.Stmt{Kind: ir.StmtAssign, Name: name}
}

func moveUse(name string) ir.Stmt {
	return ir.Stmt{Kind: ir.StmtMoveUse, Name: name}
}

func copyUse(name string) ir.Stmt {
	return ir.Stmt{Kind: ir.StmtCopyUse, Name: name}
}

func borrow(ref, target string, kind ir.BorrowKind) ir.Stmt {
	return ir.Stmt{Kind: ir.StmtBorrowCreate, Name: ref, Target: target, Borrow: kind}
}

func useRef(ref string) ir.Stmt {
	return ir.Stmt{Kind: ir.StmtBorrowUse, Name: ref}
}

func blockStart() ir.Stmt { return ir.Stmt{Kind: ir.StmtBlockStart} }
func blockEnd() ir.Stmt   { return ir.Stmt{Kind: ir.StmtBlockEnd} }
