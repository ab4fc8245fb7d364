package check

import (
	"testing"

	"warden/internal/diag"
)

func TestUseAfterMove(t *testing.T) {
	bag := runCheck(t,
		decl("x"),
		moveUse("x"),
		copyUse("x"),
	)
	expectCodes(t, bag, diag.OwnUseAfterMove)

	d := bag.Items()[0]
	if d.Primary.Start != 2 {
		t.Fatalf("violation should point at the second use, got span %s", d.Primary)
	}
	if len(d.Notes) != 1 || d.Notes[0].Msg != "value moved here" {
		t.Fatalf("expected a moved-here note, got %+v", d.Notes)
	}
	if d.Notes[0].Span.Start != 1 {
		t.Fatalf("note should point at the move, got span %s", d.Notes[0].Span)
	}
}

func TestMoveAfterMove(t *testing.T) {
	bag := runCheck(t,
		decl("x"),
		moveUse("x"),
		moveUse("x"),
	)
	expectCodes(t, bag, diag.OwnUseAfterMove)
}

func TestEachUseSiteAfterMoveReported(t *testing.T) {
	bag := runCheck(t,
		decl("x"),
		moveUse("x"),
		copyUse("x"),
		moveUse("x"),
	)
	expectCodes(t, bag, diag.OwnUseAfterMove, diag.OwnUseAfterMove)
	items := bag.Items()
	if items[0].Primary == items[1].Primary {
		t.Fatalf("the two violations must point at distinct use sites, both at %s", items[0].Primary)
	}
}

func TestAssignReinitializesMovedBinding(t *testing.T) {
	bag := runCheck(t,
		decl("x"),
		moveUse("x"),
		assign("x"),
		copyUse("x"),
		moveUse("x"),
	)
	if bag.Len() != 0 {
		t.Fatalf("reassignment must make the binding usable again: %s", diagnosticsSummary(bag))
	}
}

func TestCopyKindNeverMoves(t *testing.T) {
	bag := runCheck(t,
		declCopy("n"),
		moveUse("n"),
		moveUse("n"),
		copyUse("n"),
	)
	if bag.Len() != 0 {
		t.Fatalf("copy-kind bindings are duplicated, not consumed: %s", diagnosticsSummary(bag))
	}
}

func TestDeclareWithoutInit(t *testing.T) {
	bag := runCheck(t,
		declBare("x"),
		copyUse("x"),
		assign("x"),
		moveUse("x"),
	)
	if bag.Len() != 0 {
		t.Fatalf("uninitialized bindings produce no ownership errors: %s", diagnosticsSummary(bag))
	}
}

func TestMoveInsideBlockPersistsAfterExit(t *testing.T) {
	bag := runCheck(t,
		decl("x"),
		blockStart(),
		moveUse("x"),
		blockEnd(),
		copyUse("x"),
	)
	expectCodes(t, bag, diag.OwnUseAfterMove)
	if got := bag.Items()[0].Primary.Start; got != 4 {
		t.Fatalf("violation should point at the use after the block, got span start %d", got)
	}
}

func TestShadowingSeparatesStates(t *testing.T) {
	bag := runCheck(t,
		decl("x"),
		blockStart(),
		decl("x"),
		moveUse("x"), // consumes the inner x only
		blockEnd(),
		copyUse("x"), // outer x is untouched
	)
	if bag.Len() != 0 {
		t.Fatalf("shadowed bindings track ownership independently: %s", diagnosticsSummary(bag))
	}
}

func TestDropEventsAtScopeExit(t *testing.T) {
	_, events := runCheckWithEvents(t, true,
		decl("x"),
		blockStart(),
		decl("y"),
		blockEnd(),
		moveUse("x"),
	)

	var drops []Event
	for _, ev := range events {
		if ev.Kind == EvDrop {
			drops = append(drops, ev)
		}
	}
	// y drops with its block; x was moved out and must not drop again.
	if len(drops) != 1 {
		t.Fatalf("want exactly one drop event, got %d: %+v", len(drops), drops)
	}
	if drops[0].Stmt != 4 {
		t.Fatalf("drop should happen at the block end, got stmt %d", drops[0].Stmt)
	}
}

func TestEventsDisabledByDefault(t *testing.T) {
	_, events := runCheckWithEvents(t, false,
		decl("x"),
		moveUse("x"),
	)
	if events != nil {
		t.Fatalf("events must be nil unless recording was requested, got %d", len(events))
	}
}

func TestUnknownNameIsIgnored(t *testing.T) {
	// The frontend is trusted to resolve names; an unresolved use is skipped
	// rather than guessed at.
	bag := runCheck(t,
		decl("x"),
		moveUse("y"),
		copyUse("x"),
	)
	if bag.Len() != 0 {
		t.Fatalf("unresolved names must not produce ownership findings: %s", diagnosticsSummary(bag))
	}
}
