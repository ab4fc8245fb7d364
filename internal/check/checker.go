// Package check walks a resolved scope tree in statement order, advancing
// per-binding ownership states and the active-borrow table, and reports every
// rule violation it finds. Violations are recovered locally: the offending
// statement's state effect is applied as if it had happened, so a single
// pass surfaces all independent violations in a unit.
package check

import (
	"fmt"

	"warden/internal/diag"
	"warden/internal/ir"
	"warden/internal/scopetree"
	"warden/internal/source"
)

// Options configures one verification run.
type Options struct {
	// RecordEvents enables the debug event log on the result.
	RecordEvents bool
}

// Verify runs the ownership tracker and the borrow checker over the tree in
// a single forward pass, emitting diagnostics through reporter.
func Verify(tree *scopetree.Tree, reporter diag.Reporter, opts Options) *Result {
	c := &checker{
		tree:             tree,
		reporter:         reporter,
		borrows:          NewBorrowTable(tree),
		movedAt:          make(map[ir.BindingID]ir.StmtID),
		reportedDangling: make(map[ir.RefID]bool),
	}
	if opts.RecordEvents {
		c.log = &eventLog{}
	}

	for i := range tree.Unit.Stmts {
		id := ir.StmtID(i + 1) //nolint:gosec // bounded by decoded slice length
		st := &tree.Unit.Stmts[i]
		switch st.Kind {
		case ir.StmtDeclare:
			c.checkDeclare(id, st)
		case ir.StmtAssign:
			c.checkAssign(id)
		case ir.StmtMoveUse:
			c.checkMoveUse(id)
		case ir.StmtCopyUse:
			c.checkCopyUse(id)
		case ir.StmtBorrowCreate:
			c.checkBorrowCreate(id)
		case ir.StmtBorrowUse:
			c.checkBorrowUse(id)
		case ir.StmtBlockEnd:
			c.exitScope(tree.ScopeOf(id))
		case ir.StmtBlockStart:
			// Scope entry has no ownership effect.
		}
	}
	c.exitScope(tree.Root)

	res := &Result{}
	if c.log != nil {
		res.Events = c.log.events
	}
	return res
}

type checker struct {
	tree             *scopetree.Tree
	reporter         diag.Reporter
	borrows          *BorrowTable
	movedAt          map[ir.BindingID]ir.StmtID
	reportedDangling map[ir.RefID]bool
	log              *eventLog
}

func (c *checker) report(code diag.Code, span source.Span, format string, args ...any) {
	if c.reporter == nil {
		return
	}
	c.reporter.Report(code, diag.SevError, span, fmt.Sprintf(format, args...), nil)
}

func (c *checker) reportWithNote(code diag.Code, span source.Span, note diag.Note, format string, args ...any) {
	if c.reporter == nil {
		return
	}
	c.reporter.Report(code, diag.SevError, span, fmt.Sprintf(format, args...), []diag.Note{note})
}

func (c *checker) binding(id ir.BindingID) *ir.Binding {
	return c.tree.Bindings.Get(id)
}

// movedNote points at the statement that consumed the binding's value.
func (c *checker) movedNote(bid ir.BindingID) (diag.Note, bool) {
	at, ok := c.movedAt[bid]
	if !ok {
		return diag.Note{}, false
	}
	return diag.Note{Span: c.tree.Unit.SpanFor(at), Msg: "value moved here"}, true
}

// exitScope applies scope-exit effects in order: dangling detection while
// borrows are still observable, then borrow expiry, then drops.
func (c *checker) exitScope(scope ir.ScopeID) {
	if !scope.IsValid() {
		return
	}
	c.checkDanglingAtExit(scope)

	for _, rid := range c.borrows.EndScope(scope) {
		c.logEvent(Event{Kind: EvBorrowEnd, Ref: rid, Scope: scope})
	}

	sc := c.tree.Scopes.Get(scope)
	if sc == nil {
		return
	}
	for _, bid := range sc.Bindings {
		b := c.binding(bid)
		if b == nil || b.State != ir.StateOwned {
			continue
		}
		// Implicit drop: no diagnostic, the value simply dies with its scope.
		b.State = ir.StateDropped
		c.logEvent(Event{Kind: EvDrop, Binding: bid, Stmt: sc.End, Scope: scope})
	}
}

func (c *checker) logEvent(ev Event) {
	c.log.add(ev)
}
