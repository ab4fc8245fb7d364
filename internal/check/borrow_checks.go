package check

import (
	"warden/internal/diag"
	"warden/internal/ir"
)

// checkBorrowCreate validates a new borrow against the target's state and
// the active borrows, then records it regardless of the outcome.
func (c *checker) checkBorrowCreate(id ir.StmtID) {
	rid := c.tree.RefAt(id)
	ref := c.tree.Refs.Get(rid)
	if ref == nil {
		return
	}
	target := c.binding(ref.Target)
	if target == nil {
		return
	}
	span := c.tree.Unit.SpanFor(id)

	if target.State == ir.StateMoved || target.State == ir.StateDropped {
		if note, ok := c.movedNote(ref.Target); ok {
			c.reportWithNote(diag.BorrowOfMoved, span, note,
				"cannot borrow '%s': its value was %s", target.Name, target.State)
		} else {
			c.report(diag.BorrowOfMoved, span,
				"cannot borrow '%s': its value was %s", target.Name, target.State)
		}
	}

	issue := c.borrows.Begin(rid)
	switch {
	case issue.Kind == IssueConflictShared: // unique requested over shared
		other := c.tree.Refs.Get(issue.Ref)
		c.reportWithNote(diag.BorrowSharedUniqueConflict, span,
			diag.Note{Span: c.tree.Unit.SpanFor(other.Create), Msg: "shared borrow created here"},
			"cannot uniquely borrow '%s' while it is shared-borrowed by '%s'", target.Name, other.Name)
	case issue.Kind == IssueConflictUnique && ref.Kind == ir.BorrowShared:
		other := c.tree.Refs.Get(issue.Ref)
		c.reportWithNote(diag.BorrowSharedUniqueConflict, span,
			diag.Note{Span: c.tree.Unit.SpanFor(other.Create), Msg: "unique borrow created here"},
			"cannot share '%s' while it is uniquely borrowed by '%s'", target.Name, other.Name)
	case issue.Kind == IssueConflictUnique && ref.Kind == ir.BorrowUnique:
		other := c.tree.Refs.Get(issue.Ref)
		c.reportWithNote(diag.BorrowDoubleUnique, span,
			diag.Note{Span: c.tree.Unit.SpanFor(other.Create), Msg: "first unique borrow created here"},
			"second unique borrow of '%s' while '%s' is active", target.Name, other.Name)
	}

	c.logEvent(Event{
		Kind:       EvBorrowStart,
		Ref:        rid,
		BorrowKind: ref.Kind,
		Binding:    ref.Target,
		Stmt:       id,
		Scope:      c.tree.ScopeOf(id),
		Issue:      issue.Kind,
		IssueRef:   issue.Ref,
	})
}

// checkBorrowUse validates a read through a reference: the borrow must still
// be active and its target must not have moved since the borrow began.
func (c *checker) checkBorrowUse(id ir.StmtID) {
	rid := c.tree.RefAt(id)
	ref := c.tree.Refs.Get(rid)
	if ref == nil || !ref.Target.IsValid() {
		return
	}
	span := c.tree.Unit.SpanFor(id)
	target := c.binding(ref.Target)

	if !c.borrows.Active(rid) {
		// Already reported at the scope exit that killed the referent; one
		// finding per borrow is enough there.
		if !c.reportedDangling[rid] {
			c.report(diag.BorrowDangling, span,
				"use of reference '%s' after its borrow ended", ref.Name)
		}
		return
	}

	if target != nil && (target.State == ir.StateMoved || target.State == ir.StateDropped) {
		if note, ok := c.movedNote(ref.Target); ok {
			c.reportWithNote(diag.BorrowDangling, span, note,
				"use of reference '%s' to '%s' whose value was %s", ref.Name, target.Name, target.State)
		} else {
			c.report(diag.BorrowDangling, span,
				"use of reference '%s' to '%s' whose value was %s", ref.Name, target.Name, target.State)
		}
		return
	}

	c.logEvent(Event{Kind: EvRead, Ref: rid, Binding: ref.Target, Stmt: id, Scope: c.tree.ScopeOf(id)})
}

// checkDanglingAtExit rejects borrows whose target dies with the exiting
// scope while uses are still pending further down the statement stream: the
// reference would outlive its referent.
func (c *checker) checkDanglingAtExit(scope ir.ScopeID) {
	sc := c.tree.Scopes.Get(scope)
	if sc == nil || !sc.End.IsValid() {
		return
	}
	span := c.tree.ExitSpan(scope)
	for _, bid := range sc.Bindings {
		shared, unique := c.borrows.ActiveOn(bid)
		refs := shared
		if unique != ir.NoRefID {
			refs = append(append([]ir.RefID{}, shared...), unique)
		}
		for _, rid := range refs {
			ref := c.tree.Refs.Get(rid)
			if ref == nil || ref.LastUse <= sc.End {
				continue
			}
			b := c.binding(bid)
			c.reportWithNote(diag.BorrowDangling, span,
				diag.Note{Span: b.Span, Msg: "borrowed value declared here"},
				"reference '%s' outlives '%s', which dies at end of this block", ref.Name, b.Name)
			c.reportedDangling[rid] = true
			c.borrows.ForceEnd(rid)
			c.logEvent(Event{Kind: EvBorrowEnd, Ref: rid, Binding: bid, Stmt: sc.End, Scope: scope})
		}
	}
}
