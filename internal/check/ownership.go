package check

import (
	"warden/internal/diag"
	"warden/internal/ir"
)

// checkDeclare fixes the binding's value kind and initial state.
func (c *checker) checkDeclare(id ir.StmtID, st *ir.Stmt) {
	bid := c.tree.BindingAt(id)
	b := c.binding(bid)
	if b == nil {
		return
	}
	if st.HasInit {
		b.State = ir.StateOwned
	} else {
		b.State = ir.StateUninitialized
	}
	c.logEvent(Event{Kind: EvWrite, Binding: bid, Stmt: id, Scope: c.tree.ScopeOf(id)})
}

// checkAssign is drop-then-reinit: always legal state-wise, but rejected
// while any borrow of the target is active (a write is unique access).
func (c *checker) checkAssign(id ir.StmtID) {
	bid := c.tree.BindingAt(id)
	b := c.binding(bid)
	if b == nil {
		return
	}

	span := c.tree.Unit.SpanFor(id)
	shared, unique := c.borrows.ActiveOn(bid)
	switch {
	case len(shared) > 0:
		ref := c.tree.Refs.Get(shared[0])
		c.reportWithNote(diag.BorrowSharedUniqueConflict, span,
			diag.Note{Span: c.tree.Unit.SpanFor(ref.Create), Msg: "shared borrow created here"},
			"cannot assign to '%s' while it is borrowed", b.Name)
	case unique != ir.NoRefID:
		ref := c.tree.Refs.Get(unique)
		c.reportWithNote(diag.BorrowDoubleUnique, span,
			diag.Note{Span: c.tree.Unit.SpanFor(ref.Create), Msg: "unique borrow created here"},
			"cannot assign to '%s' while it is uniquely borrowed", b.Name)
	}

	// Reinit still happens, so later statements see a consistent state.
	b.State = ir.StateOwned
	delete(c.movedAt, bid)
	c.logEvent(Event{Kind: EvWrite, Binding: bid, Stmt: id, Scope: c.tree.ScopeOf(id)})
}

// checkMoveUse consumes the binding's value. Copy-kind bindings are
// duplicated instead and never leave the Owned state.
func (c *checker) checkMoveUse(id ir.StmtID) {
	bid := c.tree.BindingAt(id)
	b := c.binding(bid)
	if b == nil {
		return
	}
	if b.Kind == ir.ValueCopy {
		c.logEvent(Event{Kind: EvRead, Binding: bid, Stmt: id, Scope: c.tree.ScopeOf(id)})
		return
	}
	if b.State == ir.StateMoved {
		span := c.tree.Unit.SpanFor(id)
		if note, ok := c.movedNote(bid); ok {
			c.reportWithNote(diag.OwnUseAfterMove, span, note, "use of moved value '%s'", b.Name)
		} else {
			c.report(diag.OwnUseAfterMove, span, "use of moved value '%s'", b.Name)
		}
		return
	}
	b.State = ir.StateMoved
	if _, exists := c.movedAt[bid]; !exists {
		c.movedAt[bid] = id
	}
	c.logEvent(Event{Kind: EvMove, Binding: bid, Stmt: id, Scope: c.tree.ScopeOf(id)})
}

// checkCopyUse is a non-consuming read; reads are also forbidden after a move.
func (c *checker) checkCopyUse(id ir.StmtID) {
	bid := c.tree.BindingAt(id)
	b := c.binding(bid)
	if b == nil {
		return
	}
	if b.Kind == ir.ValueMove && b.State == ir.StateMoved {
		span := c.tree.Unit.SpanFor(id)
		if note, ok := c.movedNote(bid); ok {
			c.reportWithNote(diag.OwnUseAfterMove, span, note, "use of moved value '%s'", b.Name)
		} else {
			c.report(diag.OwnUseAfterMove, span, "use of moved value '%s'", b.Name)
		}
		return
	}
	c.logEvent(Event{Kind: EvRead, Binding: bid, Stmt: id, Scope: c.tree.ScopeOf(id)})
}
