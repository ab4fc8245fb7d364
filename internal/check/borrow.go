package check

import (
	"warden/internal/ir"
	"warden/internal/scopetree"
)

// IssueKind enumerates reasons a borrow-related action fails.
type IssueKind uint8

const (
	IssueNone IssueKind = iota
	// IssueConflictShared means an active shared borrow blocks the action.
	IssueConflictShared
	// IssueConflictUnique means an active unique borrow blocks the action.
	IssueConflictUnique
)

// Issue carries information about a blocked action.
type Issue struct {
	Kind IssueKind
	Ref  ir.RefID
}

type borrowState struct {
	shared []ir.RefID
	unique ir.RefID
}

// BorrowTable tracks active borrows per binding during the forward pass.
// Live ranges come precomputed from the scope tree builder: a borrow stays
// active from its creation until the exit of its EndScope.
type BorrowTable struct {
	tree       *scopetree.Tree
	state      map[ir.BindingID]borrowState
	byEndScope map[ir.ScopeID][]ir.RefID
	active     map[ir.RefID]bool
}

// NewBorrowTable builds an empty borrow table for one unit.
func NewBorrowTable(tree *scopetree.Tree) *BorrowTable {
	return &BorrowTable{
		tree:       tree,
		state:      make(map[ir.BindingID]borrowState),
		byEndScope: make(map[ir.ScopeID][]ir.RefID),
		active:     make(map[ir.RefID]bool),
	}
}

// Begin registers the borrow as active and reports the conflict that the
// registration collides with, if any. The borrow is recorded even on
// conflict so later statements are checked against a consistent state.
func (bt *BorrowTable) Begin(rid ir.RefID) Issue {
	ref := bt.tree.Refs.Get(rid)
	if ref == nil || !ref.Target.IsValid() {
		return Issue{}
	}
	state := bt.state[ref.Target]

	issue := Issue{}
	switch ref.Kind {
	case ir.BorrowShared:
		if state.unique != ir.NoRefID {
			issue = Issue{Kind: IssueConflictUnique, Ref: state.unique}
		}
	case ir.BorrowUnique:
		if len(state.shared) > 0 {
			issue = Issue{Kind: IssueConflictShared, Ref: state.shared[0]}
		} else if state.unique != ir.NoRefID {
			issue = Issue{Kind: IssueConflictUnique, Ref: state.unique}
		}
	}

	switch ref.Kind {
	case ir.BorrowShared:
		state.shared = append(state.shared, rid)
	case ir.BorrowUnique:
		state.unique = rid
	}
	bt.state[ref.Target] = state
	bt.byEndScope[ref.EndScope] = append(bt.byEndScope[ref.EndScope], rid)
	bt.active[rid] = true
	return issue
}

// Active reports whether the borrow has begun and not yet expired.
func (bt *BorrowTable) Active(rid ir.RefID) bool {
	return bt.active[rid]
}

// ActiveOn returns the borrows currently held against a binding.
func (bt *BorrowTable) ActiveOn(target ir.BindingID) (shared []ir.RefID, unique ir.RefID) {
	state, ok := bt.state[target]
	if !ok {
		return nil, ir.NoRefID
	}
	return state.shared, state.unique
}

// EndScope expires every borrow whose live range ends at scope and returns
// the expired refs in creation order.
func (bt *BorrowTable) EndScope(scope ir.ScopeID) []ir.RefID {
	ids := bt.byEndScope[scope]
	if len(ids) == 0 {
		return nil
	}
	expired := make([]ir.RefID, 0, len(ids))
	for _, rid := range ids {
		if bt.active[rid] {
			bt.release(rid)
			expired = append(expired, rid)
		}
	}
	delete(bt.byEndScope, scope)
	return expired
}

// ForceEnd expires a single borrow early, used when its target dies while
// uses are still pending.
func (bt *BorrowTable) ForceEnd(rid ir.RefID) {
	if bt.active[rid] {
		bt.release(rid)
	}
}

func (bt *BorrowTable) release(rid ir.RefID) {
	delete(bt.active, rid)
	ref := bt.tree.Refs.Get(rid)
	if ref == nil || !ref.Target.IsValid() {
		return
	}
	state := bt.state[ref.Target]
	switch ref.Kind {
	case ir.BorrowShared:
		state.shared = dropRefID(state.shared, rid)
	case ir.BorrowUnique:
		if state.unique == rid {
			state.unique = ir.NoRefID
		}
	}
	if len(state.shared) == 0 && state.unique == ir.NoRefID {
		delete(bt.state, ref.Target)
	} else {
		bt.state[ref.Target] = state
	}
}

func dropRefID(ids []ir.RefID, target ir.RefID) []ir.RefID {
	for i, id := range ids {
		if id == target {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
