// Package scopetree turns a unit's flat statement sequence into an explicit
// scope tree, resolves binding and reference names to arena IDs, and
// precomputes each borrow's last-use point for the checker.
package scopetree

import (
	"fmt"

	"fortio.org/safecast"

	"warden/internal/ir"
	"warden/internal/source"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid ScopeKind = iota
	// ScopeRoot is the artificial top-level scope of a unit.
	ScopeRoot
	// ScopeBlock is a BlockStart/BlockEnd pair.
	ScopeBlock
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeRoot:
		return "root"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// Scope models one lexical scope with a parent-child hierarchy.
// Structure is fixed once built.
type Scope struct {
	Kind   ScopeKind
	Parent ir.ScopeID
	// Start is the BlockStart statement (NoStmtID for the root).
	Start ir.StmtID
	// End is the BlockEnd statement (NoStmtID for the root, whose exit is
	// the end of the unit).
	End      ir.StmtID
	Bindings []ir.BindingID
	Children []ir.ScopeID
	Depth    uint32
}

// Scopes stores all allocated scopes in a compact slice-based arena.
type Scopes struct {
	data []Scope
}

// NewScopes creates an arena with an optional capacity hint.
func NewScopes(capacity uint32) *Scopes {
	if capacity == 0 {
		capacity = 8
	}
	return &Scopes{
		data: make([]Scope, 1, capacity+1), // index 0 reserved for NoScopeID
	}
}

// New allocates a scope and returns its ID.
func (s *Scopes) New(kind ScopeKind, parent ir.ScopeID, start ir.StmtID) ir.ScopeID {
	value, err := safecast.Conv[uint32](len(s.data))
	if err != nil {
		panic(fmt.Errorf("scopes arena overflow: %w", err))
	}
	id := ir.ScopeID(value)
	depth := uint32(0)
	if parent.IsValid() {
		if parentScope := s.Get(parent); parentScope != nil {
			parentScope.Children = append(parentScope.Children, id)
			depth = parentScope.Depth + 1
		}
	}
	s.data = append(s.data, Scope{
		Kind:   kind,
		Parent: parent,
		Start:  start,
		Depth:  depth,
	})
	return id
}

// Get returns the scope pointer or nil if ID is invalid.
func (s *Scopes) Get(id ir.ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(s.data) {
		return nil
	}
	return &s.data[id]
}

// Len reports total number of scopes excluding the sentinel.
func (s *Scopes) Len() int { return len(s.data) - 1 }

// Ref is one borrow record: a reference variable, its target binding and the
// precomputed live range. A ref's live range ends at the exit of the block
// containing its last observed use; with no uses it ends at the exit of its
// creation block.
type Ref struct {
	ID     ir.RefID
	Name   string
	Kind   ir.BorrowKind
	Target ir.BindingID
	Create ir.StmtID
	Scope  ir.ScopeID
	Uses   []ir.StmtID
	// LastUse equals Create when the ref is never used.
	LastUse ir.StmtID
	// EndScope is the scope whose exit expires the borrow.
	EndScope ir.ScopeID
}

// Refs stores borrow records in a compact arena.
type Refs struct {
	data []Ref
}

// NewRefs creates a ref arena with an optional capacity hint.
func NewRefs(capacity uint32) *Refs {
	if capacity == 0 {
		capacity = 8
	}
	return &Refs{
		data: make([]Ref, 1, capacity+1), // index 0 reserved for NoRefID
	}
}

// New allocates a ref and returns its ID.
func (r *Refs) New(name string, kind ir.BorrowKind, target ir.BindingID, create ir.StmtID, scope ir.ScopeID) ir.RefID {
	value, err := safecast.Conv[uint32](len(r.data))
	if err != nil {
		panic(fmt.Errorf("refs arena overflow: %w", err))
	}
	id := ir.RefID(value)
	r.data = append(r.data, Ref{
		ID:       id,
		Name:     name,
		Kind:     kind,
		Target:   target,
		Create:   create,
		Scope:    scope,
		LastUse:  create,
		EndScope: scope,
	})
	return id
}

// Get returns the ref pointer or nil if ID is invalid.
func (r *Refs) Get(id ir.RefID) *Ref {
	if !id.IsValid() || int(id) >= len(r.data) {
		return nil
	}
	return &r.data[id]
}

// Len reports total number of refs excluding the sentinel.
func (r *Refs) Len() int { return len(r.data) - 1 }

// Tree is the resolved scope tree for one unit. Scopes, bindings and refs
// are never structurally altered after Build; the checker only mutates
// binding states.
type Tree struct {
	Unit     *ir.Unit
	Scopes   *Scopes
	Bindings *ir.Bindings
	Refs     *Refs
	Root     ir.ScopeID

	stmtScope   []ir.ScopeID
	stmtBinding []ir.BindingID
	stmtRef     []ir.RefID
}

// ScopeOf returns the scope the statement executes in.
func (t *Tree) ScopeOf(id ir.StmtID) ir.ScopeID {
	if !id.IsValid() || int(id) >= len(t.stmtScope) {
		return ir.NoScopeID
	}
	return t.stmtScope[id]
}

// BindingAt returns the binding a statement was resolved to, if any.
func (t *Tree) BindingAt(id ir.StmtID) ir.BindingID {
	if !id.IsValid() || int(id) >= len(t.stmtBinding) {
		return ir.NoBindingID
	}
	return t.stmtBinding[id]
}

// RefAt returns the ref a statement was resolved to: the created ref for
// StmtBorrowCreate, the used ref for StmtBorrowUse.
func (t *Tree) RefAt(id ir.StmtID) ir.RefID {
	if !id.IsValid() || int(id) >= len(t.stmtRef) {
		return ir.NoRefID
	}
	return t.stmtRef[id]
}

// ExitSpan returns the span diagnostics attached to a scope's exit point use.
func (t *Tree) ExitSpan(id ir.ScopeID) source.Span {
	scope := t.Scopes.Get(id)
	if scope == nil {
		return source.Span{File: t.Unit.File}
	}
	if scope.End.IsValid() {
		return t.Unit.SpanFor(scope.End)
	}
	return t.Unit.EndSpan()
}

// IsAncestor reports whether ancestor is scope itself or one of its parents.
func (t *Tree) IsAncestor(ancestor, scope ir.ScopeID) bool {
	for scope.IsValid() {
		if scope == ancestor {
			return true
		}
		sc := t.Scopes.Get(scope)
		if sc == nil {
			return false
		}
		scope = sc.Parent
	}
	return false
}
