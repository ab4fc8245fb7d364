package ir

import (
	"fmt"

	"fortio.org/safecast"

	"warden/internal/source"
)

// ValueKind classifies a binding's value as copy or move semantics.
// Fixed at declaration, never changes afterwards.
type ValueKind uint8

const (
	// ValueMove transfers ownership on use; the source becomes unusable.
	ValueMove ValueKind = iota
	// ValueCopy duplicates on every use; the source stays usable.
	ValueCopy
)

func (k ValueKind) String() string {
	switch k {
	case ValueMove:
		return "move"
	case ValueCopy:
		return "copy"
	default:
		return "?"
	}
}

// OwnState is the ownership state of a binding, advanced by the tracker
// during the single forward pass.
type OwnState uint8

const (
	// StateUninitialized is the state of a binding declared without an
	// initializer, before its first assignment.
	StateUninitialized OwnState = iota
	// StateOwned means the binding currently owns a live value.
	StateOwned
	// StateMoved means the value was relocated; the binding is unusable.
	StateMoved
	// StateDropped is the terminal state applied at scope exit while Owned.
	StateDropped
)

func (s OwnState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateOwned:
		return "owned"
	case StateMoved:
		return "moved"
	case StateDropped:
		return "dropped"
	default:
		return "?"
	}
}

// Binding is a named, scope-owned storage location for one value.
// Structure is fixed by the scope tree builder; only State mutates during
// analysis.
type Binding struct {
	ID    BindingID
	Name  string
	Kind  ValueKind
	Scope ScopeID
	Decl  StmtID
	Span  source.Span
	State OwnState
}

// Bindings stores all allocated bindings in a compact slice-based arena.
type Bindings struct {
	data []Binding
}

// NewBindings creates an arena with an optional capacity hint.
func NewBindings(capacity uint32) *Bindings {
	if capacity == 0 {
		capacity = 16
	}
	return &Bindings{
		data: make([]Binding, 1, capacity+1), // index 0 reserved for NoBindingID
	}
}

// New allocates a binding and returns its ID.
func (b *Bindings) New(name string, kind ValueKind, scope ScopeID, decl StmtID, span source.Span, state OwnState) BindingID {
	value, err := safecast.Conv[uint32](len(b.data))
	if err != nil {
		panic(fmt.Errorf("bindings arena overflow: %w", err))
	}
	id := BindingID(value)
	b.data = append(b.data, Binding{
		ID:    id,
		Name:  name,
		Kind:  kind,
		Scope: scope,
		Decl:  decl,
		Span:  span,
		State: state,
	})
	return id
}

// Get returns the binding pointer or nil if ID is invalid.
func (b *Bindings) Get(id BindingID) *Binding {
	if !id.IsValid() || int(id) >= len(b.data) {
		return nil
	}
	return &b.data[id]
}

// Len reports total number of bindings excluding the sentinel.
func (b *Bindings) Len() int { return len(b.data) - 1 }

// Data exposes the underlying slice without the sentinel.
func (b *Bindings) Data() []Binding {
	if len(b.data) <= 1 {
		return nil
	}
	return b.data[1:]
}
