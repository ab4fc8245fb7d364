package ir

// StmtID identifies a statement inside a unit (1-based, 0 is the sentinel).
type StmtID uint32

const (
	// NoStmtID marks the absence of a statement reference.
	NoStmtID StmtID = 0
)

// IsValid reports whether the statement ID refers to a real statement.
func (id StmtID) IsValid() bool { return id != NoStmtID }

// BindingID identifies a binding inside the binding arena.
type BindingID uint32

const (
	// NoBindingID marks the absence of a binding reference.
	NoBindingID BindingID = 0
)

// IsValid reports whether the binding ID refers to an allocated binding.
func (id BindingID) IsValid() bool { return id != NoBindingID }

// ScopeID identifies a scope in the scope tree arena.
type ScopeID uint32

const (
	// NoScopeID marks the absence of a scope reference.
	NoScopeID ScopeID = 0
)

// IsValid reports whether the scope ID refers to an allocated scope.
func (id ScopeID) IsValid() bool { return id != NoScopeID }

// RefID identifies a reference variable (a borrow record) in the ref arena.
type RefID uint32

const (
	// NoRefID marks the absence of a reference.
	NoRefID RefID = 0
)

// IsValid reports whether the ref ID refers to an allocated reference.
func (id RefID) IsValid() bool { return id != NoRefID }
