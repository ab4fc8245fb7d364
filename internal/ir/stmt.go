package ir

import "warden/internal/source"

// StmtKind enumerates the normalized statement forms the frontend hands over.
type StmtKind uint8

const (
	StmtInvalid StmtKind = iota
	// StmtDeclare introduces a binding with a fixed value kind.
	StmtDeclare
	// StmtAssign reinitializes an existing binding (drop-then-reinit).
	StmtAssign
	// StmtMoveUse consumes a binding's value: pass by value, return,
	// binding-to-binding assignment.
	StmtMoveUse
	// StmtCopyUse reads a binding without consuming it.
	StmtCopyUse
	// StmtBorrowCreate introduces a reference variable borrowing a binding.
	StmtBorrowCreate
	// StmtBorrowUse reads through a previously created reference.
	StmtBorrowUse
	// StmtBlockStart opens a nested lexical scope.
	StmtBlockStart
	// StmtBlockEnd closes the innermost open scope.
	StmtBlockEnd
)

func (k StmtKind) String() string {
	switch k {
	case StmtDeclare:
		return "declare"
	case StmtAssign:
		return "assign"
	case StmtMoveUse:
		return "move_use"
	case StmtCopyUse:
		return "copy_use"
	case StmtBorrowCreate:
		return "borrow_create"
	case StmtBorrowUse:
		return "borrow_use"
	case StmtBlockStart:
		return "block_start"
	case StmtBlockEnd:
		return "block_end"
	default:
		return "invalid"
	}
}

// BorrowKind differentiates shared vs unique borrows.
type BorrowKind uint8

const (
	BorrowShared BorrowKind = iota
	BorrowUnique
)

func (k BorrowKind) String() string {
	switch k {
	case BorrowShared:
		return "shared"
	case BorrowUnique:
		return "unique"
	default:
		return "?"
	}
}

// Stmt is one normalized statement. Name is the binding or reference the
// statement acts on; Target is the borrowed binding for StmtBorrowCreate.
type Stmt struct {
	Kind   StmtKind
	Name   string
	Target string
	Value  ValueKind  // StmtDeclare only
	Borrow BorrowKind // StmtBorrowCreate only
	// HasInit distinguishes `let x = v` from `let x` for StmtDeclare.
	HasInit bool
	Span    source.Span
}
