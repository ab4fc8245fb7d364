package check

import (
	"warden/internal/ir"
)

// EventKind identifies the type of event recorded during analysis.
type EventKind uint8

const (
	// EvBorrowStart indicates the beginning of a borrow.
	EvBorrowStart EventKind = iota
	// EvBorrowEnd indicates the end of a borrow.
	EvBorrowEnd
	EvMove
	EvWrite
	EvRead
	EvDrop
)

func (k EventKind) String() string {
	switch k {
	case EvBorrowStart:
		return "borrow_start"
	case EvBorrowEnd:
		return "borrow_end"
	case EvMove:
		return "move"
	case EvWrite:
		return "write"
	case EvRead:
		return "read"
	case EvDrop:
		return "drop"
	default:
		return "unknown"
	}
}

// Event is a lightweight log entry produced while checking. It is meant for
// downstream debug/visualization and must not affect diagnostics.
type Event struct {
	Kind EventKind

	// Ref is the borrow involved in this event (when applicable).
	Ref ir.RefID

	// BorrowKind is only meaningful for EvBorrowStart.
	BorrowKind ir.BorrowKind

	// Binding is the binding involved in this event (when applicable),
	// e.g. the drop target or the moved-from binding.
	Binding ir.BindingID

	Stmt  ir.StmtID
	Scope ir.ScopeID

	// Issue captures whether this event collided with an active borrow.
	Issue    IssueKind
	IssueRef ir.RefID
}

type eventLog struct {
	events []Event
}

func (l *eventLog) add(ev Event) {
	if l == nil {
		return
	}
	l.events = append(l.events, ev)
}
