package diag

import (
	"fmt"
)

type Code uint16

// Code ranges: 1xxx structural, 2xxx ownership, 3xxx borrow. Ownership codes
// sort below borrow codes so that at equal positions ownership violations
// come first (Bag.Sort relies on this).
const (
	UnknownCode Code = 0

	// Structural. The only fatal condition: scope nesting broken in the
	// incoming IR, analysis of the unit is aborted.
	StructMalformedScope Code = 1001

	// Ownership state machine.
	OwnUseAfterMove Code = 2001

	// Borrow checking.
	BorrowDoubleUnique         Code = 3001
	BorrowSharedUniqueConflict Code = 3002
	BorrowOfMoved              Code = 3003
	BorrowDangling             Code = 3004
)

var codeDescription = map[Code]string{
	UnknownCode:                "Unknown error",
	StructMalformedScope:       "Malformed scope structure",
	OwnUseAfterMove:            "Use of moved value",
	BorrowDoubleUnique:         "Second unique borrow while one is active",
	BorrowSharedUniqueConflict: "Shared and unique borrows of the same value",
	BorrowOfMoved:              "Borrow of a moved or dropped value",
	BorrowDangling:             "Reference outlives or follows its value",
}

// ID returns the stable short identifier (e.g. "OWN2001") used in output.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("IR%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("OWN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("BRW%04d", ic)
	}
	return "E0000"
}

// Title returns the human-readable summary for the code.
func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// Fatal reports whether the code aborts analysis of its unit.
func (c Code) Fatal() bool {
	return c == StructMalformedScope
}
