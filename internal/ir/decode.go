package ir

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"warden/internal/source"
)

// Format identifies the wire encoding of a unit file.
type Format uint8

const (
	FormatUnknown Format = iota
	// FormatJSON is the text encoding (*.wir.json).
	FormatJSON
	// FormatMsgpack is the binary encoding (*.wir).
	FormatMsgpack
)

// DetectFormat picks the wire format from the file name.
func DetectFormat(path string) Format {
	switch {
	case strings.HasSuffix(path, ".wir.json"):
		return FormatJSON
	case strings.HasSuffix(path, ".wir"):
		return FormatMsgpack
	default:
		return FormatUnknown
	}
}

type stmtWire struct {
	Op     string   `json:"op" msgpack:"op"`
	Name   string   `json:"name,omitempty" msgpack:"name,omitempty"`
	Target string   `json:"target,omitempty" msgpack:"target,omitempty"`
	Kind   string   `json:"kind,omitempty" msgpack:"kind,omitempty"`
	Init   *bool    `json:"init,omitempty" msgpack:"init,omitempty"`
	Span   []uint32 `json:"span,omitempty" msgpack:"span,omitempty"`
}

type unitWire struct {
	Name  string     `json:"unit" msgpack:"unit"`
	Stmts []stmtWire `json:"stmts" msgpack:"stmts"`
}

// DecodeUnit parses a frontend-produced unit file into the IR. Decoding
// failures are transport errors, not diagnostics: a file that cannot be
// decoded never reaches the verifier.
func DecodeUnit(data []byte, format Format, file source.FileID) (*Unit, error) {
	var wire unitWire
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &wire); err != nil {
			return nil, fmt.Errorf("decode unit json: %w", err)
		}
	case FormatMsgpack:
		if err := msgpack.Unmarshal(data, &wire); err != nil {
			return nil, fmt.Errorf("decode unit msgpack: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown unit format")
	}

	unit := &Unit{
		Name:  wire.Name,
		File:  file,
		Stmts: make([]Stmt, 0, len(wire.Stmts)),
	}
	for i, sw := range wire.Stmts {
		st, err := decodeStmt(sw, file)
		if err != nil {
			return nil, fmt.Errorf("stmt %d: %w", i, err)
		}
		unit.Stmts = append(unit.Stmts, st)
	}
	return unit, nil
}

func decodeStmt(sw stmtWire, file source.FileID) (Stmt, error) {
	st := Stmt{}
	switch sw.Op {
	case "declare":
		st.Kind = StmtDeclare
		kind, err := parseValueKind(sw.Kind)
		if err != nil {
			return st, err
		}
		st.Value = kind
		st.HasInit = sw.Init == nil || *sw.Init
	case "assign":
		st.Kind = StmtAssign
	case "move_use":
		st.Kind = StmtMoveUse
	case "copy_use":
		st.Kind = StmtCopyUse
	case "borrow_create":
		st.Kind = StmtBorrowCreate
		kind, err := parseBorrowKind(sw.Kind)
		if err != nil {
			return st, err
		}
		st.Borrow = kind
		if sw.Target == "" {
			return st, fmt.Errorf("borrow_create requires a target")
		}
	case "borrow_use":
		st.Kind = StmtBorrowUse
	case "block_start":
		st.Kind = StmtBlockStart
	case "block_end":
		st.Kind = StmtBlockEnd
	default:
		return st, fmt.Errorf("unknown op %q", sw.Op)
	}

	switch st.Kind {
	case StmtBlockStart, StmtBlockEnd:
	default:
		if sw.Name == "" {
			return st, fmt.Errorf("op %q requires a name", sw.Op)
		}
	}

	st.Name = sw.Name
	st.Target = sw.Target
	if len(sw.Span) == 2 && sw.Span[1] >= sw.Span[0] {
		st.Span = source.Span{File: file, Start: sw.Span[0], End: sw.Span[1]}
	}
	return st, nil
}

func parseValueKind(s string) (ValueKind, error) {
	switch s {
	case "move", "":
		return ValueMove, nil
	case "copy":
		return ValueCopy, nil
	default:
		return ValueMove, fmt.Errorf("unknown value kind %q", s)
	}
}

func parseBorrowKind(s string) (BorrowKind, error) {
	switch s {
	case "shared", "":
		return BorrowShared, nil
	case "unique":
		return BorrowUnique, nil
	default:
		return BorrowShared, fmt.Errorf("unknown borrow kind %q", s)
	}
}
