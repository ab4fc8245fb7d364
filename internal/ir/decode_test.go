package ir

import (
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		path string
		want Format
	}{
		{"main.wir.json", FormatJSON},
		{"a/b/core.wir", FormatMsgpack},
		{"notes.txt", FormatUnknown},
		{"wir", FormatUnknown},
	}
	for _, tc := range cases {
		if got := DetectFormat(tc.path); got != tc.want {
			t.Errorf("DetectFormat(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestDecodeUnitJSON(t *testing.T) {
	data := []byte(`{
		"unit": "demo",
		"stmts": [
			{"op": "declare", "name": "x", "kind": "move", "span": [10, 14]},
			{"op": "declare", "name": "n", "kind": "copy"},
			{"op": "declare", "name": "u", "init": false},
			{"op": "block_start"},
			{"op": "borrow_create", "name": "r", "target": "x", "kind": "unique"},
			{"op": "borrow_use", "name": "r"},
			{"op": "block_end"},
			{"op": "assign", "name": "u"},
			{"op": "move_use", "name": "x"},
			{"op": "copy_use", "name": "n"}
		]
	}`)
	unit, err := DecodeUnit(data, FormatJSON, 3)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if unit.Name != "demo" || unit.File != 3 {
		t.Fatalf("bad unit header: %+v", unit)
	}
	if len(unit.Stmts) != 10 {
		t.Fatalf("want 10 statements, got %d", len(unit.Stmts))
	}

	x := unit.Stmts[0]
	if x.Kind != StmtDeclare || x.Value != ValueMove || !x.HasInit {
		t.Fatalf("bad declare: %+v", x)
	}
	if x.Span.File != 3 || x.Span.Start != 10 || x.Span.End != 14 {
		t.Fatalf("span not carried over: %+v", x.Span)
	}
	if unit.Stmts[1].Value != ValueCopy {
		t.Fatalf("copy kind not decoded: %+v", unit.Stmts[1])
	}
	if unit.Stmts[2].HasInit {
		t.Fatalf("init:false must decode as no initializer: %+v", unit.Stmts[2])
	}
	b := unit.Stmts[4]
	if b.Kind != StmtBorrowCreate || b.Borrow != BorrowUnique || b.Target != "x" {
		t.Fatalf("bad borrow_create: %+v", b)
	}
}

func TestDecodeUnitMsgpack(t *testing.T) {
	payload := map[string]any{
		"unit": "bin",
		"stmts": []map[string]any{
			{"op": "declare", "name": "x"},
			{"op": "borrow_create", "name": "r", "target": "x", "kind": "shared"},
			{"op": "move_use", "name": "x"},
		},
	}
	data, err := msgpack.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	unit, err := DecodeUnit(data, FormatMsgpack, 1)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if unit.Name != "bin" || len(unit.Stmts) != 3 {
		t.Fatalf("bad unit: %+v", unit)
	}
	// Omitted kinds fall back to the defaults.
	if unit.Stmts[0].Value != ValueMove || !unit.Stmts[0].HasInit {
		t.Fatalf("default declare kinds wrong: %+v", unit.Stmts[0])
	}
	if unit.Stmts[1].Borrow != BorrowShared {
		t.Fatalf("default borrow kind wrong: %+v", unit.Stmts[1])
	}
}

func TestDecodeUnitErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"unknown op", `{"unit":"u","stmts":[{"op":"teleport","name":"x"}]}`},
		{"missing name", `{"unit":"u","stmts":[{"op":"move_use"}]}`},
		{"missing borrow target", `{"unit":"u","stmts":[{"op":"borrow_create","name":"r"}]}`},
		{"bad value kind", `{"unit":"u","stmts":[{"op":"declare","name":"x","kind":"warp"}]}`},
		{"bad borrow kind", `{"unit":"u","stmts":[{"op":"borrow_create","name":"r","target":"x","kind":"warp"}]}`},
		{"not json", `{{{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeUnit([]byte(tc.data), FormatJSON, 1); err == nil {
				t.Fatal("want decode error")
			}
		})
	}
	if _, err := DecodeUnit([]byte(`{}`), FormatUnknown, 1); err == nil {
		t.Fatal("unknown format must be rejected")
	}
}

func TestSpanSynthesis(t *testing.T) {
	unit := &Unit{
		Name: "u",
		File: 2,
		Stmts: []Stmt{
			{Kind: StmtDeclare, Name: "x", HasInit: true},
			{Kind: StmtMoveUse, Name: "x"},
		},
	}
	sp := unit.SpanFor(2)
	if sp.File != 2 || sp.Start != 1 || sp.End != 2 {
		t.Fatalf("synthesized span should follow statement order, got %+v", sp)
	}
	end := unit.EndSpan()
	if end.Start != 2 || end.End != 2 {
		t.Fatalf("end span should sit past the last statement, got %+v", end)
	}
}
