package ir

import "warden/internal/source"

// Unit is one compilation unit handed over by the frontend: a name plus the
// ordered flat statement sequence. Statements reference bindings and
// references by name; the scope tree builder resolves them to IDs.
type Unit struct {
	Name  string
	File  source.FileID
	Stmts []Stmt
}

// Stmt returns the statement for a 1-based StmtID, or nil if out of range.
func (u *Unit) Stmt(id StmtID) *Stmt {
	if !id.IsValid() || int(id) > len(u.Stmts) {
		return nil
	}
	return &u.Stmts[id-1]
}

// SpanFor returns the statement's span, synthesizing one from the statement
// index when the frontend supplied no positions. Synthesized spans keep
// program order, which is all sorting and deduplication need.
func (u *Unit) SpanFor(id StmtID) source.Span {
	st := u.Stmt(id)
	if st == nil {
		return source.Span{File: u.File}
	}
	if !st.Span.Empty() || st.Span.Start != 0 {
		return st.Span
	}
	idx := uint32(id - 1)
	return source.Span{File: u.File, Start: idx, End: idx + 1}
}

// EndSpan returns a zero-length span just past the last statement, used for
// findings attached to the end of the unit (e.g. unclosed blocks).
func (u *Unit) EndSpan() source.Span {
	if len(u.Stmts) == 0 {
		return source.Span{File: u.File}
	}
	last := u.SpanFor(StmtID(len(u.Stmts)))
	return source.Span{File: u.File, Start: last.End, End: last.End}
}
