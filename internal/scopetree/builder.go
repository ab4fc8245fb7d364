package scopetree

import (
	"fmt"

	"fortio.org/safecast"

	"warden/internal/diag"
	"warden/internal/ir"
)

// Build converts a unit's flat statement list into a resolved scope tree.
// The single non-recoverable condition is broken block nesting: it is
// reported as StructMalformedScope through the reporter and Build returns
// (nil, false). Everything else is left for the checker; unresolved names
// stay NoBindingID/NoRefID and their statements have no effect.
func Build(unit *ir.Unit, reporter diag.Reporter) (*Tree, bool) {
	b := &builder{
		unit: unit,
		tree: &Tree{
			Unit:        unit,
			Scopes:      NewScopes(0),
			Bindings:    ir.NewBindings(0),
			Refs:        NewRefs(0),
			stmtScope:   make([]ir.ScopeID, len(unit.Stmts)+1),
			stmtBinding: make([]ir.BindingID, len(unit.Stmts)+1),
			stmtRef:     make([]ir.RefID, len(unit.Stmts)+1),
		},
		names:    make(map[string][]ir.BindingID),
		refNames: make(map[string][]ir.RefID),
		lastRef:  make(map[string]ir.RefID),
	}
	b.tree.Root = b.tree.Scopes.New(ScopeRoot, ir.NoScopeID, ir.NoStmtID)
	b.stack = append(b.stack, b.tree.Root)
	b.scopeRefs = append(b.scopeRefs, nil)

	for i := range unit.Stmts {
		idx, err := safecast.Conv[uint32](i + 1)
		if err != nil {
			panic(fmt.Errorf("stmt index overflow: %w", err))
		}
		if !b.step(ir.StmtID(idx), &unit.Stmts[i], reporter) {
			return nil, false
		}
	}

	if len(b.stack) > 1 {
		diag.ReportError(reporter, diag.StructMalformedScope, unit.EndSpan(),
			fmt.Sprintf("unit %q ends with %d unclosed block(s)", unit.Name, len(b.stack)-1))
		return nil, false
	}
	return b.tree, true
}

type builder struct {
	unit  *ir.Unit
	tree  *Tree
	stack []ir.ScopeID
	// scopeRefs tracks refs created per open scope so their names can be
	// retired on exit, parallel to stack.
	scopeRefs [][]ir.RefID
	names     map[string][]ir.BindingID
	refNames  map[string][]ir.RefID
	// lastRef remembers the most recent ref ever created under a name, so a
	// use after the ref's scope exited still resolves and can be flagged as
	// dangling instead of silently vanishing.
	lastRef map[string]ir.RefID
}

func (b *builder) current() ir.ScopeID {
	return b.stack[len(b.stack)-1]
}

func (b *builder) step(id ir.StmtID, st *ir.Stmt, reporter diag.Reporter) bool {
	switch st.Kind {
	case ir.StmtBlockStart:
		child := b.tree.Scopes.New(ScopeBlock, b.current(), id)
		b.stack = append(b.stack, child)
		b.scopeRefs = append(b.scopeRefs, nil)
		b.tree.stmtScope[id] = child

	case ir.StmtBlockEnd:
		if len(b.stack) == 1 {
			diag.ReportError(reporter, diag.StructMalformedScope, b.unit.SpanFor(id),
				fmt.Sprintf("unit %q: block end without a matching block start", b.unit.Name))
			return false
		}
		top := b.current()
		b.tree.stmtScope[id] = top
		b.tree.Scopes.Get(top).End = id
		b.exitScope(top)

	case ir.StmtDeclare:
		scope := b.current()
		b.tree.stmtScope[id] = scope
		bid := b.tree.Bindings.New(st.Name, st.Value, scope, id, b.unit.SpanFor(id), ir.StateUninitialized)
		b.tree.Scopes.Get(scope).Bindings = append(b.tree.Scopes.Get(scope).Bindings, bid)
		b.names[st.Name] = append(b.names[st.Name], bid)
		b.tree.stmtBinding[id] = bid

	case ir.StmtAssign, ir.StmtMoveUse, ir.StmtCopyUse:
		b.tree.stmtScope[id] = b.current()
		b.tree.stmtBinding[id] = b.resolveBinding(st.Name)

	case ir.StmtBorrowCreate:
		scope := b.current()
		b.tree.stmtScope[id] = scope
		target := b.resolveBinding(st.Target)
		rid := b.tree.Refs.New(st.Name, st.Borrow, target, id, scope)
		b.refNames[st.Name] = append(b.refNames[st.Name], rid)
		b.lastRef[st.Name] = rid
		b.scopeRefs[len(b.scopeRefs)-1] = append(b.scopeRefs[len(b.scopeRefs)-1], rid)
		b.tree.stmtRef[id] = rid

	case ir.StmtBorrowUse:
		scope := b.current()
		b.tree.stmtScope[id] = scope
		rid := b.resolveRef(st.Name)
		b.tree.stmtRef[id] = rid
		if ref := b.tree.Refs.Get(rid); ref != nil {
			ref.Uses = append(ref.Uses, id)
			ref.LastUse = id
			ref.EndScope = scope
		}
	}
	return true
}

func (b *builder) exitScope(id ir.ScopeID) {
	scope := b.tree.Scopes.Get(id)
	for i := len(scope.Bindings) - 1; i >= 0; i-- {
		bid := scope.Bindings[i]
		name := b.tree.Bindings.Get(bid).Name
		stack := b.names[name]
		if n := len(stack); n > 0 && stack[n-1] == bid {
			b.names[name] = stack[:n-1]
		}
	}
	created := b.scopeRefs[len(b.scopeRefs)-1]
	for i := len(created) - 1; i >= 0; i-- {
		name := b.tree.Refs.Get(created[i]).Name
		stack := b.refNames[name]
		if n := len(stack); n > 0 && stack[n-1] == created[i] {
			b.refNames[name] = stack[:n-1]
		}
	}
	b.scopeRefs = b.scopeRefs[:len(b.scopeRefs)-1]
	b.stack = b.stack[:len(b.stack)-1]
}

func (b *builder) resolveBinding(name string) ir.BindingID {
	stack := b.names[name]
	if len(stack) == 0 {
		return ir.NoBindingID
	}
	return stack[len(stack)-1]
}

func (b *builder) resolveRef(name string) ir.RefID {
	stack := b.refNames[name]
	if len(stack) > 0 {
		return stack[len(stack)-1]
	}
	// Out-of-scope use: resolve to the most recent ref with that name so the
	// checker can report it as dangling.
	return b.lastRef[name]
}
