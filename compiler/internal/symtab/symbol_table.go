// Package symtab implements the lexically scoped symbol table shared by the
// semantic passes and the code generator.
package symtab

import (
	"errors"
	"fmt"
)

// ErrDuplicate is returned by Put when the name is already bound directly in
// the table. Callers are expected to check Declares first and report their own
// diagnostic.
var ErrDuplicate = errors.New("symtab: duplicate binding")

// Table maps names to entries of type T. It owns the child tables registered
// with PutScope and keeps a non-owning pointer to its parent. Bindings are
// never overwritten.
type Table[T any] struct {
	parent   *Table[T]
	entries  map[string]T
	children map[string]*Table[T]
}

// NewTable creates an empty table whose lookups fall back to parent. parent
// may be nil for a root table.
func NewTable[T any](parent *Table[T]) *Table[T] {
	return &Table[T]{
		parent:   parent,
		entries:  map[string]T{},
		children: map[string]*Table[T]{},
	}
}

// Declares reports whether name is bound directly in this table.
func (table *Table[T]) Declares(name string) bool {
	_, ok := table.entries[name]
	return ok
}

// Get looks name up in this table and then along the parent chain.
func (table *Table[T]) Get(name string) (T, bool) {
	for current := table; current != nil; current = current.parent {
		if entry, ok := current.entries[name]; ok {
			return entry, true
		}
	}
	var zero T
	return zero, false
}

// Put binds name to entry in this table.
func (table *Table[T]) Put(name string, entry T) error {
	if table.Declares(name) {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	table.entries[name] = entry
	return nil
}

// PutScope registers child as the scope introduced by name, replacing any
// earlier registration.
func (table *Table[T]) PutScope(name string, child *Table[T]) {
	table.children[name] = child
}

// GetScope returns the child scope introduced by name, or nil.
func (table *Table[T]) GetScope(name string) *Table[T] {
	return table.children[name]
}

func (table *Table[T]) Parent() *Table[T] {
	return table.parent
}

// Lookup is Get restricted to this table.
func (table *Table[T]) Lookup(name string) (T, bool) {
	entry, ok := table.entries[name]
	return entry, ok
}
