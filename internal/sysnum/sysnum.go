// Package sysnum is the syscall name/number table the tracing engine's
// hook registry consults to resolve a syscall name to a number. This is
// the "pure lookup" external collaborator the engine depends on through
// an interface (see tracer.NameResolver); the engine never hard-codes a
// table of its own, so a caller who wants a different or extended table
// (e.g. for an architecture not built in here) can supply their own
// resolver instead of this default.
package sysnum

// Table maps syscall names to numbers and back for one architecture.
type Table struct {
	byName map[string]uint64
	byNr   map[uint64]string
}

func newTable(entries map[string]uint64) *Table {
	t := &Table{
		byName: entries,
		byNr:   make(map[uint64]string, len(entries)),
	}
	for name, nr := range entries {
		t.byNr[nr] = name
	}
	return t
}

// Resolve returns the syscall number for name, or ok=false if unknown.
func (t *Table) Resolve(name string) (nr uint64, ok bool) {
	nr, ok = t.byName[name]
	return nr, ok
}

// Name returns the syscall name for nr, or "" if unknown.
func (t *Table) Name(nr uint64) string {
	return t.byNr[nr]
}

// Default returns the table for the architecture this binary was built
// for, built from golang.org/x/sys/unix's SYS_* constants.
func Default() *Table {
	return defaultTable
}
