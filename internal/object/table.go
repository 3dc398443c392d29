// Package object implements the per-client object table: a dense,
// id-indexed array of the closed AnyObject sum type, with an Entry API for
// typed access and an atomic multi-borrow for requests that reference
// several ids at once.
package object

import (
	"errors"

	"github.com/waylandd/waylandd/internal/wire"
)

// ErrOutOfRange is returned when a request targets an id past the current
// slot count. Per the dispatch contract this is a protocol error, distinct
// from dispatching to an existent-but-empty slot, which is a no-op.
var ErrOutOfRange = errors.New("object: id past current slot count")

// ErrAliased is returned by GetMany when the same id is requested twice.
var ErrAliased = errors.New("object: duplicate id in multi-borrow request")

// ErrWrongType is returned when an Occupied entry's contents do not
// downcast to the type a caller expected.
var ErrWrongType = errors.New("object: slot holds a different interface type")

// Dispatcher is implemented by every concrete object variant. The
// generated per-interface handle_request entry points satisfy it.
type Dispatcher interface {
	HandleRequest(table *Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error
}

// Table is the dense id-indexed array of a client's live objects. Slot 0 is
// reserved for the null id and is never occupied; slot 1 holds the display
// singleton once the table is seeded. The backing array only grows.
type Table struct {
	slots []any
}

// New returns an empty table sized to hold the reserved null slot and the
// display singleton's slot.
func New() *Table {
	return &Table{slots: make([]any, 2)}
}

// Len returns the current backing-array length (not the number of occupied
// slots).
func (t *Table) Len() int { return len(t.slots) }

func (t *Table) grow(id wire.ObjectID) {
	need := int(id) + 1
	if need <= len(t.slots) {
		return
	}
	grown := make([]any, need)
	copy(grown, t.slots)
	t.slots = grown
}

// Lookup resolves id without growing the table. It reports ErrOutOfRange
// if id is past the current slot count; a nil result with no error means
// the slot exists but is empty.
func (t *Table) Lookup(id wire.ObjectID) (any, error) {
	if int(id) >= len(t.slots) {
		return nil, ErrOutOfRange
	}
	return t.slots[id], nil
}

// Insert places obj at id, growing the table if necessary. It is used
// directly by code that already holds an exclusive VacantEntry-equivalent
// guarantee (e.g. seeding the display singleton at startup).
func (t *Table) Insert(id wire.ObjectID, obj any) {
	t.grow(id)
	t.slots[id] = obj
}

// Entry is a handle onto one slot of a Table, Occupied or Vacant depending
// on whether the slot currently holds an object.
type Entry struct {
	table *Table
	id    wire.ObjectID
}

// ID returns the id this entry was obtained for.
func (e Entry) ID() wire.ObjectID { return e.id }

// Occupied reports whether the slot currently holds an object.
func (e Entry) Occupied() bool { return e.table.slots[e.id] != nil }

// Value returns the slot's contents, or nil if Vacant.
func (e Entry) Value() any { return e.table.slots[e.id] }

// Insert upgrades a Vacant entry to Occupied (or replaces an Occupied
// entry's contents; callers are expected to check Occupied() first when
// that distinction matters).
func (e Entry) Insert(obj any) { e.table.slots[e.id] = obj }

// Take empties the slot and returns its former contents, or nil if the
// slot was already Vacant.
func (e Entry) Take() any {
	v := e.table.slots[e.id]
	e.table.slots[e.id] = nil
	return v
}

// As downcasts an entry's value to T, reporting false if the slot is
// Vacant or holds a different concrete type.
func As[T any](e Entry) (T, bool) {
	v, ok := e.Value().(T)
	return v, ok
}

// GetMany performs the atomic multi-borrow of §4.6: it rejects duplicate
// ids, grows the backing array to accommodate the largest requested id
// (new slots start Vacant), and returns one Entry per id, in request
// order, all referencing disjoint slots of the same table.
func (t *Table) GetMany(ids []wire.ObjectID) ([]Entry, error) {
	seen := make(map[wire.ObjectID]struct{}, len(ids))
	var maxID wire.ObjectID
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, ErrAliased
		}
		seen[id] = struct{}{}
		if id > maxID {
			maxID = id
		}
	}
	if len(ids) > 0 {
		t.grow(maxID)
	}
	entries := make([]Entry, len(ids))
	for i, id := range ids {
		entries[i] = Entry{table: t, id: id}
	}
	return entries, nil
}

// DispatchRequest looks up sender, and if the slot is occupied, decodes
// and invokes its variant-specific handler. A request to an
// existent-but-empty slot is a no-op (tolerating a race between a
// destructor dispatch and further in-flight messages from the client); a
// request past the current slot count is a protocol error.
func DispatchRequest(table *Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	obj, err := table.Lookup(sender)
	if err != nil {
		return err
	}
	if obj == nil {
		return nil
	}
	d, ok := obj.(Dispatcher)
	if !ok {
		return ErrWrongType
	}
	return d.HandleRequest(table, sender, opcode, dec)
}
