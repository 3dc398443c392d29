package object

import (
	"errors"
	"testing"

	"github.com/waylandd/waylandd/internal/wire"
)

type stubObject struct {
	name string
}

func (s *stubObject) HandleRequest(table *Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	return nil
}

type otherStub struct{}

func (o *otherStub) HandleRequest(table *Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	return nil
}

func TestNewTableSeedsReservedSlots(t *testing.T) {
	tbl := New()
	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}
	v, err := tbl.Lookup(1)
	if err != nil {
		t.Fatalf("Lookup(1) error = %v", err)
	}
	if v != nil {
		t.Fatalf("Lookup(1) = %v, want nil (vacant until seeded)", v)
	}
}

func TestLookupOutOfRange(t *testing.T) {
	tbl := New()
	if _, err := tbl.Lookup(5); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("Lookup(5) error = %v, want ErrOutOfRange", err)
	}
}

func TestInsertGrowsTable(t *testing.T) {
	tbl := New()
	tbl.Insert(10, &stubObject{name: "x"})
	if tbl.Len() != 11 {
		t.Fatalf("Len() after Insert(10, ...) = %d, want 11", tbl.Len())
	}
	v, err := tbl.Lookup(10)
	if err != nil {
		t.Fatalf("Lookup(10) error = %v", err)
	}
	obj, ok := v.(*stubObject)
	if !ok || obj.name != "x" {
		t.Fatalf("Lookup(10) = %v, want stubObject{x}", v)
	}
}

func TestEntryOccupiedVacantInsertTake(t *testing.T) {
	tbl := New()
	entries, err := tbl.GetMany([]wire.ObjectID{1})
	if err != nil {
		t.Fatalf("GetMany() error = %v", err)
	}
	e := entries[0]
	if e.Occupied() {
		t.Fatalf("fresh entry reported Occupied")
	}
	e.Insert(&stubObject{name: "display"})
	if !e.Occupied() {
		t.Fatalf("entry not Occupied after Insert")
	}
	taken := e.Take()
	obj, ok := taken.(*stubObject)
	if !ok || obj.name != "display" {
		t.Fatalf("Take() = %v, want stubObject{display}", taken)
	}
	if e.Occupied() {
		t.Fatalf("entry still Occupied after Take")
	}
}

func TestEntryAsDowncast(t *testing.T) {
	tbl := New()
	tbl.Insert(1, &stubObject{name: "a"})
	entries, err := tbl.GetMany([]wire.ObjectID{1})
	if err != nil {
		t.Fatalf("GetMany() error = %v", err)
	}
	got, ok := As[*stubObject](entries[0])
	if !ok || got.name != "a" {
		t.Fatalf("As[*stubObject]() = (%v, %v), want (stubObject{a}, true)", got, ok)
	}
	if _, ok := As[*otherStub](entries[0]); ok {
		t.Fatalf("As[*otherStub]() on a *stubObject slot reported ok")
	}
}

func TestGetManyRejectsAliasing(t *testing.T) {
	tbl := New()
	if _, err := tbl.GetMany([]wire.ObjectID{3, 3}); !errors.Is(err, ErrAliased) {
		t.Fatalf("GetMany([3,3]) error = %v, want ErrAliased", err)
	}
}

func TestGetManyGrowsAndNeverShrinks(t *testing.T) {
	tbl := New()
	if _, err := tbl.GetMany([]wire.ObjectID{7}); err != nil {
		t.Fatalf("GetMany([7]) error = %v", err)
	}
	if tbl.Len() != 8 {
		t.Fatalf("Len() after GetMany([7]) = %d, want 8", tbl.Len())
	}
	if _, err := tbl.GetMany([]wire.ObjectID{2}); err != nil {
		t.Fatalf("GetMany([2]) error = %v", err)
	}
	if tbl.Len() != 8 {
		t.Fatalf("Len() shrank to %d after GetMany([2]), backing array must never shrink", tbl.Len())
	}
}

func TestGetManyReturnsDisjointEntries(t *testing.T) {
	tbl := New()
	entries, err := tbl.GetMany([]wire.ObjectID{1, 2, 3})
	if err != nil {
		t.Fatalf("GetMany() error = %v", err)
	}
	entries[0].Insert(&stubObject{name: "one"})
	entries[1].Insert(&stubObject{name: "two"})
	if entries[2].Occupied() {
		t.Fatalf("entries[2] unexpectedly Occupied after inserting into entries[0] and entries[1]")
	}
	one, _ := As[*stubObject](entries[0])
	two, _ := As[*stubObject](entries[1])
	if one.name != "one" || two.name != "two" {
		t.Fatalf("entries not independently addressable: %v, %v", one, two)
	}
}

func TestDispatchRequestNoOpOnEmptySlot(t *testing.T) {
	tbl := New()
	tbl.Insert(5, nil)
	if err := DispatchRequest(tbl, 5, 0, wire.NewDecoder(nil, nil)); err != nil {
		t.Fatalf("DispatchRequest() on empty slot error = %v, want nil", err)
	}
}

func TestDispatchRequestProtocolErrorPastSlotCount(t *testing.T) {
	tbl := New()
	if err := DispatchRequest(tbl, 50, 0, wire.NewDecoder(nil, nil)); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("DispatchRequest() past slot count error = %v, want ErrOutOfRange", err)
	}
}

func TestDispatchRequestInvokesHandler(t *testing.T) {
	tbl := New()
	tbl.Insert(1, &stubObject{name: "display"})
	if err := DispatchRequest(tbl, 1, 0, wire.NewDecoder(nil, nil)); err != nil {
		t.Fatalf("DispatchRequest() error = %v, want nil", err)
	}
}
