package objects

import (
	"github.com/waylandd/waylandd/internal/object"
	"github.com/waylandd/waylandd/internal/wire"
)

// passiveStub backs interfaces the server accepts but does not act on:
// wl_region (no compositing, so regions never affect damage/input) and
// xdg_positioner (accepted so clients that always create one before a
// popup don't fail early; popups themselves are rejected at
// get_popup). Every request is a no-op except opcode 0, which both
// interfaces define as their destructor and which empties the slot.
type passiveStub struct {
	ifaceName string
}

func newPassiveStub(ifaceName string) *passiveStub {
	return &passiveStub{ifaceName: ifaceName}
}

func (s *passiveStub) InterfaceName() string { return s.ifaceName }

const passiveStubDestroyOpcode wire.Opcode = 0

func (s *passiveStub) HandleRequest(table *object.Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	if opcode != passiveStubDestroyOpcode {
		return nil
	}
	entries, err := table.GetMany([]wire.ObjectID{sender})
	if err != nil {
		return err
	}
	entries[0].Take()
	return nil
}
