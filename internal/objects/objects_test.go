package objects

import (
	"testing"

	"golang.org/x/sys/unix"

	"github.com/waylandd/waylandd/internal/object"
	"github.com/waylandd/waylandd/internal/proto"
	"github.com/waylandd/waylandd/internal/wire"
)

type sentEvent struct {
	target wire.ObjectID
	opcode wire.Opcode
	body   []byte
	fds    []int
}

type fakeSink struct {
	events []sentEvent
	serial uint32
}

func (f *fakeSink) Send(target wire.ObjectID, opcode wire.Opcode, body []byte, fds []int) error {
	f.events = append(f.events, sentEvent{target, opcode, body, fds})
	return nil
}

func (f *fakeSink) NextSerial() uint32 {
	f.serial++
	return f.serial
}

func (f *fakeSink) DumpDir() string { return "" }

func TestDisplaySyncFiresDoneThenEmptiesSlot(t *testing.T) {
	sink := &fakeSink{}
	table := object.New()
	table.Insert(1, NewDisplay(sink, NewGlobals()))

	entries, err := table.GetMany([]wire.ObjectID{1})
	if err != nil {
		t.Fatalf("GetMany error = %v", err)
	}
	d, ok := object.As[*Display](entries[0])
	if !ok {
		t.Fatal("slot 1 is not *Display")
	}

	if err := d.HandleSync(table, 1, 2); err != nil {
		t.Fatalf("HandleSync error = %v", err)
	}
	if len(sink.events) != 1 || sink.events[0].target != 2 || sink.events[0].opcode != proto.CallbackEventDone {
		t.Fatalf("events = %+v", sink.events)
	}
	obj, err := table.Lookup(2)
	if err != nil {
		t.Fatalf("Lookup error = %v", err)
	}
	if obj != nil {
		t.Errorf("callback slot should be empty after sync, got %v", obj)
	}
}

func TestDisplayGetRegistryAnnouncesAllGlobals(t *testing.T) {
	sink := &fakeSink{}
	table := object.New()
	globals := NewGlobals()
	table.Insert(1, NewDisplay(sink, globals))

	entries, _ := table.GetMany([]wire.ObjectID{1})
	d, _ := object.As[*Display](entries[0])

	if err := d.HandleGetRegistry(table, 1, 2); err != nil {
		t.Fatalf("HandleGetRegistry error = %v", err)
	}
	if len(sink.events) != len(globals.Entries) {
		t.Fatalf("got %d global events, want %d", len(sink.events), len(globals.Entries))
	}
	for _, ev := range sink.events {
		if ev.target != 2 || ev.opcode != proto.RegistryEventGlobal {
			t.Errorf("unexpected event %+v", ev)
		}
	}
	if _, ok := table.Lookup(2); ok != nil {
		t.Fatalf("Lookup error = %v", ok)
	}
	reg, err := table.Lookup(2)
	if err != nil || reg == nil {
		t.Fatalf("registry slot empty after get_registry")
	}
}

func TestRegistryBindShmSendsTwoFormats(t *testing.T) {
	sink := &fakeSink{}
	table := object.New()
	globals := NewGlobals()
	reg := NewRegistry(sink, globals)
	table.Insert(2, reg)

	if err := reg.HandleBind(table, 2, 0, "wl_shm", 1, 3); err != nil {
		t.Fatalf("HandleBind error = %v", err)
	}
	if len(sink.events) != 2 {
		t.Fatalf("got %d events, want 2 format events", len(sink.events))
	}
	for _, ev := range sink.events {
		if ev.target != 3 || ev.opcode != proto.ShmEventFormat {
			t.Errorf("unexpected event %+v", ev)
		}
	}
	obj, err := table.Lookup(3)
	if err != nil {
		t.Fatalf("Lookup error = %v", err)
	}
	if _, ok := obj.(*Shm); !ok {
		t.Fatalf("slot 3 is not *Shm: %T", obj)
	}
}

func TestRegistryBindUnknownInterfaceFails(t *testing.T) {
	sink := &fakeSink{}
	table := object.New()
	reg := NewRegistry(sink, NewGlobals())
	table.Insert(2, reg)

	if err := reg.HandleBind(table, 2, 99, "wl_seat", 1, 3); err == nil {
		t.Fatal("expected error binding unadvertised interface")
	}
}

func TestSurfaceCommitMovesPendingToCurrent(t *testing.T) {
	sink := &fakeSink{}
	table := object.New()
	s := NewSurface(sink)
	table.Insert(5, s)

	if err := s.HandleAttach(table, 5, 9, 1, 2); err != nil {
		t.Fatalf("HandleAttach error = %v", err)
	}
	if buf, _, _, _, _ := s.Current(); buf != 0 {
		t.Fatalf("current buffer should be unset before commit, got %d", buf)
	}
	if err := s.HandleCommit(table, 5); err != nil {
		t.Fatalf("HandleCommit error = %v", err)
	}
	buf, x, y, _, _ := s.Current()
	if buf != 9 || x != 1 || y != 2 {
		t.Errorf("current state after commit = (%d, %d, %d), want (9, 1, 2)", buf, x, y)
	}
}

func TestShmPoolCreateBufferAndResize(t *testing.T) {
	sink := &fakeSink{}
	table := object.New()
	sh := NewShm(sink)
	table.Insert(3, sh)

	fds := make([]int, 2)
	if err := unix.Pipe2(fds, 0); err != nil {
		t.Fatalf("Pipe2 error = %v", err)
	}
	defer unix.Close(fds[0])
	memFd, err := unix.MemfdCreate("wl-shm-test", 0)
	if err != nil {
		t.Skipf("memfd_create unavailable: %v", err)
	}
	if err := unix.Ftruncate(memFd, 4096); err != nil {
		t.Fatalf("Ftruncate error = %v", err)
	}

	if err := sh.HandleCreatePool(table, 3, 4, memFd, 4096); err != nil {
		t.Fatalf("HandleCreatePool error = %v", err)
	}
	obj, err := table.Lookup(4)
	if err != nil {
		t.Fatalf("Lookup error = %v", err)
	}
	pool, ok := obj.(*ShmPool)
	if !ok {
		t.Fatalf("slot 4 is not *ShmPool: %T", obj)
	}

	if err := pool.HandleCreateBuffer(table, 4, 10, 0, 16, 16, 64, proto.ShmFormatArgb8888); err != nil {
		t.Fatalf("HandleCreateBuffer error = %v", err)
	}
	bufObj, err := table.Lookup(10)
	if err != nil {
		t.Fatalf("Lookup error = %v", err)
	}
	buffer, ok := bufObj.(*Buffer)
	if !ok {
		t.Fatalf("slot 10 is not *Buffer: %T", bufObj)
	}
	if len(buffer.Bytes()) != 64*16 {
		t.Errorf("buffer view length = %d, want %d", len(buffer.Bytes()), 64*16)
	}

	if err := pool.HandleResize(table, 4, 8192); err != nil {
		t.Fatalf("HandleResize error = %v", err)
	}
	if len(buffer.Bytes()) != 64*16 {
		t.Errorf("buffer view length after resize = %d, want %d", len(buffer.Bytes()), 64*16)
	}

	if err := buffer.HandleDestroy(table, 10); err != nil {
		t.Fatalf("Buffer HandleDestroy error = %v", err)
	}
	if err := pool.HandleDestroy(table, 4); err != nil {
		t.Fatalf("Pool HandleDestroy error = %v", err)
	}
}

func TestXdgSurfaceGetToplevelSendsBothConfigures(t *testing.T) {
	sink := &fakeSink{}
	table := object.New()
	table.Insert(5, NewSurface(sink))
	xdgSurface := NewXdgSurface(sink, 5)
	table.Insert(20, xdgSurface)

	if err := xdgSurface.HandleGetToplevel(table, 20, 21); err != nil {
		t.Fatalf("HandleGetToplevel error = %v", err)
	}
	if len(sink.events) != 2 {
		t.Fatalf("got %d events, want 2", len(sink.events))
	}
	if sink.events[0].target != 21 || sink.events[0].opcode != proto.XdgToplevelEventConfigure {
		t.Errorf("first event = %+v, want toplevel configure on 21", sink.events[0])
	}
	if sink.events[1].target != 20 || sink.events[1].opcode != proto.XdgSurfaceEventConfigure {
		t.Errorf("second event = %+v, want surface configure on 20", sink.events[1])
	}
	obj, err := table.Lookup(21)
	if err != nil || obj == nil {
		t.Fatalf("toplevel slot not occupied: %v, %v", obj, err)
	}
}

func TestXdgSurfaceGetPopupRejected(t *testing.T) {
	sink := &fakeSink{}
	table := object.New()
	table.Insert(5, NewSurface(sink))
	xdgSurface := NewXdgSurface(sink, 5)
	table.Insert(20, xdgSurface)

	if err := xdgSurface.HandleGetPopup(table, 20, 22, 0, 0); err == nil {
		t.Fatal("expected get_popup to fail")
	}
}

func TestGetXdgSurfaceRejectsNonSurface(t *testing.T) {
	sink := &fakeSink{}
	table := object.New()
	wmBase := NewXdgWmBase(sink)
	table.Insert(30, wmBase)
	table.Insert(31, NewCompositor(sink)) // not a *Surface

	if err := wmBase.HandleGetXdgSurface(table, 30, 32, 31); err == nil {
		t.Fatal("expected get_xdg_surface to reject a non-surface id")
	}
}
