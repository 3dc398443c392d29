package proto

import (
	"testing"

	"github.com/waylandd/waylandd/internal/object"
	"github.com/waylandd/waylandd/internal/wire"
)

type recordingDisplay struct {
	syncCallback wire.ObjectID
	registry     wire.ObjectID
}

func (r *recordingDisplay) HandleSync(table *object.Table, sender wire.ObjectID, callback wire.ObjectID) error {
	r.syncCallback = callback
	return nil
}

func (r *recordingDisplay) HandleGetRegistry(table *object.Table, sender wire.ObjectID, registry wire.ObjectID) error {
	r.registry = registry
	return nil
}

func TestDispatchDisplaySync(t *testing.T) {
	enc := wire.NewEncoder(4)
	enc.PutNewID(5)
	dec := wire.NewDecoder(enc.Bytes(), nil)

	h := &recordingDisplay{}
	table := object.New()
	if err := DispatchDisplay(h, table, 1, DisplaySync, dec); err != nil {
		t.Fatalf("DispatchDisplay(sync) error = %v", err)
	}
	if h.syncCallback != 5 {
		t.Errorf("syncCallback = %d, want 5", h.syncCallback)
	}
}

func TestDispatchDisplayUnknownOpcode(t *testing.T) {
	dec := wire.NewDecoder(nil, nil)
	h := &recordingDisplay{}
	table := object.New()
	if err := DispatchDisplay(h, table, 1, 99, dec); err == nil {
		t.Fatal("expected error for unknown opcode")
	}
}

func TestSendDisplayErrorEncodesArgs(t *testing.T) {
	body, fds := SendDisplayError(3, DisplayErrorInvalidObject, "bad object")
	if len(fds) != 0 {
		t.Fatalf("expected no fds, got %v", fds)
	}
	dec := wire.NewDecoder(body, nil)
	obj, err := dec.Object(true)
	if err != nil || obj != 3 {
		t.Fatalf("Object() = %d, %v, want 3, nil", obj, err)
	}
	code, err := dec.Uint32()
	if err != nil || code != DisplayErrorInvalidObject {
		t.Fatalf("Uint32() = %d, %v, want %d, nil", code, err, DisplayErrorInvalidObject)
	}
	msg, wasNull, err := dec.String()
	if err != nil || wasNull || msg != "bad object" {
		t.Fatalf("String() = %q, %v, %v, want %q", msg, wasNull, err, "bad object")
	}
}

type recordingRegistry struct {
	name    uint32
	iface   string
	version uint32
	id      wire.ObjectID
}

func (r *recordingRegistry) HandleBind(table *object.Table, sender wire.ObjectID, name uint32, ifaceName string, version uint32, id wire.ObjectID) error {
	r.name, r.iface, r.version, r.id = name, ifaceName, version, id
	return nil
}

func TestDispatchRegistryBind(t *testing.T) {
	enc := wire.NewEncoder(32)
	enc.PutUint32(7)
	enc.PutString("wl_compositor")
	enc.PutUint32(4)
	enc.PutNewID(10)
	dec := wire.NewDecoder(enc.Bytes(), nil)

	h := &recordingRegistry{}
	table := object.New()
	if err := DispatchRegistry(h, table, 2, RegistryBind, dec); err != nil {
		t.Fatalf("DispatchRegistry(bind) error = %v", err)
	}
	if h.name != 7 || h.iface != "wl_compositor" || h.version != 4 || h.id != 10 {
		t.Errorf("bind args = %+v", h)
	}
}

func TestSendRegistryGlobalRoundtrip(t *testing.T) {
	body, _ := SendRegistryGlobal(1, "wl_shm", 2)
	dec := wire.NewDecoder(body, nil)
	name, _ := dec.Uint32()
	ifaceName, _, _ := dec.String()
	version, _ := dec.Uint32()
	if name != 1 || ifaceName != "wl_shm" || version != 2 {
		t.Errorf("global event = (%d, %q, %d), want (1, wl_shm, 2)", name, ifaceName, version)
	}
}

type recordingSurface struct {
	attached wire.ObjectID
	x, y     int32
	committed bool
}

func (r *recordingSurface) HandleDestroy(table *object.Table, sender wire.ObjectID) error { return nil }
func (r *recordingSurface) HandleAttach(table *object.Table, sender wire.ObjectID, buffer wire.ObjectID, x, y int32) error {
	r.attached, r.x, r.y = buffer, x, y
	return nil
}
func (r *recordingSurface) HandleDamage(table *object.Table, sender wire.ObjectID, x, y, width, height int32) error {
	return nil
}
func (r *recordingSurface) HandleFrame(table *object.Table, sender wire.ObjectID, callback wire.ObjectID) error {
	return nil
}
func (r *recordingSurface) HandleSetOpaqueRegion(table *object.Table, sender wire.ObjectID, region wire.ObjectID) error {
	return nil
}
func (r *recordingSurface) HandleSetInputRegion(table *object.Table, sender wire.ObjectID, region wire.ObjectID) error {
	return nil
}
func (r *recordingSurface) HandleCommit(table *object.Table, sender wire.ObjectID) error {
	r.committed = true
	return nil
}
func (r *recordingSurface) HandleSetBufferTransform(table *object.Table, sender wire.ObjectID, transform int32) error {
	return nil
}
func (r *recordingSurface) HandleSetBufferScale(table *object.Table, sender wire.ObjectID, scale int32) error {
	return nil
}
func (r *recordingSurface) HandleDamageBuffer(table *object.Table, sender wire.ObjectID, x, y, width, height int32) error {
	return nil
}

func TestDispatchSurfaceAttachAndCommit(t *testing.T) {
	enc := wire.NewEncoder(12)
	enc.PutObject(9)
	enc.PutInt32(1)
	enc.PutInt32(2)
	dec := wire.NewDecoder(enc.Bytes(), nil)

	h := &recordingSurface{}
	table := object.New()
	if err := DispatchSurface(h, table, 4, SurfaceAttach, dec); err != nil {
		t.Fatalf("DispatchSurface(attach) error = %v", err)
	}
	if h.attached != 9 || h.x != 1 || h.y != 2 {
		t.Errorf("attach args = %+v", h)
	}

	dec2 := wire.NewDecoder(nil, nil)
	if err := DispatchSurface(h, table, 4, SurfaceCommit, dec2); err != nil {
		t.Fatalf("DispatchSurface(commit) error = %v", err)
	}
	if !h.committed {
		t.Error("expected commit to be recorded")
	}
}

func TestAnyObjectKindString(t *testing.T) {
	if KindXdgToplevel.String() != "xdg_toplevel" {
		t.Errorf("KindXdgToplevel.String() = %q", KindXdgToplevel.String())
	}
	if AnyObjectKind(999).String() != "unknown" {
		t.Errorf("out-of-range kind should stringify to unknown")
	}
}
