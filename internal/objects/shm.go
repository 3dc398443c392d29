package objects

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/waylandd/waylandd/internal/object"
	"github.com/waylandd/waylandd/internal/proto"
	"github.com/waylandd/waylandd/internal/wire"
)

// sharedMapping is the mmap'd region backing one wl_shm_pool, shared by
// the pool and every buffer carved from it (§9 "Shared pool backing a
// buffer"). refs counts the pool itself (one ref) plus each live
// buffer; the mapping is unmapped when the count reaches zero. There is
// no lock: the single-threaded dispatch loop never touches a client's
// objects concurrently.
type sharedMapping struct {
	data []byte
	refs int
}

func (m *sharedMapping) retain() { m.refs++ }

func (m *sharedMapping) release() error {
	m.refs--
	if m.refs > 0 {
		return nil
	}
	return unix.Munmap(m.data)
}

// Shm is the per-client wl_shm factory object.
type Shm struct {
	sink Sink
}

// NewShm constructs a wl_shm bound via the registry.
func NewShm(sink Sink) *Shm {
	return &Shm{sink: sink}
}

func (s *Shm) Kind() proto.AnyObjectKind { return proto.KindShm }

func (s *Shm) HandleRequest(table *object.Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	return proto.DispatchShm(s, table, sender, opcode, dec)
}

// HandleCreatePool implements wl_shm.create_pool: fd is mapped
// immediately and becomes owned by the new pool (S4).
func (s *Shm) HandleCreatePool(table *object.Table, sender wire.ObjectID, id wire.ObjectID, fd int, size int32) error {
	if size <= 0 {
		unix.Close(fd)
		return fmt.Errorf("wl_shm: create_pool: invalid size %d", size)
	}
	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return fmt.Errorf("wl_shm: create_pool: mmap: %w", err)
	}

	entries, err := table.GetMany([]wire.ObjectID{id})
	if err != nil {
		unix.Munmap(data)
		unix.Close(fd)
		return err
	}
	entries[0].Insert(&ShmPool{sink: s.sink, fd: fd, mem: &sharedMapping{data: data, refs: 1}})
	return nil
}

// ShmPool is a per-client wl_shm_pool.
type ShmPool struct {
	sink Sink
	fd   int
	mem  *sharedMapping
}

func (p *ShmPool) Kind() proto.AnyObjectKind { return proto.KindShmPool }

func (p *ShmPool) HandleRequest(table *object.Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	return proto.DispatchShmPool(p, table, sender, opcode, dec)
}

// HandleCreateBuffer implements wl_shm_pool.create_buffer: the buffer
// carves a view into the pool's mapping and retains a shared reference
// to it rather than copying any bytes.
func (p *ShmPool) HandleCreateBuffer(table *object.Table, sender wire.ObjectID, id wire.ObjectID, offset, width, height, stride int32, format uint32) error {
	if offset < 0 || stride <= 0 || height <= 0 {
		return fmt.Errorf("wl_shm_pool: create_buffer: invalid geometry (offset=%d stride=%d height=%d)", offset, stride, height)
	}
	end := int64(offset) + int64(stride)*int64(height)
	if end > int64(len(p.mem.data)) {
		return fmt.Errorf("wl_shm_pool: create_buffer: buffer extends past pool (end=%d pool=%d)", end, len(p.mem.data))
	}

	entries, err := table.GetMany([]wire.ObjectID{id})
	if err != nil {
		return err
	}
	p.mem.retain()
	entries[0].Insert(&Buffer{
		sink: p.sink, mem: p.mem,
		offset: offset, width: width, height: height, stride: stride, format: format,
	})
	return nil
}

func (p *ShmPool) HandleDestroy(table *object.Table, sender wire.ObjectID) error {
	entries, err := table.GetMany([]wire.ObjectID{sender})
	if err != nil {
		return err
	}
	entries[0].Take()
	if err := unix.Close(p.fd); err != nil {
		return fmt.Errorf("wl_shm_pool: destroy: close fd: %w", err)
	}
	return p.mem.release()
}

// HandleResize implements wl_shm_pool.resize: the mapping is grown in
// place via mremap, so buffers carved before the resize keep pointing
// at a valid prefix of the (possibly relocated) mapping through the
// shared sharedMapping.
func (p *ShmPool) HandleResize(table *object.Table, sender wire.ObjectID, size int32) error {
	if int(size) <= len(p.mem.data) {
		return fmt.Errorf("wl_shm_pool: resize: new size %d must grow the pool (current %d)", size, len(p.mem.data))
	}
	grown, err := unix.Mremap(p.mem.data, int(size), unix.MREMAP_MAYMOVE)
	if err != nil {
		return fmt.Errorf("wl_shm_pool: resize: mremap: %w", err)
	}
	p.mem.data = grown
	return nil
}

// Buffer is a per-client wl_buffer: a view into its pool's shared
// mapping.
type Buffer struct {
	sink                          Sink
	mem                           *sharedMapping
	offset, width, height, stride int32
	format                        uint32
}

func (b *Buffer) Kind() proto.AnyObjectKind { return proto.KindBuffer }

func (b *Buffer) HandleRequest(table *object.Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	return proto.DispatchBuffer(b, table, sender, opcode, dec)
}

// Bytes returns the buffer's current view into the pool's mapping.
// Valid even after the pool has been resized, since offset and stride
// index into the shared, possibly-relocated mapping rather than a
// cached slice.
func (b *Buffer) Bytes() []byte {
	end := int64(b.offset) + int64(b.stride)*int64(b.height)
	return b.mem.data[b.offset:end]
}

func (b *Buffer) HandleDestroy(table *object.Table, sender wire.ObjectID) error {
	entries, err := table.GetMany([]wire.ObjectID{sender})
	if err != nil {
		return err
	}
	entries[0].Take()
	return b.mem.release()
}

// SendRelease emits wl_buffer.release: the compositor is done reading
// the buffer's contents and the client may reuse or destroy it.
func (b *Buffer) SendRelease(id wire.ObjectID) error {
	body, fds := proto.SendBufferRelease()
	return b.sink.Send(id, proto.BufferEventRelease, body, fds)
}
