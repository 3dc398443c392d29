// Package transport implements framed message I/O over a non-blocking
// Unix domain socket: message reassembly from a raw byte stream, ancillary
// SCM_RIGHTS file descriptor passing, and the reservation-based send path
// described by §4.5. It builds directly on internal/ring for buffering and
// internal/wire for header framing, and generalizes the client-side
// send/recv pattern of the reference implementation's Display type to a
// non-blocking, server-side connection half.
package transport

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/sys/unix"

	"github.com/waylandd/waylandd/internal/ring"
	"github.com/waylandd/waylandd/internal/wire"
)

// ErrControlTruncated is returned when the kernel reports truncated
// ancillary control data on a receive; the spec requires the connection be
// terminated in that case.
var ErrControlTruncated = errors.New("transport: truncated ancillary control data")

// ErrUnexpectedEOF is returned when the peer closes mid-message.
var ErrUnexpectedEOF = errors.New("transport: connection closed mid-message")

// ErrMisalignedWrite is a logic error: the caller tried to submit a body
// whose length is not a whole number of wire words.
var ErrMisalignedWrite = errors.New("transport: message body is not word-aligned")

// Default buffer sizing, matching §3's Client object: a 4096-byte
// word-aligned byte buffer and an 8-descriptor fd buffer per half.
const (
	DefaultByteCapacity = 4096
	DefaultFDCapacity   = 8
)

// Conn wraps one non-blocking Unix domain socket with the two buffered
// halves (receive and send) described in §4.4/§4.5.
type Conn struct {
	fd int

	recvBytes *ring.Bytes
	recvFDs   *ring.FDs
	sendBytes *ring.Bytes
	sendFDs   *ring.FDs

	oob []byte
}

// New wraps fd, which must already be set non-blocking by the caller (the
// acceptor does this immediately after accept4).
func New(fd int, byteCapacity, fdCapacity int) (*Conn, error) {
	recvBytes, err := ring.NewBytes(byteCapacity)
	if err != nil {
		return nil, err
	}
	sendBytes, err := ring.NewBytes(byteCapacity)
	if err != nil {
		return nil, err
	}
	recvFDs, err := ring.NewFDs(fdCapacity)
	if err != nil {
		return nil, err
	}
	sendFDs, err := ring.NewFDs(fdCapacity)
	if err != nil {
		return nil, err
	}
	return &Conn{
		fd:        fd,
		recvBytes: recvBytes,
		recvFDs:   recvFDs,
		sendBytes: sendBytes,
		sendFDs:   sendFDs,
		oob:       make([]byte, unix.CmsgSpace(fdCapacity*4)),
	}, nil
}

// Fd returns the underlying socket descriptor.
func (c *Conn) Fd() int { return c.fd }

// Close closes the underlying socket.
func (c *Conn) Close() error { return unix.Close(c.fd) }

// Fill performs one non-blocking recvmsg call, appending received bytes
// and ancillary file descriptors to the receive half. It returns nil if
// the call would have blocked (EAGAIN), io.EOF if the peer closed cleanly
// at a message boundary, and ErrUnexpectedEOF if it closed mid-message.
func (c *Conn) Fill() error {
	if c.recvBytes.Free() == 0 {
		c.recvBytes.Compact()
	}
	space := c.recvBytes.Tail()
	if len(space) == 0 {
		return fmt.Errorf("transport: %w", ring.ErrBackpressure)
	}

	n, oobn, flags, _, err := unix.Recvmsg(c.fd, space, c.oob, 0)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			return nil
		}
		return fmt.Errorf("transport: recvmsg: %w", err)
	}
	if flags&unix.MSG_CTRUNC != 0 {
		return ErrControlTruncated
	}
	if n == 0 {
		if c.recvBytes.Len() == 0 {
			return io.EOF
		}
		return ErrUnexpectedEOF
	}
	c.recvBytes.Commit(n)

	fds, err := parseFileDescriptors(c.oob[:oobn])
	if err != nil {
		return err
	}
	for _, fd := range fds {
		if err := c.recvFDs.Push(fd); err != nil {
			return err
		}
	}
	return nil
}

// NextMessage attempts to extract one fully-buffered message from the
// receive half. It returns ok=false if fewer bytes than one complete
// message are currently available (the caller should Fill again). The
// returned Decoder shares the connection's fd queue; after the caller is
// done decoding, it must call ConsumeMessage with the same total size and
// the decoder's FDsConsumed() count.
func (c *Conn) NextMessage() (target wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder, totalSize int, ok bool, err error) {
	filled := c.recvBytes.Filled()
	if len(filled) < wire.HeaderSize {
		return 0, 0, nil, 0, false, nil
	}
	target, opcode, totalSize, err = wire.DecodeHeader(filled)
	if err != nil {
		return 0, 0, nil, 0, false, err
	}
	if len(filled) < totalSize {
		return 0, 0, nil, 0, false, nil
	}

	body := filled[wire.HeaderSize:totalSize]
	fds := c.recvFDs.Peek()
	dec = wire.NewDecoder(body, fds)
	return target, opcode, dec, totalSize, true, nil
}

// ConsumeMessage advances the receive half past a message of totalSize
// bytes that NextMessage returned, dropping the fdsConsumed descriptors
// its decoder actually popped (leaving any remainder queued for the next
// message on this half).
func (c *Conn) ConsumeMessage(totalSize, fdsConsumed int) {
	c.recvBytes.Consume(totalSize)
	if fdsConsumed > 0 {
		c.recvFDs.Drop(fdsConsumed)
	}
}

// Submit reserves space for a message of the given body (already-encoded
// argument words, not including the header) and fds, writes the header
// and body into the send half, and queues the fds. It performs a
// best-effort non-blocking flush first if the half is short on room, then
// compaction, before reporting ErrBackpressure. body's length must be a
// whole number of wire words.
func (c *Conn) Submit(target wire.ObjectID, opcode wire.Opcode, body []byte, fds []int) error {
	if len(body)%wire.WordSize != 0 {
		return ErrMisalignedWrite
	}
	total := wire.HeaderSize + len(body)

	if c.sendBytes.Free() < total || c.sendFDs.Free() < len(fds) {
		if err := c.flushOnce(); err != nil {
			return err
		}
	}

	off, err := c.sendBytes.Reserve(total, nil)
	if err != nil {
		return err
	}
	if err := c.sendFDs.Reserve(len(fds)); err != nil {
		return err
	}

	dst := c.sendBytes.Tail()[:total]
	_ = off
	wire.EncodeHeaderInto(dst, target, opcode, total)
	copy(dst[wire.HeaderSize:], body)
	c.sendBytes.Commit(total)

	for _, fd := range fds {
		// Capacity was already reserved above; Push cannot fail here.
		_ = c.sendFDs.Push(fd)
	}
	return nil
}

// Flush drains as much of the send half as the socket will currently
// accept without blocking. It is safe to call repeatedly; once the send
// half is empty it is a no-op.
func (c *Conn) Flush() error { return c.flushOnce() }

// Pending reports whether the send half still holds unflushed bytes.
func (c *Conn) Pending() bool { return c.sendBytes.Len() > 0 }

func (c *Conn) flushOnce() error {
	for c.sendBytes.Len() > 0 {
		data := c.sendBytes.Filled()
		fds := c.sendFDs.Peek()

		var rights []byte
		if len(fds) > 0 {
			rights = unix.UnixRights(fds...)
		}

		n, err := unix.SendmsgN(c.fd, data, rights, nil, 0)
		if n > 0 {
			c.sendBytes.Consume(n)
			if len(fds) > 0 {
				c.sendFDs.Drop(len(fds))
			}
		}
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
				return nil
			}
			return fmt.Errorf("transport: sendmsg: %w", err)
		}
		if n == 0 {
			return nil
		}
	}
	return nil
}

// parseFileDescriptors extracts file descriptors from socket control
// messages, the server-side counterpart of the reference client's
// ancillary-data parsing.
func parseFileDescriptors(oob []byte) ([]int, error) {
	if len(oob) == 0 {
		return nil, nil
	}

	scms, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil, fmt.Errorf("transport: parse control message: %w", err)
	}

	var fds []int
	for _, scm := range scms {
		if scm.Header.Level != unix.SOL_SOCKET || scm.Header.Type != unix.SCM_RIGHTS {
			continue
		}
		got, err := unix.ParseUnixRights(&scm)
		if err != nil {
			return nil, fmt.Errorf("transport: parse unix rights: %w", err)
		}
		fds = append(fds, got...)
	}
	return fds, nil
}
