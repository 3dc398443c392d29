package server

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// multiplexer wraps a Linux epoll instance configured edge-triggered
// throughout (§4.7: "this design uses edge-triggered"). Userdata is a
// uint32 key stored in the epoll_event union's first word; keyListener
// and keySignal are reserved, every other value indexes the client
// table.
type multiplexer struct {
	epfd int
}

const (
	keyListener uint32 = ^uint32(0)
	keySignal   uint32 = ^uint32(0) - 1
)

func newMultiplexer() (*multiplexer, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("server: epoll_create1: %w", err)
	}
	return &multiplexer{epfd: epfd}, nil
}

func (m *multiplexer) close() error { return unix.Close(m.epfd) }

// interest bits, named the way the reference epoll wrapper names them.
const (
	interestIn  = unix.EPOLLIN
	interestOut = unix.EPOLLOUT
)

func (m *multiplexer) register(fd int, interest uint32, key uint32) error {
	ev := unix.EpollEvent{Events: interest | unix.EPOLLET, Fd: int32(key)}
	if err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("server: epoll_ctl(add, fd=%d): %w", fd, err)
	}
	return nil
}

func (m *multiplexer) remove(fd int) error {
	if err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("server: epoll_ctl(del, fd=%d): %w", fd, err)
	}
	return nil
}

// wait blocks (unbounded if timeoutMillis is negative) until at least one
// registered fd is ready, returning their events.
func (m *multiplexer) wait(events []unix.EpollEvent, timeoutMillis int) ([]unix.EpollEvent, error) {
	n, err := unix.EpollWait(m.epfd, events, timeoutMillis)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, fmt.Errorf("server: epoll_wait: %w", err)
	}
	return events[:n], nil
}

// eventKey extracts the uint32 userdata key register stored for ev.
func eventKey(ev unix.EpollEvent) uint32 { return uint32(ev.Fd) }
