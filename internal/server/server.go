// Package server implements the single-threaded, epoll-driven event loop
// that accepts Wayland client connections and dispatches their requests
// (§4.7, §5, §6.2): one multiplexer, one listener socket, one signalfd for
// shutdown, and a growable table of client connections.
package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/waylandd/waylandd/internal/transport"
)

// Config controls how a Server binds and behaves.
type Config struct {
	SocketPath string
	// DumpDir is where surface commits write attached buffer contents,
	// standing in for the compositing this server doesn't do (spec.md
	// §1). Defaults to socketPath's directory plus "surfaces" if empty.
	DumpDir string
	Trace   bool
	Logger  zerolog.Logger
}

// Server owns the listener, signalfd and every connected client.
type Server struct {
	mux        *multiplexer
	listenFd   int
	signalFd   int
	socketPath string
	dumpDir    string

	clients map[uint32]*client
	nextID  uint32

	trace *tracer
	log   zerolog.Logger
}

// New binds the listener socket at cfg.SocketPath, arms the shutdown
// signalfd for SIGINT/SIGTERM, and registers both with a fresh epoll
// instance. The caller must call Close (directly, or via Run's deferred
// cleanup) to remove the socket path and release the epoll fd.
func New(cfg Config) (*Server, error) {
	mux, err := newMultiplexer()
	if err != nil {
		return nil, err
	}

	listenFd, err := bindListener(cfg.SocketPath)
	if err != nil {
		mux.close()
		return nil, err
	}
	if err := mux.register(listenFd, interestIn, keyListener); err != nil {
		unix.Close(listenFd)
		mux.close()
		return nil, err
	}

	signalFd, err := armShutdownSignals()
	if err != nil {
		unix.Close(listenFd)
		mux.close()
		return nil, err
	}
	if err := mux.register(signalFd, interestIn, keySignal); err != nil {
		unix.Close(signalFd)
		unix.Close(listenFd)
		mux.close()
		return nil, err
	}

	var trace *tracer
	if cfg.Trace {
		trace = newTracer(os.Stderr)
	}

	dumpDir := cfg.DumpDir
	if dumpDir == "" {
		dumpDir = filepath.Join(filepath.Dir(cfg.SocketPath), "surfaces")
	}

	return &Server{
		mux:        mux,
		listenFd:   listenFd,
		signalFd:   signalFd,
		socketPath: cfg.SocketPath,
		dumpDir:    dumpDir,
		clients:    make(map[uint32]*client),
		trace:      trace,
		log:        cfg.Logger,
	}, nil
}

// bindListener creates a nonblocking Unix domain stream socket at path.
func bindListener(path string) (int, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("server: socket: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("server: bind(%s): %w", path, err)
	}
	if err := unix.Listen(fd, 128); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("server: listen: %w", err)
	}
	return fd, nil
}

// armShutdownSignals blocks SIGINT and SIGTERM in this thread's mask and
// returns a nonblocking, close-on-exec signalfd that becomes readable once
// either arrives.
func armShutdownSignals() (int, error) {
	var set unix.Sigset_t
	addSignal(&set, unix.SIGINT)
	addSignal(&set, unix.SIGTERM)

	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &set, nil); err != nil {
		return -1, fmt.Errorf("server: pthread_sigmask: %w", err)
	}
	fd, err := unix.Signalfd(-1, &set, unix.SFD_CLOEXEC|unix.SFD_NONBLOCK)
	if err != nil {
		return -1, fmt.Errorf("server: signalfd: %w", err)
	}
	return fd, nil
}

func addSignal(set *unix.Sigset_t, sig unix.Signal) {
	bit := uint(sig) - 1
	set.Val[bit/64] |= 1 << (bit % 64)
}

// Run blocks, servicing the event loop until the shutdown signal arrives
// or a listener/signal-fd error occurs, then tears everything down.
// Per §7 ("the event loop never retries; per-client errors drop that
// client and log. Listener and signal-fd errors propagate up and end the
// process"), only listener/signalfd failures are returned; client errors
// are logged and the client is dropped.
func (s *Server) Run() error {
	defer s.Close()

	events := make([]unix.EpollEvent, 32)
	for {
		ready, err := s.mux.wait(events, -1)
		if err != nil {
			return err
		}
		for _, ev := range ready {
			key := eventKey(ev)
			switch key {
			case keyListener:
				if err := s.acceptLoop(); err != nil {
					return err
				}
			case keySignal:
				s.log.Info().Msg("shutdown signal received")
				return nil
			default:
				s.serviceClient(key)
			}
		}
	}
}

// acceptLoop accepts every pending connection (edge-triggered: accept
// must drain to EAGAIN) and runs one dispatch pass against each
// immediately, matching the reference server's accept-then-tick ordering.
func (s *Server) acceptLoop() error {
	for {
		fd, _, err := unix.Accept4(s.listenFd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
				return nil
			}
			return fmt.Errorf("server: accept4: %w", err)
		}

		conn, err := transport.New(fd, transport.DefaultByteCapacity, transport.DefaultFDCapacity)
		if err != nil {
			unix.Close(fd)
			s.log.Warn().Err(err).Msg("failed to wrap accepted connection")
			continue
		}

		id := s.nextID
		s.nextID++
		cl := newClient(id, conn, s.dumpDir, s.trace, s.log.With().Uint32("client", id).Logger())
		s.clients[id] = cl

		if err := s.mux.register(fd, interestIn|interestOut, id); err != nil {
			s.log.Warn().Err(err).Uint32("client", id).Msg("failed to register client with epoll")
			cl.close()
			delete(s.clients, id)
			continue
		}

		s.log.Debug().Uint32("client", id).Msg("accepted connection")
		s.runTick(id, cl)
	}
}

func (s *Server) serviceClient(id uint32) {
	cl, ok := s.clients[id]
	if !ok {
		s.log.Warn().Uint32("client", id).Msg("epoll event for unknown client")
		return
	}
	s.runTick(id, cl)
}

// runTick drives one client's dispatch pass, dropping it on any error
// (§5: "the event loop never retries; per-client errors drop that
// client and log").
func (s *Server) runTick(id uint32, cl *client) {
	if err := cl.tick(); err != nil {
		if !errors.Is(err, errClientDone) {
			s.log.Warn().Err(err).Uint32("client", id).Msg("dropping client")
		} else {
			s.log.Debug().Uint32("client", id).Msg("client closed connection")
		}
		s.mux.remove(cl.conn.Fd())
		cl.close()
		delete(s.clients, id)
	}
}

// Close tears down every client connection, the listener and signalfd,
// and unlinks the socket path. Fallible removal is logged, never
// retried, matching §5's shared-resource shutdown note.
func (s *Server) Close() error {
	for id, cl := range s.clients {
		cl.close()
		delete(s.clients, id)
	}
	unix.Close(s.signalFd)
	unix.Close(s.listenFd)
	if err := s.mux.close(); err != nil {
		s.log.Warn().Err(err).Msg("failed to close epoll instance")
	}
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Warn().Err(err).Str("path", s.socketPath).Msg("failed to remove socket path")
	}
	return nil
}
