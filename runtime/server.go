// SPDX-License-Identifier: GPL-3.0-or-later

package runtime

import (
	"sync"
	"sync/atomic"

	"github.com/rainsocket/rain"
	"github.com/rainsocket/rain/executor"
	"github.com/rainsocket/rain/resolve"
	"github.com/rainsocket/rain/sock"
	"github.com/rainsocket/rain/timeout"
)

// Server accepts connections on a listening [*sock.Socket] and spawns a
// [W] via [WorkerFactory] for each, running the Worker's OnWork as a
// task on a bounded [*executor.Executor] shared with the accept loop
// itself.
type Server[W Worker] struct {
	cfg           *rain.Config
	listener      *sock.Socket
	exec          *executor.Executor
	workerFactory WorkerFactory[W]

	mu   sync.Mutex
	live map[*liveWorker[W]]struct{}

	closing atomic.Bool
}

type liveWorker[W Worker] struct {
	worker W
	conn   *sock.Socket
}

// NewServer constructs a [*Server] with an interruptable listening
// Socket built from spec, and a bounded executor sized by
// cfg.MaxThreads (default 1024).
func NewServer[W Worker](cfg *rain.Config, spec resolve.Specification, factory WorkerFactory[W]) (*Server[W], error) {
	listener, err := sock.New(cfg, sock.Options{Spec: spec, Interruptable: true})
	if err != nil {
		return nil, err
	}
	return &Server[W]{
		cfg:           cfg,
		listener:      listener,
		exec:          executor.New(cfg, cfg.MaxThreads),
		workerFactory: factory,
		live:          make(map[*liveWorker[W]]struct{}),
	}, nil
}

// Serve binds and listens on host, then submits the accept loop as a
// task on the Server's executor. The accept loop calls Accept
// repeatedly with acceptIdleTimeout per iteration until the Server is
// closed or aborted.
func (s *Server[W]) Serve(host resolve.Host, acceptIdleTimeout timeout.Timeout, backlog int, flags resolve.Flag) error {
	overall := timeout.Infinite()
	if s.cfg.OverallTimeout > 0 {
		overall = timeout.FromDuration(s.cfg.OverallTimeout)
	}
	if flags == 0 {
		flags = resolve.Flag(s.cfg.GAIFlags)
	}
	if err := s.listener.BindHost(host, overall, flags); err != nil {
		return err
	}
	if err := s.listener.Listen(backlog); err != nil {
		return err
	}
	s.cfg.Logger.Info("serverServe", "host", host.String())
	s.exec.Submit(func() { s.acceptLoop(acceptIdleTimeout) })
	return nil
}

func (s *Server[W]) acceptLoop(acceptIdleTimeout timeout.Timeout) {
	for !s.closing.Load() {
		conn, peer, err := s.listener.Accept(acceptIdleTimeout)
		if err != nil {
			s.cfg.Logger.Info("serverAcceptError", "err", err)
			continue
		}
		if conn == nil {
			continue // per-iteration timeout; recheck closing and try again
		}
		s.spawnWorker(conn, peer)
	}
}

func (s *Server[W]) spawnWorker(conn *sock.Socket, peer resolve.AddressInfo) {
	worker := s.workerFactory(conn, peer)
	lw := &liveWorker[W]{worker: worker, conn: conn}

	s.mu.Lock()
	s.live[lw] = struct{}{}
	s.mu.Unlock()

	s.exec.Submit(func() {
		defer s.removeWorker(lw)
		defer func() {
			if r := recover(); r != nil {
				s.cfg.Logger.Info("workerPanic", "recover", r)
				conn.Abort()
			}
		}()
		if err := worker.OnWork(conn, peer); err != nil {
			s.cfg.Logger.Info("workerError", "err", err)
		}
	})
}

func (s *Server[W]) removeWorker(lw *liveWorker[W]) {
	s.mu.Lock()
	delete(s.live, lw)
	s.mu.Unlock()
}

// Close sets the closing latch, interrupts the Server's shared
// interrupt pair (unblocking the accept loop and every in-flight
// Worker poll), and waits up to t for the executor to drain. Any
// Workers still live when t passes are aborted, then the listening
// socket is aborted. Returns true if draining timed out.
func (s *Server[W]) Close(t timeout.Timeout) bool {
	s.closing.Store(true)
	if s.listener.Interruptable() {
		_ = s.listener.Interrupt()
	}
	timedOut := s.exec.BlockForTasks(t)

	s.mu.Lock()
	remaining := make([]*liveWorker[W], 0, len(s.live))
	for lw := range s.live {
		remaining = append(remaining, lw)
	}
	s.mu.Unlock()
	for _, lw := range remaining {
		lw.conn.Abort()
	}

	s.listener.Abort()
	s.cfg.Logger.Info("serverClose", "timedOut", timedOut, "abortedWorkers", len(remaining))
	return timedOut
}

// Abort is [Server.Close] without waiting for the executor to drain.
func (s *Server[W]) Abort() {
	s.Close(timeout.FromDuration(0))
}

// BlockForTasks delegates to the Server's executor.
func (s *Server[W]) BlockForTasks(t timeout.Timeout) bool {
	return s.exec.BlockForTasks(t)
}

// LocalAddr returns the listening socket's bound address, valid after
// [Server.Serve].
func (s *Server[W]) LocalAddr() resolve.AddressInfo {
	return s.listener.LocalAddressInfo()
}

// LiveWorkers returns the number of currently running Workers.
func (s *Server[W]) LiveWorkers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}
