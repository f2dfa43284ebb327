// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import "github.com/rainsocket/rain/timeout"

// ShutdownDirection selects which half of a duplex connection to shut
// down.
type ShutdownDirection int

const (
	// ShutdownWrite is the default direction.
	ShutdownWrite ShutdownDirection = iota
	ShutdownRead
	ShutdownBoth
)

// Shutdown latches the corresponding flag(s) and issues shutdown(2)/
// WSASendDisconnect. "Not connected" is treated as an already-successful
// local shutdown, since the peer may have aborted.
func (s *Socket) Shutdown(dir ShutdownDirection) error {
	s.operationMtx.Lock()
	defer s.operationMtx.Unlock()

	s.stateMtx.RLock()
	h := s.handle
	s.stateMtx.RUnlock()
	if h == invalidHandle {
		return &OpError{Op: "shutdown", Err: ErrClosed}
	}

	how := shutWR
	switch dir {
	case ShutdownRead:
		how = shutRD
	case ShutdownBoth:
		how = shutRDWR
	}
	if err := sysShutdown(h, how); err != nil {
		return &OpError{Op: "shutdown", Err: err}
	}

	if dir == ShutdownRead || dir == ShutdownBoth {
		s.shutdownRead.Store(true)
	}
	if dir == ShutdownWrite || dir == ShutdownBoth {
		s.shutdownWrite.Store(true)
	}
	return nil
}

// CloseTimeout performs a graceful close: shutdown write, drain recv
// until the peer's FIN or t passes, then abort. Returns true if
// draining timed out (meaning the peer never sent a FIN within t); recv
// errors encountered while draining are consumed silently. Idempotent: closing an
// already-invalid Socket is a no-op that returns false.
//
// [Socket.Close] (the [net.Conn]-satisfying method) calls this with an
// infinite drain timeout.
func (s *Socket) CloseTimeout(t timeout.Timeout) bool {
	if !s.Valid() {
		return false
	}
	if err := s.Shutdown(ShutdownWrite); err != nil {
		// still attempt to drain and abort; the peer may have aborted first
		_ = err
	}

	buf := make([]byte, 4096)
	timedOut := false
	for {
		if !s.Valid() {
			break
		}
		res, err := s.Recv(buf, t)
		if err != nil {
			break // consume silently
		}
		if res.TimedOut {
			timedOut = true
			break
		}
		if res.N == 0 {
			break // peer FIN observed
		}
	}
	s.Abort()
	s.cfg.Logger.Info("socketClose", "timedOut", timedOut)
	return timedOut
}
