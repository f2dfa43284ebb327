// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import "github.com/rainsocket/rain/timeout"

// PollEvent is a platform-neutral poll(2)/WSAPoll readiness bitmask.
type PollEvent int

const (
	// PollReadable means the handle is ready for a read/accept.
	PollReadable PollEvent = 1 << iota
	// PollWritable means the handle is ready for a write/connect completion.
	PollWritable

	// pollInvalid is set internally when the kernel reports POLLNVAL for
	// a handle; it is never returned to callers, only used to trigger
	// [ErrPollInvalid].
	pollInvalid
)

// PollTarget pairs a [*Socket] with the events to wait for in a
// multi-socket [PollMulti] call.
type PollTarget struct {
	Socket *Socket
	Events PollEvent
}

// PollResult is the outcome of polling one [PollTarget].
type PollResult struct {
	Socket *Socket
	Events PollEvent
}

// PollMulti blocks with t, releasing each target Socket's stateMtx for the
// duration, until at least one target becomes ready or t passes. Any
// POLLNVAL bit observed on a handle raises [ErrPollInvalid].
func PollMulti(targets []PollTarget, t timeout.Timeout) ([]PollResult, error) {
	handles := make([]platformHandle, len(targets))
	want := make([]PollEvent, len(targets))
	for i, tg := range targets {
		tg.Socket.stateMtx.RLock()
		h := tg.Socket.handle
		tg.Socket.stateMtx.RUnlock()
		if h == invalidHandle {
			return nil, &OpError{Op: "poll", Err: ErrClosed}
		}
		handles[i] = h
		want[i] = tg.Events
	}

	events, err := sysPoll(handles, want, t.Milliseconds())
	if err != nil {
		return nil, &OpError{Op: "poll", Err: err}
	}

	out := make([]PollResult, len(targets))
	for i, e := range events {
		if e&pollInvalid != 0 {
			return nil, &OpError{Op: "poll", Err: ErrPollInvalid}
		}
		out[i] = PollResult{Socket: targets[i].Socket, Events: e}
	}
	return out, nil
}

// poll is the single-socket poll used internally by Connect/Accept/
// Send/Recv. It additionally polls the interrupt pair's receive side for
// [PollReadable]; once that pair has latched (one byte has been written
// and never drained), every subsequent call to poll returns (0, nil) —
// a not-ready indication, regardless of the requested events. The
// latch is one-way.
func (s *Socket) poll(want PollEvent, t timeout.Timeout) (PollEvent, error) {
	s.stateMtx.RLock()
	h := s.handle
	ip := s.interrupt
	s.stateMtx.RUnlock()

	if h == invalidHandle {
		return 0, &OpError{Op: "poll", Err: ErrClosed}
	}
	if ip != nil && ip.isLatched() {
		return 0, nil
	}

	handles := []platformHandle{h}
	events := []PollEvent{want}
	if ip != nil {
		handles = append(handles, ip.receiver)
		events = append(events, PollReadable)
	}

	out, err := sysPoll(handles, events, t.Milliseconds())
	if err != nil {
		return 0, &OpError{Op: "poll", Err: err}
	}
	if out[0]&pollInvalid != 0 {
		return 0, &OpError{Op: "poll", Err: ErrPollInvalid}
	}
	if len(out) > 1 && out[1]&PollReadable != 0 {
		return 0, nil
	}
	return out[0], nil
}
