// SPDX-License-Identifier: GPL-3.0-or-later

package rain

import "time"

// Config holds configuration knobs shared across the sock, executor,
// runtime, stream, http, and smtp packages.
//
// Pass this to constructor functions to pre-wire dependencies and tune
// limits. All fields have sensible defaults set by [NewConfig]; a caller
// that only needs to override a handful of fields should start from
// [NewConfig] and mutate the returned value.
type Config struct {
	// MaxThreads bounds an [*executor.Executor]'s worker concurrency.
	// Zero means unbounded. Set by [NewConfig] to 1024, matching the
	// default accept-loop executor size of a Server.
	MaxThreads int

	// RecvBufferLen and SendBufferLen size the fixed user-space buffers
	// used by the stream adapter. Set by [NewConfig] to 1024 (1KiB).
	RecvBufferLen int
	SendBufferLen int

	// MaxRecvIdleDuration bounds how long a stream may sit idle between
	// complete Messages before a recv operation times out. Set by
	// [NewConfig] to 60s.
	MaxRecvIdleDuration time.Duration

	// SendOnceTimeoutDuration bounds each individual send progress step.
	// Set by [NewConfig] to 10s.
	SendOnceTimeoutDuration time.Duration

	// AcceptIdleTimeout bounds each iteration of a Server's accept loop.
	// Set by [NewConfig] to 60s.
	AcceptIdleTimeout time.Duration

	// OverallTimeout bounds the address resolution of Server.Serve's
	// bind step; Client.Connect does not read it and takes its timeout
	// as an argument. Set by [NewConfig] to 0 (no bound).
	OverallTimeout time.Duration

	// Backlog sets the listen(2) queue depth. Set by [NewConfig] to 200.
	Backlog int

	// Interruptable controls whether a Socket is constructed with a
	// shared interrupt pair. Set by [NewConfig] to true.
	Interruptable bool

	// GAIFlags tunes address resolution performed by the resolve package
	// (AI_PASSIVE, AI_CANONNAME, AI_NUMERICHOST, AI_NUMERICSERV,
	// AI_V4MAPPED, AI_ADDRCONFIG, AI_ALL). Set by [NewConfig] to 0.
	// The family/socktype/protocol triple itself is a
	// [resolve.Specification] passed directly to resolve calls, not
	// stored here, since it typically varies per call rather than per
	// process.
	GAIFlags int

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewConfig] to [DefaultErrClassifier].
	ErrClassifier ErrClassifier

	// Logger receives structured log records.
	//
	// Set by [NewConfig] to [DefaultSLogger].
	Logger SLogger

	// TimeNow returns the current time.
	//
	// Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		MaxThreads:              1024,
		RecvBufferLen:           1024,
		SendBufferLen:           1024,
		MaxRecvIdleDuration:     60 * time.Second,
		SendOnceTimeoutDuration: 10 * time.Second,
		AcceptIdleTimeout:       60 * time.Second,
		OverallTimeout:          0,
		Backlog:                200,
		Interruptable:           true,
		ErrClassifier:           DefaultErrClassifier,
		Logger:                  DefaultSLogger(),
		TimeNow:                 time.Now,
	}
}
