// SPDX-License-Identifier: GPL-3.0-or-later

package stream

import (
	"github.com/rainsocket/rain"
)

// ObservedStream wraps a [*Stream], logging readStart/readDone and
// writeStart/writeDone events at Debug, matching the per-I/O logging
// tier described in doc.go.
type ObservedStream struct {
	*Stream
	logger rain.SLogger
}

// Observe wraps s so that every Read/Write call is logged at Debug via
// cfg.Logger.
func Observe(cfg *rain.Config, s *Stream) *ObservedStream {
	return &ObservedStream{Stream: s, logger: cfg.Logger}
}

// Read implements [io.Reader], logging around the wrapped [Stream.Read].
func (o *ObservedStream) Read(p []byte) (int, error) {
	o.logger.Debug("streamReadStart", "want", len(p))
	n, err := o.Stream.Read(p)
	fields := []any{"n", n}
	if err != nil {
		fields = append(fields, "err", err.Error())
	}
	o.logger.Debug("streamReadDone", fields...)
	return n, err
}

// Write implements [io.Writer], logging around the wrapped [Stream.Write].
func (o *ObservedStream) Write(p []byte) (int, error) {
	o.logger.Debug("streamWriteStart", "len", len(p))
	n, err := o.Stream.Write(p)
	fields := []any{"n", n}
	if err != nil {
		fields = append(fields, "err", err.Error())
	}
	o.logger.Debug("streamWriteDone", fields...)
	return n, err
}
