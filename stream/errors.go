// SPDX-License-Identifier: GPL-3.0-or-later

package stream

import "errors"

// ErrRecvTimeout is returned by [Stream.Read] when the configured
// recv-idle timeout passes before new data becomes available.
var ErrRecvTimeout = errors.New("stream: recv timed out")

// ErrSendTimeout is returned by [Stream.Write]/[Stream.Flush] when a
// single underlying SendOnce call times out before all buffered bytes
// are sent.
var ErrSendTimeout = errors.New("stream: send timed out")
