// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"context"
	"time"

	"github.com/rainsocket/rain/timeout"
)

// timeoutContext converts a [timeout.Timeout] into a [context.Context]
// for the handful of operations (address resolution) that are
// implemented on top of Go's context-based standard library APIs rather
// than poll(2) directly.
func timeoutContext(t timeout.Timeout) (context.Context, context.CancelFunc) {
	if t.IsInfinite() {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), maxDuration(t.Remaining(), 0))
}

func maxDuration(d, floor time.Duration) time.Duration {
	if d < floor {
		return floor
	}
	return d
}
