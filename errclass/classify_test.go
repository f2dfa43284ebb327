// SPDX-License-Identifier: GPL-3.0-or-later

package errclass

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, ""},
		{"context canceled", context.Canceled, "generic_canceled_error"},
		{"context deadline exceeded", context.DeadlineExceeded, "ETIMEDOUT"},
		{"connection reset", errECONNRESET, "ECONNRESET"},
		{"connection refused", errECONNREFUSED, "ECONNREFUSED"},
		{"timed out", errETIMEDOUT, "ETIMEDOUT"},
		{"broken pipe", errEPIPE, "EPIPE"},
		{"would block", errEAGAIN, "EAGAIN"},
		{"connect pending", errEINPROGRESS, "EINPROGRESS"},
		{"wrapped errno", errors.Join(errors.New("dial"), errECONNRESET), "ECONNRESET"},
		{"unrelated error", errors.New("boom"), "generic_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, New(tt.err))
		})
	}
}
