// SPDX-License-Identifier: GPL-3.0-or-later

package rain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	require.NotNil(t, cfg)

	assert.Equal(t, 1024, cfg.MaxThreads)
	assert.Equal(t, 1024, cfg.RecvBufferLen)
	assert.Equal(t, 1024, cfg.SendBufferLen)
	assert.Equal(t, 200, cfg.Backlog)
	assert.True(t, cfg.Interruptable)

	// ErrClassifier should use errclass by default
	assert.Equal(t, "", cfg.ErrClassifier.Classify(nil))
	assert.Equal(t, "ETIMEDOUT", cfg.ErrClassifier.Classify(context.DeadlineExceeded))

	// Logger should be non-nil and safe to call
	require.NotNil(t, cfg.Logger)
	cfg.Logger.Debug("probe")

	// TimeNow should be set and return a valid time
	now := cfg.TimeNow()
	assert.False(t, now.IsZero())
}
