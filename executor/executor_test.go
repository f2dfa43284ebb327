// SPDX-License-Identifier: GPL-3.0-or-later

package executor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainsocket/rain"
	"github.com/rainsocket/rain/timeout"
)

func TestExecutorRunsAllTasks(t *testing.T) {
	e := New(rain.NewConfig(), 4)
	var count int64
	const n = 50
	for i := 0; i < n; i++ {
		e.Submit(func() { atomic.AddInt64(&count, 1) })
	}
	require.False(t, e.BlockForTasks(timeout.FromDuration(5*time.Second)))
	assert.Equal(t, int64(n), atomic.LoadInt64(&count))
}

func TestExecutorBoundsThreads(t *testing.T) {
	e := New(rain.NewConfig(), 2)
	var active, maxActive int64
	release := make(chan struct{})
	const n = 8
	for i := 0; i < n; i++ {
		e.Submit(func() {
			cur := atomic.AddInt64(&active, 1)
			for {
				old := atomic.LoadInt64(&maxActive)
				if cur <= old || atomic.CompareAndSwapInt64(&maxActive, old, cur) {
					break
				}
			}
			<-release
			atomic.AddInt64(&active, -1)
		})
	}
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, atomic.LoadInt64(&maxActive), int64(2))
	close(release)
	require.False(t, e.BlockForTasks(timeout.FromDuration(5*time.Second)))
}

func TestExecutorBlockForTasksTimesOutWhileBusy(t *testing.T) {
	e := New(rain.NewConfig(), 1)
	block := make(chan struct{})
	e.Submit(func() { <-block })
	assert.True(t, e.BlockForTasks(timeout.FromDuration(20*time.Millisecond)))
	close(block)
	require.False(t, e.BlockForTasks(timeout.FromDuration(time.Second)))
}

func TestExecutorRecoversPanics(t *testing.T) {
	e := New(rain.NewConfig(), 1)
	var ran int64
	e.Submit(func() { panic("boom") })
	e.Submit(func() { atomic.AddInt64(&ran, 1) })
	require.False(t, e.BlockForTasks(timeout.FromDuration(time.Second)))
	assert.Equal(t, int64(1), atomic.LoadInt64(&ran))
}

func TestExecutorShutdownUnblocksIdleWorkers(t *testing.T) {
	e := New(rain.NewConfig(), 4)
	e.Submit(func() {})
	require.False(t, e.BlockForTasks(timeout.FromDuration(time.Second)))
	e.Shutdown()
	done := make(chan struct{})
	go func() {
		e.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("executor did not shut down")
	}
}
