//go:build windows
// +build windows

package winsema

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func haveWaitOnAddress() bool {
	return procWaitOnAddress.Find() == nil && procWakeByAddressSingle.Find() == nil
}

func TestSelectBackendPrefersAtomic(t *testing.T) {
	if !haveWaitOnAddress() {
		t.Skip("WaitOnAddress not available on this system")
	}
	t.Setenv(ForceKernelEnv, "")

	h, err := selectBackend()(0)
	require.NoError(t, err)
	defer h.close()

	assert.IsType(t, &atomicSem{}, h)
}

func TestSelectBackendForceKernelHint(t *testing.T) {
	t.Setenv(ForceKernelEnv, "1")

	h, err := selectBackend()(0)
	require.NoError(t, err)
	defer h.close()

	assert.IsType(t, &kernelSem{}, h)
}

func TestWindowsSyncTimesOut(t *testing.T) {
	if !haveWaitOnAddress() {
		t.Skip("WaitOnAddress not available on this system")
	}

	var v int32
	err := windowsSync{}.wait(&v, 0, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimedOut)
}

func TestWindowsSyncWake(t *testing.T) {
	if !haveWaitOnAddress() {
		t.Skip("WaitOnAddress not available on this system")
	}

	var v int32
	done := make(chan error, 1)
	go func() {
		done <- windowsSync{}.wait(&v, 0, -1)
	}()

	// The change lands before the wake, so the waiter either never blocks or
	// is woken; both paths return promptly.
	time.Sleep(10 * time.Millisecond)
	atomic.StoreInt32(&v, 1)
	windowsSync{}.wake(&v)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken")
	}
}

func TestKernelSemRoundTrip(t *testing.T) {
	h, err := newKernelSem(5)
	require.NoError(t, err)
	defer h.close()

	assert.Equal(t, uint32(5), h.value())
	for i := 0; i < 5; i++ {
		require.NoError(t, h.waitTimeout(-1))
	}
	require.ErrorIs(t, h.waitTimeout(0), ErrTimedOut)
	assert.Equal(t, uint32(0), h.value())

	require.NoError(t, h.post())
	require.NoError(t, h.waitTimeout(0))
}

func TestKernelSemBoundedWaitTimesOut(t *testing.T) {
	h, err := newKernelSem(0)
	require.NoError(t, err)
	defer h.close()

	const timeout = 50 * time.Millisecond
	start := time.Now()
	werr := h.waitTimeout(timeout)
	elapsed := time.Since(start)

	require.ErrorIs(t, werr, ErrTimedOut)
	assert.GreaterOrEqual(t, elapsed, timeout-time.Millisecond)
}

func TestKernelSemWakesWaiter(t *testing.T) {
	h, err := newKernelSem(0)
	require.NoError(t, err)
	defer h.close()

	done := make(chan error, 1)
	go func() {
		done <- h.waitTimeout(-1)
	}()

	require.NoError(t, h.post())

	select {
	case werr := <-done:
		require.NoError(t, werr)
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken by post")
	}
	assert.Equal(t, uint32(0), h.value())
}

// TestKernelSemPostCloseRace exercises the ordering rule in the kernel
// backend's post: the mirrored count is committed before ReleaseSemaphore, so
// a waiter that consumes the permit may immediately close the semaphore
// without racing the poster's bookkeeping.
func TestKernelSemPostCloseRace(t *testing.T) {
	for i := 0; i < 200; i++ {
		h, err := newKernelSem(0)
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			if werr := h.waitTimeout(-1); werr != nil {
				t.Errorf("wait failed: %v", werr)
				return
			}
			if cerr := h.close(); cerr != nil {
				t.Errorf("close failed: %v", cerr)
			}
		}()

		require.NoError(t, h.post())
		wg.Wait()
	}
}

func TestPublicRoundTrip(t *testing.T) {
	sem, err := New(3)
	require.NoError(t, err)
	defer sem.Close()

	v, err := sem.Value()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), v)

	for i := 0; i < 3; i++ {
		require.NoError(t, sem.Wait())
	}

	ok, err := sem.TryWait()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, sem.Post())
	ok, err = sem.TryWait()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPublicConcurrentStress(t *testing.T) {
	const (
		workers   = 8
		perWorker = 100
	)
	sem, err := New(0)
	require.NoError(t, err)
	defer sem.Close()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if perr := sem.Post(); perr != nil {
					t.Errorf("post failed: %v", perr)
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if werr := sem.Wait(); werr != nil {
					t.Errorf("wait failed: %v", werr)
					return
				}
			}
		}()
	}
	wg.Wait()

	v, err := sem.Value()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), v)
}
