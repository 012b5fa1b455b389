//go:build windows
// +build windows

package winsema

import (
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sys/windows"
)

// kernelMaxCount is the maximum count given to the native object. Permits
// beyond it are rejected by ReleaseSemaphore; 32K matches what every Windows
// version guarantees to support.
const kernelMaxCount = 32 * 1024

// kernelSem is the fallback backend: a native kernel semaphore object plus an
// atomic mirror of its count, because Windows offers no cheap way to query a
// semaphore's value.
type kernelSem struct {
	handle windows.Handle
	count  int32
}

func newKernelSem(initial uint32) (handle, error) {
	h, _, err := procCreateSemaphoreW.Call(0, uintptr(initial), kernelMaxCount, 0)
	if h == 0 {
		return nil, fmt.Errorf("CreateSemaphore failed: %w", err)
	}
	return &kernelSem{
		handle: windows.Handle(h),
		count:  int32(initial),
	}, nil
}

func (s *kernelSem) close() error {
	if s.handle == 0 {
		return nil
	}
	err := windows.CloseHandle(s.handle)
	s.handle = 0
	if err != nil {
		return fmt.Errorf("CloseHandle failed: %w", err)
	}
	return nil
}

func (s *kernelSem) value() uint32 {
	return uint32(atomic.LoadInt32(&s.count))
}

func (s *kernelSem) waitTimeout(timeout time.Duration) error {
	ms := uint32(windows.INFINITE)
	if timeout >= 0 {
		ms = uint32(timeout / time.Millisecond)
	}
	event, err := windows.WaitForSingleObject(s.handle, ms)
	switch event {
	case windows.WAIT_OBJECT_0:
		atomic.AddInt32(&s.count, -1)
		return nil
	case uint32(windows.WAIT_TIMEOUT):
		return ErrTimedOut
	default:
		return fmt.Errorf("WaitForSingleObject failed: %w", err)
	}
}

func (s *kernelSem) post() error {
	// The mirror moves first: the moment ReleaseSemaphore succeeds, another
	// thread may consume the permit and close this semaphore, so the count
	// must already be committed. On release failure no permit was made
	// available and the increment is rolled back.
	atomic.AddInt32(&s.count, 1)
	r, _, err := procReleaseSemaphore.Call(uintptr(s.handle), 1, 0)
	if r == 0 {
		atomic.AddInt32(&s.count, -1)
		return fmt.Errorf("ReleaseSemaphore failed: %w", err)
	}
	return nil
}
