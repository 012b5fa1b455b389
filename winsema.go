package winsema

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrTimedOut is returned by the wait family when no permit became
	// available within the requested window. It is a normal control-flow
	// result, not a fault; match it with errors.Is.
	ErrTimedOut = errors.New("semaphore wait timed out")

	// ErrInvalidSemaphore is returned when an operation is invoked on a nil
	// or already-closed semaphore. This is always a caller bug and is never
	// worth retrying.
	ErrInvalidSemaphore = errors.New("semaphore is nil or already closed")

	// ErrNotSupported is returned by New on platforms other than Windows.
	ErrNotSupported = errors.New("native semaphores are only available on windows")
)

// handle is the contract both backends implement. The public Semaphore type
// holds only this interface, so call sites never know which backend is live.
type handle interface {
	close() error
	waitTimeout(timeout time.Duration) error
	value() uint32
	post() error
}

// createFunc constructs a backend semaphore with the given initial permit
// count.
type createFunc func(initial uint32) (handle, error)

// The backend is probed exactly once per process, on the first New call.
// sync.Once guarantees concurrent first calls never observe a partially
// selected backend, and the choice never changes afterwards.
var (
	backendOnce   sync.Once
	createBackend createFunc
)

// Semaphore is a counting semaphore backed by a native Windows primitive.
// Create one with New and always release it with Close.
//
// A Semaphore may be shared freely between goroutines (and the OS threads
// they run on). It must not be shared between processes.
type Semaphore struct {
	h handle
}

// New creates a semaphore holding initial permits.
//
// The first call in the process selects the backend for every semaphore
// created afterwards: the atomic WaitOnAddress backend when the OS provides
// it, otherwise kernel semaphore objects. See the package documentation for
// the selection rules.
func New(initial uint32) (*Semaphore, error) {
	backendOnce.Do(func() {
		createBackend = selectBackend()
	})
	h, err := createBackend(initial)
	if err != nil {
		return nil, err
	}
	return &Semaphore{h: h}, nil
}

// Close releases the resources held by the semaphore. It is a no-op on a nil
// or already-closed semaphore.
//
// The caller must guarantee no goroutine is using the semaphore concurrently;
// closing a semaphore that another goroutine is blocked on is undefined.
func (s *Semaphore) Close() error {
	if s == nil || s.h == nil {
		return nil
	}
	err := s.h.close()
	s.h = nil
	return err
}

// WaitTimeout consumes one permit, blocking for at most the given timeout.
//
// A negative timeout waits forever. A zero timeout polls: it takes a single
// shot at an available permit and reports ErrTimedOut without blocking when
// none could be taken. A positive timeout bounds the wait; ErrTimedOut is
// returned once it elapses without a permit.
//
// A nil return means exactly one permit was consumed.
func (s *Semaphore) WaitTimeout(timeout time.Duration) error {
	if s == nil || s.h == nil {
		return ErrInvalidSemaphore
	}
	return s.h.waitTimeout(timeout)
}

// Wait consumes one permit, blocking until one becomes available.
func (s *Semaphore) Wait() error {
	return s.WaitTimeout(-1)
}

// TryWait attempts to consume one permit without blocking.
// Returns true if a permit was taken, false if none was available.
func (s *Semaphore) TryWait() (bool, error) {
	err := s.WaitTimeout(0)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrTimedOut) {
		return false, nil
	}
	return false, err
}

// Value returns the number of permits currently available.
//
// The value is a snapshot: by the time the caller acts on it, concurrent
// posts and waits may have changed it.
func (s *Semaphore) Value() (uint32, error) {
	if s == nil || s.h == nil {
		return 0, ErrInvalidSemaphore
	}
	return s.h.value(), nil
}

// Post produces one permit, waking one blocked waiter if any. No upper bound
// is enforced by the atomic backend; the kernel backend is capped by the
// native object's fixed maximum count.
func (s *Semaphore) Post() error {
	if s == nil || s.h == nil {
		return ErrInvalidSemaphore
	}
	return s.h.post()
}

// String returns a human-readable snapshot of the semaphore's state, enabling
// direct printing in fmt operations.
func (s *Semaphore) String() string {
	if s == nil || s.h == nil {
		return "Semaphore(closed)"
	}
	return fmt.Sprintf("Semaphore(%d)", s.h.value())
}
