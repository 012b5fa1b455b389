package winsema

import (
	"sync/atomic"
	"time"
)

// addressSync abstracts the wait-on-address and wake-by-address primitives
// the atomic backend blocks on. The real implementation lives in the
// windows-only wiring; tests supply their own together with a controlled
// clock.
type addressSync interface {
	// wait blocks until the value at addr no longer equals expected, the
	// timeout elapses, or a wake arrives. A negative timeout blocks
	// indefinitely. Returns ErrTimedOut when the primitive itself times out.
	//
	// Wakeups may be spurious, and a real change may be consumed by another
	// waiter before this one runs again. Callers must re-read the value after
	// every return and must never treat a wake as ownership.
	wait(addr *int32, expected int32, timeout time.Duration) error

	// wake wakes at least one waiter blocked on addr, if any.
	wake(addr *int32)
}

// atomicSem is the lock-free backend: the permit count lives in a single
// int32 and ownership of a permit is only ever established by a successful
// compare-and-swap decrement. There is no OS object behind it.
type atomicSem struct {
	count int32
	sync  addressSync
	now   func() time.Time
}

func (s *atomicSem) close() error {
	// Nothing to release; the counter is ordinary process memory.
	return nil
}

func (s *atomicSem) value() uint32 {
	return uint32(atomic.LoadInt32(&s.count))
}

func (s *atomicSem) post() error {
	atomic.AddInt32(&s.count, 1)
	s.sync.wake(&s.count)
	return nil
}

func (s *atomicSem) waitTimeout(timeout time.Duration) error {
	if timeout == 0 {
		// Non-blocking poll: one CAS attempt. A lost race reports a timeout
		// rather than spinning.
		count := atomic.LoadInt32(&s.count)
		if count == 0 {
			return ErrTimedOut
		}
		if atomic.CompareAndSwapInt32(&s.count, count, count-1) {
			return nil
		}
		return ErrTimedOut
	}

	if timeout < 0 {
		for {
			count := atomic.LoadInt32(&s.count)
			for count == 0 {
				if err := s.sync.wait(&s.count, count, -1); err != nil {
					return err
				}
				count = atomic.LoadInt32(&s.count)
			}

			// The permit is only consumed if this succeeds. If it doesn't,
			// another waiter got there first and everything starts over.
			if atomic.CompareAndSwapInt32(&s.count, count, count-1) {
				return nil
			}
		}
	}

	// The wait primitive is subject to spurious and stolen wakeups, so the
	// remaining time must be recomputed from the deadline before every block.
	deadline := s.now().Add(timeout)

	for {
		count := atomic.LoadInt32(&s.count)
		for count == 0 {
			remaining := deadline.Sub(s.now())
			if remaining <= 0 {
				return ErrTimedOut
			}
			if err := s.sync.wait(&s.count, count, remaining); err != nil {
				return err
			}
			count = atomic.LoadInt32(&s.count)
		}

		if atomic.CompareAndSwapInt32(&s.count, count, count-1) {
			return nil
		}
	}
}
