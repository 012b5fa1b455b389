// Package winsema provides a counting semaphore for Windows built directly on
// the operating system's synchronization primitives, with the same create,
// wait, post, value and close contract regardless of which primitive backs it.
//
// Two backends exist and one is chosen for the whole process the first time a
// semaphore is created:
//
//  1. Atomics and the WaitOnAddress API. Faster due to significantly fewer
//     context switches. Requires Windows 8 or newer.
//
//  2. Kernel semaphore objects. Available on all Windows versions.
//     Heavy-weight kernel objects, used as the fallback.
//
// The probe prefers the atomic backend whenever WaitOnAddress and
// WakeByAddressSingle can be resolved. Setting the WINSEMA_FORCE_KERNEL
// environment variable to a true value pins the process to the kernel
// backend.
//
// # Usage
//
// A semaphore counts permits: Post produces one, a successful wait consumes
// one, and a wait on an empty semaphore blocks until a permit arrives or the
// timeout elapses.
//
//	sem, err := winsema.New(0)
//	if err != nil {
//		return err
//	}
//	defer sem.Close()
//
//	go func() {
//		// ... produce something ...
//		sem.Post()
//	}()
//
//	if err := sem.WaitTimeout(2 * time.Second); err != nil {
//		if errors.Is(err, winsema.ErrTimedOut) {
//			// nothing was produced in time
//		}
//		return err
//	}
//
// WaitTimeout interprets its duration the same way on both backends: negative
// waits forever, zero polls without blocking, positive bounds the wait.
//
// # Guarantees
//
// A Post makes exactly one additional permit available to a waiting or later
// wait call. No fairness is promised: when several waiters block on the same
// semaphore, any one of them may consume a posted permit, and two permits
// posted in sequence may be consumed in any order.
//
// Semaphores must not be shared across processes. All operations except the
// wait family return without blocking.
//
// On platforms other than Windows every semaphore creation fails with
// ErrNotSupported; the package still compiles so that dependents can build
// and test cross-platform.
package winsema
