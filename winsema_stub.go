//go:build !windows
// +build !windows

package winsema

// selectBackend on non-windows platforms yields a constructor that always
// fails with ErrNotSupported. The package still compiles everywhere so that
// cross-platform dependents can build, and so the backend-independent logic
// can be tested off-target.
func selectBackend() createFunc {
	return func(initial uint32) (handle, error) {
		return nil, ErrNotSupported
	}
}
