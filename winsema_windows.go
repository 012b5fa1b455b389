//go:build windows
// +build windows

package winsema

import (
	"fmt"
	"os"
	"strconv"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// ForceKernelEnv names the environment variable that, when set to a true
// value ("1", "true", ...), pins the process to the kernel semaphore backend
// even when the atomic backend is available.
const ForceKernelEnv = "WINSEMA_FORCE_KERNEL"

// WaitOnAddress and WakeByAddressSingle ship with Windows 8 and newer, so
// they are resolved dynamically; on older systems the kernel backend takes
// over. CreateSemaphoreW and ReleaseSemaphore exist everywhere but are kept
// as lazy procs alongside them.
var (
	modSynch                = windows.NewLazySystemDLL("api-ms-win-core-synch-l1-2-0.dll")
	procWaitOnAddress       = modSynch.NewProc("WaitOnAddress")
	procWakeByAddressSingle = modSynch.NewProc("WakeByAddressSingle")

	modKernel32          = windows.NewLazySystemDLL("kernel32.dll")
	procCreateSemaphoreW = modKernel32.NewProc("CreateSemaphoreW")
	procReleaseSemaphore = modKernel32.NewProc("ReleaseSemaphore")
)

// selectBackend picks the semaphore implementation for the whole process.
// Defaults to the kernel backend and upgrades to the atomic one when both
// address-wait entry points resolve and the force-kernel hint is unset.
func selectBackend() createFunc {
	if !envBool(ForceKernelEnv) {
		if procWaitOnAddress.Find() == nil && procWakeByAddressSingle.Find() == nil {
			return newAtomicSem
		}
	}
	return newKernelSem
}

func envBool(name string) bool {
	v, err := strconv.ParseBool(os.Getenv(name))
	return err == nil && v
}

func newAtomicSem(initial uint32) (handle, error) {
	return &atomicSem{
		count: int32(initial),
		sync:  windowsSync{},
		now:   time.Now,
	}, nil
}

// windowsSync adapts WaitOnAddress/WakeByAddressSingle to the addressSync
// contract used by the atomic backend.
type windowsSync struct{}

func (windowsSync) wait(addr *int32, expected int32, timeout time.Duration) error {
	ms := uint32(windows.INFINITE)
	if timeout >= 0 {
		ms = uint32(timeout / time.Millisecond)
	}
	r, _, err := procWaitOnAddress.Call(
		uintptr(unsafe.Pointer(addr)),
		uintptr(unsafe.Pointer(&expected)),
		unsafe.Sizeof(expected),
		uintptr(ms),
	)
	if r == 0 {
		if err == windows.ERROR_TIMEOUT {
			return ErrTimedOut
		}
		return fmt.Errorf("WaitOnAddress failed: %w", err)
	}
	return nil
}

func (windowsSync) wake(addr *int32) {
	procWakeByAddressSingle.Call(uintptr(unsafe.Pointer(addr)))
}
