//go:build windows

package cpu

import (
	"runtime"
	"syscall"
)

var (
	kernel32              = syscall.NewLazyDLL("kernel32.dll")
	setThreadAffinityMask = kernel32.NewProc("SetThreadAffinityMask")
	getCurrentThread      = kernel32.NewProc("GetCurrentThread")
)

func pinToCore(workerID int) (int, error) {
	core := wrap(workerID)

	handle, _, _ := getCurrentThread.Call()
	prev, _, err := setThreadAffinityMask.Call(handle, uintptr(1)<<uint(core))
	if prev == 0 {
		return -1, err
	}
	return core, nil
}

// Pin locks the calling goroutine to its OS thread and binds that thread to
// a core derived from workerID. The returned release func unlocks the thread.
func Pin(workerID int) (core int, release func(), err error) {
	runtime.LockOSThread()
	core, err = pinToCore(workerID)
	return core, runtime.UnlockOSThread, err
}

// Supported reports whether Pin binds threads to cores on this platform.
func Supported() bool {
	return true
}
