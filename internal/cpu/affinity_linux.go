//go:build linux

package cpu

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinToCore pins the calling OS thread to one core, wrapping workerID onto
// the available cores. Must be called after runtime.LockOSThread().
func pinToCore(workerID int) (int, error) {
	core := wrap(workerID)

	var mask unix.CPUSet
	mask.Zero()
	mask.Set(core)

	if err := unix.SchedSetaffinity(0, &mask); err != nil {
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
