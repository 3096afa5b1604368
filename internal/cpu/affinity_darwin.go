//go:build darwin

package cpu

import "runtime"

// Pin locks the goroutine to an OS thread. macOS offers no thread-to-core
// binding, so core is always -1.
func Pin(workerID int) (core int, release func(), err error) {
	runtime.LockOSThread()
	return -1, runtime.UnlockOSThread, nil
}

// Supported reports whether Pin binds threads to cores on this platform.
func Supported() bool {
	return false
}
