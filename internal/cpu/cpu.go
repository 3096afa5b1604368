// Package cpu binds pool workers to processor cores.
package cpu

import "runtime"

// wrap maps any worker id onto [0, NumCPU).
func wrap(workerID int) int {
	n := runtime.NumCPU()
	if workerID < 0 {
		workerID = -workerID
	}
	return workerID % n
}
