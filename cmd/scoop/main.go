// Command scoop squares a range of integers on a worker pool, each call
// sleeping for a fixed delay, and prints the ordered results with the
// elapsed time.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
