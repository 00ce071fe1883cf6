// Command numtree loads synthetic workloads into a numeric range index to
// benchmark queries and inspect tree shapes.
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
