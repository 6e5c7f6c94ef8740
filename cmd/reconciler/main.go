// The reconciler CLI merges two listing datasets into one deduplicated
// collection and ships the result to its export targets.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
