// Command permitctl runs compliance checks and manages reference data from
// the command line.
//
// Usage:
//
//	permitctl check project.yaml --history checks.db
//	permitctl goals --description "New commercial building" --zoning CG
//	permitctl history 1 --history checks.db
//	permitctl seed --seed shady_cove.yaml
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
