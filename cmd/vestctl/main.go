// Command vestctl operates a vesting token ledger kept in a local bbolt
// database: genesis, transfers, lock inspection, privileged operations,
// batch distribution and signed approvals.
package main

import (
	"fmt"
	"os"

	"github.com/bitfsorg/libvest-go/clock"
)

func main() {
	a := &app{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		clock:  clock.Real(),
		getenv: os.Getenv,
	}
	err := a.run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "vestctl: %v\n", err)
	}
	os.Exit(exitCode(err))
}
