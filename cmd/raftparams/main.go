// Command raftparams validates, prints and serves Raft tuning parameters.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
