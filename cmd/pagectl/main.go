// Package main is pagectl, the operator CLI for a Pagebound data store.
//
// It talks to the persistence backend directly, so it works while the
// server is stopped. Storage flags and environment variables are the same
// as the server's.
//
// Usage:
//
//	pagectl seed --file catalog.yaml
//	pagectl books --genre fantasy --price free --sort rating
//	pagectl groups --book dune-1
//	pagectl annotations --book dune-1
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
