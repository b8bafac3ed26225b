// Command recipectl is the administration CLI for the recipe API: it creates
// accounts, lists a user's recipes and writes sample configuration. It talks
// to the SQLite database directly, so it works whether or not the server is
// running.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
