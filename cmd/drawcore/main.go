package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/huntwise/drawcore/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands emit their own formatted errors; only surface ones that
		// never reached a formatter (flag parsing, invalid format).
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
