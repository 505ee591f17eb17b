// Command jsonapi decodes JSON:API documents from files, stdin or the upstream.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jsamuelsen/jsonapi-gateway/internal/cli/commands"
)

// exitCoder is implemented by errors that carry a process exit code.
type exitCoder interface {
	ExitCode() int
}

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)

		var ec exitCoder
		if errors.As(err, &ec) {
			os.Exit(ec.ExitCode())
		}

		os.Exit(1)
	}
}
