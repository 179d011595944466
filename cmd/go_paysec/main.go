// Command go_paysec is the terminal message security CLI and host command server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/andrei-cloud/go_paysec/internal/commands/cli"
)

func main() {
	rootCmd, err := cli.NewRootCommand()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
