package main

import (
	"fmt"
	"os"

	"github.com/crucial707/sqlgate/cmd/cli/root"
	"github.com/crucial707/sqlgate/cmd/cli/sqlcmd"
	"github.com/crucial707/sqlgate/cmd/cli/users"
)

func main() {
	rootCmd := root.GetRoot()
	users.InitUsers(rootCmd)
	sqlcmd.InitSQL(rootCmd)

	// Execute the root Cobra command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
