// Command server runs the medical test booking API and its helpers.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "server",
		Short:        "Medical test booking API",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), notifyCmd(), tokenCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
