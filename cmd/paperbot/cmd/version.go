package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("paperbot version %s\n", version)
		fmt.Println("A paper-trading ledger and strategy-evaluation engine")
		fmt.Println("https://github.com/rustyeddy/paperbot")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
