package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the mark-to-market engine loop",
	Long: `Run drifts quotes, marks every open position to market, and persists
account state on each tick until interrupted. State is flushed on
shutdown, so a later invocation resumes from the saved portfolio.

Example:
  paperbot run --config paperbot.yaml`,
	RunE: runEngine,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runEngine(cmd *cobra.Command, args []string) error {
	b, err := openBot()
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("paperbot running, Ctrl-C to stop")
	return b.Run(ctx)
}
