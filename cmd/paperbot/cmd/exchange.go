package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/paperbot/internal/logger"
)

var exchangeCmd = &cobra.Command{
	Use:   "exchange",
	Short: "Connect to an exchange and sync a display-only snapshot",
	Long: `Exchange connects with API credentials and pulls a read-only balance
and position snapshot that overlays the portfolio display. Synced data
never feeds the local ledger.

Credentials come from flags or from the environment (optionally via a
.env file): PAPERBOT_API_KEY and PAPERBOT_API_SECRET.`,
}

var exchangeConnectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Store exchange credentials",
	RunE:  runExchangeConnect,
}

var exchangeSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch a fresh balance and position snapshot",
	RunE:  runExchangeSync,
}

var exchangeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the connection state and last sync",
	RunE:  runExchangeStatus,
}

var (
	exVenue  string
	exKey    string
	exSecret string
	exMode   string
)

func init() {
	rootCmd.AddCommand(exchangeCmd)
	exchangeCmd.AddCommand(exchangeConnectCmd, exchangeSyncCmd, exchangeStatusCmd)

	exchangeCmd.PersistentFlags().StringVarP(&exVenue, "venue", "v", "binance", "exchange venue (binance, mexc, okx, bybit)")
	exchangeConnectCmd.Flags().StringVar(&exKey, "key", "", "API key (falls back to PAPERBOT_API_KEY)")
	exchangeConnectCmd.Flags().StringVar(&exSecret, "secret", "", "API secret (falls back to PAPERBOT_API_SECRET)")
	exchangeSyncCmd.Flags().StringVarP(&exMode, "mode", "m", "spot", "trading mode (spot, future)")
}

// envCredentials resolves credentials from flags first, then the
// environment. A .env in the working directory is loaded if present.
func envCredentials() (key, secret string) {
	if err := godotenv.Load(); err == nil {
		logger.S().Debugw("loaded .env")
	}
	key, secret = exKey, exSecret
	if key == "" {
		key = os.Getenv("PAPERBOT_API_KEY")
	}
	if secret == "" {
		secret = os.Getenv("PAPERBOT_API_SECRET")
	}
	return key, secret
}

func runExchangeConnect(cmd *cobra.Command, args []string) error {
	b, err := openBot()
	if err != nil {
		return err
	}
	defer b.Close()

	key, secret := envCredentials()
	if err := b.Adapter().Connect(exVenue, key, secret); err != nil {
		return err
	}
	fmt.Printf("connected to %s\n", exVenue)
	return nil
}

func runExchangeSync(cmd *cobra.Command, args []string) error {
	mode, err := parseMode(exMode)
	if err != nil {
		return err
	}

	b, err := openBot()
	if err != nil {
		return err
	}
	defer b.Close()

	if !b.Adapter().Settings().Connected {
		key, secret := envCredentials()
		if err := b.Adapter().Connect(exVenue, key, secret); err != nil {
			return err
		}
	}

	snap, err := b.SyncExchange(cmd.Context(), mode)
	if err != nil {
		return err
	}
	fmt.Printf("synced %s: balance %.2f, %d open positions\n",
		exVenue, snap.Balance, len(snap.OpenPositions))
	return nil
}

func runExchangeStatus(cmd *cobra.Command, args []string) error {
	b, err := openBot()
	if err != nil {
		return err
	}
	defer b.Close()

	s := b.Adapter().Settings()
	if !s.Connected {
		fmt.Println("not connected")
		return nil
	}
	fmt.Printf("connected to %s (last sync %s)\n", s.Exchange, s.LastSynced.Format("2006-01-02 15:04:05"))
	if s.LastError != "" {
		fmt.Printf("last error: %s\n", s.LastError)
	}
	return nil
}
