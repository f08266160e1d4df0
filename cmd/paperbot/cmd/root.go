package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/paperbot/bot"
	"github.com/rustyeddy/paperbot/config"
	"github.com/rustyeddy/paperbot/internal/logger"
	"github.com/rustyeddy/paperbot/journal"
	"github.com/rustyeddy/paperbot/ledger"
	"github.com/rustyeddy/paperbot/persistence"
)

var rootCmd = &cobra.Command{
	Use:   "paperbot",
	Short: "A paper-trading ledger and strategy-evaluation engine",
	Long: `Paperbot tracks simulated spot and leveraged-futures portfolios,
executes paper trades against live-like quotes, marks open positions to
market, and evaluates trading strategies with synthetic backtests.

It provides commands for:
  - Running the mark-to-market engine loop
  - Opening, closing, and inspecting paper positions
  - Managing strategies and ranking them by backtest return
  - Running and browsing backtest results
  - Syncing a display-only exchange snapshot`,
}

var cfgFile string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (defaults to built-in settings)")
}

func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(cfgFile)
}

// openBot builds the fully wired engine from the config: logger, durable
// store, journal. Callers must Close() it to flush state.
func openBot() (*bot.Bot, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Log)

	repo, err := persistence.NewBadger(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	jrnl, err := openJournal(cfg)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("open journal: %w", err)
	}

	return bot.New(cfg, repo, jrnl), nil
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "csv":
		return journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	default:
		return journal.Nop{}, nil
	}
}

func parseMode(s string) (ledger.TradingMode, error) {
	switch ledger.TradingMode(s) {
	case ledger.Spot:
		return ledger.Spot, nil
	case ledger.Future:
		return ledger.Future, nil
	}
	return "", fmt.Errorf("unknown trading mode %q (spot, future)", s)
}
