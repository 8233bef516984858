// Package root contains the root command for the application
package root

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tbank-xlsx/internal/config"
)

// CommonFlags represents the flags shared by the commands.
type CommonFlags struct {
	Input  string
	Output string
	Rules  string
	Format string
}

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// Cfg is the application configuration, loaded before any command runs
	Cfg *config.Config

	// SharedFlags holds the common flag values
	SharedFlags = CommonFlags{}

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "tbank-xlsx",
		Short: "Convert T-Bank CSV statements to XLSX with double-entry bookkeeping.",
		Long: `tbank-xlsx reads a T-Bank CSV statement export, merges paired own-account
transfers, assigns debit/credit accounts and categories from a declarative
rules file, and writes an XLSX (or CSV) report ready for a financial
tracking spreadsheet.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to tbank-xlsx!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnv()

			var err error
			Cfg, err = config.InitializeConfig()
			if err != nil {
				Log.Fatalf("Failed to load configuration: %v", err)
			}

			configureLogging(Cfg)
		},
	}
)

// Init initializes the root command and all persistent flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input T-Bank CSV file")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output file")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Rules, "rules", "r", "", "Rules file (default from configuration)")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Format, "format", "f", "", "Output format: xlsx or csv (default from configuration)")
}

func configureLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)
	logrus.SetLevel(level)

	if strings.ToLower(cfg.Log.Format) == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
