package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-covid-reports/internal/config"
	"github.com/deploymenttheory/go-covid-reports/internal/logger"
)

var (
	cfgFile string
	cfg     config.Config
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Errorf("Error executing command: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "covid-reports",
		Short: "Download and chart JHU CSSE COVID-19 daily reports",
		Long: `Downloads the daily report CSV files published in the JHU CSSE COVID-19
repository, and renders an interactive chart of confirmed cases in the
European Union from previously downloaded reports.`,
		PersistentPreRunE: setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "YAML config file")

	// Logging flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose debugging output")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().String("log-file", "", "log to file instead of stdout")

	rootCmd.AddCommand(newDownloadCmd(), newChartCmd())
	return rootCmd
}

// setup loads the configuration, then configures the logger from it and
// the command line flags
func setup(cmd *cobra.Command, args []string) error {
	cfg = config.Default()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = logger.LevelDebug
	}
	logger.SetLevel(level)

	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		logger.DisableColors()
	}

	if logFile, _ := cmd.Flags().GetString("log-file"); logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			logger.Errorf("Failed to open log file: %v", err)
		} else {
			// Disable colors when logging to file
			logger.DisableColors()
			logger.SetOutput(file)
			logger.Infof("Logging to file: %s", logFile)
		}
	}

	logger.Debugf("Debug logging enabled")
	return nil
}
