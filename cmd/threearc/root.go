package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oiutils/threearc/pkg/config"
)

const defaultVerbosity = 3

var (
	verbose    int
	quiet      bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "threearc",
	Short: "Extract the entries of length-prefixed container files",
	Long: `threearc unpacks container files made of an entry count, a table of
entry lengths and the entries themselves. Entries are recognized as PNG,
JPEG, MP3 or XOR-obfuscated JSON and written out one file per entry.

The container type is the numeric file extension (ui.3, sound.1, ...).`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&verbose, "verbose", "v", defaultVerbosity, "Verbosity from 0 (silent) to 5 (trace)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")

	// Add subcommands
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func setupLogging(cmd *cobra.Command, args []string) error {
	if verbose < 0 || verbose > 5 {
		return fmt.Errorf("verbosity must be between 0 and 5, got %d", verbose)
	}
	logrus.SetOutput(cmd.ErrOrStderr())
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logrus.SetLevel(logLevel(verbosity()))
	return nil
}

// verbosity is the effective verbosity level; --quiet keeps errors only.
func verbosity() int {
	if quiet {
		return 1
	}
	return verbose
}

func logLevel(v int) logrus.Level {
	switch v {
	case 0:
		return logrus.PanicLevel
	case 1:
		return logrus.ErrorLevel
	case 2:
		return logrus.WarnLevel
	case 3:
		return logrus.InfoLevel
	case 4:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

// loadConfig reads the file named by --config on top of the defaults and
// takes the password from the environment when neither sets one.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}
