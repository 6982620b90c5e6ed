package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	noColor bool
	verbose bool
)

// errReported marks a failure whose message was already written; main only
// sets the exit status.
var errReported = errors.New("reported")

var rootCmd = &cobra.Command{
	Use:           "smartfill",
	Short:         "Fill form fields from your profile",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", os.Getenv("NO_COLOR") != "", "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")

	rootCmd.AddCommand(fillCmd)
	rootCmd.AddCommand(triggerCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			printError("%v", err)
		}
		os.Exit(1)
	}
}
