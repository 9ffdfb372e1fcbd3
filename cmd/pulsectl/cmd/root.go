// Package cmd contains the CLI commands for pulsectl.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Used for flags
	verbose bool
	output  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pulsectl",
	Short: "Pulseboard admin tool",
	Long: `pulsectl manages a Pulseboard installation directly through its
database file. It is intended for system administrators working on the
server host, outside of the web interface.

Examples:
  # List all users
  pulsectl user list

  # Create a team lead
  pulsectl user create --username dana --email dana@example.com --role team_lead

  # Reset a password
  pulsectl user passwd --username dana`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
}

// GetOutput returns the output format.
func GetOutput() string {
	return output
}

// PrintVerbose prints a message only if verbose mode is enabled.
func PrintVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format+"\n", args...)
	}
}
