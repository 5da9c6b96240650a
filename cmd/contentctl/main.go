package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "contentctl",
		Short: "Resolve dimension content from the command line",
		Long: `contentctl loads forms and fixtures, aggregates the dimensions of a
resource and prints the resolved content as JSON.

Configuration is read from the environment (see "contentctl env"); flags
override it.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("forms", "", "directory holding form YAML files")
	rootCmd.PersistentFlags().String("forms-pattern", "*.yaml", "glob selecting form files")
	rootCmd.PersistentFlags().String("fixtures", "", "fixtures YAML file to seed the memory repository")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging to stderr")

	rootCmd.AddCommand(NewResolveCommand())
	rootCmd.AddCommand(NewIndexCommand())
	rootCmd.AddCommand(NewFormsCommand())
	rootCmd.AddCommand(NewEnvCommand())

	return rootCmd
}
