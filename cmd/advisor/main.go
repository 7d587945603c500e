// Command advisor builds a portfolio recommendation report from a profile
// document and a directory of upstream analysis outputs, without running
// the HTTP service.
package main

import (
	"fmt"
	"os"

	"github.com/aristath/advisor/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Global flags
var (
	logLevel   string
	policyFile string
)

// rootCmd is the base command for the advisor CLI
var rootCmd = &cobra.Command{
	Use:   "advisor",
	Short: "Investment advisory allocator",
	Long: `advisor turns an investor profile and upstream market signals into a
policy allocation, rebalancing instructions, ranked holdings and a report.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&policyFile, "policy-file", os.Getenv("POLICY_FILE"), "YAML file overriding allocator tunables")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger logs to the command's stderr so report output on stdout stays clean
func newLogger(cmd *cobra.Command) zerolog.Logger {
	return logger.New(logger.Config{
		Level:  logLevel,
		Pretty: true,
		Output: cmd.ErrOrStderr(),
	})
}
