package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/allocation"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// policyCmd implements 'advisor policy'
var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Print the policy weight table",
	Long: `Print the base policy weights per risk tolerance, any horizon bands and
the macro tilt settings. With --risk the row selected for that tolerance and
--horizon is printed instead.

Examples:
  advisor policy
  advisor policy --format yaml
  advisor policy --risk aggressive --horizon 20`,
	Args: cobra.NoArgs,
	RunE: runPolicy,
}

// Policy command flags
var (
	policyFormat  string
	policyRisk    string
	policyHorizon int
)

func init() {
	rootCmd.AddCommand(policyCmd)

	policyCmd.Flags().StringVar(&policyFormat, "format", "table", "Output format (table|json|yaml)")
	policyCmd.Flags().StringVar(&policyRisk, "risk", "", "Only print the row for this risk tolerance")
	policyCmd.Flags().IntVar(&policyHorizon, "horizon", domain.DefaultHorizonYear, "Time horizon in years, used with --risk")
}

func runPolicy(cmd *cobra.Command, args []string) error {
	allocCfg, err := config.LoadAllocatorConfig(policyFile)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if policyRisk != "" {
		engine := allocation.NewEngine(allocCfg.Policy, newLogger(cmd))
		w, band, err := engine.BaseWeights(domain.UserProfile{
			RiskTolerance:    domain.RiskTolerance(policyRisk),
			TimeHorizonYears: policyHorizon,
		})
		if err != nil {
			return err
		}
		return printRow(out, policyFormat, w, band)
	}

	switch strings.ToLower(policyFormat) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(allocCfg.Policy)
	case "yaml":
		return yaml.NewEncoder(out).Encode(allocCfg.Policy)
	case "table":
		return printPolicyTable(out, allocCfg.Policy)
	}
	return fmt.Errorf("unknown format %q (expected table, json or yaml)", policyFormat)
}

func printRow(out io.Writer, format string, w domain.PolicyWeights, band string) error {
	switch strings.ToLower(format) {
	case "json":
		return json.NewEncoder(out).Encode(w)
	case "yaml":
		return yaml.NewEncoder(out).Encode(w)
	case "table":
		if band == "" {
			band = "base"
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "BAND\tEQUITY\tBOND\tCASH")
		fmt.Fprintf(tw, "%s\t%.1f%%\t%.1f%%\t%.1f%%\n", band, w.Equity, w.Bond, w.Cash)
		return tw.Flush()
	}
	return fmt.Errorf("unknown format %q (expected table, json or yaml)", format)
}

func printPolicyTable(out io.Writer, cfg allocation.PolicyConfig) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	writeTable := func(title string, table allocation.PolicyTable) {
		fmt.Fprintf(tw, "%s\n", title)
		fmt.Fprintln(tw, "RISK TOLERANCE\tEQUITY\tBOND\tCASH")
		for _, rt := range domain.RiskTolerances {
			w := table[rt]
			fmt.Fprintf(tw, "%s\t%.1f%%\t%.1f%%\t%.1f%%\n", rt, w.Equity, w.Bond, w.Cash)
		}
		fmt.Fprintln(tw)
	}

	base := cfg.Base
	if base == nil {
		base = allocation.DefaultPolicyTable()
	}
	if len(cfg.HorizonBands) == 0 {
		writeTable("Policy weights", base)
	}
	for _, band := range cfg.HorizonBands {
		limit := fmt.Sprintf("up to %d years", band.MaxYears)
		if band.MaxYears <= 0 {
			limit = "open-ended"
		}
		writeTable(fmt.Sprintf("Horizon band %q (%s)", band.Name, limit), band.Table)
	}

	if cfg.Tilt.Enabled && cfg.Tilt.MaxTilt > 0 {
		fmt.Fprintf(tw, "Macro tilt: up to %.1fpp equity at full confidence (minimum confidence %.2f)\n",
			cfg.Tilt.MaxTilt, cfg.Tilt.MinConfidence)
	} else {
		fmt.Fprintln(tw, "Macro tilt: disabled")
	}
	return tw.Flush()
}
