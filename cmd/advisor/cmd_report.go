package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/allocation"
	"github.com/aristath/advisor/internal/modules/portfolio"
	"github.com/aristath/advisor/internal/modules/profile"
	"github.com/aristath/advisor/internal/modules/report"
	"github.com/aristath/advisor/internal/signals"
	"github.com/aristath/advisor/internal/workflow"
	"github.com/spf13/cobra"
)

// reportCmd implements 'advisor report'
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build a recommendation report from analysis outputs",
	Long: `Build a recommendation from a profile document and the newest analysis
outputs in a directory, then write the markdown report and optionally the
JSON document.

Examples:
  advisor report --profile user_profile_42.json --analysis-dir analysis_outputs
  advisor report --analysis-dir analysis_outputs --out report.md --json-out report.json
  advisor report --profile p.json --current-alloc '{"equities":0.7,"bonds":0.3}'`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

// Report command flags
var (
	reportProfile      string
	reportAnalysisDir  string
	reportOut          string
	reportJSONOut      string
	reportCurrentAlloc string
	reportTimeout      time.Duration
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportProfile, "profile", "", "Profile JSON (default: newest user_profile_*.json in the analysis dir)")
	reportCmd.Flags().StringVar(&reportAnalysisDir, "analysis-dir", envOr("ANALYSIS_DIR", "analysis_outputs"), "Directory of upstream analysis outputs")
	reportCmd.Flags().StringVar(&reportOut, "out", "-", "Markdown output file (- for stdout)")
	reportCmd.Flags().StringVar(&reportJSONOut, "json-out", "", "JSON output file")
	reportCmd.Flags().StringVar(&reportCurrentAlloc, "current-alloc", "", `Current allocation as JSON, e.g. '{"equities":60,"bonds":40}'`)
	reportCmd.Flags().DurationVar(&reportTimeout, "timeout", 2*time.Minute, "Timeout for the whole run")
}

func runReport(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)

	allocCfg, err := config.LoadAllocatorConfig(policyFile)
	if err != nil {
		return err
	}

	profilePath := reportProfile
	if profilePath == "" {
		profilePath, err = profile.LatestInDir(reportAnalysisDir)
		if err != nil {
			return fmt.Errorf("no --profile given: %w", err)
		}
	}
	p, err := profile.Load(profilePath)
	if err != nil {
		return err
	}

	current, err := parseCurrentAlloc(reportCurrentAlloc)
	if err != nil {
		return err
	}

	allocator, err := portfolio.NewAllocator(allocCfg, log)
	if err != nil {
		return err
	}
	provider := signals.NewFileProvider(reportAnalysisDir, log)

	runner := workflow.NewRunner(workflow.Deps{
		Macro:     provider,
		Assets:    provider,
		Allocator: allocator,
	}, log)
	defer runner.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), reportTimeout)
	defer cancel()

	res, err := runner.Run(ctx, workflow.Request{Profile: p, CurrentWeights: current})
	if err != nil {
		return err
	}

	if err := writeOutput(cmd.OutOrStdout(), reportOut, []byte(res.ReportMarkdown)); err != nil {
		return err
	}
	if reportJSONOut != "" {
		data, err := report.JSON(res.Recommendation)
		if err != nil {
			return err
		}
		if err := writeOutput(cmd.OutOrStdout(), reportJSONOut, data); err != nil {
			return err
		}
	}

	if len(res.Unavailable) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Signals unavailable: %s\n", strings.Join(res.Unavailable, ", "))
	}
	return nil
}

func parseCurrentAlloc(raw string) (map[domain.AssetClass]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var weights map[string]float64
	if err := json.Unmarshal([]byte(raw), &weights); err != nil {
		return nil, fmt.Errorf("invalid --current-alloc: %w", err)
	}
	return allocation.CurrentWeights(weights)
}

// writeOutput writes data to path, or to stdout when path is "-"
func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
