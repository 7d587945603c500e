package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with fresh flag values
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	logLevel, policyFile = "error", ""
	reportProfile, reportAnalysisDir, reportOut, reportJSONOut, reportCurrentAlloc = "", "analysis_outputs", "-", "", ""
	reportTimeout = time.Minute
	policyFormat, policyRisk, policyHorizon = "table", "", 5

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReport_WritesMarkdownAndJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "user_profile_1.json", `{"profile_id":"p-1","risk_level":"Aggressive","time_horizon":10,"avoid_sectors":["Energy"]}`)
	writeFile(t, dir, "macro_analysis_1.json", `{"signals":{"bias":"bullish","confidence":"high","scenarios":{"bear":-0.1,"base":0.06,"bull":0.15}}}`)
	out := filepath.Join(t.TempDir(), "reports", "report.md")
	jsonOut := filepath.Join(t.TempDir(), "report.json")

	_, stderr, err := execute(t, "report",
		"--analysis-dir", dir,
		"--out", out,
		"--json-out", jsonOut,
		"--current-alloc", `{"equities":0.5,"bonds":0.5}`,
	)
	require.NoError(t, err)

	md, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Portfolio Strategy Report")
	assert.Contains(t, string(md), "Aggressive")

	data, err := os.ReadFile(jsonOut)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "target_alloc")
	assert.Contains(t, doc, "current_alloc")

	// Only the macro file exists; asset groups are reported missing
	assert.Contains(t, stderr, "Signals unavailable")
}

func TestReport_Stdout(t *testing.T) {
	dir := t.TempDir()
	profilePath := writeFile(t, t.TempDir(), "p.json", `{"risk_level":"conservative"}`)

	stdout, _, err := execute(t, "report", "--profile", profilePath, "--analysis-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "# Portfolio Strategy Report")
	assert.Contains(t, stdout, "Conservative")
}

func TestReport_Errors(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.json", `{"risk_level":"moderate"}`)
	bad := writeFile(t, dir, "bad.json", `{"risk_level":"yolo"}`)

	testCases := []struct {
		name string
		args []string
	}{
		{"no profile in dir", []string{"report", "--analysis-dir", t.TempDir()}},
		{"missing profile file", []string{"report", "--profile", filepath.Join(dir, "nope.json")}},
		{"unknown tolerance", []string{"report", "--profile", bad, "--analysis-dir", dir}},
		{"bad current alloc", []string{"report", "--profile", good, "--current-alloc", "{"}},
		{"unknown class", []string{"report", "--profile", good, "--current-alloc", `{"crypto":1}`}},
		{"positional args", []string{"report", "extra"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, tc.args...)
			assert.Error(t, err)
		})
	}
}

func TestPolicy_Table(t *testing.T) {
	stdout, _, err := execute(t, "policy")
	require.NoError(t, err)

	assert.Contains(t, stdout, "RISK TOLERANCE")
	assert.Contains(t, stdout, "Conservative")
	assert.Contains(t, stdout, "30.0%")
	assert.Contains(t, stdout, "Macro tilt: disabled")
}

func TestPolicy_Row(t *testing.T) {
	stdout, _, err := execute(t, "policy", "--risk", "aggressive", "--format", "json")
	require.NoError(t, err)

	var w map[string]float64
	require.NoError(t, json.Unmarshal([]byte(stdout), &w))
	assert.Equal(t, map[string]float64{"Equity": 65, "Bond": 30, "Cash": 5}, w)
}

func TestPolicy_PolicyFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "policy.yaml", `
policy:
  horizon_bands:
    - name: short
      max_years: 5
      table:
        conservative: {equity: 30, bond: 60, cash: 10}
        moderate: {equity: 50, bond: 45, cash: 5}
        aggressive: {equity: 65, bond: 30, cash: 5}
    - name: long
      max_years: 0
      table:
        conservative: {equity: 45, bond: 45, cash: 10}
        moderate: {equity: 65, bond: 30, cash: 5}
        aggressive: {equity: 85, bond: 10, cash: 5}
`)

	stdout, _, err := execute(t, "policy", "--policy-file", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, `Horizon band "short" (up to 5 years)`)
	assert.Contains(t, stdout, `Horizon band "long" (open-ended)`)

	stdout, _, err = execute(t, "policy", "--policy-file", path, "--risk", "aggressive", "--horizon", "20")
	require.NoError(t, err)
	assert.Contains(t, stdout, "long")
	assert.Contains(t, stdout, "85.0%")
}

func TestPolicy_Errors(t *testing.T) {
	_, _, err := execute(t, "policy", "--format", "xml")
	assert.Error(t, err)

	_, _, err = execute(t, "policy", "--risk", "reckless")
	assert.Error(t, err)
}
