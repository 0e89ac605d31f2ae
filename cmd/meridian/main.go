// Package main provides the meridian CLI entry point.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/meridianlabs/meridian/cli"
)

var (
	// Global flags
	provider string
	verbose  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "meridian",
		Short: "Conversational business-data analysis with specialist agents",
		Long: `Meridian analyzes business data through a team of specialist agents
(exploration, preprocessing, modeling, validation, forecasting, insights).

A question is classified into a workflow of agent steps, executed
sequentially against a chat-completion provider behind a cached,
rate-limited request queue, and aggregated into one report.`,
	}

	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "LLM provider (openrouter, openai, anthropic, gemini)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show progress notes")

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(agentsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func chatCmd() *cobra.Command {
	var (
		sessionID string
		dbPath    string
		bu        string
		lob       string
		records   int
		csvPath   string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive analysis session",
		RunE: func(cmd *cobra.Command, args []string) error {
			series, err := loadSeries(csvPath)
			if err != nil {
				return err
			}
			cliCtx := cli.Context{
				BusinessUnit:   bu,
				LineOfBusiness: lob,
				RecordCount:    records,
				Series:         series,
			}
			opts := cli.Options{
				Provider:  provider,
				SessionID: sessionID,
				DBPath:    dbPath,
				Verbose:   verbose,
			}
			return cli.Chat(context.Background(), cliCtx, opts)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID for conversation persistence")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite path for session storage (memory-only if unset)")
	cmd.Flags().StringVar(&bu, "bu", "", "Selected business unit name")
	cmd.Flags().StringVar(&lob, "lob", "", "Selected line of business name")
	cmd.Flags().IntVar(&records, "records", 0, "Record count of the selected dataset")
	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV file with a numeric sample of the primary metric")

	return cmd
}

func agentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List the available agent profiles",
		Run: func(cmd *cobra.Command, args []string) {
			cli.ListAgents()
		},
	}
}

// loadSeries reads every numeric field from a CSV file, in order.
// Non-numeric fields (headers, labels) are skipped.
func loadSeries(path string) ([]float64, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var series []float64
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for _, record := range records {
		for _, field := range record {
			if v, err := strconv.ParseFloat(field, 64); err == nil {
				series = append(series, v)
			}
		}
	}
	return series, nil
}
