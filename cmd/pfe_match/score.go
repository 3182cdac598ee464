package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/pfe-match/internal/matching"
)

var (
	scoreRequired  string
	scoreCandidate string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a skill set against a listing's required skills",
	Long:  `Run the deterministic matcher offline and print the score with the matched and missing skills as JSON.`,
	Example: `  pfe_match score --required "Go,PostgreSQL" --candidate "go,docker"`,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreRequired, "required", "", "Comma-separated skills required by the listing")
	scoreCmd.Flags().StringVar(&scoreCandidate, "candidate", "", "Comma-separated skills of the student")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	result := matching.Breakdown(splitList(scoreRequired), splitList(scoreCandidate))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
