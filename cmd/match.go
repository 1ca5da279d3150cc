package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/verilink/profile-verify/internal/config"
	"github.com/verilink/profile-verify/internal/pipeline"
	"github.com/verilink/profile-verify/internal/report"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match a query photo against the candidate pool by face similarity",
	Long: `Match a query photo against the candidate profile pool using facial
embeddings only. Candidates below the similarity threshold are dropped and
the top matches are written to the output artifact.

Candidate photos are fetched from their profile image URLs. Failed
candidates (unreachable images, no detectable face) are skipped without
failing the run.`,
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().String("image", "", "Query photo to match (required)")
	matchCmd.Flags().String("profiles", "", "Candidate export file (defaults to PROFILES_PATH)")
	matchCmd.Flags().String("output", "", "Artifact output path (defaults to OUTPUT_PATH)")
	matchCmd.Flags().Float64("threshold", -1, "Similarity threshold override")
	matchCmd.Flags().Bool("json", false, "Print the raw artifact JSON instead of a table")
	_ = matchCmd.MarkFlagRequired("image")
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := newLogger()

	if path := mustGetString(cmd, "profiles"); path != "" {
		cfg.Profiles.Path = path
	}
	if path := mustGetString(cmd, "output"); path != "" {
		cfg.Match.OutputPath = path
	}
	if threshold := mustGetFloat64(cmd, "threshold"); threshold >= 0 {
		cfg.Match.SimilarityThreshold = threshold
	}
	asJSON := mustGetBool(cmd, "json")

	queryImage, err := os.ReadFile(mustGetString(cmd, "image"))
	if err != nil {
		return fmt.Errorf("reading query image: %w", err)
	}

	pool, err := loadPool(cfg.Profiles.Path)
	if err != nil {
		return err
	}

	p, _, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	fmt.Printf("Matching against %d candidates\n", len(pool))
	bar := progressbar.NewOptions(len(pool),
		progressbar.OptionSetDescription("Scoring candidates"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("profiles"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	result, err := p.Run(context.Background(), queryImage, pool, pipeline.Options{
		OnProgress: func(current, total int) { _ = bar.Add(1) },
	})
	fmt.Println()
	if err != nil {
		return fmt.Errorf("match run failed: %w", err)
	}

	if err := report.WriteArtifact(cfg.Match.OutputPath, result.Matches); err != nil {
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(report.ToArtifact(result.Matches), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	printMatchSummary(cfg, result)
	return nil
}

func printMatchSummary(cfg *config.Config, result *pipeline.RunResult) {
	fmt.Printf("Processed %d candidates, skipped %d\n\n", result.Processed, result.Skipped)
	if len(result.Matches) == 0 {
		fmt.Println("No candidate cleared the similarity threshold.")
		return
	}

	views := report.FormatViews(report.ToArtifact(result.Matches), cfg.Match.PlatformLabel)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCONFIDENCE\tSTATUS\tPROFILE")
	fmt.Fprintln(w, "----\t----------\t------\t-------")
	for _, v := range views {
		fmt.Fprintf(w, "%s\t%d%%\t%s\t%s\n", v.Name, v.Confidence, v.Status, v.Profile)
	}
	w.Flush()
	fmt.Printf("\nArtifact written to %s\n", cfg.Match.OutputPath)
}
