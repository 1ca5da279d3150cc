package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/verilink/profile-verify/internal/config"
	"github.com/verilink/profile-verify/internal/pipeline"
	"github.com/verilink/profile-verify/internal/profiles"
	"github.com/verilink/profile-verify/internal/report"
	"github.com/verilink/profile-verify/internal/summary"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a person's identity against the candidate pool",
	Long: `Verify a person's identity by fusing facial similarity with textual
profile attributes. The input directory holds the person's exported data
(metadata.json and profile.txt); candidates are scored by a weighted
combination of name, location, company and face similarity.

With --summarize, an AI provider generates a structured verification
summary for the best match. Gemini is used when GEMINI_API_KEY is set,
otherwise OpenAI with OPENAI_TOKEN.`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().String("input", "", "Directory with the subject's exported data (required)")
	verifyCmd.Flags().String("image", "", "Query photo of the subject (required)")
	verifyCmd.Flags().String("profiles", "", "Candidate export file (defaults to PROFILES_PATH)")
	verifyCmd.Flags().Bool("summarize", false, "Generate an AI verification summary for the best match")
	verifyCmd.Flags().String("summary-output", "ai_summary.json", "Path for the AI summary report")
	_ = verifyCmd.MarkFlagRequired("input")
	_ = verifyCmd.MarkFlagRequired("image")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := newLogger()

	if path := mustGetString(cmd, "profiles"); path != "" {
		cfg.Profiles.Path = path
	}

	details, err := profiles.ReadQueryDetails(mustGetString(cmd, "input"))
	if err != nil {
		return fmt.Errorf("reading subject data: %w", err)
	}
	if details.Name == "" {
		fmt.Println("Warning: could not resolve the subject's name, name scoring disabled")
	}

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

	fmt.Printf("Verifying %s against %d candidates\n", details.Name, len(pool))
	bar := progressbar.NewOptions(len(pool),
		progressbar.OptionSetDescription("Scoring candidates"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("profiles"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	ctx := cmd.Context()
	result, err := p.Run(ctx, queryImage, pool, pipeline.Options{
		Composite:  true,
		Attrs:      details.Attrs(),
		OnProgress: func(current, total int) { _ = bar.Add(1) },
	})
	fmt.Println()
	if err != nil {
		return fmt.Errorf("verification run failed: %w", err)
	}

	printVerifySummary(cfg, result)

	if err := report.WriteArtifact(cfg.Match.OutputPath, result.Matches); err != nil {
		return err
	}

	if mustGetBool(cmd, "summarize") && len(result.Matches) > 0 {
		return summarizeBestMatch(ctx, cfg, details, pool, result.Matches[0], mustGetString(cmd, "summary-output"))
	}
	return nil
}

func printVerifySummary(cfg *config.Config, result *pipeline.RunResult) {
	fmt.Printf("Processed %d candidates, skipped %d\n\n", result.Processed, result.Skipped)
	if len(result.Matches) == 0 {
		fmt.Println("No candidates could be scored.")
		return
	}

	maxScore := cfg.Weights.Weights.Max()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSCORE\tFACE\tNAME MATCH\tLOCATION\tCOMPANY\tPROFILE")
	fmt.Fprintln(w, "----\t-----\t----\t----------\t--------\t-------\t-------")
	for _, m := range result.Matches {
		fmt.Fprintf(w, "%s\t%.1f/%.0f\t%.3f\t%.3f\t%v\t%v\t%s\n",
			m.DisplayName, m.CompositeScore, maxScore,
			m.Components.FaceSimilarity, m.Components.NameRatio,
			m.Components.LocationMatch, m.Components.CompanyMatch,
			m.ProfileRef)
	}
	w.Flush()
}

// summarizeBestMatch generates and saves an AI verification summary for the
// top-ranked candidate.
func summarizeBestMatch(ctx context.Context, cfg *config.Config, details *profiles.QueryDetails, pool []profiles.Candidate, best pipeline.MatchResult, outputPath string) error {
	provider, err := newSummaryProvider(ctx, cfg)
	if err != nil {
		return err
	}

	evidence := ""
	for _, c := range pool {
		if c.ID == best.CandidateID {
			evidence = c.Text
			break
		}
	}

	fmt.Printf("Generating verification summary with %s...\n", provider.Name())
	rep, err := provider.Summarize(ctx, summary.Subject{
		Name:      details.Name,
		Location:  details.Location,
		Company:   details.Company,
		Headline:  details.Headline,
		Education: details.Education,
		Summary:   details.Summary,
		Evidence:  evidence,
	})
	if err != nil {
		return fmt.Errorf("generating summary: %w", err)
	}

	if err := summary.SaveReport(outputPath, rep); err != nil {
		return err
	}
	fmt.Printf("Summary saved to %s\n", outputPath)
	return nil
}

// newSummaryProvider picks the configured AI backend, preferring Gemini.
func newSummaryProvider(ctx context.Context, cfg *config.Config) (summary.Provider, error) {
	switch {
	case cfg.Gemini.APIKey != "":
		return summary.NewGeminiProvider(ctx, cfg.Gemini.APIKey)
	case cfg.OpenAI.Token != "":
		return summary.NewOpenAIProvider(cfg.OpenAI.Token), nil
	default:
		return nil, fmt.Errorf("no AI provider configured, set GEMINI_API_KEY or OPENAI_TOKEN")
	}
}
