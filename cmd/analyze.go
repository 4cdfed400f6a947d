package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/talentdock/ats-matcher/internal/ai"
	"github.com/talentdock/ats-matcher/internal/match"
	"github.com/talentdock/ats-matcher/internal/platform"
)

type analyzeResult struct {
	Match    match.Result `json:"match" yaml:"match"`
	Analysis *ai.Analysis `json:"analysis" yaml:"analysis"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <candidate-id> <job-id>",
	Short: "Run the AI resume analysis of a candidate for a job",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if err := validateOutput(output); err != nil {
			return err
		}

		ctx := context.Background()
		e, err := setup(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := platform.ValidateID("candidate_id", args[0]); err != nil {
			return err
		}
		if err := platform.ValidateID("job_id", args[1]); err != nil {
			return err
		}

		var (
			candidate *platform.Candidate
			job       *platform.Job
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			candidate, err = e.source.Candidate(gctx, args[0])
			return err
		})
		g.Go(func() error {
			var err error
			job, err = e.source.Job(gctx, args[1])
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		analyzer, err := newAnalyzer(ctx, e.config.AI, e.client, e.logger)
		if err != nil {
			return err
		}

		analysis, err := analyzer.Analyze(ctx, &ai.Request{ResumeText: candidate.ResumeText, Job: job})
		if err != nil {
			return fmt.Errorf("analyze resume: %w", err)
		}

		res := analyzeResult{
			Match:    match.Compute(job.RequiredSkills, platform.SkillsOf(candidate)),
			Analysis: analysis,
		}

		return render(cmd.OutOrStdout(), output, res, func(tw *tabwriter.Writer) {
			resultTable(res.Match)(tw)
			fmt.Fprintf(tw, "AI SCORE\t%d\n", analysis.Score)
			fmt.Fprintf(tw, "AI SKILLS\t%s\n", joinOrDash(analysis.Skills))
			fmt.Fprintf(tw, "SUMMARY\t%s\n", analysis.Summary)
		})
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("output", "o", outputTable, "output format: table, json or yaml")
}
