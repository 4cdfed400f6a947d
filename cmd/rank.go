package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talentdock/ats-matcher/internal/platform"
	"github.com/talentdock/ats-matcher/internal/recommend"
)

const (
	PromptShowTable           = "Show table"
	PromptInspect             = "Inspect a job"
	PromptReportByCompanies   = "Report by companies"
	PromptAppendToExcludeFile = "Append all jobs to exclude file"
	PromptJobsToFile          = "Dump jobs to file"
	PromptExit                = "Exit"
	PromptBack                = "back"
)

var errExit = errors.New("exit requested")

var rankCmd = &cobra.Command{
	Use:   "rank <candidate-id>",
	Short: "Rank open jobs for a candidate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return rank(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().Int("min-score", 0, "drop jobs scoring below this value")
	rankCmd.Flags().IntP("limit", "n", 0, "show only the top N jobs")
	rankCmd.Flags().String("company", "", "only jobs of this company")
	rankCmd.Flags().IntP("jobs", "l", 0, "fetch at most this many jobs, newest first")
	rankCmd.Flags().BoolP("include-applied", "f", false, "keep jobs the candidate already applied to")
	rankCmd.Flags().Bool("ai", false, "run the AI analysis step even if disabled in the config")
	rankCmd.Flags().BoolP("interactive", "i", false, "inspect the result interactively")
	rankCmd.Flags().StringP("output", "o", outputTable, "output format: table, json or yaml")
}

func rank(cmd *cobra.Command, candidateID string) error {
	ctx := context.Background()

	output, _ := cmd.Flags().GetString("output")
	if err := validateOutput(output); err != nil {
		return err
	}

	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	includeApplied, _ := cmd.Flags().GetBool("include-applied")
	withAI, _ := cmd.Flags().GetBool("ai")
	minScore, _ := cmd.Flags().GetInt("min-score")
	limit, _ := cmd.Flags().GetInt("limit")
	company, _ := cmd.Flags().GetString("company")
	jobsLimit, _ := cmd.Flags().GetInt("jobs")

	svc := newService(ctx, e, filterFlags{includeApplied: includeApplied, withAI: withAI})

	for _, status := range svc.Filters() {
		e.logger.Debug("filter", zap.String("name", status.Name), zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason), zap.Any("details", status.Details))
	}

	recs, err := svc.ForCandidate(ctx, candidateID, recommend.Options{
		Jobs:     platform.JobQuery{Company: company, Limit: jobsLimit},
		MinScore: minScore,
		Limit:    limit,
	})
	if err != nil {
		return err
	}

	e.logger.Info("recommendations ready",
		zap.String("candidate_id", candidateID),
		zap.Int("count", recs.Len()),
	)

	interactive, _ := cmd.Flags().GetBool("interactive")
	if !interactive || recs.Len() == 0 {
		return render(cmd.OutOrStdout(), output, recs, recommendationsTable(recs))
	}

	return interact(cmd, e, recs)
}

func interact(cmd *cobra.Command, e *env, recs *recommend.Recommendations) error {
	items := []string{PromptShowTable, PromptInspect, PromptReportByCompanies, PromptJobsToFile}
	if e.config.Filters.ExcludeFile != "" {
		items = append(items, PromptAppendToExcludeFile)
	}
	items = append(items, PromptExit)

	prompt := promptui.Select{
		Label: "What next?",
		Items: items,
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			return err
		}

		e.logger.Debug("current list of jobs", zap.Int("count", recs.Len()))

		if err := handleAction(cmd, action, e, recs); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			return err
		}
	}
}

func handleAction(cmd *cobra.Command, action string, e *env, recs *recommend.Recommendations) error {
	switch action {
	case PromptShowTable:
		return render(cmd.OutOrStdout(), outputTable, recs, recommendationsTable(recs))
	case PromptInspect:
		return inspect(cmd, recs)
	case PromptReportByCompanies:
		pretty, _ := json.MarshalIndent(recs.ReportByCompany(), "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
		return nil
	case PromptJobsToFile:
		filename, err := dumpToTmpFile(recs)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		e.logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		path := e.config.Filters.ExcludeFile
		if err := recommend.AppendToExcludeFile(path, recs.ToExcluded(recommend.ExcludeActorUser, "excluded from rank prompt")); err != nil {
			return err
		}
		e.logger.Info("appended to exclude file", zap.String("filename", path), zap.Int("count", recs.Len()))
		recs.Exclude(recs.JobIDs())
		return errExit
	case PromptExit:
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func inspect(cmd *cobra.Command, recs *recommend.Recommendations) error {
	for {
		labels := make([]string, 0, recs.Len()+1)
		for _, item := range recs.Items {
			labels = append(labels, fmt.Sprintf("%s %3d%% %s / %s", item.Job.ID, item.Match.Score, item.Job.Title, item.Job.Company))
		}

		jobPrompt := promptui.Select{
			Label: "Choose a job and press ENTER",
			Items: append(labels, PromptBack),
			Size:  10,
		}

		_, selected, err := jobPrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptBack {
			return nil
		}

		item := recs.FindByJobID(strings.Fields(selected)[0])
		if item == nil {
			return fmt.Errorf("there is no such job %s", selected)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\n%s at %s (%s)\n", item.Job.Title, item.Job.Company, item.Job.Location)
		if err := render(out, outputTable, item.Match, resultTable(item.Match)); err != nil {
			return err
		}
		if item.Analysis != nil {
			fmt.Fprintf(out, "AI score %d: %s\n", item.Analysis.Score, item.Analysis.Summary)
		}
		if text := platform.PlainText(item.Job.Description); text != "" {
			fmt.Fprintf(out, "\n%s\n\n", text)
		}
	}
}

func dumpToTmpFile(recs *recommend.Recommendations) (string, error) {
	file, err := os.CreateTemp("", "recommendations_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recs); err != nil {
		return "", err
	}
	return file.Name(), nil
}
