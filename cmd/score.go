package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/talentdock/ats-matcher/internal/match"
	"github.com/talentdock/ats-matcher/internal/recommend"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score candidate skills against required skills",
	Long: `Score candidate skills against required skills.

Either pass both skill lists directly:
  ats-matcher score --required "Go,PostgreSQL" --skills "go,docker"

or score a stored candidate against a stored job:
  ats-matcher score --job <job-id> --candidate <candidate-id>`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		output, _ := cmd.Flags().GetString("output")
		if err := validateOutput(output); err != nil {
			return err
		}

		jobID, _ := cmd.Flags().GetString("job")
		candidateID, _ := cmd.Flags().GetString("candidate")

		if jobID == "" && candidateID == "" {
			required, _ := cmd.Flags().GetStringSlice("required")
			skills, _ := cmd.Flags().GetStringSlice("skills")
			res := match.Compute(required, skills)
			return render(cmd.OutOrStdout(), output, res, resultTable(res))
		}
		if jobID == "" || candidateID == "" {
			return errors.New("--job and --candidate must be used together")
		}

		ctx := context.Background()
		e, err := setup(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := recommend.NewService(e.source, nil, e.logger).JobMatch(ctx, jobID, candidateID)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), output, res, resultTable(*res))
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringSlice("required", nil, "required skills, comma separated")
	scoreCmd.Flags().StringSlice("skills", nil, "candidate skills, comma separated")
	scoreCmd.Flags().String("job", "", "job id to score against")
	scoreCmd.Flags().String("candidate", "", "candidate id to score")
	scoreCmd.Flags().StringP("output", "o", outputTable, "output format: table, json or yaml")
}
