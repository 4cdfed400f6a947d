package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var applicantsCmd = &cobra.Command{
	Use:   "applicants <job-id>",
	Short: "List the applicants of a job ordered by match score",
	Args:  cobra.ExactArgs(1),
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

		applicants, err := newService(ctx, e, filterFlags{}).Applicants(ctx, args[0])
		if err != nil {
			return err
		}

		e.logger.Debug("applicants scored", zap.String("job_id", args[0]), zap.Int("count", len(applicants)))

		return render(cmd.OutOrStdout(), output, applicants, applicantsTable(applicants))
	},
}

func init() {
	rootCmd.AddCommand(applicantsCmd)

	applicantsCmd.Flags().StringP("output", "o", outputTable, "output format: table, json or yaml")
}
