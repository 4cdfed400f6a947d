package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talentdock/ats-matcher/internal/db"
	"github.com/talentdock/ats-matcher/internal/feed"
	"github.com/talentdock/ats-matcher/internal/recommend"
)

var watchCmd = &cobra.Command{
	Use:   "watch [candidate-id...]",
	Short: "Publish fresh recommendations to Redis when jobs or profiles change",
	Long: `Publish fresh recommendations to Redis when jobs or profiles change.

The command subscribes to the change channel (redis.channel) and refreshes
the recommendations of the affected candidates. The whole list is also
refreshed on the redis.schedule cron schedule. Results are published to
recommendations.<candidate-id>.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		e, err := setup(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		candidates := args
		if len(candidates) == 0 {
			candidates = e.config.Redis.Candidates
		}

		rdb, err := db.NewRedisClient(ctx, e.config.Redis.URL)
		if err != nil {
			return err
		}
		defer rdb.Close()

		minScore, _ := cmd.Flags().GetInt("min-score")
		limit, _ := cmd.Flags().GetInt("limit")

		f, err := feed.New(rdb, newService(ctx, e, filterFlags{}), feed.Config{
			Channel:    e.config.Redis.Channel,
			Schedule:   e.config.Redis.Schedule,
			Candidates: candidates,
			Options:    recommend.Options{MinScore: minScore, Limit: limit},
		}, e.logger.Named("feed"))
		if err != nil {
			return err
		}

		if err := f.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Int("min-score", 0, "drop jobs scoring below this value")
	watchCmd.Flags().IntP("limit", "n", 0, "publish only the top N jobs")
}
