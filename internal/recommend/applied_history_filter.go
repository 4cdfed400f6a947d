package recommend

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/talentdock/ats-matcher/internal/platform"
)

const forceFlagSetMsg = "include-applied flag is set"

type applicationLister interface {
	Applications(ctx context.Context, query platform.ApplicationQuery) ([]*platform.Application, error)
}

type appliedHistoryFilter struct {
	deps   *AppliedHistoryDeps
	ignore bool
}

type AppliedHistoryDeps struct {
	Source applicationLister
	Logger *zap.Logger
}

type AppliedHistoryConfig struct {
	Ignore bool
}

// NewAppliedHistory creates a filter that removes jobs the candidate already applied to.
func NewAppliedHistory(cfg *AppliedHistoryConfig, deps *AppliedHistoryDeps) Filter {
	ignore := false
	if cfg != nil {
		ignore = cfg.Ignore
	}

	return &appliedHistoryFilter{
		deps:   deps,
		ignore: ignore,
	}
}

func (f *appliedHistoryFilter) Name() string { return "applied_history" }

func (f *appliedHistoryFilter) Disable(string) { f.ignore = true }

func (f *appliedHistoryFilter) IsEnabled() bool { return true }

func (f *appliedHistoryFilter) Validate() error {
	if f.deps == nil || f.deps.Source == nil {
		return fmt.Errorf("application source is required")
	}

	if f.deps.Logger == nil {
		return fmt.Errorf("logger is required")
	}

	return nil
}

func (f *appliedHistoryFilter) Apply(ctx context.Context, r *Recommendations) (*Recommendations, Step, error) {
	initial := r.Len()
	if f.ignore {
		f.deps.Logger.Info("keeping already applied jobs", zap.String("reason", forceFlagSetMsg))
		return r, Step{Initial: initial, Dropped: 0, Left: r.Len()}, nil
	}

	if r.CandidateID() == "" || initial == 0 {
		return r, Step{Initial: initial, Dropped: 0, Left: r.Len()}, nil
	}

	applications, err := f.deps.Source.Applications(ctx, platform.ApplicationQuery{CandidateID: r.CandidateID()})
	if err != nil {
		return r, Step{}, fmt.Errorf("get candidate applications: %w", err)
	}

	excluded := r.Exclude(platform.JobIDs(applications))
	if len(excluded) > 0 {
		f.deps.Logger.Info("excluding jobs the candidate already applied to",
			zap.String("candidate_id", r.CandidateID()),
			zap.Strings("excluded_jobs", excluded),
			zap.Int("jobs_left", r.Len()),
		)
	}

	return r, Step{Initial: initial, Dropped: len(excluded), Left: r.Len()}, nil
}

func (f *appliedHistoryFilter) Status() Status {
	reason := ""
	if f.ignore {
		reason = "skip requested via flag"
	}
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Reason:  reason,
		Details: map[string]string{"exclude_applied": strconv.FormatBool(!f.ignore)},
	}
}
