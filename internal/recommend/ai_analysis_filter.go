package recommend

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/talentdock/ats-matcher/internal/ai"
)

const (
	defaultAnalysisConcurrency = 4
	defaultRequestsPerMinute   = 30
)

type aiAnalysisFilter struct {
	enabled bool
	reason  string
	config  *AIAnalysisConfig
	deps    *AIAnalysisDeps
	limiter *rate.Limiter
}

type AIAnalysisDeps struct {
	Analyzer    ai.Analyzer
	Logger      *zap.Logger
	ExcludeFile string
}

type AIAnalysisConfig struct {
	Enabled  bool
	Provider string
	Model    string
	// MinimumScore drops jobs the analyzer scores below it. Zero keeps every job.
	MinimumScore      int
	Concurrency       int
	RequestsPerMinute int
}

// NewAIAnalysis creates the step that enriches recommendations with a resume analysis.
func NewAIAnalysis(cfg *AIAnalysisConfig, deps *AIAnalysisDeps) Filter {
	if cfg == nil {
		cfg = &AIAnalysisConfig{}
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultAnalysisConcurrency
	}
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = defaultRequestsPerMinute
	}

	normalized := *cfg
	normalized.Concurrency = concurrency
	normalized.RequestsPerMinute = perMinute

	return &aiAnalysisFilter{
		enabled: cfg.Enabled,
		config:  &normalized,
		deps:    deps,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60), concurrency),
	}
}

func (f *aiAnalysisFilter) Name() string { return "ai_analysis" }

func (f *aiAnalysisFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *aiAnalysisFilter) IsEnabled() bool { return f.enabled }

func (f *aiAnalysisFilter) Validate() error {
	if f.deps == nil || f.deps.Analyzer == nil {
		return fmt.Errorf("analyzer is required when ai analysis is enabled")
	}
	if f.deps.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if f.config.MinimumScore < 0 || f.config.MinimumScore > 100 {
		return fmt.Errorf("minimum ai score must be between 0 and 100, got %d", f.config.MinimumScore)
	}
	return nil
}

func (f *aiAnalysisFilter) Apply(ctx context.Context, r *Recommendations) (*Recommendations, Step, error) {
	initial := r.Len()
	if r.Candidate == nil || strings.TrimSpace(r.Candidate.ResumeText) == "" {
		f.deps.Logger.Info("candidate has no resume text; skipping ai analysis",
			zap.String("candidate_id", r.CandidateID()),
		)
		return r, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	if err := f.analyze(ctx, r); err != nil {
		return r, Step{}, err
	}

	if f.config.MinimumScore > 0 {
		rejected := &Recommendations{Candidate: r.Candidate}
		r.ExcludeFunc(func(item *Item) bool {
			drop := item.Analysis != nil && item.Analysis.Score < f.config.MinimumScore
			if drop {
				rejected.Items = append(rejected.Items, item)
			}
			return drop
		})

		for _, item := range rejected.Items {
			f.deps.Logger.Info("job rejected by ai analysis",
				zap.String("job_id", item.Job.ID),
				zap.Int("ai_score", item.Analysis.Score),
				zap.String("summary", item.Analysis.Summary),
			)
		}

		if err := f.appendToExcludeFile(rejected); err != nil {
			f.deps.Logger.Warn("failed to append jobs to exclude file", zap.Error(err))
		}
	}

	left := r.Len()
	f.deps.Logger.Info("ai analysis completed",
		zap.Int("initial_jobs", initial),
		zap.Int("approved_jobs", left),
	)

	return r, Step{Initial: initial, Dropped: initial - left, Left: left}, nil
}

// analyze runs the analyzer for every item. Failures are recorded on the item and the item is kept.
func (f *aiAnalysisFilter) analyze(ctx context.Context, r *Recommendations) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.config.Concurrency)

	for _, item := range r.Items {
		g.Go(func() error {
			if err := f.limiter.Wait(gctx); err != nil {
				return err
			}

			analysis, err := f.deps.Analyzer.Analyze(gctx, &ai.Request{
				ResumeText: r.Candidate.ResumeText,
				Job:        item.Job,
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				f.deps.Logger.Warn("ai analysis failed",
					zap.String("job_id", item.Job.ID),
					zap.Error(err),
				)
				item.AnalysisError = err.Error()
				return nil
			}

			f.deps.Logger.Debug("job analyzed",
				zap.String("job_id", item.Job.ID),
				zap.Int("ai_score", analysis.Score),
			)
			item.Analysis = analysis
			return nil
		})
	}

	return g.Wait()
}

func (f *aiAnalysisFilter) appendToExcludeFile(rejected *Recommendations) error {
	path := strings.TrimSpace(f.deps.ExcludeFile)
	if path == "" || rejected.Len() == 0 {
		return nil
	}

	reason := fmt.Sprintf("ai score below %d", f.config.MinimumScore)
	if err := AppendToExcludeFile(path, rejected.ToExcluded(ExcludeActorAI, reason)); err != nil {
		return err
	}

	f.deps.Logger.Info("jobs appended to exclude file",
		zap.Strings("job_ids", rejected.JobIDs()),
		zap.String("exclude_file", path),
	)
	return nil
}

func (f *aiAnalysisFilter) Status() Status {
	details := map[string]string{
		"minimum_score":       strconv.Itoa(f.config.MinimumScore),
		"concurrency":         strconv.Itoa(f.config.Concurrency),
		"requests_per_minute": strconv.Itoa(f.config.RequestsPerMinute),
	}
	if f.config.Provider != "" {
		details["provider"] = f.config.Provider
	}
	if f.config.Model != "" {
		details["model"] = f.config.Model
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
