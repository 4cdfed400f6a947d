// Package recommend composes the skill scorer with the platform data: job
// recommendations for a candidate, applicant lists for a job, and the
// filter pipeline applied on top of the ranking.
package recommend

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/talentdock/ats-matcher/internal/logger"
	"github.com/talentdock/ats-matcher/internal/match"
	"github.com/talentdock/ats-matcher/internal/platform"
)

// Source provides the platform data the service scores.
type Source interface {
	Jobs(ctx context.Context, query platform.JobQuery) ([]*platform.Job, error)
	Job(ctx context.Context, id string) (*platform.Job, error)
	Candidate(ctx context.Context, id string) (*platform.Candidate, error)
	Applications(ctx context.Context, query platform.ApplicationQuery) ([]*platform.Application, error)
}

// Options narrows a single recommendations request.
type Options struct {
	Jobs platform.JobQuery
	// MinScore drops jobs scoring below it on top of the configured filters.
	MinScore int
	// Limit keeps only the first Limit jobs. Zero keeps all of them.
	Limit int
}

// Applicant is an application annotated with the applicant's match for the job.
type Applicant struct {
	Application *platform.Application `json:"application" yaml:"application"`
	Match       match.Result          `json:"match" yaml:"match"`
}

type Service struct {
	source   Source
	pipeline *Pipeline
	logger   *zap.Logger
}

// NewService creates a Service. A nil pipeline applies no filters.
func NewService(source Source, pipeline *Pipeline, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pipeline == nil {
		pipeline = NewPipeline(nil, logger)
	}
	return &Service{source: source, pipeline: pipeline, logger: logger}
}

func (s *Service) Pipeline() *Pipeline {
	return s.pipeline
}

// Filters reports the status of the configured filters.
func (s *Service) Filters() []Status {
	return s.pipeline.Describe()
}

// ForCandidate ranks the open jobs for a candidate and runs the filter pipeline.
func (s *Service) ForCandidate(ctx context.Context, candidateID string, opts Options) (*Recommendations, error) {
	if err := platform.ValidateID("candidate_id", candidateID); err != nil {
		return nil, err
	}
	if opts.MinScore < 0 || opts.MinScore > 100 {
		return nil, &platform.ValidationError{Field: "min_score", Message: "must be between 0 and 100"}
	}
	if opts.Limit < 0 {
		return nil, &platform.ValidationError{Field: "limit", Message: "must not be negative"}
	}

	var (
		candidate *platform.Candidate
		jobs      []*platform.Job
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidate, err = s.source.Candidate(gctx, candidateID)
		return err
	})
	g.Go(func() error {
		var err error
		jobs, err = s.source.Jobs(gctx, opts.Jobs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	recs := Rank(candidate, jobs)

	s.logger.Debug("jobs ranked",
		zap.String("candidate_id", candidateID),
		zap.Int("jobs", len(jobs)),
	)

	// The request threshold applies before the filters run.
	if opts.MinScore > 0 {
		recs.ExcludeFunc(func(item *Item) bool { return item.Match.Score < opts.MinScore })
	}

	recs, err := s.pipeline.Run(ctx, recs)
	if err != nil {
		return nil, fmt.Errorf("filter recommendations: %w", err)
	}

	return recs.Top(opts.Limit), nil
}

// Rank orders jobs for the candidate by match score, highest first. Jobs with
// equal scores keep their input order.
func Rank(candidate *platform.Candidate, jobs []*platform.Job) *Recommendations {
	skills := platform.SkillsOf(candidate)

	matchJobs := make([]match.Job, 0, len(jobs))
	byID := make(map[string][]*platform.Job, len(jobs))
	for _, job := range jobs {
		matchJobs = append(matchJobs, job.MatchJob())
		byID[job.ID] = append(byID[job.ID], job)
	}

	recs := &Recommendations{Candidate: candidate, Items: make([]*Item, 0, len(jobs))}
	for _, ranked := range match.RankJobs(matchJobs, skills) {
		queue := byID[ranked.ID]
		job := queue[0]
		byID[ranked.ID] = queue[1:]

		recs.Items = append(recs.Items, &Item{
			Job:   job,
			Match: match.Compute(job.RequiredSkills, skills),
		})
	}

	return recs
}

// Applicants scores every applicant of a job and orders them by score,
// highest first. Applicants with equal scores keep their application order.
func (s *Service) Applicants(ctx context.Context, jobID string) ([]*Applicant, error) {
	if err := platform.ValidateID("job_id", jobID); err != nil {
		return nil, err
	}

	var (
		job          *platform.Job
		applications []*platform.Application
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		job, err = s.source.Job(gctx, jobID)
		return err
	})
	g.Go(func() error {
		var err error
		applications, err = s.source.Applications(gctx, platform.ApplicationQuery{JobID: jobID})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	applicants := make([]*Applicant, 0, len(applications))
	for _, app := range applications {
		applicants = append(applicants, &Applicant{
			Application: app,
			Match:       match.Compute(job.RequiredSkills, platform.SkillsOf(app.Candidate)),
		})
	}

	sort.SliceStable(applicants, func(i, j int) bool {
		return applicants[i].Match.Score > applicants[j].Match.Score
	})

	return applicants, nil
}

// JobMatch scores one candidate against one job.
func (s *Service) JobMatch(ctx context.Context, jobID, candidateID string) (*match.Result, error) {
	if err := platform.ValidateID("job_id", jobID); err != nil {
		return nil, err
	}
	if err := platform.ValidateID("candidate_id", candidateID); err != nil {
		return nil, err
	}

	var (
		job       *platform.Job
		candidate *platform.Candidate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		job, err = s.source.Job(gctx, jobID)
		return err
	})
	g.Go(func() error {
		var err error
		candidate, err = s.source.Candidate(gctx, candidateID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := match.Compute(job.RequiredSkills, platform.SkillsOf(candidate))

	s.logger.Debug("job match computed",
		append([]zap.Field{
			zap.String("job_id", jobID),
			zap.String("candidate_id", candidateID),
		}, logger.MatchFields(result)...)...,
	)

	return &result, nil
}
