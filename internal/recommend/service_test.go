package recommend

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/talentdock/ats-matcher/internal/platform"
)

const (
	candidateID = "5b0d6f0e-8a53-4c1e-9a53-3f4d2f6a9c11"
	jobA        = "0c8e7a4e-1111-4c1e-9a53-3f4d2f6a9c11"
	jobB        = "0c8e7a4e-2222-4c1e-9a53-3f4d2f6a9c11"
	jobC        = "0c8e7a4e-3333-4c1e-9a53-3f4d2f6a9c11"
)

type fakeSource struct {
	mu           sync.Mutex
	jobs         []*platform.Job
	candidates   map[string]*platform.Candidate
	applications []*platform.Application
	jobsErr      error
	queries      []platform.ApplicationQuery
}

func (f *fakeSource) Jobs(_ context.Context, query platform.JobQuery) ([]*platform.Job, error) {
	if f.jobsErr != nil {
		return nil, f.jobsErr
	}
	out := make([]*platform.Job, 0, len(f.jobs))
	for _, job := range f.jobs {
		if query.Company != "" && job.Company != query.Company {
			continue
		}
		copied := *job
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeSource) Job(_ context.Context, id string) (*platform.Job, error) {
	for _, job := range f.jobs {
		if job.ID == id {
			copied := *job
			return &copied, nil
		}
	}
	return nil, &platform.NotFoundError{Table: "jobs", ID: id}
}

func (f *fakeSource) Candidate(_ context.Context, id string) (*platform.Candidate, error) {
	if c, ok := f.candidates[id]; ok {
		return c, nil
	}
	return nil, &platform.NotFoundError{Table: "profiles", ID: id}
}

func (f *fakeSource) Applications(_ context.Context, query platform.ApplicationQuery) ([]*platform.Application, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	var out []*platform.Application
	for _, app := range f.applications {
		if query.JobID != "" && app.JobID != query.JobID {
			continue
		}
		if query.CandidateID != "" && app.CandidateID != query.CandidateID {
			continue
		}
		out = append(out, app)
	}
	return out, nil
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		jobs: []*platform.Job{
			{ID: jobA, Title: "Backend", Company: "Acme", RequiredSkills: []string{"Go", "SQL"}},
			{ID: jobB, Title: "Frontend", Company: "Globex", RequiredSkills: []string{"React", "CSS"}},
			{ID: jobC, Title: "Platform", Company: "Initech", RequiredSkills: []string{"Go", "Docker", "SQL"}},
		},
		candidates: map[string]*platform.Candidate{
			candidateID: {ID: candidateID, FullName: "Sam", Skills: []string{" go ", "sql", "Docker"}, ResumeText: "Go engineer"},
		},
	}
}

func jobIDs(r *Recommendations) []string {
	return r.JobIDs()
}

func TestForCandidateRanksJobs(t *testing.T) {
	svc := NewService(newFakeSource(), nil, zap.NewNop())

	recs, err := svc.ForCandidate(context.Background(), candidateID, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{jobA, jobC, jobB}
	if got := jobIDs(recs); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}

	scores := []int{recs.Items[0].Match.Score, recs.Items[1].Match.Score, recs.Items[2].Match.Score}
	if !reflect.DeepEqual(scores, []int{100, 100, 0}) {
		t.Fatalf("unexpected scores: %v", scores)
	}
	if !reflect.DeepEqual(recs.Items[2].Match.MissingSkills, []string{"React", "CSS"}) {
		t.Fatalf("unexpected missing skills: %v", recs.Items[2].Match.MissingSkills)
	}
	if recs.CandidateID() != candidateID {
		t.Fatalf("unexpected candidate id %q", recs.CandidateID())
	}
}

func TestForCandidateOptions(t *testing.T) {
	svc := NewService(newFakeSource(), nil, zap.NewNop())

	recs, err := svc.ForCandidate(context.Background(), candidateID, Options{MinScore: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := jobIDs(recs); !reflect.DeepEqual(got, []string{jobA, jobC}) {
		t.Fatalf("unexpected jobs after min score: %v", got)
	}

	recs, err = svc.ForCandidate(context.Background(), candidateID, Options{Limit: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := jobIDs(recs); !reflect.DeepEqual(got, []string{jobA}) {
		t.Fatalf("unexpected jobs after limit: %v", got)
	}

	recs, err = svc.ForCandidate(context.Background(), candidateID, Options{Jobs: platform.JobQuery{Company: "Globex"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := jobIDs(recs); !reflect.DeepEqual(got, []string{jobB}) {
		t.Fatalf("unexpected jobs for company: %v", got)
	}
}

func TestForCandidateRunsPipeline(t *testing.T) {
	source := newFakeSource()
	source.applications = []*platform.Application{{ID: "app-1", JobID: jobA, CandidateID: candidateID}}

	pipeline := NewPipeline([]Filter{
		NewAppliedHistory(nil, &AppliedHistoryDeps{Source: source, Logger: zap.NewNop()}),
		NewMinimumScore(70),
	}, zap.NewNop())

	svc := NewService(source, pipeline, zap.NewNop())

	recs, err := svc.ForCandidate(context.Background(), candidateID, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := jobIDs(recs); !reflect.DeepEqual(got, []string{jobC}) {
		t.Fatalf("unexpected jobs: %v", got)
	}
}

func TestForCandidateMinScoreSkipsAnalysis(t *testing.T) {
	analyzer := &stubAnalyzer{scores: map[string]int{jobA: 80, jobC: 70}}
	pipeline := NewPipeline([]Filter{
		NewAIAnalysis(
			&AIAnalysisConfig{Enabled: true, Concurrency: 1, RequestsPerMinute: 60000},
			&AIAnalysisDeps{Analyzer: analyzer, Logger: zap.NewNop()},
		),
	}, zap.NewNop())

	svc := NewService(newFakeSource(), pipeline, zap.NewNop())

	recs, err := svc.ForCandidate(context.Background(), candidateID, Options{MinScore: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := jobIDs(recs); !reflect.DeepEqual(got, []string{jobA, jobC}) {
		t.Fatalf("unexpected jobs: %v", got)
	}
	if analyzer.calls.Load() != 2 {
		t.Fatalf("expected analysis of the 2 jobs above min score, got %d calls", analyzer.calls.Load())
	}
	for _, item := range recs.Items {
		if item.Analysis == nil {
			t.Fatalf("expected analysis for job %s", item.Job.ID)
		}
	}
}

func TestForCandidateErrors(t *testing.T) {
	source := newFakeSource()
	svc := NewService(source, nil, nil)

	if _, err := svc.ForCandidate(context.Background(), "not-a-uuid", Options{}); !errors.Is(err, platform.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := svc.ForCandidate(context.Background(), candidateID, Options{MinScore: 101}); !errors.Is(err, platform.ErrInvalidInput) {
		t.Fatalf("expected invalid input for min score, got %v", err)
	}
	if _, err := svc.ForCandidate(context.Background(), candidateID, Options{Limit: -1}); !errors.Is(err, platform.ErrInvalidInput) {
		t.Fatalf("expected invalid input for limit, got %v", err)
	}
	if _, err := svc.ForCandidate(context.Background(), "7f000000-0000-4000-8000-000000000000", Options{}); !errors.Is(err, platform.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	source.jobsErr = errors.New("boom")
	if _, err := svc.ForCandidate(context.Background(), candidateID, Options{}); err == nil {
		t.Fatal("expected jobs error")
	}
}

func TestRankKeepsInputOrderOnTies(t *testing.T) {
	t.Parallel()

	jobs := []*platform.Job{
		{ID: "a", RequiredSkills: []string{"Go", "Rust"}},
		{ID: "b", RequiredSkills: []string{"Go", "Java"}},
		{ID: "c", RequiredSkills: []string{"Go"}},
	}

	recs := Rank(&platform.Candidate{Skills: []string{"go"}}, jobs)
	if got := recs.JobIDs(); !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Fatalf("unexpected order: %v", got)
	}
	if recs.Items[0].Job != jobs[2] {
		t.Fatal("expected items to reference the original jobs")
	}

	empty := Rank(nil, nil)
	if empty.Len() != 0 || empty.Items == nil {
		t.Fatalf("expected empty non-nil items, got %#v", empty.Items)
	}

	noSkills := Rank(nil, jobs)
	if got := noSkills.JobIDs(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("expected input order without skills, got %v", got)
	}
}

func TestApplicants(t *testing.T) {
	source := newFakeSource()
	source.applications = []*platform.Application{
		{ID: "app-1", JobID: jobC, CandidateID: "c1", Candidate: &platform.Candidate{ID: "c1", Skills: []string{"Go"}}},
		{ID: "app-2", JobID: jobC, CandidateID: "c2", Candidate: &platform.Candidate{ID: "c2", Skills: []string{"Go", "SQL", "Docker"}}},
		{ID: "app-3", JobID: jobC, CandidateID: "c3", Candidate: &platform.Candidate{ID: "c3", Skills: []string{"docker"}}},
		{ID: "app-4", JobID: jobC, CandidateID: "c4"},
		{ID: "app-5", JobID: jobA, CandidateID: "c5", Candidate: &platform.Candidate{ID: "c5", Skills: []string{"Go"}}},
	}

	svc := NewService(source, nil, zap.NewNop())

	applicants, err := svc.Applicants(context.Background(), jobC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ids []string
	var scores []int
	for _, a := range applicants {
		ids = append(ids, a.Application.ID)
		scores = append(scores, a.Match.Score)
	}

	if !reflect.DeepEqual(ids, []string{"app-2", "app-1", "app-3", "app-4"}) {
		t.Fatalf("unexpected applicant order: %v", ids)
	}
	if !reflect.DeepEqual(scores, []int{100, 33, 33, 0}) {
		t.Fatalf("unexpected scores: %v", scores)
	}

	if _, err := svc.Applicants(context.Background(), "bad"); !errors.Is(err, platform.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestJobMatch(t *testing.T) {
	svc := NewService(newFakeSource(), nil, zap.NewNop())

	res, err := svc.JobMatch(context.Background(), jobC, candidateID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Score != 100 {
		t.Fatalf("expected 100, got %d", res.Score)
	}
	if !reflect.DeepEqual(res.MatchedSkills, []string{"Go", "Docker", "SQL"}) {
		t.Fatalf("unexpected matched skills: %v", res.MatchedSkills)
	}

	if _, err := svc.JobMatch(context.Background(), jobC, "bad"); !errors.Is(err, platform.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := svc.JobMatch(context.Background(), "7f000000-0000-4000-8000-000000000000", candidateID); !errors.Is(err, platform.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
