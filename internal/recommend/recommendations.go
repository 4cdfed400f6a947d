package recommend

import (
	"fmt"

	"github.com/talentdock/ats-matcher/internal/ai"
	"github.com/talentdock/ats-matcher/internal/match"
	"github.com/talentdock/ats-matcher/internal/platform"
)

// Item is one recommended job together with its match details.
type Item struct {
	Job           *platform.Job `json:"job" yaml:"job"`
	Match         match.Result  `json:"match" yaml:"match"`
	Analysis      *ai.Analysis  `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	AnalysisError string        `json:"analysis_error,omitempty" yaml:"analysis_error,omitempty"`
}

// Recommendations is an ordered list of jobs for a single candidate.
type Recommendations struct {
	Candidate *platform.Candidate `json:"candidate" yaml:"candidate"`
	Items     []*Item             `json:"items" yaml:"items"`
}

func (r *Recommendations) Len() int {
	return len(r.Items)
}

// CandidateID returns the id of the candidate the list was built for.
func (r *Recommendations) CandidateID() string {
	if r.Candidate == nil {
		return ""
	}
	return r.Candidate.ID
}

func (r *Recommendations) JobIDs() []string {
	ids := make([]string, 0, len(r.Items))
	for _, item := range r.Items {
		ids = append(ids, item.Job.ID)
	}
	return ids
}

func (r *Recommendations) FindByJobID(id string) *Item {
	for _, item := range r.Items {
		if item.Job.ID == id {
			return item
		}
	}
	return nil
}

// Exclude removes the items whose job id is in ids and returns the removed ids.
// The order of the remaining items is preserved.
func (r *Recommendations) Exclude(ids []string) []string {
	targets := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		targets[id] = struct{}{}
	}

	return r.ExcludeFunc(func(item *Item) bool {
		_, ok := targets[item.Job.ID]
		return ok
	})
}

// ExcludeFunc removes the items for which drop returns true and returns the removed job ids.
// The order of the remaining items is preserved.
func (r *Recommendations) ExcludeFunc(drop func(*Item) bool) []string {
	var excluded []string
	kept := r.Items[:0]
	for _, item := range r.Items {
		if drop(item) {
			excluded = append(excluded, item.Job.ID)
			continue
		}
		kept = append(kept, item)
	}

	clear(r.Items[len(kept):])
	r.Items = kept

	return excluded
}

// Top returns a copy holding at most the first n items. n <= 0 keeps everything.
func (r *Recommendations) Top(n int) *Recommendations {
	items := r.Items
	if n > 0 && n < len(items) {
		items = items[:n]
	}

	return &Recommendations{
		Candidate: r.Candidate,
		Items:     append(make([]*Item, 0, len(items)), items...),
	}
}

// ReportByCompany groups the recommended jobs by company.
func (r *Recommendations) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, item := range r.Items {
		company := item.Job.Company
		if company == "" {
			company = "unknown"
		}

		entry := map[string]string{
			"id":       item.Job.ID,
			"title":    item.Job.Title,
			"location": item.Job.Location,
			"score":    fmt.Sprintf("%d", item.Match.Score),
		}
		if item.Analysis != nil {
			entry["ai_score"] = fmt.Sprintf("%d", item.Analysis.Score)
			entry["ai_summary"] = item.Analysis.Summary
		}
		if item.AnalysisError != "" {
			entry["ai_error"] = item.AnalysisError
		}

		report[company] = append(report[company], entry)
	}
	return report
}
