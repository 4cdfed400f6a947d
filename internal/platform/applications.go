package platform

import (
	"context"
	"fmt"
	"net/url"
)

const (
	applicationsTable = "applications"
	applicationSelect = "*,candidate:profiles(*)"
)

type Application struct {
	ID          string     `json:"id"`
	JobID       string     `json:"job_id"`
	CandidateID string     `json:"candidate_id"`
	Status      string     `json:"status,omitempty"`
	CreatedAt   string     `json:"created_at,omitempty"`
	Candidate   *Candidate `json:"candidate,omitempty"`
}

// ApplicationQuery selects applications by job, by candidate, or both.
type ApplicationQuery struct {
	JobID       string
	CandidateID string
}

// Applications lists applications together with the applicant profile, oldest first.
func (c *Client) Applications(ctx context.Context, query ApplicationQuery) ([]*Application, error) {
	q := url.Values{}
	q.Set("select", applicationSelect)
	q.Set("order", "created_at.asc")

	if query.JobID != "" {
		if err := ValidateID("job_id", query.JobID); err != nil {
			return nil, err
		}
		q.Set("job_id", "eq."+query.JobID)
	}
	if query.CandidateID != "" {
		if err := ValidateID("candidate_id", query.CandidateID); err != nil {
			return nil, err
		}
		q.Set("candidate_id", "eq."+query.CandidateID)
	}

	items, err := c.GetItems(ctx, applicationsTable, q, 0)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	var applications []*Application
	if err := Decode(items, &applications); err != nil {
		return nil, fmt.Errorf("decode applications: %w", err)
	}

	for _, app := range applications {
		if app.Candidate != nil {
			app.Candidate.Skills = orEmpty(app.Candidate.Skills)
		}
	}

	return applications, nil
}

// JobIDs returns the job ids of the applications.
func JobIDs(applications []*Application) []string {
	ids := make([]string, 0, len(applications))
	for _, app := range applications {
		ids = append(ids, app.JobID)
	}
	return ids
}
