package platform

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/talentdock/ats-matcher/internal/match"
)

const jobsTable = "jobs"

type Job struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Company        string   `json:"company,omitempty"`
	Location       string   `json:"location,omitempty"`
	Description    string   `json:"description,omitempty"`
	RequiredSkills []string `json:"required_skills"`
	CreatedAt      string   `json:"created_at,omitempty"`
}

// JobQuery narrows the jobs listing.
type JobQuery struct {
	// Limit caps the number of jobs returned. Zero means no cap.
	Limit   int
	Company string
}

// Jobs lists open jobs, newest first.
func (c *Client) Jobs(ctx context.Context, query JobQuery) ([]*Job, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc")
	if company := strings.TrimSpace(query.Company); company != "" {
		q.Set("company", "eq."+company)
	}

	items, err := c.GetItems(ctx, jobsTable, q, query.Limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	var jobs []*Job
	if err := Decode(items, &jobs); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}

	for _, job := range jobs {
		job.RequiredSkills = orEmpty(job.RequiredSkills)
	}

	return jobs, nil
}

// Job returns a single job by id.
func (c *Client) Job(ctx context.Context, id string) (*Job, error) {
	item, err := c.getRow(ctx, jobsTable, "job_id", id)
	if err != nil {
		return nil, err
	}

	var job Job
	if err := Decode(item, &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	job.RequiredSkills = orEmpty(job.RequiredSkills)

	return &job, nil
}

// MatchJob returns the fields the scorer needs.
func (j *Job) MatchJob() match.Job {
	return match.Job{
		ID:             j.ID,
		Title:          j.Title,
		Company:        j.Company,
		RequiredSkills: orEmpty(j.RequiredSkills),
	}
}

// getRow fetches the row with the given id, reporting field in validation errors.
func (c *Client) getRow(ctx context.Context, table, field, id string) (Item, error) {
	if err := ValidateID(field, id); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "eq."+id)

	items, err := c.GetItems(ctx, table, q, 1)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", table, err)
	}

	if len(items) == 0 {
		return nil, &NotFoundError{Table: table, ID: id}
	}

	return items[0], nil
}

// ValidateID checks that id is a UUID as issued by the platform.
func ValidateID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	if _, err := uuid.Parse(id); err != nil {
		return &ValidationError{Field: field, Message: fmt.Sprintf("%q is not a valid uuid", id)}
	}
	return nil
}
