package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/talentdock/ats-matcher/internal/platform"
)

const (
	jobColumns = `id::text, COALESCE(title, ''), COALESCE(company, ''), COALESCE(location, ''),
		COALESCE(description, ''), array_remove(COALESCE(required_skills, '{}'), NULL), created_at`
	profileColumns = `id::text, COALESCE(full_name, ''), COALESCE(headline, ''),
		array_remove(COALESCE(skills, '{}'), NULL), COALESCE(resume_text, '')`
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store reads jobs, profiles and applications straight from Postgres.
type Store struct {
	db     querier
	logger *zap.Logger
}

// NewStore creates a Store on top of a pool or a single connection.
func NewStore(db querier, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// Jobs lists jobs, newest first.
func (s *Store) Jobs(ctx context.Context, query platform.JobQuery) ([]*platform.Job, error) {
	sql, args := jobsQuery(query)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs query: %w", err)
	}
	defer rows.Close()

	jobs := make([]*platform.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("list jobs scan: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	s.logger.Debug("jobs loaded from postgres", zap.Int("count", len(jobs)))
	return jobs, nil
}

// Job returns a single job by id.
func (s *Store) Job(ctx context.Context, id string) (*platform.Job, error) {
	if err := platform.ValidateID("job_id", id); err != nil {
		return nil, err
	}

	job, err := scanJob(s.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &platform.NotFoundError{Table: "jobs", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Candidate returns a candidate profile by id.
func (s *Store) Candidate(ctx context.Context, id string) (*platform.Candidate, error) {
	if err := platform.ValidateID("candidate_id", id); err != nil {
		return nil, err
	}

	var (
		c      platform.Candidate
		skills []*string
	)
	err := s.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id).
		Scan(&c.ID, &c.FullName, &c.Headline, &skills, &c.ResumeText)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &platform.NotFoundError{Table: "profiles", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}

	c.Skills = skillLabels(skills)
	return &c, nil
}

// Applications lists applications with the applicant profile, oldest first.
func (s *Store) Applications(ctx context.Context, query platform.ApplicationQuery) ([]*platform.Application, error) {
	if query.JobID != "" {
		if err := platform.ValidateID("job_id", query.JobID); err != nil {
			return nil, err
		}
	}
	if query.CandidateID != "" {
		if err := platform.ValidateID("candidate_id", query.CandidateID); err != nil {
			return nil, err
		}
	}

	sql, args := applicationsQuery(query)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications query: %w", err)
	}
	defer rows.Close()

	apps := make([]*platform.Application, 0)
	for rows.Next() {
		var (
			a         platform.Application
			createdAt *time.Time
			profileID *string
			skills    []*string
			c         platform.Candidate
		)
		if err := rows.Scan(
			&a.ID, &a.JobID, &a.CandidateID, &a.Status, &createdAt,
			&profileID, &c.FullName, &c.Headline, &skills, &c.ResumeText,
		); err != nil {
			return nil, fmt.Errorf("list applications scan: %w", err)
		}

		a.CreatedAt = formatTime(createdAt)
		if profileID != nil {
			c.ID = *profileID
			c.Skills = skillLabels(skills)
			a.Candidate = &c
		}
		apps = append(apps, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	return apps, nil
}

func jobsQuery(query platform.JobQuery) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)

	sb.WriteString(`SELECT ` + jobColumns + ` FROM jobs`)
	if company := strings.TrimSpace(query.Company); company != "" {
		args = append(args, company)
		sb.WriteString(` WHERE company = $` + strconv.Itoa(len(args)))
	}
	sb.WriteString(` ORDER BY created_at DESC`)
	if query.Limit > 0 {
		args = append(args, query.Limit)
		sb.WriteString(` LIMIT $` + strconv.Itoa(len(args)))
	}

	return sb.String(), args
}

func applicationsQuery(query platform.ApplicationQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if query.JobID != "" {
		args = append(args, query.JobID)
		conds = append(conds, `a.job_id = $`+strconv.Itoa(len(args)))
	}
	if query.CandidateID != "" {
		args = append(args, query.CandidateID)
		conds = append(conds, `a.candidate_id = $`+strconv.Itoa(len(args)))
	}

	sql := `SELECT a.id::text, a.job_id::text, a.candidate_id::text, COALESCE(a.status, ''), a.created_at,
		p.id::text, COALESCE(p.full_name, ''), COALESCE(p.headline, ''),
		array_remove(COALESCE(p.skills, '{}'), NULL), COALESCE(p.resume_text, '')
		FROM applications a
		LEFT JOIN profiles p ON p.id = a.candidate_id`
	if len(conds) > 0 {
		sql += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	sql += ` ORDER BY a.created_at ASC`

	return sql, args
}

func scanJob(row pgx.Row) (*platform.Job, error) {
	var (
		job       platform.Job
		skills    []*string
		createdAt *time.Time
	)
	if err := row.Scan(&job.ID, &job.Title, &job.Company, &job.Location,
		&job.Description, &skills, &createdAt); err != nil {
		return nil, err
	}

	job.RequiredSkills = skillLabels(skills)
	job.CreatedAt = formatTime(createdAt)
	return &job, nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// skillLabels drops the NULL elements of a text[] skill column. pgx cannot
// scan a NULL element into a string, so skill arrays are read as []*string.
func skillLabels(s []*string) []string {
	labels := make([]string, 0, len(s))
	for _, label := range s {
		if label != nil {
			labels = append(labels, *label)
		}
	}
	return labels
}
