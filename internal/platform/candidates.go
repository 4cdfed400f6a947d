package platform

import (
	"context"
	"fmt"
)

const profilesTable = "profiles"

type Candidate struct {
	ID         string   `json:"id"`
	FullName   string   `json:"full_name,omitempty"`
	Headline   string   `json:"headline,omitempty"`
	Skills     []string `json:"skills"`
	ResumeText string   `json:"resume_text,omitempty"`
}

// Candidate returns a candidate profile by id.
func (c *Client) Candidate(ctx context.Context, id string) (*Candidate, error) {
	item, err := c.getRow(ctx, profilesTable, "candidate_id", id)
	if err != nil {
		return nil, err
	}

	var candidate Candidate
	if err := Decode(item, &candidate); err != nil {
		return nil, fmt.Errorf("decode candidate: %w", err)
	}
	candidate.Skills = orEmpty(candidate.Skills)

	return &candidate, nil
}

// SkillsOf returns the candidate's skills, empty for a nil candidate.
func SkillsOf(c *Candidate) []string {
	if c == nil {
		return []string{}
	}
	return orEmpty(c.Skills)
}
