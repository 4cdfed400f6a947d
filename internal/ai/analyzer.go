// Package ai defines the resume-analysis collaborator: given a resume and a
// job it returns a score, the skills it found, and a short summary.
package ai

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/talentdock/ats-matcher/internal/platform"
)

const (
	ProviderGemini   = "gemini"
	ProviderFunction = "function"
)

// Request is the input of one analysis.
type Request struct {
	ResumeText string
	Job        *platform.Job
}

type Analysis struct {
	Score   int      `json:"score" yaml:"score"`
	Skills  []string `json:"skills" yaml:"skills"`
	Summary string   `json:"summary" yaml:"summary"`
	Raw     string   `json:"-" yaml:"-"`
}

type Analyzer interface {
	Analyze(ctx context.Context, req *Request) (*Analysis, error)
}

// Validate rejects requests that cannot be analyzed.
func (r *Request) Validate() error {
	if r == nil {
		return fmt.Errorf("analysis request is required")
	}
	if strings.TrimSpace(r.ResumeText) == "" {
		return fmt.Errorf("resume text is required")
	}
	if r.Job == nil {
		return fmt.Errorf("job is required")
	}
	return nil
}

// FromMap builds an Analysis from a loosely typed reply. The score is rounded
// and clamped to 0-100.
func FromMap(data map[string]any) *Analysis {
	score := coerceFloat(data["score"])
	if math.IsNaN(score) {
		score = 0
	}

	return &Analysis{
		Score:   int(math.Round(math.Max(0, math.Min(100, score)))),
		Skills:  coerceStrings(data["skills"]),
		Summary: coerceString(data["summary"]),
	}
}
