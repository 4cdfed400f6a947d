package gemini

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/talentdock/ats-matcher/internal/ai"
	"github.com/talentdock/ats-matcher/internal/platform"
	"github.com/talentdock/ats-matcher/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, prompt string) (string, error)
	Model() string
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200
	systemInstruction   = "You are an applicant tracking system reviewer. You answer with strict JSON."
)

// Analyzer implements ai.Analyzer on top of Gemini.
type Analyzer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewAnalyzer(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Analyzer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Analyzer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (a *Analyzer) Analyze(ctx context.Context, req *ai.Request) (*ai.Analysis, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	prompt, err := buildPrompt(req.ResumeText, req.Job)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("gemini generate content request",
		zap.String("job_id", req.Job.ID),
		zap.String("model", a.generator.Model()),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("gemini generate content response",
		zap.String("job_id", req.Job.ID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	analysis, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	analysis.Raw = raw
	return analysis, nil
}

func buildPrompt(resume string, job *platform.Job) (string, error) {
	jobJSON, err := json.MarshalIndent(map[string]any{
		"title":           job.Title,
		"company":         job.Company,
		"location":        job.Location,
		"description":     platform.PlainText(job.Description),
		"required_skills": job.RequiredSkills,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal job payload: %w", err)
	}

	skills := "none listed"
	if len(job.RequiredSkills) > 0 {
		skills = strings.Join(job.RequiredSkills, ", ")
	}

	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Job:\n{{JOB_JSON}}\n\nResume:\n{{RESUME}}\n\nJSON Response:"
	}

	return strings.NewReplacer(
		"{{REQUIRED_SKILLS}}", skills,
		"{{JOB_JSON}}", string(jobJSON),
		"{{RESUME}}", strings.TrimSpace(resume),
	).Replace(template), nil
}

func parseResponse(raw string) (*ai.Analysis, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	return ai.FromMap(data), nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")

	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start > 0 && end > start {
		raw = raw[start : end+1]
	}

	return strings.TrimSpace(raw)
}
