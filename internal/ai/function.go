package ai

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/talentdock/ats-matcher/internal/platform"
)

const DefaultFunction = "analyze-resume"

type functionInvoker interface {
	InvokeFunction(ctx context.Context, name string, payload, target any) error
}

// FunctionAnalyzer delegates analysis to the platform's serverless function.
type FunctionAnalyzer struct {
	invoker functionInvoker
	name    string
	logger  *zap.Logger
}

func NewFunctionAnalyzer(invoker functionInvoker, name string, logger *zap.Logger) *FunctionAnalyzer {
	if name = strings.TrimSpace(name); name == "" {
		name = DefaultFunction
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FunctionAnalyzer{invoker: invoker, name: name, logger: logger}
}

func (f *FunctionAnalyzer) Analyze(ctx context.Context, req *Request) (*Analysis, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"resume_text":     req.ResumeText,
		"job_id":          req.Job.ID,
		"job_title":       req.Job.Title,
		"job_description": platform.PlainText(req.Job.Description),
		"required_skills": req.Job.RequiredSkills,
	}

	var reply map[string]any
	if err := f.invoker.InvokeFunction(ctx, f.name, payload, &reply); err != nil {
		return nil, err
	}
	if reply == nil {
		return nil, fmt.Errorf("function %s returned an empty reply", f.name)
	}

	analysis := FromMap(reply)

	f.logger.Debug("resume analyzed by function",
		zap.String("function", f.name),
		zap.String("job_id", req.Job.ID),
		zap.Int("score", analysis.Score),
	)

	return analysis, nil
}
