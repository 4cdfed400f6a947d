// Package api exposes the skill scorer and the recommendation service over HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/talentdock/ats-matcher/internal/match"
	"github.com/talentdock/ats-matcher/internal/platform"
	"github.com/talentdock/ats-matcher/internal/recommend"
)

const maxBodySize = 1 << 20

// Recommender is the part of recommend.Service the handlers use.
type Recommender interface {
	ForCandidate(ctx context.Context, candidateID string, opts recommend.Options) (*recommend.Recommendations, error)
	Applicants(ctx context.Context, jobID string) ([]*recommend.Applicant, error)
	JobMatch(ctx context.Context, jobID, candidateID string) (*match.Result, error)
	Filters() []recommend.Status
}

// API holds dependencies for API handlers.
type API struct {
	service Recommender
	version string
	logger  *zap.Logger
}

func NewAPI(service Recommender, version string, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{service: service, version: version, logger: logger}
}

// NewRouter builds a gin engine with middleware and all routes.
func NewRouter(service Recommender, version string, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(
		RequestIDMiddleware(),
		LoggerMiddleware(logger),
		gin.Recovery(),
		RequestSizeLimitMiddleware(maxBodySize),
	)
	SetupRoutes(router, NewAPI(service, version, logger))
	return router
}

// SetupRoutes registers the API routes.
func SetupRoutes(router *gin.Engine, api *API) {
	router.GET("/health", api.HealthCheckHandler)

	router.POST("/match", api.MatchHandler)
	router.POST("/rank", api.RankHandler)
	router.GET("/filters", api.FiltersHandler)

	candidateRoutes := router.Group("/candidates")
	{
		candidateRoutes.GET("/:id/recommendations", api.RecommendationsHandler)
	}

	jobRoutes := router.Group("/jobs")
	{
		jobRoutes.GET("/:id/applicants", api.ApplicantsHandler)
		jobRoutes.GET("/:id/match/:candidate", api.JobMatchHandler)
	}
}

func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": api.version})
}

// MatchRequest is the body of POST /match. Null or missing lists are empty.
type MatchRequest struct {
	RequiredSkills  []string `json:"required_skills"`
	CandidateSkills []string `json:"candidate_skills"`
}

// RankRequest is the body of POST /rank.
type RankRequest struct {
	Jobs            []match.Job `json:"jobs"`
	CandidateSkills []string    `json:"candidate_skills"`
}

// MatchHandler scores one set of candidate skills against one set of required skills.
func (api *API) MatchHandler(c *gin.Context) {
	var req MatchRequest
	if !bindLoose(c, &req) {
		return
	}

	c.JSON(http.StatusOK, match.Compute(req.RequiredSkills, req.CandidateSkills))
}

// RankHandler ranks the given jobs for the candidate skills.
func (api *API) RankHandler(c *gin.Context) {
	var req RankRequest
	if !bindLoose(c, &req) {
		return
	}

	for i := range req.Jobs {
		if req.Jobs[i].RequiredSkills == nil {
			req.Jobs[i].RequiredSkills = []string{}
		}
	}

	c.JSON(http.StatusOK, gin.H{"jobs": match.RankJobs(req.Jobs, req.CandidateSkills)})
}

func (api *API) FiltersHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"filters": api.service.Filters()})
}

// RecommendationsHandler returns ranked jobs for a candidate.
// Query: min_score (0-100), limit (>= 0), company.
func (api *API) RecommendationsHandler(c *gin.Context) {
	minScore, ok := intQuery(c, "min_score")
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}

	recs, err := api.service.ForCandidate(c.Request.Context(), c.Param("id"), recommend.Options{
		Jobs:     platform.JobQuery{Company: c.Query("company")},
		MinScore: minScore,
		Limit:    limit,
	})
	if err != nil {
		SendServiceError(c, "recommendations", err)
		return
	}

	c.JSON(http.StatusOK, recs)
}

func (api *API) ApplicantsHandler(c *gin.Context) {
	applicants, err := api.service.Applicants(c.Request.Context(), c.Param("id"))
	if err != nil {
		SendServiceError(c, "applicants", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"job_id": c.Param("id"), "applicants": applicants})
}

func (api *API) JobMatchHandler(c *gin.Context) {
	result, err := api.service.JobMatch(c.Request.Context(), c.Param("id"), c.Param("candidate"))
	if err != nil {
		SendServiceError(c, "job match", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// bindLoose decodes a JSON body through the platform decoder so skill lists
// accept null, bare strings and non-string elements.
func bindLoose(c *gin.Context, target any) bool {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		SendInvalidJSONError(c, err)
		return false
	}

	if err := platform.Decode(raw, target); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed",
			ErrorDetail{Message: err.Error()})
		return false
	}
	return true
}

func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		SendInvalidQueryError(c, name, "must be an integer")
		return 0, false
	}
	return v, true
}
