package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentdock/ats-matcher/internal/match"
	"github.com/talentdock/ats-matcher/internal/platform"
	"github.com/talentdock/ats-matcher/internal/recommend"
)

const (
	candidateID = "5b0d6f0e-8a53-4c1e-9a53-3f4d2f6a9c11"
	jobID       = "0c8e7a4e-1111-4c1e-9a53-3f4d2f6a9c11"
)

type stubService struct {
	lastOpts recommend.Options
	err      error
}

func (s *stubService) ForCandidate(_ context.Context, id string, opts recommend.Options) (*recommend.Recommendations, error) {
	s.lastOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	if err := platform.ValidateID("candidate_id", id); err != nil {
		return nil, err
	}
	return &recommend.Recommendations{
		Candidate: &platform.Candidate{ID: id, Skills: []string{"Go"}},
		Items: []*recommend.Item{{
			Job:   &platform.Job{ID: jobID, Title: "Backend", RequiredSkills: []string{"Go", "SQL"}},
			Match: match.Compute([]string{"Go", "SQL"}, []string{"Go"}),
		}},
	}, nil
}

func (s *stubService) Applicants(_ context.Context, id string) ([]*recommend.Applicant, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*recommend.Applicant{{
		Application: &platform.Application{ID: "app-1", JobID: id, CandidateID: candidateID},
		Match:       match.Compute([]string{"Go"}, []string{"go"}),
	}}, nil
}

func (s *stubService) JobMatch(_ context.Context, jobID, candidateID string) (*match.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	res := match.Compute([]string{"Go", "Rust", "SQL"}, []string{"go", "sql"})
	return &res, nil
}

func (s *stubService) Filters() []recommend.Status {
	return []recommend.Status{{Name: "minimum_score", Enabled: true, Details: map[string]string{"minimum": "70"}}}
}

func setupTestRouter(svc Recommender) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(svc, "test", nil)
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router := setupTestRouter(&stubService{})

	w := doRequest(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","version":"test"}`, w.Body.String())

	_, err := uuid.Parse(w.Header().Get("X-Request-ID"))
	assert.NoError(t, err, "expected a generated request id")
}

func TestRequestIDIsReused(t *testing.T) {
	router := setupTestRouter(&stubService{})

	id := uuid.New().String()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", id)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, id, w.Header().Get("X-Request-ID"))
}

func TestMatchHandler(t *testing.T) {
	router := setupTestRouter(&stubService{})

	tests := []struct {
		name           string
		body           any
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "partial match",
			body:           `{"required_skills":["JavaScript","React","Node.js"],"candidate_skills":["javascript","react","python"]}`,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"score":67,"matched_skills":["JavaScript","React"],"missing_skills":["Node.js"]}`,
		},
		{
			name:           "null lists",
			body:           `{"required_skills":null,"candidate_skills":null}`,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"score":0,"matched_skills":[],"missing_skills":[]}`,
		},
		{
			name:           "missing candidate skills",
			body:           `{"required_skills":["Go"]}`,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"score":0,"matched_skills":[],"missing_skills":["Go"]}`,
		},
		{
			name:           "non string elements",
			body:           `{"required_skills":["Go",5,null],"candidate_skills":["5"]}`,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"score":50,"matched_skills":["5"],"missing_skills":["Go"]}`,
		},
		{
			name:           "invalid json",
			body:           `{"required_skills":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "object instead of list",
			body:           `{"required_skills":{"a":1}}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, http.MethodPost, "/match", tt.body)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestRankHandler(t *testing.T) {
	router := setupTestRouter(&stubService{})

	body := `{
		"jobs": [
			{"id":"A","title":"A","required_skills":["Go","Rust"]},
			{"id":"B","title":"B","required_skills":["Go","Java"]},
			{"id":"C","title":"C","required_skills":["Go"]},
			{"id":"D","title":"D","required_skills":null}
		],
		"candidate_skills":["go"]
	}`

	w := doRequest(t, router, http.MethodPost, "/rank", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Jobs []struct {
			ID             string   `json:"id"`
			Score          int      `json:"score"`
			RequiredSkills []string `json:"required_skills"`
		} `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Jobs, 4)

	var ids []string
	var scores []int
	for _, j := range resp.Jobs {
		ids = append(ids, j.ID)
		scores = append(scores, j.Score)
	}
	assert.Equal(t, []string{"C", "A", "B", "D"}, ids)
	assert.Equal(t, []int{100, 50, 50, 0}, scores)
	assert.NotNil(t, resp.Jobs[3].RequiredSkills)
}

func TestRankHandlerEmpty(t *testing.T) {
	router := setupTestRouter(&stubService{})

	w := doRequest(t, router, http.MethodPost, "/rank", `{"jobs":[],"candidate_skills":["go"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"jobs":[]}`, w.Body.String())
}

func TestRecommendationsHandler(t *testing.T) {
	svc := &stubService{}
	router := setupTestRouter(svc)

	w := doRequest(t, router, http.MethodGet, "/candidates/"+candidateID+"/recommendations?min_score=40&limit=5&company=Acme", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, recommend.Options{Jobs: platform.JobQuery{Company: "Acme"}, MinScore: 40, Limit: 5}, svc.lastOpts)

	var resp struct {
		Items []struct {
			Job   platform.Job `json:"job"`
			Match match.Result `json:"match"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 50, resp.Items[0].Match.Score)
	assert.Equal(t, []string{"SQL"}, resp.Items[0].Match.MissingSkills)
}

func TestRecommendationsHandlerErrors(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		err            error
		expectedStatus int
		expectedCode   ErrorCode
	}{
		{
			name:           "bad min score",
			path:           "/candidates/" + candidateID + "/recommendations?min_score=high",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeInvalidQuery,
		},
		{
			name:           "bad limit",
			path:           "/candidates/" + candidateID + "/recommendations?limit=1.5",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeInvalidQuery,
		},
		{
			name:           "invalid candidate id",
			path:           "/candidates/not-a-uuid/recommendations",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidationFailed,
		},
		{
			name:           "candidate not found",
			path:           "/candidates/" + candidateID + "/recommendations",
			err:            &platform.NotFoundError{Table: "profiles", ID: candidateID},
			expectedStatus: http.StatusNotFound,
			expectedCode:   ErrorCodeNotFound,
		},
		{
			name:           "timeout",
			path:           "/candidates/" + candidateID + "/recommendations",
			err:            context.DeadlineExceeded,
			expectedStatus: http.StatusGatewayTimeout,
			expectedCode:   ErrorCodeTimeout,
		},
		{
			name:           "upstream failure",
			path:           "/candidates/" + candidateID + "/recommendations",
			err:            errors.New("platform returned 502"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   ErrorCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter(&stubService{err: tt.err})

			w := doRequest(t, router, http.MethodGet, tt.path, nil)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())

			var apiErr APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
			assert.Equal(t, tt.expectedCode, apiErr.Code)
			assert.NotEmpty(t, apiErr.RequestID)
			assert.Equal(t, w.Header().Get("X-Request-ID"), apiErr.RequestID)
		})
	}
}

func TestApplicantsHandler(t *testing.T) {
	router := setupTestRouter(&stubService{})

	w := doRequest(t, router, http.MethodGet, "/jobs/"+jobID+"/applicants", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		JobID      string `json:"job_id"`
		Applicants []struct {
			Match match.Result `json:"match"`
		} `json:"applicants"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, jobID, resp.JobID)
	require.Len(t, resp.Applicants, 1)
	assert.Equal(t, 100, resp.Applicants[0].Match.Score)
}

func TestJobMatchHandler(t *testing.T) {
	router := setupTestRouter(&stubService{})

	w := doRequest(t, router, http.MethodGet, "/jobs/"+jobID+"/match/"+candidateID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"score":67,"matched_skills":["Go","SQL"],"missing_skills":["Rust"]}`, w.Body.String())

	router = setupTestRouter(&stubService{err: &platform.ValidationError{Field: "job_id", Message: "is required"}})
	w = doRequest(t, router, http.MethodGet, "/jobs/x/match/"+candidateID, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	require.Len(t, apiErr.Details, 1)
	assert.Equal(t, "job_id", apiErr.Details[0].Field)
}

func TestFiltersHandler(t *testing.T) {
	router := setupTestRouter(&stubService{})

	w := doRequest(t, router, http.MethodGet, "/filters", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"filters":[{"name":"minimum_score","enabled":true,"details":{"minimum":"70"}}]}`, w.Body.String())
}
