// Package platform talks to the recruiting platform's REST gateway: jobs,
// candidate profiles, applications and serverless functions.
package platform

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	restPath      = "/rest/v1"
	functionsPath = "/functions/v1"
	userAgent     = "talentdock/ats-matcher"
	// Max rows requested per page.
	perPage = 100
)

type Client struct {
	key        string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string
}

// New returns a client for the platform at baseURL authenticated with the given service key.
func New(baseURL, key string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		key:     key,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

func (c *Client) tableURL(table string) string {
	return c.BaseURL + restPath + "/" + table
}

func (c *Client) functionURL(name string) string {
	return c.BaseURL + functionsPath + "/" + name
}
