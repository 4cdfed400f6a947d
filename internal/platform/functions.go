package platform

import (
	"context"
	"fmt"
	"strings"
)

// InvokeFunction calls a serverless function with a JSON payload and decodes
// its JSON reply into target.
func (c *Client) InvokeFunction(ctx context.Context, name string, payload, target any) error {
	name = strings.Trim(strings.TrimSpace(name), "/")
	if name == "" {
		return &ValidationError{Field: "function", Message: "is required"}
	}

	if err := c.postJSON(ctx, c.functionURL(name), payload, target); err != nil {
		return fmt.Errorf("invoke function %s: %w", name, err)
	}

	return nil
}
