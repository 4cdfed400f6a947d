package platform

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
)

type Item = map[string]any

// GetItems reads every row of a table matching q, following limit/offset pages
// until a short page is returned. A positive limit stops paging once limit rows are collected.
func (c *Client) GetItems(ctx context.Context, table string, q url.Values, limit int) ([]Item, error) {
	if q == nil {
		q = url.Values{}
	}

	pageSize := perPage
	if limit > 0 && limit < pageSize {
		pageSize = limit
	}

	var items []Item
	for offset := 0; ; offset += pageSize {
		page := cloneValues(q)
		page.Set("limit", strconv.Itoa(pageSize))
		page.Set("offset", strconv.Itoa(offset))

		var batch []Item
		if err := c.getJSON(ctx, c.tableURL(table), page, &batch); err != nil {
			return nil, err
		}

		items = append(items, batch...)

		if limit > 0 && len(items) >= limit {
			return items[:limit], nil
		}

		if len(batch) < pageSize {
			break
		}

		c.logger.Debug("additional request needed",
			zap.String("table", table),
			zap.Int("rows_so_far", len(items)),
		)
	}

	return items, nil
}

func (c *Client) getJSON(ctx context.Context, url string, q url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	req.Header.Set("Accept", contentType)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	return c.do(req, http.StatusOK, target)
}

func (c *Client) postJSON(ctx context.Context, url string, payload, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	return c.do(req, 0, target)
}

// do sends req and decodes the body into target. A zero want accepts any 2xx status.
func (c *Client) do(req *http.Request, want int, target any) error {
	c.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	ok := resp.StatusCode == want
	if want == 0 {
		ok = resp.StatusCode >= 200 && resp.StatusCode < 300
	}
	if !ok {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	if target == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	return json.Unmarshal(data, target)
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.key))
	req.Header.Set("apikey", c.key)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}
