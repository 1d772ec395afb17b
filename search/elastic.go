// Package search wipes Elasticsearch indices ahead of a genomehubs re-index.
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to one Elasticsearch node over its REST API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Logger:  logger.Named("elasticsearch"),
	}
}

// DeleteIndices deletes every index matching pattern (e.g. "*--2024.05.01").
// A 404 means nothing matched and is not an error.
func (c *Client) DeleteIndices(ctx context.Context, pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("empty index pattern")
	}
	endpoint := c.BaseURL + "/" + url.PathEscape(pattern)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("delete indices %s: %w", pattern, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.Logger.Info("no indices matched", zap.String("pattern", pattern))
		return nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.Logger.Info("deleted indices", zap.String("pattern", pattern))
		return nil
	}
	return fmt.Errorf("delete indices %s: %s: %s", pattern, resp.Status, strings.TrimSpace(string(body)))
}
