// Package search writes documents to and queries an Elasticsearch index
// through its REST API.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"foody/indexer/internal/domain"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// Result is the outcome the index reports for a document write.
type Result string

const (
	ResultCreated Result = "created"
	ResultUpdated Result = "updated"
)

type Config struct {
	URL        string
	Index      string
	Username   string
	Password   string
	Timeout    time.Duration
	MaxRetries int
}

type Hit struct {
	ID     string          `json:"_id"`
	Score  float64         `json:"_score"`
	Source domain.ItemBody `json:"_source"`
}

type SearchResult struct {
	Total int64 `json:"total"`
	Hits  []Hit `json:"hits"`
}

type Client struct {
	httpClient *resty.Client
	baseURL    string
	index      string
}

func NewClient(cfg Config) *Client {
	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if cfg.Username != "" {
		httpClient.SetBasicAuth(cfg.Username, cfg.Password)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		index:      cfg.Index,
	}
}

// Upsert writes body under id, replacing any existing document.
func (c *Client) Upsert(ctx context.Context, id string, body any) (Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document %s: %w", id, err)
	}

	raw, err := c.do(ctx, "PUT", c.indexURL("_doc", url.PathEscape(id)), payload)
	if err != nil {
		return "", fmt.Errorf("failed to index document %s: %w", id, err)
	}

	var out struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("failed to decode index response for %s: %w", id, err)
	}

	log.Debugf("Indexed document %s into %s: %s", id, c.index, out.Result)
	return Result(out.Result), nil
}

// Refresh makes every completed write visible to search.
func (c *Client) Refresh(ctx context.Context) error {
	if _, err := c.do(ctx, "POST", c.indexURL("_refresh"), nil); err != nil {
		return fmt.Errorf("failed to refresh index %s: %w", c.index, err)
	}
	return nil
}

// Search refreshes the index and then runs query, so results include every
// write completed before the call.
func (c *Client) Search(ctx context.Context, query Query) (*SearchResult, error) {
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	raw, err := c.do(ctx, "POST", c.indexURL("_search"), payload)
	if err != nil {
		return nil, fmt.Errorf("failed to search index %s: %w", c.index, err)
	}

	var out struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []Hit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	result := &SearchResult{
		Total: out.Hits.Total.Value,
		Hits:  out.Hits.Hits,
	}
	if result.Hits == nil {
		result.Hits = []Hit{}
	}
	return result, nil
}

func (c *Client) Close() error {
	return c.httpClient.Close()
}

func (c *Client) indexURL(parts ...string) string {
	return c.baseURL + "/" + url.PathEscape(c.index) + "/" + strings.Join(parts, "/")
}

func (c *Client) do(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	req := c.httpClient.R().SetContext(ctx)
	if payload != nil {
		req.SetBody(payload)
	}

	resp, err := req.Execute(method, target)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, err
	}

	if resp.IsError() {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	return []byte(resp.String()), nil
}
