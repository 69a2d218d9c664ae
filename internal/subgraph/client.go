package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound is returned when the subgraph has no entity for an id.
var ErrNotFound = errors.New("entity not found")

const pageSize = 1000

// Options configures a Client.
type Options struct {
	URL          string
	BlocksURL    string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// Client queries a Uniswap v3 subgraph and parses the results into model
// types.
type Client struct {
	httpClient *http.Client
	opts       Options
	logger     *zap.Logger
}

func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, errors.New("subgraph url is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
		logger:     logger,
	}, nil
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// query posts a GraphQL request to url and decodes its data into out.
func (c *Client) query(ctx context.Context, url, query string, vars map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	return withRetry(ctx, c.opts.MaxRetries, c.opts.RetryBackoff, func(ctx context.Context) error {
		err := c.post(ctx, url, body, out)
		if err != nil {
			c.logger.Warn("subgraph query failed", zap.String("url", url), zap.Error(err))
		}
		return err
	})
}

func (c *Client) post(ctx context.Context, url string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return permanent(fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return permanent(fmt.Errorf("decode response: %w", err))
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
		}
		return permanent(fmt.Errorf("graphql: %s", strings.Join(msgs, "; ")))
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return permanent(errors.New("graphql: empty data"))
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return permanent(fmt.Errorf("decode data: %w", err))
	}
	return nil
}
