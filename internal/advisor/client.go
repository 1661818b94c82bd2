package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/NissesSenap/agri-dashboard/internal/config"
	"github.com/NissesSenap/agri-dashboard/internal/storage"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// NoResponse is returned when the model answers without text
const NoResponse = "No response from model."

// HTTPError is a non-2xx answer from the Ollama API
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("ollama returned status %d: %s", e.StatusCode, e.Body)
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Client talks to the Ollama generate API
type Client struct {
	host       string
	model      string
	httpClient *http.Client
	log        *zap.Logger
	maxRetries uint64
	initial    time.Duration
}

// NewClient creates a Client from the Ollama settings
func NewClient(cfg config.Ollama, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		host:       strings.TrimRight(cfg.Host, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
		maxRetries: 2,
		initial:    500 * time.Millisecond,
	}
}

// Generate sends prompt to the model and returns its answer.
// Server errors and network failures are retried; 4xx answers are not.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", err
	}

	var out generateResponse
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return httpErr
			}
			return backoff.Permanent(httpErr)
		}

		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode ollama response: %w", err))
		}
		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.initial
	policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, c.maxRetries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}
	if out.Response == "" {
		return NoResponse, nil
	}
	return out.Response, nil
}

// Analyze asks the model about agg. It never fails: when the model is
// unreachable the rule-based recommendation is returned instead.
func (c *Client) Analyze(ctx context.Context, agg *storage.Aggregates) string {
	answer, err := c.Generate(ctx, BuildPrompt(agg))
	if err != nil {
		c.log.Warn("ollama unavailable, using heuristic", zap.String("host", c.host), zap.Error(err))
		return Heuristic(agg, err.Error())
	}
	return answer
}
