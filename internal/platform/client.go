package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/orderdocs/orderdocs/internal/logging"
	"github.com/orderdocs/orderdocs/internal/metrics"
)

// Client communicates with the commerce platform's admin GraphQL API.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     *logging.Logger

	uploadMode string
	alt        string

	resolveMaxAttempts    int
	resolveInitialBackoff time.Duration
	resolveMaxBackoff     time.Duration
}

// Options configures a Client. Zero values fall back to sane defaults.
type Options struct {
	Endpoint    string
	AccessToken string
	Timeout     time.Duration

	// UploadMode is "base64" (inline submission) or "staged" (multipart
	// upload to a staged target).
	UploadMode string
	// Alt is the descriptive text attached to created files.
	Alt string

	ResolveMaxAttempts    int
	ResolveInitialBackoff time.Duration
	ResolveMaxBackoff     time.Duration

	Logger *logging.Logger
}

// NewClient constructs a platform client.
func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UploadMode == "" {
		opts.UploadMode = UploadModeBase64
	}
	if opts.Alt == "" {
		opts.Alt = "LPO File"
	}
	if opts.ResolveMaxAttempts == 0 {
		opts.ResolveMaxAttempts = 5
	}
	if opts.ResolveInitialBackoff == 0 {
		opts.ResolveInitialBackoff = 500 * time.Millisecond
	}
	if opts.ResolveMaxBackoff == 0 {
		opts.ResolveMaxBackoff = 8 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.New(slog.LevelInfo, "json")
	}

	return &Client{
		endpoint:              opts.Endpoint,
		token:                 opts.AccessToken,
		httpClient:            &http.Client{Timeout: opts.Timeout},
		logger:                opts.Logger,
		uploadMode:            opts.UploadMode,
		alt:                   opts.Alt,
		resolveMaxAttempts:    opts.ResolveMaxAttempts,
		resolveInitialBackoff: opts.ResolveInitialBackoff,
		resolveMaxBackoff:     opts.ResolveMaxBackoff,
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type graphQLEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// execute runs one GraphQL call and decodes the data envelope into out.
// A response without a data envelope is a contract violation, never treated
// as an empty success.
func (c *Client) execute(ctx context.Context, op, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return &Error{Kind: ErrMalformedResponse, Op: op, Message: "marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &Error{Kind: ErrTransport, Op: op, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.PlatformRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PlatformErrors.WithLabelValues(op, string(ErrTransport)).Inc()
		return &Error{Kind: ErrTransport, Op: op, Message: "send request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		metrics.PlatformErrors.WithLabelValues(op, string(ErrRateLimited)).Inc()
		return &Error{Kind: ErrRateLimited, Op: op, Message: "throttled by platform"}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.PlatformErrors.WithLabelValues(op, string(ErrTransport)).Inc()
		return &Error{Kind: ErrTransport, Op: op, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var envelope graphQLEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		metrics.PlatformErrors.WithLabelValues(op, string(ErrMalformedResponse)).Inc()
		return &Error{Kind: ErrMalformedResponse, Op: op, Message: "decode response", Err: err}
	}

	for _, gqlErr := range envelope.Errors {
		if gqlErr.Extensions.Code == "THROTTLED" {
			metrics.PlatformErrors.WithLabelValues(op, string(ErrRateLimited)).Inc()
			return &Error{Kind: ErrRateLimited, Op: op, Message: gqlErr.Message}
		}
	}
	if len(envelope.Errors) > 0 {
		metrics.PlatformErrors.WithLabelValues(op, string(ErrRejected)).Inc()
		return &Error{Kind: ErrRejected, Op: op, Message: envelope.Errors[0].Message}
	}

	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		metrics.PlatformErrors.WithLabelValues(op, string(ErrMalformedResponse)).Inc()
		return &Error{Kind: ErrMalformedResponse, Op: op, Message: "response missing data envelope"}
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		metrics.PlatformErrors.WithLabelValues(op, string(ErrMalformedResponse)).Inc()
		return &Error{Kind: ErrMalformedResponse, Op: op, Message: "decode data envelope", Err: err}
	}

	return nil
}
