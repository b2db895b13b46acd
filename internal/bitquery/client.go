// Package bitquery queries the Bitquery streaming GraphQL API for decoded
// position manager calls and token currency metadata.
package bitquery

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

	"positionScope/internal/model"
)

const (
	DefaultEndpoint        = "https://streaming.bitquery.io/graphql"
	PositionManager        = "0xC36442b4a4522E871399CD717aBDD847Ab11FE88"
	DefaultHistoricalLimit = 2000
	DefaultRealtimeLimit   = 2000
	// Position snapshots and creator scans read a larger realtime page.
	WideRealtimeLimit = 20000
)

var ErrEmptyBody = errors.New("empty response body")

// Requests is notified of every provider round trip.
type Requests interface {
	ObserveRequest(query string, err error)
}

// Options configures a Client. Zero values take the package defaults.
type Options struct {
	Endpoint        string
	Token           string
	Contract        string
	StartDate       string
	EndDate         string
	Limit           int
	IncludeRealtime bool
	Timeout         time.Duration
	HTTPClient      *http.Client
	Logger          *zap.Logger
	Requests        Requests
}

// Client pulls call batches over HTTP. It never retries.
type Client struct {
	endpoint        string
	token           string
	contract        string
	startDate       string
	endDate         string
	limit           int
	includeRealtime bool
	http            *http.Client
	logger          *zap.Logger
	requests        Requests
}

func NewClient(opts Options) *Client {
	c := &Client{
		endpoint:        opts.Endpoint,
		token:           opts.Token,
		contract:        opts.Contract,
		startDate:       opts.StartDate,
		endDate:         opts.EndDate,
		limit:           opts.Limit,
		includeRealtime: opts.IncludeRealtime,
		http:            opts.HTTPClient,
		logger:          opts.Logger,
		requests:        opts.Requests,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.contract == "" {
		c.contract = PositionManager
	}
	if c.limit <= 0 {
		c.limit = DefaultHistoricalLimit
	}
	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// plan maps an event kind to the function signature queried and whether
// returns are requested.
func plan(kind model.EventKind) (callQuery, int, error) {
	switch kind {
	case model.EventPosition:
		return callQuery{Signature: "positions", Returns: true}, WideRealtimeLimit, nil
	case model.EventMint:
		return callQuery{Signature: "mint"}, DefaultRealtimeLimit, nil
	case model.EventBurn:
		return callQuery{Signature: "burn"}, DefaultRealtimeLimit, nil
	case model.EventCreation:
		return callQuery{Signature: "mint", Returns: true}, WideRealtimeLimit, nil
	default:
		return callQuery{}, 0, fmt.Errorf("no query for event kind %q", kind)
	}
}

// Calls returns the historical batch for the configured date window followed
// by the realtime batch, in that order.
func (c *Client) Calls(ctx context.Context, kind model.EventKind) ([]model.DecodedCall, error) {
	q, realtimeLimit, err := plan(kind)
	if err != nil {
		return nil, err
	}

	var calls []model.DecodedCall
	if c.startDate != "" && c.endDate != "" {
		q.Archive = true
		batch, err := c.fetchCalls(ctx, q, map[string]any{
			"signature": q.Signature,
			"contract":  c.contract,
			"limit":     c.limit,
			"startDate": c.startDate,
			"endDate":   c.endDate,
		})
		if err != nil {
			return nil, err
		}
		c.logger.Info("historical calls fetched",
			zap.String("kind", string(kind)),
			zap.String("start", c.startDate),
			zap.String("end", c.endDate),
			zap.Int("count", len(batch)),
		)
		calls = append(calls, batch...)
	}

	if c.includeRealtime {
		q.Archive = false
		batch, err := c.fetchCalls(ctx, q, map[string]any{
			"signature": q.Signature,
			"contract":  c.contract,
			"limit":     realtimeLimit,
		})
		if err != nil {
			return nil, err
		}
		c.logger.Info("realtime calls fetched", zap.String("kind", string(kind)), zap.Int("count", len(batch)))
		calls = append(calls, batch...)
	}
	return calls, nil
}

// Transfers returns one currency record per requested token contract.
func (c *Client) Transfers(ctx context.Context, addresses []string) ([]model.TransferRecord, error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	var resp model.TransfersResponse
	vars := map[string]any{
		"tokens":    addresses,
		"startDate": c.startDate,
		"endDate":   c.endDate,
	}
	if err := c.do(ctx, "TokenDecimals", transfersDocument, vars, &resp); err != nil {
		return nil, err
	}
	return resp.Transfers(), nil
}

func (c *Client) fetchCalls(ctx context.Context, q callQuery, vars map[string]any) ([]model.DecodedCall, error) {
	var resp model.CallsResponse
	if err := c.do(ctx, q.name(), q.document(), vars, &resp); err != nil {
		return nil, err
	}
	return resp.Calls(), nil
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// do posts one GraphQL document and decodes the envelope into out.
func (c *Client) do(ctx context.Context, name, document string, vars map[string]any, out any) (err error) {
	if c.requests != nil {
		defer func() { c.requests.ObserveRequest(name, err) }()
	}

	body, err := json.Marshal(request{Query: document, Variables: vars})
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", name, err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("query %s: status %d: %s", name, res.StatusCode, snippet(payload))
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return fmt.Errorf("query %s: %w", name, ErrEmptyBody)
	}

	var envelope struct {
		Errors []graphQLError `json:"errors"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", name, err)
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("query %s: graphql: %s", name, strings.Join(msgs, "; "))
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s response: %w", name, err)
	}
	return nil
}

func snippet(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
