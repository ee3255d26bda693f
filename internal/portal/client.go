package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julioseixas/portalwatch/internal/queue"
)

// Fetcher retrieves one queue snapshot. It is implemented by *Client and
// faked in poller tests.
type Fetcher interface {
	FetchQueue(ctx context.Context, q Query) (queue.Snapshot, error)
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// Client talks to the portal REST API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	tokens    TokenSource
	userAgent string
	now       func() time.Time
}

const (
	defaultUserAgent = "portalwatch/0.1"
	requestTimeout   = 10 * time.Second
)

// NewClient builds a Client for the portal at baseURL.
func NewClient(baseURL string, tokens TokenSource) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		tokens = StaticToken("")
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		tokens:    tokens,
		userAgent: defaultUserAgent,
		now:       time.Now,
	}, nil
}

// FetchQueue retrieves the queue selected by q.
func (c *Client) FetchQueue(ctx context.Context, q Query) (queue.Snapshot, error) {
	if c == nil {
		return queue.Snapshot{}, fmt.Errorf("client is nil")
	}
	if err := q.Validate(); err != nil {
		return queue.Snapshot{}, err
	}

	var (
		rel  *url.URL
		body any
		op   string
	)
	switch q.Screen {
	case ScreenEmergency, ScreenTelemedicine:
		op = string(q.Screen)
		rel = &url.URL{Path: "/api/queue/" + string(q.Screen)}
		body = struct {
			PatientIDs []string `json:"patientIds"`
		}{PatientIDs: q.patientIDs()}
	default:
		op = string(ScreenConsultation)
		values := url.Values{}
		values.Set("agendaId", strings.TrimSpace(q.AgendaID))
		rel = &url.URL{Path: "/api/queue/consultation", RawQuery: values.Encode()}
	}

	var env Envelope
	if err := c.doURL(ctx, op, rel, body, &env); err != nil {
		return queue.Snapshot{}, err
	}
	if env.Success == nil || !*env.Success {
		msg := strings.TrimSpace(env.Message)
		if msg == "" {
			msg = "success flag absent or false"
		}
		return queue.Snapshot{}, &FetchError{Kind: KindEnvelope, Op: op, Err: errors.New(msg)}
	}

	snap, err := normalize(env.Data, c.now())
	if err != nil {
		return queue.Snapshot{}, &FetchError{Kind: KindEnvelope, Op: op, Err: err}
	}
	return snap, nil
}

func (c *Client) doURL(ctx context.Context, op string, rel *url.URL, body, dest any) error {
	token, err := c.tokens.Token()
	if err != nil {
		return &FetchError{Kind: KindNetwork, Op: op, Err: fmt.Errorf("token: %w", err)}
	}

	method := http.MethodGet
	var reader io.Reader
	if body != nil {
		method = http.MethodPost
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	reqURL := *c.baseURL
	reqURL.Path = c.baseURL.Path + rel.Path
	reqURL.RawQuery = rel.RawQuery
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header = AuthHeaders(token, c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &FetchError{Kind: KindNetwork, Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &FetchError{
			Kind:       KindServer,
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("api %s returned status %d", rel.Path, resp.StatusCode),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &FetchError{Kind: KindEnvelope, Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("portal base url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse base url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
