// Package client is a typed HTTP client for the apest API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	service "github.com/okian/apest/internal/app"
	"github.com/okian/apest/internal/domain/apest"
	"github.com/okian/apest/internal/domain/assembly"
	"github.com/okian/apest/internal/domain/invite"
	"github.com/okian/apest/internal/domain/model"
)

// Default client configuration constants.
const (
	defaultTimeout    = 10 * time.Second
	defaultRetryCount = 2
	idempotencyHeader = "Idempotency-Key"
)

// Client calls a running apest server.
type Client struct {
	baseURL    string
	timeout    time.Duration
	retryCount int
	httpClient *http.Client
	rc         *resty.Client
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetryCount sets how often transport failures are retried.
func WithRetryCount(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retryCount = n
		}
	}
}

// WithHTTPClient supplies the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		timeout:    defaultTimeout,
		retryCount: defaultRetryCount,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient != nil {
		c.rc = resty.NewWithClient(c.httpClient)
	} else {
		c.rc = resty.New()
	}
	c.rc.SetBaseURL(baseURL).
		SetTimeout(c.timeout).
		SetRetryCount(c.retryCount).
		SetHeader("Accept", "application/json")
	return c
}

// BaseURL returns the server address the client was built for.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type assessmentRequest struct {
	SubmissionID string       `json:"submission_id,omitempty"`
	Name         string       `json:"name,omitempty"`
	Roles        apest.Vector `json:"roles"`
}

type assessmentResponse struct {
	service.MemberProfile
	Duplicate bool `json:"duplicate"`
}

// SubmitAssessment stores a questionnaire result and reports whether the
// submission ID had been seen before.
func (c *Client) SubmitAssessment(ctx context.Context, sub model.Submission) (service.MemberProfile, bool, error) {
	var out assessmentResponse
	req := c.request(ctx).
		SetPathParams(map[string]string{"church": sub.ChurchID, "member": sub.MemberID}).
		SetBody(assessmentRequest{SubmissionID: sub.ID, Name: sub.Name, Roles: sub.Roles}).
		SetResult(&out)
	if sub.ID != "" {
		req.SetHeader(idempotencyHeader, sub.ID)
	}
	if err := c.do(req, http.MethodPut, "/v1/churches/{church}/members/{member}/assessment"); err != nil {
		return service.MemberProfile{}, false, err
	}
	return out.MemberProfile, out.Duplicate, nil
}

type suggestRequest struct {
	Size          int    `json:"size"`
	BalanceFactor int    `json:"balance_factor"`
	PriorityRole  string `json:"priority_role,omitempty"`
}

// SuggestTeam asks the server to assemble a team from a church's members.
func (c *Client) SuggestTeam(ctx context.Context, churchID string, params assembly.Params) (service.SuggestedTeam, error) {
	var out service.SuggestedTeam
	req := c.request(ctx).
		SetPathParam("church", churchID).
		SetBody(suggestRequest{
			Size:          params.Size,
			BalanceFactor: params.BalanceFactor,
			PriorityRole:  params.Priority.String(),
		}).
		SetResult(&out)
	if err := c.do(req, http.MethodPost, "/v1/churches/{church}/teams/suggest"); err != nil {
		return service.SuggestedTeam{}, err
	}
	return out, nil
}

// IssueInviteCode creates a new join code for a team or church.
func (c *Client) IssueInviteCode(ctx context.Context, kind model.CodeKind, entityID string) (model.InviteCode, error) {
	var out model.InviteCode
	req := c.request(ctx).
		SetBody(map[string]string{"kind": string(kind), "entity_id": entityID}).
		SetResult(&out)
	if err := c.do(req, http.MethodPost, "/v1/invite-codes"); err != nil {
		return model.InviteCode{}, err
	}
	return out, nil
}

// ResolveInviteCode maps a typed code onto the entity it identifies.
func (c *Client) ResolveInviteCode(ctx context.Context, kind model.CodeKind, code string) (invite.Match, error) {
	var out invite.Match
	req := c.request(ctx).
		SetBody(map[string]string{"kind": string(kind), "code": code}).
		SetResult(&out)
	if err := c.do(req, http.MethodPost, "/v1/invite-codes/resolve"); err != nil {
		return invite.Match{}, err
	}
	return out, nil
}

// Health checks the server's liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(c.request(ctx), http.MethodGet, "/healthz")
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.rc.R().SetContext(ctx).SetError(&APIError{})
}

func (c *Client) do(req *resty.Request, method, path string) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	if !resp.IsError() {
		return nil
	}
	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{}
	}
	apiErr.Status = resp.StatusCode()
	if apiErr.Code == "" {
		apiErr.Message = http.StatusText(apiErr.Status)
	}
	return apiErr
}
