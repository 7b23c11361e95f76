// Package fetch performs authenticated calls against the backend. A call rejected as unauthorized triggers
// at most one token renewal and one retry; a failed renewal ends the session.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/jrsteele09/go-shop-client/internal/errors"
	"github.com/jrsteele09/go-shop-client/token/refresh"
)

// Session is the part of the session service the client depends on
type Session interface {
	AccessToken() string
	RefreshToken() string
	UpdateTokens(t *oauth2.Token) error
	Expire()
}

// Client attaches the bearer token to every call
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    Session
	renewer    refresh.Renewer
	timeout    time.Duration
	logger     zerolog.Logger
	renewals   singleflight.Group
}

// New creates a client. timeout bounds each attempt separately; zero leaves attempts bounded only by ctx.
func New(baseURL string, httpClient *http.Client, session Session, renewer refresh.Renewer, timeout time.Duration, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		session:    session,
		renewer:    renewer,
		timeout:    timeout,
		logger:     logger,
	}
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do issues req with the current access token. Responses other than 401 are returned unchanged. On 401 the
// token is renewed once and the request replayed once; that second response is returned whatever its status.
// When renewal fails the session is expired and the error wraps errors.ErrSessionExpired.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	sentWith := c.session.AccessToken()
	resp, err := c.send(ctx, req, sentWith, 1)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	t, err := c.renew(ctx, sentWith)
	if err != nil {
		return nil, fmt.Errorf("[fetch Do] %s %s: %w", req.Method, req.Path, err)
	}
	return c.send(ctx, req, t.AccessToken, 2)
}

// Renew exchanges the refresh token for a new pair and persists it. On failure the session is expired.
func (c *Client) Renew(ctx context.Context) (*oauth2.Token, error) {
	return c.renew(ctx, c.session.AccessToken())
}

// renew replaces the rejected access token. Callers rejected with the same token share one renewal call, and a
// caller whose token was already replaced by an earlier renewal gets the current pair without a new call.
// A failed renewal expires the session exactly once, inside the shared call.
func (c *Client) renew(ctx context.Context, rejected string) (*oauth2.Token, error) {
	v, err, shared := c.renewals.Do(rejected, func() (interface{}, error) {
		current, refreshToken := c.session.AccessToken(), c.session.RefreshToken()
		if rejected != "" && current != "" && current != rejected {
			return &oauth2.Token{AccessToken: current, RefreshToken: refreshToken, TokenType: "Bearer"}, nil
		}
		if rejected != "" && current == "" && refreshToken == "" {
			// ended by an earlier failed renewal or a logout
			return nil, fmt.Errorf("session already ended: %w", errors.ErrRenewalFailed)
		}

		t, err := c.renewer.Renew(ctx, refreshToken)
		if err == nil {
			if err = c.session.UpdateTokens(t); err != nil {
				err = fmt.Errorf("%v: %w", err, errors.ErrRenewalFailed)
			}
		}
		if err != nil {
			c.logger.Warn().Err(err).Msg("token renewal failed, ending session")
			c.session.Expire()
			return nil, err
		}
		return t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrSessionExpired, err)
	}

	c.logger.Debug().Bool("shared", shared).Msg("token renewed")
	return v.(*oauth2.Token), nil
}

func (c *Client) send(ctx context.Context, req *Request, accessToken string, attempt int) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.url(req.Path), body)
	if err != nil {
		return nil, fmt.Errorf("[fetch send] failed to build request: %w", err)
	}

	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if accessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if !req.Multipart && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("X-Request-ID", requestID)

	logEvent := c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Str("request_id", requestID).
		Int("attempt", attempt)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logEvent.Err(err).Msg("request failed")
		return nil, fmt.Errorf("[fetch send] %s %s: %w", req.Method, req.Path, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		logEvent.Err(err).Msg("failed to read response")
		return nil, fmt.Errorf("[fetch send] failed to read %s %s: %w", req.Method, req.Path, err)
	}

	logEvent.Int("status", httpResp.StatusCode).Msg("request completed")
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}, nil
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}
