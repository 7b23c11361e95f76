package refresh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-shop-client/internal/errors"
	"github.com/jrsteele09/go-shop-client/internal/utils"
	"github.com/jrsteele09/go-shop-client/token"
)

var _ Renewer = (*Client)(nil)

type renewRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Client calls the backend renewal endpoint
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewClient creates a renewal client. A zero timeout leaves the call bounded only by ctx.
func NewClient(baseURL string, httpClient *http.Client, timeout time.Duration, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		timeout:    timeout,
		logger:     logger,
	}
}

// Renew posts the refresh token and returns the rotated pair
func (c *Client) Renew(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("[refresh Renew] no refresh token: %w", errors.ErrRenewalFailed)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(renewRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("[refresh Renew] failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+Path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("[refresh Renew] failed to build request: %v: %w", err, errors.ErrRenewalFailed)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("renewal request failed")
		return nil, fmt.Errorf("[refresh Renew] %v: %w", err, errors.ErrRenewalFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Warn().Int("status", resp.StatusCode).Msg("renewal rejected")
		return nil, fmt.Errorf("[refresh Renew] status %d: %w", resp.StatusCode, errors.ErrRenewalFailed)
	}

	var tr token.Response
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("[refresh Renew] failed to decode reply: %v: %w", err, errors.ErrRenewalFailed)
	}

	access, rotated := utils.Value(tr.AccessToken), utils.Value(tr.RefreshToken)
	if access == "" || rotated == "" {
		return nil, fmt.Errorf("[refresh Renew] reply missing tokens: %w", errors.ErrRenewalFailed)
	}

	c.logger.Debug().Msg("access token renewed")
	return token.NewToken(access, rotated), nil
}
