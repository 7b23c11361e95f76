// Package passkey drives the backend's passkey registration and login ceremonies.
package passkey

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-shop-client/internal/errors"
	"github.com/jrsteele09/go-shop-client/users"
)

// Backend ceremony endpoints
const (
	VerificationCodePath   = "/auth/request-verification-code"
	BeginRegistrationPath  = "/auth/begin-registration"
	FinishRegistrationPath = "/auth/finish-registration"
	BeginLoginPath         = "/auth/begin-login"
	FinishLoginPath        = "/auth/finish-login"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// LoginResult is the backend's reply to a completed login
type LoginResult struct {
	Success      bool         `json:"success"`
	Message      string       `json:"message,omitempty"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         users.Record `json:"user"`
}

type ceremonyOptions struct {
	PublicKey json.RawMessage `json:"publicKey"`
}

type finishReply struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Client talks to the unauthenticated ceremony endpoints. The ceremony state lives in a server cookie,
// so the http client must keep cookies between begin and finish.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewClient creates a ceremony client. A nil httpClient gets a fresh client with a cookie jar.
func NewClient(baseURL string, httpClient *http.Client, timeout time.Duration, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
		if jar, err := cookiejar.New(nil); err != nil {
			logger.Warn().Err(err).Msg("no cookie jar, ceremonies will fail")
		} else {
			httpClient.Jar = jar
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		timeout:    timeout,
		logger:     logger,
	}
}

// RequestVerificationCode asks the backend to email a registration code. mode is optional.
func (c *Client) RequestVerificationCode(ctx context.Context, email, mode string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	body := map[string]string{"email": email}
	if mode != "" {
		body["mode"] = mode
	}
	_, err := c.call(ctx, http.MethodPost, VerificationCodePath, body)
	return err
}

// Register creates a passkey for email, proving ownership with the emailed code. It returns the server's message.
func (c *Client) Register(ctx context.Context, email, code string, authn Authenticator) (string, error) {
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if err := validation.Validate(code, validation.Required); err != nil {
		return "", fmt.Errorf("[passkey Register] code: %v: %w", err, errors.ErrCeremonyFailed)
	}

	raw, err := c.call(ctx, http.MethodPost, BeginRegistrationPath, map[string]string{"email": email, "code": code})
	if err != nil {
		return "", err
	}
	opts, err := publicKey(raw)
	if err != nil {
		return "", err
	}

	credential, err := authn.CreateCredential(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("[passkey Register] authenticator: %v: %w", err, errors.ErrCeremonyFailed)
	}

	body, err := withEmail(credential, email)
	if err != nil {
		return "", err
	}
	raw, err = c.call(ctx, http.MethodPost, FinishRegistrationPath+"?email="+url.QueryEscape(email), body)
	if err != nil {
		return "", err
	}

	var reply finishReply
	if err := json.Unmarshal(raw, &reply); err != nil || !reply.Success {
		return "", fmt.Errorf("[passkey Register] %s: %w", reply.Error, errors.ErrCeremonyFailed)
	}
	c.logger.Info().Msg("passkey registered")
	return reply.Message, nil
}

// Login runs the login ceremony for email and returns the issued tokens and user
func (c *Client) Login(ctx context.Context, email string, authn Authenticator) (*LoginResult, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	query := "?email=" + url.QueryEscape(email)

	raw, err := c.call(ctx, http.MethodGet, BeginLoginPath+query, nil)
	if err != nil {
		return nil, err
	}
	opts, err := publicKey(raw)
	if err != nil {
		return nil, err
	}

	assertion, err := authn.GetAssertion(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("[passkey Login] authenticator: %v: %w", err, errors.ErrCeremonyFailed)
	}

	body, err := withEmail(assertion, email)
	if err != nil {
		return nil, err
	}
	raw, err = c.call(ctx, http.MethodPost, FinishLoginPath+query, body)
	if err != nil {
		return nil, err
	}

	var result LoginResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("[passkey Login] malformed reply: %v: %w", err, errors.ErrCeremonyFailed)
	}
	if !result.Success || result.AccessToken == "" || result.RefreshToken == "" {
		return nil, fmt.Errorf("[passkey Login] login not completed: %w", errors.ErrCeremonyFailed)
	}
	c.logger.Info().Int64("user_id", result.User.ID).Msg("passkey login completed")
	return &result, nil
}

// call sends body as JSON and returns the raw reply of a 2xx response
func (c *Client) call(ctx context.Context, method, path string, body any) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("[passkey call] failed to encode body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("[passkey call] failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[passkey call] %s: %v: %w", path, err, errors.ErrCeremonyFailed)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("[passkey call] failed to read %s: %v: %w", path, err, errors.ErrCeremonyFailed)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("[passkey call] %s: status %d: %s: %w", path, resp.StatusCode, serverMessage(raw), errors.ErrCeremonyFailed)
	}
	return raw, nil
}

func publicKey(raw []byte) (json.RawMessage, error) {
	var opts ceremonyOptions
	if err := json.Unmarshal(raw, &opts); err != nil || len(opts.PublicKey) == 0 || string(opts.PublicKey) == "null" {
		return nil, fmt.Errorf("[passkey publicKey] reply has no publicKey options: %w", errors.ErrCeremonyFailed)
	}
	return opts.PublicKey, nil
}

// withEmail adds the email field to the credential object produced by the authenticator
func withEmail(credential json.RawMessage, email string) (map[string]json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(credential, &fields); err != nil {
		return nil, fmt.Errorf("[passkey withEmail] credential is not a JSON object: %v: %w", err, errors.ErrCeremonyFailed)
	}
	e, err := json.Marshal(email)
	if err != nil {
		return nil, fmt.Errorf("[passkey withEmail] failed to encode email: %v: %w", err, errors.ErrCeremonyFailed)
	}
	fields["email"] = e
	return fields, nil
}

func serverMessage(raw []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(raw))
}

func validateEmail(email string) error {
	if err := validation.Validate(email, validation.Required, validation.Match(emailPattern)); err != nil {
		return fmt.Errorf("[passkey] email: %v: %w", err, errors.ErrCeremonyFailed)
	}
	return nil
}
