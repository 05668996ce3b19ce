package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/counsellor-web/internal/errors"
	"golang.org/x/oauth2"
)

// Paths of the counsellor backend endpoints
const (
	PathLogin     = "/auth/login"
	PathSignup    = "/auth/signup"
	PathProfile   = "/profile"
	PathSave      = "/profile/save"
	PathShortlist = "/universities/shortlist"
	PathLock      = "/universities/lock"
	PathTasks     = "/tasks"
	PathChat      = "/ai/chat"
)

const maxResponseBytes = 1 << 20

// Client talks to the remote counsellor backend. Response bodies are decoded
// and validated here so handlers never see unchecked payloads.
type Client struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (its Transport is used
// as the base for bearer-authenticated calls)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the overall per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		validate:   validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login performs the login exchange
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var res LoginResult
	err := c.do(ctx, c.httpClient, "login", http.MethodPost, PathLogin, LoginRequest{Email: email, Password: password}, &res)
	if err != nil {
		return LoginResult{}, err
	}
	if err := c.validate.Struct(res); err != nil {
		return LoginResult{}, errors.Wrapf(errors.ErrInvalidResponse, "[Client Login] %v", err)
	}
	return res, nil
}

// Signup creates an account. The caller follows up with Login.
func (c *Client) Signup(ctx context.Context, fullName, email, password string) error {
	return c.do(ctx, c.httpClient, "signup", http.MethodPost, PathSignup, SignupRequest{FullName: fullName, Email: email, Password: password}, nil)
}

// FetchProfile returns the stored onboarding profile. Any non-2xx status,
// transport failure or undecodable body is an error.
func (c *Client) FetchProfile(ctx context.Context, token string) (*Profile, error) {
	hc, err := c.bearer(ctx, token)
	if err != nil {
		return nil, err
	}
	var profile *Profile
	if err := c.do(ctx, hc, "profile", http.MethodGet, PathProfile, nil, &profile); err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, errors.Wrapf(errors.ErrProfileMissing, "[Client FetchProfile] empty body")
	}
	return profile, nil
}

// SaveProfile stores the onboarding profile
func (c *Client) SaveProfile(ctx context.Context, token string, profile ProfileSubmission) error {
	hc, err := c.bearer(ctx, token)
	if err != nil {
		return err
	}
	return c.do(ctx, hc, "profile_save", http.MethodPost, PathSave, profile, nil)
}

// Shortlist lists the saved universities, locked ones included
func (c *Client) Shortlist(ctx context.Context, token string) ([]ShortlistItem, error) {
	hc, err := c.bearer(ctx, token)
	if err != nil {
		return nil, err
	}
	var items []ShortlistItem
	if err := c.do(ctx, hc, "shortlist", http.MethodGet, PathShortlist, nil, &items); err != nil {
		return nil, err
	}
	for i := range items {
		if err := c.validate.Struct(items[i]); err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidResponse, "[Client Shortlist] item %d: %v", i, err)
		}
	}
	return items, nil
}

// AddToShortlist saves a university
func (c *Client) AddToShortlist(ctx context.Context, token string, req ShortlistRequest) error {
	if err := c.validate.Struct(req); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "[Client AddToShortlist] %v", err)
	}
	hc, err := c.bearer(ctx, token)
	if err != nil {
		return err
	}
	return c.do(ctx, hc, "shortlist_add", http.MethodPost, PathShortlist, req, nil)
}

// RemoveFromShortlist deletes a shortlist entry by its backend id
func (c *Client) RemoveFromShortlist(ctx context.Context, token string, id int64) error {
	hc, err := c.bearer(ctx, token)
	if err != nil {
		return err
	}
	return c.do(ctx, hc, "shortlist_remove", http.MethodDelete, PathShortlist+"/"+strconv.FormatInt(id, 10), nil, nil)
}

// Lock commits to a shortlisted university; the backend generates its application tasks
func (c *Client) Lock(ctx context.Context, token string, id int64) error {
	hc, err := c.bearer(ctx, token)
	if err != nil {
		return err
	}
	return c.do(ctx, hc, "lock", http.MethodPost, PathLock+"/"+strconv.FormatInt(id, 10), nil, nil)
}

// Tasks lists the application tasks
func (c *Client) Tasks(ctx context.Context, token string) ([]Task, error) {
	hc, err := c.bearer(ctx, token)
	if err != nil {
		return nil, err
	}
	var tasks []Task
	if err := c.do(ctx, hc, "tasks", http.MethodGet, PathTasks, nil, &tasks); err != nil {
		return nil, err
	}
	for i := range tasks {
		if err := c.validate.Struct(tasks[i]); err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidResponse, "[Client Tasks] task %d: %v", i, err)
		}
	}
	return tasks, nil
}

// Chat sends one message to the AI counsellor. The counsellor also answers
// logged-out visitors, so an empty token sends no credentials.
func (c *Client) Chat(ctx context.Context, token string, req ChatRequest) (ChatReply, error) {
	if err := c.validate.Struct(req); err != nil {
		return ChatReply{}, errors.Wrapf(errors.ErrInvalidInput, "[Client Chat] %v", err)
	}
	if req.Profile == nil {
		req.Profile = &Profile{}
	}
	hc := c.httpClient
	if token != "" {
		var err error
		if hc, err = c.bearer(ctx, token); err != nil {
			return ChatReply{}, err
		}
	}
	var reply ChatReply
	if err := c.do(ctx, hc, "chat", http.MethodPost, PathChat, req, &reply); err != nil {
		return ChatReply{}, err
	}
	if err := c.validate.Struct(reply); err != nil {
		return ChatReply{}, errors.Wrapf(errors.ErrInvalidResponse, "[Client Chat] %v", err)
	}
	return reply, nil
}

// bearer returns an HTTP client that sends token as a Bearer credential
func (c *Client) bearer(ctx context.Context, token string) (*http.Client, error) {
	if token == "" {
		return nil, errors.ErrUnauthenticated
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	})), nil
}

func (c *Client) do(ctx context.Context, hc *http.Client, endpoint, method, path string, body, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		requestDuration.WithLabelValues(endpoint, outcome).Observe(time.Since(start).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("[Client %s] encode request: %w", endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("[Client %s] build request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return errors.Wrapf(errors.ErrBackendUnavailable, "[Client %s] %v", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return errors.Wrapf(errors.ErrBackendUnavailable, "[Client %s] read body: %v", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &msg)
		return fmt.Errorf("[Client %s] %w", endpoint, &StatusError{StatusCode: resp.StatusCode, Message: msg.Message})
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(errors.ErrInvalidResponse, "[Client %s] decode: %v", endpoint, err)
	}
	return nil
}
