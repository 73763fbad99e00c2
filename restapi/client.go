package restapi

import (
	"context"
	"errors"
	"time"

	"github.com/go-resty/resty/v2"

	goSession "github.com/MrEthical07/goSession"
)

// Config locates the backend endpoints.
type Config struct {
	BaseURL      string
	ProfilePath  string
	LoginPath    string
	RegisterPath string
	UserAgent    string
	// Timeout is the per-request ceiling. The engine applies its own fetch
	// timeout on top via context.
	Timeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.ProfilePath == "" {
		c.ProfilePath = "/auth/me"
	}
	if c.LoginPath == "" {
		c.LoginPath = "/auth/login"
	}
	if c.RegisterPath == "" {
		c.RegisterPath = "/auth/register"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// Client implements goSession.Backend over HTTP.
type Client struct {
	http *resty.Client
	cfg  Config
}

// NewClient builds a client for the given backend.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("BaseURL required")
	}
	cfg.applyDefaults()

	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		http.SetHeader("User-Agent", cfg.UserAgent)
	}

	return &Client{http: http, cfg: cfg}, nil
}

type userPayload struct {
	ID         string   `json:"id"`
	Identifier string   `json:"identifier"`
	Name       string   `json:"name"`
	Verified   bool     `json:"verified"`
	Sector     string   `json:"sector"`
	Privileges []string `json:"privileges"`
}

type credentialsPayload struct {
	Token string       `json:"token"`
	User  *userPayload `json:"user"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func (p *userPayload) toUser() *goSession.User {
	if p == nil {
		return nil
	}
	return &goSession.User{
		ID:         p.ID,
		Identifier: p.Identifier,
		Name:       p.Name,
		Verified:   p.Verified,
		Sector:     p.Sector,
		Privileges: p.Privileges,
	}
}

func statusError(resp *resty.Response) error {
	msg := ""
	if body, ok := resp.Error().(*errorPayload); ok && body != nil {
		msg = body.Message
	}
	return &goSession.StatusError{Code: resp.StatusCode(), Message: msg}
}

// FetchProfile implements goSession.Backend.
func (c *Client) FetchProfile(ctx context.Context, token string) (*goSession.User, error) {
	var out userPayload
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&out).
		SetError(&errorPayload{}).
		Get(c.cfg.ProfilePath)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, statusError(resp)
	}
	return out.toUser(), nil
}

// Login implements goSession.Backend.
func (c *Client) Login(ctx context.Context, identifier, secret string) (*goSession.Credentials, error) {
	var out credentialsPayload
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"identifier": identifier, "secret": secret}).
		SetResult(&out).
		SetError(&errorPayload{}).
		Post(c.cfg.LoginPath)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, statusError(resp)
	}
	return &goSession.Credentials{Token: out.Token, User: out.User.toUser()}, nil
}

// Register implements goSession.Backend.
func (c *Client) Register(ctx context.Context, req goSession.RegisterRequest) (*goSession.Credentials, error) {
	var out credentialsPayload
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"identifier": req.Identifier,
			"secret":     req.Secret,
			"name":       req.Name,
			"sector":     req.Sector,
		}).
		SetResult(&out).
		SetError(&errorPayload{}).
		Post(c.cfg.RegisterPath)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, statusError(resp)
	}
	return &goSession.Credentials{Token: out.Token, User: out.User.toUser()}, nil
}
