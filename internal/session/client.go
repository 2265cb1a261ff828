package session

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goserg/blockcleaner/internal/metrics"
	"github.com/sirupsen/logrus"
)

const (
	localUser       = "riot"
	apiKeyHeader    = "X-Riot-Token"
	defaultTimeout  = 10 * time.Second
	targetLocal     = "local"
	targetRemote    = "remote"
	localHostFormat = "https://127.0.0.1:%d"
)

// Limiter gates every outgoing request.
type Limiter interface {
	Acquire(ctx context.Context) error
}

type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

type conn struct {
	baseURL string
	token   string
}

// Client talks to one host. Connection state is set once per connect and
// swapped as a whole on reconnect.
type Client struct {
	target  string
	http    *resty.Client
	limiter Limiter
	log     *logrus.Entry
	dial    func(ctx context.Context) (*conn, error)

	connectMu sync.Mutex
	state     atomic.Pointer[conn]
}

type Option func(*Client)

func WithLimiter(l Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithTransport replaces the HTTP transport, e.g. to trust a test server.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.http.SetTransport(rt)
	}
}

func newClient(target string, log *logrus.Logger, opts ...Option) *Client {
	entry := log.WithField("name", "session-"+target)
	c := &Client{
		target: target,
		log:    entry,
		http: resty.New().
			SetTimeout(defaultTimeout).
			SetRetryCount(0).
			SetLogger(entry).
			SetHeader("Accept", "application/json"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewLocal builds a client for the game client's local service. The service
// presents a self-signed certificate, so certificate validation is off.
func NewLocal(finder ProcessFinder, processNames []string, log *logrus.Logger, opts ...Option) *Client {
	c := newClient(targetLocal, log)
	c.http.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec // self-signed local service
	for _, opt := range opts {
		opt(c)
	}
	c.dial = func(ctx context.Context) (*conn, error) {
		args, err := finder.Cmdline(ctx, processNames)
		if err != nil {
			return nil, err
		}
		port, token, err := ParseLaunchArgs(args)
		if err != nil {
			return nil, err
		}
		return &conn{
			baseURL: fmt.Sprintf(localHostFormat, port),
			token:   token,
		}, nil
	}
	return c
}

// NewRemote builds a client for a fixed API host authenticated by key.
func NewRemote(baseURL string, apiKey string, log *logrus.Logger, opts ...Option) *Client {
	c := newClient(targetRemote, log, opts...)
	c.dial = func(context.Context) (*conn, error) {
		if apiKey == "" {
			return nil, fmt.Errorf("%w: api key is empty", ErrCredentialMissing)
		}
		u, err := url.Parse(baseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid api url %q", baseURL)
		}
		return &conn{baseURL: strings.TrimRight(baseURL, "/")}, nil
	}
	c.http.SetHeader(apiKeyHeader, apiKey)
	return c
}

// Connect establishes the session if it is not ready yet.
func (c *Client) Connect(ctx context.Context) error {
	_, err := c.connection(ctx)
	return err
}

// Reconnect discards the current state and connects again.
func (c *Client) Reconnect(ctx context.Context) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()
	cn, err := c.dial(ctx)
	if err != nil {
		c.log.WithError(err).Warn("reconnect failed")
		return err
	}
	c.state.Store(cn)
	c.log.WithField("url", cn.baseURL).Info("reconnected")
	return nil
}

func (c *Client) Connected() bool {
	return c.state.Load() != nil
}

func (c *Client) connection(ctx context.Context) (*conn, error) {
	if cn := c.state.Load(); cn != nil {
		return cn, nil
	}
	c.connectMu.Lock()
	defer c.connectMu.Unlock()
	if cn := c.state.Load(); cn != nil {
		return cn, nil
	}
	cn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	c.state.Store(cn)
	c.log.WithField("url", cn.baseURL).Info("connected")
	return cn, nil
}

// Do issues one request. A non-2xx answer is not an error; callers inspect
// the status code. Nothing is retried.
func (c *Client) Do(ctx context.Context, method string, path string, body any) (*Response, error) {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodDelete:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}
	cn, err := c.connection(ctx)
	if err != nil {
		return nil, err
	}
	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
	}
	req := c.http.R().SetContext(ctx)
	if cn.token != "" {
		req.SetBasicAuth(localUser, cn.token)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := req.Execute(method, cn.baseURL+path)
	if err != nil {
		metrics.ClientRequests.WithLabelValues(c.target, method, "error").Inc()
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	metrics.ClientRequests.WithLabelValues(c.target, method, strconv.Itoa(resp.StatusCode())).Inc()
	c.log.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
		"status": resp.StatusCode(),
	}).Trace("request")
	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
	}, nil
}

func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Group connects several clients as one, such as the regional and platform
// hosts of the remote API.
type Group []*Client

func (g Group) Connect(ctx context.Context) error {
	for _, c := range g {
		if err := c.Connect(ctx); err != nil {
			return err
		}
	}
	return nil
}
