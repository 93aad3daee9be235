package client

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a small HTTP client for the Verdict API.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

type Option func(*Client)

// WithAuthToken sets the bearer token sent with every request.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		c.authToken = token
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func New(baseURL string, opts ...Option) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// urlBuilder assembles request URLs from route templates like
// "/v1/admin/tasks/{name}/logs".
type urlBuilder struct {
	base   string
	path   string
	params map[string]string
	query  url.Values
}

func (c *Client) url() *urlBuilder {
	return &urlBuilder{
		base:   c.baseURL,
		params: make(map[string]string),
		query:  make(url.Values),
	}
}

func (b *urlBuilder) setPath(path string) *urlBuilder {
	b.path = path
	return b
}

func (b *urlBuilder) setPathParam(name, value string) *urlBuilder {
	b.params[name] = value
	return b
}

func (b *urlBuilder) addQueryParam(name string, value any) *urlBuilder {
	b.query.Add(name, fmt.Sprintf("%v", value))
	return b
}

func (b *urlBuilder) build() string {
	path := b.path
	for name, value := range b.params {
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(value))
	}
	out := b.base + path
	if len(b.query) > 0 {
		out += "?" + b.query.Encode()
	}
	return out
}
