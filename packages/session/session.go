package session

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"time"

	"github.com/abdul-hamid-achik/hittest/packages/cookie"
	"github.com/abdul-hamid-achik/hittest/packages/core/config"
)

const (
	// DefaultHost is used for URLs without a host until a request sets one
	DefaultHost = "example.org"
	// DefaultRemoteAddr is the client address handlers see
	DefaultRemoteAddr = "127.0.0.1"
	// DefaultMaxRedirects is the maximum number of redirects followed automatically
	DefaultMaxRedirects = 10
)

var (
	// ErrNoRequest is returned when last request state is read before any dispatch
	ErrNoRequest = errors.New("no request has been made yet")
	// ErrNotRedirect is returned by FollowRedirect when the last response is not a redirect
	ErrNotRedirect = errors.New("last response was not a redirect")
)

type Session struct {
	app             http.Handler
	jar             *cookie.Jar
	logger          *slog.Logger
	defaultHeaders  http.Header
	followRedirects bool
	maxRedirects    int
	remoteAddr      string
	current         *url.URL

	last *exchange
}

// exchange is one completed dispatch
type exchange struct {
	request  *Request
	http     *http.Request
	body     []byte
	response *Response
}

type Option func(*Session)

// New creates a session that dispatches every request to app
func New(app http.Handler, opts ...Option) *Session {
	s := &Session{
		app:            app,
		logger:         slog.New(slog.DiscardHandler),
		defaultHeaders: make(http.Header),
		maxRedirects:   DefaultMaxRedirects,
		remoteAddr:     DefaultRemoteAddr,
		current:        &url.URL{Scheme: "http", Host: DefaultHost},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.jar == nil {
		s.jar = cookie.NewJar()
	}
	return s
}

// WithDefaultHost sets the host relative URLs resolve against before the
// first request. An "https://" prefix switches the default scheme too.
func WithDefaultHost(host string) Option {
	return func(s *Session) {
		if host == "" {
			return
		}
		if u, err := url.Parse(host); err == nil && u.Scheme != "" && u.Host != "" {
			s.current = &url.URL{Scheme: u.Scheme, Host: u.Host}
			return
		}
		s.current = &url.URL{Scheme: "http", Host: host}
	}
}

func WithDefaultHeader(key, value string) Option {
	return func(s *Session) {
		s.defaultHeaders.Set(key, value)
	}
}

// WithDefaultHeaders sets multiple default headers for all requests
func WithDefaultHeaders(headers map[string]string) Option {
	return func(s *Session) {
		for k, v := range headers {
			s.defaultHeaders.Set(k, v)
		}
	}
}

// WithFollowRedirects makes every dispatch follow redirects automatically
func WithFollowRedirects(follow bool) Option {
	return func(s *Session) {
		s.followRedirects = follow
	}
}

func WithMaxRedirects(max int) Option {
	return func(s *Session) {
		s.maxRedirects = max
	}
}

// WithJar shares an existing jar with the session
func WithJar(jar *cookie.Jar) Option {
	return func(s *Session) {
		s.jar = jar
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithDefaultRemoteAddr(addr string) Option {
	return func(s *Session) {
		if addr != "" {
			s.remoteAddr = addr
		}
	}
}

// WithConfig applies the session settings of a loaded configuration
func WithConfig(cfg *config.Config) Option {
	return func(s *Session) {
		if cfg == nil {
			return
		}
		WithDefaultHost(cfg.DefaultHost)(s)
		WithDefaultHeaders(cfg.Headers)(s)
		WithDefaultRemoteAddr(cfg.RemoteAddr)(s)
		s.followRedirects = cfg.GetFollowRedirects()
		if cfg.MaxRedirects > 0 {
			s.maxRedirects = cfg.MaxRedirects
		}
	}
}

// Jar returns the session's cookie jar
func (s *Session) Jar() *cookie.Jar {
	return s.jar
}

// Header sets a default header sent with every later request. An empty
// value removes it.
func (s *Session) Header(name, value string) {
	if value == "" {
		s.defaultHeaders.Del(name)
		return
	}
	s.defaultHeaders.Set(name, value)
}

// BasicAuth sets a default Authorization header
func (s *Session) BasicAuth(username, password string) {
	r := &http.Request{Header: make(http.Header)}
	r.SetBasicAuth(username, password)
	s.Header("Authorization", r.Header.Get("Authorization"))
}

// SetCookie stores raw Set-Cookie values as if a response for uri had sent
// them. An empty uri means the current host root.
func (s *Session) SetCookie(raw, uri string) error {
	u, err := s.resolve(uri)
	if err != nil {
		return err
	}
	return s.jar.SetFromHeader(raw, u)
}

// ClearCookies empties the jar
func (s *Session) ClearCookies() {
	s.jar.Clear()
}

// LastRequest returns a copy of the last request dispatched, with a body
// that can be read again.
func (s *Session) LastRequest() (*http.Request, error) {
	if s.last == nil {
		return nil, ErrNoRequest
	}
	return cloneRequest(s.last.http, s.last.body), nil
}

// LastResponse returns the last response received
func (s *Session) LastResponse() (*Response, error) {
	if s.last == nil {
		return nil, ErrNoRequest
	}
	return s.last.response, nil
}

// Request builds and dispatches a request. p may be nil.
func (s *Session) Request(method, uri string, p any, opts ...RequestOption) (*Response, error) {
	req, err := NewRequest(method, uri, p, opts...)
	if err != nil {
		return nil, err
	}
	return s.Do(req)
}

// Do dispatches req and, when the session follows redirects, every
// redirect after it.
func (s *Session) Do(req *Request) (*Response, error) {
	resp, err := s.dispatch(req)
	if err != nil || !s.followRedirects {
		return resp, err
	}

	for i := 0; resp.IsRedirect() && resp.Location() != ""; i++ {
		if i >= s.maxRedirects {
			s.logger.Warn("redirect limit reached",
				"limit", s.maxRedirects,
				"location", resp.Location())
			break
		}
		resp, err = s.FollowRedirect()
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (s *Session) dispatch(req *Request) (*Response, error) {
	u, err := s.resolve(req.URL)
	if err != nil {
		return nil, err
	}

	httpReq, body, err := s.build(req, u)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("dispatching request",
		"method", httpReq.Method,
		"url", u.String(),
		"content_type", httpReq.Header.Get("Content-Type"),
		"content_length", len(body))

	rec := httptest.NewRecorder()
	start := time.Now()
	s.app.ServeHTTP(rec, httpReq)
	duration := time.Since(start)

	result := rec.Result()
	resp := &Response{
		StatusCode: result.StatusCode,
		Status:     result.Status,
		Headers:    result.Header,
		Body:       rec.Body.Bytes(),
		Duration:   duration,
	}

	if err := s.jar.Absorb(resp.Headers, u); err != nil {
		s.logger.Warn("dropped Set-Cookie values", "url", u.String(), "error", err)
	}

	s.last = &exchange{
		request:  req,
		http:     httpReq,
		body:     body,
		response: resp,
	}
	s.current = &url.URL{Scheme: u.Scheme, Host: u.Host}

	s.logger.Debug("received response",
		"status", resp.StatusCode,
		"duration", duration)
	return resp, nil
}

// resolve turns uri into an absolute URL against the current scheme and
// host. Paths always start with a slash.
func (s *Session) resolve(uri string) (*url.URL, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid request URL %q: %w", uri, err)
	}

	if u.Host == "" {
		u.Host = s.current.Host
	}
	if u.Scheme == "" {
		u.Scheme = s.current.Scheme
	}
	if u.Path == "" || u.Path[0] != '/' {
		u.Path = "/" + u.Path
		u.RawPath = ""
	}
	return u, nil
}

// Get performs a GET request with params appended to the query string
func (s *Session) Get(uri string, p any, opts ...RequestOption) (*Response, error) {
	return s.Request(http.MethodGet, uri, p, opts...)
}

func (s *Session) Post(uri string, p any, opts ...RequestOption) (*Response, error) {
	return s.Request(http.MethodPost, uri, p, opts...)
}

func (s *Session) Put(uri string, p any, opts ...RequestOption) (*Response, error) {
	return s.Request(http.MethodPut, uri, p, opts...)
}

func (s *Session) Patch(uri string, p any, opts ...RequestOption) (*Response, error) {
	return s.Request(http.MethodPatch, uri, p, opts...)
}

func (s *Session) Delete(uri string, p any, opts ...RequestOption) (*Response, error) {
	return s.Request(http.MethodDelete, uri, p, opts...)
}

func (s *Session) Head(uri string, p any, opts ...RequestOption) (*Response, error) {
	return s.Request(http.MethodHead, uri, p, opts...)
}

func (s *Session) Options(uri string, p any, opts ...RequestOption) (*Response, error) {
	return s.Request(http.MethodOptions, uri, p, opts...)
}
