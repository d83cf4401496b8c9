package session

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/hittest/packages/params"
)

const formContentType = "application/x-www-form-urlencoded"

// Request describes one dispatch before it is encoded
type Request struct {
	Method string
	URL    string
	Params params.Value
	// Headers override session defaults and jar cookies
	Headers http.Header
	// ContentType overrides the encoded body type. A multipart type forces a
	// multipart body even without files.
	ContentType string
	// Body, when non-nil, is sent as is and Params move to the query string
	Body       []byte
	RemoteAddr string
}

type RequestOption func(*Request)

// NewRequest converts p with params.From and applies opts
func NewRequest(method, uri string, p any, opts ...RequestOption) (*Request, error) {
	value, err := params.From(p)
	if err != nil {
		return nil, fmt.Errorf("invalid request params: %w", err)
	}

	r := &Request{
		Method:  strings.ToUpper(method),
		URL:     uri,
		Params:  value,
		Headers: make(http.Header),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		r.Headers.Set(key, value)
	}
}

func WithHeaders(headers map[string]string) RequestOption {
	return func(r *Request) {
		for k, v := range headers {
			r.Headers.Set(k, v)
		}
	}
}

func WithContentType(contentType string) RequestOption {
	return func(r *Request) {
		r.ContentType = contentType
	}
}

// WithBody sends body verbatim instead of encoding params into it
func WithBody(body []byte) RequestOption {
	return func(r *Request) {
		if body == nil {
			body = []byte{}
		}
		r.Body = body
	}
}

func WithRemoteAddr(addr string) RequestOption {
	return func(r *Request) {
		r.RemoteAddr = addr
	}
}

// WithXHR marks the request as sent by XMLHttpRequest
func WithXHR() RequestOption {
	return WithHeader("X-Requested-With", "XMLHttpRequest")
}

// contentTypeOverride prefers the explicit field over a Content-Type header
func (r *Request) contentTypeOverride() string {
	if r.ContentType != "" {
		return r.ContentType
	}
	return r.Headers.Get("Content-Type")
}

// encode returns the body and its content type, moving params into u's
// query string where they do not go in the body.
func (r *Request) encode(u *url.URL) ([]byte, string, error) {
	override := r.contentTypeOverride()

	switch {
	case r.Method == http.MethodGet || r.Method == http.MethodHead:
		appendQuery(u, r.Params)
		return nil, "", nil
	case r.Body != nil:
		appendQuery(u, r.Params)
		return r.Body, override, nil
	case params.HasFile(r.Params) || isMultipart(override):
		m, ok := r.Params.(*params.Map)
		if !ok {
			if _, isNull := r.Params.(params.Null); !isNull && r.Params != nil {
				return nil, "", fmt.Errorf("multipart body from %T: %w", r.Params, params.ErrNotMap)
			}
			m = params.NewMap()
		}
		var buf bytes.Buffer
		if err := params.WriteMultipart(&buf, m); err != nil {
			return nil, "", err
		}
		// Only a multipart override survives; files always go as multipart
		base := ""
		if isMultipart(override) {
			base = mediaType(override)
		}
		return buf.Bytes(), params.ContentType(base), nil
	}

	if override == "" {
		override = formContentType
	}
	return []byte(params.BuildNestedQuery(r.Params, "")), override, nil
}

func appendQuery(u *url.URL, v params.Value) {
	encoded := params.BuildNestedQuery(v, "")
	if encoded == "" {
		return
	}
	if u.RawQuery == "" {
		u.RawQuery = encoded
		return
	}
	u.RawQuery += "&" + encoded
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	return mt
}

func isMultipart(contentType string) bool {
	return strings.HasPrefix(mediaType(contentType), "multipart/")
}

// build assembles the synthetic request. Header precedence, lowest first:
// session defaults, the jar's Cookie header, request headers.
func (s *Session) build(req *Request, u *url.URL) (*http.Request, []byte, error) {
	body, contentType, err := req.encode(u)
	if err != nil {
		return nil, nil, err
	}

	httpReq, err := http.NewRequestWithContext(context.Background(), req.Method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}

	httpReq.Header = s.defaultHeaders.Clone()
	if cookies := s.jar.HeaderFor(u.Hostname(), u.Path, u.Scheme == "https"); cookies != "" {
		httpReq.Header.Set("Cookie", cookies)
	}
	for k, values := range req.Headers {
		httpReq.Header[k] = append([]string(nil), values...)
	}

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Content-Length", strconv.Itoa(len(body)))
	httpReq.ContentLength = int64(len(body))
	if len(body) == 0 {
		httpReq.Body = http.NoBody
	}

	httpReq.Host = u.Host
	httpReq.RequestURI = u.RequestURI()
	httpReq.RemoteAddr = s.remoteAddr
	if req.RemoteAddr != "" {
		httpReq.RemoteAddr = req.RemoteAddr
	}
	if u.Scheme == "https" {
		httpReq.TLS = &tls.ConnectionState{
			Version:           tls.VersionTLS12,
			HandshakeComplete: true,
			ServerName:        u.Hostname(),
		}
	}
	return httpReq, body, nil
}

func cloneRequest(r *http.Request, body []byte) *http.Request {
	clone := r.Clone(r.Context())
	if len(body) == 0 {
		clone.Body = http.NoBody
	} else {
		clone.Body = io.NopCloser(bytes.NewReader(body))
	}
	return clone
}
