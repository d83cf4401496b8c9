package session

import (
	"fmt"
	"net/http"
	"net/url"
)

// FollowRedirect dispatches the request the last response redirects to.
// The Location is resolved against the last request URL and the last
// request URL is sent as Referer. 307 and 308 replay the method, params,
// body and content type; every other redirect becomes a GET without params.
func (s *Session) FollowRedirect() (*Response, error) {
	if s.last == nil {
		return nil, fmt.Errorf("%w: %w", ErrNotRedirect, ErrNoRequest)
	}

	resp := s.last.response
	if !resp.IsRedirect() {
		return nil, fmt.Errorf("%w: status %d", ErrNotRedirect, resp.StatusCode)
	}
	location := resp.Location()
	if location == "" {
		return nil, fmt.Errorf("%w: status %d without Location", ErrNotRedirect, resp.StatusCode)
	}

	ref, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect location %q: %w", location, err)
	}
	from := s.last.http.URL
	target := from.ResolveReference(ref)

	next := &Request{
		Method:  http.MethodGet,
		URL:     target.String(),
		Headers: make(http.Header),
	}
	next.Headers.Set("Referer", from.String())

	prev := s.last.request
	if resp.StatusCode == http.StatusTemporaryRedirect || resp.StatusCode == http.StatusPermanentRedirect {
		next.Method = prev.Method
		next.Params = prev.Params
		next.Body = prev.Body
		next.ContentType = prev.contentTypeOverride()
	}

	s.logger.Debug("following redirect",
		"status", resp.StatusCode,
		"from", from.String(),
		"to", next.URL,
		"method", next.Method)
	return s.dispatch(next)
}
