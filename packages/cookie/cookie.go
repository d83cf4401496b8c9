package cookie

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

var (
	// ErrMalformed is returned for a Set-Cookie value without name=value
	ErrMalformed = errors.New("malformed Set-Cookie value")
	// ErrDomainMismatch is returned when a cookie's Domain does not cover the request host
	ErrDomainMismatch = errors.New("cookie domain does not match request host")
	// ErrInsecure is returned when a Secure cookie arrives over plain HTTP
	ErrInsecure = errors.New("secure cookie set over insecure request")
)

// Cookie is a stored cookie with its scope resolved
type Cookie struct {
	Name  string
	Value string
	// Domain is lowercase. A leading dot means subdomains match too; otherwise
	// only the exact host does.
	Domain   string
	Path     string
	Expires  time.Time
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
	// Raw is the Set-Cookie value the cookie was parsed from
	Raw string
}

// Parse reads one Set-Cookie value received in response to a request for uri
func Parse(header string, uri *url.URL) (*Cookie, error) {
	return parse(header, uri, time.Now())
}

func parse(header string, uri *url.URL, now time.Time) (*Cookie, error) {
	raw := strings.TrimSpace(header)
	sc, err := http.ParseSetCookie(raw)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrMalformed, raw, err)
	}

	c := &Cookie{
		Name:     sc.Name,
		Value:    sc.Value,
		Path:     sc.Path,
		Expires:  sc.Expires,
		Secure:   sc.Secure,
		HTTPOnly: sc.HttpOnly,
		SameSite: sc.SameSite,
		Raw:      raw,
	}

	host := hostOf(uri)
	if domain := strings.ToLower(strings.TrimSpace(sc.Domain)); domain != "" {
		if !strings.HasPrefix(domain, ".") {
			domain = "." + domain
		}
		c.Domain = domain
	} else {
		c.Domain = host
	}
	if host != "" && !domainMatch(c.Domain, host) {
		return nil, fmt.Errorf("%w: %s set by %s", ErrDomainMismatch, c.Name, host)
	}
	if isPublicSuffix(c.Domain, host) {
		return nil, fmt.Errorf("%w: %s scoped to public suffix %s", ErrDomainMismatch, c.Name, c.Domain)
	}
	if c.Secure && uri != nil && uri.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrInsecure, c.Name)
	}

	if c.Expires.IsZero() && sc.RawExpires != "" {
		c.Expires = parseExpires(sc.RawExpires)
	}

	if !strings.HasPrefix(c.Path, "/") {
		c.Path = defaultPath(uri)
	}

	// Max-Age wins over Expires; the parser reports Max-Age<=0 as -1
	switch {
	case sc.MaxAge < 0:
		c.Expires = time.Unix(0, 0)
	case sc.MaxAge > 0:
		c.Expires = now.Add(time.Duration(sc.MaxAge) * time.Second)
	}
	return c, nil
}

// expiresLayouts are tried for Expires values the standard parser rejects
var expiresLayouts = []string{
	time.RFC1123Z,
	time.RFC850,
	time.ANSIC,
	"Mon, 02 Jan 06 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 02-Jan-06 15:04:05 MST",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02 Jan 2006 15:04:05 MST",
}

// parseExpires parses the date formats servers send in the wild. An
// unparsable value leaves the cookie a session cookie.
func parseExpires(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range expiresLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func hostOf(uri *url.URL) string {
	if uri == nil {
		return ""
	}
	return strings.ToLower(uri.Hostname())
}

// defaultPath is the directory of the request path: /cookies/set gives
// /cookies, and anything at the root gives /.
func defaultPath(uri *url.URL) string {
	if uri == nil {
		return "/"
	}
	p := uri.Path
	i := strings.LastIndex(p, "/")
	if i <= 0 {
		return "/"
	}
	return p[:i]
}

// isPublicSuffix reports whether a Domain attribute names a public suffix
// such as .org. A host that is itself a suffix (localhost) may still set
// cookies for itself.
func isPublicSuffix(domain, host string) bool {
	bare, ok := strings.CutPrefix(domain, ".")
	if !ok || bare == host {
		return false
	}
	suffix, _ := publicsuffix.PublicSuffix(bare)
	return suffix == bare
}

func domainMatch(domain, host string) bool {
	if bare, ok := strings.CutPrefix(domain, "."); ok {
		return host == bare || strings.HasSuffix(host, domain)
	}
	return host == domain
}

// Expired reports whether the cookie had expired at now. Session cookies never expire.
func (c *Cookie) Expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

// Matches reports whether the cookie should be sent on a request to host and path
func (c *Cookie) Matches(host, path string, secure bool, now time.Time) bool {
	if c.Expired(now) {
		return false
	}
	if c.Secure && !secure {
		return false
	}
	if path == "" {
		path = "/"
	}
	return domainMatch(c.Domain, strings.ToLower(host)) && strings.HasPrefix(path, c.Path)
}

// String returns the cookie as it appears in a Cookie header
func (c *Cookie) String() string {
	return c.Name + "=" + c.Value
}

type key struct {
	domain, path, name string
}

func (c *Cookie) key() key {
	return key{domain: c.Domain, path: c.Path, name: c.Name}
}
