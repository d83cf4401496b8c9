package cookie

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Jar stores cookies keyed by domain, path and name, in insertion order.
// It is safe for concurrent use.
type Jar struct {
	mu      sync.Mutex
	cookies []*Cookie
	now     func() time.Time
}

type Option func(*Jar)

// WithClock sets the time source used for expiry
func WithClock(now func() time.Time) Option {
	return func(j *Jar) {
		j.now = now
	}
}

func NewJar(opts ...Option) *Jar {
	j := &Jar{now: time.Now}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// SetFromHeader stores every newline-separated Set-Cookie value in header.
// A cookie that is already expired deletes its key instead of being stored.
// Values that cannot be parsed or are not allowed for uri are skipped and
// returned together; the rest still apply.
func (j *Jar) SetFromHeader(header string, uri *url.URL) error {
	var result *multierror.Error
	now := j.now()

	for _, line := range strings.Split(header, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		c, err := parse(line, uri, now)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		j.store(c, now)
	}
	return result.ErrorOrNil()
}

// Absorb stores every Set-Cookie value of a response received for uri
func (j *Jar) Absorb(h http.Header, uri *url.URL) error {
	var result *multierror.Error
	for _, value := range h.Values("Set-Cookie") {
		if err := j.SetFromHeader(value, uri); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// store replaces any cookie with the same key. The replacement goes to the end.
func (j *Jar) store(c *Cookie, now time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()

	k := c.key()
	kept := j.cookies[:0]
	for _, existing := range j.cookies {
		if existing.key() != k {
			kept = append(kept, existing)
		}
	}
	j.cookies = kept

	if !c.Expired(now) {
		j.cookies = append(j.cookies, c)
	}
}

// HeaderFor returns the Cookie header value for a request, or "" when no
// cookie matches. Same-named cookies from different scopes are all sent.
func (j *Jar) HeaderFor(host, path string, secure bool) string {
	matching := j.matching(host, path, secure)
	parts := make([]string, len(matching))
	for i, c := range matching {
		parts[i] = c.String()
	}
	return strings.Join(parts, "; ")
}

// CookiesFor returns copies of the cookies that would be sent to uri
func (j *Jar) CookiesFor(uri *url.URL) []*Cookie {
	return j.matching(uri.Hostname(), uri.Path, uri.Scheme == "https")
}

func (j *Jar) matching(host, path string, secure bool) []*Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	var result []*Cookie
	for _, c := range j.cookies {
		if c.Matches(host, path, secure, now) {
			cp := *c
			result = append(result, &cp)
		}
	}
	return result
}

// Cookies returns copies of every unexpired cookie in jar order
func (j *Jar) Cookies() []*Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	result := make([]*Cookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		if !c.Expired(now) {
			cp := *c
			result = append(result, &cp)
		}
	}
	return result
}

// Get returns the first unexpired cookie named name, whatever its scope
func (j *Jar) Get(name string) (*Cookie, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	for _, c := range j.cookies {
		if c.Name == name && !c.Expired(now) {
			cp := *c
			return &cp, true
		}
	}
	return nil, false
}

// Delete removes every cookie named name and reports how many were removed
func (j *Jar) Delete(name string) int {
	j.mu.Lock()
	defer j.mu.Unlock()

	removed := 0
	kept := j.cookies[:0]
	for _, c := range j.cookies {
		if c.Name == name {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	j.cookies = kept
	return removed
}

func (j *Jar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cookies = nil
}

// Len counts unexpired cookies
func (j *Jar) Len() int {
	return len(j.Cookies())
}
