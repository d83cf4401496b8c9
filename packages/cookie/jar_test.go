package cookie

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJar_OverwriteKeepsOneEntry(t *testing.T) {
	jar := NewJar()
	u := mustURL(t, "http://example.org/cookies/count")

	require.NoError(t, jar.SetFromHeader("count=1", u))
	assert.Equal(t, "count=1", jar.HeaderFor("example.org", "/cookies/count", false))

	require.NoError(t, jar.SetFromHeader("count=2", u))
	assert.Equal(t, "count=2", jar.HeaderFor("example.org", "/cookies/count", false))
	assert.Equal(t, 1, jar.Len())
}

func TestJar_OverwriteMovesToEnd(t *testing.T) {
	jar := NewJar()
	u := mustURL(t, "http://example.org/")

	require.NoError(t, jar.SetFromHeader("a=1\nb=2", u))
	require.NoError(t, jar.SetFromHeader("a=3", u))
	assert.Equal(t, "b=2; a=3", jar.HeaderFor("example.org", "/", false))
}

func TestJar_ExpiredCookieDeletes(t *testing.T) {
	jar := NewJar()
	u := mustURL(t, "http://example.org/cookies/set")

	require.NoError(t, jar.SetFromHeader("value=1; path=/cookies", u))
	require.NoError(t, jar.SetFromHeader("other=2; path=/cookies", u))
	require.NoError(t, jar.SetFromHeader("value=; path=/cookies; expires=Thu, 01 Jan 1970 00:00:00 GMT", u))

	assert.Equal(t, "other=2", jar.HeaderFor("example.org", "/cookies/show", false))
	_, ok := jar.Get("value")
	assert.False(t, ok)
}

func TestJar_ExpiredInLegacyDateFormatDeletes(t *testing.T) {
	jar := NewJar()
	u := mustURL(t, "http://example.org/")
	require.NoError(t, jar.SetFromHeader("value=1", u))

	require.NoError(t, jar.SetFromHeader("value=; expires=Thursday, 01-Jan-70 00:00:00 GMT", u))
	assert.Equal(t, 0, jar.Len())
}

func TestJar_ExpiresWithClock(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	jar := NewJar(WithClock(func() time.Time { return now }))
	u := mustURL(t, "http://example.org/")

	require.NoError(t, jar.SetFromHeader("short=1; Max-Age=10", u))
	assert.Equal(t, "short=1", jar.HeaderFor("example.org", "/", false))

	now = now.Add(11 * time.Second)
	assert.Equal(t, "", jar.HeaderFor("example.org", "/", false))
	assert.Equal(t, 0, jar.Len())
}

func TestJar_DomainScoping(t *testing.T) {
	jar := NewJar()

	require.NoError(t, jar.SetFromHeader("count=1; domain=.example.org", mustURL(t, "http://example.org/cookies/subdomain")))
	require.NoError(t, jar.SetFromHeader("count=1; domain=localhost.com", mustURL(t, "http://localhost.com/cookies/domain")))
	require.NoError(t, jar.SetFromHeader("host=1", mustURL(t, "http://localhost.com/")))

	assert.Equal(t, "count=1", jar.HeaderFor("sub.example.org", "/", false))
	assert.Equal(t, "count=1; host=1", jar.HeaderFor("localhost.com", "/", false))
	assert.Equal(t, "count=1", jar.HeaderFor("sub.localhost.com", "/", false))
	assert.Equal(t, "", jar.HeaderFor("other.com", "/", false))
}

func TestJar_SameNameDifferentScopes(t *testing.T) {
	jar := NewJar()
	u := mustURL(t, "http://example.org/cookies/set")

	require.NoError(t, jar.SetFromHeader("value=root; path=/", u))
	require.NoError(t, jar.SetFromHeader("value=nested; path=/cookies", u))

	assert.Equal(t, "value=root; value=nested", jar.HeaderFor("example.org", "/cookies/show", false))
	assert.Equal(t, "value=root", jar.HeaderFor("example.org", "/", false))
	assert.Len(t, jar.Cookies(), 2)

	c, ok := jar.Get("value")
	require.True(t, ok)
	assert.Equal(t, "root", c.Value)
}

func TestJar_SecureCookies(t *testing.T) {
	jar := NewJar()
	require.NoError(t, jar.SetFromHeader("secure-cookie=set; secure", mustURL(t, "https://example.org/cookies/set-secure")))

	assert.Equal(t, "", jar.HeaderFor("example.org", "/", false))
	assert.Equal(t, "secure-cookie=set", jar.HeaderFor("example.org", "/", true))

	cookies := jar.CookiesFor(mustURL(t, "https://example.org/cookies/show"))
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
	assert.Empty(t, jar.CookiesFor(mustURL(t, "http://example.org/cookies/show")))
}

func TestJar_MalformedValuesAreDropped(t *testing.T) {
	jar := NewJar()
	u := mustURL(t, "http://example.org/")

	err := jar.SetFromHeader("good=1\n; path=/\nforeign=1; domain=other.com\nalso=2", u)
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.ErrorIs(t, err, ErrDomainMismatch)

	assert.Equal(t, "good=1; also=2", jar.HeaderFor("example.org", "/", false))
}

func TestJar_Absorb(t *testing.T) {
	jar := NewJar()
	h := http.Header{}
	h.Add("Set-Cookie", "key1=value1")
	h.Add("Set-Cookie", "key2=value2")
	h.Add("Content-Type", "text/plain")

	require.NoError(t, jar.Absorb(h, mustURL(t, "http://example.org/cookies/set-multiple")))
	assert.Equal(t, "key1=value1; key2=value2", jar.HeaderFor("example.org", "/cookies/show", false))
}

func TestJar_DeleteAndClear(t *testing.T) {
	jar := NewJar()
	u := mustURL(t, "http://example.org/cookies/set")
	require.NoError(t, jar.SetFromHeader("a=1; path=/\na=2\nb=3", u))

	assert.Equal(t, 2, jar.Delete("a"))
	assert.Equal(t, 0, jar.Delete("a"))
	assert.Equal(t, 1, jar.Len())

	jar.Clear()
	assert.Equal(t, 0, jar.Len())
	assert.Equal(t, "", jar.HeaderFor("example.org", "/cookies", false))
}

func TestJar_ReturnsCopies(t *testing.T) {
	jar := NewJar()
	require.NoError(t, jar.SetFromHeader("a=1", mustURL(t, "http://example.org/")))

	c, ok := jar.Get("a")
	require.True(t, ok)
	c.Value = "changed"

	assert.Equal(t, "a=1", jar.HeaderFor("example.org", "/", false))
}

func TestJar_ConcurrentAccess(t *testing.T) {
	jar := NewJar()
	u := mustURL(t, "http://example.org/")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = jar.SetFromHeader("count=1", u)
		}()
		go func() {
			defer wg.Done()
			_ = jar.HeaderFor("example.org", "/", false)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, jar.Len())
}
