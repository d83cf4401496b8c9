package session

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abdul-hamid-achik/hittest/packages/cookie"
	"github.com/abdul-hamid-achik/hittest/packages/core/config"
	"github.com/abdul-hamid-achik/hittest/packages/params"
	"github.com/abdul-hamid-achik/hittest/packages/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastRequest(t *testing.T, s *Session) *http.Request {
	t.Helper()
	r, err := s.LastRequest()
	require.NoError(t, err)
	return r
}

func TestSession_Get(t *testing.T) {
	s := New(newFakeApp())

	resp, err := s.Get("/", map[string]any{"foo": "bar"})
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "Hello, GET: foo=bar", resp.BodyString())

	r := lastRequest(t, s)
	assert.Equal(t, "GET", r.Method)
	assert.Equal(t, "foo=bar", r.URL.RawQuery)
	assert.Equal(t, "example.org", r.Host)
	assert.Equal(t, "/?foo=bar", r.RequestURI)
	assert.Equal(t, DefaultRemoteAddr, r.RemoteAddr)
	assert.Equal(t, "0", r.Header.Get("Content-Length"))
	assert.Nil(t, r.TLS)
}

func TestSession_GetMergesQuery(t *testing.T) {
	s := New(newFakeApp())

	resp, err := s.Get("/?a=1", map[string]any{"b": []any{"2", "3"}})
	require.NoError(t, err)

	assert.Equal(t, "a=1&b[]=2&b[]=3", lastRequest(t, s).URL.RawQuery)
	assert.Equal(t, "Hello, GET: a=1&b[]=2&b[]=3", resp.BodyString())
}

func TestSession_ResolvesRelativePaths(t *testing.T) {
	s := New(newFakeApp())

	_, err := s.Get("cookies/show", nil)
	require.NoError(t, err)

	r := lastRequest(t, s)
	assert.Equal(t, "/cookies/show", r.URL.Path)
	assert.Equal(t, "http://example.org/cookies/show", r.URL.String())
}

func TestSession_TracksCurrentHost(t *testing.T) {
	s := New(newFakeApp())

	_, err := s.Get("https://foo.test/cookies/set-simple", map[string]any{"value": "1"})
	require.NoError(t, err)
	assert.NotNil(t, lastRequest(t, s).TLS)

	resp, err := s.Get("/cookies/show", nil)
	require.NoError(t, err)

	r := lastRequest(t, s)
	assert.Equal(t, "foo.test", r.Host)
	assert.Equal(t, "https", r.URL.Scheme)
	assert.Equal(t, "simple=1", resp.BodyString())
}

func TestSession_PostForm(t *testing.T) {
	s := New(newFakeApp())

	resp, err := s.Post("/", params.NewMap().
		Set("user", params.NewMap().Set("name", params.String("Larry"))).
		Set("tags", params.List{params.String("a")}))
	require.NoError(t, err)

	assert.Equal(t, "Hello, POST: user[name]=Larry&tags[]=a", resp.BodyString())

	r := lastRequest(t, s)
	assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
	assert.Equal(t, "25", r.Header.Get("Content-Length"))
	assert.Equal(t, int64(25), r.ContentLength)
	assert.Empty(t, r.URL.RawQuery)
}

func TestSession_PostMultipart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foo.txt")
	require.NoError(t, os.WriteFile(path, []byte("bar\n"), 0o644))
	f, err := upload.Open(path, upload.WithDir(t.TempDir()))
	require.NoError(t, err)
	defer f.Close()

	s := New(newFakeApp())
	resp, err := s.Post("/upload", map[string]any{"photo": f, "name": "Larry"})
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode, resp.BodyString())
	assert.Equal(t, `foo.txt text/plain "bar\n"`, resp.BodyString())
	assert.Equal(t, "multipart/form-data; boundary="+params.Boundary, lastRequest(t, s).Header.Get("Content-Type"))
}

func TestSession_PostMultipartIgnoresNonMultipartOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foo.txt")
	require.NoError(t, os.WriteFile(path, []byte("bar\n"), 0o644))
	f, err := upload.Open(path, upload.WithDir(t.TempDir()))
	require.NoError(t, err)
	defer f.Close()

	s := New(newFakeApp())
	resp, err := s.Post("/upload", map[string]any{"photo": f}, WithContentType("application/json"))
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode, resp.BodyString())
	assert.Equal(t, `foo.txt text/plain "bar\n"`, resp.BodyString())
	assert.Equal(t, "multipart/form-data; boundary="+params.Boundary, lastRequest(t, s).Header.Get("Content-Type"))
}

func TestSession_MultipartContentTypeOverride(t *testing.T) {
	s := New(newFakeApp())

	resp, err := s.Post("/echo", map[string]any{"name": "Larry"}, WithContentType("multipart/related"))
	require.NoError(t, err)

	assert.Equal(t, "multipart/related; boundary="+params.Boundary, resp.Header("X-Content-Type"))
	assert.Contains(t, resp.BodyString(), `Content-Disposition: form-data; name="name"`)
	assert.Contains(t, resp.BodyString(), "--"+params.Boundary+"--")
}

func TestSession_ExplicitContentType(t *testing.T) {
	s := New(newFakeApp())

	resp, err := s.Post("/echo", map[string]any{"a": "1"}, WithContentType("application/vnd.form"))
	require.NoError(t, err)

	assert.Equal(t, "application/vnd.form", resp.Header("X-Content-Type"))
	assert.Equal(t, "a=1", resp.BodyString())
}

func TestSession_RawBody(t *testing.T) {
	s := New(newFakeApp())

	resp, err := s.Post("/echo", map[string]any{"page": "2"},
		WithBody([]byte(`{"name":"Larry"}`)),
		WithHeader("Content-Type", "application/json"))
	require.NoError(t, err)

	assert.Equal(t, `{"name":"Larry"}`, resp.BodyString())
	assert.Equal(t, "application/json", resp.Header("X-Content-Type"))
	assert.Equal(t, "page=2", lastRequest(t, s).URL.RawQuery)
}

func TestSession_Verbs(t *testing.T) {
	s := New(newFakeApp())

	tests := []struct {
		name     string
		call     func(string, any, ...RequestOption) (*Response, error)
		expected string
	}{
		{"put", s.Put, "Hello, PUT: a=1"},
		{"patch", s.Patch, "Hello, PATCH: a=1"},
		{"delete", s.Delete, "Hello, DELETE: a=1"},
		{"options", s.Options, ""},
		{"head", s.Head, "Hello, HEAD: a=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := tt.call("/", map[string]any{"a": "1"})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, resp.BodyString())
			assert.Equal(t, strings.ToUpper(tt.name), lastRequest(t, s).Method)
		})
	}

	resp, err := s.Request("link", "/", nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello, LINK: ", resp.BodyString())
}

func TestSession_HeaderPrecedence(t *testing.T) {
	s := New(newFakeApp(), WithDefaultHeader("Cookie", "from=default"), WithDefaultHeader("X-Default", "1"))

	resp, err := s.Get("/echo", nil)
	require.NoError(t, err)
	assert.Equal(t, "from=default", resp.Header("X-Cookie"))

	require.NoError(t, s.SetCookie("from=jar", "/"))
	resp, err = s.Get("/echo", nil)
	require.NoError(t, err)
	assert.Equal(t, "from=jar", resp.Header("X-Cookie"))
	assert.Equal(t, "1", lastRequest(t, s).Header.Get("X-Default"))

	resp, err = s.Get("/echo", nil, WithHeader("Cookie", "from=explicit"), WithHeader("X-Default", "2"))
	require.NoError(t, err)
	assert.Equal(t, "from=explicit", resp.Header("X-Cookie"))
	assert.Equal(t, "2", lastRequest(t, s).Header.Get("X-Default"))
}

func TestSession_HeaderAndAuth(t *testing.T) {
	s := New(newFakeApp())
	s.Header("X-Trace", "abc")
	s.BasicAuth("user", "secret")

	_, err := s.Get("/echo", nil, WithXHR(), WithRemoteAddr("10.0.0.9"))
	require.NoError(t, err)

	r := lastRequest(t, s)
	assert.Equal(t, "abc", r.Header.Get("X-Trace"))
	assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
	assert.Equal(t, "10.0.0.9", r.RemoteAddr)
	user, pass, ok := r.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "user", user)
	assert.Equal(t, "secret", pass)

	s.Header("X-Trace", "")
	_, err = s.Get("/echo", nil)
	require.NoError(t, err)
	assert.Empty(t, lastRequest(t, s).Header.Get("X-Trace"))
}

func TestSession_LastRequestIsReReadable(t *testing.T) {
	s := New(newFakeApp())

	_, err := s.LastRequest()
	assert.ErrorIs(t, err, ErrNoRequest)
	_, err = s.LastResponse()
	assert.ErrorIs(t, err, ErrNoRequest)

	_, err = s.Post("/echo", map[string]any{"a": "1"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		body, err := io.ReadAll(lastRequest(t, s).Body)
		require.NoError(t, err)
		assert.Equal(t, "a=1", string(body))
	}

	resp, err := s.LastResponse()
	require.NoError(t, err)
	assert.Equal(t, "a=1", resp.BodyString())
}

func TestSession_HandlerPanicPropagates(t *testing.T) {
	s := New(newFakeApp())
	assert.PanicsWithValue(t, "boom", func() {
		_, _ = s.Get("/panic", nil)
	})
}

func TestSession_InvalidParams(t *testing.T) {
	s := New(newFakeApp())

	_, err := s.Post("/", struct{}{})
	assert.ErrorContains(t, err, "invalid request params")

	_, err = s.Post("/", params.List{params.String("a")}, WithContentType("multipart/form-data"))
	assert.ErrorIs(t, err, params.ErrNotMap)
}

func TestSession_WithConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DefaultHost = "https://api.local"
	cfg.Headers = map[string]string{"Accept": "application/json"}
	cfg.RemoteAddr = "192.168.1.1"
	cfg.FollowRedirects = config.BoolPtr(true)

	s := New(newFakeApp(), WithConfig(cfg))
	resp, err := s.Get("/redirect", nil)
	require.NoError(t, err)
	assert.Equal(t, "You've been redirected", resp.BodyString())

	r := lastRequest(t, s)
	assert.Equal(t, "api.local", r.Host)
	assert.Equal(t, "https", r.URL.Scheme)
	assert.Equal(t, "application/json", r.Header.Get("Accept"))
	assert.Equal(t, "192.168.1.1", r.RemoteAddr)
}

func TestSession_SharedJar(t *testing.T) {
	jar := cookie.NewJar()
	first := New(newFakeApp(), WithJar(jar))
	second := New(newFakeApp(), WithJar(jar))

	_, err := first.Get("/cookies/set-simple", map[string]any{"value": "shared"})
	require.NoError(t, err)

	resp, err := second.Get("/cookies/show", nil)
	require.NoError(t, err)
	assert.Equal(t, "simple=shared", resp.BodyString())
	assert.Same(t, jar, second.Jar())
}

func TestSession_LogsDroppedCookies(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	app := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Set-Cookie", "good=1")
		w.Header().Add("Set-Cookie", "; path=/")
	})

	s := New(app, WithLogger(logger))
	_, err := s.Get("/", nil)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "dropped Set-Cookie values")
	assert.Contains(t, buf.String(), "dispatching request")
	assert.Equal(t, 1, s.Jar().Len())
}
