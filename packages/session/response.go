package session

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

func (r *Response) Header(key string) string {
	return r.Headers.Get(key)
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

// Location is the redirect target as sent, possibly relative
func (r *Response) Location() string {
	return r.Header("Location")
}

// SetCookies returns the raw Set-Cookie values in the order they were sent
func (r *Response) SetCookies() []string {
	return r.Headers.Values("Set-Cookie")
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

// DecodedBody undoes the Content-Encoding of the body. Encodings are
// removed in reverse order of application; identity and an absent header
// return Body unchanged.
func (r *Response) DecodedBody() ([]byte, error) {
	encodings := strings.Split(r.Header("Content-Encoding"), ",")
	data := r.Body
	for i := len(encodings) - 1; i >= 0; i-- {
		encoding := strings.ToLower(strings.TrimSpace(encodings[i]))
		decoded, err := decode(data, encoding)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s body: %w", encoding, err)
		}
		data = decoded
	}
	return data, nil
}

func decode(data []byte, encoding string) ([]byte, error) {
	switch encoding {
	case "", "identity":
		return data, nil
	case "gzip", "x-gzip":
		z, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = z.Close() }()
		return io.ReadAll(z)
	case "deflate":
		f := flate.NewReader(bytes.NewReader(data))
		defer func() { _ = f.Close() }()
		return io.ReadAll(f)
	case "zstd":
		d, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer d.Close()
		return d.DecodeAll(data, nil)
	case "br":
		return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	}
	return nil, fmt.Errorf("unsupported content encoding %q", encoding)
}
