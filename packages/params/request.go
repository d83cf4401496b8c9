package params

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/abdul-hamid-achik/hittest/packages/upload"
)

// ParseRequest decodes the query string and the form or multipart body of
// an incoming request. Body keys override query keys.
func ParseRequest(r *http.Request, opts ...upload.Option) (*Map, error) {
	result, err := ParseNestedQuery(r.URL.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query: %w", err)
	}
	if r.Body == nil || r.Body == http.NoBody {
		return result, nil
	}

	mediaType, mediaParams, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return result, nil
	}

	var body *Map
	switch {
	case mediaType == "application/x-www-form-urlencoded":
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
		body, err = ParseNestedQuery(string(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse form body: %w", err)
		}
	case strings.HasPrefix(mediaType, "multipart/"):
		body, err = ParseMultipart(r.Body, mediaParams["boundary"], opts...)
		if err != nil {
			return nil, err
		}
	default:
		return result, nil
	}

	body.Each(func(key string, v Value) {
		result.Set(key, v)
	})
	return result, nil
}
