package output

import (
	"encoding/json"
	"io"
	"os"
	"time"
)

// JSONEncoding represents an encoded parameter file
type JSONEncoding struct {
	Source      string `json:"source"`
	Query       string `json:"query"`
	ContentType string `json:"contentType,omitempty"`
	Body        string `json:"body,omitempty"`
}

// JSONCookie represents a stored cookie
type JSONCookie struct {
	Name     string     `json:"name"`
	Value    string     `json:"value"`
	Domain   string     `json:"domain"`
	Path     string     `json:"path"`
	Expires  *time.Time `json:"expires,omitempty"`
	Secure   bool       `json:"secure,omitempty"`
	HTTPOnly bool       `json:"httpOnly,omitempty"`
}

// JSONCookies represents the jar after absorbing Set-Cookie values
type JSONCookies struct {
	URL     string       `json:"url"`
	For     string       `json:"for"`
	Cookies []JSONCookie `json:"cookies"`
	Header  string       `json:"header"`
	Dropped []string     `json:"dropped,omitempty"`
}

// JSONError represents a failed command
type JSONError struct {
	Error string `json:"error"`
}

// JSONFormatter writes one JSON document per result
type JSONFormatter struct {
	writer io.Writer
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatEncoding(result *EncodeResult) {
	f.encode(JSONEncoding{
		Source:      result.Source,
		Query:       result.Query,
		ContentType: result.ContentType,
		Body:        string(result.Body),
	})
}

func (f *JSONFormatter) FormatCookies(result *CookieResult) {
	out := JSONCookies{
		URL:     result.URL,
		For:     result.For,
		Cookies: make([]JSONCookie, 0, len(result.Cookies)),
		Header:  result.Header,
	}
	for _, c := range result.Cookies {
		jc := JSONCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if !c.Expires.IsZero() {
			expires := c.Expires.UTC()
			jc.Expires = &expires
		}
		out.Cookies = append(out.Cookies, jc)
	}
	for _, err := range result.Dropped {
		out.Dropped = append(out.Dropped, err.Error())
	}
	f.encode(out)
}

func (f *JSONFormatter) FormatError(err error) {
	f.encode(JSONError{Error: err.Error()})
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

func (f *JSONFormatter) encode(v any) {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(v)
}
