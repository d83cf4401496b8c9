package output

import "github.com/abdul-hamid-achik/hittest/packages/cookie"

// EncodeResult is one parameter file rendered as a request body
type EncodeResult struct {
	Source string
	Query  string
	// ContentType and Body are set when the file was encoded as multipart
	ContentType string
	Body        []byte
}

// Multipart reports whether the result carries a multipart body
func (r *EncodeResult) Multipart() bool {
	return r.ContentType != ""
}

// CookieResult is the jar state after absorbing Set-Cookie values
type CookieResult struct {
	URL     string
	For     string
	Cookies []*cookie.Cookie
	Header  string
	Dropped []error
}
