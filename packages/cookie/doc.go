// Package cookie implements the cookie jar a hittest session carries between
// requests.
//
// Set-Cookie values are parsed against the URL of the request that received
// them, so a missing Domain defaults to the request host (matched exactly)
// and a missing Path defaults to the request directory. The jar keeps
// cookies in insertion order and serializes the matching ones into a Cookie
// header for the next request.
package cookie
