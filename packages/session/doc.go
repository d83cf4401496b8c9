// Package session drives an http.Handler in process, the way a browser tab
// would drive a server.
//
// A Session builds synthetic requests from a method, a URL and a parameter
// tree, attaches cookies from its jar, dispatches to the handler through an
// httptest.ResponseRecorder and stores any Set-Cookie values it receives.
// It features:
//   - Nested query and multipart body encoding via the params package
//   - Header precedence: session defaults, then jar cookies, then per-request headers
//   - Redirect following (307 and 308 replay the method and body; others become GET)
//   - Content-Encoding aware response bodies (gzip, deflate, zstd, br)
//
// A Session is not safe for concurrent use.
package session
