// Package builtin provides the functions available in parameter fixtures.
//
// Available functions:
//   - uuid(): Random UUID v4
//   - now(), timestamp(), timestampMs(), date(layout)
//   - random(min, max): Random integer in range, inclusive
//   - randomString(length), randomEmail()
//   - base64(value), md5(value), sha256(value), urlEncode(value)
//
// Functions are invoked as {{uuid()}} inside string values.
package builtin
