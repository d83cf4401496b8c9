// Package upload wraps file content for multipart uploads.
//
// A File copies its content into an owned spool file when it is created
// and removes that spool when the last reference is closed:
//   - Open spools a file from disk, keeping its base name
//   - New spools any io.Reader under a declared original filename
//   - Retain and Close manage the reference count
//
// Content accessors return ErrReleased once the spool has been removed.
package upload
