// Package params models request parameters and encodes them for the wire.
//
// A parameter tree is built from Value variants (Null, String, List, Map
// and File) and can be serialized as:
//   - a nested query string (a[b][]=1&a[b][]=2) for URLs and form bodies
//   - a multipart/form-data body with a fixed boundary when files are present
//
// The package also decodes both formats back into trees using the same
// bracket grammar, and loads trees from YAML or JSON documents.
package params
