package params

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/hittest/packages/upload"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// FileTag marks a YAML scalar (or mapping with path/type keys) as a file upload
const FileTag = "!file"

// JSON objects with these keys are file uploads
const (
	jsonFileKey = "@file"
	jsonTypeKey = "@type"
)

// LoadFile reads a parameter tree from a .yaml, .yml or .json file.
// File references resolve relative to the file's directory.
func LoadFile(path string, opts ...upload.Option) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FromYAML(data, baseDir, opts...)
	case ".json":
		return FromJSON(data, baseDir, opts...)
	}
	return nil, fmt.Errorf("unsupported parameter file %s (expected .yaml, .yml or .json)", path)
}

// FromYAML decodes a YAML mapping, keeping key order
func FromYAML(data []byte, baseDir string, opts ...upload.Option) (*Map, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML parameters: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return NewMap(), nil
	}

	loader := &yamlLoader{baseDir: baseDir, opts: opts}
	v, err := loader.convert(doc.Content[0])
	if err != nil {
		Release(v)
		return nil, err
	}
	m, ok := v.(*Map)
	if !ok {
		Release(v)
		return nil, fmt.Errorf("YAML parameters: %w", ErrNotMap)
	}
	return m, nil
}

type yamlLoader struct {
	baseDir string
	opts    []upload.Option
}

// convert returns the partial tree alongside an error so opened files can be released
func (l *yamlLoader) convert(node *yaml.Node) (Value, error) {
	if node.ShortTag() == FileTag {
		return l.file(node)
	}

	switch node.Kind {
	case yaml.AliasNode:
		return l.convert(node.Alias)
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			return Null{}, nil
		}
		return String(node.Value), nil
	case yaml.SequenceNode:
		list := make(List, 0, len(node.Content))
		for _, child := range node.Content {
			v, err := l.convert(child)
			if err != nil {
				return list, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(node.Content); i += 2 {
			v, err := l.convert(node.Content[i+1])
			if err != nil {
				return m, err
			}
			m.Set(node.Content[i].Value, v)
		}
		return m, nil
	}
	return nil, fmt.Errorf("unsupported YAML node at line %d", node.Line)
}

func (l *yamlLoader) file(node *yaml.Node) (Value, error) {
	var path, contentType string
	switch node.Kind {
	case yaml.ScalarNode:
		path = node.Value
	case yaml.MappingNode:
		var ref struct {
			Path string `yaml:"path"`
			Type string `yaml:"type"`
		}
		if err := node.Decode(&ref); err != nil {
			return nil, fmt.Errorf("invalid %s reference at line %d: %w", FileTag, node.Line, err)
		}
		path, contentType = ref.Path, ref.Type
	default:
		return nil, fmt.Errorf("invalid %s reference at line %d", FileTag, node.Line)
	}
	return openFile(l.baseDir, path, contentType, l.opts)
}

// FromJSON decodes a JSON object, keeping key order. An object holding an
// "@file" key (and optionally "@type") is a file upload.
func FromJSON(data []byte, baseDir string, opts ...upload.Option) (*Map, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("failed to parse JSON parameters: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("JSON parameters: %w", ErrNotMap)
	}

	v, err := convertJSON(root, baseDir, opts)
	if err != nil {
		Release(v)
		return nil, err
	}
	return v.(*Map), nil
}

func convertJSON(r gjson.Result, baseDir string, opts []upload.Option) (Value, error) {
	switch {
	case r.IsObject():
		var keys []string
		values := make(map[string]gjson.Result)
		r.ForEach(func(key, value gjson.Result) bool {
			if _, seen := values[key.String()]; !seen {
				keys = append(keys, key.String())
			}
			values[key.String()] = value
			return true
		})

		if ref, ok := values[jsonFileKey]; ok {
			return openFile(baseDir, ref.String(), values[jsonTypeKey].String(), opts)
		}

		m := NewMap()
		for _, key := range keys {
			v, err := convertJSON(values[key], baseDir, opts)
			if err != nil {
				return m, err
			}
			m.Set(key, v)
		}
		return m, nil
	case r.IsArray():
		var list List
		var convErr error
		r.ForEach(func(_, value gjson.Result) bool {
			v, err := convertJSON(value, baseDir, opts)
			if err != nil {
				convErr = err
				return false
			}
			list = append(list, v)
			return true
		})
		if list == nil {
			list = List{}
		}
		return list, convErr
	}

	switch r.Type {
	case gjson.Null:
		return Null{}, nil
	case gjson.String:
		return String(r.Str), nil
	}
	return String(r.Raw), nil
}

func openFile(baseDir, path, contentType string, opts []upload.Option) (Value, error) {
	if path == "" {
		return nil, errors.New("file reference without a path")
	}
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}

	fileOpts := append([]upload.Option{upload.WithContentType(contentType)}, opts...)
	f, err := upload.Open(path, fileOpts...)
	if err != nil {
		return nil, err
	}
	return File{f}, nil
}
