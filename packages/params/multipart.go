package params

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/hittest/packages/upload"
)

// Boundary separates parts in every multipart body built by this package
const Boundary = "----------XnJLe9ZIbbGUYtzPQJ16u1"

// ErrNotMap is returned when a multipart body is requested for a non-Map root
var ErrNotMap = errors.New("value must be a Map")

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// ContentType appends the boundary parameter to a multipart media type.
// An empty base means multipart/form-data.
func ContentType(base string) string {
	if base == "" {
		base = "multipart/form-data"
	}
	return base + "; boundary=" + Boundary
}

// BuildMultipart encodes v as a multipart/form-data body. It returns a nil
// body and no error when the tree holds no File, so callers can fall back
// to BuildNestedQuery.
func BuildMultipart(v Value) ([]byte, error) {
	m, ok := v.(*Map)
	if !ok || m == nil {
		return nil, fmt.Errorf("build multipart from %T: %w", v, ErrNotMap)
	}
	if !HasFile(m) {
		return nil, nil
	}

	var buf bytes.Buffer
	if err := WriteMultipart(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteMultipart writes m as a multipart body whether or not it holds files
func WriteMultipart(w io.Writer, m *Map) error {
	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(Boundary); err != nil {
		return fmt.Errorf("failed to set multipart boundary: %w", err)
	}

	for _, key := range m.Keys() {
		v, _ := m.Get(key)
		if err := writeParts(mw, key, v); err != nil {
			return err
		}
	}

	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return nil
}

func writeParts(mw *multipart.Writer, name string, v Value) error {
	switch val := v.(type) {
	case nil, Null:
		return writeField(mw, name, "")
	case String:
		return writeField(mw, name, string(val))
	case File:
		if val.File == nil {
			return writeField(mw, name, "")
		}
		return writeFile(mw, name, val.File)
	case *Map:
		for _, key := range val.Keys() {
			item, _ := val.Get(key)
			if err := writeParts(mw, name+"["+key+"]", item); err != nil {
				return err
			}
		}
	case List:
		listName := name + "[]"
		if len(val) == 0 {
			return writeField(mw, listName, "")
		}
		for _, item := range val {
			if err := writeListItem(mw, listName, item); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeListItem emits one list element. Maps spread their keys under the
// list name; nested lists flatten into it.
func writeListItem(mw *multipart.Writer, listName string, item Value) error {
	switch it := item.(type) {
	case *Map:
		for _, key := range it.Keys() {
			v, _ := it.Get(key)
			if err := writeParts(mw, listName+"["+key+"]", v); err != nil {
				return err
			}
		}
		return nil
	case List:
		for _, nested := range it {
			if err := writeListItem(mw, listName, nested); err != nil {
				return err
			}
		}
		return nil
	}
	return writeParts(mw, listName, item)
}

func writeField(mw *multipart.Writer, name, value string) error {
	part, err := mw.CreateFormField(name)
	if err != nil {
		return fmt.Errorf("failed to create form field %s: %w", name, err)
	}
	if _, err := io.WriteString(part, value); err != nil {
		return fmt.Errorf("failed to write field %s: %w", name, err)
	}
	return nil
}

func writeFile(mw *multipart.Writer, name string, f *upload.File) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(name), quoteEscaper.Replace(f.OriginalFilename())))
	header.Set("Content-Type", f.ContentType())
	header.Set("Content-Length", strconv.FormatInt(f.Size(), 10))

	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create file part %s: %w", name, err)
	}
	if _, err := f.WriteTo(part); err != nil {
		return fmt.Errorf("failed to write file part %s: %w", name, err)
	}
	return nil
}

// ParseMultipart decodes a multipart body into a tree. File parts are
// spooled into new uploads owned by the returned tree; release them with
// Release.
func ParseMultipart(r io.Reader, boundary string, opts ...upload.Option) (*Map, error) {
	mr := multipart.NewReader(r, boundary)
	result := NewMap()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			Release(result)
			return nil, fmt.Errorf("failed to read multipart body: %w", err)
		}

		v, err := readPart(part, opts)
		part.Close()
		if err != nil {
			Release(result)
			return nil, err
		}
		if v == nil {
			continue
		}

		if err := normalize(result, part.FormName(), v, 0); err != nil {
			Release(v)
			Release(result)
			return nil, err
		}
	}
	return result, nil
}

func readPart(part *multipart.Part, opts []upload.Option) (Value, error) {
	if part.FormName() == "" {
		return nil, nil
	}

	if filename := part.FileName(); filename != "" {
		fileOpts := append([]upload.Option{upload.WithContentType(part.Header.Get("Content-Type"))}, opts...)
		f, err := upload.New(part, filename, fileOpts...)
		if err != nil {
			return nil, err
		}
		return File{f}, nil
	}

	data, err := io.ReadAll(part)
	if err != nil {
		return nil, fmt.Errorf("failed to read part %s: %w", part.FormName(), err)
	}
	return String(data), nil
}
