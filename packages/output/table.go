package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableFormatter renders cookie jars as tables. Encodings are printed the
// way ConsoleFormatter prints them without color.
type TableFormatter struct {
	writer io.Writer
	style  table.Style
}

type TableOption func(*TableFormatter)

func NewTableFormatter(opts ...TableOption) *TableFormatter {
	f := &TableFormatter{
		writer: os.Stdout,
		style:  table.StyleLight,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func TableWithWriter(w io.Writer) TableOption {
	return func(f *TableFormatter) {
		f.writer = w
	}
}

// TableWithASCII draws borders with plain ASCII characters
func TableWithASCII(ascii bool) TableOption {
	return func(f *TableFormatter) {
		if ascii {
			f.style = table.StyleDefault
		}
	}
}

func (f *TableFormatter) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(f.writer)
	t.SetStyle(f.style)
	t.Style().Format.Header = text.FormatUpper
	return t
}

func (f *TableFormatter) FormatEncoding(result *EncodeResult) {
	if !result.Multipart() {
		fmt.Fprintln(f.writer, result.Query)
		return
	}

	t := f.newTable()
	t.AppendHeader(table.Row{"Header", "Value"})
	t.AppendRow(table.Row{"Content-Type", result.ContentType})
	t.AppendRow(table.Row{"Content-Length", len(result.Body)})
	t.Render()
	fmt.Fprintln(f.writer)
	f.writer.Write(result.Body)
}

func (f *TableFormatter) FormatCookies(result *CookieResult) {
	t := f.newTable()
	t.SetTitle("Cookies set by " + result.URL)
	t.AppendHeader(table.Row{"Name", "Value", "Domain", "Path", "Expires", "Flags"})
	for _, c := range result.Cookies {
		expires := "session"
		if !c.Expires.IsZero() {
			expires = c.Expires.UTC().Format("2006-01-02 15:04:05")
		}
		t.AppendRow(table.Row{c.Name, formatValue(c.Value, 40), c.Domain, c.Path, expires, cookieFlags(c.Secure, c.HTTPOnly)})
	}
	for _, err := range result.Dropped {
		t.AppendFooter(table.Row{"dropped", err.Error()})
	}
	t.Render()

	header := result.Header
	if header == "" {
		header = "(none)"
	}
	fmt.Fprintf(f.writer, "\nCookie header for %s\n  %s\n", result.For, header)
}

func cookieFlags(secure, httpOnly bool) string {
	var flags []string
	if secure {
		flags = append(flags, "secure")
	}
	if httpOnly {
		flags = append(flags, "httponly")
	}
	return strings.Join(flags, ",")
}

func (f *TableFormatter) FormatError(err error) {
	fmt.Fprintf(f.writer, "Error: %v\n", err)
}

func (f *TableFormatter) FormatHeader(version string) {
	fmt.Fprintf(f.writer, "hittest %s\n", version)
}
