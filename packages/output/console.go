package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// formatValue truncates long values for display
func formatValue(v string, maxLen int) string {
	if len(v) > maxLen {
		return v[:maxLen] + "..."
	}
	return v
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatEncoding(result *EncodeResult) {
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	if f.verbose {
		fmt.Fprintf(f.writer, "%s\n", bold("Encoding: "+result.Source))
	}

	if !result.Multipart() {
		fmt.Fprintln(f.writer, result.Query)
		return
	}

	fmt.Fprintf(f.writer, "%s %s\n", cyan("Content-Type:"), result.ContentType)
	fmt.Fprintf(f.writer, "%s %d\n\n", cyan("Content-Length:"), len(result.Body))
	f.writer.Write(result.Body)
	if f.verbose {
		fmt.Fprintf(f.writer, "\n%s %s\n", cyan("Query:"), result.Query)
	}
}

func (f *ConsoleFormatter) FormatCookies(result *CookieResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "%s\n", bold("Cookies set by "+result.URL))
	if len(result.Cookies) == 0 {
		fmt.Fprintf(f.writer, "  %s\n", yellow("(none)"))
	}
	for _, c := range result.Cookies {
		fmt.Fprintf(f.writer, "  %s %s=%s", green("✓"), c.Name, formatValue(c.Value, 60))
		fmt.Fprintf(f.writer, " (domain %s, path %s", c.Domain, c.Path)
		if !c.Expires.IsZero() {
			fmt.Fprintf(f.writer, ", expires %s", c.Expires.Format("2006-01-02 15:04:05 MST"))
		}
		if c.Secure {
			fmt.Fprintf(f.writer, ", secure")
		}
		if c.HTTPOnly {
			fmt.Fprintf(f.writer, ", httponly")
		}
		fmt.Fprintf(f.writer, ")\n")
		if f.verbose {
			fmt.Fprintf(f.writer, "      %s\n", c.Raw)
		}
	}

	for _, err := range result.Dropped {
		fmt.Fprintf(f.writer, "  %s %v\n", red("x"), err)
	}

	fmt.Fprintf(f.writer, "\n%s\n", bold("Cookie header for "+result.For))
	if result.Header == "" {
		fmt.Fprintf(f.writer, "  %s\n", yellow("(none)"))
		return
	}
	fmt.Fprintf(f.writer, "  %s\n", result.Header)
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("hittest"), version)
}
