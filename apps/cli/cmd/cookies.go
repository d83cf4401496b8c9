package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/hittest/packages/cookie"
	"github.com/abdul-hamid-achik/hittest/packages/output"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

var (
	cookieURLFlag string
	cookieForFlag string
)

var cookiesCmd = &cobra.Command{
	Use:   "cookies <file|->",
	Short: "Replay Set-Cookie headers through a session cookie jar",
	Long: `Replay Set-Cookie header values through the cookie jar a test session
uses and print the resulting jar.

The input holds one Set-Cookie value per line. Blank lines and lines
starting with # are ignored. Use - to read from stdin.

Values are absorbed as if returned by --url (default: the configured
default host). The Cookie header printed at the end is the one a session
would send to --for, which defaults to --url.

Examples:
  hittest cookies headers.txt
  hittest cookies headers.txt --url http://example.org/cookies/set --for http://sub.example.org/
  pbpaste | hittest cookies -`,
	Args: cobra.ExactArgs(1),
	RunE: cookiesCommand,
}

func init() {
	cookiesCmd.Flags().StringVar(&cookieURLFlag, "url", "", "URL the Set-Cookie headers came from")
	cookiesCmd.Flags().StringVar(&cookieForFlag, "for", "", "URL to build the Cookie header for")
}

func cookiesCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	formatter, err := newFormatter(cmd, cfg)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	from := cookieURLFlag
	if from == "" {
		from = "http://" + cfg.DefaultHost + "/"
	}
	origin, err := parseAbsoluteURL(from)
	if err != nil {
		return err
	}
	target := origin
	if cookieForFlag != "" {
		if target, err = parseAbsoluteURL(cookieForFlag); err != nil {
			return err
		}
	}

	lines, err := readHeaderLines(cmd, args[0])
	if err != nil {
		return err
	}

	jar := cookie.NewJar()
	result := &output.CookieResult{URL: origin.String(), For: target.String()}
	for _, line := range lines {
		if err := jar.SetFromHeader(line, origin); err != nil {
			var merr *multierror.Error
			if errors.As(err, &merr) {
				result.Dropped = append(result.Dropped, merr.Errors...)
			} else {
				result.Dropped = append(result.Dropped, err)
			}
			logger.Debug("dropped cookie", "value", line, "error", err)
			continue
		}
		logger.Debug("stored cookie", "value", line, "url", origin.String())
	}

	path := target.Path
	if path == "" {
		path = "/"
	}
	result.Cookies = jar.Cookies()
	result.Header = jar.HeaderFor(target.Hostname(), path, target.Scheme == "https")

	formatter.FormatCookies(result)
	return nil
}

func parseAbsoluteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL %q: %v", errUsage, raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: URL %q must be absolute", errUsage, raw)
	}
	return u, nil
}

// readHeaderLines returns the non-empty, non-comment lines of path, or of
// stdin when path is "-"
func readHeaderLines(cmd *cobra.Command, path string) ([]string, error) {
	var scanner *bufio.Scanner
	if path == "-" {
		scanner = bufio.NewScanner(cmd.InOrStdin())
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		defer f.Close()
		scanner = bufio.NewScanner(f)
	}

	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}
