package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/abdul-hamid-achik/hittest/packages/core/config"
	"github.com/abdul-hamid-achik/hittest/packages/core/env"
	"github.com/abdul-hamid-achik/hittest/packages/output"
	"github.com/abdul-hamid-achik/hittest/packages/params"
	"github.com/abdul-hamid-achik/hittest/packages/upload"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	multipartFlag bool
	watchFlag     bool
)

var encodeCmd = &cobra.Command{
	Use:   "encode <params.yaml|params.json>",
	Short: "Encode a parameter file as a request would",
	Long: `Encode a YAML or JSON parameter file into the nested query string a
session sends for GET requests and form posts.

With --multipart the file is rendered as the multipart/form-data body a
session sends when the parameters contain uploads. Files are referenced
with the !file tag in YAML or an {"@file": "path"} object in JSON, relative
to the parameter file.

Strings may reference variables as {{name}} (from --var, the config file
or --env-file), environment variables as {{$NAME}} and functions such as
{{uuid()}} or {{randomEmail()}}.

Examples:
  hittest encode params.yaml
  hittest encode upload.yaml --multipart
  hittest encode params.json --watch
  hittest encode signup.yaml --var user=larry --env-file .env.test`,
	Args: cobra.ExactArgs(1),
	RunE: encodeCommand,
}

func init() {
	encodeCmd.Flags().BoolVarP(&multipartFlag, "multipart", "m", false, "Print the multipart body when the parameters contain files")
	encodeCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Re-encode whenever the file changes")
}

func encodeCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	formatter, err := newFormatter(cmd, cfg)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)
	resolver, err := newResolver(cfg, logger)
	if err != nil {
		return err
	}
	path := args[0]
	enc := &encoder{cfg: cfg, formatter: formatter, logger: logger, resolver: resolver}

	if err := enc.encodeFile(path); err != nil {
		if !watchFlag {
			return err
		}
		formatter.FormatError(err)
	}

	if !watchFlag {
		return nil
	}
	return watchFile(cmd, path, func() {
		if err := enc.encodeFile(path); err != nil {
			formatter.FormatError(err)
		}
	})
}

type encoder struct {
	cfg       *config.Config
	formatter Formatter
	logger    *slog.Logger
	resolver  *env.Resolver
}

// encodeFile loads path, renders it and releases any spooled uploads.
// Unresolved fixture references are logged and left as written.
func (e *encoder) encodeFile(path string) error {
	formatter, logger := e.formatter, e.logger
	tree, err := loadFixture(path, e.cfg.SpoolDir, func(s string) (string, error) {
		return e.resolver.Resolve(s), nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errParse, err)
	}
	defer func() {
		if err := params.Release(tree); err != nil {
			logger.Warn("failed to release uploads", "file", path, "error", err)
		}
	}()

	result := &output.EncodeResult{
		Source: path,
		Query:  params.BuildNestedQuery(tree, ""),
	}
	logger.Debug("loaded parameters",
		"file", path,
		"keys", tree.Len(),
		"files", params.HasFile(tree))

	if multipartFlag {
		body, err := params.BuildMultipart(tree)
		if err != nil {
			return err
		}
		if body != nil {
			result.ContentType = params.ContentType("")
			result.Body = body
		} else {
			logger.Debug("no files in parameters, printing query", "file", path)
		}
	}

	formatter.FormatEncoding(result)
	return nil
}

// loadFixture reads a parameter file and expands references in its strings.
// The tree is released when expansion fails.
func loadFixture(path, spoolDir string, expand func(string) (string, error)) (*params.Map, error) {
	tree, err := params.LoadFile(path, upload.WithDir(spoolDir))
	if err != nil {
		return nil, err
	}
	if _, err := params.Expand(tree, expand); err != nil {
		params.Release(tree)
		return nil, err
	}
	return tree, nil
}

// watchFile calls fn after writes to path settle, until the watcher closes
func watchFile(cmd *cobra.Command, path string, fn func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace files, so watch the directory
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	target := filepath.Clean(path)

	fmt.Fprintf(cmd.ErrOrStderr(), "\nWatching %s for changes... (press Ctrl+C to stop)\n\n", path)

	var debounceTimer *time.Timer
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				fmt.Fprintf(cmd.ErrOrStderr(), "\nFile changed: %s\n", event.Name)
				fn()
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watcher error: %v\n", err)
		}
	}
}
