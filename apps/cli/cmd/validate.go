package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/abdul-hamid-achik/hittest/packages/core/config"
	"github.com/abdul-hamid-achik/hittest/packages/core/env"
	"github.com/abdul-hamid-achik/hittest/packages/params"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>...",
	Short: "Validate parameter files without encoding them",
	Long: `Validate YAML and JSON parameter files. A file is valid when it loads,
every referenced upload can be opened, every {{...}} reference resolves,
and the parameters encode without conflicts.

Examples:
  hittest validate params.yaml
  hittest validate ./fixtures/`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	resolver, err := newResolver(cfg, newLogger(cmd, cfg))
	if err != nil {
		return err
	}

	files, err := collectFiles(args)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	if len(files) == 0 {
		return fmt.Errorf("%w: no .yaml, .yml or .json parameter files found", errUsage)
	}

	hasErrors := false
	for _, file := range files {
		if err := validateFile(file, cfg.SpoolDir, resolver); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
		}
	}

	if hasErrors {
		return fmt.Errorf("%w: validation failed", errParse)
	}

	return nil
}

// validateFile loads path, requires every fixture reference to resolve and
// checks that the encoded query parses back without conflicts
func validateFile(path, spoolDir string, resolver *env.Resolver) error {
	tree, err := loadFixture(path, spoolDir, resolver.Expand)
	if err != nil {
		return err
	}
	defer params.Release(tree)

	if params.HasFile(tree) {
		_, err := params.BuildMultipart(tree)
		return err
	}

	if _, err := params.ParseNestedQuery(params.BuildNestedQuery(tree, "")); err != nil {
		return fmt.Errorf("parameters do not survive encoding: %w", err)
	}
	return nil
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && isParamsFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else if isParamsFile(arg) {
			files = append(files, arg)
		}
	}

	return files, nil
}

// isParamsFile reports whether path looks like a parameter file. Config
// files share the extensions and are skipped.
func isParamsFile(path string) bool {
	if slices.Contains(config.ConfigFilenames, filepath.Base(path)) {
		return false
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
