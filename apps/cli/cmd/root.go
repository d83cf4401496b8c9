package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/abdul-hamid-achik/hittest/packages/core/config"
	"github.com/abdul-hamid-achik/hittest/packages/core/env"
	"github.com/abdul-hamid-achik/hittest/packages/output"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag  string
	noColorFlag bool
	verboseFlag bool
	outputFlag  string
	varFlags    []string
	envFileFlag string
)

var (
	errConfig = errors.New("configuration error")
	errParse  = errors.New("parse error")
	errUsage  = errors.New("usage error")
)

var rootCmd = &cobra.Command{
	Use:   "hittest",
	Short: "Encode request parameters and inspect cookie jars.",
	Long: `hittest is the command line companion of the hittest in-process HTTP
test client. It renders parameter files exactly as a test session would
send them and replays Set-Cookie headers through the session cookie jar.`,
	SilenceUsage: true,
}

// Formatter renders command results
type Formatter interface {
	FormatEncoding(result *output.EncodeResult)
	FormatCookies(result *output.CookieResult)
	FormatError(err error)
	FormatHeader(version string)
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errConfig):
		return ExitConfigError
	case errors.Is(err, errParse):
		return ExitParseError
	case errors.Is(err, errUsage):
		return ExitUsageError
	}
	return ExitFailure
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("HITTEST_CONFIG", ""), "Path to config file (env: HITTEST_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", getEnvBool("HITTEST_NO_COLOR", false), "Disable colored output (env: HITTEST_NO_COLOR)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("HITTEST_VERBOSE", false), "Verbose output and debug logging (env: HITTEST_VERBOSE)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", getEnvString("HITTEST_OUTPUT", "console"), "Output format: console, json, table (env: HITTEST_OUTPUT)")
	rootCmd.PersistentFlags().StringArrayVar(&varFlags, "var", nil, "Fixture variable as KEY=value (repeatable)")
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", getEnvString("HITTEST_ENV_FILE", ""), "Load fixture variables from a .env file (env: HITTEST_ENV_FILE)")

	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(cookiesCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

// loadSettings reads the config file and applies flags that were set on
// the command line on top of it
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}

	overrides := &config.Config{}
	if cmd.Flags().Changed("no-color") || noColorFlag {
		overrides.NoColor = config.BoolPtr(noColorFlag)
	}
	if cmd.Flags().Changed("verbose") || verboseFlag {
		overrides.Verbose = config.BoolPtr(verboseFlag)
	}
	overrides.EnvFile = envFileFlag
	if overrides.Variables, err = env.ParseAssignments(varFlags); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	return cfg.Merge(overrides), nil
}

// newResolver builds the fixture resolver. Variables from the env file
// are overridden by configured ones, which --var already overrides.
func newResolver(cfg *config.Config, logger *slog.Logger) (*env.Resolver, error) {
	vars := cfg.Variables
	if cfg.EnvFile != "" {
		fileVars, err := env.LoadDotEnv(cfg.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errConfig, err)
		}
		vars = env.MergeVariables(fileVars, cfg.Variables)
	}
	return env.NewResolver(env.WithVariables(vars), env.WithLogger(logger)), nil
}

func newFormatter(cmd *cobra.Command, cfg *config.Config) (Formatter, error) {
	switch strings.ToLower(outputFlag) {
	case "json":
		return output.NewJSONFormatter(output.JSONWithWriter(cmd.OutOrStdout())), nil
	case "table":
		return output.NewTableFormatter(
			output.TableWithWriter(cmd.OutOrStdout()),
			output.TableWithASCII(cfg.GetNoColor()),
		), nil
	case "", "console":
		return output.NewConsoleFormatter(
			output.WithWriter(cmd.OutOrStdout()),
			output.WithVerbose(cfg.GetVerbose()),
			output.WithNoColor(cfg.GetNoColor()),
		), nil
	}
	return nil, fmt.Errorf("%w: unknown output format %q", errUsage, outputFlag)
}

// newLogger logs debug output to stderr in verbose mode and discards it otherwise
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	if !cfg.GetVerbose() {
		return slog.New(slog.DiscardHandler)
	}
	var w io.Writer = cmd.ErrOrStderr()
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
