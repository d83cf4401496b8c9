package env

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/hittest/packages/builtin"
	"github.com/hashicorp/go-multierror"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// ErrUnresolved is returned by Expand for references that have no value
var ErrUnresolved = errors.New("unresolved reference")

// Resolver interpolates {{name}}, {{$ENV_VAR}} and {{func(args)}}
// references in fixture strings. It is safe for concurrent use.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]string
	lookupEnv func(string) (string, bool)
	funcs     *builtin.Registry
	logger    *slog.Logger
}

type Option func(*Resolver)

// WithVariables adds named variables; later calls override earlier ones
func WithVariables(vars map[string]string) Option {
	return func(r *Resolver) {
		for k, v := range vars {
			r.variables[k] = v
		}
	}
}

// WithLookupEnv replaces os.LookupEnv for {{$NAME}} references
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(r *Resolver) {
		r.lookupEnv = fn
	}
}

func WithFuncs(funcs *builtin.Registry) Option {
	return func(r *Resolver) {
		r.funcs = funcs
	}
}

// WithLogger sets the logger that reports unresolved references
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		variables: make(map[string]string),
		lookupEnv: os.LookupEnv,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.funcs == nil {
		r.funcs = builtin.NewRegistry()
	}
	return r
}

func (r *Resolver) SetVariable(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

func (r *Resolver) GetVariable(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variables[name]
	return v, ok
}

// Resolve replaces every reference it can. Unresolved references are left
// as written and logged.
func (r *Resolver) Resolve(input string) string {
	out, err := r.Expand(input)
	if err != nil {
		r.logger.Warn("unresolved fixture references", "input", input, "error", err)
	}
	return out
}

// Expand replaces every reference it can and returns an error naming the
// ones it could not. The returned string always has the resolvable
// references substituted.
func (r *Resolver) Expand(input string) (string, error) {
	var result *multierror.Error
	out := variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])
		val, err := r.lookup(expr)
		if err != nil {
			result = multierror.Append(result, err)
			return match
		}
		return val
	})
	return out, result.ErrorOrNil()
}

func (r *Resolver) lookup(expr string) (string, error) {
	if name, ok := strings.CutPrefix(expr, "$"); ok {
		if val, found := r.lookupEnv(name); found {
			return val, nil
		}
		return "", fmt.Errorf("%w: environment variable $%s", ErrUnresolved, name)
	}

	if builtin.IsCall(expr) {
		return r.funcs.Call(expr)
	}

	if val, ok := r.GetVariable(expr); ok {
		return val, nil
	}
	return "", fmt.Errorf("%w: variable %s", ErrUnresolved, expr)
}

// Clone returns an independent copy sharing the function registry
func (r *Resolver) Clone() *Resolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return NewResolver(
		WithVariables(r.variables),
		WithLookupEnv(r.lookupEnv),
		WithFuncs(r.funcs),
		WithLogger(r.logger),
	)
}

// MergeVariables combines sources left to right; later sources win
func MergeVariables(sources ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}

// ParseAssignments turns KEY=value pairs from the command line into a map
func ParseAssignments(pairs []string) (map[string]string, error) {
	result := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid variable %q (expected KEY=value)", pair)
		}
		result[key] = value
	}
	return result, nil
}
