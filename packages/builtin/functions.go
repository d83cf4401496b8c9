package builtin

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnknownFunc is returned for calls to unregistered functions
	ErrUnknownFunc = errors.New("unknown function")
	// ErrBadArgs is returned when a function receives unusable arguments
	ErrBadArgs = errors.New("invalid arguments")
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Func computes a fixture value from its call arguments
type Func func(args []string) (string, error)

// Registry maps function names to implementations. Calls are safe for
// concurrent use.
type Registry struct {
	mu    sync.Mutex
	funcs map[string]Func
	now   func() time.Time
	rnd   *rand.Rand
}

type Option func(*Registry)

// WithClock sets the time source for now(), timestamp() and date()
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithSeed makes the random functions deterministic
func WithSeed(seed uint64) Option {
	return func(r *Registry) {
		r.rnd = rand.New(rand.NewPCG(seed, seed))
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		funcs: make(map[string]Func),
		now:   time.Now,
		rnd:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.funcs["now"] = r.funcNow
	r.funcs["timestamp"] = r.funcTimestamp
	r.funcs["timestampMs"] = r.funcTimestampMs
	r.funcs["date"] = r.funcDate
	r.funcs["uuid"] = funcUUID
	r.funcs["random"] = r.funcRandom
	r.funcs["randomString"] = r.funcRandomString
	r.funcs["randomEmail"] = r.funcRandomEmail
	r.funcs["base64"] = oneArg(func(s string) string {
		return base64.StdEncoding.EncodeToString([]byte(s))
	})
	r.funcs["md5"] = oneArg(func(s string) string {
		sum := md5.Sum([]byte(s))
		return hex.EncodeToString(sum[:])
	})
	r.funcs["sha256"] = oneArg(func(s string) string {
		sum := sha256.Sum256([]byte(s))
		return hex.EncodeToString(sum[:])
	})
	r.funcs["urlEncode"] = oneArg(url.QueryEscape)
}

func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Names returns the registered function names
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	return names
}

var funcCallPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// IsCall reports whether expr has the name(args) shape
func IsCall(expr string) bool {
	return funcCallPattern.MatchString(expr)
}

// Call evaluates an expression such as uuid() or random(1, 10)
func (r *Registry) Call(expr string) (string, error) {
	matches := funcCallPattern.FindStringSubmatch(expr)
	if matches == nil {
		return "", fmt.Errorf("%w: %q is not a function call", ErrBadArgs, expr)
	}

	name := matches[1]
	r.mu.Lock()
	fn, ok := r.funcs[name]
	r.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFunc, name)
	}

	var args []string
	if matches[2] != "" {
		args = parseArgs(matches[2])
	}

	// The shared rand source is not safe for concurrent use
	r.mu.Lock()
	defer r.mu.Unlock()
	out, err := fn(args)
	if err != nil {
		return "", fmt.Errorf("%s(): %w", name, err)
	}
	return out, nil
}

// parseArgs splits a comma separated argument list, honoring single and
// double quotes
func parseArgs(s string) []string {
	var args []string
	var current strings.Builder
	quote := byte(0)

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote == 0 && (ch == '"' || ch == '\''):
			quote = ch
		case quote != 0 && ch == quote:
			quote = 0
		case quote == 0 && ch == ',':
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}

	if current.Len() > 0 {
		args = append(args, strings.TrimSpace(current.String()))
	}
	return args
}

func oneArg(fn func(string) string) Func {
	return func(args []string) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("%w: want 1, got %d", ErrBadArgs, len(args))
		}
		return fn(args[0]), nil
	}
}

func intArg(args []string, i, def int) (int, error) {
	if len(args) <= i {
		return def, nil
	}
	v, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrBadArgs, args[i])
	}
	return v, nil
}

func (r *Registry) funcNow(_ []string) (string, error) {
	return r.now().UTC().Format(time.RFC3339), nil
}

func (r *Registry) funcTimestamp(_ []string) (string, error) {
	return strconv.FormatInt(r.now().Unix(), 10), nil
}

func (r *Registry) funcTimestampMs(_ []string) (string, error) {
	return strconv.FormatInt(r.now().UnixMilli(), 10), nil
}

func (r *Registry) funcDate(args []string) (string, error) {
	layout := time.DateOnly
	if len(args) >= 1 {
		layout = args[0]
	}
	return r.now().UTC().Format(layout), nil
}

func funcUUID(_ []string) (string, error) {
	return uuid.New().String(), nil
}

func (r *Registry) funcRandom(args []string) (string, error) {
	lo, err := intArg(args, 0, 0)
	if err != nil {
		return "", err
	}
	hi, err := intArg(args, 1, 100)
	if err != nil {
		return "", err
	}
	if hi < lo {
		return "", fmt.Errorf("%w: max %d is below min %d", ErrBadArgs, hi, lo)
	}
	return strconv.Itoa(lo + r.rnd.IntN(hi-lo+1)), nil
}

func (r *Registry) funcRandomString(args []string) (string, error) {
	n, err := intArg(args, 0, 16)
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("%w: negative length", ErrBadArgs)
	}
	return r.randomString(n, alphanumeric), nil
}

func (r *Registry) funcRandomEmail(_ []string) (string, error) {
	const lower = "abcdefghijklmnopqrstuvwxyz"
	return r.randomString(8, lower) + "@" + r.randomString(6, lower) + ".example", nil
}

func (r *Registry) randomString(n int, charset string) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = charset[r.rnd.IntN(len(charset))]
	}
	return string(b)
}
