package property

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tendant/content-dimension/pkg/dimension"
)

// Resolver converts one raw field value into a ContentView.
type Resolver interface {
	Resolve(ctx context.Context, data any, locale string, params dimension.Params) dimension.ContentView
	GetType() string
}

// IgnoredInputError marks input a resolver intentionally turned into a neutral
// view. It never leaves the package through Resolve; tests use it to tell
// deliberate fallbacks apart from bugs.
type IgnoredInputError struct {
	Type   string
	Reason string
}

func (e *IgnoredInputError) Error() string {
	return fmt.Sprintf("%s: input ignored: %s", e.Type, e.Reason)
}

func ignored(typ, format string, args ...any) error {
	return &IgnoredInputError{Type: typ, Reason: fmt.Sprintf(format, args...)}
}

type options struct {
	logger   *slog.Logger
	debug    bool
	maxDepth int
}

// Option configures the provider and the built-in resolvers.
type Option func(*options)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDebug enables warnings for unknown type tags.
func WithDebug(debug bool) Option {
	return func(o *options) {
		o.debug = debug
	}
}

// WithMaxBlockDepth caps block nesting. Defaults to DefaultMaxBlockDepth.
func WithMaxBlockDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

func newOptions(opts []Option) options {
	o := options{logger: slog.Default(), maxDepth: DefaultMaxBlockDepth}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// collapse logs ignored input and returns the neutral view. Any other error is
// a programming error in a resolver; it is logged and the view still returned.
func collapse(ctx context.Context, logger *slog.Logger, cv dimension.ContentView, err error) dimension.ContentView {
	if err == nil {
		return cv
	}
	var ig *IgnoredInputError
	if errors.As(err, &ig) {
		logger.DebugContext(ctx, "property input ignored", "type", ig.Type, "reason", ig.Reason)
		return cv
	}
	logger.ErrorContext(ctx, "property resolution failed", "error", err)
	return cv
}

// Provider dispatches field values to the resolver registered for their type.
//
// Register is meant for setup; it must not run concurrently with Resolve.
type Provider struct {
	resolvers map[string]Resolver
	fallback  Resolver
	opts      options
}

// NewProvider creates an empty provider. Unknown types fall back to the
// default resolver.
func NewProvider(opts ...Option) *Provider {
	o := newOptions(opts)
	return &Provider{
		resolvers: make(map[string]Resolver),
		fallback:  NewDefaultResolver(opts...),
		opts:      o,
	}
}

// Register adds resolvers keyed by their GetType.
func (p *Provider) Register(resolvers ...Resolver) {
	for _, r := range resolvers {
		if r != nil {
			p.resolvers[r.GetType()] = r
		}
	}
}

// GetResolver returns the resolver registered for typeTag.
func (p *Provider) GetResolver(typeTag string) (Resolver, bool) {
	r, ok := p.resolvers[typeTag]
	return r, ok
}

// Types returns the number of registered type tags.
func (p *Provider) Types() int {
	return len(p.resolvers)
}

// Resolve implements dimension.FieldResolver.
func (p *Provider) Resolve(ctx context.Context, typeTag string, data any, locale string, params dimension.Params) dimension.ContentView {
	if r, ok := p.resolvers[typeTag]; ok {
		return r.Resolve(ctx, data, locale, params)
	}

	if p.opts.debug {
		p.opts.logger.WarnContext(ctx, "no property resolver registered, using default",
			"type", typeTag, "params", params.Without())
	}
	return p.fallback.Resolve(ctx, data, locale, params)
}
