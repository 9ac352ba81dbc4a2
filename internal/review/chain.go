package review

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dshills/acra/internal/cache"
	"github.com/dshills/acra/internal/config"
	"github.com/dshills/acra/internal/providers"
	"github.com/dshills/acra/internal/redact"
)

// RulesProviderName identifies reviews produced by the local rule engine.
const RulesProviderName = "rules"

var errEmptyReview = errors.New("empty review text")

// Provider produces review text for a snippet.
type Provider interface {
	Name() string
	Review(ctx context.Context, code, language string) (string, error)
}

// Cache stores remote review text between calls.
type Cache interface {
	Get(key string) (string, bool)
	Put(key, response string) error
}

// Result is the outcome of a chain run.
type Result struct {
	Text     string `json:"review"`
	Provider string `json:"provider"`
}

// Factory constructs a remote reviewer by provider name.
type Factory func(name string, s providers.Settings) (providers.Reviewer, error)

// Option configures a Chain.
type Option func(*chainOptions)

type chainOptions struct {
	log     *slog.Logger
	cache   Cache
	factory Factory
}

// WithLogger sets the logger used to report provider failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *chainOptions) { o.log = l }
}

// WithCache enables caching of successful remote reviews.
func WithCache(c Cache) Option {
	return func(o *chainOptions) { o.cache = c }
}

// WithFactory replaces providers.New when building remote providers.
func WithFactory(f Factory) Option {
	return func(o *chainOptions) { o.factory = f }
}

// Chain tries each provider in order. The rule engine is always last, so a
// chain run never fails.
type Chain struct {
	providers []Provider
	log       *slog.Logger
}

// NewChain builds the provider list from cfg: the primary provider, then the
// configured fallbacks, then the rule engine. A provider that cannot be
// constructed (usually a missing API key) stays in the list and fails each
// call.
func NewChain(cfg config.Config, opts ...Option) *Chain {
	o := applyOptions(opts)

	names := []string{cfg.Provider}
	names = append(names, cfg.Fallbacks...)
	seen := make(map[string]bool, len(names))

	var remote []Provider
	for _, n := range names {
		name := providers.Canonical(n)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		pc := cfg.ProviderConfig(name)
		settings := providers.Settings{
			APIKey:  pc.APIKey,
			Model:   pc.Model,
			BaseURL: pc.BaseURL,
			Timeout: cfg.RequestTimeout,
		}
		model := pc.Model
		if model == "" {
			model = providers.DefaultModels[name]
		}

		rp := &remoteProvider{
			name:    name,
			model:   model,
			timeout: cfg.RequestTimeout,
			redact:  cfg.Privacy.RedactSecrets,
			cache:   o.cache,
			log:     o.log,
		}
		rp.reviewer, rp.initErr = o.factory(name, settings)
		if rp.initErr != nil {
			o.log.Info("review provider unavailable", "provider", name, "error", rp.initErr)
		}
		remote = append(remote, rp)
	}

	return &Chain{providers: append(remote, RulesProvider{}), log: o.log}
}

// NewStaticChain builds a chain from already constructed providers. The rule
// engine is appended as the terminal provider.
func NewStaticChain(remote []Provider, opts ...Option) *Chain {
	o := applyOptions(opts)
	ps := make([]Provider, 0, len(remote)+1)
	ps = append(ps, remote...)
	ps = append(ps, RulesProvider{})
	return &Chain{providers: ps, log: o.log}
}

func applyOptions(opts []Option) chainOptions {
	o := chainOptions{factory: providers.New}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// Names returns the provider names in the order they are tried.
func (c *Chain) Names() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// GenerateReview returns the first successful review. Each failure is logged
// and the next provider is tried.
func (c *Chain) GenerateReview(ctx context.Context, code, language string) Result {
	for _, p := range c.providers {
		text, err := p.Review(ctx, code, language)
		if err == nil && strings.TrimSpace(text) == "" {
			err = errEmptyReview
		}
		if err == nil {
			return Result{Text: text, Provider: p.Name()}
		}
		c.log.Warn("review provider failed", "provider", p.Name(), "error", err)
	}
	return Result{Text: Render(code, language), Provider: RulesProviderName}
}

// RulesProvider renders the rule engine output. It never fails.
type RulesProvider struct{}

func (RulesProvider) Name() string { return RulesProviderName }

func (RulesProvider) Review(_ context.Context, code, language string) (string, error) {
	return Render(code, language), nil
}

// remoteProvider adapts a prompt-level providers.Reviewer to a code-level
// Provider.
type remoteProvider struct {
	name     string
	model    string
	reviewer providers.Reviewer
	initErr  error
	timeout  time.Duration
	redact   bool
	cache    Cache
	log      *slog.Logger
}

func (p *remoteProvider) Name() string { return p.name }

func (p *remoteProvider) Review(ctx context.Context, code, language string) (string, error) {
	if p.initErr != nil {
		return "", &providers.ProviderError{Provider: p.name, Err: p.initErr}
	}

	var key string
	if p.cache != nil {
		key = cache.BuildCacheKey(p.name, p.model, language, code)
		if text, ok := p.cache.Get(key); ok {
			p.log.Debug("review cache hit", "provider", p.name)
			return text, nil
		}
	}

	payload := code
	if p.redact {
		payload = redact.Secrets(payload)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	resp, err := p.reviewer.Review(ctx, providers.ReviewRequest{
		SystemPrompt: SystemPrompt(),
		UserPrompt:   BuildUserPrompt(payload, language),
	})
	if err != nil {
		return "", &providers.ProviderError{Provider: p.name, Err: err}
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", &providers.ProviderError{Provider: p.name, Err: errEmptyReview}
	}

	if p.cache != nil {
		if err := p.cache.Put(key, resp.Content); err != nil {
			p.log.Warn("review cache write failed", "provider", p.name, "error", err)
		}
	}
	return resp.Content, nil
}
