package biz

import (
	"fmt"
	"math"
	"time"

	"go-shortlink/internal/conf"
	"go-shortlink/internal/domain"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewOptions,
	NewCodeGenerator,
	NewCodeRules,
	NewClickRecorder,
	wire.Bind(new(ClickSink), new(*ClickRecorder)),
	NewLinkUsecase,
	NewRedirectUsecase,
	NewAnalyticsUsecase,
)

const (
	defaultLinkTTL        = 24 * time.Hour
	defaultStatsTTL       = 2 * time.Minute
	defaultClickWorkers   = 4
	defaultClickQueueSize = 1024
	defaultClickTimeout   = 5 * time.Second

	defaultInvalidateDelay = time.Second
	invalidateTimeout      = 2 * time.Second

	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps the row offset within 32 bits.
	MaxPage = math.MaxInt32 / MaxPageSize

	statsDays         = 30
	statsWeeks        = 12
	statsMonths       = 12
	statsTopReferrers = 10
)

// Options are the tunables of the link usecases.
type Options struct {
	BaseURL        string
	LinkTTL        time.Duration
	StatsTTL       time.Duration
	MaxAttempts    int
	ClickWorkers   int
	ClickQueueSize int
	ClickTimeout   time.Duration
	// InvalidateDelay is when a write drops its cached redirect a second
	// time. Zero disables the second pass.
	InvalidateDelay time.Duration
}

// NewOptions reads the shortlink section, filling unset values with defaults.
func NewOptions(c *conf.Shortlink) *Options {
	o := &Options{
		LinkTTL:        defaultLinkTTL,
		StatsTTL:       defaultStatsTTL,
		MaxAttempts:    domain.DefaultMaxAttempts,
		ClickWorkers:   defaultClickWorkers,
		ClickQueueSize: defaultClickQueueSize,
		ClickTimeout:   defaultClickTimeout,

		InvalidateDelay: defaultInvalidateDelay,
	}
	if c == nil {
		return o
	}

	o.BaseURL = c.BaseURL
	if c.Code != nil && c.Code.MaxAttempts > 0 {
		o.MaxAttempts = c.Code.MaxAttempts
	}
	if c.Cache != nil {
		if d := c.Cache.LinkTTL.AsDuration(); d > 0 {
			o.LinkTTL = d
		}
		if d := c.Cache.StatsTTL.AsDuration(); d > 0 {
			o.StatsTTL = d
		}
		if d := c.Cache.InvalidateDelay.AsDuration(); d > 0 {
			o.InvalidateDelay = d
		}
	}
	if c.Clicks != nil {
		if c.Clicks.Workers > 0 {
			o.ClickWorkers = c.Clicks.Workers
		}
		if c.Clicks.QueueSize > 0 {
			o.ClickQueueSize = c.Clicks.QueueSize
		}
		if d := c.Clicks.Timeout.AsDuration(); d > 0 {
			o.ClickTimeout = d
		}
	}
	return o
}

// NewCodeGenerator builds the random code generator from config. An
// alphabet producing codes the redirect path would refuse is a config error.
func NewCodeGenerator(c *conf.Shortlink) (*domain.CodeGenerator, error) {
	if c == nil || c.Code == nil {
		return domain.NewCodeGenerator("", 0), nil
	}
	if err := domain.ValidateAlphabet(c.Code.Alphabet); err != nil {
		return nil, fmt.Errorf("shortlink.code.alphabet: %w", err)
	}
	return domain.NewCodeGenerator(c.Code.Alphabet, c.Code.Length), nil
}

// NewCodeRules builds the custom code rules from config.
func NewCodeRules(c *conf.Shortlink) *domain.CodeRules {
	if c == nil || c.Code == nil {
		return domain.NewCodeRules(0, 0, nil, nil)
	}
	return domain.NewCodeRules(c.Code.MinCustomLength, c.Code.MaxCustomLength, c.Code.Reserved, c.Code.Denylist)
}

// NormalizePage clamps paging input to sane bounds.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
