package driver

import (
	"os"
	"time"

	"github.com/understudy-dev/understudy/channel"
	"github.com/understudy-dev/understudy/log"
	"github.com/understudy-dev/understudy/storage"
)

// Environment variables honored by the driver.
const (
	envDebug           = "UNDERSTUDY_DEBUG"
	envDebugCategories = "UNDERSTUDY_DEBUG_CATEGORIES"
	envSlowMo          = "UNDERSTUDY_SLOWMO"
)

type options struct {
	logger      *log.Logger
	slowMo      time.Duration
	interceptor channel.Interceptor
	persister   storage.FilePersister
	env         []string
}

// Option customizes Connect and Launch.
type Option func(*options)

// WithLogger replaces the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSlowMo delays every outbound message by d.
func WithSlowMo(d time.Duration) Option {
	return func(o *options) { o.slowMo = d }
}

// WithInterceptor rewrites outbound requests before they hit the wire.
func WithInterceptor(fn channel.Interceptor) Option {
	return func(o *options) { o.interceptor = fn }
}

// WithPersister replaces the local-disk artifact persister.
func WithPersister(p storage.FilePersister) Option {
	return func(o *options) { o.persister = p }
}

// WithEnv appends environment variables for a launched server process.
func WithEnv(env ...string) Option {
	return func(o *options) { o.env = append(o.env, env...) }
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = loggerFromEnv()
	}
	if o.slowMo == 0 {
		o.slowMo = slowMoFromEnv(o.logger)
	}
	return o
}

func loggerFromEnv() *log.Logger {
	if os.Getenv(envDebug) == "" {
		return log.NewNullLogger()
	}
	logger := log.ConsoleLogger()
	if pattern := os.Getenv(envDebugCategories); pattern != "" {
		if err := logger.SetCategoryFilter(pattern); err != nil {
			logger.Warnf("driver", "ignoring %s: %v", envDebugCategories, err)
		}
	}
	return logger
}

func slowMoFromEnv(logger *log.Logger) time.Duration {
	raw := os.Getenv(envSlowMo)
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		logger.Warnf("driver", "ignoring %s=%q: not a duration", envSlowMo, raw)
		return 0
	}
	return d
}
