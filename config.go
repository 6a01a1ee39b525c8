package hive

import (
	"runtime"
	"time"
)

// Config bundles the options a System is constructed with. The fields
// mirror, one for one, the configuration keys recognized by the core per
// spec.md §6; unlike a stringly-typed option bag, unrecognized keys are a
// compile error here rather than something the core silently ignores.
type Config struct {
	// MaxThreads is the number of scheduler workers. Zero means "use
	// runtime.GOMAXPROCS(0)", matching "scheduler.max-threads: default =
	// hw threads".
	MaxThreads int

	// MaxThroughput is the scheduler quantum: the number of envelopes a
	// worker processes for one ACB before re-submitting it. Zero means 9,
	// matching "scheduler.max-throughput: default 9".
	MaxThroughput int

	// AggressivePollAttempts is how many times an idle worker spins
	// checking its local deque and the overflow queue before moving on to
	// the moderate polling phase.
	AggressivePollAttempts int

	// AggressiveStealInterval is how often, in aggressive poll attempts,
	// an idle worker tries to steal from its peers' local deques: every
	// Nth attempt, starting with the first.
	AggressiveStealInterval int

	// ModeratePollAttempts is a second, slower polling phase entered
	// after AggressivePollAttempts is exhausted, before the worker parks.
	ModeratePollAttempts int

	// Logger receives hive's internal diagnostic logging. Defaults to a
	// discard logger.
	Logger Logger

	// Clock supplies the current time used to stamp each request's
	// deadline. The timeout itself fires on a real timer regardless of
	// Clock. Defaults to time.Now.
	Clock func() time.Time

	// DeadLetterBuffer bounds the System's dead-letter channel.
	DeadLetterBuffer int
}

// Option configures a Config, in the functional-options shape of
// FergusInLondon-go-supervise/supervisor.Option.
type Option func(*Config)

// WithMaxThreads overrides the scheduler's worker count.
func WithMaxThreads(n int) Option {
	return func(c *Config) { c.MaxThreads = n }
}

// WithMaxThroughput overrides the scheduler quantum.
func WithMaxThroughput(n int) Option {
	return func(c *Config) { c.MaxThroughput = n }
}

// WithWorkStealing overrides the poll/steal tuning knobs.
func WithWorkStealing(aggressivePoll, aggressiveStealInterval, moderatePoll int) Option {
	return func(c *Config) {
		c.AggressivePollAttempts = aggressivePoll
		c.AggressiveStealInterval = aggressiveStealInterval
		c.ModeratePollAttempts = moderatePoll
	}
}

// WithLogger installs a Logger for the System to use internally.
func WithLogger(l Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithClock overrides the time source used by the request correlator.
func WithClock(clock func() time.Time) Option {
	return func(c *Config) { c.Clock = clock }
}

// WithDeadLetterBuffer overrides the dead-letter channel's capacity.
func WithDeadLetterBuffer(n int) Option {
	return func(c *Config) { c.DeadLetterBuffer = n }
}

func defaultConfig() Config {
	return Config{
		MaxThreads:              runtime.GOMAXPROCS(0),
		MaxThroughput:           9,
		AggressivePollAttempts:  64,
		AggressiveStealInterval: 4,
		ModeratePollAttempts:    16,
		Logger:                  discardLogger{},
		Clock:                   time.Now,
		DeadLetterBuffer:        1024,
	}
}

func resolveConfig(opts ...Option) Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MaxThreads <= 0 {
		cfg.MaxThreads = runtime.GOMAXPROCS(0)
	}
	if cfg.MaxThroughput <= 0 {
		cfg.MaxThroughput = 9
	}
	if cfg.Logger == nil {
		cfg.Logger = discardLogger{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.DeadLetterBuffer <= 0 {
		cfg.DeadLetterBuffer = 1024
	}
	if cfg.AggressivePollAttempts <= 0 {
		cfg.AggressivePollAttempts = 64
	}
	if cfg.AggressiveStealInterval <= 0 {
		cfg.AggressiveStealInterval = 4
	}
	if cfg.ModeratePollAttempts <= 0 {
		cfg.ModeratePollAttempts = 16
	}
	return cfg
}
