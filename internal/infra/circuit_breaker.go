package infra

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// ── Circuit Breaker ───────────────────────────────────────────────────────────
// Guards the Redis stats cache. After FailureThreshold consecutive errors the
// breaker opens and cache calls fail with ErrCircuitOpen without touching
// Redis; the dashboard then reads straight from Postgres. Once OpenTimeout has
// passed, calls are let through again (half-open) and SuccessThreshold
// consecutive successes close it.

// CBState is the breaker position. The numeric value is what the
// caskledger_cache_breaker_state gauge reports.
type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned by Execute while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

var breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "caskledger_cache_breaker_state",
	Help: "Circuit breaker position (0 closed, 1 open, 2 half-open).",
}, []string{"breaker"})

type CircuitBreakerConfig struct {
	Name             string        // metric and log label (default: "redis")
	FailureThreshold int           // consecutive failures that open the breaker
	SuccessThreshold int           // consecutive half-open successes that close it
	OpenTimeout      time.Duration // time spent open before letting calls through
}

// DefaultCBConfig is tuned for a cache: trip fast, retry soon.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             "redis",
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OpenTimeout:      30 * time.Second,
	}
}

type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    CBState
	failures int
	passes   int
	openedAt time.Time
}

// NewCircuitBreaker returns a closed breaker. Zero fields of cfg take their
// DefaultCBConfig values.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	cb := &CircuitBreaker{cfg: cfg, now: time.Now}
	breakerState.WithLabelValues(cfg.Name).Set(float64(CBClosed))
	return cb
}

// State reports the current position, moving an expired open breaker to
// half-open.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.expireLocked()
	return cb.state
}

// Execute runs fn unless the breaker is open and records its outcome.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if cb.State() == CBOpen {
		return ErrCircuitOpen
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.recordFailureLocked(err)
		return err
	}
	cb.recordSuccessLocked()
	return nil
}

func (cb *CircuitBreaker) expireLocked() {
	if cb.state == CBOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.OpenTimeout {
		cb.moveLocked(CBHalfOpen, nil)
	}
}

func (cb *CircuitBreaker) recordFailureLocked(err error) {
	cb.failures++
	switch {
	case cb.state == CBHalfOpen:
		cb.moveLocked(CBOpen, err)
	case cb.state == CBClosed && cb.failures >= cb.cfg.FailureThreshold:
		cb.moveLocked(CBOpen, err)
	}
}

func (cb *CircuitBreaker) recordSuccessLocked() {
	switch cb.state {
	case CBClosed:
		cb.failures = 0
	case CBHalfOpen:
		cb.passes++
		if cb.passes >= cb.cfg.SuccessThreshold {
			cb.moveLocked(CBClosed, nil)
		}
	}
}

// moveLocked switches state and resets the counters. cause is the error that
// opened the breaker, nil otherwise.
func (cb *CircuitBreaker) moveLocked(to CBState, cause error) {
	from := cb.state
	cb.state = to
	cb.failures = 0
	cb.passes = 0
	if to == CBOpen {
		cb.openedAt = cb.now()
	}
	breakerState.WithLabelValues(cb.cfg.Name).Set(float64(to))

	ev := log.Info()
	if to == CBOpen {
		ev = log.Warn().Err(cause)
	}
	ev.Str("breaker", cb.cfg.Name).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("circuit breaker state change")
}
