package suggest

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Random is the subset of *rand.Rand used by MockSource.
type Random interface {
	Float64() float64
}

// MockConfig holds configuration for creating a MockSource.
type MockConfig struct {
	// MaxLatency bounds the random response delay. Zero answers immediately.
	MaxLatency time.Duration

	// FailureRate is the probability that a fetch fails with ErrFetchFailed.
	FailureRate float64

	// InclusionRate is the probability that each derived candidate is returned.
	InclusionRate float64

	// Prefix and Suffix decorate the derived candidates.
	Prefix string
	Suffix string

	// Random drives every random decision. Defaults to a time-seeded math/rand source.
	Random Random

	// Sleep waits for the simulated latency. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error

	// Logger for debug output.
	Logger *zap.Logger
}

// DefaultMockConfig mirrors the behavior of the demo backend the widget was
// built against: 200ms max latency, 1 in 10 failures, coin-flip inclusion.
func DefaultMockConfig() MockConfig {
	return MockConfig{
		MaxLatency:    200 * time.Millisecond,
		FailureRate:   0.1,
		InclusionRate: 0.5,
		Prefix:        "pre",
		Suffix:        "post",
	}
}

// MockSource simulates an unreliable suggestion backend. For a token it
// derives four candidates (prefixed, unchanged, suffixed, both), keeps each
// independently, waits a random delay and then fails or returns the subset.
type MockSource struct {
	cfg    MockConfig
	logger *zap.Logger

	// guards cfg.Random, which is shared by concurrent fetches
	mu sync.Mutex
}

// NewMockSource creates a MockSource with the given configuration.
func NewMockSource(cfg MockConfig) *MockSource {
	if cfg.MaxLatency < 0 {
		cfg.MaxLatency = 0
	}
	if cfg.Random == nil {
		now := uint64(time.Now().UnixNano())
		cfg.Random = rand.New(rand.NewSource(int64(now ^ now>>1)))
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MockSource{
		cfg:    cfg,
		logger: logger,
	}
}

// Candidates returns every candidate the source can derive for token, in order.
func (s *MockSource) Candidates(token string) []string {
	return []string{
		s.cfg.Prefix + token,
		token,
		token + s.cfg.Suffix,
		s.cfg.Prefix + token + s.cfg.Suffix,
	}
}

// Fetch implements Source.
func (s *MockSource) Fetch(ctx context.Context, token string) ([]string, error) {
	s.mu.Lock()
	results := make([]string, 0, 4)
	for _, candidate := range s.Candidates(token) {
		if s.cfg.Random.Float64() < s.cfg.InclusionRate {
			results = append(results, candidate)
		}
	}
	delay := time.Duration(s.cfg.Random.Float64() * float64(s.cfg.MaxLatency))
	fail := s.cfg.Random.Float64() < s.cfg.FailureRate
	s.mu.Unlock()

	if err := s.cfg.Sleep(ctx, delay); err != nil {
		return nil, wrapCanceled(err)
	}

	if fail {
		s.logger.Debug("mock backend rejecting request",
			zap.String("token", token),
			zap.Duration("latency", delay),
		)
		return nil, ErrFetchFailed
	}

	s.logger.Debug("mock backend responding",
		zap.String("token", token),
		zap.Duration("latency", delay),
		zap.Strings("results", results),
	)
	return results, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
