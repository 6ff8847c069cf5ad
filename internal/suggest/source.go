// Package suggest provides suggestion backends for the search box.
package suggest

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ErrFetchFailed is returned when a backend rejects a request without a result.
var ErrFetchFailed = errors.New("suggestion fetch failed")

// Source returns suggestion strings for a token.
// Implementations may block; they should return promptly once ctx is done.
type Source interface {
	Fetch(ctx context.Context, token string) ([]string, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, token string) ([]string, error)

// Fetch implements Source.
func (f SourceFunc) Fetch(ctx context.Context, token string) ([]string, error) {
	return f(ctx, token)
}

// merged queries a primary source and appends results from extra sources.
type merged struct {
	primary Source
	extras  []Source
	logger  *zap.Logger
}

// Merge combines sources. A primary failure fails the whole fetch. Errors
// from extra sources are logged and skipped. Results keep primary order with
// duplicates removed.
func Merge(logger *zap.Logger, primary Source, extras ...Source) Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(extras) == 0 {
		return primary
	}
	return &merged{
		primary: primary,
		extras:  extras,
		logger:  logger,
	}
}

// Fetch implements Source.
func (m *merged) Fetch(ctx context.Context, token string) ([]string, error) {
	results, err := m.primary.Fetch(ctx, token)
	if err != nil {
		return nil, err
	}

	for i, extra := range m.extras {
		more, err := extra.Fetch(ctx, token)
		if err != nil {
			m.logger.Debug("extra suggestion source failed",
				zap.Int("source", i),
				zap.String("token", token),
				zap.Error(err),
			)
			continue
		}
		results = append(results, more...)
	}

	return lo.Uniq(results), nil
}

// Limit caps the number of suggestions returned by a source.
func Limit(src Source, n int) Source {
	return SourceFunc(func(ctx context.Context, token string) ([]string, error) {
		results, err := src.Fetch(ctx, token)
		if err != nil {
			return nil, err
		}
		if n > 0 && len(results) > n {
			results = results[:n]
		}
		return results, nil
	})
}

func wrapCanceled(err error) error {
	return fmt.Errorf("%w: %w", ErrFetchFailed, err)
}
