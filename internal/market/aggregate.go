package market

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"poolArbitrage/internal/model"
)

var ErrNoQuorum = errors.New("not enough observations")

// Median returns the middle value; for an even count the lower of the two
// middle values.
func Median(values []*big.Int) (*big.Int, error) {
	if len(values) == 0 {
		return nil, ErrNoQuorum
	}
	sorted := make([]*big.Int, 0, len(values))
	for _, v := range values {
		if v != nil {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return nil, ErrNoQuorum
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cmp(sorted[j]) < 0 })
	return new(big.Int).Set(sorted[(len(sorted)-1)/2]), nil
}

// Aggregator polls several observers concurrently and reduces the answers to
// their median once at least Quorum succeeded.
type Aggregator struct {
	observers []Observer
	quorum    int
	logger    *zap.Logger
}

// NewAggregator builds an aggregator. A quorum <= 0 means a strict majority.
func NewAggregator(observers []Observer, quorum int, logger *zap.Logger) (*Aggregator, error) {
	if len(observers) == 0 {
		return nil, fmt.Errorf("market aggregator needs an observer: %w", model.ErrConfiguration)
	}
	if quorum <= 0 {
		quorum = len(observers)/2 + 1
	}
	if quorum > len(observers) {
		return nil, fmt.Errorf("quorum %d exceeds %d observers: %w", quorum, len(observers), model.ErrConfiguration)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{observers: observers, quorum: quorum, logger: logger}, nil
}

// Fetch satisfies Observer so an aggregator can stand in for a single feed.
func (a *Aggregator) Fetch(ctx context.Context) (*big.Int, error) {
	results := make([]*big.Int, len(a.observers))
	errs := make([]error, len(a.observers))

	g, gctx := errgroup.WithContext(ctx)
	for i, observer := range a.observers {
		i, observer := i, observer
		g.Go(func() error {
			price, err := observer.Fetch(gctx)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = price
			return nil
		})
	}
	_ = g.Wait()

	observed := make([]*big.Int, 0, len(results))
	for i, price := range results {
		if price != nil {
			observed = append(observed, price)
			continue
		}
		a.logger.Warn("market observer failed", zap.Int("observer", i), zap.Error(errs[i]))
	}
	if len(observed) < a.quorum {
		return nil, fmt.Errorf("%d of %d observations, quorum %d: %w: %w", len(observed), len(a.observers), a.quorum, ErrNoQuorum, errors.Join(errs...))
	}
	return Median(observed)
}
