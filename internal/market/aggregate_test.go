package market

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"poolArbitrage/internal/model"
)

type staticObserver struct {
	price *big.Int
	err   error
}

func (s staticObserver) Fetch(ctx context.Context) (*big.Int, error) {
	return s.price, s.err
}

func ints(values ...int64) []*big.Int {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		out[i] = big.NewInt(v)
	}
	return out
}

func TestMedian(t *testing.T) {
	cases := []struct {
		name   string
		values []*big.Int
		want   int64
	}{
		{name: "single", values: ints(5), want: 5},
		{name: "odd", values: ints(9, 1, 5), want: 5},
		{name: "even takes lower middle", values: ints(4, 1, 3, 2), want: 2},
		{name: "duplicates", values: ints(7, 7, 1), want: 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Median(tc.values)
			if err != nil {
				t.Fatalf("median: %v", err)
			}
			if got.Int64() != tc.want {
				t.Fatalf("got %s want %d", got, tc.want)
			}
		})
	}
	if _, err := Median(nil); !errors.Is(err, ErrNoQuorum) {
		t.Fatalf("expected ErrNoQuorum, got %v", err)
	}
}

func TestAggregatorQuorum(t *testing.T) {
	failing := staticObserver{err: errors.Join(model.ErrTransport, errors.New("timeout"))}
	observers := []Observer{
		staticObserver{price: big.NewInt(3000_000000)},
		failing,
		staticObserver{price: big.NewInt(3002_000000)},
		staticObserver{price: big.NewInt(2999_000000)},
	}

	agg, err := NewAggregator(observers, 3, nil)
	if err != nil {
		t.Fatalf("aggregator: %v", err)
	}
	price, err := agg.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if price.Int64() != 3000_000000 {
		t.Fatalf("median: %s", price)
	}

	agg, err = NewAggregator([]Observer{failing, failing, staticObserver{price: big.NewInt(1)}}, 0, nil)
	if err != nil {
		t.Fatalf("aggregator: %v", err)
	}
	_, err = agg.Fetch(context.Background())
	if !errors.Is(err, ErrNoQuorum) || !errors.Is(err, model.ErrTransport) {
		t.Fatalf("expected quorum failure wrapping transport, got %v", err)
	}
}

func TestNewAggregatorValidates(t *testing.T) {
	if _, err := NewAggregator(nil, 0, nil); !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if _, err := NewAggregator([]Observer{staticObserver{}}, 2, nil); !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
