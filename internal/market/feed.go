// Package market fetches the external ETH/USD reference price and reduces
// redundant observations to a single value.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"poolArbitrage/internal/model"
)

const (
	DefaultPricePath = "ethereum.usd"
	// PriceDecimals is the fixed-point scale of every market price.
	PriceDecimals   = 6
	defaultTimeout  = 10 * time.Second
	maxResponseBody = 1 << 20
)

// Observer produces one market price observation scaled to PriceDecimals.
type Observer interface {
	Fetch(ctx context.Context) (*big.Int, error)
}

type FeedConfig struct {
	URL     string
	Path    string
	Timeout time.Duration
}

// Feed reads a price from a JSON HTTP endpoint such as
// {"ethereum":{"usd":3012.57}}.
type Feed struct {
	url    string
	path   []string
	client *http.Client
	logger *zap.Logger
}

func NewFeed(cfg FeedConfig, client *http.Client, logger *zap.Logger) (*Feed, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("price feed url is required: %w", model.ErrConfiguration)
	}
	path := cfg.Path
	if strings.TrimSpace(path) == "" {
		path = DefaultPricePath
	}
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{
		url:    cfg.URL,
		path:   strings.Split(path, "."),
		client: client,
		logger: logger,
	}, nil
}

// Fetch returns floor(price * 1e6).
func (f *Feed) Fetch(ctx context.Context) (*big.Int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("price request: %w: %w", model.ErrConfiguration, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get price: %w: %w", model.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get price: status %d: %w", resp.StatusCode, model.ErrTransport)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read price body: %w: %w", model.ErrTransport, err)
	}

	price, err := ParsePrice(body, f.path)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("market price", zap.String("url", f.url), zap.String("price", price.String()))
	return price, nil
}

// ParsePrice walks path through a JSON object and scales the number found
// there to PriceDecimals, truncating toward zero.
func ParsePrice(body []byte, path []string) (*big.Int, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode price body: %w: %w", model.ErrDecode, err)
	}

	node := doc
	for _, key := range path {
		obj, ok := node.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("price path %s: %q is not an object: %w", strings.Join(path, "."), key, model.ErrDecode)
		}
		node, ok = obj[key]
		if !ok {
			return nil, fmt.Errorf("price path %s: missing %q: %w", strings.Join(path, "."), key, model.ErrDecode)
		}
	}

	var raw string
	switch v := node.(type) {
	case json.Number:
		raw = v.String()
	case string:
		raw = v
	default:
		return nil, fmt.Errorf("price path %s: unexpected %T: %w", strings.Join(path, "."), node, model.ErrDecode)
	}
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w: %w", raw, model.ErrDecode, err)
	}
	if value.Sign() <= 0 {
		return nil, fmt.Errorf("price %s is not positive: %w", value, model.ErrDecode)
	}
	return value.Shift(PriceDecimals).Floor().BigInt(), nil
}
