// Package oracle fetches gas prices and token spot prices over HTTP. Every
// fetch is a single best-effort request with a static zero-value fallback;
// there is no retry or backoff. Spot prices are cached in memory for 60
// seconds per chain.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	cache "github.com/Code-Hex/go-generics-cache"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SpotPriceTTL is how long a fetched spot price stays fresh.
const SpotPriceTTL = time.Minute

const defaultRequestTimeout = 5 * time.Second

// gasResponse is the provider-agnostic gas endpoint shape: the fast-lane
// price in gwei.
type gasResponse struct {
	Fast decimal.Decimal `json:"fast"`
}

// priceResponse is the spot endpoint shape: the native token USD price.
type priceResponse struct {
	Price decimal.Decimal `json:"price"`
}

// Client fetches oracle data for a fixed set of per-chain endpoints.
type Client struct {
	httpClient    *http.Client
	gasEndpoints  map[int64]string
	spotEndpoints map[int64]string
	spotCache     *cache.Cache[int64, decimal.Decimal]
	logger        *zap.Logger
}

// ClientOption configures an oracle Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithGasEndpoint registers the gas-price endpoint for a chain.
func WithGasEndpoint(chainID int64, url string) ClientOption {
	return func(c *Client) {
		c.gasEndpoints[chainID] = url
	}
}

// WithSpotEndpoint registers the spot-price endpoint for a chain.
func WithSpotEndpoint(chainID int64, url string) ClientOption {
	return func(c *Client) {
		c.spotEndpoints[chainID] = url
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger.Named("oracle")
		}
	}
}

// NewClient builds an oracle client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:    &http.Client{Timeout: defaultRequestTimeout},
		gasEndpoints:  make(map[int64]string),
		spotEndpoints: make(map[int64]string),
		spotCache:     cache.New[int64, decimal.Decimal](),
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GasPrice returns the current fast-lane gas price in wei for the chain.
// On any failure it returns zero; the caller falls back to wallet defaults.
func (c *Client) GasPrice(ctx context.Context, chainID int64) *big.Int {
	url, ok := c.gasEndpoints[chainID]
	if !ok {
		return new(big.Int)
	}

	var parsed gasResponse
	if err := c.getJSON(ctx, url, &parsed); err != nil {
		c.logger.Debug("gas price fetch failed", zap.Int64("chain_id", chainID), zap.Error(err))
		return new(big.Int)
	}

	// gwei to wei, flooring sub-wei precision.
	wei := parsed.Fast.Mul(decimal.New(1, 9)).Floor()
	if wei.Sign() < 0 {
		return new(big.Int)
	}
	return wei.BigInt()
}

// SpotPrice returns the native token USD spot price for the chain, serving
// from the 60-second cache when fresh. On any failure it returns zero.
func (c *Client) SpotPrice(ctx context.Context, chainID int64) decimal.Decimal {
	if cached, ok := c.spotCache.Get(chainID); ok {
		return cached
	}

	url, ok := c.spotEndpoints[chainID]
	if !ok {
		return decimal.Zero
	}

	var parsed priceResponse
	if err := c.getJSON(ctx, url, &parsed); err != nil {
		c.logger.Debug("spot price fetch failed", zap.Int64("chain_id", chainID), zap.Error(err))
		return decimal.Zero
	}
	if parsed.Price.Sign() < 0 {
		return decimal.Zero
	}

	c.spotCache.Set(chainID, parsed.Price, cache.WithExpiration(SpotPriceTTL))
	return parsed.Price
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
