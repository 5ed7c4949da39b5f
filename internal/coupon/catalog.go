package coupon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Catalog lists the coupons currently offered by the backend.
type Catalog interface {
	List(ctx context.Context) ([]Coupon, error)
}

type HTTPCatalog struct {
	client  *http.Client
	baseURL string
}

func NewHTTPCatalog(baseURL string, timeout time.Duration) *HTTPCatalog {
	return &HTTPCatalog{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: baseURL,
	}
}

func (c *HTTPCatalog) List(ctx context.Context) ([]Coupon, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/coupons", nil)
	if err != nil {
		return nil, fmt.Errorf("build coupons request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch coupons: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coupons listing returned status %d", resp.StatusCode)
	}

	var coupons []Coupon
	if err := json.NewDecoder(resp.Body).Decode(&coupons); err != nil {
		return nil, fmt.Errorf("decode coupons listing: %w", err)
	}

	return coupons, nil
}

// CachedCatalog keeps the last successful listing for a TTL. Invalidate drops
// the cached copy so the next List goes back to the source.
type CachedCatalog struct {
	inner Catalog
	ttl   time.Duration

	mu        sync.RWMutex
	coupons   []Coupon
	fetchedAt time.Time
}

func NewCachedCatalog(inner Catalog, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{inner: inner, ttl: ttl}
}

func (c *CachedCatalog) List(ctx context.Context) ([]Coupon, error) {
	c.mu.RLock()
	if !c.fetchedAt.IsZero() && time.Since(c.fetchedAt) < c.ttl {
		cached := make([]Coupon, len(c.coupons))
		copy(cached, c.coupons)
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	coupons, err := c.inner.List(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.coupons = coupons
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	out := make([]Coupon, len(coupons))
	copy(out, coupons)
	return out, nil
}

func (c *CachedCatalog) Invalidate() {
	c.mu.Lock()
	c.coupons = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}
