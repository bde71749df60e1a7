package backend

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/jpgomezm1/zeendr-checkout-service/internal/cache"
)

// Service is the full surface the rest of the service consumes from the
// storefront backend. *Client implements it.
type Service interface {
	Coupons(ctx context.Context, establecimiento string) ([]Coupon, error)
	TenantDeliveryPrice(ctx context.Context, establecimiento string) (float64, error)
	AddressDeliveryCost(ctx context.Context, establecimiento, destination string) (float64, error)
	FindOrderByPhone(ctx context.Context, phone string) (*PriorOrder, error)
	FetchTenantInfo(ctx context.Context, establecimiento string) (*TenantInfo, error)
	SubmitOrder(ctx context.Context, establecimiento string, sub OrderSubmission) (string, error)
}

// CachedClient caches the slow-changing tenant-scoped reads (coupon lists,
// tenant metadata). Everything else passes through. Cache failures degrade
// to a direct fetch; they never fail the call.
type CachedClient struct {
	Service
	cache  cache.Cache
	logger *log.Logger
}

func NewCachedClient(inner Service, c cache.Cache, logger *log.Logger) *CachedClient {
	return &CachedClient{Service: inner, cache: c, logger: logger}
}

func (c *CachedClient) Coupons(ctx context.Context, establecimiento string) ([]Coupon, error) {
	key := "coupons:" + establecimiento

	if data, err := c.cache.Get(ctx, key); err == nil {
		var coupons []Coupon
		if err := json.Unmarshal(data, &coupons); err == nil {
			return coupons, nil
		}
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Printf("coupon cache read failed: %v", err)
	}

	coupons, err := c.Service.Coupons(ctx, establecimiento)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(coupons); err == nil {
		if err := c.cache.Set(ctx, key, data); err != nil {
			c.logger.Printf("coupon cache write failed: %v", err)
		}
	}
	return coupons, nil
}

func (c *CachedClient) FetchTenantInfo(ctx context.Context, establecimiento string) (*TenantInfo, error) {
	key := "tenantinfo:" + establecimiento

	if data, err := c.cache.Get(ctx, key); err == nil {
		var info TenantInfo
		if err := json.Unmarshal(data, &info); err == nil {
			return &info, nil
		}
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Printf("tenant info cache read failed: %v", err)
	}

	info, err := c.Service.FetchTenantInfo(ctx, establecimiento)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(info); err == nil {
		if err := c.cache.Set(ctx, key, data); err != nil {
			c.logger.Printf("tenant info cache write failed: %v", err)
		}
	}
	return info, nil
}
