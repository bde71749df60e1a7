package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Coupon is a tenant-scoped discount as the backend serves it.
type Coupon struct {
	Nombre    string  `json:"nombre"`
	Descuento float64 `json:"descuento"`
}

// Coupons fetches the tenant's available coupon list.
func (c *Client) Coupons(ctx context.Context, establecimiento string) ([]Coupon, error) {
	resp, err := c.do(ctx, http.MethodGet, "/cupones_disponibles", tenantQuery(establecimiento), nil, "")
	if err != nil {
		return nil, fmt.Errorf("fetch coupons: %w", err)
	}
	defer drainAndClose(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch coupons: unexpected status %d", resp.StatusCode)
	}

	var coupons []Coupon
	if err := json.NewDecoder(resp.Body).Decode(&coupons); err != nil {
		return nil, fmt.Errorf("decode coupons: %w", err)
	}
	return coupons, nil
}
