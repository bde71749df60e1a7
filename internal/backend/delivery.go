package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// TenantDeliveryPrice returns the flat delivery price keyed only by tenant.
func (c *Client) TenantDeliveryPrice(ctx context.Context, establecimiento string) (float64, error) {
	resp, err := c.do(ctx, http.MethodGet, "/domicilio-price-noauth", tenantQuery(establecimiento), nil, "")
	if err != nil {
		return 0, fmt.Errorf("fetch delivery price: %w", err)
	}
	defer drainAndClose(resp)

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch delivery price: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode delivery price: %w", err)
	}
	return body.Price, nil
}

// AddressDeliveryCost quotes delivery for a specific destination address.
func (c *Client) AddressDeliveryCost(ctx context.Context, establecimiento, destination string) (float64, error) {
	payload, err := json.Marshal(map[string]string{"destination": destination})
	if err != nil {
		return 0, fmt.Errorf("marshal destination: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/calcular_costo", tenantQuery(establecimiento), bytes.NewReader(payload), "application/json")
	if err != nil {
		return 0, fmt.Errorf("calculate delivery cost: %w", err)
	}
	defer drainAndClose(resp)

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("calculate delivery cost: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		CostoDomicilio float64 `json:"costo_domicilio"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode delivery cost: %w", err)
	}
	return body.CostoDomicilio, nil
}
