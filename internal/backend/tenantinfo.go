package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// TenantInfo is the branding and payment metadata the backend keeps per
// establecimiento.
type TenantInfo struct {
	LogoURL       string            `json:"logo_url"`
	BannerURLs    []string          `json:"banner_urls"`
	SocialLinks   map[string]string `json:"social_links"`
	AccountNumber string            `json:"account_number"`
	QRCodeURL     string            `json:"qr_code_url"`
}

// FetchTenantInfo loads the tenant's branding and payment metadata.
func (c *Client) FetchTenantInfo(ctx context.Context, establecimiento string) (*TenantInfo, error) {
	resp, err := c.do(ctx, http.MethodGet, "/logo", tenantQuery(establecimiento), nil, "")
	if err != nil {
		return nil, fmt.Errorf("fetch tenant info: %w", err)
	}
	defer drainAndClose(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch tenant info: unexpected status %d", resp.StatusCode)
	}

	var info TenantInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode tenant info: %w", err)
	}
	return &info, nil
}
