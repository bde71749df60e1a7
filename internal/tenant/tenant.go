package tenant

import (
	"context"
	"fmt"

	"github.com/jpgomezm1/zeendr-checkout-service/internal/backend"
)

// Context is the read-only tenant identity threaded through a checkout
// session. The checkout core never mutates it.
type Context struct {
	Establecimiento string
	LogoURL         string
	BannerURLs      []string
	SocialLinks     map[string]string

	// Payment metadata shown when Transfer is selected.
	AccountNumber string
	QRCodeURL     string
}

type infoSource interface {
	FetchTenantInfo(ctx context.Context, establecimiento string) (*backend.TenantInfo, error)
}

// Provider resolves tenant contexts from the backend.
type Provider struct {
	source infoSource
}

func NewProvider(source infoSource) *Provider {
	return &Provider{source: source}
}

// Resolve builds the tenant context for an establecimiento. A fetch failure
// is a resolution error: the caller may proceed with a bare context.
func (p *Provider) Resolve(ctx context.Context, establecimiento string) (Context, error) {
	tc := Context{Establecimiento: establecimiento}

	info, err := p.source.FetchTenantInfo(ctx, establecimiento)
	if err != nil {
		return tc, fmt.Errorf("resolve tenant %q: %w", establecimiento, err)
	}

	tc.LogoURL = info.LogoURL
	tc.BannerURLs = info.BannerURLs
	tc.SocialLinks = info.SocialLinks
	tc.AccountNumber = info.AccountNumber
	tc.QRCodeURL = info.QRCodeURL
	return tc, nil
}
