package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpgomezm1/zeendr-checkout-service/internal/backend"
)

type fakeInfoSource struct {
	info *backend.TenantInfo
	err  error
}

func (f *fakeInfoSource) FetchTenantInfo(ctx context.Context, establecimiento string) (*backend.TenantInfo, error) {
	return f.info, f.err
}

func TestResolve(t *testing.T) {
	p := NewProvider(&fakeInfoSource{info: &backend.TenantInfo{
		LogoURL:       "https://cdn.example.com/logo.png",
		BannerURLs:    []string{"https://cdn.example.com/banner.png"},
		SocialLinks:   map[string]string{"instagram": "https://instagram.com/lareposteria"},
		AccountNumber: "123-456",
		QRCodeURL:     "https://cdn.example.com/qr.png",
	}})

	tc, err := p.Resolve(context.Background(), "la-reposteria")

	require.NoError(t, err)
	assert.Equal(t, "la-reposteria", tc.Establecimiento)
	assert.Equal(t, "https://cdn.example.com/logo.png", tc.LogoURL)
	assert.Equal(t, "123-456", tc.AccountNumber)
	assert.Equal(t, "https://cdn.example.com/qr.png", tc.QRCodeURL)
	require.Len(t, tc.BannerURLs, 1)
}

func TestResolveFetchFailureReturnsBareContext(t *testing.T) {
	p := NewProvider(&fakeInfoSource{err: errors.New("backend down")})

	tc, err := p.Resolve(context.Background(), "la-reposteria")

	require.Error(t, err)
	assert.Equal(t, "la-reposteria", tc.Establecimiento)
	assert.Empty(t, tc.LogoURL)
}
