package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpgomezm1/zeendr-checkout-service/internal/backend"
	"github.com/jpgomezm1/zeendr-checkout-service/internal/cart"
	"github.com/jpgomezm1/zeendr-checkout-service/internal/checkout"
	"github.com/jpgomezm1/zeendr-checkout-service/internal/tenant"
)

type stubBackend struct {
	coupons    []backend.Coupon
	priorOrder *backend.PriorOrder
	submitErr  error
}

func (s *stubBackend) Coupons(ctx context.Context, establecimiento string) ([]backend.Coupon, error) {
	return s.coupons, nil
}

func (s *stubBackend) TenantDeliveryPrice(ctx context.Context, establecimiento string) (float64, error) {
	return 3000, nil
}

func (s *stubBackend) AddressDeliveryCost(ctx context.Context, establecimiento, destination string) (float64, error) {
	return 3000, nil
}

func (s *stubBackend) FindOrderByPhone(ctx context.Context, phone string) (*backend.PriorOrder, error) {
	return s.priorOrder, nil
}

func (s *stubBackend) SubmitOrder(ctx context.Context, establecimiento string, sub backend.OrderSubmission) (string, error) {
	if s.submitErr != nil {
		return "", s.submitErr
	}
	return "order-1", nil
}

type stubResolver struct{}

func (stubResolver) Resolve(ctx context.Context, establecimiento string) (tenant.Context, error) {
	return tenant.Context{Establecimiento: establecimiento, AccountNumber: "123-456"}, nil
}

func newTestRouter(t *testing.T, sb *stubBackend) http.Handler {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	registry := checkout.NewRegistry()
	factory := func(tc tenant.Context, c *cart.Cart) (*checkout.Session, error) {
		return checkout.NewSession(checkout.SessionConfig{
			Tenant:  tc,
			Cart:    c,
			Backend: sb,
			Logger:  logger,
		})
	}
	return NewRouter(NewCheckoutHandler(registry, stubResolver{}, factory, logger))
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func createSession(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/checkout/sessions", map[string]any{
		"establecimiento": "la-reposteria",
		"items": []map[string]any{
			{"id": "p1", "nombre": "Brownie de chocolate", "precio": 10000, "cantidad": 2},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[map[string]any](t, rec)
	id, _ := resp["sessionId"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestCreateSession(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})

	rec := doJSON(t, router, http.MethodPost, "/api/checkout/sessions", map[string]any{
		"establecimiento": "la-reposteria",
		"items": []map[string]any{
			{"id": "p1", "nombre": "Brownie de chocolate", "precio": 10000, "cantidad": 2},
		},
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[map[string]any](t, rec)
	assert.NotEmpty(t, resp["sessionId"])
	assert.Equal(t, 2.0, resp["totalItems"])
	assert.Equal(t, 20000.0, resp["totalPrice"])
}

func TestCreateSessionEmptyCart(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})

	rec := doJSON(t, router, http.MethodPost, "/api/checkout/sessions", map[string]any{
		"establecimiento": "la-reposteria",
		"items":           []map[string]any{},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSessionMissingEstablecimiento(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})

	rec := doJSON(t, router, http.MethodPost, "/api/checkout/sessions", map[string]any{
		"items": []map[string]any{
			{"id": "p1", "nombre": "Brownie", "precio": 10000, "cantidad": 1},
		},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSummaryUnknownSession(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})

	rec := doJSON(t, router, http.MethodGet, "/api/checkout/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckoutHappyPath(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})
	id := createSession(t, router)
	base := "/api/checkout/sessions/" + id

	rec := doJSON(t, router, http.MethodPut, base+"/customer", map[string]string{
		"nombre_completo":    "Laura Gómez",
		"correo_electronico": "laura@example.com",
		"numero_telefono":    "3001234567",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPut, base+"/address", map[string]string{
		"direccion":          "Calle 10 # 5-23",
		"detalles_direccion": "Apto 201",
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodPost, base+"/delivery", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cost := decode[map[string]float64](t, rec)
	assert.Equal(t, 3000.0, cost["costo_domicilio"])

	rec = doJSON(t, router, http.MethodPut, base+"/payment", map[string]string{
		"metodo_pago": "Efectivo",
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[map[string]any](t, rec)
	totals := summary["totales"].(map[string]any)
	assert.Equal(t, 23000.0, totals["total"])

	rec = doJSON(t, router, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	conf := decode[map[string]any](t, rec)
	assert.Equal(t, "order-1", conf["orderId"])
	assert.Equal(t, "Laura Gómez", conf["nombre_completo"])
	assert.Equal(t, "la-reposteria", conf["establecimiento"])

	// Repeat submit conflicts.
	rec = doJSON(t, router, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubmitInvalidFormReturnsFieldErrors(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})
	id := createSession(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/checkout/sessions/"+id+"/submit", nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[map[string]map[string]string](t, rec)
	assert.Equal(t, "El nombre es requerido", resp["errors"]["name"])
	assert.Equal(t, "Debe calcular el costo del domicilio", resp["errors"]["deliveryCost"])
}

func TestSubmitBackendFailure(t *testing.T) {
	router := newTestRouter(t, &stubBackend{submitErr: errors.New("backend down")})
	id := createSession(t, router)
	base := "/api/checkout/sessions/" + id

	doJSON(t, router, http.MethodPut, base+"/customer", map[string]string{
		"nombre_completo":    "Laura Gómez",
		"correo_electronico": "laura@example.com",
		"numero_telefono":    "3001234567",
	})
	doJSON(t, router, http.MethodPut, base+"/address", map[string]string{"direccion": "Calle 10 # 5-23"})
	doJSON(t, router, http.MethodPost, base+"/delivery", nil)
	doJSON(t, router, http.MethodPut, base+"/payment", map[string]string{"metodo_pago": "Efectivo"})

	rec := doJSON(t, router, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// The draft survives the failure.
	rec = doJSON(t, router, http.MethodGet, base, nil)
	summary := decode[map[string]any](t, rec)
	cliente := summary["cliente"].(map[string]any)
	assert.Equal(t, "Laura Gómez", cliente["nombre_completo"])
	assert.NotEmpty(t, summary["items"])
}

func TestResolveDeliveryWithoutAddress(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})
	id := createSession(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/checkout/sessions/"+id+"/delivery", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestApplyCoupon(t *testing.T) {
	router := newTestRouter(t, &stubBackend{
		coupons: []backend.Coupon{{Nombre: "DESCUENTO10", Descuento: 10}},
	})
	id := createSession(t, router)
	base := "/api/checkout/sessions/" + id

	rec := doJSON(t, router, http.MethodPost, base+"/coupon", map[string]string{
		"codigo_descuento": "DESCUENTO10",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[map[string]any](t, rec)
	assert.Equal(t, 2000.0, resp["descuento"])
	assert.Nil(t, resp["error"])

	rec = doJSON(t, router, http.MethodPost, base+"/coupon", map[string]string{
		"codigo_descuento": "NOEXISTE",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[map[string]any](t, rec)
	assert.Equal(t, 0.0, resp["descuento"])
	assert.Equal(t, "El cupón no es válido o está congelado", resp["error"])
}

func TestAutofillFlow(t *testing.T) {
	router := newTestRouter(t, &stubBackend{
		priorOrder: &backend.PriorOrder{
			NombreCompleto:    "Laura Gómez",
			CorreoElectronico: "laura@example.com",
			Direccion:         "Calle 10 # 5-23",
			MetodoPago:        "Efectivo",
		},
	})
	id := createSession(t, router)
	base := "/api/checkout/sessions/" + id

	rec := doJSON(t, router, http.MethodPut, base+"/customer", map[string]string{
		"numero_telefono": "3001234567",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[map[string]map[string]string](t, rec)
	require.NotNil(t, resp["autofill"])
	assert.Equal(t, "Laura Gómez", resp["autofill"]["nombre_completo"])

	rec = doJSON(t, router, http.MethodPost, base+"/autofill", map[string]bool{"accept": true})
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[map[string]any](t, rec)
	cliente := summary["cliente"].(map[string]any)
	assert.Equal(t, "Laura Gómez", cliente["nombre_completo"])
	direccion := summary["direccion"].(map[string]any)
	assert.Equal(t, "Calle 10 # 5-23", direccion["direccion"])

	// No prompt left to resolve.
	rec = doJSON(t, router, http.MethodPost, base+"/autofill", map[string]bool{"accept": true})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUploadReceipt(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})
	id := createSession(t, router)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("comprobante", "comprobante.png")
	require.NoError(t, err)
	_, err = part.Write([]byte{0x89, 0x50})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/checkout/sessions/"+id+"/receipt", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUploadReceiptMissingFile(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})
	id := createSession(t, router)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("otro", "campo"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/checkout/sessions/"+id+"/receipt", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetSchedule(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})
	id := createSession(t, router)
	base := "/api/checkout/sessions/" + id

	rec := doJSON(t, router, http.MethodPut, base+"/schedule", map[string]any{
		"programado":    true,
		"fecha_entrega": "2026-09-01",
		"rango_horas":   "12:00 - 14:00",
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, base, nil)
	summary := decode[map[string]any](t, rec)
	programacion := summary["programacion"].(map[string]any)
	assert.Equal(t, true, programacion["programado"])
	assert.Equal(t, "2026-09-01", programacion["fecha_entrega"])
}

func TestCloseSession(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})
	id := createSession(t, router)

	rec := doJSON(t, router, http.MethodDelete, "/api/checkout/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/checkout/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidJSONBody(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})
	id := createSession(t, router)

	req := httptest.NewRequest(http.MethodPut, "/api/checkout/sessions/"+id+"/customer", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[map[string]string](t, rec)
	assert.Equal(t, "ok", resp["status"])
}
