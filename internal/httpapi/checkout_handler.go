package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/jpgomezm1/zeendr-checkout-service/internal/cart"
	"github.com/jpgomezm1/zeendr-checkout-service/internal/checkout"
	"github.com/jpgomezm1/zeendr-checkout-service/internal/tenant"
)

// 5 MB is plenty for a payment receipt photo.
const maxReceiptSize = 5 << 20

// TenantResolver builds the tenant context for an establecimiento.
type TenantResolver interface {
	Resolve(ctx context.Context, establecimiento string) (tenant.Context, error)
}

// SessionFactory creates a checkout session for a tenant and cart. main
// closes over the backend, journal and publisher wiring.
type SessionFactory func(tc tenant.Context, c *cart.Cart) (*checkout.Session, error)

type CheckoutHandler struct {
	registry   *checkout.Registry
	tenants    TenantResolver
	newSession SessionFactory
	logger     *log.Logger
}

func NewCheckoutHandler(registry *checkout.Registry, tenants TenantResolver, newSession SessionFactory, logger *log.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		registry:   registry,
		tenants:    tenants,
		newSession: newSession,
		logger:     logger,
	}
}

type createSessionRequest struct {
	Establecimiento string      `json:"establecimiento"`
	Items           []cart.Item `json:"items"`
}

type createSessionResponse struct {
	SessionID  string  `json:"sessionId"`
	TotalItems int     `json:"totalItems"`
	TotalPrice float64 `json:"totalPrice"`
}

func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Establecimiento == "" {
		writeError(w, http.StatusBadRequest, "missing establecimiento")
		return
	}

	c, err := cart.New(req.Items)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// A tenant fetch failure is a resolution error: log it and continue
	// with the bare tenant identity. Payment metadata stays empty.
	tc, err := h.tenants.Resolve(r.Context(), req.Establecimiento)
	if err != nil {
		h.logger.Printf("tenant resolution failed: %v", err)
	}

	s, err := h.newSession(tc, c)
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			writeError(w, http.StatusBadRequest, "cart is empty")
			return
		}
		h.logger.Printf("create session: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create checkout session")
		return
	}
	h.registry.Add(s)

	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID:  s.ID(),
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice(),
	})
}

func (h *CheckoutHandler) session(w http.ResponseWriter, r *http.Request) (*checkout.Session, bool) {
	id := r.PathValue("sessionId")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing sessionId")
		return nil, false
	}
	s, ok := h.registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "checkout session not found")
		return nil, false
	}
	return s, true
}

type summaryResponse struct {
	SessionID string            `json:"sessionId"`
	State     string            `json:"state"`
	Customer  customerDTO       `json:"cliente"`
	Address   addressDTO        `json:"direccion"`
	Payment   string            `json:"metodo_pago"`
	Schedule  scheduleDTO       `json:"programacion"`
	Items     []cart.Item       `json:"items"`
	Totals    totalsDTO         `json:"totales"`
	Errors    map[string]string `json:"errors,omitempty"`
	Tenant    tenantDTO         `json:"establecimiento"`
}

type customerDTO struct {
	Nombre   string `json:"nombre_completo"`
	Correo   string `json:"correo_electronico"`
	Telefono string `json:"numero_telefono"`
}

type addressDTO struct {
	Direccion string `json:"direccion"`
	Detalles  string `json:"detalles_direccion"`
}

type scheduleDTO struct {
	Programado bool   `json:"programado"`
	Fecha      string `json:"fecha_entrega,omitempty"`
	RangoHoras string `json:"rango_horas,omitempty"`
}

type totalsDTO struct {
	TotalItems     int      `json:"totalItems"`
	Subtotal       float64  `json:"subtotal"`
	CostoDomicilio *float64 `json:"costo_domicilio"`
	Descuento      float64  `json:"descuento"`
	Total          float64  `json:"total"`
}

type tenantDTO struct {
	Establecimiento string `json:"establecimiento"`
	AccountNumber   string `json:"account_number,omitempty"`
	QRCodeURL       string `json:"qr_code_url,omitempty"`
}

func toSummaryResponse(sum checkout.Summary) summaryResponse {
	return summaryResponse{
		SessionID: sum.SessionID,
		State:     sum.State.String(),
		Customer: customerDTO{
			Nombre:   sum.Customer.Name,
			Correo:   sum.Customer.Email,
			Telefono: sum.Customer.Phone,
		},
		Address: addressDTO{
			Direccion: sum.Address.Text,
			Detalles:  sum.Address.Details,
		},
		Payment: string(sum.Payment),
		Schedule: scheduleDTO{
			Programado: sum.Schedule.Enabled,
			Fecha:      sum.Schedule.Date,
			RangoHoras: sum.Schedule.TimeRange,
		},
		Items: sum.Items,
		Totals: totalsDTO{
			TotalItems:     sum.Totals.TotalItems,
			Subtotal:       sum.Totals.Subtotal,
			CostoDomicilio: sum.Totals.DeliveryCost,
			Descuento:      sum.Totals.Discount,
			Total:          sum.Totals.Total,
		},
		Errors: sum.Errors,
		Tenant: tenantDTO{
			Establecimiento: sum.Tenant.Establecimiento,
			AccountNumber:   sum.Tenant.AccountNumber,
			QRCodeURL:       sum.Tenant.QRCodeURL,
		},
	}
}

func (h *CheckoutHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResponse(s.Summary()))
}

func (h *CheckoutHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("sessionId")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing sessionId")
		return
	}
	h.registry.Remove(id)
	w.WriteHeader(http.StatusNoContent)
}

type setCustomerRequest struct {
	Nombre   string `json:"nombre_completo"`
	Correo   string `json:"correo_electronico"`
	Telefono string `json:"numero_telefono"`
}

type setCustomerResponse struct {
	Autofill *autofillDTO `json:"autofill,omitempty"`
}

type autofillDTO struct {
	NombreCompleto string `json:"nombre_completo"`
}

func (h *CheckoutHandler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req setCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	prompt, err := s.SetCustomer(r.Context(), req.Nombre, req.Correo, req.Telefono)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	resp := setCustomerResponse{}
	if prompt != nil {
		resp.Autofill = &autofillDTO{NombreCompleto: prompt.CustomerName}
	}
	writeJSON(w, http.StatusOK, resp)
}

type resolveAutofillRequest struct {
	Accept bool `json:"accept"`
}

func (h *CheckoutHandler) ResolveAutofill(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req resolveAutofillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var err error
	if req.Accept {
		err = s.AcceptAutofill()
	} else {
		err = s.DeclineAutofill()
	}
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResponse(s.Summary()))
}

type setAddressRequest struct {
	Direccion string `json:"direccion"`
	Detalles  string `json:"detalles_direccion"`
}

func (h *CheckoutHandler) SetAddress(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req setAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.SetAddress(req.Direccion, req.Detalles); err != nil {
		h.writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CheckoutHandler) ResolveDelivery(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	cost, err := s.ResolveDeliveryCost(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrAddressRequired):
			writeError(w, http.StatusUnprocessableEntity, "la dirección es requerida")
		case errors.Is(err, checkout.ErrResolutionSuperseded):
			writeError(w, http.StatusConflict, "resolution superseded by a newer request")
		default:
			h.writeSessionError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"costo_domicilio": cost})
}

type applyCouponRequest struct {
	Codigo string `json:"codigo_descuento"`
}

type applyCouponResponse struct {
	Descuento float64 `json:"descuento"`
	Error     string  `json:"error,omitempty"`
}

func (h *CheckoutHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req applyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	discount, err := s.ApplyCoupon(r.Context(), req.Codigo)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, applyCouponResponse{
		Descuento: discount,
		Error:     s.FieldErrors()["discountCode"],
	})
}

type setPaymentRequest struct {
	Metodo string `json:"metodo_pago"`
}

func (h *CheckoutHandler) SetPayment(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req setPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.SetPayment(checkout.PaymentMethod(req.Metodo)); err != nil {
		h.writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CheckoutHandler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("comprobante")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing comprobante file")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxReceiptSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read comprobante")
		return
	}

	if err := s.AttachReceipt(header.Filename, content); err != nil {
		h.writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setScheduleRequest struct {
	Programado bool   `json:"programado"`
	Fecha      string `json:"fecha_entrega"`
	RangoHoras string `json:"rango_horas"`
}

func (h *CheckoutHandler) SetSchedule(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req setScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.SetSchedule(req.Programado, req.Fecha, req.RangoHoras); err != nil {
		h.writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type submitResponse struct {
	OrderID         string `json:"orderId,omitempty"`
	NombreCompleto  string `json:"nombre_completo"`
	Establecimiento string `json:"establecimiento"`
}

func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	conf, err := s.Submit(r.Context())
	if err != nil {
		var verr *checkout.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": verr.Errors})
		case errors.Is(err, checkout.ErrReceiptRequired):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"errors": map[string]string{"receipt": "Por favor, carga el comprobante de pago"},
			})
		case errors.Is(err, checkout.ErrSubmitInFlight):
			writeError(w, http.StatusConflict, "a submission is already in flight")
		case errors.Is(err, checkout.ErrAlreadySubmitted):
			writeError(w, http.StatusConflict, "order was already submitted")
		default:
			h.logger.Printf("submit failed: %v", err)
			writeError(w, http.StatusBadGateway, "no se pudo enviar el pedido")
		}
		return
	}

	writeJSON(w, http.StatusCreated, submitResponse{
		OrderID:         conf.OrderID,
		NombreCompleto:  conf.CustomerName,
		Establecimiento: conf.Establecimiento,
	})
}

func (h *CheckoutHandler) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrSessionClosed):
		writeError(w, http.StatusGone, "checkout session is closed")
	case errors.Is(err, checkout.ErrAlreadySubmitted):
		writeError(w, http.StatusConflict, "order was already submitted")
	case errors.Is(err, checkout.ErrSubmitInFlight):
		writeError(w, http.StatusConflict, "a submission is already in flight")
	case errors.Is(err, checkout.ErrNoPendingAutofill):
		writeError(w, http.StatusConflict, "no autofill prompt is pending")
	default:
		h.logger.Printf("session operation failed: %v", err)
		writeError(w, http.StatusBadGateway, "operation failed")
	}
}
