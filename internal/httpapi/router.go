package httpapi

import (
	"encoding/json"
	"net/http"
)

func NewRouter(h *CheckoutHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", healthHandler)

	mux.HandleFunc("POST /api/checkout/sessions", h.CreateSession)
	mux.HandleFunc("GET /api/checkout/sessions/{sessionId}", h.GetSummary)
	mux.HandleFunc("DELETE /api/checkout/sessions/{sessionId}", h.CloseSession)
	mux.HandleFunc("PUT /api/checkout/sessions/{sessionId}/customer", h.SetCustomer)
	mux.HandleFunc("POST /api/checkout/sessions/{sessionId}/autofill", h.ResolveAutofill)
	mux.HandleFunc("PUT /api/checkout/sessions/{sessionId}/address", h.SetAddress)
	mux.HandleFunc("POST /api/checkout/sessions/{sessionId}/delivery", h.ResolveDelivery)
	mux.HandleFunc("POST /api/checkout/sessions/{sessionId}/coupon", h.ApplyCoupon)
	mux.HandleFunc("PUT /api/checkout/sessions/{sessionId}/payment", h.SetPayment)
	mux.HandleFunc("POST /api/checkout/sessions/{sessionId}/receipt", h.UploadReceipt)
	mux.HandleFunc("PUT /api/checkout/sessions/{sessionId}/schedule", h.SetSchedule)
	mux.HandleFunc("POST /api/checkout/sessions/{sessionId}/submit", h.Submit)

	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "checkout-service",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
