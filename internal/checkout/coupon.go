package checkout

import (
	"context"
	"fmt"
)

const discountCodeField = "discountCode"

// ApplyCoupon validates a discount code against the tenant's coupon list
// and computes the discount from the current cart subtotal. A miss resets
// the discount to zero and leaves an advisory message on the code field;
// it never blocks submission. Matching is exact and case-sensitive.
// Called only on explicit user action.
func (s *Session) ApplyCoupon(ctx context.Context, code string) (float64, error) {
	s.mu.Lock()
	if err := s.guardMutable(); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	s.draft.DiscountCode = code
	establecimiento := s.tenant.Establecimiento
	s.touch()
	s.mu.Unlock()

	subtotal := s.cart.TotalPrice()

	reqCtx, cancel := s.sessionBound(ctx)
	defer cancel()

	coupons, err := s.backend.Coupons(reqCtx, establecimiento)
	if err != nil {
		// Fetch failure leaves the discount untouched; the user can retry.
		s.logger.Printf("coupon validation failed for %q: %v", code, err)
		return 0, fmt.Errorf("validate coupon: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range coupons {
		if c.Nombre == code {
			s.draft.Discount = subtotal * c.Descuento / 100
			delete(s.fieldErrs, discountCodeField)
			return s.draft.Discount, nil
		}
	}

	s.draft.Discount = 0
	s.fieldErrs[discountCodeField] = "El cupón no es válido o está congelado"
	return 0, nil
}

// Discount returns the currently applied discount amount.
func (s *Session) Discount() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Discount
}
