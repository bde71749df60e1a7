package checkout

import (
	"context"
	"fmt"
)

const deliveryCostField = "deliveryCost"

// ResolveDeliveryCost resolves the delivery cost for the current address.
// Policy is supersede: every call bumps the resolution generation, and a
// response is applied only if no newer resolution (or address edit)
// happened while it was in flight. The last successful (address, cost)
// pair is cached so resolving the same text again skips the network.
func (s *Session) ResolveDeliveryCost(ctx context.Context) (float64, error) {
	s.mu.Lock()
	if err := s.guardMutable(); err != nil {
		s.mu.Unlock()
		return 0, err
	}

	addr := s.draft.Address.Text
	if addr == "" {
		s.mu.Unlock()
		return 0, ErrAddressRequired
	}

	if addr == s.cachedAddr && s.cachedCost > 0 {
		cost := s.cachedCost
		s.draft.DeliveryCost = &cost
		s.costResolved = true
		delete(s.fieldErrs, deliveryCostField)
		s.touch()
		s.mu.Unlock()
		return cost, nil
	}

	if err := s.toState(StateResolvingCost); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	s.resolveGen++
	gen := s.resolveGen
	s.inflightResolves++
	mode := s.pricingMode
	establecimiento := s.tenant.Establecimiento
	s.touch()
	s.mu.Unlock()

	reqCtx, cancel := s.sessionBound(ctx)
	defer cancel()

	var cost float64
	var err error
	switch mode {
	case PricingModeAddress:
		cost, err = s.backend.AddressDeliveryCost(reqCtx, establecimiento, addr)
	default:
		cost, err = s.backend.TenantDeliveryPrice(reqCtx, establecimiento)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflightResolves--
	s.backToEditing()

	if gen != s.resolveGen || s.draft.Address.Text != addr {
		// A newer resolution or an address edit won the race.
		return 0, ErrResolutionSuperseded
	}

	if err != nil {
		s.fieldErrs[deliveryCostField] = "No se pudo calcular el costo del domicilio"
		s.logger.Printf("delivery cost resolution failed for %q: %v", addr, err)
		return 0, fmt.Errorf("resolve delivery cost: %w", err)
	}

	s.draft.DeliveryCost = &cost
	s.costResolved = true
	s.cachedAddr = addr
	s.cachedCost = cost
	delete(s.fieldErrs, deliveryCostField)
	return cost, nil
}

// Resolving reports whether any delivery resolution is in flight.
func (s *Session) Resolving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflightResolves > 0
}

// CostResolved reports whether the current address has a confirmed cost.
func (s *Session) CostResolved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.costResolved
}
