package checkout

// AutofillPrompt asks the user whether to prefill the form from a prior
// order found by phone number. Nothing is applied until AcceptAutofill.
type AutofillPrompt struct {
	CustomerName string
}

// AcceptAutofill applies the pending prior order to the form: name, email,
// address and payment method. Because the address changes out from under
// the resolver, any resolved delivery cost is invalidated and the
// must-resolve gate is re-armed.
func (s *Session) AcceptAutofill() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardMutable(); err != nil {
		return err
	}
	if s.pendingAutofill == nil {
		return ErrNoPendingAutofill
	}

	pedido := s.pendingAutofill
	s.pendingAutofill = nil

	s.draft.Customer.Name = pedido.NombreCompleto
	s.draft.Customer.Email = pedido.CorreoElectronico
	s.draft.Address.Text = pedido.Direccion
	s.draft.Payment = PaymentMethod(pedido.MetodoPago)
	s.draft.Receipt = nil

	s.draft.DeliveryCost = nil
	s.costResolved = false
	s.cachedAddr = ""
	s.cachedCost = 0
	s.resolveGen++

	s.touch()
	return nil
}

// DeclineAutofill discards the pending prior order, leaving every field
// exactly as typed.
func (s *Session) DeclineAutofill() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingAutofill == nil {
		return ErrNoPendingAutofill
	}
	s.pendingAutofill = nil
	s.touch()
	return nil
}

// AutofillPending reports whether a prompt is waiting on the user.
func (s *Session) AutofillPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingAutofill != nil
}
