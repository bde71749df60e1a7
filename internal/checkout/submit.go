package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jpgomezm1/zeendr-checkout-service/internal/backend"
	"github.com/jpgomezm1/zeendr-checkout-service/internal/events"
	"github.com/jpgomezm1/zeendr-checkout-service/internal/journal"
)

// Submit assembles the order payload and posts it to the backend. It is
// gated three ways: the form must validate, Transfer needs a receipt, and
// only one submission may be in flight. Success clears the cart and moves
// the session to succeeded; failure keeps the draft untouched for retry.
func (s *Session) Submit(ctx context.Context) (*Confirmation, error) {
	s.mu.Lock()
	if s.Closed() {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.state == StateSucceeded {
		s.mu.Unlock()
		return nil, ErrAlreadySubmitted
	}
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmitInFlight
	}

	if err := s.toState(StateValidating); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	res := s.validateLocked()
	if !res.Valid {
		s.backToEditing()
		s.mu.Unlock()
		return nil, &ValidationError{Errors: res.Errors}
	}
	if s.draft.Payment == PaymentTransfer && s.draft.Receipt == nil {
		s.backToEditing()
		s.mu.Unlock()
		return nil, ErrReceiptRequired
	}

	if err := s.toState(StateSubmitting); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.submitting = true
	s.touch()

	sub := s.buildSubmissionLocked()
	establecimiento := s.tenant.Establecimiento
	customerName := s.draft.Customer.Name
	key := s.idempotencyKey
	total := s.totalLocked()
	s.mu.Unlock()

	// A retry of an already-recorded successful submission must not hit the
	// backend twice.
	if s.journal != nil {
		prev, err := s.journal.FindByIdempotencyKey(ctx, key)
		if err != nil {
			s.logger.Printf("journal lookup failed for key %s: %v", key, err)
		} else if prev != nil && prev.Status == journal.StatusSubmitted {
			s.logger.Printf("replaying recorded submission %s for session %s", prev.OrderID, s.id)
			return s.finishSuccess(ctx, prev.OrderID, establecimiento, customerName, false)
		}
	}

	reqCtx, cancel := s.sessionBound(ctx)
	defer cancel()

	orderID, err := s.backend.SubmitOrder(reqCtx, establecimiento, sub)
	if err != nil {
		s.mu.Lock()
		s.submitting = false
		_ = s.toState(StateFailed)
		s.mu.Unlock()
		s.record(ctx, key, journal.StatusFailed, "", total)
		return nil, fmt.Errorf("submit order: %w", err)
	}

	s.record(ctx, key, journal.StatusSubmitted, orderID, total)
	return s.finishSuccess(ctx, orderID, establecimiento, customerName, true)
}

// Submitting reports whether a submission is in flight.
func (s *Session) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

func (s *Session) finishSuccess(ctx context.Context, orderID, establecimiento, customerName string, publish bool) (*Confirmation, error) {
	items := s.cart.Items()
	totalAmount := s.totalSnapshot()

	s.mu.Lock()
	s.submitting = false
	_ = s.toState(StateSucceeded)
	s.mu.Unlock()

	s.cart.Clear()

	if publish && s.publisher != nil {
		ev := events.OrderSubmitted{
			OrderID:         orderID,
			SessionID:       s.id,
			Establecimiento: establecimiento,
			CustomerName:    customerName,
			TotalAmount:     totalAmount,
			Items:           items,
		}
		if err := s.publisher.PublishOrderSubmitted(ctx, ev); err != nil {
			s.logger.Printf("publish OrderSubmitted for session %s: %v", s.id, err)
		}
	}

	return &Confirmation{
		Establecimiento: establecimiento,
		CustomerName:    customerName,
		OrderID:         orderID,
	}, nil
}

func (s *Session) record(ctx context.Context, key, status, orderID string, total float64) {
	if s.journal == nil {
		return
	}
	entry := &journal.Entry{
		ID:              uuid.NewString(),
		SessionID:       s.id,
		Establecimiento: s.tenant.Establecimiento,
		IdempotencyKey:  key,
		Status:          status,
		OrderID:         orderID,
		TotalAmount:     total,
		CreatedAt:       s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.journal.Record(ctx, entry); err != nil {
		s.logger.Printf("journal record failed for session %s: %v", s.id, err)
	}
}

// buildSubmissionLocked snapshots the cart and draft into the wire payload.
// Callers hold the mutex.
func (s *Session) buildSubmissionLocked() backend.OrderSubmission {
	sub := backend.OrderSubmission{
		NombreCompleto:    s.draft.Customer.Name,
		NumeroTelefono:    s.draft.Customer.Phone,
		CorreoElectronico: s.draft.Customer.Email,
		Direccion:         s.draft.Address.Text,
		DetallesDireccion: s.draft.Address.Details,
		Productos:         s.cart.Items(),
		MetodoPago:        string(s.draft.Payment),
		CodigoDescuento:   s.draft.DiscountCode,
	}
	if s.draft.DeliveryCost != nil {
		sub.CostoDomicilio = *s.draft.DeliveryCost
	}
	if s.draft.Schedule.Enabled {
		sub.FechaEntrega = s.draft.Schedule.Date
		sub.RangoHoras = s.draft.Schedule.TimeRange
	}
	if s.draft.Receipt != nil {
		sub.Comprobante = &backend.ReceiptFile{
			Filename: s.draft.Receipt.Filename,
			Content:  s.draft.Receipt.Content,
		}
	}
	return sub
}

// totalLocked is subtotal + delivery - discount. Callers hold the mutex.
func (s *Session) totalLocked() float64 {
	total := s.cart.TotalPrice() - s.draft.Discount
	if s.draft.DeliveryCost != nil {
		total += *s.draft.DeliveryCost
	}
	return total
}

func (s *Session) totalSnapshot() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked()
}
