package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/jpgomezm1/zeendr-checkout-service/internal/cart"
)

const (
	EventNameOrderSubmitted    = "OrderSubmitted"
	EventVersionOrderSubmitted = 1
	producerName               = "checkout-service"
)

// OrderSubmitted is the payload announcing a successful order submission.
type OrderSubmitted struct {
	OrderID         string      `json:"orderId,omitempty"`
	SessionID       string      `json:"sessionId"`
	Establecimiento string      `json:"establecimiento"`
	CustomerName    string      `json:"customerName"`
	TotalAmount     float64     `json:"totalAmount"`
	Items           []cart.Item `json:"items"`
}

// OrderSubmittedEnvelope is the enveloped form that goes on the wire.
type OrderSubmittedEnvelope = EventEnvelope[OrderSubmitted]

// BuildOrderSubmittedEnvelope wraps the payload with event identity.
// Events are partitioned per tenant so consumers see a tenant's orders
// in publish order.
func BuildOrderSubmittedEnvelope(payload OrderSubmitted) OrderSubmittedEnvelope {
	return OrderSubmittedEnvelope{
		EventName:    EventNameOrderSubmitted,
		EventVersion: EventVersionOrderSubmitted,
		EventID:      uuid.NewString(),
		Producer:     producerName,
		PartitionKey: payload.Establecimiento,
		OccurredAt:   time.Now().UTC(),
		Payload:      payload,
	}
}
