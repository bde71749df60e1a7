package checkout

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpgomezm1/zeendr-checkout-service/internal/backend"
	"github.com/jpgomezm1/zeendr-checkout-service/internal/cart"
	"github.com/jpgomezm1/zeendr-checkout-service/internal/events"
	"github.com/jpgomezm1/zeendr-checkout-service/internal/journal"
	"github.com/jpgomezm1/zeendr-checkout-service/internal/tenant"
)

// Backend is what the checkout core needs from the storefront backend.
type Backend interface {
	Coupons(ctx context.Context, establecimiento string) ([]backend.Coupon, error)
	TenantDeliveryPrice(ctx context.Context, establecimiento string) (float64, error)
	AddressDeliveryCost(ctx context.Context, establecimiento, destination string) (float64, error)
	FindOrderByPhone(ctx context.Context, phone string) (*backend.PriorOrder, error)
	SubmitOrder(ctx context.Context, establecimiento string, sub backend.OrderSubmission) (string, error)
}

// Recorder journals submit attempts so a repeated submit with the same
// idempotency key replays the recorded outcome instead of re-posting.
type Recorder interface {
	Record(ctx context.Context, e *journal.Entry) error
	FindByIdempotencyKey(ctx context.Context, key string) (*journal.Entry, error)
}

// Publisher announces successful submissions. Optional.
type Publisher interface {
	PublishOrderSubmitted(ctx context.Context, ev events.OrderSubmitted) error
}

// PricingMode mirrors config.PricingMode without importing it; the session
// only needs to know which resolution call to make.
type PricingMode string

const (
	PricingModeTenant  PricingMode = "tenant"
	PricingModeAddress PricingMode = "address"
)

type SessionConfig struct {
	Tenant  tenant.Context
	Cart    *cart.Cart
	Backend Backend

	PricingMode PricingMode

	// Optional collaborators.
	Journal   Recorder
	Publisher Publisher
	Logger    *log.Logger
	Now       func() time.Time
}

// Session owns one checkout workflow: the cart, the order draft, the state
// machine, and the busy flags that keep async responses from racing each
// other. All access goes through the mutex; background completions re-check
// generation counters before touching state.
type Session struct {
	mu sync.Mutex

	id     string
	tenant tenant.Context
	cart   *cart.Cart
	draft  Draft
	state  State

	// Persistent field-level messages: resolution errors and the advisory
	// coupon message. Validation errors are recomputed per attempt and
	// never stored here.
	fieldErrs map[string]string

	// Delivery resolution bookkeeping.
	resolveGen       uint64
	inflightResolves int
	costResolved     bool
	cachedAddr       string
	cachedCost       float64

	submitting bool

	pendingAutofill *backend.PriorOrder
	lastPhone       string

	pricingMode PricingMode
	backend     Backend
	journal     Recorder
	publisher   Publisher
	logger      *log.Logger
	now         func() time.Time

	idempotencyKey string
	lastActivity   time.Time

	// ctx is cancelled by Close so late async responses can never mutate a
	// torn-down session.
	ctx    context.Context
	cancel context.CancelFunc
}

func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Cart == nil || cfg.Cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if cfg.Backend == nil {
		return nil, fmt.Errorf("checkout session requires a backend")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.PricingMode == "" {
		cfg.PricingMode = PricingModeTenant
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:             uuid.NewString(),
		tenant:         cfg.Tenant,
		cart:           cfg.Cart,
		state:          StateEditing,
		fieldErrs:      map[string]string{},
		pricingMode:    cfg.PricingMode,
		backend:        cfg.Backend,
		journal:        cfg.Journal,
		publisher:      cfg.Publisher,
		logger:         cfg.Logger,
		now:            cfg.Now,
		idempotencyKey: uuid.NewString(),
		ctx:            ctx,
		cancel:         cancel,
	}
	s.lastActivity = s.now()
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Tenant() tenant.Context { return s.tenant }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Close cancels the session's lifetime context. In-flight resolutions and
// submissions bound to it are abandoned.
func (s *Session) Close() {
	s.cancel()
}

func (s *Session) Closed() bool {
	select {
	case <-s.ctx.Done():
		return true
	default:
		return false
	}
}

// toState moves the machine, erroring on anything outside the table.
// Callers hold the mutex.
func (s *Session) toState(to State) error {
	if !s.state.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.state, to)
	}
	s.state = to
	return nil
}

// guardMutable rejects edits once the session is terminal, closed, or has a
// submission in flight. Callers hold the mutex.
func (s *Session) guardMutable() error {
	if s.Closed() {
		return ErrSessionClosed
	}
	if s.state == StateSucceeded {
		return ErrAlreadySubmitted
	}
	if s.submitting {
		return ErrSubmitInFlight
	}
	return nil
}

func (s *Session) touch() {
	s.lastActivity = s.now()
}

// editing returns the machine to editing after a failed attempt or a
// finished resolution. Callers hold the mutex.
func (s *Session) backToEditing() {
	if s.state == StateValidating || (s.state == StateResolvingCost && s.inflightResolves == 0) {
		s.state = StateEditing
	}
}

// SetCustomer updates name, email and phone. When the phone value changes
// and lands on exactly 10 digits, a prior-order lookup runs; a hit returns
// an autofill prompt that the caller must accept or decline before any
// field is touched. A miss is silent, and so is a lookup failure.
func (s *Session) SetCustomer(ctx context.Context, name, email, phone string) (*AutofillPrompt, error) {
	s.mu.Lock()
	if err := s.guardMutable(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.draft.Customer.Name = name
	s.draft.Customer.Email = email
	s.draft.Customer.Phone = phone
	s.touch()

	trigger := phone != s.lastPhone && phonePattern.MatchString(phone)
	s.lastPhone = phone
	s.mu.Unlock()

	if !trigger {
		return nil, nil
	}

	reqCtx, cancel := s.sessionBound(ctx)
	defer cancel()

	pedido, err := s.backend.FindOrderByPhone(reqCtx, phone)
	if err != nil {
		s.logger.Printf("prior-order lookup failed for phone %s: %v", phone, err)
		return nil, nil
	}
	if pedido == nil {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft.Customer.Phone != phone {
		// Phone changed while the lookup was in flight; stale hit.
		return nil, nil
	}
	s.pendingAutofill = pedido
	return &AutofillPrompt{CustomerName: pedido.NombreCompleto}, nil
}

// SetAddress replaces the address text and details. Changing the text after
// a cost was resolved re-arms the must-resolve gate: the resolved flag and
// the cost are dropped, and any in-flight resolution is superseded.
func (s *Session) SetAddress(text, details string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardMutable(); err != nil {
		return err
	}

	if text != s.draft.Address.Text {
		s.draft.DeliveryCost = nil
		s.costResolved = false
		s.resolveGen++
	}
	s.draft.Address.Text = text
	s.draft.Address.Details = details
	s.touch()
	return nil
}

// SetPayment selects the payment method and drops any uploaded receipt,
// since a receipt only belongs to the method it was uploaded for.
func (s *Session) SetPayment(method PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardMutable(); err != nil {
		return err
	}
	s.draft.Payment = method
	s.draft.Receipt = nil
	s.touch()
	return nil
}

func (s *Session) AttachReceipt(filename string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardMutable(); err != nil {
		return err
	}
	s.draft.Receipt = &Receipt{Filename: filename, Content: content}
	s.touch()
	return nil
}

func (s *Session) SetSchedule(enabled bool, date, timeRange string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardMutable(); err != nil {
		return err
	}
	s.draft.Schedule = Schedule{Enabled: enabled, Date: date, TimeRange: timeRange}
	s.touch()
	return nil
}

// Validate runs the full form validation and merges in the persistent
// advisory messages. Advisory messages never flip Valid.
func (s *Session) Validate() ValidationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateLocked()
}

func (s *Session) validateLocked() ValidationResult {
	res := ValidateDraft(s.draft)
	if msg, ok := s.fieldErrs["discountCode"]; ok {
		res.Errors["discountCode"] = msg
	}
	return res
}

// FieldErrors returns a copy of the persistent field messages.
func (s *Session) FieldErrors() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.fieldErrs))
	for k, v := range s.fieldErrs {
		out[k] = v
	}
	return out
}

// Totals is the running money math shown in the order summary.
type Totals struct {
	TotalItems   int
	Subtotal     float64
	DeliveryCost *float64
	Discount     float64
	Total        float64
}

func (s *Session) Totals() Totals {
	s.mu.Lock()
	cost := s.draft.DeliveryCost
	discount := s.draft.Discount
	s.mu.Unlock()

	t := Totals{
		TotalItems:   s.cart.TotalItems(),
		Subtotal:     s.cart.TotalPrice(),
		DeliveryCost: cost,
		Discount:     discount,
	}
	t.Total = t.Subtotal - t.Discount
	if cost != nil {
		t.Total += *cost
	}
	return t
}

// Summary is the full session view for the storefront.
type Summary struct {
	SessionID string
	State     State
	Tenant    tenant.Context
	Customer  CustomerInfo
	Address   Address
	Payment   PaymentMethod
	Schedule  Schedule
	Items     []cart.Item
	Totals    Totals
	Errors    map[string]string
}

func (s *Session) Summary() Summary {
	totals := s.Totals()
	s.mu.Lock()
	sum := Summary{
		SessionID: s.id,
		State:     s.state,
		Tenant:    s.tenant,
		Customer:  s.draft.Customer,
		Address:   s.draft.Address,
		Payment:   s.draft.Payment,
		Schedule:  s.draft.Schedule,
		Totals:    totals,
		Errors:    make(map[string]string, len(s.fieldErrs)),
	}
	for k, v := range s.fieldErrs {
		sum.Errors[k] = v
	}
	s.mu.Unlock()
	sum.Items = s.cart.Items()
	return sum
}

// sessionBound derives a request context that dies with either the caller
// or the session, whichever goes first.
func (s *Session) sessionBound(ctx context.Context) (context.Context, context.CancelFunc) {
	reqCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return reqCtx, func() {
		stop()
		cancel()
	}
}
