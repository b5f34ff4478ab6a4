package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/orders"
	"github.com/angelmondragon/storefront/internal/pricing"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/angelmondragon/storefront/pkg/validation"
)

// PickupAddress is sent as the delivery address of pickup orders, which
// collect none.
const PickupAddress = "Pickup at store"

type cartReader interface {
	Snapshot() cart.Projection
	Fetch(ctx context.Context) (cart.Projection, error)
}

type orderCreator interface {
	Create(ctx context.Context, req orders.CreateRequest, idempotencyKey string) (*orders.Order, error)
}

type balanceReader interface {
	Balance(ctx context.Context) (decimal.Decimal, error)
}

// FlowParams bundle the Flow dependencies.
type FlowParams struct {
	Cart   cartReader
	Orders orderCreator
	Wallet balanceReader
	Promos pricing.PromoValidator
	// Policy defaults to pricing.DefaultPolicy.
	Policy *pricing.Policy
	Logger *logger.Logger
	// NewKey mints the idempotency key of one checkout attempt.
	NewKey func() string
}

// DeliveryInput is the delivery_method step.
type DeliveryInput struct {
	Method enums.DeliveryMethod `json:"delivery_method" validate:"required"`
}

// AddressInput is the address step; only courier and mail visit it.
type AddressInput = types.AddressDetails

// PaymentInput is the payment step. Pickup orders take the contact from here
// since they skip the address step.
type PaymentInput struct {
	Method       enums.PaymentMethod `json:"payment_method" validate:"required"`
	ContactName  string              `json:"contact_name,omitempty" validate:"omitempty,max=100"`
	ContactPhone string              `json:"contact_phone,omitempty" validate:"omitempty,phone"`
}

// Result is what a successful submit hands back for navigation.
type Result struct {
	OrderID int64 `json:"order_id"`
}

// View is a point-in-time copy of the flow.
type View struct {
	Active      bool               `json:"active"`
	Step        enums.CheckoutStep `json:"step"`
	Delivery    *DeliveryInput     `json:"delivery,omitempty"`
	Address     *AddressInput      `json:"address,omitempty"`
	Payment     *PaymentInput      `json:"payment,omitempty"`
	Promo       *pricing.Promo     `json:"promo,omitempty"`
	Totals      *pricing.Totals    `json:"totals,omitempty"`
	FieldErrors map[string]string  `json:"field_errors,omitempty"`
	Submitting  bool               `json:"submitting"`
	Result      *Result            `json:"result,omitempty"`
}

// Flow is the checkout state machine of one session. Every method is safe
// for concurrent use.
type Flow struct {
	cart   cartReader
	orders orderCreator
	wallet balanceReader
	promos pricing.PromoValidator
	policy pricing.Policy
	logg   *logger.Logger
	newKey func() string

	mu          sync.Mutex
	active      bool
	step        enums.CheckoutStep
	delivery    *DeliveryInput
	address     *AddressInput
	payment     *PaymentInput
	promo       *pricing.Promo
	fieldErrors map[string]string
	submitting  bool
	result      *Result
	key         string
	// gen changes on Reset so a submit started before it cannot land after.
	gen uint64
}

func NewFlow(params FlowParams) (*Flow, error) {
	if params.Cart == nil {
		return nil, fmt.Errorf("cart required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order creator required")
	}
	if params.Wallet == nil {
		return nil, fmt.Errorf("wallet required")
	}
	if params.Promos == nil {
		params.Promos = pricing.DefaultPromos()
	}
	policy := pricing.DefaultPolicy()
	if params.Policy != nil {
		policy = *params.Policy
	}
	if params.NewKey == nil {
		params.NewKey = func() string { return uuid.NewString() }
	}
	return &Flow{
		cart:   params.Cart,
		orders: params.Orders,
		wallet: params.Wallet,
		promos: params.Promos,
		policy: policy,
		logg:   params.Logger,
		newKey: params.NewKey,
		step:   enums.CheckoutStepDeliveryMethod,
	}, nil
}

// Begin starts a fresh checkout from a freshly fetched, non-empty cart.
// Anything collected by an earlier attempt is dropped.
func (f *Flow) Begin(ctx context.Context) (View, error) {
	f.mu.Lock()
	busy := f.submitting
	f.mu.Unlock()
	if busy {
		return f.View(), pkgerrors.New(pkgerrors.CodeConflict, "order submission in progress")
	}

	projection, err := f.cart.Fetch(ctx)
	if err != nil {
		return f.View(), err
	}
	if projection.IsEmpty() {
		return f.View(), pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	f.mu.Lock()
	f.active = true
	f.step = enums.CheckoutStepDeliveryMethod
	f.delivery = nil
	f.address = nil
	f.payment = nil
	f.promo = nil
	f.fieldErrors = nil
	f.result = nil
	f.key = f.newKey()
	view := f.viewLocked()
	f.mu.Unlock()

	f.logg.Info(f.logg.WithField(ctx, "cart_items", projection.TotalItems), "checkout started")
	return view, nil
}

// Reset abandons the checkout: collected data, promo, result and the
// idempotency key are dropped and a new Begin is required.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.active = false
	f.step = enums.CheckoutStepDeliveryMethod
	f.delivery = nil
	f.address = nil
	f.payment = nil
	f.promo = nil
	f.fieldErrors = nil
	f.submitting = false
	f.result = nil
	f.key = ""
}

// SetDelivery completes the delivery_method step.
func (f *Flow) SetDelivery(ctx context.Context, in DeliveryInput) (View, error) {
	method, err := enums.ParseDeliveryMethod(string(in.Method))
	if err != nil {
		return f.reject(ctx, enums.CheckoutStepDeliveryMethod, pkgerrors.Fields("invalid delivery method", map[string]string{"delivery_method": "must be one of: pickup, courier, mail"}))
	}
	in.Method = method

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.atLocked(enums.CheckoutStepDeliveryMethod); err != nil {
		return f.viewLocked(), err
	}
	f.delivery = &in
	f.advanceLocked()
	return f.viewLocked(), nil
}

// SetAddress completes the address step.
func (f *Flow) SetAddress(ctx context.Context, in AddressInput) (View, error) {
	in = in.Trimmed()
	if err := validation.Struct(in); err != nil {
		return f.reject(ctx, enums.CheckoutStepAddress, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.atLocked(enums.CheckoutStepAddress); err != nil {
		return f.viewLocked(), err
	}
	f.address = &in
	f.advanceLocked()
	return f.viewLocked(), nil
}

// SetPayment completes the payment step. Wallet payments check a fresh balance
// against the current total.
func (f *Flow) SetPayment(ctx context.Context, in PaymentInput) (View, error) {
	in.ContactName = strings.TrimSpace(in.ContactName)
	in.ContactPhone = strings.TrimSpace(in.ContactPhone)

	f.mu.Lock()
	if err := f.atLocked(enums.CheckoutStepPayment); err != nil {
		defer f.mu.Unlock()
		return f.viewLocked(), err
	}
	method := f.delivery.Method
	promo := f.promo
	f.mu.Unlock()

	if err := validatePayment(in, method); err != nil {
		return f.reject(ctx, enums.CheckoutStepPayment, err)
	}
	if in.Method == enums.PaymentMethodWallet {
		totals, err := f.policy.Compute(f.cart.Snapshot(), method, promo)
		if err != nil {
			return f.reject(ctx, enums.CheckoutStepPayment, err)
		}
		if err := f.checkWallet(ctx, totals.Total); err != nil {
			return f.reject(ctx, enums.CheckoutStepPayment, err)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.atLocked(enums.CheckoutStepPayment); err != nil {
		return f.viewLocked(), err
	}
	f.payment = &in
	f.advanceLocked()
	return f.viewLocked(), nil
}

// ApplyPromo validates code against the current subtotal and attaches it.
func (f *Flow) ApplyPromo(ctx context.Context, code string) (View, error) {
	f.mu.Lock()
	if err := f.editableLocked(); err != nil {
		defer f.mu.Unlock()
		return f.viewLocked(), err
	}
	f.mu.Unlock()

	promo, err := f.promos.Validate(ctx, code, f.cart.Snapshot().TotalPrice)
	if err != nil {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.fieldErrors = fieldErrorsOf(err)
		return f.viewLocked(), err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.promo = &promo
	f.fieldErrors = nil
	f.logg.Info(f.logg.WithField(ctx, "promo_code", promo.Code), "promo applied")
	return f.viewLocked(), nil
}

func (f *Flow) RemovePromo() (View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editableLocked(); err != nil {
		return f.viewLocked(), err
	}
	f.promo = nil
	return f.viewLocked(), nil
}

// Back returns to the previous step. Collected data is kept.
func (f *Flow) Back() (View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editableLocked(); err != nil {
		return f.viewLocked(), err
	}
	f.step = PrevStep(f.step, f.methodLocked())
	f.fieldErrors = nil
	return f.viewLocked(), nil
}

// Submit places the order. Only one submission runs at a time; a concurrent
// call fails with CONFLICT without reaching the storefront api, and a
// completed submission keeps returning its order. On failure the flow stays
// on confirmation with everything collected so far.
func (f *Flow) Submit(ctx context.Context) (Result, error) {
	f.mu.Lock()
	if f.result != nil {
		res := *f.result
		f.mu.Unlock()
		return res, nil
	}
	if f.submitting {
		f.mu.Unlock()
		return Result{}, pkgerrors.New(pkgerrors.CodeConflict, "order submission in progress")
	}
	if err := f.atLocked(enums.CheckoutStepConfirmation); err != nil {
		f.mu.Unlock()
		return Result{}, err
	}
	f.submitting = true
	delivery := *f.delivery
	payment := *f.payment
	var address *AddressInput
	if f.address != nil {
		a := *f.address
		address = &a
	}
	promo := f.promo
	key := f.key
	gen := f.gen
	f.mu.Unlock()

	order, err := f.submit(ctx, delivery, address, payment, promo, key)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen != gen {
		if err != nil {
			return Result{}, err
		}
		return Result{OrderID: order.ID}, nil
	}
	f.submitting = false
	if err != nil {
		f.fieldErrors = fieldErrorsOf(err)
		return Result{}, err
	}
	f.result = &Result{OrderID: order.ID}
	f.fieldErrors = nil
	return *f.result, nil
}

func (f *Flow) submit(ctx context.Context, delivery DeliveryInput, address *AddressInput, payment PaymentInput, promo *pricing.Promo, key string) (*orders.Order, error) {
	totals, err := f.policy.Compute(f.cart.Snapshot(), delivery.Method, promo)
	if err != nil {
		return nil, err
	}
	if payment.Method == enums.PaymentMethodWallet {
		if err := f.checkWallet(ctx, totals.Total); err != nil {
			return nil, err
		}
	}

	req := orders.CreateRequest{
		DeliveryMethod: delivery.Method,
		DeliveryCost:   totals.DeliveryCost,
		PaymentMethod:  payment.Method,
	}
	if promo != nil {
		req.PromoCode = promo.Code
	}
	if address != nil && delivery.Method.RequiresAddress() {
		req.DeliveryAddress = address.Line()
		req.Phone = address.Phone
		req.Notes = address.Notes
	} else {
		req.DeliveryAddress = PickupAddress
		req.Phone = payment.ContactPhone
		req.Notes = strings.TrimSpace("Contact: " + payment.ContactName)
	}

	ctx = f.logg.WithField(ctx, "idempotency_key", key)
	order, err := f.orders.Create(ctx, req, key)
	if err != nil {
		f.logg.Warn(f.logg.WithField(ctx, "error", err.Error()), "order submission failed")
		return nil, err
	}
	ctx = f.logg.WithOrderID(ctx, order.ID)
	f.logg.Info(f.logg.WithField(ctx, "total", totals.Total.String()), "order placed")

	// the server empties the cart when it creates the order
	if _, err := f.cart.Fetch(ctx); err != nil {
		f.logg.Warn(f.logg.WithField(ctx, "error", err.Error()), "cart refresh after order failed")
	}
	return order, nil
}

// View returns a snapshot of the flow with totals for the current cart.
func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked()
}

func (f *Flow) checkWallet(ctx context.Context, total decimal.Decimal) error {
	balance, err := f.wallet.Balance(ctx)
	if err != nil {
		return err
	}
	if balance.LessThan(total) {
		shortfall := total.Sub(balance)
		return pkgerrors.Fields("insufficient wallet balance", map[string]string{
			"payment_method": fmt.Sprintf("wallet balance is short by %s", shortfall.StringFixed(f.policy.Exponent)),
		})
	}
	return nil
}

// reject records the field errors of a failed step without moving.
func (f *Flow) reject(ctx context.Context, step enums.CheckoutStep, err error) (View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active && f.step == step {
		f.fieldErrors = fieldErrorsOf(err)
	}
	f.logg.Debug(f.logg.WithField(ctx, "step", step.String()), "checkout step rejected")
	return f.viewLocked(), err
}

func (f *Flow) atLocked(step enums.CheckoutStep) error {
	if err := f.editableLocked(); err != nil {
		return err
	}
	if f.step != step {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("checkout is at step %q, not %q", f.step, step))
	}
	return nil
}

func (f *Flow) editableLocked() error {
	if !f.active {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout not started")
	}
	if f.submitting {
		return pkgerrors.New(pkgerrors.CodeConflict, "order submission in progress")
	}
	if f.result != nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order already placed")
	}
	return nil
}

func (f *Flow) advanceLocked() {
	f.step = NextStep(f.step, f.methodLocked())
	f.fieldErrors = nil
}

func (f *Flow) methodLocked() enums.DeliveryMethod {
	if f.delivery == nil {
		return ""
	}
	return f.delivery.Method
}

func (f *Flow) viewLocked() View {
	view := View{
		Active:     f.active,
		Step:       f.step,
		Submitting: f.submitting,
	}
	if f.delivery != nil {
		d := *f.delivery
		view.Delivery = &d
	}
	if f.address != nil {
		a := *f.address
		view.Address = &a
	}
	if f.payment != nil {
		p := *f.payment
		view.Payment = &p
	}
	if f.promo != nil {
		p := *f.promo
		view.Promo = &p
	}
	if f.result != nil {
		r := *f.result
		view.Result = &r
	}
	if len(f.fieldErrors) > 0 {
		view.FieldErrors = make(map[string]string, len(f.fieldErrors))
		for k, v := range f.fieldErrors {
			view.FieldErrors[k] = v
		}
	}
	if f.active {
		// before a method is chosen the totals carry no delivery cost
		method := f.methodLocked()
		if method == "" {
			method = enums.DeliveryMethodPickup
		}
		if totals, err := f.policy.Compute(f.cart.Snapshot(), method, f.promo); err == nil {
			view.Totals = &totals
		}
	}
	return view
}

func validatePayment(in PaymentInput, method enums.DeliveryMethod) error {
	fields := map[string]string{}
	if err := validation.Struct(in); err != nil {
		for k, v := range pkgerrors.As(err).FieldErrors() {
			fields[k] = v
		}
	}
	if in.Method != "" && !in.Method.IsValid() {
		fields["payment_method"] = "must be one of: card, cash, wallet"
	}
	if !method.RequiresAddress() {
		if in.ContactName == "" {
			fields["contact_name"] = "is required for pickup"
		}
		if in.ContactPhone == "" {
			fields["contact_phone"] = "is required for pickup"
		}
	}
	if len(fields) > 0 {
		return pkgerrors.Fields("payment details invalid", fields)
	}
	return nil
}

func fieldErrorsOf(err error) map[string]string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.FieldErrors()
	}
	return nil
}
