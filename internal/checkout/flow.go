package checkout

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"storefront/internal/cart"
)

// State is the payment confirmation flow's position.
type State int

const (
	// StateIdle means no payment transaction exists yet.
	StateIdle State = iota
	// StateCollectingDetails means a transaction is open and the user is
	// supplying shipping and payment details.
	StateCollectingDetails
	// StateSubmitting means the confirmation call is in flight; no second
	// submission is accepted until it returns or control leaves by redirect.
	StateSubmitting
	// StateSucceeded means the confirmation returned without error.
	StateSucceeded
	// StateFailed means the processor reported a synchronous failure. The
	// transaction stays open and Submit accepts a user-initiated retry, so
	// Failed behaves as CollectingDetails with an error message attached.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollectingDetails:
		return "collecting-details"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// ErrNoTransaction is returned when Submit runs without an open payment
// transaction. The caller should send the user back to the cart.
var ErrNoTransaction = errors.New("no payment transaction open, return to cart")

// ErrSubmitInFlight is returned when a submission is attempted while another
// one has not come back yet.
var ErrSubmitInFlight = errors.New("payment submission already in progress")

// ErrEmptyCart is returned when checkout begins over an empty cart.
var ErrEmptyCart = errors.New("cart is empty")

// Flow drives one checkout attempt from intent creation through the handoff
// to the processor. It is single-writer, driven by user gestures; it is not
// safe for concurrent use and does not need to be.
type Flow struct {
	cart      *cart.Cart
	intents   IntentCreator
	confirmer Confirmer
	returnURL string
	userEmail string

	attemptID    string
	state        State
	clientSecret string
	lastError    string
}

func NewFlow(c *cart.Cart, intents IntentCreator, confirmer Confirmer, returnURL, userEmail string) *Flow {
	return &Flow{
		cart:      c,
		intents:   intents,
		confirmer: confirmer,
		returnURL: returnURL,
		userEmail: userEmail,
		state:     StateIdle,
	}
}

// State reports the flow's current position.
func (f *Flow) State() State { return f.state }

// LastError returns the most recent inline error message, if any.
func (f *Flow) LastError() string { return f.lastError }

// Begin opens the payment transaction for the cart's current total and moves
// the flow to CollectingDetails. A second call on the same flow returns the
// already-obtained secret instead of opening a duplicate transaction.
func (f *Flow) Begin(ctx context.Context) (string, error) {
	if f.clientSecret != "" {
		log.Printf("[CHECKOUT] [INFO] attempt %s already has a transaction, reusing secret", f.attemptID)
		return f.clientSecret, nil
	}

	items := f.cart.Items()
	if len(items) == 0 {
		return "", ErrEmptyCart
	}

	summary := f.cart.Summary()
	secret, err := f.intents.CreateIntent(ctx, summary.Total)
	if err != nil {
		log.Println("[CHECKOUT] [ERROR] payment intent creation failed:", err)
		return "", err
	}

	f.attemptID = uuid.NewString()
	f.clientSecret = secret
	f.state = StateCollectingDetails
	log.Printf("[CHECKOUT] [INFO] attempt %s opened for total %.2f", f.attemptID, summary.Total)
	return secret, nil
}

// Submit validates shipping details, persists them so they survive the
// redirect, and triggers the processor's confirmation. On the success path
// the processor redirects the user away and Submit's nil return is never
// observed by a page; a synchronous error returns the flow to
// CollectingDetails for a user-initiated retry.
func (f *Flow) Submit(ctx context.Context, info ShippingInfo) error {
	switch f.state {
	case StateIdle:
		return ErrNoTransaction
	case StateSubmitting:
		return ErrSubmitInFlight
	}

	info, err := validateShipping(info)
	if err != nil {
		f.lastError = err.Error()
		return err
	}

	// Shipping must be durable before control can leave via redirect.
	if err := saveShipping(f.cart.Store(), info); err != nil {
		return err
	}

	f.state = StateSubmitting
	f.lastError = ""

	confirmErr := f.confirmer.ConfirmPayment(ctx, f.clientSecret, BillingDetails{
		Name:    info.Name,
		Email:   f.userEmail,
		Address: info.Address,
	}, f.returnURL)

	if confirmErr != nil {
		f.state = StateFailed
		f.lastError = confirmErr.Error()
		log.Printf("[CHECKOUT] [ERROR] attempt %s confirmation failed: %v", f.attemptID, confirmErr)
		return &ConfirmError{Message: confirmErr.Error()}
	}

	f.state = StateSucceeded
	return nil
}
