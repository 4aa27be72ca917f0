package billing

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v78/webhook"
)

// RejectedError marks an event that must not be redelivered: bad
// signature or an undecodable payload. Retrying cannot fix either.
type RejectedError struct {
	Err error
}

func (e *RejectedError) Error() string { return fmt.Sprintf("event rejected: %v", e.Err) }
func (e *RejectedError) Unwrap() error { return e.Err }

// ReconcilerStore captures the listing updates driven by provider
// events. Every update is idempotent: replaying an event rewrites the
// same values.
type ReconcilerStore interface {
	ActivatePremium(listingID, subscriptionID, customerID string, startedAt time.Time) error
	SyncPremiumBySubscription(subscriptionID string, active bool, startedAt, expiresAt time.Time) error
	CancelPremiumBySubscription(subscriptionID string, expiredAt time.Time) error
}

// Reconciler applies Stripe webhook events to listing subscription
// state.
type Reconciler struct {
	store  ReconcilerStore
	secret string
	log    zerolog.Logger
	now    func() time.Time
}

// NewReconciler wires a Reconciler verifying signatures against the
// given endpoint secret.
func NewReconciler(s ReconcilerStore, secret string, logger zerolog.Logger) *Reconciler {
	return &Reconciler{store: s, secret: secret, log: logger, now: time.Now}
}

// HandleEvent verifies and applies one provider event. A RejectedError
// means the payload is permanently bad; any other error means a state
// update failed and the provider should redeliver.
func (r *Reconciler) HandleEvent(payload []byte, sigHeader string) error {
	event, err := webhook.ConstructEventWithTolerance(payload, sigHeader, r.secret, webhook.DefaultTolerance)
	if err != nil {
		return &RejectedError{Err: fmt.Errorf("verify signature: %w", err)}
	}

	r.log.Info().Str("event_type", string(event.Type)).Str("event_id", event.ID).Msg("stripe webhook received")

	switch event.Type {
	case "checkout.session.completed":
		var sess struct {
			Customer     string            `json:"customer"`
			Subscription string            `json:"subscription"`
			Metadata     map[string]string `json:"metadata"`
		}
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return &RejectedError{Err: fmt.Errorf("decode checkout session: %w", err)}
		}

		listingID := sess.Metadata["listingId"]
		if listingID == "" {
			// Checkout sessions created outside this app carry no
			// listing reference; acknowledge without action.
			r.log.Warn().Str("event_id", event.ID).Msg("checkout session without listing metadata")
			return nil
		}

		if err := r.store.ActivatePremium(listingID, sess.Subscription, sess.Customer, r.now().UTC()); err != nil {
			return fmt.Errorf("activate premium for listing %s: %w", listingID, err)
		}
		r.log.Info().Str("listing_id", listingID).Msg("premium activated")

	case "customer.subscription.updated":
		sub, err := decodeSubscription(event.Data.Raw)
		if err != nil {
			return err
		}

		active := sub.Status == "active"
		started := time.Unix(sub.CurrentPeriodStart, 0).UTC()
		expires := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		if err := r.store.SyncPremiumBySubscription(sub.ID, active, started, expires); err != nil {
			return fmt.Errorf("sync subscription %s: %w", sub.ID, err)
		}

	case "customer.subscription.deleted":
		sub, err := decodeSubscription(event.Data.Raw)
		if err != nil {
			return err
		}

		if err := r.store.CancelPremiumBySubscription(sub.ID, r.now().UTC()); err != nil {
			return fmt.Errorf("cancel subscription %s: %w", sub.ID, err)
		}
		r.log.Info().Str("subscription_id", sub.ID).Msg("premium cancelled")

	case "invoice.payment_failed":
		// Dunning is handled by the provider; log only.
		r.log.Warn().Str("event_id", event.ID).Msg("invoice payment failed")

	default:
		r.log.Debug().Str("event_type", string(event.Type)).Msg("unhandled stripe event")
	}

	return nil
}

type subscriptionEvent struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
}

func decodeSubscription(raw json.RawMessage) (subscriptionEvent, error) {
	var sub subscriptionEvent
	if err := json.Unmarshal(raw, &sub); err != nil {
		return subscriptionEvent{}, &RejectedError{Err: fmt.Errorf("decode subscription: %w", err)}
	}
	return sub, nil
}
