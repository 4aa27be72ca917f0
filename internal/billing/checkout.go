// Package billing integrates the directory with Stripe: checkout and
// customer-portal session creation for vendors, and webhook-driven
// reconciliation of listing subscription state.
package billing

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	stripe "github.com/stripe/stripe-go/v78"
	portalsession "github.com/stripe/stripe-go/v78/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v78/checkout/session"
	"github.com/stripe/stripe-go/v78/customer"

	"dmcdir/internal/store"
)

var (
	// ErrNotOwner signals the caller has not claimed the listing.
	ErrNotOwner = errors.New("listing is not claimed by this user")
	// ErrAlreadyPremium signals the listing already has an active
	// subscription.
	ErrAlreadyPremium = errors.New("listing is already premium")
	// ErrNoCustomer signals a portal request for a listing that never
	// went through checkout.
	ErrNoCustomer = errors.New("listing has no billing customer")
)

// CheckoutStore captures the persistence operations checkout needs.
type CheckoutStore interface {
	ListingByID(id string) (store.Listing, error)
	SetStripeCustomer(id, customerID string) error
}

// Checkout creates Stripe sessions for the premium subscription.
type Checkout struct {
	store   CheckoutStore
	priceID string
	siteURL string
	log     zerolog.Logger
}

// NewCheckout wires a Checkout. priceID is the provider reference for
// the monthly premium plan; siteURL anchors the redirect URLs.
func NewCheckout(s CheckoutStore, priceID, siteURL string, logger zerolog.Logger) *Checkout {
	return &Checkout{store: s, priceID: priceID, siteURL: siteURL, log: logger}
}

// CreateCheckoutSession verifies ownership, creates or reuses the
// Stripe customer, and returns the URL of a subscription-mode checkout
// session tagged with the listing id.
func (c *Checkout) CreateCheckoutSession(userID, userEmail, listingID string) (string, error) {
	listing, err := c.store.ListingByID(listingID)
	if err != nil {
		return "", err
	}
	if listing.ClaimedBy == nil || *listing.ClaimedBy != userID {
		return "", ErrNotOwner
	}
	if listing.IsPremium {
		return "", ErrAlreadyPremium
	}

	customerID, err := c.ensureCustomer(listing, userID, userEmail)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(customerID),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(c.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:       stripe.String(c.siteURL + "/dashboard/billing?success=true&listing_id=" + listingID),
		CancelURL:        stripe.String(c.siteURL + "/pricing?cancelled=true"),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{},
	}
	params.AddMetadata("listingId", listingID)
	params.AddMetadata("userId", userID)
	params.SubscriptionData.AddMetadata("listingId", listingID)
	params.SubscriptionData.AddMetadata("userId", userID)

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	if sess.URL == "" {
		return "", errors.New("checkout session has no URL")
	}

	c.log.Info().Str("listing_id", listingID).Str("session_id", sess.ID).Msg("checkout session created")
	return sess.URL, nil
}

// CreatePortalSession returns a customer-portal URL for managing an
// existing subscription.
func (c *Checkout) CreatePortalSession(userID, listingID string) (string, error) {
	listing, err := c.store.ListingByID(listingID)
	if err != nil {
		return "", err
	}
	if listing.ClaimedBy == nil || *listing.ClaimedBy != userID {
		return "", ErrNotOwner
	}
	if listing.StripeCustomerID == nil {
		return "", ErrNoCustomer
	}

	sess, err := portalsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(*listing.StripeCustomerID),
		ReturnURL: stripe.String(c.siteURL + "/dashboard/billing"),
	})
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return sess.URL, nil
}

func (c *Checkout) ensureCustomer(listing store.Listing, userID, userEmail string) (string, error) {
	if listing.StripeCustomerID != nil && *listing.StripeCustomerID != "" {
		return *listing.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{Email: stripe.String(userEmail)}
	params.AddMetadata("listingId", listing.ID)
	params.AddMetadata("userId", userID)

	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}

	if err := c.store.SetStripeCustomer(listing.ID, cust.ID); err != nil {
		return "", err
	}
	return cust.ID, nil
}
