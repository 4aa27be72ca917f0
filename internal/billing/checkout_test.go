package billing

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"dmcdir/internal/store"
)

type fakeCheckoutStore struct {
	listing store.Listing
	err     error
}

func (f *fakeCheckoutStore) ListingByID(string) (store.Listing, error) {
	return f.listing, f.err
}

func (f *fakeCheckoutStore) SetStripeCustomer(string, string) error { return nil }

func strPtr(v string) *string { return &v }

func TestCreateCheckoutSessionGuards(t *testing.T) {
	tests := []struct {
		name    string
		listing store.Listing
		userID  string
		wantErr error
	}{
		{
			name:    "unclaimed listing",
			listing: store.Listing{ID: "lst-1"},
			userID:  "usr-1",
			wantErr: ErrNotOwner,
		},
		{
			name:    "claimed by someone else",
			listing: store.Listing{ID: "lst-1", ClaimedBy: strPtr("usr-2")},
			userID:  "usr-1",
			wantErr: ErrNotOwner,
		},
		{
			name:    "already premium",
			listing: store.Listing{ID: "lst-1", ClaimedBy: strPtr("usr-1"), IsPremium: true},
			userID:  "usr-1",
			wantErr: ErrAlreadyPremium,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			c := NewCheckout(&fakeCheckoutStore{listing: tc.listing}, "price_1", "https://example.com", zerolog.Nop())
			_, err := c.CreateCheckoutSession(tc.userID, "owner@example.com", "lst-1")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestCreateCheckoutSessionListingNotFound(t *testing.T) {
	c := NewCheckout(&fakeCheckoutStore{err: store.ErrNotFound}, "price_1", "https://example.com", zerolog.Nop())
	_, err := c.CreateCheckoutSession("usr-1", "owner@example.com", "lst-404")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestCreatePortalSessionGuards(t *testing.T) {
	c := NewCheckout(&fakeCheckoutStore{
		listing: store.Listing{ID: "lst-1", ClaimedBy: strPtr("usr-1")},
	}, "price_1", "https://example.com", zerolog.Nop())

	if _, err := c.CreatePortalSession("usr-2", "lst-1"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("error = %v, want ErrNotOwner", err)
	}
	if _, err := c.CreatePortalSession("usr-1", "lst-1"); !errors.Is(err, ErrNoCustomer) {
		t.Fatalf("error = %v, want ErrNoCustomer", err)
	}
}
