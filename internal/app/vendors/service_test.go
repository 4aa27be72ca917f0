package vendors

import (
	"context"
	"errors"
	"testing"

	"dmcdir/internal/store"
)

type fakeStore struct {
	users      map[string]store.User
	owned      map[string][]store.Listing
	listings   map[string]store.Listing
	inquiries  map[string][]store.Inquiry
	broadcasts  []store.Inquiry
	inquiryByID map[string]store.Inquiry

	broadcastLimit int
	updatedStatus  string
}

func (f *fakeStore) CreateUser(email, password string) (string, error) {
	return "usr-new", nil
}

func (f *fakeStore) Authenticate(email, password string) (string, error) {
	return "token-new", nil
}

func (f *fakeStore) UserByToken(token string) (store.User, error) {
	u, ok := f.users[token]
	if !ok {
		return store.User{}, store.ErrUnauthorized
	}
	return u, nil
}

func (f *fakeStore) ListingsByOwner(userID string) ([]store.Listing, error) {
	return f.owned[userID], nil
}

func (f *fakeStore) ListingByID(id string) (store.Listing, error) {
	l, ok := f.listings[id]
	if !ok {
		return store.Listing{}, store.ErrNotFound
	}
	return l, nil
}

func (f *fakeStore) InquiriesForListing(listingID string) ([]store.Inquiry, error) {
	return f.inquiries[listingID], nil
}

func (f *fakeStore) BroadcastInquiries(limit int) ([]store.Inquiry, error) {
	f.broadcastLimit = limit
	return f.broadcasts, nil
}

func (f *fakeStore) InquiryByID(id string) (store.Inquiry, error) {
	q, ok := f.inquiryByID[id]
	if !ok {
		return store.Inquiry{}, store.ErrNotFound
	}
	return q, nil
}

func (f *fakeStore) UpdateInquiryStatus(id, status string) error {
	f.updatedStatus = status
	return nil
}

func ownedBy(userID string) store.Listing {
	return store.Listing{ID: "lst-1", ClaimedBy: &userID}
}

func TestSignupLogsVendorIn(t *testing.T) {
	svc := New(&fakeStore{})

	token, err := svc.Signup(context.Background(), "vendor@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Signup error: %v", err)
	}
	if token != "token-new" {
		t.Fatalf("token = %q, want a session token", token)
	}
}

func TestListingInquiriesRequiresOwnership(t *testing.T) {
	owner := "usr-1"
	fs := &fakeStore{
		users: map[string]store.User{
			"owner-token":    {ID: "usr-1"},
			"stranger-token": {ID: "usr-2"},
		},
		listings: map[string]store.Listing{
			"lst-1": ownedBy(owner),
		},
		inquiries: map[string][]store.Inquiry{
			"lst-1": {{ID: "inq-1"}},
		},
	}
	svc := New(fs)

	got, err := svc.ListingInquiries(context.Background(), "owner-token", "lst-1")
	if err != nil {
		t.Fatalf("owner read error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "inq-1" {
		t.Fatalf("unexpected inquiries: %#v", got)
	}

	if _, err := svc.ListingInquiries(context.Background(), "stranger-token", "lst-1"); !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-owner, got %v", err)
	}
}

func TestListingInquiriesUnclaimedListing(t *testing.T) {
	fs := &fakeStore{
		users: map[string]store.User{
			"owner-token": {ID: "usr-1"},
		},
		listings: map[string]store.Listing{
			"lst-1": {ID: "lst-1"},
		},
	}
	svc := New(fs)

	if _, err := svc.ListingInquiries(context.Background(), "owner-token", "lst-1"); !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unclaimed listing, got %v", err)
	}
}

func TestBroadcastFeedRequiresPremiumListing(t *testing.T) {
	owner := "usr-1"
	fs := &fakeStore{
		users: map[string]store.User{
			"free-token":    {ID: "usr-2"},
			"premium-token": {ID: "usr-1"},
		},
		owned: map[string][]store.Listing{
			"usr-1": {{ID: "lst-1", ClaimedBy: &owner, IsPremium: true}},
			"usr-2": {{ID: "lst-2"}},
		},
		broadcasts: []store.Inquiry{{ID: "inq-1"}},
	}
	svc := New(fs)

	if _, err := svc.BroadcastFeed(context.Background(), "free-token"); !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without premium, got %v", err)
	}

	got, err := svc.BroadcastFeed(context.Background(), "premium-token")
	if err != nil {
		t.Fatalf("BroadcastFeed error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected feed: %#v", got)
	}
	if fs.broadcastLimit != broadcastFeedLimit {
		t.Fatalf("limit = %d, want %d", fs.broadcastLimit, broadcastFeedLimit)
	}
}

func TestUpdateInquiryStatus(t *testing.T) {
	owner := "usr-1"
	listingID := "lst-1"
	fs := &fakeStore{
		users: map[string]store.User{
			"owner-token":    {ID: "usr-1"},
			"stranger-token": {ID: "usr-2"},
		},
		listings: map[string]store.Listing{
			"lst-1": {ID: "lst-1", ClaimedBy: &owner},
		},
		inquiryByID: map[string]store.Inquiry{
			"inq-1": {ID: "inq-1", ListingID: &listingID},
			"inq-2": {ID: "inq-2"},
		},
	}
	svc := New(fs)

	if err := svc.UpdateInquiryStatus(context.Background(), "owner-token", "inq-1", "contacted"); err != nil {
		t.Fatalf("UpdateInquiryStatus error: %v", err)
	}
	if fs.updatedStatus != "contacted" {
		t.Fatalf("status = %q", fs.updatedStatus)
	}

	if err := svc.UpdateInquiryStatus(context.Background(), "owner-token", "inq-1", "urgent"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if err := svc.UpdateInquiryStatus(context.Background(), "stranger-token", "inq-1", "closed"); !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-owner, got %v", err)
	}
	// Broadcast leads have no listing and cannot be triaged by a vendor.
	if err := svc.UpdateInquiryStatus(context.Background(), "owner-token", "inq-2", "closed"); !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for broadcast lead, got %v", err)
	}
}

func TestCancelledContextShortCircuits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := New(&fakeStore{})
	if _, err := svc.CurrentUser(ctx, "any"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
