package vendors

import (
	"context"
	"errors"

	"dmcdir/internal/store"
)

const broadcastFeedLimit = 50

// ErrInvalidStatus signals an inquiry status outside the triage set.
var ErrInvalidStatus = errors.New("invalid inquiry status")

var triageStatuses = map[string]bool{
	"new":       true,
	"contacted": true,
	"converted": true,
	"closed":    true,
}

// Store captures the persistence needs for vendor accounts and their
// dashboard reads.
type Store interface {
	CreateUser(email, password string) (string, error)
	Authenticate(email, password string) (string, error)
	UserByToken(token string) (store.User, error)
	ListingsByOwner(userID string) ([]store.Listing, error)
	ListingByID(id string) (store.Listing, error)
	InquiriesForListing(listingID string) ([]store.Inquiry, error)
	BroadcastInquiries(limit int) ([]store.Inquiry, error)
	InquiryByID(id string) (store.Inquiry, error)
	UpdateInquiryStatus(id, status string) error
}

// Service exposes vendor signup, login, and dashboard workflows.
type Service interface {
	Signup(ctx context.Context, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	CurrentUser(ctx context.Context, token string) (store.User, error)
	MyListings(ctx context.Context, token string) ([]store.Listing, error)
	ListingInquiries(ctx context.Context, token, listingID string) ([]store.Inquiry, error)
	BroadcastFeed(ctx context.Context, token string) ([]store.Inquiry, error)
	UpdateInquiryStatus(ctx context.Context, token, inquiryID, status string) error
}

type service struct {
	store Store
}

// New wires a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

// Signup registers the account and returns a session token so the
// vendor is logged in immediately.
func (s *service) Signup(ctx context.Context, email, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := s.store.CreateUser(email, password); err != nil {
		return "", err
	}
	return s.store.Authenticate(email, password)
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.store.Authenticate(email, password)
}

func (s *service) CurrentUser(ctx context.Context, token string) (store.User, error) {
	if err := ctx.Err(); err != nil {
		return store.User{}, err
	}
	return s.store.UserByToken(token)
}

func (s *service) MyListings(ctx context.Context, token string) ([]store.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	user, err := s.store.UserByToken(token)
	if err != nil {
		return nil, err
	}
	return s.store.ListingsByOwner(user.ID)
}

// ListingInquiries returns the leads for one listing, provided the
// caller has claimed it.
func (s *service) ListingInquiries(ctx context.Context, token, listingID string) ([]store.Inquiry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	user, err := s.store.UserByToken(token)
	if err != nil {
		return nil, err
	}

	listing, err := s.store.ListingByID(listingID)
	if err != nil {
		return nil, err
	}
	if listing.ClaimedBy == nil || *listing.ClaimedBy != user.ID {
		return nil, store.ErrUnauthorized
	}

	return s.store.InquiriesForListing(listingID)
}

// BroadcastFeed returns untargeted leads. Only vendors holding at
// least one premium listing may read it.
func (s *service) BroadcastFeed(ctx context.Context, token string) ([]store.Inquiry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	user, err := s.store.UserByToken(token)
	if err != nil {
		return nil, err
	}

	owned, err := s.store.ListingsByOwner(user.ID)
	if err != nil {
		return nil, err
	}
	premium := false
	for _, l := range owned {
		if l.IsPremium {
			premium = true
			break
		}
	}
	if !premium {
		return nil, store.ErrUnauthorized
	}

	return s.store.BroadcastInquiries(broadcastFeedLimit)
}

// UpdateInquiryStatus moves a lead through triage. Only the vendor who
// claimed the targeted listing may change it; broadcast leads have no
// owner and cannot be triaged here.
func (s *service) UpdateInquiryStatus(ctx context.Context, token, inquiryID, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !triageStatuses[status] {
		return ErrInvalidStatus
	}

	user, err := s.store.UserByToken(token)
	if err != nil {
		return err
	}

	inquiry, err := s.store.InquiryByID(inquiryID)
	if err != nil {
		return err
	}
	if inquiry.ListingID == nil {
		return store.ErrUnauthorized
	}

	listing, err := s.store.ListingByID(*inquiry.ListingID)
	if err != nil {
		return err
	}
	if listing.ClaimedBy == nil || *listing.ClaimedBy != user.ID {
		return store.ErrUnauthorized
	}

	return s.store.UpdateInquiryStatus(inquiryID, status)
}
