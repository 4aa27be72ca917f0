package listings

import (
	"context"

	"dmcdir/internal/store"
)

// Store captures the persistence needs for listing workflows.
type Store interface {
	ListPublished(filter store.ListingFilter, limit, offset int) ([]store.Listing, int, error)
	ListingBySlug(slug string) (store.Listing, error)
	ListingByID(id string) (store.Listing, error)
	FeaturedListings(limit int) ([]store.Listing, error)
	PremiumListings(limit int) ([]store.Listing, error)
	AllListings(limit, offset int) ([]store.Listing, int, error)
	SetPublished(id string, published bool) error
	IncrementViewCount(id string) error
}

// Page is one page of listings plus the total ignoring pagination,
// for page-count display.
type Page struct {
	Items []store.Listing `json:"items"`
	Total int             `json:"total"`
}

// Service coordinates listing-related operations.
type Service interface {
	FindPublished(ctx context.Context, filter store.ListingFilter, limit, offset int) (Page, error)
	BySlug(ctx context.Context, slug string) (store.Listing, error)
	ByID(ctx context.Context, id string) (store.Listing, error)
	Featured(ctx context.Context, limit int) ([]store.Listing, error)
	Premium(ctx context.Context, limit int) ([]store.Listing, error)
	All(ctx context.Context, limit, offset int) (Page, error)
	SetPublished(ctx context.Context, id string, published bool) error
	RecordView(ctx context.Context, id string) error
}

type service struct {
	store Store
}

// New wires a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) FindPublished(ctx context.Context, filter store.ListingFilter, limit, offset int) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	items, total, err := s.store.ListPublished(filter, limit, offset)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: items, Total: total}, nil
}

func (s *service) BySlug(ctx context.Context, slug string) (store.Listing, error) {
	if err := ctx.Err(); err != nil {
		return store.Listing{}, err
	}
	return s.store.ListingBySlug(slug)
}

func (s *service) ByID(ctx context.Context, id string) (store.Listing, error) {
	if err := ctx.Err(); err != nil {
		return store.Listing{}, err
	}
	return s.store.ListingByID(id)
}

func (s *service) Featured(ctx context.Context, limit int) ([]store.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.FeaturedListings(limit)
}

func (s *service) Premium(ctx context.Context, limit int) ([]store.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.PremiumListings(limit)
}

func (s *service) All(ctx context.Context, limit, offset int) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	items, total, err := s.store.AllListings(limit, offset)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: items, Total: total}, nil
}

func (s *service) SetPublished(ctx context.Context, id string, published bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.SetPublished(id, published)
}

func (s *service) RecordView(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.IncrementViewCount(id)
}
