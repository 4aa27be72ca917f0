package claims

import (
	"context"

	"dmcdir/internal/store"
)

// Store captures the persistence needs for claim workflows.
type Store interface {
	CreateClaimRequest(c store.ClaimRequest) (string, error)
	ClaimByID(id string) (store.ClaimRequest, error)
	PendingClaims() ([]store.ClaimRequest, error)
	ClaimsByUser(userID string) ([]store.ClaimRequest, error)
	ApproveClaim(claimID, reviewerID string) error
	RejectClaim(claimID, reviewerID string, reason *string) error
}

// Service coordinates listing-ownership claims.
type Service interface {
	Submit(ctx context.Context, c store.ClaimRequest) (string, error)
	Get(ctx context.Context, id string) (store.ClaimRequest, error)
	Pending(ctx context.Context) ([]store.ClaimRequest, error)
	ByUser(ctx context.Context, userID string) ([]store.ClaimRequest, error)
	Approve(ctx context.Context, claimID, reviewerID string) error
	Reject(ctx context.Context, claimID, reviewerID string, reason *string) error
}

type service struct {
	store Store
}

// New wires a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) Submit(ctx context.Context, c store.ClaimRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.store.CreateClaimRequest(c)
}

func (s *service) Get(ctx context.Context, id string) (store.ClaimRequest, error) {
	if err := ctx.Err(); err != nil {
		return store.ClaimRequest{}, err
	}
	return s.store.ClaimByID(id)
}

func (s *service) Pending(ctx context.Context) ([]store.ClaimRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.PendingClaims()
}

func (s *service) ByUser(ctx context.Context, userID string) ([]store.ClaimRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ClaimsByUser(userID)
}

func (s *service) Approve(ctx context.Context, claimID, reviewerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.ApproveClaim(claimID, reviewerID)
}

func (s *service) Reject(ctx context.Context, claimID, reviewerID string, reason *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.RejectClaim(claimID, reviewerID, reason)
}
