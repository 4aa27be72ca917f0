package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Claim request statuses. A request is created pending and moves to
// approved or rejected exactly once.
const (
	ClaimStatusPending  = "pending"
	ClaimStatusApproved = "approved"
	ClaimStatusRejected = "rejected"
)

// ClaimRequest is a vendor's assertion of ownership over a listing.
type ClaimRequest struct {
	ID                string     `json:"id"`
	ListingID         string     `json:"listingId"`
	UserID            string     `json:"userId"`
	RequesterName     string     `json:"requesterName"`
	RequesterEmail    string     `json:"requesterEmail"`
	RequesterPhone    *string    `json:"requesterPhone,omitempty"`
	Position          *string    `json:"position,omitempty"`
	VerificationNotes *string    `json:"verificationNotes,omitempty"`
	Status            string     `json:"status"`
	ReviewedBy        *string    `json:"reviewedBy,omitempty"`
	ReviewedAt        *time.Time `json:"reviewedAt,omitempty"`
	RejectionReason   *string    `json:"rejectionReason,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

const claimColumns = `
	id, listing_id, user_id, requester_name, requester_email, requester_phone,
	position, verification_notes, status, reviewed_by, reviewed_at,
	rejection_reason, created_at`

func scanClaim(row interface{ Scan(...any) error }) (ClaimRequest, error) {
	var c ClaimRequest
	err := row.Scan(
		&c.ID, &c.ListingID, &c.UserID, &c.RequesterName, &c.RequesterEmail,
		&c.RequesterPhone, &c.Position, &c.VerificationNotes, &c.Status,
		&c.ReviewedBy, &c.ReviewedAt, &c.RejectionReason, &c.CreatedAt,
	)
	return c, err
}

// CreateClaimRequest files a pending claim. The partial unique index on
// (listing_id, user_id) for pending rows rejects duplicate requests.
func (s *Store) CreateClaimRequest(c ClaimRequest) (string, error) {
	c.ID = uuid.New().String()
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO claim_requests (
			id, listing_id, user_id, requester_name, requester_email,
			requester_phone, position, verification_notes, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.ID, c.ListingID, c.UserID, c.RequesterName, c.RequesterEmail,
		c.RequesterPhone, c.Position, c.VerificationNotes, ClaimStatusPending)
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrDuplicateClaim
		}
		return "", fmt.Errorf("insert claim request: %w", err)
	}
	return c.ID, nil
}

// ClaimByID returns a single claim request.
func (s *Store) ClaimByID(id string) (ClaimRequest, error) {
	c, err := scanClaim(s.db.QueryRowContext(context.Background(), `
		SELECT`+claimColumns+`
		FROM claim_requests
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ClaimRequest{}, ErrNotFound
		}
		return ClaimRequest{}, fmt.Errorf("lookup claim request: %w", err)
	}
	return c, nil
}

// PendingClaims returns open claim requests for admin review,
// newest first.
func (s *Store) PendingClaims() ([]ClaimRequest, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT`+claimColumns+`
		FROM claim_requests
		WHERE status = $1
		ORDER BY created_at DESC
	`, ClaimStatusPending)
	if err != nil {
		return nil, fmt.Errorf("select pending claims: %w", err)
	}
	defer rows.Close()

	var claims []ClaimRequest
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim request: %w", err)
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claims: %w", err)
	}
	return claims, nil
}

// ClaimsByUser returns all claims a vendor has filed.
func (s *Store) ClaimsByUser(userID string) ([]ClaimRequest, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT`+claimColumns+`
		FROM claim_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select user claims: %w", err)
	}
	defer rows.Close()

	var claims []ClaimRequest
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim request: %w", err)
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claims: %w", err)
	}
	return claims, nil
}

// ApproveClaim marks the request approved and transfers ownership of
// the target listing in one transaction.
func (s *Store) ApproveClaim(claimID, reviewerID string) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	var listingID, claimantID string
	err = tx.QueryRowContext(ctx, `
		SELECT listing_id, user_id
		FROM claim_requests
		WHERE id = $1 AND status = $2
	`, claimID, ClaimStatusPending).Scan(&listingID, &claimantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lookup claim request: %w", err)
	}

	now := time.Now().UTC()

	if _, err := tx.ExecContext(ctx, `
		UPDATE claim_requests
		SET status = $2, reviewed_by = $3, reviewed_at = $4
		WHERE id = $1
	`, claimID, ClaimStatusApproved, reviewerID, now); err != nil {
		return fmt.Errorf("approve claim request: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE listings
		SET is_claimed = TRUE, claimed_by = $2, claimed_at = $3, updated_at = NOW()
		WHERE id = $1
	`, listingID, claimantID, now); err != nil {
		return fmt.Errorf("mark listing claimed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return nil
}

// RejectClaim marks the request rejected with an optional reason.
func (s *Store) RejectClaim(claimID, reviewerID string, reason *string) error {
	res, err := s.db.ExecContext(context.Background(), `
		UPDATE claim_requests
		SET status = $2, reviewed_by = $3, reviewed_at = $4, rejection_reason = $5
		WHERE id = $1 AND status = $6
	`, claimID, ClaimStatusRejected, reviewerID, time.Now().UTC(), reason, ClaimStatusPending)
	if err != nil {
		return fmt.Errorf("reject claim request: %w", err)
	}
	return requireRow(res)
}
