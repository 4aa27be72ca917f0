package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Listing is one directory entry for a destination management company.
type Listing struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	Slug                 string         `json:"slug"`
	Tagline              *string        `json:"tagline,omitempty"`
	Description          *string        `json:"description,omitempty"`
	State                string         `json:"state"`
	City                 *string        `json:"city,omitempty"`
	Address              *string        `json:"address,omitempty"`
	PostalCode           *string        `json:"postalCode,omitempty"`
	Phone                *string        `json:"phone,omitempty"`
	Email                *string        `json:"email,omitempty"`
	WebsiteURL           *string        `json:"websiteUrl,omitempty"`
	LogoURL              *string        `json:"logoUrl,omitempty"`
	CoverImageURL        *string        `json:"coverImageUrl,omitempty"`
	GalleryURLs          pq.StringArray `json:"galleryUrls,omitempty"`
	ServiceCategories    pq.StringArray `json:"serviceCategories,omitempty"`
	DestinationExpertise pq.StringArray `json:"destinationExpertise,omitempty"`
	Certifications       pq.StringArray `json:"certifications,omitempty"`
	Languages            pq.StringArray `json:"languages,omitempty"`
	EstablishedYear      *int           `json:"establishedYear,omitempty"`
	PriceTier            *string        `json:"priceTier,omitempty"`
	MinGroupSize         *int           `json:"minGroupSize,omitempty"`
	MaxGroupSize         *int           `json:"maxGroupSize,omitempty"`
	IsPublished          bool           `json:"isPublished"`
	IsFeatured           bool           `json:"isFeatured"`
	IsPremium            bool           `json:"isPremium"`
	IsVerified           bool           `json:"isVerified"`
	IsClaimed            bool           `json:"isClaimed"`
	ClaimedBy            *string        `json:"claimedBy,omitempty"`
	ClaimedAt            *time.Time     `json:"claimedAt,omitempty"`
	PremiumStartedAt     *time.Time     `json:"premiumStartedAt,omitempty"`
	PremiumExpiresAt     *time.Time     `json:"premiumExpiresAt,omitempty"`
	StripeCustomerID     *string        `json:"-"`
	StripeSubscriptionID *string        `json:"-"`
	ViewCount            int            `json:"viewCount"`
	InquiryCount         int            `json:"inquiryCount"`
	CreatedAt            time.Time      `json:"createdAt"`
}

const listingColumns = `
	id, name, slug, tagline, description, state, city, address, postal_code,
	phone, email, website_url, logo_url, cover_image_url, gallery_urls,
	service_categories, destination_expertise, certifications, languages,
	established_year, price_tier, min_group_size, max_group_size,
	is_published, is_featured, is_premium, is_verified, is_claimed,
	claimed_by, claimed_at, premium_started_at, premium_expires_at,
	stripe_customer_id, stripe_subscription_id, view_count, inquiry_count,
	created_at`

func scanListing(row interface{ Scan(...any) error }) (Listing, error) {
	var l Listing
	err := row.Scan(
		&l.ID, &l.Name, &l.Slug, &l.Tagline, &l.Description, &l.State, &l.City,
		&l.Address, &l.PostalCode, &l.Phone, &l.Email, &l.WebsiteURL, &l.LogoURL,
		&l.CoverImageURL, &l.GalleryURLs, &l.ServiceCategories,
		&l.DestinationExpertise, &l.Certifications, &l.Languages,
		&l.EstablishedYear, &l.PriceTier, &l.MinGroupSize, &l.MaxGroupSize,
		&l.IsPublished, &l.IsFeatured, &l.IsPremium, &l.IsVerified, &l.IsClaimed,
		&l.ClaimedBy, &l.ClaimedAt, &l.PremiumStartedAt, &l.PremiumExpiresAt,
		&l.StripeCustomerID, &l.StripeSubscriptionID, &l.ViewCount,
		&l.InquiryCount, &l.CreatedAt,
	)
	return l, err
}

func scanListingRows(rows *sql.Rows) ([]Listing, error) {
	var listings []Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, nil
}

// ListingFilter constrains the results returned by ListPublished. All
// fields are optional and combine conjunctively.
type ListingFilter struct {
	State        string
	Categories   []string
	Destinations []string
	PremiumOnly  bool
	PriceTier    string
}

// ListPublished returns one page of published listings matching the
// filter plus the total match count ignoring pagination. Premium
// listings sort first, then featured, then newest.
func (s *Store) ListPublished(filter ListingFilter, limit, offset int) ([]Listing, int, error) {
	ctx := context.Background()

	clauses := []string{"is_published = TRUE"}
	var args []any

	if state := strings.TrimSpace(filter.State); state != "" {
		args = append(args, state)
		clauses = append(clauses, fmt.Sprintf("state = $%d", len(args)))
	}
	if filter.PremiumOnly {
		clauses = append(clauses, "is_premium = TRUE")
	}
	if tier := strings.TrimSpace(filter.PriceTier); tier != "" {
		args = append(args, tier)
		clauses = append(clauses, fmt.Sprintf("price_tier = $%d", len(args)))
	}
	if len(filter.Categories) > 0 {
		args = append(args, pq.Array(filter.Categories))
		clauses = append(clauses, fmt.Sprintf("service_categories @> $%d", len(args)))
	}
	if len(filter.Destinations) > 0 {
		args = append(args, pq.Array(filter.Destinations))
		clauses = append(clauses, fmt.Sprintf("destination_expertise @> $%d", len(args)))
	}

	where := " WHERE " + strings.Join(clauses, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM listings" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}

	query := "SELECT" + listingColumns + "\n\tFROM listings" + where +
		" ORDER BY is_premium DESC, is_featured DESC, created_at DESC"
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select listings: %w", err)
	}
	defer rows.Close()

	listings, err := scanListingRows(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate listings: %w", err)
	}

	return listings, total, nil
}

// ListingBySlug returns the published listing with the given slug.
func (s *Store) ListingBySlug(slug string) (Listing, error) {
	l, err := scanListing(s.db.QueryRowContext(context.Background(), `
		SELECT`+listingColumns+`
		FROM listings
		WHERE slug = $1 AND is_published = TRUE
	`, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Listing{}, ErrNotFound
		}
		return Listing{}, fmt.Errorf("lookup listing by slug: %w", err)
	}
	return l, nil
}

// ListingByID returns a listing regardless of publication state.
func (s *Store) ListingByID(id string) (Listing, error) {
	l, err := scanListing(s.db.QueryRowContext(context.Background(), `
		SELECT`+listingColumns+`
		FROM listings
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Listing{}, ErrNotFound
		}
		return Listing{}, fmt.Errorf("lookup listing: %w", err)
	}
	return l, nil
}

// FeaturedListings returns published listings promoted to the homepage.
func (s *Store) FeaturedListings(limit int) ([]Listing, error) {
	return s.listFlagged("is_featured", limit)
}

// PremiumListings returns published listings on the paid tier.
func (s *Store) PremiumListings(limit int) ([]Listing, error) {
	return s.listFlagged("is_premium", limit)
}

func (s *Store) listFlagged(flag string, limit int) ([]Listing, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT`+listingColumns+`
		FROM listings
		WHERE `+flag+` = TRUE AND is_published = TRUE
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("select %s listings: %w", flag, err)
	}
	defer rows.Close()

	listings, err := scanListingRows(rows)
	if err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return listings, nil
}

// ListingsByOwner returns the listings claimed by a vendor, newest first.
func (s *Store) ListingsByOwner(userID string) ([]Listing, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT`+listingColumns+`
		FROM listings
		WHERE claimed_by = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select owned listings: %w", err)
	}
	defer rows.Close()

	listings, err := scanListingRows(rows)
	if err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return listings, nil
}

// AllListings returns every listing for the admin back-office.
func (s *Store) AllListings(limit, offset int) ([]Listing, int, error) {
	ctx := context.Background()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT`+listingColumns+`
		FROM listings
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("select listings: %w", err)
	}
	defer rows.Close()

	listings, err := scanListingRows(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate listings: %w", err)
	}
	return listings, total, nil
}

// SlugExists reports whether any listing already uses the slug.
func (s *Store) SlugExists(slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(context.Background(), `
		SELECT EXISTS (SELECT 1 FROM listings WHERE slug = $1)
	`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

// InsertListing creates a new listing row and returns its generated id.
func (s *Store) InsertListing(l Listing) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO listings (
			id, name, slug, tagline, description, state, city, address,
			postal_code, phone, email, website_url, service_categories,
			destination_expertise, certifications, languages, established_year,
			is_published, is_featured, is_premium, is_claimed
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`, id, l.Name, l.Slug, l.Tagline, l.Description, l.State, l.City, l.Address,
		l.PostalCode, l.Phone, l.Email, l.WebsiteURL, l.ServiceCategories,
		l.DestinationExpertise, l.Certifications, l.Languages, l.EstablishedYear,
		l.IsPublished, l.IsFeatured, l.IsPremium, l.IsClaimed)
	if err != nil {
		return "", fmt.Errorf("insert listing: %w", err)
	}
	return id, nil
}

// SetPublished toggles public visibility of a listing.
func (s *Store) SetPublished(id string, published bool) error {
	res, err := s.db.ExecContext(context.Background(), `
		UPDATE listings
		SET is_published = $2, updated_at = NOW()
		WHERE id = $1
	`, id, published)
	if err != nil {
		return fmt.Errorf("update published flag: %w", err)
	}
	return requireRow(res)
}

// IncrementViewCount bumps the public page-view counter.
func (s *Store) IncrementViewCount(id string) error {
	if _, err := s.db.ExecContext(context.Background(), `
		UPDATE listings
		SET view_count = view_count + 1
		WHERE id = $1
	`, id); err != nil {
		return fmt.Errorf("increment view count: %w", err)
	}
	return nil
}

// IncrementInquiryCount bumps the received-leads counter.
func (s *Store) IncrementInquiryCount(id string) error {
	if _, err := s.db.ExecContext(context.Background(), `
		UPDATE listings
		SET inquiry_count = inquiry_count + 1
		WHERE id = $1
	`, id); err != nil {
		return fmt.Errorf("increment inquiry count: %w", err)
	}
	return nil
}

// SetStripeCustomer stores the payment-provider customer reference.
func (s *Store) SetStripeCustomer(id, customerID string) error {
	res, err := s.db.ExecContext(context.Background(), `
		UPDATE listings
		SET stripe_customer_id = $2, updated_at = NOW()
		WHERE id = $1
	`, id, customerID)
	if err != nil {
		return fmt.Errorf("set stripe customer: %w", err)
	}
	return requireRow(res)
}

// ActivatePremium marks a listing premium after checkout completes.
// Replaying the same event rewrites the same values.
func (s *Store) ActivatePremium(id, subscriptionID, customerID string, startedAt time.Time) error {
	res, err := s.db.ExecContext(context.Background(), `
		UPDATE listings
		SET is_premium = TRUE,
		    premium_started_at = $2,
		    stripe_subscription_id = $3,
		    stripe_customer_id = $4,
		    updated_at = NOW()
		WHERE id = $1
	`, id, startedAt, subscriptionID, customerID)
	if err != nil {
		return fmt.Errorf("activate premium: %w", err)
	}
	return requireRow(res)
}

// SyncPremiumBySubscription reconciles a listing's premium window with
// the provider's billing period, located by subscription reference.
func (s *Store) SyncPremiumBySubscription(subscriptionID string, active bool, startedAt, expiresAt time.Time) error {
	if _, err := s.db.ExecContext(context.Background(), `
		UPDATE listings
		SET is_premium = $2,
		    premium_started_at = $3,
		    premium_expires_at = $4,
		    updated_at = NOW()
		WHERE stripe_subscription_id = $1
	`, subscriptionID, active, startedAt, expiresAt); err != nil {
		return fmt.Errorf("sync premium: %w", err)
	}
	return nil
}

// CancelPremiumBySubscription downgrades the listing when the provider
// reports the subscription deleted.
func (s *Store) CancelPremiumBySubscription(subscriptionID string, expiredAt time.Time) error {
	if _, err := s.db.ExecContext(context.Background(), `
		UPDATE listings
		SET is_premium = FALSE,
		    premium_expires_at = $2,
		    updated_at = NOW()
		WHERE stripe_subscription_id = $1
	`, subscriptionID, expiredAt); err != nil {
		return fmt.Errorf("cancel premium: %w", err)
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
