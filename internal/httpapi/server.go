// Package httpapi wires HTTP handlers to the application services.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"dmcdir/internal/app/listings"
	"dmcdir/internal/authz"
	"dmcdir/internal/importer"
	"dmcdir/internal/inquiries"
	"dmcdir/internal/store"
)

// ListingService coordinates public and admin listing reads.
type ListingService interface {
	FindPublished(ctx context.Context, filter store.ListingFilter, limit, offset int) (listings.Page, error)
	BySlug(ctx context.Context, slug string) (store.Listing, error)
	Featured(ctx context.Context, limit int) ([]store.Listing, error)
	Premium(ctx context.Context, limit int) ([]store.Listing, error)
	All(ctx context.Context, limit, offset int) (listings.Page, error)
	SetPublished(ctx context.Context, id string, published bool) error
	RecordView(ctx context.Context, id string) error
}

// ClaimService coordinates listing-ownership claims.
type ClaimService interface {
	Submit(ctx context.Context, c store.ClaimRequest) (string, error)
	Pending(ctx context.Context) ([]store.ClaimRequest, error)
	ByUser(ctx context.Context, userID string) ([]store.ClaimRequest, error)
	Approve(ctx context.Context, claimID, reviewerID string) error
	Reject(ctx context.Context, claimID, reviewerID string, reason *string) error
}

// VendorService exposes vendor accounts and dashboard reads.
type VendorService interface {
	Signup(ctx context.Context, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	CurrentUser(ctx context.Context, token string) (store.User, error)
	MyListings(ctx context.Context, token string) ([]store.Listing, error)
	ListingInquiries(ctx context.Context, token, listingID string) ([]store.Inquiry, error)
	BroadcastFeed(ctx context.Context, token string) ([]store.Inquiry, error)
	UpdateInquiryStatus(ctx context.Context, token, inquiryID, status string) error
}

// InquiryService runs the lead submission pipeline.
type InquiryService interface {
	Submit(ctx context.Context, form inquiries.Form, source string, listingID *string) (store.Inquiry, error)
}

// ImportEngine bulk-loads listings from a CSV upload.
type ImportEngine interface {
	Import(data []byte) (importer.Result, error)
}

// BillingService creates payment-provider sessions for vendors.
type BillingService interface {
	CreateCheckoutSession(userID, userEmail, listingID string) (string, error)
	CreatePortalSession(userID, listingID string) (string, error)
}

// WebhookReconciler applies provider subscription events.
type WebhookReconciler interface {
	HandleEvent(payload []byte, sigHeader string) error
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	listings   ListingService
	claims     ClaimService
	vendors    VendorService
	inquiries  InquiryService
	importer   ImportEngine
	billing    BillingService
	reconciler WebhookReconciler
	policy     *authz.Policy
	log        zerolog.Logger
}

// New configures a Server with the given collaborators.
func New(
	listingSvc ListingService,
	claimSvc ClaimService,
	vendorSvc VendorService,
	inquirySvc InquiryService,
	importEngine ImportEngine,
	billingSvc BillingService,
	reconciler WebhookReconciler,
	policy *authz.Policy,
	logger zerolog.Logger,
) *Server {
	return &Server{
		listings:   listingSvc,
		claims:     claimSvc,
		vendors:    vendorSvc,
		inquiries:  inquirySvc,
		importer:   importEngine,
		billing:    billingSvc,
		reconciler: reconciler,
		policy:     policy,
		log:        logger,
	}
}

// Routes exposes the HTTP handlers.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Vendor accounts
	mux.HandleFunc("POST /api/v1/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	// Public directory
	mux.HandleFunc("GET /api/v1/listings", s.handleListings)
	mux.HandleFunc("GET /api/v1/listings/featured", s.handleFeaturedListings)
	mux.HandleFunc("GET /api/v1/listings/premium", s.handlePremiumListings)
	mux.HandleFunc("GET /api/v1/listings/{slug}", s.handleListingBySlug)
	mux.HandleFunc("POST /api/v1/listings/{id}/views", s.handleRecordView)

	// Lead capture
	mux.HandleFunc("POST /api/v1/inquiries", s.handleSubmitInquiry)

	// Vendor dashboard
	mux.HandleFunc("GET /api/v1/me", s.handleCurrentUser)
	mux.HandleFunc("GET /api/v1/me/listings", s.handleMyListings)
	mux.HandleFunc("GET /api/v1/me/listings/{id}/inquiries", s.handleListingInquiries)
	mux.HandleFunc("GET /api/v1/me/inquiries/broadcast", s.handleBroadcastFeed)
	mux.HandleFunc("PATCH /api/v1/me/inquiries/{id}", s.handleUpdateInquiryStatus)
	mux.HandleFunc("POST /api/v1/claims", s.handleSubmitClaim)
	mux.HandleFunc("GET /api/v1/me/claims", s.handleMyClaims)

	// Billing
	mux.HandleFunc("POST /api/v1/billing/checkout", s.handleCheckout)
	mux.HandleFunc("POST /api/v1/billing/portal", s.handlePortal)
	mux.HandleFunc("POST /api/v1/webhooks/stripe", s.handleStripeWebhook)

	// Admin back-office
	mux.HandleFunc("POST /api/v1/admin/import", s.handleImport)
	mux.HandleFunc("GET /api/v1/admin/listings", s.handleAdminListings)
	mux.HandleFunc("POST /api/v1/admin/listings/{id}/publish", s.handlePublish)
	mux.HandleFunc("POST /api/v1/admin/listings/{id}/unpublish", s.handleUnpublish)
	mux.HandleFunc("GET /api/v1/admin/claims", s.handlePendingClaims)
	mux.HandleFunc("POST /api/v1/admin/claims/{id}/approve", s.handleApproveClaim)
	mux.HandleFunc("POST /api/v1/admin/claims/{id}/reject", s.handleRejectClaim)

	return mux
}

type errorResponse struct {
	Error string `json:"error"`
}

// requireVendor resolves the bearer session token to an account.
func (s *Server) requireVendor(r *http.Request) (store.User, error) {
	token := parseBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return store.User{}, store.ErrUnauthorized
	}
	return s.vendors.CurrentUser(r.Context(), token)
}

// requireAdmin additionally checks the allow-list policy. Runs before
// any request body is read.
func (s *Server) requireAdmin(r *http.Request) (store.User, error) {
	user, err := s.requireVendor(r)
	if err != nil {
		return store.User{}, err
	}
	if !s.policy.IsAdmin(user.ID) {
		return store.User{}, store.ErrUnauthorized
	}
	return user, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateClaim):
		status = http.StatusConflict
	case errors.Is(err, store.ErrUserExists):
		status = http.StatusConflict
	case errors.Is(err, store.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
		// Internal detail is logged, not shown.
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func parseBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
