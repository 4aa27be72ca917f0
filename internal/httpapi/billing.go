package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"dmcdir/internal/billing"
)

type billingRequest struct {
	ListingID string `json:"listingId"`
}

type sessionResponse struct {
	URL string `json:"url"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	user, err := s.requireVendor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req billingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	url, err := s.billing.CreateCheckoutSession(user.ID, user.Email, req.ListingID)
	if err != nil {
		s.writeBillingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{URL: url})
}

func (s *Server) handlePortal(w http.ResponseWriter, r *http.Request) {
	user, err := s.requireVendor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req billingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	url, err := s.billing.CreatePortalSession(user.ID, req.ListingID)
	if err != nil {
		s.writeBillingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{URL: url})
}

func (s *Server) writeBillingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billing.ErrNotOwner):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, billing.ErrAlreadyPremium):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, billing.ErrNoCustomer):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.writeError(w, err)
	}
}

// maxWebhookBody caps the payload size accepted from the payment
// provider.
const maxWebhookBody = 1 << 16

// handleStripeWebhook verifies and applies a provider event. A
// rejected event gets 400 and will not be retried; a store failure
// gets 500 so the provider retries it.
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unreadable payload"})
		return
	}

	if err := s.reconciler.HandleEvent(payload, r.Header.Get("Stripe-Signature")); err != nil {
		var rejected *billing.RejectedError
		if errors.As(err, &rejected) {
			s.log.Warn().Err(err).Msg("webhook event rejected")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid event"})
			return
		}
		s.log.Error().Err(err).Msg("webhook event failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "event processing failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
