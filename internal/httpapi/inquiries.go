package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"dmcdir/internal/inquiries"
	"dmcdir/internal/store"
)

type inquiryRequest struct {
	inquiries.Form
	Source    string  `json:"source"`
	ListingID *string `json:"listingId"`
}

type inquiryResponse struct {
	Success   bool   `json:"success"`
	InquiryID string `json:"inquiryId"`
}

// handleSubmitInquiry accepts a lead form. Listing-specific
// submissions must name a listing; broadcast ones must not.
func (s *Server) handleSubmitInquiry(w http.ResponseWriter, r *http.Request) {
	var req inquiryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	var listingID *string
	switch req.Source {
	case store.InquirySourceListing:
		if req.ListingID == nil || strings.TrimSpace(*req.ListingID) == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "listingId is required for listing inquiries"})
			return
		}
		listingID = req.ListingID
	case store.InquirySourceBroadcast:
		listingID = nil
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "source must be listing or broadcast"})
		return
	}

	inquiry, err := s.inquiries.Submit(r.Context(), req.Form, req.Source, listingID)
	if err != nil {
		var verr *inquiries.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message})
			return
		}
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, inquiryResponse{Success: true, InquiryID: inquiry.ID})
}
