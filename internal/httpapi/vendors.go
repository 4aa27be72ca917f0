package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"dmcdir/internal/app/vendors"
	"dmcdir/internal/store"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	token, err := s.vendors.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	token, err := s.vendors.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.requireVendor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleMyListings(w http.ResponseWriter, r *http.Request) {
	token := parseBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		s.writeError(w, store.ErrUnauthorized)
		return
	}

	items, err := s.vendors.MyListings(r.Context(), token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleListingInquiries(w http.ResponseWriter, r *http.Request) {
	token := parseBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		s.writeError(w, store.ErrUnauthorized)
		return
	}

	items, err := s.vendors.ListingInquiries(r.Context(), token, r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleBroadcastFeed(w http.ResponseWriter, r *http.Request) {
	token := parseBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		s.writeError(w, store.ErrUnauthorized)
		return
	}

	items, err := s.vendors.BroadcastFeed(r.Context(), token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type inquiryStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateInquiryStatus(w http.ResponseWriter, r *http.Request) {
	token := parseBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		s.writeError(w, store.ErrUnauthorized)
		return
	}

	var req inquiryStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	if err := s.vendors.UpdateInquiryStatus(r.Context(), token, r.PathValue("id"), req.Status); err != nil {
		if errors.Is(err, vendors.ErrInvalidStatus) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type claimRequestBody struct {
	ListingID         string  `json:"listingId"`
	RequesterName     string  `json:"requesterName"`
	RequesterEmail    string  `json:"requesterEmail"`
	RequesterPhone    *string `json:"requesterPhone"`
	Position          *string `json:"position"`
	VerificationNotes *string `json:"verificationNotes"`
}

func (s *Server) handleSubmitClaim(w http.ResponseWriter, r *http.Request) {
	user, err := s.requireVendor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req claimRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.ListingID) == "" ||
		strings.TrimSpace(req.RequesterName) == "" ||
		strings.TrimSpace(req.RequesterEmail) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "listingId, requesterName and requesterEmail are required"})
		return
	}

	id, err := s.claims.Submit(r.Context(), store.ClaimRequest{
		ListingID:         req.ListingID,
		UserID:            user.ID,
		RequesterName:     req.RequesterName,
		RequesterEmail:    req.RequesterEmail,
		RequesterPhone:    req.RequesterPhone,
		Position:          req.Position,
		VerificationNotes: req.VerificationNotes,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleMyClaims(w http.ResponseWriter, r *http.Request) {
	user, err := s.requireVendor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	items, err := s.claims.ByUser(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
