package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"dmcdir/internal/store"
)

const (
	defaultPageSize = 12
	maxPageSize     = 50
	railLimit       = 6
)

type listingsResponse struct {
	Items    []store.Listing `json:"items"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := store.ListingFilter{
		State:        q.Get("state"),
		PriceTier:    q.Get("tier"),
		PremiumOnly:  q.Get("premium") == "true",
		Categories:   splitParam(q.Get("category")),
		Destinations: splitParam(q.Get("destination")),
	}

	page := parsePositiveInt(q.Get("page"), 1)
	pageSize := parsePositiveInt(q.Get("pageSize"), defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	result, err := s.listings.FindPublished(r.Context(), filter, pageSize, (page-1)*pageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listingsResponse{
		Items:    result.Items,
		Total:    result.Total,
		Page:     page,
		PageSize: pageSize,
	})
}

func (s *Server) handleListingBySlug(w http.ResponseWriter, r *http.Request) {
	listing, err := s.listings.BySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleFeaturedListings(w http.ResponseWriter, r *http.Request) {
	items, err := s.listings.Featured(r.Context(), railLimit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handlePremiumListings(w http.ResponseWriter, r *http.Request) {
	items, err := s.listings.Premium(r.Context(), railLimit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleRecordView bumps the profile view counter. Counting is
// best-effort so failures still return 204.
func (s *Server) handleRecordView(w http.ResponseWriter, r *http.Request) {
	if err := s.listings.RecordView(r.Context(), r.PathValue("id")); err != nil {
		s.log.Warn().Err(err).Str("listing_id", r.PathValue("id")).Msg("record view")
	}
	w.WriteHeader(http.StatusNoContent)
}

func splitParam(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parsePositiveInt(v string, fallback int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
