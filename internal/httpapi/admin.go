package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"dmcdir/internal/importer"
)

// maxImportBytes caps the size of an uploaded CSV.
const maxImportBytes = 10 << 20

// handleImport bulk-loads listings from an uploaded CSV. Authorization
// runs before the body is touched.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if _, err := s.requireAdmin(r); err != nil {
		s.writeError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart upload"})
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing file field"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unreadable upload"})
		return
	}

	result, err := s.importer.Import(data)
	if err != nil {
		var formatErr importer.FormatError
		if errors.As(err, &formatErr) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: formatErr.Error()})
			return
		}
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAdminListings(w http.ResponseWriter, r *http.Request) {
	if _, err := s.requireAdmin(r); err != nil {
		s.writeError(w, err)
		return
	}

	q := r.URL.Query()
	page := parsePositiveInt(q.Get("page"), 1)
	pageSize := parsePositiveInt(q.Get("pageSize"), defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	result, err := s.listings.All(r.Context(), pageSize, (page-1)*pageSize)
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

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	s.setPublished(w, r, true)
}

func (s *Server) handleUnpublish(w http.ResponseWriter, r *http.Request) {
	s.setPublished(w, r, false)
}

func (s *Server) setPublished(w http.ResponseWriter, r *http.Request, published bool) {
	if _, err := s.requireAdmin(r); err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.listings.SetPublished(r.Context(), r.PathValue("id"), published); err != nil {
		s.writeError(w, err)
		return
	}
	redirectBack(w, r, "/admin/listings")
}

func (s *Server) handlePendingClaims(w http.ResponseWriter, r *http.Request) {
	if _, err := s.requireAdmin(r); err != nil {
		s.writeError(w, err)
		return
	}

	items, err := s.claims.Pending(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleApproveClaim(w http.ResponseWriter, r *http.Request) {
	admin, err := s.requireAdmin(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.claims.Approve(r.Context(), r.PathValue("id"), admin.ID); err != nil {
		s.writeError(w, err)
		return
	}
	redirectBack(w, r, "/admin/claims")
}

func (s *Server) handleRejectClaim(w http.ResponseWriter, r *http.Request) {
	admin, err := s.requireAdmin(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var reason *string
	if v := strings.TrimSpace(r.FormValue("reason")); v != "" {
		reason = &v
	}

	if err := s.claims.Reject(r.Context(), r.PathValue("id"), admin.ID, reason); err != nil {
		s.writeError(w, err)
		return
	}
	redirectBack(w, r, "/admin/claims")
}

// redirectBack sends the browser back to the page that posted the
// action, falling back to the given path.
func redirectBack(w http.ResponseWriter, r *http.Request, fallback string) {
	target := r.Referer()
	if target == "" {
		target = fallback
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
