package web

import (
	"net/http"
	"time"

	"memberdb/internal/domain"
	"memberdb/internal/store"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := s.repo.GetDashboard(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

// handleLookups returns the closed enum name sets the UI builds its selects
// from.
func (s *Server) handleLookups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"payTypes":           domain.PayTypeNames,
		"membershipStatuses": domain.MembershipStatusNames,
		"membershipTypes":    domain.MembershipTypeNames,
		"memberRights":       domain.MemberRightsNames,
		"memberCategories":   domain.MemberCategoryNames,
		"renewalStatuses":    domain.RenewalStatusNames,
		"membershipRoles":    domain.MembershipRoleNames,
	})
}

type bulkStatusRequest struct {
	MemberIDs     []int  `json:"memberIds"`
	Status        string `json:"status"`
	RenewalStatus string `json:"renewalStatus"`
}

// handleBulkStatus updates the latest membership of each listed member. At
// least one of status/renewalStatus must be given.
func (s *Server) handleBulkStatus(w http.ResponseWriter, r *http.Request) {
	var req bulkStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.MemberIDs) == 0 {
		writeError(w, r, http.StatusBadRequest, "No member IDs provided.")
		return
	}

	update := store.BulkStatusUpdate{MemberIDs: req.MemberIDs}
	if req.Status != "" {
		status, ok := domain.ParseMembershipStatus(req.Status)
		if !ok {
			writeError(w, r, http.StatusBadRequest, "invalid status value: '"+req.Status+"'")
			return
		}
		v := string(status)
		update.Status = &v
	}
	if req.RenewalStatus != "" {
		renewal, ok := domain.ParseRenewalStatus(req.RenewalStatus)
		if !ok {
			writeError(w, r, http.StatusBadRequest, "invalid renewal status value: '"+req.RenewalStatus+"'")
			return
		}
		v := string(renewal)
		update.RenewalStatus = &v
	}
	if update.Status == nil && update.RenewalStatus == nil {
		writeError(w, r, http.StatusBadRequest, "At least one of 'status' or 'renewalStatus' must be provided.")
		return
	}

	updated, err := s.repo.BulkUpdateMembershipStatus(r.Context(), update)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	database := "connected"
	if err := s.repo.Ping(r.Context()); err != nil {
		database = "unavailable"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"database":  database,
		"timestamp": time.Now().UTC(),
	})
}
