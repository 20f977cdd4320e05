package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"memberdb/internal/domain"
	"memberdb/internal/store"
)

// memberRequest is the create/update payload for a member.
type memberRequest struct {
	DonmanID        *int    `json:"donmanId"`
	FirstName       string  `json:"firstName"`
	Surname         string  `json:"surname"`
	Title           *string `json:"title"`
	Email           *string `json:"email"`
	Mobile          *string `json:"mobile"`
	MailchimpName   *string `json:"mailchimpName"`
	AddressStreet   *string `json:"addressStreet"`
	AddressSuburb   *string `json:"addressSuburb"`
	AddressState    *string `json:"addressState"`
	AddressPostcode *string `json:"addressPostcode"`
	Notes           *string `json:"notes"`
	UpdateEpas      *string `json:"updateEpas"`
	OrgFoundation   *string `json:"orgFoundation"`
}

func (req *memberRequest) toMember(now time.Time) domain.Member {
	return domain.Member{
		DonmanID:        req.DonmanID,
		FirstName:       req.FirstName,
		Surname:         req.Surname,
		Title:           req.Title,
		Email:           req.Email,
		Mobile:          req.Mobile,
		MailchimpName:   req.MailchimpName,
		AddressStreet:   req.AddressStreet,
		AddressSuburb:   req.AddressSuburb,
		AddressState:    req.AddressState,
		AddressPostcode: req.AddressPostcode,
		Notes:           req.Notes,
		UpdateEpas:      req.UpdateEpas,
		OrgFoundation:   req.OrgFoundation,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// memberFilterFromQuery builds a member filter from the shared query
// parameters. Enum filters must name a known value; pagination clamps to
// page >= 1 and 1 <= pageSize <= 100.
func memberFilterFromQuery(w http.ResponseWriter, r *http.Request) (store.MemberFilter, bool) {
	q := r.URL.Query()
	f := store.MemberFilter{
		Search:   q.Get("search"),
		Page:     1,
		PageSize: 25,
	}

	if v := q.Get("status"); v != "" {
		status, ok := domain.ParseMembershipStatus(v)
		if !ok {
			writeError(w, r, http.StatusBadRequest, "invalid status value: '"+v+"'")
			return f, false
		}
		f.Status = string(status)
	}
	if v := q.Get("category"); v != "" {
		category, ok := domain.ParseMemberCategory(v)
		if !ok {
			writeError(w, r, http.StatusBadRequest, "invalid category value: '"+v+"'")
			return f, false
		}
		f.Category = string(category)
	}
	if v := q.Get("renewalStatus"); v != "" {
		renewal, ok := domain.ParseRenewalStatus(v)
		if !ok {
			writeError(w, r, http.StatusBadRequest, "invalid renewalStatus value: '"+v+"'")
			return f, false
		}
		f.RenewalStatus = string(renewal)
	}

	if page, err := strconv.Atoi(q.Get("page")); err == nil && page >= 1 {
		f.Page = page
	}
	if size, err := strconv.Atoi(q.Get("pageSize")); err == nil && size >= 1 {
		if size > 100 {
			size = 100
		}
		f.PageSize = size
	}

	return f, true
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	filter, ok := memberFilterFromQuery(w, r)
	if !ok {
		return
	}

	page, err := s.repo.ListMembers(r.Context(), filter)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	item, err := s.repo.GetMember(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "member not found")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FirstName == "" && req.Surname == "" {
		writeError(w, r, http.StatusBadRequest, "firstName or surname is required")
		return
	}

	member := req.toMember(time.Now().UTC())
	if err := s.repo.CreateMember(r.Context(), &member); err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	member := req.toMember(time.Now().UTC())
	member.ID = id
	err := s.repo.UpdateMember(r.Context(), &member)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "member not found")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	err := s.repo.DeleteMember(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "member not found")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// idParam parses the {id} route parameter.
func idParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// decodeJSON decodes a request body, rejecting unknown payload shapes with
// a 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
