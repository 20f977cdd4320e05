package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"memberdb/internal/domain"
	"memberdb/internal/store"
)

// membershipRequest is the create/update payload for a membership. Enum
// fields arrive as names and are validated against the closed sets; dates are
// ISO yyyy-MM-dd.
type membershipRequest struct {
	Type          string             `json:"type"`
	PayType       string             `json:"payType"`
	Status        string             `json:"status"`
	Rights        string             `json:"rights"`
	Category      string             `json:"category"`
	RenewalStatus string             `json:"renewalStatus"`
	StartDate     string             `json:"startDate"`
	EndDate       *string            `json:"endDate"`
	DateLastPaid  *string            `json:"dateLastPaid"`
	Members       []membershipMember `json:"members"`
}

type membershipMember struct {
	MemberID int    `json:"memberId"`
	Role     string `json:"role"`
}

// parse validates the payload and builds the domain records. All enum
// failures are reported together.
func (req *membershipRequest) parse(now time.Time) (domain.Membership, []domain.MembershipMember, []string) {
	var errs []string

	ms := domain.Membership{CreatedAt: now, UpdatedAt: now}

	if v, ok := domain.ParseMembershipType(req.Type); ok {
		ms.Type = v
	} else {
		errs = append(errs, "invalid type value: '"+req.Type+"'")
	}
	if v, ok := domain.ParsePayType(req.PayType); ok {
		ms.PayType = v
	} else {
		errs = append(errs, "invalid payType value: '"+req.PayType+"'")
	}
	if v, ok := domain.ParseMembershipStatus(req.Status); ok {
		ms.Status = v
	} else {
		errs = append(errs, "invalid status value: '"+req.Status+"'")
	}
	if v, ok := domain.ParseMemberRights(req.Rights); ok {
		ms.Rights = v
	} else {
		errs = append(errs, "invalid rights value: '"+req.Rights+"'")
	}
	if v, ok := domain.ParseMemberCategory(req.Category); ok {
		ms.Category = v
	} else {
		errs = append(errs, "invalid category value: '"+req.Category+"'")
	}
	if v, ok := domain.ParseRenewalStatus(req.RenewalStatus); ok {
		ms.RenewalStatus = v
	} else {
		errs = append(errs, "invalid renewalStatus value: '"+req.RenewalStatus+"'")
	}

	if t, err := time.ParseInLocation("2006-01-02", req.StartDate, time.UTC); err == nil {
		ms.StartDate = t
	} else {
		errs = append(errs, "invalid startDate: '"+req.StartDate+"'")
	}
	if req.EndDate != nil && *req.EndDate != "" {
		if t, err := time.ParseInLocation("2006-01-02", *req.EndDate, time.UTC); err == nil {
			ms.EndDate = &t
		} else {
			errs = append(errs, "invalid endDate: '"+*req.EndDate+"'")
		}
	}
	if req.DateLastPaid != nil && *req.DateLastPaid != "" {
		if t, err := time.ParseInLocation("2006-01-02", *req.DateLastPaid, time.UTC); err == nil {
			ms.DateLastPaid = &t
		} else {
			errs = append(errs, "invalid dateLastPaid: '"+*req.DateLastPaid+"'")
		}
	}

	if len(req.Members) == 0 {
		errs = append(errs, "at least one member is required")
	}
	links := make([]domain.MembershipMember, 0, len(req.Members))
	for _, m := range req.Members {
		role := domain.RolePrimary
		if m.Role != "" {
			v, ok := domain.ParseMembershipRole(m.Role)
			if !ok {
				errs = append(errs, "invalid role value: '"+m.Role+"'")
				continue
			}
			role = v
		}
		links = append(links, domain.MembershipMember{MemberID: m.MemberID, Role: role})
	}

	return ms, links, errs
}

func (s *Server) handleGetMembership(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	detail, err := s.repo.GetMembership(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "membership not found")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleMembershipsForMember(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if _, err := s.repo.GetMember(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "member not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	details, err := s.repo.MembershipsForMember(r.Context(), id)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *Server) handleCreateMembership(w http.ResponseWriter, r *http.Request) {
	var req membershipRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ms, links, errs := req.parse(time.Now().UTC())
	if len(errs) > 0 {
		writeError(w, r, http.StatusBadRequest, strings.Join(errs, "; "))
		return
	}

	if err := s.repo.CreateMembership(r.Context(), &ms, links); err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	detail, err := s.repo.GetMembership(r.Context(), ms.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

func (s *Server) handleUpdateMembership(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req membershipRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ms, links, errs := req.parse(time.Now().UTC())
	if len(errs) > 0 {
		writeError(w, r, http.StatusBadRequest, strings.Join(errs, "; "))
		return
	}
	ms.ID = id

	err := s.repo.UpdateMembership(r.Context(), &ms, links)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "membership not found")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	detail, err := s.repo.GetMembership(r.Context(), id)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDeleteMembership(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	err := s.repo.DeleteMembership(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "membership not found")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
