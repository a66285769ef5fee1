package web

import (
	"encoding/json"
	"net/http"

	"github.com/AlekseyZapadovnikov/review-calibration/internal/models"
)

type mappingResp struct {
	Mapping *models.ReviewMap `json:"mapping"`
}

// handleMappingCreate принимает JSON-запрос создания связи и проксирует его в сервис.
func (s *Server) handleMappingCreate(w http.ResponseWriter, r *http.Request) {
	var p models.PostMappingCreateJSONBody
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, string(INVALIDPAYLOAD), "invalid json payload")
		return
	}
	if p.ReviewerID == "" || p.RevieweeID == "" || p.AssignmentID == "" {
		writeError(w, http.StatusBadRequest, string(MISSINGPARAM), "reviewer_id, reviewee_id and assignment_id are required")
		return
	}

	ctx := r.Context()
	m, err := s.mappingService.CreateMapping(ctx, p)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusCreated, mappingResp{Mapping: m})
}

// handleMappingDelete удаляет связь вместе с её версиями ревью.
func (s *Server) handleMappingDelete(w http.ResponseWriter, r *http.Request) {
	var p models.PostMappingDeleteJSONBody
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, string(INVALIDPAYLOAD), "invalid json payload")
		return
	}
	if p.MapID == "" {
		writeError(w, http.StatusBadRequest, string(MISSINGPARAM), "map_id is required")
		return
	}

	ctx := r.Context()
	if err := s.mappingService.DeleteMapping(ctx, p.MapID); err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"deleted": p.MapID})
}
