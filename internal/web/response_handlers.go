package web

import (
	"encoding/json"
	"net/http"

	"github.com/AlekseyZapadovnikov/review-calibration/internal/models"
)

type responseResp struct {
	Response *models.Response `json:"response"`
}

// handleResponseCreate открывает новую версию ревью для связи.
func (s *Server) handleResponseCreate(w http.ResponseWriter, r *http.Request) {
	var p models.PostResponseCreateJSONBody
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, string(INVALIDPAYLOAD), "invalid json payload")
		return
	}
	if p.MapID == "" {
		writeError(w, http.StatusBadRequest, string(MISSINGPARAM), "map_id is required")
		return
	}

	ctx := r.Context()
	resp, err := s.mappingService.CreateResponse(ctx, p.MapID)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusCreated, responseResp{Response: resp})
}

// handleResponseSubmit помечает версию ревью отправленной.
func (s *Server) handleResponseSubmit(w http.ResponseWriter, r *http.Request) {
	var p models.PostResponseSubmitJSONBody
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, string(INVALIDPAYLOAD), "invalid json payload")
		return
	}
	if p.ResponseID == "" {
		writeError(w, http.StatusBadRequest, string(MISSINGPARAM), "response_id is required")
		return
	}

	ctx := r.Context()
	resp, err := s.mappingService.SubmitResponse(ctx, p.ResponseID)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, responseResp{Response: resp})
}

// handleAnswerUpsert записывает оценку вопроса в версию ревью.
func (s *Server) handleAnswerUpsert(w http.ResponseWriter, r *http.Request) {
	var p models.PostAnswerUpsertJSONBody
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, string(INVALIDPAYLOAD), "invalid json payload")
		return
	}
	if p.ResponseID == "" || p.ItemID == "" {
		writeError(w, http.StatusBadRequest, string(MISSINGPARAM), "response_id and item_id are required")
		return
	}

	ctx := r.Context()
	if err := s.mappingService.UpsertAnswer(ctx, p); err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}
