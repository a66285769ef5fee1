package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListSubmissions возвращает листинг калибровочных сабмишенов задания.
func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignment_id")
	if assignmentID == "" {
		writeError(w, http.StatusBadRequest, string(MISSINGPARAM), "assignment_id is required")
		return
	}

	ctx := r.Context()
	resp, err := s.calibrationService.ListSubmissions(ctx, assignmentID)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleStudentReport возвращает сравнение калибровочных ревью студента с эталоном.
func (s *Server) handleStudentReport(w http.ResponseWriter, r *http.Request) {
	assignmentID := r.URL.Query().Get("assignment_id")
	studentID := r.URL.Query().Get("student_participant_id")
	if assignmentID == "" || studentID == "" {
		writeError(w, http.StatusBadRequest, string(MISSINGPARAM), "assignment_id and student_participant_id are required")
		return
	}

	ctx := r.Context()
	report, err := s.calibrationService.StudentReport(ctx, assignmentID, studentID)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// handleSummary возвращает сводку калибровочных сабмишенов студента.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignment_id")
	studentID := chi.URLParam(r, "student_participant_id")
	if assignmentID == "" || studentID == "" {
		writeError(w, http.StatusBadRequest, string(MISSINGPARAM), "assignment_id and student_participant_id are required")
		return
	}

	ctx := r.Context()
	summary, err := s.calibrationService.Summary(ctx, assignmentID, studentID)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// handleAggregateReport возвращает агрегированный отчёт по объекту ревью.
func (s *Server) handleAggregateReport(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignment_id")
	revieweeID := chi.URLParam(r, "reviewee_id")
	if assignmentID == "" || revieweeID == "" {
		writeError(w, http.StatusBadRequest, string(MISSINGPARAM), "assignment_id and reviewee_id are required")
		return
	}

	ctx := r.Context()
	report, err := s.calibrationService.AggregateReport(ctx, assignmentID, revieweeID)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
