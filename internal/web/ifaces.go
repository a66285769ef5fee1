package web

import (
	"context"

	"github.com/AlekseyZapadovnikov/review-calibration/internal/models"
)

// CalibrationService описывает читающие операции калибровки, нужные HTTP-слою.
type CalibrationService interface {
	ListSubmissions(ctx context.Context, assignmentID string) (*models.CalibrationSubmissionsResponse, error)
	StudentReport(ctx context.Context, assignmentID, studentParticipantID string) (*models.CalibrationStudentReport, error)
	AggregateReport(ctx context.Context, assignmentID, revieweeID string) (*models.CalibrationAggregateReport, error)
	Summary(ctx context.Context, assignmentID, studentParticipantID string) (*models.CalibrationSummary, error)
}

// MappingService описывает операции жизненного цикла связей и версий ревью.
type MappingService interface {
	CreateMapping(ctx context.Context, payload models.PostMappingCreateJSONBody) (*models.ReviewMap, error)
	DeleteMapping(ctx context.Context, mapID string) error
	CreateResponse(ctx context.Context, mapID string) (*models.Response, error)
	SubmitResponse(ctx context.Context, responseID string) (*models.Response, error)
	UpsertAnswer(ctx context.Context, payload models.PostAnswerUpsertJSONBody) error
}
