package service

import (
	"context"
	"fmt"

	"github.com/AlekseyZapadovnikov/review-calibration/internal/domain"
	"github.com/AlekseyZapadovnikov/review-calibration/internal/models"
)

// MapRepository описывает операции хранилища связей «ревьюер — объект ревью».
type MapRepository interface {
	SaveReviewMap(ctx context.Context, m *models.ReviewMap) error
	GetReviewMap(ctx context.Context, mapID string) (*models.ReviewMap, error)
	FindCalibrationMaps(ctx context.Context, assignmentID, revieweeID string) ([]*models.ReviewMap, error)
	FindCalibrationMapsByReviewer(ctx context.Context, assignmentID, reviewerID string) ([]*models.ReviewMap, error)
	FindInstructorReferenceMap(ctx context.Context, assignmentID, revieweeID, instructorID string) (*models.ReviewMap, error)
	DeleteReviewMap(ctx context.Context, mapID string) error
}

// ResponseRepository описывает операции хранилища версий ревью и оценок.
type ResponseRepository interface {
	CreateResponse(ctx context.Context, mapID string) (*models.Response, error)
	GetResponse(ctx context.Context, responseID string) (*models.Response, error)
	LatestResponse(ctx context.Context, mapID string) (*models.Response, error)
	IsCompleted(ctx context.Context, mapID string) (bool, error)
	SubmitResponse(ctx context.Context, responseID string) error
	AnswersFor(ctx context.Context, responseID string) (map[string]models.Answer, error)
	UpsertAnswer(ctx context.Context, responseID, itemID string, score int, comment string) error
}

// IdentityDirectory — внешний справочник пользователей, команд и заданий.
// В тестах подставляется фейковая реализация.
type IdentityDirectory interface {
	GetAssignment(ctx context.Context, assignmentID string) (*models.Assignment, error)
	GetParticipant(ctx context.Context, participantID string) (*models.Participant, error)
	GetTeam(ctx context.Context, teamID string) (*models.Team, error)
	InstructorParticipantID(ctx context.Context, assignmentID string) (string, error)
	RevieweeCapacityExhausted(ctx context.Context, revieweeID string) (bool, error)
}

// ContentProvider — внешнее хранилище сданных командами материалов.
type ContentProvider interface {
	SubmittedContent(ctx context.Context, teamID string) (models.SubmittedContent, error)
}

// MappingManager отвечает за жизненный цикл связей и версий ревью.
type MappingManager struct {
	maps      MapRepository
	responses ResponseRepository
	directory IdentityDirectory
}

// NewMappingManager связывает менеджер с хранилищами и справочником.
func NewMappingManager(maps MapRepository, responses ResponseRepository, directory IdentityDirectory) *MappingManager {
	return &MappingManager{
		maps:      maps,
		responses: responses,
		directory: directory,
	}
}

// CreateMapping проверяет инварианты и создаёт связь «ревьюер — объект ревью».
func (mm *MappingManager) CreateMapping(ctx context.Context, payload models.PostMappingCreateJSONBody) (*models.ReviewMap, error) {
	if !payload.Variant.Valid() {
		return nil, domain.NewValidationError(fmt.Sprintf("unknown map variant %q", payload.Variant))
	}
	if !payload.RevieweeKind.Valid() {
		return nil, domain.NewValidationError(fmt.Sprintf("unknown reviewee kind %q", payload.RevieweeKind))
	}

	if _, err := mm.directory.GetAssignment(ctx, payload.AssignmentID); err != nil {
		return nil, err
	}
	if _, err := mm.directory.GetParticipant(ctx, payload.ReviewerID); err != nil {
		return nil, err
	}

	// Самоназначение запрещено для всех разновидностей, кроме явного SelfReview.
	if payload.RevieweeKind == models.RevieweeParticipant &&
		payload.ReviewerID == payload.RevieweeID &&
		payload.Variant != models.VariantSelfReview {
		return nil, domain.NewSelfReviewError(payload.ReviewerID)
	}

	if payload.RevieweeKind == models.RevieweeTeam {
		exhausted, err := mm.directory.RevieweeCapacityExhausted(ctx, payload.RevieweeID)
		if err != nil {
			return nil, err
		}
		if exhausted {
			return nil, domain.NewCapacityError(payload.RevieweeID)
		}
	}

	m := &models.ReviewMap{
		ReviewerID:     payload.ReviewerID,
		RevieweeID:     payload.RevieweeID,
		RevieweeKind:   payload.RevieweeKind,
		AssignmentID:   payload.AssignmentID,
		Variant:        payload.Variant,
		ForCalibration: payload.ForCalibration,
	}
	if err := mm.maps.SaveReviewMap(ctx, m); err != nil {
		return nil, fmt.Errorf("save review map: %w", err)
	}
	return m, nil
}

// DeleteMapping удаляет связь вместе с её версиями ревью и оценками.
func (mm *MappingManager) DeleteMapping(ctx context.Context, mapID string) error {
	if mapID == "" {
		return domain.NewValidationError("map_id is required")
	}
	return mm.maps.DeleteReviewMap(ctx, mapID)
}

// CreateResponse открывает новую версию ревью для существующей связи.
func (mm *MappingManager) CreateResponse(ctx context.Context, mapID string) (*models.Response, error) {
	if _, err := mm.maps.GetReviewMap(ctx, mapID); err != nil {
		return nil, err
	}
	resp, err := mm.responses.CreateResponse(ctx, mapID)
	if err != nil {
		return nil, fmt.Errorf("create response: %w", err)
	}
	return resp, nil
}

// SubmitResponse помечает версию ревью отправленной и возвращает её актуальное состояние.
func (mm *MappingManager) SubmitResponse(ctx context.Context, responseID string) (*models.Response, error) {
	if err := mm.responses.SubmitResponse(ctx, responseID); err != nil {
		return nil, err
	}
	resp, err := mm.responses.GetResponse(ctx, responseID)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// UpsertAnswer записывает оценку вопроса в неотправленную версию ревью.
// Отправленная версия неизменяема: новые правки требуют новой версии.
func (mm *MappingManager) UpsertAnswer(ctx context.Context, payload models.PostAnswerUpsertJSONBody) error {
	if payload.Score == nil {
		return domain.NewValidationError("score is required")
	}

	resp, err := mm.responses.GetResponse(ctx, payload.ResponseID)
	if err != nil {
		return err
	}
	if resp.IsSubmitted {
		return domain.NewValidationError(fmt.Sprintf("response %s is already submitted", payload.ResponseID))
	}

	if err := mm.responses.UpsertAnswer(ctx, payload.ResponseID, payload.ItemID, *payload.Score, payload.Comment); err != nil {
		return fmt.Errorf("upsert answer: %w", err)
	}
	return nil
}
