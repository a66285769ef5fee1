package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlekseyZapadovnikov/review-calibration/internal/domain"
	"github.com/AlekseyZapadovnikov/review-calibration/internal/models"
)

const reviewMapColumns = `map_id, reviewer_id, reviewee_id, reviewee_kind, assignment_id, variant, for_calibration`

// SaveReviewMap вставляет новую связь «ревьюер — объект ревью» и
// записывает присвоенный базой идентификатор в m.MapID.
func (s *Storage) SaveReviewMap(ctx context.Context, m *models.ReviewMap) error {
	if m == nil {
		return fmt.Errorf("review map is nil")
	}

	const insertMap = `
	INSERT INTO review_maps (map_id, reviewer_id, reviewee_id, reviewee_kind, assignment_id, variant, for_calibration)
	VALUES (gen_random_uuid()::text, $1, $2, $3, $4, $5, $6)
	RETURNING map_id
	`
	rows, err := s.pool.Query(ctx, insertMap,
		m.ReviewerID,
		m.RevieweeID,
		string(m.RevieweeKind),
		m.AssignmentID,
		string(m.Variant),
		m.ForCalibration,
	)
	if err != nil {
		return fmt.Errorf("insert review_maps: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return fmt.Errorf("insert review_maps: no map_id returned")
	}
	if err := rows.Scan(&m.MapID); err != nil {
		return fmt.Errorf("scan inserted map_id: %w", err)
	}
	return nil
}

// GetReviewMap возвращает связь по идентификатору.
func (s *Storage) GetReviewMap(ctx context.Context, mapID string) (*models.ReviewMap, error) {
	const q = `
	SELECT ` + reviewMapColumns + `
	FROM review_maps
	WHERE map_id = $1
	`
	rows, err := s.pool.Query(ctx, q, mapID)
	if err != nil {
		return nil, fmt.Errorf("query GetReviewMap: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, domain.NewNotFoundError(fmt.Sprintf("review map %s", mapID))
	}
	m, err := scanReviewMap(rows)
	if err != nil {
		return nil, fmt.Errorf("scan GetReviewMap: %w", err)
	}
	return m, nil
}

// FindCalibrationMaps возвращает все калибровочные связи для пары (задание, объект ревью).
// Разделение на эталонную и студенческие выполняет сервисный слой.
func (s *Storage) FindCalibrationMaps(ctx context.Context, assignmentID, revieweeID string) ([]*models.ReviewMap, error) {
	const q = `
	SELECT ` + reviewMapColumns + `
	FROM review_maps
	WHERE for_calibration = true
	  AND assignment_id = $1
	  AND reviewee_id = $2
	ORDER BY map_id
	`
	return s.queryReviewMaps(ctx, q, "FindCalibrationMaps", assignmentID, revieweeID)
}

// FindCalibrationMapsByReviewer возвращает калибровочные связи конкретного ревьюера в задании.
func (s *Storage) FindCalibrationMapsByReviewer(ctx context.Context, assignmentID, reviewerID string) ([]*models.ReviewMap, error) {
	const q = `
	SELECT ` + reviewMapColumns + `
	FROM review_maps
	WHERE for_calibration = true
	  AND assignment_id = $1
	  AND reviewer_id = $2
	ORDER BY map_id
	`
	return s.queryReviewMaps(ctx, q, "FindCalibrationMapsByReviewer", assignmentID, reviewerID)
}

// FindInstructorReferenceMap возвращает единственную эталонную связь преподавателя
// для пары (задание, объект ревью) либо NotFound.
func (s *Storage) FindInstructorReferenceMap(ctx context.Context, assignmentID, revieweeID, instructorID string) (*models.ReviewMap, error) {
	const q = `
	SELECT ` + reviewMapColumns + `
	FROM review_maps
	WHERE for_calibration = true
	  AND assignment_id = $1
	  AND reviewee_id = $2
	  AND reviewer_id = $3
	LIMIT 1
	`
	rows, err := s.pool.Query(ctx, q, assignmentID, revieweeID, instructorID)
	if err != nil {
		return nil, fmt.Errorf("query FindInstructorReferenceMap: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, domain.NewNotFoundError(
			fmt.Sprintf("instructor reference map for assignment %s and reviewee %s", assignmentID, revieweeID))
	}
	m, err := scanReviewMap(rows)
	if err != nil {
		return nil, fmt.Errorf("scan FindInstructorReferenceMap: %w", err)
	}
	return m, nil
}

// DeleteReviewMap удаляет связь и каскадно все её версии ревью с оценками
// в одной транзакции.
func (s *Storage) DeleteReviewMap(ctx context.Context, mapID string) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback tx: %w", rollbackErr))
			}
		}
	}()

	const deleteAnswers = `
	DELETE FROM answers
	WHERE response_id IN (SELECT response_id FROM responses WHERE map_id = $1)
	`
	if _, err := tx.Exec(ctx, deleteAnswers, mapID); err != nil {
		return fmt.Errorf("delete answers for map %s: %w", mapID, err)
	}

	const deleteResponses = `DELETE FROM responses WHERE map_id = $1`
	if _, err := tx.Exec(ctx, deleteResponses, mapID); err != nil {
		return fmt.Errorf("delete responses for map %s: %w", mapID, err)
	}

	const deleteMap = `DELETE FROM review_maps WHERE map_id = $1`
	tag, err := tx.Exec(ctx, deleteMap, mapID)
	if err != nil {
		return fmt.Errorf("delete review map %s: %w", mapID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError(fmt.Sprintf("review map %s", mapID))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// queryReviewMaps выполняет запрос списка связей и сканирует результат.
func (s *Storage) queryReviewMaps(ctx context.Context, q, op string, args ...any) ([]*models.ReviewMap, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.ReviewMap
	for rows.Next() {
		m, err := scanReviewMap(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", op, err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows %s: %w", op, err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanReviewMap читает одну строку review_maps в модель.
func scanReviewMap(row rowScanner) (*models.ReviewMap, error) {
	var (
		mapID          string
		reviewerID     string
		revieweeID     string
		revieweeKind   string
		assignmentID   string
		variant        string
		forCalibration bool
	)
	if err := row.Scan(&mapID, &reviewerID, &revieweeID, &revieweeKind, &assignmentID, &variant, &forCalibration); err != nil {
		return nil, err
	}
	return &models.ReviewMap{
		MapID:          mapID,
		ReviewerID:     reviewerID,
		RevieweeID:     revieweeID,
		RevieweeKind:   models.RevieweeKind(revieweeKind),
		AssignmentID:   assignmentID,
		Variant:        models.MapVariant(variant),
		ForCalibration: forCalibration,
	}, nil
}
