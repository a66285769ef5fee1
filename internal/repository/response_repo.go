package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlekseyZapadovnikov/review-calibration/internal/domain"
	"github.com/AlekseyZapadovnikov/review-calibration/internal/models"
)

// CreateResponse создаёт новую версию ревью для связи.
// Номер раунда вычисляется в базе как max(round)+1, поэтому «текущая»
// версия определяется явным счётчиком, а не порядком вставки.
func (s *Storage) CreateResponse(ctx context.Context, mapID string) (*models.Response, error) {
	const insertResponse = `
	INSERT INTO responses (response_id, map_id, round, is_submitted, comment, created_at)
	SELECT gen_random_uuid()::text, $1, COALESCE(MAX(round), 0) + 1, false, '', NOW()
	FROM responses
	WHERE map_id = $1
	RETURNING response_id, round, created_at
	`
	rows, err := s.pool.Query(ctx, insertResponse, mapID)
	if err != nil {
		return nil, fmt.Errorf("insert responses: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("insert responses: no row returned")
	}

	var (
		responseID string
		round      int
		createdAt  *time.Time
	)
	if err := rows.Scan(&responseID, &round, &createdAt); err != nil {
		return nil, fmt.Errorf("scan inserted response: %w", err)
	}

	return &models.Response{
		ResponseID:  responseID,
		MapID:       mapID,
		Round:       round,
		IsSubmitted: false,
		CreatedAt:   createdAt,
	}, nil
}

const responseColumns = `response_id, map_id, round, is_submitted, comment, created_at`

// GetResponse возвращает версию ревью по идентификатору.
func (s *Storage) GetResponse(ctx context.Context, responseID string) (*models.Response, error) {
	const q = `
	SELECT ` + responseColumns + `
	FROM responses
	WHERE response_id = $1
	`
	rows, err := s.pool.Query(ctx, q, responseID)
	if err != nil {
		return nil, fmt.Errorf("query GetResponse: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, domain.NewNotFoundError(fmt.Sprintf("response %s", responseID))
	}
	resp, err := scanResponse(rows)
	if err != nil {
		return nil, fmt.Errorf("scan GetResponse: %w", err)
	}
	return resp, nil
}

// LatestResponse возвращает версию ревью с максимальным раундом для связи
// либо NotFound, если версий ещё нет.
func (s *Storage) LatestResponse(ctx context.Context, mapID string) (*models.Response, error) {
	const q = `
	SELECT ` + responseColumns + `
	FROM responses
	WHERE map_id = $1
	ORDER BY round DESC
	LIMIT 1
	`
	rows, err := s.pool.Query(ctx, q, mapID)
	if err != nil {
		return nil, fmt.Errorf("query LatestResponse: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, domain.NewNotFoundError(fmt.Sprintf("response for map %s", mapID))
	}
	resp, err := scanResponse(rows)
	if err != nil {
		return nil, fmt.Errorf("scan LatestResponse: %w", err)
	}
	return resp, nil
}

// IsCompleted отвечает, существует ли у связи отправленная текущая версия ревью.
// Это единственный источник истины для статуса completed/pending.
func (s *Storage) IsCompleted(ctx context.Context, mapID string) (bool, error) {
	resp, err := s.LatestResponse(ctx, mapID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return resp.IsSubmitted, nil
}

// SubmitResponse помечает версию ревью как отправленную.
func (s *Storage) SubmitResponse(ctx context.Context, responseID string) error {
	const q = `UPDATE responses SET is_submitted = true WHERE response_id = $1`
	tag, err := s.pool.Exec(ctx, q, responseID)
	if err != nil {
		return fmt.Errorf("update responses: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError(fmt.Sprintf("response %s", responseID))
	}
	return nil
}

// AnswersFor возвращает оценки версии ревью с ключом по идентификатору вопроса.
// Уникальность на пару (response, item) гарантирует ограничение в базе.
func (s *Storage) AnswersFor(ctx context.Context, responseID string) (map[string]models.Answer, error) {
	const q = `
	SELECT answer_id, response_id, item_id, score, comment
	FROM answers
	WHERE response_id = $1
	ORDER BY item_id
	`
	rows, err := s.pool.Query(ctx, q, responseID)
	if err != nil {
		return nil, fmt.Errorf("query AnswersFor: %w", err)
	}
	defer rows.Close()

	answers := make(map[string]models.Answer)
	for rows.Next() {
		var a models.Answer
		if err := rows.Scan(&a.AnswerID, &a.ResponseID, &a.ItemID, &a.Score, &a.Comment); err != nil {
			return nil, fmt.Errorf("scan AnswersFor: %w", err)
		}
		answers[a.ItemID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows AnswersFor: %w", err)
	}
	return answers, nil
}

// UpsertAnswer атомарно вставляет или перезаписывает оценку вопроса.
// Конкурентные вызовы для одной пары (response, item) разруливает
// уникальное ограничение, а не вызывающая сторона.
func (s *Storage) UpsertAnswer(ctx context.Context, responseID, itemID string, score int, comment string) error {
	const upsertAnswer = `
	INSERT INTO answers (answer_id, response_id, item_id, score, comment)
	VALUES (gen_random_uuid()::text, $1, $2, $3, $4)
	ON CONFLICT (response_id, item_id) DO UPDATE
	SET score = EXCLUDED.score,
		comment = EXCLUDED.comment
	`
	if _, err := s.pool.Exec(ctx, upsertAnswer, responseID, itemID, score, comment); err != nil {
		return fmt.Errorf("upsert answer: %w", err)
	}
	return nil
}

// scanResponse читает одну строку responses в модель.
func scanResponse(row rowScanner) (*models.Response, error) {
	var (
		responseID  string
		mapID       string
		round       int
		isSubmitted bool
		comment     string
		createdAt   *time.Time
	)
	if err := row.Scan(&responseID, &mapID, &round, &isSubmitted, &comment, &createdAt); err != nil {
		return nil, err
	}
	return &models.Response{
		ResponseID:  responseID,
		MapID:       mapID,
		Round:       round,
		IsSubmitted: isSubmitted,
		Comment:     comment,
		CreatedAt:   createdAt,
	}, nil
}
