package domain

import (
	"errors"
	"fmt"
)

// Сентинельные ошибки домена, используемые сервисами, репозиториями и веб-слоем.
var (
	ErrNotFound    = errors.New("NOT_FOUND")
	ErrValidation  = errors.New("VALIDATION_ERROR")
	ErrMissingData = errors.New("MISSING_DATA")
)

// MissingReviewDataMessage — текст ошибки для пары ревью без отправленных данных.
// Отдаётся внутри элемента отчёта, а не как HTTP-ошибка.
const MissingReviewDataMessage = "Missing review data"

// InstructorReviewNotFoundMessage — фатальная ошибка агрегации: эталонного ревью нет.
const InstructorReviewNotFoundMessage = "Instructor review not found. Cannot generate report."

// NewNotFoundError возвращает ошибку отсутствия переданного ресурса.
func NewNotFoundError(resource string) error {
	return fmt.Errorf("%w: %s not found", ErrNotFound, resource)
}

// NewInstructorReviewNotFoundError сообщает, что агрегированный отчёт построить нельзя.
func NewInstructorReviewNotFoundError() error {
	return fmt.Errorf("%w: %s", ErrNotFound, InstructorReviewNotFoundMessage)
}

// NewSelfReviewError сигнализирует о попытке назначить ревьюера на самого себя.
func NewSelfReviewError(participantID string) error {
	return fmt.Errorf("%w: participant %s cannot review themselves", ErrValidation, participantID)
}

// NewCapacityError сообщает, что вместимость объекта ревью уже исчерпана.
func NewCapacityError(revieweeID string) error {
	return fmt.Errorf("%w: reviewee %s capacity exhausted", ErrValidation, revieweeID)
}

// NewValidationError возвращает ошибку валидации с произвольным описанием.
func NewValidationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// NewMissingDataError помечает незавершённую пару ревью для конкретной записи отчёта.
func NewMissingDataError() error {
	return fmt.Errorf("%w: %s", ErrMissingData, MissingReviewDataMessage)
}
