package models

import "time"

// Response описывает одну версию отправленного ревью, привязанную к связи ReviewMap.
// Номер раунда растёт монотонно при каждой новой версии; «текущей» считается
// версия с максимальным раундом, а не последняя по порядку вставки.
type Response struct {
	ResponseID  string     `json:"response_id"`
	MapID       string     `json:"map_id"`
	Round       int        `json:"round"`
	IsSubmitted bool       `json:"is_submitted"`
	Comment     string     `json:"comment"`
	CreatedAt   *time.Time `json:"created_at"`
}

// Answer описывает оценку одного вопроса внутри версии ревью.
// На пару (response, item) приходится не более одной записи.
type Answer struct {
	AnswerID   string `json:"answer_id"`
	ResponseID string `json:"response_id"`
	ItemID     string `json:"item_id"`
	Score      int    `json:"score"`
	Comment    string `json:"comment"`
}

// PostResponseCreateJSONBody описывает тело запроса создания новой версии ревью.
type PostResponseCreateJSONBody struct {
	MapID string `json:"map_id"`
}

// PostResponseSubmitJSONBody описывает тело запроса отправки версии ревью.
type PostResponseSubmitJSONBody struct {
	ResponseID string `json:"response_id"`
}

// PostAnswerUpsertJSONBody описывает тело запроса записи оценки вопроса.
type PostAnswerUpsertJSONBody struct {
	ResponseID string `json:"response_id"`
	ItemID     string `json:"item_id"`
	Score      *int   `json:"score"`
	Comment    string `json:"comment"`
}
