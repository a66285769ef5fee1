package models

// MapVariant задаёт разновидность связи «ревьюер — объект ревью».
// Закрытый перечень заменяет иерархию подклассов: поведение, зависящее
// от разновидности, выбирается по значению тега.
type MapVariant string

// Возможные значения MapVariant.
const (
	VariantReview           MapVariant = "Review"
	VariantFeedback         MapVariant = "Feedback"
	VariantMetareview       MapVariant = "Metareview"
	VariantTeammateReview   MapVariant = "TeammateReview"
	VariantSelfReview       MapVariant = "SelfReview"
	VariantCourseSurvey     MapVariant = "CourseSurvey"
	VariantAssignmentSurvey MapVariant = "AssignmentSurvey"
	VariantGlobalSurvey     MapVariant = "GlobalSurvey"
	VariantBookmarkRating   MapVariant = "BookmarkRating"
)

var knownVariants = map[MapVariant]struct{}{
	VariantReview:           {},
	VariantFeedback:         {},
	VariantMetareview:       {},
	VariantTeammateReview:   {},
	VariantSelfReview:       {},
	VariantCourseSurvey:     {},
	VariantAssignmentSurvey: {},
	VariantGlobalSurvey:     {},
	VariantBookmarkRating:   {},
}

// Valid проверяет, что значение входит в закрытый перечень разновидностей.
func (v MapVariant) Valid() bool {
	_, ok := knownVariants[v]
	return ok
}

// RevieweeKind различает полиморфную цель ревью: участник или команда.
type RevieweeKind string

// Возможные значения RevieweeKind.
const (
	RevieweeParticipant RevieweeKind = "participant"
	RevieweeTeam        RevieweeKind = "team"
)

// Valid проверяет дискриминатор цели ревью.
func (k RevieweeKind) Valid() bool {
	return k == RevieweeParticipant || k == RevieweeTeam
}

// ReviewMap описывает связь «ревьюер — объект ревью» в рамках задания.
// Запись неизменяема после создания; удаление каскадно убирает её ревью.
type ReviewMap struct {
	MapID          string       `json:"map_id"`
	ReviewerID     string       `json:"reviewer_id"`
	RevieweeID     string       `json:"reviewee_id"`
	RevieweeKind   RevieweeKind `json:"reviewee_kind"`
	AssignmentID   string       `json:"assignment_id"`
	Variant        MapVariant   `json:"variant"`
	ForCalibration bool         `json:"for_calibration"`
}

// PostMappingCreateJSONBody описывает тело запроса создания связи.
type PostMappingCreateJSONBody struct {
	ReviewerID     string       `json:"reviewer_id"`
	RevieweeID     string       `json:"reviewee_id"`
	RevieweeKind   RevieweeKind `json:"reviewee_kind"`
	AssignmentID   string       `json:"assignment_id"`
	Variant        MapVariant   `json:"variant"`
	ForCalibration bool         `json:"for_calibration"`
}

// PostMappingDeleteJSONBody описывает тело запроса удаления связи.
type PostMappingDeleteJSONBody struct {
	MapID string `json:"map_id"`
}
