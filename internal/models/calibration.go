package models

// ReviewStatus описывает статус калибровочного ревью в листинге.
type ReviewStatus string

// Возможные значения ReviewStatus.
const (
	ReviewStatusCompleted ReviewStatus = "completed"
	ReviewStatusPending   ReviewStatus = "pending"
)

// SubmittedContent — сданные командой материалы (ссылки и файлы),
// получаемые у внешнего хранилища сабмишенов.
type SubmittedContent struct {
	Hyperlinks []string `json:"hyperlinks"`
	Files      []string `json:"files"`
}

// CalibrationSubmission — одна строка листинга калибровочных сабмишенов.
type CalibrationSubmission struct {
	TeamName         string           `json:"team_name"`
	RevieweeID       string           `json:"reviewee_id"`
	ResponseMapID    string           `json:"response_map_id"`
	SubmittedContent SubmittedContent `json:"submitted_content"`
	ReviewStatus     ReviewStatus     `json:"review_status"`
}

// CalibrationSubmissionsResponse — ответ листинга по заданию.
type CalibrationSubmissionsResponse struct {
	AssignmentID           string                  `json:"assignment_id"`
	CalibrationSubmissions []CalibrationSubmission `json:"calibration_submissions"`
}

// QuestionComparison сопоставляет оценку студента и преподавателя по одному вопросу.
// StudentScore равен nil, если студент вопрос не оценивал (это не ошибка,
// а несовпадение).
type QuestionComparison struct {
	ItemID          string `json:"item_id"`
	InstructorScore int    `json:"instructor_score"`
	StudentScore    *int   `json:"student_score"`
}

// Comparison — результат сравнения калибровочного ревью студента с эталоном.
// Заполнено либо Error, либо процент согласия с разбором по вопросам.
type Comparison struct {
	AgreementPercentage *float64             `json:"agreement_percentage,omitempty"`
	Questions           []QuestionComparison `json:"questions,omitempty"`
	Error               string               `json:"error,omitempty"`
}

// CalibrationReviewEntry — сравнение по одной команде, которую студент ревьюил.
type CalibrationReviewEntry struct {
	RevieweeName string      `json:"reviewee_name"`
	RevieweeID   string      `json:"reviewee_id"`
	Comparison   *Comparison `json:"comparison"`
}

// CalibrationStudentReport — отчёт студента по всем его калибровочным ревью.
type CalibrationStudentReport struct {
	AssignmentID         string                   `json:"assignment_id"`
	StudentParticipantID string                   `json:"student_participant_id"`
	CalibrationReviews   []CalibrationReviewEntry `json:"calibration_reviews"`
}

// QuestionBreakdown — агрегат по одному вопросу эталонного ревью.
type QuestionBreakdown struct {
	ItemID          string  `json:"item_id"`
	InstructorScore int     `json:"instructor_score"`
	AvgStudentScore float64 `json:"avg_student_score"`
	MatchRate       float64 `json:"match_rate"`
}

// AggregateStats — сводная статистика согласия студентов с эталоном.
type AggregateStats struct {
	TotalReviews           int                 `json:"total_reviews"`
	AvgAgreementPercentage float64             `json:"avg_agreement_percentage"`
	QuestionBreakdown      []QuestionBreakdown `json:"question_breakdown"`
}

// CalibrationAggregateReport — агрегированный отчёт по одному объекту ревью.
type CalibrationAggregateReport struct {
	AssignmentID   string         `json:"assignment_id"`
	RevieweeID     string         `json:"reviewee_id"`
	RevieweeName   string         `json:"reviewee_name"`
	AggregateStats AggregateStats `json:"aggregate_stats"`
}

// SummaryReviewer — участник команды в сводке (кандидат «ревьюер» для UI).
type SummaryReviewer struct {
	ParticipantID string `json:"participant_id"`
	FullName      string `json:"full_name"`
}

// CalibrationSummaryEntry — одна команда в сводке калибровочных ревью студента.
type CalibrationSummaryEntry struct {
	RevieweeTeamID string            `json:"reviewee_team_id"`
	ForCalibration bool              `json:"for_calibration"`
	Reviewers      []SummaryReviewer `json:"reviewers"`
	Hyperlinks     []string          `json:"hyperlinks"`
}

// CalibrationSummary — сводка всех калибровочных сабмишенов студента.
type CalibrationSummary struct {
	StudentParticipantID string                    `json:"student_participant_id"`
	AssignmentID         string                    `json:"assignment_id"`
	Submissions          []CalibrationSummaryEntry `json:"submissions"`
}
