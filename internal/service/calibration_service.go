package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/AlekseyZapadovnikov/review-calibration/internal/domain"
	"github.com/AlekseyZapadovnikov/review-calibration/internal/models"
)

// CalibrationManager реализует читающие сервисы калибровки:
// листинг, сравнение, сводку и агрегацию поверх общих хранилищ.
type CalibrationManager struct {
	maps      MapRepository
	responses ResponseRepository
	directory IdentityDirectory
	content   ContentProvider
}

// NewCalibrationManager связывает менеджер с хранилищами и внешними справочниками.
func NewCalibrationManager(maps MapRepository, responses ResponseRepository, directory IdentityDirectory, content ContentProvider) *CalibrationManager {
	return &CalibrationManager{
		maps:      maps,
		responses: responses,
		directory: directory,
		content:   content,
	}
}

// ListSubmissions возвращает по одной записи на каждую команду, для которой
// преподаватель завёл калибровочную связь: имя, материалы и статус эталонного ревью.
func (cm *CalibrationManager) ListSubmissions(ctx context.Context, assignmentID string) (*models.CalibrationSubmissionsResponse, error) {
	if _, err := cm.directory.GetAssignment(ctx, assignmentID); err != nil {
		return nil, err
	}

	instructorID, err := cm.directory.InstructorParticipantID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	instructorMaps, err := cm.maps.FindCalibrationMapsByReviewer(ctx, assignmentID, instructorID)
	if err != nil {
		return nil, fmt.Errorf("find instructor calibration maps: %w", err)
	}

	result := &models.CalibrationSubmissionsResponse{
		AssignmentID:           assignmentID,
		CalibrationSubmissions: []models.CalibrationSubmission{},
	}

	for _, m := range instructorMaps {
		team, err := cm.directory.GetTeam(ctx, m.RevieweeID)
		if err != nil {
			return nil, err
		}

		content, err := cm.content.SubmittedContent(ctx, team.TeamID)
		if err != nil {
			return nil, fmt.Errorf("get submitted content for team %s: %w", team.TeamID, err)
		}

		completed, err := cm.responses.IsCompleted(ctx, m.MapID)
		if err != nil {
			return nil, fmt.Errorf("check review status for map %s: %w", m.MapID, err)
		}
		status := models.ReviewStatusPending
		if completed {
			status = models.ReviewStatusCompleted
		}

		result.CalibrationSubmissions = append(result.CalibrationSubmissions, models.CalibrationSubmission{
			TeamName:         team.DisplayName(),
			RevieweeID:       team.TeamID,
			ResponseMapID:    m.MapID,
			SubmittedContent: content,
			ReviewStatus:     status,
		})
	}

	return result, nil
}

// StudentReport строит для студента сравнение каждого его калибровочного ревью
// с эталонным ревью преподавателя той же команды.
// Незавершённая пара даёт запись с ошибкой, но не прерывает обход.
func (cm *CalibrationManager) StudentReport(ctx context.Context, assignmentID, studentParticipantID string) (*models.CalibrationStudentReport, error) {
	if _, err := cm.directory.GetAssignment(ctx, assignmentID); err != nil {
		return nil, err
	}
	if _, err := cm.directory.GetParticipant(ctx, studentParticipantID); err != nil {
		return nil, err
	}

	// Если участник-преподаватель не заведён, все сравнения дадут "Missing review data".
	instructorID, err := cm.directory.InstructorParticipantID(ctx, assignmentID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	studentMaps, err := cm.maps.FindCalibrationMapsByReviewer(ctx, assignmentID, studentParticipantID)
	if err != nil {
		return nil, fmt.Errorf("find student calibration maps: %w", err)
	}

	report := &models.CalibrationStudentReport{
		AssignmentID:         assignmentID,
		StudentParticipantID: studentParticipantID,
		CalibrationReviews:   []models.CalibrationReviewEntry{},
	}

	for _, m := range studentMaps {
		team, err := cm.directory.GetTeam(ctx, m.RevieweeID)
		if err != nil {
			return nil, err
		}

		comparison, err := cm.compareWithReference(ctx, assignmentID, instructorID, m)
		if err != nil {
			return nil, err
		}

		report.CalibrationReviews = append(report.CalibrationReviews, models.CalibrationReviewEntry{
			RevieweeName: team.DisplayName(),
			RevieweeID:   team.TeamID,
			Comparison:   comparison,
		})
	}

	return report, nil
}

// compareWithReference сравнивает ревью студента с эталоном по одной команде.
// Любая отсутствующая или неотправленная половина пары даёт Comparison с ошибкой.
func (cm *CalibrationManager) compareWithReference(ctx context.Context, assignmentID, instructorID string, studentMap *models.ReviewMap) (*models.Comparison, error) {
	missing := &models.Comparison{Error: domain.MissingReviewDataMessage}

	studentResp, err := cm.responses.LatestResponse(ctx, studentMap.MapID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return missing, nil
		}
		return nil, err
	}
	if !studentResp.IsSubmitted {
		return missing, nil
	}

	refMap, err := cm.maps.FindInstructorReferenceMap(ctx, assignmentID, studentMap.RevieweeID, instructorID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return missing, nil
		}
		return nil, err
	}

	refResp, err := cm.responses.LatestResponse(ctx, refMap.MapID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return missing, nil
		}
		return nil, err
	}
	if !refResp.IsSubmitted {
		return missing, nil
	}

	instructorAnswers, err := cm.responses.AnswersFor(ctx, refResp.ResponseID)
	if err != nil {
		return nil, err
	}
	studentAnswers, err := cm.responses.AnswersFor(ctx, studentResp.ResponseID)
	if err != nil {
		return nil, err
	}

	agreement, questions := compareAnswers(instructorAnswers, studentAnswers)
	return &models.Comparison{
		AgreementPercentage: &agreement,
		Questions:           questions,
	}, nil
}

// AggregateReport строит сводный отчёт по объекту ревью: согласие всех студентов
// с эталонным ревью преподавателя. Без эталона отчёт не существует.
func (cm *CalibrationManager) AggregateReport(ctx context.Context, assignmentID, revieweeID string) (*models.CalibrationAggregateReport, error) {
	if _, err := cm.directory.GetAssignment(ctx, assignmentID); err != nil {
		return nil, err
	}

	instructorID, err := cm.directory.InstructorParticipantID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewInstructorReviewNotFoundError()
		}
		return nil, err
	}

	refMap, err := cm.maps.FindInstructorReferenceMap(ctx, assignmentID, revieweeID, instructorID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewInstructorReviewNotFoundError()
		}
		return nil, err
	}

	refResp, err := cm.responses.LatestResponse(ctx, refMap.MapID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewInstructorReviewNotFoundError()
		}
		return nil, err
	}
	if !refResp.IsSubmitted {
		return nil, domain.NewInstructorReviewNotFoundError()
	}

	team, err := cm.directory.GetTeam(ctx, revieweeID)
	if err != nil {
		return nil, err
	}

	instructorAnswers, err := cm.responses.AnswersFor(ctx, refResp.ResponseID)
	if err != nil {
		return nil, err
	}

	allMaps, err := cm.maps.FindCalibrationMaps(ctx, assignmentID, revieweeID)
	if err != nil {
		return nil, fmt.Errorf("find calibration maps: %w", err)
	}

	// Собираем оценки всех студентов с отправленной текущей версией ревью.
	var studentAnswerSets []map[string]models.Answer
	for _, m := range allMaps {
		if m.ReviewerID == instructorID {
			continue
		}
		resp, err := cm.responses.LatestResponse(ctx, m.MapID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if !resp.IsSubmitted {
			continue
		}
		answers, err := cm.responses.AnswersFor(ctx, resp.ResponseID)
		if err != nil {
			return nil, err
		}
		studentAnswerSets = append(studentAnswerSets, answers)
	}

	stats := models.AggregateStats{
		TotalReviews:      len(studentAnswerSets),
		QuestionBreakdown: buildQuestionBreakdown(instructorAnswers, studentAnswerSets),
	}

	if len(studentAnswerSets) > 0 {
		var sum float64
		for _, answers := range studentAnswerSets {
			agreement, _ := compareAnswers(instructorAnswers, answers)
			sum += agreement
		}
		stats.AvgAgreementPercentage = round2(sum / float64(len(studentAnswerSets)))
	}

	return &models.CalibrationAggregateReport{
		AssignmentID:   assignmentID,
		RevieweeID:     revieweeID,
		RevieweeName:   team.DisplayName(),
		AggregateStats: stats,
	}, nil
}

// Summary перечисляет все калибровочные сабмишены, которые студент ревьюил,
// с составом команды и сданными ссылками.
func (cm *CalibrationManager) Summary(ctx context.Context, assignmentID, studentParticipantID string) (*models.CalibrationSummary, error) {
	if _, err := cm.directory.GetAssignment(ctx, assignmentID); err != nil {
		return nil, err
	}
	if _, err := cm.directory.GetParticipant(ctx, studentParticipantID); err != nil {
		return nil, err
	}

	studentMaps, err := cm.maps.FindCalibrationMapsByReviewer(ctx, assignmentID, studentParticipantID)
	if err != nil {
		return nil, fmt.Errorf("find student calibration maps: %w", err)
	}

	summary := &models.CalibrationSummary{
		StudentParticipantID: studentParticipantID,
		AssignmentID:         assignmentID,
		Submissions:          []models.CalibrationSummaryEntry{},
	}

	for _, m := range studentMaps {
		team, err := cm.directory.GetTeam(ctx, m.RevieweeID)
		if err != nil {
			return nil, err
		}

		reviewers := make([]models.SummaryReviewer, 0, len(team.Members))
		for _, member := range team.Members {
			reviewers = append(reviewers, models.SummaryReviewer{
				ParticipantID: member.ParticipantID,
				FullName:      member.FullName,
			})
		}

		content, err := cm.content.SubmittedContent(ctx, team.TeamID)
		if err != nil {
			return nil, fmt.Errorf("get submitted content for team %s: %w", team.TeamID, err)
		}
		hyperlinks := content.Hyperlinks
		if hyperlinks == nil {
			hyperlinks = []string{}
		}

		summary.Submissions = append(summary.Submissions, models.CalibrationSummaryEntry{
			RevieweeTeamID: team.TeamID,
			ForCalibration: m.ForCalibration,
			Reviewers:      reviewers,
			Hyperlinks:     hyperlinks,
		})
	}

	return summary, nil
}

// compareAnswers считает процент согласия и поэлементный разбор.
// База сравнения — множество вопросов, оценённых преподавателем;
// отсутствующая оценка студента считается несовпадением.
func compareAnswers(instructor, student map[string]models.Answer) (float64, []models.QuestionComparison) {
	itemIDs := sortedItemIDs(instructor)

	questions := make([]models.QuestionComparison, 0, len(itemIDs))
	matches := 0
	for _, itemID := range itemIDs {
		q := models.QuestionComparison{
			ItemID:          itemID,
			InstructorScore: instructor[itemID].Score,
		}
		if sa, ok := student[itemID]; ok {
			score := sa.Score
			q.StudentScore = &score
			if score == instructor[itemID].Score {
				matches++
			}
		}
		questions = append(questions, q)
	}

	if len(itemIDs) == 0 {
		return 0.0, questions
	}
	return round2(100.0 * float64(matches) / float64(len(itemIDs))), questions
}

// buildQuestionBreakdown считает по каждому вопросу эталона среднюю оценку
// студентов и долю совпадений с оценкой преподавателя.
func buildQuestionBreakdown(instructor map[string]models.Answer, studentSets []map[string]models.Answer) []models.QuestionBreakdown {
	itemIDs := sortedItemIDs(instructor)

	breakdown := make([]models.QuestionBreakdown, 0, len(itemIDs))
	for _, itemID := range itemIDs {
		instructorScore := instructor[itemID].Score

		answered := 0
		matched := 0
		sum := 0
		for _, answers := range studentSets {
			a, ok := answers[itemID]
			if !ok {
				continue
			}
			answered++
			sum += a.Score
			if a.Score == instructorScore {
				matched++
			}
		}

		row := models.QuestionBreakdown{
			ItemID:          itemID,
			InstructorScore: instructorScore,
		}
		if answered > 0 {
			row.AvgStudentScore = round1(float64(sum) / float64(answered))
			row.MatchRate = round2(100.0 * float64(matched) / float64(answered))
		}
		breakdown = append(breakdown, row)
	}
	return breakdown
}

// sortedItemIDs возвращает идентификаторы вопросов в стабильном порядке.
func sortedItemIDs(answers map[string]models.Answer) []string {
	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// round2 округляет до двух знаков после запятой.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// round1 округляет до одного знака после запятой.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
