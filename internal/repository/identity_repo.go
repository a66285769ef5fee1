package repository

import (
	"context"
	"fmt"

	"github.com/AlekseyZapadovnikov/review-calibration/internal/domain"
	"github.com/AlekseyZapadovnikov/review-calibration/internal/models"
)

// GetAssignment возвращает задание по идентификатору.
func (s *Storage) GetAssignment(ctx context.Context, assignmentID string) (*models.Assignment, error) {
	const q = `
	SELECT assignment_id, assignment_name, instructor_id, rounds_of_reviews, vary_by_round, max_team_size
	FROM assignments
	WHERE assignment_id = $1
	`
	rows, err := s.pool.Query(ctx, q, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("query GetAssignment: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, domain.NewNotFoundError(fmt.Sprintf("assignment %s", assignmentID))
	}

	var a models.Assignment
	if err := rows.Scan(&a.AssignmentID, &a.AssignmentName, &a.InstructorID, &a.RoundsOfReviews, &a.VaryByRound, &a.MaxTeamSize); err != nil {
		return nil, fmt.Errorf("scan GetAssignment: %w", err)
	}
	return &a, nil
}

// GetParticipant возвращает участника задания по идентификатору.
func (s *Storage) GetParticipant(ctx context.Context, participantID string) (*models.Participant, error) {
	const q = `
	SELECT participant_id, user_id, assignment_id, full_name
	FROM participants
	WHERE participant_id = $1
	`
	rows, err := s.pool.Query(ctx, q, participantID)
	if err != nil {
		return nil, fmt.Errorf("query GetParticipant: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, domain.NewNotFoundError(fmt.Sprintf("participant %s", participantID))
	}

	var p models.Participant
	if err := rows.Scan(&p.ParticipantID, &p.UserID, &p.AssignmentID, &p.FullName); err != nil {
		return nil, fmt.Errorf("scan GetParticipant: %w", err)
	}
	return &p, nil
}

// GetTeam возвращает команду вместе с участниками.
func (s *Storage) GetTeam(ctx context.Context, teamID string) (*models.Team, error) {
	const qTeam = `
	SELECT team_id, team_name, assignment_id
	FROM teams
	WHERE team_id = $1
	`
	rows, err := s.pool.Query(ctx, qTeam, teamID)
	if err != nil {
		return nil, fmt.Errorf("query GetTeam: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, domain.NewNotFoundError(fmt.Sprintf("team %s", teamID))
	}

	var team models.Team
	if err := rows.Scan(&team.TeamID, &team.TeamName, &team.AssignmentID); err != nil {
		return nil, fmt.Errorf("scan GetTeam: %w", err)
	}
	rows.Close()

	const qMembers = `
	SELECT p.participant_id, p.full_name
	FROM team_members tm
	JOIN participants p ON p.participant_id = tm.participant_id
	WHERE tm.team_id = $1
	ORDER BY p.participant_id
	`
	memberRows, err := s.pool.Query(ctx, qMembers, teamID)
	if err != nil {
		return nil, fmt.Errorf("query team members: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var m models.TeamMember
		if err := memberRows.Scan(&m.ParticipantID, &m.FullName); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		team.Members = append(team.Members, m)
	}
	if err := memberRows.Err(); err != nil {
		return nil, fmt.Errorf("rows team members: %w", err)
	}

	return &team, nil
}

// InstructorParticipantID возвращает идентификатор участника-преподавателя задания.
func (s *Storage) InstructorParticipantID(ctx context.Context, assignmentID string) (string, error) {
	const q = `
	SELECT p.participant_id
	FROM assignments a
	JOIN participants p ON p.assignment_id = a.assignment_id AND p.user_id = a.instructor_id
	WHERE a.assignment_id = $1
	`
	rows, err := s.pool.Query(ctx, q, assignmentID)
	if err != nil {
		return "", fmt.Errorf("query InstructorParticipantID: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return "", domain.NewNotFoundError(fmt.Sprintf("instructor participant for assignment %s", assignmentID))
	}

	var participantID string
	if err := rows.Scan(&participantID); err != nil {
		return "", fmt.Errorf("scan InstructorParticipantID: %w", err)
	}
	return participantID, nil
}

// RevieweeCapacityExhausted отвечает, заполнена ли команда до максимального размера.
func (s *Storage) RevieweeCapacityExhausted(ctx context.Context, teamID string) (bool, error) {
	const q = `
	SELECT a.max_team_size, COUNT(tm.participant_id)
	FROM teams t
	JOIN assignments a ON a.assignment_id = t.assignment_id
	LEFT JOIN team_members tm ON tm.team_id = t.team_id
	WHERE t.team_id = $1
	GROUP BY a.max_team_size
	`
	rows, err := s.pool.Query(ctx, q, teamID)
	if err != nil {
		return false, fmt.Errorf("query RevieweeCapacityExhausted: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return false, domain.NewNotFoundError(fmt.Sprintf("team %s", teamID))
	}

	var (
		maxSize int
		count   int64
	)
	if err := rows.Scan(&maxSize, &count); err != nil {
		return false, fmt.Errorf("scan RevieweeCapacityExhausted: %w", err)
	}
	return maxSize > 0 && count >= int64(maxSize), nil
}

// SubmittedContent возвращает сданные командой ссылки и файлы.
// Отсутствие материалов — не ошибка: возвращаются пустые списки.
func (s *Storage) SubmittedContent(ctx context.Context, teamID string) (models.SubmittedContent, error) {
	content := models.SubmittedContent{
		Hyperlinks: []string{},
		Files:      []string{},
	}

	const qLinks = `SELECT url FROM team_hyperlinks WHERE team_id = $1 ORDER BY url`
	linkRows, err := s.pool.Query(ctx, qLinks, teamID)
	if err != nil {
		return content, fmt.Errorf("query team hyperlinks: %w", err)
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var url string
		if err := linkRows.Scan(&url); err != nil {
			return content, fmt.Errorf("scan team hyperlink: %w", err)
		}
		content.Hyperlinks = append(content.Hyperlinks, url)
	}
	if err := linkRows.Err(); err != nil {
		return content, fmt.Errorf("rows team hyperlinks: %w", err)
	}
	linkRows.Close()

	const qFiles = `SELECT file_name FROM team_files WHERE team_id = $1 ORDER BY file_name`
	fileRows, err := s.pool.Query(ctx, qFiles, teamID)
	if err != nil {
		return content, fmt.Errorf("query team files: %w", err)
	}
	defer fileRows.Close()

	for fileRows.Next() {
		var name string
		if err := fileRows.Scan(&name); err != nil {
			return content, fmt.Errorf("scan team file: %w", err)
		}
		content.Files = append(content.Files, name)
	}
	if err := fileRows.Err(); err != nil {
		return content, fmt.Errorf("rows team files: %w", err)
	}

	return content, nil
}
