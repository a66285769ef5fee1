package models

import "strings"

// Assignment описывает задание — единицу работы, по которой идут ревью.
// Движок читает задание, но никогда его не изменяет.
type Assignment struct {
	AssignmentID    string `json:"assignment_id"`
	AssignmentName  string `json:"assignment_name"`
	InstructorID    string `json:"instructor_id"`
	RoundsOfReviews int    `json:"rounds_of_reviews"`
	VaryByRound     bool   `json:"vary_by_round"`
	MaxTeamSize     int    `json:"max_team_size"`
}

// Participant описывает пользователя, записанного на задание.
// Один участник может одновременно быть ревьюером в одних связях
// и объектом ревью в других.
type Participant struct {
	ParticipantID string `json:"participant_id"`
	UserID        string `json:"user_id"`
	AssignmentID  string `json:"assignment_id"`
	FullName      string `json:"full_name"`
}

// Team описывает команду — групповой объект ревью.
type Team struct {
	TeamID       string       `json:"team_id"`
	TeamName     string       `json:"team_name"`
	AssignmentID string       `json:"assignment_id"`
	Members      []TeamMember `json:"members"`
}

// TeamMember описывает участника команды.
type TeamMember struct {
	ParticipantID string `json:"participant_id"`
	FullName      string `json:"full_name"`
}

// DisplayName возвращает отображаемое имя команды.
// Если имя пустое, используется полное имя первого участника.
func (t *Team) DisplayName() string {
	if strings.TrimSpace(t.TeamName) != "" {
		return t.TeamName
	}
	if len(t.Members) > 0 {
		return t.Members[0].FullName
	}
	return ""
}
