package E2E

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AlekseyZapadovnikov/review-calibration/conf"
	"github.com/AlekseyZapadovnikov/review-calibration/internal/domain"
	"github.com/AlekseyZapadovnikov/review-calibration/internal/models"
	"github.com/AlekseyZapadovnikov/review-calibration/internal/service"
	"github.com/AlekseyZapadovnikov/review-calibration/internal/web"
)

// memoryStore — реализация всех интерфейсов сервисного слоя в памяти.
// Позволяет прогнать полный HTTP-сценарий без PostgreSQL.
type memoryStore struct {
	mu sync.Mutex

	assignments  map[string]*models.Assignment
	participants map[string]*models.Participant
	teams        map[string]*models.Team
	content      map[string]models.SubmittedContent

	maps      map[string]*models.ReviewMap
	responses map[string]*models.Response
	answers   map[string]map[string]models.Answer

	nextMapID      int
	nextResponseID int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		assignments:  map[string]*models.Assignment{},
		participants: map[string]*models.Participant{},
		teams:        map[string]*models.Team{},
		content:      map[string]models.SubmittedContent{},
		maps:         map[string]*models.ReviewMap{},
		responses:    map[string]*models.Response{},
		answers:      map[string]map[string]models.Answer{},
	}
}

func (s *memoryStore) SaveReviewMap(_ context.Context, m *models.ReviewMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMapID++
	m.MapID = fmt.Sprintf("map-%d", s.nextMapID)
	copied := *m
	s.maps[m.MapID] = &copied
	return nil
}

func (s *memoryStore) GetReviewMap(_ context.Context, mapID string) (*models.ReviewMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.maps[mapID]
	if !ok {
		return nil, domain.NewNotFoundError("review map")
	}
	copied := *m
	return &copied, nil
}

func (s *memoryStore) FindCalibrationMaps(_ context.Context, assignmentID, revieweeID string) ([]*models.ReviewMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ReviewMap
	for _, m := range s.maps {
		if m.ForCalibration && m.AssignmentID == assignmentID && m.RevieweeID == revieweeID {
			copied := *m
			out = append(out, &copied)
		}
	}
	sortMaps(out)
	return out, nil
}

func (s *memoryStore) FindCalibrationMapsByReviewer(_ context.Context, assignmentID, reviewerID string) ([]*models.ReviewMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ReviewMap
	for _, m := range s.maps {
		if m.ForCalibration && m.AssignmentID == assignmentID && m.ReviewerID == reviewerID {
			copied := *m
			out = append(out, &copied)
		}
	}
	sortMaps(out)
	return out, nil
}

func (s *memoryStore) FindInstructorReferenceMap(_ context.Context, assignmentID, revieweeID, instructorID string) (*models.ReviewMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.maps {
		if m.ForCalibration && m.AssignmentID == assignmentID && m.RevieweeID == revieweeID && m.ReviewerID == instructorID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, domain.NewNotFoundError("instructor reference map")
}

func (s *memoryStore) DeleteReviewMap(_ context.Context, mapID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.maps[mapID]; !ok {
		return domain.NewNotFoundError("review map")
	}
	for respID, resp := range s.responses {
		if resp.MapID == mapID {
			delete(s.responses, respID)
			delete(s.answers, respID)
		}
	}
	delete(s.maps, mapID)
	return nil
}

func (s *memoryStore) CreateResponse(_ context.Context, mapID string) (*models.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	round := 0
	for _, resp := range s.responses {
		if resp.MapID == mapID && resp.Round > round {
			round = resp.Round
		}
	}
	s.nextResponseID++
	now := time.Now()
	resp := &models.Response{
		ResponseID: fmt.Sprintf("resp-%d", s.nextResponseID),
		MapID:      mapID,
		Round:      round + 1,
		CreatedAt:  &now,
	}
	s.responses[resp.ResponseID] = resp
	s.answers[resp.ResponseID] = map[string]models.Answer{}
	copied := *resp
	return &copied, nil
}

func (s *memoryStore) GetResponse(_ context.Context, responseID string) (*models.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.responses[responseID]
	if !ok {
		return nil, domain.NewNotFoundError("response")
	}
	copied := *resp
	return &copied, nil
}

func (s *memoryStore) LatestResponse(_ context.Context, mapID string) (*models.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.Response
	for _, resp := range s.responses {
		if resp.MapID != mapID {
			continue
		}
		if latest == nil || resp.Round > latest.Round {
			latest = resp
		}
	}
	if latest == nil {
		return nil, domain.NewNotFoundError("response")
	}
	copied := *latest
	return &copied, nil
}

func (s *memoryStore) IsCompleted(ctx context.Context, mapID string) (bool, error) {
	resp, err := s.LatestResponse(ctx, mapID)
	if err != nil {
		return false, nil
	}
	return resp.IsSubmitted, nil
}

func (s *memoryStore) SubmitResponse(_ context.Context, responseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.responses[responseID]
	if !ok {
		return domain.NewNotFoundError("response")
	}
	resp.IsSubmitted = true
	return nil
}

func (s *memoryStore) AnswersFor(_ context.Context, responseID string) (map[string]models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]models.Answer{}
	for itemID, a := range s.answers[responseID] {
		out[itemID] = a
	}
	return out, nil
}

func (s *memoryStore) UpsertAnswer(_ context.Context, responseID, itemID string, score int, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.answers[responseID]; !ok {
		s.answers[responseID] = map[string]models.Answer{}
	}
	s.answers[responseID][itemID] = models.Answer{
		AnswerID:   responseID + "/" + itemID,
		ResponseID: responseID,
		ItemID:     itemID,
		Score:      score,
		Comment:    comment,
	}
	return nil
}

func (s *memoryStore) GetAssignment(_ context.Context, assignmentID string) (*models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[assignmentID]
	if !ok {
		return nil, domain.NewNotFoundError("assignment " + assignmentID)
	}
	return a, nil
}

func (s *memoryStore) GetParticipant(_ context.Context, participantID string) (*models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[participantID]
	if !ok {
		return nil, domain.NewNotFoundError("participant " + participantID)
	}
	return p, nil
}

func (s *memoryStore) GetTeam(_ context.Context, teamID string) (*models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[teamID]
	if !ok {
		return nil, domain.NewNotFoundError("team " + teamID)
	}
	return t, nil
}

func (s *memoryStore) InstructorParticipantID(_ context.Context, assignmentID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[assignmentID]
	if !ok {
		return "", domain.NewNotFoundError("assignment " + assignmentID)
	}
	for _, p := range s.participants {
		if p.AssignmentID == assignmentID && p.UserID == a.InstructorID {
			return p.ParticipantID, nil
		}
	}
	return "", domain.NewNotFoundError("instructor participant")
}

func (s *memoryStore) RevieweeCapacityExhausted(_ context.Context, revieweeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[revieweeID]
	if !ok {
		return false, nil
	}
	a, ok := s.assignments[t.AssignmentID]
	if !ok || a.MaxTeamSize <= 0 {
		return false, nil
	}
	return len(t.Members) >= a.MaxTeamSize, nil
}

func (s *memoryStore) SubmittedContent(_ context.Context, teamID string) (models.SubmittedContent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.content[teamID]
	if !ok {
		return models.SubmittedContent{Hyperlinks: []string{}, Files: []string{}}, nil
	}
	return c, nil
}

func sortMaps(maps []*models.ReviewMap) {
	sort.Slice(maps, func(i, j int) bool { return maps[i].MapID < maps[j].MapID })
}

// ---------- инфраструктура теста ----------

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return fmt.Sprintf("%d", l.Addr().(*net.TCPAddr).Port)
}

func startServer(t *testing.T, store *memoryStore) string {
	t.Helper()

	port := freePort(t)
	mappingManager := service.NewMappingManager(store, store, store)
	calibrationManager := service.NewCalibrationManager(store, store, store, store)
	srv := web.New(conf.HttpServConf{Host: "127.0.0.1", Port: port}, calibrationManager, mappingManager)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			t.Errorf("server exited: %v", err)
		}
	}()
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})

	baseURL := "http://127.0.0.1:" + port

	// Ждём, пока сервер начнёт принимать соединения.
	require.Eventually(t, func() bool {
		resp, err := http.Get(baseURL + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	return baseURL
}

func seedStore(store *memoryStore) {
	store.assignments["assignment-1"] = &models.Assignment{
		AssignmentID:    "assignment-1",
		AssignmentName:  "OSS Project",
		InstructorID:    "user-instructor",
		RoundsOfReviews: 1,
		MaxTeamSize:     3,
	}
	store.participants["p-instructor"] = &models.Participant{
		ParticipantID: "p-instructor",
		UserID:        "user-instructor",
		AssignmentID:  "assignment-1",
		FullName:      "Dr. Grey",
	}
	store.participants["p-student"] = &models.Participant{
		ParticipantID: "p-student",
		UserID:        "user-student",
		AssignmentID:  "assignment-1",
		FullName:      "Sam Student",
	}
	store.teams["team-1"] = &models.Team{
		TeamID:       "team-1",
		TeamName:     "Team One",
		AssignmentID: "assignment-1",
		Members: []models.TeamMember{
			{ParticipantID: "p-member-1", FullName: "Alice Smith"},
		},
	}
	store.content["team-1"] = models.SubmittedContent{
		Hyperlinks: []string{"https://github.com/team-one/project"},
		Files:      []string{},
	}
}

func postJSON(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, data
}

func getJSON(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, data
}

func createMapping(t *testing.T, baseURL, reviewerID string) string {
	t.Helper()
	body := fmt.Sprintf(`{"reviewer_id":%q,"reviewee_id":"team-1","reviewee_kind":"team","assignment_id":"assignment-1","variant":"Review","for_calibration":true}`, reviewerID)
	resp, data := postJSON(t, baseURL+"/mappings/create", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	var out struct {
		Mapping models.ReviewMap `json:"mapping"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	require.NotEmpty(t, out.Mapping.MapID)
	return out.Mapping.MapID
}

func createResponse(t *testing.T, baseURL, mapID string) string {
	t.Helper()
	resp, data := postJSON(t, baseURL+"/responses/create", fmt.Sprintf(`{"map_id":%q}`, mapID))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	var out struct {
		Response models.Response `json:"response"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	return out.Response.ResponseID
}

func upsertAnswer(t *testing.T, baseURL, responseID, itemID string, score int) {
	t.Helper()
	body := fmt.Sprintf(`{"response_id":%q,"item_id":%q,"score":%d}`, responseID, itemID, score)
	resp, data := postJSON(t, baseURL+"/responses/answers/upsert", body)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
}

func submitResponse(t *testing.T, baseURL, responseID string) {
	t.Helper()
	resp, data := postJSON(t, baseURL+"/responses/submit", fmt.Sprintf(`{"response_id":%q}`, responseID))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
}

// ---------- сценарии ----------

func TestCalibrationFlow(t *testing.T) {
	store := newMemoryStore()
	seedStore(store)
	baseURL := startServer(t, store)

	// Преподаватель и студент получают калибровочные связи на одну команду.
	refMapID := createMapping(t, baseURL, "p-instructor")
	studentMapID := createMapping(t, baseURL, "p-student")

	// До эталонного ревью агрегированный отчёт не существует.
	resp, data := getJSON(t, baseURL+"/calibration/assignments/assignment-1/report/team-1")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, string(data), "Instructor review not found. Cannot generate report.")

	// В листинге команда числится с неотправленным эталоном.
	resp, data = getJSON(t, baseURL+"/calibration/assignments/assignment-1/submissions")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listing models.CalibrationSubmissionsResponse
	require.NoError(t, json.Unmarshal(data, &listing))
	require.Len(t, listing.CalibrationSubmissions, 1)
	require.Equal(t, models.ReviewStatusPending, listing.CalibrationSubmissions[0].ReviewStatus)
	require.Equal(t, "Team One", listing.CalibrationSubmissions[0].TeamName)
	require.Equal(t, refMapID, listing.CalibrationSubmissions[0].ResponseMapID)

	// Преподаватель заполняет и отправляет эталонное ревью.
	refRespID := createResponse(t, baseURL, refMapID)
	upsertAnswer(t, baseURL, refRespID, "1", 5)
	upsertAnswer(t, baseURL, refRespID, "2", 3)
	submitResponse(t, baseURL, refRespID)

	// Студент: повторный upsert того же вопроса перезаписывает оценку.
	studentRespID := createResponse(t, baseURL, studentMapID)
	upsertAnswer(t, baseURL, studentRespID, "1", 2)
	upsertAnswer(t, baseURL, studentRespID, "1", 5)
	upsertAnswer(t, baseURL, studentRespID, "2", 4)
	submitResponse(t, baseURL, studentRespID)

	// Отправленная версия неизменяема.
	body := fmt.Sprintf(`{"response_id":%q,"item_id":"1","score":1}`, studentRespID)
	lockResp, lockData := postJSON(t, baseURL+"/responses/answers/upsert", body)
	require.Equal(t, http.StatusUnprocessableEntity, lockResp.StatusCode)
	require.Contains(t, string(lockData), "already submitted")

	// Листинг: эталон отправлен, статус completed.
	resp, data = getJSON(t, baseURL+"/calibration/assignments/assignment-1/submissions")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &listing))
	require.Equal(t, models.ReviewStatusCompleted, listing.CalibrationSubmissions[0].ReviewStatus)

	// Отчёт студента: совпал 1 вопрос из 2 — 50%.
	resp, data = getJSON(t, baseURL+"/calibration/calibration_student_report?assignment_id=assignment-1&student_participant_id=p-student")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report models.CalibrationStudentReport
	require.NoError(t, json.Unmarshal(data, &report))
	require.Len(t, report.CalibrationReviews, 1)
	entry := report.CalibrationReviews[0]
	require.Equal(t, "Team One", entry.RevieweeName)
	require.Empty(t, entry.Comparison.Error)
	require.NotNil(t, entry.Comparison.AgreementPercentage)
	require.Equal(t, 50.0, *entry.Comparison.AgreementPercentage)
	require.Len(t, entry.Comparison.Questions, 2)

	// Агрегированный отчёт по команде.
	resp, data = getJSON(t, baseURL+"/calibration/assignments/assignment-1/report/team-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var aggregate models.CalibrationAggregateReport
	require.NoError(t, json.Unmarshal(data, &aggregate))
	require.Equal(t, 1, aggregate.AggregateStats.TotalReviews)
	require.Equal(t, 50.0, aggregate.AggregateStats.AvgAgreementPercentage)
	require.Len(t, aggregate.AggregateStats.QuestionBreakdown, 2)
	first := aggregate.AggregateStats.QuestionBreakdown[0]
	require.Equal(t, "1", first.ItemID)
	require.Equal(t, 5, first.InstructorScore)
	require.Equal(t, 5.0, first.AvgStudentScore)
	require.Equal(t, 100.0, first.MatchRate)

	// Сводка студента.
	resp, data = getJSON(t, baseURL+"/calibration/assignments/assignment-1/students/p-student/summary")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summary models.CalibrationSummary
	require.NoError(t, json.Unmarshal(data, &summary))
	require.Len(t, summary.Submissions, 1)
	require.Equal(t, "team-1", summary.Submissions[0].RevieweeTeamID)
	require.Equal(t, []string{"https://github.com/team-one/project"}, summary.Submissions[0].Hyperlinks)

	// Удаление связи студента каскадно убирает его ревью из отчёта.
	delResp, delData := postJSON(t, baseURL+"/mappings/delete", fmt.Sprintf(`{"map_id":%q}`, studentMapID))
	require.Equal(t, http.StatusOK, delResp.StatusCode, string(delData))

	resp, data = getJSON(t, baseURL+"/calibration/assignments/assignment-1/report/team-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &aggregate))
	require.Equal(t, 0, aggregate.AggregateStats.TotalReviews)
}

func TestValidationOverHTTP(t *testing.T) {
	store := newMemoryStore()
	seedStore(store)
	baseURL := startServer(t, store)

	// Самоназначение отклоняется.
	body := `{"reviewer_id":"p-student","reviewee_id":"p-student","reviewee_kind":"participant","assignment_id":"assignment-1","variant":"Review"}`
	resp, data := postJSON(t, baseURL+"/mappings/create", body)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Contains(t, string(data), "VALIDATION_ERROR")

	// Неизвестная разновидность связи отклоняется.
	body = `{"reviewer_id":"p-student","reviewee_id":"team-1","reviewee_kind":"team","assignment_id":"assignment-1","variant":"PeerGrading"}`
	resp, _ = postJSON(t, baseURL+"/mappings/create", body)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Несуществующее задание даёт 404.
	body = `{"reviewer_id":"p-student","reviewee_id":"team-1","reviewee_kind":"team","assignment_id":"missing","variant":"Review"}`
	resp, _ = postJSON(t, baseURL+"/mappings/create", body)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Отчёт по несуществующему студенту даёт 404.
	resp, _ = getJSON(t, baseURL+"/calibration/calibration_student_report?assignment_id=assignment-1&student_participant_id=missing")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Версия ревью для несуществующей связи не создаётся.
	resp, _ = postJSON(t, baseURL+"/responses/create", `{"map_id":"missing"}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
