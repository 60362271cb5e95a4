package service

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/univops/timetable-api/internal/dto"
	"github.com/univops/timetable-api/internal/models"
	"github.com/univops/timetable-api/internal/solver"
	"github.com/univops/timetable-api/pkg/config"
	appErrors "github.com/univops/timetable-api/pkg/errors"
)

type planningIndexStub struct {
	data    solver.IndexData
	missing []string

	// When entered is set, LoadIndex parks until release fires.
	entered chan struct{}
	release chan struct{}
}

func (s *planningIndexStub) LoadIndex(ctx context.Context, programIDs []string) (solver.IndexData, error) {
	if s.entered != nil {
		s.entered <- struct{}{}
		<-s.release
	}
	return s.data, nil
}

func (s *planningIndexStub) ProgramsExist(ctx context.Context, programIDs []string) ([]string, error) {
	return s.missing, nil
}

type planningSessionStub struct {
	rows []models.Session

	commits  int
	deleted  []string
	inserted []models.Session
}

func (s *planningSessionStub) LoadHorizon(ctx context.Context, from, to time.Time) ([]models.Session, error) {
	return s.rows, nil
}

func (s *planningSessionStub) Commit(ctx context.Context, toDelete []string, toInsert []models.Session) error {
	s.commits++
	s.deleted = toDelete
	s.inserted = toInsert
	return nil
}

func planningData() solver.IndexData {
	return solver.IndexData{
		Departments: []models.Department{{ID: "dep-sci", Name: "Science"}},
		Programs: []models.Program{
			{ID: "prog-cs1", DepartmentID: "dep-sci", Name: "CS L1", Capacity: 30, EnrolledCount: 30},
		},
		Subjects: []models.Subject{
			{ID: "sub-alg", DepartmentID: "dep-sci", Code: "ALG1", Name: "Algebra", Kind: models.SubjectKindLecture, HoursPerWeek: 2, Coefficient: 1},
		},
		Teachers: []models.Teacher{
			{ID: "tch-saidi", FullName: "Nadia Saidi", MaxHoursPerWeek: 4, MaxHoursPerDay: 4, Available: true},
		},
		Rooms: []models.Room{
			{ID: "room-a1", DepartmentID: "dep-sci", Name: "A1", Kind: models.RoomKindLecture, Capacity: 30, Priority: 5, Available: true},
		},
		TimeSlots: []models.TimeSlot{
			{ID: "slot-mon-0800", DayOfWeek: 0, StartMinute: 8 * 60, EndMinute: 10 * 60, Priority: 5, Active: true},
		},
		SubjectTeachers: []models.SubjectTeacher{{SubjectID: "sub-alg", TeacherID: "tch-saidi"}},
		SubjectPrograms: []models.SubjectProgram{{SubjectID: "sub-alg", ProgramID: "prog-cs1"}},
	}
}

func planningRequest() dto.PlanningRequest {
	return dto.PlanningRequest{
		HorizonStart: "2026-09-07",
		HorizonEnd:   "2026-09-13",
		ProgramIDs:   []string{"prog-cs1"},
	}
}

func newPlanningService(indexRepo *planningIndexStub, sessionRepo *planningSessionStub) *PlanningService {
	return NewPlanningService(indexRepo, sessionRepo, config.SchedulerConfig{}, nil, nil)
}

func TestPlanningGenerateCommits(t *testing.T) {
	indexRepo := &planningIndexStub{data: planningData()}
	sessionRepo := &planningSessionStub{}
	svc := newPlanningService(indexRepo, sessionRepo)

	result, err := svc.Generate(context.Background(), planningRequest())
	require.NoError(t, err)
	require.Equal(t, string(solver.StatusOptimal), result.Status)
	require.Equal(t, 1, result.CreatedCount)
	require.Equal(t, 0, result.ReplacedCount)
	require.Empty(t, result.Diagnostics)

	require.Equal(t, 1, sessionRepo.commits)
	require.Len(t, sessionRepo.inserted, 1)
	row := sessionRepo.inserted[0]
	require.Equal(t, "sub-alg", row.SubjectID)
	require.Equal(t, "tch-saidi", row.TeacherID)
	require.Equal(t, "room-a1", row.RoomID)
	require.Equal(t, time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), row.StartDate)
	require.Equal(t, row.StartDate, row.EndDate)
	require.True(t, row.Active)

	require.Len(t, result.PerProgram, 1)
	require.Equal(t, "prog-cs1", result.PerProgram[0].ProgramID)
	require.Equal(t, 1, result.PerProgram[0].CreatedCount)
}

func TestPlanningGenerateGreedyRecursWeekly(t *testing.T) {
	indexRepo := &planningIndexStub{data: planningData()}
	sessionRepo := &planningSessionStub{}
	svc := newPlanningService(indexRepo, sessionRepo)

	req := planningRequest()
	req.SolverMode = "greedy"
	result, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, string(solver.StatusFeasible), result.Status)

	require.Len(t, sessionRepo.inserted, 1)
	row := sessionRepo.inserted[0]
	require.Equal(t, time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), row.StartDate)
	require.Equal(t, time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC), row.EndDate)
}

func TestPlanningGenerateValidation(t *testing.T) {
	svc := newPlanningService(&planningIndexStub{data: planningData()}, &planningSessionStub{})

	req := planningRequest()
	req.HorizonStart, req.HorizonEnd = req.HorizonEnd, req.HorizonStart
	_, err := svc.Generate(context.Background(), req)
	require.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	req = planningRequest()
	req.ProgramIDs = nil
	_, err = svc.Generate(context.Background(), req)
	require.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	req = planningRequest()
	req.HorizonStart = "07/09/2026"
	_, err = svc.Generate(context.Background(), req)
	require.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestPlanningGenerateUnknownProgram(t *testing.T) {
	indexRepo := &planningIndexStub{data: planningData(), missing: []string{"prog-ghost"}}
	svc := newPlanningService(indexRepo, &planningSessionStub{})

	req := planningRequest()
	req.ProgramIDs = []string{"prog-cs1", "prog-ghost"}
	_, err := svc.Generate(context.Background(), req)
	require.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
	require.Contains(t, err.Error(), "prog-ghost")
}

func TestPlanningGenerateRejectsBadOverride(t *testing.T) {
	svc := newPlanningService(&planningIndexStub{data: planningData()}, &planningSessionStub{})

	req := planningRequest()
	req.Config = map[string]any{"hours_per_sesion": 3}
	_, err := svc.Generate(context.Background(), req)
	require.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestPlanningGenerateBusyKey(t *testing.T) {
	indexRepo := &planningIndexStub{
		data:    planningData(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	sessionRepo := &planningSessionStub{}
	svc := newPlanningService(indexRepo, sessionRepo)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Generate(context.Background(), planningRequest())
		done <- err
	}()
	<-indexRepo.entered

	// Same program set and horizon while the first run holds the key.
	_, err := svc.Generate(context.Background(), planningRequest())
	require.True(t, appErrors.HasCode(err, appErrors.ErrBusy))

	close(indexRepo.release)
	require.NoError(t, <-done)

	// The key is released once the run finishes.
	indexRepo.entered = nil
	_, err = svc.Generate(context.Background(), planningRequest())
	require.NoError(t, err)
}

func TestPlanningGenerateInfeasibleCommitsNothing(t *testing.T) {
	data := planningData()
	data.Programs[0].EnrolledCount = 40
	indexRepo := &planningIndexStub{data: data}
	sessionRepo := &planningSessionStub{}
	svc := newPlanningService(indexRepo, sessionRepo)

	result, err := svc.Generate(context.Background(), planningRequest())
	require.True(t, appErrors.HasCode(err, appErrors.ErrInfeasible))
	require.NotNil(t, result)
	require.Equal(t, string(solver.StatusInfeasible), result.Status)
	require.NotEmpty(t, result.Diagnostics)
	require.Zero(t, sessionRepo.commits)
	require.Zero(t, result.CreatedCount)
}

func TestPlanningGenerateRespectsExisting(t *testing.T) {
	indexRepo := &planningIndexStub{data: planningData()}
	sessionRepo := &planningSessionStub{
		rows: []models.Session{{
			ID:         "ses-old",
			SubjectID:  "sub-alg",
			TeacherID:  "tch-saidi",
			RoomID:     "room-a1",
			TimeSlotID: "slot-mon-0800",
			ProgramIDs: pq.StringArray{"prog-cs1"},
			StartDate:  time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC),
			Active:     true,
		}},
	}
	svc := newPlanningService(indexRepo, sessionRepo)

	// The single slot is taken and replace is off: nothing can be placed.
	result, err := svc.Generate(context.Background(), planningRequest())
	require.True(t, appErrors.HasCode(err, appErrors.ErrInfeasible))
	require.NotNil(t, result)
	require.Zero(t, sessionRepo.commits)
}

func TestPlanningGenerateReplaceExisting(t *testing.T) {
	indexRepo := &planningIndexStub{data: planningData()}
	sessionRepo := &planningSessionStub{
		rows: []models.Session{{
			ID:         "ses-old",
			SubjectID:  "sub-alg",
			TeacherID:  "tch-saidi",
			RoomID:     "room-a1",
			TimeSlotID: "slot-mon-0800",
			ProgramIDs: pq.StringArray{"prog-cs1"},
			StartDate:  time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC),
			Active:     true,
		}},
	}
	svc := newPlanningService(indexRepo, sessionRepo)

	req := planningRequest()
	req.ReplaceExisting = true
	result, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, result.CreatedCount)
	require.Equal(t, 1, result.ReplacedCount)
	require.Equal(t, []string{"ses-old"}, sessionRepo.deleted)
	require.Len(t, sessionRepo.inserted, 1)
}

func TestPlanningGenerateDayGridFallback(t *testing.T) {
	data := planningData()
	data.TimeSlots = nil
	indexRepo := &planningIndexStub{data: data}
	sessionRepo := &planningSessionStub{}
	svc := newPlanningService(indexRepo, sessionRepo)

	result, err := svc.Generate(context.Background(), planningRequest())
	require.NoError(t, err)
	require.Equal(t, 1, result.CreatedCount)
	require.Len(t, sessionRepo.inserted, 1)
	// The generated grid carries its own slot IDs.
	require.Contains(t, sessionRepo.inserted[0].TimeSlotID, "grid-")
}

func TestSplitReplaced(t *testing.T) {
	rows := []models.Session{
		{ID: "ses-1", ProgramIDs: pq.StringArray{"prog-cs1"}},
		{ID: "ses-2", ProgramIDs: pq.StringArray{"prog-bio1"}},
		{ID: "ses-3", ProgramIDs: pq.StringArray{"prog-bio1", "prog-cs1"}},
	}

	toDelete, kept := splitReplaced(rows, []string{"prog-cs1"}, true)
	require.Equal(t, []string{"ses-1", "ses-3"}, toDelete)
	require.Len(t, kept, 1)
	require.Equal(t, "ses-2", kept[0].ID)

	toDelete, kept = splitReplaced(rows, []string{"prog-cs1"}, false)
	require.Empty(t, toDelete)
	require.Len(t, kept, 3)
}

func TestExpandExisting(t *testing.T) {
	idx := solver.NewIndex(planningData())
	start := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	horizon := solver.Horizon{Start: start, End: start.AddDate(0, 0, 13)}

	rows := []models.Session{{
		ID:         "ses-1",
		SubjectID:  "sub-alg",
		TeacherID:  "tch-saidi",
		RoomID:     "room-a1",
		TimeSlotID: "slot-mon-0800",
		ProgramIDs: pq.StringArray{"prog-cs1"},
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, 13),
		Active:     true,
	}}

	expanded := expandExisting(rows, idx, horizon)
	require.Len(t, expanded, 2)
	require.Equal(t, 0, expanded[0].Week)
	require.Equal(t, 1, expanded[1].Week)

	// A single-date session lands in its week only.
	rows[0].EndDate = start
	expanded = expandExisting(rows, idx, horizon)
	require.Len(t, expanded, 1)
	require.Equal(t, 0, expanded[0].Week)

	// Rows referencing unknown entities never constrain the search.
	rows[0].RoomID = "room-ghost"
	require.Empty(t, expandExisting(rows, idx, horizon))
}

func TestRunKey(t *testing.T) {
	start := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	horizon := solver.Horizon{Start: start, End: start.AddDate(0, 0, 6)}

	require.Equal(t, "prog-a,prog-b@2026-09-07..2026-09-13",
		runKey([]string{"prog-a", "prog-b"}, false, horizon))
	require.Equal(t, "all@2026-09-07..2026-09-13",
		runKey(nil, true, horizon))
}
