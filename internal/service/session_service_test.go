package service

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/univops/timetable-api/internal/dto"
	"github.com/univops/timetable-api/internal/models"
	appErrors "github.com/univops/timetable-api/pkg/errors"
)

type sessionRepoStub struct {
	sessions map[string]*models.Session

	created *models.Session
	updated *models.Session
	deleted string
	filter  models.SessionFilter
}

func newSessionRepoStub(rows ...models.Session) *sessionRepoStub {
	stub := &sessionRepoStub{sessions: map[string]*models.Session{}}
	for i := range rows {
		stub.sessions[rows[i].ID] = &rows[i]
	}
	return stub
}

func (r *sessionRepoStub) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, error) {
	r.filter = filter
	out := make([]models.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out, nil
}

func (r *sessionRepoStub) FindByID(ctx context.Context, id string) (*models.Session, error) {
	if s, ok := r.sessions[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, appErrors.ErrNotFound
}

func (r *sessionRepoStub) LoadHorizon(ctx context.Context, from, to time.Time) ([]models.Session, error) {
	var out []models.Session
	for _, s := range r.sessions {
		if s.Active && !s.StartDate.After(to) && !from.After(s.EndDate) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *sessionRepoStub) Create(ctx context.Context, session *models.Session) error {
	r.created = session
	r.sessions[session.ID] = session
	return nil
}

func (r *sessionRepoStub) Update(ctx context.Context, session *models.Session) error {
	r.updated = session
	r.sessions[session.ID] = session
	return nil
}

func (r *sessionRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := r.sessions[id]; !ok {
		return appErrors.ErrNotFound
	}
	r.deleted = id
	delete(r.sessions, id)
	return nil
}

func createRequest() dto.CreateSessionRequest {
	return dto.CreateSessionRequest{
		SubjectID:  "sub-alg",
		TeacherID:  "tch-saidi",
		RoomID:     "room-a1",
		TimeSlotID: "slot-mon-0800",
		ProgramIDs: []string{"prog-cs1"},
		StartDate:  "2026-09-07",
		EndDate:    "2026-12-18",
	}
}

func TestSessionCreate(t *testing.T) {
	repo := newSessionRepoStub()
	svc := NewSessionService(repo, &planningIndexStub{data: planningData()}, nil)

	session, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)
	require.True(t, session.Active)
	require.Equal(t, pq.StringArray{"prog-cs1"}, session.ProgramIDs)
	require.NotNil(t, repo.created)
}

func TestSessionCreateRejectsUnknownRoom(t *testing.T) {
	svc := NewSessionService(newSessionRepoStub(), &planningIndexStub{data: planningData()}, nil)

	req := createRequest()
	req.RoomID = "room-ghost"
	_, err := svc.Create(context.Background(), req)
	require.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestSessionCreateRejectsClash(t *testing.T) {
	start := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	existing := models.Session{
		ID:         "ses-old",
		SubjectID:  "sub-alg",
		TeacherID:  "tch-saidi",
		RoomID:     "room-a1",
		TimeSlotID: "slot-mon-0800",
		ProgramIDs: pq.StringArray{"prog-cs1"},
		StartDate:  start,
		EndDate:    start.AddDate(0, 3, 0),
		Active:     true,
	}
	repo := newSessionRepoStub(existing)
	svc := NewSessionService(repo, &planningIndexStub{data: planningData()}, nil)

	_, err := svc.Create(context.Background(), createRequest())
	require.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
	require.Contains(t, err.Error(), "double-booked")
	require.Nil(t, repo.created)
}

func TestSessionCreateRejectsInvertedDates(t *testing.T) {
	svc := NewSessionService(newSessionRepoStub(), &planningIndexStub{data: planningData()}, nil)

	req := createRequest()
	req.StartDate, req.EndDate = req.EndDate, req.StartDate
	_, err := svc.Create(context.Background(), req)
	require.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestSessionUpdateExcludesOwnRow(t *testing.T) {
	start := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	existing := models.Session{
		ID:         "ses-1",
		SubjectID:  "sub-alg",
		TeacherID:  "tch-saidi",
		RoomID:     "room-a1",
		TimeSlotID: "slot-mon-0800",
		ProgramIDs: pq.StringArray{"prog-cs1"},
		StartDate:  start,
		EndDate:    start.AddDate(0, 3, 0),
		Active:     true,
	}
	repo := newSessionRepoStub(existing)
	svc := NewSessionService(repo, &planningIndexStub{data: planningData()}, nil)

	// Patching the row against itself must not read as a clash.
	newEnd := "2026-11-27"
	session, err := svc.Update(context.Background(), "ses-1", dto.UpdateSessionRequest{EndDate: &newEnd})
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 11, 27, 0, 0, 0, 0, time.UTC), session.EndDate)
	require.NotNil(t, repo.updated)
}

func TestSessionUpdateUnknownID(t *testing.T) {
	svc := NewSessionService(newSessionRepoStub(), &planningIndexStub{data: planningData()}, nil)

	_, err := svc.Update(context.Background(), "ses-ghost", dto.UpdateSessionRequest{})
	require.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestSessionDeactivateSkipsInvariants(t *testing.T) {
	start := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	// An already conflicting row can still be switched off.
	existing := models.Session{
		ID:         "ses-1",
		SubjectID:  "sub-alg",
		TeacherID:  "tch-saidi",
		RoomID:     "room-ghost",
		TimeSlotID: "slot-mon-0800",
		ProgramIDs: pq.StringArray{"prog-cs1"},
		StartDate:  start,
		EndDate:    start,
		Active:     true,
	}
	repo := newSessionRepoStub(existing)
	svc := NewSessionService(repo, &planningIndexStub{data: planningData()}, nil)

	inactive := false
	session, err := svc.Update(context.Background(), "ses-1", dto.UpdateSessionRequest{Active: &inactive})
	require.NoError(t, err)
	require.False(t, session.Active)
}

func TestSessionDelete(t *testing.T) {
	existing := models.Session{ID: "ses-1"}
	repo := newSessionRepoStub(existing)
	svc := NewSessionService(repo, &planningIndexStub{data: planningData()}, nil)

	require.NoError(t, svc.Delete(context.Background(), "ses-1"))
	require.Equal(t, "ses-1", repo.deleted)

	err := svc.Delete(context.Background(), "ses-1")
	require.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestSessionListParsesFilterDates(t *testing.T) {
	repo := newSessionRepoStub()
	svc := NewSessionService(repo, &planningIndexStub{data: planningData()}, nil)

	_, err := svc.List(context.Background(), dto.SessionFilter{From: "2026-09-07", To: "2026-12-18"})
	require.NoError(t, err)
	require.NotNil(t, repo.filter.From)
	require.NotNil(t, repo.filter.To)

	_, err = svc.List(context.Background(), dto.SessionFilter{From: "07.09.2026"})
	require.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}
