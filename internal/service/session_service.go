package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/univops/timetable-api/internal/dto"
	"github.com/univops/timetable-api/internal/models"
	"github.com/univops/timetable-api/internal/solver"
	appErrors "github.com/univops/timetable-api/pkg/errors"
)

type sessionRepository interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, error)
	FindByID(ctx context.Context, id string) (*models.Session, error)
	LoadHorizon(ctx context.Context, from, to time.Time) ([]models.Session, error)
	Create(ctx context.Context, session *models.Session) error
	Update(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id string) error
}

// SessionService handles manual session edits. Every write re-checks the full
// invariant set against the store before the row lands; the solver is not the
// only writer that has to play by the rules.
type SessionService struct {
	repo      sessionRepository
	indexRepo planningIndexRepository
	logger    *zap.Logger
}

// NewSessionService instantiates SessionService.
func NewSessionService(repo sessionRepository, indexRepo planningIndexRepository, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, indexRepo: indexRepo, logger: logger}
}

// List returns sessions matching the filter.
func (s *SessionService) List(ctx context.Context, filter dto.SessionFilter) ([]models.Session, error) {
	modelFilter := models.SessionFilter{
		ProgramID: filter.ProgramID,
		TeacherID: filter.TeacherID,
		RoomID:    filter.RoomID,
		Active:    filter.Active,
	}
	if filter.From != "" {
		from, err := time.Parse(time.DateOnly, filter.From)
		if err != nil {
			return nil, appErrors.WrapAs(appErrors.ErrValidation, err)
		}
		modelFilter.From = &from
	}
	if filter.To != "" {
		to, err := time.Parse(time.DateOnly, filter.To)
		if err != nil {
			return nil, appErrors.WrapAs(appErrors.ErrValidation, err)
		}
		modelFilter.To = &to
	}
	sessions, err := s.repo.List(ctx, modelFilter)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err)
	}
	return sessions, nil
}

// Get loads one session.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return session, nil
}

// Create inserts a manually placed session after re-checking every
// scheduling invariant.
func (s *SessionService) Create(ctx context.Context, req dto.CreateSessionRequest) (*models.Session, error) {
	start, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrValidation, err)
	}
	end, err := time.Parse(time.DateOnly, req.EndDate)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrValidation, err)
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date precedes start_date")
	}

	session := &models.Session{
		ID:         uuid.NewString(),
		SubjectID:  req.SubjectID,
		TeacherID:  req.TeacherID,
		RoomID:     req.RoomID,
		TimeSlotID: req.TimeSlotID,
		ProgramIDs: pq.StringArray(req.ProgramIDs),
		StartDate:  start,
		EndDate:    end,
		Active:     true,
	}
	if err := s.checkInvariants(ctx, session, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.FromError(err)
	}
	s.logger.Info("session created manually", zap.String("session_id", session.ID), zap.String("subject_id", session.SubjectID))
	return session, nil
}

// Update patches one session and re-checks the invariants with the old row
// excluded from the comparison set.
func (s *SessionService) Update(ctx context.Context, id string, req dto.UpdateSessionRequest) (*models.Session, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.FromError(err)
	}

	if req.TeacherID != nil {
		session.TeacherID = *req.TeacherID
	}
	if req.RoomID != nil {
		session.RoomID = *req.RoomID
	}
	if req.TimeSlotID != nil {
		session.TimeSlotID = *req.TimeSlotID
	}
	if req.ProgramIDs != nil {
		session.ProgramIDs = pq.StringArray(req.ProgramIDs)
	}
	if req.StartDate != nil {
		start, err := time.Parse(time.DateOnly, *req.StartDate)
		if err != nil {
			return nil, appErrors.WrapAs(appErrors.ErrValidation, err)
		}
		session.StartDate = start
	}
	if req.EndDate != nil {
		end, err := time.Parse(time.DateOnly, *req.EndDate)
		if err != nil {
			return nil, appErrors.WrapAs(appErrors.ErrValidation, err)
		}
		session.EndDate = end
	}
	if req.Active != nil {
		session.Active = *req.Active
	}
	if session.EndDate.Before(session.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date precedes start_date")
	}

	if session.Active {
		if err := s.checkInvariants(ctx, session, id); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, appErrors.FromError(err)
	}
	return session, nil
}

// Delete removes one session.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.FromError(err)
	}
	return nil
}

// checkInvariants validates the candidate against the current store state.
// replaceID names a row the candidate supersedes; it is dropped from the
// comparison set.
func (s *SessionService) checkInvariants(ctx context.Context, candidate *models.Session, replaceID string) error {
	data, err := s.indexRepo.LoadIndex(ctx, nil)
	if err != nil {
		return appErrors.WrapAs(appErrors.ErrInternal, err)
	}
	idx := solver.NewIndex(data)

	// The index only carries available rooms and active slots, so a failed
	// lookup covers the availability invariants too.
	if idx.Subject(candidate.SubjectID) == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "unknown subject "+candidate.SubjectID)
	}
	if idx.Teacher(candidate.TeacherID) == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "unknown teacher "+candidate.TeacherID)
	}
	if idx.Room(candidate.RoomID) == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "unknown or unavailable room "+candidate.RoomID)
	}
	if idx.Slot(candidate.TimeSlotID) == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "unknown or inactive time slot "+candidate.TimeSlotID)
	}
	for _, pid := range candidate.ProgramIDs {
		if idx.Program(pid) == nil {
			return appErrors.Clone(appErrors.ErrNotFound, "unknown program "+pid)
		}
	}

	rows, err := s.repo.LoadHorizon(ctx, candidate.StartDate, candidate.EndDate)
	if err != nil {
		return appErrors.WrapAs(appErrors.ErrInternal, err)
	}
	sessions := make([]*models.Session, 0, len(rows)+1)
	for i := range rows {
		if rows[i].ID == replaceID {
			continue
		}
		sessions = append(sessions, &rows[i])
	}
	sessions = append(sessions, candidate)

	conflicts := solver.NewAnalyzer(idx, solver.DefaultConfig()).Report(sessions)
	var violated []string
	for _, c := range conflicts {
		for _, sid := range c.SessionIDs {
			if sid == candidate.ID {
				violated = append(violated, c.Summary)
				break
			}
		}
	}
	if len(violated) > 0 {
		return appErrors.Clone(appErrors.ErrConflict, strings.Join(violated, "; "))
	}
	return nil
}
