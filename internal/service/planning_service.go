package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/univops/timetable-api/internal/dto"
	"github.com/univops/timetable-api/internal/models"
	"github.com/univops/timetable-api/internal/solver"
	"github.com/univops/timetable-api/pkg/config"
	appErrors "github.com/univops/timetable-api/pkg/errors"
)

type planningIndexRepository interface {
	LoadIndex(ctx context.Context, programIDs []string) (solver.IndexData, error)
	ProgramsExist(ctx context.Context, programIDs []string) ([]string, error)
}

type planningSessionRepository interface {
	LoadHorizon(ctx context.Context, from, to time.Time) ([]models.Session, error)
	Commit(ctx context.Context, toDelete []string, toInsert []models.Session) error
}

// PlanningService orchestrates a solver run: validation, index loading,
// enumeration, search, and the atomic commit. At most one run per
// (program set, horizon) key is in flight; a second request fails fast.
type PlanningService struct {
	indexRepo   planningIndexRepository
	sessionRepo planningSessionRepository
	defaults    config.SchedulerConfig
	metrics     *MetricsService
	logger      *zap.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewPlanningService instantiates PlanningService.
func NewPlanningService(indexRepo planningIndexRepository, sessionRepo planningSessionRepository, defaults config.SchedulerConfig, metrics *MetricsService, logger *zap.Logger) *PlanningService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanningService{
		indexRepo:   indexRepo,
		sessionRepo: sessionRepo,
		defaults:    defaults,
		metrics:     metrics,
		logger:      logger,
		inFlight:    map[string]struct{}{},
	}
}

// Generate runs the solver for the request and commits the outcome. On
// infeasible, timeout or cancelled outcomes nothing is committed and the
// returned result carries the diagnostics alongside the typed error.
func (s *PlanningService) Generate(ctx context.Context, req dto.PlanningRequest) (*dto.PlanningResult, error) {
	horizon, err := req.Horizon()
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrValidation, err)
	}
	if horizon.End.Before(horizon.Start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "horizon_end precedes horizon_start")
	}
	if !req.AllPrograms && len(req.ProgramIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "program_ids is empty and all_programs is not set")
	}

	programIDs := lo.Uniq(req.ProgramIDs)
	sort.Strings(programIDs)
	if !req.AllPrograms {
		missing, err := s.indexRepo.ProgramsExist(ctx, programIDs)
		if err != nil {
			return nil, appErrors.WrapAs(appErrors.ErrInternal, err)
		}
		if len(missing) > 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown programs: "+strings.Join(missing, ", "))
		}
	}

	key := runKey(programIDs, req.AllPrograms, horizon)
	if !s.acquire(key) {
		return nil, appErrors.ErrBusy
	}
	defer s.release(key)

	cfg, mode, err := s.runConfig(req)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	s.logger.Info("planning run started",
		zap.String("key", key),
		zap.String("mode", mode),
		zap.Time("horizon_start", horizon.Start),
		zap.Time("horizon_end", horizon.End))

	var loadIDs []string
	if !req.AllPrograms {
		loadIDs = programIDs
	}
	data, err := s.indexRepo.LoadIndex(ctx, loadIDs)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err)
	}
	// Without a persisted slot grid the run plans over the generated day grid.
	if len(data.TimeSlots) == 0 {
		data.TimeSlots = solver.BuildDayGrid(cfg)
	}
	idx := solver.NewIndex(data)

	if req.AllPrograms {
		programIDs = lo.Map(data.Programs, func(p models.Program, _ int) string { return p.ID })
		sort.Strings(programIDs)
	}

	units, diagnostics := solver.Enumerate(idx, programIDs, cfg)

	rows, err := s.sessionRepo.LoadHorizon(ctx, horizon.Start, horizon.End)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err)
	}
	toDelete, constraintRows := splitReplaced(rows, programIDs, req.ReplaceExisting)
	existing := expandExisting(constraintRows, idx, horizon)

	var result solver.Result
	switch mode {
	case "greedy":
		result = solver.NewGreedy(idx, cfg).Generate(ctx, units, horizon, existing)
	default:
		result = solver.NewCPSolver(idx, cfg).Solve(ctx, units, horizon, existing)
	}
	result.Diagnostics = append(diagnostics, result.Diagnostics...)

	out := s.buildResult(result, programIDs, idx, time.Since(started))

	var runErr error
	switch result.Status {
	case solver.StatusCancelled:
		runErr = appErrors.ErrCancelled
	case solver.StatusTimeout:
		runErr = appErrors.ErrTimeout
	case solver.StatusInfeasible:
		runErr = appErrors.ErrInfeasible
	default:
		toInsert := materializeSessions(result.Assignments, horizon, mode)
		if len(toInsert) > 0 || len(toDelete) > 0 {
			if err := s.sessionRepo.Commit(ctx, toDelete, toInsert); err != nil {
				s.observeRun(mode, "commit_failed", time.Since(started), 0, 0)
				return nil, appErrors.FromError(err)
			}
		}
		out.CreatedCount = len(toInsert)
		out.ReplacedCount = len(toDelete)
	}

	s.observeRun(mode, string(result.Status), time.Since(started), out.CreatedCount, out.ReplacedCount)
	s.logger.Info("planning run finished",
		zap.String("key", key),
		zap.String("status", string(result.Status)),
		zap.Int("created", out.CreatedCount),
		zap.Int("replaced", out.ReplacedCount),
		zap.Int("diagnostics", len(out.Diagnostics)),
		zap.Duration("elapsed", time.Since(started)))

	return out, runErr
}

func (s *PlanningService) observeRun(mode, status string, elapsed time.Duration, created, replaced int) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObservePlanningRun(mode, status, elapsed, created, replaced)
}

// BaseSolverConfig merges the process-wide scheduler defaults over the
// built-in ones.
func BaseSolverConfig(defaults config.SchedulerConfig) (solver.Config, error) {
	cfg := solver.DefaultConfig()
	if defaults.HoursPerSession > 0 {
		cfg.HoursPerSession = defaults.HoursPerSession
	}
	if defaults.SlotMinutes > 0 {
		cfg.SlotMinutes = defaults.SlotMinutes
	}
	if defaults.TimeLimit > 0 {
		cfg.TimeLimit = defaults.TimeLimit
	}
	if defaults.Workers > 0 {
		cfg.Workers = defaults.Workers
	}
	if defaults.MaxGreedyRetries > 0 {
		cfg.MaxAttempts = defaults.MaxGreedyRetries
	}
	if len(defaults.WorkingDays) > 0 {
		cfg.WorkingDays = defaults.WorkingDays
	}
	for _, clock := range []struct {
		raw  string
		dest *int
	}{
		{defaults.DayGridStart, &cfg.DayGridStart},
		{defaults.DayGridEnd, &cfg.DayGridEnd},
		{defaults.LunchBreakStart, &cfg.LunchStart},
		{defaults.LunchBreakEnd, &cfg.LunchEnd},
	} {
		if clock.raw == "" {
			continue
		}
		minute, err := models.ParseClock(clock.raw)
		if err != nil {
			return cfg, err
		}
		*clock.dest = minute
	}
	return cfg, nil
}

// runConfig merges the scheduler defaults with the per-request knobs.
func (s *PlanningService) runConfig(req dto.PlanningRequest) (solver.Config, string, error) {
	cfg, err := BaseSolverConfig(s.defaults)
	if err != nil {
		return cfg, "", appErrors.WrapAs(appErrors.ErrInternal, err)
	}

	if req.TimeLimitSecs > 0 {
		cfg.TimeLimit = time.Duration(req.TimeLimitSecs) * time.Second
	}
	cfg.Seed = req.Seed
	if err := cfg.ApplyOverrides(req.Config); err != nil {
		return cfg, "", appErrors.WrapAs(appErrors.ErrValidation, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, "", appErrors.WrapAs(appErrors.ErrValidation, err)
	}

	mode := req.SolverMode
	if mode == "" {
		mode = s.defaults.Mode
	}
	if mode == "" {
		mode = "cp"
	}
	return cfg, mode, nil
}

// runKey identifies the planning mutex slot for a (program set, horizon) pair.
func runKey(programIDs []string, all bool, horizon solver.Horizon) string {
	set := "all"
	if !all {
		set = strings.Join(programIDs, ",")
	}
	return set + "@" + horizon.Start.Format(time.DateOnly) + ".." + horizon.End.Format(time.DateOnly)
}

func (s *PlanningService) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.inFlight[key]; taken {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

func (s *PlanningService) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, key)
}

// splitReplaced partitions the loaded sessions: with replace-existing set,
// sessions touching any requested program leave the store inside the commit
// and stop constraining the search.
func splitReplaced(rows []models.Session, programIDs []string, replace bool) (toDelete []string, kept []models.Session) {
	if !replace {
		return nil, rows
	}
	requested := lo.SliceToMap(programIDs, func(id string) (string, struct{}) { return id, struct{}{} })
	for i := range rows {
		row := rows[i]
		touches := lo.SomeBy(row.ProgramIDs, func(id string) bool {
			_, ok := requested[id]
			return ok
		})
		if touches {
			toDelete = append(toDelete, row.ID)
			continue
		}
		kept = append(kept, row)
	}
	return toDelete, kept
}

// expandExisting converts persisted sessions into per-week constraint
// assignments. A session recurring over several horizon weeks occupies its
// slot in each of them. Rows referencing entities outside the loaded index
// cannot constrain the search and are skipped.
func expandExisting(rows []models.Session, idx *solver.Index, horizon solver.Horizon) []solver.SessionAssignment {
	var out []solver.SessionAssignment
	for i := range rows {
		row := &rows[i]
		subject := idx.Subject(row.SubjectID)
		teacher := idx.Teacher(row.TeacherID)
		room := idx.Room(row.RoomID)
		slot := idx.Slot(row.TimeSlotID)
		if subject == nil || teacher == nil || room == nil || slot == nil {
			continue
		}
		programs := idx.ResolvePrograms(row.ProgramIDs)

		for week := 0; week < horizon.Weeks(); week++ {
			weekStart := horizon.Start.AddDate(0, 0, 7*week)
			weekEnd := weekStart.AddDate(0, 0, 6)
			if row.StartDate.After(weekEnd) || weekStart.After(row.EndDate) {
				continue
			}
			out = append(out, solver.SessionAssignment{
				Subject:  subject,
				Teacher:  teacher,
				Room:     room,
				Slot:     slot,
				Week:     week,
				Programs: programs,
				Date:     weekStart.AddDate(0, 0, slot.DayOfWeek),
			})
		}
	}
	return out
}

// materializeSessions turns solver assignments into session rows. CP places
// each session in a concrete week; greedy output recurs weekly over the
// whole horizon.
func materializeSessions(assignments []solver.SessionAssignment, horizon solver.Horizon, mode string) []models.Session {
	rows := make([]models.Session, 0, len(assignments))
	for i := range assignments {
		a := &assignments[i]
		start := a.Date
		end := a.Date
		if mode == "greedy" {
			end = horizon.End
		}
		programIDs := lo.Map(a.Programs, func(p *models.Program, _ int) string { return p.ID })
		rows = append(rows, models.Session{
			SubjectID:  a.Subject.ID,
			TeacherID:  a.Teacher.ID,
			RoomID:     a.Room.ID,
			TimeSlotID: a.Slot.ID,
			ProgramIDs: pq.StringArray(programIDs),
			StartDate:  start,
			EndDate:    end,
			Active:     true,
		})
	}
	return rows
}

// buildResult shapes the solver outcome for the API, including the
// per-program breakdown.
func (s *PlanningService) buildResult(result solver.Result, programIDs []string, idx *solver.Index, elapsed time.Duration) *dto.PlanningResult {
	sessions := make([]dto.PlannedSession, 0, len(result.Assignments))
	createdPer := map[string]int{}
	for i := range result.Assignments {
		a := &result.Assignments[i]
		ids := lo.Map(a.Programs, func(p *models.Program, _ int) string { return p.ID })
		for _, id := range ids {
			createdPer[id]++
		}
		sessions = append(sessions, dto.PlannedSession{
			SubjectID:   a.Subject.ID,
			SubjectCode: a.Subject.Code,
			TeacherID:   a.Teacher.ID,
			RoomID:      a.Room.ID,
			TimeSlotID:  a.Slot.ID,
			ProgramIDs:  ids,
			Week:        a.Week,
			Date:        a.Date,
			SlotLabel:   a.Slot.Label(),
		})
	}

	unmetPer := map[string][]string{}
	for _, diag := range result.Diagnostics {
		if diag.ProgramID == "" || diag.SubjectID == "" {
			continue
		}
		code := diag.SubjectID
		if subject := idx.Subject(diag.SubjectID); subject != nil {
			code = subject.Code
		}
		unmetPer[diag.ProgramID] = append(unmetPer[diag.ProgramID], code)
	}

	reports := make([]dto.ProgramReport, 0, len(programIDs))
	for _, id := range programIDs {
		report := dto.ProgramReport{
			ProgramID:     id,
			CreatedCount:  createdPer[id],
			UnmetSubjects: lo.Uniq(unmetPer[id]),
		}
		if program := idx.Program(id); program != nil {
			report.ProgramName = program.Name
		}
		reports = append(reports, report)
	}

	return &dto.PlanningResult{
		Status:      string(result.Status),
		Diagnostics: result.Diagnostics,
		PerProgram:  reports,
		Sessions:    sessions,
		Elapsed:     elapsed.Round(time.Millisecond).String(),
	}
}
