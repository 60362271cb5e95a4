package dto

import (
	"time"

	"github.com/univops/timetable-api/internal/models"
	"github.com/univops/timetable-api/internal/solver"
)

// PlanningRequest is the payload of POST /planning/generate. An empty
// program_ids with all_programs unset is rejected.
type PlanningRequest struct {
	HorizonStart    string         `json:"horizon_start" binding:"required,datetime=2006-01-02"`
	HorizonEnd      string         `json:"horizon_end" binding:"required,datetime=2006-01-02"`
	ProgramIDs      []string       `json:"program_ids"`
	AllPrograms     bool           `json:"all_programs"`
	ReplaceExisting bool           `json:"replace_existing"`
	SolverMode      string         `json:"solver_mode" binding:"omitempty,oneof=cp greedy"`
	TimeLimitSecs   int            `json:"solver_time_limit_seconds" binding:"omitempty,min=1,max=3600"`
	Seed            *int64         `json:"seed"`
	Config          map[string]any `json:"config"`
}

// Horizon parses the request dates. Validation of ordering happens in the
// service so the error carries the typed INVALID_REQUEST code.
func (r *PlanningRequest) Horizon() (solver.Horizon, error) {
	start, err := time.Parse(time.DateOnly, r.HorizonStart)
	if err != nil {
		return solver.Horizon{}, err
	}
	end, err := time.Parse(time.DateOnly, r.HorizonEnd)
	if err != nil {
		return solver.Horizon{}, err
	}
	return solver.Horizon{Start: start, End: end}, nil
}

// PlannedSession is one materialised assignment in the response payload.
type PlannedSession struct {
	SubjectID   string    `json:"subject_id"`
	SubjectCode string    `json:"subject_code"`
	TeacherID   string    `json:"teacher_id"`
	RoomID      string    `json:"room_id"`
	TimeSlotID  string    `json:"time_slot_id"`
	ProgramIDs  []string  `json:"program_ids"`
	Week        int       `json:"week"`
	Date        time.Time `json:"date"`
	SlotLabel   string    `json:"slot_label"`
}

// ProgramReport summarises one program's share of a planning run.
type ProgramReport struct {
	ProgramID     string   `json:"program_id"`
	ProgramName   string   `json:"program_name"`
	CreatedCount  int      `json:"created_count"`
	UnmetSubjects []string `json:"unmet_subjects,omitempty"`
}

// PlanningResult is the response of POST /planning/generate.
type PlanningResult struct {
	Status        string              `json:"status"`
	CreatedCount  int                 `json:"created_count"`
	ReplacedCount int                 `json:"replaced_count"`
	Diagnostics   []solver.Diagnostic `json:"conflicts"`
	PerProgram    []ProgramReport     `json:"per_program"`
	Sessions      []PlannedSession    `json:"sessions"`
	Elapsed       string              `json:"elapsed"`
}

// ConflictReportResponse wraps GET /conflicts.
type ConflictReportResponse struct {
	HorizonStart time.Time         `json:"horizon_start"`
	HorizonEnd   time.Time         `json:"horizon_end"`
	Count        int               `json:"count"`
	Conflicts    []models.Conflict `json:"conflicts"`
}
