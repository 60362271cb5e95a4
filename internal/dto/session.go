package dto

// CreateSessionRequest inserts one session manually. The service re-checks
// every scheduling invariant before the row is written.
type CreateSessionRequest struct {
	SubjectID  string   `json:"subject_id" binding:"required"`
	TeacherID  string   `json:"teacher_id" binding:"required"`
	RoomID     string   `json:"room_id" binding:"required"`
	TimeSlotID string   `json:"time_slot_id" binding:"required"`
	ProgramIDs []string `json:"program_ids" binding:"required,min=1"`
	StartDate  string   `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate    string   `json:"end_date" binding:"required,datetime=2006-01-02"`
}

// UpdateSessionRequest edits a single session record. Nil fields keep their
// current value; any change re-runs the invariant checks.
type UpdateSessionRequest struct {
	TeacherID  *string  `json:"teacher_id"`
	RoomID     *string  `json:"room_id"`
	TimeSlotID *string  `json:"time_slot_id"`
	ProgramIDs []string `json:"program_ids"`
	StartDate  *string  `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate    *string  `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Active     *bool    `json:"active"`
}

// SessionFilter captures query parameters for listing sessions.
type SessionFilter struct {
	ProgramID string `form:"program_id"`
	TeacherID string `form:"teacher_id"`
	RoomID    string `form:"room_id"`
	From      string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To        string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Active    *bool  `form:"active"`
}
