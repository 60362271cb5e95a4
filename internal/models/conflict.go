package models

// ConflictKind identifies the violated scheduling rule.
type ConflictKind string

const (
	ConflictRoom           ConflictKind = "room"
	ConflictTeacher        ConflictKind = "teacher"
	ConflictCapacity       ConflictKind = "capacity"
	ConflictUnavailability ConflictKind = "unavailability"
	ConflictDailyLoad      ConflictKind = "daily-load"
	ConflictWeeklyLoad     ConflictKind = "weekly-load"
	ConflictQualification  ConflictKind = "qualification"
	ConflictProgramMatch   ConflictKind = "program-match"
)

// conflictRank fixes the reporting order: room before teacher before capacity
// before unavailability before daily before weekly load.
var conflictRank = map[ConflictKind]int{
	ConflictRoom:           0,
	ConflictTeacher:        1,
	ConflictCapacity:       2,
	ConflictUnavailability: 3,
	ConflictDailyLoad:      4,
	ConflictWeeklyLoad:     5,
	ConflictQualification:  6,
	ConflictProgramMatch:   7,
}

// Rank returns the stable ordering weight of the conflict kind.
func (k ConflictKind) Rank() int {
	if rank, ok := conflictRank[k]; ok {
		return rank
	}
	return len(conflictRank)
}

// Conflict cites the session(s) violating a scheduling invariant.
type Conflict struct {
	Kind       ConflictKind `json:"kind"`
	SessionIDs []string     `json:"session_ids"`
	Summary    string       `json:"summary"`
}
