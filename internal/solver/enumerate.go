package solver

import (
	"fmt"
	"math"
	"sort"

	"github.com/univops/timetable-api/internal/models"
)

// Enumerate expands the requested programs into assignment units, one per
// qualified (program, subject, teacher) triple. The CP model uses variables to
// choose the teacher among a program-subject group; the greedy generator walks
// the same groups picking a teacher per session.
//
// Ordering is deterministic: (program id, subject id, teacher id) ascending.
func Enumerate(idx *Index, programIDs []string, cfg Config) ([]AssignmentUnit, []Diagnostic) {
	var units []AssignmentUnit
	var diagnostics []Diagnostic
	flagged := map[string]bool{}

	for _, programID := range sortedCopy(programIDs) {
		program := idx.Program(programID)
		if program == nil {
			continue
		}
		for _, subject := range idx.subjectsOfProgram(programID) {
			if subject.HoursPerWeek <= 0 {
				// A subject without weekly hours needs no sessions and no diagnostic.
				continue
			}

			teachers := idx.TeachersOf(subject.ID)
			if len(teachers) == 0 {
				if !flagged[subject.ID] {
					flagged[subject.ID] = true
					diagnostics = append(diagnostics, Diagnostic{
						Code:      DiagNoQualifiedTeacher,
						SubjectID: subject.ID,
						Message:   fmt.Sprintf("no qualified teacher for subject %s", subject.Code),
					})
				}
				continue
			}

			sessions := sessionsRequired(subject.HoursPerWeek, cfg.HoursPerSession)
			for _, teacher := range teachers {
				units = append(units, AssignmentUnit{
					Subject:          subject,
					Teacher:          teacher,
					Programs:         []*models.Program{program},
					SessionsRequired: sessions,
					HoursPerSession:  float64(cfg.HoursPerSession),
				})
			}
		}
	}

	return units, diagnostics
}

// subjectsOfProgram inverts the subject-program join, subject ID ascending.
func (idx *Index) subjectsOfProgram(programID string) []*models.Subject {
	var subjects []*models.Subject
	for subjectID, programs := range idx.programsOf {
		for _, p := range programs {
			if p.ID == programID {
				if s := idx.Subject(subjectID); s != nil {
					subjects = append(subjects, s)
				}
				break
			}
		}
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].ID < subjects[j].ID })
	return subjects
}

// sessionsRequired rounds hours-per-week up to whole sessions, at least one.
func sessionsRequired(hoursPerWeek float64, hoursPerSession int) int {
	if hoursPerSession <= 0 {
		hoursPerSession = 2
	}
	n := int(math.Ceil(hoursPerWeek / float64(hoursPerSession)))
	if n < 1 {
		n = 1
	}
	return n
}

func sortedCopy(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out
}
