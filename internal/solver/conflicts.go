package solver

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/univops/timetable-api/internal/models"
)

// Analyzer audits persisted sessions against every scheduling rule and emits
// a conflict report. It never mutates anything; callers decide what to do
// with the findings.
type Analyzer struct {
	idx *Index
	cfg Config
}

// NewAnalyzer builds an analyzer over the run's immutable index.
func NewAnalyzer(idx *Index, cfg Config) *Analyzer {
	return &Analyzer{idx: idx, cfg: cfg}
}

// sessionView joins a session row with its referenced entities once, so the
// sweep below never re-resolves IDs.
type sessionView struct {
	session *models.Session
	subject *models.Subject
	teacher *models.Teacher
	room    *models.Room
	slot    *models.TimeSlot
	heads   int
}

// Report runs every check over the active sessions and returns conflicts
// ordered by kind, then by lowest involved session ID. Sessions referencing
// unknown entities are skipped; referential integrity is the store's problem.
func (a *Analyzer) Report(sessions []*models.Session) []models.Conflict {
	var views []*sessionView
	for _, s := range sessions {
		if !s.Active {
			continue
		}
		view := &sessionView{
			session: s,
			subject: a.idx.Subject(s.SubjectID),
			teacher: a.idx.Teacher(s.TeacherID),
			room:    a.idx.Room(s.RoomID),
			slot:    a.idx.Slot(s.TimeSlotID),
		}
		if view.subject == nil || view.teacher == nil || view.room == nil || view.slot == nil {
			continue
		}
		for _, pid := range s.ProgramIDs {
			view.heads += a.idx.Enrolled(pid)
		}
		views = append(views, view)
	}

	var conflicts []models.Conflict
	conflicts = append(conflicts, a.doubleBookings(views)...)
	for _, v := range views {
		conflicts = append(conflicts, a.unaryChecks(v)...)
	}
	conflicts = append(conflicts, a.loadChecks(views)...)

	sort.SliceStable(conflicts, func(i, j int) bool {
		if conflicts[i].Kind.Rank() != conflicts[j].Kind.Rank() {
			return conflicts[i].Kind.Rank() < conflicts[j].Kind.Rank()
		}
		return conflicts[i].SessionIDs[0] < conflicts[j].SessionIDs[0]
	})
	return conflicts
}

// doubleBookings sweeps day by day and reports each clashing pair once. Two
// sessions clash when their slots overlap on the same day and their weekly
// recurrence windows intersect.
func (a *Analyzer) doubleBookings(views []*sessionView) []models.Conflict {
	byDay := lo.GroupBy(views, func(v *sessionView) int { return v.slot.DayOfWeek })

	days := lo.Keys(byDay)
	sort.Ints(days)

	var conflicts []models.Conflict
	for _, day := range days {
		group := byDay[day]
		sort.Slice(group, func(i, j int) bool {
			if group[i].slot.StartMinute != group[j].slot.StartMinute {
				return group[i].slot.StartMinute < group[j].slot.StartMinute
			}
			return group[i].session.ID < group[j].session.ID
		})
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				x, y := group[i], group[j]
				if y.slot.StartMinute >= x.slot.EndMinute {
					break
				}
				if !x.session.DateRangesOverlap(y.session) {
					continue
				}
				if x.room.ID == y.room.ID {
					conflicts = append(conflicts, models.Conflict{
						Kind:       models.ConflictRoom,
						SessionIDs: pairIDs(x, y),
						Summary: fmt.Sprintf("room %s double-booked at %s",
							x.room.Name, x.slot.Label()),
					})
				}
				if x.teacher.ID == y.teacher.ID {
					conflicts = append(conflicts, models.Conflict{
						Kind:       models.ConflictTeacher,
						SessionIDs: pairIDs(x, y),
						Summary: fmt.Sprintf("teacher %s double-booked at %s",
							x.teacher.FullName, x.slot.Label()),
					})
				}
			}
		}
	}
	return conflicts
}

// unaryChecks audits one session against capacity, availability,
// qualification and program linkage.
func (a *Analyzer) unaryChecks(v *sessionView) []models.Conflict {
	var conflicts []models.Conflict

	if v.room.Capacity < v.heads {
		conflicts = append(conflicts, models.Conflict{
			Kind:       models.ConflictCapacity,
			SessionIDs: []string{v.session.ID},
			Summary: fmt.Sprintf("room %s seats %d but %d students are enrolled",
				v.room.Name, v.room.Capacity, v.heads),
		})
	}

	if !v.room.Available {
		conflicts = append(conflicts, models.Conflict{
			Kind:       models.ConflictUnavailability,
			SessionIDs: []string{v.session.ID},
			Summary:    fmt.Sprintf("room %s is marked unavailable", v.room.Name),
		})
	}

	if !v.slot.Active {
		conflicts = append(conflicts, models.Conflict{
			Kind:       models.ConflictUnavailability,
			SessionIDs: []string{v.session.ID},
			Summary:    fmt.Sprintf("time slot %s is deactivated", v.slot.Label()),
		})
	}

	if unavailable := a.teacherUnavailable(v); unavailable {
		conflicts = append(conflicts, models.Conflict{
			Kind:       models.ConflictUnavailability,
			SessionIDs: []string{v.session.ID},
			Summary: fmt.Sprintf("teacher %s is unavailable at %s",
				v.teacher.FullName, v.slot.Label()),
		})
	}

	qualified := lo.ContainsBy(a.idx.TeachersOf(v.subject.ID), func(t *models.Teacher) bool {
		return t.ID == v.teacher.ID
	})
	if !qualified {
		conflicts = append(conflicts, models.Conflict{
			Kind:       models.ConflictQualification,
			SessionIDs: []string{v.session.ID},
			Summary: fmt.Sprintf("teacher %s is not assigned to subject %s",
				v.teacher.FullName, v.subject.Code),
		})
	}

	linked := lo.SliceToMap(a.idx.ProgramsOf(v.subject.ID), func(p *models.Program) (string, struct{}) {
		return p.ID, struct{}{}
	})
	for _, pid := range v.session.ProgramIDs {
		if _, ok := linked[pid]; !ok {
			conflicts = append(conflicts, models.Conflict{
				Kind:       models.ConflictProgramMatch,
				SessionIDs: []string{v.session.ID},
				Summary: fmt.Sprintf("program %s does not include subject %s",
					pid, v.subject.Code),
			})
		}
	}

	return conflicts
}

func (a *Analyzer) teacherUnavailable(v *sessionView) bool {
	if !v.teacher.Available {
		return true
	}
	for _, p := range v.teacher.UnavailablePatterns() {
		if p.DayOfWeek == v.slot.DayOfWeek &&
			p.StartMinute < v.slot.EndMinute && v.slot.StartMinute < p.EndMinute {
			return true
		}
	}
	return false
}

// loadChecks verifies teacher hour ceilings. Load on a given calendar date is
// the sum of hours of every session whose recurrence window covers that date;
// checking each window start date covers every maximum.
func (a *Analyzer) loadChecks(views []*sessionView) []models.Conflict {
	byTeacher := lo.GroupBy(views, func(v *sessionView) string { return v.teacher.ID })

	teacherIDs := lo.Keys(byTeacher)
	sort.Strings(teacherIDs)

	var conflicts []models.Conflict
	seen := map[string]bool{}
	for _, tid := range teacherIDs {
		group := byTeacher[tid]
		teacher := group[0].teacher
		for _, anchor := range group {
			date := anchor.session.StartDate
			active := lo.Filter(group, func(v *sessionView, _ int) bool {
				return !date.Before(v.session.StartDate) && !date.After(v.session.EndDate)
			})

			if teacher.MaxHoursPerDay > 0 {
				byDay := lo.GroupBy(active, func(v *sessionView) int { return v.slot.DayOfWeek })
				for day, daily := range byDay {
					hours := lo.SumBy(daily, func(v *sessionView) float64 { return v.slot.DurationHours() })
					if hours > teacher.MaxHoursPerDay {
						conflicts = appendLoadConflict(conflicts, seen, models.ConflictDailyLoad, daily,
							fmt.Sprintf("teacher %s has %.1fh on day %d, max %.1fh",
								teacher.FullName, hours, day, teacher.MaxHoursPerDay))
					}
				}
			}

			if teacher.MaxHoursPerWeek > 0 {
				hours := lo.SumBy(active, func(v *sessionView) float64 { return v.slot.DurationHours() })
				if hours > teacher.MaxHoursPerWeek {
					conflicts = appendLoadConflict(conflicts, seen, models.ConflictWeeklyLoad, active,
						fmt.Sprintf("teacher %s has %.1fh in the week of %s, max %.1fh",
							teacher.FullName, hours, date.Format(time.DateOnly), teacher.MaxHoursPerWeek))
				}
			}
		}
	}
	return conflicts
}

// appendLoadConflict dedupes load findings by kind and member set; the same
// overload is visible from every anchor date inside it.
func appendLoadConflict(conflicts []models.Conflict, seen map[string]bool, kind models.ConflictKind, members []*sessionView, summary string) []models.Conflict {
	ids := lo.Map(members, func(v *sessionView, _ int) string { return v.session.ID })
	sort.Strings(ids)

	key := string(kind)
	for _, id := range ids {
		key += "|" + id
	}
	if seen[key] {
		return conflicts
	}
	seen[key] = true

	return append(conflicts, models.Conflict{Kind: kind, SessionIDs: ids, Summary: summary})
}

func pairIDs(x, y *sessionView) []string {
	ids := []string{x.session.ID, y.session.ID}
	sort.Strings(ids)
	return ids
}
