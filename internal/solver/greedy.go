package solver

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/samber/lo"

	"github.com/univops/timetable-api/internal/models"
)

// Greedy is the fallback planner: slot-by-slot search with per-session retry
// instead of a global optimum. Given identical inputs it always produces the
// same assignment set.
type Greedy struct {
	idx     *Index
	cfg     Config
	checker *Checker
}

// NewGreedy builds a generator over the run's immutable index.
func NewGreedy(idx *Index, cfg Config) *Greedy {
	return &Greedy{idx: idx, cfg: cfg, checker: NewChecker(idx)}
}

// Generate walks program-subject groups in enumeration order and places each
// demanded session with the least-loaded qualified teacher that fits. The
// existing set holds persisted assignments new placements must not collide
// with; colliding attempts skip rather than insert.
func (g *Greedy) Generate(ctx context.Context, units []AssignmentUnit, horizon Horizon, existing []SessionAssignment) Result {
	slots := g.slotGrid()

	type group struct {
		subject  *models.Subject
		program  *models.Program
		teachers []*models.Teacher
		sessions int
	}
	var groups []*group
	byKey := map[string]*group{}
	for i := range units {
		unit := &units[i]
		key := unit.Subject.ID + "|" + unit.Programs[0].ID
		grp, ok := byKey[key]
		if !ok {
			grp = &group{subject: unit.Subject, program: unit.Programs[0], sessions: unit.SessionsRequired}
			byKey[key] = grp
			groups = append(groups, grp)
		}
		grp.teachers = append(grp.teachers, unit.Teacher)
	}

	loads := map[string]float64{}
	var placed []SessionAssignment
	var diagnostics []Diagnostic
	demanded := 0

	for _, grp := range groups {
		for i := 1; i <= grp.sessions; i++ {
			select {
			case <-ctx.Done():
				return Result{Status: StatusCancelled, Diagnostics: diagnostics}
			default:
			}

			demanded++
			assigned := false
			for _, teacher := range g.teachersByLoad(grp.teachers, loads) {
				exclude := map[string]bool{}
				for attempt := 0; attempt < g.cfg.MaxAttempts; attempt++ {
					slot, room := g.pickSlotAndRoom(teacher, grp.subject, grp.program, slots, exclude, placed, existing)
					if slot == nil {
						break
					}
					candidate := SessionAssignment{
						Subject:  grp.subject,
						Teacher:  teacher,
						Room:     room,
						Slot:     slot,
						Week:     0,
						Programs: []*models.Program{grp.program},
						Date:     horizon.Start.AddDate(0, 0, slot.DayOfWeek),
					}
					if len(g.admissibleRecurring(candidate, placed, existing, horizon.Weeks())) == 0 {
						placed = append(placed, candidate)
						loads[teacher.ID] += float64(g.cfg.HoursPerSession)
						assigned = true
						break
					}
					exclude[slotKey(slot)] = true
				}
				if assigned {
					break
				}
			}
			if !assigned {
				diagnostics = append(diagnostics, Diagnostic{
					Code:      DiagUnmetUnit,
					SubjectID: grp.subject.ID,
					ProgramID: grp.program.ID,
					Message:   fmt.Sprintf("cannot place (%s, session %d)", grp.subject.Code, i),
				})
			}
		}
	}

	sortAssignments(placed)

	status := StatusFeasible
	if demanded > 0 && len(placed) == 0 {
		status = StatusInfeasible
	}
	return Result{Status: status, Assignments: placed, Diagnostics: diagnostics}
}

// admissibleRecurring validates a weekly-recurring candidate in every horizon
// week. Earlier placements recur as well, so their copies are lifted into the
// week under test; existing rows keep the weeks they were expanded into.
func (g *Greedy) admissibleRecurring(candidate SessionAssignment, placed, existing []SessionAssignment, weeks int) []models.ConflictKind {
	if weeks < 1 {
		weeks = 1
	}
	pool := make([]SessionAssignment, 0, len(placed)+len(existing))
	for week := 0; week < weeks; week++ {
		candidate.Week = week
		pool = pool[:0]
		for i := range placed {
			lifted := placed[i]
			lifted.Week = week
			pool = append(pool, lifted)
		}
		pool = append(pool, existing...)
		if failed := g.checker.Admissible(&candidate, pool); len(failed) > 0 {
			return failed
		}
	}
	return nil
}

// slotGrid returns the candidate slots in placement order: priority desc, then
// day and start ascending. Only working days survive; slots straddling the
// lunch window never enter the grid. With a seed, equal-priority runs are
// shuffled for tie-breaking; without one, entity order decides.
func (g *Greedy) slotGrid() []*models.TimeSlot {
	working := lo.SliceToMap(g.cfg.WorkingDays, func(day int) (int, struct{}) {
		return day, struct{}{}
	})

	var slots []*models.TimeSlot
	for _, slot := range g.idx.Slots() {
		if _, ok := working[slot.DayOfWeek]; !ok {
			continue
		}
		if slot.StartMinute < g.cfg.LunchEnd && g.cfg.LunchStart < slot.EndMinute {
			continue
		}
		slots = append(slots, slot)
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Priority != slots[j].Priority {
			return slots[i].Priority > slots[j].Priority
		}
		if slots[i].DayOfWeek != slots[j].DayOfWeek {
			return slots[i].DayOfWeek < slots[j].DayOfWeek
		}
		return slots[i].StartMinute < slots[j].StartMinute
	})

	if g.cfg.Seed != nil {
		rng := rand.New(rand.NewSource(*g.cfg.Seed))
		shuffleEqualPriority(slots, rng)
	}
	return slots
}

// shuffleEqualPriority permutes runs of slots sharing a priority.
func shuffleEqualPriority(slots []*models.TimeSlot, rng *rand.Rand) {
	start := 0
	for start < len(slots) {
		end := start
		for end < len(slots) && slots[end].Priority == slots[start].Priority {
			end++
		}
		run := slots[start:end]
		rng.Shuffle(len(run), func(i, j int) {
			run[i], run[j] = run[j], run[i]
		})
		start = end
	}
}

func (g *Greedy) teachersByLoad(teachers []*models.Teacher, loads map[string]float64) []*models.Teacher {
	eligible := lo.Filter(teachers, func(t *models.Teacher, _ int) bool {
		return t.Available && t.MaxHoursPerWeek >= float64(g.cfg.HoursPerSession)
	})
	sort.SliceStable(eligible, func(i, j int) bool {
		if loads[eligible[i].ID] != loads[eligible[j].ID] {
			return loads[eligible[i].ID] < loads[eligible[j].ID]
		}
		return eligible[i].ID < eligible[j].ID
	})
	return eligible
}

// pickSlotAndRoom returns the next candidate placement: the first non-excluded
// slot with a room that is still free there, preferred room kinds first with
// highest capacity, falling back to any same-department room.
func (g *Greedy) pickSlotAndRoom(
	teacher *models.Teacher,
	subject *models.Subject,
	program *models.Program,
	slots []*models.TimeSlot,
	exclude map[string]bool,
	placed []SessionAssignment,
	existing []SessionAssignment,
) (*models.TimeSlot, *models.Room) {
	rooms := candidateRooms(g.idx, subject, program.EnrolledCount)
	if len(rooms) == 0 {
		return nil, nil
	}

	for _, slot := range slots {
		if exclude[slotKey(slot)] {
			continue
		}
		for _, room := range rooms {
			if g.roomBusy(room, slot, placed) || g.roomBusy(room, slot, existing) {
				continue
			}
			return slot, room
		}
	}
	return nil, nil
}

func (g *Greedy) roomBusy(room *models.Room, slot *models.TimeSlot, set []SessionAssignment) bool {
	for i := range set {
		if set[i].Room.ID == room.ID && set[i].Slot.Overlaps(slot) {
			return true
		}
	}
	return false
}

func slotKey(slot *models.TimeSlot) string {
	return fmt.Sprintf("%d|%d|%d", slot.DayOfWeek, slot.StartMinute, slot.EndMinute)
}
