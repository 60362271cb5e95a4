package solver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/univops/timetable-api/internal/models"
)

// placementReward dominates the priority-weighted score so the search always
// prefers covering one more session over any soft-preference gain.
const placementReward int64 = 1 << 20

// preferredSlotBonus is added when a slot matches a teacher preference window.
const preferredSlotBonus int64 = 25

// placement is one admissible value of a boolean decision variable
// x[unit, room, slot, week].
type placement struct {
	unit  *AssignmentUnit
	room  *models.Room
	slot  *models.TimeSlot
	week  int
	score int64
}

// task is a single session demanded by a program-subject group. Tasks of the
// same group share candidates across all qualified teachers.
type task struct {
	group      string
	subject    *models.Subject
	candidates []placement
	maxScore   int64
}

// CPSolver maximises the priority-weighted objective over boolean placement
// variables under the hard resource constraints.
type CPSolver struct {
	idx *Index
	cfg Config
}

// NewCPSolver builds a solver over the run's immutable index.
func NewCPSolver(idx *Index, cfg Config) *CPSolver {
	return &CPSolver{idx: idx, cfg: cfg}
}

// Solve searches for an assignment of every demanded session. The existing set
// holds persisted assignments that the run must not collide with (empty when
// replace-existing is set). On context cancellation or deadline no partial
// result beyond the best incumbent is produced.
func (s *CPSolver) Solve(ctx context.Context, units []AssignmentUnit, horizon Horizon, existing []SessionAssignment) Result {
	tasks, diagnostics := s.buildTasks(units, horizon)
	if len(tasks) == 0 {
		status := StatusOptimal
		if len(diagnostics) > 0 {
			status = StatusInfeasible
		}
		return Result{Status: status, Diagnostics: diagnostics}
	}

	search := &cpSearch{
		solver:   s,
		tasks:    tasks,
		existing: existing,
		horizon:  horizon,
	}
	incumbent, proven, err := search.run(ctx)

	assignments := make([]SessionAssignment, 0, len(incumbent))
	var objective int64
	placedGroups := map[string]int{}
	for _, p := range incumbent {
		assignments = append(assignments, s.materialize(p, horizon))
		objective += p.score
		placedGroups[p.unit.Subject.ID+"|"+p.unit.Programs[0].ID]++
	}
	sortAssignments(assignments)

	for _, t := range tasks {
		key := t.subject.ID + "|" + t.group
		if placedGroups[key] > 0 {
			placedGroups[key]--
			continue
		}
		diagnostics = append(diagnostics, Diagnostic{
			Code:      DiagUnmetUnit,
			SubjectID: t.subject.ID,
			ProgramID: t.group,
			Message:   fmt.Sprintf("1 unmet session for %s", t.subject.Code),
		})
	}

	status := StatusFeasible
	switch {
	case err != nil && errors.Is(err, context.Canceled):
		return Result{Status: StatusCancelled, Diagnostics: diagnostics}
	case err != nil && len(assignments) == 0:
		return Result{Status: StatusTimeout, Diagnostics: diagnostics}
	case len(assignments) == 0:
		status = StatusInfeasible
	case proven && len(assignments) == len(tasks):
		status = StatusOptimal
	}

	return Result{
		Status:      status,
		Assignments: assignments,
		Diagnostics: diagnostics,
		Objective:   objective,
	}
}

// buildTasks expands units into per-session tasks with their admissible
// placements, applying the variable pinning rules: capacity pins, teacher
// unavailability pins, and the zero-load exclusion.
func (s *CPSolver) buildTasks(units []AssignmentUnit, horizon Horizon) ([]task, []Diagnostic) {
	weeks := horizon.Weeks()
	var diagnostics []Diagnostic

	type group struct {
		key        string
		subject    *models.Subject
		sessions   int
		candidates []placement
		noRoom     bool
		noSlot     bool
		anyTeacher bool
	}
	groups := map[string]*group{}
	var order []string

	for i := range units {
		unit := &units[i]
		key := unit.Subject.ID + "|" + unit.Programs[0].ID
		g, ok := groups[key]
		if !ok {
			g = &group{key: unit.Programs[0].ID, subject: unit.Subject, sessions: unit.SessionsRequired}
			groups[key] = g
			order = append(order, key)
		}

		// A teacher whose weekly allowance cannot fit one session is never assigned.
		if !unit.Teacher.Available || unit.Teacher.MaxHoursPerWeek < unit.HoursPerSession {
			continue
		}
		g.anyTeacher = true

		rooms := candidateRooms(s.idx, unit.Subject, unit.Capacity())
		if len(rooms) == 0 {
			g.noRoom = true
			continue
		}

		slots := s.admissibleSlots(unit.Teacher)
		if len(slots) == 0 {
			g.noSlot = true
			continue
		}

		for _, room := range rooms {
			for _, slot := range slots {
				for week := 0; week < weeks; week++ {
					g.candidates = append(g.candidates, placement{
						unit:  unit,
						room:  room,
						slot:  slot,
						week:  week,
						score: placementScore(unit.Teacher, room, slot),
					})
				}
			}
		}
	}

	var tasks []task
	for _, key := range order {
		g := groups[key]
		if len(g.candidates) == 0 {
			code := DiagUnmetUnit
			message := fmt.Sprintf("no admissible placement for %s", g.subject.Code)
			switch {
			case g.noRoom:
				code = DiagNoSuitableRoom
				message = fmt.Sprintf("capacity and availability rules eliminate all rooms for %s", g.subject.Code)
			case g.noSlot:
				code = DiagTeacherUnavailable
				message = fmt.Sprintf("teacher unavailability eliminates all slots for %s", g.subject.Code)
			case !g.anyTeacher:
				code = DiagNoQualifiedTeacher
				message = fmt.Sprintf("no assignable teacher for %s", g.subject.Code)
			}
			diagnostics = append(diagnostics, Diagnostic{Code: code, SubjectID: g.subject.ID, ProgramID: g.key, Message: message})
			continue
		}

		sort.SliceStable(g.candidates, func(i, j int) bool {
			return g.candidates[i].score > g.candidates[j].score
		})
		maxScore := g.candidates[0].score
		for i := 0; i < g.sessions; i++ {
			tasks = append(tasks, task{
				group:      g.key,
				subject:    g.subject,
				candidates: g.candidates,
				maxScore:   maxScore,
			})
		}
	}

	return tasks, diagnostics
}

// admissibleSlots drops slots pinned out by the teacher's unavailability mask.
func (s *CPSolver) admissibleSlots(teacher *models.Teacher) []*models.TimeSlot {
	patterns := teacher.UnavailablePatterns()
	var slots []*models.TimeSlot
	for _, slot := range s.idx.Slots() {
		blocked := false
		for _, pattern := range patterns {
			if pattern.Overlaps(slot.DayOfWeek, slot.StartMinute, slot.EndMinute) {
				blocked = true
				break
			}
		}
		if !blocked {
			slots = append(slots, slot)
		}
	}
	return slots
}

func placementScore(teacher *models.Teacher, room *models.Room, slot *models.TimeSlot) int64 {
	score := int64(slot.Priority) * int64(room.Priority)
	for _, pattern := range teacher.PreferredPatterns() {
		if pattern.Covers(slot.DayOfWeek, slot.StartMinute, slot.EndMinute) {
			score += preferredSlotBonus
			break
		}
	}
	return score
}

func (s *CPSolver) materialize(p placement, horizon Horizon) SessionAssignment {
	return SessionAssignment{
		Subject:  p.unit.Subject,
		Teacher:  p.unit.Teacher,
		Room:     p.room,
		Slot:     p.slot,
		Week:     p.week,
		Programs: p.unit.Programs,
		Date:     horizon.Start.AddDate(0, 0, 7*p.week+p.slot.DayOfWeek),
	}
}

// sortAssignments fixes the materialization order:
// (week, day-of-week, start-time, room-id) ascending.
func sortAssignments(assignments []SessionAssignment) {
	sort.Slice(assignments, func(i, j int) bool {
		a, b := &assignments[i], &assignments[j]
		if a.Week != b.Week {
			return a.Week < b.Week
		}
		if a.Slot.DayOfWeek != b.Slot.DayOfWeek {
			return a.Slot.DayOfWeek < b.Slot.DayOfWeek
		}
		if a.Slot.StartMinute != b.Slot.StartMinute {
			return a.Slot.StartMinute < b.Slot.StartMinute
		}
		return a.Room.ID < b.Room.ID
	})
}

// cpSearch runs the bounded depth-first branch and bound. Workers split the
// root branching; they share the incumbent bound through a mutex.
type cpSearch struct {
	solver   *CPSolver
	tasks    []task
	existing []SessionAssignment
	horizon  Horizon

	mu        sync.Mutex
	best      int64
	incumbent []placement
}

func (cs *cpSearch) run(ctx context.Context) ([]placement, bool, error) {
	if cs.solver.cfg.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cs.solver.cfg.TimeLimit)
		defer cancel()
	}

	workers := cs.solver.cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	// Root branches: each candidate of task 0, plus the skip branch.
	root := cs.tasks[0]
	branches := make([]int, 0, len(root.candidates)+1)
	for i := range root.candidates {
		branches = append(branches, i)
	}
	branches = append(branches, -1)

	if workers > len(branches) {
		workers = len(branches)
	}

	work := make(chan int)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			state := newSearchState(cs)
			for branch := range work {
				if err := state.exploreRoot(ctx, branch); err != nil {
					errs[slot] = err
					return
				}
			}
		}(w)
	}

	var dispatchErr error
dispatch:
	for _, branch := range branches {
		if err := ctx.Err(); err != nil {
			dispatchErr = err
			break
		}
		select {
		case <-ctx.Done():
			dispatchErr = ctx.Err()
			break dispatch
		case work <- branch:
		}
	}
	close(work)
	wg.Wait()

	var searchErr error
	for _, err := range errs {
		if err != nil {
			searchErr = err
			break
		}
	}
	if searchErr == nil {
		searchErr = dispatchErr
	}

	cs.mu.Lock()
	incumbent := make([]placement, len(cs.incumbent))
	copy(incumbent, cs.incumbent)
	cs.mu.Unlock()

	return incumbent, searchErr == nil, searchErr
}

func (cs *cpSearch) bestValue() int64 {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.best
}

func (cs *cpSearch) offer(value int64, chosen []placement) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if value <= cs.best && cs.incumbent != nil {
		return
	}
	if value < cs.best {
		return
	}
	cs.best = value
	cs.incumbent = make([]placement, len(chosen))
	copy(cs.incumbent, chosen)
}

// searchState is one worker's mutable view of the search.
type searchState struct {
	search  *cpSearch
	checker *Checker
	chosen  []placement
	current []SessionAssignment
	value   int64
	nodes   uint64
	// suffix[i] bounds the value attainable from tasks i..n.
	suffix []int64
}

func newSearchState(cs *cpSearch) *searchState {
	suffix := make([]int64, len(cs.tasks)+1)
	for i := len(cs.tasks) - 1; i >= 0; i-- {
		suffix[i] = suffix[i+1] + placementReward + cs.tasks[i].maxScore
	}
	return &searchState{
		search:  cs,
		checker: NewChecker(cs.solver.idx),
		suffix:  suffix,
	}
}

func (st *searchState) exploreRoot(ctx context.Context, branch int) error {
	st.chosen = st.chosen[:0]
	st.current = st.current[:0]
	st.value = 0

	if branch < 0 {
		return st.descend(ctx, 1)
	}

	candidate := st.search.tasks[0].candidates[branch]
	if !st.admissible(candidate) {
		return nil
	}
	st.push(candidate)
	err := st.descend(ctx, 1)
	st.pop()
	return err
}

func (st *searchState) descend(ctx context.Context, depth int) error {
	// Cooperative cancellation checkpoint at each branch.
	st.nodes++
	if st.nodes%256 == 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	if depth == len(st.search.tasks) {
		st.search.offer(st.value, st.chosen)
		return nil
	}

	// Bound: even placing every remaining task optimally cannot beat the incumbent.
	if st.value+st.suffix[depth] < st.search.bestValue() {
		return nil
	}

	current := st.search.tasks[depth]
	for _, candidate := range current.candidates {
		if !st.admissible(candidate) {
			continue
		}
		st.push(candidate)
		if err := st.descend(ctx, depth+1); err != nil {
			return err
		}
		st.pop()
	}

	// Skip branch: leave this session unmet.
	return st.descend(ctx, depth+1)
}

func (st *searchState) admissible(p placement) bool {
	a := st.search.solver.materialize(p, st.search.horizon)

	pool := st.current
	if len(st.search.existing) > 0 {
		pool = append(pool, st.search.existing...)
	}
	if st.checker.RoomConflict(&a, pool) || st.checker.TeacherConflict(&a, pool) {
		return false
	}

	// Load constraints count hours-per-session units, not slot geometry.
	weekly := p.unit.HoursPerSession
	daily := p.unit.HoursPerSession
	for i := range pool {
		other := &pool[i]
		if other.Teacher.ID != p.unit.Teacher.ID || other.Week != p.week {
			continue
		}
		weekly += p.unit.HoursPerSession
		if other.Slot.DayOfWeek == p.slot.DayOfWeek {
			daily += p.unit.HoursPerSession
		}
	}
	if weekly > p.unit.Teacher.MaxHoursPerWeek {
		return false
	}
	if daily > p.unit.Teacher.MaxHoursPerDay {
		return false
	}
	return true
}

func (st *searchState) push(p placement) {
	st.chosen = append(st.chosen, p)
	st.current = append(st.current, st.search.solver.materialize(p, st.search.horizon))
	st.value += placementReward + p.score
}

func (st *searchState) pop() {
	last := len(st.chosen) - 1
	st.value -= placementReward + st.chosen[last].score
	st.chosen = st.chosen[:last]
	st.current = st.current[:last]
}
