package solver

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/univops/timetable-api/internal/models"
)

// AvailabilityQuery asks which rooms are free in a weekly window over a date
// range. Zero-value filters mean "any".
type AvailabilityQuery struct {
	DayOfWeek    int
	StartMinute  int
	EndMinute    int
	From         time.Time
	To           time.Time
	RoomKind     models.RoomKind
	DepartmentID string
}

// FreeRooms computes the occupied-room set once from the sessions that clash
// with the query window, then filters the candidate rooms against it. Output
// order is priority desc, capacity desc, ID asc.
func FreeRooms(idx *Index, sessions []*models.Session, q AvailabilityQuery) []*models.Room {
	occupied := map[string]struct{}{}
	for _, s := range sessions {
		if !s.Active {
			continue
		}
		slot := idx.Slot(s.TimeSlotID)
		if slot == nil || slot.DayOfWeek != q.DayOfWeek {
			continue
		}
		if slot.StartMinute >= q.EndMinute || q.StartMinute >= slot.EndMinute {
			continue
		}
		if s.StartDate.After(q.To) || q.From.After(s.EndDate) {
			continue
		}
		occupied[s.RoomID] = struct{}{}
	}

	pool := idx.AllRooms()
	if q.DepartmentID != "" {
		pool = idx.RoomsOf(q.DepartmentID)
	}

	free := lo.Filter(pool, func(r *models.Room, _ int) bool {
		if !r.Available {
			return false
		}
		if q.RoomKind != "" && r.Kind != q.RoomKind {
			return false
		}
		_, busy := occupied[r.ID]
		return !busy
	})

	out := make([]*models.Room, len(free))
	copy(out, free)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		if out[i].Capacity != out[j].Capacity {
			return out[i].Capacity > out[j].Capacity
		}
		return out[i].ID < out[j].ID
	})
	return out
}
