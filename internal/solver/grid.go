package solver

import (
	"fmt"

	"github.com/univops/timetable-api/internal/models"
)

// BuildDayGrid expands the configured day geometry into concrete weekly slots.
// Slots straddling the lunch window are skipped; generation resumes at its end.
func BuildDayGrid(cfg Config) []models.TimeSlot {
	var slots []models.TimeSlot
	for _, day := range cfg.WorkingDays {
		cursor := cfg.DayGridStart
		for cursor+cfg.SlotMinutes <= cfg.DayGridEnd {
			end := cursor + cfg.SlotMinutes
			if cursor < cfg.LunchEnd && cfg.LunchStart < end {
				cursor = cfg.LunchEnd
				continue
			}
			slots = append(slots, models.TimeSlot{
				ID:          fmt.Sprintf("grid-%d-%04d", day, cursor),
				DayOfWeek:   day,
				StartMinute: cursor,
				EndMinute:   end,
				Priority:    5,
				Active:      true,
			})
			cursor = end + cfg.SlotBreakMinutes
		}
	}
	return slots
}
