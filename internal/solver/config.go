package solver

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/univops/timetable-api/internal/models"
)

// Config carries every knob a planning run recognises. A value is built per
// run and passed down explicitly; the solver keeps no process-wide defaults.
type Config struct {
	// HoursPerSession drives the session count per subject in the variable model.
	HoursPerSession int
	// SlotMinutes is the geometry of generated day-grid slots.
	SlotMinutes int
	// SlotBreakMinutes separates consecutive generated slots.
	SlotBreakMinutes int
	// DayGridStart/DayGridEnd bound the teaching day, minutes from midnight.
	DayGridStart int
	DayGridEnd   int
	// LunchStart/LunchEnd delimit the half-open excluded window.
	LunchStart int
	LunchEnd   int
	// WorkingDays lists schedulable days, Mon=0.
	WorkingDays []int
	// TimeLimit bounds the CP search wall clock.
	TimeLimit time.Duration
	// Workers bounds CP search parallelism.
	Workers int
	// MaxAttempts bounds per-session placement retries in the greedy generator.
	MaxAttempts int
	// Seed, when set, drives greedy tie-breaking; otherwise entity-ID order.
	Seed *int64
}

// DefaultConfig returns the standard day grid: 08:00-18:00 in 90 minute slots
// with a 15 minute break, lunch excluded over [12:00, 14:00), Mon-Fri.
func DefaultConfig() Config {
	return Config{
		HoursPerSession:  2,
		SlotMinutes:      90,
		SlotBreakMinutes: 15,
		DayGridStart:     8 * 60,
		DayGridEnd:       18 * 60,
		LunchStart:       12 * 60,
		LunchEnd:         14 * 60,
		WorkingDays:      []int{0, 1, 2, 3, 4},
		TimeLimit:        300 * time.Second,
		Workers:          4,
		MaxAttempts:      10,
	}
}

// configOverrides is the wire shape of per-run knobs; clocks arrive as HH:MM.
type configOverrides struct {
	HoursPerSession *int    `mapstructure:"hours_per_session"`
	SlotMinutes     *int    `mapstructure:"slot_minutes"`
	DayGridStart    *string `mapstructure:"day_grid_start"`
	DayGridEnd      *string `mapstructure:"day_grid_end"`
	LunchBreakStart *string `mapstructure:"lunch_break_start"`
	LunchBreakEnd   *string `mapstructure:"lunch_break_end"`
	WorkingDays     []int   `mapstructure:"working_days"`
}

// ApplyOverrides merges request-level knobs into the config. Unknown keys are
// rejected so typos surface instead of silently using defaults.
func (c *Config) ApplyOverrides(raw map[string]any) error {
	if len(raw) == 0 {
		return nil
	}

	var overrides configOverrides
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &overrides,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("decode config overrides: %w", err)
	}

	if overrides.HoursPerSession != nil {
		c.HoursPerSession = *overrides.HoursPerSession
	}
	if overrides.SlotMinutes != nil {
		c.SlotMinutes = *overrides.SlotMinutes
	}
	if overrides.WorkingDays != nil {
		c.WorkingDays = overrides.WorkingDays
	}

	clockFields := []struct {
		raw  *string
		dest *int
	}{
		{overrides.DayGridStart, &c.DayGridStart},
		{overrides.DayGridEnd, &c.DayGridEnd},
		{overrides.LunchBreakStart, &c.LunchStart},
		{overrides.LunchBreakEnd, &c.LunchEnd},
	}
	for _, field := range clockFields {
		if field.raw == nil {
			continue
		}
		minute, err := models.ParseClock(*field.raw)
		if err != nil {
			return err
		}
		*field.dest = minute
	}

	return c.Validate()
}

// Validate rejects geometries the model cannot express.
func (c *Config) Validate() error {
	if c.HoursPerSession <= 0 {
		return fmt.Errorf("hours_per_session must be positive")
	}
	if c.SlotMinutes <= 0 {
		return fmt.Errorf("slot_minutes must be positive")
	}
	if c.DayGridStart >= c.DayGridEnd {
		return fmt.Errorf("day grid start %s must precede end %s",
			models.MinuteClock(c.DayGridStart), models.MinuteClock(c.DayGridEnd))
	}
	if c.DayGridEnd > 24*60 {
		return fmt.Errorf("day grid may not straddle midnight")
	}
	for _, day := range c.WorkingDays {
		if day < 0 || day > 6 {
			return fmt.Errorf("working day %d out of range 0..6", day)
		}
	}
	return nil
}
