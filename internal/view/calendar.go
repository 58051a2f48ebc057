package view

import (
	"fmt"
	"slices"
	"time"

	"github.com/jwalitptl/dental-api/internal/model"
)

// Weekdays heads the calendar columns; weeks start on Sunday.
var Weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

type CalendarDay struct {
	Date         string     `json:"date"`
	Appointments []Activity `json:"appointments"`
}

type Month struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Label string `json:"label"`
	// LeadingBlanks is the number of empty cells before the 1st.
	LeadingBlanks int           `json:"leadingBlanks"`
	Weekdays      []string      `json:"weekdays"`
	Days          []CalendarDay `json:"days"`
}

// ParseMonth reads "YYYY-MM".
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, want YYYY-MM", s)
	}
	return t.Year(), t.Month(), nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// AppointmentsOnDate keeps appointments falling on day's calendar date in
// loc, earliest first.
func AppointmentsOnDate(appointments []model.Appointment, day time.Time, loc *time.Location) []model.Appointment {
	if loc == nil {
		loc = time.UTC
	}
	day = day.In(loc)
	out := make([]model.Appointment, 0)
	for _, a := range appointments {
		if sameDay(a.AppointmentDate.In(loc), day) {
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, byDateAsc)
	return out
}

// MonthCalendar lays out one month with each day's appointments.
func MonthCalendar(appointments []model.Appointment, patients []model.Patient, year int, month time.Month, loc *time.Location) Month {
	if loc == nil {
		loc = time.UTC
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	daysIn := first.AddDate(0, 1, -1).Day()

	byDay := make(map[int][]model.Appointment)
	for _, a := range appointments {
		t := a.AppointmentDate.In(loc)
		if t.Year() == year && t.Month() == month {
			byDay[t.Day()] = append(byDay[t.Day()], a)
		}
	}

	m := Month{
		Year:          year,
		Month:         int(month),
		Label:         first.Format("January 2006"),
		LeadingBlanks: int(first.Weekday()),
		Weekdays:      slices.Clone(Weekdays),
		Days:          make([]CalendarDay, daysIn),
	}
	for d := 1; d <= daysIn; d++ {
		day := byDay[d]
		slices.SortStableFunc(day, byDateAsc)
		m.Days[d-1] = CalendarDay{
			Date:         time.Date(year, month, d, 0, 0, 0, 0, loc).Format("2006-01-02"),
			Appointments: withNames(day, patients),
		}
	}
	return m
}
