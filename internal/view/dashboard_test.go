package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/dental-api/internal/model"
)

func TestBuildAdminDashboard(t *testing.T) {
	d := BuildAdminDashboard(patients, appointments, now)

	assert.Equal(t, 3, d.TotalPatients)
	assert.Equal(t, 5, d.TotalAppointments)
	assert.Equal(t, 2, d.Completed)
	assert.Equal(t, 1, d.Pending)
	assert.Equal(t, 350.0, d.Revenue)
	assert.InDelta(t, 0.4, d.CompletionRate, 1e-9)
	require.Len(t, d.Upcoming, 3)
	assert.Equal(t, "Jane Smith", d.Upcoming[0].PatientName)
	assert.Len(t, d.TopPatients, 3)
	assert.Len(t, d.RecentActivity, 5)
}

func TestBuildAdminDashboardEmpty(t *testing.T) {
	d := BuildAdminDashboard(nil, nil, now)
	assert.Zero(t, d.CompletionRate)
	assert.Zero(t, d.Revenue)
	assert.NotNil(t, d.Upcoming)
	assert.NotNil(t, d.RecentActivity)
}

func TestBuildPatientDashboard(t *testing.T) {
	session := model.Session{ID: 3, Email: "jane@email.com", Name: "Jane Smith", Role: model.RolePatient}
	d := BuildPatientDashboard(session, patients, appointments, now)

	require.NotNil(t, d.Patient)
	assert.Equal(t, jane.ID, d.Patient.ID)
	assert.Equal(t, 3, d.Total)
	assert.Equal(t, 1, d.Pending)
	assert.Equal(t, []int64{11, 12}, apptIDs(d.Upcoming))
	assert.Equal(t, []int64{14}, apptIDs(d.History))
	assert.Empty(t, d.Completed)
	assert.Zero(t, d.Spent)
}

func TestBuildPatientDashboardWithoutRecord(t *testing.T) {
	session := model.Session{ID: 9, Email: "stranger@email.com", Role: model.RolePatient}
	d := BuildPatientDashboard(session, patients, appointments, now)

	assert.Nil(t, d.Patient)
	assert.Zero(t, d.Total)
	assert.NotNil(t, d.Upcoming)
	assert.NotNil(t, d.History)
}

func TestMonthCalendar(t *testing.T) {
	m := MonthCalendar(appointments, patients, 2025, time.July, time.UTC)

	assert.Equal(t, "July 2025", m.Label)
	assert.Equal(t, 2, m.LeadingBlanks, "1 July 2025 is a Tuesday")
	require.Len(t, m.Days, 31)
	assert.Equal(t, "2025-07-01", m.Days[0].Date)
	assert.Empty(t, m.Days[0].Appointments)

	day20 := m.Days[19]
	require.Len(t, day20.Appointments, 2)
	assert.Equal(t, int64(12), day20.Appointments[0].ID)
	assert.Equal(t, "John Doe", day20.Appointments[1].PatientName)

	feb := MonthCalendar(appointments, patients, 2024, time.February, time.UTC)
	assert.Len(t, feb.Days, 29)
}

func TestMonthCalendarUsesLocation(t *testing.T) {
	late := []model.Appointment{appt(1, 1, "Late", "2025-07-31T23:30:00", model.AppointmentStatusPending, 0)}
	tokyo := time.FixedZone("JST", 9*3600)

	m := MonthCalendar(late, patients, 2025, time.July, tokyo)
	for _, d := range m.Days {
		assert.Empty(t, d.Appointments)
	}
	aug := MonthCalendar(late, patients, 2025, time.August, tokyo)
	assert.Len(t, aug.Days[0].Appointments, 1)
}

func TestAppointmentsOnDate(t *testing.T) {
	day := time.Date(2025, 7, 20, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, []int64{12, 13}, apptIDs(AppointmentsOnDate(appointments, day, nil)))
	assert.Empty(t, AppointmentsOnDate(appointments, day.AddDate(0, 0, 1), time.UTC))
}

func TestParseMonth(t *testing.T) {
	y, m, err := ParseMonth("2025-07")
	require.NoError(t, err)
	assert.Equal(t, 2025, y)
	assert.Equal(t, time.July, m)

	_, _, err = ParseMonth("July")
	assert.Error(t, err)
}
