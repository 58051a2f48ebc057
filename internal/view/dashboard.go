package view

import (
	"time"

	"github.com/jwalitptl/dental-api/internal/model"
)

const (
	dashboardUpcoming    = 10
	dashboardTopPatients = 5
	dashboardRecent      = 8
	patientCompleted     = 5
)

type AdminDashboard struct {
	TotalPatients     int                             `json:"totalPatients"`
	TotalAppointments int                             `json:"totalAppointments"`
	Completed         int                             `json:"completedAppointments"`
	Pending           int                             `json:"pendingAppointments"`
	Revenue           float64                         `json:"revenue"`
	CompletionRate    float64                         `json:"completionRate"`
	StatusCounts      map[model.AppointmentStatus]int `json:"statusCounts"`
	Upcoming          []Activity                      `json:"upcoming"`
	TopPatients       []model.PatientSummary          `json:"topPatients"`
	RecentActivity    []Activity                      `json:"recentActivity"`
}

// BuildAdminDashboard computes the clinic-wide KPIs.
func BuildAdminDashboard(patients []model.Patient, appointments []model.Appointment, now time.Time) AdminDashboard {
	counts := CountByStatus(appointments)
	upcoming := limit(UpcomingAppointments(appointments, now), dashboardUpcoming)

	return AdminDashboard{
		TotalPatients:     len(patients),
		TotalAppointments: len(appointments),
		Completed:         counts[model.AppointmentStatusCompleted],
		Pending:           counts[model.AppointmentStatusPending],
		Revenue:           Revenue(appointments),
		CompletionRate:    CompletionRate(appointments),
		StatusCounts:      counts,
		Upcoming:          withNames(upcoming, patients),
		TopPatients:       TopPatientsByAppointmentCount(patients, appointments, dashboardTopPatients),
		RecentActivity:    RecentActivity(appointments, patients, dashboardRecent),
	}
}

type PatientDashboard struct {
	Patient   *model.Patient      `json:"patient"`
	Age       int                 `json:"age,omitempty"`
	Upcoming  []model.Appointment `json:"upcoming"`
	History   []model.Appointment `json:"history"`
	Completed []model.Appointment `json:"completed"`
	Total     int                 `json:"totalAppointments"`
	Pending   int                 `json:"pendingAppointments"`
	Spent     float64             `json:"totalSpent"`
}

// BuildPatientDashboard shows the signed-in patient their own records. The
// patient record is found by the session email; when none matches the
// dashboard is empty.
func BuildPatientDashboard(session model.Session, patients []model.Patient, appointments []model.Appointment, now time.Time) PatientDashboard {
	d := PatientDashboard{
		Upcoming:  []model.Appointment{},
		History:   []model.Appointment{},
		Completed: []model.Appointment{},
	}
	p, ok := PatientByEmail(patients, session.Email)
	if !ok {
		return d
	}

	mine := AppointmentsForPatient(appointments, p.ID)
	completed := make([]model.Appointment, 0)
	for _, a := range mine {
		if a.IsCompleted() {
			completed = append(completed, a)
		}
	}

	d.Patient = &p
	if age := Age(p.DateOfBirth, now); age >= 0 {
		d.Age = age
	}
	d.Upcoming = UpcomingAppointments(mine, now)
	d.History = PastOrCompleted(mine, now)
	d.Completed = limit(completed, patientCompleted)
	d.Total = len(mine)
	d.Pending = CountByStatus(mine)[model.AppointmentStatusPending]
	d.Spent = Revenue(mine)
	return d
}

func withNames(appointments []model.Appointment, patients []model.Patient) []Activity {
	out := make([]Activity, len(appointments))
	for i, a := range appointments {
		out[i] = Activity{Appointment: a, PatientName: PatientName(patients, a.PatientID)}
	}
	return out
}
